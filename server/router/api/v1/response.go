package v1

import (
	"time"

	"github.com/hrygo/confagenda/internal/conference"
	"github.com/hrygo/confagenda/store"
)

type AgendaResponse struct {
	ID             string             `json:"id"`
	UserID         string             `json:"userId"`
	IsActive       bool               `json:"isActive"`
	GeneratedBy    store.GeneratedBy  `json:"generatedBy"`
	Version        int32              `json:"version"`
	TotalSessions  int32              `json:"totalSessions"`
	FavoritesCount int32              `json:"favoritesCount"`
	Snapshot       *store.SmartAgenda `json:"snapshot"`
	CreatedTs      int64              `json:"createdTs"`
	UpdatedTs      int64              `json:"updatedTs"`
}

func convertAgenda(agenda *store.Agenda) *AgendaResponse {
	return &AgendaResponse{
		ID:             agenda.ID,
		UserID:         agenda.UserID,
		IsActive:       agenda.IsActive,
		GeneratedBy:    agenda.GeneratedBy,
		Version:        agenda.Version,
		TotalSessions:  agenda.TotalSessions,
		FavoritesCount: agenda.FavoritesCount,
		Snapshot:       agenda.Snapshot,
		CreatedTs:      agenda.CreatedTs,
		UpdatedTs:      agenda.UpdatedTs,
	}
}

type AgendaVersionResponse struct {
	ID                string             `json:"id"`
	AgendaID          string             `json:"agendaId"`
	Version           int32              `json:"version"`
	ChangeDescription string             `json:"changeDescription"`
	ChangedBy         string             `json:"changedBy"`
	Snapshot          *store.SmartAgenda `json:"snapshot,omitempty"`
	CreatedTs         int64              `json:"createdTs"`
}

func convertAgendaVersion(version *store.AgendaVersion) *AgendaVersionResponse {
	return &AgendaVersionResponse{
		ID:                version.ID,
		AgendaID:          version.AgendaID,
		Version:           version.Version,
		ChangeDescription: version.ChangeDescription,
		ChangedBy:         version.ChangedBy,
		Snapshot:          version.Snapshot,
		CreatedTs:         version.CreatedTs,
	}
}

type AgendaSessionResponse struct {
	SessionID  string           `json:"sessionId"`
	DayNumber  int32            `json:"dayNumber"`
	Source     store.ItemSource `json:"source"`
	IsFavorite bool             `json:"isFavorite"`
	IsLocked   bool             `json:"isLocked"`
}

type SessionResponse struct {
	ID          string             `json:"id"`
	Title       string             `json:"title"`
	Description string             `json:"description,omitempty"`
	StartTime   string             `json:"startTime,omitempty"`
	EndTime     string             `json:"endTime,omitempty"`
	Day         int                `json:"day,omitempty"`
	DisplayTime string             `json:"displayTime,omitempty"`
	Location    string             `json:"location,omitempty"`
	Track       string             `json:"track,omitempty"`
	Format      string             `json:"format,omitempty"`
	Level       string             `json:"level,omitempty"`
	Tags        []string           `json:"tags"`
	Speakers    []store.SpeakerRef `json:"speakers"`
	SourceURL   string             `json:"sourceUrl,omitempty"`
}

func convertSession(conf *conference.Conference, session *store.Session) *SessionResponse {
	response := &SessionResponse{
		ID:          session.ID,
		Title:       session.Title,
		Description: session.Description,
		Location:    session.Location,
		Track:       session.Track,
		Format:      session.Format,
		Level:       session.Level,
		Tags:        session.Tags,
		Speakers:    session.Speakers,
		SourceURL:   session.SourceURL,
	}
	if response.Tags == nil {
		response.Tags = []string{}
	}
	if response.Speakers == nil {
		response.Speakers = []store.SpeakerRef{}
	}
	if session.HasValidTiming() {
		response.StartTime = session.StartTime().UTC().Format(time.RFC3339)
		response.EndTime = session.EndTime().UTC().Format(time.RFC3339)
		response.Day = conf.DayNumber(session.StartTime())
		response.DisplayTime = conf.DisplayTime(session.StartTime())
	}
	return response
}

func convertSessions(conf *conference.Conference, sessions []*store.Session) []*SessionResponse {
	list := make([]*SessionResponse, 0, len(sessions))
	for _, session := range sessions {
		list = append(list, convertSession(conf, session))
	}
	return list
}

type FavoriteResponse struct {
	ID        int32  `json:"id"`
	SessionID string `json:"sessionId"`
	Type      string `json:"type"`
	CreatedTs int64  `json:"createdTs"`
}

func convertFavorite(favorite *store.Favorite) *FavoriteResponse {
	return &FavoriteResponse{
		ID:        favorite.ID,
		SessionID: favorite.SessionID,
		Type:      favorite.Type,
		CreatedTs: favorite.CreatedTs,
	}
}
