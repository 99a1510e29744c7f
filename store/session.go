package store

import (
	"context"
	"time"
)

// Session is a timed conference session from the catalog.
// StartTs and EndTs are unix seconds; zero means unknown.
type Session struct {
	ID          string
	Title       string
	Description string
	StartTs     int64
	EndTs       int64
	Location    string
	Track       string
	Format      string
	Level       string
	Tags        []string
	Speakers    []SpeakerRef
	SourceURL   string
	CreatedTs   int64
	UpdatedTs   int64
}

// SpeakerRef is the speaker reference embedded in sessions and schedule items.
type SpeakerRef struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Company string `json:"company,omitempty"`
	Role    string `json:"role,omitempty"`
}

// Speaker is a speaker profile from the catalog.
type Speaker struct {
	ID             string
	Name           string
	Bio            string
	Company        string
	Role           string
	ImageURL       string
	LinkedinURL    string
	TwitterURL     string
	WebsiteURL     string
	ProfileSummary string
	CompanyProfile string
	Expertise      []string
	Achievements   []string
	CreatedTs      int64
	UpdatedTs      int64
}

// FindSession is the find condition for sessions.
type FindSession struct {
	ID    *string
	IDs   []string
	Track *string

	// StartTsFrom and StartTsTo bound the session start time, inclusive.
	StartTsFrom *int64
	StartTsTo   *int64

	Limit  *int
	Offset *int
}

// FindSpeaker is the find condition for speakers.
type FindSpeaker struct {
	ID  *string
	IDs []string
}

// StartTime returns the session start, zero when unknown.
func (s *Session) StartTime() time.Time {
	if s.StartTs <= 0 {
		return time.Time{}
	}
	return time.Unix(s.StartTs, 0)
}

// EndTime returns the session end, zero when unknown.
func (s *Session) EndTime() time.Time {
	if s.EndTs <= 0 {
		return time.Time{}
	}
	return time.Unix(s.EndTs, 0)
}

// HasValidTiming reports whether both endpoints are known and ordered.
func (s *Session) HasValidTiming() bool {
	return s.StartTs > 0 && s.EndTs > s.StartTs
}

// UpsertSession creates or replaces a catalog session.
func (s *Store) UpsertSession(ctx context.Context, upsert *Session) (*Session, error) {
	return s.driver.UpsertSession(ctx, upsert)
}

// ListSessions lists catalog sessions ordered by start time.
func (s *Store) ListSessions(ctx context.Context, find *FindSession) ([]*Session, error) {
	return s.driver.ListSessions(ctx, find)
}

// GetSession returns a single session, or nil.
func (s *Store) GetSession(ctx context.Context, id string) (*Session, error) {
	list, err := s.driver.ListSessions(ctx, &FindSession{ID: &id})
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	return list[0], nil
}

// UpsertSpeaker creates or replaces a speaker profile.
func (s *Store) UpsertSpeaker(ctx context.Context, upsert *Speaker) (*Speaker, error) {
	return s.driver.UpsertSpeaker(ctx, upsert)
}

// ListSpeakers lists speaker profiles ordered by name.
func (s *Store) ListSpeakers(ctx context.Context, find *FindSpeaker) ([]*Speaker, error) {
	return s.driver.ListSpeakers(ctx, find)
}
