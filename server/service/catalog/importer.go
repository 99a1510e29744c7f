package catalog

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/xeipuuv/gojsonschema"

	"github.com/hrygo/confagenda/store"
)

// exportSchema describes the conference data export accepted by Import.
const exportSchema = `{
  "type": "object",
  "required": ["data"],
  "properties": {
    "metadata": {
      "type": "object",
      "properties": {
        "exportedAt": {"type": "string"},
        "counts": {"type": "object"}
      }
    },
    "data": {
      "type": "object",
      "required": ["sessions"],
      "properties": {
        "sessions": {
          "type": "array",
          "items": {
            "type": "object",
            "required": ["id", "title"],
            "properties": {
              "id": {"type": "string", "minLength": 1},
              "title": {"type": "string"},
              "startTime": {"type": ["string", "null"]},
              "endTime": {"type": ["string", "null"]},
              "tags": {"type": ["array", "null"], "items": {"type": "string"}}
            }
          }
        },
        "speakers": {
          "type": "array",
          "items": {
            "type": "object",
            "required": ["id", "name"],
            "properties": {
              "id": {"type": "string", "minLength": 1},
              "name": {"type": "string"}
            }
          }
        },
        "sessionSpeakers": {
          "type": "array",
          "items": {
            "type": "object",
            "required": ["sessionId", "speakerId"],
            "properties": {
              "sessionId": {"type": "string"},
              "speakerId": {"type": "string"}
            }
          }
        }
      }
    }
  }
}`

type exportDocument struct {
	Metadata struct {
		ExportedAt string         `json:"exportedAt"`
		Counts     map[string]int `json:"counts"`
	} `json:"metadata"`
	Data struct {
		Sessions        []exportSession        `json:"sessions"`
		Speakers        []exportSpeaker        `json:"speakers"`
		SessionSpeakers []exportSessionSpeaker `json:"sessionSpeakers"`
	} `json:"data"`
}

type exportSession struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	StartTime   string   `json:"startTime"`
	EndTime     string   `json:"endTime"`
	Location    string   `json:"location"`
	Track       string   `json:"track"`
	Format      string   `json:"format"`
	Level       string   `json:"level"`
	Tags        []string `json:"tags"`
	SourceURL   string   `json:"sourceUrl"`
}

type exportSpeaker struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	Bio            string   `json:"bio"`
	Company        string   `json:"company"`
	Role           string   `json:"role"`
	ImageURL       string   `json:"imageUrl"`
	LinkedinURL    string   `json:"linkedinUrl"`
	TwitterURL     string   `json:"twitterUrl"`
	WebsiteURL     string   `json:"websiteUrl"`
	ProfileSummary string   `json:"profileSummary"`
	CompanyProfile string   `json:"companyProfile"`
	Expertise      []string `json:"expertise"`
	Achievements   []string `json:"achievements"`
}

type exportSessionSpeaker struct {
	SessionID string `json:"sessionId"`
	SpeakerID string `json:"speakerId"`
}

// ImportResult counts the records written by Import.
type ImportResult struct {
	Sessions        int `json:"sessions"`
	Speakers        int `json:"speakers"`
	SessionSpeakers int `json:"sessionSpeakers"`
}

// ValidationError lists the schema violations of an import document.
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	return "invalid catalog export: " + strings.Join(e.Errors, "; ")
}

// Import reads a conference JSON export, upserts its speakers and sessions and
// attaches speaker references through sessionSpeakers.
func (s *Service) Import(ctx context.Context, r io.Reader) (*ImportResult, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read catalog export")
	}

	result, err := gojsonschema.Validate(gojsonschema.NewStringLoader(exportSchema), gojsonschema.NewBytesLoader(data))
	if err != nil {
		return nil, errors.Wrap(err, "schema validation failed")
	}
	if !result.Valid() {
		var errorMsgs []string
		for _, err := range result.Errors() {
			errorMsgs = append(errorMsgs, err.String())
		}
		return nil, &ValidationError{Errors: errorMsgs}
	}

	var doc exportDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrap(err, "failed to decode catalog export")
	}

	speakersByID := make(map[string]exportSpeaker, len(doc.Data.Speakers))
	for _, speaker := range doc.Data.Speakers {
		speakersByID[speaker.ID] = speaker
		if _, err := s.store.UpsertSpeaker(ctx, &store.Speaker{
			ID:             speaker.ID,
			Name:           speaker.Name,
			Bio:            speaker.Bio,
			Company:        speaker.Company,
			Role:           speaker.Role,
			ImageURL:       speaker.ImageURL,
			LinkedinURL:    speaker.LinkedinURL,
			TwitterURL:     speaker.TwitterURL,
			WebsiteURL:     speaker.WebsiteURL,
			ProfileSummary: speaker.ProfileSummary,
			CompanyProfile: speaker.CompanyProfile,
			Expertise:      speaker.Expertise,
			Achievements:   speaker.Achievements,
		}); err != nil {
			return nil, errors.Wrapf(err, "failed to import speaker %s", speaker.ID)
		}
	}

	refs := map[string][]store.SpeakerRef{}
	linked := 0
	for _, rel := range doc.Data.SessionSpeakers {
		speaker, ok := speakersByID[rel.SpeakerID]
		if !ok {
			slog.Warn("session speaker references unknown speaker",
				slog.String("sessionId", rel.SessionID), slog.String("speakerId", rel.SpeakerID))
			continue
		}
		refs[rel.SessionID] = append(refs[rel.SessionID], store.SpeakerRef{
			ID:      speaker.ID,
			Name:    speaker.Name,
			Company: speaker.Company,
			Role:    speaker.Role,
		})
		linked++
	}

	for _, session := range doc.Data.Sessions {
		if _, err := s.store.UpsertSession(ctx, &store.Session{
			ID:          session.ID,
			Title:       session.Title,
			Description: session.Description,
			StartTs:     parseExportTime(session.StartTime),
			EndTs:       parseExportTime(session.EndTime),
			Location:    session.Location,
			Track:       session.Track,
			Format:      session.Format,
			Level:       session.Level,
			Tags:        session.Tags,
			Speakers:    refs[session.ID],
			SourceURL:   session.SourceURL,
		}); err != nil {
			return nil, errors.Wrapf(err, "failed to import session %s", session.ID)
		}
	}

	s.Invalidate()
	slog.Info("catalog imported",
		slog.String("exportedAt", doc.Metadata.ExportedAt),
		slog.Int("sessions", len(doc.Data.Sessions)),
		slog.Int("speakers", len(doc.Data.Speakers)),
		slog.Int("sessionSpeakers", linked),
	)
	return &ImportResult{
		Sessions:        len(doc.Data.Sessions),
		Speakers:        len(doc.Data.Speakers),
		SessionSpeakers: linked,
	}, nil
}

// parseExportTime parses an ISO-8601 timestamp; unparseable values become 0 (unknown).
func parseExportTime(value string) int64 {
	if value == "" {
		return 0
	}
	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		slog.Warn("ignoring unparseable session time", slog.String("value", value))
		return 0
	}
	return t.Unix()
}
