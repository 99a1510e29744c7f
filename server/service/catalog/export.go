package catalog

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/hrygo/confagenda/store"
)

const listSeparator = "|"

var (
	sessionCSVHeader        = []string{"id", "title", "description", "startTime", "endTime", "location", "track", "level", "tags", "sourceUrl", "lastUpdated", "createdAt"}
	speakerCSVHeader        = []string{"id", "name", "bio", "company", "role", "imageUrl", "linkedinUrl", "twitterUrl", "websiteUrl", "profileSummary", "companyProfile", "expertise", "achievements", "lastProfileSync", "createdAt"}
	sessionSpeakerCSVHeader = []string{"sessionId", "speakerId"}
)

// ExportResult counts the rows written by ExportCSV.
type ExportResult struct {
	Sessions        int
	Speakers        int
	SessionSpeakers int
}

// ExportCSV writes sessions.csv, speakers.csv and session_speakers.csv into dir.
func (s *Service) ExportCSV(ctx context.Context, dir string) (*ExportResult, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "failed to create export dir %s", dir)
	}
	sessions, err := s.store.ListSessions(ctx, &store.FindSession{})
	if err != nil {
		return nil, errors.Wrap(err, "failed to list sessions")
	}
	speakers, err := s.store.ListSpeakers(ctx, &store.FindSpeaker{})
	if err != nil {
		return nil, errors.Wrap(err, "failed to list speakers")
	}

	sessionRows := make([][]string, 0, len(sessions))
	relationRows := [][]string{}
	for _, session := range sessions {
		sessionRows = append(sessionRows, []string{
			session.ID,
			session.Title,
			session.Description,
			formatExportTime(session.StartTs),
			formatExportTime(session.EndTs),
			session.Location,
			session.Track,
			session.Level,
			strings.Join(session.Tags, listSeparator),
			session.SourceURL,
			formatExportTime(session.UpdatedTs),
			formatExportTime(session.CreatedTs),
		})
		for _, speaker := range session.Speakers {
			relationRows = append(relationRows, []string{session.ID, speaker.ID})
		}
	}

	speakerRows := make([][]string, 0, len(speakers))
	for _, speaker := range speakers {
		speakerRows = append(speakerRows, []string{
			speaker.ID,
			speaker.Name,
			speaker.Bio,
			speaker.Company,
			speaker.Role,
			speaker.ImageURL,
			speaker.LinkedinURL,
			speaker.TwitterURL,
			speaker.WebsiteURL,
			speaker.ProfileSummary,
			speaker.CompanyProfile,
			strings.Join(speaker.Expertise, listSeparator),
			strings.Join(speaker.Achievements, listSeparator),
			"",
			formatExportTime(speaker.CreatedTs),
		})
	}

	files := []struct {
		name   string
		header []string
		rows   [][]string
	}{
		{"sessions.csv", sessionCSVHeader, sessionRows},
		{"speakers.csv", speakerCSVHeader, speakerRows},
		{"session_speakers.csv", sessionSpeakerCSVHeader, relationRows},
	}
	for _, f := range files {
		if err := writeCSV(filepath.Join(dir, f.name), f.header, f.rows); err != nil {
			return nil, err
		}
	}
	return &ExportResult{
		Sessions:        len(sessionRows),
		Speakers:        len(speakerRows),
		SessionSpeakers: len(relationRows),
	}, nil
}

func writeCSV(path string, header []string, rows [][]string) error {
	file, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "failed to create %s", path)
	}
	defer file.Close()

	w := csv.NewWriter(file)
	if err := w.Write(header); err != nil {
		return errors.Wrapf(err, "failed to write %s", path)
	}
	if err := w.WriteAll(rows); err != nil {
		return errors.Wrapf(err, "failed to write %s", path)
	}
	return file.Close()
}

func formatExportTime(ts int64) string {
	if ts <= 0 {
		return ""
	}
	return time.Unix(ts, 0).UTC().Format(time.RFC3339)
}
