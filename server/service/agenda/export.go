package agenda

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/gorilla/feeds"
	"github.com/yuin/goldmark"

	apperrors "github.com/hrygo/confagenda/server/internal/errors"
	"github.com/hrygo/confagenda/store"
)

const icsProductID = "-//confagenda//Smart Agenda//EN"

// exportEntry is one scheduled session resolved against the catalog.
type exportEntry struct {
	item    *store.ScheduleItem
	session *store.Session
}

// activeEntries loads the active agenda of a user and resolves its timed
// sessions against the catalog, in schedule order.
func (s *service) activeEntries(ctx context.Context, userID string) (*store.Agenda, []*exportEntry, error) {
	active, err := s.GetActive(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	if active == nil {
		return nil, nil, apperrors.NotFound("no active agenda for user %s", userID)
	}
	_, byID, err := s.hydrate(ctx, active.Snapshot)
	if err != nil {
		return nil, nil, err
	}

	entries := []*exportEntry{}
	for _, ds := range active.Snapshot.SortedDays() {
		for _, item := range ds.Schedule {
			if item == nil || item.Kind != store.ItemKindSession {
				continue
			}
			session, ok := byID[item.SessionID()]
			if !ok || !session.HasValidTiming() {
				continue
			}
			entries = append(entries, &exportEntry{item: item, session: session})
		}
	}
	return active, entries, nil
}

func (s *service) ExportICS(ctx context.Context, userID string) (string, error) {
	active, entries, err := s.activeEntries(ctx, userID)
	if err != nil {
		return "", err
	}

	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(icsProductID)
	cal.SetXWRCalName(s.conference.Name)
	cal.SetXWRTimezone(s.conference.Timezone)

	stamp := time.Unix(active.UpdatedTs, 0).UTC()
	for _, entry := range entries {
		event := cal.AddEvent(fmt.Sprintf("%s-%s@confagenda", active.ID, entry.session.ID))
		event.SetDtStampTime(stamp)
		event.SetStartAt(entry.session.StartTime().UTC())
		event.SetEndAt(entry.session.EndTime().UTC())
		event.SetSummary(entry.session.Title)
		if entry.session.Location != "" {
			event.SetLocation(entry.session.Location)
		}
		if description := plainDescription(entry.session); description != "" {
			event.SetDescription(description)
		}
		if entry.session.SourceURL != "" {
			event.SetURL(entry.session.SourceURL)
		}
		if entry.item.IsFavorite {
			event.AddProperty(ical.ComponentPropertyCategories, "FAVORITE")
		}
	}
	return cal.Serialize(), nil
}

func (s *service) ExportFeed(ctx context.Context, userID string) (string, error) {
	active, entries, err := s.activeEntries(ctx, userID)
	if err != nil {
		return "", err
	}

	feed := &feeds.Feed{
		Id:          "urn:confagenda:agenda:" + active.ID,
		Title:       fmt.Sprintf("%s Smart Agenda", s.conference.Name),
		Link:        &feeds.Link{Href: "/api/v1/agendas/" + active.ID},
		Description: fmt.Sprintf("Version %d of the agenda of %s", active.Version, active.UserID),
		Author:      &feeds.Author{Name: active.UserID},
		Created:     time.Unix(active.CreatedTs, 0).UTC(),
		Updated:     time.Unix(active.UpdatedTs, 0).UTC(),
		Items:       make([]*feeds.Item, 0, len(entries)),
	}
	for _, entry := range entries {
		content, err := renderMarkdown(markdownDescription(entry.session))
		if err != nil {
			return "", apperrors.Internal("failed to render session description", err)
		}
		link := entry.session.SourceURL
		if link == "" {
			link = "/api/v1/sessions/" + entry.session.ID
		}
		feed.Items = append(feed.Items, &feeds.Item{
			Id:          entry.session.ID,
			Title:       fmt.Sprintf("%s %s: %s", s.conference.DateOf(s.conference.DayNumber(entry.session.StartTime())), entry.item.Time, entry.session.Title),
			Link:        &feeds.Link{Href: link},
			Description: entry.session.Location,
			Content:     content,
			Created:     entry.session.StartTime().UTC(),
		})
	}
	atom, err := feed.ToAtom()
	if err != nil {
		return "", apperrors.Internal("failed to encode agenda feed", err)
	}
	return atom, nil
}

// markdownDescription builds the markdown body of a session entry.
func markdownDescription(session *store.Session) string {
	var sb strings.Builder
	if session.Description != "" {
		sb.WriteString(session.Description)
		sb.WriteString("\n\n")
	}
	if session.Track != "" {
		fmt.Fprintf(&sb, "**Track:** %s\n\n", session.Track)
	}
	if len(session.Speakers) > 0 {
		sb.WriteString("**Speakers:**\n\n")
		for _, speaker := range session.Speakers {
			if speaker.Company != "" {
				fmt.Fprintf(&sb, "- %s (%s)\n", speaker.Name, speaker.Company)
			} else {
				fmt.Fprintf(&sb, "- %s\n", speaker.Name)
			}
		}
	}
	return strings.TrimSpace(sb.String())
}

// plainDescription is the text body used in calendar events.
func plainDescription(session *store.Session) string {
	names := make([]string, 0, len(session.Speakers))
	for _, speaker := range session.Speakers {
		names = append(names, speaker.Name)
	}
	parts := []string{}
	if session.Description != "" {
		parts = append(parts, session.Description)
	}
	if len(names) > 0 {
		parts = append(parts, "Speakers: "+strings.Join(names, ", "))
	}
	return strings.Join(parts, "\n\n")
}

func renderMarkdown(source string) (string, error) {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(source), &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}
