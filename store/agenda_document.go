package store

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/pkg/errors"
)

// ItemKind is the kind of a schedule item.
type ItemKind string

const (
	ItemKindSession ItemKind = "session"
	ItemKindMeal    ItemKind = "meal"
	ItemKindBreak   ItemKind = "break"
)

// ItemSource records why an item is in the agenda.
type ItemSource string

const (
	SourceAISuggested  ItemSource = "ai-suggested"
	SourceUserFavorite ItemSource = "user-favorite"
)

// SmartAgenda is the complete multi-day personalized schedule of one user.
// Days are keyed "day1", "day2", "day3".
type SmartAgenda struct {
	Days     map[string]*DaySchedule `json:"days"`
	Metadata AgendaMetadata          `json:"metadata"`
}

// AgendaMetadata summarizes a SmartAgenda.
type AgendaMetadata struct {
	TotalSessions int      `json:"totalSessions"`
	DaysIncluded  []int    `json:"daysIncluded"`
	Tracks        []string `json:"tracks"`
}

// DaySchedule is one conference day. Schedule is kept in ascending time order.
type DaySchedule struct {
	DayNumber int             `json:"dayNumber"`
	Date      string          `json:"date"`
	Schedule  []*ScheduleItem `json:"schedule"`
	Stats     DayStats        `json:"stats"`
}

// DayStats are the per-day counters.
type DayStats struct {
	TotalSessions  int `json:"totalSessions"`
	FavoritesCount int `json:"favoritesCount"`
}

// ScheduleItem is one entry placed at a specific time within a day.
// Item is a display snapshot of the catalog session and is never authoritative
// for scheduling decisions.
type ScheduleItem struct {
	ID         string              `json:"id"`
	Kind       ItemKind            `json:"kind"`
	Time       string              `json:"time"`
	EndTime    string              `json:"endTime"`
	Item       *ItemSnapshot       `json:"item,omitempty"`
	Source     ItemSource          `json:"source"`
	IsFavorite bool                `json:"isFavorite"`
	IsLocked   bool                `json:"isLocked"`
	Conflict   *ConflictAnnotation `json:"conflict,omitempty"`
}

// ItemSnapshot is the denormalized copy of a session's display fields.
type ItemSnapshot struct {
	ID       string       `json:"id"`
	Title    string       `json:"title"`
	Location string       `json:"location"`
	Track    string       `json:"track"`
	Speakers []SpeakerRef `json:"speakers"`
}

// ConflictAnnotation marks an item that overlaps other scheduled items.
type ConflictAnnotation struct {
	Severity      string   `json:"severity"`
	ConflictsWith []string `json:"conflictsWith"`
	Message       string   `json:"message,omitempty"`
}

// DayKey returns the map key of a day number.
func DayKey(day int) string {
	return fmt.Sprintf("day%d", day)
}

// SessionID returns the catalog session id an item refers to.
func (i *ScheduleItem) SessionID() string {
	if i.Item != nil && i.Item.ID != "" {
		return i.Item.ID
	}
	return i.ID
}

// Title returns the display title of the item.
func (i *ScheduleItem) Title() string {
	if i.Item != nil {
		return i.Item.Title
	}
	return ""
}

// Day returns the schedule of a day, or nil.
func (a *SmartAgenda) Day(day int) *DaySchedule {
	if a == nil || a.Days == nil {
		return nil
	}
	return a.Days[DayKey(day)]
}

// EnsureDay returns the schedule of a day, creating it if missing.
func (a *SmartAgenda) EnsureDay(day int, date string) *DaySchedule {
	if a.Days == nil {
		a.Days = map[string]*DaySchedule{}
	}
	ds, ok := a.Days[DayKey(day)]
	if !ok || ds == nil {
		ds = &DaySchedule{DayNumber: day, Date: date, Schedule: []*ScheduleItem{}}
		a.Days[DayKey(day)] = ds
	}
	return ds
}

// SortedDays returns the days ordered by day number.
func (a *SmartAgenda) SortedDays() []*DaySchedule {
	if a == nil {
		return nil
	}
	days := make([]*DaySchedule, 0, len(a.Days))
	for _, ds := range a.Days {
		if ds != nil {
			days = append(days, ds)
		}
	}
	sort.Slice(days, func(i, j int) bool { return days[i].DayNumber < days[j].DayNumber })
	return days
}

// FindSession locates the item referencing sessionID.
// It returns nil and -1 when the session is not scheduled.
func (a *SmartAgenda) FindSession(sessionID string) (*DaySchedule, int) {
	for _, ds := range a.SortedDays() {
		for idx, item := range ds.Schedule {
			if item != nil && item.SessionID() == sessionID {
				return ds, idx
			}
		}
	}
	return nil, -1
}

// AgendaTotals are the totals derived by walking every day's items.
type AgendaTotals struct {
	TotalSessions  int
	FavoritesCount int
	Tracks         []string
	DaysIncluded   []int
}

// Totals walks every day's items and computes the derived totals.
func (a *SmartAgenda) Totals() AgendaTotals {
	totals := AgendaTotals{Tracks: []string{}, DaysIncluded: []int{}}
	seenTracks := map[string]bool{}
	for _, ds := range a.SortedDays() {
		sessions := 0
		for _, item := range ds.Schedule {
			if item == nil || item.Kind != ItemKindSession {
				continue
			}
			sessions++
			if item.IsFavorite {
				totals.FavoritesCount++
			}
			if item.Item != nil && item.Item.Track != "" && !seenTracks[item.Item.Track] {
				seenTracks[item.Item.Track] = true
				totals.Tracks = append(totals.Tracks, item.Item.Track)
			}
		}
		totals.TotalSessions += sessions
		if sessions > 0 {
			totals.DaysIncluded = append(totals.DaysIncluded, ds.DayNumber)
		}
	}
	sort.Strings(totals.Tracks)
	return totals
}

// Validate rejects an agenda that lists the same session more than once,
// within a day or across days.
func (a *SmartAgenda) Validate() error {
	seen := map[string]int{}
	for _, ds := range a.SortedDays() {
		for _, item := range ds.Schedule {
			if item == nil || item.Kind != ItemKindSession {
				continue
			}
			sessionID := item.SessionID()
			if sessionID == "" {
				continue
			}
			if day, ok := seen[sessionID]; ok {
				return errors.Errorf("session %s is scheduled more than once (day %d and day %d)", sessionID, day, ds.DayNumber)
			}
			seen[sessionID] = ds.DayNumber
		}
	}
	return nil
}

// SessionIndex builds the per-session index rows of an agenda.
func (a *SmartAgenda) SessionIndex(agendaID string) []*AgendaSession {
	rows := []*AgendaSession{}
	seen := map[string]bool{}
	for _, ds := range a.SortedDays() {
		for _, item := range ds.Schedule {
			if item == nil || item.Kind != ItemKindSession {
				continue
			}
			sessionID := item.SessionID()
			if sessionID == "" || seen[sessionID] {
				continue
			}
			seen[sessionID] = true
			rows = append(rows, &AgendaSession{
				AgendaID:   agendaID,
				SessionID:  sessionID,
				DayNumber:  int32(ds.DayNumber),
				Source:     item.Source,
				IsFavorite: item.IsFavorite,
				IsLocked:   item.IsLocked,
			})
		}
	}
	return rows
}

// Clone returns a deep copy of the agenda.
func (a *SmartAgenda) Clone() (*SmartAgenda, error) {
	if a == nil {
		return nil, nil
	}
	data, err := MarshalSnapshot(a)
	if err != nil {
		return nil, err
	}
	return UnmarshalSnapshot(data)
}

// MarshalSnapshot encodes an agenda document for persistence.
func MarshalSnapshot(a *SmartAgenda) ([]byte, error) {
	data, err := json.Marshal(a)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal agenda snapshot")
	}
	return data, nil
}

// UnmarshalSnapshot decodes a persisted agenda document.
func UnmarshalSnapshot(data []byte) (*SmartAgenda, error) {
	if len(data) == 0 {
		return nil, nil
	}
	a := &SmartAgenda{}
	if err := json.Unmarshal(data, a); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal agenda snapshot")
	}
	return a, nil
}
