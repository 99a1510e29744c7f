// Package conference describes the event the agenda engine schedules against:
// its local timezone and the three published conference dates.
package conference

import (
	"os"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/hrygo/confagenda/server/timezone"
)

// DayCount is the number of conference days.
const DayCount = 3

// Conference is the conference definition loaded from YAML.
type Conference struct {
	Name     string   `yaml:"name"`
	Timezone string   `yaml:"timezone"`
	Dates    []string `yaml:"dates"`
	URL      string   `yaml:"url"`

	location *time.Location
}

// Default returns the built-in conference definition.
func Default() *Conference {
	c := &Conference{
		Name:     "ITC Vegas 2025",
		Timezone: timezone.TimezoneAmericaLosAngeles,
		Dates:    []string{"2025-10-15", "2025-10-16", "2025-10-17"},
		URL:      "https://itcvegas.com",
	}
	// Without zoneinfo on the host this resolves to UTC instead of failing.
	c.location, _ = timezone.ParseTimezone(c.Timezone)
	return c
}

// Load reads a conference definition from a YAML file.
// An empty path returns the default conference.
func Load(path string) (*Conference, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read conference file %s", path)
	}
	return Parse(data)
}

// Parse decodes and validates a YAML conference definition.
func Parse(data []byte) (*Conference, error) {
	c := &Conference{}
	if err := yaml.Unmarshal(data, c); err != nil {
		return nil, errors.Wrap(err, "failed to parse conference definition")
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate checks the timezone and dates and caches the location.
func (c *Conference) Validate() error {
	if len(c.Dates) != DayCount {
		return errors.Errorf("conference must have exactly %d dates, got %d", DayCount, len(c.Dates))
	}
	for _, d := range c.Dates {
		if _, err := time.Parse(timezone.DateLayout, d); err != nil {
			return errors.Wrapf(err, "invalid conference date %q", d)
		}
	}
	loc, err := timezone.ParseTimezone(c.Timezone)
	if err != nil {
		return err
	}
	c.location = loc
	return nil
}

// Location returns the conference's local timezone.
func (c *Conference) Location() *time.Location {
	if c.location == nil {
		loc, err := timezone.ParseTimezone(c.Timezone)
		if err != nil {
			return timezone.UTC
		}
		c.location = loc
	}
	return c.location
}

// DayNumber maps an instant to its conference day (1..3) by calendar date in the
// conference timezone. Dates outside the conference fall back to day 1.
func (c *Conference) DayNumber(t time.Time) int {
	date := timezone.FormatDate(t, c.Location())
	for i, d := range c.Dates {
		if d == date {
			return i + 1
		}
	}
	return 1
}

// DateOf returns the calendar date of the given day number, or "" if out of range.
func (c *Conference) DateOf(day int) string {
	if day < 1 || day > len(c.Dates) {
		return ""
	}
	return c.Dates[day-1]
}

// DisplayTime renders t as a schedule display time in conference local time.
func (c *Conference) DisplayTime(t time.Time) string {
	return timezone.FormatDisplayTime(t, c.Location())
}
