// Package timezone provides the conference-local time helpers used by the agenda engine.
//
// Schedule items carry display strings such as "2:30 PM" rendered in the
// conference's own timezone, independent of any reader's device timezone.
// Ordering comparisons parse those strings back into minutes since midnight.
package timezone

import (
	"fmt"
	"strings"
	"time"
)

var (
	// UTC is the coordinated universal time timezone
	UTC = time.UTC
)

// DisplayLayout is the layout of schedule item display times.
const DisplayLayout = "3:04 PM"

// DateLayout is the layout of conference calendar dates.
const DateLayout = "2006-01-02"

// displayLayouts are accepted when parsing display times back.
var displayLayouts = []string{
	"3:04 PM",
	"3:04PM",
	"3 PM",
	"3PM",
	"15:04",
}

// ParseTimezone parses an IANA timezone identifier (e.g., "America/Los_Angeles").
// If the timezone is invalid, returns UTC and an error.
func ParseTimezone(tz string) (*time.Location, error) {
	if tz == "" || tz == "UTC" {
		return UTC, nil
	}

	loc, err := time.LoadLocation(tz)
	if err != nil {
		return UTC, fmt.Errorf("invalid timezone %q: %w", tz, err)
	}

	return loc, nil
}

// FormatDisplayTime renders t as "2:30 PM" in the given location.
func FormatDisplayTime(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = UTC
	}
	return t.In(loc).Format(DisplayLayout)
}

// FormatDate renders the calendar date of t in the given location.
func FormatDate(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = UTC
	}
	return t.In(loc).Format(DateLayout)
}

// ParseDisplayMinutes converts a display time into minutes since midnight.
// "12 PM" is 720 and "12 AM" is 0. The second return value is false when the
// string is not a recognizable time.
func ParseDisplayMinutes(display string) (int, bool) {
	s := strings.ToUpper(strings.TrimSpace(display))
	if s == "" {
		return 0, false
	}
	for _, layout := range displayLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t.Hour()*60 + t.Minute(), true
		}
	}
	return 0, false
}

// TimezoneAmericaLosAngeles is the Pacific Time timezone.
const TimezoneAmericaLosAngeles = "America/Los_Angeles"
