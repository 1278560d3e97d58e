package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// OperatingHours is one weekday entry of the restaurant's operating schedule.
// Day is stored as free text because restaurant profiles carry English or
// Norwegian day names in several spellings; ResolveDay normalizes it.
type OperatingHours struct {
	Day    string `json:"day" yaml:"day"`
	Open   string `json:"open" yaml:"open"`   // "11:00"
	Close  string `json:"close" yaml:"close"` // "22:00"
	Closed bool   `json:"closed" yaml:"closed"`
}

// weekdayNames lists the canonical long names checked by the substring
// fallback, in Monday-first order so lookups are deterministic.
var weekdayNames = []struct {
	day     time.Weekday
	english string
	norsk   string
}{
	{time.Monday, "monday", "mandag"},
	{time.Tuesday, "tuesday", "tirsdag"},
	{time.Wednesday, "wednesday", "onsdag"},
	{time.Thursday, "thursday", "torsdag"},
	{time.Friday, "friday", "fredag"},
	{time.Saturday, "saturday", "lørdag"},
	{time.Sunday, "sunday", "søndag"},
}

var dayAliases = map[string]time.Weekday{
	// English long and short forms
	"monday": time.Monday, "mon": time.Monday, "mo": time.Monday, "m": time.Monday,
	"tuesday": time.Tuesday, "tue": time.Tuesday, "tu": time.Tuesday,
	"wednesday": time.Wednesday, "wed": time.Wednesday, "we": time.Wednesday, "w": time.Wednesday,
	"thursday": time.Thursday, "thu": time.Thursday, "th": time.Thursday,
	"friday": time.Friday, "fri": time.Friday, "fr": time.Friday, "f": time.Friday,
	"saturday": time.Saturday, "sat": time.Saturday, "sa": time.Saturday,
	"sunday": time.Sunday, "sun": time.Sunday, "su": time.Sunday,
	// Norwegian, including ASCII spellings without ø
	"mandag": time.Monday, "man": time.Monday,
	"tirsdag": time.Tuesday, "tir": time.Tuesday,
	"onsdag": time.Wednesday, "ons": time.Wednesday,
	"torsdag": time.Thursday, "tor": time.Thursday,
	"fredag": time.Friday, "fre": time.Friday,
	"lørdag": time.Saturday, "lordag": time.Saturday, "lør": time.Saturday,
	"søndag": time.Sunday, "sondag": time.Sunday, "søn": time.Sunday,
}

// ResolveDay normalizes a day token to a canonical weekday. Lookup is
// case-insensitive and whitespace-trimmed; when no alias matches exactly,
// a substring match against the long day names is tried before giving up.
func ResolveDay(token string) (time.Weekday, bool) {
	token = strings.ToLower(strings.TrimSpace(token))
	if token == "" {
		return 0, false
	}

	if day, ok := dayAliases[token]; ok {
		return day, true
	}

	for _, name := range weekdayNames {
		if containsEither(name.english, token) || containsEither(name.norsk, token) {
			return name.day, true
		}
	}

	return 0, false
}

func containsEither(a, b string) bool {
	return strings.Contains(a, b) || strings.Contains(b, a)
}

// ResolveHours looks up the schedule entry for a date's weekday. Not found
// means the restaurant is closed that day; callers must treat it so.
func ResolveHours(schedule []OperatingHours, date time.Time) (OperatingHours, bool) {
	if len(schedule) == 0 {
		return OperatingHours{}, false
	}

	target := date.Weekday()
	for _, entry := range schedule {
		day, ok := ResolveDay(entry.Day)
		if ok && day == target {
			return entry, true
		}
	}

	return OperatingHours{}, false
}

// parseClock parses "HH:MM" into minutes from midnight.
func parseClock(s string) (int, error) {
	parts := strings.SplitN(strings.TrimSpace(s), ":", 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid clock value %q", s)
	}

	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, fmt.Errorf("invalid hour in clock value %q", s)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("invalid minute in clock value %q", s)
	}

	return hour*60 + minute, nil
}
