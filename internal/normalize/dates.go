package normalize

import (
	"strings"
	"time"
)

// ISO-8601 shapes found in registry documents. Date-only values are read as UTC midnight.
var dateFormats = []string{
	"2006-01-02",
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
}

// ParseDate attempts to parse an ISO-8601 date or date-time string and
// returns the instant in UTC. Returns nil if the input is empty or
// unparseable.
func ParseDate(s string) *time.Time {
	t := ParseLocalDate(s)
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}

// ParseLocalDate is ParseDate without the UTC conversion: the result keeps
// the offset written in s, so its calendar fields match the text.
func ParseLocalDate(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, layout := range dateFormats {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}
