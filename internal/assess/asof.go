package assess

import (
	"fmt"
	"strings"
	"time"

	"github.com/gyeh/nephtrends/internal/normalize"
)

// EndOfDay returns the last instant of t's UTC calendar day. Evaluating as of
// the end of the day includes every observation recorded that day.
func EndOfDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC).Add(24*time.Hour - time.Nanosecond)
}

// ParseAsOf parses an as-of value. A bare date means the end of that day;
// a timestamp is used as given, keeping its offset; an empty value means the
// end of now's day.
func ParseAsOf(raw string, now time.Time) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return EndOfDay(now), nil
	}
	t := normalize.ParseLocalDate(raw)
	if t == nil {
		return time.Time{}, fmt.Errorf("invalid as-of %q: want YYYY-MM-DD or RFC 3339", raw)
	}
	if len(raw) == len("2006-01-02") {
		return EndOfDay(*t), nil
	}
	return *t, nil
}
