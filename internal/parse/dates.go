package parse

import (
	"strings"
	"time"
)

// anchorHour is the local time-of-day a date-only value is pinned to. Pinning
// away from midnight keeps a UTC-midnight date from sliding to the previous
// calendar day in negative-offset timezones.
const anchorHour = 8

var entryDateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// ResolveEntryDate turns a model-supplied date string into a concrete local
// timestamp. Only the calendar date is trusted: the model's time-of-day and
// zone are discarded and the result is anchored at 08:00 in loc. An empty
// input returns now unchanged; an unparseable input returns now with ok=false
// so the caller can log a warning without failing the parse.
func ResolveEntryDate(raw string, now time.Time, loc *time.Location) (time.Time, bool) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return now, true
	}
	if loc == nil {
		loc = time.UTC
	}

	for _, layout := range entryDateLayouts {
		parsed, err := time.Parse(layout, trimmed)
		if err != nil {
			continue
		}
		year, month, day := parsed.Date()
		return time.Date(year, month, day, anchorHour, 0, 0, 0, loc), true
	}
	return now, false
}

// weekdayName renders now's weekday in loc for prompt context, so the model
// can resolve relative expressions like "this past Saturday" itself.
func weekdayName(now time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return now.In(loc).Weekday().String()
}

func currentDateText(now time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return now.In(loc).Format("2006-01-02")
}
