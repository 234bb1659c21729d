// Package timerange resolves relative temporal phrases ("today", "last
// week", "this morning") into absolute half-open intervals against an
// injected reference time.
package timerange

import (
	"strings"
	"time"

	"github.com/hearthside/keeper/core"
)

// Clock sub-ranges of the current day, in local hours of the reference time.
const (
	morningStartHour = 5
	morningEndHour   = 12
	afternoonEndHour = 17
	eveningEndHour   = 22
)

// Resolve parses a recognized temporal phrase in text into a half-open
// interval [start, end) relative to now. It returns nil when no phrase is
// present, meaning "no temporal constraint".
//
// Phrases are checked in a fixed priority order so that e.g. "this morning"
// wins over a bare "morning" elsewhere in the utterance.
func Resolve(text string, now time.Time) *core.TimeRange {
	lower := strings.ToLower(strings.TrimSpace(text))
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	switch {
	case strings.Contains(lower, "today"):
		return &core.TimeRange{Start: midnight, End: midnight.AddDate(0, 0, 1)}

	case strings.Contains(lower, "yesterday"):
		return &core.TimeRange{Start: midnight.AddDate(0, 0, -1), End: midnight}

	case strings.Contains(lower, "this morning"):
		return dayWindow(midnight, morningStartHour, morningEndHour)

	case strings.Contains(lower, "this afternoon"):
		return dayWindow(midnight, morningEndHour, afternoonEndHour)

	case strings.Contains(lower, "this evening"), strings.Contains(lower, "tonight"):
		return dayWindow(midnight, afternoonEndHour, eveningEndHour)

	case strings.Contains(lower, "last week"):
		// The Monday..Sunday span strictly preceding the current ISO week.
		lastMonday := mondayOf(midnight).AddDate(0, 0, -7)
		return &core.TimeRange{Start: lastMonday, End: lastMonday.AddDate(0, 0, 7)}

	case strings.Contains(lower, "this week"):
		return &core.TimeRange{Start: mondayOf(midnight), End: now}

	case strings.Contains(lower, "last month"):
		firstOfCurrent := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		return &core.TimeRange{Start: firstOfCurrent.AddDate(0, -1, 0), End: firstOfCurrent}

	case strings.Contains(lower, "this month"):
		firstOfCurrent := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		return &core.TimeRange{Start: firstOfCurrent, End: now}
	}

	return nil
}

var recencyTriggers = []string{"last time", "when did i last", "most recent", "latest"}

// IsRecencyQuery detects phrasing that asks for the single most-recent
// occurrence. Recency queries search all history, so callers must skip
// Resolve when this returns true; the two are mutually exclusive.
func IsRecencyQuery(text string) bool {
	lower := strings.ToLower(text)
	for _, trigger := range recencyTriggers {
		if strings.Contains(lower, trigger) {
			return true
		}
	}
	return false
}

func dayWindow(midnight time.Time, startHour, endHour int) *core.TimeRange {
	return &core.TimeRange{
		Start: midnight.Add(time.Duration(startHour) * time.Hour),
		End:   midnight.Add(time.Duration(endHour) * time.Hour),
	}
}

// mondayOf returns midnight of the Monday of the week containing day.
func mondayOf(midnight time.Time) time.Time {
	weekday := int(midnight.Weekday())
	if weekday == 0 {
		weekday = 7 // Sunday belongs to the week that started 6 days ago
	}
	return midnight.AddDate(0, 0, -(weekday - 1))
}
