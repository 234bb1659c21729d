// Package compose renders recall results as spoken-style replies.
package compose

import (
	"fmt"
	"strings"
	"time"

	"github.com/hearthside/keeper/core"
)

// FormatTimestamp renders t relative to now, in now's location.
func FormatTimestamp(t, now time.Time) string {
	t = t.In(now.Location())
	y1, m1, d1 := t.Date()
	y2, m2, d2 := now.Date()
	clock := t.Format("3:04 PM")
	switch {
	case y1 == y2 && m1 == m2 && d1 == d2:
		return "Today at " + clock
	case isYesterday(t, now):
		return "Yesterday at " + clock
	default:
		return t.Format("Monday, January 2, at 3:04 PM")
	}
}

func isYesterday(t, now time.Time) bool {
	y1, m1, d1 := now.AddDate(0, 0, -1).Date()
	y2, m2, d2 := t.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}

// RecallReply builds the reply for a set of recall matches at the given
// uncertainty level. When askConfirmation is set the reply ends with a
// yes/no prompt so the caller can arm a confirmation turn.
func RecallReply(matches []core.RecallMatch, level core.Uncertainty, askConfirmation bool, now time.Time) string {
	if len(matches) == 0 {
		return "I couldn't find that in your recent memories. Would you like me to save it for you?"
	}

	if level == core.UncertaintyAmbiguous && len(matches) >= 2 {
		return fmt.Sprintf("I found two similar memories. Did you mean the one from %s, or the one from %s?",
			FormatTimestamp(matches[0].Record.Timestamp, now),
			FormatTimestamp(matches[1].Record.Timestamp, now))
	}

	var b strings.Builder
	switch level {
	case core.UncertaintyHigh:
		b.WriteString("I remember: ")
	case core.UncertaintyMedium:
		b.WriteString("I think ")
	default:
		b.WriteString("I found this: ")
	}

	shown := matches
	if len(shown) > 3 {
		shown = shown[:3]
	}
	for i, m := range shown {
		if i > 0 {
			b.WriteString(" ")
		}
		text := m.Record.Text
		if !strings.HasSuffix(text, ".") {
			text += "."
		}
		fmt.Fprintf(&b, "%s, you said: %s", FormatTimestamp(m.Record.Timestamp, now), text)
	}
	if extra := len(matches) - len(shown); extra > 0 {
		fmt.Fprintf(&b, " And %d other things.", extra)
	}
	if askConfirmation {
		b.WriteString(" Is that correct?")
	}
	return b.String()
}
