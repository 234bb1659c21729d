package compose_test

import (
	"strings"
	"testing"
	"time"

	"github.com/hearthside/keeper/compose"
	"github.com/hearthside/keeper/core"
)

var now = time.Date(2024, 3, 13, 15, 0, 0, 0, time.UTC)

func matchAt(ts time.Time, text string) core.RecallMatch {
	return core.RecallMatch{Record: core.Record{Text: text, Timestamp: ts}}
}

func TestFormatTimestamp(t *testing.T) {
	tests := []struct {
		ts   time.Time
		want string
	}{
		{time.Date(2024, 3, 13, 9, 30, 0, 0, time.UTC), "Today at 9:30 AM"},
		{time.Date(2024, 3, 12, 21, 5, 0, 0, time.UTC), "Yesterday at 9:05 PM"},
		{time.Date(2024, 3, 8, 14, 0, 0, 0, time.UTC), "Friday, March 8, at 2:00 PM"},
	}
	for _, tt := range tests {
		if got := compose.FormatTimestamp(tt.ts, now); got != tt.want {
			t.Errorf("FormatTimestamp(%v) = %q, want %q", tt.ts, got, tt.want)
		}
	}
}

func TestRecallReplyEmpty(t *testing.T) {
	got := compose.RecallReply(nil, core.UncertaintyLow, false, now)
	want := "I couldn't find that in your recent memories. Would you like me to save it for you?"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestRecallReplyAmbiguousNamesBoth(t *testing.T) {
	matches := []core.RecallMatch{
		matchAt(time.Date(2024, 3, 13, 8, 0, 0, 0, time.UTC), "took the blue pill"),
		matchAt(time.Date(2024, 3, 12, 8, 0, 0, 0, time.UTC), "took the white pill"),
	}
	got := compose.RecallReply(matches, core.UncertaintyAmbiguous, false, now)
	if !strings.Contains(got, "Today at 8:00 AM") || !strings.Contains(got, "Yesterday at 8:00 AM") {
		t.Errorf("ambiguous reply must name both timestamps, got %q", got)
	}
	if !strings.HasPrefix(got, "I found two similar memories.") {
		t.Errorf("unexpected reply %q", got)
	}
}

func TestRecallReplyPrefixes(t *testing.T) {
	matches := []core.RecallMatch{matchAt(now.Add(-time.Hour), "I took my medication")}
	tests := []struct {
		level  core.Uncertainty
		prefix string
	}{
		{core.UncertaintyHigh, "I remember: "},
		{core.UncertaintyMedium, "I think "},
		{core.UncertaintyLow, "I found this: "},
	}
	for _, tt := range tests {
		got := compose.RecallReply(matches, tt.level, false, now)
		if !strings.HasPrefix(got, tt.prefix) {
			t.Errorf("level %v: got %q, want prefix %q", tt.level, got, tt.prefix)
		}
		if !strings.Contains(got, "you said: I took my medication.") {
			t.Errorf("level %v: reply %q missing memory text", tt.level, got)
		}
	}
}

func TestRecallReplyConfirmationPrompt(t *testing.T) {
	matches := []core.RecallMatch{matchAt(now.Add(-time.Hour), "took my pills")}
	got := compose.RecallReply(matches, core.UncertaintyMedium, true, now)
	if !strings.HasSuffix(got, " Is that correct?") {
		t.Errorf("got %q, want trailing confirmation prompt", got)
	}
}

func TestRecallReplyOverflowCount(t *testing.T) {
	var matches []core.RecallMatch
	for i := 0; i < 5; i++ {
		matches = append(matches, matchAt(now.Add(-time.Duration(i+1)*time.Hour), "walked the dog"))
	}
	got := compose.RecallReply(matches, core.UncertaintyHigh, false, now)
	if !strings.Contains(got, "And 2 other things.") {
		t.Errorf("got %q, want overflow summary for 2 extra matches", got)
	}
	if strings.Count(got, "you said:") != 3 {
		t.Errorf("got %q, want exactly 3 itemized memories", got)
	}
}
