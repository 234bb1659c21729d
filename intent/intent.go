// Package intent extracts structured meaning from raw utterances using
// rule-based heuristics. It stays deliberately cheap: no model calls, just
// keyword and regex matching tuned for short spoken commands.
package intent

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/hearthside/keeper/core"
)

var terminationPhrases = []string{
	"nothing more", "no more", "that is all", "that's all", "thats all",
	"all done", "nothing else", "no thanks", "no, thank you", "goodbye",
	"exit", "finished", "all set", "everything", "stop", "cancel",
}

var (
	positiveCues = []string{"yes", "yeah", "sure", "ok", "okay", "add more", "correct", "yep"}

	affirmativeWords = []string{"yes", "yeah", "correct", "yep", "sure", "okay", "ok"}
	negativeWords    = []string{"no", "nope", "wrong", "incorrect", "not correct"}
)

var creationKeywords = []string{
	"add", "remind", "schedule", "appointment", "call", "meeting", "create", "set", "remember",
}

var (
	startMarkers = []string{
		"add", "remind me to", "remind me for", "reminder for",
		"schedule", "create", "set", "remember to",
	}
	endMarkers = []string{
		"at", "on", "tomorrow", "today", "next week", "this evening", "in the morning",
	}
)

var (
	clockRe   = regexp.MustCompile(`(\d{1,2})[:.](\d{2})\s*(a\.?m\.?|p\.?m\.?)?`)
	compactRe = regexp.MustCompile(`\b(\d{3,4})\b`)
	stopWords = regexp.MustCompile(`\b(add|remind|schedule|tomorrow|today|at|on|for|me|to)\b`)
	spaces    = regexp.MustCompile(`\s+`)
)

var recallCues = []string{"did i", "have i", "what did i", "when did i", "what have i", "last time"}

// IsRecallQuery reports whether the utterance asks about a past event.
func IsRecallQuery(text string) bool {
	return containsAny(strings.ToLower(text), recallCues)
}

var activityCues = []string{"i have", "i did", "i finished", "completed", "done with", "took my"}

// IsActivityLog reports whether the utterance states a completed activity
// worth remembering.
func IsActivityLog(text string) bool {
	return containsAny(strings.ToLower(text), activityCues)
}

var taskTriggers = []string{
	"remind", "add", "schedule", "task", "plan", "tomorrow", "today",
	" am", " pm", "at ", ":", "drink", "take", "eat", "buy", "go to", "call",
}

// HasTaskTrigger reports whether the utterance looks like it belongs to the
// scheduling flow. Deliberately broad: ParseTask sorts out the rest.
func HasTaskTrigger(text string) bool {
	text = strings.ToLower(text)
	return compactRe.MatchString(text) || containsAny(text, taskTriggers)
}

var closingPhrases = []string{
	"nothing more", "no more", "that is all", "that's all", "all done",
	"nothing else", "no thanks",
}

// IsClosing reports whether the utterance wraps up the conversation. A
// looser net than ParseTask's termination check, applied after every other
// intent has been ruled out.
func IsClosing(text string) bool {
	return containsAny(strings.ToLower(text), closingPhrases)
}

// Affirmative reports a yes-style answer. Whole words only, so "yesterday"
// does not confirm anything.
func Affirmative(text string) bool {
	return matchesAnyWord(strings.ToLower(text), affirmativeWords)
}

// Negative reports a no-style answer. Callers must check Negative before
// Affirmative: "not correct" contains the word "correct".
func Negative(text string) bool {
	return matchesAnyWord(strings.ToLower(text), negativeWords)
}

// ParseTask extracts a task request from an utterance.
func ParseTask(text string) core.TaskIntent {
	text = strings.ToLower(strings.TrimSpace(text))

	if containsAny(text, terminationPhrases) || text == "no" {
		return core.TaskIntent{IsTermination: true}
	}

	isPositive := matchesAnyWord(text, positiveCues)
	isTaskRequest := containsAny(text, creationKeywords)

	if isPositive && !isTaskRequest {
		return core.TaskIntent{IsContinuation: true}
	}
	if !isTaskRequest {
		return core.TaskIntent{}
	}

	offset := 0
	if strings.Contains(text, "tomorrow") {
		offset = 1
	} else if strings.Contains(text, "next week") {
		offset = 7
	}

	return core.TaskIntent{
		IsTaskRequest: true,
		TaskName:      extractTaskName(text),
		TimeOfDay:     extractTime(text),
		DateOffset:    offset,
	}
}

func extractTime(text string) string {
	if m := clockRe.FindStringSubmatch(text); m != nil {
		hour, _ := strconv.Atoi(m[1])
		minute, _ := strconv.Atoi(m[2])
		meridiem := strings.ReplaceAll(m[3], ".", "")
		if meridiem == "pm" && hour < 12 {
			hour += 12
		} else if meridiem == "am" && hour == 12 {
			hour = 0
		}
		return fmt.Sprintf("%02d:%02d", hour, minute)
	}

	if m := compactRe.FindStringSubmatch(text); m != nil {
		digits := m[1]
		var hour, minute int
		if len(digits) == 3 {
			hour, _ = strconv.Atoi(digits[:1])
			minute, _ = strconv.Atoi(digits[1:])
		} else {
			hour, _ = strconv.Atoi(digits[:2])
			minute, _ = strconv.Atoi(digits[2:])
		}
		if hour <= 23 && minute <= 59 {
			return fmt.Sprintf("%02d:%02d", hour, minute)
		}
		return "12:00"
	}

	switch {
	case strings.Contains(text, "morning"):
		return "08:00"
	case strings.Contains(text, "afternoon"):
		return "14:00"
	case strings.Contains(text, "evening"):
		return "18:00"
	case strings.Contains(text, "night"):
		return "20:00"
	case strings.Contains(text, "noon"):
		return "12:00"
	}
	return "12:00"
}

// extractTaskName takes the span between the first creation verb and the
// first time or date marker.
func extractTaskName(text string) string {
	start := 0
	for _, marker := range startMarkers {
		if idx := strings.Index(text, marker); idx >= 0 {
			start = idx + len(marker)
			break
		}
	}

	area := text[start:]
	end := len(area)
	for _, marker := range endMarkers {
		re := regexp.MustCompile(`\b` + regexp.QuoteMeta(marker) + `\b`)
		if loc := re.FindStringIndex(area); loc != nil && loc[0] < end {
			end = loc[0]
		}
	}

	name := strings.TrimSpace(area[:end])
	if len(name) < 2 {
		name = strings.TrimSpace(stopWords.ReplaceAllString(text, ""))
	}
	name = strings.TrimSpace(spaces.ReplaceAllString(name, " "))
	if name == "" {
		return "New Task"
	}
	return capitalize(name)
}

func capitalize(s string) string {
	return strings.ToUpper(s[:1]) + s[1:]
}

func containsAny(text string, subs []string) bool {
	for _, s := range subs {
		if strings.Contains(text, s) {
			return true
		}
	}
	return false
}

func matchesAnyWord(text string, words []string) bool {
	for _, w := range words {
		re := regexp.MustCompile(`\b` + regexp.QuoteMeta(w) + `\b`)
		if re.MatchString(text) {
			return true
		}
	}
	return false
}
