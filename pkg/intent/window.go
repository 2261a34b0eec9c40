package intent

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// WindowExtractor derives an event time window from raw command text.
type WindowExtractor interface {
	ExtractWindow(command string, now time.Time) (start, end time.Time)
}

// HeuristicWindowExtractor looks for a clock time after "at", "by",
// "on" or "for". A time already in the past today is moved to the next
// day; events default to one hour.
type HeuristicWindowExtractor struct{}

const defaultEventDuration = time.Hour

var timePhraseRe = regexp.MustCompile(`(?i)(?:at|by|on|for)\s+(\d{1,2})(?::(\d{2}))?\s*(am|pm)?`)

// ExtractWindow implements WindowExtractor.
func (HeuristicWindowExtractor) ExtractWindow(command string, now time.Time) (time.Time, time.Time) {
	m := timePhraseRe.FindStringSubmatch(command)
	if m == nil {
		return now, now.Add(defaultEventDuration)
	}

	hour, err := strconv.Atoi(m[1])
	if err != nil || hour > 23 {
		return now, now.Add(defaultEventDuration)
	}
	minute := 0
	if m[2] != "" {
		minute, err = strconv.Atoi(m[2])
		if err != nil || minute > 59 {
			return now, now.Add(defaultEventDuration)
		}
	}
	switch strings.ToLower(m[3]) {
	case "pm":
		if hour < 12 {
			hour += 12
		}
	case "am":
		if hour == 12 {
			hour = 0
		}
	default:
		// A bare small hour like "at 2" most likely means afternoon
		// when the morning slot has already passed.
		if hour < 8 && time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location()).Before(now) {
			hour += 12
		}
	}

	start := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
	if start.Before(now) {
		start = start.AddDate(0, 0, 1)
	}
	return start, start.Add(defaultEventDuration)
}

// DescriptionFromCommand pulls an explicit description phrase out of
// the command, or returns the empty string.
func DescriptionFromCommand(command string) string {
	m := descriptionRe.FindStringSubmatch(command)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(m[1])
}

var descriptionRe = regexp.MustCompile(`(?i)description\s+["']?([^"']+)["']?`)
