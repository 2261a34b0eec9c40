package intent

import (
	"regexp"
	"strings"
)

// TitleExtractor derives a calendar event title from raw command text.
// Implementations are best-effort and must return a safe placeholder
// when nothing usable is found.
type TitleExtractor interface {
	ExtractTitle(command string) string
}

// HeuristicTitleExtractor applies a fixed set of phrase heuristics and
// falls back to the most significant words of the command.
type HeuristicTitleExtractor struct{}

var (
	birthdayNameRe = regexp.MustCompile(`(?i)(?:([a-zA-Z]+)(?:'s)?\s+birthday)|(?:birthday\s+(?:for|of)\s+([a-zA-Z]+))`)
	meetingAboutRe = regexp.MustCompile(`(?i)meeting\s+(?:about|regarding|on|for)\s+([^,\.]+)`)
	remindOfRe     = regexp.MustCompile(`(?i)remind\s+(?:me|us|them)?\s*(?:of|about|for)\s+([^,\.]+)`)

	appointmentTypes = []string{"doctor", "dentist", "medical", "therapy", "haircut", "salon"}

	titleStopWords = map[string]struct{}{
		"remind": {}, "me": {}, "us": {}, "them": {}, "of": {}, "about": {},
		"a": {}, "an": {}, "the": {}, "on": {}, "at": {}, "by": {}, "for": {},
		"with": {}, "create": {}, "schedule": {}, "add": {}, "make": {},
		"event": {}, "calendar": {}, "reminder": {}, "meeting": {},
		"appointment": {}, "this": {}, "next": {}, "tomorrow": {},
		"tonight": {}, "today": {},
	}
)

// ExtractTitle implements TitleExtractor.
func (HeuristicTitleExtractor) ExtractTitle(command string) string {
	lowered := strings.ToLower(command)

	if strings.Contains(lowered, "birthday") {
		if m := birthdayNameRe.FindStringSubmatch(command); m != nil {
			name := m[1]
			if name == "" {
				name = m[2]
			}
			return capitalize(name) + "'s Birthday"
		}
	}

	if strings.Contains(lowered, "meeting") && strings.Contains(lowered, "about") {
		if m := meetingAboutRe.FindStringSubmatch(command); m != nil {
			return capitalize(strings.TrimSpace(m[1]))
		}
	}

	if strings.Contains(lowered, "appointment") {
		for _, aptType := range appointmentTypes {
			if strings.Contains(lowered, aptType) {
				return capitalize(aptType) + " Appointment"
			}
		}
	}

	if strings.Contains(lowered, "remind") {
		if m := remindOfRe.FindStringSubmatch(command); m != nil {
			subject := strings.TrimSpace(m[1])
			if title, ok := personEventTitle(subject); ok {
				return title
			}
			return capitalize(subject)
		}
	}

	if title := significantWords(command); title != "" {
		return title
	}

	return "Reminder"
}

// personEventTitle turns "dana's birthday next week" into
// "Dana's Birthday" when the subject names a person event.
func personEventTitle(subject string) (string, bool) {
	loweredSubject := strings.ToLower(subject)
	for _, event := range []string{"birthday", "anniversary"} {
		if !strings.Contains(loweredSubject, event) {
			continue
		}
		parts := strings.Fields(subject)
		for i, part := range parts {
			if strings.Contains(strings.ToLower(part), event) && i > 0 {
				return parts[i-1] + "'s " + capitalize(event), true
			}
		}
	}
	return "", false
}

// significantWords keeps up to three non-stop-words as the title.
func significantWords(command string) string {
	var important []string
	for _, word := range strings.Fields(command) {
		trimmed := strings.Trim(word, ",.!?")
		if trimmed == "" {
			continue
		}
		if _, stop := titleStopWords[strings.ToLower(trimmed)]; stop {
			continue
		}
		important = append(important, trimmed)
		if len(important) == 3 {
			break
		}
	}
	if len(important) == 0 {
		return ""
	}
	return capitalize(strings.Join(important, " "))
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
