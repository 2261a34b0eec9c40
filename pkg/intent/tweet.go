package intent

import (
	"regexp"
	"strings"
)

// TweetExtractor derives the text to post from a social command.
type TweetExtractor interface {
	ExtractTweet(command string) string
}

// HeuristicTweetExtractor prefers quoted text, then "should say"
// phrasing, then strips the posting verbs and platform chatter from
// the command itself.
type HeuristicTweetExtractor struct{}

var (
	quotedTextRe   = regexp.MustCompile(`['"]([^'"]+)['"]`)
	shouldSayRe    = regexp.MustCompile(`(?i)(?:should\s+be|should\s+say|text\s+is|content\s+is|text|content)['\s]+([^'"]+)['"]?`)
	tweetSubjectRe = regexp.MustCompile(`(?i)(?:(?:post|write|create|make|compose|craft|send|publish)(?:\s+a|\s+an)?(?:\s+inspiring|\s+new|\s+interesting)?\s+tweet|tweet)(?:\s+about|\s+on)?\s+(.+?)(?:$|\s+to\s+twitter|\s+on\s+twitter)`)
	tweetVerbRe    = regexp.MustCompile(`(?i)(?:(?:post|write|create|make|compose|craft|send|publish)(?:\s+a|\s+an)?(?:\s+inspiring|\s+new|\s+interesting)?\s+tweet|tweet)(?:\s+about|\s+on)?`)
	platformRe     = regexp.MustCompile(`(?i)\s+(?:to|on)\s+twitter`)
	saysCleanupRe  = regexp.MustCompile(`(?i)(?:text|content)\s+should\s+(?:be|say)`)
)

// ExtractTweet implements TweetExtractor.
func (HeuristicTweetExtractor) ExtractTweet(command string) string {
	if m := quotedTextRe.FindStringSubmatch(command); m != nil {
		return strings.TrimSpace(m[1])
	}

	if m := shouldSayRe.FindStringSubmatch(strings.ToLower(command)); m != nil {
		return strings.TrimSpace(m[1])
	}

	text := ""
	if m := tweetSubjectRe.FindStringSubmatch(strings.ToLower(command)); m != nil {
		text = strings.TrimSpace(m[1])
	}
	if text == "" {
		cleaned := tweetVerbRe.ReplaceAllString(strings.ToLower(command), "")
		cleaned = platformRe.ReplaceAllString(cleaned, "")
		text = strings.TrimSpace(cleaned)
	}

	text = strings.TrimSpace(saysCleanupRe.ReplaceAllString(text, ""))
	return strings.TrimSpace(strings.Trim(text, `'"`))
}
