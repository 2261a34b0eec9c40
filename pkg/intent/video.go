package intent

import (
	"regexp"
	"strings"
)

// Video command helpers. A fully-formed video URL in the raw command
// short-circuits classification and dispatch entirely; a video search
// phrase routes to the search tool with an extracted query.

var videoURLRe = regexp.MustCompile(`(https?://)?(www\.)?(youtube|youtu|youtube-nocookie)\.(com|be)/(watch\?v=|embed/|v/|.+\?v=)?([^&=%\?\s]{11})`)

// DetectVideoURL returns the canonical watch URL when the command
// contains a recognizable video locator, or the empty string.
func DetectVideoURL(command string) string {
	m := videoURLRe.FindStringSubmatch(command)
	if m == nil {
		return ""
	}
	return "https://www.youtube.com/watch?v=" + m[6]
}

var videoSearchTerms = []string{
	"youtube video", "watch video", "find video", "search video",
	"tutorial video", "youtube tutorial", "youtube search",
}

var videoSearchHints = []string{"search", "find", "watch", "video", "tutorial"}

// IsVideoSearch reports whether the command asks to search for videos.
func IsVideoSearch(command string) bool {
	lowered := strings.ToLower(command)

	for _, term := range videoSearchTerms {
		if strings.Contains(lowered, term) {
			return true
		}
	}

	if strings.Contains(lowered, "youtube") {
		for _, hint := range videoSearchHints {
			if strings.Contains(lowered, hint) {
				return true
			}
		}
	}
	return false
}

var videoQueryPrefixes = []string{
	"i want to watch", "i wanna watch", "can you find", "please find",
	"find me", "search for", "look for", "youtube", "video",
	"tutorial about", "tutorial on", "tutorial for", "videos about",
	"videos on", "videos for",
}

// ExtractSearchQuery strips the asking phrases from a video search
// command, leaving the query itself.
func ExtractSearchQuery(command string) string {
	query := strings.ToLower(command)

	for _, prefix := range videoQueryPrefixes {
		if strings.HasPrefix(query, prefix) {
			query = strings.TrimSpace(strings.TrimPrefix(query, prefix))
		}
	}

	if len(query) < 3 {
		return command
	}
	return query
}
