// Package intent classifies free-text commands into coarse categories
// and extracts the structured parameters the calendar and social paths
// need. The heuristics are replaceable strategies; classification is
// stateless pattern matching.
package intent

import (
	"regexp"
	"strings"
	"sync"
)

// Categories assigned by the classifier. Order in the pattern table
// decides precedence: the first matching category wins.
const (
	CategoryBrowser  = "browser"
	CategoryEmail    = "email"
	CategoryCalendar = "calendar"
	CategorySocial   = "social"
	CategoryGeneral  = "general"
)

// Classification is the ephemeral result of classifying one command.
type Classification struct {
	Category       string
	MatchedPattern string
}

type categoryPatterns struct {
	category string
	patterns []*regexp.Regexp
}

// Classifier evaluates an ordered table of category patterns. The
// table is mutable at runtime through AddPattern.
type Classifier struct {
	mu    sync.RWMutex
	table []categoryPatterns
}

// NewClassifier builds a classifier with the default pattern table.
func NewClassifier() *Classifier {
	c := &Classifier{}
	defaults := []struct {
		category string
		patterns []string
	}{
		{CategoryBrowser, []string{
			`browse|navigate|go to|open.*website|visit|url|web page`,
			`(search|play|watch).*(youtube|video)`,
			`fill.*form|input.*field|enter.*data`,
			`click.*button|click.*link|press.*button`,
			`screenshot|capture.*screen`,
		}},
		{CategoryEmail, []string{
			`send.*email|compose.*email|mail to|email to`,
		}},
		{CategoryCalendar, []string{
			`schedule|meeting|appointment|calendar|event|remind`,
		}},
		{CategorySocial, []string{
			`(post|write|create|make|compose|craft|send|tweet|publish).*tweet`,
			`tweet (about|on)`,
			`(post|share|put).*(on|to) twitter`,
			`(create|make|compose) .* twitter (post|update)`,
		}},
	}
	for _, d := range defaults {
		for _, p := range d.patterns {
			// Default patterns are known-good; skip errors silently is
			// not an option here, so compile with MustCompile.
			c.mustAdd(d.category, regexp.MustCompile(p))
		}
	}
	return c
}

func (c *Classifier) mustAdd(category string, re *regexp.Regexp) {
	for i := range c.table {
		if c.table[i].category == category {
			c.table[i].patterns = append(c.table[i].patterns, re)
			return
		}
	}
	c.table = append(c.table, categoryPatterns{category: category, patterns: []*regexp.Regexp{re}})
}

// AddPattern registers an extra pattern for a category at runtime.
// Unknown categories are appended to the end of the table.
func (c *Classifier) AddPattern(category, pattern string) error {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.mustAdd(category, re)
	return nil
}

// Classify returns the category of the first matching pattern, or
// general when nothing matches. Matching is case-insensitive.
func (c *Classifier) Classify(text string) Classification {
	lowered := strings.ToLower(text)

	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, entry := range c.table {
		for _, re := range entry.patterns {
			if re.MatchString(lowered) {
				return Classification{Category: entry.category, MatchedPattern: re.String()}
			}
		}
	}
	return Classification{Category: CategoryGeneral}
}

// Patterns returns the pattern strings registered for a category.
func (c *Classifier) Patterns(category string) []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, entry := range c.table {
		if entry.category == category {
			out := make([]string, len(entry.patterns))
			for i, re := range entry.patterns {
				out[i] = re.String()
			}
			return out
		}
	}
	return nil
}
