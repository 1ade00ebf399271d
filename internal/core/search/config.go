package search

import "regexp"

// Config describes a find-in-console query.
type Config struct {
	Query         string `json:"query"`
	CaseSensitive bool   `json:"caseSensitive"`
	IsRegex       bool   `json:"isRegex"`
}

// Regex compiles the query. It returns nil for an empty query or a pattern
// that does not compile; a nil regex matches nothing.
func (c Config) Regex() *regexp.Regexp {
	if c.Query == "" {
		return nil
	}
	pattern := c.Query
	if !c.IsRegex {
		pattern = regexp.QuoteMeta(pattern)
	}
	if !c.CaseSensitive {
		pattern = "(?i)" + pattern
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil
	}
	return re
}
