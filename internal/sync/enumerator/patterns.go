package enumerator

import (
	"path"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// PatternMatcher decides whether a relative path is excluded.
//
// Patterns use doublestar syntax against the slash-separated path relative to
// the sync root. A pattern without a slash also matches the base name at any
// depth, and a pattern ending in "/" matches a directory and everything below it.
type PatternMatcher struct {
	patterns []string
}

// NewPatternMatcher creates a matcher for the given exclude patterns.
// Invalid patterns are dropped and returned so the caller can report them.
func NewPatternMatcher(patterns []string) (*PatternMatcher, []string) {
	var valid, invalid []string
	for _, p := range patterns {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if !doublestar.ValidatePattern(strings.TrimSuffix(p, "/")) {
			invalid = append(invalid, p)
			continue
		}
		valid = append(valid, p)
	}
	return &PatternMatcher{patterns: valid}, invalid
}

// Excluded reports whether relPath (slash-separated) matches an exclude pattern.
func (pm *PatternMatcher) Excluded(relPath string, isDir bool) bool {
	for _, pattern := range pm.patterns {
		if pm.matches(relPath, isDir, pattern) {
			return true
		}
	}
	return false
}

func (pm *PatternMatcher) matches(relPath string, isDir bool, pattern string) bool {
	if strings.HasSuffix(pattern, "/") {
		if !isDir {
			return false
		}
		pattern = strings.TrimSuffix(pattern, "/")
	}

	if ok, _ := doublestar.Match(pattern, relPath); ok {
		return true
	}
	if !strings.Contains(pattern, "/") {
		ok, _ := doublestar.Match(pattern, path.Base(relPath))
		return ok
	}
	return false
}
