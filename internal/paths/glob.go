package paths

import (
	"path/filepath"
	"strings"
)

// MatchGlob checks if a slash-separated relative path matches a glob pattern.
// Supports *, ? and ** (zero or more whole segments).
func MatchGlob(pattern, path string) bool {
	if strings.Contains(pattern, "**") {
		return matchParts(SplitPath(pattern), SplitPath(path))
	}

	matched, err := filepath.Match(pattern, path)
	if err != nil {
		return false
	}
	return matched
}

// MatchAny reports whether path matches at least one of the patterns
func MatchAny(patterns []string, path string) bool {
	for _, p := range patterns {
		if MatchGlob(p, path) {
			return true
		}
	}
	return false
}

func matchParts(patternParts, pathParts []string) bool {
	if len(patternParts) == 0 {
		return len(pathParts) == 0
	}

	if len(pathParts) == 0 {
		for _, p := range patternParts {
			if p != "**" {
				return false
			}
		}
		return true
	}

	pattern := patternParts[0]
	if pattern == "**" {
		return matchParts(patternParts[1:], pathParts) ||
			matchParts(patternParts, pathParts[1:])
	}

	matched, err := filepath.Match(pattern, pathParts[0])
	if err != nil || !matched {
		return false
	}

	return matchParts(patternParts[1:], pathParts[1:])
}

// IsGlobPattern checks if a string contains glob characters
func IsGlobPattern(s string) bool {
	return strings.ContainsAny(s, "*?[")
}
