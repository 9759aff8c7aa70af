package walker

import (
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// DefaultInclude selects plain-text documents inside walked directories.
var DefaultInclude = []string{"**/*.txt"}

// DefaultExcludes are directory names never descended into.
var DefaultExcludes = []string{".git", "node_modules", "vendor", "__pycache__", ".venv", ".idea", ".vscode"}

func shouldExcludeDir(name string) bool {
	for _, excl := range DefaultExcludes {
		if strings.EqualFold(name, excl) {
			return true
		}
	}
	return false
}

// MatchesInclude reports whether relPath is selected by patterns. No
// patterns selects everything.
func MatchesInclude(relPath string, patterns []string) bool {
	return len(patterns) == 0 || matchesAny(relPath, patterns)
}

// MatchesExclude reports whether relPath is rejected by patterns.
func MatchesExclude(relPath string, patterns []string) bool {
	return len(patterns) > 0 && matchesAny(relPath, patterns)
}

// matchesAny tries each pattern against the slash-separated path and
// against its base name, so "*.txt" matches files at any depth.
func matchesAny(relPath string, patterns []string) bool {
	p := filepath.ToSlash(relPath)
	base := filepath.Base(p)
	for _, pattern := range patterns {
		pattern = filepath.ToSlash(pattern)
		if ok, _ := doublestar.Match(pattern, p); ok {
			return true
		}
		if ok, _ := doublestar.Match(pattern, base); ok {
			return true
		}
	}
	return false
}
