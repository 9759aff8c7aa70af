// Package walker expands upload arguments (files, directories and glob
// patterns) into the ordered list of files to index.
package walker

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/ziadkadry99/docqa/internal/apperr"
)

// DefaultMaxFileSize is the maximum file size to upload (10 MB).
const DefaultMaxFileSize int64 = 10 << 20

// FileInfo holds metadata about a single file selected for upload.
type FileInfo struct {
	Path    string // Path as given or found on disk.
	RelPath string // Path relative to the walked directory, or the base name.
	Size    int64  // File size in bytes.
}

// Config controls which files inside directories are picked up.
type Config struct {
	Include     []string // Glob patterns; only matching files are included. Empty means DefaultInclude.
	Exclude     []string // Glob patterns; matching files are excluded.
	MaxFileSize int64    // Files larger than this are skipped (0 = use default).
}

// Collect resolves each argument in order. A plain file is taken as is, a
// directory is walked with cfg's filters, and a pattern containing glob
// metacharacters is expanded with ** support. Files reached twice are kept
// once, at their first position.
func Collect(args []string, cfg Config) ([]FileInfo, error) {
	var (
		files []FileInfo
		seen  = make(map[string]bool)
	)
	add := func(fi FileInfo) {
		key, err := filepath.Abs(fi.Path)
		if err != nil {
			key = fi.Path
		}
		if !seen[key] {
			seen[key] = true
			files = append(files, fi)
		}
	}

	for _, arg := range args {
		if isPattern(arg) {
			matches, err := doublestar.FilepathGlob(arg, doublestar.WithFilesOnly())
			if err != nil {
				return nil, fmt.Errorf("%w: bad pattern %q: %v", apperr.ErrInvalidInput, arg, err)
			}
			if len(matches) == 0 {
				return nil, fmt.Errorf("%w: no files match %q", apperr.ErrInvalidInput, arg)
			}
			for _, m := range matches {
				if fi, ok := fileInfo(m, filepath.Base(m), cfg); ok && !MatchesExclude(m, cfg.Exclude) {
					add(fi)
				}
			}
			continue
		}

		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", apperr.ErrIO, err)
		}
		if !info.IsDir() {
			add(FileInfo{Path: arg, RelPath: filepath.Base(arg), Size: info.Size()})
			continue
		}

		found, err := Walk(arg, cfg)
		if err != nil {
			return nil, err
		}
		for _, fi := range found {
			add(fi)
		}
	}
	return files, nil
}

// Walk traverses the directory tree rooted at root and returns every file
// that passes filtering, in lexical order. It skips default-excluded
// directories, binary and oversized files, and honours a .gitignore at root.
func Walk(root string, cfg Config) ([]FileInfo, error) {
	include := cfg.Include
	if len(include) == 0 {
		include = DefaultInclude
	}
	gitignorePatterns := loadGitignore(filepath.Join(root, ".gitignore"))

	var files []FileInfo
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			// Skip entries we cannot read instead of aborting.
			return nil
		}

		if d.IsDir() {
			if path != root && shouldExcludeDir(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}

		relPath, err := filepath.Rel(root, path)
		if err != nil {
			return nil
		}
		if matchesGitignore(relPath, gitignorePatterns) {
			return nil
		}
		if !MatchesInclude(relPath, include) || MatchesExclude(relPath, cfg.Exclude) {
			return nil
		}

		if fi, ok := fileInfo(path, filepath.ToSlash(relPath), cfg); ok {
			files = append(files, fi)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: walking %s: %v", apperr.ErrIO, root, err)
	}
	return files, nil
}

// fileInfo applies the size and binary checks to a discovered file.
func fileInfo(path, relPath string, cfg Config) (FileInfo, bool) {
	maxSize := cfg.MaxFileSize
	if maxSize <= 0 {
		maxSize = DefaultMaxFileSize
	}
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() || info.Size() > maxSize {
		return FileInfo{}, false
	}
	if isBinary(path) {
		return FileInfo{}, false
	}
	return FileInfo{Path: path, RelPath: relPath, Size: info.Size()}, true
}

func isPattern(arg string) bool {
	return strings.ContainsAny(arg, "*?[{")
}

// isBinary reads the first 512 bytes of a file and checks for NUL bytes,
// which is a simple but effective heuristic for binary content.
func isBinary(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return true // treat unreadable files as binary
	}
	defer f.Close()

	buf := make([]byte, 512)
	n, err := f.Read(buf)
	if err != nil && err != io.EOF {
		return true
	}

	for i := 0; i < n; i++ {
		if buf[i] == 0 {
			return true
		}
	}
	return false
}

// loadGitignore reads a .gitignore file and returns its non-empty,
// non-comment lines as patterns.
func loadGitignore(path string) []string {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}

	var patterns []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		patterns = append(patterns, line)
	}
	return patterns
}

// matchesGitignore checks if a relative path matches any gitignore pattern.
func matchesGitignore(relPath string, patterns []string) bool {
	if len(patterns) == 0 {
		return false
	}

	normalized := filepath.ToSlash(relPath)
	parts := strings.Split(normalized, "/")

	for _, pattern := range patterns {
		dirOnly := strings.HasSuffix(pattern, "/")
		pattern = strings.TrimSuffix(pattern, "/")

		if strings.Contains(pattern, "/") {
			// Anchored pattern: match against the full relative path.
			if matched, _ := doublestar.Match(strings.TrimPrefix(pattern, "/"), normalized); matched {
				return true
			}
			continue
		}

		// Unanchored: directory patterns match any parent component, file
		// patterns any component including the base name.
		candidates := parts
		if dirOnly {
			candidates = parts[:len(parts)-1]
		}
		for _, part := range candidates {
			if matched, _ := filepath.Match(pattern, part); matched {
				return true
			}
		}
	}
	return false
}
