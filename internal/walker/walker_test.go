package walker

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ziadkadry99/docqa/internal/apperr"
)

// tree creates files under a temp dir; content "" writes a short text body.
func tree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		if content == "" {
			content = "text of " + rel
		}
		path := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return root
}

func relPaths(files []FileInfo) []string {
	out := make([]string, len(files))
	for i, f := range files {
		out[i] = f.RelPath
	}
	return out
}

func TestWalk_DefaultIncludeTxt(t *testing.T) {
	root := tree(t, map[string]string{
		"a.txt":          "",
		"notes/b.txt":    "",
		"notes/c.md":     "",
		"image.png":      "",
		".git/HEAD.txt":  "",
		"vendor/lib.txt": "",
	})

	files, err := Walk(root, Config{})
	if err != nil {
		t.Fatalf("Walk() error: %v", err)
	}
	got := strings.Join(relPaths(files), ",")
	if got != "a.txt,notes/b.txt" {
		t.Errorf("Walk() = %s", got)
	}
}

func TestWalk_IncludeExclude(t *testing.T) {
	root := tree(t, map[string]string{
		"a.txt":        "",
		"b.md":         "",
		"drafts/c.txt": "",
	})

	files, err := Walk(root, Config{Include: []string{"**/*.txt", "*.md"}, Exclude: []string{"drafts/**"}})
	if err != nil {
		t.Fatalf("Walk() error: %v", err)
	}
	got := strings.Join(relPaths(files), ",")
	if got != "a.txt,b.md" {
		t.Errorf("Walk() = %s", got)
	}
}

func TestWalk_SkipsBinaryAndLargeFiles(t *testing.T) {
	root := tree(t, map[string]string{
		"bin.txt":   "abc\x00def",
		"big.txt":   strings.Repeat("x", 2048),
		"small.txt": "ok",
	})

	files, err := Walk(root, Config{MaxFileSize: 1024})
	if err != nil {
		t.Fatalf("Walk() error: %v", err)
	}
	if got := strings.Join(relPaths(files), ","); got != "small.txt" {
		t.Errorf("Walk() = %s", got)
	}
}

func TestWalk_Gitignore(t *testing.T) {
	root := tree(t, map[string]string{
		".gitignore":      "# comment\nsecret.txt\nbuild/\n",
		"keep.txt":        "",
		"secret.txt":      "",
		"build/out.txt":   "",
		"sub/secret.txt":  "",
		"sub/visible.txt": "",
	})

	files, err := Walk(root, Config{})
	if err != nil {
		t.Fatalf("Walk() error: %v", err)
	}
	if got := strings.Join(relPaths(files), ","); got != "keep.txt,sub/visible.txt" {
		t.Errorf("Walk() = %s", got)
	}
}

func TestCollect_MixedArgs(t *testing.T) {
	root := tree(t, map[string]string{
		"z.txt":       "",
		"docs/a.txt":  "",
		"docs/b.txt":  "",
		"other/c.txt": "",
		"plain.log":   "",
	})

	args := []string{
		filepath.Join(root, "z.txt"),
		filepath.Join(root, "docs"),
		filepath.Join(root, "**", "*.txt"),
		filepath.Join(root, "plain.log"),
	}
	files, err := Collect(args, Config{})
	if err != nil {
		t.Fatalf("Collect() error: %v", err)
	}

	var names []string
	for _, f := range files {
		names = append(names, filepath.Base(f.Path))
	}
	// z.txt and docs/* are not repeated by the glob; an explicit file bypasses the include filter.
	if got := strings.Join(names, ","); got != "z.txt,a.txt,b.txt,c.txt,plain.log" {
		t.Errorf("Collect() = %s", got)
	}
}

func TestCollect_Errors(t *testing.T) {
	root := tree(t, map[string]string{"a.txt": ""})

	if _, err := Collect([]string{filepath.Join(root, "missing.txt")}, Config{}); !errors.Is(err, apperr.ErrIO) {
		t.Errorf("missing file: got %v", err)
	}
	if _, err := Collect([]string{filepath.Join(root, "*.pdf")}, Config{}); !errors.Is(err, apperr.ErrInvalidInput) {
		t.Errorf("no matches: got %v", err)
	}
	if _, err := Collect([]string{filepath.Join(root, "[")}, Config{}); !errors.Is(err, apperr.ErrInvalidInput) {
		t.Errorf("bad pattern: got %v", err)
	}
}

func TestMatchesInclude_Empty(t *testing.T) {
	if !MatchesInclude("anything.go", nil) {
		t.Error("empty include should match everything")
	}
}

func TestMatchesExclude_Empty(t *testing.T) {
	if MatchesExclude("anything.go", nil) {
		t.Error("empty exclude should match nothing")
	}
}

func TestMatchesInclude_DoubleStarPattern(t *testing.T) {
	if !MatchesInclude("a/b/c/d.txt", []string{"**/*.txt"}) {
		t.Error("expected ** to match nested path")
	}
	if !MatchesInclude("d.txt", []string{"**/*.txt"}) {
		t.Error("expected ** to match top-level file")
	}
}
