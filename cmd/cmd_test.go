package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ziadkadry99/docqa/internal/config"
	"github.com/ziadkadry99/docqa/internal/engine/enginetest"
	"github.com/ziadkadry99/docqa/internal/llm"
	"github.com/ziadkadry99/docqa/internal/store"
)

// writeConfig writes a config that embeds offline and keeps every file
// under a temp dir.
func writeConfig(t *testing.T) (string, string) {
	t.Helper()
	dir := t.TempDir()
	cfg := `provider: openai
model: gpt-4o-mini
embedding_provider: hash
store:
  dir: ` + filepath.Join(dir, "documents") + `
  duplicates: substring
splitter:
  chunk_size: 200
  chunk_overlap: 20
activity:
  db_path: ` + filepath.Join(dir, "docqa.db") + `
`
	path := filepath.Join(dir, ".docqa.yml")
	if err := os.WriteFile(path, []byte(cfg), 0644); err != nil {
		t.Fatal(err)
	}
	return path, dir
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetArgs(args)
	appCfg = nil
	err := rootCmd.Execute()
	return out.String(), err
}

func TestUploadListDelete(t *testing.T) {
	cfgPath, dir := writeConfig(t)
	for name, text := range map[string]string{
		"alpha.txt": "Alpha covers encryption at rest.",
		"beta.txt":  "Beta covers retention periods.",
	} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(text), 0644); err != nil {
			t.Fatal(err)
		}
	}

	if _, err := execute(t, "--config", cfgPath, "--env-file", filepath.Join(dir, "none.env"),
		"upload", filepath.Join(dir, "alpha.txt"), filepath.Join(dir, "beta.txt")); err != nil {
		t.Fatalf("upload: %v", err)
	}

	out, err := execute(t, "--config", cfgPath, "list", "--json")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	var docs []store.Record
	if err := json.Unmarshal([]byte(out), &docs); err != nil {
		t.Fatalf("decoding list output %q: %v", out, err)
	}
	if len(docs) != 2 || docs[0].FileName != "1_alpha.gob.gz" || docs[1].FileName != "2_beta.gob.gz" {
		t.Fatalf("unexpected documents: %+v", docs)
	}

	out, err = execute(t, "--config", cfgPath, "delete", "1", "--yes")
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if !strings.Contains(out, "deleted 1. alpha") {
		t.Errorf("delete output = %q", out)
	}

	if _, err := os.Stat(filepath.Join(dir, "documents", "1_beta.gob.gz")); err != nil {
		t.Errorf("beta was not renumbered: %v", err)
	}
}

func TestLoadConfigRejectsBadPolicy(t *testing.T) {
	cfgPath, _ := writeConfig(t)
	t.Setenv("DOCQA_SELECTION__NO_MATCH", "sometimes")

	_, err := execute(t, "--config", cfgPath, "list")
	if err == nil || !strings.Contains(err.Error(), "no_match") {
		t.Fatalf("expected a no_match validation error, got %v", err)
	}
}

func TestQueryCommands(t *testing.T) {
	provider := &enginetest.Provider{Answer: "Data is encrypted at rest."}
	orig := newLLMProvider
	newLLMProvider = func(*config.Config) (llm.Provider, error) { return provider, nil }
	t.Cleanup(func() { newLLMProvider = orig })

	cfgPath, dir := writeConfig(t)
	doc := filepath.Join(dir, "alpha.txt")
	if err := os.WriteFile(doc, []byte("Alpha covers encryption at rest."), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := execute(t, "--config", cfgPath, "upload", doc); err != nil {
		t.Fatalf("upload: %v", err)
	}

	tests := []struct {
		name  string
		args  []string
		check func(t *testing.T, out string)
	}{
		{
			name: "ask json",
			args: []string{"ask", "--json", "--docs", "1", "How is data stored?"},
			check: func(t *testing.T, out string) {
				var ans struct {
					Answer    string         `json:"answer"`
					Documents []store.Record `json:"documents"`
					FellBack  bool           `json:"fell_back"`
				}
				if err := json.Unmarshal([]byte(out), &ans); err != nil {
					t.Fatalf("decoding %q: %v", out, err)
				}
				if ans.Answer != "Data is encrypted at rest." || len(ans.Documents) != 1 || ans.FellBack {
					t.Errorf("unexpected answer %+v", ans)
				}
			},
		},
		{
			name: "search json",
			args: []string{"search", "--json", "--limit", "1", "encryption"},
			check: func(t *testing.T, out string) {
				var hits []searchHit
				if err := json.Unmarshal([]byte(out), &hits); err != nil {
					t.Fatalf("decoding %q: %v", out, err)
				}
				if len(hits) != 1 || hits[0].Document != "alpha.txt" {
					t.Errorf("unexpected hits %+v", hits)
				}
			},
		},
		{
			name: "cost",
			args: []string{"cost", doc},
			check: func(t *testing.T, out string) {
				if !strings.Contains(out, "Total: 1 chunks") {
					t.Errorf("cost output = %q", out)
				}
			},
		},
		{
			name: "history json",
			args: []string{"history", "--json", "--action", "ask"},
			check: func(t *testing.T, out string) {
				if !strings.Contains(out, "How is data stored?") {
					t.Errorf("history output = %q", out)
				}
			},
		},
		{
			name: "history prune",
			args: []string{"history", "--prune", "1h"},
			check: func(t *testing.T, out string) {
				if !strings.Contains(out, "Pruned 0 entries.") {
					t.Errorf("prune output = %q", out)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := execute(t, append([]string{"--config", cfgPath}, tt.args...)...)
			if err != nil {
				t.Fatalf("%s: %v", tt.name, err)
			}
			tt.check(t, out)
		})
	}

	if provider.Calls() != 1 {
		t.Errorf("expected one model call, got %d", provider.Calls())
	}
}
