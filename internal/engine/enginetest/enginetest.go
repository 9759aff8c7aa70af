// Package enginetest builds an offline Engine for handler and UI tests.
package enginetest

import (
	"context"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/ziadkadry99/docqa/internal/activity"
	"github.com/ziadkadry99/docqa/internal/db"
	"github.com/ziadkadry99/docqa/internal/embeddings"
	"github.com/ziadkadry99/docqa/internal/engine"
	"github.com/ziadkadry99/docqa/internal/indexer"
	"github.com/ziadkadry99/docqa/internal/llm"
	"github.com/ziadkadry99/docqa/internal/logging"
	"github.com/ziadkadry99/docqa/internal/qa"
	"github.com/ziadkadry99/docqa/internal/splitter"
	"github.com/ziadkadry99/docqa/internal/store"
)

// Provider is a scripted llm.Provider.
type Provider struct {
	mu       sync.Mutex
	Answer   string
	Err      error
	Requests []llm.CompletionRequest
}

func (p *Provider) Name() string { return "enginetest" }

func (p *Provider) Complete(_ context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Requests = append(p.Requests, req)
	if p.Err != nil {
		return nil, p.Err
	}
	return &llm.CompletionResponse{Content: p.Answer, Model: "test-model", InputTokens: 42, OutputTokens: 7}, nil
}

// Calls returns the number of completion requests seen.
func (p *Provider) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.Requests)
}

// Fixture holds an Engine and its collaborators.
type Fixture struct {
	Engine   *engine.Engine
	Store    *store.Store
	Provider *Provider
	Activity *activity.Store
}

// New builds an Engine over a temporary directory with a hash embedder, a
// scripted provider and an in-memory activity log.
func New(t testing.TB) *Fixture {
	t.Helper()

	st, err := store.Open(filepath.Join(t.TempDir(), "documents"), store.Options{Logger: logging.Discard()})
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	database, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("db.OpenMemory: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	embedder := embeddings.NewHashEmbedder(64)
	provider := &Provider{Answer: "Data is encrypted at rest."}
	pipeline := indexer.NewPipeline(st, embedder, indexer.Options{
		Split:   splitter.Options{MaxSize: 200, Overlap: 20},
		Logger:  logging.Discard(),
		TempDir: t.TempDir(),
	})
	answerer := qa.New(provider, qa.Options{Model: "test-model", Logger: logging.Discard()})
	acts := activity.NewStore(database)

	return &Fixture{
		Engine:   engine.New(st, pipeline, embedder, answerer, acts),
		Store:    st,
		Provider: provider,
		Activity: acts,
	}
}

// Upload stores content as a document named name and fails the test on error.
func (f *Fixture) Upload(t testing.TB, name, content string) store.Record {
	t.Helper()
	res, err := f.Engine.Upload(context.Background(), strings.NewReader(content), name)
	if err != nil {
		t.Fatalf("Upload %s: %v", name, err)
	}
	return res.Record
}
