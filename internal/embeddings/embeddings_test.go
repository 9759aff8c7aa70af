package embeddings

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestOllamaEmbedBatches(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/embed" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		calls++
		var req ollamaEmbedRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		resp := ollamaEmbedResponse{}
		for i := range req.Input {
			resp.Embeddings = append(resp.Embeddings, []float32{float32(i), 1, 0})
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	e := NewOllamaEmbedder("nomic-embed-text", srv.URL)
	texts := []string{"a", "b", "c"}
	vecs, err := e.Embed(context.Background(), texts)
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if len(vecs) != 3 {
		t.Fatalf("expected 3 vectors, got %d", len(vecs))
	}
	if calls != 1 {
		t.Errorf("expected a single batched call, got %d", calls)
	}
	if e.Dimensions() != 3 {
		t.Errorf("dimensions: got %d, want 3", e.Dimensions())
	}
	if e.Name() != "ollama/nomic-embed-text" {
		t.Errorf("name: got %q", e.Name())
	}
}

func TestOllamaEmbedError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer srv.Close()

	e := NewOllamaEmbedder("missing", srv.URL)
	if _, err := e.Embed(context.Background(), []string{"x"}); err == nil {
		t.Fatal("expected error for 404 response")
	}
}

func TestOpenAIEmbedCompatibleServer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/embeddings" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("authorization header: %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		// Returned out of order on purpose.
		w.Write([]byte(`{"object":"list","model":"custom","data":[
			{"object":"embedding","index":1,"embedding":[0,1]},
			{"object":"embedding","index":0,"embedding":[1,0]}]}`))
	}))
	defer srv.Close()

	e := NewOpenAIEmbedder("test-key", srv.URL+"/v1", "custom")
	if e.Dimensions() != 0 {
		t.Errorf("unknown model should report 0 dimensions before a call")
	}
	vecs, err := e.Embed(context.Background(), []string{"first", "second"})
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if vecs[0][0] != 1 || vecs[1][1] != 1 {
		t.Errorf("embeddings not ordered by index: %v", vecs)
	}
	if e.Dimensions() != 2 {
		t.Errorf("dimensions: got %d, want 2", e.Dimensions())
	}
}

func TestNew(t *testing.T) {
	if _, err := New(Options{Provider: "openai"}); err == nil {
		t.Error("expected error without API key")
	}
	e, err := New(Options{Provider: "openai", APIKey: "k", Model: "text-embedding-3-large"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if e.Dimensions() != 3072 {
		t.Errorf("dimensions: got %d", e.Dimensions())
	}
	if _, err := New(Options{Provider: "ollama"}); err != nil {
		t.Errorf("ollama: %v", err)
	}
	if h, err := New(Options{Provider: "hash"}); err != nil || h.Dimensions() != 64 {
		t.Errorf("hash: %v", err)
	}
	if _, err := New(Options{Provider: "google"}); err == nil {
		t.Error("expected error for unsupported provider")
	}
}

func TestToChromemFunc(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(ollamaEmbedResponse{Embeddings: [][]float32{{0.6, 0.8}}})
	}))
	defer srv.Close()

	fn := ToChromemFunc(NewOllamaEmbedder("m", srv.URL))
	vec, err := fn(context.Background(), "query")
	if err != nil {
		t.Fatalf("embedding func: %v", err)
	}
	if len(vec) != 2 || vec[0] != 0.6 {
		t.Errorf("unexpected vector %v", vec)
	}
}

func TestHashEmbedderDeterministic(t *testing.T) {
	h := NewHashEmbedder(32)
	a, _ := h.Embed(context.Background(), []string{"security policy", "security policy", ""})
	if len(a) != 3 || len(a[0]) != 32 {
		t.Fatalf("unexpected shape")
	}
	for i := range a[0] {
		if a[0][i] != a[1][i] {
			t.Fatalf("same text produced different vectors")
		}
	}
	var norm float32
	for _, v := range a[2] {
		norm += v * v
	}
	if norm == 0 {
		t.Error("empty text must not produce a zero vector")
	}
}
