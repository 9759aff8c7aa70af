package qa

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ziadkadry99/docqa/internal/apperr"
	"github.com/ziadkadry99/docqa/internal/embeddings"
	"github.com/ziadkadry99/docqa/internal/llm"
	"github.com/ziadkadry99/docqa/internal/logging"
	"github.com/ziadkadry99/docqa/internal/splitter"
	"github.com/ziadkadry99/docqa/internal/vectordb"
)

// stubProvider returns a fixed answer and records requests.
type stubProvider struct {
	mu     sync.Mutex
	calls  []llm.CompletionRequest
	answer string
	err    error
	delay  time.Duration
}

func (s *stubProvider) Name() string { return "stub" }

func (s *stubProvider) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	s.mu.Lock()
	s.calls = append(s.calls, req)
	s.mu.Unlock()
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if s.err != nil {
		return nil, s.err
	}
	return &llm.CompletionResponse{Content: " " + s.answer + "\n", Model: "gpt-4o-mini", InputTokens: 100, OutputTokens: 10}, nil
}

func testIndex(t *testing.T) *vectordb.Index {
	t.Helper()
	chunks := []splitter.Chunk{
		{Text: "Passwords must be rotated every ninety days.", Source: "policy.txt", Position: 0},
		{Text: "Visitors sign in at the front desk.", Source: "policy.txt", Position: 1},
		{Text: "The cafeteria opens at eight.", Source: "policy.txt", Position: 2},
	}
	idx, err := vectordb.Build(context.Background(), chunks, embeddings.NewHashEmbedder(64), nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return idx
}

func TestAnswer(t *testing.T) {
	p := &stubProvider{answer: "Every ninety days."}
	a := New(p, Options{Model: "gpt-4o-mini", TopK: 2, Temperature: 0.01, Logger: logging.Discard()})

	res, err := a.Answer(context.Background(), "  Passwords must be rotated how often?  ", testIndex(t))
	if err != nil {
		t.Fatalf("Answer: %v", err)
	}
	if res.Answer != "Every ninety days." {
		t.Errorf("answer not trimmed: %q", res.Answer)
	}
	if len(res.Sources) != 2 {
		t.Fatalf("expected 2 sources, got %d", len(res.Sources))
	}
	if res.Sources[0].Document != "policy.txt" {
		t.Errorf("unexpected source %+v", res.Sources[0])
	}
	if res.CostUSD <= 0 {
		t.Errorf("expected a cost estimate for gpt-4o-mini")
	}

	if len(p.calls) != 1 {
		t.Fatalf("expected 1 model call, got %d", len(p.calls))
	}
	req := p.calls[0]
	if req.Temperature != 0.01 {
		t.Errorf("temperature: %v", req.Temperature)
	}
	user := req.Messages[len(req.Messages)-1].Content
	if !strings.Contains(user, "Question: Passwords must be rotated how often?") {
		t.Errorf("question missing from prompt:\n%s", user)
	}
	if !strings.Contains(user, res.Sources[0].Text) {
		t.Errorf("retrieved context missing from prompt")
	}
}

func TestAnswerEmptyQuestion(t *testing.T) {
	a := New(&stubProvider{}, Options{Logger: logging.Discard()})
	if _, err := a.Answer(context.Background(), "   ", testIndex(t)); !errors.Is(err, apperr.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}

func TestAnswerNoIndex(t *testing.T) {
	a := New(&stubProvider{}, Options{Logger: logging.Discard()})
	if _, err := a.Answer(context.Background(), "anything?", nil); !errors.Is(err, apperr.ErrEmptyStore) {
		t.Errorf("expected ErrEmptyStore, got %v", err)
	}
}

func TestAnswerUpstreamFailure(t *testing.T) {
	a := New(&stubProvider{err: errors.New("503 service unavailable")}, Options{Logger: logging.Discard()})
	_, err := a.Answer(context.Background(), "question?", testIndex(t))
	if !errors.Is(err, apperr.ErrUpstream) {
		t.Errorf("expected ErrUpstream, got %v", err)
	}
}

func TestAnswerTimeout(t *testing.T) {
	p := &stubProvider{answer: "late", delay: time.Second}
	a := New(p, Options{Timeout: 20 * time.Millisecond, Logger: logging.Discard()})
	_, err := a.Answer(context.Background(), "question?", testIndex(t))
	if !errors.Is(err, apperr.ErrUpstream) || !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected ErrUpstream wrapping DeadlineExceeded, got %v", err)
	}
}

func TestAnswerStream(t *testing.T) {
	a := New(&stubProvider{answer: "streamed"}, Options{Logger: logging.Discard()})
	var got strings.Builder
	res, err := a.AnswerStream(context.Background(), "question?", testIndex(t), func(d string) { got.WriteString(d) })
	if err != nil {
		t.Fatalf("AnswerStream: %v", err)
	}
	if !strings.Contains(got.String(), "streamed") || res.Answer != "streamed" {
		t.Errorf("delta %q, answer %q", got.String(), res.Answer)
	}
}

func TestBuildPrompt(t *testing.T) {
	hits := []vectordb.SearchResult{
		{Entry: vectordb.Entry{Source: "a.txt", Content: "  alpha  "}},
		{Entry: vectordb.Entry{Source: "b.txt", Content: "beta"}},
	}
	msgs := BuildPrompt("what?", hits)
	if len(msgs) != 2 || msgs[0].Role != llm.RoleSystem {
		t.Fatalf("unexpected messages %+v", msgs)
	}
	for _, want := range []string{"[1] From a.txt:\nalpha", "[2] From b.txt:\nbeta", "Question: what?"} {
		if !strings.Contains(msgs[1].Content, want) {
			t.Errorf("prompt missing %q:\n%s", want, msgs[1].Content)
		}
	}
}
