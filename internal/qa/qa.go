// Package qa answers questions from retrieved document chunks.
package qa

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ziadkadry99/docqa/internal/apperr"
	"github.com/ziadkadry99/docqa/internal/llm"
	"github.com/ziadkadry99/docqa/internal/logging"
	"github.com/ziadkadry99/docqa/internal/vectordb"
)

// Options configures an Answerer. Zero values take the defaults below.
type Options struct {
	Model       string
	TopK        int
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
	Logger      *logrus.Entry
}

const (
	defaultTopK    = 4
	defaultTimeout = 60 * time.Second
)

// Answerer runs retrieval-augmented question answering.
type Answerer struct {
	provider llm.Provider
	opts     Options
	log      *logrus.Entry
}

// New creates an Answerer backed by provider.
func New(provider llm.Provider, opts Options) *Answerer {
	if opts.TopK <= 0 {
		opts.TopK = defaultTopK
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	log := opts.Logger
	if log == nil {
		log = logging.For("qa")
	}
	return &Answerer{provider: provider, opts: opts, log: log}
}

// Source is a retrieved chunk the answer was based on.
type Source struct {
	Document   string  `json:"document"`
	Position   int     `json:"position"`
	Text       string  `json:"text"`
	Similarity float32 `json:"similarity"`
}

// Result is the outcome of one question.
type Result struct {
	Question     string        `json:"question"`
	Answer       string        `json:"answer"`
	Sources      []Source      `json:"sources"`
	Model        string        `json:"model"`
	InputTokens  int           `json:"input_tokens"`
	OutputTokens int           `json:"output_tokens"`
	CostUSD      float64       `json:"cost_usd"`
	Duration     time.Duration `json:"duration"`
}

// Answer retrieves the chunks closest to question from idx and asks the
// model to answer from them.
func (a *Answerer) Answer(ctx context.Context, question string, idx vectordb.Searcher) (*Result, error) {
	return a.answer(ctx, question, idx, nil)
}

// AnswerStream is Answer with the model output delivered through onDelta
// as it is generated.
func (a *Answerer) AnswerStream(ctx context.Context, question string, idx vectordb.Searcher, onDelta llm.DeltaFunc) (*Result, error) {
	return a.answer(ctx, question, idx, onDelta)
}

func (a *Answerer) answer(ctx context.Context, question string, idx vectordb.Searcher, onDelta llm.DeltaFunc) (*Result, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, fmt.Errorf("%w: question is empty", apperr.ErrInvalidInput)
	}
	if idx == nil || idx.Count() == 0 {
		return nil, apperr.ErrEmptyStore
	}

	start := time.Now()
	hits, err := idx.Search(ctx, question, a.opts.TopK)
	if err != nil {
		return nil, fmt.Errorf("retrieving context: %w", err)
	}

	req := llm.CompletionRequest{
		Model:       a.opts.Model,
		Messages:    BuildPrompt(question, hits),
		MaxTokens:   a.opts.MaxTokens,
		Temperature: a.opts.Temperature,
	}

	callCtx, cancel := context.WithTimeout(ctx, a.opts.Timeout)
	defer cancel()

	var resp *llm.CompletionResponse
	if onDelta != nil {
		resp, err = llm.Stream(callCtx, a.provider, req, onDelta)
	} else {
		resp, err = a.provider.Complete(callCtx, req)
	}
	if err != nil {
		a.log.WithError(err).WithField("provider", a.provider.Name()).Warn("model call failed")
		return nil, fmt.Errorf("%w: %s: %w", apperr.ErrUpstream, a.provider.Name(), err)
	}

	res := &Result{
		Question:     question,
		Answer:       strings.TrimSpace(resp.Content),
		Model:        resp.Model,
		InputTokens:  resp.InputTokens,
		OutputTokens: resp.OutputTokens,
		Duration:     time.Since(start),
	}
	if res.Model == "" {
		res.Model = a.opts.Model
	}
	if res.InputTokens == 0 {
		res.InputTokens = estimatePromptTokens(req.Messages)
	}
	res.CostUSD = llm.EstimateCost(res.Model, res.InputTokens, res.OutputTokens)
	for _, h := range hits {
		res.Sources = append(res.Sources, Source{
			Document:   h.Entry.Source,
			Position:   h.Entry.Position,
			Text:       h.Entry.Content,
			Similarity: h.Similarity,
		})
	}

	a.log.WithFields(logrus.Fields{
		"sources":  len(res.Sources),
		"tokens":   res.InputTokens + res.OutputTokens,
		"duration": res.Duration.Round(time.Millisecond),
	}).Debug("question answered")
	return res, nil
}

func estimatePromptTokens(msgs []llm.Message) int {
	n := 0
	for _, m := range msgs {
		n += llm.EstimateTokens(m.Content)
	}
	return n
}
