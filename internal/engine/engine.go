// Package engine ties the document store, the upload pipeline and the
// answerer together behind the operations every front end offers.
package engine

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ziadkadry99/docqa/internal/activity"
	"github.com/ziadkadry99/docqa/internal/apperr"
	"github.com/ziadkadry99/docqa/internal/embeddings"
	"github.com/ziadkadry99/docqa/internal/indexer"
	"github.com/ziadkadry99/docqa/internal/llm"
	"github.com/ziadkadry99/docqa/internal/logging"
	"github.com/ziadkadry99/docqa/internal/qa"
	"github.com/ziadkadry99/docqa/internal/store"
	"github.com/ziadkadry99/docqa/internal/vectordb"
)

// Engine is the document question-answering service shared by the CLI, the
// web server, the TUI and the MCP server.
type Engine struct {
	store    *store.Store
	pipeline *indexer.Pipeline
	embedder embeddings.Embedder
	answerer *qa.Answerer
	activity *activity.Store // nil disables the activity log
	log      *logrus.Entry
}

// New creates an Engine. answerer may be nil for commands that never ask,
// and activityStore may be nil to skip the activity log.
func New(st *store.Store, pipeline *indexer.Pipeline, embedder embeddings.Embedder, answerer *qa.Answerer, activityStore *activity.Store) *Engine {
	return &Engine{
		store:    st,
		pipeline: pipeline,
		embedder: embedder,
		answerer: answerer,
		activity: activityStore,
		log:      logging.For("engine"),
	}
}

// Store returns the underlying document store.
func (e *Engine) Store() *store.Store { return e.store }

// Activity returns the activity log, or nil.
func (e *Engine) Activity() *activity.Store { return e.activity }

// Documents lists the uploaded documents in number order.
func (e *Engine) Documents() ([]store.Record, error) {
	return e.store.List()
}

// Upload indexes the content of r as a new document named name.
func (e *Engine) Upload(ctx context.Context, r io.Reader, name string) (*indexer.Result, error) {
	res, err := e.pipeline.IndexReader(ctx, r, name)
	e.recordUpload(ctx, name, res, err)
	return res, err
}

// UploadFiles indexes the files at paths in order.
func (e *Engine) UploadFiles(ctx context.Context, paths []string, onProgress func(done, total int, path string)) *indexer.BatchResult {
	batch := e.pipeline.IndexFiles(ctx, paths, onProgress)
	for _, res := range batch.Results {
		e.recordUpload(ctx, res.Record.Name, &res, nil)
	}
	for _, err := range batch.Errors {
		var name string
		if fe, ok := err.(*indexer.FileError); ok {
			name = fe.Path
		}
		e.recordUpload(ctx, name, nil, err)
	}
	return batch
}

func (e *Engine) recordUpload(ctx context.Context, name string, res *indexer.Result, err error) {
	entry := activity.Entry{Action: activity.ActionUpload, Documents: []string{name}}
	if res != nil {
		entry.Documents = []string{res.Record.FileName}
		entry.Duration = res.Duration
		entry.Detail = fmt.Sprintf("%d chunks, %s", res.Chunks, res.Encoding)
	}
	e.record(ctx, entry, err)
}

// Delete removes the documents named by selection ("2 4") and renumbers
// the rest.
func (e *Engine) Delete(ctx context.Context, selection string) (store.DeleteResult, error) {
	numbers, err := store.ParseSelection(selection)
	if err != nil {
		return store.DeleteResult{}, err
	}
	res, err := e.store.Delete(numbers)

	entry := activity.Entry{Action: activity.ActionDelete, Detail: "requested: " + strings.TrimSpace(selection)}
	for _, r := range res.Deleted {
		entry.Documents = append(entry.Documents, r.FileName)
	}
	e.record(ctx, entry, err)
	return res, err
}

// Answer is the outcome of Ask.
type Answer struct {
	*qa.Result
	Documents []store.Record `json:"documents"`
	// FellBack is set when the selection matched nothing and all documents
	// were searched instead.
	FellBack bool  `json:"fell_back"`
	Missing  []int `json:"missing,omitempty"`
}

// Ask answers question from the documents named by selection. An empty
// selection searches every document. When onDelta is non-nil the answer is
// streamed through it as it is generated.
func (e *Engine) Ask(ctx context.Context, question, selection string, onDelta llm.DeltaFunc) (*Answer, error) {
	start := time.Now()
	ans, err := e.ask(ctx, question, selection, onDelta)

	entry := activity.Entry{
		Action:   activity.ActionAsk,
		Question: question,
		Detail:   "selection: " + strings.TrimSpace(selection),
		Duration: time.Since(start),
	}
	if ans != nil {
		entry.Answer = ans.Result.Answer
		for _, r := range ans.Documents {
			entry.Documents = append(entry.Documents, r.FileName)
		}
	}
	e.record(ctx, entry, err)
	return ans, err
}

func (e *Engine) ask(ctx context.Context, question, selection string, onDelta llm.DeltaFunc) (*Answer, error) {
	if strings.TrimSpace(question) == "" {
		return nil, fmt.Errorf("%w: question is empty", apperr.ErrInvalidInput)
	}
	if e.answerer == nil {
		return nil, fmt.Errorf("%w: no language model configured", apperr.ErrInvalidConfig)
	}

	idx, sel, err := e.selectIndex(ctx, selection)
	if err != nil {
		return nil, err
	}

	var res *qa.Result
	if onDelta != nil {
		res, err = e.answerer.AnswerStream(ctx, question, idx, onDelta)
	} else {
		res, err = e.answerer.Answer(ctx, question, idx)
	}
	if err != nil {
		return nil, err
	}
	return &Answer{Result: res, Documents: sel.Records, FellBack: sel.FellBack, Missing: sel.Missing}, nil
}

// Search returns the k chunks closest to query among the selected documents
// without calling the language model.
func (e *Engine) Search(ctx context.Context, query, selection string, k int) ([]vectordb.SearchResult, store.Selection, error) {
	if strings.TrimSpace(query) == "" {
		return nil, store.Selection{}, fmt.Errorf("%w: query is empty", apperr.ErrInvalidInput)
	}
	idx, sel, err := e.selectIndex(ctx, selection)
	if err != nil {
		return nil, sel, err
	}
	results, err := idx.Search(ctx, query, k)
	return results, sel, err
}

func (e *Engine) selectIndex(ctx context.Context, selection string) (*vectordb.Index, store.Selection, error) {
	numbers, err := store.ParseSelection(selection)
	if err != nil {
		return nil, store.Selection{}, err
	}
	return e.store.Merge(ctx, numbers, e.embedder)
}

// History returns recent activity, newest first. It returns nothing when
// the activity log is disabled.
func (e *Engine) History(ctx context.Context, filter activity.QueryFilter) ([]activity.Entry, error) {
	if e.activity == nil {
		return nil, nil
	}
	return e.activity.Query(ctx, filter)
}

func (e *Engine) record(ctx context.Context, entry activity.Entry, err error) {
	if e.activity == nil {
		return
	}
	if err != nil {
		entry.Status = activity.StatusError
		if entry.Detail != "" {
			entry.Detail += "; "
		}
		entry.Detail += err.Error()
	}
	// The outcome is recorded even when the request context was cancelled.
	if _, logErr := e.activity.Log(context.WithoutCancel(ctx), entry); logErr != nil {
		e.log.WithError(logErr).Warn("recording activity failed")
	}
}
