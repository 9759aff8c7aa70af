// Package indexer turns uploaded files into stored document indices:
// load -> split -> embed -> store.
package indexer

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ziadkadry99/docqa/internal/apperr"
	"github.com/ziadkadry99/docqa/internal/embeddings"
	"github.com/ziadkadry99/docqa/internal/loader"
	"github.com/ziadkadry99/docqa/internal/logging"
	"github.com/ziadkadry99/docqa/internal/progress"
	"github.com/ziadkadry99/docqa/internal/splitter"
	"github.com/ziadkadry99/docqa/internal/store"
	"github.com/ziadkadry99/docqa/internal/vectordb"
)

// Options configures a Pipeline.
type Options struct {
	Load     loader.Options
	Split    splitter.Options
	Reporter progress.Reporter
	Logger   *logrus.Entry
	// TempDir holds uploads while they are processed. Empty means os.TempDir().
	TempDir string
}

// Pipeline orchestrates the indexing of one upload.
type Pipeline struct {
	store    *store.Store
	embedder embeddings.Embedder
	opts     Options
	log      *logrus.Entry
}

// NewPipeline creates a new Pipeline.
func NewPipeline(st *store.Store, embedder embeddings.Embedder, opts Options) *Pipeline {
	if opts.Reporter == nil {
		opts.Reporter = progress.Nop{}
	}
	if opts.Split.MaxSize == 0 {
		opts.Split = splitter.DefaultOptions()
	}
	log := opts.Logger
	if log == nil {
		log = logging.For("indexer")
	}
	return &Pipeline{store: st, embedder: embedder, opts: opts, log: log}
}

// IndexFile indexes the file at path under displayName. An empty
// displayName uses the file's base name.
func (p *Pipeline) IndexFile(ctx context.Context, path, displayName string) (*Result, error) {
	if displayName == "" {
		displayName = filepath.Base(path)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrIO, err)
	}
	defer f.Close()
	return p.IndexReader(ctx, f, displayName)
}

// IndexReader indexes the content of r under displayName. The content is
// spooled to a temporary file that is removed whether or not indexing
// succeeds.
func (p *Pipeline) IndexReader(ctx context.Context, r io.Reader, displayName string) (*Result, error) {
	start := time.Now()
	name := filepath.Base(strings.ReplaceAll(displayName, "\\", "/"))

	// Reject duplicates before spending embedding calls.
	if _, err := p.store.CheckName(name); err != nil {
		return nil, err
	}

	tmpPath, err := p.spool(r, filepath.Ext(name))
	if err != nil {
		return nil, err
	}
	defer os.Remove(tmpPath)

	doc, err := loader.Load(tmpPath, p.opts.Load)
	if err != nil {
		return nil, err
	}
	doc.Source = name

	chunks, err := splitter.Split(doc, p.opts.Split)
	if err != nil {
		return nil, err
	}

	log := p.log.WithFields(logrus.Fields{"document": name, "chunks": len(chunks), "encoding": doc.Encoding})
	log.Debug("document split")

	idx, err := vectordb.Build(ctx, chunks, p.embedder, p.opts.Reporter)
	if err != nil {
		return nil, err
	}

	rec, err := p.store.Add(name, idx)
	if err != nil {
		return nil, err
	}

	res := &Result{
		Record:   rec,
		Chunks:   len(chunks),
		Encoding: doc.Encoding,
		Duration: time.Since(start),
	}
	log.WithField("number", rec.Number).Info("document indexed")
	return res, nil
}

func (p *Pipeline) spool(r io.Reader, ext string) (string, error) {
	tmp, err := os.CreateTemp(p.opts.TempDir, "docqa-upload-*"+ext)
	if err != nil {
		return "", fmt.Errorf("%w: create temp file: %v", apperr.ErrIO, err)
	}
	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", fmt.Errorf("%w: write temp file: %v", apperr.ErrIO, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("%w: close temp file: %v", apperr.ErrIO, err)
	}
	return tmp.Name(), nil
}
