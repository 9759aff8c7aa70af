// Package vectordb holds embedded chunks in chromem-go collections, one per
// source document, and persists them as gzip-compressed gob files.
package vectordb

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	chromem "github.com/philippgille/chromem-go"

	"github.com/ziadkadry99/docqa/internal/apperr"
	"github.com/ziadkadry99/docqa/internal/embeddings"
	"github.com/ziadkadry99/docqa/internal/progress"
	"github.com/ziadkadry99/docqa/internal/splitter"
)

// ErrEmptyIndex is returned when a document produced no chunks.
var ErrEmptyIndex = fmt.Errorf("%w: document has no text to index", apperr.ErrInvalidInput)

const embedBatchSize = 32

// Index is an in-memory vector index. Each source document lives in its own
// chromem collection whose entries have IDs "{source}#{position}".
type Index struct {
	db        *chromem.DB
	embedder  embeddings.Embedder
	embedFunc chromem.EmbeddingFunc
}

func newIndex(embedder embeddings.Embedder) *Index {
	return &Index{
		db:        chromem.NewDB(),
		embedder:  embedder,
		embedFunc: embeddings.ToChromemFunc(embedder),
	}
}

// Build embeds chunks and returns a new Index holding them. reporter may be nil.
func Build(ctx context.Context, chunks []splitter.Chunk, embedder embeddings.Embedder, reporter progress.Reporter) (*Index, error) {
	if len(chunks) == 0 {
		return nil, ErrEmptyIndex
	}
	if reporter == nil {
		reporter = progress.Nop{}
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}

	reporter.Start(len(chunks), chunks[0].Source)
	vectors := make([][]float32, 0, len(chunks))
	for start := 0; start < len(texts); start += embedBatchSize {
		end := min(start+embedBatchSize, len(texts))
		batch, err := embedder.Embed(ctx, texts[start:end])
		if err != nil {
			reporter.Finish()
			return nil, fmt.Errorf("%w: %w", apperr.ErrEmbedding, err)
		}
		if len(batch) != end-start {
			reporter.Finish()
			return nil, fmt.Errorf("%w: %s returned %d vectors for %d chunks",
				apperr.ErrEmbedding, embedder.Name(), len(batch), end-start)
		}
		vectors = append(vectors, batch...)
		reporter.Update(end, chunks[start].Source)
	}
	reporter.Finish()

	bySource := make(map[string][]chromem.Document)
	var order []string
	for i, c := range chunks {
		if _, ok := bySource[c.Source]; !ok {
			order = append(order, c.Source)
		}
		e := entryFromChunk(c)
		bySource[c.Source] = append(bySource[c.Source], chromem.Document{
			ID:        e.ID,
			Content:   e.Content,
			Metadata:  metadataToMap(e),
			Embedding: vectors[i],
		})
	}

	idx := newIndex(embedder)
	for _, source := range order {
		if err := idx.addCollection(ctx, source, bySource[source]); err != nil {
			return nil, err
		}
	}
	return idx, nil
}

func (idx *Index) addCollection(ctx context.Context, source string, docs []chromem.Document) error {
	if idx.db.GetCollection(source, idx.embedFunc) != nil {
		return fmt.Errorf("%w: index already contains %s", apperr.ErrDuplicate, source)
	}
	col, err := idx.db.CreateCollection(source, nil, idx.embedFunc)
	if err != nil {
		return fmt.Errorf("create collection %s: %w", source, err)
	}
	if err := col.AddDocuments(ctx, docs, 1); err != nil {
		return fmt.Errorf("add %d entries for %s: %w", len(docs), source, err)
	}
	return nil
}

// Sources returns the names of the documents in the index, sorted.
func (idx *Index) Sources() []string {
	var names []string
	for name := range idx.db.ListCollections() {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Count returns the number of entries across all documents.
func (idx *Index) Count() int {
	n := 0
	for _, col := range idx.db.ListCollections() {
		n += col.Count()
	}
	return n
}

// Entries returns every entry of source in position order.
func (idx *Index) Entries(ctx context.Context, source string) ([]Entry, error) {
	col := idx.db.GetCollection(source, idx.embedFunc)
	if col == nil {
		return nil, fmt.Errorf("%w: %s is not in the index", apperr.ErrNotFound, source)
	}
	docs, err := collectionDocs(ctx, source, col)
	if err != nil {
		return nil, err
	}
	entries := make([]Entry, len(docs))
	for i, d := range docs {
		entries[i] = entryFromMap(d.ID, d.Content, d.Metadata)
	}
	return entries, nil
}

// collectionDocs fetches the documents of a collection by their
// positional IDs. A gap means the file was not written by Build.
func collectionDocs(ctx context.Context, source string, col *chromem.Collection) ([]chromem.Document, error) {
	n := col.Count()
	docs := make([]chromem.Document, 0, n)
	for pos := 0; pos < n; pos++ {
		doc, err := col.GetByID(ctx, EntryID(source, pos))
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", apperr.ErrCorruption, source, err)
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// Search embeds query and returns the k most similar entries.
func (idx *Index) Search(ctx context.Context, query string, k int) ([]SearchResult, error) {
	vecs, err := idx.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", apperr.ErrEmbedding, err)
	}
	if len(vecs) != 1 {
		return nil, fmt.Errorf("%w: %s returned %d vectors for one query", apperr.ErrEmbedding, idx.embedder.Name(), len(vecs))
	}
	return idx.SearchVector(ctx, vecs[0], k)
}

// SearchVector returns the k entries most similar to vec. k is clamped to
// the index size.
func (idx *Index) SearchVector(ctx context.Context, vec []float32, k int) ([]SearchResult, error) {
	if k <= 0 {
		return nil, fmt.Errorf("%w: k must be positive, got %d", apperr.ErrInvalidInput, k)
	}

	var results []SearchResult
	for name, col := range idx.db.ListCollections() {
		n := min(k, col.Count())
		if n == 0 {
			continue
		}
		res, err := col.QueryEmbedding(ctx, vec, n, nil, nil)
		if err != nil {
			return nil, fmt.Errorf("query %s: %w", name, err)
		}
		for _, r := range res {
			results = append(results, SearchResult{
				Entry:      entryFromMap(r.ID, r.Content, r.Metadata),
				Similarity: r.Similarity,
			})
		}
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Similarity != results[j].Similarity {
			return results[i].Similarity > results[j].Similarity
		}
		return results[i].Entry.ID < results[j].Entry.ID
	})
	if len(results) > k {
		results = results[:k]
	}
	return results, nil
}

// Merge copies every entry of other, with its stored embedding, into idx.
// A document present in both is an error and leaves idx unchanged.
func (idx *Index) Merge(ctx context.Context, other *Index) error {
	incoming := other.db.ListCollections()
	for name := range incoming {
		if idx.db.GetCollection(name, idx.embedFunc) != nil {
			return fmt.Errorf("%w: index already contains %s", apperr.ErrDuplicate, name)
		}
	}

	for _, name := range other.Sources() {
		docs, err := collectionDocs(ctx, name, incoming[name])
		if err != nil {
			return err
		}
		if err := idx.addCollection(ctx, name, docs); err != nil {
			return err
		}
	}
	return nil
}

// Save writes the index to path. The data goes to a temporary file in the
// same directory first, so a failed save never leaves a partial file.
func (idx *Index) Save(path string) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*.gob.gz")
	if err != nil {
		return fmt.Errorf("%w: create temp file: %v", apperr.ErrIO, err)
	}
	tmpPath := tmp.Name()
	tmp.Close()

	if err := idx.db.ExportToFile(tmpPath, true, ""); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("%w: export index: %v", apperr.ErrIO, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("%w: %v", apperr.ErrIO, err)
	}
	return nil
}

// Load reads an index written by Save. A missing file is ErrIO; a file
// that does not decode to an index is ErrCorruption.
func Load(ctx context.Context, path string, embedder embeddings.Embedder) (*Index, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrIO, err)
	}
	if fi.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", apperr.ErrIO, path)
	}

	idx := newIndex(embedder)
	if err := idx.db.ImportFromFile(path, ""); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", apperr.ErrCorruption, filepath.Base(path), err)
	}

	cols := idx.db.ListCollections()
	if len(cols) == 0 {
		return nil, fmt.Errorf("%w: %s holds no documents", apperr.ErrCorruption, filepath.Base(path))
	}
	for name := range cols {
		// Attach the embedding function to imported collections.
		col := idx.db.GetCollection(name, idx.embedFunc)
		if _, err := collectionDocs(ctx, name, col); err != nil {
			return nil, err
		}
	}
	return idx, nil
}
