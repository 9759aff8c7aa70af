package vectordb

import "context"

// Searcher finds the entries closest to a query. *Index implements it.
type Searcher interface {
	// Search embeds query and returns up to k results, most similar first.
	Search(ctx context.Context, query string, k int) ([]SearchResult, error)

	// Count returns the total number of entries.
	Count() int
}

var _ Searcher = (*Index)(nil)
