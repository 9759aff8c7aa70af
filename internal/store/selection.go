package store

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ziadkadry99/docqa/internal/apperr"
	"github.com/ziadkadry99/docqa/internal/embeddings"
	"github.com/ziadkadry99/docqa/internal/vectordb"
)

// ParseSelection reads whitespace-separated document numbers. Empty input
// returns nil, meaning every document. Repeated numbers are dropped.
func ParseSelection(input string) ([]int, error) {
	var numbers []int
	seen := make(map[int]bool)
	for _, tok := range strings.Fields(input) {
		if !isDigits(tok) {
			return nil, fmt.Errorf("%w: %q is not a number", apperr.ErrInvalidInput, tok)
		}
		n, err := strconv.Atoi(tok)
		if err != nil {
			return nil, fmt.Errorf("%w: %q is not a number", apperr.ErrInvalidInput, tok)
		}
		if !seen[n] {
			seen[n] = true
			numbers = append(numbers, n)
		}
	}
	return numbers, nil
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}

// Selection lists the records a merged index was built from.
type Selection struct {
	Records []Record
	// FellBack is set when the requested numbers matched nothing and every
	// document was used instead.
	FellBack bool
	// Missing holds requested numbers that do not exist.
	Missing []int
}

// Resolve picks the records named by numbers without loading them.
func (s *Store) Resolve(numbers []int) (Selection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	records, err := s.list()
	if err != nil {
		return Selection{}, err
	}
	return s.resolve(records, numbers)
}

func (s *Store) resolve(records []Record, numbers []int) (Selection, error) {
	if len(records) == 0 {
		return Selection{}, apperr.ErrEmptyStore
	}
	if len(numbers) == 0 {
		return Selection{Records: records}, nil
	}

	want := make(map[int]bool, len(numbers))
	for _, n := range numbers {
		want[n] = true
	}

	var sel Selection
	found := make(map[int]bool)
	for _, r := range records {
		if want[r.Number] {
			sel.Records = append(sel.Records, r)
			found[r.Number] = true
		}
	}
	for _, n := range numbers {
		if !found[n] {
			sel.Missing = append(sel.Missing, n)
		}
	}
	if len(sel.Records) > 0 {
		return sel, nil
	}

	if s.opts.NoMatch == NoMatchError {
		return sel, fmt.Errorf("%w: %s", apperr.ErrNoMatch, FormatSelection(numbers))
	}
	sel.Records = records
	sel.FellBack = true
	return sel, nil
}

// Merge loads the selected records and merges them into one index. The
// first selected record is the base; the others are merged into it in
// number order.
func (s *Store) Merge(ctx context.Context, numbers []int, embedder embeddings.Embedder) (*vectordb.Index, Selection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records, err := s.list()
	if err != nil {
		return nil, Selection{}, err
	}
	sel, err := s.resolve(records, numbers)
	if err != nil {
		return nil, sel, err
	}
	if sel.FellBack {
		s.log.WithField("requested", FormatSelection(numbers)).Warn("no document matched the selection, using all documents")
	}

	var merged *vectordb.Index
	for _, r := range sel.Records {
		idx, err := vectordb.Load(ctx, s.path(r), embedder)
		if err != nil {
			return nil, sel, fmt.Errorf("load %s: %w", r.FileName, err)
		}
		if merged == nil {
			merged = idx
			continue
		}
		if err := merged.Merge(ctx, idx); err != nil {
			return nil, sel, fmt.Errorf("merge %s: %w", r.FileName, err)
		}
	}
	return merged, sel, nil
}

func (s *Store) path(r Record) string {
	return filepath.Join(s.dir, r.FileName)
}
