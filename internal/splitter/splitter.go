// Package splitter cuts documents into overlapping chunks for embedding.
package splitter

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/ziadkadry99/docqa/internal/apperr"
	"github.com/ziadkadry99/docqa/internal/loader"
)

// DefaultSeparators are tried in order, coarsest first. The empty
// separator splits between runes.
var DefaultSeparators = []string{"\n\n", "\n", ". ", " ", ""}

// Options controls chunk sizes, counted in runes.
type Options struct {
	MaxSize    int
	Overlap    int
	Separators []string
}

// DefaultOptions returns 1000-rune chunks overlapping by 200.
func DefaultOptions() Options {
	return Options{MaxSize: 1000, Overlap: 200, Separators: DefaultSeparators}
}

// Chunk is a contiguous slice of a document. Start and End are byte offsets
// into the document text, so Text == doc.Text[Start:End].
type Chunk struct {
	Text     string
	Source   string
	Position int
	Start    int
	End      int
}

// Validate reports ErrInvalidConfig for unusable sizes.
func (o Options) Validate() error {
	if o.MaxSize <= 0 {
		return fmt.Errorf("%w: chunk size must be positive, got %d", apperr.ErrInvalidConfig, o.MaxSize)
	}
	if o.Overlap < 0 {
		return fmt.Errorf("%w: chunk overlap must not be negative, got %d", apperr.ErrInvalidConfig, o.Overlap)
	}
	if o.Overlap >= o.MaxSize {
		return fmt.Errorf("%w: chunk overlap %d must be smaller than chunk size %d",
			apperr.ErrInvalidConfig, o.Overlap, o.MaxSize)
	}
	return nil
}

// span is a byte range of the text and its length in runes.
type span struct {
	start, end int
	runes      int
}

// Split cuts doc into chunks of at most opts.MaxSize runes. Consecutive
// chunks share at most opts.Overlap runes. Separators stay attached to the
// piece they end, so no text is lost between chunks.
func Split(doc *loader.Document, opts Options) ([]Chunk, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(doc.Text) == "" {
		return nil, nil
	}
	seps := opts.Separators
	if len(seps) == 0 {
		seps = DefaultSeparators
	}

	s := &splitter{text: doc.Text, max: opts.MaxSize}
	pieces := s.pieces(0, len(doc.Text), seps)
	spans := pack(pieces, opts.MaxSize, opts.Overlap)

	chunks := make([]Chunk, len(spans))
	for i, sp := range spans {
		chunks[i] = Chunk{
			Text:     doc.Text[sp.start:sp.end],
			Source:   doc.Source,
			Position: i,
			Start:    sp.start,
			End:      sp.end,
		}
	}
	return chunks, nil
}

type splitter struct {
	text string
	max  int
}

// pieces cuts text[start:end] into contiguous spans no longer than s.max,
// using the first separator that occurs and recursing with the remaining
// ones for spans that are still too long.
func (s *splitter) pieces(start, end int, seps []string) []span {
	seg := s.text[start:end]
	n := utf8.RuneCountInString(seg)
	if n <= s.max {
		return []span{{start: start, end: end, runes: n}}
	}

	sep := ""
	var rest []string
	for i, c := range seps {
		if c == "" || strings.Contains(seg, c) {
			sep, rest = c, seps[i+1:]
			break
		}
	}

	var out []span
	if sep == "" {
		for i := 0; i < len(seg); {
			_, size := utf8.DecodeRuneInString(seg[i:])
			out = append(out, span{start: start + i, end: start + i + size, runes: 1})
			i += size
		}
		return out
	}

	for pos := 0; pos < len(seg); {
		next := len(seg)
		if idx := strings.Index(seg[pos:], sep); idx >= 0 {
			next = pos + idx + len(sep)
		}
		sub := seg[pos:next]
		if r := utf8.RuneCountInString(sub); r <= s.max {
			out = append(out, span{start: start + pos, end: start + next, runes: r})
		} else {
			out = append(out, s.pieces(start+pos, start+next, rest)...)
		}
		pos = next
	}
	return out
}

// pack merges consecutive pieces greedily into chunks of at most max runes.
// Each new chunk starts with the longest tail of the previous chunk that
// fits in overlap and leaves room for the next piece.
func pack(pieces []span, max, overlap int) []span {
	var chunks []span
	var cur []span
	total := 0

	emit := func() {
		chunks = append(chunks, span{
			start: cur[0].start,
			end:   cur[len(cur)-1].end,
			runes: total,
		})
	}

	for _, p := range pieces {
		if len(cur) > 0 && total+p.runes > max {
			emit()
			// Always drop at least one piece so chunks advance.
			total -= cur[0].runes
			cur = cur[1:]
			for len(cur) > 0 && (total > overlap || total+p.runes > max) {
				total -= cur[0].runes
				cur = cur[1:]
			}
		}
		cur = append(cur, p)
		total += p.runes
	}
	if len(cur) > 0 {
		emit()
	}
	return chunks
}
