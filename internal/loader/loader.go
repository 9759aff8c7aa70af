// Package loader reads plain-text documents and decodes them to UTF-8.
package loader

import (
	"bytes"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/gabriel-vasile/mimetype"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"

	"github.com/ziadkadry99/docqa/internal/apperr"
)

// DefaultEncoding is used when Options.Encoding is empty.
const DefaultEncoding = "utf-8"

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Document is the decoded content of one uploaded file.
type Document struct {
	Text     string
	Source   string // base filename
	Encoding string // canonical name of the encoding that decoded Text
}

// Options controls decoding.
type Options struct {
	// Encoding is tried first. Names are WHATWG labels ("utf-8", "cp1251", ...).
	Encoding string
	// Fallbacks are tried, in order, after BOM and content sniffing fail.
	Fallbacks []string
}

// Load reads the file at path and decodes it.
func Load(path string, opts Options) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %v", apperr.ErrIO, path, err)
	}
	return Decode(filepath.Base(path), data, opts)
}

// Decode turns raw bytes into a Document. It tries the requested encoding,
// then a byte order mark, then each fallback, then the charset reported by
// content sniffing.
func Decode(source string, data []byte, opts Options) (*Document, error) {
	mt := mimetype.Detect(data)
	if !isText(mt) {
		return nil, fmt.Errorf("%w: %s is not a text file (%s)", apperr.ErrDecode, source, mt.String())
	}

	requested := opts.Encoding
	if requested == "" {
		requested = DefaultEncoding
	}

	candidates := []string{requested}
	if bom := bomEncoding(data); bom != "" {
		candidates = append(candidates, bom)
	}
	candidates = append(candidates, opts.Fallbacks...)
	// The sniffed charset is a Latin-1 guess for most 8-bit text, so it
	// only runs after the configured fallbacks.
	if cs := sniffedCharset(mt); cs != "" {
		candidates = append(candidates, cs)
	}

	tried := make(map[string]bool)
	for _, name := range candidates {
		enc, canonical, err := lookup(name)
		if err != nil {
			if name == requested {
				return nil, fmt.Errorf("%w: %v", apperr.ErrInvalidConfig, err)
			}
			continue
		}
		if tried[canonical] {
			continue
		}
		tried[canonical] = true

		text, ok := decodeWith(enc, canonical, data)
		if ok {
			return &Document{Text: text, Source: source, Encoding: canonical}, nil
		}
	}

	return nil, fmt.Errorf("%w: %s could not be decoded as any of %s",
		apperr.ErrDecode, source, strings.Join(candidates, ", "))
}

func isText(mt *mimetype.MIME) bool {
	for m := mt; m != nil; m = m.Parent() {
		if m.Is("text/plain") {
			return true
		}
	}
	return false
}

// bomEncoding names the encoding announced by a byte order mark, if any.
func bomEncoding(data []byte) string {
	switch {
	case bytes.HasPrefix(data, utf8BOM):
		return "utf-8"
	case bytes.HasPrefix(data, []byte{0xFF, 0xFE}):
		return "utf-16le"
	case bytes.HasPrefix(data, []byte{0xFE, 0xFF}):
		return "utf-16be"
	}
	return ""
}

func sniffedCharset(mt *mimetype.MIME) string {
	_, params, err := mime.ParseMediaType(mt.String())
	if err != nil {
		return ""
	}
	return params["charset"]
}

func lookup(name string) (encoding.Encoding, string, error) {
	enc, err := htmlindex.Get(name)
	if err != nil {
		return nil, "", fmt.Errorf("unknown encoding %q", name)
	}
	canonical, err := htmlindex.Name(enc)
	if err != nil {
		canonical = strings.ToLower(name)
	}
	return enc, canonical, nil
}

// decodeWith reports false when data is not valid in enc.
func decodeWith(enc encoding.Encoding, canonical string, data []byte) (string, bool) {
	if canonical == "utf-8" {
		data = bytes.TrimPrefix(data, utf8BOM)
		if !utf8.Valid(data) {
			return "", false
		}
		return string(data), true
	}

	if canonical == "utf-16le" || canonical == "utf-16be" {
		// Consume the mark when present.
		enc = unicode.UTF16(unicode.LittleEndian, unicode.UseBOM)
		if canonical == "utf-16be" {
			enc = unicode.UTF16(unicode.BigEndian, unicode.UseBOM)
		}
	}

	out, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		return "", false
	}
	// Decoders substitute U+FFFD for bytes they cannot map.
	if bytes.ContainsRune(out, utf8.RuneError) && !bytes.ContainsRune(data, utf8.RuneError) {
		return "", false
	}
	return string(out), true
}
