// Package store keeps one serialized vector index per document in a flat
// directory, under numbered file names that stay contiguous from 1.
package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ziadkadry99/docqa/internal/apperr"
	"github.com/ziadkadry99/docqa/internal/embeddings"
	"github.com/ziadkadry99/docqa/internal/logging"
	"github.com/ziadkadry99/docqa/internal/vectordb"
)

// Ext is the extension of every record file.
const Ext = ".gob.gz"

var recordPattern = regexp.MustCompile(`^(\d+)_(.+)\.gob\.gz$`)

// DuplicatePolicy decides when a new name clashes with a stored one.
type DuplicatePolicy string

const (
	DuplicateSubstring DuplicatePolicy = "substring"
	DuplicateExact     DuplicatePolicy = "exact"
)

// NoMatchPolicy decides what Merge does when no requested number exists.
type NoMatchPolicy string

const (
	NoMatchAll   NoMatchPolicy = "all"
	NoMatchError NoMatchPolicy = "error"
)

// Options configures a Store.
type Options struct {
	Duplicates DuplicatePolicy
	NoMatch    NoMatchPolicy
	Logger     *logrus.Entry
}

// Record describes one stored document index.
type Record struct {
	Number   int       `json:"number"`
	Name     string    `json:"name"`
	FileName string    `json:"file_name"`
	Size     int64     `json:"size"`
	ModTime  time.Time `json:"mod_time"`
}

// Store owns the index directory. Mutations hold the write lock for their
// whole duration so numbering never races within a process.
type Store struct {
	dir  string
	opts Options
	log  *logrus.Entry

	mu sync.RWMutex
}

// Open returns a Store over dir, creating the directory if needed.
func Open(dir string, opts Options) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: create %s: %v", apperr.ErrIO, dir, err)
	}
	if opts.Duplicates == "" {
		opts.Duplicates = DuplicateSubstring
	}
	if opts.NoMatch == "" {
		opts.NoMatch = NoMatchAll
	}
	log := opts.Logger
	if log == nil {
		log = logging.For("store")
	}
	return &Store{dir: dir, opts: opts, log: log}, nil
}

// Dir returns the directory holding the records.
func (s *Store) Dir() string { return s.dir }

// FileName builds the record file name for number and sanitized name.
func FileName(number int, name string) string {
	return fmt.Sprintf("%d_%s%s", number, name, Ext)
}

// List returns all records sorted by number.
func (s *Store) List() ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.list()
}

func (s *Store) list() ([]Record, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", apperr.ErrIO, s.dir, err)
	}

	var records []Record
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		m := recordPattern.FindStringSubmatch(e.Name())
		if m == nil {
			s.log.WithField("file", e.Name()).Debug("ignoring file that is not a document index")
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			s.log.WithField("file", e.Name()).Debug("ignoring file with unparsable number")
			continue
		}
		rec := Record{Number: n, Name: m[2], FileName: e.Name()}
		if info, err := e.Info(); err == nil {
			rec.Size = info.Size()
			rec.ModTime = info.ModTime()
		}
		records = append(records, rec)
	}

	sort.Slice(records, func(i, j int) bool {
		if records[i].Number != records[j].Number {
			return records[i].Number < records[j].Number
		}
		return records[i].Name < records[j].Name
	})
	return records, nil
}

// Save writes idx to the record file fileName.
func (s *Store) Save(idx *vectordb.Index, fileName string) error {
	if err := checkFileName(fileName); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return idx.Save(filepath.Join(s.dir, fileName))
}

// Load reads the record file fileName.
func (s *Store) Load(ctx context.Context, fileName string, embedder embeddings.Embedder) (*vectordb.Index, error) {
	if err := checkFileName(fileName); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return vectordb.Load(ctx, filepath.Join(s.dir, fileName), embedder)
}

func checkFileName(fileName string) error {
	if fileName == "" || filepath.Base(fileName) != fileName {
		return fmt.Errorf("%w: bad record file name %q", apperr.ErrInvalidInput, fileName)
	}
	return nil
}

// extPattern matches a file extension. It must start with a letter so
// version numbers like "v1.5" are kept.
var extPattern = regexp.MustCompile(`^\.[A-Za-z][A-Za-z0-9]*$`)

// SanitizeName turns an uploaded file name into a record name: directories
// and the extension are dropped, whitespace runs become one underscore.
func SanitizeName(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	if ext := filepath.Ext(name); extPattern.MatchString(ext) {
		name = strings.TrimSuffix(name, ext)
	}
	name = strings.Join(strings.Fields(name), "_")
	if name == "." || name == ".." {
		return ""
	}
	return name
}

// CheckName sanitizes name and reports ErrDuplicate if the store already
// holds a clashing document. It returns the sanitized name.
func (s *Store) CheckName(name string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	records, err := s.list()
	if err != nil {
		return "", err
	}
	return s.checkName(name, records)
}

func (s *Store) checkName(name string, records []Record) (string, error) {
	clean := SanitizeName(name)
	if clean == "" {
		return "", fmt.Errorf("%w: %q is not a usable document name", apperr.ErrInvalidInput, name)
	}
	for _, r := range records {
		if s.clashes(clean, r.Name) {
			return "", fmt.Errorf("%w: %s (stored as %s)", apperr.ErrDuplicate, clean, r.FileName)
		}
	}
	return clean, nil
}

func (s *Store) clashes(candidate, existing string) bool {
	if s.opts.Duplicates == DuplicateExact {
		return candidate == existing
	}
	return strings.Contains(candidate, existing)
}

// Add stores idx as the next numbered record under the sanitized name.
func (s *Store) Add(name string, idx *vectordb.Index) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.list()
	if err != nil {
		return Record{}, err
	}
	clean, err := s.checkName(name, records)
	if err != nil {
		return Record{}, err
	}

	next := 1
	if len(records) > 0 {
		next = records[len(records)-1].Number + 1
	}
	fileName := FileName(next, clean)
	path := filepath.Join(s.dir, fileName)
	if err := idx.Save(path); err != nil {
		return Record{}, err
	}

	rec := Record{Number: next, Name: clean, FileName: fileName}
	if info, err := os.Stat(path); err == nil {
		rec.Size = info.Size()
		rec.ModTime = info.ModTime()
	}
	s.log.WithFields(logrus.Fields{"number": next, "file": fileName}).Info("document stored")
	return rec, nil
}

// DeleteResult reports what Delete removed.
type DeleteResult struct {
	Deleted []Record `json:"deleted"`
	Missing []int    `json:"missing,omitempty"`
}

// Delete removes the records with the given numbers, then renumbers the
// remaining ones to 1..n keeping their order. Unknown numbers are reported
// in Missing; if none of the numbers exist the result is ErrNoMatch.
func (s *Store) Delete(numbers []int) (DeleteResult, error) {
	if len(numbers) == 0 {
		return DeleteResult{}, fmt.Errorf("%w: no document numbers given", apperr.ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.list()
	if err != nil {
		return DeleteResult{}, err
	}

	want := make(map[int]bool, len(numbers))
	for _, n := range numbers {
		want[n] = true
	}

	var res DeleteResult
	var keep []Record
	found := make(map[int]bool)
	for _, r := range records {
		if want[r.Number] {
			res.Deleted = append(res.Deleted, r)
			found[r.Number] = true
		} else {
			keep = append(keep, r)
		}
	}
	for _, n := range numbers {
		if !found[n] {
			res.Missing = append(res.Missing, n)
		}
	}
	if len(res.Deleted) == 0 {
		return res, fmt.Errorf("%w: %s", apperr.ErrNoMatch, FormatSelection(numbers))
	}

	for _, r := range res.Deleted {
		if err := os.Remove(filepath.Join(s.dir, r.FileName)); err != nil && !os.IsNotExist(err) {
			return res, fmt.Errorf("%w: remove %s: %v", apperr.ErrIO, r.FileName, err)
		}
		s.log.WithField("file", r.FileName).Info("document deleted")
	}

	if err := s.renumber(keep); err != nil {
		return res, err
	}
	return res, nil
}

// renumber renames records, given in number order, to 1..n.
func (s *Store) renumber(records []Record) error {
	for i, r := range records {
		want := i + 1
		if r.Number == want {
			continue
		}
		target := FileName(want, r.Name)
		targetPath := filepath.Join(s.dir, target)
		if _, err := os.Stat(targetPath); err == nil {
			return fmt.Errorf("%w: cannot renumber %s: %s already exists", apperr.ErrIO, r.FileName, target)
		}
		if err := os.Rename(filepath.Join(s.dir, r.FileName), targetPath); err != nil {
			return fmt.Errorf("%w: renumber %s: %v", apperr.ErrIO, r.FileName, err)
		}
		s.log.WithFields(logrus.Fields{"from": r.FileName, "to": target}).Debug("document renumbered")
	}
	return nil
}

// FormatSelection renders document numbers the way ParseSelection reads
// them: "1 3".
func FormatSelection(ns []int) string {
	parts := make([]string, len(ns))
	for i, n := range ns {
		parts[i] = strconv.Itoa(n)
	}
	return strings.Join(parts, " ")
}
