package indexer

import (
	"time"

	"github.com/ziadkadry99/docqa/internal/store"
)

// Result describes one indexed upload.
type Result struct {
	Record   store.Record  `json:"record"`
	Chunks   int           `json:"chunks"`
	Encoding string        `json:"encoding"`
	Duration time.Duration `json:"duration"`
}

// FileError ties an indexing failure to its input.
type FileError struct {
	Path string
	Err  error
}

func (e *FileError) Error() string { return e.Path + ": " + e.Err.Error() }
func (e *FileError) Unwrap() error { return e.Err }

// BatchResult holds the outcome of indexing several files.
type BatchResult struct {
	Results []Result
	Errors  []error
}
