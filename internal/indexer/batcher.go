package indexer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ziadkadry99/docqa/internal/apperr"
)

// IndexFiles indexes paths one after another so they are numbered in input
// order. A failing file is recorded and the rest continue; a cancelled
// context stops the batch.
func (p *Pipeline) IndexFiles(ctx context.Context, paths []string, onProgress func(done, total int, path string)) *BatchResult {
	result := &BatchResult{}
	for i, path := range paths {
		if err := ctx.Err(); err != nil {
			result.Errors = append(result.Errors, &FileError{Path: path, Err: err})
			continue
		}

		res, err := p.indexPath(ctx, path)
		if err != nil {
			result.Errors = append(result.Errors, &FileError{Path: path, Err: err})
			p.log.WithError(err).WithField("file", path).Warn("upload failed")
		} else {
			result.Results = append(result.Results, *res)
		}
		if onProgress != nil {
			onProgress(i+1, len(paths), path)
		}
	}
	return result
}

func (p *Pipeline) indexPath(ctx context.Context, path string) (*Result, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrIO, err)
	}
	if fi.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", apperr.ErrInvalidInput, path)
	}
	return p.IndexFile(ctx, path, filepath.Base(path))
}
