package indexer

import (
	"github.com/ziadkadry99/docqa/internal/llm"
	"github.com/ziadkadry99/docqa/internal/loader"
	"github.com/ziadkadry99/docqa/internal/splitter"
)

// FileEstimate describes what uploading one file would produce.
type FileEstimate struct {
	Path     string
	Encoding string
	Chunks   int
	Tokens   int
	Err      error
}

// Estimate summarizes a dry run.
type Estimate struct {
	Files       []FileEstimate
	TotalChunks int
	TotalTokens int
}

// DryRun loads and splits paths without embedding or storing anything, and
// estimates the embedding tokens an upload would consume. Files that fail
// to load are reported with Err set.
func (p *Pipeline) DryRun(paths []string) *Estimate {
	est := &Estimate{}
	for _, path := range paths {
		fe := FileEstimate{Path: path}
		doc, err := loader.Load(path, p.opts.Load)
		if err == nil {
			var chunks []splitter.Chunk
			chunks, err = splitter.Split(doc, p.opts.Split)
			fe.Encoding = doc.Encoding
			fe.Chunks = len(chunks)
			for _, c := range chunks {
				fe.Tokens += llm.EstimateTokens(c.Text)
			}
		}
		fe.Err = err
		est.Files = append(est.Files, fe)
		est.TotalChunks += fe.Chunks
		est.TotalTokens += fe.Tokens
	}
	return est
}
