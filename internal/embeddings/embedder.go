// Package embeddings turns chunk text into vectors through a remote model.
package embeddings

import (
	"context"
	"fmt"
)

// Embedder defines the interface for generating text embeddings.
type Embedder interface {
	// Embed generates embeddings for one or more texts, in input order.
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the number of dimensions in the embedding vectors,
	// or 0 when the model is unknown and no call has been made yet.
	Dimensions() int

	// Name returns the name/identifier of the embedding model.
	Name() string
}

// Options selects and configures an embedding backend.
type Options struct {
	Provider string // "openai", "ollama" or "hash"
	Model    string
	BaseURL  string
	APIKey   string
}

// New builds the Embedder named by opts.Provider.
func New(opts Options) (Embedder, error) {
	switch opts.Provider {
	case "openai", "":
		if opts.APIKey == "" {
			return nil, fmt.Errorf("openai embeddings require an API key (set OPENAI_API_KEY)")
		}
		return NewOpenAIEmbedder(opts.APIKey, opts.BaseURL, opts.Model), nil
	case "ollama":
		return NewOllamaEmbedder(opts.Model, opts.BaseURL), nil
	case "hash":
		return NewHashEmbedder(0), nil
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", opts.Provider)
	}
}
