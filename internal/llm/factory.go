package llm

import (
	"fmt"
	"os"
)

const defaultOllamaHost = "http://localhost:11434"

// Options selects and configures a chat provider.
type Options struct {
	Provider string // "openai" or "ollama"
	Model    string
	BaseURL  string
	APIKey   string
}

// NewProvider creates a new LLM provider from opts.
func NewProvider(opts Options) (Provider, error) {
	switch opts.Provider {
	case "openai":
		// Self-hosted OpenAI-compatible servers often run without a key.
		if opts.APIKey == "" && opts.BaseURL == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY environment variable is not set")
		}
		return NewOpenAIProvider(opts.APIKey, opts.BaseURL, opts.Model), nil

	case "ollama":
		host := opts.BaseURL
		if host == "" {
			host = os.Getenv("OLLAMA_HOST")
		}
		if host == "" {
			host = defaultOllamaHost
		}
		return NewOllamaProvider(host, opts.Model), nil

	default:
		return nil, fmt.Errorf("unsupported provider type: %s", opts.Provider)
	}
}
