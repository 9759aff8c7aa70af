package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/ziadkadry99/docqa/internal/activity"
	"github.com/ziadkadry99/docqa/internal/apperr"
	"github.com/ziadkadry99/docqa/internal/config"
	"github.com/ziadkadry99/docqa/internal/db"
	"github.com/ziadkadry99/docqa/internal/embeddings"
	"github.com/ziadkadry99/docqa/internal/engine"
	"github.com/ziadkadry99/docqa/internal/indexer"
	"github.com/ziadkadry99/docqa/internal/llm"
	"github.com/ziadkadry99/docqa/internal/loader"
	"github.com/ziadkadry99/docqa/internal/progress"
	"github.com/ziadkadry99/docqa/internal/qa"
	"github.com/ziadkadry99/docqa/internal/splitter"
	"github.com/ziadkadry99/docqa/internal/store"
)

// loadConfig returns the validated configuration loaded by the root command.
func loadConfig() (*config.Config, error) {
	cfg := appCfg
	if cfg == nil {
		var err error
		if cfg, err = config.Load(cfgFile); err != nil {
			return nil, err
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", apperr.ErrInvalidConfig, cfgFile, err)
	}
	return cfg, nil
}

// createEmbedderFromConfig creates an embeddings.Embedder based on config.
func createEmbedderFromConfig(cfg *config.Config) (embeddings.Embedder, error) {
	provider := cfg.EmbeddingProvider
	if provider == "" {
		provider = cfg.Provider
	}
	model := cfg.EmbeddingModel
	if model == "" {
		model = config.GetPreset(provider).EmbeddingModel
	}
	baseURL := cfg.EmbeddingBaseURL
	if baseURL == "" && provider == cfg.Provider {
		baseURL = cfg.BaseURL
	}

	return embeddings.New(embeddings.Options{
		Provider: string(provider),
		Model:    model,
		BaseURL:  baseURL,
		APIKey:   os.Getenv(config.APIKeyEnvVar(config.ProviderOpenAI)),
	})
}

// newLLMProvider is replaced in tests with a scripted provider.
var newLLMProvider = createLLMProviderFromConfig

// createLLMProviderFromConfig creates a rate-limited LLM provider.
func createLLMProviderFromConfig(cfg *config.Config) (llm.Provider, error) {
	provider, err := llm.NewProvider(llm.Options{
		Provider: string(cfg.Provider),
		Model:    cfg.Model,
		BaseURL:  cfg.BaseURL,
		APIKey:   os.Getenv(config.APIKeyEnvVar(cfg.Provider)),
	})
	if err != nil {
		return nil, err
	}
	return llm.NewRateLimitedProvider(provider, cfg.QA.RPM), nil
}

func openStore(cfg *config.Config) (*store.Store, error) {
	return store.Open(cfg.Store.Dir, store.Options{
		Duplicates: store.DuplicatePolicy(cfg.Store.Duplicates),
		NoMatch:    store.NoMatchPolicy(cfg.Selection.NoMatch),
	})
}

func pipelineOptions(cfg *config.Config, reporter progress.Reporter) indexer.Options {
	opts := splitter.DefaultOptions()
	opts.MaxSize = cfg.Splitter.ChunkSize
	opts.Overlap = cfg.Splitter.ChunkOverlap
	return indexer.Options{
		Load: loader.Options{
			Encoding:  cfg.Store.Encoding,
			Fallbacks: cfg.Store.FallbackEncodings,
		},
		Split:    opts,
		Reporter: reporter,
	}
}

// engineOptions selects the optional parts of an engine.
type engineOptions struct {
	withLLM  bool
	reporter progress.Reporter
}

// buildEngine wires the store, embedder, pipeline, answerer and activity
// log. The returned cleanup closes the activity database.
func buildEngine(cfg *config.Config, opts engineOptions) (*engine.Engine, func(), error) {
	st, err := openStore(cfg)
	if err != nil {
		return nil, nil, err
	}
	embedder, err := createEmbedderFromConfig(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("creating embedder: %w", err)
	}

	var answerer *qa.Answerer
	if opts.withLLM {
		provider, err := newLLMProvider(cfg)
		if err != nil {
			return nil, nil, fmt.Errorf("creating LLM provider: %w", err)
		}
		answerer = qa.New(provider, qa.Options{
			Model:       cfg.Model,
			TopK:        cfg.QA.TopK,
			Temperature: cfg.QA.Temperature,
			MaxTokens:   cfg.QA.MaxTokens,
			Timeout:     time.Duration(cfg.QA.TimeoutSecs) * time.Second,
		})
	}

	reporter := opts.reporter
	if reporter == nil {
		reporter = progress.Nop{}
	}
	pipeline := indexer.NewPipeline(st, embedder, pipelineOptions(cfg, reporter))

	cleanup := func() {}
	var acts *activity.Store
	if cfg.Activity.DBPath != "" {
		database, err := db.Open(cfg.Activity.DBPath)
		if err != nil {
			return nil, nil, fmt.Errorf("opening activity log: %w", err)
		}
		acts = activity.NewStore(database)
		cleanup = func() { database.Close() }
	}

	return engine.New(st, pipeline, embedder, answerer, acts), cleanup, nil
}
