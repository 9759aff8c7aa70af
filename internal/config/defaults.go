package config

// Preset describes the models used by default for a provider.
type Preset struct {
	Model          string
	EmbeddingModel string
}

var presets = map[ProviderType]Preset{
	ProviderOpenAI: {Model: "gpt-4o-mini", EmbeddingModel: "text-embedding-3-small"},
	ProviderOllama: {Model: "llama3", EmbeddingModel: "nomic-embed-text"},
}

// DefaultFallbackEncodings are tried when a file is not valid in the requested encoding.
var DefaultFallbackEncodings = []string{"windows-1251"}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Provider:          ProviderOpenAI,
		Model:             "gpt-4o-mini",
		EmbeddingProvider: ProviderOpenAI,
		EmbeddingModel:    "text-embedding-3-small",
		Store: StoreConfig{
			Dir:               "documents",
			Duplicates:        DuplicateSubstring,
			Encoding:          "utf-8",
			FallbackEncodings: append([]string(nil), DefaultFallbackEncodings...),
		},
		Splitter: SplitterConfig{
			ChunkSize:    1000,
			ChunkOverlap: 200,
		},
		Selection: SelectionConfig{
			NoMatch: NoMatchAll,
		},
		QA: QAConfig{
			TopK:        4,
			Temperature: 0.01,
			MaxTokens:   1024,
			TimeoutSecs: 60,
			RPM:         60,
		},
		Server: ServerConfig{
			Port: 8501,
		},
		Activity: ActivityConfig{
			DBPath: "docqa.db",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// GetPreset returns the preset for the given provider.
// Returns the OpenAI preset if the provider is unknown.
func GetPreset(provider ProviderType) Preset {
	if p, ok := presets[provider]; ok {
		return p
	}
	return presets[ProviderOpenAI]
}
