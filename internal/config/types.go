package config

// ProviderType identifies a model provider.
type ProviderType string

const (
	ProviderOpenAI ProviderType = "openai"
	ProviderOllama ProviderType = "ollama"
	// ProviderHash is an offline embedding provider; it cannot answer questions.
	ProviderHash ProviderType = "hash"
)

// DuplicatePolicy decides when an upload is rejected as already present.
type DuplicatePolicy string

const (
	// DuplicateSubstring rejects a name that contains any existing name.
	DuplicateSubstring DuplicatePolicy = "substring"
	// DuplicateExact rejects only an identical name.
	DuplicateExact DuplicatePolicy = "exact"
)

// NoMatchPolicy decides what a selection that matches no document does.
type NoMatchPolicy string

const (
	// NoMatchAll falls back to every stored document.
	NoMatchAll NoMatchPolicy = "all"
	// NoMatchError fails the query.
	NoMatchError NoMatchPolicy = "error"
)

// Config is the top-level docqa configuration, corresponding to .docqa.yml.
type Config struct {
	Provider          ProviderType    `yaml:"provider" koanf:"provider"`
	Model             string          `yaml:"model" koanf:"model"`
	BaseURL           string          `yaml:"base_url" koanf:"base_url"`
	EmbeddingProvider ProviderType    `yaml:"embedding_provider" koanf:"embedding_provider"`
	EmbeddingModel    string          `yaml:"embedding_model" koanf:"embedding_model"`
	EmbeddingBaseURL  string          `yaml:"embedding_base_url" koanf:"embedding_base_url"`
	Store             StoreConfig     `yaml:"store" koanf:"store"`
	Splitter          SplitterConfig  `yaml:"splitter" koanf:"splitter"`
	Selection         SelectionConfig `yaml:"selection" koanf:"selection"`
	QA                QAConfig        `yaml:"qa" koanf:"qa"`
	Server            ServerConfig    `yaml:"server" koanf:"server"`
	Activity          ActivityConfig  `yaml:"activity" koanf:"activity"`
	Log               LogConfig       `yaml:"log" koanf:"log"`
}

// StoreConfig holds settings for the document index directory.
type StoreConfig struct {
	Dir               string          `yaml:"dir" koanf:"dir"`
	Duplicates        DuplicatePolicy `yaml:"duplicates" koanf:"duplicates"`
	Encoding          string          `yaml:"encoding" koanf:"encoding"`
	FallbackEncodings []string        `yaml:"fallback_encodings" koanf:"fallback_encodings"`
}

// SplitterConfig holds chunking parameters, measured in characters.
type SplitterConfig struct {
	ChunkSize    int `yaml:"chunk_size" koanf:"chunk_size"`
	ChunkOverlap int `yaml:"chunk_overlap" koanf:"chunk_overlap"`
}

// SelectionConfig controls how document numbers are resolved.
type SelectionConfig struct {
	NoMatch NoMatchPolicy `yaml:"no_match" koanf:"no_match"`
}

// QAConfig holds retrieval and generation settings.
type QAConfig struct {
	TopK        int     `yaml:"top_k" koanf:"top_k"`
	Temperature float64 `yaml:"temperature" koanf:"temperature"`
	MaxTokens   int     `yaml:"max_tokens" koanf:"max_tokens"`
	TimeoutSecs int     `yaml:"timeout_secs" koanf:"timeout_secs"`
	RPM         int     `yaml:"rpm" koanf:"rpm"`
}

// ServerConfig holds web UI settings.
type ServerConfig struct {
	Port     int  `yaml:"port" koanf:"port"`
	AllowAll bool `yaml:"allow_all" koanf:"allow_all"`
}

// ActivityConfig locates the activity log database.
type ActivityConfig struct {
	DBPath string `yaml:"db_path" koanf:"db_path"`
}

// LogConfig controls diagnostic logging.
type LogConfig struct {
	Level  string `yaml:"level" koanf:"level"`
	Format string `yaml:"format" koanf:"format"`
}
