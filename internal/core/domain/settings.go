package domain

import (
	"strings"
	"time"
)

const unknownDescription = "Unknown"

// AIProvider identifies an AI service provider for embeddings or LLM.
type AIProvider string

// Available AI providers.
const (
	// AIProviderOllama is local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is OpenAI cloud API.
	AIProviderOpenAI AIProvider = "openai"

	// AIProviderAnthropic is Anthropic cloud API.
	AIProviderAnthropic AIProvider = "anthropic"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderOllama, AIProviderOpenAI, AIProviderAnthropic:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderOpenAI || p == AIProviderAnthropic
}

// SupportsEmbeddings returns true if the provider can produce embeddings.
func (p AIProvider) SupportsEmbeddings() bool {
	return p == AIProviderOllama || p == AIProviderOpenAI
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderOllama:
		return "Ollama (local)"
	case AIProviderOpenAI:
		return "OpenAI (cloud)"
	case AIProviderAnthropic:
		return "Anthropic (cloud)"
	default:
		return unknownDescription
	}
}

// IndexProvider identifies a vector index back end.
type IndexProvider string

// Available index providers.
const (
	IndexProviderPinecone IndexProvider = "pinecone"
	IndexProviderQdrant   IndexProvider = "qdrant"
	IndexProviderPGVector IndexProvider = "pgvector"
	IndexProviderSQLite   IndexProvider = "sqlite"
	IndexProviderMemory   IndexProvider = "memory"
)

// IsValid returns true if the index provider is recognised.
func (p IndexProvider) IsValid() bool {
	switch p {
	case IndexProviderPinecone, IndexProviderQdrant, IndexProviderPGVector,
		IndexProviderSQLite, IndexProviderMemory:
		return true
	default:
		return false
	}
}

// Description returns a human-readable description of the provider.
func (p IndexProvider) Description() string {
	switch p {
	case IndexProviderPinecone:
		return "Pinecone serverless (cloud)"
	case IndexProviderQdrant:
		return "Qdrant (gRPC)"
	case IndexProviderPGVector:
		return "PostgreSQL with pgvector"
	case IndexProviderSQLite:
		return "SQLite file (local, exact search)"
	case IndexProviderMemory:
		return "In-process memory (not durable)"
	default:
		return unknownDescription
	}
}

// ChunkStrategy selects the chunker implementation.
type ChunkStrategy string

// Available chunk strategies.
const (
	// ChunkStrategyWindow is the fixed window with boundary snapping.
	ChunkStrategyWindow ChunkStrategy = "window"

	// ChunkStrategyRecursive splits on a separator hierarchy.
	ChunkStrategyRecursive ChunkStrategy = "recursive"
)

// IndexSettings holds vector index configuration.
type IndexSettings struct {
	Provider  IndexProvider
	Name      string
	Dimension int
	Metric    Metric
	Cloud     string
	Region    string

	// URL is the provider endpoint (Qdrant host:port, Pinecone control plane).
	URL string

	// Path is the data directory for the SQLite provider.
	Path string

	// DSN is the connection string for the pgvector provider.
	DSN string

	APIKey string

	ReadyTimeout time.Duration
	PollInterval time.Duration
}

// Spec returns the IndexSpec to ensure.
func (s IndexSettings) Spec() IndexSpec {
	return IndexSpec{
		Name:      s.Name,
		Dimension: s.Dimension,
		Metric:    s.Metric,
		Cloud:     s.Cloud,
		Region:    s.Region,
	}
}

// EmbeddingSettings holds embedding provider configuration.
type EmbeddingSettings struct {
	Provider  AIProvider
	Model     string
	BaseURL   string
	APIKey    string
	BatchSize int
}

// LLMSettings holds LLM provider configuration.
type LLMSettings struct {
	Provider  AIProvider
	Model     string
	BaseURL   string
	APIKey    string
	MaxTokens int
}

// ChunkSettings holds chunker configuration.
type ChunkSettings struct {
	Strategy ChunkStrategy
	Size     int
	Overlap  int
}

// RetrievalSettings holds query-time configuration.
type RetrievalSettings struct {
	TopK int

	// MaxContextTokens bounds the context sent to the model. Zero disables the budget.
	MaxContextTokens int
}

// FetchSettings holds document fetch configuration.
type FetchSettings struct {
	Timeout           time.Duration
	RequestsPerSecond int
	UserAgent         string
}

// Settings holds all application settings.
type Settings struct {
	Index     IndexSettings
	Embedding EmbeddingSettings
	LLM       LLMSettings
	Chunk     ChunkSettings
	Retrieval RetrievalSettings
	Fetch     FetchSettings
}

// Default values.
const (
	DefaultDimension        = 1536
	DefaultCloud            = "aws"
	DefaultRegion           = "us-east-1"
	DefaultReadyTimeout     = 120 * time.Second
	DefaultPollInterval     = time.Second
	DefaultEmbeddingModel   = "text-embedding-3-small"
	DefaultLLMModel         = "gpt-4o-mini"
	DefaultBatchSize        = 96
	DefaultChunkSize        = 1000
	DefaultChunkOverlap     = 200
	DefaultTopK             = 4
	DefaultFetchTimeout     = 30 * time.Second
	DefaultRequestsPerSec   = 2
	DefaultFetchUserAgent   = "pagewise/1.0 (+https://github.com/custodia-labs/pagewise)"
	DefaultOllamaEmbedModel = "nomic-embed-text"
	DefaultOllamaLLMModel   = "llama3.2"
	DefaultAnthropicModel   = "claude-3-5-haiku-latest"
)

// DefaultSettings returns settings with the stock configuration.
// The index name and API keys are left empty; they must be supplied.
func DefaultSettings() Settings {
	return Settings{
		Index: IndexSettings{
			Provider:     IndexProviderPinecone,
			Dimension:    DefaultDimension,
			Metric:       MetricCosine,
			Cloud:        DefaultCloud,
			Region:       DefaultRegion,
			ReadyTimeout: DefaultReadyTimeout,
			PollInterval: DefaultPollInterval,
		},
		Embedding: EmbeddingSettings{
			Provider:  AIProviderOpenAI,
			Model:     DefaultEmbeddingModel,
			BatchSize: DefaultBatchSize,
		},
		LLM: LLMSettings{
			Provider: AIProviderOpenAI,
			Model:    DefaultLLMModel,
		},
		Chunk: ChunkSettings{
			Strategy: ChunkStrategyWindow,
			Size:     DefaultChunkSize,
			Overlap:  DefaultChunkOverlap,
		},
		Retrieval: RetrievalSettings{
			TopK: DefaultTopK,
		},
		Fetch: FetchSettings{
			Timeout:           DefaultFetchTimeout,
			RequestsPerSecond: DefaultRequestsPerSec,
			UserAgent:         DefaultFetchUserAgent,
		},
	}
}

// EmbeddingDimensions returns the vector dimensions for known models.
func EmbeddingDimensions() map[string]int {
	return map[string]int{
		"nomic-embed-text":       768,
		"mxbai-embed-large":      1024,
		"all-minilm":             384,
		"text-embedding-3-small": 1536,
		"text-embedding-3-large": 3072,
		"text-embedding-ada-002": 1536,
	}
}

// Validate checks every required value and returns the first problem as a
// config-stage ConfigurationError.
func (s Settings) Validate() error {
	idx := s.Index
	if !idx.Provider.IsValid() {
		return ConfigError(StageConfig, "index.provider %q is not supported", idx.Provider)
	}
	if strings.TrimSpace(idx.Name) == "" {
		return ConfigError(StageConfig, "index.name is required (or set PINECONE_INDEX_NAME)")
	}
	if idx.Dimension <= 0 {
		return ConfigError(StageConfig, "index.dimension must be positive, got %d", idx.Dimension)
	}
	if _, ok := ParseMetric(string(idx.Metric)); !ok || idx.Metric == "" {
		return ConfigError(StageConfig, "index.metric %q is not supported", idx.Metric)
	}
	if idx.ReadyTimeout <= 0 || idx.PollInterval <= 0 {
		return ConfigError(StageConfig, "index readiness timeout and poll interval must be positive")
	}
	switch idx.Provider {
	case IndexProviderPinecone:
		if idx.APIKey == "" {
			return ConfigError(StageConfig, "index.api_key is required for pinecone (or set PINECONE_API_KEY)")
		}
	case IndexProviderPGVector:
		if idx.DSN == "" {
			return ConfigError(StageConfig, "index.dsn is required for pgvector")
		}
	}

	emb := s.Embedding
	if !emb.Provider.IsValid() || !emb.Provider.SupportsEmbeddings() {
		return ConfigError(StageConfig, "embedding.provider %q does not support embeddings", emb.Provider)
	}
	if emb.Provider.RequiresAPIKey() && emb.APIKey == "" {
		return ConfigError(StageConfig, "embedding.api_key is required for %s", emb.Provider)
	}
	if emb.BatchSize <= 0 {
		return ConfigError(StageConfig, "embedding.batch_size must be positive, got %d", emb.BatchSize)
	}
	if dim, ok := EmbeddingDimensions()[emb.Model]; ok && dim != idx.Dimension {
		return ConfigError(StageConfig, "embedding model %s produces %d dimensions but index.dimension is %d",
			emb.Model, dim, idx.Dimension)
	}

	if !s.LLM.Provider.IsValid() {
		return ConfigError(StageConfig, "llm.provider %q is not supported", s.LLM.Provider)
	}
	if s.LLM.Provider.RequiresAPIKey() && s.LLM.APIKey == "" {
		return ConfigError(StageConfig, "llm.api_key is required for %s", s.LLM.Provider)
	}

	if err := s.Chunk.Validate(); err != nil {
		return err
	}
	if s.Retrieval.TopK < 1 {
		return ConfigError(StageConfig, "retrieval.top_k must be at least 1, got %d", s.Retrieval.TopK)
	}
	if s.Retrieval.MaxContextTokens < 0 {
		return ConfigError(StageConfig, "retrieval.max_context_tokens must not be negative")
	}
	return nil
}

// Validate checks the chunk parameters.
func (c ChunkSettings) Validate() error {
	switch c.Strategy {
	case ChunkStrategyWindow, ChunkStrategyRecursive:
	default:
		return ConfigError(StageConfig, "chunk.strategy %q is not supported", c.Strategy)
	}
	if c.Size < 1 {
		return ConfigError(StageConfig, "chunk.size must be positive, got %d", c.Size)
	}
	if c.Overlap < 0 || c.Overlap >= c.Size {
		return ConfigError(StageConfig, "chunk.overlap %d must be in [0, %d)", c.Overlap, c.Size)
	}
	return nil
}
