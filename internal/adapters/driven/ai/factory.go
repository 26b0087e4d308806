// Package ai provides factory functions that build the pipeline's driven
// adapters from Settings.
package ai

import (
	"context"
	"fmt"
	"time"

	ollamaembed "github.com/custodia-labs/pagewise/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/custodia-labs/pagewise/internal/adapters/driven/embedding/openai"
	memoryindex "github.com/custodia-labs/pagewise/internal/adapters/driven/index/memory"
	"github.com/custodia-labs/pagewise/internal/adapters/driven/index/pgvector"
	"github.com/custodia-labs/pagewise/internal/adapters/driven/index/pinecone"
	"github.com/custodia-labs/pagewise/internal/adapters/driven/index/qdrant"
	"github.com/custodia-labs/pagewise/internal/adapters/driven/index/sqlite"
	anthropicllm "github.com/custodia-labs/pagewise/internal/adapters/driven/llm/anthropic"
	ollamallm "github.com/custodia-labs/pagewise/internal/adapters/driven/llm/ollama"
	openaillm "github.com/custodia-labs/pagewise/internal/adapters/driven/llm/openai"
	"github.com/custodia-labs/pagewise/internal/adapters/driven/tokens/tiktoken"
	"github.com/custodia-labs/pagewise/internal/core/domain"
	"github.com/custodia-labs/pagewise/internal/core/ports/driven"
	"github.com/custodia-labs/pagewise/internal/logger"
)

// pingTimeout is the maximum time to wait for service connectivity validation.
const pingTimeout = 5 * time.Second

// Services holds the adapters built from one Settings value.
type Services struct {
	Embedding driven.EmbeddingService
	LLM       driven.LLMService
	Index     driven.IndexService
	Tokens    driven.TokenCounter
}

// Close releases all resources held by the services.
func (s *Services) Close() {
	if s.Embedding != nil {
		s.Embedding.Close()
	}
	if s.LLM != nil {
		s.LLM.Close()
	}
	if s.Index != nil {
		s.Index.Close()
	}
}

// Build validates settings and creates every adapter. Creation failures are
// ConfigurationErrors; no network call is made.
func Build(ctx context.Context, settings domain.Settings) (*Services, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}

	emb, err := CreateEmbeddingService(&settings.Embedding, settings.Index.Dimension)
	if err != nil {
		return nil, domain.ConfigError(domain.StageConfig, "embedding: %v", err)
	}
	llm, err := CreateLLMService(&settings.LLM)
	if err != nil {
		emb.Close()
		return nil, domain.ConfigError(domain.StageConfig, "llm: %v", err)
	}
	idx, err := CreateIndexService(ctx, &settings.Index)
	if err != nil {
		emb.Close()
		llm.Close()
		return nil, domain.ConfigError(domain.StageConfig, "index: %v", err)
	}

	logger.Debug("Using %s embeddings (%s), %s LLM (%s), %s index %q",
		settings.Embedding.Provider, emb.ModelName(),
		settings.LLM.Provider, llm.ModelName(),
		settings.Index.Provider, settings.Index.Name)

	return &Services{
		Embedding: emb,
		LLM:       llm,
		Index:     idx,
		Tokens:    tiktoken.ForModel(llm.ModelName()),
	}, nil
}

// Validate pings each service so bad keys and unreachable hosts surface
// before any pipeline work starts. Failures carry the stage that would
// have hit them.
func (s *Services) Validate(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := s.Embedding.Ping(ctx); err != nil {
		return domain.NewStageError(domain.StageEmbed, domain.ErrEmbedding,
			fmt.Errorf("service unreachable: %w", err))
	}
	if err := s.LLM.Ping(ctx); err != nil {
		return domain.NewStageError(domain.StageGenerate, domain.ErrGeneration,
			fmt.Errorf("service unreachable: %w", err))
	}
	if _, err := s.Index.ListIndexes(ctx); err != nil {
		return domain.NewStageError(domain.StageProvision, domain.ErrIndexProvisioning,
			fmt.Errorf("index service unreachable: %w", err))
	}
	return nil
}

// CreateEmbeddingService creates the embedding service named by settings.
// dimension is the index dimension, passed to models that can shorten vectors.
func CreateEmbeddingService(settings *domain.EmbeddingSettings, dimension int) (driven.EmbeddingService, error) {
	switch settings.Provider {
	case domain.AIProviderOllama:
		return createOllamaEmbedding(settings, dimension), nil

	case domain.AIProviderOpenAI:
		return openaiembed.NewEmbeddingService(openaiembed.Config{
			APIKey:     settings.APIKey,
			BaseURL:    settings.BaseURL,
			Model:      settings.Model,
			Dimensions: dimension,
			BatchSize:  settings.BatchSize,
		})

	case domain.AIProviderAnthropic:
		return nil, fmt.Errorf("anthropic does not support embeddings, use ollama or openai")

	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", settings.Provider)
	}
}

func createOllamaEmbedding(settings *domain.EmbeddingSettings, dimension int) driven.EmbeddingService {
	dimensions := domain.EmbeddingDimensions()[settings.Model]
	if dimensions == 0 {
		dimensions = dimension
	}
	return ollamaembed.NewEmbeddingService(ollamaembed.Config{
		BaseURL:    settings.BaseURL,
		Model:      settings.Model,
		Dimensions: dimensions,
		BatchSize:  settings.BatchSize,
	})
}

// CreateLLMService creates the LLM service named by settings.
func CreateLLMService(settings *domain.LLMSettings) (driven.LLMService, error) {
	switch settings.Provider {
	case domain.AIProviderOllama:
		return ollamallm.NewLLMService(ollamallm.LLMConfig{
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		}), nil

	case domain.AIProviderOpenAI:
		return openaillm.NewLLMService(openaillm.LLMConfig{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		})

	case domain.AIProviderAnthropic:
		return anthropicllm.NewLLMService(anthropicllm.Config{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		})

	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", settings.Provider)
	}
}

// CreateIndexService creates the vector index back end named by settings.
func CreateIndexService(ctx context.Context, settings *domain.IndexSettings) (driven.IndexService, error) {
	switch settings.Provider {
	case domain.IndexProviderPinecone:
		return pinecone.New(pinecone.Config{
			APIKey:     settings.APIKey,
			ControlURL: settings.URL,
		})

	case domain.IndexProviderQdrant:
		return qdrant.New(qdrant.Config{
			URL:    settings.URL,
			APIKey: settings.APIKey,
		})

	case domain.IndexProviderPGVector:
		return pgvector.New(ctx, settings.DSN)

	case domain.IndexProviderSQLite:
		return sqlite.NewStore(settings.Path)

	case domain.IndexProviderMemory:
		return memoryindex.New(), nil

	default:
		return nil, fmt.Errorf("unsupported index provider: %s", settings.Provider)
	}
}
