package services

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/pagewise/internal/core/domain"
	"github.com/custodia-labs/pagewise/internal/core/ports/driven"
	"github.com/custodia-labs/pagewise/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	KeyIndexProvider      = "index.provider"
	KeyIndexName          = "index.name"
	KeyIndexDimension     = "index.dimension"
	KeyIndexMetric        = "index.metric"
	KeyIndexCloud         = "index.cloud"
	KeyIndexRegion        = "index.region"
	KeyIndexURL           = "index.url"
	KeyIndexPath          = "index.path"
	KeyIndexDSN           = "index.dsn"
	KeyIndexAPIKey        = "index.api_key"
	KeyIndexReadyTimeout  = "index.ready_timeout_seconds"
	KeyIndexPollInterval  = "index.poll_interval_ms"
	KeyEmbedProvider      = "embedding.provider"
	KeyEmbedModel         = "embedding.model"
	KeyEmbedBaseURL       = "embedding.base_url"
	KeyEmbedAPIKey        = "embedding.api_key"
	KeyEmbedBatchSize     = "embedding.batch_size"
	KeyLLMProvider        = "llm.provider"
	KeyLLMModel           = "llm.model"
	KeyLLMBaseURL         = "llm.base_url"
	KeyLLMAPIKey          = "llm.api_key"
	KeyLLMMaxTokens       = "llm.max_tokens"
	KeyChunkStrategy      = "chunk.strategy"
	KeyChunkSize          = "chunk.size"
	KeyChunkOverlap       = "chunk.overlap"
	KeyRetrievalTopK      = "retrieval.top_k"
	KeyRetrievalMaxTokens = "retrieval.max_context_tokens"
	KeyFetchTimeout       = "fetch.timeout_seconds"
	KeyFetchRPS           = "fetch.requests_per_second"
	KeyFetchUserAgent     = "fetch.user_agent"
)

// Environment variables that override the config file.
//
//nolint:gosec // G101: variable names, not credentials.
const (
	EnvPineconeAPIKey = "PINECONE_API_KEY"
	EnvPineconeIndex  = "PINECONE_INDEX_NAME"
	EnvOpenAIAPIKey   = "OPENAI_API_KEY"
	EnvAnthropicKey   = "ANTHROPIC_API_KEY"
	EnvQdrantAPIKey   = "QDRANT_API_KEY"
	EnvIndexProvider  = "PAGEWISE_INDEX_PROVIDER"
	EnvPGVectorDSN    = "PAGEWISE_PGVECTOR_DSN"
)

// intKeys are the keys whose values are stored as integers.
var intKeys = map[string]bool{
	KeyIndexDimension:     true,
	KeyIndexReadyTimeout:  true,
	KeyIndexPollInterval:  true,
	KeyEmbedBatchSize:     true,
	KeyLLMMaxTokens:       true,
	KeyChunkSize:          true,
	KeyChunkOverlap:       true,
	KeyRetrievalTopK:      true,
	KeyRetrievalMaxTokens: true,
	KeyFetchTimeout:       true,
	KeyFetchRPS:           true,
}

// stringKeys are the keys whose values are stored as strings.
var stringKeys = map[string]bool{
	KeyIndexProvider:  true,
	KeyIndexName:      true,
	KeyIndexMetric:    true,
	KeyIndexCloud:     true,
	KeyIndexRegion:    true,
	KeyIndexURL:       true,
	KeyIndexPath:      true,
	KeyIndexDSN:       true,
	KeyIndexAPIKey:    true,
	KeyEmbedProvider:  true,
	KeyEmbedModel:     true,
	KeyEmbedBaseURL:   true,
	KeyEmbedAPIKey:    true,
	KeyLLMProvider:    true,
	KeyLLMModel:       true,
	KeyLLMBaseURL:     true,
	KeyLLMAPIKey:      true,
	KeyChunkStrategy:  true,
	KeyFetchUserAgent: true,
}

// SettingKeys returns every supported config key, sorted.
func SettingKeys() []string {
	keys := make([]string, 0, len(intKeys)+len(stringKeys))
	for k := range intKeys {
		keys = append(keys, k)
	}
	for k := range stringKeys {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// SettingsService resolves settings from the config store, then the environment.
type SettingsService struct {
	configStore driven.ConfigStore
	lookupEnv   func(string) (string, bool)
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		lookupEnv:   os.LookupEnv,
	}
}

// Load returns defaults overlaid with the config file and environment.
// Values are not validated; invalid ones surface from Resolve.
func (s *SettingsService) Load() domain.Settings {
	d := domain.DefaultSettings()

	settings := domain.Settings{
		Index: domain.IndexSettings{
			Provider:     domain.IndexProvider(s.getString(KeyIndexProvider, string(d.Index.Provider))),
			Name:         s.configStore.GetString(KeyIndexName),
			Dimension:    s.getInt(KeyIndexDimension, d.Index.Dimension),
			Metric:       s.getMetric(d.Index.Metric),
			Cloud:        s.getString(KeyIndexCloud, d.Index.Cloud),
			Region:       s.getString(KeyIndexRegion, d.Index.Region),
			URL:          s.configStore.GetString(KeyIndexURL),
			Path:         s.configStore.GetString(KeyIndexPath),
			DSN:          s.configStore.GetString(KeyIndexDSN),
			APIKey:       s.configStore.GetString(KeyIndexAPIKey),
			ReadyTimeout: s.getDuration(KeyIndexReadyTimeout, time.Second, d.Index.ReadyTimeout),
			PollInterval: s.getDuration(KeyIndexPollInterval, time.Millisecond, d.Index.PollInterval),
		},
		Embedding: domain.EmbeddingSettings{
			Provider:  domain.AIProvider(s.getString(KeyEmbedProvider, string(d.Embedding.Provider))),
			Model:     s.configStore.GetString(KeyEmbedModel),
			BaseURL:   s.configStore.GetString(KeyEmbedBaseURL), // No default - empty is valid for cloud providers
			APIKey:    s.configStore.GetString(KeyEmbedAPIKey),
			BatchSize: s.getInt(KeyEmbedBatchSize, d.Embedding.BatchSize),
		},
		LLM: domain.LLMSettings{
			Provider:  domain.AIProvider(s.getString(KeyLLMProvider, string(d.LLM.Provider))),
			Model:     s.configStore.GetString(KeyLLMModel),
			BaseURL:   s.configStore.GetString(KeyLLMBaseURL),
			APIKey:    s.configStore.GetString(KeyLLMAPIKey),
			MaxTokens: s.configStore.GetInt(KeyLLMMaxTokens),
		},
		Chunk: domain.ChunkSettings{
			Strategy: domain.ChunkStrategy(s.getString(KeyChunkStrategy, string(d.Chunk.Strategy))),
			Size:     s.getInt(KeyChunkSize, d.Chunk.Size),
			Overlap:  s.getIntAllowZero(KeyChunkOverlap, d.Chunk.Overlap),
		},
		Retrieval: domain.RetrievalSettings{
			TopK:             s.getInt(KeyRetrievalTopK, d.Retrieval.TopK),
			MaxContextTokens: s.configStore.GetInt(KeyRetrievalMaxTokens),
		},
		Fetch: domain.FetchSettings{
			Timeout:           s.getDuration(KeyFetchTimeout, time.Second, d.Fetch.Timeout),
			RequestsPerSecond: s.getInt(KeyFetchRPS, d.Fetch.RequestsPerSecond),
			UserAgent:         s.getString(KeyFetchUserAgent, d.Fetch.UserAgent),
		},
	}

	s.applyEnv(&settings)

	if settings.Embedding.Model == "" {
		settings.Embedding.Model = defaultEmbeddingModel(settings.Embedding.Provider)
	}
	if settings.LLM.Model == "" {
		settings.LLM.Model = defaultLLMModel(settings.LLM.Provider)
	}
	return settings
}

// Resolve returns the effective settings, failing on the first invalid value.
func (s *SettingsService) Resolve() (domain.Settings, error) {
	settings := s.Load()
	if err := settings.Validate(); err != nil {
		return settings, err
	}
	return settings, nil
}

// Set parses value for key and persists it.
func (s *SettingsService) Set(key, value string) error {
	key = strings.TrimSpace(key)
	value = strings.TrimSpace(value)

	switch {
	case intKeys[key]:
		n, err := strconv.Atoi(value)
		if err != nil {
			return domain.ConfigError(domain.StageConfig, "%s must be an integer, got %q", key, value)
		}
		return s.configStore.Set(key, n)
	case key == KeyIndexMetric:
		m, ok := domain.ParseMetric(value)
		if !ok {
			return domain.ConfigError(domain.StageConfig, "%s %q is not supported", key, value)
		}
		return s.configStore.Set(key, m.String())
	case key == KeyIndexProvider:
		if !domain.IndexProvider(value).IsValid() {
			return domain.ConfigError(domain.StageConfig, "%s %q is not supported", key, value)
		}
		return s.configStore.Set(key, value)
	case key == KeyEmbedProvider || key == KeyLLMProvider:
		if !domain.AIProvider(value).IsValid() {
			return domain.ConfigError(domain.StageConfig, "%s %q is not supported", key, value)
		}
		return s.configStore.Set(key, value)
	case stringKeys[key]:
		return s.configStore.Set(key, value)
	default:
		return domain.ConfigError(domain.StageConfig, "unknown setting %q", key)
	}
}

// Path returns the configuration file path.
func (s *SettingsService) Path() string {
	return s.configStore.Path()
}

// applyEnv overlays environment variables. Set variables win over the file.
func (s *SettingsService) applyEnv(settings *domain.Settings) {
	if v, ok := s.env(EnvIndexProvider); ok {
		settings.Index.Provider = domain.IndexProvider(v)
	}
	if v, ok := s.env(EnvPineconeIndex); ok {
		settings.Index.Name = v
	}
	if v, ok := s.env(EnvPGVectorDSN); ok {
		settings.Index.DSN = v
	}

	switch settings.Index.Provider {
	case domain.IndexProviderPinecone:
		if v, ok := s.env(EnvPineconeAPIKey); ok {
			settings.Index.APIKey = v
		}
	case domain.IndexProviderQdrant:
		if v, ok := s.env(EnvQdrantAPIKey); ok {
			settings.Index.APIKey = v
		}
	}

	if v, ok := s.providerKey(settings.Embedding.Provider); ok {
		settings.Embedding.APIKey = v
	}
	if v, ok := s.providerKey(settings.LLM.Provider); ok {
		settings.LLM.APIKey = v
	}
}

func (s *SettingsService) providerKey(p domain.AIProvider) (string, bool) {
	switch p {
	case domain.AIProviderOpenAI:
		return s.env(EnvOpenAIAPIKey)
	case domain.AIProviderAnthropic:
		return s.env(EnvAnthropicKey)
	default:
		return "", false
	}
}

func (s *SettingsService) env(name string) (string, bool) {
	v, ok := s.lookupEnv(name)
	v = strings.TrimSpace(v)
	return v, ok && v != ""
}

func (s *SettingsService) getString(key, defaultVal string) string {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	val := s.configStore.GetInt(key)
	if val == 0 {
		return defaultVal
	}
	return val
}

// getIntAllowZero distinguishes an explicit 0 from an absent key.
func (s *SettingsService) getIntAllowZero(key string, defaultVal int) int {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetInt(key)
}

func (s *SettingsService) getDuration(key string, unit, defaultVal time.Duration) time.Duration {
	n := s.configStore.GetInt(key)
	if n <= 0 {
		return defaultVal
	}
	return time.Duration(n) * unit
}

// getMetric keeps unknown values so Validate can report them.
func (s *SettingsService) getMetric(defaultVal domain.Metric) domain.Metric {
	val := s.configStore.GetString(KeyIndexMetric)
	if val == "" {
		return defaultVal
	}
	if m, ok := domain.ParseMetric(val); ok {
		return m
	}
	return domain.Metric(val)
}

func defaultEmbeddingModel(p domain.AIProvider) string {
	if p == domain.AIProviderOllama {
		return domain.DefaultOllamaEmbedModel
	}
	return domain.DefaultEmbeddingModel
}

func defaultLLMModel(p domain.AIProvider) string {
	switch p {
	case domain.AIProviderOllama:
		return domain.DefaultOllamaLLMModel
	case domain.AIProviderAnthropic:
		return domain.DefaultAnthropicModel
	default:
		return domain.DefaultLLMModel
	}
}

// MaskSecret hides all but the last four characters of a secret.
func MaskSecret(v string) string {
	if v == "" {
		return ""
	}
	if len(v) <= 4 {
		return strings.Repeat("*", len(v))
	}
	return strings.Repeat("*", 8) + v[len(v)-4:]
}

// Describe renders settings as sorted key = value lines with secrets masked.
func Describe(settings domain.Settings) []string {
	vals := map[string]string{
		KeyIndexProvider:      string(settings.Index.Provider),
		KeyIndexName:          settings.Index.Name,
		KeyIndexDimension:     strconv.Itoa(settings.Index.Dimension),
		KeyIndexMetric:        settings.Index.Metric.String(),
		KeyIndexCloud:         settings.Index.Cloud,
		KeyIndexRegion:        settings.Index.Region,
		KeyIndexURL:           settings.Index.URL,
		KeyIndexPath:          settings.Index.Path,
		KeyIndexDSN:           MaskSecret(settings.Index.DSN),
		KeyIndexAPIKey:        MaskSecret(settings.Index.APIKey),
		KeyIndexReadyTimeout:  strconv.Itoa(int(settings.Index.ReadyTimeout / time.Second)),
		KeyIndexPollInterval:  strconv.Itoa(int(settings.Index.PollInterval / time.Millisecond)),
		KeyEmbedProvider:      string(settings.Embedding.Provider),
		KeyEmbedModel:         settings.Embedding.Model,
		KeyEmbedBaseURL:       settings.Embedding.BaseURL,
		KeyEmbedAPIKey:        MaskSecret(settings.Embedding.APIKey),
		KeyEmbedBatchSize:     strconv.Itoa(settings.Embedding.BatchSize),
		KeyLLMProvider:        string(settings.LLM.Provider),
		KeyLLMModel:           settings.LLM.Model,
		KeyLLMBaseURL:         settings.LLM.BaseURL,
		KeyLLMAPIKey:          MaskSecret(settings.LLM.APIKey),
		KeyLLMMaxTokens:       strconv.Itoa(settings.LLM.MaxTokens),
		KeyChunkStrategy:      string(settings.Chunk.Strategy),
		KeyChunkSize:          strconv.Itoa(settings.Chunk.Size),
		KeyChunkOverlap:       strconv.Itoa(settings.Chunk.Overlap),
		KeyRetrievalTopK:      strconv.Itoa(settings.Retrieval.TopK),
		KeyRetrievalMaxTokens: strconv.Itoa(settings.Retrieval.MaxContextTokens),
		KeyFetchTimeout:       strconv.Itoa(int(settings.Fetch.Timeout / time.Second)),
		KeyFetchRPS:           strconv.Itoa(settings.Fetch.RequestsPerSecond),
		KeyFetchUserAgent:     settings.Fetch.UserAgent,
	}

	lines := make([]string, 0, len(vals))
	for _, k := range SettingKeys() {
		lines = append(lines, fmt.Sprintf("%s = %s", k, vals[k]))
	}
	return lines
}
