package services

import (
	"errors"
	"fmt"
	"os"
	"slices"

	"github.com/custodia-labs/benchbook/internal/core/domain"
	"github.com/custodia-labs/benchbook/internal/core/ports/driven"
	"github.com/custodia-labs/benchbook/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Environment variables consulted when the config store leaves a value unset.
const (
	EnvOpenAIAPIKey = "OPENAI_API_KEY"
	EnvPostgresDSN  = "BENCHBOOK_POSTGRES_DSN"
)

const defaultOllamaURL = "http://localhost:11434"

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyChunkTarget    = "chunking.target_size"
	keyChunkOverlap   = "chunking.overlap"
	keyChunkMin       = "chunking.min_size"
	keyChunkMaxPerDoc = "chunking.max_chunks_per_doc"
	keyChunkHardMax   = "chunking.hard_max_chars"

	keyBatchItems       = "batching.max_items"
	keyBatchTokens      = "batching.max_tokens"
	keyBatchConcurrency = "batching.concurrency"
	keyBatchRPS         = "batching.requests_per_second"

	keyRetrievalDefaultK = "retrieval.default_top_k"
	keyRetrievalMaxK     = "retrieval.max_top_k"
	keyRetrievalCache    = "retrieval.query_cache_size"

	keyEmbedProvider = "embedding.provider"
	keyEmbedModel    = "embedding.model"
	keyEmbedDims     = "embedding.dimensions"
	keyEmbedBaseURL  = "embedding.base_url"
	keyEmbedAPIKey   = "embedding.api_key"

	keyLLMProvider    = "llm.provider"
	keyLLMModel       = "llm.model"
	keyLLMBaseURL     = "llm.base_url"
	keyLLMAPIKey      = "llm.api_key"
	keyLLMTemperature = "llm.temperature"
	keyLLMMaxTokens   = "llm.max_tokens"

	keyStorageBackend = "storage.backend"
	keyStorageDataDir = "storage.data_dir"
	keyStorageDSN     = "storage.postgres_dsn"
	keyStorageBatch   = "storage.upsert_batch"

	keyEvalThreshold   = "evaluation.pass_threshold"
	keyEvalConcurrency = "evaluation.concurrency"
	keyEvalTopK        = "evaluation.top_k"
	keyEvalRefuse      = "evaluation.refuse_keywords"
	keyEvalClarify     = "evaluation.clarify_keywords"

	keyServerAddr = "server.addr"
)

// SettingsService manages application settings.
type SettingsService struct {
	configStore driven.ConfigStore
	aiValidator driven.AIConfigValidator
	getenv      func(string) string
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore, aiValidator driven.AIConfigValidator) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		aiValidator: aiValidator,
		getenv:      os.Getenv,
	}
}

// Get retrieves current application settings. Stored values override
// defaults; API keys and the Postgres DSN fall back to the environment.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	d := domain.DefaultAppSettings()

	settings := &domain.AppSettings{
		Chunking: domain.ChunkingSettings{
			TargetSize:      s.getInt(keyChunkTarget, d.Chunking.TargetSize),
			Overlap:         s.getInt(keyChunkOverlap, d.Chunking.Overlap),
			MinSize:         s.getInt(keyChunkMin, d.Chunking.MinSize),
			MaxChunksPerDoc: s.getInt(keyChunkMaxPerDoc, d.Chunking.MaxChunksPerDoc),
			HardMaxChars:    s.getInt(keyChunkHardMax, d.Chunking.HardMaxChars),
		},
		Batching: domain.BatchingSettings{
			MaxItems:          s.getInt(keyBatchItems, d.Batching.MaxItems),
			MaxTokens:         s.getInt(keyBatchTokens, d.Batching.MaxTokens),
			Concurrency:       s.getInt(keyBatchConcurrency, d.Batching.Concurrency),
			RequestsPerSecond: s.getFloat(keyBatchRPS, d.Batching.RequestsPerSecond),
		},
		Retrieval: domain.RetrievalSettings{
			DefaultTopK:    s.getInt(keyRetrievalDefaultK, d.Retrieval.DefaultTopK),
			MaxTopK:        s.getInt(keyRetrievalMaxK, d.Retrieval.MaxTopK),
			QueryCacheSize: s.getInt(keyRetrievalCache, d.Retrieval.QueryCacheSize),
		},
		Embedding: domain.EmbeddingSettings{
			Provider:   s.getProvider(keyEmbedProvider, d.Embedding.Provider),
			Model:      s.getString(keyEmbedModel, d.Embedding.Model),
			Dimensions: s.configStore.GetInt(keyEmbedDims),
			BaseURL:    s.configStore.GetString(keyEmbedBaseURL), // No default - empty is valid for cloud providers
			APIKey:     s.getString(keyEmbedAPIKey, s.getenv(EnvOpenAIAPIKey)),
		},
		LLM: domain.LLMSettings{
			Provider:    s.getProvider(keyLLMProvider, d.LLM.Provider),
			Model:       s.getString(keyLLMModel, d.LLM.Model),
			BaseURL:     s.configStore.GetString(keyLLMBaseURL),
			APIKey:      s.getString(keyLLMAPIKey, s.getenv(EnvOpenAIAPIKey)),
			Temperature: s.getFloatAllowZero(keyLLMTemperature, d.LLM.Temperature),
			MaxTokens:   s.getInt(keyLLMMaxTokens, d.LLM.MaxTokens),
		},
		Storage: domain.StorageSettings{
			Backend:     s.getBackend(d.Storage.Backend),
			DataDir:     s.configStore.GetString(keyStorageDataDir),
			PostgresDSN: s.getString(keyStorageDSN, s.getenv(EnvPostgresDSN)),
			UpsertBatch: s.getInt(keyStorageBatch, d.Storage.UpsertBatch),
		},
		Evaluation: domain.EvaluationSettings{
			PassThreshold:   s.getFloat(keyEvalThreshold, d.Evaluation.PassThreshold),
			Concurrency:     s.getInt(keyEvalConcurrency, d.Evaluation.Concurrency),
			TopK:            s.getInt(keyEvalTopK, d.Evaluation.TopK),
			Grammars:        d.Evaluation.Grammars,
			RefuseKeywords:  s.getStrings(keyEvalRefuse, d.Evaluation.RefuseKeywords),
			ClarifyKeywords: s.getStrings(keyEvalClarify, d.Evaluation.ClarifyKeywords),
		},
		Server: domain.ServerSettings{
			Addr: s.getString(keyServerAddr, d.Server.Addr),
		},
	}

	return settings, nil
}

// Save persists application settings. Empty API keys are not written so
// that keys supplied through the environment never land on disk.
func (s *SettingsService) Save(settings *domain.AppSettings) error {
	values := []struct {
		key string
		val any
	}{
		{keyChunkTarget, settings.Chunking.TargetSize},
		{keyChunkOverlap, settings.Chunking.Overlap},
		{keyChunkMin, settings.Chunking.MinSize},
		{keyChunkMaxPerDoc, settings.Chunking.MaxChunksPerDoc},
		{keyChunkHardMax, settings.Chunking.HardMaxChars},
		{keyBatchItems, settings.Batching.MaxItems},
		{keyBatchTokens, settings.Batching.MaxTokens},
		{keyBatchConcurrency, settings.Batching.Concurrency},
		{keyBatchRPS, settings.Batching.RequestsPerSecond},
		{keyRetrievalDefaultK, settings.Retrieval.DefaultTopK},
		{keyRetrievalMaxK, settings.Retrieval.MaxTopK},
		{keyRetrievalCache, settings.Retrieval.QueryCacheSize},
		{keyEmbedProvider, settings.Embedding.Provider.String()},
		{keyEmbedModel, settings.Embedding.Model},
		{keyEmbedDims, settings.Embedding.Dimensions},
		{keyEmbedBaseURL, settings.Embedding.BaseURL},
		{keyLLMProvider, settings.LLM.Provider.String()},
		{keyLLMModel, settings.LLM.Model},
		{keyLLMBaseURL, settings.LLM.BaseURL},
		{keyLLMTemperature, settings.LLM.Temperature},
		{keyLLMMaxTokens, settings.LLM.MaxTokens},
		{keyStorageBackend, string(settings.Storage.Backend)},
		{keyStorageDataDir, settings.Storage.DataDir},
		{keyStorageBatch, settings.Storage.UpsertBatch},
		{keyEvalThreshold, settings.Evaluation.PassThreshold},
		{keyEvalConcurrency, settings.Evaluation.Concurrency},
		{keyEvalTopK, settings.Evaluation.TopK},
		{keyEvalRefuse, settings.Evaluation.RefuseKeywords},
		{keyEvalClarify, settings.Evaluation.ClarifyKeywords},
		{keyServerAddr, settings.Server.Addr},
	}
	for _, v := range values {
		if err := s.configStore.Set(v.key, v.val); err != nil {
			return fmt.Errorf("save %s: %w", v.key, err)
		}
	}

	secrets := []struct{ key, val string }{
		{keyEmbedAPIKey, settings.Embedding.APIKey},
		{keyLLMAPIKey, settings.LLM.APIKey},
		{keyStorageDSN, settings.Storage.PostgresDSN},
	}
	for _, v := range secrets {
		if v.val == "" || v.val == s.envFallback(v.key) {
			continue
		}
		if err := s.configStore.Set(v.key, v.val); err != nil {
			return fmt.Errorf("save %s: %w", v.key, err)
		}
	}

	return s.configStore.Save()
}

func (s *SettingsService) envFallback(key string) string {
	switch key {
	case keyEmbedAPIKey, keyLLMAPIKey:
		return s.getenv(EnvOpenAIAPIKey)
	case keyStorageDSN:
		return s.getenv(EnvPostgresDSN)
	}
	return ""
}

// SetEmbeddingProvider configures the embedding provider.
func (s *SettingsService) SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.IsValid() || !slices.Contains(domain.AllEmbeddingProviders(), provider) {
		return fmt.Errorf("%w: provider %q does not support embeddings", domain.ErrInvalidInput, provider)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}
	if apiKey == "" {
		apiKey = settings.Embedding.APIKey
	}
	if provider.RequiresAPIKey() && apiKey == "" {
		return fmt.Errorf("%w: API key required for %s", domain.ErrInvalidInput, provider)
	}

	settings.Embedding.Provider = provider
	settings.Embedding.Model = modelOrDefault(model, domain.DefaultEmbeddingModels()[provider])
	settings.Embedding.BaseURL = baseURLFor(provider, settings.Embedding.BaseURL)
	settings.Embedding.APIKey = apiKey
	// A new model has its own native dimension.
	settings.Embedding.Dimensions = 0

	return s.Save(settings)
}

// SetLLMProvider configures the LLM provider.
func (s *SettingsService) SetLLMProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.IsValid() {
		return fmt.Errorf("%w: invalid LLM provider %q", domain.ErrInvalidInput, provider)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}
	if apiKey == "" {
		apiKey = settings.LLM.APIKey
	}
	if provider.RequiresAPIKey() && apiKey == "" {
		return fmt.Errorf("%w: API key required for %s", domain.ErrInvalidInput, provider)
	}

	settings.LLM.Provider = provider
	settings.LLM.Model = modelOrDefault(model, domain.DefaultLLMModels()[provider])
	settings.LLM.BaseURL = baseURLFor(provider, settings.LLM.BaseURL)
	settings.LLM.APIKey = apiKey

	return s.Save(settings)
}

func modelOrDefault(model, def string) string {
	if model != "" {
		return model
	}
	return def
}

// baseURLFor keeps a configured Ollama URL and clears it for cloud providers.
func baseURLFor(provider domain.AIProvider, current string) string {
	if provider != domain.AIProviderOllama {
		return ""
	}
	if current == "" {
		return defaultOllamaURL
	}
	return current
}

// Validate checks that current settings are internally consistent.
// All problems are reported together.
func (s *SettingsService) Validate() error {
	settings, err := s.Get()
	if err != nil {
		return err
	}

	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf("%w: "+format, append([]any{domain.ErrInvalidInput}, args...)...))
		}
	}

	c := settings.Chunking
	check(c.TargetSize > 0, "chunking.target_size must be positive")
	check(c.Overlap >= 0, "chunking.overlap must not be negative")
	check(c.MinSize >= 0 && c.MinSize <= c.TargetSize, "chunking.min_size must be between 0 and target_size")
	check(c.MaxChunksPerDoc > 0, "chunking.max_chunks_per_doc must be positive")
	check(c.HardMaxChars >= c.TargetSize, "chunking.hard_max_chars must be at least target_size")

	b := settings.Batching
	check(b.MaxItems > 0, "batching.max_items must be positive")
	check(b.MaxTokens > 0, "batching.max_tokens must be positive")
	check(b.Concurrency > 0, "batching.concurrency must be positive")
	check(b.RequestsPerSecond >= 0, "batching.requests_per_second must not be negative")

	r := settings.Retrieval
	check(r.DefaultTopK > 0 && r.DefaultTopK <= r.MaxTopK, "retrieval.default_top_k must be between 1 and max_top_k")

	check(settings.Embedding.IsConfigured(), "embedding provider %q is not configured", settings.Embedding.Provider)
	check(settings.Storage.Backend.IsValid(), "unknown storage backend %q", settings.Storage.Backend)
	check(settings.Storage.Backend != domain.StoragePostgres || settings.Storage.PostgresDSN != "",
		"postgres backend requires storage.postgres_dsn or %s", EnvPostgresDSN)
	check(settings.Storage.UpsertBatch > 0, "storage.upsert_batch must be positive")

	e := settings.Evaluation
	check(e.PassThreshold >= 0 && e.PassThreshold <= 1, "evaluation.pass_threshold must be within [0, 1]")
	check(e.Concurrency > 0, "evaluation.concurrency must be positive")
	check(e.TopK > 0, "evaluation.top_k must be positive")

	return errors.Join(errs...)
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

// ValidateEmbeddingConfig validates the current embedding configuration by pinging the provider.
func (s *SettingsService) ValidateEmbeddingConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateEmbedding(&settings.Embedding)
}

// ValidateLLMConfig validates the current LLM configuration by pinging the provider.
func (s *SettingsService) ValidateLLMConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateLLM(&settings.LLM)
}

// Helper methods for reading config with defaults.

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

func (s *SettingsService) getFloat(key string, defaultVal float64) float64 {
	val := s.configStore.GetFloat(key)
	if val == 0 {
		return defaultVal
	}
	return val
}

// getFloatAllowZero treats an explicitly stored zero as a value.
func (s *SettingsService) getFloatAllowZero(key string, defaultVal float64) float64 {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetFloat(key)
}

func (s *SettingsService) getStrings(key string, defaultVal []string) []string {
	if val := s.configStore.GetStringSlice(key); len(val) > 0 {
		return val
	}
	return defaultVal
}

func (s *SettingsService) getProvider(key string, defaultVal domain.AIProvider) domain.AIProvider {
	provider := domain.AIProvider(s.configStore.GetString(key))
	if !provider.IsValid() {
		return defaultVal
	}
	return provider
}

func (s *SettingsService) getBackend(defaultVal domain.StorageBackend) domain.StorageBackend {
	backend := domain.StorageBackend(s.configStore.GetString(keyStorageBackend))
	if !backend.IsValid() {
		return defaultVal
	}
	return backend
}
