package domain

const unknownDescription = "Unknown"

// AIProvider identifies an AI service provider for embeddings or LLM.
type AIProvider string

// Available AI providers.
const (
	// AIProviderOllama is local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is OpenAI cloud API.
	AIProviderOpenAI AIProvider = "openai"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderOllama, AIProviderOpenAI:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderOpenAI
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderOllama:
		return "Ollama (local)"
	case AIProviderOpenAI:
		return "OpenAI (cloud)"
	default:
		return unknownDescription
	}
}

// StorageBackend names a vector index implementation.
type StorageBackend string

// Available storage backends.
const (
	StorageMemory   StorageBackend = "memory"
	StorageSQLite   StorageBackend = "sqlite"
	StoragePostgres StorageBackend = "postgres"
)

// IsValid returns true if the backend is recognised.
func (b StorageBackend) IsValid() bool {
	switch b {
	case StorageMemory, StorageSQLite, StoragePostgres:
		return true
	default:
		return false
	}
}

// ChunkingSettings bounds the chunker.
type ChunkingSettings struct {
	// TargetSize is the preferred chunk length in characters.
	TargetSize int
	// Overlap is the number of trailing characters carried into the next chunk.
	Overlap int
	// MinSize is the smallest chunk that may be emitted.
	MinSize int
	// MaxChunksPerDoc caps the chunk count of a single document.
	MaxChunksPerDoc int
	// HardMaxChars is the length above which a single unit is split.
	HardMaxChars int
}

// BatchingSettings bounds embedding requests.
type BatchingSettings struct {
	MaxItems  int
	MaxTokens int
	// Concurrency is the number of batches in flight.
	Concurrency int
	// RequestsPerSecond throttles embedding calls; zero disables throttling.
	RequestsPerSecond float64
}

// RetrievalSettings configures the query path.
type RetrievalSettings struct {
	DefaultTopK    int
	MaxTopK        int
	QueryCacheSize int
}

// EmbeddingSettings holds embedding provider configuration.
type EmbeddingSettings struct {
	// Provider is the embedding service provider.
	Provider AIProvider

	// Model is the embedding model name.
	Model string

	// Dimensions overrides the model's native dimension when non-zero.
	Dimensions int

	// BaseURL is the API endpoint (for Ollama).
	BaseURL string

	// APIKey is the API key (for OpenAI).
	APIKey string
}

// IsConfigured returns true if the embedding provider is set up.
func (e EmbeddingSettings) IsConfigured() bool {
	if !e.Provider.IsValid() {
		return false
	}
	if e.Provider.RequiresAPIKey() && e.APIKey == "" {
		return false
	}
	return true
}

// LLMSettings holds LLM provider configuration.
type LLMSettings struct {
	// Provider is the LLM service provider.
	Provider AIProvider

	// Model is the LLM model name.
	Model string

	// BaseURL is the API endpoint (for Ollama).
	BaseURL string

	// APIKey is the API key (for OpenAI).
	APIKey string

	Temperature float64
	MaxTokens   int
}

// IsConfigured returns true if the LLM provider is set up.
func (l LLMSettings) IsConfigured() bool {
	if !l.Provider.IsValid() {
		return false
	}
	if l.Provider.RequiresAPIKey() && l.APIKey == "" {
		return false
	}
	return true
}

// StorageSettings selects and configures the vector index.
type StorageSettings struct {
	Backend StorageBackend
	// DataDir holds the sqlite database; empty means ~/.benchbook/data.
	DataDir string
	// PostgresDSN is read from BENCHBOOK_POSTGRES_DSN when unset.
	PostgresDSN string
	// UpsertBatch is the number of records written per upsert call.
	UpsertBatch int
}

// CitationGrammar is a named citation pattern.
type CitationGrammar struct {
	Name    string
	Pattern string
}

// EvaluationSettings configures the scorer and runner.
type EvaluationSettings struct {
	PassThreshold   float64
	Concurrency     int
	TopK            int
	Grammars        []CitationGrammar
	RefuseKeywords  []string
	ClarifyKeywords []string
}

// ServerSettings configures the HTTP query surface.
type ServerSettings struct {
	Addr string
}

// AppSettings holds all application settings.
type AppSettings struct {
	Chunking   ChunkingSettings
	Batching   BatchingSettings
	Retrieval  RetrievalSettings
	Embedding  EmbeddingSettings
	LLM        LLMSettings
	Storage    StorageSettings
	Evaluation EvaluationSettings
	Server     ServerSettings
}

// DefaultAppSettings returns settings with sensible defaults.
// Providers are left without API keys; those come from the environment.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Chunking: ChunkingSettings{
			TargetSize:      1500,
			Overlap:         200,
			MinSize:         100,
			MaxChunksPerDoc: 2000,
			HardMaxChars:    20000,
		},
		Batching: BatchingSettings{
			MaxItems:          100,
			MaxTokens:         250000,
			Concurrency:       2,
			RequestsPerSecond: 3,
		},
		Retrieval: RetrievalSettings{
			DefaultTopK:    5,
			MaxTopK:        20,
			QueryCacheSize: 256,
		},
		Embedding: EmbeddingSettings{
			Provider: AIProviderOpenAI,
			Model:    "text-embedding-3-large",
		},
		LLM: LLMSettings{
			Provider:    AIProviderOpenAI,
			Model:       "gpt-4o",
			Temperature: 0.1,
			MaxTokens:   1000,
		},
		Storage: StorageSettings{
			Backend:     StorageSQLite,
			UpsertBatch: 100,
		},
		Evaluation: EvaluationSettings{
			PassThreshold:   0.8,
			Concurrency:     4,
			TopK:            5,
			Grammars:        DefaultCitationGrammars(),
			RefuseKeywords:  DefaultRefuseKeywords(),
			ClarifyKeywords: DefaultClarifyKeywords(),
		},
		Server: ServerSettings{
			Addr: "127.0.0.1:8765",
		},
	}
}

// DefaultCitationGrammars returns the ordered Tennessee juvenile-law grammars.
// Gaps accept Unicode spaces as well as ASCII whitespace, since statute text
// often carries no-break spaces.
func DefaultCitationGrammars() []CitationGrammar {
	return []CitationGrammar{
		{Name: "tca", Pattern: `T\.?C\.?A\.?[\s\p{Zs}]*§?[\s\p{Zs}]*\d+-\d+-\d+(?:\([a-z]\))?`},
		{Name: "rule", Pattern: `Rule[\s\p{Zs}]*\d+(?:\([a-z]\))?`},
		{Name: "dcs_policy", Pattern: `DCS[\s\p{Zs}]*(?:Policy[\s\p{Zs}]*)?\d+\.\d+`},
		{Name: "bill", Pattern: `SB[\s\p{Zs}]*\d+`},
		{Name: "case_law", Pattern: `In re[\s\p{Zs}]+[A-Z][a-z]+[\s\p{Zs}]+[A-Z]\.`},
		{Name: "icpc", Pattern: `ICPC[\s\p{Zs}]*Reg(?:ulation)?[\s\p{Zs}]*No\.[\s\p{Zs}]*\d+`},
	}
}

// DefaultRefuseKeywords returns phrases that mark a refusal.
func DefaultRefuseKeywords() []string {
	return []string{"cannot", "will not", "refuse", "inappropriate", "ethical", "ex parte", "violate", "due process"}
}

// DefaultClarifyKeywords returns phrases that mark a request for clarification.
func DefaultClarifyKeywords() []string {
	return []string{"need more information", "please provide", "what is the", "age", "offense", "prior record", "clarify"}
}

// AllEmbeddingProviders returns providers that support embeddings.
func AllEmbeddingProviders() []AIProvider {
	return []AIProvider{
		AIProviderOllama,
		AIProviderOpenAI,
	}
}

// AllLLMProviders returns providers that support chat completion.
func AllLLMProviders() []AIProvider {
	return []AIProvider{
		AIProviderOllama,
		AIProviderOpenAI,
	}
}

// DefaultEmbeddingModels returns default models for each embedding provider.
func DefaultEmbeddingModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama: "nomic-embed-text",
		AIProviderOpenAI: "text-embedding-3-large",
	}
}

// DefaultLLMModels returns default models for each LLM provider.
func DefaultLLMModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama: "llama3.2",
		AIProviderOpenAI: "gpt-4o",
	}
}

// EmbeddingDimensions returns the vector dimensions for known models.
func EmbeddingDimensions() map[string]int {
	return map[string]int{
		// Ollama models
		"nomic-embed-text":  768,
		"mxbai-embed-large": 1024,
		"all-minilm":        384,
		// OpenAI models
		"text-embedding-3-small": 1536,
		"text-embedding-3-large": 3072,
		"text-embedding-ada-002": 1536,
	}
}

// PipelineConfig holds post-processor pipeline configuration.
// Uses generic map-based config for extensibility - new processors can be added
// without modifying this struct.
type PipelineConfig struct {
	// Processors is the ordered list of processor names to run.
	Processors []string

	// ProcessorConfigs holds per-processor configuration as generic maps.
	// Key is processor name, value is processor-specific config.
	ProcessorConfigs map[string]map[string]any
}

// GetProcessorConfig returns config for a specific processor, or nil if not set.
func (c *PipelineConfig) GetProcessorConfig(name string) map[string]any {
	if c.ProcessorConfigs == nil {
		return nil
	}
	return c.ProcessorConfigs[name]
}

// PipelineConfigFor builds the chunk-then-identify pipeline from chunking settings.
func PipelineConfigFor(c ChunkingSettings) PipelineConfig {
	return PipelineConfig{
		Processors: []string{"chunker", "identity"},
		ProcessorConfigs: map[string]map[string]any{
			"chunker": {
				"chunk_size":         c.TargetSize,
				"overlap":            c.Overlap,
				"min_size":           c.MinSize,
				"max_chunks_per_doc": c.MaxChunksPerDoc,
				"hard_max_chars":     c.HardMaxChars,
			},
		},
	}
}
