package ai

import (
	"fmt"

	"github.com/custodia-labs/benchbook/internal/core/domain"
	"github.com/custodia-labs/benchbook/internal/core/ports/driven"
)

var _ driven.AIConfigValidator = (*ConfigValidator)(nil)

// ConfigValidator checks provider settings before the settings service
// persists them. The embedding check guards the vector dimension that the
// composition root later hands to the sqlite and pgvector indexes, so a bad
// dimension is rejected here rather than at the first upsert.
type ConfigValidator struct{}

// NewConfigValidator returns a validator that pings live providers.
func NewConfigValidator() *ConfigValidator {
	return &ConfigValidator{}
}

// ValidateEmbedding rejects a negative dimension override, then pings the
// provider. Settings without a usable provider pass, since ingest dry runs and
// catalog reads never embed.
func (v *ConfigValidator) ValidateEmbedding(settings *domain.EmbeddingSettings) error {
	if settings == nil {
		return nil
	}
	if settings.Dimensions < 0 {
		return fmt.Errorf("%w: embedding dimensions must not be negative, got %d",
			domain.ErrInvalidInput, settings.Dimensions)
	}
	return ValidateEmbeddingConfig(settings)
}

// ValidateLLM pings the answer-generation provider used by evaluation runs.
func (v *ConfigValidator) ValidateLLM(settings *domain.LLMSettings) error {
	return ValidateLLMConfig(settings)
}
