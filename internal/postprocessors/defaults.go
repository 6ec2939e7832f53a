package postprocessors

import (
	"fmt"

	"github.com/custodia-labs/benchbook/internal/core/domain"
	"github.com/custodia-labs/benchbook/internal/core/ports/driven"
	"github.com/custodia-labs/benchbook/internal/postprocessors/chunker"
	"github.com/custodia-labs/benchbook/internal/postprocessors/identity"
)

// RegisterDefaults registers all built-in processors with the registry.
// Call this during application initialisation to enable standard processors.
func RegisterDefaults(r *Registry, counter driven.TokenCounter) {
	r.Register("chunker", func(cfg map[string]any) (driven.PostProcessor, error) {
		return buildChunker(cfg, counter)
	})
	r.Register("identity", func(map[string]any) (driven.PostProcessor, error) {
		return identity.New(), nil
	})
}

// BuildPipeline constructs a pipeline from configuration using the registry.
func BuildPipeline(r *Registry, cfg domain.PipelineConfig) (*Pipeline, error) {
	p := NewPipeline()
	for _, name := range cfg.Processors {
		proc, err := r.Build(name, cfg.GetProcessorConfig(name))
		if err != nil {
			return nil, fmt.Errorf("building pipeline: %w", err)
		}
		p.Add(proc)
	}
	return p, nil
}

// buildChunker creates a chunker processor from generic config.
// Supported config keys:
//   - chunk_size (int): Target characters per chunk (default: 1500)
//   - overlap (int): Overlapping characters between chunks (default: 200)
//   - min_size (int): Smallest chunk emitted (default: 100)
//   - max_chunks_per_doc (int): Chunk ceiling per document (default: 2000)
//   - hard_max_chars (int): Unit length that forces a word-boundary cut (default: 20000)
func buildChunker(cfg map[string]any, counter driven.TokenCounter) (driven.PostProcessor, error) {
	opts := []chunker.Option{chunker.WithTokenCounter(counter)}

	if size, ok := getIntFromConfig(cfg, "chunk_size"); ok {
		opts = append(opts, chunker.WithChunkSize(size))
	}
	if overlap, ok := getIntFromConfig(cfg, "overlap"); ok {
		opts = append(opts, chunker.WithOverlap(overlap))
	}
	if minSize, ok := getIntFromConfig(cfg, "min_size"); ok {
		opts = append(opts, chunker.WithMinSize(minSize))
	}
	if n, ok := getIntFromConfig(cfg, "max_chunks_per_doc"); ok {
		opts = append(opts, chunker.WithMaxChunksPerDoc(n))
	}
	if n, ok := getIntFromConfig(cfg, "hard_max_chars"); ok {
		opts = append(opts, chunker.WithHardMaxChars(n))
	}

	return chunker.New(opts...), nil
}

// getIntFromConfig safely extracts an int from generic config map.
// Handles int, int64, and float64 types that may come from TOML/JSON parsing.
func getIntFromConfig(cfg map[string]any, key string) (int, bool) {
	val, ok := cfg[key]
	if !ok {
		return 0, false
	}

	switch v := val.(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}
