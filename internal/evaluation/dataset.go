package evaluation

import (
	_ "embed"
	"fmt"
	"os"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/custodia-labs/benchbook/internal/core/domain"
)

//go:embed gold.yaml
var goldYAML []byte

type datasetFile struct {
	Cases []domain.EvaluationCase `yaml:"cases"`
}

// DefaultDataset returns the built-in gold set.
func DefaultDataset() ([]domain.EvaluationCase, error) {
	return ParseDataset(goldYAML)
}

// LoadDataset reads a YAML dataset file.
func LoadDataset(path string) ([]domain.EvaluationCase, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading dataset: %w", err)
	}
	return ParseDataset(data)
}

// ParseDataset decodes and validates a YAML dataset.
func ParseDataset(data []byte) ([]domain.EvaluationCase, error) {
	var f datasetFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%w: parsing dataset: %v", domain.ErrInvalidInput, err)
	}
	seen := make(map[int]struct{}, len(f.Cases))
	for _, c := range f.Cases {
		if c.Query == "" || c.ExpectedCitation == "" {
			return nil, fmt.Errorf("%w: case %d is missing query or expected citation", domain.ErrInvalidInput, c.ID)
		}
		if _, dup := seen[c.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate case id %d", domain.ErrInvalidInput, c.ID)
		}
		seen[c.ID] = struct{}{}
	}
	return f.Cases, nil
}

// Filter keeps cases in the given category (when non-empty) and with the
// given ids (when non-empty), preserving order.
func Filter(cases []domain.EvaluationCase, category string, ids []int) []domain.EvaluationCase {
	out := make([]domain.EvaluationCase, 0, len(cases))
	for _, c := range cases {
		if category != "" && c.Category != category {
			continue
		}
		if len(ids) > 0 && !slices.Contains(ids, c.ID) {
			continue
		}
		out = append(out, c)
	}
	return out
}
