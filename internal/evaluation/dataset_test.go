package evaluation

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/benchbook/internal/core/domain"
)

func TestDefaultDataset(t *testing.T) {
	cases, err := DefaultDataset()
	require.NoError(t, err)
	require.Len(t, cases, 50)

	byID := make(map[int]domain.EvaluationCase, len(cases))
	for _, c := range cases {
		byID[c.ID] = c
	}
	assert.Equal(t, "T.C.A. § 37-1-117", byID[1].ExpectedCitation)
	assert.Equal(t, "REFUSE", byID[47].ExpectedCitation)
	assert.Equal(t, "REFUSE", byID[48].ExpectedCitation)
	assert.Equal(t, "CLARIFY", byID[49].ExpectedCitation)
	assert.Equal(t, "Incomplete", byID[49].Category)
}

func TestFilter(t *testing.T) {
	cases, err := DefaultDataset()
	require.NoError(t, err)

	tpr := Filter(cases, "TPR", nil)
	require.Len(t, tpr, 2)
	assert.Equal(t, 21, tpr[0].ID)
	assert.Equal(t, 22, tpr[1].ID)

	picked := Filter(cases, "", []int{49, 1, 47})
	require.Len(t, picked, 3)
	assert.Equal(t, []int{1, 47, 49}, []int{picked[0].ID, picked[1].ID, picked[2].ID})

	assert.Empty(t, Filter(cases, "TPR", []int{1}))
	assert.Len(t, Filter(cases, "", nil), 50)
}

func TestLoadDataset(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cases.yaml")
	data := []byte(`cases:
  - id: 7
    category: Custom
    query: "Who may attend a closed hearing?"
    expected_citation: "T.C.A. § 37-1-124"
`)
	require.NoError(t, os.WriteFile(path, data, 0o600))

	cases, err := LoadDataset(path)
	require.NoError(t, err)
	require.Len(t, cases, 1)
	assert.Equal(t, "Custom", cases[0].Category)

	_, err = LoadDataset(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestParseDataset_Invalid(t *testing.T) {
	tests := map[string]string{
		"malformed":        "cases: [",
		"missing query":    "cases:\n  - id: 1\n    expected_citation: Rule 1\n",
		"missing citation": "cases:\n  - id: 1\n    query: q\n",
		"duplicate id":     "cases:\n  - id: 1\n    query: q\n    expected_citation: Rule 1\n  - id: 1\n    query: r\n    expected_citation: Rule 2\n",
	}

	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParseDataset([]byte(data))
			assert.True(t, errors.Is(err, domain.ErrInvalidInput), "got %v", err)
		})
	}
}
