package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/custodia-labs/benchbook/internal/core/domain"
	"github.com/custodia-labs/benchbook/internal/core/ports/driven"
	"github.com/custodia-labs/benchbook/internal/retrieval"
)

// Ensure VectorIndex implements the interface.
var _ driven.VectorIndex = (*VectorIndex)(nil)

// VectorIndex keeps records in a map and answers queries with an exact scan.
type VectorIndex struct {
	mu        sync.RWMutex
	dimension int
	records   map[string]domain.VectorRecord
}

// NewVectorIndex creates an empty index. A zero dimension is fixed by the
// first upserted record.
func NewVectorIndex(dimension int) *VectorIndex {
	return &VectorIndex{
		dimension: dimension,
		records:   make(map[string]domain.VectorRecord),
	}
}

// Upsert replaces records by id. The batch is rejected whole when any
// vector has the wrong dimension.
func (x *VectorIndex) Upsert(_ context.Context, records []domain.VectorRecord) error {
	if len(records) == 0 {
		return nil
	}
	x.mu.Lock()
	defer x.mu.Unlock()

	dim := x.dimension
	if dim == 0 {
		dim = len(records[0].Vector)
	}
	for _, r := range records {
		if len(r.Vector) != dim {
			return fmt.Errorf("%w: record %s has %d dimensions, index has %d",
				domain.ErrDimensionMismatch, r.ID, len(r.Vector), dim)
		}
	}
	x.dimension = dim
	for _, r := range records {
		v := make([]float32, len(r.Vector))
		copy(v, r.Vector)
		r.Vector = v
		x.records[r.ID] = r
	}
	return nil
}

// Query scores every record against vector.
func (x *VectorIndex) Query(ctx context.Context, vector []float32, k int) ([]domain.SearchResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	x.mu.RLock()
	records := make([]domain.VectorRecord, 0, len(x.records))
	for _, r := range x.records {
		records = append(records, r)
	}
	x.mu.RUnlock()

	return retrieval.Search(records, vector, k)
}

// Count returns the number of stored records.
func (x *VectorIndex) Count(_ context.Context) (int, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.records), nil
}

// Close is a no-op.
func (x *VectorIndex) Close() error { return nil }
