// Package retrieval implements exact cosine top-k search with
// section-level deduplication.
//
// Candidates are assumed L2-normalised at index time, so similarity is a
// dot product against the normalised query. Search over-fetches
// OverFetchFactor*k candidates before deduplicating on (sourceTag,
// sectionId) so that collisions rarely shorten the result set.
package retrieval

import (
	"container/heap"
	"fmt"
	"math"
	"sort"

	"github.com/custodia-labs/benchbook/internal/core/domain"
)

// OverFetchFactor is the candidate multiple kept before deduplication.
const OverFetchFactor = 4

// Normalize returns v scaled to unit length.
func Normalize(v []float32) ([]float32, error) {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return nil, domain.ErrZeroVector
	}
	norm := math.Sqrt(sum)
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(float64(x) / norm)
	}
	return out, nil
}

// Dot returns the dot product of two equal-length vectors.
func Dot(a, b []float32) float64 {
	var s float64
	for i := range a {
		s += float64(a[i]) * float64(b[i])
	}
	return s
}

// Candidate is a scored record awaiting ranking.
type Candidate struct {
	ID       string
	Score    float64
	Metadata domain.RecordMetadata
}

// Search ranks records against query and returns at most k results with
// distinct (sourceTag, sectionId). A shorter result is returned when fewer
// distinct keys exist.
func Search(records []domain.VectorRecord, query []float32, k int) ([]domain.SearchResult, error) {
	if k <= 0 || len(records) == 0 {
		return nil, nil
	}
	q, err := Normalize(query)
	if err != nil {
		return nil, err
	}

	top := &minHeap{}
	limit := OverFetchFactor * k
	for _, r := range records {
		if len(r.Vector) != len(q) {
			return nil, fmt.Errorf("%w: record %s has %d dimensions, query has %d",
				domain.ErrDimensionMismatch, r.ID, len(r.Vector), len(q))
		}
		c := Candidate{ID: r.ID, Score: Dot(q, r.Vector), Metadata: r.Metadata}
		if top.Len() < limit {
			heap.Push(top, c)
			continue
		}
		if better(c, (*top)[0]) {
			(*top)[0] = c
			heap.Fix(top, 0)
		}
	}

	return Rank(*top, k), nil
}

// Rank sorts candidates by descending score, ties by ascending id, and keeps
// the first candidate per (sourceTag, sectionId) until k results are taken.
// Backends that pre-select candidates themselves call Rank directly.
func Rank(candidates []Candidate, k int) []domain.SearchResult {
	sorted := make([]Candidate, len(candidates))
	copy(sorted, candidates)
	sort.SliceStable(sorted, func(i, j int) bool {
		return better(sorted[i], sorted[j])
	})

	seen := make(map[[2]string]struct{}, k)
	out := make([]domain.SearchResult, 0, k)
	for _, c := range sorted {
		if len(out) == k {
			break
		}
		key := c.Metadata.DedupKey()
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, domain.SearchResult{ChunkID: c.ID, Score: c.Score, Metadata: c.Metadata})
	}
	return out
}

// better orders by score descending, then id ascending.
func better(a, b Candidate) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	return a.ID < b.ID
}

// minHeap keeps the worst retained candidate at the root.
type minHeap []Candidate

func (h minHeap) Len() int           { return len(h) }
func (h minHeap) Less(i, j int) bool { return better(h[j], h[i]) }
func (h minHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *minHeap) Push(x any)        { *h = append(*h, x.(Candidate)) }
func (h *minHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}
