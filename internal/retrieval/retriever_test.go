package retrieval

import (
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/custodia-labs/benchbook/internal/core/domain"
)

func record(id, source, section string, v ...float32) domain.VectorRecord {
	n, err := Normalize(v)
	if err != nil {
		panic(err)
	}
	return domain.VectorRecord{
		ID:       id,
		Vector:   n,
		Metadata: domain.RecordMetadata{SourceTag: source, SectionID: section},
	}
}

func TestNormalize(t *testing.T) {
	v, err := Normalize([]float32{3, 4})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(float64(v[0])-0.6) > 1e-6 || math.Abs(float64(v[1])-0.8) > 1e-6 {
		t.Errorf("Normalize() = %v", v)
	}

	if _, err := Normalize([]float32{0, 0}); !errors.Is(err, domain.ErrZeroVector) {
		t.Errorf("expected zero vector error, got %v", err)
	}
}

func TestSearch_RanksByCosine(t *testing.T) {
	records := []domain.VectorRecord{
		record("c", "TCA37", "37-1-101", 0, 1),
		record("a", "TCA37", "37-1-102", 1, 0),
		record("b", "TCA37", "37-1-103", 1, 1),
	}

	got, err := Search(records, []float32{2, 0}, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ids := []string{got[0].ChunkID, got[1].ChunkID, got[2].ChunkID}
	if fmt.Sprint(ids) != "[a b c]" {
		t.Errorf("unexpected order: %v", ids)
	}
	if math.Abs(got[0].Score-1) > 1e-6 || math.Abs(got[2].Score) > 1e-6 {
		t.Errorf("unexpected scores: %v, %v", got[0].Score, got[2].Score)
	}
}

func TestSearch_DedupsBySection(t *testing.T) {
	records := []domain.VectorRecord{
		record("tca37_1", "TCA37", "37-1-117", 1, 0.01),
		record("tca37_2", "TCA37", "37-1-117", 1, 0.02),
		record("tca37_3", "TCA37", "37-1-117", 1, 0.03),
		record("trjpp_1", "TRJPP", "37-1-117", 1, 0.5),
		record("dcs_1", "DCS", "16.46", 0.2, 1),
	}

	got, err := Search(records, []float32{1, 0}, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 results, got %d", len(got))
	}
	if got[0].ChunkID != "tca37_1" {
		t.Errorf("expected best chunk of the section first, got %s", got[0].ChunkID)
	}
	seen := map[[2]string]bool{}
	for _, r := range got {
		if seen[r.Metadata.DedupKey()] {
			t.Errorf("duplicate section key %v", r.Metadata.DedupKey())
		}
		seen[r.Metadata.DedupKey()] = true
	}
}

func TestSearch_ShortResultWhenFewSections(t *testing.T) {
	records := []domain.VectorRecord{
		record("a", "DCS", "16.46", 1, 0),
		record("b", "DCS", "16.46", 0.9, 0.1),
	}

	got, err := Search(records, []float32{1, 0}, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("expected 1 distinct section, got %d", len(got))
	}
}

func TestSearch_TiesBrokenByID(t *testing.T) {
	records := []domain.VectorRecord{
		record("z", "A", "1", 1, 0),
		record("m", "B", "2", 1, 0),
		record("a", "C", "3", 1, 0),
	}

	got, err := Search(records, []float32{1, 0}, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got[0].ChunkID != "a" || got[1].ChunkID != "m" {
		t.Errorf("expected ties ordered by id, got %s, %s", got[0].ChunkID, got[1].ChunkID)
	}
}

func TestSearch_OverFetchBoundsCandidates(t *testing.T) {
	// Eight chunks of one section outrank every other section; with k=2 only
	// 4k=8 candidates survive, so the second section is never seen.
	var records []domain.VectorRecord
	for i := 0; i < 8; i++ {
		records = append(records, record(fmt.Sprintf("hot%d", i), "TCA37", "37-1-117", 1, float32(i)*0.001))
	}
	records = append(records, record("cold", "TCA37", "37-1-118", 0.1, 1))

	got, err := Search(records, []float32{1, 0}, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("expected dedup collisions within the over-fetch window to shorten results, got %d", len(got))
	}
}

func TestSearch_SortedNonIncreasing(t *testing.T) {
	var records []domain.VectorRecord
	for i := 0; i < 200; i++ {
		x := float32(math.Sin(float64(i)))
		y := float32(math.Cos(float64(i) * 0.7))
		records = append(records, record(fmt.Sprintf("r%03d", i), "S", fmt.Sprint(i%50), x, y, 0.3))
	}

	got, err := Search(records, []float32{0.4, -0.2, 0.9}, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 10 {
		t.Fatalf("expected 10 results, got %d", len(got))
	}
	for i := 1; i < len(got); i++ {
		if got[i].Score > got[i-1].Score {
			t.Errorf("result %d scores above result %d", i, i-1)
		}
		if got[i].Score < -1-1e-6 || got[i].Score > 1+1e-6 {
			t.Errorf("score %v out of range", got[i].Score)
		}
	}
}

func TestSearch_Errors(t *testing.T) {
	records := []domain.VectorRecord{record("a", "S", "1", 1, 0)}

	if _, err := Search(records, []float32{1, 0, 0}, 1); !errors.Is(err, domain.ErrDimensionMismatch) {
		t.Errorf("expected dimension mismatch, got %v", err)
	}
	if _, err := Search(records, []float32{0, 0}, 1); !errors.Is(err, domain.ErrZeroVector) {
		t.Errorf("expected zero vector error, got %v", err)
	}

	got, err := Search(records, []float32{1, 0}, 0)
	if err != nil || len(got) != 0 {
		t.Errorf("expected empty result for k=0, got %v, %v", got, err)
	}
	got, err = Search(nil, []float32{1, 0}, 3)
	if err != nil || len(got) != 0 {
		t.Errorf("expected empty result for no candidates, got %v, %v", got, err)
	}
}

func TestRank(t *testing.T) {
	cands := []Candidate{
		{ID: "b", Score: 0.5, Metadata: domain.RecordMetadata{SourceTag: "A", SectionID: "1"}},
		{ID: "a", Score: 0.9, Metadata: domain.RecordMetadata{SourceTag: "A", SectionID: "1"}},
		{ID: "c", Score: 0.7, Metadata: domain.RecordMetadata{SourceTag: "B", SectionID: "1"}},
	}

	got := Rank(cands, 5)
	if len(got) != 2 || got[0].ChunkID != "a" || got[1].ChunkID != "c" {
		t.Errorf("unexpected ranking: %+v", got)
	}
	if cands[0].ID != "b" {
		t.Error("Rank must not reorder its input")
	}
}
