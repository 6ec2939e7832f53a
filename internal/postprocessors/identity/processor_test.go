package identity

import (
	"context"
	"testing"

	"github.com/custodia-labs/benchbook/internal/chunkid"
	"github.com/custodia-labs/benchbook/internal/core/domain"
)

func TestProcessor_Name(t *testing.T) {
	if got := New().Name(); got != "identity" {
		t.Errorf("Name() = %q, want identity", got)
	}
}

func TestProcessor_AssignsIDs(t *testing.T) {
	doc := &domain.Document{Key: "trjpp/rule-24.txt", SourceTag: "TRJPP"}
	chunks := []domain.Chunk{
		{Ordinal: 0, Text: "Rule 24 governs transfer hearings."},
		{Ordinal: 1, Text: "The court shall consider the factors."},
	}

	out, err := New().Process(context.Background(), doc, chunks)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for i, c := range out {
		want := chunkid.New("TRJPP", doc.Key, i, c.Text)
		if c.ID != want {
			t.Errorf("chunk %d id = %q, want %q", i, c.ID, want)
		}
		if c.TotalSiblings != 2 {
			t.Errorf("chunk %d total siblings = %d, want 2", i, c.TotalSiblings)
		}
	}
	if out[0].ID == out[1].ID {
		t.Error("expected distinct ids for distinct ordinals")
	}
}

func TestProcessor_NoChunks(t *testing.T) {
	out, err := New().Process(context.Background(), &domain.Document{Key: "k"}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 0 {
		t.Errorf("expected no chunks, got %d", len(out))
	}
}
