package batching

import (
	"errors"
	"strings"
	"testing"

	"github.com/custodia-labs/benchbook/internal/core/domain"
	"github.com/custodia-labs/benchbook/internal/core/ports/driven"
	"github.com/custodia-labs/benchbook/internal/tokens"
)

// chars counts one token per character.
var chars = driven.TokenCounterFunc(func(s string) int { return len([]rune(s)) })

func flatten(p Plan) []string {
	var out []string
	for _, b := range p.Batches {
		out = append(out, b.Texts...)
	}
	return out
}

func TestSchedule_ItemCeiling(t *testing.T) {
	texts := make([]string, 250)
	for i := range texts {
		texts[i] = "x"
	}

	plan, err := Schedule(texts, Limits{MaxItems: 100, MaxTokens: 1000}, chars)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(plan.Batches) != 3 {
		t.Fatalf("expected 3 batches, got %d", len(plan.Batches))
	}
	for i, want := range []int{100, 100, 50} {
		if got := len(plan.Batches[i].Texts); got != want {
			t.Errorf("batch %d has %d items, want %d", i, got, want)
		}
	}
	if plan.Batches[1].Start != 100 || plan.Batches[2].Start != 200 {
		t.Errorf("unexpected batch starts: %d, %d", plan.Batches[1].Start, plan.Batches[2].Start)
	}
}

func TestSchedule_TokenBudget(t *testing.T) {
	texts := []string{"aaaa", "bbbb", "cc", "dddddd", "e"}

	plan, err := Schedule(texts, Limits{MaxItems: 10, MaxTokens: 10}, chars)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := [][]string{{"aaaa", "bbbb", "cc"}, {"dddddd", "e"}}
	if len(plan.Batches) != len(want) {
		t.Fatalf("expected %d batches, got %d", len(want), len(plan.Batches))
	}
	for i := range want {
		if strings.Join(plan.Batches[i].Texts, ",") != strings.Join(want[i], ",") {
			t.Errorf("batch %d = %v, want %v", i, plan.Batches[i].Texts, want[i])
		}
	}
	if plan.Batches[0].Tokens != 10 || plan.Batches[1].Tokens != 7 {
		t.Errorf("unexpected token sums: %d, %d", plan.Batches[0].Tokens, plan.Batches[1].Tokens)
	}
}

func TestSchedule_TruncatesOversizedText(t *testing.T) {
	texts := []string{"short", strings.Repeat("§", 25), "tail"}

	plan, err := Schedule(texts, Limits{MaxItems: 10, MaxTokens: 10}, chars)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	flat := flatten(plan)
	if len(flat) != 3 {
		t.Fatalf("expected every text to be batched, got %d", len(flat))
	}
	if flat[1] != strings.Repeat("§", 10) {
		t.Errorf("expected the oversized text cut to 10 characters, got %q", flat[1])
	}
	if len(plan.Truncated) != 1 || plan.Truncated[0] != 1 {
		t.Errorf("expected index 1 reported as truncated, got %v", plan.Truncated)
	}
	if len(plan.Diagnostics) != 1 || plan.Diagnostics[0].Kind != domain.DiagnosticLimitExceeded || plan.Diagnostics[0].Count != 25 {
		t.Errorf("unexpected diagnostics: %+v", plan.Diagnostics)
	}
}

func TestSchedule_Properties(t *testing.T) {
	var texts []string
	for i := 0; i < 500; i++ {
		texts = append(texts, strings.Repeat("word ", (i*37)%400+1))
	}
	limits := Limits{MaxItems: 100, MaxTokens: 2000}
	counter := tokens.Heuristic{}

	plan, err := Schedule(texts, limits, counter)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	flat := flatten(plan)
	if len(flat) != len(texts) {
		t.Fatalf("flattened %d texts, want %d", len(flat), len(texts))
	}
	for i := range texts {
		if flat[i] != texts[i] {
			t.Fatalf("text %d out of order", i)
		}
	}

	next := 0
	for i, b := range plan.Batches {
		if b.Start != next {
			t.Errorf("batch %d starts at %d, want %d", i, b.Start, next)
		}
		next += len(b.Texts)
		if len(b.Texts) > limits.MaxItems {
			t.Errorf("batch %d has %d items", i, len(b.Texts))
		}
		sum := 0
		for _, s := range b.Texts {
			sum += counter.Count(s)
		}
		if sum > limits.MaxTokens || sum != b.Tokens {
			t.Errorf("batch %d sums to %d tokens (recorded %d)", i, sum, b.Tokens)
		}
	}
}

func TestSchedule_Empty(t *testing.T) {
	plan, err := Schedule(nil, Limits{MaxItems: 1, MaxTokens: 1}, chars)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(plan.Batches) != 0 {
		t.Errorf("expected no batches, got %d", len(plan.Batches))
	}
}

func TestSchedule_InvalidLimits(t *testing.T) {
	for _, l := range []Limits{{0, 10}, {10, 0}, {-1, -1}} {
		if _, err := Schedule([]string{"a"}, l, chars); !errors.Is(err, domain.ErrInvalidInput) {
			t.Errorf("limits %+v: expected invalid input, got %v", l, err)
		}
	}
}
