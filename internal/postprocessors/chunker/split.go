package chunker

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/custodia-labs/benchbook/internal/core/domain"
	"github.com/custodia-labs/benchbook/internal/core/ports/driven"
)

// paragraphBreak matches a blank line, possibly containing whitespace.
var paragraphBreak = regexp.MustCompile(`\n\s*\n`)

// Params bounds a Split call. Lengths are measured in characters (runes).
type Params struct {
	TargetSize      int
	Overlap         int
	MinSize         int
	MaxChunksPerDoc int
	HardMaxChars    int
}

// Validate reports parameters that cannot produce a chunking.
func (p Params) Validate() error {
	switch {
	case p.TargetSize <= 0:
		return fmt.Errorf("%w: target size must be positive, got %d", domain.ErrInvalidInput, p.TargetSize)
	case p.Overlap < 0:
		return fmt.Errorf("%w: overlap must not be negative, got %d", domain.ErrInvalidInput, p.Overlap)
	case p.MinSize < 0:
		return fmt.Errorf("%w: min size must not be negative, got %d", domain.ErrInvalidInput, p.MinSize)
	case p.MaxChunksPerDoc <= 0:
		return fmt.Errorf("%w: max chunks per document must be positive, got %d", domain.ErrInvalidInput, p.MaxChunksPerDoc)
	case p.HardMaxChars < p.TargetSize:
		return fmt.Errorf("%w: hard max %d is below target size %d", domain.ErrInvalidInput, p.HardMaxChars, p.TargetSize)
	}
	return nil
}

// effectiveOverlap keeps the overlap strictly below the target size.
func (p Params) effectiveOverlap() int {
	if p.Overlap >= p.TargetSize {
		return p.TargetSize / 4
	}
	return p.Overlap
}

// Span is one emitted chunk. Start and End are rune offsets into
// Result.Normalized and Text == Normalized[Start:End].
type Span struct {
	Text       string
	Start      int
	End        int
	TokenCount int
}

// Result is the output of Split.
type Result struct {
	Spans []Span

	// Normalized is the text the spans index into: every unit with its
	// whitespace collapsed, joined by single spaces.
	Normalized string

	Diagnostics []domain.Diagnostic
}

// Split chunks text on paragraph boundaries, falling back to sentence
// boundaries for unbroken text longer than the target size.
// It is a pure function and safe for concurrent use.
func Split(text string, p Params, counter driven.TokenCounter) (Result, error) {
	if err := p.Validate(); err != nil {
		return Result{}, err
	}

	units := splitUnits(text, p.TargetSize, p.HardMaxChars)
	norm := []rune(strings.Join(units, " "))
	res := Result{Normalized: string(norm)}

	if len(norm) < p.MinSize || len(units) == 0 {
		res.Diagnostics = append(res.Diagnostics, domain.Diagnostic{
			Kind:    domain.DiagnosticDegenerate,
			Message: "document shorter than minimum chunk size",
			Count:   len(norm),
			Limit:   p.MinSize,
		})
		return res, nil
	}

	bounds := accumulate(norm, units, p.TargetSize, p.effectiveOverlap(), p.MinSize)

	if len(bounds) > p.MaxChunksPerDoc {
		res.Diagnostics = append(res.Diagnostics, domain.Diagnostic{
			Kind:    domain.DiagnosticLimitExceeded,
			Message: "chunk count exceeds per-document ceiling; truncated",
			Count:   len(bounds),
			Limit:   p.MaxChunksPerDoc,
		})
		bounds = bounds[:p.MaxChunksPerDoc]
	}

	res.Spans = make([]Span, len(bounds))
	for i, b := range bounds {
		t := string(norm[b[0]:b[1]])
		res.Spans[i] = Span{Text: t, Start: b[0], End: b[1], TokenCount: counter.Count(t)}
	}
	return res, nil
}

// accumulate grows a buffer over consecutive units and returns the
// [start, end) rune bounds of each chunk.
func accumulate(norm []rune, units []string, target, overlap, minSize int) [][2]int {
	var (
		out    [][2]int
		bs, be int
		empty  = true
		pos    int
	)

	for _, u := range units {
		us, ue := pos, pos+runeLen(u)
		pos = ue + 1

		if empty {
			bs, be, empty = us, ue, false
			continue
		}

		if (be-bs)+(ue-us)+1 <= target || be-bs < minSize {
			be = ue
			continue
		}

		out = append(out, [2]int{bs, be})
		next := be - overlap
		if next < bs {
			next = bs
		}
		for next < us && norm[next] == ' ' {
			next++
		}
		bs, be = next, ue
	}

	if empty {
		return out
	}
	switch {
	case be-bs >= minSize:
		out = append(out, [2]int{bs, be})
	case len(out) > 0:
		// A short tail is folded into the previous chunk.
		out[len(out)-1][1] = be
	default:
		out = append(out, [2]int{bs, be})
	}
	return out
}

// splitUnits breaks raw text into whitespace-collapsed paragraphs or
// sentences, with oversized units cut at word boundaries.
func splitUnits(text string, target, hardMax int) []string {
	var units []string
	for _, para := range paragraphBreak.Split(text, -1) {
		if c := collapse(para); c != "" {
			units = append(units, c)
		}
	}

	if len(units) == 1 && runeLen(units[0]) > target {
		units = splitSentences(units[0])
	}

	out := make([]string, 0, len(units))
	for _, u := range units {
		if runeLen(u) > hardMax {
			out = append(out, cutAtWords(u, target)...)
			continue
		}
		out = append(out, u)
	}
	return out
}

// collapse replaces whitespace runs with single spaces and trims.
func collapse(s string) string {
	return strings.Join(strings.FieldsFunc(s, unicode.IsSpace), " ")
}

// splitSentences splits collapsed text after '.', '!' or '?' followed by a space.
func splitSentences(s string) []string {
	var out []string
	rs := []rune(s)
	start := 0
	for i := 0; i+1 < len(rs); i++ {
		if (rs[i] == '.' || rs[i] == '!' || rs[i] == '?') && rs[i+1] == ' ' {
			out = append(out, string(rs[start:i+1]))
			start = i + 2
		}
	}
	if start < len(rs) {
		out = append(out, string(rs[start:]))
	}
	return out
}

// cutAtWords splits s into pieces of at most max characters, preferring the
// last space at or before max and cutting mid-word only when there is none.
func cutAtWords(s string, max int) []string {
	var out []string
	rs := []rune(s)
	for len(rs) > max {
		cut := -1
		for i := max; i > 0; i-- {
			if rs[i] == ' ' {
				cut = i
				break
			}
		}
		if cut < 0 {
			out = append(out, string(rs[:max]))
			rs = rs[max:]
			continue
		}
		out = append(out, string(rs[:cut]))
		rs = rs[cut+1:]
	}
	if len(rs) > 0 {
		out = append(out, string(rs))
	}
	return out
}

func runeLen(s string) int {
	return len([]rune(s))
}
