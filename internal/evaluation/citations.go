package evaluation

import (
	"fmt"
	"regexp"
	"sort"

	"github.com/custodia-labs/benchbook/internal/core/domain"
)

type grammar struct {
	name string
	re   *regexp.Regexp
}

// Extractor applies an ordered list of citation grammars.
type Extractor struct {
	grammars []grammar
}

// NewExtractor compiles the grammars case-insensitively.
func NewExtractor(grammars []domain.CitationGrammar) (*Extractor, error) {
	e := &Extractor{grammars: make([]grammar, 0, len(grammars))}
	for _, g := range grammars {
		re, err := regexp.Compile("(?i)" + g.Pattern)
		if err != nil {
			return nil, fmt.Errorf("%w: citation grammar %q: %v", domain.ErrInvalidInput, g.Name, err)
		}
		e.grammars = append(e.grammars, grammar{name: g.Name, re: re})
	}
	return e, nil
}

// Extract returns the distinct citations found in text, sorted.
func (e *Extractor) Extract(text string) []string {
	set := make(map[string]struct{})
	for _, g := range e.grammars {
		for _, m := range g.re.FindAllString(text, -1) {
			set[m] = struct{}{}
		}
	}
	out := make([]string, 0, len(set))
	for m := range set {
		out = append(out, m)
	}
	sort.Strings(out)
	return out
}

// Names returns the grammar names in application order.
func (e *Extractor) Names() []string {
	names := make([]string, len(e.grammars))
	for i, g := range e.grammars {
		names[i] = g.name
	}
	return names
}
