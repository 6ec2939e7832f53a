// Package legal derives document metadata for the Tennessee juvenile-law
// corpus: source family from the file path, a representative section id,
// a display title, and the county for local rules.
package legal

import (
	"path"
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/custodia-labs/benchbook/internal/core/domain"
)

// Source tags.
const (
	SourceTCA36 = "TCA36"
	SourceTCA37 = "TCA37"
	SourceTRJPP = "TRJPP"
	SourceDCS   = "DCS"
	SourceLocal = "LOCAL"
)

// VersionDateLayout formats Document.VersionDate.
const VersionDateLayout = "2006-01-02"

type fragment struct {
	match  string
	source string
}

// pathFragments are checked in order against the lowercased relative path.
var pathFragments = []fragment{
	{"tca/title-36", SourceTCA36},
	{"tca/title-37", SourceTCA37},
	{"trjpp", SourceTRJPP},
	{"dcs", SourceDCS},
	{"local-rules", SourceLocal},
}

// nameFragments are the filename fallbacks, in order.
var nameFragments = []fragment{
	{"title-36", SourceTCA36},
	{"title36", SourceTCA36},
	{"title-37", SourceTCA37},
	{"title37", SourceTCA37},
	{"trjpp", SourceTRJPP},
	{"juvenile-practice", SourceTRJPP},
	{"rule", SourceTRJPP},
	{"dcs", SourceDCS},
	{"policy", SourceDCS},
	{"local", SourceLocal},
	{"tipton", SourceLocal},
}

// DetectSource maps a corpus-relative path to a source tag.
func DetectSource(p string) string {
	rel := strings.ToLower(path.Clean(strings.ReplaceAll(p, "\\", "/")))
	for _, f := range pathFragments {
		if strings.Contains(rel, f.match) {
			return f.source
		}
	}
	name := path.Base(rel)
	for _, f := range nameFragments {
		if strings.Contains(name, f.match) {
			return f.source
		}
	}
	return domain.UnknownSourceTag
}

// sectionGrammars are the per-source section id patterns.
var sectionGrammars = map[string]*regexp.Regexp{
	SourceTCA36: regexp.MustCompile(`(?i)(?:T\.?C\.?A\.?\s*)?§?\s*36-\d+-\d+(?:\([a-z]\))?`),
	SourceTCA37: regexp.MustCompile(`(?i)(?:T\.?C\.?A\.?\s*)?§?\s*37-\d+-\d+(?:\([a-z]\))?`),
	SourceDCS:   regexp.MustCompile(`(?i)(?:DCS\s*)?(?:Policy\s*)?§?\s*\d+\.\d+`),
	SourceTRJPP: regexp.MustCompile(`(?i)(?:TRJPP\s*)?Rule\s*\d+(?:\([a-z]\))?`),
	SourceLocal: regexp.MustCompile(`(?i)(?:Local\s*)?Rule\s*\d+\.\d+`),
}

var defaultSectionGrammar = regexp.MustCompile(`§?\s*\d+[.-]\d+`)

// SectionScanChars bounds how far into a document ExtractSectionID looks.
const SectionScanChars = 2000

// ExtractSectionID returns the first section reference for the source's
// grammar, or domain.GeneralSectionID.
func ExtractSectionID(text, source string) string {
	re, ok := sectionGrammars[source]
	if !ok {
		re = defaultSectionGrammar
	}
	if m := re.FindString(prefix(text, SectionScanChars)); m != "" {
		if id := strings.TrimSpace(m); id != "" {
			return id
		}
	}
	return domain.GeneralSectionID
}

// TitleScanChars bounds how far into a document ExtractTitle looks.
const TitleScanChars = 800

var (
	subjectLine     = regexp.MustCompile(`(?i)Subject:\s*(.+?)(?:\n|$)`)
	headingPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)CHAPTER\s+\d+[:\s]+(.+?)\n`),
		regexp.MustCompile(`(?i)RULE\s+\d+[:\s]+(.+?)\n`),
		regexp.MustCompile(`(?i)POLICY\s+[\d.]+[:\s]+(.+?)\n`),
		regexp.MustCompile(`^(.+?)\n`),
	}
)

// ExtractTitle finds a title in the opening text, falling back to the
// file name.
func ExtractTitle(text, p string) string {
	first := prefix(text, TitleScanChars)

	if m := subjectLine.FindStringSubmatch(first); m != nil {
		if subject := strings.TrimSpace(m[1]); len([]rune(subject)) > 5 {
			return "DCS Policy: " + subject
		}
	}
	for _, re := range headingPatterns {
		m := re.FindStringSubmatch(first)
		if m == nil {
			continue
		}
		title := strings.TrimSpace(m[1])
		if n := len([]rune(title)); n > 10 && n < 200 {
			return title
		}
	}
	return titleFromName(p)
}

func titleFromName(p string) string {
	name := path.Base(strings.ReplaceAll(p, "\\", "/"))
	name = strings.TrimSuffix(name, path.Ext(name))
	name = strings.NewReplacer("-", " ", "_", " ").Replace(name)

	words := strings.Fields(name)
	for i, w := range words {
		rs := []rune(strings.ToLower(w))
		rs[0] = unicode.ToUpper(rs[0])
		words[i] = string(rs)
	}
	return strings.Join(words, " ")
}

var countyHints = []struct {
	match  string
	county string
}{
	{"tipton", "Tipton"},
}

// DetectCounty names the county for local-rule documents, or "".
func DetectCounty(p, source string) string {
	if source != SourceLocal {
		return ""
	}
	lower := strings.ToLower(p)
	for _, h := range countyHints {
		if strings.Contains(lower, h.match) {
			return h.county
		}
	}
	return ""
}

// VersionDate formats t as an ingest date.
func VersionDate(t time.Time) string {
	return t.UTC().Format(VersionDateLayout)
}

func prefix(s string, n int) string {
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
