package html

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

type state int

const (
	stateOutside state = iota
	stateInHeading
	stateInSkip
)

func (s state) String() string {
	switch s {
	case stateOutside:
		return "OUTSIDE"
	case stateInHeading:
		return "IN_HEADING"
	case stateInSkip:
		return "IN_SKIP"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

type event int

const (
	evSkipOpen event = iota
	evSkipClose
	evHeadingOpen
	evHeadingClose
	evBlock
	evText
)

// transitions is the full state table. evSkipClose out of stateInSkip only
// applies once the skip depth returns to zero; until then the extractor
// stays in stateInSkip.
var transitions = map[state]map[event]state{
	stateOutside: {
		evSkipOpen:     stateInSkip,
		evSkipClose:    stateOutside,
		evHeadingOpen:  stateInHeading,
		evHeadingClose: stateOutside,
		evBlock:        stateOutside,
		evText:         stateOutside,
	},
	stateInHeading: {
		evSkipOpen:     stateInSkip,
		evSkipClose:    stateInHeading,
		evHeadingOpen:  stateInHeading,
		evHeadingClose: stateOutside,
		evBlock:        stateInHeading,
		evText:         stateInHeading,
	},
	stateInSkip: {
		evSkipOpen:     stateInSkip,
		evSkipClose:    stateOutside,
		evHeadingOpen:  stateInSkip,
		evHeadingClose: stateInSkip,
		evBlock:        stateInSkip,
		evText:         stateInSkip,
	},
}

// skipTags hide their content. Void elements (meta, link) carry none but
// are listed so a stray end tag is harmless.
var skipTags = map[atom.Atom]bool{
	atom.Script: true,
	atom.Style:  true,
	atom.Head:   true,
	atom.Meta:   true,
	atom.Link:   true,
}

var voidSkipTags = map[atom.Atom]bool{
	atom.Meta: true,
	atom.Link: true,
}

var blockTags = map[atom.Atom]bool{
	atom.P:   true,
	atom.Div: true,
	atom.Br:  true,
	atom.Li:  true,
	atom.Tr:  true,
	atom.H1:  true,
	atom.H4:  true,
}

var statuteSectionID = regexp.MustCompile(`\d+-\d+-\d+`)

// section is one heading-delimited span of a statute page.
type section struct {
	ID    string
	Title string
	Text  string
}

// extraction is the result of one pass over a page.
type extraction struct {
	Sections []section
	Text     string

	// Statute is set when at least one h3 section heading was seen.
	Statute bool
}

type extractor struct {
	state  state
	resume state
	depth  int

	current *section
	heading []string
	body    strings.Builder
	visible strings.Builder

	out extraction
}

// extract runs the state machine over an HTML page.
func extract(content []byte) (extraction, error) {
	x := &extractor{state: stateOutside}
	z := html.NewTokenizer(bytes.NewReader(content))

	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			if err := z.Err(); !errors.Is(err, io.EOF) {
				return extraction{}, fmt.Errorf("tokenizing html: %w", err)
			}
			x.closeSection()
			x.out.Text = strings.TrimSpace(x.visible.String())
			return x.out, nil

		case html.StartTagToken, html.SelfClosingTagToken:
			name, hasAttr := z.TagName()
			a := atom.Lookup(name)
			switch {
			case skipTags[a]:
				if voidSkipTags[a] || tt == html.SelfClosingTagToken {
					continue
				}
				x.fire(evSkipOpen, "")
			case (a == atom.H2 || a == atom.H3) && hasAttr:
				if id := idAttr(z); id != "" {
					if a == atom.H3 {
						x.out.Statute = true
						if m := statuteSectionID.FindString(id); m != "" {
							id = m
						}
					}
					x.fire(evHeadingOpen, id)
					continue
				}
				x.fire(evBlock, "")
			case blockTags[a] || a == atom.H2 || a == atom.H3:
				x.fire(evBlock, "")
			}

		case html.EndTagToken:
			name, _ := z.TagName()
			a := atom.Lookup(name)
			switch {
			case skipTags[a] && !voidSkipTags[a]:
				x.fire(evSkipClose, "")
			case (a == atom.H2 || a == atom.H3) && x.state == stateInHeading:
				x.fire(evHeadingClose, "")
			case blockTags[a] || a == atom.H2 || a == atom.H3:
				x.fire(evBlock, "")
			}

		case html.TextToken:
			x.fire(evText, string(z.Text()))
		}
	}
}

// fire applies the action for ev in the current state, then moves to the
// next state from the table.
func (x *extractor) fire(ev event, arg string) {
	from := x.state
	next := transitions[from][ev]

	switch from {
	case stateInSkip:
		switch ev {
		case evSkipOpen:
			x.depth++
		case evSkipClose:
			x.depth--
			if x.depth > 0 {
				next = stateInSkip
			} else {
				x.depth = 0
				next = x.resume
			}
		}

	default:
		switch ev {
		case evSkipOpen:
			x.depth = 1
			x.resume = from
		case evHeadingOpen:
			x.closeSection()
			x.current = &section{ID: arg}
			x.heading = x.heading[:0]
		case evHeadingClose:
			if x.current != nil {
				x.current.Title = strings.Join(x.heading, " ")
			}
		case evBlock:
			x.write("\n\n")
		case evText:
			if from == stateInHeading {
				if t := strings.Join(strings.Fields(arg), " "); t != "" {
					x.heading = append(x.heading, t)
				}
			}
			x.write(arg)
		}
	}

	x.state = next
}

func (x *extractor) write(s string) {
	x.visible.WriteString(s)
	if x.current != nil {
		x.body.WriteString(s)
	}
}

func (x *extractor) closeSection() {
	if x.current == nil {
		return
	}
	x.current.Text = strings.TrimSpace(x.body.String())
	if x.current.Text != "" {
		x.out.Sections = append(x.out.Sections, *x.current)
	}
	x.current = nil
	x.body.Reset()
}

func idAttr(z *html.Tokenizer) string {
	for {
		key, val, more := z.TagAttr()
		if string(key) == "id" {
			return strings.TrimSpace(string(val))
		}
		if !more {
			return ""
		}
	}
}
