// Package answer holds the state of one streamed answer: the accumulated
// text and its split into language sections.
package answer

import (
	"strings"

	"golang.org/x/text/language"

	"github.com/markis/jawab/internal/segment"
	"github.com/markis/jawab/internal/stream"
)

// SectionKind identifies one of the three language partitions of an answer.
type SectionKind int

const (
	English SectionKind = iota
	HindiDevanagari
	HindiRoman
)

var romanHindi = language.MustParse("hi-Latn")

func (k SectionKind) String() string {
	switch k {
	case English:
		return "English"
	case HindiDevanagari:
		return "हिन्दी"
	case HindiRoman:
		return "Hindi (Roman)"
	default:
		return "unknown"
	}
}

// Language returns the BCP 47 tag of the section's content.
func (k SectionKind) Language() language.Tag {
	switch k {
	case HindiDevanagari:
		return language.Hindi
	case HindiRoman:
		return romanHindi
	default:
		return language.English
	}
}

// Section is the text of one language partition. Closed is set once the
// section's boundary token has been seen.
type Section struct {
	Kind   SectionKind
	Text   string
	Closed bool
}

// Segments classifies the section text. It is recomputed on every call.
func (s Section) Segments() []segment.Segment {
	return segment.Split(s.Text)
}

var boundaries = []struct {
	kind  SectionKind
	token string
}{
	{English, stream.TokenEndOfEnglish},
	{HindiDevanagari, stream.TokenEndOfDevanagari},
	{HindiRoman, stream.TokenEndOfRoman},
}

// SplitSections splits the full accumulated text on the boundary tokens.
// A stray leading record prefix and any close sentinel are removed first.
// A section takes the kind of the boundary that closes it, so a skipped
// section does not swallow the next boundary. The open tail takes the kind
// following the last boundary seen. Sections whose trimmed text is empty are
// omitted, and anything after the Roman boundary is dropped.
func SplitSections(full string) []Section {
	full = strings.TrimPrefix(full, stream.RecordPrefix)
	full = strings.ReplaceAll(full, stream.TokenClose, "")

	sections := make([]Section, 0, len(boundaries))
	rest := full
	next := 0
	for next < len(boundaries) {
		at, pos := nextBoundary(rest, next)
		if at < 0 {
			if strings.TrimSpace(rest) != "" {
				sections = append(sections, Section{Kind: boundaries[next].kind, Text: rest})
			}
			break
		}

		b := boundaries[at]
		if text := rest[:pos]; strings.TrimSpace(text) != "" {
			sections = append(sections, Section{Kind: b.kind, Text: text, Closed: true})
		}
		rest = rest[pos+len(b.token):]
		next = at + 1
	}
	return sections
}

// nextBoundary finds the earliest token among boundaries[from:] in text and
// returns its boundary index and byte offset, or -1.
func nextBoundary(text string, from int) (int, int) {
	at, pos := -1, len(text)
	for i := from; i < len(boundaries); i++ {
		if p := strings.Index(text, boundaries[i].token); p >= 0 && p < pos {
			at, pos = i, p
		}
	}
	return at, pos
}

// Accumulator collects events in arrival order. It is owned by a single
// submission and is not safe for concurrent use.
type Accumulator struct {
	text   strings.Builder
	events int
	done   bool
}

// Append adds one event; error events are ignored. Boundary events write
// their spacer and then their token, so the spacer stays inside the section
// being closed.
func (a *Accumulator) Append(ev stream.Event) {
	if a.done || ev.Error != nil {
		return
	}
	a.events++
	switch ev.Kind {
	case stream.KindTerminator:
		a.done = true
	case stream.KindSectionBoundary:
		a.text.WriteString(ev.Text)
		a.text.WriteString(ev.Boundary.Token())
	default:
		a.text.WriteString(ev.Text)
	}
}

// Finish marks the answer complete without a terminator, e.g. after the
// connection dropped. Text received so far stays valid.
func (a *Accumulator) Finish() {
	a.done = true
}

// Text returns the full accumulated text, boundary tokens included.
func (a *Accumulator) Text() string {
	return a.text.String()
}

// Sections splits the accumulated text into language sections.
func (a *Accumulator) Sections() []Section {
	return SplitSections(a.text.String())
}

// Events returns the number of events appended.
func (a *Accumulator) Events() int {
	return a.events
}

func (a *Accumulator) Done() bool {
	return a.done
}

func (a *Accumulator) Reset() {
	a.text.Reset()
	a.events = 0
	a.done = false
}
