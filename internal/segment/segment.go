// Package segment classifies accumulated answer text into renderable
// segments: plain text, inline or block math, and code.
package segment

import (
	"regexp"
	"strings"
)

const (
	fence = "```"

	newlineToken         = "<newline>"
	endOfEnglishToken    = "<end_of_english>"
	endOfDevanagariToken = "<end_of_hindi_devanagari>"
	endOfRomanToken      = "<end_of_hindi_roman>"
)

// Kind is the type of a segment.
type Kind int

const (
	KindPlain Kind = iota
	KindInlineMath
	KindBlockMath
	KindCode
)

func (k Kind) String() string {
	switch k {
	case KindPlain:
		return "plain"
	case KindInlineMath:
		return "inline_math"
	case KindBlockMath:
		return "block_math"
	case KindCode:
		return "code"
	default:
		return "unknown"
	}
}

// Segment is one classified unit of a section. Text holds the plain text,
// the LaTeX expression without its dollar signs, or the code body.
type Segment struct {
	Kind     Kind
	Text     string
	Language string
}

func Plain(text string) Segment          { return Segment{Kind: KindPlain, Text: text} }
func InlineMath(expr string) Segment     { return Segment{Kind: KindInlineMath, Text: expr} }
func BlockMath(expr string) Segment      { return Segment{Kind: KindBlockMath, Text: expr} }
func Code(code, language string) Segment { return Segment{Kind: KindCode, Text: code, Language: language} }

var (
	languageTag = regexp.MustCompile(`^[A-Za-z0-9+\-]{1,20}$`)
	mathSpan    = regexp.MustCompile(`(?s)\$(.*?)\$`)

	// codeIntroducers start text that is treated as a single code body.
	// Prose that happens to start with one of these is misclassified.
	codeIntroducers = []string{"def ", "import ", "from ", "print(", "class "}

	// textTokens maps tokens left in plain text to the spacing their
	// boundary stands for.
	textTokens = strings.NewReplacer(
		newlineToken, "\n",
		endOfEnglishToken, "\n\n\n",
		endOfDevanagariToken, "\n",
		endOfRomanToken, "",
	)

	mathTokens = strings.NewReplacer(
		newlineToken, "\n",
		endOfEnglishToken, "\n\n\n",
		endOfDevanagariToken, "\n\n\n",
		endOfRomanToken, "\n",
	)
)

// Split partitions text into segments. The first matching rule decides for
// the whole text: fenced code, then math, then keyword-detected code, then
// plain text. Split keeps no state and may be called on every update.
func Split(text string) []Segment {
	switch {
	case strings.Count(text, fence) >= 2:
		return splitFenced(text)
	case strings.Contains(text, "$"):
		return SplitMath(mathTokens.Replace(text))
	case looksLikeCode(text):
		code, lang := extractLanguage(strings.TrimSpace(text))
		return []Segment{Code(code, lang)}
	case text == "":
		return nil
	default:
		return []Segment{Plain(ReplaceTokens(text))}
	}
}

// ReplaceTokens substitutes newline tokens with line breaks and stray
// boundary tokens with their spacing, so no control token is displayed.
func ReplaceTokens(text string) string {
	return textTokens.Replace(text)
}

func splitFenced(text string) []Segment {
	parts := strings.Split(text, fence)
	segments := make([]Segment, 0, len(parts))
	for i, part := range parts {
		if i%2 == 0 {
			if part = ReplaceTokens(part); strings.TrimSpace(part) != "" {
				segments = append(segments, Plain(part))
			}
			continue
		}
		code, lang := extractLanguage(part)
		if code == "" && lang == "" {
			continue
		}
		segments = append(segments, Code(code, lang))
	}
	return segments
}

// extractLanguage replaces tokens in a code body and splits off a
// leading language tag line.
func extractLanguage(body string) (code, language string) {
	body = ReplaceTokens(body)
	first, rest, _ := strings.Cut(body, "\n")
	if tag := strings.TrimRight(first, "\r"); languageTag.MatchString(tag) {
		return strings.Trim(rest, "\r\n"), tag
	}
	return strings.Trim(body, "\r\n"), ""
}

func looksLikeCode(text string) bool {
	trimmed := strings.TrimSpace(ReplaceTokens(text))
	for _, kw := range codeIntroducers {
		if strings.HasPrefix(trimmed, kw) {
			return true
		}
	}
	return false
}

// SplitMath splits text on paired dollar signs. A span whose interior
// contains a line break is block math, otherwise inline math. Text outside
// the pairs is plain; an unpaired dollar sign stays in the plain text.
func SplitMath(text string) []Segment {
	var segments []Segment
	last := 0
	for _, loc := range mathSpan.FindAllStringSubmatchIndex(text, -1) {
		if loc[0] > last {
			segments = append(segments, Plain(text[last:loc[0]]))
		}
		last = loc[1]

		expr := text[loc[2]:loc[3]]
		switch {
		case strings.TrimSpace(expr) == "":
			continue
		case strings.Contains(expr, "\n"):
			segments = append(segments, BlockMath(expr))
		default:
			segments = append(segments, InlineMath(expr))
		}
	}
	if last < len(text) {
		segments = append(segments, Plain(text[last:]))
	}
	return segments
}
