package stream

import (
	"context"
	"log/slog"
)

// Wire protocol tokens.
const (
	RecordPrefix = "data: "

	TokenClose           = "CLOSE_CONNECTION"
	TokenNewline         = "<newline>"
	TokenEndOfEnglish    = "<end_of_english>"
	TokenEndOfDevanagari = "<end_of_hindi_devanagari>"
	TokenEndOfRoman      = "<end_of_hindi_roman>"
)

// Kind identifies what a decoded event carries.
type Kind int

const (
	KindPlain Kind = iota
	KindNewline
	KindSectionBoundary
	KindTerminator
)

func (k Kind) String() string {
	switch k {
	case KindPlain:
		return "plain"
	case KindNewline:
		return "newline"
	case KindSectionBoundary:
		return "section_boundary"
	case KindTerminator:
		return "terminator"
	default:
		return "unknown"
	}
}

// Tag is the per-fragment language hint for plain events. It is only used
// for styling; segmentation works from the accumulated text.
type Tag int

const (
	TagNone Tag = iota
	TagEnglish
	TagHindi
	TagMath
)

func (t Tag) String() string {
	switch t {
	case TagEnglish:
		return "english"
	case TagHindi:
		return "hindi"
	case TagMath:
		return "latex"
	default:
		return ""
	}
}

// Boundary names the section a boundary event closes.
type Boundary int

const (
	BoundaryNone Boundary = iota
	BoundaryEndOfEnglish
	BoundaryEndOfDevanagari
	BoundaryEndOfRoman
)

// Token returns the wire token for the boundary.
func (b Boundary) Token() string {
	switch b {
	case BoundaryEndOfEnglish:
		return TokenEndOfEnglish
	case BoundaryEndOfDevanagari:
		return TokenEndOfDevanagari
	case BoundaryEndOfRoman:
		return TokenEndOfRoman
	default:
		return ""
	}
}

// Spacer is the visible text appended when the boundary fires.
func (b Boundary) Spacer() string {
	switch b {
	case BoundaryEndOfEnglish:
		return "\n\n\n"
	case BoundaryEndOfDevanagari:
		return "\n"
	default:
		return ""
	}
}

// Event represents one decoded fragment of the answer stream
type Event struct {
	Text     string
	Kind     Kind
	Tag      Tag
	Boundary Boundary
	Error    error
}

// Parser handles the processing of raw stream data into events
type Parser struct {
	ctx    context.Context
	events chan Event
	logger *slog.Logger
}

func NewParser(ctx context.Context, logger *slog.Logger) *Parser {
	if logger == nil {
		logger = slog.Default()
	}
	return &Parser{
		ctx:    ctx,
		events: make(chan Event),
		logger: logger,
	}
}

func (p *Parser) Events() <-chan Event {
	return p.events
}
