// Package render writes classified answer sections to an output. The
// terminal renderer styles them, the plain renderer reproduces the source
// text without control tokens and the HTML renderer emits fragments for a
// browser-side math typesetter.
package render

import (
	"fmt"
	"io"

	"github.com/markis/jawab/internal/answer"
	"github.com/markis/jawab/internal/config"
)

// Renderer writes one section.
type Renderer interface {
	RenderSection(w io.Writer, s answer.Section) error
}

// MathRenderer turns a LaTeX expression into displayable output. Block is
// set for display math spanning lines.
type MathRenderer interface {
	RenderMath(expr string, block bool) string
}

// MathFunc adapts a function to MathRenderer.
type MathFunc func(expr string, block bool) string

func (f MathFunc) RenderMath(expr string, block bool) string {
	return f(expr, block)
}

// New returns the renderer for the configured format. width is used when the
// configuration leaves wrapping unset.
func New(cfg config.RenderConfig, width int) (Renderer, error) {
	wrap := cfg.Wrap
	if wrap <= 0 {
		wrap = width
	}

	switch cfg.Format {
	case config.FormatTerminal:
		return NewTerminalRenderer(TerminalOptions{
			Wrap:      wrap,
			Theme:     cfg.Theme,
			CodeStyle: cfg.CodeStyle,
			Labels:    cfg.Labels,
		})
	case config.FormatPlain:
		return NewPlainRenderer(cfg.Labels), nil
	case config.FormatHTML:
		return NewHTMLRenderer(cfg.Labels), nil
	default:
		return nil, fmt.Errorf("unknown render format %q", cfg.Format)
	}
}

// RenderAll writes every section in order.
func RenderAll(r Renderer, w io.Writer, sections []answer.Section) error {
	for _, s := range sections {
		if err := r.RenderSection(w, s); err != nil {
			return err
		}
	}
	return nil
}
