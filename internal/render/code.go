package render

import (
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	chromaStyles "github.com/alecthomas/chroma/v2/styles"
	"github.com/charmbracelet/lipgloss"
)

// CodeHighlighter renders code segments with chroma inside a bordered box.
type CodeHighlighter struct {
	style    *chroma.Style
	maxWidth int
}

func NewCodeHighlighter(styleName string, maxWidth int) *CodeHighlighter {
	style := chromaStyles.Get(styleName)
	if style == nil {
		style = chromaStyles.Fallback
	}
	return &CodeHighlighter{style: style, maxWidth: maxWidth}
}

// Block renders code with an optional language badge.
func (h *CodeHighlighter) Block(code, language string) string {
	var header string
	if language != "" {
		header = lipgloss.NewStyle().
			Foreground(lipgloss.Color("244")).
			Background(lipgloss.Color("236")).
			Padding(0, 1).
			Bold(true).
			Render(language) + "\n"
	}

	maxWidth := h.maxWidth - 4
	if maxWidth < 20 {
		maxWidth = 20
	}

	return lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")).
		Padding(0, 1).
		MaxWidth(maxWidth).
		Render(header + h.Highlight(code, language))
}

// Highlight returns code with ANSI colours, or the code unchanged when it
// cannot be tokenised.
func (h *CodeHighlighter) Highlight(code, language string) string {
	lexer := lexers.Get(language)
	if lexer == nil {
		lexer = lexers.Analyse(code)
	}
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	formatter := formatters.Get("terminal256")
	if formatter == nil {
		formatter = formatters.Fallback
	}

	iterator, err := lexer.Tokenise(nil, code)
	if err != nil {
		return code
	}

	var buf strings.Builder
	if err := formatter.Format(&buf, h.style, iterator); err != nil {
		return code
	}
	return strings.TrimRight(buf.String(), "\n")
}
