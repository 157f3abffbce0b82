package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/cli/go-gh/v2/pkg/markdown"
	"github.com/mattn/go-runewidth"

	"github.com/markis/jawab/internal/answer"
	"github.com/markis/jawab/internal/segment"
)

const (
	defaultWrap = 100
	maxWrap     = 120
)

var (
	labelStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
	ruleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

type TerminalOptions struct {
	Wrap      int
	Theme     string
	CodeStyle string
	Labels    bool
}

// TerminalRenderer styles sections for an ANSI terminal: prose through
// glamour, math through a MathRenderer and code through chroma.
type TerminalRenderer struct {
	markdown *glamour.TermRenderer
	math     MathRenderer
	code     *CodeHighlighter
	labels   bool
	wrap     int
}

func NewTerminalRenderer(opts TerminalOptions) (*TerminalRenderer, error) {
	wrap := opts.Wrap
	if wrap <= 0 {
		wrap = defaultWrap
	}
	if wrap > maxWrap {
		wrap = maxWrap
	}

	style := glamour.WithAutoStyle()
	if opts.Theme != "" && opts.Theme != "auto" {
		style = markdown.WithTheme(opts.Theme)
	}
	md, err := glamour.NewTermRenderer(
		markdown.WithWrap(wrap),
		style,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create markdown renderer: %w", err)
	}

	return &TerminalRenderer{
		markdown: md,
		math:     NewTerminalMath(),
		code:     NewCodeHighlighter(opts.CodeStyle, wrap),
		labels:   opts.Labels,
		wrap:     wrap,
	}, nil
}

// WithMath replaces the math renderer.
func (t *TerminalRenderer) WithMath(m MathRenderer) *TerminalRenderer {
	t.math = m
	return t
}

func (t *TerminalRenderer) RenderSection(w io.Writer, s answer.Section) error {
	out, err := t.Section(s)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, out)
	return err
}

// Section renders s to a string.
func (t *TerminalRenderer) Section(s answer.Section) (string, error) {
	var out strings.Builder
	if t.labels {
		out.WriteString(t.label(s.Kind))
		out.WriteString("\n")
	}
	body, err := t.renderSegments(s.Segments())
	if err != nil {
		return "", err
	}
	out.WriteString(body)
	return out.String(), nil
}

func (t *TerminalRenderer) label(kind answer.SectionKind) string {
	name := kind.String()
	rule := strings.Repeat("─", runewidth.StringWidth(name))
	return labelStyle.Render(name) + "\n" + ruleStyle.Render(rule)
}

// renderSegments joins runs of plain text and inline math into paragraphs
// and puts block math and code on their own lines.
func (t *TerminalRenderer) renderSegments(segments []segment.Segment) (string, error) {
	hasMath := false
	for _, seg := range segments {
		if seg.Kind == segment.KindInlineMath || seg.Kind == segment.KindBlockMath {
			hasMath = true
			break
		}
	}

	var out, inline strings.Builder
	flush := func() error {
		if inline.Len() == 0 {
			return nil
		}
		text := inline.String()
		inline.Reset()
		rendered, err := t.renderProse(text, hasMath)
		if err != nil {
			return err
		}
		if rendered != "" {
			out.WriteString(rendered)
			out.WriteString("\n")
		}
		return nil
	}

	for _, seg := range segments {
		switch seg.Kind {
		case segment.KindPlain:
			inline.WriteString(seg.Text)
		case segment.KindInlineMath:
			inline.WriteString(t.math.RenderMath(seg.Text, false))
		case segment.KindBlockMath:
			if err := flush(); err != nil {
				return "", err
			}
			out.WriteString(t.math.RenderMath(seg.Text, true))
			out.WriteString("\n")
		case segment.KindCode:
			if err := flush(); err != nil {
				return "", err
			}
			out.WriteString(t.code.Block(seg.Text, seg.Language))
			out.WriteString("\n")
		}
	}
	if err := flush(); err != nil {
		return "", err
	}
	return strings.TrimRight(out.String(), "\n"), nil
}

// renderProse formats plain text. Prose mixed with math keeps its line
// breaks and is only wrapped; math-free prose goes through glamour.
func (t *TerminalRenderer) renderProse(text string, preformatted bool) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", nil
	}
	if preformatted {
		return lipgloss.NewStyle().Width(t.wrap).Render(strings.Trim(text, "\n")), nil
	}

	content := strings.TrimSpace(text)
	// Keep single line breaks, which markdown would otherwise fold.
	content = strings.ReplaceAll(content, "\n", "  \n")

	mdContent, err := t.markdown.Render(content)
	if err != nil {
		return "", fmt.Errorf("failed to render markdown: %w", err)
	}
	return strings.TrimSpace(mdContent), nil
}
