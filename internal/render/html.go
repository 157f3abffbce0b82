package render

import (
	"bytes"
	"fmt"
	"html"
	"io"
	"strings"

	"github.com/yuin/goldmark"
	gmhtml "github.com/yuin/goldmark/renderer/html"

	"github.com/markis/jawab/internal/answer"
	"github.com/markis/jawab/internal/segment"
)

// HTMLRenderer writes each section as an HTML fragment. Prose is converted
// with goldmark; math is emitted as \( \) and \[ \] spans for a client-side
// typesetter such as KaTeX auto-render.
type HTMLRenderer struct {
	md     goldmark.Markdown
	labels bool
}

func NewHTMLRenderer(labels bool) *HTMLRenderer {
	return &HTMLRenderer{
		md: goldmark.New(
			goldmark.WithRendererOptions(gmhtml.WithHardWraps()),
		),
		labels: labels,
	}
}

func (h *HTMLRenderer) RenderSection(w io.Writer, s answer.Section) error {
	out, err := h.Section(s)
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, out)
	return err
}

// Section renders s to an HTML string.
func (h *HTMLRenderer) Section(s answer.Section) (string, error) {
	var out strings.Builder
	fmt.Fprintf(&out, "<section class=\"answer-section\" lang=\"%s\">\n", s.Kind.Language())
	if h.labels {
		fmt.Fprintf(&out, "<h2>%s</h2>\n", html.EscapeString(s.Kind.String()))
	}

	// Inline math is swapped for placeholders while goldmark runs so that
	// surrounding prose stays in one paragraph.
	var prose strings.Builder
	var inlineMath []string
	flush := func() error {
		if strings.TrimSpace(prose.String()) == "" {
			prose.Reset()
			inlineMath = inlineMath[:0]
			return nil
		}
		var buf bytes.Buffer
		if err := h.md.Convert([]byte(prose.String()), &buf); err != nil {
			return fmt.Errorf("failed to convert markdown: %w", err)
		}
		rendered := buf.String()
		for i, expr := range inlineMath {
			rendered = strings.Replace(rendered, placeholder(i),
				`<span class="math inline">\(`+html.EscapeString(expr)+`\)</span>`, 1)
		}
		out.WriteString(rendered)
		prose.Reset()
		inlineMath = inlineMath[:0]
		return nil
	}

	for _, seg := range s.Segments() {
		switch seg.Kind {
		case segment.KindPlain:
			prose.WriteString(seg.Text)
		case segment.KindInlineMath:
			prose.WriteString(placeholder(len(inlineMath)))
			inlineMath = append(inlineMath, seg.Text)
		case segment.KindBlockMath:
			if err := flush(); err != nil {
				return "", err
			}
			fmt.Fprintf(&out, "<div class=\"math display\">\\[%s\\]</div>\n", html.EscapeString(seg.Text))
		case segment.KindCode:
			if err := flush(); err != nil {
				return "", err
			}
			out.WriteString("<pre><code")
			if seg.Language != "" {
				fmt.Fprintf(&out, " class=\"language-%s\"", html.EscapeString(seg.Language))
			}
			fmt.Fprintf(&out, ">%s</code></pre>\n", html.EscapeString(seg.Text))
		}
	}
	if err := flush(); err != nil {
		return "", err
	}

	out.WriteString("</section>\n")
	return out.String(), nil
}

// placeholder uses private-use code points, which goldmark passes through.
func placeholder(i int) string {
	return fmt.Sprintf("\uE000%d\uE001", i)
}
