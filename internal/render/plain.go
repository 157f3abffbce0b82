package render

import (
	"io"
	"strings"

	"github.com/markis/jawab/internal/answer"
	"github.com/markis/jawab/internal/segment"
)

// PlainRenderer writes sections without styling. Math keeps its dollar
// signs and code is fenced, so the output reads like the source answer.
type PlainRenderer struct {
	math   MathRenderer
	labels bool
}

func NewPlainRenderer(labels bool) *PlainRenderer {
	return &PlainRenderer{math: DollarMath, labels: labels}
}

func (p *PlainRenderer) RenderSection(w io.Writer, s answer.Section) error {
	_, err := io.WriteString(w, p.Section(s))
	return err
}

// Section renders s to a string.
func (p *PlainRenderer) Section(s answer.Section) string {
	var out strings.Builder
	if p.labels {
		out.WriteString("## " + s.Kind.String() + "\n\n")
	}
	for _, seg := range s.Segments() {
		switch seg.Kind {
		case segment.KindPlain:
			out.WriteString(seg.Text)
		case segment.KindInlineMath:
			out.WriteString(p.math.RenderMath(seg.Text, false))
		case segment.KindBlockMath:
			out.WriteString(p.math.RenderMath(seg.Text, true))
		case segment.KindCode:
			if out.Len() > 0 && !strings.HasSuffix(out.String(), "\n") {
				out.WriteString("\n")
			}
			out.WriteString("```" + seg.Language + "\n" + seg.Text + "\n```\n")
		}
	}
	if !strings.HasSuffix(out.String(), "\n") {
		out.WriteString("\n")
	}
	return out.String()
}
