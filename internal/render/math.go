package render

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	inlineMathStyle = lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("81"))
	blockMathStyle  = lipgloss.NewStyle().
			Italic(true).
			Foreground(lipgloss.Color("81")).
			BorderStyle(lipgloss.NormalBorder()).
			BorderLeft(true).
			BorderForeground(lipgloss.Color("240")).
			PaddingLeft(1)
)

// NewTerminalMath returns a MathRenderer that shows the LaTeX source styled
// for a terminal. Typesetting is left to richer front ends.
func NewTerminalMath() MathRenderer {
	return MathFunc(func(expr string, block bool) string {
		if block {
			return blockMathStyle.Render(strings.Trim(expr, "\n"))
		}
		return inlineMathStyle.Render(expr)
	})
}

// DollarMath renders math back to its dollar-delimited source form.
var DollarMath = MathFunc(func(expr string, block bool) string {
	return "$" + expr + "$"
})
