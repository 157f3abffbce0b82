package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/markis/jawab/internal/answer"
	"github.com/markis/jawab/internal/segment"
	"github.com/markis/jawab/internal/stream"
)

// Streamer feeds events into an accumulator and writes each section as soon
// as it is frozen. In raw mode fragment text is written as it arrives and no
// segmentation happens.
type Streamer struct {
	renderer Renderer
	out      io.Writer
	raw      bool
	styled   bool
	acc      answer.Accumulator
	written  int
}

func NewStreamer(r Renderer, out io.Writer) *Streamer {
	return &Streamer{renderer: r, out: out}
}

// NewRawStreamer writes fragments verbatim, with control tokens replaced.
// When styled is set, Hindi and math fragments are coloured by their tag.
func NewRawStreamer(out io.Writer, styled bool) *Streamer {
	return &Streamer{out: out, raw: true, styled: styled}
}

// Render consumes events until the channel closes. Sections received before
// a stream error are still written; the error is then returned.
func (s *Streamer) Render(events <-chan stream.Event) error {
	for ev := range events {
		if ev.Error != nil {
			s.acc.Finish()
			if err := s.flush(true); err != nil {
				return err
			}
			return fmt.Errorf("stream error: %w", ev.Error)
		}

		s.acc.Append(ev)
		if s.raw {
			text := segment.ReplaceTokens(ev.Text)
			if s.styled {
				text = styleFragment(text, ev.Tag)
			}
			if _, err := io.WriteString(s.out, text); err != nil {
				return err
			}
			continue
		}
		if err := s.flush(false); err != nil {
			return err
		}
	}

	s.acc.Finish()
	return s.flush(true)
}

// Accumulator exposes the collected answer.
func (s *Streamer) Accumulator() *answer.Accumulator {
	return &s.acc
}

// flush writes closed sections not yet written, or every remaining section
// once the stream is over. Only the last section can still be open, so the
// written prefix never changes.
func (s *Streamer) flush(final bool) error {
	if s.raw {
		if final && s.acc.Events() > 0 {
			_, err := io.WriteString(s.out, "\n")
			return err
		}
		return nil
	}

	sections := s.acc.Sections()
	for s.written < len(sections) {
		sec := sections[s.written]
		if !sec.Closed && !final {
			break
		}
		if err := s.renderer.RenderSection(s.out, sec); err != nil {
			return err
		}
		s.written++
	}
	return nil
}

var hindiStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))

// styleFragment colours a raw fragment by its language tag. English and
// whitespace-only fragments are left alone.
func styleFragment(text string, tag stream.Tag) string {
	if strings.TrimSpace(text) == "" {
		return text
	}
	switch tag {
	case stream.TagMath:
		return inlineMathStyle.Render(text)
	case stream.TagHindi:
		return hindiStyle.Render(text)
	default:
		return text
	}
}
