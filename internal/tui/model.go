// Package tui is the interactive form: a question box, a Hindi/English
// ratio control and a viewport that shows the answer while it streams.
package tui

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/markis/jawab/internal/answer"
	"github.com/markis/jawab/internal/client"
	"github.com/markis/jawab/internal/render"
	"github.com/markis/jawab/internal/stream"
)

const (
	ratioStep    = 0.05
	headerHeight = 7

	msgQuestionRequired = "Question required: Please enter a question"
	msgFetchFailed      = "Failed to fetch answer. Please try again."
)

// Asker starts an answer stream. *client.Client implements it.
type Asker interface {
	Stream(ctx context.Context, q client.Question) (*stream.Parser, error)
}

type focus int

const (
	focusQuestion focus = iota
	focusRatio
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
	activeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("212"))
	hintStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	noticeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
)

// Options configures a Model.
type Options struct {
	Ratio  float64
	Render render.TerminalOptions
	Logger *slog.Logger
}

type (
	streamStartedMsg struct {
		events <-chan stream.Event
	}
	startFailedMsg struct {
		err error
	}
	eventMsg struct {
		event stream.Event
	}
	streamClosedMsg struct{}
)

// Model is the bubbletea model for the form.
type Model struct {
	ctx    context.Context
	asker  Asker
	logger *slog.Logger

	input    textinput.Model
	spinner  spinner.Model
	viewport viewport.Model
	renderer *render.TerminalRenderer
	opts     render.TerminalOptions

	focus   focus
	ratio   float64
	loading bool
	notice  string

	acc    *answer.Accumulator
	events <-chan stream.Event
	cancel context.CancelFunc
}

func New(ctx context.Context, asker Asker, opts Options) (Model, error) {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	r, err := render.NewTerminalRenderer(opts.Render)
	if err != nil {
		return Model{}, err
	}

	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask a question..."
	ti.CharLimit = 4096
	ti.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return Model{
		ctx:      ctx,
		asker:    asker,
		logger:   opts.Logger,
		input:    ti,
		spinner:  sp,
		viewport: viewport.New(80, 20),
		renderer: r,
		opts:     opts.Render,
		ratio:    clampRatio(opts.Ratio),
		acc:      &answer.Accumulator{},
	}, nil
}

func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		return m.handleResize(msg)

	case spinner.TickMsg:
		if !m.loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case streamStartedMsg:
		m.events = msg.events
		return m, waitForEvent(m.events)

	case startFailedMsg:
		m.logger.Warn("answer request failed", "error", msg.err)
		m.finish()
		m.notice = msgFetchFailed
		return m, nil

	case eventMsg:
		if msg.event.Error != nil {
			m.logger.Warn("answer stream failed", "error", msg.event.Error)
			m.finish()
			m.notice = msgFetchFailed
			m.refresh()
			return m, nil
		}
		m.acc.Append(msg.event)
		m.refresh()
		return m, waitForEvent(m.events)

	case streamClosedMsg:
		m.acc.Finish()
		m.finish()
		m.refresh()
		return m, nil
	}

	var inputCmd, vpCmd tea.Cmd
	m.input, inputCmd = m.input.Update(msg)
	m.viewport, vpCmd = m.viewport.Update(msg)
	return m, tea.Batch(inputCmd, vpCmd)
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "esc":
		if m.cancel != nil {
			m.cancel()
			m.cancel = nil
		}
		return m, tea.Quit

	case "tab", "shift+tab":
		if m.focus == focusQuestion {
			m.focus = focusRatio
			m.input.Blur()
		} else {
			m.focus = focusQuestion
			m.input.Focus()
		}
		return m, nil

	case "enter":
		return m.submit()

	case "pgup", "pgdown":
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	if m.focus == focusRatio {
		switch msg.String() {
		case "left", "h":
			m.ratio = clampRatio(m.ratio - ratioStep)
		case "right", "l":
			m.ratio = clampRatio(m.ratio + ratioStep)
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) handleResize(msg tea.WindowSizeMsg) (tea.Model, tea.Cmd) {
	m.viewport.Width = msg.Width
	m.viewport.Height = max(msg.Height-headerHeight, 1)
	m.input.Width = max(msg.Width-4, 10)

	opts := m.opts
	if opts.Wrap <= 0 || opts.Wrap > msg.Width {
		opts.Wrap = msg.Width
	}
	if r, err := render.NewTerminalRenderer(opts); err == nil {
		m.renderer = r
	} else {
		m.logger.Debug("keeping previous renderer", "error", err)
	}
	m.refresh()
	return m, nil
}

// submit starts a stream for the current question. Only one stream runs at
// a time.
func (m Model) submit() (tea.Model, tea.Cmd) {
	if m.loading {
		return m, nil
	}

	q := client.Question{Text: strings.TrimSpace(m.input.Value()), Ratio: m.ratio}
	if q.Text == "" {
		m.notice = msgQuestionRequired
		return m, nil
	}

	ctx, cancel := context.WithCancel(m.ctx)
	m.cancel = cancel
	m.loading = true
	m.notice = ""
	m.acc.Reset()
	m.events = nil
	m.refresh()

	return m, tea.Batch(m.spinner.Tick, startStream(ctx, m.asker, q))
}

// finish releases the stream context and leaves the loading state.
func (m *Model) finish() {
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
	m.loading = false
	m.events = nil
}

// refresh re-renders every section of the answer received so far.
func (m *Model) refresh() {
	var b strings.Builder
	for _, sec := range m.acc.Sections() {
		out, err := m.renderer.Section(sec)
		if err != nil {
			m.logger.Debug("failed to render section", "section", sec.Kind.String(), "error", err)
			out = sec.Text
		}
		b.WriteString(out)
		b.WriteString("\n")
	}
	m.viewport.SetContent(b.String())
	m.viewport.GotoBottom()
}

func (m Model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("jawab"))
	b.WriteString("\n\n")
	b.WriteString(m.input.View())
	b.WriteString("\n")
	b.WriteString(m.ratioView())
	b.WriteString("\n")

	switch {
	case m.loading:
		b.WriteString(m.spinner.View() + " Generating answer...")
	case m.notice != "":
		b.WriteString(noticeStyle.Render(m.notice))
	}
	b.WriteString("\n\n")
	b.WriteString(m.viewport.View())
	b.WriteString("\n")
	b.WriteString(hintStyle.Render("enter: ask  tab: switch field  ←/→: ratio  pgup/pgdown: scroll  esc: quit"))
	return b.String()
}

func (m Model) ratioView() string {
	label := fmt.Sprintf("Ratio: %.2f", m.ratio)
	if m.focus == focusRatio {
		label = activeStyle.Render(label)
	}
	return label + hintStyle.Render("  ◀ More Hindi | More English ▶")
}

// Ratio reports the current Hindi/English balance.
func (m Model) Ratio() float64 {
	return m.ratio
}

// Loading reports whether a stream is in flight.
func (m Model) Loading() bool {
	return m.loading
}

// Notice is the current user-facing message, if any.
func (m Model) Notice() string {
	return m.notice
}

// Answer exposes the accumulated answer.
func (m Model) Answer() *answer.Accumulator {
	return m.acc
}

func startStream(ctx context.Context, asker Asker, q client.Question) tea.Cmd {
	return func() tea.Msg {
		p, err := asker.Stream(ctx, q)
		if err != nil {
			return startFailedMsg{err: err}
		}
		return streamStartedMsg{events: p.Events()}
	}
}

func waitForEvent(events <-chan stream.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return streamClosedMsg{}
		}
		return eventMsg{event: ev}
	}
}

func clampRatio(r float64) float64 {
	r = math.Round(r*100) / 100
	return math.Min(1, math.Max(0, r))
}
