package tui

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/markis/jawab/internal/answer"
	"github.com/markis/jawab/internal/client"
	"github.com/markis/jawab/internal/render"
	"github.com/markis/jawab/internal/stream"
)

const sampleWire = "data: Hello<newline>World\n" +
	"data: <end_of_english>\n" +
	"data: नमस्ते\n" +
	"data: <end_of_hindi_devanagari>\n" +
	"data: CLOSE_CONNECTION\n"

// fakeAsker serves a fixed wire stream, optionally followed by a read error.
type fakeAsker struct {
	wire      string
	readErr   error
	startErr  error
	questions []client.Question
}

func (f *fakeAsker) Stream(ctx context.Context, q client.Question) (*stream.Parser, error) {
	f.questions = append(f.questions, q)
	if f.startErr != nil {
		return nil, f.startErr
	}

	var body io.Reader = strings.NewReader(f.wire)
	if f.readErr != nil {
		body = io.MultiReader(body, iotest.ErrReader(f.readErr))
	}
	p := stream.NewParser(ctx, nil)
	go p.Process(io.NopCloser(body))
	return p, nil
}

func newModel(t *testing.T, asker Asker) Model {
	t.Helper()
	m, err := New(context.Background(), asker, Options{
		Ratio:  0.8,
		Render: render.TerminalOptions{Wrap: 80, Theme: "notty", Labels: true},
	})
	require.NoError(t, err)
	return m
}

func key(t tea.KeyType) tea.KeyMsg {
	return tea.KeyMsg{Type: t}
}

func typeText(m Model, text string) Model {
	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(text)})
	return next.(Model)
}

// drive runs cmd and every command that follows from it until the stream
// settles. Spinner ticks are dropped so the loop terminates.
func drive(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	queue := []tea.Cmd{cmd}
	for len(queue) > 0 {
		c := queue[0]
		queue = queue[1:]
		if c == nil {
			continue
		}
		switch msg := c().(type) {
		case tea.BatchMsg:
			queue = append(queue, msg...)
		case spinner.TickMsg:
		default:
			next, nc := m.Update(msg)
			m = next.(Model)
			queue = append(queue, nc)
		}
	}
	return m
}

func TestModel_BlankQuestion(t *testing.T) {
	asker := &fakeAsker{wire: sampleWire}
	m := typeText(newModel(t, asker), "   ")

	next, cmd := m.Update(key(tea.KeyEnter))
	m = next.(Model)

	assert.Nil(t, cmd)
	assert.False(t, m.Loading())
	assert.Equal(t, "Question required: Please enter a question", m.Notice())
	assert.Contains(t, m.View(), "Question required")
	assert.Empty(t, asker.questions)
}

func TestModel_StreamsAnswer(t *testing.T) {
	asker := &fakeAsker{wire: sampleWire}
	m := typeText(newModel(t, asker), "Say hello")

	next, cmd := m.Update(key(tea.KeyEnter))
	m = next.(Model)
	require.NotNil(t, cmd)
	assert.True(t, m.Loading())
	assert.Contains(t, m.View(), "Generating answer...")

	m = drive(t, m, cmd)

	require.Len(t, asker.questions, 1)
	assert.Equal(t, client.Question{Text: "Say hello", Ratio: 0.8}, asker.questions[0])

	assert.False(t, m.Loading())
	assert.Empty(t, m.Notice())
	assert.True(t, m.Answer().Done())

	sections := m.Answer().Sections()
	require.Len(t, sections, 2)
	assert.Equal(t, answer.English, sections[0].Kind)
	assert.Equal(t, answer.HindiDevanagari, sections[1].Kind)

	view := m.View()
	assert.Contains(t, view, "Hello")
	assert.Contains(t, view, "World")
	assert.NotContains(t, view, "Generating answer...")
}

func TestModel_NoResubmitWhileLoading(t *testing.T) {
	asker := &fakeAsker{wire: sampleWire}
	m := typeText(newModel(t, asker), "first")

	next, cmd := m.Update(key(tea.KeyEnter))
	m = next.(Model)
	require.NotNil(t, cmd)

	next, again := m.Update(key(tea.KeyEnter))
	m = next.(Model)
	assert.Nil(t, again)

	m = drive(t, m, cmd)
	assert.Len(t, asker.questions, 1)
	assert.False(t, m.Loading())
}

func TestModel_StartFailure(t *testing.T) {
	asker := &fakeAsker{startErr: errors.New("connection refused")}
	m := typeText(newModel(t, asker), "anything")

	next, cmd := m.Update(key(tea.KeyEnter))
	m = drive(t, next.(Model), cmd)

	assert.False(t, m.Loading())
	assert.Equal(t, "Failed to fetch answer. Please try again.", m.Notice())
	assert.Contains(t, m.View(), "Failed to fetch answer")
}

func TestModel_StreamFailureKeepsPartialAnswer(t *testing.T) {
	asker := &fakeAsker{wire: "data: Namaste\n", readErr: errors.New("connection reset")}
	m := typeText(newModel(t, asker), "greet")

	next, cmd := m.Update(key(tea.KeyEnter))
	m = drive(t, next.(Model), cmd)

	assert.False(t, m.Loading())
	assert.Equal(t, "Failed to fetch answer. Please try again.", m.Notice())
	assert.Equal(t, "Namaste", m.Answer().Text())
	assert.Contains(t, m.View(), "Namaste")
}

func TestModel_RatioControl(t *testing.T) {
	m := newModel(t, &fakeAsker{})

	update := func(k tea.KeyType) {
		next, _ := m.Update(key(k))
		m = next.(Model)
	}

	// Arrows edit the question until focus moves to the ratio.
	update(tea.KeyRight)
	assert.InDelta(t, 0.8, m.Ratio(), 1e-9)

	update(tea.KeyTab)
	update(tea.KeyRight)
	update(tea.KeyRight)
	update(tea.KeyRight)
	assert.InDelta(t, 0.95, m.Ratio(), 1e-9)
	assert.Contains(t, m.View(), "Ratio: 0.95")

	update(tea.KeyRight)
	update(tea.KeyRight)
	assert.InDelta(t, 1.0, m.Ratio(), 1e-9)

	for range 25 {
		update(tea.KeyLeft)
	}
	assert.InDelta(t, 0.0, m.Ratio(), 1e-9)
	assert.Contains(t, m.View(), "More Hindi")
}

func TestModel_QuitCancelsStream(t *testing.T) {
	asker := &fakeAsker{wire: sampleWire}
	m := typeText(newModel(t, asker), "question")

	next, _ := m.Update(key(tea.KeyEnter))
	m = next.(Model)
	require.NotNil(t, m.cancel)

	next, cmd := m.Update(key(tea.KeyEsc))
	m = next.(Model)
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.Nil(t, m.cancel)
}

func TestClampRatio(t *testing.T) {
	assert.InDelta(t, 0.85, clampRatio(0.8+0.05), 1e-9)
	assert.InDelta(t, 1.0, clampRatio(1.2), 1e-9)
	assert.InDelta(t, 0.0, clampRatio(-0.3), 1e-9)
}
