package args

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/markis/jawab/internal/config"
)

func defaults() config.Config {
	return *config.NewDefaultConfig()
}

func TestParse_QuestionFromArgs(t *testing.T) {
	got, err := parse(context.Background(), defaults(), []string{"--format", "html", "What", "is", "2+2?"}, nil, &bytes.Buffer{})
	require.NoError(t, err)

	assert.Equal(t, CommandAsk, got.Command)
	assert.Equal(t, "What is 2+2?", got.Question)
	assert.Equal(t, 0.8, got.Ratio)
	assert.Equal(t, "http://localhost:8089", got.Endpoint)
	assert.Equal(t, 5*time.Minute, got.Timeout)
	assert.Equal(t, config.FormatHTML, got.Format)
	assert.True(t, got.Labels)
	assert.False(t, got.Raw)
}

func TestParse_Flags(t *testing.T) {
	argv := []string{"-r", "0.25", "--endpoint", "http://example.test:9000", "--timeout", "30s", "--plain", "--labels=false", "--raw", "why?"}
	got, err := parse(context.Background(), defaults(), argv, nil, &bytes.Buffer{})
	require.NoError(t, err)

	assert.Equal(t, 0.25, got.Ratio)
	assert.Equal(t, "http://example.test:9000", got.Endpoint)
	assert.Equal(t, 30*time.Second, got.Timeout)
	assert.Equal(t, config.FormatPlain, got.Format)
	assert.False(t, got.Labels)
	assert.True(t, got.Raw)
	assert.Equal(t, "why?", got.Question)
}

func TestParse_ConfigProvidesDefaults(t *testing.T) {
	cfg := defaults()
	cfg.Ratio = 0.3
	cfg.Endpoint = "https://jawab.example"
	cfg.Render.Format = config.FormatHTML
	cfg.Render.Labels = false

	got, err := parse(context.Background(), cfg, []string{"hello"}, nil, &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, 0.3, got.Ratio)
	assert.Equal(t, "https://jawab.example", got.Endpoint)
	assert.Equal(t, config.FormatHTML, got.Format)
	assert.False(t, got.Labels)
}

func TestParse_Stdin(t *testing.T) {
	stdin := strings.NewReader("  integrate x^2\nfrom 0 to 1  \n")

	got, err := parse(context.Background(), defaults(), []string{"--plain", "Explain:"}, stdin, &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, "Explain:\nintegrate x^2\nfrom 0 to 1", got.Question)

	got, err = parse(context.Background(), defaults(), []string{"--plain"}, strings.NewReader("only stdin\n"), &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, "only stdin", got.Question)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		argv []string
		want string
	}{
		{name: "no question", argv: []string{"--plain"}, want: "no question provided"},
		{name: "blank question", argv: []string{"--plain", "   "}, want: "no question provided"},
		{name: "ratio too high", argv: []string{"--ratio", "1.5", "hi"}, want: "ratio must be between 0 and 1"},
		{name: "ratio negative", argv: []string{"--ratio=-0.1", "hi"}, want: "ratio must be between 0 and 1"},
		{name: "unknown format", argv: []string{"--format", "pdf", "hi"}, want: `unknown format "pdf"`},
		{name: "unknown flag", argv: []string{"--model", "x", "hi"}, want: "unknown flag"},
		{name: "tui takes no args", argv: []string{"tui", "extra"}, want: "unknown command"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parse(context.Background(), defaults(), tt.argv, nil, &bytes.Buffer{})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestParse_Subcommands(t *testing.T) {
	got, err := parse(context.Background(), defaults(), []string{"tui", "--ratio", "0.4"}, strings.NewReader("ignored"), &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, CommandTUI, got.Command)
	assert.Equal(t, 0.4, got.Ratio)
	assert.Empty(t, got.Question)

	got, err = parse(context.Background(), defaults(), []string{"config"}, nil, &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, CommandConfig, got.Command)
}

func TestParse_Help(t *testing.T) {
	var out bytes.Buffer
	got, err := parse(context.Background(), defaults(), []string{"--help"}, nil, &out)
	require.NoError(t, err)
	assert.Equal(t, CommandHelp, got.Command)
	assert.Contains(t, out.String(), "--ratio")
	assert.Contains(t, out.String(), "tui")
}

func TestParse_QuestionWordsAreNotSubcommands(t *testing.T) {
	got, err := parse(context.Background(), defaults(), []string{"--plain", "What", "is", "a", "tui?"}, nil, &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, CommandAsk, got.Command)
	assert.Equal(t, "What is a tui?", got.Question)

	got, err = parse(context.Background(), defaults(), []string{"--plain", "explain config files"}, nil, &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, "explain config files", got.Question)
}
