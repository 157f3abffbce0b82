package args

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/markis/jawab/internal/config"
)

// Commands selected on the command line.
const (
	CommandAsk    = "ask"
	CommandTUI    = "tui"
	CommandConfig = "config"
	CommandHelp   = "help"
)

// Arguments represents the command-line arguments structure.
type Arguments struct {
	Command  string
	Question string
	Ratio    float64
	Endpoint string
	Timeout  time.Duration
	Format   string
	Labels   bool
	Raw      bool
}

// ParseArgs parses command-line arguments and stdin input, returning an Arguments struct.
// Flags default to the loaded configuration. Piped stdin is appended to the question.
func ParseArgs(ctx context.Context, cfg config.Config) (Arguments, error) {
	var stdin io.Reader
	if stat, err := os.Stdin.Stat(); err == nil && (stat.Mode()&os.ModeCharDevice) == 0 {
		stdin = os.Stdin
	}
	return parse(ctx, cfg, os.Args[1:], stdin, os.Stdout)
}

func parse(ctx context.Context, cfg config.Config, argv []string, stdin io.Reader, stdout io.Writer) (Arguments, error) {
	args := Arguments{Command: CommandAsk}
	var plain bool

	rootCmd := &cobra.Command{
		Use:   "jawab [flags] [question]",
		Short: "Ask a question and stream a bilingual English/Hindi answer with LaTeX math",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, cmdArgs []string) error {
			args.Question = strings.Join(cmdArgs, " ")
			return nil
		},
		SilenceErrors: true, // We'll handle error reporting
		SilenceUsage:  true, // We'll handle usage display
	}
	rootCmd.SetArgs(argv)
	rootCmd.SetOut(stdout)

	// Global flags
	flags := rootCmd.PersistentFlags()
	flags.Float64VarP(&args.Ratio, "ratio", "r", cfg.Ratio, "Hindi/English balance from 0 (more Hindi) to 1 (more English)")
	flags.StringVar(&args.Endpoint, "endpoint", cfg.Endpoint, "Base URL of the answer service")
	flags.DurationVar(&args.Timeout, "timeout", cfg.Timeout, "Overall request timeout, 0 to disable")
	flags.StringVarP(&args.Format, "format", "f", cfg.Render.Format, "Output format: terminal, plain or html")
	flags.BoolVar(&args.Labels, "labels", cfg.Render.Labels, "Print a heading above each language section")
	flags.BoolVar(&plain, "plain", false, "Shortcut for --format plain")
	flags.BoolVar(&args.Raw, "raw", false, "Write fragments as they arrive, without formatting")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "tui",
		Short: "Ask questions in an interactive terminal UI",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, cmdArgs []string) error {
			args.Command = CommandTUI
			return nil
		},
	})
	rootCmd.AddCommand(&cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, cmdArgs []string) error {
			args.Command = CommandConfig
			return nil
		},
	})

	// Execute the command
	executed, err := rootCmd.ExecuteContextC(ctx)
	if err != nil {
		return Arguments{}, err
	}
	if help, _ := executed.Flags().GetBool("help"); help || executed.Name() == CommandHelp {
		return Arguments{Command: CommandHelp}, nil
	}

	if plain || (args.Format == config.FormatTerminal && shouldUsePlainText()) {
		args.Format = config.FormatPlain
	}
	if args.Ratio < 0 || args.Ratio > 1 {
		return Arguments{}, fmt.Errorf("ratio must be between 0 and 1, got %g", args.Ratio)
	}
	switch args.Format {
	case config.FormatTerminal, config.FormatPlain, config.FormatHTML:
	default:
		return Arguments{}, fmt.Errorf("unknown format %q", args.Format)
	}

	if args.Command != CommandAsk {
		return args, nil
	}

	// Read from stdin if available
	if stdin != nil {
		scanner := bufio.NewScanner(stdin)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024) // 1MB max buffer
		var buf strings.Builder
		for scanner.Scan() {
			buf.WriteString(scanner.Text())
			buf.WriteByte('\n')
		}
		if err := scanner.Err(); err != nil {
			return Arguments{}, fmt.Errorf("failed to read stdin: %w", err)
		}
		if piped := strings.TrimSpace(buf.String()); piped != "" {
			args.Question = strings.TrimSpace(args.Question + "\n" + piped)
		}
	}

	if strings.TrimSpace(args.Question) == "" {
		return Arguments{}, errors.New("no question provided")
	}

	return args, nil
}

// shouldUsePlainText determines if plain text output should be used based on environment and terminal settings.
func shouldUsePlainText() bool {
	// Check if output is being redirected
	fd := os.Stdout.Fd()
	if !isatty.IsTerminal(fd) && !isatty.IsCygwinTerminal(fd) {
		return true
	}

	// Check for NO_COLOR environment variable
	if _, exists := os.LookupEnv("NO_COLOR"); exists {
		return true
	}

	// Check for TERM=dumb
	if term := os.Getenv("TERM"); term == "dumb" {
		return true
	}

	return false
}
