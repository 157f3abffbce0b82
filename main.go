package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/term"

	"github.com/markis/jawab/internal/args"
	"github.com/markis/jawab/internal/config"
	"github.com/markis/jawab/internal/tui"
)

const fallbackWidth = 100

// main function to load configuration, parse arguments and dispatch the command.
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}

	a, err := args.ParseArgs(ctx, *cfg)
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	// Flags override the file and environment.
	cfg.Endpoint = a.Endpoint
	cfg.Ratio = a.Ratio
	cfg.Timeout = a.Timeout
	cfg.Render.Format = a.Format
	cfg.Render.Labels = a.Labels

	switch a.Command {
	case args.CommandHelp:
		return nil
	case args.CommandConfig:
		return printConfig(os.Stdout, cfg)
	case args.CommandTUI:
		return tui.Run(ctx, *cfg, logger)
	default:
		return ask(ctx, *cfg, a, terminalWidth(), logger)
	}
}

func loadConfig(ctx context.Context) (*config.Config, error) {
	if path := os.Getenv("JAWAB_CONFIG"); path != "" {
		return config.LoadConfigFile(ctx, path)
	}
	return config.LoadConfig(ctx)
}

func newLogger(level string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, errors.Join(fmt.Errorf("invalid log level %q", level), err)
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})), nil
}

func terminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return fallbackWidth
	}
	return width
}
