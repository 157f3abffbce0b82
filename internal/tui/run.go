package tui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/markis/jawab/internal/client"
	"github.com/markis/jawab/internal/config"
	"github.com/markis/jawab/internal/render"
)

// Run shows the form until the user quits or ctx is cancelled.
func Run(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	c := client.New(cfg.Endpoint, client.WithTimeout(cfg.Timeout), client.WithLogger(logger))

	m, err := New(ctx, c, Options{
		Ratio: cfg.Ratio,
		Render: render.TerminalOptions{
			Wrap:      cfg.Render.Wrap,
			Theme:     cfg.Render.Theme,
			CodeStyle: cfg.Render.CodeStyle,
			Labels:    cfg.Render.Labels,
		},
		Logger: logger,
	})
	if err != nil {
		return err
	}

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("interactive UI failed: %w", err)
	}
	return nil
}
