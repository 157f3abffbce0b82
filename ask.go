package main

import (
	"context"
	"log/slog"
	"os"

	"golang.org/x/sync/errgroup"

	"github.com/markis/jawab/internal/args"
	"github.com/markis/jawab/internal/client"
	"github.com/markis/jawab/internal/config"
	"github.com/markis/jawab/internal/render"
	"github.com/markis/jawab/internal/stream"
)

// ask submits one question and renders the answer to stdout while it streams.
// An interrupt stops both sides quietly and keeps whatever was printed.
func ask(ctx context.Context, cfg config.Config, a args.Arguments, width int, logger *slog.Logger) error {
	var streamer *render.Streamer
	if a.Raw {
		streamer = render.NewRawStreamer(os.Stdout, cfg.Render.Format == config.FormatTerminal)
	} else {
		r, err := render.New(cfg.Render, width)
		if err != nil {
			return err
		}
		streamer = render.NewStreamer(r, os.Stdout)
	}

	c := client.New(cfg.Endpoint, client.WithTimeout(cfg.Timeout), client.WithLogger(logger))
	body, err := c.Open(ctx, client.Question{Text: a.Question, Ratio: cfg.Ratio})
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	parser := stream.NewParser(gctx, logger)
	g.Go(func() error {
		parser.Process(body)
		return nil
	})
	g.Go(func() error {
		return streamer.Render(parser.Events())
	})

	if err := g.Wait(); err != nil {
		return err
	}
	if ctx.Err() != nil {
		logger.Debug("answer interrupted", "events", streamer.Accumulator().Events())
	}
	return nil
}
