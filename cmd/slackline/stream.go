package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/crimson-sun/slackline/internal/connector"
	"github.com/crimson-sun/slackline/internal/output"
	"github.com/crimson-sun/slackline/internal/pipeline"
)

// streamFile runs events from path ("" or "-" for stdin) through out and
// closes it.
func (a *app) streamFile(ctx context.Context, out output.Output, path string) error {
	minLevel, err := a.cfg.Level()
	if err != nil {
		return err
	}
	ctor, err := connector.Get("file")
	if err != nil {
		return err
	}

	p := pipeline.New(ctor(), out, pipeline.WithMinLevel(minLevel))
	streamErr := p.Stream(ctx, connector.ConnectorConfig{Provider: "file", Path: path})
	closeErr := p.Close()

	s := p.Stats()
	slog.Info("done", "delivered", s.Delivered, "filtered", s.Filtered, "failed", s.Failed)

	if streamErr != nil && !errors.Is(streamErr, context.Canceled) {
		return streamErr
	}
	if closeErr != nil {
		return closeErr
	}
	if s.Failed > 0 {
		return fmt.Errorf("%d of %d events failed to deliver", s.Failed, s.Failed+s.Delivered)
	}
	return nil
}

func pathArg(args []string) string {
	if len(args) == 0 {
		return "-"
	}
	return args[0]
}
