package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/crimson-sun/slackline/internal/connector"
	"github.com/crimson-sun/slackline/internal/model"
	"github.com/crimson-sun/slackline/internal/output"
)

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithMinLevel drops events below the given level before they reach the
// output. Default: Verbose (nothing dropped).
func WithMinLevel(l model.Level) Option {
	return func(p *Pipeline) { p.minLevel = l }
}

// WithStopOnError makes Stream return on the first output error instead
// of logging it and continuing.
func WithStopOnError() Option {
	return func(p *Pipeline) { p.stopOnError = true }
}

// Stats counts events seen by a Pipeline.
type Stats struct {
	Delivered int64
	Filtered  int64
	Failed    int64
}

// Pipeline moves events from a connector, through a level filter, to an
// output.
type Pipeline struct {
	connector   connector.Connector
	output      output.Output
	minLevel    model.Level
	stopOnError bool

	delivered atomic.Int64
	filtered  atomic.Int64
	failed    atomic.Int64
}

// New creates a Pipeline from the given components.
func New(conn connector.Connector, out output.Output, opts ...Option) *Pipeline {
	p := &Pipeline{
		connector: conn,
		output:    out,
		minLevel:  model.Verbose,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Stream forwards events until the connector's channel closes (returns nil)
// or ctx is cancelled (returns ctx.Err()). Delivery failures are logged and
// counted unless WithStopOnError is set.
func (p *Pipeline) Stream(ctx context.Context, cfg connector.ConnectorConfig) error {
	ch, err := p.connector.Stream(ctx, cfg)
	if err != nil {
		return fmt.Errorf("pipeline stream: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-ch:
			if !ok {
				return nil
			}
			if err := p.Write(ctx, event); err != nil && p.stopOnError {
				return fmt.Errorf("pipeline output: %w", err)
			}
		}
	}
}

// Write filters and delivers a single event. It is used by Stream and by
// callers that receive events from somewhere other than a connector.
func (p *Pipeline) Write(ctx context.Context, event model.LogEvent) error {
	if event.Level < p.minLevel {
		p.filtered.Add(1)
		return nil
	}
	if err := p.output.Write(ctx, event); err != nil {
		p.failed.Add(1)
		slog.Warn("event delivery failed", "level", event.Level.String(), "error", err)
		return err
	}
	p.delivered.Add(1)
	return nil
}

// Stats returns a snapshot of the pipeline counters.
func (p *Pipeline) Stats() Stats {
	return Stats{
		Delivered: p.delivered.Load(),
		Filtered:  p.filtered.Load(),
		Failed:    p.failed.Load(),
	}
}

// Close shuts down the output.
func (p *Pipeline) Close() error {
	if s := p.Stats(); s.Failed > 0 {
		slog.Warn("pipeline closed with delivery failures", "delivered", s.Delivered, "failed", s.Failed)
	}
	return p.output.Close()
}
