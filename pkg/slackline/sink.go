package slackline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"

	"go.uber.org/zap/zapcore"
	"golang.org/x/time/rate"

	"github.com/crimson-sun/slackline/internal/output"
	"github.com/crimson-sun/slackline/internal/output/async"
	"github.com/crimson-sun/slackline/internal/output/dedup"
	"github.com/crimson-sun/slackline/internal/output/leveled"
	"github.com/crimson-sun/slackline/internal/output/webhook"
)

// ErrInvalidWebhookURL is returned by New for URLs that are not absolute
// http(s) URLs.
var ErrInvalidWebhookURL = errors.New("slackline: invalid webhook URL")

// Writer accepts events. *Sink implements it.
type Writer interface {
	Write(ctx context.Context, ev Event) error
}

// Sink delivers events to one Slack incoming webhook in the background.
type Sink struct {
	out output.Output
}

// New creates a Sink posting to webhookURL.
func New(webhookURL string, opts ...Option) (*Sink, error) {
	u, err := url.Parse(webhookURL)
	if err != nil || (u.Scheme != "https" && u.Scheme != "http") || u.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidWebhookURL, webhookURL)
	}

	o := buildOptions(opts)
	whOpts := []webhook.Option{
		webhook.WithRenderer(o.renderer()),
		webhook.WithIdentity(o.identity),
		webhook.WithTimeout(o.timeout),
	}
	if o.rateLimit > 0 {
		whOpts = append(whOpts, webhook.WithRateLimit(rate.Limit(o.rateLimit), max(o.burst, 1)))
	}

	asyncOpts := []async.Option{
		async.WithBufferSize(o.bufferSize),
		async.WithOnError(o.onError),
	}
	if o.dropOnFull {
		asyncOpts = append(asyncOpts, async.WithDropOnFull())
	}

	var out output.Output = async.New(webhook.New(webhookURL, whOpts...), asyncOpts...)
	if o.dedup > 0 {
		out = dedup.New(out, o.dedup)
	}
	return &Sink{out: leveled.New(out, o.minLevel)}, nil
}

// Write queues ev for delivery. Delivery errors go to the WithOnError
// callback, not the caller.
func (s *Sink) Write(ctx context.Context, ev Event) error {
	return s.out.Write(ctx, ev)
}

// Close delivers queued events (waiting up to 5s) and stops the Sink.
func (s *Sink) Close() error {
	return s.out.Close()
}

// Handler returns a slog.Handler writing to the Sink.
func (s *Sink) Handler(level slog.Leveler) slog.Handler {
	return NewHandler(s, level)
}

// ZapCore returns a zapcore.Core writing to the Sink.
func (s *Sink) ZapCore(level zapcore.LevelEnabler) zapcore.Core {
	return NewZapCore(s, level)
}
