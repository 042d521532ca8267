package webhook

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/crimson-sun/slackline/internal/httpclient"
	"github.com/crimson-sun/slackline/internal/model"
	"github.com/crimson-sun/slackline/internal/output"
	"github.com/crimson-sun/slackline/internal/render"
)

const defaultTimeout = 10 * time.Second

// RequestIDHeader carries a fresh UUID on every delivery.
const RequestIDHeader = "X-Request-Id"

// Option configures a webhook Output.
type Option func(*Output)

// WithIdentity sets the channel, username and icon overrides sent with
// every message.
func WithIdentity(id render.Identity) Option {
	return func(o *Output) { o.identity = id }
}

// WithRenderer sets the renderer. Default: output.DefaultRenderer().
func WithRenderer(r *render.Renderer) Option {
	return func(o *Output) { o.renderer = r }
}

// WithHeaders sets custom HTTP headers sent with every POST.
func WithHeaders(h map[string]string) Option {
	return func(o *Output) { o.clientOpts = append(o.clientOpts, httpclient.WithHeaders(h)) }
}

// WithTimeout sets the HTTP client timeout. Default: 10s.
func WithTimeout(d time.Duration) Option {
	return func(o *Output) { o.clientOpts = append(o.clientOpts, httpclient.WithTimeout(d)) }
}

// WithRetry sets the retry count and first backoff delay for 429 and 5xx
// responses. Default: 3 retries starting at 1s.
func WithRetry(maxRetries int, backoff time.Duration) Option {
	return func(o *Output) {
		o.clientOpts = append(o.clientOpts, httpclient.WithMaxRetries(maxRetries), httpclient.WithBackoff(backoff))
	}
}

// WithRateLimit paces deliveries to at most r messages per second with the
// given burst. Slack allows roughly one message per second per webhook.
// Default: unlimited.
func WithRateLimit(r rate.Limit, burst int) Option {
	return func(o *Output) { o.limiter = rate.NewLimiter(r, burst) }
}

// Output renders each event into a Slack message and POSTs it to an
// incoming webhook URL, one request per event.
type Output struct {
	client     *httpclient.Client
	clientOpts []httpclient.Option
	renderer   *render.Renderer
	identity   render.Identity
	limiter    *rate.Limiter
}

// New creates a webhook output targeting the given URL.
func New(url string, opts ...Option) *Output {
	o := &Output{
		clientOpts: []httpclient.Option{httpclient.WithTimeout(defaultTimeout)},
	}
	for _, opt := range opts {
		opt(o)
	}
	o.client = httpclient.New(url, o.clientOpts...)
	return o
}

// Write renders the event and delivers it. It blocks while waiting on the
// rate limiter and during retries; both honor ctx.
func (o *Output) Write(ctx context.Context, event model.LogEvent) error {
	msg, err := output.FormatEvent(o.renderer, o.identity, event)
	if err != nil {
		return fmt.Errorf("webhook: %w", err)
	}
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("webhook: marshal: %w", err)
	}

	if o.limiter != nil {
		if err := o.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("webhook: %w", err)
		}
	}

	headers := map[string]string{RequestIDHeader: uuid.NewString()}
	if err := o.client.PostJSON(ctx, body, headers); err != nil {
		return fmt.Errorf("webhook: %w", err)
	}
	return nil
}

// Close is a no-op; every Write is delivered synchronously.
func (o *Output) Close() error {
	return nil
}
