package stdout

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/crimson-sun/slackline/internal/model"
	"github.com/crimson-sun/slackline/internal/output"
	"github.com/crimson-sun/slackline/internal/render"
)

// Option configures a stdout Output.
type Option func(*Output)

// WithWriter redirects output away from os.Stdout.
func WithWriter(w io.Writer) Option {
	return func(o *Output) { o.w = w }
}

// WithRenderer sets the renderer. Default: output.DefaultRenderer().
func WithRenderer(r *render.Renderer) Option {
	return func(o *Output) { o.renderer = r }
}

// WithIdentity sets the identity overrides included in each payload.
func WithIdentity(id render.Identity) Option {
	return func(o *Output) { o.identity = id }
}

// Output writes the Slack payload each event would produce to stdout,
// one JSON document per event. Nothing is sent.
type Output struct {
	mu       sync.Mutex
	w        io.Writer
	pretty   bool
	renderer *render.Renderer
	identity render.Identity
}

// New creates a new stdout Output with optional pretty-printed JSON.
func New(pretty bool, opts ...Option) *Output {
	o := &Output{w: os.Stdout, pretty: pretty}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

func (o *Output) Write(_ context.Context, event model.LogEvent) error {
	msg, err := output.FormatEvent(o.renderer, o.identity, event)
	if err != nil {
		return fmt.Errorf("stdout output: %w", err)
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	enc := json.NewEncoder(o.w)
	if o.pretty {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(msg); err != nil {
		return fmt.Errorf("stdout output: %w", err)
	}
	return nil
}

func (o *Output) Close() error {
	return nil
}
