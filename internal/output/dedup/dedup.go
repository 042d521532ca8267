// Package dedup suppresses bursts of identical events before they reach an
// output.
package dedup

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/crimson-sun/slackline/internal/model"
	"github.com/crimson-sun/slackline/internal/output"
)

// RepeatsProperty names the property attached to the first event delivered
// after a suppressed burst.
const RepeatsProperty = "Repeats"

// maxKeys bounds tracked keys before expired ones are pruned.
const maxKeys = 4096

// Dedup forwards the first event for each level and template, then drops
// repeats arriving within Window of it. The next event for that key past
// the window is delivered with a Repeats property holding the count and
// span of what was dropped. Bursts still pending when their key is pruned,
// or at Close, are reported as a copy of the burst's first event carrying
// Repeats and stamped with the latest suppressed timestamp.
type Dedup struct {
	inner  output.Output
	window time.Duration
	now    func() time.Time

	mu     sync.Mutex
	groups map[string]*group
}

type group struct {
	first    model.LogEvent
	start    time.Time
	count    int
	latestTS time.Time
}

// Option configures a Dedup.
type Option func(*Dedup)

// WithClock sets the time source used for events without a timestamp.
func WithClock(now func() time.Time) Option {
	return func(d *Dedup) { d.now = now }
}

// New wraps inner. A window <= 0 disables suppression.
func New(inner output.Output, window time.Duration, opts ...Option) *Dedup {
	d := &Dedup{
		inner:  inner,
		window: window,
		now:    time.Now,
		groups: make(map[string]*group),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *Dedup) Write(ctx context.Context, event model.LogEvent) error {
	if d.window <= 0 {
		return d.inner.Write(ctx, event)
	}

	ts := event.Timestamp
	if ts.IsZero() {
		ts = d.now()
	}
	key := event.Level.String() + "\x00" + template(event)

	d.mu.Lock()
	g, ok := d.groups[key]
	if ok && ts.Sub(g.start) <= d.window {
		g.count++
		if ts.After(g.latestTS) {
			g.latestTS = ts
		}
		d.mu.Unlock()
		return nil
	}
	var dropped group
	if ok {
		dropped = *g
	}
	var pending []model.LogEvent
	if !ok && len(d.groups) >= maxKeys {
		pending = d.prune(ts)
	}
	d.groups[key] = &group{first: event, start: ts, latestTS: ts}
	d.mu.Unlock()

	var errs []error
	for _, ev := range pending {
		errs = append(errs, d.inner.Write(ctx, ev))
	}
	if dropped.count > 0 {
		event = withRepeats(event, dropped)
	}
	errs = append(errs, d.inner.Write(ctx, event))
	return errors.Join(errs...)
}

// Close reports every pending burst, then closes the inner output.
func (d *Dedup) Close() error {
	d.mu.Lock()
	var pending []model.LogEvent
	for k, g := range d.groups {
		if g.count > 0 {
			pending = append(pending, summary(*g))
		}
		delete(d.groups, k)
	}
	d.mu.Unlock()

	var errs []error
	for _, ev := range pending {
		errs = append(errs, d.inner.Write(context.Background(), ev))
	}
	errs = append(errs, d.inner.Close())
	return errors.Join(errs...)
}

// prune drops groups whose window has passed and returns summaries for
// those with suppressed repeats. Callers hold mu.
func (d *Dedup) prune(now time.Time) []model.LogEvent {
	var pending []model.LogEvent
	for k, g := range d.groups {
		if now.Sub(g.start) > d.window {
			if g.count > 0 {
				pending = append(pending, summary(*g))
			}
			delete(d.groups, k)
		}
	}
	return pending
}

func summary(g group) model.LogEvent {
	ev := withRepeats(g.first, g)
	ev.Timestamp = g.latestTS
	return ev
}

func template(event model.LogEvent) string {
	if event.MessageTemplate != "" {
		return event.MessageTemplate
	}
	return event.Message
}

// withRepeats returns event with the Repeats property set. The caller's
// property slice is left untouched.
func withRepeats(event model.LogEvent, g group) model.LogEvent {
	event.Properties = event.Properties.With(RepeatsProperty, model.Structure{Fields: []model.Field{
		{Name: "Count", Value: model.Scalar{Value: g.count}},
		{Name: "Over", Value: model.Scalar{Value: formatDuration(g.latestTS.Sub(g.start))}},
	}})
	return event
}

// formatDuration produces a short human-readable duration.
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	if d < time.Minute {
		return fmt.Sprintf("%.0fs", d.Seconds())
	}
	mins := int(d.Minutes())
	secs := int(d.Seconds()) % 60
	if secs == 0 {
		return fmt.Sprintf("%dm", mins)
	}
	return fmt.Sprintf("%dm%ds", mins, secs)
}
