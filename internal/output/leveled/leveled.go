// Package leveled restricts an output to events at or above a minimum level.
package leveled

import (
	"context"

	"github.com/crimson-sun/slackline/internal/model"
	"github.com/crimson-sun/slackline/internal/output"
)

// Leveled forwards events at or above Min to the wrapped output and
// silently drops the rest.
type Leveled struct {
	inner output.Output
	min   model.Level
}

// New wraps inner with a minimum level.
func New(inner output.Output, min model.Level) *Leveled {
	return &Leveled{inner: inner, min: min}
}

// Enabled reports whether events at level pass the filter.
func (l *Leveled) Enabled(level model.Level) bool {
	return level >= l.min
}

func (l *Leveled) Write(ctx context.Context, event model.LogEvent) error {
	if !l.Enabled(event.Level) {
		return nil
	}
	return l.inner.Write(ctx, event)
}

func (l *Leveled) Close() error {
	return l.inner.Close()
}
