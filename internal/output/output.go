package output

import (
	"context"

	"github.com/crimson-sun/slackline/internal/model"
)

// Output defines the interface for log event destinations.
type Output interface {
	Write(ctx context.Context, event model.LogEvent) error
	Close() error
}
