package connector

import (
	"context"

	"github.com/crimson-sun/slackline/internal/model"
)

// Connector defines the interface all log event sources must implement.
type Connector interface {
	// Stream sends decoded events until the source is exhausted or ctx is
	// cancelled. The channel is closed when streaming stops.
	Stream(ctx context.Context, cfg ConnectorConfig) (<-chan model.LogEvent, error)
}

// ConnectorConfig holds source-specific settings.
type ConnectorConfig struct {
	Provider string
	Path     string // file path; "" or "-" reads stdin
	Extra    map[string]string
}
