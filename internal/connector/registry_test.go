package connector

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crimson-sun/slackline/internal/model"
)

type staticConnector struct{}

func (staticConnector) Stream(context.Context, ConnectorConfig) (<-chan model.LogEvent, error) {
	ch := make(chan model.LogEvent)
	close(ch)
	return ch, nil
}

func TestRegistry(t *testing.T) {
	Register("test-static", func() Connector { return staticConnector{} })

	ctor, err := Get("test-static")
	require.NoError(t, err)
	assert.IsType(t, staticConnector{}, ctor())
	assert.Contains(t, Providers(), "test-static")

	assert.Panics(t, func() {
		Register("test-static", func() Connector { return staticConnector{} })
	})
}

func TestGetUnknown(t *testing.T) {
	_, err := Get("nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"nope"`)
}
