package output

import (
	"sync"

	"github.com/crimson-sun/slackline/internal/model"
	"github.com/crimson-sun/slackline/internal/render"
	"github.com/crimson-sun/slackline/internal/slack"
)

var (
	defaultOnce     sync.Once
	defaultRenderer *render.Renderer
)

// DefaultRenderer returns a shared Renderer with default options.
func DefaultRenderer() *render.Renderer {
	defaultOnce.Do(func() { defaultRenderer = render.New() })
	return defaultRenderer
}

// FormatEvent renders the event into the Slack payload an output delivers.
// A nil renderer uses DefaultRenderer.
func FormatEvent(r *render.Renderer, id render.Identity, event model.LogEvent) (slack.Message, error) {
	if r == nil {
		r = DefaultRenderer()
	}
	return r.Render(&event, id)
}
