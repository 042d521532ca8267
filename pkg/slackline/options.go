package slackline

import (
	"log/slog"
	"time"

	"golang.org/x/text/language"

	"github.com/crimson-sun/slackline/internal/render"
)

type options struct {
	locale          language.Tag
	format          string
	timestampLayout string
	maxDepth        int
	identity        render.Identity

	minLevel   Level
	timeout    time.Duration
	rateLimit  float64
	burst      int
	bufferSize int
	dropOnFull bool
	onError    func(error)
	dedup      time.Duration
}

// Option configures rendering and delivery.
type Option func(*options)

// WithLocale sets the locale used to format numbers. Default: none.
func WithLocale(tag language.Tag) Option {
	return func(o *options) { o.locale = tag }
}

// WithFormat sets the format applied to property values, e.g. "l" for
// unquoted strings or "%.2f" for numbers.
func WithFormat(format string) Option {
	return func(o *options) { o.format = format }
}

// WithTimestampLayout sets the Go time layout of the Timestamp field.
// Default: "2006-01-02 15:04:05.000 -07:00".
func WithTimestampLayout(layout string) Option {
	return func(o *options) { o.timestampLayout = layout }
}

// WithMaxDepth bounds how deeply nested property values are flattened.
// Default: 64.
func WithMaxDepth(n int) Option {
	return func(o *options) { o.maxDepth = n }
}

// WithChannel overrides the webhook's default channel.
func WithChannel(channel string) Option {
	return func(o *options) { o.identity.Channel = channel }
}

// WithUsername overrides the webhook's display name.
func WithUsername(name string) Option {
	return func(o *options) { o.identity.Username = name }
}

// WithIconEmoji sets the message icon to an emoji such as ":fire:".
func WithIconEmoji(emoji string) Option {
	return func(o *options) { o.identity.IconEmoji = emoji }
}

// WithIconURL sets the message icon to an image URL.
func WithIconURL(url string) Option {
	return func(o *options) { o.identity.IconURL = url }
}

// WithMinLevel drops events below l. Default: Verbose.
func WithMinLevel(l Level) Option {
	return func(o *options) { o.minLevel = l }
}

// WithTimeout sets the HTTP timeout per delivery. Default: 10s.
func WithTimeout(d time.Duration) Option {
	return func(o *options) { o.timeout = d }
}

// WithRateLimit paces deliveries to perSecond messages with the given
// burst. 0 disables pacing. Default: 1 per second, burst 4.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(o *options) {
		o.rateLimit = perSecond
		o.burst = burst
	}
}

// WithBufferSize sets how many events a Sink queues. Default: 1024.
func WithBufferSize(n int) Option {
	return func(o *options) { o.bufferSize = n }
}

// WithDropOnFull makes Write drop events instead of blocking when the
// queue is full.
func WithDropOnFull() Option {
	return func(o *options) { o.dropOnFull = true }
}

// WithOnError sets the callback for failed deliveries. Default: logs a
// warning via slog.
func WithOnError(f func(error)) Option {
	return func(o *options) { o.onError = f }
}

// WithDedupWindow drops repeats of an event (same level and template)
// arriving within d of the first; the next one delivered after the window
// carries a Repeats property with the count. Default: off.
func WithDedupWindow(d time.Duration) Option {
	return func(o *options) { o.dedup = d }
}

func defaultOptions() options {
	return options{
		timestampLayout: render.DefaultTimestampLayout,
		minLevel:        Verbose,
		timeout:         10 * time.Second,
		rateLimit:       1,
		burst:           4,
		bufferSize:      1024,
		onError: func(err error) {
			slog.Warn("slackline delivery failed", "error", err)
		},
	}
}

func buildOptions(opts []Option) options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func (o options) renderer() *render.Renderer {
	ropts := []render.Option{
		render.WithFormat(o.format),
		render.WithTimestampLayout(o.timestampLayout),
	}
	if o.locale != language.Und {
		ropts = append(ropts, render.WithLocale(o.locale))
	}
	if o.maxDepth > 0 {
		ropts = append(ropts, render.WithMaxDepth(o.maxDepth))
	}
	return render.New(ropts...)
}
