// Package delivery assembles renderers and outputs from configuration.
package delivery

import (
	"fmt"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/time/rate"

	"github.com/crimson-sun/slackline/internal/config"
	"github.com/crimson-sun/slackline/internal/output"
	"github.com/crimson-sun/slackline/internal/output/async"
	"github.com/crimson-sun/slackline/internal/output/dedup"
	"github.com/crimson-sun/slackline/internal/output/file"
	"github.com/crimson-sun/slackline/internal/output/leveled"
	"github.com/crimson-sun/slackline/internal/output/multi"
	"github.com/crimson-sun/slackline/internal/output/webhook"
	"github.com/crimson-sun/slackline/internal/render"
)

// retryBackoff is the first delay between webhook retries.
const retryBackoff = time.Second

// Renderer builds a renderer from the render section.
func Renderer(cfg config.RenderConfig) (*render.Renderer, error) {
	opts := []render.Option{
		render.WithFormat(cfg.Format),
		render.WithTimestampLayout(cfg.TimestampLayout),
	}
	if cfg.MaxDepth > 0 {
		opts = append(opts, render.WithMaxDepth(cfg.MaxDepth))
	}
	if cfg.Locale != "" {
		tag, err := language.Parse(cfg.Locale)
		if err != nil {
			return nil, fmt.Errorf("delivery: locale %q: %w", cfg.Locale, err)
		}
		opts = append(opts, render.WithLocale(tag))
	}
	return render.New(opts...), nil
}

// Identity returns the message identity overrides for a channel.
func Identity(ch config.Channel) render.Identity {
	return render.Identity{
		Channel:   ch.Channel,
		Username:  ch.Username,
		IconEmoji: ch.IconEmoji,
		IconURL:   ch.IconURL,
	}
}

// DefaultIdentity is the identity used outside any channel: the top-level
// channel override and the render defaults.
func DefaultIdentity(cfg config.Config) render.Identity {
	return render.Identity{
		Channel:   cfg.Channel,
		Username:  cfg.Render.Username,
		IconEmoji: cfg.Render.IconEmoji,
		IconURL:   cfg.Render.IconURL,
	}
}

// Outputs builds one webhook output per configured channel, each behind
// its own level filter and, when enabled, its own async queue so a slow
// channel never holds up the others. The result fans out to all of them
// and to the archive file when one is configured, behind a burst
// suppressor when Delivery.DedupWindow is set.
func Outputs(cfg config.Config) (output.Output, error) {
	r, err := Renderer(cfg.Render)
	if err != nil {
		return nil, err
	}

	channels := cfg.ResolvedChannels()
	if len(channels) == 0 {
		return nil, fmt.Errorf("delivery: no channels configured")
	}

	outs := make([]output.Output, 0, len(channels))
	for _, ch := range channels {
		minLevel, err := ch.Level()
		if err != nil {
			return nil, fmt.Errorf("delivery: channel %q: %w", ch.Name, err)
		}

		opts := []webhook.Option{
			webhook.WithRenderer(r),
			webhook.WithIdentity(Identity(ch)),
			webhook.WithTimeout(cfg.Delivery.Timeout),
			webhook.WithRetry(cfg.Delivery.MaxRetries, retryBackoff),
		}
		if cfg.Delivery.RateLimit > 0 {
			opts = append(opts, webhook.WithRateLimit(rate.Limit(cfg.Delivery.RateLimit), max(cfg.Delivery.Burst, 1)))
		}

		var out output.Output = webhook.New(ch.WebhookURL, opts...)
		if cfg.Delivery.Async {
			aopts := []async.Option{async.WithBufferSize(cfg.Delivery.BufferSize)}
			if cfg.Delivery.DropOnFull {
				aopts = append(aopts, async.WithDropOnFull())
			}
			out = async.New(out, aopts...)
		}
		outs = append(outs, leveled.New(out, minLevel))
	}
	if cfg.Archive.Path != "" {
		archive, err := file.New(cfg.Archive.Path,
			file.WithRenderer(r),
			file.WithIdentity(DefaultIdentity(cfg)),
			file.WithMaxSize(cfg.Archive.MaxSize),
			file.WithMaxBackups(cfg.Archive.MaxBackups),
		)
		if err != nil {
			return nil, fmt.Errorf("delivery: archive: %w", err)
		}
		outs = append(outs, archive)
	}

	var out output.Output = multi.New(outs...)
	if cfg.Delivery.DedupWindow > 0 {
		out = dedup.New(out, cfg.Delivery.DedupWindow)
	}
	return out, nil
}
