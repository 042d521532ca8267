package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"

	"github.com/crimson-sun/slackline/internal/model"
)

// Config holds all slackline configuration. Values come from an optional
// YAML file, overridden by SLACKLINE_* environment variables.
type Config struct {
	// WebhookURL is a shortcut for a single channel named "default".
	WebhookURL string    `yaml:"webhook_url" env:"SLACKLINE_WEBHOOK_URL"`
	Channel    string    `yaml:"channel"     env:"SLACKLINE_CHANNEL"`
	Channels   []Channel `yaml:"channels"`

	// MinLevel applies to every event before per-channel filtering.
	MinLevel string `yaml:"min_level" env:"SLACKLINE_MIN_LEVEL" env-default:"Verbose"`

	Render   RenderConfig   `yaml:"render"`
	Delivery DeliveryConfig `yaml:"delivery"`
	Archive  ArchiveConfig  `yaml:"archive"`
	Server   ServerConfig   `yaml:"server"`
	Log      LogConfig      `yaml:"log"`
}

// Channel is one Slack destination.
type Channel struct {
	Name       string `yaml:"name"`
	WebhookURL string `yaml:"webhook_url"`
	Channel    string `yaml:"channel"`
	MinLevel   string `yaml:"min_level"`
	Username   string `yaml:"username"`
	IconEmoji  string `yaml:"icon_emoji"`
	IconURL    string `yaml:"icon_url"`
}

// RenderConfig controls message rendering. Username and icons are the
// defaults for channels that don't set their own.
type RenderConfig struct {
	Locale          string `yaml:"locale"           env:"SLACKLINE_LOCALE"`
	Format          string `yaml:"format"           env:"SLACKLINE_FORMAT"`
	TimestampLayout string `yaml:"timestamp_layout" env:"SLACKLINE_TIMESTAMP_LAYOUT" env-default:"2006-01-02 15:04:05.000 -07:00"`
	MaxDepth        int    `yaml:"max_depth"        env:"SLACKLINE_MAX_DEPTH"        env-default:"64"`
	Username        string `yaml:"username"         env:"SLACKLINE_USERNAME"`
	IconEmoji       string `yaml:"icon_emoji"       env:"SLACKLINE_ICON_EMOJI"`
	IconURL         string `yaml:"icon_url"         env:"SLACKLINE_ICON_URL"`
}

// DeliveryConfig controls webhook delivery.
type DeliveryConfig struct {
	Timeout    time.Duration `yaml:"timeout"     env:"SLACKLINE_TIMEOUT"      env-default:"10s"`
	MaxRetries int           `yaml:"max_retries" env:"SLACKLINE_MAX_RETRIES"  env-default:"3"`
	// RateLimit is messages per second per channel; 0 disables pacing.
	RateLimit  float64 `yaml:"rate_limit"  env:"SLACKLINE_RATE_LIMIT"  env-default:"1"`
	Burst      int     `yaml:"burst"       env:"SLACKLINE_BURST"       env-default:"4"`
	Async      bool    `yaml:"async"       env:"SLACKLINE_ASYNC"       env-default:"true"`
	BufferSize int     `yaml:"buffer_size" env:"SLACKLINE_BUFFER_SIZE" env-default:"1024"`
	DropOnFull bool    `yaml:"drop_on_full" env:"SLACKLINE_DROP_ON_FULL"`
	// DedupWindow suppresses repeats of the same level and template within
	// the window; 0 disables it.
	DedupWindow time.Duration `yaml:"dedup_window" env:"SLACKLINE_DEDUP_WINDOW"`
}

// ArchiveConfig enables a local NDJSON copy of every delivered payload.
type ArchiveConfig struct {
	Path       string `yaml:"path"        env:"SLACKLINE_ARCHIVE_PATH"`
	MaxSize    int64  `yaml:"max_size"    env:"SLACKLINE_ARCHIVE_MAX_SIZE"`
	MaxBackups int    `yaml:"max_backups" env:"SLACKLINE_ARCHIVE_MAX_BACKUPS" env-default:"10"`
}

// ServerConfig controls the ingest relay.
type ServerConfig struct {
	Addr         string   `yaml:"addr"           env:"SLACKLINE_ADDR"           env-default:":8080"`
	MaxBodyBytes int64    `yaml:"max_body_bytes" env:"SLACKLINE_MAX_BODY_BYTES" env-default:"10485760"`
	AllowOrigins []string `yaml:"allow_origins"  env:"SLACKLINE_ALLOW_ORIGINS"  env-separator:","`
	RateLimit    float64  `yaml:"rate_limit"     env:"SLACKLINE_SERVER_RATE_LIMIT"`
}

// LogConfig controls slackline's own logging.
type LogConfig struct {
	Level  string `yaml:"level"  env:"SLACKLINE_LOG_LEVEL"  env-default:"info"`
	Format string `yaml:"format" env:"SLACKLINE_LOG_FORMAT" env-default:"text"`
}

// Load reads .env (if present) into the environment, then the YAML file at
// path, then environment variables. An empty path reads the environment
// only.
func Load(path string) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("config: .env: %w", err)
	}

	var cfg Config
	var err error
	if path != "" {
		err = cleanenv.ReadConfig(path, &cfg)
	} else {
		err = cleanenv.ReadEnv(&cfg)
	}
	if err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

// ResolvedChannels returns every configured channel, with the WebhookURL
// shortcut first and identity defaults from Render filled in.
func (c Config) ResolvedChannels() []Channel {
	var out []Channel
	if c.WebhookURL != "" {
		out = append(out, Channel{Name: "default", WebhookURL: c.WebhookURL, Channel: c.Channel})
	}
	out = append(out, c.Channels...)
	for i := range out {
		ch := &out[i]
		if ch.Name == "" {
			ch.Name = fmt.Sprintf("channel-%d", i+1)
		}
		if ch.Username == "" {
			ch.Username = c.Render.Username
		}
		if ch.IconEmoji == "" && ch.IconURL == "" {
			ch.IconEmoji, ch.IconURL = c.Render.IconEmoji, c.Render.IconURL
		}
	}
	return out
}

// Level parses MinLevel. An empty value is Verbose.
func (c Config) Level() (model.Level, error) {
	return parseLevel(c.MinLevel)
}

// Level parses the channel's MinLevel. An empty value is Verbose.
func (ch Channel) Level() (model.Level, error) {
	return parseLevel(ch.MinLevel)
}

func parseLevel(s string) (model.Level, error) {
	if s == "" {
		return model.Verbose, nil
	}
	return model.ParseLevel(s)
}

// Validate checks the config for errors that would only surface at
// delivery time. All problems are reported together. requireChannels is
// false for commands that never post to Slack.
func (c Config) Validate(requireChannels bool) error {
	var errs []error

	if _, err := c.Level(); err != nil {
		errs = append(errs, fmt.Errorf("SLACKLINE_MIN_LEVEL: %w", err))
	}

	channels := c.ResolvedChannels()
	if requireChannels && len(channels) == 0 {
		errs = append(errs, errors.New("no channels configured: set SLACKLINE_WEBHOOK_URL or channels"))
	}
	seen := map[string]bool{}
	for _, ch := range channels {
		if seen[ch.Name] {
			errs = append(errs, fmt.Errorf("channel %q: duplicate name", ch.Name))
		}
		seen[ch.Name] = true
		if u, err := url.Parse(ch.WebhookURL); err != nil || (u.Scheme != "https" && u.Scheme != "http") || u.Host == "" {
			errs = append(errs, fmt.Errorf("channel %q: invalid webhook_url %q", ch.Name, ch.WebhookURL))
		}
		if _, err := ch.Level(); err != nil {
			errs = append(errs, fmt.Errorf("channel %q: min_level: %w", ch.Name, err))
		}
	}

	if c.Render.MaxDepth <= 0 {
		errs = append(errs, fmt.Errorf("render max_depth must be positive, got %d", c.Render.MaxDepth))
	}
	if c.Delivery.RateLimit < 0 {
		errs = append(errs, fmt.Errorf("delivery rate_limit must be >= 0, got %v", c.Delivery.RateLimit))
	}
	if c.Delivery.MaxRetries < 0 {
		errs = append(errs, fmt.Errorf("delivery max_retries must be >= 0, got %d", c.Delivery.MaxRetries))
	}
	if c.Delivery.DedupWindow < 0 {
		errs = append(errs, fmt.Errorf("delivery dedup_window must be >= 0, got %v", c.Delivery.DedupWindow))
	}
	if c.Delivery.BufferSize <= 0 {
		errs = append(errs, fmt.Errorf("delivery buffer_size must be positive, got %d", c.Delivery.BufferSize))
	}
	if c.Archive.MaxSize < 0 || c.Archive.MaxBackups < 0 {
		errs = append(errs, fmt.Errorf("archive max_size and max_backups must be >= 0"))
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log format must be text or json, got %q", c.Log.Format))
	}

	return errors.Join(errs...)
}
