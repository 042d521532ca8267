// Package render turns a log event into a Slack message: the rendered
// message text, a summary attachment with level, timestamp and one field
// per top-level property, and an exception attachment when present.
package render

import (
	"encoding/json"
	"errors"
	"fmt"

	"golang.org/x/text/language"

	"github.com/crimson-sun/slackline/internal/model"
	"github.com/crimson-sun/slackline/internal/render/flatten"
	"github.com/crimson-sun/slackline/internal/render/group"
	"github.com/crimson-sun/slackline/internal/render/msgtemplate"
	"github.com/crimson-sun/slackline/internal/render/text"
	"github.com/crimson-sun/slackline/internal/slack"
)

// DefaultTimestampLayout formats the Timestamp field.
const DefaultTimestampLayout = "2006-01-02 15:04:05.000 -07:00"

var (
	ErrNilEvent     = errors.New("render: nil event")
	ErrInvalidLevel = errors.New("render: invalid level")
)

// Identity is the optional sender identity of a message. Empty members
// are left out of the payload.
type Identity struct {
	Username  string
	IconEmoji string
	IconURL   string
	Channel   string
}

// Option configures a Renderer.
type Option func(*options)

type options struct {
	locale          language.Tag
	format          string
	timestampLayout string
	maxDepth        int
	separator       string
}

// WithLocale formats numbers in property values for the given locale.
func WithLocale(tag language.Tag) Option {
	return func(o *options) { o.locale = tag }
}

// WithFormat sets the format hint applied to every property value, e.g.
// text.Literal to leave strings unquoted.
func WithFormat(format string) Option {
	return func(o *options) { o.format = format }
}

// WithTimestampLayout sets the Go time layout of the Timestamp field.
func WithTimestampLayout(layout string) Option {
	return func(o *options) { o.timestampLayout = layout }
}

// WithMaxDepth bounds property nesting. Deeper trees fail to render.
func WithMaxDepth(n int) Option {
	return func(o *options) { o.maxDepth = n }
}

// WithSeparator sets the string joining entries inside a property field.
func WithSeparator(sep string) Option {
	return func(o *options) { o.separator = sep }
}

// Renderer builds Slack messages from log events. It is immutable after
// New and safe for concurrent use.
type Renderer struct {
	formatter       *text.Formatter
	flattener       *flatten.Flattener
	format          string
	timestampLayout string
	separator       string
}

// New creates a Renderer.
func New(opts ...Option) *Renderer {
	o := options{
		locale:          language.Und,
		timestampLayout: DefaultTimestampLayout,
		maxDepth:        64,
		separator:       group.Separator,
	}
	for _, opt := range opts {
		opt(&o)
	}

	r := &Renderer{
		formatter:       text.New(text.WithLocale(o.locale)),
		format:          o.format,
		timestampLayout: o.timestampLayout,
		separator:       o.separator,
	}
	r.flattener = flatten.New(r.renderValue, flatten.WithMaxDepth(o.maxDepth))
	return r
}

func (r *Renderer) renderValue(v model.PropertyValue) string {
	return r.formatter.Format(v, r.format)
}

// MessageText returns the event's message: the pre-rendered Message when
// set, otherwise MessageTemplate rendered against the properties.
func (r *Renderer) MessageText(ev *model.LogEvent) string {
	if ev.Message != "" || ev.MessageTemplate == "" {
		return ev.Message
	}
	return msgtemplate.Render(ev.MessageTemplate, ev.Properties, r.formatter)
}

// Render builds the Slack message for ev.
func (r *Renderer) Render(ev *model.LogEvent, id Identity) (slack.Message, error) {
	if ev == nil {
		return slack.Message{}, ErrNilEvent
	}
	if !ev.Level.Valid() {
		return slack.Message{}, fmt.Errorf("%w: %d", ErrInvalidLevel, int(ev.Level))
	}

	fields, err := r.flattener.Flatten(ev.Properties)
	if err != nil {
		return slack.Message{}, fmt.Errorf("render: %w", err)
	}

	body := r.MessageText(ev)
	msg := slack.Message{
		Text:      body,
		Channel:   id.Channel,
		Username:  id.Username,
		IconEmoji: id.IconEmoji,
		IconURL:   id.IconURL,
	}
	msg.Attachments = append(msg.Attachments, r.summary(ev, body, fields))
	if ev.Exception != nil {
		msg.Attachments = append(msg.Attachments, exceptionAttachment(ev.Exception))
	}
	return msg, nil
}

// RenderJSON renders ev and encodes the message as JSON.
func (r *Renderer) RenderJSON(ev *model.LogEvent, id Identity) ([]byte, error) {
	msg, err := r.Render(ev, id)
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("render: marshal: %w", err)
	}
	return data, nil
}

func (r *Renderer) summary(ev *model.LogEvent, body string, fields []flatten.Field) slack.Attachment {
	sections := group.Join(fields, r.separator)

	out := make([]slack.Field, 0, len(sections)+2)
	out = append(out,
		slack.Field{Title: "Level", Value: ev.Level.String(), Short: true},
		slack.Field{Title: "Timestamp", Value: ev.Timestamp.Format(r.timestampLayout), Short: true},
	)
	for _, s := range sections {
		out = append(out, slack.Field{Title: s.Title, Value: s.Value, Short: true})
	}

	return slack.Attachment{
		Fallback: "[" + ev.Level.String() + "]" + body,
		Color:    slack.Color(ev.Level),
		Fields:   out,
	}
}

func exceptionAttachment(ex *model.Exception) slack.Attachment {
	return slack.Attachment{
		Title:    "Exception",
		Fallback: fmt.Sprintf("Exception: %s \n %s", ex.Message, ex.StackTrace),
		Color:    slack.Color(model.Fatal),
		Fields: []slack.Field{
			{Title: "Message", Value: ex.Message, Short: true},
			{Title: "Type", Value: slack.InlineCode(ex.Type), Short: true},
			{Title: "Stack Trace", Value: slack.CodeBlock(ex.StackTrace), Short: false},
		},
		MarkdownIn: []string{"fields"},
	}
}
