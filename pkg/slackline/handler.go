package slackline

import (
	"context"
	"log/slog"

	"github.com/crimson-sun/slackline/internal/model"
)

// Handler is a slog.Handler that converts records into Events.
//
// Attributes become properties, groups become Structures, and an attribute
// named "error" or "err" holding an error becomes the Exception.
type Handler struct {
	w     Writer
	level slog.Leveler
	goas  []groupOrAttrs
}

type groupOrAttrs struct {
	group string
	attrs []slog.Attr
}

// NewHandler creates a Handler writing to w. A nil level means Info.
func NewHandler(w Writer, level slog.Leveler) *Handler {
	if level == nil {
		level = slog.LevelInfo
	}
	return &Handler{w: w, level: level}
}

func (h *Handler) Enabled(_ context.Context, l slog.Level) bool {
	return l >= h.level.Level()
}

func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	return h.with(groupOrAttrs{attrs: attrs})
}

func (h *Handler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	return h.with(groupOrAttrs{group: name})
}

func (h *Handler) with(g groupOrAttrs) *Handler {
	h2 := *h
	h2.goas = make([]groupOrAttrs, len(h.goas)+1)
	copy(h2.goas, h.goas)
	h2.goas[len(h.goas)] = g
	return &h2
}

type frame struct {
	name   string
	fields []model.Field
}

func (h *Handler) Handle(ctx context.Context, r slog.Record) error {
	ev := Event{
		Timestamp: r.Time,
		Level:     LevelFromSlog(r.Level),
		Message:   r.Message,
	}

	frames := []frame{{}}
	add := func(attrs []slog.Attr) {
		cur := &frames[len(frames)-1]
		if len(frames) == 1 {
			attrs = takeException(&ev, attrs)
		}
		cur.fields = append(cur.fields, model.CaptureAttrs(attrs)...)
	}
	for _, g := range h.goas {
		if g.group != "" {
			frames = append(frames, frame{name: g.group})
			continue
		}
		add(g.attrs)
	}
	if r.NumAttrs() > 0 {
		attrs := make([]slog.Attr, 0, r.NumAttrs())
		r.Attrs(func(a slog.Attr) bool {
			attrs = append(attrs, a)
			return true
		})
		add(attrs)
	}

	// Close groups innermost first; empty groups are omitted.
	for i := len(frames) - 1; i > 0; i-- {
		if len(frames[i].fields) == 0 {
			continue
		}
		frames[i-1].fields = append(frames[i-1].fields, model.Field{
			Name:  frames[i].name,
			Value: model.Structure{Fields: frames[i].fields},
		})
	}

	for _, f := range frames[0].fields {
		ev.Properties = append(ev.Properties, model.Property{Name: f.Name, Value: f.Value})
	}
	return h.w.Write(ctx, ev)
}

// takeException moves the first error-valued "error"/"err" attribute into
// ev.Exception and returns the remaining attributes.
func takeException(ev *Event, attrs []slog.Attr) []slog.Attr {
	if ev.Exception != nil {
		return attrs
	}
	for i, a := range attrs {
		if a.Key != "error" && a.Key != "err" {
			continue
		}
		v := a.Value.Resolve()
		if v.Kind() != slog.KindAny {
			continue
		}
		err, ok := v.Any().(error)
		if !ok || err == nil {
			continue
		}
		ev.Exception = model.ExceptionFromError(err)
		rest := make([]slog.Attr, 0, len(attrs)-1)
		rest = append(rest, attrs[:i]...)
		return append(rest, attrs[i+1:]...)
	}
	return attrs
}

// LevelFromSlog maps a slog level onto the event levels. Levels below
// Debug are Verbose; Error+4 and above are Fatal.
func LevelFromSlog(l slog.Level) Level {
	switch {
	case l < slog.LevelDebug:
		return Verbose
	case l < slog.LevelInfo:
		return Debug
	case l < slog.LevelWarn:
		return Information
	case l < slog.LevelError:
		return Warning
	case l < slog.LevelError+4:
		return Error
	default:
		return Fatal
	}
}
