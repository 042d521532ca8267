package slackline

import (
	"context"
	"sort"

	"go.uber.org/zap/zapcore"

	"github.com/crimson-sun/slackline/internal/model"
)

type zapCore struct {
	zapcore.LevelEnabler
	w      Writer
	fields []zapcore.Field
}

// NewZapCore creates a zapcore.Core writing entries to w. Fields become
// properties sorted by key; a zap.Error field becomes the Exception and
// carries the entry's stack trace when one was captured.
func NewZapCore(w Writer, level zapcore.LevelEnabler) zapcore.Core {
	return &zapCore{LevelEnabler: level, w: w}
}

func (c *zapCore) With(fields []zapcore.Field) zapcore.Core {
	clone := *c
	clone.fields = make([]zapcore.Field, 0, len(c.fields)+len(fields))
	clone.fields = append(clone.fields, c.fields...)
	clone.fields = append(clone.fields, fields...)
	return &clone
}

func (c *zapCore) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(ent.Level) {
		return ce.AddCore(ent, c)
	}
	return ce
}

func (c *zapCore) Write(ent zapcore.Entry, fields []zapcore.Field) error {
	ev := Event{
		Timestamp: ent.Time,
		Level:     LevelFromZap(ent.Level),
		Message:   ent.Message,
	}

	enc := zapcore.NewMapObjectEncoder()
	for _, group := range [][]zapcore.Field{c.fields, fields} {
		for _, f := range group {
			if ev.Exception == nil && f.Type == zapcore.ErrorType && f.Key == "error" {
				if err, ok := f.Interface.(error); ok && err != nil {
					ev.Exception = model.ExceptionFromError(err)
					continue
				}
			}
			f.AddTo(enc)
		}
	}
	if ev.Exception != nil && ev.Exception.StackTrace == "" {
		ev.Exception.StackTrace = ent.Stack
	}
	if ent.LoggerName != "" {
		enc.Fields["Logger"] = ent.LoggerName
	}
	if ent.Caller.Defined {
		enc.Fields["Caller"] = ent.Caller.TrimmedPath()
	}

	keys := make([]string, 0, len(enc.Fields))
	for k := range enc.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		ev.Properties = append(ev.Properties, model.Property{Name: k, Value: model.Capture(enc.Fields[k])})
	}

	return c.w.Write(context.Background(), ev)
}

func (c *zapCore) Sync() error {
	return nil
}

// LevelFromZap maps a zap level onto the event levels. DPanic, Panic and
// Fatal all map to Fatal; levels below Debug are Verbose.
func LevelFromZap(l zapcore.Level) Level {
	switch {
	case l < zapcore.DebugLevel:
		return Verbose
	case l == zapcore.DebugLevel:
		return Debug
	case l == zapcore.InfoLevel:
		return Information
	case l == zapcore.WarnLevel:
		return Warning
	case l == zapcore.ErrorLevel:
		return Error
	default:
		return Fatal
	}
}
