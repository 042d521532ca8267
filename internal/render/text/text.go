// Package text renders property values to human-readable text.
package text

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/crimson-sun/slackline/internal/model"
)

// Literal is the format hint that renders strings without quotes.
const Literal = "l"

// maxDepth bounds nested rendering of structured values.
const maxDepth = 64

// Option configures a Formatter.
type Option func(*Formatter)

// WithLocale formats numbers for the given locale (digit grouping and
// decimal separator). language.Und, the default, uses plain Go formatting.
func WithLocale(tag language.Tag) Option {
	return func(f *Formatter) { f.tag = tag }
}

// Formatter renders PropertyValues to text. Safe for concurrent use.
type Formatter struct {
	tag     language.Tag
	printer *message.Printer // nil for language.Und
}

// New creates a Formatter.
func New(opts ...Option) *Formatter {
	f := &Formatter{tag: language.Und}
	for _, opt := range opts {
		opt(f)
	}
	if f.tag != language.Und {
		f.printer = message.NewPrinter(f.tag)
	}
	return f
}

// Locale returns the configured locale.
func (f *Formatter) Locale() language.Tag {
	return f.tag
}

// Format renders v. format is an optional hint: Literal ("l") leaves
// strings unquoted, a value starting with '%' is used as the fmt verb for
// numbers, and any other non-empty value is a time layout for time.Time.
// Structured values render inline, e.g. `Point { X: 1, Y: 2 }`,
// `[1, 2]` and `[("k": 1)]`.
func (f *Formatter) Format(v model.PropertyValue, format string) string {
	var b strings.Builder
	f.write(&b, v, format, 0)
	return b.String()
}

func (f *Formatter) write(b *strings.Builder, v model.PropertyValue, format string, depth int) {
	if depth > maxDepth {
		b.WriteString("...")
		return
	}
	switch x := v.(type) {
	case model.Scalar:
		b.WriteString(f.scalar(x.Value, format))
	case model.Structure:
		if x.TypeTag != "" {
			b.WriteString(x.TypeTag)
			b.WriteByte(' ')
		}
		b.WriteByte('{')
		for i, field := range x.Fields {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteByte(' ')
			b.WriteString(field.Name)
			b.WriteString(": ")
			f.write(b, field.Value, format, depth+1)
		}
		if len(x.Fields) > 0 {
			b.WriteByte(' ')
		}
		b.WriteByte('}')
	case model.Sequence:
		b.WriteByte('[')
		for i, elem := range x.Elements {
			if i > 0 {
				b.WriteString(", ")
			}
			f.write(b, elem, format, depth+1)
		}
		b.WriteByte(']')
	case model.Dictionary:
		b.WriteByte('[')
		for i, e := range x.Entries {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteByte('(')
			f.write(b, e.Key, format, depth+1)
			b.WriteString(": ")
			f.write(b, e.Value, format, depth+1)
			b.WriteByte(')')
		}
		b.WriteByte(']')
	default:
		fmt.Fprintf(b, "%v", v)
	}
}

func (f *Formatter) scalar(v any, format string) string {
	switch x := v.(type) {
	case nil:
		return "null"
	case string:
		if format == Literal {
			return x
		}
		return Quote(x)
	case bool:
		return strconv.FormatBool(x)
	case time.Time:
		if format != "" && format != Literal && !strings.HasPrefix(format, "%") {
			return x.Format(format)
		}
		return x.Format(time.RFC3339)
	case time.Duration:
		return x.String()
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return f.number(x, format)
	case error:
		return x.Error()
	case fmt.Stringer:
		return x.String()
	}
	return fmt.Sprint(v)
}

func (f *Formatter) number(v any, format string) string {
	verb := "%v"
	if strings.HasPrefix(format, "%") {
		verb = format
	}
	if f.printer == nil {
		return fmt.Sprintf(verb, v)
	}
	return f.printer.Sprintf(verb, v)
}

// Quote wraps s in double quotes, escaping backslashes and embedded quotes.
func Quote(s string) string {
	return `"` + quoteEscaper.Replace(s) + `"`
}

var quoteEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`)
