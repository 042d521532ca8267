// Package clef decodes events in the Compact Log Event Format, one JSON
// object per event with "@"-prefixed reserved members.
package clef

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/valyala/fastjson"

	"github.com/crimson-sun/slackline/internal/model"
)

var (
	ErrNotObject    = errors.New("clef: event is not a JSON object")
	ErrNoTimestamp  = errors.New("clef: missing @t")
	ErrBadTimestamp = errors.New("clef: invalid @t")
)

// Decoder parses CLEF events. It keeps a parser pool and is safe for
// concurrent use.
type Decoder struct {
	pool fastjson.ParserPool
}

// NewDecoder creates a Decoder.
func NewDecoder() *Decoder {
	return &Decoder{}
}

// Decode parses one CLEF event.
func (d *Decoder) Decode(data []byte) (model.LogEvent, error) {
	p := d.pool.Get()
	defer d.pool.Put(p)

	v, err := p.ParseBytes(data)
	if err != nil {
		return model.LogEvent{}, fmt.Errorf("clef: %w", err)
	}
	return eventFromValue(v)
}

// LineError reports an event that failed to decode inside a batch.
type LineError struct {
	Line int // 1-based line (NDJSON) or element (array) number
	Err  error
}

func (e *LineError) Error() string {
	return fmt.Sprintf("event %d: %v", e.Line, e.Err)
}

func (e *LineError) Unwrap() error { return e.Err }

// DecodeBatch parses a JSON array of events or newline-delimited events.
// Events that fail to decode are reported as LineErrors; the rest are
// returned in input order.
func (d *Decoder) DecodeBatch(data []byte) ([]model.LogEvent, []*LineError) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		return d.decodeArray(trimmed)
	}

	var (
		events []model.LogEvent
		errs   []*LineError
	)
	sc := bufio.NewScanner(bytes.NewReader(trimmed))
	sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	line := 0
	for sc.Scan() {
		line++
		b := bytes.TrimSpace(sc.Bytes())
		if len(b) == 0 {
			continue
		}
		ev, err := d.Decode(b)
		if err != nil {
			errs = append(errs, &LineError{Line: line, Err: err})
			continue
		}
		events = append(events, ev)
	}
	if err := sc.Err(); err != nil {
		errs = append(errs, &LineError{Line: line + 1, Err: err})
	}
	return events, errs
}

func (d *Decoder) decodeArray(data []byte) ([]model.LogEvent, []*LineError) {
	p := d.pool.Get()
	defer d.pool.Put(p)

	v, err := p.ParseBytes(data)
	if err != nil {
		return nil, []*LineError{{Line: 1, Err: fmt.Errorf("clef: %w", err)}}
	}
	arr, err := v.Array()
	if err != nil {
		return nil, []*LineError{{Line: 1, Err: fmt.Errorf("clef: %w", err)}}
	}

	var (
		events []model.LogEvent
		errs   []*LineError
	)
	for i, item := range arr {
		ev, err := eventFromValue(item)
		if err != nil {
			errs = append(errs, &LineError{Line: i + 1, Err: err})
			continue
		}
		events = append(events, ev)
	}
	return events, errs
}

// maxLineSize caps a single NDJSON line.
const maxLineSize = 1 << 20

func eventFromValue(v *fastjson.Value) (model.LogEvent, error) {
	obj, err := v.Object()
	if err != nil {
		return model.LogEvent{}, ErrNotObject
	}

	ev := model.LogEvent{Level: model.Information}
	var (
		sawTimestamp bool
		visitErr     error
	)
	obj.Visit(func(key []byte, val *fastjson.Value) {
		if visitErr != nil {
			return
		}
		k := string(key)
		switch k {
		case "@t":
			sawTimestamp = true
			ts, err := time.Parse(time.RFC3339Nano, string(val.GetStringBytes()))
			if err != nil {
				visitErr = fmt.Errorf("%w: %v", ErrBadTimestamp, err)
				return
			}
			ev.Timestamp = ts
		case "@m":
			ev.Message = string(val.GetStringBytes())
		case "@mt":
			ev.MessageTemplate = string(val.GetStringBytes())
		case "@l":
			lvl, err := model.ParseLevel(string(val.GetStringBytes()))
			if err != nil {
				visitErr = fmt.Errorf("clef: @l: %w", err)
				return
			}
			ev.Level = lvl
		case "@x":
			ev.Exception = ParseException(string(val.GetStringBytes()))
		case "@i", "@r", "@tr", "@sp":
		default:
			if strings.HasPrefix(k, "@@") {
				k = k[1:]
			} else if strings.HasPrefix(k, "@") {
				return
			}
			ev.Properties = append(ev.Properties, model.Property{Name: k, Value: propertyValue(val)})
		}
	})
	if visitErr != nil {
		return model.LogEvent{}, visitErr
	}
	if !sawTimestamp {
		return model.LogEvent{}, ErrNoTimestamp
	}
	return ev, nil
}

// propertyValue maps JSON onto the property model: objects become
// Structures (a "$type" member sets the type tag), arrays become
// Sequences, numbers become int64 when integral and float64 otherwise.
func propertyValue(v *fastjson.Value) model.PropertyValue {
	switch v.Type() {
	case fastjson.TypeObject:
		obj, _ := v.Object()
		s := model.Structure{}
		obj.Visit(func(key []byte, val *fastjson.Value) {
			if string(key) == "$type" {
				s.TypeTag = string(val.GetStringBytes())
				return
			}
			s.Fields = append(s.Fields, model.Field{Name: string(key), Value: propertyValue(val)})
		})
		return s
	case fastjson.TypeArray:
		arr, _ := v.Array()
		elems := make([]model.PropertyValue, len(arr))
		for i, item := range arr {
			elems[i] = propertyValue(item)
		}
		return model.Sequence{Elements: elems}
	case fastjson.TypeString:
		return model.Scalar{Value: string(v.GetStringBytes())}
	case fastjson.TypeNumber:
		if n, err := v.Int64(); err == nil {
			return model.Scalar{Value: n}
		}
		return model.Scalar{Value: v.GetFloat64()}
	case fastjson.TypeTrue:
		return model.Scalar{Value: true}
	case fastjson.TypeFalse:
		return model.Scalar{Value: false}
	default:
		return model.Scalar{}
	}
}

// ParseException splits a rendered exception into kind, message and stack
// trace. The first line is expected as "Namespace.Kind: message"; the
// kind is reduced to its last dotted component. Returns nil for "".
func ParseException(s string) *model.Exception {
	s = strings.TrimRight(s, "\r\n")
	if s == "" {
		return nil
	}
	first, rest, _ := strings.Cut(s, "\n")
	first = strings.TrimRight(first, "\r")

	ex := &model.Exception{Message: first, StackTrace: rest}
	if kind, msg, ok := strings.Cut(first, ": "); ok && !strings.ContainsAny(kind, " \t") {
		kind = strings.TrimLeft(kind, "*")
		if i := strings.LastIndexByte(kind, '.'); i >= 0 {
			kind = kind[i+1:]
		}
		ex.Type, ex.Message = kind, msg
	}
	return ex
}
