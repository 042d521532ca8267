// Package flatten walks property value trees and emits one text field per
// scalar leaf, labeled with the path that leads to it.
package flatten

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/crimson-sun/slackline/internal/model"
)

const defaultMaxDepth = 64

var (
	// ErrMaxDepth is returned when a value tree nests deeper than the
	// configured limit.
	ErrMaxDepth = errors.New("flatten: maximum depth exceeded")
	// ErrUnsupportedValue is returned for a nil or unknown PropertyValue.
	ErrUnsupportedValue = errors.New("flatten: unsupported property value")
)

// SegmentKind identifies how a path segment is written.
type SegmentKind int

const (
	Name   SegmentKind = iota // top-level property name, written bare
	Member                    // structure field, written ".name"
	Index                     // sequence position, written "[i]"
	Key                       // dictionary key, written as its rendered text
)

// Segment is one step of a path through a value tree.
type Segment struct {
	Kind SegmentKind
	Text string // name, member or rendered key
	Pos  int    // position for Index segments
}

// String returns the segment with its punctuation.
func (s Segment) String() string {
	switch s.Kind {
	case Member:
		return "." + s.Text
	case Index:
		return "[" + strconv.Itoa(s.Pos) + "]"
	default:
		return s.Text
	}
}

// Path is an ordered list of segments.
type Path []Segment

// String concatenates the segments. Each segment carries its own leading
// punctuation, so no separator is inserted.
func (p Path) String() string {
	var b strings.Builder
	for _, s := range p {
		b.WriteString(s.String())
	}
	return b.String()
}

// with returns a new path with s appended. p is never modified.
func (p Path) with(s Segment) Path {
	out := make(Path, len(p)+1)
	copy(out, p)
	out[len(p)] = s
	return out
}

// Field is a flattened leaf: the top-level property it belongs to, the
// path below that property, and the rendered scalar text.
type Field struct {
	Section string
	Subpath Path
	Value   string
}

// RenderFunc renders a value to text. It is used for scalar leaves and for
// dictionary keys.
type RenderFunc func(model.PropertyValue) string

// Option configures a Flattener.
type Option func(*Flattener)

// WithMaxDepth sets the maximum nesting depth below a top-level property.
// Default: 64.
func WithMaxDepth(n int) Option {
	return func(f *Flattener) { f.maxDepth = n }
}

// Flattener converts property trees to flat fields. It holds no per-call
// state and is safe for concurrent use.
type Flattener struct {
	render   RenderFunc
	maxDepth int
}

// New creates a Flattener that renders leaves with render.
func New(render RenderFunc, opts ...Option) *Flattener {
	f := &Flattener{render: render, maxDepth: defaultMaxDepth}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Flatten returns one Field per scalar leaf reachable from props, in
// depth-first, left-to-right order. Empty structures, dictionaries and
// sequences contribute nothing.
func (f *Flattener) Flatten(props model.Properties) ([]Field, error) {
	var out []Field
	for _, p := range props {
		fields, err := f.walk(out, p.Name, nil, p.Value, 0)
		if err != nil {
			return nil, fmt.Errorf("property %q: %w", p.Name, err)
		}
		out = fields
	}
	return out, nil
}

func (f *Flattener) walk(out []Field, section string, path Path, v model.PropertyValue, depth int) ([]Field, error) {
	if depth > f.maxDepth {
		return nil, fmt.Errorf("%w (%d) at %s%s", ErrMaxDepth, f.maxDepth, section, path)
	}

	var err error
	switch x := v.(type) {
	case model.Scalar:
		out = append(out, Field{Section: section, Subpath: path, Value: f.render(x)})
	case model.Structure:
		for _, field := range x.Fields {
			seg := Segment{Kind: Member, Text: field.Name}
			if out, err = f.walk(out, section, path.with(seg), field.Value, depth+1); err != nil {
				return nil, err
			}
		}
	case model.Dictionary:
		for _, e := range x.Entries {
			if e.Key == nil {
				return nil, fmt.Errorf("%w: nil dictionary key at %s%s", ErrUnsupportedValue, section, path)
			}
			seg := Segment{Kind: Key, Text: f.render(e.Key)}
			if out, err = f.walk(out, section, path.with(seg), e.Value, depth+1); err != nil {
				return nil, err
			}
		}
	case model.Sequence:
		for i, elem := range x.Elements {
			seg := Segment{Kind: Index, Pos: i}
			if out, err = f.walk(out, section, path.with(seg), elem, depth+1); err != nil {
				return nil, err
			}
		}
	default:
		return nil, fmt.Errorf("%w %T at %s%s", ErrUnsupportedValue, v, section, path)
	}
	return out, nil
}

// CountLeaves returns the number of scalar leaves in v, which is the
// number of fields Flatten emits for it.
func CountLeaves(v model.PropertyValue) int {
	switch x := v.(type) {
	case model.Scalar:
		return 1
	case model.Structure:
		n := 0
		for _, field := range x.Fields {
			n += CountLeaves(field.Value)
		}
		return n
	case model.Dictionary:
		n := 0
		for _, e := range x.Entries {
			n += CountLeaves(e.Value)
		}
		return n
	case model.Sequence:
		n := 0
		for _, elem := range x.Elements {
			n += CountLeaves(elem)
		}
		return n
	}
	return 0
}
