package model

import (
	"fmt"
	"log/slog"
	"reflect"
	"sort"
	"strings"
	"time"
)

// maxCaptureDepth bounds how far Capture descends into nested Go values.
// Deeper values collapse to a scalar holding their type name, which also
// stops pointer cycles.
const maxCaptureDepth = 10

var (
	timeType     = reflect.TypeOf(time.Time{})
	durationType = reflect.TypeOf(time.Duration(0))
)

// Capture converts an arbitrary Go value into a PropertyValue tree.
//
// Maps become Dictionaries (keys sorted by their text), structs become
// Structures tagged with the type name, slices and arrays become
// Sequences, and everything else is a Scalar. slog.LogValuer is honored
// before any reflection.
func Capture(v any) PropertyValue {
	return capture(v, 0)
}

// CaptureSlog converts a slog.Value into a PropertyValue tree. Groups
// become untagged Structures.
func CaptureSlog(v slog.Value) PropertyValue {
	return captureSlog(v, 0)
}

// CaptureAttrs converts slog attributes to Structure fields, inlining
// groups with an empty key and dropping empty attributes.
func CaptureAttrs(attrs []slog.Attr) []Field {
	return captureAttrs(attrs, 0)
}

func capture(v any, depth int) PropertyValue {
	switch x := v.(type) {
	case nil:
		return Scalar{}
	case PropertyValue:
		return x
	case slog.Value:
		return captureSlog(x, depth)
	case slog.LogValuer:
		return captureSlog(x.LogValue(), depth)
	case error, fmt.Stringer, time.Time, time.Duration:
		return Scalar{Value: x}
	}
	return captureReflect(reflect.ValueOf(v), depth)
}

func captureReflect(rv reflect.Value, depth int) PropertyValue {
	switch rv.Kind() {
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64, reflect.Complex64, reflect.Complex128,
		reflect.String:
		return Scalar{Value: rv.Interface()}
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return Scalar{}
		}
		if depth >= maxCaptureDepth {
			return Scalar{Value: rv.Type().String()}
		}
		return capture(rv.Elem().Interface(), depth+1)
	}

	if depth >= maxCaptureDepth {
		return Scalar{Value: rv.Type().String()}
	}

	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			return Scalar{Value: rv.Interface()}
		}
		if rv.Kind() == reflect.Slice && rv.IsNil() {
			return Sequence{}
		}
		elems := make([]PropertyValue, rv.Len())
		for i := range elems {
			elems[i] = capture(rv.Index(i).Interface(), depth+1)
		}
		return Sequence{Elements: elems}
	case reflect.Map:
		return captureMap(rv, depth)
	case reflect.Struct:
		if rv.Type() == timeType || rv.Type() == durationType {
			return Scalar{Value: rv.Interface()}
		}
		return captureStruct(rv, depth)
	}
	return Scalar{Value: rv.Type().String()}
}

func captureMap(rv reflect.Value, depth int) PropertyValue {
	type keyed struct {
		text  string
		entry Entry
	}
	items := make([]keyed, 0, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		k := iter.Key().Interface()
		items = append(items, keyed{
			text: fmt.Sprint(k),
			entry: Entry{
				Key:   capture(k, depth+1),
				Value: capture(iter.Value().Interface(), depth+1),
			},
		})
	}
	sort.SliceStable(items, func(i, j int) bool { return items[i].text < items[j].text })

	entries := make([]Entry, len(items))
	for i, it := range items {
		entries[i] = it.entry
	}
	return Dictionary{Entries: entries}
}

func captureStruct(rv reflect.Value, depth int) PropertyValue {
	t := rv.Type()
	fields := make([]Field, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}
		name := sf.Name
		if tag, ok := sf.Tag.Lookup("json"); ok {
			tagName, _, _ := strings.Cut(tag, ",")
			if tagName == "-" {
				continue
			}
			if tagName != "" {
				name = tagName
			}
		}
		fields = append(fields, Field{
			Name:  name,
			Value: capture(rv.Field(i).Interface(), depth+1),
		})
	}
	return Structure{TypeTag: t.Name(), Fields: fields}
}

func captureSlog(v slog.Value, depth int) PropertyValue {
	v = v.Resolve()
	switch v.Kind() {
	case slog.KindGroup:
		if depth >= maxCaptureDepth {
			return Scalar{Value: "group"}
		}
		return Structure{Fields: captureAttrs(v.Group(), depth+1)}
	case slog.KindAny:
		return capture(v.Any(), depth)
	default:
		return Scalar{Value: v.Any()}
	}
}

func captureAttrs(attrs []slog.Attr, depth int) []Field {
	fields := make([]Field, 0, len(attrs))
	for _, a := range attrs {
		if a.Equal(slog.Attr{}) {
			continue
		}
		val := a.Value.Resolve()
		if a.Key == "" && val.Kind() == slog.KindGroup {
			fields = append(fields, captureAttrs(val.Group(), depth)...)
			continue
		}
		fields = append(fields, Field{Name: a.Key, Value: captureSlog(val, depth)})
	}
	return fields
}
