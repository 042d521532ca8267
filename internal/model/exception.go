package model

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
)

// maxCauses bounds how many wrapped errors are listed in a stack trace.
const maxCauses = 16

// ExceptionFromError describes err as an Exception. Type is the concrete
// type name with pointers and package path removed. StackTrace starts with
// the error's "%+v" detail beyond Error(), as errors carrying a stack
// provide, followed by one "caused by:" line per wrapped error found via
// Unwrap, depth first (errors.Join members and %w chains alike). Returns
// nil for a nil error.
func ExceptionFromError(err error) *Exception {
	if err == nil {
		return nil
	}
	ex := &Exception{
		Type:    errorTypeName(err),
		Message: err.Error(),
	}

	var lines []string
	if verbose := fmt.Sprintf("%+v", err); verbose != ex.Message {
		if detail := strings.TrimLeft(strings.TrimPrefix(verbose, ex.Message), "\n"); detail != "" {
			lines = append(lines, detail)
		}
	}
	for _, cause := range causes(err) {
		lines = append(lines, "caused by: "+errorTypeName(cause)+": "+cause.Error())
	}
	ex.StackTrace = strings.Join(lines, "\n")
	return ex
}

// causes returns the errors wrapped by err, depth first, excluding err.
func causes(err error) []error {
	var out []error
	var walk func(error)
	walk = func(e error) {
		var next []error
		switch u := e.(type) {
		case interface{ Unwrap() []error }:
			next = u.Unwrap()
		default:
			if inner := errors.Unwrap(e); inner != nil {
				next = []error{inner}
			}
		}
		for _, n := range next {
			if n == nil || len(out) >= maxCauses {
				continue
			}
			out = append(out, n)
			walk(n)
		}
	}
	walk(err)
	return out
}

func errorTypeName(err error) string {
	t := reflect.TypeOf(err)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if name := t.Name(); name != "" {
		return name
	}
	return t.String()
}
