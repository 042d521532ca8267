package slackline

import "github.com/crimson-sun/slackline/internal/model"

// Event is a structured log event.
type Event = model.LogEvent

// Level is an event severity.
type Level = model.Level

const (
	Verbose     = model.Verbose
	Debug       = model.Debug
	Information = model.Information
	Warning     = model.Warning
	Error       = model.Error
	Fatal       = model.Fatal
)

// Property value types.
type (
	Value      = model.PropertyValue
	Scalar     = model.Scalar
	Structure  = model.Structure
	Field      = model.Field
	Dictionary = model.Dictionary
	Entry      = model.Entry
	Sequence   = model.Sequence
	Property   = model.Property
	Properties = model.Properties
	Exception  = model.Exception
)

// Capture converts an arbitrary Go value into a property value: maps become
// Dictionaries, structs become Structures, slices become Sequences.
func Capture(v any) Value {
	return model.Capture(v)
}

// ExceptionFromError describes err for an event's Exception.
func ExceptionFromError(err error) *Exception {
	return model.ExceptionFromError(err)
}

// ParseLevel parses a level name such as "Warning" or "warn".
func ParseLevel(s string) (Level, error) {
	return model.ParseLevel(s)
}
