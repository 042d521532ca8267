package model

import "time"

// LogEvent is a structured log event as consumed by the renderer.
type LogEvent struct {
	Timestamp time.Time
	Level     Level
	// Message is the pre-rendered message text. When empty, the renderer
	// renders MessageTemplate against Properties.
	Message         string
	MessageTemplate string
	Exception       *Exception // nil when the event carries no exception
	Properties      Properties
}

// Exception describes an error attached to an event.
type Exception struct {
	Type       string // concrete kind name, e.g. "PathError"
	Message    string
	StackTrace string
}
