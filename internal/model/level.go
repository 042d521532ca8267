package model

import (
	"fmt"
	"strings"
)

// Level is the severity of a log event. Levels are ordered: a higher value
// is more severe.
type Level int

const (
	Verbose Level = iota
	Debug
	Information
	Warning
	Error
	Fatal
)

var levelNames = [...]string{"Verbose", "Debug", "Information", "Warning", "Error", "Fatal"}

// String returns the canonical level name, e.g. "Information".
func (l Level) String() string {
	if l.Valid() {
		return levelNames[l]
	}
	return fmt.Sprintf("Level(%d)", int(l))
}

// Valid reports whether l is one of the six defined levels.
func (l Level) Valid() bool {
	return l >= Verbose && l <= Fatal
}

// ParseLevel accepts canonical names and the common short aliases
// ("trace", "dbg", "info", "warn", "err", "crit", ...), case-insensitively.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "verbose", "trace", "vrb":
		return Verbose, nil
	case "debug", "dbg":
		return Debug, nil
	case "information", "info", "inf":
		return Information, nil
	case "warning", "warn", "wrn":
		return Warning, nil
	case "error", "err", "eror":
		return Error, nil
	case "fatal", "critical", "crit", "ftl", "panic":
		return Fatal, nil
	}
	return Verbose, fmt.Errorf("unknown level %q", s)
}
