// Package group joins flattened fields into one display string per
// top-level property.
package group

import (
	"strings"

	"github.com/crimson-sun/slackline/internal/render/flatten"
)

// Separator joins entries within a section.
const Separator = "\n"

// Section is the joined text of every field under one top-level property.
type Section struct {
	Title string
	Value string
}

// Sections groups fields by section using Separator.
func Sections(fields []flatten.Field) []Section {
	return Join(fields, Separator)
}

// Join groups fields by section in first-seen order and joins each
// group's entries with sep, preserving field order within a group.
func Join(fields []flatten.Field, sep string) []Section {
	var order []string
	entries := make(map[string][]string)
	for _, f := range fields {
		if _, seen := entries[f.Section]; !seen {
			order = append(order, f.Section)
		}
		entries[f.Section] = append(entries[f.Section], Entry(f))
	}

	sections := make([]Section, len(order))
	for i, title := range order {
		sections[i] = Section{Title: title, Value: strings.Join(entries[title], sep)}
	}
	return sections
}

// Entry renders a single field: "<subpath>::<value>", or the bare value
// when the field sits directly on the top-level property.
func Entry(f flatten.Field) string {
	if len(f.Subpath) == 0 {
		return f.Value
	}
	return f.Subpath.String() + "::" + f.Value
}
