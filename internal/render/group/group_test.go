package group

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/crimson-sun/slackline/internal/render/flatten"
)

func member(name string) flatten.Segment { return flatten.Segment{Kind: flatten.Member, Text: name} }
func index(i int) flatten.Segment       { return flatten.Segment{Kind: flatten.Index, Pos: i} }

func TestSections_NestedPathJoinedWithDoubleColon(t *testing.T) {
	fields := []flatten.Field{{Section: "A", Subpath: flatten.Path{member("B"), member("C")}, Value: "5"}}

	sections := Sections(fields)

	assert.Equal(t, []Section{{Title: "A", Value: ".B.C::5"}}, sections)
}

func TestSections_SequenceEntriesJoinedWithSeparator(t *testing.T) {
	fields := []flatten.Field{
		{Section: "items", Subpath: flatten.Path{index(0)}, Value: "10"},
		{Section: "items", Subpath: flatten.Path{index(1)}, Value: "20"},
	}

	sections := Sections(fields)

	assert.Equal(t, []Section{{Title: "items", Value: "[0]::10" + Separator + "[1]::20"}}, sections)
}

func TestSections_BareScalarNoPrefix(t *testing.T) {
	sections := Sections([]flatten.Field{{Section: "count", Value: "3"}})

	assert.Equal(t, []Section{{Title: "count", Value: "3"}}, sections)
}

func TestJoin_FirstSeenOrderAndCustomSeparator(t *testing.T) {
	fields := []flatten.Field{
		{Section: "b", Value: "1"},
		{Section: "a", Subpath: flatten.Path{member("x")}, Value: "2"},
		{Section: "b", Subpath: flatten.Path{index(0)}, Value: "3"},
	}

	sections := Join(fields, " | ")

	assert.Equal(t, []Section{
		{Title: "b", Value: "1 | [0]::3"},
		{Title: "a", Value: ".x::2"},
	}, sections)
}

func TestSections_NoFieldsNoSections(t *testing.T) {
	assert.Empty(t, Sections(nil))
}
