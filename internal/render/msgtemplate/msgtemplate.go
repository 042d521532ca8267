// Package msgtemplate renders message templates such as
// "User {Name} logged in from {@Address}" against event properties.
package msgtemplate

import (
	"strconv"
	"strings"

	"github.com/crimson-sun/slackline/internal/model"
	"github.com/crimson-sun/slackline/internal/render/text"
)

// Render substitutes each {Name} token with the text of the matching
// property. Supported token forms: {Name}, {@Name}, {$Name} (value
// rendered, then quoted as a string), {Name:format}, {Name,width} and
// {Name,-width}. "{{" and "}}" produce literal braces. Tokens naming an
// unknown property, and malformed tokens, are copied through unchanged.
func Render(tmpl string, props model.Properties, f *text.Formatter) string {
	var b strings.Builder
	b.Grow(len(tmpl))

	for i := 0; i < len(tmpl); {
		c := tmpl[i]
		switch {
		case c == '{' && i+1 < len(tmpl) && tmpl[i+1] == '{':
			b.WriteByte('{')
			i += 2
		case c == '}' && i+1 < len(tmpl) && tmpl[i+1] == '}':
			b.WriteByte('}')
			i += 2
		case c == '{':
			end := strings.IndexByte(tmpl[i+1:], '}')
			if end < 0 {
				b.WriteString(tmpl[i:])
				return b.String()
			}
			raw := tmpl[i : i+end+2]
			b.WriteString(renderToken(raw, props, f))
			i += end + 2
		default:
			b.WriteByte(c)
			i++
		}
	}
	return b.String()
}

type token struct {
	name      string
	stringify bool
	format    string
	width     int
}

func renderToken(raw string, props model.Properties, f *text.Formatter) string {
	tok, ok := parseToken(raw[1 : len(raw)-1])
	if !ok {
		return raw
	}
	v, ok := props.Get(tok.name)
	if !ok {
		return raw
	}

	var s string
	if tok.stringify {
		s = text.Quote(f.Format(v, text.Literal))
	} else {
		s = f.Format(v, tok.format)
	}
	return align(s, tok.width)
}

// maxWidth bounds token alignment. Wider tokens are malformed and copied
// through verbatim.
const maxWidth = 1000

func parseToken(body string) (token, bool) {
	var tok token
	if body == "" {
		return tok, false
	}
	switch body[0] {
	case '@':
		body = body[1:]
	case '$':
		tok.stringify = true
		body = body[1:]
	}

	if name, format, ok := strings.Cut(body, ":"); ok {
		body, tok.format = name, format
	}
	if name, width, ok := strings.Cut(body, ","); ok {
		n, err := strconv.Atoi(strings.TrimSpace(width))
		if err != nil || n > maxWidth || n < -maxWidth {
			return tok, false
		}
		body, tok.width = name, n
	}

	if !validName(body) {
		return tok, false
	}
	tok.name = body
	return tok, true
}

func validName(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r != '_' && r != '.' && !('a' <= r && r <= 'z') && !('A' <= r && r <= 'Z') && !('0' <= r && r <= '9') {
			return false
		}
	}
	return true
}

// align pads s to width runes: right-aligned for positive widths,
// left-aligned for negative ones.
func align(s string, width int) string {
	n := len([]rune(s))
	switch {
	case width > n:
		return strings.Repeat(" ", width-n) + s
	case -width > n:
		return s + strings.Repeat(" ", -width-n)
	}
	return s
}
