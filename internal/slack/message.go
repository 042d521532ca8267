// Package slack defines the incoming-webhook message schema.
package slack

import "github.com/crimson-sun/slackline/internal/model"

// Message is the JSON body posted to an incoming webhook. Identity members
// are omitted entirely when empty.
type Message struct {
	Text        string       `json:"text"`
	Channel     string       `json:"channel,omitempty"`
	Username    string       `json:"username,omitempty"`
	IconEmoji   string       `json:"icon_emoji,omitempty"`
	IconURL     string       `json:"icon_url,omitempty"`
	Attachments []Attachment `json:"attachments"`
}

// Attachment is a colored block of fields.
type Attachment struct {
	Title      string   `json:"title,omitempty"`
	Fallback   string   `json:"fallback"`
	Color      string   `json:"color"`
	Fields     []Field  `json:"fields"`
	MarkdownIn []string `json:"mrkdwn_in,omitempty"`
}

// Field is a titled value inside an attachment. Short fields are laid out
// side by side.
type Field struct {
	Title string `json:"title"`
	Value string `json:"value"`
	Short bool   `json:"short"`
}

// Attachment colors.
const (
	ColorInformation = "#5bc0de"
	ColorWarning     = "#f0ad4e"
	ColorError       = "#d9534f"
	ColorDefault     = "#777"
)

// Color returns the attachment color for a level. Error and Fatal share a
// color; levels without an entry get ColorDefault.
func Color(l model.Level) string {
	switch l {
	case model.Information:
		return ColorInformation
	case model.Warning:
		return ColorWarning
	case model.Error, model.Fatal:
		return ColorError
	default:
		return ColorDefault
	}
}

// InlineCode wraps s in backticks.
func InlineCode(s string) string {
	return "`" + s + "`"
}

// CodeBlock wraps s in triple backticks.
func CodeBlock(s string) string {
	return "```" + s + "```"
}
