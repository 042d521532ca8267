package slackline

// Render returns the Slack webhook payload for ev as JSON, without sending
// it. Identity options (channel, username, icon) are included.
func Render(ev Event, opts ...Option) ([]byte, error) {
	o := buildOptions(opts)
	return o.renderer().RenderJSON(&ev, o.identity)
}
