package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crimson-sun/slackline/internal/slack"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestRenderCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.clef")
	lines := strings.Join([]string{
		`{"@t":"2024-05-01T10:00:00Z","@mt":"Hello {Name}","Name":"Ada"}`,
		`{"@t":"2024-05-01T10:00:01Z","@l":"Debug","@m":"noise"}`,
	}, "\n")
	require.NoError(t, os.WriteFile(path, []byte(lines), 0o644))
	t.Setenv("SLACKLINE_MIN_LEVEL", "Information")

	out, err := run(t, "render", path)
	require.NoError(t, err)

	docs := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, docs, 1)

	var msg slack.Message
	require.NoError(t, json.Unmarshal([]byte(docs[0]), &msg))
	assert.Equal(t, `Hello "Ada"`, msg.Text)
	require.Len(t, msg.Attachments, 1)
	assert.Equal(t, slack.ColorInformation, msg.Attachments[0].Color)
}

func TestSendRequiresChannel(t *testing.T) {
	t.Setenv("SLACKLINE_WEBHOOK_URL", "")
	_, err := run(t, "send", "-")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no channels configured")
}

func TestRenderBadMinLevel(t *testing.T) {
	t.Setenv("SLACKLINE_MIN_LEVEL", "Loud")
	_, err := run(t, "render", "-")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SLACKLINE_MIN_LEVEL")
}

func TestVersionCommand(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "Version:    dev")
}
