package file

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crimson-sun/slackline/internal/connector"
	"github.com/crimson-sun/slackline/internal/model"
)

const sample = `{"@t":"2024-03-01T10:00:00Z","@mt":"User {Name} logged in","Name":"alice"}
not json
{"@t":"2024-03-01T10:00:01Z","@l":"Error","@m":"boom"}

`

func collect(t *testing.T, ch <-chan model.LogEvent) []model.LogEvent {
	t.Helper()
	var out []model.LogEvent
	timeout := time.After(5 * time.Second)
	for {
		select {
		case ev, ok := <-ch:
			if !ok {
				return out
			}
			out = append(out, ev)
		case <-timeout:
			t.Fatal("timed out waiting for stream to close")
		}
	}
}

func assertSample(t *testing.T, events []model.LogEvent) {
	t.Helper()
	require.Len(t, events, 2)
	assert.Equal(t, model.Information, events[0].Level)
	assert.Equal(t, "User {Name} logged in", events[0].MessageTemplate)
	v, ok := events[0].Properties.Get("Name")
	require.True(t, ok)
	assert.Equal(t, model.Scalar{Value: "alice"}, v)
	assert.Equal(t, model.Error, events[1].Level)
	assert.Equal(t, "boom", events[1].Message)
}

func TestRegistered(t *testing.T) {
	ctor, err := connector.Get("file")
	require.NoError(t, err)
	assert.IsType(t, &Connector{}, ctor())
}

func TestStream_Plain(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.clef")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o644))

	ch, err := (&Connector{}).Stream(context.Background(), connector.ConnectorConfig{Path: path})
	require.NoError(t, err)
	assertSample(t, collect(t, ch))
}

func TestStream_Stdin(t *testing.T) {
	c := &Connector{Stdin: strings.NewReader(sample)}
	ch, err := c.Stream(context.Background(), connector.ConnectorConfig{Path: "-"})
	require.NoError(t, err)
	assertSample(t, collect(t, ch))
}

func TestStream_Gzip(t *testing.T) {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	_, err := zw.Write([]byte(sample))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	c := &Connector{Stdin: &buf}
	ch, err := c.Stream(context.Background(), connector.ConnectorConfig{})
	require.NoError(t, err)
	assertSample(t, collect(t, ch))
}

func TestStream_Zstd(t *testing.T) {
	var buf bytes.Buffer
	zw, err := zstd.NewWriter(&buf)
	require.NoError(t, err)
	_, err = zw.Write([]byte(sample))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	path := filepath.Join(t.TempDir(), "events.clef.zst")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))

	ch, err := (&Connector{}).Stream(context.Background(), connector.ConnectorConfig{Path: path})
	require.NoError(t, err)
	assertSample(t, collect(t, ch))
}

func TestStream_MissingFile(t *testing.T) {
	_, err := (&Connector{}).Stream(context.Background(), connector.ConnectorConfig{
		Path: filepath.Join(t.TempDir(), "nope.clef"),
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestStream_ContextCancel(t *testing.T) {
	var sb strings.Builder
	for i := 0; i < 1000; i++ {
		sb.WriteString(`{"@t":"2024-03-01T10:00:00Z","@m":"x"}` + "\n")
	}
	ctx, cancel := context.WithCancel(context.Background())
	ch, err := (&Connector{Stdin: strings.NewReader(sb.String())}).Stream(ctx, connector.ConnectorConfig{})
	require.NoError(t, err)

	<-ch
	cancel()
	events := collect(t, ch)
	assert.Less(t, len(events), 999)
}
