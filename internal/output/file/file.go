// Package file archives rendered Slack payloads to disk, one JSON document
// per line.
package file

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/crimson-sun/slackline/internal/model"
	"github.com/crimson-sun/slackline/internal/output"
	"github.com/crimson-sun/slackline/internal/render"
)

const (
	defaultBufSize    = 64 * 1024
	defaultMaxBackups = 10
)

// Option configures a file Output.
type Option func(*Output)

// WithMaxSize rotates the archive once it would grow past bytes. 0, the
// default, never rotates.
func WithMaxSize(bytes int64) Option {
	return func(o *Output) { o.maxSize = bytes }
}

// WithMaxBackups sets how many rotated files ({path}.1 newest) are kept.
// Default: 10.
func WithMaxBackups(n int) Option {
	return func(o *Output) { o.maxBackups = n }
}

// WithBufSize sets the write buffer size. Default: 64KB.
func WithBufSize(bytes int) Option {
	return func(o *Output) { o.bufSize = bytes }
}

// WithRenderer sets the renderer. Default: output.DefaultRenderer().
func WithRenderer(r *render.Renderer) Option {
	return func(o *Output) { o.renderer = r }
}

// WithIdentity sets the identity overrides included in each payload.
func WithIdentity(id render.Identity) Option {
	return func(o *Output) { o.identity = id }
}

// Output appends payloads to a file. Writes are buffered until Close or
// rotation.
type Output struct {
	path       string
	maxSize    int64
	maxBackups int
	bufSize    int
	renderer   *render.Renderer
	identity   render.Identity

	mu   sync.Mutex
	f    *os.File
	buf  *bufio.Writer
	size int64
}

// New opens path for appending, creating it if needed.
func New(path string, opts ...Option) (*Output, error) {
	o := &Output{
		path:       path,
		maxBackups: defaultMaxBackups,
		bufSize:    defaultBufSize,
	}
	for _, opt := range opts {
		opt(o)
	}
	if err := o.open(); err != nil {
		return nil, err
	}
	return o, nil
}

// Write renders event and appends the payload. A payload is never split
// across files; rotation happens before a line that would overflow a
// non-empty file.
func (o *Output) Write(_ context.Context, event model.LogEvent) error {
	line, err := o.encode(event)
	if err != nil {
		return err
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	if o.needsRotation(len(line)) {
		if err := o.rotate(); err != nil {
			return fmt.Errorf("file output: rotate: %w", err)
		}
	}
	n, err := o.buf.Write(line)
	o.size += int64(n)
	if err != nil {
		return fmt.Errorf("file output: write: %w", err)
	}
	return nil
}

// Close flushes buffered payloads and closes the file.
func (o *Output) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	flushErr := o.buf.Flush()
	closeErr := o.f.Close()
	if flushErr != nil {
		return fmt.Errorf("file output: flush: %w", flushErr)
	}
	return closeErr
}

func (o *Output) encode(event model.LogEvent) ([]byte, error) {
	msg, err := output.FormatEvent(o.renderer, o.identity, event)
	if err != nil {
		return nil, fmt.Errorf("file output: %w", err)
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("file output: marshal: %w", err)
	}
	return append(data, '\n'), nil
}

func (o *Output) needsRotation(next int) bool {
	return o.maxSize > 0 && o.size > 0 && o.size+int64(next) > o.maxSize
}

func (o *Output) open() error {
	f, err := os.OpenFile(o.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("file output: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return fmt.Errorf("file output: %w", err)
	}
	o.f, o.size = f, info.Size()
	if o.buf == nil {
		o.buf = bufio.NewWriterSize(f, o.bufSize)
	} else {
		o.buf.Reset(f)
	}
	return nil
}

// rotate shifts {path}.N to {path}.N+1, dropping the oldest, moves path to
// {path}.1 and reopens path empty.
func (o *Output) rotate() error {
	if err := o.buf.Flush(); err != nil {
		return err
	}
	if err := o.f.Close(); err != nil {
		return err
	}

	if o.maxBackups <= 0 {
		if err := os.Remove(o.path); err != nil {
			return err
		}
		return o.open()
	}
	for i := o.maxBackups - 1; i >= 1; i-- {
		// Gaps in the backup sequence are normal.
		_ = os.Rename(backupName(o.path, i), backupName(o.path, i+1))
	}
	if err := os.Rename(o.path, backupName(o.path, 1)); err != nil {
		return err
	}
	return o.open()
}

func backupName(path string, n int) string {
	return fmt.Sprintf("%s.%d", path, n)
}
