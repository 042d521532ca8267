// Package file streams CLEF events from a file or stdin.
package file

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"

	"github.com/crimson-sun/slackline/internal/connector"
	"github.com/crimson-sun/slackline/internal/decode/clef"
	"github.com/crimson-sun/slackline/internal/model"
)

const maxLineSize = 1 << 20

var (
	gzipMagic = []byte{0x1f, 0x8b}
	zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}
)

func init() {
	connector.Register("file", func() connector.Connector {
		return &Connector{}
	})
}

// Connector reads newline-delimited CLEF. Gzip and zstd input is detected
// from its magic bytes and decompressed.
type Connector struct {
	// Stdin is read when the configured path is "" or "-". Nil means os.Stdin.
	Stdin io.Reader
}

func (c *Connector) Stream(ctx context.Context, cfg connector.ConnectorConfig) (<-chan model.LogEvent, error) {
	var (
		src    io.Reader
		closer io.Closer
	)
	switch cfg.Path {
	case "", "-":
		src = c.Stdin
		if src == nil {
			src = os.Stdin
		}
	default:
		f, err := os.Open(cfg.Path)
		if err != nil {
			return nil, fmt.Errorf("file connector: %w", err)
		}
		src, closer = f, f
	}

	r, release, err := decompress(bufio.NewReader(src))
	if err != nil {
		if closer != nil {
			closer.Close()
		}
		return nil, fmt.Errorf("file connector: %w", err)
	}

	ch := make(chan model.LogEvent, 64)
	go func() {
		defer close(ch)
		defer release()
		if closer != nil {
			defer closer.Close()
		}
		scan(ctx, r, cfg.Path, ch)
	}()
	return ch, nil
}

func scan(ctx context.Context, r io.Reader, path string, ch chan<- model.LogEvent) {
	dec := clef.NewDecoder()
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	line := 0
	for sc.Scan() {
		line++
		b := bytes.TrimSpace(sc.Bytes())
		if len(b) == 0 {
			continue
		}
		ev, err := dec.Decode(b)
		if err != nil {
			slog.Warn("skipping undecodable event", "connector", "file", "path", path, "line", line, "error", err)
			continue
		}
		select {
		case ch <- ev:
		case <-ctx.Done():
			return
		}
	}
	if err := sc.Err(); err != nil {
		slog.Error("read error", "connector", "file", "path", path, "error", err)
	}
}

// decompress wraps br in a gzip or zstd reader when its first bytes match.
func decompress(br *bufio.Reader) (io.Reader, func(), error) {
	head, _ := br.Peek(len(zstdMagic))
	switch {
	case bytes.HasPrefix(head, gzipMagic):
		zr, err := gzip.NewReader(br)
		if err != nil {
			return nil, nil, err
		}
		return zr, func() { zr.Close() }, nil
	case bytes.HasPrefix(head, zstdMagic):
		zr, err := zstd.NewReader(br)
		if err != nil {
			return nil, nil, err
		}
		return zr, zr.Close, nil
	default:
		return br, func() {}, nil
	}
}
