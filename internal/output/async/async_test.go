package async

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/crimson-sun/slackline/internal/model"
)

// gatedOutput records events. When gate is non-nil each Write waits for a
// value on it, which lets tests hold the drain goroutine in place.
type gatedOutput struct {
	gate chan struct{}
	fail error

	mu       sync.Mutex
	messages []string
	closed   bool
}

func (g *gatedOutput) Write(_ context.Context, ev model.LogEvent) error {
	if g.gate != nil {
		<-g.gate
	}
	g.mu.Lock()
	g.messages = append(g.messages, ev.Message)
	g.mu.Unlock()
	return g.fail
}

func (g *gatedOutput) Close() error {
	g.mu.Lock()
	g.closed = true
	g.mu.Unlock()
	return nil
}

func (g *gatedOutput) delivered() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.messages...)
}

func slackEvent(msg string) model.LogEvent {
	return model.LogEvent{Level: model.Warning, Message: msg, Timestamp: time.Unix(0, 0)}
}

func TestDeliversInOrder(t *testing.T) {
	inner := &gatedOutput{}
	a := New(inner, WithBufferSize(8))

	want := []string{"a", "b", "c", "d", "e"}
	for _, m := range want {
		if err := a.Write(context.Background(), slackEvent(m)); err != nil {
			t.Fatalf("Write(%q): %v", m, err)
		}
	}
	if err := a.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	got := inner.delivered()
	if len(got) != len(want) {
		t.Fatalf("delivered %d events, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("event %d = %q, want %q", i, got[i], want[i])
		}
	}
	if !inner.closed {
		t.Fatal("inner output not closed")
	}
}

func TestFullBufferBlocksUntilDrained(t *testing.T) {
	inner := &gatedOutput{gate: make(chan struct{})}
	a := New(inner, WithBufferSize(1))

	// "queued" can only enter the buffer once the drain goroutine has
	// taken "held" and parked on the gate, so the buffer is now full.
	a.Write(context.Background(), slackEvent("held"))
	a.Write(context.Background(), slackEvent("queued"))

	written := make(chan struct{})
	go func() {
		a.Write(context.Background(), slackEvent("blocked"))
		close(written)
	}()

	select {
	case <-written:
		t.Fatal("Write returned while the buffer was full")
	case <-time.After(50 * time.Millisecond):
	}

	close(inner.gate)
	select {
	case <-written:
	case <-time.After(2 * time.Second):
		t.Fatal("Write still blocked after the inner output resumed")
	}
	a.Close()

	if n := len(inner.delivered()); n != 3 {
		t.Fatalf("delivered %d events, want 3", n)
	}
}

func TestDropOnFullLosesOverflow(t *testing.T) {
	inner := &gatedOutput{gate: make(chan struct{})}
	a := New(inner, WithBufferSize(2), WithDropOnFull())

	for i := 0; i < 25; i++ {
		if err := a.Write(context.Background(), slackEvent("burst")); err != nil {
			t.Fatalf("Write in drop mode returned %v", err)
		}
	}
	close(inner.gate)
	a.Close()

	// At most one in flight plus the buffer.
	n := len(inner.delivered())
	if n == 0 || n > 3 {
		t.Fatalf("delivered %d events, want between 1 and 3", n)
	}
}

func TestOnErrorReceivesFailures(t *testing.T) {
	boom := errors.New("slack unavailable")
	inner := &gatedOutput{fail: boom}

	var calls atomic.Int32
	a := New(inner, WithOnError(func(err error) {
		if errors.Is(err, boom) {
			calls.Add(1)
		}
	}))
	for i := 0; i < 4; i++ {
		a.Write(context.Background(), slackEvent("x"))
	}
	a.Close()

	if calls.Load() != 4 {
		t.Fatalf("OnError called %d times, want 4", calls.Load())
	}
}

func TestCloseTwice(t *testing.T) {
	a := New(&gatedOutput{})
	if err := a.Close(); err != nil {
		t.Fatalf("first Close: %v", err)
	}
	if err := a.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
	select {
	case <-a.done:
	default:
		t.Fatal("drain goroutine still running after Close")
	}
}

func TestWriteAfterCloseFails(t *testing.T) {
	a := New(&gatedOutput{})
	a.Close()

	if err := a.Write(context.Background(), slackEvent("late")); !errors.Is(err, ErrClosed) {
		t.Fatalf("Write after Close = %v, want ErrClosed", err)
	}
}

func TestCloseGivesUpAfterDrainTimeout(t *testing.T) {
	inner := &gatedOutput{gate: make(chan struct{})}
	defer close(inner.gate)
	a := New(inner, WithBufferSize(4), WithDrainTimeout(20*time.Millisecond))
	a.Write(context.Background(), slackEvent("stuck"))

	start := time.Now()
	a.Close()
	if d := time.Since(start); d > time.Second {
		t.Fatalf("Close took %v, want about the drain timeout", d)
	}
}

func TestWriteHonorsContextWhenFull(t *testing.T) {
	inner := &gatedOutput{gate: make(chan struct{})}
	defer close(inner.gate)
	a := New(inner, WithBufferSize(1), WithDrainTimeout(10*time.Millisecond))

	a.Write(context.Background(), slackEvent("held"))
	a.Write(context.Background(), slackEvent("queued"))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	err := a.Write(ctx, slackEvent("late"))
	a.Close()

	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Write = %v, want context.DeadlineExceeded", err)
	}
}
