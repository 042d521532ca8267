package multi

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/crimson-sun/slackline/internal/model"
)

// mockOutput records calls for test assertions.
type mockOutput struct {
	events []model.LogEvent
	closed bool
	err    error // if set, Write returns this error
	delay  time.Duration
}

func (m *mockOutput) Write(_ context.Context, event model.LogEvent) error {
	time.Sleep(m.delay)
	m.events = append(m.events, event)
	return m.err
}

func (m *mockOutput) Close() error {
	m.closed = true
	return m.err
}

func testEvent(msg string) model.LogEvent {
	return model.LogEvent{
		Timestamp: time.Now(),
		Level:     model.Information,
		Message:   msg,
	}
}

func TestFanOutDeliversToAll(t *testing.T) {
	a := &mockOutput{}
	b := &mockOutput{}
	c := &mockOutput{}
	m := New(a, b, c)

	if err := m.Write(context.Background(), testEvent("hello")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for i, out := range []*mockOutput{a, b, c} {
		if len(out.events) != 1 {
			t.Fatalf("output %d: got %d events, want 1", i, len(out.events))
		}
		if out.events[0].Message != "hello" {
			t.Errorf("output %d: got message %q, want %q", i, out.events[0].Message, "hello")
		}
	}
}

func TestFanOutIsConcurrent(t *testing.T) {
	outs := []*mockOutput{{delay: 100 * time.Millisecond}, {delay: 100 * time.Millisecond}, {delay: 100 * time.Millisecond}}
	m := New(outs[0], outs[1], outs[2])

	start := time.Now()
	m.Write(context.Background(), testEvent("x"))
	if elapsed := time.Since(start); elapsed > 250*time.Millisecond {
		t.Errorf("fan-out took %v, expected outputs to run concurrently", elapsed)
	}
}

func TestErrorDoesNotPreventDelivery(t *testing.T) {
	failing := &mockOutput{err: errors.New("channel_not_found")}
	healthy := &mockOutput{}
	m := New(failing, healthy)

	err := m.Write(context.Background(), testEvent("boom"))
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if !errors.Is(err, failing.err) {
		t.Errorf("joined error should wrap the failing output's error: %v", err)
	}

	if len(healthy.events) != 1 {
		t.Fatalf("healthy output got %d events, want 1", len(healthy.events))
	}
	if len(failing.events) != 1 {
		t.Fatalf("failing output got %d events, want 1", len(failing.events))
	}
}

type countingOutput struct{ n atomic.Int32 }

func (c *countingOutput) Write(context.Context, model.LogEvent) error { c.n.Add(1); return nil }
func (c *countingOutput) Close() error                               { return nil }

func TestSameOutputTwice(t *testing.T) {
	c := &countingOutput{}
	m := New(c, c)
	m.Write(context.Background(), testEvent("x"))
	if c.n.Load() != 2 {
		t.Errorf("got %d writes, want 2", c.n.Load())
	}
}

func TestCloseCallsAllOutputs(t *testing.T) {
	a := &mockOutput{}
	b := &mockOutput{}
	m := New(a, b)

	if err := m.Close(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !a.closed || !b.closed {
		t.Errorf("Close not called on all outputs: a=%v b=%v", a.closed, b.closed)
	}
}

func TestCloseCollectsErrors(t *testing.T) {
	a := &mockOutput{err: errors.New("err-a")}
	b := &mockOutput{err: errors.New("err-b")}
	m := New(a, b)

	err := m.Close()
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if !errors.Is(err, a.err) || !errors.Is(err, b.err) {
		t.Errorf("expected both errors joined, got %v", err)
	}
}

func TestSingleOutputIdentity(t *testing.T) {
	inner := &mockOutput{}
	m := New(inner)

	if err := m.Write(context.Background(), testEvent("deployed")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := m.Close(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(inner.events) != 1 || inner.events[0].Message != "deployed" {
		t.Error("single-output Multi did not behave identically to wrapped output")
	}
	if !inner.closed {
		t.Error("single-output Multi did not close inner output")
	}
}
