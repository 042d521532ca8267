package multi

import (
	"context"
	"errors"
	"sync"

	"github.com/crimson-sun/slackline/internal/model"
	"github.com/crimson-sun/slackline/internal/output"
)

// Multi fans out events to several outputs, typically one per configured
// channel. Each Write delivers to every wrapped output concurrently; one
// failing output does not stop the others.
type Multi struct {
	outputs []output.Output
}

// New creates a Multi that fans out to the given outputs.
func New(outputs ...output.Output) *Multi {
	return &Multi{outputs: outputs}
}

// Write delivers the event to every wrapped output and waits for all of
// them. Errors are joined in output order.
func (m *Multi) Write(ctx context.Context, event model.LogEvent) error {
	if len(m.outputs) == 1 {
		return m.outputs[0].Write(ctx, event)
	}
	errs := make([]error, len(m.outputs))
	var wg sync.WaitGroup
	for i, o := range m.outputs {
		i, o := i, o
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[i] = o.Write(ctx, event)
		}()
	}
	wg.Wait()
	return errors.Join(errs...)
}

// Close calls Close on every wrapped output, collecting errors.
func (m *Multi) Close() error {
	var errs []error
	for _, o := range m.outputs {
		if err := o.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
