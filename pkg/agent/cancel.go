package agent

import "sync"

// CancelSignal is a cooperative cancellation token. The caller sets it once;
// the runner polls it between stream chunks and never mid-chunk. All methods
// are safe on a nil signal, which behaves as never cancelled.
type CancelSignal struct {
	once sync.Once
	done chan struct{}
}

// NewCancelSignal returns an unset signal.
func NewCancelSignal() *CancelSignal {
	return &CancelSignal{done: make(chan struct{})}
}

// Cancel sets the signal. Calling it more than once is a no-op.
func (c *CancelSignal) Cancel() {
	if c == nil {
		return
	}
	c.once.Do(func() { close(c.done) })
}

// Cancelled reports whether the signal has been set.
func (c *CancelSignal) Cancelled() bool {
	if c == nil {
		return false
	}
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}

// Done exposes the signal as a channel for select-based callers.
func (c *CancelSignal) Done() <-chan struct{} {
	if c == nil {
		return nil
	}
	return c.done
}
