package loop

import (
	"context"
	"sync"
)

// Inline is an Executor that runs tasks on the calling goroutine.
// Tasks posted from inside a running task are queued and run after it,
// so ordering matches Loop.
type Inline struct {
	mu      sync.Mutex
	running bool
	queue   []func()
}

// Ensure Inline implements Executor
var _ Executor = (*Inline)(nil)

// NewInline creates an inline executor
func NewInline() *Inline {
	return &Inline{}
}

// Post runs the task now, or after the task currently running
func (i *Inline) Post(fn func()) {
	i.mu.Lock()
	i.queue = append(i.queue, fn)
	if i.running {
		i.mu.Unlock()
		return
	}
	i.running = true
	for len(i.queue) > 0 {
		next := i.queue[0]
		i.queue = i.queue[1:]
		i.mu.Unlock()
		next()
		i.mu.Lock()
	}
	i.running = false
	i.mu.Unlock()
}

// Do runs the task and waits for it.
// It must not be called from inside a task.
func (i *Inline) Do(ctx context.Context, fn func()) error {
	finished := make(chan struct{})
	i.Post(func() {
		defer close(finished)
		fn()
	})

	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
