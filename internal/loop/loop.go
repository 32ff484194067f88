package loop

import (
	"context"
	"errors"
	"log/slog"
	"runtime/debug"
	"sync"
)

// ErrStopped is returned by Do once the loop has stopped
var ErrStopped = errors.New("event loop stopped")

// Executor runs tasks on the single mutation path.
// Registry, matchmaker and room state must only be touched from inside a task.
type Executor interface {
	// Post enqueues a task without waiting for it to run
	Post(fn func())
	// Do enqueues a task and waits until it has run
	Do(ctx context.Context, fn func()) error
}

// Loop executes posted tasks one at a time on a single goroutine.
// Tasks that do not fit in the buffer wait in an overflow queue, so a task
// may post follow-ups without blocking the loop on itself.
type Loop struct {
	tasks    chan func()
	done     chan struct{}
	stopOnce sync.Once
	logger   *slog.Logger

	mu       sync.Mutex
	overflow []func()
}

// Ensure Loop implements Executor
var _ Executor = (*Loop)(nil)

// New creates a loop with the given task buffer size, at least one
func New(logger *slog.Logger, buffer int) *Loop {
	if buffer < 1 {
		buffer = 1
	}
	return &Loop{
		tasks:  make(chan func(), buffer),
		done:   make(chan struct{}),
		logger: logger.With(slog.String("component", "loop")),
	}
}

// Run processes tasks until ctx is cancelled
func (l *Loop) Run(ctx context.Context) {
	l.logger.Info("event loop started")
	defer l.stop()

	for {
		select {
		case fn := <-l.tasks:
			l.execute(fn)
			l.refill()
		case <-ctx.Done():
			l.logger.Info("event loop stopped", slog.Int("dropped_tasks", l.pending()))
			return
		}
	}
}

func (l *Loop) stop() {
	l.stopOnce.Do(func() { close(l.done) })
}

func (l *Loop) execute(fn func()) {
	defer func() {
		if err := recover(); err != nil {
			l.logger.Error("task panicked",
				slog.Any("error", err),
				slog.String("stack", string(debug.Stack())),
			)
		}
	}()
	fn()
}

// enqueue keeps FIFO order: once anything is waiting in the overflow queue,
// new tasks join it rather than jumping ahead through the channel.
func (l *Loop) enqueue(fn func()) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.overflow) == 0 {
		select {
		case l.tasks <- fn:
			return
		default:
		}
	}
	l.overflow = append(l.overflow, fn)
}

// refill moves overflowed tasks into the buffer as space frees up
func (l *Loop) refill() {
	l.mu.Lock()
	defer l.mu.Unlock()

	for len(l.overflow) > 0 {
		select {
		case l.tasks <- l.overflow[0]:
			l.overflow[0] = nil
			l.overflow = l.overflow[1:]
		default:
			return
		}
	}
}

func (l *Loop) pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.tasks) + len(l.overflow)
}

func (l *Loop) stopped() bool {
	select {
	case <-l.done:
		return true
	default:
		return false
	}
}

// Post enqueues a task without blocking. The task is dropped once the loop
// has stopped.
func (l *Loop) Post(fn func()) {
	if l.stopped() {
		l.logger.Debug("task dropped - loop stopped")
		return
	}
	l.enqueue(fn)
}

// Do enqueues a task and waits for it to finish
func (l *Loop) Do(ctx context.Context, fn func()) error {
	finished := make(chan struct{})
	task := func() {
		defer close(finished)
		fn()
	}

	if l.stopped() {
		return ErrStopped
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	l.enqueue(task)

	select {
	case <-finished:
		return nil
	case <-l.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}
