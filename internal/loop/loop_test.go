package loop

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/bullcow/internal/testutil"
)

func startLoop(t *testing.T) (*Loop, context.CancelFunc) {
	t.Helper()
	return startLoopWithLogger(t, testutil.NopLogger())
}

func startLoopWithLogger(t *testing.T, logger *slog.Logger) (*Loop, context.CancelFunc) {
	t.Helper()
	return startLoopWith(t, logger, 16)
}

func startLoopWith(t *testing.T, logger *slog.Logger, buffer int) (*Loop, context.CancelFunc) {
	t.Helper()
	l := New(logger, buffer)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		l.Run(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return l, cancel
}

func TestLoopRunsTasksInOrder(t *testing.T) {
	l, _ := startLoop(t)

	var got []int
	for i := 0; i < 10; i++ {
		n := i
		l.Post(func() { got = append(got, n) })
	}

	var snapshot []int
	require.NoError(t, l.Do(context.Background(), func() {
		snapshot = append(snapshot, got...)
	}))
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}, snapshot)
}

func TestLoopSerializesConcurrentPosters(t *testing.T) {
	l, _ := startLoop(t)

	// Unsynchronized counter, safe only because every increment runs on the loop
	counter := 0
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				l.Post(func() { counter++ })
			}
		}()
	}
	wg.Wait()

	var total int
	require.NoError(t, l.Do(context.Background(), func() { total = counter }))
	assert.Equal(t, 800, total)
}

func TestLoopSurvivesPanickingTask(t *testing.T) {
	logger, logs := testutil.BufferLogger()
	l, _ := startLoopWithLogger(t, logger)

	l.Post(func() { panic("boom") })

	ran := false
	require.NoError(t, l.Do(context.Background(), func() { ran = true }))
	assert.True(t, ran)
	assert.Contains(t, logs.String(), "task panicked")
	assert.Contains(t, logs.String(), "boom")
}

func TestLoopTaskCanPostPastFullBuffer(t *testing.T) {
	l, _ := startLoopWith(t, testutil.NopLogger(), 1)

	var order []int
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, l.Do(ctx, func() {
		for i := 0; i < 5; i++ {
			n := i
			l.Post(func() { order = append(order, n) })
		}
	}))

	var snapshot []int
	require.NoError(t, l.Do(ctx, func() { snapshot = append(snapshot, order...) }))
	assert.Equal(t, []int{0, 1, 2, 3, 4}, snapshot)
}

func TestLoopKeepsOrderAcrossOverflow(t *testing.T) {
	l, _ := startLoopWith(t, testutil.NopLogger(), 2)

	release := make(chan struct{})
	l.Post(func() { <-release })

	var got []int
	for i := 0; i < 10; i++ {
		n := i
		l.Post(func() { got = append(got, n) })
	}
	close(release)

	var snapshot []int
	require.NoError(t, l.Do(context.Background(), func() { snapshot = append(snapshot, got...) }))
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}, snapshot)
}

func TestLoopDoAfterStop(t *testing.T) {
	l, cancel := startLoop(t)
	cancel()

	require.Eventually(t, func() bool {
		return l.Do(context.Background(), func() {}) == ErrStopped
	}, time.Second, 10*time.Millisecond)

	// Post after stop must not block
	l.Post(func() {})
}

func TestLoopDoHonoursContext(t *testing.T) {
	l, _ := startLoop(t)

	release := make(chan struct{})
	l.Post(func() { <-release })
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := l.Do(ctx, func() {})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestInlineRunsImmediately(t *testing.T) {
	i := NewInline()

	ran := false
	i.Post(func() { ran = true })
	assert.True(t, ran)

	require.NoError(t, i.Do(context.Background(), func() { ran = false }))
	assert.False(t, ran)
}

func TestInlineQueuesNestedPosts(t *testing.T) {
	i := NewInline()

	var order []string
	i.Post(func() {
		order = append(order, "outer-start")
		i.Post(func() { order = append(order, "inner") })
		order = append(order, "outer-end")
	})

	assert.Equal(t, []string{"outer-start", "outer-end", "inner"}, order)
}
