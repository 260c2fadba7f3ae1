// Package schedule provides the cooperative single-threaded loop every map
// session runs on. Work is posted as tasks; deferred work is queued for the
// next frame or for an idle moment. Callbacks always run to completion
// before the next one starts.
package schedule

import (
	"context"
	"sync"
)

// maxFlushSteps bounds Flush when callbacks keep re-queueing themselves.
const maxFlushSteps = 1000

// Scheduler defers work.
type Scheduler interface {
	// RequestFrame runs fn at the next frame, after pending tasks.
	RequestFrame(fn func())
	// RequestIdle runs fn once no tasks or frames are pending.
	RequestIdle(fn func())
}

// Loop is a Scheduler that also accepts tasks from other goroutines.
type Loop struct {
	mu     sync.Mutex
	tasks  []func()
	frames []func()
	idle   []func()
	wake   chan struct{}
}

// NewLoop creates an idle loop.
func NewLoop() *Loop {
	return &Loop{
		wake: make(chan struct{}, 1),
	}
}

// Post queues fn as a task. Safe from any goroutine.
func (l *Loop) Post(fn func()) {
	l.mu.Lock()
	l.tasks = append(l.tasks, fn)
	l.mu.Unlock()
	l.signal()
}

// RequestFrame implements Scheduler.
func (l *Loop) RequestFrame(fn func()) {
	l.mu.Lock()
	l.frames = append(l.frames, fn)
	l.mu.Unlock()
	l.signal()
}

// RequestIdle implements Scheduler.
func (l *Loop) RequestIdle(fn func()) {
	l.mu.Lock()
	l.idle = append(l.idle, fn)
	l.mu.Unlock()
	l.signal()
}

// Do posts fn and waits for it to finish. It must not be called from the
// loop's own goroutine.
func (l *Loop) Do(ctx context.Context, fn func()) error {
	done := make(chan struct{})
	l.Post(func() {
		defer close(done)
		fn()
	})
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Pending returns the number of queued tasks, frames and idle callbacks.
func (l *Loop) Pending() (tasks, frames, idle int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.tasks), len(l.frames), len(l.idle)
}

// Step runs one round: all queued tasks, then all queued frames. When
// neither was pending it runs the queued idle callbacks instead. It reports
// whether anything ran.
func (l *Loop) Step() bool {
	l.mu.Lock()
	tasks := l.tasks
	l.tasks = nil
	l.mu.Unlock()
	for _, fn := range tasks {
		fn()
	}

	l.mu.Lock()
	frames := l.frames
	l.frames = nil
	l.mu.Unlock()
	for _, fn := range frames {
		fn()
	}

	if len(tasks) > 0 || len(frames) > 0 {
		return true
	}

	l.mu.Lock()
	idle := l.idle
	l.idle = nil
	l.mu.Unlock()
	for _, fn := range idle {
		fn()
	}
	return len(idle) > 0
}

// Flush steps until nothing is pending. Use it from the loop's goroutine or
// when no Run is active.
func (l *Loop) Flush() {
	for i := 0; i < maxFlushSteps && l.Step(); i++ {
	}
}

// Run processes work until ctx is cancelled.
func (l *Loop) Run(ctx context.Context) error {
	for {
		l.Flush()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.wake:
		}
	}
}

func (l *Loop) signal() {
	select {
	case l.wake <- struct{}{}:
	default:
	}
}
