// Package serial drives asynchronous-style work one step at a time on an
// explicit work queue.
//
// Every step and every completion callback is posted to a Loop as a new task
// instead of being called directly, so long sequences and deeply nested
// iterations never grow the goroutine stack.
package serial

import (
	"context"
	"errors"
)

// ErrStalled is returned by Run when the queue drains before Stop is called.
// It means some step never called its advance function.
var ErrStalled = errors.New("serial: work queue drained before completion")

// Loop is a single-threaded trampoline. Tasks run in FIFO order on the
// goroutine that calls Run. Post and Stop must only be called from that
// goroutine, typically from inside a running task.
type Loop struct {
	queue   []func()
	head    int
	stopped bool
	err     error
}

// NewLoop returns an empty loop.
func NewLoop() *Loop {
	return &Loop{}
}

// Post schedules task to run after every task already queued.
func (l *Loop) Post(task func()) {
	l.queue = append(l.queue, task)
}

// Stop ends Run, which returns err. Calls after the first are ignored.
func (l *Loop) Stop(err error) {
	if l.stopped {
		return
	}
	l.stopped = true
	l.err = err
}

// Run executes queued tasks until Stop is called.
// Cancellation of ctx is observed between tasks.
func (l *Loop) Run(ctx context.Context) error {
	for !l.stopped {
		if err := ctx.Err(); err != nil {
			return err
		}
		if l.head == len(l.queue) {
			return ErrStalled
		}

		task := l.queue[l.head]
		l.queue[l.head] = nil
		l.head++

		// Reclaim the consumed prefix once it dominates the queue
		if l.head > 1024 && l.head*2 > len(l.queue) {
			n := copy(l.queue, l.queue[l.head:])
			l.queue = l.queue[:n]
			l.head = 0
		}

		task()
	}
	return l.err
}

// Pending returns the number of queued tasks.
func (l *Loop) Pending() int {
	return len(l.queue) - l.head
}
