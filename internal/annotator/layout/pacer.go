package layout

import (
	"context"
	"sync"
	"time"
)

// DefaultFrameDelay is the delay used when the host has no frame callback.
const DefaultFrameDelay = 16 * time.Millisecond

// Pacer hands control back to the host between layout batches.
// Next arranges for task to run later on the host's task goroutine.
type Pacer interface {
	Next(task func())
}

// Queue is a FIFO of tasks run explicitly by the owner via Step or Drain.
// Post may be called from any goroutine; tasks run on the caller of Step.
type Queue struct {
	mu    sync.Mutex
	tasks []func()
}

// NewQueue creates an empty queue.
func NewQueue() *Queue {
	return &Queue{}
}

// Next implements Pacer by enqueueing task.
func (q *Queue) Next(task func()) {
	q.Post(task)
}

// Post enqueues task.
func (q *Queue) Post(task func()) {
	q.mu.Lock()
	q.tasks = append(q.tasks, task)
	q.mu.Unlock()
}

// Len returns the number of pending tasks.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.tasks)
}

// Step runs the oldest pending task. It returns false if there was none.
func (q *Queue) Step() bool {
	q.mu.Lock()
	if len(q.tasks) == 0 {
		q.mu.Unlock()
		return false
	}
	task := q.tasks[0]
	q.tasks[0] = nil
	q.tasks = q.tasks[1:]
	q.mu.Unlock()

	task()
	return true
}

// Drain runs tasks until the queue is empty, including tasks enqueued by
// the tasks themselves. It returns the number of tasks run.
func (q *Queue) Drain() int {
	n := 0
	for q.Step() {
		n++
	}
	return n
}

// Loop is a single-goroutine task loop. Every task posted to it, and every
// paced continuation, runs on the goroutine that called Run.
type Loop struct {
	queue *Queue
	delay time.Duration
	wake  chan struct{}

	mu      sync.Mutex
	timers  map[*time.Timer]struct{}
	stopped bool
}

// NewLoop creates a loop whose Next delay is frameDelay.
// A non-positive frameDelay selects DefaultFrameDelay.
func NewLoop(frameDelay time.Duration) *Loop {
	if frameDelay <= 0 {
		frameDelay = DefaultFrameDelay
	}
	return &Loop{
		queue:  NewQueue(),
		delay:  frameDelay,
		wake:   make(chan struct{}, 1),
		timers: make(map[*time.Timer]struct{}),
	}
}

// Post schedules task to run as soon as possible.
func (l *Loop) Post(task func()) {
	l.queue.Post(task)
	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// Next implements Pacer: task runs on the loop after one frame delay.
func (l *Loop) Next(task func()) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.stopped {
		return
	}
	var t *time.Timer
	t = time.AfterFunc(l.delay, func() {
		l.mu.Lock()
		delete(l.timers, t)
		l.mu.Unlock()
		l.Post(task)
	})
	l.timers[t] = struct{}{}
}

// Run executes tasks until ctx is done. Pending frame timers are stopped
// on return.
func (l *Loop) Run(ctx context.Context) error {
	defer l.stop()
	for {
		for l.queue.Step() {
			if ctx.Err() != nil {
				return ctx.Err()
			}
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.wake:
		}
	}
}

func (l *Loop) stop() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.stopped = true
	for t := range l.timers {
		t.Stop()
	}
	l.timers = nil
}
