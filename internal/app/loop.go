package app

import (
	"context"
	"runtime/debug"
	"sync"
	"sync/atomic"

	"github.com/vartexter/vartexter/internal/logging"
)

// Loop is the single control thread. Plugin code, dispatch and UI updates
// run on it; other goroutines hand work over with Post.
type Loop struct {
	mu      sync.Mutex
	queue   []func()
	wake    chan struct{}
	running atomic.Bool
	logger  *logging.Logger
}

// NewLoop creates an idle loop.
func NewLoop(logger *logging.Logger) *Loop {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Loop{
		wake:   make(chan struct{}, 1),
		logger: logger,
	}
}

// Post queues fn. It never blocks and is safe from any goroutine.
func (l *Loop) Post(fn func()) {
	if fn == nil {
		return
	}
	l.mu.Lock()
	l.queue = append(l.queue, fn)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// Pending returns the number of queued tasks.
func (l *Loop) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.queue)
}

// Run executes tasks until ctx is done. Tasks still queued at that point
// are left for Drain.
func (l *Loop) Run(ctx context.Context) error {
	if !l.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer l.running.Store(false)

	for {
		l.Drain()
		select {
		case <-ctx.Done():
			return nil
		case <-l.wake:
		}
	}
}

// Drain runs queued tasks, including tasks they post, until the queue is
// empty. It returns the number of tasks run.
func (l *Loop) Drain() int {
	n := 0
	for {
		l.mu.Lock()
		batch := l.queue
		l.queue = nil
		l.mu.Unlock()

		if len(batch) == 0 {
			return n
		}
		for _, fn := range batch {
			l.run(fn)
			n++
		}
	}
}

// run executes one task. A panicking task is logged and does not stop the
// loop.
func (l *Loop) run(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			err := &RecoveredPanicError{Value: r, Stack: string(debug.Stack())}
			l.logger.Error("Task panicked: %v", err.Value)
			l.logger.Debug("%s", err.Stack)
		}
	}()
	fn()
}
