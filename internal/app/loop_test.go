package app

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/vartexter/vartexter/internal/logging"
)

func TestLoopDrainRunsNestedPosts(t *testing.T) {
	l := NewLoop(nil)
	var order []int
	l.Post(func() {
		order = append(order, 1)
		l.Post(func() { order = append(order, 3) })
	})
	l.Post(func() { order = append(order, 2) })
	l.Post(nil)

	if got := l.Pending(); got != 2 {
		t.Fatalf("Pending() = %d, want 2", got)
	}
	if n := l.Drain(); n != 3 {
		t.Errorf("Drain() = %d, want 3", n)
	}
	want := []int{1, 2, 3}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("order = %v, want %v", order, want)
		}
	}
	if l.Pending() != 0 {
		t.Error("queue not empty after Drain")
	}
}

func TestLoopPanicIsContained(t *testing.T) {
	panel := logging.NewPanel(0)
	logger := logging.New(logging.Config{Level: logging.LevelDebug, Output: discard{}})
	logger.AddSink(panel)

	l := NewLoop(logger)
	ran := false
	l.Post(func() { panic("boom") })
	l.Post(func() { ran = true })
	l.Drain()

	if !ran {
		t.Error("task after a panic did not run")
	}
	if !panel.Contains(logging.LevelError, "Task panicked: boom") {
		t.Errorf("panic not logged:\n%s", panel.Text())
	}
}

func TestLoopRun(t *testing.T) {
	l := NewLoop(nil)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- l.Run(ctx) }()

	var count atomic.Int32
	ran := make(chan struct{})
	l.Post(func() {
		count.Add(1)
		close(ran)
	})

	select {
	case <-ran:
	case <-time.After(2 * time.Second):
		t.Fatal("posted task did not run")
	}

	if err := l.Run(ctx); !errors.Is(err, ErrAlreadyRunning) {
		t.Errorf("second Run() error = %v, want ErrAlreadyRunning", err)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run() error = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
	if count.Load() != 1 {
		t.Errorf("task ran %d times", count.Load())
	}
}

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }
