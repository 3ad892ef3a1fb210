// Package ui holds the presentation side of the scanner: the UI loop that
// owns all visible state, the camera model, the scan view and the item form.
package ui

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/PhiFever/pantryscan/internal/logger"
)

// Loop runs posted work one task at a time on a single goroutine.
// It implements camera.Dispatcher.
type Loop struct {
	// Channels
	tasks    chan func()
	stopChan chan struct{}
	doneChan chan struct{}

	// State
	running  bool
	mu       sync.RWMutex
	stopOnce sync.Once

	// Statistics
	processed   uint64
	lastRunTime time.Time
}

// NewLoop creates a loop that buffers up to buffer tasks before Post blocks.
func NewLoop(buffer int) *Loop {
	if buffer < 1 {
		buffer = 1
	}
	return &Loop{
		tasks:    make(chan func(), buffer),
		stopChan: make(chan struct{}),
		doneChan: make(chan struct{}),
	}
}

// Start starts the loop goroutine.
func (l *Loop) Start(ctx context.Context) error {
	l.mu.Lock()
	if l.running {
		l.mu.Unlock()
		return fmt.Errorf("ui loop is already running")
	}
	l.running = true
	l.mu.Unlock()

	go l.run(ctx)

	logger.Info("[UI] Loop started")
	return nil
}

// Stop stops the loop and waits for the running task to finish. Tasks
// still queued are dropped.
func (l *Loop) Stop() error {
	if !l.markStopped() {
		return fmt.Errorf("ui loop is not running")
	}
	<-l.doneChan

	logger.Info("[UI] Loop stopped")
	return nil
}

// IsRunning returns whether the loop is running
func (l *Loop) IsRunning() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.running
}

// Post queues fn to run on the loop. Work posted after Stop is dropped.
func (l *Loop) Post(fn func()) {
	select {
	case <-l.stopChan:
		logger.Warning("[UI] Loop stopped, dropping task")
		return
	default:
	}

	select {
	case l.tasks <- fn:
	case <-l.stopChan:
		logger.Warning("[UI] Loop stopped, dropping task")
	}
}

// Statistics 返回 UI 循环的统计信息
func (l *Loop) Statistics() map[string]interface{} {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return map[string]interface{}{
		"running":       l.running,
		"processed":     l.processed,
		"last_run_time": l.lastRunTime,
		"queued":        len(l.tasks),
	}
}

func (l *Loop) run(ctx context.Context) {
	defer close(l.doneChan)

	for {
		select {
		case <-ctx.Done():
			logger.Info("[UI] Context cancelled, stopping loop")
			l.markStopped()
			return

		case <-l.stopChan:
			return

		case fn := <-l.tasks:
			l.execute(fn)
		}
	}
}

// markStopped clears the running flag and releases blocked Post calls.
// It returns false if the loop was not running.
func (l *Loop) markStopped() bool {
	l.mu.Lock()
	wasRunning := l.running
	l.running = false
	l.mu.Unlock()

	l.stopOnce.Do(func() { close(l.stopChan) })
	return wasRunning
}

func (l *Loop) execute(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			logger.ErrorNoTrace(fmt.Sprintf("[UI] Task panicked: %v\n%s", r, debug.Stack()))
		}

		l.mu.Lock()
		l.processed++
		l.lastRunTime = time.Now()
		l.mu.Unlock()
	}()

	fn()
}
