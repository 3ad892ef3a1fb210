package camera

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/PhiFever/pantryscan/internal/logger"
	"github.com/PhiFever/pantryscan/pkg/utils"
)

// pendingCapture is the single completion slot of an in-flight capture.
type pendingCapture struct {
	id      uuid.UUID
	started time.Time
	done    chan *Frame
	once    sync.Once
}

func newPendingCapture() *pendingCapture {
	return &pendingCapture{
		id:      uuid.New(),
		started: time.Now(),
		done:    make(chan *Frame, 1),
	}
}

// fulfill delivers the result. Only the first call has an effect.
func (p *pendingCapture) fulfill(frame *Frame) bool {
	delivered := false
	p.once.Do(func() {
		p.done <- frame
		close(p.done)
		delivered = true
	})
	return delivered
}

// Coordinator takes single still photos from a running session. Captures
// are serialized: a second call waits until the first has completed.
type Coordinator struct {
	controller *Controller
	output     PhotoOutput
	format     string

	// holds one token while a capture is outstanding
	inFlight chan struct{}

	mu      sync.Mutex
	pending *pendingCapture
}

// NewCoordinator creates a coordinator for the output attached by controller.
func NewCoordinator(controller *Controller, output PhotoOutput, format string) *Coordinator {
	if format == "" {
		format = "png"
	}
	return &Coordinator{
		controller: controller,
		output:     output,
		format:     format,
		inFlight:   make(chan struct{}, 1),
	}
}

// Capture takes one photo and returns the decoded frame, or nil when the
// session is not running, the capture failed or the photo could not be
// decoded. ctx only bounds how long the caller waits.
func (c *Coordinator) Capture(ctx context.Context) *Frame {
	select {
	case c.inFlight <- struct{}{}:
	case <-ctx.Done():
		return nil
	}

	slot := newPendingCapture()
	err := c.controller.submit(func() { c.issue(slot) })
	if err != nil {
		logger.Warningf("[Capture] Cannot schedule capture %s: %v", slot.id, err)
		c.finish(slot, nil)
		return nil
	}

	select {
	case frame := <-slot.done:
		return frame
	case <-ctx.Done():
		logger.Warningf("[Capture] Caller stopped waiting for capture %s", slot.id)
		return nil
	}
}

// Pending reports whether a capture is waiting for its photo callback.
func (c *Coordinator) Pending() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pending != nil
}

// issue runs on the session queue.
func (c *Coordinator) issue(slot *pendingCapture) {
	if c.output == nil || !c.controller.runningOnQueue() {
		logger.Debugf("[Capture] Session not running, nothing to capture")
		c.finish(slot, nil)
		return
	}

	c.mu.Lock()
	c.pending = slot
	c.mu.Unlock()

	logger.Debugf("[Capture] Requesting photo %s", slot.id)
	settings := CaptureSettings{ID: slot.id, Format: c.format}
	handler := func(data []byte, err error) { c.handlePhoto(slot, data, err) }
	if err := c.output.CapturePhoto(settings, handler); err != nil {
		handler(nil, err)
	}
}

// handlePhoto is the output callback for slot and may run on any goroutine.
// Callbacks for a slot that is no longer pending are dropped.
func (c *Coordinator) handlePhoto(slot *pendingCapture, data []byte, err error) {
	c.mu.Lock()
	current := c.pending == slot
	if current {
		c.pending = nil
	}
	c.mu.Unlock()

	if !current {
		logger.Warningf("[Capture] Stale photo callback for capture %s, dropped", slot.id)
		return
	}

	if err != nil {
		logger.Warningf("[Capture] Capture %s failed: %v", slot.id, err)
		c.finish(slot, nil)
		return
	}

	frame, err := DecodeFrame(slot.id, data)
	if err != nil {
		logger.Warningf("[Capture] Capture %s: %v", slot.id, err)
		c.finish(slot, nil)
		return
	}

	logger.Debugf("[Capture] Capture %s done in %s (%dx%d %s)", slot.id,
		utils.GetReadableTimeDelta(time.Since(slot.started)),
		frame.Bounds().Dx(), frame.Bounds().Dy(), frame.Format)
	c.finish(slot, frame)
}

// finish completes the slot and frees the coordinator for the next capture.
func (c *Coordinator) finish(slot *pendingCapture, frame *Frame) {
	if slot.fulfill(frame) {
		<-c.inFlight
	}
}
