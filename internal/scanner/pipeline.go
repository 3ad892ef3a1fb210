// Package scanner ties capture and recognition into a single scan.
package scanner

import (
	"context"
	"image"
	"sync/atomic"
	"time"

	"github.com/PhiFever/pantryscan/internal/camera"
	"github.com/PhiFever/pantryscan/internal/logger"
	"github.com/PhiFever/pantryscan/internal/recognizer"
	"github.com/PhiFever/pantryscan/pkg/utils"
)

// Capturer takes one still frame.
type Capturer interface {
	Capture(ctx context.Context) *camera.Frame
}

// Recognizer finds the item name in an image.
type Recognizer interface {
	Recognize(ctx context.Context, img image.Image) *recognizer.Candidate
}

// Pipeline runs capture followed by recognition. Every scan is independent;
// nothing is cached between calls.
type Pipeline struct {
	capturer   Capturer
	recognizer Recognizer
	dispatcher camera.Dispatcher

	scans   uint64
	matches uint64
}

// New creates a pipeline. Async results are delivered through dispatcher;
// nil delivers them on the scanning goroutine.
func New(c Capturer, r Recognizer, dispatcher camera.Dispatcher) *Pipeline {
	if dispatcher == nil {
		dispatcher = camera.Inline
	}
	return &Pipeline{
		capturer:   c,
		recognizer: r,
		dispatcher: dispatcher,
	}
}

// ScanOnce captures a frame and returns the recognized item name. ok is
// false when no frame was captured or no text was found.
func (p *Pipeline) ScanOnce(ctx context.Context) (text string, ok bool) {
	start := time.Now()
	atomic.AddUint64(&p.scans, 1)

	frame := p.capturer.Capture(ctx)
	if frame == nil {
		logger.Info("[Scanner] No frame captured")
		return "", false
	}

	candidate := p.recognizer.Recognize(ctx, frame.Image)
	if candidate == nil {
		logger.Infof("[Scanner] No text in frame %s", frame.ID)
		return "", false
	}

	atomic.AddUint64(&p.matches, 1)
	logger.Infof("[Scanner] Scanned %q in %s", candidate.Text, utils.GetReadableTimeDelta(time.Since(start)))
	return candidate.Text, true
}

// ScanAsync runs ScanOnce on a new goroutine and posts the result to the
// dispatcher.
func (p *Pipeline) ScanAsync(ctx context.Context, done func(text string, ok bool)) {
	go func() {
		text, ok := p.ScanOnce(ctx)
		p.dispatcher.Post(func() { done(text, ok) })
	}()
}

// Statistics 返回扫描统计信息
func (p *Pipeline) Statistics() map[string]interface{} {
	return map[string]interface{}{
		"scans":   atomic.LoadUint64(&p.scans),
		"matches": atomic.LoadUint64(&p.matches),
	}
}
