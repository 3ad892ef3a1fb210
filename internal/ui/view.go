package ui

import (
	"context"
	"time"

	"golang.org/x/time/rate"

	"github.com/PhiFever/pantryscan/internal/camera"
	"github.com/PhiFever/pantryscan/internal/logger"
)

// Lifecycle is the session control the scan view drives.
type Lifecycle interface {
	Configure(ctx context.Context) (camera.State, error)
	Start(ctx context.Context) (camera.State, error)
	Stop(ctx context.Context) (camera.State, error)
}

// Scanner runs one scan and reports the result on the UI loop.
type Scanner interface {
	ScanAsync(ctx context.Context, done func(text string, ok bool))
}

// ScanViewOptions configures a ScanView.
type ScanViewOptions struct {
	// ScanInterval is the minimum time between accepted scans; zero
	// accepts every scan.
	ScanInterval time.Duration
	// Now is used for form defaults; nil means time.Now.
	Now func() time.Time
}

// ScanView is the camera screen: it runs the session while shown and
// turns scans into pre-filled item forms.
type ScanView struct {
	lifecycle Lifecycle
	scanner   Scanner
	model     *CameraModel
	limiter   *rate.Limiter
	now       func() time.Time
}

// NewScanView creates a scan view.
func NewScanView(lifecycle Lifecycle, scanner Scanner, model *CameraModel, opts ScanViewOptions) *ScanView {
	limit := rate.Inf
	if opts.ScanInterval > 0 {
		limit = rate.Every(opts.ScanInterval)
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	return &ScanView{
		lifecycle: lifecycle,
		scanner:   scanner,
		model:     model,
		limiter:   rate.NewLimiter(limit, 1),
		now:       now,
	}
}

// Model returns the camera model shown by the view.
func (v *ScanView) Model() *CameraModel {
	return v.model
}

// OnAppear configures and starts the session without blocking the caller.
// The returned channel is closed once both have completed.
func (v *ScanView) OnAppear(ctx context.Context) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)

		state, err := v.lifecycle.Configure(ctx)
		if err != nil {
			logger.Warningf("[UI] Configure interrupted: %v", err)
			return
		}
		if !state.IsAvailable() {
			logger.Infof("[UI] Camera not available: %s", state)
			return
		}

		if _, err := v.lifecycle.Start(ctx); err != nil {
			logger.Warningf("[UI] Start interrupted: %v", err)
		}
	}()
	return done
}

// OnDisappear stops the session without blocking the caller.
func (v *ScanView) OnDisappear(ctx context.Context) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		if _, err := v.lifecycle.Stop(ctx); err != nil {
			logger.Warningf("[UI] Stop interrupted: %v", err)
		}
	}()
	return done
}

// Scan starts a scan and hands the pre-filled form to done on the UI loop.
// A failed scan yields a form with an empty name. It returns false when the
// scan was dropped because the previous one was too recent.
func (v *ScanView) Scan(ctx context.Context, done func(*ItemForm)) bool {
	if !v.limiter.Allow() {
		logger.Debug("[UI] Scan ignored, too soon after the previous one")
		return false
	}

	v.scanner.ScanAsync(ctx, func(text string, ok bool) {
		if !ok {
			text = ""
		}
		done(NewItemForm(text, v.now()))
	})
	return true
}
