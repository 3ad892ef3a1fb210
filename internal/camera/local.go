package camera

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"strings"
	"sync"

	"github.com/PhiFever/pantryscan/internal/logger"
)

// LocalSession is an in-process capture session over a device Source.
type LocalSession struct {
	mu      sync.Mutex
	device  Device
	source  Source
	running bool
}

// NewLocalSession creates an empty session.
func NewLocalSession() *LocalSession {
	return &LocalSession{}
}

// AddInput opens dev and makes it the session input, replacing any
// previous input.
func (s *LocalSession) AddInput(dev Device) error {
	src, err := dev.Open()
	if err != nil {
		return fmt.Errorf("failed to open device %s: %w", dev.ID(), err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.source != nil {
		if err := s.source.Close(); err != nil {
			logger.Warningf("[LocalSession] Failed to close %s: %v", s.device.ID(), err)
		}
	}
	s.device = dev
	s.source = src
	return nil
}

// AddOutput attaches a StillOutput to the session.
func (s *LocalSession) AddOutput(out PhotoOutput) error {
	still, ok := out.(*StillOutput)
	if !ok {
		return fmt.Errorf("%w: %T", ErrUnsupportedOutput, out)
	}
	still.attach(s)
	return nil
}

// Start marks the session running.
func (s *LocalSession) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.source == nil {
		return ErrNoInput
	}
	s.running = true
	return nil
}

// Stop marks the session stopped.
func (s *LocalSession) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running = false
	return nil
}

// Close stops the session and releases the input.
func (s *LocalSession) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.running = false
	if s.source == nil {
		return nil
	}
	err := s.source.Close()
	s.source = nil
	s.device = nil
	return err
}

func (s *LocalSession) grab() (image.Image, error) {
	s.mu.Lock()
	if !s.running || s.source == nil {
		s.mu.Unlock()
		return nil, ErrNotRunning
	}
	src := s.source
	s.mu.Unlock()

	return src.Grab()
}

// StillOutput captures single photos from a LocalSession. The handler is
// called once from a separate goroutine with the encoded image.
type StillOutput struct {
	mu      sync.Mutex
	session *LocalSession
}

// NewStillOutput creates a detached output.
func NewStillOutput() *StillOutput {
	return &StillOutput{}
}

func (o *StillOutput) attach(s *LocalSession) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.session = s
}

// CapturePhoto grabs a frame asynchronously and reports it to handler.
func (o *StillOutput) CapturePhoto(settings CaptureSettings, handler PhotoHandler) error {
	o.mu.Lock()
	session := o.session
	o.mu.Unlock()

	if session == nil {
		return ErrOutputDetached
	}

	go func() {
		img, err := session.grab()
		if err != nil {
			handler(nil, err)
			return
		}

		data, err := encodePhoto(img, settings.Format)
		handler(data, err)
	}()
	return nil
}

func encodePhoto(img image.Image, format string) ([]byte, error) {
	var buf bytes.Buffer
	switch strings.ToLower(format) {
	case "jpeg", "jpg":
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 92}); err != nil {
			return nil, fmt.Errorf("failed to encode jpeg: %w", err)
		}
	default:
		if err := png.Encode(&buf, img); err != nil {
			return nil, fmt.Errorf("failed to encode png: %w", err)
		}
	}
	return buf.Bytes(), nil
}
