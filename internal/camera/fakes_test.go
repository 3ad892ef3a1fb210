package camera

import (
	"context"
	"errors"
	"image"
	"image/color"
	"sync"

	"github.com/PhiFever/pantryscan/internal/auth"
)

// fakeAuthorizer follows the gate contract over a mutable status
type fakeAuthorizer struct {
	mu       sync.Mutex
	status   auth.Status
	grant    bool
	prompts  int
	sticky   bool // status stays NotDetermined after a grant
	onPrompt func()
}

func (f *fakeAuthorizer) CurrentStatus() auth.Status {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.status
}

func (f *fakeAuthorizer) RequestAccess(ctx context.Context) auth.Status {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.status != auth.NotDetermined {
		return f.status
	}
	f.prompts++
	if f.onPrompt != nil {
		f.onPrompt()
	}
	if !f.grant {
		f.status = auth.Denied
		return auth.Denied
	}
	if !f.sticky {
		f.status = auth.Authorized
	}
	return auth.Authorized
}

func (f *fakeAuthorizer) promptCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.prompts
}

// memoryDevice serves the same in-memory image on every grab
type memoryDevice struct {
	id       string
	position Position
	img      image.Image
	openErr  error
	grabErr  error
}

func newMemoryDevice(id string) *memoryDevice {
	img := image.NewRGBA(image.Rect(0, 0, 32, 24))
	for y := 0; y < 24; y++ {
		for x := 0; x < 32; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 8), G: uint8(y * 10), B: 128, A: 255})
		}
	}
	return &memoryDevice{id: id, position: PositionBack, img: img}
}

func (d *memoryDevice) ID() string { return d.id }
func (d *memoryDevice) Position() Position { return d.position }

func (d *memoryDevice) Open() (Source, error) {
	if d.openErr != nil {
		return nil, d.openErr
	}
	return &memorySource{dev: d}, nil
}

type memorySource struct {
	dev *memoryDevice
}

func (s *memorySource) Grab() (image.Image, error) {
	if s.dev.grabErr != nil {
		return nil, s.dev.grabErr
	}
	return s.dev.img, nil
}

func (s *memorySource) Close() error { return nil }

func discover(devices ...Device) Discoverer {
	return DiscovererFunc(func() []Device { return devices })
}

// fakeSession records calls and fails on demand
type fakeSession struct {
	mu        sync.Mutex
	inputErr  error
	outputErr error
	startErr  error
	inputs    int
	outputs   int
	starts    int
	stops     int
	running   bool
}

func (s *fakeSession) AddInput(dev Device) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inputErr != nil {
		return s.inputErr
	}
	s.inputs++
	return nil
}

func (s *fakeSession) AddOutput(out PhotoOutput) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.outputErr != nil {
		return s.outputErr
	}
	s.outputs++
	return nil
}

func (s *fakeSession) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.startErr != nil {
		return s.startErr
	}
	s.starts++
	s.running = true
	return nil
}

func (s *fakeSession) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stops++
	s.running = false
	return nil
}

func (s *fakeSession) setInputErr(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inputErr = err
}

// manualOutput hands every capture request to the test, which decides
// when and how the callback fires
type manualOutput struct {
	mu       sync.Mutex
	err      error
	calls    int
	requests chan PhotoHandler
}

func newManualOutput() *manualOutput {
	return &manualOutput{requests: make(chan PhotoHandler, 16)}
}

func (o *manualOutput) CapturePhoto(settings CaptureSettings, handler PhotoHandler) error {
	o.mu.Lock()
	o.calls++
	err := o.err
	o.mu.Unlock()

	if err != nil {
		return err
	}
	o.requests <- handler
	return nil
}

func (o *manualOutput) callCount() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.calls
}

var errBind = errors.New("device busy")
