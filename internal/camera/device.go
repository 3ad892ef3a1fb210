package camera

import (
	"errors"
	"image"

	"github.com/google/uuid"
)

var (
	// ErrNoInput is returned when a session is started without an input.
	ErrNoInput = errors.New("session has no input")
	// ErrNotRunning is returned when a photo is requested from a stopped session.
	ErrNotRunning = errors.New("session is not running")
	// ErrOutputDetached is returned when a photo is requested from an output
	// that is not attached to a session.
	ErrOutputDetached = errors.New("output is not attached to a session")
	// ErrUnsupportedOutput is returned when a session cannot drive the output.
	ErrUnsupportedOutput = errors.New("unsupported output")
)

// Position is the side of the device a camera faces.
type Position int

const (
	PositionUnspecified Position = iota
	PositionBack
	PositionFront
)

// Device is a physical capture device.
type Device interface {
	ID() string
	Position() Position
	// Open acquires the device and returns its frame source.
	Open() (Source, error)
}

// Source produces still images from an opened device.
type Source interface {
	Grab() (image.Image, error)
	Close() error
}

// Discoverer lists the capture devices present on the host.
type Discoverer interface {
	Devices() []Device
}

// DiscovererFunc adapts a function to the Discoverer interface.
type DiscovererFunc func() []Device

// Devices calls f.
func (f DiscovererFunc) Devices() []Device {
	return f()
}

// FindBackCamera returns the first back-facing device.
func FindBackCamera(d Discoverer) (Device, bool) {
	if d == nil {
		return nil, false
	}
	for _, dev := range d.Devices() {
		if dev.Position() == PositionBack {
			return dev, true
		}
	}
	return nil, false
}

// Session is the platform capture session binding a device to outputs.
type Session interface {
	AddInput(dev Device) error
	AddOutput(out PhotoOutput) error
	Start() error
	Stop() error
}

// CaptureSettings describes one still capture request.
type CaptureSettings struct {
	ID     uuid.UUID
	Format string
}

// PhotoHandler receives the encoded photo or the capture error. It may be
// called on any goroutine.
type PhotoHandler func(data []byte, err error)

// PhotoOutput issues still captures and reports the result through handler.
type PhotoOutput interface {
	CapturePhoto(settings CaptureSettings, handler PhotoHandler) error
}

// Dispatcher runs functions on the UI context.
type Dispatcher interface {
	Post(fn func())
}

// DispatchFunc adapts a function to the Dispatcher interface.
type DispatchFunc func(fn func())

// Post calls f.
func (f DispatchFunc) Post(fn func()) {
	f(fn)
}

// Inline runs posted functions on the calling goroutine.
var Inline Dispatcher = DispatchFunc(func(fn func()) { fn() })
