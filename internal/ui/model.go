package ui

import (
	"sync"

	"github.com/PhiFever/pantryscan/internal/camera"
)

// Observable publishes camera state changes.
type Observable interface {
	State() camera.State
	Observe(fn func(camera.State))
}

// CameraModel is the camera state as shown to the user. It is written on
// the UI loop and may be read from anywhere.
type CameraModel struct {
	mu           sync.RWMutex
	available    bool
	running      bool
	errorMessage string
	onChange     []func()
}

// NewCameraModel creates a model showing an idle camera.
func NewCameraModel() *CameraModel {
	return &CameraModel{}
}

// Bind subscribes the model to a controller.
func (m *CameraModel) Bind(o Observable) {
	m.Apply(o.State())
	o.Observe(m.Apply)
}

// OnChange registers fn to run after every applied state.
func (m *CameraModel) OnChange(fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onChange = append(m.onChange, fn)
}

// Apply updates the model from a session state.
func (m *CameraModel) Apply(s camera.State) {
	m.mu.Lock()
	m.available = s.IsAvailable()
	m.running = s.IsRunning()
	m.errorMessage = ""
	if s.Phase == camera.PhaseUnavailable {
		m.errorMessage = s.Reason
	}
	listeners := append([]func(){}, m.onChange...)
	m.mu.Unlock()

	for _, fn := range listeners {
		fn()
	}
}

func (m *CameraModel) IsAvailable() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.available
}

func (m *CameraModel) IsRunning() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.running
}

// ErrorMessage returns the reason the camera cannot be used, if any.
func (m *CameraModel) ErrorMessage() (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.errorMessage, m.errorMessage != ""
}
