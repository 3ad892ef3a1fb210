// Package auth answers whether the application may use the camera and
// asks the user when that has not been decided yet.
package auth

import (
	"context"
	"sync"

	"github.com/PhiFever/pantryscan/internal/logger"
)

// Status is the platform's camera permission state.
type Status int

const (
	NotDetermined Status = iota
	Authorized
	Denied
	Restricted
	Unknown
)

var statusNames = map[Status]string{
	NotDetermined: "NotDetermined",
	Authorized:    "Authorized",
	Denied:        "Denied",
	Restricted:    "Restricted",
	Unknown:       "Unknown",
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return "Unknown"
}

// Decided reports whether the user or a policy has already settled the status.
func (s Status) Decided() bool {
	return s == Authorized || s == Denied || s == Restricted
}

// Platform is the host facility that stores the permission and shows the
// one-time prompt.
type Platform interface {
	// Status returns the stored permission state without side effects.
	Status() Status

	// Prompt shows the permission prompt and records the user's answer.
	// It is only called while Status is NotDetermined.
	Prompt(ctx context.Context) (granted bool, err error)
}

// Gate queries and requests camera permission.
type Gate struct {
	platform Platform

	// serializes prompts so concurrent callers never see two dialogs
	mu sync.Mutex
}

// NewGate creates a gate over the given platform.
func NewGate(platform Platform) *Gate {
	return &Gate{platform: platform}
}

// CurrentStatus returns the platform permission state.
func (g *Gate) CurrentStatus() Status {
	return g.platform.Status()
}

// RequestAccess prompts the user if the permission is NotDetermined and
// returns Authorized or Denied. A decided status is returned as is without
// prompting again. A failed prompt resolves to Unknown; nothing is recorded
// and the user may be asked again later.
func (g *Gate) RequestAccess(ctx context.Context) Status {
	g.mu.Lock()
	defer g.mu.Unlock()

	status := g.platform.Status()
	if status != NotDetermined {
		return status
	}

	logger.Info("[Auth] Requesting camera access")
	granted, err := g.platform.Prompt(ctx)
	if err != nil {
		logger.Warningf("[Auth] Permission prompt failed: %v", err)
		return Unknown
	}

	if granted {
		logger.Info("[Auth] Camera access granted")
		return Authorized
	}

	logger.Info("[Auth] Camera access denied")
	return Denied
}
