package camera

import (
	"context"
	"sync"

	"github.com/PhiFever/pantryscan/internal/auth"
	"github.com/PhiFever/pantryscan/internal/logger"
)

// Authorizer is the permission gate used during configuration.
type Authorizer interface {
	CurrentStatus() auth.Status
	RequestAccess(ctx context.Context) auth.Status
}

// ControllerOptions wires a Controller to its collaborators.
type ControllerOptions struct {
	Authorizer Authorizer
	Discoverer Discoverer
	Session    Session
	// Output is attached to the session during configuration.
	Output PhotoOutput
	// Dispatcher delivers state changes to observers; nil runs them inline.
	Dispatcher Dispatcher
}

// Controller owns the capture session lifecycle. Every session mutation
// runs on its serial queue.
type Controller struct {
	queue      *Queue
	authorizer Authorizer
	discoverer Discoverer
	session    Session
	output     PhotoOutput
	dispatcher Dispatcher

	// owned by the queue worker
	state       State
	input       Device
	outputBound bool

	mu        sync.RWMutex
	snapshot  State
	observers []func(State)
}

// NewController creates a controller in PhaseIdle.
func NewController(opts ControllerOptions) *Controller {
	dispatcher := opts.Dispatcher
	if dispatcher == nil {
		dispatcher = Inline
	}

	return &Controller{
		queue:      NewQueue("session"),
		authorizer: opts.Authorizer,
		discoverer: opts.Discoverer,
		session:    opts.Session,
		output:     opts.Output,
		dispatcher: dispatcher,
		state:      State{Phase: PhaseIdle},
		snapshot:   State{Phase: PhaseIdle},
	}
}

// State returns the most recently published state.
func (c *Controller) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snapshot
}

// Observe registers fn to receive every published state on the dispatcher.
func (c *Controller) Observe(fn func(State)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.observers = append(c.observers, fn)
}

// Configure discovers the camera, checks permission and binds the session.
// It is idempotent once the session is available.
func (c *Controller) Configure(ctx context.Context) (State, error) {
	return c.perform(ctx, c.configureSession)
}

// Start asks the session to begin producing frames. It has no effect unless
// the session is available.
func (c *Controller) Start(ctx context.Context) (State, error) {
	return c.perform(ctx, c.startSession)
}

// Stop halts a running session and returns it to PhaseAvailable.
func (c *Controller) Stop(ctx context.Context) (State, error) {
	return c.perform(ctx, c.stopSession)
}

// Close stops the session if it is running and shuts down the queue.
func (c *Controller) Close() {
	_ = c.queue.Submit(func() { c.stopSession(context.Background()) })
	c.queue.Close()
}

// perform runs op on the queue and publishes the resulting state. ctx only
// bounds the wait; op runs to completion even if the caller gives up.
func (c *Controller) perform(ctx context.Context, op func(context.Context)) (State, error) {
	opCtx := context.WithoutCancel(ctx)
	if n := c.queue.Len(); n > 0 {
		logger.Debugf("[Session] %d operations queued ahead", n)
	}

	var result State
	err := c.queue.Do(ctx, func() {
		op(opCtx)
		result = c.state
		c.publish(result)
	})
	if err != nil {
		return c.State(), err
	}
	return result, nil
}

// submit runs fn on the session queue without publishing.
func (c *Controller) submit(fn func()) error {
	return c.queue.Submit(fn)
}

// runningOnQueue must only be called from the queue worker.
func (c *Controller) runningOnQueue() bool {
	return c.state.Phase == PhaseRunning
}

func (c *Controller) publish(s State) {
	c.mu.Lock()
	changed := c.snapshot != s
	c.snapshot = s
	observers := append([]func(State){}, c.observers...)
	c.mu.Unlock()

	if !changed {
		return
	}

	logger.Debugf("[Session] State: %s", s)
	c.dispatcher.Post(func() {
		for _, fn := range observers {
			fn(s)
		}
	})
}

func (c *Controller) configureSession(ctx context.Context) {
	if c.state.IsAvailable() {
		logger.Debug("[Session] Already configured")
		return
	}

	c.state = State{Phase: PhaseConfiguring}
	logger.Info("[Session] Configuring...")

	// A granted prompt restarts from device discovery. The second pass must
	// not see NotDetermined again.
	prompted := false
	for {
		dev, ok := FindBackCamera(c.discoverer)
		if !ok {
			c.fail(ReasonUnavailable, "no back camera found")
			return
		}

		status := c.authorizer.CurrentStatus()
		if status == auth.NotDetermined && prompted {
			status = auth.Unknown
		}

		switch status {
		case auth.Authorized:
		case auth.NotDetermined:
			prompted = true
			switch answer := c.authorizer.RequestAccess(ctx); answer {
			case auth.Authorized:
				logger.Info("[Session] Access granted, restarting configuration")
				continue
			case auth.Denied:
				c.fail(ReasonDenied, "user declined the prompt")
			default:
				c.fail(ReasonUnavailable, "permission prompt ended with "+answer.String())
			}
			return
		case auth.Denied:
			c.fail(ReasonDenied, "permission denied")
			return
		case auth.Restricted:
			c.fail(ReasonRestricted, "permission restricted by policy")
			return
		default:
			c.fail(ReasonUnavailable, "permission status "+status.String())
			return
		}

		if err := c.bind(dev); err != nil {
			c.fail(ReasonUnavailable, err.Error())
			return
		}

		c.state = State{Phase: PhaseAvailable}
		logger.Infof("[Session] Configured with device %s", dev.ID())
		return
	}
}

func (c *Controller) bind(dev Device) error {
	if c.input == nil || c.input.ID() != dev.ID() {
		if err := c.session.AddInput(dev); err != nil {
			return err
		}
		c.input = dev
	}

	if !c.outputBound {
		if c.output == nil {
			return ErrOutputDetached
		}
		if err := c.session.AddOutput(c.output); err != nil {
			return err
		}
		c.outputBound = true
	}

	return nil
}

func (c *Controller) fail(reason, detail string) {
	c.state = Unavailable(reason)
	logger.Warningf("[Session] %s: %s", reason, detail)
}

func (c *Controller) startSession(ctx context.Context) {
	switch c.state.Phase {
	case PhaseRunning:
		return
	case PhaseAvailable:
	default:
		logger.Warningf("[Session] Start ignored in state %s", c.state)
		return
	}

	if err := c.session.Start(); err != nil {
		logger.Errorf("[Session] Failed to start: %v", err)
		return
	}

	c.state = State{Phase: PhaseRunning}
	logger.Info("[Session] Running")
}

func (c *Controller) stopSession(ctx context.Context) {
	if c.state.Phase != PhaseRunning {
		return
	}

	if err := c.session.Stop(); err != nil {
		logger.Errorf("[Session] Failed to stop: %v", err)
	}

	c.state = State{Phase: PhaseAvailable}
	logger.Info("[Session] Stopped")
}
