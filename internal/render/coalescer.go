// Render coalescing: at most one render in flight, at most one pending
package render

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/microsoft/filter-effects/internal/logging"
)

// ErrNoInput is returned by a RenderFunc that had nothing to render. The
// coalescer treats it like any other failed cycle but logs it as a warning.
var ErrNoInput = errors.New("no input buffer set")

// RenderFunc performs one render cycle.
type RenderFunc func(ctx context.Context) error

// Observer receives coalescer events. Implementations must be safe for
// concurrent use since distinct coalescers may share one.
type Observer interface {
	// RequestReceived is called for every RequestApply with the state the
	// request found the machine in.
	RequestReceived(name string, found State)
	// CycleFinished is called after every render cycle.
	CycleFinished(name string, d time.Duration, err error)
}

// Option configures a Coalescer.
type Option func(*Coalescer)

// WithObserver attaches an event observer.
func WithObserver(o Observer) Option {
	return func(c *Coalescer) {
		c.observer = o
	}
}

// WithContext sets the context passed to every render cycle.
func WithContext(ctx context.Context) Option {
	return func(c *Coalescer) {
		c.ctx = ctx
	}
}

// Coalescer drives the Idle / Rendering / RenderingWithPending state
// machine of one filter instance. Requests arriving while a render is in
// flight collapse into a single follow-up cycle.
type Coalescer struct {
	mu    sync.Mutex
	state State
	idle  chan struct{} // closed while the machine is Idle

	name     string
	render   RenderFunc
	ctx      context.Context
	logger   logrus.FieldLogger
	observer Observer
}

func NewCoalescer(name string, render RenderFunc, logger logrus.FieldLogger, opts ...Option) *Coalescer {
	if logger == nil {
		logger = logging.Discard()
	}

	idle := make(chan struct{})
	close(idle)

	c := &Coalescer{
		state:  Idle,
		idle:   idle,
		name:   name,
		render: render,
		ctx:    context.Background(),
		logger: logger.WithField("filter", name),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// RequestApply asks for the current parameters to be rendered. It never
// blocks and never fails.
func (c *Coalescer) RequestApply() {
	c.mu.Lock()
	found := c.state
	start := false

	switch c.state {
	case Idle:
		c.setState(Rendering)
		c.idle = make(chan struct{})
		start = true
	case Rendering:
		c.setState(RenderingWithPending)
	case RenderingWithPending:
		// Already coalesced.
	}
	c.mu.Unlock()

	if c.observer != nil {
		c.observer.RequestReceived(c.name, found)
	}

	if start {
		go c.run()
	}
}

// State returns the current state.
func (c *Coalescer) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Wait blocks until the machine is Idle or ctx is done.
func (c *Coalescer) Wait(ctx context.Context) error {
	c.mu.Lock()
	idle := c.idle
	c.mu.Unlock()

	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// run executes cycles until no follow-up is pending. It is the only
// goroutine rendering for this coalescer while the state is not Idle.
func (c *Coalescer) run() {
	for {
		c.cycle()

		c.mu.Lock()
		switch c.state {
		case RenderingWithPending:
			c.setState(Rendering)
			c.mu.Unlock()
			continue
		default:
			c.setState(Idle)
			close(c.idle)
			c.mu.Unlock()
			return
		}
	}
}

func (c *Coalescer) cycle() {
	start := time.Now()
	err := c.safeRender()
	duration := time.Since(start)

	switch {
	case err == nil:
		c.logger.WithField("duration_ms", duration.Milliseconds()).Debug("COALESCER: Render cycle completed")
	case errors.Is(err, ErrNoInput):
		c.logger.WithError(err).Warn("COALESCER: Nothing to render")
	default:
		c.logger.WithFields(logrus.Fields{
			"duration_ms": duration.Milliseconds(),
			"error":       err,
		}).Error("COALESCER: Render cycle failed")
	}

	if c.observer != nil {
		c.observer.CycleFinished(c.name, duration, err)
	}
}

func (c *Coalescer) safeRender() (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in render: %v", r)
		}
	}()
	return c.render(c.ctx)
}

// setState must be called with mu held.
func (c *Coalescer) setState(s State) {
	if c.state == s {
		return
	}
	c.logger.WithFields(logrus.Fields{
		"from": c.state.String(),
		"to":   s.String(),
	}).Debug("COALESCER: State changed")
	c.state = s
}
