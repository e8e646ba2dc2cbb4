// Package reactive debounces triggers and runs at most one cancellable work
// item per channel, tagging every result with the generation of the trigger
// that produced it so the foreground can discard stale results.
package reactive

import (
	"context"
	"sync"
	"time"

	"github.com/go-logr/logr"
)

// State is the lifecycle position of a channel.
type State int

const (
	Idle State = iota
	Debouncing
	Evaluating
	Settled
	Errored
)

func (s State) String() string {
	switch s {
	case Debouncing:
		return "debouncing"
	case Evaluating:
		return "evaluating"
	case Settled:
		return "settled"
	case Errored:
		return "errored"
	default:
		return "idle"
	}
}

// EventKind distinguishes work start from work completion.
type EventKind int

const (
	Started EventKind = iota
	Finished
)

// Event is delivered to the foreground for every started and finished work item.
type Event[R any] struct {
	Channel    string
	Kind       EventKind
	Generation uint64
	Value      R
	Err        error
}

// Work computes a result for a trigger payload. It should return promptly
// once ctx is cancelled.
type Work[P, R any] func(ctx context.Context, payload P) (R, error)

// Options configures a channel.
type Options[R any] struct {
	Name  string
	Delay time.Duration
	Clock Clock
	// Deliver hands events to the foreground. It may block.
	Deliver func(Event[R])
	Logger  logr.Logger
}

// Channel debounces triggers and runs work for the latest one.
type Channel[P, R any] struct {
	name    string
	delay   time.Duration
	clock   Clock
	work    Work[P, R]
	deliver func(Event[R])
	log     logr.Logger

	mu     sync.Mutex
	state  State
	gen    uint64
	timer  Timer
	cancel context.CancelFunc
	done   chan struct{}
	closed bool
}

// New returns an idle channel.
func New[P, R any](work Work[P, R], opts Options[R]) *Channel[P, R] {
	if opts.Clock == nil {
		opts.Clock = RealClock()
	}
	if opts.Deliver == nil {
		opts.Deliver = func(Event[R]) {}
	}
	return &Channel[P, R]{
		name:    opts.Name,
		delay:   opts.Delay,
		clock:   opts.Clock,
		work:    work,
		deliver: opts.Deliver,
		log:     opts.Logger,
	}
}

// State returns the current state.
func (c *Channel[P, R]) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Generation returns the generation of the latest trigger.
func (c *Channel[P, R]) Generation() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gen
}

// Trigger records a new generation and restarts the debounce timer. The work
// runs with payload once the delay elapses without another trigger.
func (c *Channel[P, R]) Trigger(payload P) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return c.gen
	}
	c.gen++
	g := c.gen
	if c.timer != nil {
		c.timer.Stop()
	}
	c.setState(Debouncing)
	c.timer = c.clock.AfterFunc(c.delay, func() { c.fire(g, payload) })
	return g
}

// Run records a new generation and starts the work at once.
func (c *Channel[P, R]) Run(payload P) uint64 {
	c.mu.Lock()
	if c.closed {
		g := c.gen
		c.mu.Unlock()
		return g
	}
	c.gen++
	g := c.gen
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.mu.Unlock()
	c.fire(g, payload)
	return g
}

// Supersede bumps the generation without scheduling work, so results still in
// flight are discarded. The channel returns to Idle.
func (c *Channel[P, R]) Supersede() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	if c.cancel != nil {
		c.cancel()
	}
	c.setState(Idle)
	return c.gen
}

func (c *Channel[P, R]) fire(g uint64, payload P) {
	c.mu.Lock()
	if c.closed || g != c.gen {
		c.mu.Unlock()
		return
	}
	prevCancel, prevDone := c.cancel, c.done
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	c.cancel, c.done = cancel, done
	c.setState(Evaluating)
	c.mu.Unlock()

	c.deliver(Event[R]{Channel: c.name, Kind: Started, Generation: g})

	go func() {
		defer close(done)
		defer cancel()
		if prevCancel != nil {
			prevCancel()
			<-prevDone
		}
		if ctx.Err() != nil {
			return
		}
		v, err := c.work(ctx, payload)
		if ctx.Err() != nil {
			c.log.V(1).Info("work abandoned", "channel", c.name, "generation", g)
			return
		}
		c.deliver(Event[R]{Channel: c.name, Kind: Finished, Generation: g, Value: v, Err: err})
	}()
}

// Reconcile decides whether a finished event may be applied. It returns true
// when the event belongs to the latest generation, moving the channel to
// Settled or Errored. Events from older generations are dropped.
func (c *Channel[P, R]) Reconcile(ev Event[R]) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if ev.Kind != Finished {
		return ev.Generation == c.gen
	}
	if ev.Generation != c.gen {
		c.log.V(1).Info("discarding stale result", "channel", c.name, "generation", ev.Generation, "latest", c.gen)
		return false
	}
	if ev.Err != nil {
		c.setState(Errored)
	} else {
		c.setState(Settled)
	}
	return true
}

// Wait blocks until the in-flight work item, if any, has returned.
func (c *Channel[P, R]) Wait() {
	c.mu.Lock()
	done := c.done
	c.mu.Unlock()
	if done != nil {
		<-done
	}
}

// Close cancels pending and in-flight work. Later triggers are ignored.
func (c *Channel[P, R]) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	if c.timer != nil {
		c.timer.Stop()
	}
	if c.cancel != nil {
		c.cancel()
	}
}

func (c *Channel[P, R]) setState(s State) {
	if c.state != s {
		c.log.V(1).Info("channel transition", "channel", c.name, "from", c.state.String(), "to", s.String(), "generation", c.gen)
	}
	c.state = s
}
