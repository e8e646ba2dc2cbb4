package ui

import (
	"context"

	tea "charm.land/bubbletea/v2"

	"github.com/oakwood-commons/jnav/internal/completion"
	"github.com/oakwood-commons/jnav/internal/reactive"
)

const eventBuffer = 256

// Channel names, also used as log values.
const (
	queryChannel      = "query"
	resizeChannel     = "resize"
	completionChannel = "completion"
)

type queryEventMsg reactive.Event[[]any]

type resizeEventMsg reactive.Event[size]

type completionEventMsg reactive.Event[completionOutcome]

type size struct{ width, height int }

type completionRequest struct {
	text   string
	cursor int
}

type completionOutcome struct {
	request completionRequest
	result  completion.Result
}

// channels owns the three reactive channels of a session and the queue that
// carries their events to the update loop.
type channels struct {
	events   chan tea.Msg
	done     chan struct{}
	query    *reactive.Channel[string, []any]
	resize   *reactive.Channel[size, size]
	complete *reactive.Channel[completionRequest, completionOutcome]
}

func newChannels(m *Model) *channels {
	ch := &channels{
		events: make(chan tea.Msg, eventBuffer),
		done:   make(chan struct{}),
	}
	clock := m.opts.Clock
	log := m.log

	ch.query = reactive.New(func(ctx context.Context, q string) ([]any, error) {
		values, err := m.opts.Evaluator.Evaluate(ctx, q, m.opts.Inputs)
		if err != nil {
			return nil, err
		}
		return m.order.ApplyAll(values), nil
	}, reactive.Options[[]any]{
		Name:    queryChannel,
		Delay:   m.cfg.Reactivity.QueryDebounce.Std(),
		Clock:   clock,
		Logger:  log,
		Deliver: func(ev reactive.Event[[]any]) { ch.send(queryEventMsg(ev)) },
	})

	ch.resize = reactive.New(func(_ context.Context, s size) (size, error) {
		return s, nil
	}, reactive.Options[size]{
		Name:    resizeChannel,
		Delay:   m.cfg.Reactivity.ResizeDebounce.Std(),
		Clock:   clock,
		Logger:  log,
		Deliver: func(ev reactive.Event[size]) { ch.send(resizeEventMsg(ev)) },
	})

	engine := m.engine
	ch.complete = reactive.New(func(ctx context.Context, req completionRequest) (completionOutcome, error) {
		res, err := engine.Complete(ctx, req.text)
		return completionOutcome{request: req, result: res}, err
	}, reactive.Options[completionOutcome]{
		Name:    completionChannel,
		Clock:   clock,
		Logger:  log,
		Deliver: func(ev reactive.Event[completionOutcome]) { ch.send(completionEventMsg(ev)) },
	})
	return ch
}

func (c *channels) send(msg tea.Msg) {
	select {
	case c.events <- msg:
	case <-c.done:
	}
}

// listen returns a command that waits for the next channel event.
func (c *channels) listen() tea.Cmd {
	return func() tea.Msg {
		select {
		case msg := <-c.events:
			return msg
		case <-c.done:
			return nil
		}
	}
}

// wait blocks until no work is in flight on any channel.
func (c *channels) wait() {
	c.query.Wait()
	c.resize.Wait()
	c.complete.Wait()
}

func (c *channels) close() {
	select {
	case <-c.done:
		return
	default:
	}
	c.query.Close()
	c.resize.Close()
	c.complete.Close()
	close(c.done)
}
