package reactive

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	events chan Event[string]
}

func newRecorder() *recorder { return &recorder{events: make(chan Event[string], 64)} }

func (r *recorder) deliver(ev Event[string]) { r.events <- ev }

func (r *recorder) next(t *testing.T, kind EventKind) Event[string] {
	t.Helper()
	for {
		select {
		case ev := <-r.events:
			if ev.Kind == kind {
				return ev
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for event kind %d", kind)
		}
	}
}

func (r *recorder) none(t *testing.T, kind EventKind) {
	t.Helper()
	deadline := time.After(50 * time.Millisecond)
	for {
		select {
		case ev := <-r.events:
			if ev.Kind == kind {
				t.Fatalf("unexpected event %+v", ev)
			}
		case <-deadline:
			return
		}
	}
}

func TestDebounceCoalescesTriggers(t *testing.T) {
	clock := NewFakeClock()
	rec := newRecorder()
	var calls atomic.Int32
	var seen []string
	var mu sync.Mutex
	ch := New(func(_ context.Context, q string) (string, error) {
		calls.Add(1)
		mu.Lock()
		seen = append(seen, q)
		mu.Unlock()
		return "result:" + q, nil
	}, Options[string]{Name: "query", Delay: 600 * time.Millisecond, Clock: clock, Deliver: rec.deliver})

	ch.Trigger(".a")
	assert.Equal(t, Debouncing, ch.State())
	clock.Advance(300 * time.Millisecond)
	g := ch.Trigger(".ab")
	clock.Advance(599 * time.Millisecond)
	assert.Equal(t, Debouncing, ch.State())
	clock.Advance(time.Millisecond)

	ev := rec.next(t, Finished)
	assert.Equal(t, g, ev.Generation)
	assert.Equal(t, "result:.ab", ev.Value)
	require.True(t, ch.Reconcile(ev))
	assert.Equal(t, Settled, ch.State())

	clock.Advance(time.Second)
	ch.Wait()
	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, []string{".ab"}, seen)
}

func TestNewerRunCancelsOlderWork(t *testing.T) {
	rec := newRecorder()
	release := make(chan struct{})
	started := make(chan string, 4)
	ch := New(func(ctx context.Context, q string) (string, error) {
		started <- q
		if q == "slow" {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-release:
			}
		}
		return q, nil
	}, Options[string]{Name: "query", Deliver: rec.deliver})

	ch.Run("slow")
	assert.Equal(t, "slow", <-started)
	g := ch.Run("fast")
	assert.Equal(t, "fast", <-started)

	ev := rec.next(t, Finished)
	assert.Equal(t, g, ev.Generation)
	assert.Equal(t, "fast", ev.Value)
	rec.none(t, Finished)
	close(release)
}

func TestReconcileDropsStaleGenerations(t *testing.T) {
	ch := New(func(_ context.Context, q string) (string, error) { return q, nil },
		Options[string]{Clock: NewFakeClock(), Delay: time.Second})
	g1 := ch.Trigger("a")
	g2 := ch.Trigger("b")
	require.Greater(t, g2, g1)

	assert.False(t, ch.Reconcile(Event[string]{Kind: Finished, Generation: g1}))
	assert.Equal(t, Debouncing, ch.State())
	assert.True(t, ch.Reconcile(Event[string]{Kind: Finished, Generation: g2, Err: errors.New("boom")}))
	assert.Equal(t, Errored, ch.State())
}

func TestAppliedGenerationsAreMonotonic(t *testing.T) {
	clock := NewFakeClock()
	rec := newRecorder()
	ch := New(func(_ context.Context, q string) (string, error) { return q, nil },
		Options[string]{Clock: clock, Delay: 10 * time.Millisecond, Deliver: rec.deliver})

	var applied []uint64
	for i := 0; i < 5; i++ {
		ch.Trigger("q")
		if i%2 == 0 {
			clock.Advance(10 * time.Millisecond)
			ch.Wait()
		}
	}
	clock.Advance(10 * time.Millisecond)
	ch.Wait()

	for {
		select {
		case ev := <-rec.events:
			if ev.Kind == Finished && ch.Reconcile(ev) {
				applied = append(applied, ev.Generation)
			}
			continue
		default:
		}
		break
	}
	require.NotEmpty(t, applied)
	for i := 1; i < len(applied); i++ {
		assert.GreaterOrEqual(t, applied[i], applied[i-1])
	}
	assert.Equal(t, ch.Generation(), applied[len(applied)-1])
}

func TestSupersedeDiscardsInFlight(t *testing.T) {
	rec := newRecorder()
	ch := New(func(_ context.Context, q string) (string, error) { return q, nil },
		Options[string]{Deliver: rec.deliver})
	g := ch.Run("x")
	ch.Wait()
	ch.Supersede()
	ev := rec.next(t, Finished)
	assert.Equal(t, g, ev.Generation)
	assert.False(t, ch.Reconcile(ev))
	assert.Equal(t, Idle, ch.State())
}

func TestCloseIgnoresTriggers(t *testing.T) {
	clock := NewFakeClock()
	ch := New(func(_ context.Context, q string) (string, error) { return q, nil },
		Options[string]{Clock: clock, Delay: time.Millisecond})
	ch.Trigger("a")
	ch.Close()
	assert.Equal(t, 0, clock.Pending())
	ch.Trigger("b")
	assert.Equal(t, 0, clock.Pending())
}

func TestFakeClockOrder(t *testing.T) {
	clock := NewFakeClock()
	var order []int
	clock.AfterFunc(20*time.Millisecond, func() { order = append(order, 2) })
	clock.AfterFunc(10*time.Millisecond, func() { order = append(order, 1) })
	stopped := clock.AfterFunc(15*time.Millisecond, func() { order = append(order, 99) })
	assert.True(t, stopped.Stop())
	clock.Advance(25 * time.Millisecond)
	assert.Equal(t, []int{1, 2}, order)
}
