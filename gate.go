package resolve

import (
	"context"
	"sync"
	"time"
)

// DefaultDebounce is the keystroke debounce delay for autocomplete
// surfaces.
const DefaultDebounce = 300 * time.Millisecond

// Gate is a latest-wins async scheduler: it debounces rapid submissions
// and guarantees that only the newest submission's result is ever
// applied. Superseded work is skipped before it starts when possible,
// and its result is discarded on arrival otherwise, so a stale slow
// query can never overwrite a fresher one.
//
// Cancellation is cooperative: in-flight work is not aborted, its result
// is just dropped. The relevance check is a monotonically increasing
// sequence number.
type Gate[T any] struct {
	mu    sync.Mutex
	seq   uint64
	delay time.Duration
	timer stopper

	// afterFunc schedules a callback; replaced by tests to drive the
	// gate with a fake clock.
	afterFunc func(d time.Duration, f func()) stopper
}

type stopper interface {
	Stop() bool
}

// NewGate creates a Gate with the given debounce delay. A non-positive
// delay falls back to DefaultDebounce.
func NewGate[T any](delay time.Duration) *Gate[T] {
	if delay <= 0 {
		delay = DefaultDebounce
	}
	return &Gate[T]{
		delay: delay,
		afterFunc: func(d time.Duration, f func()) stopper {
			return time.AfterFunc(d, f)
		},
	}
}

// Do schedules work to run after the debounce delay and apply to receive
// its result. A newer Do call supersedes this one: pending work is
// cancelled, and a superseded in-flight result is discarded instead of
// applied. Returns the submission's sequence number.
func (g *Gate[T]) Do(ctx context.Context, work func(context.Context) T, apply func(T)) uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.seq++
	seq := g.seq

	if g.timer != nil {
		g.timer.Stop()
	}

	g.timer = g.afterFunc(g.delay, func() {
		if !g.isCurrent(seq) || ctx.Err() != nil {
			return
		}
		result := work(ctx)
		// Re-check: a newer submission may have arrived while the
		// work was in flight.
		if !g.isCurrent(seq) || ctx.Err() != nil {
			return
		}
		apply(result)
	})

	return seq
}

// Cancel supersedes any pending or in-flight work without scheduling a
// replacement. Used when the input is cleared or the widget closes.
func (g *Gate[T]) Cancel() {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.seq++
	if g.timer != nil {
		g.timer.Stop()
		g.timer = nil
	}
}

func (g *Gate[T]) isCurrent(seq uint64) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.seq == seq
}
