package analysis

import (
	"sync/atomic"

	"github.com/codexvision/focusd/internal/domain"
)

// Decision is the outcome of a gate admission attempt.
type Decision int

const (
	// Proceed grants the inference slot. The caller must Release the
	// gate on every exit path and Publish the resulting verdict.
	Proceed Decision = iota

	// ServeStale means another inference is in flight and a previous
	// verdict exists; the caller serves it marked stale.
	ServeStale

	// ServeBusy means another inference is in flight and no verdict has
	// completed yet; the caller serves the BUSY placeholder.
	ServeBusy
)

// String returns the decision name for logs and metrics labels.
func (d Decision) String() string {
	switch d {
	case Proceed:
		return "proceed"
	case ServeStale:
		return "stale"
	case ServeBusy:
		return "busy"
	default:
		return "unknown"
	}
}

// Gate is the single-flight admission control for inference. At most
// one inference runs at a time; concurrent callers are served the last
// completed verdict or a BUSY placeholder, never queued.
//
// The last verdict is published as an atomically swapped immutable
// snapshot. Readers may race a concurrent swap; they observe either the
// old or the new record in full, never a partial one.
type Gate struct {
	inFlight atomic.Bool
	last     atomic.Pointer[domain.Verdict]
}

// NewGate creates an idle Gate with no cached verdict.
func NewGate() *Gate {
	return &Gate{}
}

// Admit attempts a non-blocking acquisition of the inference slot.
// When the slot is taken, the returned verdict is the stale cached
// result or the BUSY placeholder; on Proceed it is the zero Verdict.
func (g *Gate) Admit() (Decision, domain.Verdict) {
	if g.inFlight.CompareAndSwap(false, true) {
		return Proceed, domain.Verdict{}
	}
	if last := g.last.Load(); last != nil {
		stale := *last
		stale.Stale = true
		return ServeStale, stale
	}
	return ServeBusy, domain.BusyVerdict()
}

// Publish replaces the cached verdict. Error verdicts are published
// too: a failed inference is still the most recent outcome.
func (g *Gate) Publish(v domain.Verdict) {
	v.Stale = false
	g.last.Store(&v)
}

// Release frees the inference slot. It must run on every exit path
// from an admitted inference, including backend failures, so a failed
// call can never wedge the gate shut.
func (g *Gate) Release() {
	g.inFlight.Store(false)
}

// Last returns a copy of the most recently published verdict.
func (g *Gate) Last() (domain.Verdict, bool) {
	if last := g.last.Load(); last != nil {
		return *last, true
	}
	return domain.Verdict{}, false
}
