// Package faultinject models each member's responsiveness to inbound
// PREPARE_REQUEST and ACCEPT_REQUEST messages: process immediately,
// delay then process, or drop. Profile assignment is configuration,
// not part of the Paxos protocol itself.
package faultinject

import (
	"math/rand"
	"sync"
	"time"
)

// Action is the fault injector's verdict for one inbound message.
type Action int

const (
	Process Action = iota
	Delay
	Drop
)

// Injector is consulted by the acceptor handling path on every inbound
// PREPARE_REQUEST or ACCEPT_REQUEST, mirroring spec.md §4.6.
type Injector interface {
	Decide() (Action, time.Duration)
}

// weighted is a generic profile driven by a rolling die against a
// table of (cumulative probability, action, delay) entries, the same
// shape used by every profile in spec.md §4.6's table. Decide is
// called concurrently from every connection-handler goroutine in the
// inbox server, so the rng is guarded by a mutex; *rand.Rand itself is
// not safe for concurrent use.
type weighted struct {
	mu      sync.Mutex
	rng     *rand.Rand
	entries []entry
}

type entry struct {
	upTo   float64 // cumulative probability threshold
	action Action
	delay  func(r *rand.Rand) time.Duration
}

func (w *weighted) Decide() (Action, time.Duration) {
	w.mu.Lock()
	defer w.mu.Unlock()

	roll := w.rng.Float64()
	for _, e := range w.entries {
		if roll < e.upTo {
			d := time.Duration(0)
			if e.delay != nil {
				d = e.delay(w.rng)
			}
			return e.action, d
		}
	}
	last := w.entries[len(w.entries)-1]
	return last.action, 0
}

func newRand(seed int64) *rand.Rand {
	return rand.New(rand.NewSource(seed))
}

// NewResponsive builds the "responsive" profile (e.g. M1): always
// process-now.
func NewResponsive() Injector {
	return &weighted{
		rng:     newRand(time.Now().UnixNano()),
		entries: []entry{{upTo: 1.0, action: Process}},
	}
}

// NewFlakySlow builds the "flaky-slow" profile (e.g. M2): 50% delay
// ~5s then process, 25% drop, 25% process-now.
func NewFlakySlow() Injector {
	return &weighted{
		rng: newRand(time.Now().UnixNano()),
		entries: []entry{
			{upTo: 0.50, action: Delay, delay: func(r *rand.Rand) time.Duration {
				return 5 * time.Second
			}},
			{upTo: 0.75, action: Drop},
			{upTo: 1.00, action: Process},
		},
	}
}

// NewLossy builds the "lossy" profile (e.g. M3): 30% drop, 70%
// process-now.
func NewLossy() Injector {
	return &weighted{
		rng: newRand(time.Now().UnixNano()),
		entries: []entry{
			{upTo: 0.30, action: Drop},
			{upTo: 1.00, action: Process},
		},
	}
}

// NewVariable builds the "variable" profile (the remaining members):
// uniform delay in [0, 3s], then process. Never drops.
func NewVariable() Injector {
	return &weighted{
		rng: newRand(time.Now().UnixNano()),
		entries: []entry{
			{upTo: 1.0, action: Delay, delay: func(r *rand.Rand) time.Duration {
				return time.Duration(r.Int63n(int64(3 * time.Second)))
			}},
		},
	}
}

// String names the action, for logging.
func (a Action) String() string {
	switch a {
	case Process:
		return "process-now"
	case Delay:
		return "delay-then-process"
	case Drop:
		return "drop"
	default:
		return "unknown"
	}
}
