package paxos

import (
	"log"
	"sync"
)

// Acceptor holds one member's durable-in-memory Paxos safety state:
// the highest proposal number it has ever promised or accepted, and
// the value (if any) it last accepted. There is no on-disk durability
// — a process restart loses this state.
type Acceptor struct {
	id string

	mu              sync.Mutex
	highestSeen     int
	highestAccepted int
	acceptedValue   string
	hasAccepted     bool
}

// NewAcceptor creates acceptor state for the member with the given id.
func NewAcceptor(id string) *Acceptor {
	return &Acceptor{id: id}
}

// Snapshot is a consistent read of the three acceptor fields, used by
// tests to assert the non-decreasing invariants.
type Snapshot struct {
	HighestSeen     int
	HighestAccepted int
	AcceptedValue   string
	HasAccepted     bool
}

// State returns a consistent snapshot of the acceptor's fields.
func (a *Acceptor) State() Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()
	return Snapshot{
		HighestSeen:     a.highestSeen,
		HighestAccepted: a.highestAccepted,
		AcceptedValue:   a.acceptedValue,
		HasAccepted:     a.hasAccepted,
	}
}

// HandlePrepare implements spec.md §4.3. n is only promised on a
// strict increase over highestSeen; equal n is deliberately rejected
// (tie-breaking is NOT promised). The caller (the member dispatcher)
// is responsible for consulting the fault injector before calling
// this — Acceptor itself has no notion of dropping a message.
func (a *Acceptor) HandlePrepare(from string, n int) (promise Message, ok bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	log.Printf("Phase 1 : Acceptor %s received PREPARE from %s with proposal number %d", a.id, from, n)

	if n <= a.highestSeen {
		return Message{}, false
	}

	a.highestSeen = n

	msg := Message{
		Type:                       Promise,
		ProposalNumber:             n,
		LastAcceptedProposalNumber: a.highestAccepted,
		LastAcceptedValue:          a.acceptedValue,
		HasLastAcceptedValue:       a.hasAccepted,
	}
	log.Printf("Phase 1 : Acceptor %s sends PROMISE to %s", a.id, from)
	return msg, true
}

// HandleAcceptRequest implements spec.md §4.4. Note the asymmetry with
// HandlePrepare: n == highestSeen IS accepted here (non-strict >=),
// which is required for liveness when the same proposer's own prepare
// has already bumped highestSeen to n.
func (a *Acceptor) HandleAcceptRequest(from string, n int, value string) (accepted Message, ok bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if n < a.highestSeen {
		return Message{}, false
	}

	a.highestSeen = n
	a.highestAccepted = n
	a.acceptedValue = value
	a.hasAccepted = true

	log.Printf("Phase 3 : Acceptor %s accepts value '%s' from proposer %s", a.id, value, from)

	msg := Message{
		Type:           Accepted,
		ProposalNumber: n,
		Value:          value,
	}
	log.Printf("Phase 3 : Acceptor %s sends ACCEPTED to %s", a.id, from)
	return msg, true
}
