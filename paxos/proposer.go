package paxos

import (
	"log"
	"sync"
	"time"
)

// DefaultPhaseTimeout is T_phase from spec.md §4.5/§5: the time budget
// each of phase 1 and phase 2 gets to reach quorum before the round
// aborts.
const DefaultPhaseTimeout = 15 * time.Second

// pollInterval bounds how often the proposer re-checks the collector
// for a fresh quorum; spec.md §4.5 requires <=100ms granularity.
const pollInterval = 100 * time.Millisecond

// Sender broadcasts msg to every peer id in to (the proposer's own id
// is never included). Implementations swallow per-peer transport
// failures; Broadcast itself never returns an error.
type Sender interface {
	Broadcast(roundID string, to []string, msg Message)
}

// Registrar lets the proposer make its active round's collector
// reachable by id, so the member's inbox dispatcher can route inbound
// PROMISE/ACCEPTED responses into it as they arrive over the network.
type Registrar interface {
	Register(roundID string, c *Collector)
	Unregister(roundID string)
}

// Proposer drives proposeValue rounds for one member. It is the
// member's own acceptor's peer, not a replacement for it: Propose
// applies the local acceptor logic to the proposer's own PREPARE and
// ACCEPT_REQUEST directly, counting self in the quorum without a
// network round trip.
type Proposer struct {
	id         string
	idNumber   int
	peerIDs    []string
	majority   int
	sender     Sender
	registrar  Registrar
	self       *Acceptor
	newRoundID func() string

	mu    sync.Mutex
	round int
}

// NewProposer builds a proposer for member id, with idNumber used in
// proposal-number encoding, peerIDs the other members to broadcast to
// (self excluded), majority the quorum size, sender the outbound
// transport, registrar where in-flight round collectors are published
// for the dispatcher, self the member's own acceptor (for local
// self-inclusion), and newRoundID a generator for the RoundID
// correlation field.
func NewProposer(id string, idNumber int, peerIDs []string, majority int, sender Sender, registrar Registrar, self *Acceptor, newRoundID func() string) *Proposer {
	return &Proposer{
		id:         id,
		idNumber:   idNumber,
		peerIDs:    peerIDs,
		majority:   majority,
		sender:     sender,
		registrar:  registrar,
		self:       self,
		newRoundID: newRoundID,
	}
}

// Result is the outcome of one proposeValue round.
type Result struct {
	Chosen bool
	Value  string
}

// Propose runs one full round of spec.md §4.5: phase 1 (prepare),
// value-override, phase 2 (accept). It blocks until the round
// completes (quorum reached in both phases) or either phase times out.
func (p *Proposer) Propose(value string, timeout time.Duration) Result {
	p.mu.Lock()
	p.round++
	round := p.round
	p.mu.Unlock()

	n := ProposalNumber(round, p.idNumber)
	roundID := p.newRoundID()
	collector := NewCollector()

	p.registrar.Register(roundID, collector)
	defer p.registrar.Unregister(roundID)

	log.Printf("Proposer %s starting round %d (n=%d, roundId=%s)", p.id, round, n, roundID)

	// Phase 1: apply locally to self, then broadcast to peers.
	if promise, ok := p.self.HandlePrepare(p.id, n); ok {
		collector.AddPromise(p.id, promise)
	}
	p.sender.Broadcast(roundID, p.peerIDs, Message{
		Type:           PrepareRequest,
		ProposalNumber: n,
		ProposerID:     p.id,
	})

	if !p.awaitQuorum(collector.PromiseCount, timeout) {
		log.Printf("Phase 1 : Proposer %s timed out waiting for PROMISE majority on round %d", p.id, round)
		return Result{}
	}
	log.Printf("Phase 2 : %s received PROMISES from majority.", p.id)

	v, learned, learnedNum := resolveOverride(collector.Promises(), value)
	if learned {
		log.Printf("Phase 2 : %s learns about previously accepted value '%s' with proposal number %d", p.id, v, learnedNum)
	}

	// Phase 2: apply locally to self, then broadcast to peers.
	if accepted, ok := p.self.HandleAcceptRequest(p.id, n, v); ok {
		collector.AddAccepted(p.id, accepted)
	}
	p.sender.Broadcast(roundID, p.peerIDs, Message{
		Type:           AcceptRequest,
		ProposalNumber: n,
		ProposerID:     p.id,
		Value:          v,
	})

	if !p.awaitQuorum(collector.AcceptedCount, timeout) {
		log.Printf("Phase 4 : Proposer %s timed out waiting for ACCEPTED majority on round %d", p.id, round)
		return Result{}
	}

	log.Printf("Final value accepted is %s by proposer %s", v, p.id)
	return Result{Chosen: true, Value: v}
}

// resolveOverride implements spec.md §4.5 step 5: find the PROMISE
// with the maximum LastAcceptedProposalNumber; if it is > 0 and
// carries a value, that value supersedes the proposer's original v0.
// Ties on the maximum are broken arbitrarily, since by Paxos safety
// every tied promise carries the same value.
func resolveOverride(promises []Message, v0 string) (value string, found bool, proposalNumber int) {
	value = v0
	best := 0
	for _, m := range promises {
		if m.HasLastAcceptedValue && m.LastAcceptedProposalNumber > best {
			best = m.LastAcceptedProposalNumber
			value = m.LastAcceptedValue
			found = true
		}
	}
	return value, found, best
}

// awaitQuorum busy-polls count at pollInterval until it reaches the
// majority or timeout elapses.
func (p *Proposer) awaitQuorum(count func() int, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		if count() >= p.majority {
			return true
		}
		if time.Now().After(deadline) {
			return false
		}
		<-ticker.C
	}
}
