// Package member assembles one council node's acceptor, proposer,
// fault injector, and transport into a single running process, and
// implements the dispatcher that routes inbound envelopes to the
// right handler.
package member

import (
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"council/faultinject"
	"council/paxos"
	"council/roster"
	"council/transport"
)

// Member is one node of the nine-member council: it runs acceptor,
// proposer, and learner roles simultaneously.
type Member struct {
	ID       string
	idNumber int
	peerIDs  []string
	majority int

	acceptor *paxos.Acceptor
	proposer *paxos.Proposer
	fault    faultinject.Injector
	client   *transport.Client
	server   *transport.Server
	observer *Observer

	mu         sync.Mutex
	collectors map[string]*paxos.Collector

	decisionMu sync.Mutex
	decision   string
	hasChosen  bool
}

// senderAdapter closes over a Member's id and transport.Client to
// satisfy paxos.Sender, which does not itself carry a notion of "who
// is sending" — that belongs to the member, not the transport.
type senderAdapter struct {
	from   string
	client *transport.Client
}

func (s senderAdapter) Broadcast(roundID string, to []string, msg paxos.Message) {
	s.client.Broadcast(s.from, roundID, to, msg)
}

// registrarAdapter satisfies paxos.Registrar by writing into the
// member's collector registry under its mutex.
type registrarAdapter struct{ m *Member }

func (r registrarAdapter) Register(roundID string, c *paxos.Collector) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	r.m.collectors[roundID] = c
}

func (r registrarAdapter) Unregister(roundID string) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	delete(r.m.collectors, roundID)
}

// New builds a member with the given id and fault profile, wired to
// the given roster. It does not start listening until Start is called.
func New(id string, rost roster.Roster, fault faultinject.Injector) (*Member, error) {
	idNumber, err := roster.IDNumber(id)
	if err != nil {
		return nil, err
	}

	peerIDs := make([]string, 0, len(rost)-1)
	for peerID := range rost {
		if peerID != id {
			peerIDs = append(peerIDs, peerID)
		}
	}

	m := &Member{
		ID:         id,
		idNumber:   idNumber,
		peerIDs:    peerIDs,
		majority:   roster.Majority(len(rost)),
		acceptor:   paxos.NewAcceptor(id),
		fault:      fault,
		client:     transport.NewClient(rost),
		collectors: make(map[string]*paxos.Collector),
	}

	m.proposer = paxos.NewProposer(
		id, idNumber, peerIDs, m.majority,
		senderAdapter{from: id, client: m.client},
		registrarAdapter{m: m},
		m.acceptor,
		func() string { return uuid.New().String() },
	)

	endpoint, ok := rost[id]
	if !ok {
		return nil, errNotInRoster(id)
	}
	m.server = transport.NewServer(endpoint.Addr(), m.dispatch)

	return m, nil
}

// SetObserver attaches a live protocol-event feed; nil disables it.
func (m *Member) SetObserver(o *Observer) {
	m.observer = o
}

// Start begins listening for inbound connections.
func (m *Member) Start() error {
	return m.server.Start()
}

// Stop closes the inbox listener.
func (m *Member) Stop() {
	m.server.Stop()
}

// Propose is the operator surface: spec.md §6's proposeValue(memberId,
// value). It blocks until the round ends.
func (m *Member) Propose(value string) paxos.Result {
	result := m.proposer.Propose(value, paxos.DefaultPhaseTimeout)
	if result.Chosen {
		m.decisionMu.Lock()
		m.decision = result.Value
		m.hasChosen = true
		m.decisionMu.Unlock()
	}
	return result
}

// LearnedDecision returns the value this member has learned was
// chosen, if any. This is the per-member reporting field spec.md §9
// calls for in place of a shared global/static singleton.
func (m *Member) LearnedDecision() (string, bool) {
	m.decisionMu.Lock()
	defer m.decisionMu.Unlock()
	return m.decision, m.hasChosen
}

// Acceptor exposes the member's acceptor state for tests and the
// observer feed.
func (m *Member) Acceptor() *paxos.Acceptor {
	return m.acceptor
}

// dispatch is the inbox's single entry point: pure routing by message
// type, per spec.md §4.2.
func (m *Member) dispatch(env paxos.Envelope) {
	switch env.Message.Type {
	case paxos.PrepareRequest:
		m.handlePrepare(env)
	case paxos.AcceptRequest:
		m.handleAcceptRequest(env)
	case paxos.Promise:
		m.handlePromise(env)
	case paxos.Accepted:
		m.handleAccepted(env)
	default:
		log.Printf("[%s] dropping envelope with unknown message type %q", m.ID, env.Message.Type)
	}
}

func (m *Member) handlePrepare(env paxos.Envelope) {
	action, delay := m.fault.Decide()
	if action == faultinject.Drop {
		return
	}
	if action == faultinject.Delay {
		time.Sleep(delay)
	}

	promise, ok := m.acceptor.HandlePrepare(env.SenderID, env.Message.ProposalNumber)
	if !ok {
		return
	}
	m.notifyObserver("promise", env.SenderID, promise)
	m.client.Send(env.SenderID, paxos.Envelope{
		SenderID:   m.ID,
		ReceiverID: env.SenderID,
		RoundID:    env.RoundID,
		Message:    promise,
	})
}

func (m *Member) handleAcceptRequest(env paxos.Envelope) {
	action, delay := m.fault.Decide()
	if action == faultinject.Drop {
		return
	}
	if action == faultinject.Delay {
		time.Sleep(delay)
	}

	accepted, ok := m.acceptor.HandleAcceptRequest(env.SenderID, env.Message.ProposalNumber, env.Message.Value)
	if !ok {
		return
	}
	m.notifyObserver("accepted", env.SenderID, accepted)
	m.client.Send(env.SenderID, paxos.Envelope{
		SenderID:   m.ID,
		ReceiverID: env.SenderID,
		RoundID:    env.RoundID,
		Message:    accepted,
	})
}

func (m *Member) handlePromise(env paxos.Envelope) {
	log.Printf("Phase 2 : Proposer %s received PROMISE from %s", m.ID, env.SenderID)
	m.mu.Lock()
	c, ok := m.collectors[env.RoundID]
	m.mu.Unlock()
	if !ok {
		return
	}
	c.AddPromise(env.SenderID, env.Message)
}

func (m *Member) handleAccepted(env paxos.Envelope) {
	log.Printf("Phase 4 : Proposer %s received ACCEPTED from %s", m.ID, env.SenderID)
	m.mu.Lock()
	c, ok := m.collectors[env.RoundID]
	m.mu.Unlock()
	if !ok {
		return
	}
	c.AddAccepted(env.SenderID, env.Message)
}

func (m *Member) notifyObserver(kind, peer string, msg paxos.Message) {
	if m.observer == nil {
		return
	}
	m.observer.Publish(Event{
		Member: m.ID,
		Peer:   peer,
		Kind:   kind,
		Msg:    msg,
	})
}

type notInRosterError string

func (e notInRosterError) Error() string {
	return "member id " + string(e) + " not present in roster"
}

func errNotInRoster(id string) error {
	return notInRosterError(id)
}
