package paxos

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCollectorDeduplicatesByAcceptorID(t *testing.T) {
	// Testable property / §7 "duplicate responses": a second PROMISE
	// from the same acceptor id overwrites rather than inflating the
	// quorum count.
	c := NewCollector()

	c.AddPromise("M2", Message{Type: Promise, ProposalNumber: 10})
	assert.Equal(t, 1, c.PromiseCount())

	c.AddPromise("M2", Message{Type: Promise, ProposalNumber: 10, LastAcceptedValue: "X"})
	assert.Equal(t, 1, c.PromiseCount(), "duplicate from same acceptor must not inflate count")

	c.AddPromise("M3", Message{Type: Promise, ProposalNumber: 10})
	assert.Equal(t, 2, c.PromiseCount())
}

func TestCollectorAcceptedIndependentFromPromises(t *testing.T) {
	c := NewCollector()
	c.AddPromise("M2", Message{Type: Promise})
	c.AddAccepted("M3", Message{Type: Accepted, Value: "X"})

	assert.Equal(t, 1, c.PromiseCount())
	assert.Equal(t, 1, c.AcceptedCount())
	assert.ElementsMatch(t, []string{"M3"}, c.AcceptedIDs())
}
