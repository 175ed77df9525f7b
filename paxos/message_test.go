package paxos

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProposalNumberEncoding(t *testing.T) {
	// Uniqueness across members within the same round.
	assert.NotEqual(t, ProposalNumber(1, 1), ProposalNumber(1, 2))

	// Monotonicity per proposer: increasing round strictly increases n.
	assert.Less(t, ProposalNumber(1, 9), ProposalNumber(2, 1))

	// Matches the reference encoding exactly.
	assert.Equal(t, 21, ProposalNumber(2, 1))
	assert.Equal(t, 93, ProposalNumber(9, 3))
}
