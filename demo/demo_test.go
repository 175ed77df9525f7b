package demo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunScenarioRejectsUnknownName(t *testing.T) {
	_, err := RunScenario("S99")
	assert.Error(t, err)
}

func TestRunScenarioS1(t *testing.T) {
	summary, err := RunScenario("S1")
	require.NoError(t, err)
	assert.Contains(t, summary, "chosen=true")
	assert.Contains(t, summary, `value="M1"`)
}

func TestNewCouncilStartsNineMembers(t *testing.T) {
	c, err := NewCouncil()
	require.NoError(t, err)
	defer c.Stop()

	require.Len(t, c.Members, 9)
	_, ok := c.Members["M1"]
	assert.True(t, ok)
}
