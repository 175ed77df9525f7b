package roster

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReferenceRosterHasNineLoopbackMembers(t *testing.T) {
	r := Reference()
	require.Len(t, r, 9)
	for i := 1; i <= 9; i++ {
		id := "M" + string(rune('0'+i))
		ep, ok := r[id]
		require.True(t, ok, "missing %s", id)
		assert.Equal(t, "127.0.0.1", ep.Host)
		assert.Equal(t, 5000+i, ep.Port)
	}
}

func TestMajority(t *testing.T) {
	assert.Equal(t, 5, Majority(9))
	assert.Equal(t, 3, Majority(4))
	assert.Equal(t, 3, Majority(5))
}

func TestIDNumber(t *testing.T) {
	n, err := IDNumber("M7")
	require.NoError(t, err)
	assert.Equal(t, 7, n)

	_, err = IDNumber("M")
	assert.Error(t, err)

	_, err = IDNumber("Mx")
	assert.Error(t, err)
}

func TestLoadRoundTripsJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "roster.json")
	body := `{"M1":{"host":"127.0.0.1","port":5001},"M2":{"host":"127.0.0.1","port":5002}}`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	r, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, Endpoint{Host: "127.0.0.1", Port: 5001}, r["M1"])
	assert.Equal(t, "127.0.0.1:5002", r["M2"].Addr())
}
