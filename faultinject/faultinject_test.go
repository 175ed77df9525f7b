package faultinject

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResponsiveAlwaysProcesses(t *testing.T) {
	inj := NewResponsive()
	for i := 0; i < 50; i++ {
		action, _ := inj.Decide()
		assert.Equal(t, Process, action)
	}
}

func TestLossyProfileDistribution(t *testing.T) {
	// Spec.md §4.6: lossy is 30% drop / 70% process-now. Over a large
	// sample the drop rate should land near 30%, loosely bounded to
	// avoid a flaky test on an unlucky seed.
	inj := NewLossy()
	drops := 0
	const n = 20000
	for i := 0; i < n; i++ {
		action, _ := inj.Decide()
		assert.Contains(t, []Action{Process, Drop}, action)
		if action == Drop {
			drops++
		}
	}
	rate := float64(drops) / n
	assert.InDelta(t, 0.30, rate, 0.05)
}

func TestVariableProfileNeverDropsAndDelaysWithinBound(t *testing.T) {
	inj := NewVariable()
	for i := 0; i < 500; i++ {
		action, delay := inj.Decide()
		assert.Equal(t, Delay, action)
		assert.GreaterOrEqual(t, delay.Seconds(), 0.0)
		assert.Less(t, delay.Seconds(), 3.0)
	}
}

func TestFlakySlowProfileDistribution(t *testing.T) {
	inj := NewFlakySlow()
	var delay, drop, process int
	const n = 20000
	for i := 0; i < n; i++ {
		action, _ := inj.Decide()
		switch action {
		case Delay:
			delay++
		case Drop:
			drop++
		case Process:
			process++
		}
	}
	assert.InDelta(t, 0.50, float64(delay)/n, 0.05)
	assert.InDelta(t, 0.25, float64(drop)/n, 0.05)
	assert.InDelta(t, 0.25, float64(process)/n, 0.05)
}

func TestDecideSafeForConcurrentUse(t *testing.T) {
	// The inbox server calls Decide from one goroutine per inbound
	// connection (spec.md §5); a shared *rand.Rand must not race.
	inj := NewLossy()
	var wg sync.WaitGroup
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			inj.Decide()
		}()
	}
	wg.Wait()
}
