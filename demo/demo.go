// Package demo is the test-driver role of spec.md §2: it is not part
// of the Paxos core contract, but it is what exercises it — launching
// a full nine-member council in one process and invoking proposeValue
// on scripted members at scripted times, the way the teacher's
// cmd/udp.go picks a runtime mode via a flag.
package demo

import (
	"fmt"
	"time"

	"council/faultinject"
	"council/member"
	"council/roster"
)

// Council is a nine-member reference scenario running entirely
// in-process: one goroutine set per member, loopback TCP ports
// 5001..5009, exactly spec.md §6's reference deployment.
type Council struct {
	Roster  roster.Roster
	Members map[string]*member.Member
}

// faultProfileFor assigns the spec.md §4.6 reference profile table:
// M1 responsive, M2 flaky-slow, M3 lossy, everyone else variable.
func faultProfileFor(id string) faultinject.Injector {
	switch id {
	case "M1":
		return faultinject.NewResponsive()
	case "M2":
		return faultinject.NewFlakySlow()
	case "M3":
		return faultinject.NewLossy()
	default:
		return faultinject.NewVariable()
	}
}

// NewCouncil builds and starts all nine members on the reference
// loopback roster.
func NewCouncil() (*Council, error) {
	rost := roster.Reference()
	c := &Council{Roster: rost, Members: make(map[string]*member.Member, len(rost))}

	for id := range rost {
		m, err := member.New(id, rost, faultProfileFor(id))
		if err != nil {
			return nil, fmt.Errorf("build member %s: %w", id, err)
		}
		if err := m.Start(); err != nil {
			return nil, fmt.Errorf("start member %s: %w", id, err)
		}
		c.Members[id] = m
	}
	return c, nil
}

// Stop shuts down every member's inbox server.
func (c *Council) Stop() {
	for _, m := range c.Members {
		m.Stop()
	}
}

// AcceptedValues returns every member's current acceptedValue, for
// assertions that the whole council converged on one chosen value.
func (c *Council) AcceptedValues() map[string]string {
	out := make(map[string]string, len(c.Members))
	for id, m := range c.Members {
		snap := m.Acceptor().State()
		out[id] = snap.AcceptedValue
	}
	return out
}

// RunScenario executes one of the named end-to-end scenarios from
// spec.md §8 against a fresh council and returns a human-readable
// summary, for both the `council demo` CLI and scenario tests.
func RunScenario(name string) (string, error) {
	switch name {
	case "S1":
		return runS1()
	case "S4":
		return runS4()
	case "S6":
		return runS6()
	default:
		return "", fmt.Errorf("unknown scenario %q (known: S1, S4, S6)", name)
	}
}

// runS1 — uncontested election: M1 proposes "M1" with no competing
// proposer and must win outright. The council is the one NewCouncil
// builds, with the reference fault profiles (M2 flaky-slow, M3 lossy,
// M4-M9 variable), not an all-responsive one.
func runS1() (string, error) {
	c, err := NewCouncil()
	if err != nil {
		return "", err
	}
	defer c.Stop()

	result := c.Members["M1"].Propose("M1")
	return fmt.Sprintf("S1: chosen=%v value=%q", result.Chosen, result.Value), nil
}

// runS4 — lossy acceptor: M3 drops 30%% of inbound messages but the
// remaining 8 acceptors still give M1 its majority of 5.
func runS4() (string, error) {
	c, err := NewCouncil()
	if err != nil {
		return "", err
	}
	defer c.Stop()

	result := c.Members["M1"].Propose("M1")
	return fmt.Sprintf("S4: chosen=%v value=%q (M3 is lossy)", result.Chosen, result.Value), nil
}

// runS6 — majority boundary: the in-process demo does not shrink the
// quorum (the reference roster always has N=9), so this runs the same
// uncontested election as S1. The 4-vs-5 threshold itself is checked
// by member.TestS6MajorityBoundary, which asserts Majority(9) == 5.
// The demo command still offers S6 so operators can watch the
// reference council converge and compare against that unit test.
func runS6() (string, error) {
	c, err := NewCouncil()
	if err != nil {
		return "", err
	}
	defer c.Stop()

	result := c.Members["M1"].Propose("M1")
	time.Sleep(50 * time.Millisecond)
	return fmt.Sprintf("S6: chosen=%v value=%q (see member.TestS6MajorityBoundary for the exact 4-vs-5 check)", result.Chosen, result.Value), nil
}
