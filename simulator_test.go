package paxossim

import (
	"strings"
	"testing"

	"github.com/go-kit/kit/log"

	"goshawkdb.io/paxossim/configuration"
	"goshawkdb.io/paxossim/paxos"
)

// testSink is a minimal paxos.Sink that just records what happened,
// enough for end-to-end assertions without pulling in the trace
// package's text formatting.
type testSink struct {
	consensus   []string
	noConsensus []string
	flushed     bool
	timedOut    bool
}

func (s *testSink) Tick(paxos.TraceEvent)          {}
func (s *testSink) FailureBanner(int, paxos.NodeID)  {}
func (s *testSink) RecoveryBanner(int, paxos.NodeID) {}
func (s *testSink) Consensus(line string)          { s.consensus = append(s.consensus, line) }
func (s *testSink) NoConsensus(line string)        { s.noConsensus = append(s.noConsensus, line) }
func (s *testSink) Banner(string)                  {}
func (s *testSink) Flush(timedOut bool) {
	s.flushed = true
	s.timedOut = timedOut
}

func TestSimulatorReachesConsensusOnSingleProposal(t *testing.T) {
	cfg := configuration.ClusterConfig{NumProposers: 1, NumAcceptors: 3, MaxDuration: 50, HaveSeed: true, Seed: 1}
	pid := paxos.NodeID{Role: paxos.RoleProposer, ID: 1}
	tick0 := 0
	value := 99
	events := []*paxos.Event{{Tick: &tick0, Request: &pid, ProposedValue: &value}}

	sink := &testSink{}
	sim, err := New(cfg, events, sink, nil, log.NewNopLogger())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	sim.Run()

	if len(sink.consensus) != 1 {
		t.Fatalf("expected exactly one consensus announcement, got %v", sink.consensus)
	}
	want := "P1 has reached consensus (proposed 99, accepted 99)"
	if sink.consensus[0] != want {
		t.Fatalf("consensus line = %q, want %q", sink.consensus[0], want)
	}
	if sim.TimedOut() {
		t.Fatalf("expected the run to finish early once both queues drained, not time out")
	}
	if !sink.flushed {
		t.Fatalf("expected Flush to be called on shutdown")
	}
}

func TestSimulatorMasksFailedAcceptor(t *testing.T) {
	cfg := configuration.ClusterConfig{NumProposers: 1, NumAcceptors: 3, MaxDuration: 50, HaveSeed: true, Seed: 1}
	pid := paxos.NodeID{Role: paxos.RoleProposer, ID: 1}
	tick0 := 0
	value := 5
	failedAcceptor := paxos.NodeID{Role: paxos.RoleAcceptor, ID: 1}
	events := []*paxos.Event{{
		Tick:          &tick0,
		Failures:      []paxos.NodeID{failedAcceptor},
		Request:       &pid,
		ProposedValue: &value,
	}}

	sink := &testSink{}
	sim, err := New(cfg, events, sink, nil, log.NewNopLogger())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	sim.Run()

	if len(sink.consensus) != 1 {
		t.Fatalf("expected consensus despite one failed acceptor (quorum=2 of 3), got %v", sink.consensus)
	}
}

func TestNewRejectsScenarioOutOfRange(t *testing.T) {
	cfg := configuration.ClusterConfig{NumProposers: 1, NumAcceptors: 3, MaxDuration: 50}
	bogus := paxos.NodeID{Role: paxos.RoleProposer, ID: 99}
	tick0 := 0
	events := []*paxos.Event{{Tick: &tick0, Request: &bogus}}

	if _, err := New(cfg, events, &testSink{}, nil, log.NewNopLogger()); err == nil {
		t.Fatalf("expected a construction error for an out-of-range proposer id")
	}
}

func TestNewRejectsInvalidClusterShape(t *testing.T) {
	cfg := configuration.ClusterConfig{NumProposers: 1, NumAcceptors: 4, MaxDuration: 50}
	if _, err := New(cfg, nil, &testSink{}, nil, log.NewNopLogger()); err == nil {
		t.Fatalf("expected a construction error for an even acceptor count")
	}
}

// TestSimulatorCrashThenAlternateProposerLocksValue is spec §8 scenario 2:
// P1 proposes 42, crashes before finishing, P2 proposes 37 while P1 is
// down, and P1 recovers later. Exactly one value must ever be chosen:
// A1 had already accepted 42 from P1 before the crash, so P2 adopts 42
// rather than its own 37, and if P1 also reaches consensus after
// recovering it is on that same value.
func TestSimulatorCrashThenAlternateProposerLocksValue(t *testing.T) {
	cfg := configuration.ClusterConfig{NumProposers: 2, NumAcceptors: 3, MaxDuration: 90, HaveSeed: true, Seed: 7}
	p1 := paxos.NodeID{Role: paxos.RoleProposer, ID: 1}
	p2 := paxos.NodeID{Role: paxos.RoleProposer, ID: 2}
	t0, t8, t11, t26 := 0, 8, 11, 26
	v42, v37 := 42, 37

	events := []*paxos.Event{
		{Tick: &t0, Request: &p1, ProposedValue: &v42},
		{Tick: &t8, Failures: []paxos.NodeID{p1}},
		{Tick: &t11, Request: &p2, ProposedValue: &v37},
		{Tick: &t26, Recoveries: []paxos.NodeID{p1}},
	}

	sink := &testSink{}
	sim, err := New(cfg, events, sink, nil, log.NewNopLogger())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	sim.Run()

	if len(sink.consensus) == 0 {
		t.Fatalf("expected at least one consensus announcement, got none")
	}

	chosen := make(map[string]bool)
	for _, line := range sink.consensus {
		// Every announcement line is "P<id> has reached consensus
		// (proposed <vp>, accepted <va>)"; the accepted value is what
		// safety requires to be unique across announcements.
		idx := strings.LastIndexByte(line, ' ')
		chosen[line[idx+1:len(line)-1]] = true
	}
	if len(chosen) != 1 {
		t.Fatalf("expected every consensus announcement to agree on one accepted value, got %v", sink.consensus)
	}
}

// TestSimulatorPromiseDroppedLeavesOneProposerShortOfQuorum is spec §8
// scenario 3: P2 requests at tick=2, shortly after P1's own PREPARE
// round has gone out but before all of P1's PROMISE replies have come
// back. Two of the three acceptors see P2's higher-numbered PREPARE
// before their PROMISE to P1 is actually delivered (the late-binding
// rule re-reads each acceptor's live n at delivery time), so those two
// PROMISE messages arrive stale and are dropped. P1 never crosses
// PROMISE quorum and never even attempts ACCEPT; P2 proceeds alone and
// reaches consensus, while P1 surfaces in the "did not reach
// consensus" list.
func TestSimulatorPromiseDroppedLeavesOneProposerShortOfQuorum(t *testing.T) {
	cfg := configuration.ClusterConfig{NumProposers: 2, NumAcceptors: 3, MaxDuration: 50, HaveSeed: true, Seed: 1}
	p1 := paxos.NodeID{Role: paxos.RoleProposer, ID: 1}
	p2 := paxos.NodeID{Role: paxos.RoleProposer, ID: 2}
	t0, t2 := 0, 2
	v15, v25 := 15, 25

	events := []*paxos.Event{
		{Tick: &t0, Request: &p1, ProposedValue: &v15},
		{Tick: &t2, Request: &p2, ProposedValue: &v25},
	}

	sink := &testSink{}
	sim, err := New(cfg, events, sink, nil, log.NewNopLogger())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	sim.Run()

	if len(sink.consensus) != 1 {
		t.Fatalf("expected exactly one consensus announcement (P2 alone), got %v", sink.consensus)
	}
	if !strings.HasPrefix(sink.consensus[0], "P2 has reached consensus") {
		t.Fatalf("expected P2 to be the one that reached consensus, got %q", sink.consensus[0])
	}
	if len(sink.noConsensus) != 1 || sink.noConsensus[0] != "P1 did not reach consensus" {
		t.Fatalf("expected P1 to be reported as not reaching consensus, got %v", sink.noConsensus)
	}
	if sim.TimedOut() {
		t.Fatalf("expected the run to finish early once both queues drained, not time out")
	}
}

// TestSimulatorTwoPhasePreemptionBothEventuallyConverge is spec §8
// scenario 4: P1 passes PROMISE quorum and broadcasts ACCEPT, but P2's
// later, higher-numbered PREPARE round reaches every acceptor first and
// moves each past P1's n. The acceptors still accept P1's value at n=1,
// but by the time their ACCEPTED replies reach P1 they read a.N > p.N,
// so the ACCEPTED-drop retry rule reschedules P1 rather than leaving it
// stuck. Meanwhile P2 reaches consensus first, having adopted the
// value the acceptors accepted from P1. P1's retry later also reaches
// consensus, necessarily on that same value (spec §8 Safety).
func TestSimulatorTwoPhasePreemptionBothEventuallyConverge(t *testing.T) {
	cfg := configuration.ClusterConfig{NumProposers: 2, NumAcceptors: 3, MaxDuration: 90, HaveSeed: true, Seed: 3}
	p1 := paxos.NodeID{Role: paxos.RoleProposer, ID: 1}
	p2 := paxos.NodeID{Role: paxos.RoleProposer, ID: 2}
	t0, t3 := 0, 3
	v10, v20 := 10, 20

	events := []*paxos.Event{
		{Tick: &t0, Request: &p1, ProposedValue: &v10},
		{Tick: &t3, Request: &p2, ProposedValue: &v20},
	}

	sink := &testSink{}
	sim, err := New(cfg, events, sink, nil, log.NewNopLogger())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	sim.Run()

	if len(sink.consensus) != 2 {
		t.Fatalf("expected both proposers to eventually reach consensus, got %v", sink.consensus)
	}
	if !strings.HasPrefix(sink.consensus[0], "P2 has reached consensus") {
		t.Fatalf("expected P2 to reach consensus first (P1 got preempted), got %v", sink.consensus)
	}
	if !strings.HasPrefix(sink.consensus[1], "P1 has reached consensus") {
		t.Fatalf("expected P1's retried attempt to also reach consensus, got %v", sink.consensus)
	}

	chosen := make(map[string]bool)
	for _, line := range sink.consensus {
		idx := strings.LastIndexByte(line, ' ')
		chosen[line[idx+1:len(line)-1]] = true
	}
	if len(chosen) != 1 {
		t.Fatalf("expected every consensus announcement to agree on one accepted value, got %v", sink.consensus)
	}
}

// TestSimulatorBothProposersConvergeOnSameValue is spec §8 scenario 5:
// P1 proposes and fully reaches consensus before P2 ever starts; P2's
// request at tick=12 lands well after every acceptor already holds
// P1's value, so P2's PROMISE replies carry that value back and P2
// converges on it too, even though P2 itself proposed something else.
func TestSimulatorBothProposersConvergeOnSameValue(t *testing.T) {
	cfg := configuration.ClusterConfig{NumProposers: 2, NumAcceptors: 3, MaxDuration: 50, HaveSeed: true, Seed: 1}
	p1 := paxos.NodeID{Role: paxos.RoleProposer, ID: 1}
	p2 := paxos.NodeID{Role: paxos.RoleProposer, ID: 2}
	t0, t12 := 0, 12
	v7, v99 := 7, 99

	events := []*paxos.Event{
		{Tick: &t0, Request: &p1, ProposedValue: &v7},
		{Tick: &t12, Request: &p2, ProposedValue: &v99},
	}

	sink := &testSink{}
	sim, err := New(cfg, events, sink, nil, log.NewNopLogger())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	sim.Run()

	if len(sink.consensus) != 2 {
		t.Fatalf("expected both proposers to reach consensus, got %v", sink.consensus)
	}

	chosen := make(map[string]bool)
	for _, line := range sink.consensus {
		idx := strings.LastIndexByte(line, ' ')
		chosen[line[idx+1:len(line)-1]] = true
	}
	if len(chosen) != 1 {
		t.Fatalf("expected both announcements to carry the same accepted value, got %v", sink.consensus)
	}
}

// TestSimulatorEmptyScenarioTerminatesImmediately is spec §8 scenario
// 6: a scenario with no events at all. Both queues are empty on the
// very first tick, so the run ends immediately via early shutdown, not
// the time-out path, with nothing to announce either way.
func TestSimulatorEmptyScenarioTerminatesImmediately(t *testing.T) {
	cfg := configuration.ClusterConfig{NumProposers: 2, NumAcceptors: 3, MaxDuration: 50}

	sink := &testSink{}
	sim, err := New(cfg, nil, sink, nil, log.NewNopLogger())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	sim.Run()

	if sim.TimedOut() {
		t.Fatalf("expected early shutdown on an empty scenario, not a time-out")
	}
	if !sink.flushed || sink.timedOut {
		t.Fatalf("expected Flush(false), got flushed=%v timedOut=%v", sink.flushed, sink.timedOut)
	}
	if len(sink.consensus) != 0 || len(sink.noConsensus) != 0 {
		t.Fatalf("expected no announcements at all, got consensus=%v noConsensus=%v", sink.consensus, sink.noConsensus)
	}
}
