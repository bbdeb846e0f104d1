// Package paxossim is a discrete-event simulator of single-decree
// Paxos: a fixed set of proposers and acceptors exchanging PREPARE/
// PROMISE/ACCEPT/ACCEPTED/REJECTED messages over a logical-tick clock,
// driven by a scenario of failures, recoveries, and client proposals.
//
// Simulator replaces every package-level global the original kept
// (the proposal-number counter, the event list, the consensus-reached
// list) with fields on this value, so a process can run more than one
// simulation without cross-contamination (spec §9).
package paxossim

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/go-kit/kit/log"

	"goshawkdb.io/paxossim/configuration"
	"goshawkdb.io/paxossim/metrics"
	"goshawkdb.io/paxossim/network"
	"goshawkdb.io/paxossim/paxos"
	"goshawkdb.io/paxossim/schedule"
)

// Simulator drives the tick loop of spec §4.1.
type Simulator struct {
	logger log.Logger
	config configuration.ClusterConfig

	registry *paxos.Registry
	net      *network.Queue
	events   *schedule.Queue
	delay    *TickDelay

	nextProposal int // spec §4.2: the single global proposal-number counter

	metrics *metrics.Collector
	sink    paxos.Sink

	tick     int
	timedOut bool
}

// New constructs a Simulator. Construction fails fast on a malformed
// cluster shape, a scenario event without a tick, or a scenario that
// references a node outside the configured range (spec §6
// "Construction inputs", §7 "Scenario error"). metricsCollector may be nil to disable metrics entirely.
func New(cfg configuration.ClusterConfig, scenarioEvents []*paxos.Event, sink paxos.Sink, metricsCollector *metrics.Collector, logger log.Logger) (*Simulator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	registry := paxos.NewRegistry(cfg.NumProposers, cfg.NumAcceptors)
	if err := validateScenario(cfg, scenarioEvents); err != nil {
		return nil, err
	}

	seed := cfg.Seed
	if !cfg.HaveSeed {
		seed = time.Now().UnixNano()
	}

	if metricsCollector != nil {
		sink = instrumentedSink{Sink: sink, metrics: metricsCollector}
	}

	s := &Simulator{
		logger:   logger,
		config:   cfg,
		registry: registry,
		net:      &network.Queue{},
		events:   schedule.NewQueue(),
		delay:    NewTickDelay(rand.New(rand.NewSource(seed))),
		metrics:  metricsCollector,
		sink:     sink,
	}
	for _, e := range scenarioEvents {
		s.events.Append(e)
	}
	return s, nil
}

func validateScenario(cfg configuration.ClusterConfig, events []*paxos.Event) error {
	check := func(id paxos.NodeID) error {
		switch id.Role {
		case paxos.RoleProposer:
			if id.ID < 1 || id.ID > cfg.NumProposers {
				return fmt.Errorf("configuration: scenario references proposer %v outside configured range 1..%d", id, cfg.NumProposers)
			}
		case paxos.RoleAcceptor:
			if id.ID < 1 || id.ID > cfg.NumAcceptors {
				return fmt.Errorf("configuration: scenario references acceptor %v outside configured range 1..%d", id, cfg.NumAcceptors)
			}
		}
		return nil
	}
	for i, e := range events {
		if e.Tick == nil {
			return fmt.Errorf("configuration: scenario event %d has no tick", i)
		}
		for _, id := range e.Failures {
			if err := check(id); err != nil {
				return err
			}
		}
		for _, id := range e.Recoveries {
			if err := check(id); err != nil {
				return err
			}
		}
		if e.Request != nil {
			if err := check(*e.Request); err != nil {
				return err
			}
		}
	}
	return nil
}

// Run executes the tick loop of spec §4.1 to completion: either both
// queues run dry (early shutdown) or the tick budget is exhausted
// (time-out shutdown).
func (s *Simulator) Run() {
	s.sink.Banner(fmt.Sprintf("paxossim %s starting: %s", SimulatorVersion, s.config.String()))
	for s.tick = 0; s.tick < s.config.MaxDuration; s.tick++ {
		s.observeMetrics()
		if s.net.Empty() && s.events.IsEmpty() {
			s.shutdown(false)
			return
		}

		s.events.ResolvePending(s.tick, s.delay.Next)
		s.events.Advance(s.tick)

		if ev, ok := s.events.Take(s.tick); ok {
			if s.applyEvent(ev) {
				continue // direct PROPOSE delivery is this tick's work unit
			}
		}

		if m, ok := s.net.Extract(); ok {
			s.deliver(m)
		}
	}
	s.shutdown(true)
}

// applyEvent applies failures/recoveries unconditionally and, if the
// event also carries a client request, allocates a proposal number and
// delivers PROPOSE directly, bypassing the network queue (spec §4.1
// step 3, §4.2). It reports whether this event consumed the tick's one
// work unit.
func (s *Simulator) applyEvent(ev *paxos.Event) bool {
	for _, id := range ev.Failures {
		s.registry.SetFailed(id, true)
		s.sink.FailureBanner(s.tick, id)
	}
	for _, id := range ev.Recoveries {
		s.registry.SetFailed(id, false)
		s.sink.RecoveryBanner(s.tick, id)
	}
	if ev.Request == nil {
		return false
	}
	p, ok := s.registry.Proposer(ev.Request.ID)
	if !ok {
		return false
	}
	value := 0
	if ev.ProposedValue != nil {
		value = *ev.ProposedValue
	}
	p.StartPropose(s.allocateProposal(), value)
	s.deliver(paxos.Message{Destination: p, Kind: paxos.PROPOSE})
	return true
}

// allocateProposal hands out the next proposal number: strictly
// increasing, starting at 1 (spec §4.2, testable property in §8).
func (s *Simulator) allocateProposal() int {
	s.nextProposal++
	return s.nextProposal
}

func (s *Simulator) deliver(m paxos.Message) {
	ctx := paxos.Context{
		Tick:      s.tick,
		Quorum:    s.config.Quorum(),
		Acceptors: s.registry.Acceptors,
		Net:       s.net,
		Retry:     s.events,
		Sink:      s.sink,
	}
	paxos.Deliver(ctx, m)
}

func (s *Simulator) observeMetrics() {
	if s.metrics == nil {
		return
	}
	live, failed := s.registry.Counts()
	s.metrics.Observe(s.net.Len(), live, failed)
}

// shutdown emits every buffered consensus announcement, a "did not
// reach consensus" notice for each proposer that started an attempt
// but never finished one, and the mandatory time-out banner when
// applicable (spec §4.1, §6).
func (s *Simulator) shutdown(timedOut bool) {
	s.timedOut = timedOut
	for _, p := range s.registry.Proposers {
		if p.Value != nil && !p.Consensus {
			s.sink.NoConsensus(fmt.Sprintf("P%d did not reach consensus", p.ID))
		}
	}
	s.sink.Flush(timedOut)
	s.sink.Banner(fmt.Sprintf("paxossim stopping at tick %d", s.tick))
}

// TimedOut reports whether the run ended by exhausting MaxDuration
// rather than by both queues running dry.
func (s *Simulator) TimedOut() bool { return s.timedOut }

// Report emits each node's full log as Sink.Banner lines,
// supplementing the mandatory shutdown report the way
// original_source/main.py dumps every node's history at the end of a
// run (SPEC_FULL §12). It is not part of the required shutdown
// sequence and callers may skip it.
func (s *Simulator) Report() {
	for _, p := range s.registry.Proposers {
		s.reportNode(p)
	}
	for _, a := range s.registry.Acceptors {
		s.reportNode(a)
	}
}

func (s *Simulator) reportNode(n *paxos.Node) {
	s.sink.Banner(fmt.Sprintf("-- %v log (%d records) --", n, len(n.Log())))
	for _, rec := range n.Log() {
		src := "      "
		if rec.Source != nil {
			src = rec.Source.String()
		}
		val := "<nil>"
		if rec.Value != nil {
			val = fmt.Sprintf("%d", *rec.Value)
		}
		s.sink.Banner(fmt.Sprintf("%-6s -> %v\t%v n=%d v=%s", src, rec.Destination, rec.Kind, rec.N, val))
	}
}
