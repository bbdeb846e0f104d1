package paxossim

import (
	"goshawkdb.io/paxossim/metrics"
	"goshawkdb.io/paxossim/paxos"
)

// instrumentedSink wraps a paxos.Sink to increment the consensus
// counter at the same call site the sink records the announcement
// line, mirroring the teacher's ProposerManager incrementing its
// proposer gauge right alongside the map mutation that creates one.
type instrumentedSink struct {
	paxos.Sink
	metrics *metrics.Collector
}

func (s instrumentedSink) Consensus(line string) {
	s.metrics.RecordConsensus()
	s.Sink.Consensus(line)
}
