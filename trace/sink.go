// Package trace renders the core's structured paxos.TraceEvent/Sink
// calls into the exact line format of spec §6. It is deliberately
// outside the paxos package: the core depends only on the paxos.Sink
// interface, never on an io.Writer or a format string (spec §1
// "rendering is a collaborator").
package trace

import (
	"fmt"
	"io"

	"goshawkdb.io/paxossim/paxos"
)

// TextSink is the default paxos.Sink: plain text to an io.Writer.
type TextSink struct {
	w             io.Writer
	announcements []string
}

func NewTextSink(w io.Writer) *TextSink {
	return &TextSink{w: w}
}

func (s *TextSink) Tick(t paxos.TraceEvent) {
	fmt.Fprintf(s.w, "%04d: %s\n", t.Tick, formatWorkLine(t))
}

func (s *TextSink) FailureBanner(tick int, id paxos.NodeID) {
	fmt.Fprintf(s.w, "%04d: *** %v failed ***\n", tick, id)
}

func (s *TextSink) RecoveryBanner(tick int, id paxos.NodeID) {
	fmt.Fprintf(s.w, "%04d: *** %v recovered ***\n", tick, id)
}

// Consensus and NoConsensus buffer their line; spec §4.1 requires both
// kinds of announcement to be emitted as a block at shutdown, not
// inline with the tick-by-tick trace.
func (s *TextSink) Consensus(line string) {
	s.announcements = append(s.announcements, line)
}

func (s *TextSink) NoConsensus(line string) {
	s.announcements = append(s.announcements, line)
}

func (s *TextSink) Banner(line string) {
	fmt.Fprintln(s.w, line)
}

// Flush writes the buffered announcements, then, only on a time-out
// shutdown, the mandatory "Simulation Terminated! Time Over!" line
// (spec §4.1, §6).
func (s *TextSink) Flush(timedOut bool) {
	for _, line := range s.announcements {
		fmt.Fprintln(s.w, line)
	}
	if timedOut {
		fmt.Fprintln(s.w, "Simulation Terminated! Time Over!")
	}
}

func formatWorkLine(t paxos.TraceEvent) string {
	src := "      "
	if t.HasSource {
		src = t.Source.String()
	}
	extras := ""
	switch t.Kind {
	case paxos.PROMISE:
		if t.HasPrior {
			extras = fmt.Sprintf(" (Prior: n=%d, v=%s)", t.PriorN, valueString(t.PriorV))
		} else {
			extras = " (Prior: None)"
		}
	case paxos.ACCEPT, paxos.ACCEPTED, paxos.PROPOSE:
		extras = fmt.Sprintf(" v=%s", valueString(t.Value))
	}
	return fmt.Sprintf("%-6s -> %v\t%v n=%d%s", src, t.Destination, t.Kind, t.N, extras)
}

func valueString(v *int) string {
	if v == nil {
		return "<nil>"
	}
	return fmt.Sprintf("%d", *v)
}
