package paxos

import "fmt"

// Network is the outbound half of the FIFO queue a handler needs
// (spec §4.3 QueueMessage). The concrete implementation lives in the
// network package; handlers only ever see this interface.
type Network interface {
	Enqueue(m Message)
}

// Retryer is the ACCEPTED handler's access to the event queue, just
// enough to implement the drop/retry rule of spec §4.4 without the
// handler reaching for a package-level global (spec §9).
type Retryer interface {
	HasPendingRequest(p NodeID) bool
	ScheduleRetry(p *Node)
}

// Context bundles everything a protocol handler needs beyond the
// message itself: the quorum size, the full acceptor set (for the
// PREPARE/ACCEPT broadcasts), and the three collaborators above.
type Context struct {
	Tick      int
	Quorum    int
	Acceptors []*Node
	Net       Network
	Retry     Retryer
	Sink      Sink
}

// Deliver applies m's protocol handler and emits the resulting trace
// line (spec §4.4 "Protocol handlers", §6). It is the simulator loop's
// only entry point into this package for message processing, called
// both for a network-extracted message and for a direct PROPOSE
// delivery that bypasses the queue (spec §4.1 step 3c).
func Deliver(ctx Context, m Message) {
	switch m.Kind {
	case PROPOSE:
		handlePropose(ctx, m)
	case PREPARE:
		handlePrepare(ctx, m)
	case PROMISE:
		handlePromise(ctx, m)
	case ACCEPT:
		handleAccept(ctx, m)
	case ACCEPTED:
		handleAccepted(ctx, m)
	case REJECTED:
		// No state transition on delivery (spec §4.4): the sender
		// already recorded it in its own log at enqueue time.
	default:
		panic(fmt.Sprintf("paxos: delivered message of impossible kind %v", m.Kind))
	}
	ctx.Sink.Tick(buildTraceEvent(ctx.Tick, m))
}

// handlePropose broadcasts a PREPARE to every acceptor (spec §4.4
// PROPOSE). The proposer's own n/value were already set by
// Node.StartPropose before this was delivered; there's no further
// local state change here.
func handlePropose(ctx Context, m Message) {
	p := m.Destination
	for _, a := range ctx.Acceptors {
		ctx.Net.Enqueue(Message{Source: p, Destination: a, Kind: PREPARE})
	}
}

// handlePrepare is the acceptor-side PREPARE handler (spec §4.4). It
// appends the PREPARE record with a's state as of *before* the update,
// so a's prior accepted value stays in the log at its historical n.
// (The ACCEPT handler reads a's PROMISE records, not this one.)
func handlePrepare(ctx Context, m Message) {
	a := m.Destination
	p := m.Source
	if a.N <= p.N {
		a.append(LogRecord{Source: p, Destination: a, Kind: PREPARE, N: a.N, Value: a.Value})
		a.N = p.N
		ctx.Net.Enqueue(Message{Source: a, Destination: p, Kind: PROMISE})
	} else {
		a.append(LogRecord{Source: a, Destination: p, Kind: REJECTED, N: a.N, Value: a.Value})
		ctx.Net.Enqueue(Message{Source: a, Destination: p, Kind: REJECTED})
	}
}

// handlePromise is the proposer-side PROMISE handler (spec §4.4, §9
// Open Question 1 — decided "preserve source behavior": the acceptor's
// current value always overwrites p.Value when present, with no
// cross-quorum n* comparison).
//
// It also appends a PROMISE record onto a's own log, not just p's,
// with a's current n/value at the moment the promise was honored
// (original_source/network.py's DeliverMessage PROMISE branch calls
// message.source.saveMessage(message), and message.source is the
// acceptor there). This is the record the ACCEPT handler later
// consults to learn the highest promise a has issued since.
func handlePromise(ctx Context, m Message) {
	p := m.Destination
	a := m.Source
	if p.N != a.N {
		return // stale reply to an attempt p has already moved past
	}
	if a.Value != nil {
		v := *a.Value
		p.Value = &v
	}
	p.append(LogRecord{Source: a, Destination: p, Kind: PROMISE, N: p.N, Value: p.Value})
	a.append(LogRecord{Source: a, Destination: p, Kind: PROMISE, N: a.N, Value: a.Value})
	if p.RecordPromise(p.N, a.ID, ctx.Quorum) {
		for _, acc := range ctx.Acceptors {
			ctx.Net.Enqueue(Message{Source: p, Destination: acc, Kind: ACCEPT})
		}
	}
}

// handleAccept is the acceptor-side ACCEPT handler (spec §4.4). n*/v*
// are the largest-n PROMISE record previously recorded in a's log, if
// any; absent that record, n* is treated as lower than any real
// proposal number so the accept always proceeds. Because a's n is
// monotonically non-decreasing and a PROMISE record is appended with
// a's n as of that promise (see handlePromise), the most recently
// appended PROMISE record is always the largest-n one — so this
// correctly rejects an ACCEPT whose n has been superseded by a promise
// a made to some other proposer after p's PREPARE round.
func handleAccept(ctx Context, m Message) {
	a := m.Destination
	p := m.Source

	nStar := -1
	var vStar *int
	if rec, ok := a.lastOfKind(PROMISE); ok {
		nStar = rec.N
		vStar = rec.Value
	}

	if nStar <= p.N {
		if vStar == nil && p.Value != nil {
			v := *p.Value
			vStar = &v
		}
		a.Value = vStar
		a.append(LogRecord{Source: p, Destination: a, Kind: ACCEPT, N: p.N, Value: a.Value})
		ctx.Net.Enqueue(Message{Source: a, Destination: p, Kind: ACCEPTED})
	} else {
		a.append(LogRecord{Source: a, Destination: p, Kind: REJECTED, N: a.N, Value: a.Value})
		ctx.Net.Enqueue(Message{Source: a, Destination: p, Kind: REJECTED})
	}
}

// handleAccepted is the proposer-side ACCEPTED handler (spec §4.4): the
// three-way split on p.N vs a.N, including the ACCEPTED-drop retry that
// reschedules p through the event queue when it has fallen behind.
func handleAccepted(ctx Context, m Message) {
	p := m.Destination
	a := m.Source

	switch {
	case p.N == a.N:
		p.append(LogRecord{Source: a, Destination: p, Kind: ACCEPTED, N: p.N, Value: a.Value})
		crossed := p.RecordAccepted(p.N, a.ID, ctx.Quorum)
		if crossed {
			if p.Consensus {
				panic("paxos: quorum crossed twice for the same proposal number")
			}
			p.Consensus = true
			if a.Value != nil {
				v := *a.Value
				p.acceptedValue = &v
			}
			ctx.Sink.Consensus(formatConsensus(p))
		}
	case p.N > a.N:
		// Stale ACCEPTED from an attempt p has already superseded; drop.
	default: // p.N < a.N: p has fallen behind some other proposer.
		if !p.Consensus && !ctx.Retry.HasPendingRequest(p.NodeID()) {
			ctx.Retry.ScheduleRetry(p)
		}
	}
}

func formatConsensus(p *Node) string {
	vp, va := 0, 0
	if p.proposeValue != nil {
		vp = *p.proposeValue
	}
	if p.acceptedValue != nil {
		va = *p.acceptedValue
	}
	return fmt.Sprintf("P%d has reached consensus (proposed %d, accepted %d)", p.ID, vp, va)
}

func buildTraceEvent(tick int, m Message) TraceEvent {
	te := TraceEvent{
		Tick:        tick,
		Destination: m.Destination.NodeID(),
		Kind:        m.Kind,
		N:           m.Destination.N,
	}
	if m.Source != nil {
		te.HasSource = true
		te.Source = m.Source.NodeID()
	}
	switch m.Kind {
	case PROMISE:
		if rec, ok := m.Source.lastOfKind(ACCEPT); ok {
			te.HasPrior = true
			te.PriorN = rec.N
			te.PriorV = rec.Value
		}
	case ACCEPT, ACCEPTED, PROPOSE:
		te.HasValue = true
		te.Value = m.Destination.Value
	}
	return te
}
