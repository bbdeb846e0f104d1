// Package network is the simulator's single message transport: a
// liveness-aware FIFO queue (spec §4.3), adapted from the teacher's
// network/protocols.go connection-framing layer down to the one thing
// this module actually needs — in-order delivery that skips, without
// reordering, anything blocked by a failed endpoint.
package network

import "goshawkdb.io/paxossim/paxos"

// Queue is the simulator's NetworkQueue (spec §4.3). Extract scans
// head-to-tail and returns the first eligible message; every message
// it skips over stays exactly where it was.
type Queue struct {
	messages []paxos.Message
}

// Enqueue appends m to the tail (spec §4.3 QueueMessage).
func (q *Queue) Enqueue(m paxos.Message) {
	q.messages = append(q.messages, m)
}

// Extract removes and returns the first eligible message, if any
// (spec §4.3 ExtractMessage). A PROPOSE is always eligible; any other
// message is eligible only when both its source and destination are
// currently live.
func (q *Queue) Extract() (paxos.Message, bool) {
	for i, m := range q.messages {
		if eligible(m) {
			q.messages = append(q.messages[:i:i], q.messages[i+1:]...)
			return m, true
		}
	}
	return paxos.Message{}, false
}

func eligible(m paxos.Message) bool {
	if m.Kind == paxos.PROPOSE {
		return true
	}
	if m.Source != nil && m.Source.Failed {
		return false
	}
	if m.Destination != nil && m.Destination.Failed {
		return false
	}
	return true
}

func (q *Queue) Len() int   { return len(q.messages) }
func (q *Queue) Empty() bool { return len(q.messages) == 0 }
