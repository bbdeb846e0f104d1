package paxos

// Kind is the message/log-record tag of spec §3.
type Kind uint8

const (
	PROPOSE Kind = iota
	PREPARE
	PROMISE
	ACCEPT
	ACCEPTED
	REJECTED
)

func (k Kind) String() string {
	switch k {
	case PROPOSE:
		return "PROPOSE"
	case PREPARE:
		return "PREPARE"
	case PROMISE:
		return "PROMISE"
	case ACCEPT:
		return "ACCEPT"
	case ACCEPTED:
		return "ACCEPTED"
	case REJECTED:
		return "REJECTED"
	default:
		return "UNKNOWN"
	}
}

// Message is the (source, destination, kind) tuple of spec §3. It
// carries no payload of its own: a handler reads n and value off the
// source node's live state at delivery time, never off a value
// snapshotted when the message was enqueued (the late-binding rule).
type Message struct {
	Source      *Node // nil only for a client-originated PROPOSE
	Destination *Node
	Kind        Kind
}
