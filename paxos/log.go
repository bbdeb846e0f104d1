package paxos

// LogRecord is an append-only entry in a Node's Log (spec §3 "Log
// record"). Records are never mutated after append; Source mirrors the
// originating Message's source and may be nil for a client PROPOSE.
type LogRecord struct {
	Source      *Node
	Destination *Node
	Kind        Kind
	N           int
	Value       *int
}
