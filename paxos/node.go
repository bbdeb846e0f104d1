package paxos

// InitialAcceptorN is the acceptor's highest-promise number before it
// has seen any PREPARE (spec §3 Data Model).
const InitialAcceptorN = 1

// Node is a single process: a Proposer or an Acceptor (spec §3 Data
// Model). Proposers additionally carry the quorum tracker maps and the
// consensus flag; those fields are simply unused on an acceptor Node
// rather than factored into a second type, mirroring the teacher's flat
// Acceptor struct in acceptor.go (one struct, several fields that only
// matter for part of its lifecycle).
type Node struct {
	Role   Role
	ID     int
	Failed bool
	N      int
	Value  *int

	log []LogRecord

	promisedBy map[int]map[int]struct{} // proposer only: n -> set of acceptor ids
	acceptedBy map[int]map[int]struct{} // proposer only: n -> set of acceptor ids
	Consensus  bool

	proposeValue  *int // v_propose, set by the PROPOSE that started the live attempt
	acceptedValue *int // v_accepted, set when the quorum-crossing ACCEPTED arrives
}

func NewProposer(id int) *Node {
	return &Node{
		Role:       RoleProposer,
		ID:         id,
		promisedBy: make(map[int]map[int]struct{}),
		acceptedBy: make(map[int]map[int]struct{}),
	}
}

func NewAcceptor(id int) *Node {
	return &Node{
		Role: RoleAcceptor,
		ID:   id,
		N:    InitialAcceptorN,
	}
}

// NodeID is this node's role/ordinal identity, independent of the live
// pointer (used for Event.Request, trace lines, and pending-retry
// bookkeeping).
func (n *Node) NodeID() NodeID { return NodeID{Role: n.Role, ID: n.ID} }

func (n *Node) String() string { return n.NodeID().String() }

// Log returns a read-only snapshot of the records this node has
// appended so far (spec §3's Log as "ground truth for what this node
// has seen"; retrieval supplemented per SPEC_FULL §12 from
// original_source/main.py's end-of-run log dump).
func (n *Node) Log() []LogRecord {
	out := make([]LogRecord, len(n.log))
	copy(out, n.log)
	return out
}

func (n *Node) append(rec LogRecord) {
	n.log = append(n.log, rec)
}

// lastOfKind returns the most recently appended record of kind k. By
// the acceptor-n monotonicity invariant (spec §3, §8), for PROMISE and
// ACCEPT records this is also the largest-n record of that kind, which
// is exactly what the ACCEPT handler and the PROMISE trace extras need
// (spec §4.4, §6).
func (n *Node) lastOfKind(k Kind) (LogRecord, bool) {
	for i := len(n.log) - 1; i >= 0; i-- {
		if n.log[i].Kind == k {
			return n.log[i], true
		}
	}
	return LogRecord{}, false
}

// StartPropose begins a proposer's attempt at proposal number n with
// value, and records the synthetic PROPOSE log entry the simulator
// loop's direct-delivery step calls for (spec §4.1 step 3c).
func (n *Node) StartPropose(proposalN, value int) {
	n.N = proposalN
	v := value
	n.Value = &v
	vp := value
	n.proposeValue = &vp
	n.append(LogRecord{Destination: n, Kind: PROPOSE, N: proposalN, Value: n.Value})
}

// RecordPromise registers a PROMISE vote from acceptor id at proposal
// number atN and reports whether this call is the one that first
// crosses quorum (spec §4.4 Quorum Tracker). Duplicate votes from the
// same acceptor are absorbed by the set and never re-cross.
func (n *Node) RecordPromise(atN, acceptorID, quorum int) bool {
	return recordVote(n.promisedBy, atN, acceptorID, quorum)
}

// RecordAccepted is RecordPromise's counterpart for the ACCEPTED path.
func (n *Node) RecordAccepted(atN, acceptorID, quorum int) bool {
	return recordVote(n.acceptedBy, atN, acceptorID, quorum)
}

func (n *Node) PromiseCount(atN int) int { return len(n.promisedBy[atN]) }
func (n *Node) AcceptedCount(atN int) int { return len(n.acceptedBy[atN]) }

func recordVote(votes map[int]map[int]struct{}, atN, voterID, quorum int) bool {
	set, ok := votes[atN]
	if !ok {
		set = make(map[int]struct{})
		votes[atN] = set
	}
	before := len(set)
	set[voterID] = struct{}{}
	after := len(set)
	return before < quorum && after >= quorum
}
