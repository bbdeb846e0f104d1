package paxos

// Registry holds the simulator's fixed population of proposers and
// acceptors (spec §3 Lifecycle), adapted from the teacher's
// ProposerManager/AcceptorManager pair (map-of-id-to-struct with
// lookup-by-id) but collapsed into one type since this module has no
// network-facing creation/deletion traffic to dispatch on.
type Registry struct {
	Proposers []*Node
	Acceptors []*Node
}

// NewRegistry builds the fixed-size cluster: proposers P1..Pn,
// acceptors A1..Am (spec §3, §6 construction inputs).
func NewRegistry(numProposers, numAcceptors int) *Registry {
	r := &Registry{
		Proposers: make([]*Node, numProposers),
		Acceptors: make([]*Node, numAcceptors),
	}
	for i := range r.Proposers {
		r.Proposers[i] = NewProposer(i + 1)
	}
	for i := range r.Acceptors {
		r.Acceptors[i] = NewAcceptor(i + 1)
	}
	return r
}

func (r *Registry) Proposer(id int) (*Node, bool) {
	for _, p := range r.Proposers {
		if p.ID == id {
			return p, true
		}
	}
	return nil, false
}

func (r *Registry) Acceptor(id int) (*Node, bool) {
	for _, a := range r.Acceptors {
		if a.ID == id {
			return a, true
		}
	}
	return nil, false
}

func (r *Registry) Lookup(id NodeID) (*Node, bool) {
	switch id.Role {
	case RoleProposer:
		return r.Proposer(id.ID)
	case RoleAcceptor:
		return r.Acceptor(id.ID)
	default:
		return nil, false
	}
}

// SetFailed applies a failure or recovery event (spec §4.4); both
// directions are idempotent by construction, matching the testable
// property in spec §8.
func (r *Registry) SetFailed(id NodeID, failed bool) bool {
	n, ok := r.Lookup(id)
	if !ok {
		return false
	}
	n.Failed = failed
	return true
}

// Counts reports the current live/failed split across every node, fed
// to the metrics collector once per tick.
func (r *Registry) Counts() (live, failed int) {
	for _, n := range r.Proposers {
		if n.Failed {
			failed++
		} else {
			live++
		}
	}
	for _, n := range r.Acceptors {
		if n.Failed {
			failed++
		} else {
			live++
		}
	}
	return live, failed
}
