package paxos

import "fmt"

// Role is one of the two process kinds a Node can play (spec §3 Data
// Model). A simulator instance fixes a Node's role at construction;
// roles never change during a run.
type Role uint8

const (
	RoleProposer Role = iota
	RoleAcceptor
)

func (r Role) String() string {
	switch r {
	case RoleProposer:
		return "P"
	case RoleAcceptor:
		return "A"
	default:
		return "?"
	}
}

// NodeID names a node by role and ordinal (e.g. P1, A2) independent of
// any *Node pointer, for scenario authoring, trace lines, and the
// event queue's pending-request bookkeeping.
type NodeID struct {
	Role Role
	ID   int
}

func (id NodeID) String() string {
	return fmt.Sprintf("%s%d", id.Role, id.ID)
}
