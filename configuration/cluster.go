// Package configuration validates and derives the shape of a simulated
// cluster, the way the teacher's configuration.Topology turns a raw
// acceptor count into FInc/TwoFInc before anything else is allowed to
// run.
package configuration

import "fmt"

// ClusterConfig is the simulator's construction input (spec §6 External
// Interfaces "Construction inputs").
type ClusterConfig struct {
	NumProposers int
	NumAcceptors int
	MaxDuration  int
	Seed         int64
	HaveSeed     bool
}

// Quorum is floor(NumAcceptors/2)+1 (spec GLOSSARY).
func (c ClusterConfig) Quorum() int {
	return c.NumAcceptors/2 + 1
}

// Tolerance returns f such that NumAcceptors == 2f+1.
func (c ClusterConfig) Tolerance() int {
	return (c.NumAcceptors - 1) / 2
}

// Validate rejects malformed cluster shapes at construction time,
// fail-fast, the way the teacher's newServer validates port numbers
// before a server value is ever returned.
func (c ClusterConfig) Validate() error {
	if c.NumProposers < 1 {
		return fmt.Errorf("configuration: need at least one proposer, got %d", c.NumProposers)
	}
	if c.NumAcceptors < 1 {
		return fmt.Errorf("configuration: need at least one acceptor, got %d", c.NumAcceptors)
	}
	if c.NumAcceptors%2 == 0 {
		return fmt.Errorf("configuration: NumAcceptors must be 2f+1 for some tolerance f, got %d (even)", c.NumAcceptors)
	}
	if c.MaxDuration < 1 {
		return fmt.Errorf("configuration: MaxDuration must be positive, got %d", c.MaxDuration)
	}
	return nil
}

func (c ClusterConfig) String() string {
	return fmt.Sprintf("ClusterConfig{Proposers: %d, Acceptors: %d, F: %d, Quorum: %d, MaxDuration: %d}",
		c.NumProposers, c.NumAcceptors, c.Tolerance(), c.Quorum(), c.MaxDuration)
}
