// Package scenario turns a YAML scenario file into []*paxos.Event. It
// is the external "scenario authoring" collaborator spec.md §1 keeps
// out of the core: the simulator never sees a file path or a YAML tag,
// only already-constructed events.
package scenario

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"goshawkdb.io/paxossim/paxos"
)

type rawEvent struct {
	Tick          *int     `yaml:"tick"`
	Failures      []string `yaml:"failures"`
	Recoveries    []string `yaml:"recoveries"`
	Request       string   `yaml:"request"`
	ProposedValue *int     `yaml:"proposedValue"`
}

type rawScenario struct {
	Events []rawEvent `yaml:"events"`
}

// Load reads and parses a scenario file (spec §6 "Event schema").
func Load(path string) ([]*paxos.Event, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("scenario: %w", err)
	}
	var raw rawScenario
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("scenario: %w", err)
	}

	events := make([]*paxos.Event, 0, len(raw.Events))
	for i, re := range raw.Events {
		e := &paxos.Event{Tick: re.Tick, ProposedValue: re.ProposedValue}

		for _, f := range re.Failures {
			id, err := parseNodeID(f)
			if err != nil {
				return nil, fmt.Errorf("scenario: event %d: %w", i, err)
			}
			e.Failures = append(e.Failures, id)
		}
		for _, rv := range re.Recoveries {
			id, err := parseNodeID(rv)
			if err != nil {
				return nil, fmt.Errorf("scenario: event %d: %w", i, err)
			}
			e.Recoveries = append(e.Recoveries, id)
		}
		if re.Request != "" {
			id, err := parseNodeID(re.Request)
			if err != nil {
				return nil, fmt.Errorf("scenario: event %d: %w", i, err)
			}
			if id.Role != paxos.RoleProposer {
				return nil, fmt.Errorf("scenario: event %d: request %q must name a proposer", i, re.Request)
			}
			e.Request = &id
		}
		events = append(events, e)
	}
	return events, nil
}

func parseNodeID(s string) (paxos.NodeID, error) {
	if len(s) < 2 {
		return paxos.NodeID{}, fmt.Errorf("invalid node id %q", s)
	}
	var role paxos.Role
	switch s[0] {
	case 'P', 'p':
		role = paxos.RoleProposer
	case 'A', 'a':
		role = paxos.RoleAcceptor
	default:
		return paxos.NodeID{}, fmt.Errorf("invalid node id %q", s)
	}
	n, err := strconv.Atoi(s[1:])
	if err != nil || n < 1 {
		return paxos.NodeID{}, fmt.Errorf("invalid node id %q", s)
	}
	return paxos.NodeID{Role: role, ID: n}, nil
}
