// Package config loads and generates the node roster: the ip/port for
// every proposer, acceptor and learner in a deployment, matching
// _examples/original_source/utils/config_loader.py's JSON shape field for
// field so an existing roster file written by the reference simulator
// loads unchanged (§6's roster/config external interface).
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// NodeAddr is one roster entry's network address.
type NodeAddr struct {
	IP   string `json:"ip"`
	Port int    `json:"port"`
}

// Roster is the full node-id -> address map for all three roles.
type Roster struct {
	Proposers map[string]NodeAddr `json:"proposers"`
	Acceptors map[string]NodeAddr `json:"acceptors"`
	Learners  map[string]NodeAddr `json:"learners"`
}

// Load reads and validates a roster file.
func Load(path string) (*Roster, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	var r Roster
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if err := r.Validate(); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	return &r, nil
}

// Validate checks that all three role maps are present and every entry
// carries a non-empty ip and a positive port.
func (r *Roster) Validate() error {
	if r.Proposers == nil || r.Acceptors == nil || r.Learners == nil {
		return fmt.Errorf("roster must declare proposers, acceptors and learners")
	}
	for role, nodes := range r.byRole() {
		for id, addr := range nodes {
			if addr.IP == "" || addr.Port <= 0 {
				return fmt.Errorf("%s %q: invalid address %+v", role, id, addr)
			}
		}
	}
	return nil
}

func (r *Roster) byRole() map[string]map[string]NodeAddr {
	return map[string]map[string]NodeAddr{
		"proposer": r.Proposers,
		"acceptor": r.Acceptors,
		"learner":  r.Learners,
	}
}

// Default builds the reference deployment's default roster: n proposers on
// 127.0.0.1 starting at port 8000, n acceptors starting at 9000, n learners
// starting at 10000, matching generate_default_config's layout.
func Default(numProposers, numAcceptors, numLearners int) *Roster {
	r := &Roster{
		Proposers: make(map[string]NodeAddr, numProposers),
		Acceptors: make(map[string]NodeAddr, numAcceptors),
		Learners:  make(map[string]NodeAddr, numLearners),
	}
	for i := 0; i < numProposers; i++ {
		r.Proposers[fmt.Sprintf("proposer_%d", i+1)] = NodeAddr{IP: "127.0.0.1", Port: 8000 + i}
	}
	for i := 0; i < numAcceptors; i++ {
		r.Acceptors[fmt.Sprintf("acceptor_%d", i+1)] = NodeAddr{IP: "127.0.0.1", Port: 9000 + i}
	}
	for i := 0; i < numLearners; i++ {
		r.Learners[fmt.Sprintf("learner_%d", i+1)] = NodeAddr{IP: "127.0.0.1", Port: 10000 + i}
	}
	return r
}

// Save writes the roster to path as indented JSON.
func (r *Roster) Save(path string) error {
	data, err := json.MarshalIndent(r, "", "    ")
	if err != nil {
		return fmt.Errorf("config: marshal roster: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("config: write %s: %w", path, err)
	}
	return nil
}

// ProposerIDs returns every proposer id in the roster, unordered.
func (r *Roster) ProposerIDs() []string { return ids(r.Proposers) }

// AcceptorIDs returns every acceptor id in the roster, unordered.
func (r *Roster) AcceptorIDs() []string { return ids(r.Acceptors) }

// LearnerIDs returns every learner id in the roster, unordered.
func (r *Roster) LearnerIDs() []string { return ids(r.Learners) }

func ids(m map[string]NodeAddr) []string {
	out := make([]string, 0, len(m))
	for id := range m {
		out = append(out, id)
	}
	return out
}

// Addresses flattens all three role maps into one id -> address map, the
// shape internal/transport/udpnet needs to resolve any receiver id.
func (r *Roster) Addresses() map[string]NodeAddr {
	out := make(map[string]NodeAddr, len(r.Proposers)+len(r.Acceptors)+len(r.Learners))
	for id, a := range r.Proposers {
		out[id] = a
	}
	for id, a := range r.Acceptors {
		out[id] = a
	}
	for id, a := range r.Learners {
		out[id] = a
	}
	return out
}

// Ordinal recovers the numeric suffix of a generated node id (e.g.
// "proposer_3" -> 3), the value fed to paxos.NewBallot so two proposers
// never mint colliding ballots. Hand-authored ids that don't follow the
// "<role>_<n>" convention can't derive an ordinal this way; callers of a
// roster built from a hand-edited file should assign ordinals explicitly
// instead of relying on this helper.
func Ordinal(nodeID string) (int64, error) {
	idx := strings.LastIndex(nodeID, "_")
	if idx < 0 || idx == len(nodeID)-1 {
		return 0, fmt.Errorf("config: node id %q has no numeric ordinal suffix", nodeID)
	}
	n, err := strconv.ParseInt(nodeID[idx+1:], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("config: node id %q has no numeric ordinal suffix: %w", nodeID, err)
	}
	return n, nil
}
