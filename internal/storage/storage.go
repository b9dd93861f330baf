// =============================================================================
// STORAGE - Abstraction for Acceptor State
// =============================================================================
//
// Persists the two things an acceptor must not forget: the highest ballot
// it has promised, and the (ballot, operation) pair it most recently
// accepted.
//
// §9 flags that real Paxos requires this state to survive a crash, and that
// this simulation's default (volatile, in-memory) is looser than that for
// fidelity to the reference implementation. MemoryStorage keeps that loose
// model; FileStorage is the "real deployment" path the spec invites —
// callers that want crash durability construct a FileStorage instead.
// =============================================================================

package storage

import "github.com/senutpal/quorum/internal/paxos"

// Storage is the persistence boundary an Acceptor writes through before
// replying to a PREPARE or ACCEPT.
type Storage interface {
	SavePromised(ballot paxos.Ballot) error
	LoadPromised() (paxos.Ballot, error)

	SaveAccepted(ballot paxos.Ballot, operation paxos.Operation) error
	LoadAccepted() (paxos.Ballot, paxos.Operation, error)

	// Reset clears all state, simulating the volatile-state loss of a
	// crash (§9).
	Reset() error

	Close() error
}
