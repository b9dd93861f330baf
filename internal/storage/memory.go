// =============================================================================
// IN-MEMORY STORAGE - volatile, reference-simulator semantics
// =============================================================================
//
// Matches the reference simulator's loose model (§9): state lives only in
// the process, so a simulated crash (Reset) loses it exactly as the
// original network/failures.py failure injector does.
// =============================================================================

package storage

import (
	"sync"

	"github.com/senutpal/quorum/internal/paxos"
)

// MemoryStorage is the default Storage: fast, volatile, loses all state on
// Reset.
type MemoryStorage struct {
	mu sync.RWMutex

	highestPromised  paxos.Ballot
	acceptedBallot   paxos.Ballot
	acceptedOperation paxos.Operation
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{}
}

func (m *MemoryStorage) SavePromised(b paxos.Ballot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.highestPromised = b
	return nil
}

func (m *MemoryStorage) LoadPromised() (paxos.Ballot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.highestPromised, nil
}

func (m *MemoryStorage) SaveAccepted(b paxos.Ballot, op paxos.Operation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.acceptedBallot = b
	m.acceptedOperation = append(paxos.Operation(nil), op...)
	return nil
}

func (m *MemoryStorage) LoadAccepted() (paxos.Ballot, paxos.Operation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.acceptedBallot, append(paxos.Operation(nil), m.acceptedOperation...), nil
}

func (m *MemoryStorage) Reset() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.highestPromised = 0
	m.acceptedBallot = 0
	m.acceptedOperation = nil
	return nil
}

func (m *MemoryStorage) Close() error {
	return m.Reset()
}
