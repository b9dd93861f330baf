package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/senutpal/quorum/internal/paxos"
)

// fileState is the on-disk record: both of an acceptor's durable fields,
// written atomically on every Save call so a crash between writes can never
// observe a torn state.
type fileState struct {
	HighestPromised   paxos.Ballot    `json:"highest_promised"`
	AcceptedBallot    paxos.Ballot    `json:"accepted_ballot"`
	AcceptedOperation paxos.Operation `json:"accepted_operation,omitempty"`
}

// FileStorage persists acceptor state to a JSON file, surviving process
// restarts — the durable path §9 calls for in a real deployment, as opposed
// to MemoryStorage's simulator-faithful volatility.
type FileStorage struct {
	mu   sync.Mutex
	path string
	state fileState
}

// NewFileStorage opens (or creates) the state file at path and loads any
// existing state into memory.
func NewFileStorage(path string) (*FileStorage, error) {
	fs := &FileStorage{path: path}
	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		// No prior state; start empty and let the first Save create it.
	case err != nil:
		return nil, fmt.Errorf("open storage file %s: %w", path, err)
	default:
		if err := json.Unmarshal(data, &fs.state); err != nil {
			return nil, fmt.Errorf("parse storage file %s: %w", path, err)
		}
	}
	return fs, nil
}

func (f *FileStorage) persist() error {
	data, err := json.Marshal(f.state)
	if err != nil {
		return fmt.Errorf("marshal storage state: %w", err)
	}
	dir := filepath.Dir(f.path)
	tmp, err := os.CreateTemp(dir, ".storage-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp storage file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp storage file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp storage file: %w", err)
	}
	// Rename is atomic on the same filesystem, so a reader never observes a
	// half-written file — the write-ahead discipline §9 calls for.
	if err := os.Rename(tmpName, f.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename temp storage file: %w", err)
	}
	return nil
}

func (f *FileStorage) SavePromised(b paxos.Ballot) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.state.HighestPromised = b
	return f.persist()
}

func (f *FileStorage) LoadPromised() (paxos.Ballot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state.HighestPromised, nil
}

func (f *FileStorage) SaveAccepted(b paxos.Ballot, op paxos.Operation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.state.AcceptedBallot = b
	f.state.AcceptedOperation = append(paxos.Operation(nil), op...)
	return f.persist()
}

func (f *FileStorage) LoadAccepted() (paxos.Ballot, paxos.Operation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state.AcceptedBallot, append(paxos.Operation(nil), f.state.AcceptedOperation...), nil
}

func (f *FileStorage) Reset() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.state = fileState{}
	return f.persist()
}

func (f *FileStorage) Close() error {
	return nil
}
