package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/senutpal/quorum/internal/paxos"
)

func TestMemoryStoragePromisedRoundTrip(t *testing.T) {
	s := NewMemoryStorage()
	require.NoError(t, s.SavePromised(paxos.NewBallot(1, 1)))
	got, err := s.LoadPromised()
	require.NoError(t, err)
	assert.Equal(t, paxos.NewBallot(1, 1), got)
}

func TestMemoryStorageAcceptedRoundTrip(t *testing.T) {
	s := NewMemoryStorage()
	require.NoError(t, s.SaveAccepted(paxos.NewBallot(1, 1), paxos.Operation("v1")))
	b, op, err := s.LoadAccepted()
	require.NoError(t, err)
	assert.Equal(t, paxos.NewBallot(1, 1), b)
	assert.True(t, paxos.Operation("v1").Equal(op))
}

func TestMemoryStorageResetClearsState(t *testing.T) {
	s := NewMemoryStorage()
	require.NoError(t, s.SavePromised(paxos.NewBallot(1, 1)))
	require.NoError(t, s.SaveAccepted(paxos.NewBallot(1, 1), paxos.Operation("v1")))
	require.NoError(t, s.Reset())

	b, err := s.LoadPromised()
	require.NoError(t, err)
	assert.True(t, b.IsZero())

	ab, op, err := s.LoadAccepted()
	require.NoError(t, err)
	assert.True(t, ab.IsZero())
	assert.Nil(t, op)
}
