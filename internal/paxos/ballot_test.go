package paxos

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBallotOrdering(t *testing.T) {
	a := NewBallot(1, 1)
	b := NewBallot(1, 2)
	assert.Less(t, int64(a), int64(b))
}

func TestBallotDistinctProposersNeverCollide(t *testing.T) {
	seen := make(map[Ballot]bool)
	for ordinal := int64(1); ordinal <= 5; ordinal++ {
		for counter := int64(1); counter <= 5; counter++ {
			b := NewBallot(ordinal, counter)
			assert.False(t, seen[b], "ballot %v collided", b)
			seen[b] = true
		}
	}
}

func TestBallotOrdinal(t *testing.T) {
	b := NewBallot(7, 42)
	assert.Equal(t, int64(7), b.Ordinal())
}

func TestBallotIsZero(t *testing.T) {
	var zero Ballot
	assert.True(t, zero.IsZero())
	assert.False(t, NewBallot(1, 1).IsZero())
}
