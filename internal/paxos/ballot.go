// Package paxos implements the single-decree Paxos message model and the
// three role state machines (acceptor, proposer, learner) that sit on top
// of it.
package paxos

import "fmt"

// BallotBand is the width reserved for each proposer's counter range. It
// must be large enough that no proposer exhausts its band in one run.
const BallotBand int64 = 1_000_000

// Ballot is the totally ordered, proposer-unique identifier for one Paxos
// round (also called a proposal number or timestamp). It is composed as
// proposerOrdinal*BallotBand + counter, so ballots minted by distinct
// proposers never collide and a single proposer's ballots are strictly
// increasing. The zero Ballot means "no ballot" — an acceptor that has
// never promised, or a promise that carries no prior accept.
type Ballot int64

// NewBallot builds the ballot a proposer with the given ordinal produces
// for the given counter value. counter must start at 1; counter 0 would
// collide with the zero Ballot used to mean "absent".
func NewBallot(ordinal, counter int64) Ballot {
	return Ballot(ordinal*BallotBand + counter)
}

// IsZero reports whether b is the "no ballot" sentinel.
func (b Ballot) IsZero() bool { return b == 0 }

// Ordinal recovers the proposer ordinal that minted b.
func (b Ballot) Ordinal() int64 { return int64(b) / BallotBand }

func (b Ballot) String() string {
	if b.IsZero() {
		return "none"
	}
	return fmt.Sprintf("%d", int64(b))
}
