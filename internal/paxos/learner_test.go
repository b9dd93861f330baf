package paxos

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLearnerChoosesOnQuorum(t *testing.T) {
	l := NewLearner("learner_1", 3, testLogger())
	var chosen []Operation
	l.SetOnChosen(func(b Ballot, op Operation) { chosen = append(chosen, op) })

	ballot := NewBallot(1, 1)
	l.HandleLearn(Message{Kind: KindLearn, Ballot: ballot, Sender: "acceptor_1", Receiver: "learner_1", Operation: Operation("v1")})
	assert.Empty(t, chosen, "one of three acceptors is not a majority")

	l.HandleLearn(Message{Kind: KindLearn, Ballot: ballot, Sender: "acceptor_2", Receiver: "learner_1", Operation: Operation("v1")})
	require.Len(t, chosen, 1)
	assert.True(t, Operation("v1").Equal(chosen[0]))
}

func TestLearnerIgnoresDuplicateAcceptorReports(t *testing.T) {
	l := NewLearner("learner_1", 3, testLogger())
	var count int
	l.SetOnChosen(func(b Ballot, op Operation) { count++ })

	ballot := NewBallot(1, 1)
	l.HandleLearn(Message{Kind: KindLearn, Ballot: ballot, Sender: "acceptor_1", Receiver: "learner_1", Operation: Operation("v1")})
	l.HandleLearn(Message{Kind: KindLearn, Ballot: ballot, Sender: "acceptor_1", Receiver: "learner_1", Operation: Operation("v1")})
	l.HandleLearn(Message{Kind: KindLearn, Ballot: ballot, Sender: "acceptor_2", Receiver: "learner_1", Operation: Operation("v1")})

	assert.Equal(t, 1, count, "duplicate report from the same acceptor must not double-count toward quorum")
}

func TestLearnerFiresOnChosenExactlyOncePerKey(t *testing.T) {
	l := NewLearner("learner_1", 3, testLogger())
	var count int
	l.SetOnChosen(func(b Ballot, op Operation) { count++ })

	ballot := NewBallot(1, 1)
	l.HandleLearn(Message{Kind: KindLearn, Ballot: ballot, Sender: "acceptor_1", Receiver: "learner_1", Operation: Operation("v1")})
	l.HandleLearn(Message{Kind: KindLearn, Ballot: ballot, Sender: "acceptor_2", Receiver: "learner_1", Operation: Operation("v1")})
	l.HandleLearn(Message{Kind: KindLearn, Ballot: ballot, Sender: "acceptor_3", Receiver: "learner_1", Operation: Operation("v1")})

	assert.Equal(t, 1, count)
	assert.Equal(t, []Operation{Operation("v1")}, l.GetChosenOperations())
}

func TestLearnerDistinguishesBallotsWithSameOperation(t *testing.T) {
	l := NewLearner("learner_1", 3, testLogger())
	b1, b2 := NewBallot(1, 1), NewBallot(2, 1)

	l.HandleLearn(Message{Kind: KindLearn, Ballot: b1, Sender: "acceptor_1", Receiver: "learner_1", Operation: Operation("v1")})
	l.HandleLearn(Message{Kind: KindLearn, Ballot: b2, Sender: "acceptor_1", Receiver: "learner_1", Operation: Operation("v1")})

	assert.Empty(t, l.GetChosenOperations(), "each ballot's quorum is tracked independently")
}
