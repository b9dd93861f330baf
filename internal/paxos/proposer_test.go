package paxos

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingBroadcaster struct {
	mu   sync.Mutex
	sent []Message
}

func (r *recordingBroadcaster) Send(sender, receiver string, msg Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, msg)
	return nil
}

func (r *recordingBroadcaster) messagesOfKind(k Kind) []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Message
	for _, m := range r.sent {
		if m.Kind == k {
			out = append(out, m)
		}
	}
	return out
}

func TestProposeBroadcastsPrepareToEveryAcceptor(t *testing.T) {
	bc := &recordingBroadcaster{}
	p := NewProposer("proposer_1", 1, []string{"acceptor_1", "acceptor_2", "acceptor_3"}, bc, testLogger())

	ballot := p.Propose(Operation("v1"))
	prepares := bc.messagesOfKind(KindPrepare)
	require.Len(t, prepares, 3)
	for _, m := range prepares {
		assert.Equal(t, ballot, m.Ballot)
	}
}

func TestProposerBroadcastsAcceptOnPromiseQuorum(t *testing.T) {
	bc := &recordingBroadcaster{}
	p := NewProposer("proposer_1", 1, []string{"acceptor_1", "acceptor_2", "acceptor_3"}, bc, testLogger())
	ballot := p.Propose(Operation("v1"))

	p.HandlePromise(Message{Kind: KindPromise, Ballot: ballot, Sender: "acceptor_1", Receiver: "proposer_1"})
	assert.Empty(t, bc.messagesOfKind(KindAccept), "no quorum yet")

	p.HandlePromise(Message{Kind: KindPromise, Ballot: ballot, Sender: "acceptor_2", Receiver: "proposer_1"})
	accepts := bc.messagesOfKind(KindAccept)
	require.Len(t, accepts, 3)
	for _, m := range accepts {
		assert.True(t, Operation("v1").Equal(m.Operation))
	}
}

func TestProposerAdoptsHighestAcceptedValue(t *testing.T) {
	bc := &recordingBroadcaster{}
	p := NewProposer("proposer_1", 1, []string{"acceptor_1", "acceptor_2", "acceptor_3"}, bc, testLogger())
	ballot := p.Propose(Operation("original"))

	p.HandlePromise(Message{
		Kind: KindPromise, Ballot: ballot, Sender: "acceptor_1", Receiver: "proposer_1",
		AcceptedBallot: NewBallot(1, 1) - 1, AcceptedOperation: Operation("prior"),
	})
	p.HandlePromise(Message{Kind: KindPromise, Ballot: ballot, Sender: "acceptor_2", Receiver: "proposer_1"})

	accepts := bc.messagesOfKind(KindAccept)
	require.NotEmpty(t, accepts)
	for _, m := range accepts {
		assert.True(t, Operation("prior").Equal(m.Operation))
	}
}

func TestProposerIgnoresDuplicateResponses(t *testing.T) {
	bc := &recordingBroadcaster{}
	p := NewProposer("proposer_1", 1, []string{"acceptor_1", "acceptor_2", "acceptor_3"}, bc, testLogger())
	ballot := p.Propose(Operation("v1"))

	p.HandlePromise(Message{Kind: KindPromise, Ballot: ballot, Sender: "acceptor_1", Receiver: "proposer_1"})
	p.HandlePromise(Message{Kind: KindPromise, Ballot: ballot, Sender: "acceptor_1", Receiver: "proposer_1"})
	assert.Empty(t, bc.messagesOfKind(KindAccept), "a duplicate promise must not count twice toward quorum")
}

func TestProposerAbandonsOnNackQuorum(t *testing.T) {
	bc := &recordingBroadcaster{}
	p := NewProposer("proposer_1", 1, []string{"acceptor_1", "acceptor_2", "acceptor_3"}, bc, testLogger())
	ballot := p.Propose(Operation("v1"))

	p.HandleNack(Message{Kind: KindNack, Ballot: ballot, Sender: "acceptor_1", Receiver: "proposer_1"})
	assert.True(t, p.Active(ballot))
	p.HandleNack(Message{Kind: KindNack, Ballot: ballot, Sender: "acceptor_2", Receiver: "proposer_1"})
	assert.False(t, p.Active(ballot))
}

func TestStaleBallotsSwept(t *testing.T) {
	bc := &recordingBroadcaster{}
	p := NewProposer("proposer_1", 1, []string{"acceptor_1"}, bc, testLogger())
	ballot := p.Propose(Operation("v1"))

	assert.Empty(t, p.StaleBallots(time.Hour))
	assert.ElementsMatch(t, []Ballot{ballot}, p.StaleBallots(0))

	p.Forget(ballot)
	assert.False(t, p.Active(ballot))
}
