package paxos

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	msgs := []Message{
		{Kind: KindPrepare, Ballot: NewBallot(1, 1), Sender: "proposer_1", Receiver: "acceptor_1"},
		{Kind: KindPromise, Ballot: NewBallot(1, 1), Sender: "acceptor_1", Receiver: "proposer_1"},
		{
			Kind: KindPromise, Ballot: NewBallot(2, 1), Sender: "acceptor_1", Receiver: "proposer_1",
			AcceptedBallot: NewBallot(1, 1), AcceptedOperation: Operation("hello"),
		},
		{Kind: KindAccept, Ballot: NewBallot(1, 1), Sender: "proposer_1", Receiver: "acceptor_1", Operation: Operation("hello")},
		{Kind: KindLearn, Ballot: NewBallot(1, 1), Sender: "acceptor_1", Receiver: "learner_1", Operation: Operation("hello")},
		{Kind: KindNack, Ballot: NewBallot(1, 1), Sender: "acceptor_1", Receiver: "proposer_1"},
	}

	for _, m := range msgs {
		data, err := Encode(m)
		require.NoError(t, err)

		got, err := Decode(data)
		require.NoError(t, err)
		assert.Equal(t, m.Kind, got.Kind)
		assert.Equal(t, m.Ballot, got.Ballot)
		assert.Equal(t, m.Sender, got.Sender)
		assert.Equal(t, m.Receiver, got.Receiver)
		assert.True(t, m.Operation.Equal(got.Operation))
		assert.Equal(t, m.AcceptedBallot, got.AcceptedBallot)
		assert.True(t, m.AcceptedOperation.Equal(got.AcceptedOperation))
	}
}

func TestDecodeRejectsUnknownKind(t *testing.T) {
	_, err := Decode([]byte(`{"msg_type":"BOGUS","sender_id":"a","receiver_id":"b"}`))
	require.ErrorIs(t, err, ErrUnknownKind)
}

func TestDecodeRejectsMissingSender(t *testing.T) {
	_, err := Decode([]byte(`{"msg_type":"PREPARE","receiver_id":"b"}`))
	require.ErrorIs(t, err, ErrMalformedMessage)
}

func TestDecodeRejectsAcceptWithoutOperation(t *testing.T) {
	_, err := Decode([]byte(`{"msg_type":"ACCEPT","sender_id":"a","receiver_id":"b","timestamp":1}`))
	require.ErrorIs(t, err, ErrMalformedMessage)
}

func TestOperationEqual(t *testing.T) {
	assert.True(t, Operation("x").Equal(Operation("x")))
	assert.False(t, Operation("x").Equal(Operation("y")))
	assert.False(t, Operation("x").Equal(Operation("xx")))
}
