package paxos

import (
	"testing"

	"pgregory.net/rapid"
)

// TestPropertyMessageRoundTrip is the §8 round-trip/idempotence check:
// encoding then decoding any well-formed message must reproduce it exactly.
func TestPropertyMessageRoundTrip(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		kind := rapid.SampledFrom([]Kind{KindPrepare, KindPromise, KindAccept, KindLearn, KindNack}).Draw(rt, "kind")
		ballot := NewBallot(rapid.Int64Range(1, 20).Draw(rt, "ordinal"), rapid.Int64Range(1, 1000).Draw(rt, "counter"))
		sender := rapid.SampledFrom([]string{"node_1", "node_2", "node_3"}).Draw(rt, "sender")
		receiver := rapid.SampledFrom([]string{"node_4", "node_5", "node_6"}).Draw(rt, "receiver")

		m := Message{Kind: kind, Ballot: ballot, Sender: sender, Receiver: receiver}
		if kind == KindAccept || kind == KindLearn {
			m.Operation = Operation(rapid.StringN(0, 32, -1).Draw(rt, "operation"))
		}

		data, err := Encode(m)
		if err != nil {
			rt.Fatalf("encode: %v", err)
		}
		got, err := Decode(data)
		if err != nil {
			rt.Fatalf("decode: %v", err)
		}
		if got.Kind != m.Kind || got.Ballot != m.Ballot || got.Sender != m.Sender || got.Receiver != m.Receiver {
			rt.Fatalf("round trip mismatch: got %+v, want %+v", got, m)
		}
		if !got.Operation.Equal(m.Operation) {
			rt.Fatalf("operation mismatch after round trip: got %q, want %q", got.Operation, m.Operation)
		}
	})
}

// TestPropertyPromiseMonotonicity is the §8 invariant: once an acceptor has
// promised ballot N, it must never promise any ballot <= N again, for any
// sequence of PREPARE arrivals.
func TestPropertyPromiseMonotonicity(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		ballots := rapid.SliceOfN(rapid.Int64Range(1, 50), 1, 30).Draw(rt, "ballots")
		a := NewAcceptor("acceptor_1", nil, &fakeStorage{}, testLogger())

		var highestPromised Ballot
		for _, raw := range ballots {
			b := Ballot(raw)
			reply := a.HandlePrepare(Message{Kind: KindPrepare, Ballot: b, Sender: "proposer_1", Receiver: "acceptor_1"})
			if reply.Kind == KindPromise {
				if b <= highestPromised && highestPromised != 0 {
					rt.Fatalf("promised %v after already promising higher/equal %v", b, highestPromised)
				}
				highestPromised = b
			} else if b > highestPromised {
				rt.Fatalf("rejected %v even though it exceeds highest promised %v", b, highestPromised)
			}
		}
	})
}

// TestPropertyAcceptSafety is the §8 accept-safety invariant: an acceptor
// never accepts at a ballot below the highest one it has promised.
func TestPropertyAcceptSafety(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		promiseBallot := rapid.Int64Range(10, 20).Draw(rt, "promise")
		acceptBallot := rapid.Int64Range(1, 30).Draw(rt, "accept")

		a := NewAcceptor("acceptor_1", []string{"learner_1"}, &fakeStorage{}, testLogger())
		a.HandlePrepare(Message{Kind: KindPrepare, Ballot: Ballot(promiseBallot), Sender: "proposer_1", Receiver: "acceptor_1"})

		reply, learns := a.HandleAccept(Message{
			Kind: KindAccept, Ballot: Ballot(acceptBallot), Sender: "proposer_1", Receiver: "acceptor_1",
			Operation: Operation("v"),
		})

		if acceptBallot < promiseBallot {
			if reply == nil || reply.Kind != KindNack {
				rt.Fatalf("accept at %d should be rejected: promised ballot is %d", acceptBallot, promiseBallot)
			}
			if learns != nil {
				rt.Fatalf("a rejected accept must not notify any learner")
			}
		} else {
			if reply != nil {
				rt.Fatalf("accept at %d should succeed: promised ballot is %d", acceptBallot, promiseBallot)
			}
			if len(learns) != 1 {
				rt.Fatalf("a successful accept must notify every learner exactly once")
			}
		}
	})
}
