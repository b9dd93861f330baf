// =============================================================================
// ACCEPTOR - the safety guardian of Paxos
// =============================================================================
//
// Two rules, enforced under a single mutex per acceptor:
//
//   PROMISE RULE: once a ballot N is promised, reject any PREPARE or ACCEPT
//   carrying a lower ballot.
//
//   ACCEPT RULE: accept a value only if the request's ballot is at least as
//   high as the current promise; remember both the ballot and the value.
//
// The comparisons are intentionally asymmetric: PREPARE uses a strict `>`
// (a PREPARE at the already-promised ballot adds nothing new), ACCEPT uses
// `>=` (an ACCEPT at exactly the promised ballot is the one the acceptor
// just authorized).
// =============================================================================

package paxos

import (
	"sync"

	"github.com/sirupsen/logrus"
)

// Storage is the subset of storage.Storage the acceptor needs; declared
// here (rather than importing the storage package) to keep paxos free of a
// dependency on its own caller's persistence choice.
type Storage interface {
	SavePromised(Ballot) error
	LoadPromised() (Ballot, error)
	SaveAccepted(Ballot, Operation) error
	LoadAccepted() (Ballot, Operation, error)
}

// Acceptor is the Promise/Accept state machine (Idle -> Promised ->
// Accepted, never reverting) described in §4.3.
type Acceptor struct {
	id         string
	learnerIDs []string
	storage    Storage
	log        *logrus.Entry

	mu sync.Mutex
}

func NewAcceptor(id string, learnerIDs []string, s Storage, log *logrus.Entry) *Acceptor {
	return &Acceptor{id: id, learnerIDs: learnerIDs, storage: s, log: log}
}

// HandlePrepare implements §4.3's PREPARE rule and returns the PROMISE or
// NACK to send back to the sender.
func (a *Acceptor) HandlePrepare(m Message) Message {
	a.mu.Lock()
	defer a.mu.Unlock()

	promised, err := a.storage.LoadPromised()
	if err != nil {
		a.log.WithError(err).Error("load promised ballot")
		return a.nack(m)
	}

	if m.Ballot <= promised {
		return a.nack(m)
	}

	if err := a.storage.SavePromised(m.Ballot); err != nil {
		a.log.WithError(err).Error("persist promised ballot")
		return a.nack(m)
	}

	acceptedBallot, acceptedOp, err := a.storage.LoadAccepted()
	if err != nil {
		a.log.WithError(err).Error("load accepted state")
		acceptedBallot, acceptedOp = 0, nil
	}

	return Message{
		Kind:              KindPromise,
		Ballot:            m.Ballot,
		Sender:            a.id,
		Receiver:          m.Sender,
		AcceptedBallot:    acceptedBallot,
		AcceptedOperation: acceptedOp,
	}
}

// HandleAccept implements §4.3's ACCEPT rule. On success it returns no
// direct reply (nil) and a LEARN message for every learner in the roster;
// on failure it returns a NACK and no learns.
func (a *Acceptor) HandleAccept(m Message) (reply *Message, learns []Message) {
	a.mu.Lock()
	defer a.mu.Unlock()

	promised, err := a.storage.LoadPromised()
	if err != nil {
		a.log.WithError(err).Error("load promised ballot")
		nack := a.nack(m)
		return &nack, nil
	}

	if m.Ballot < promised {
		nack := a.nack(m)
		return &nack, nil
	}

	if err := a.storage.SavePromised(m.Ballot); err != nil {
		a.log.WithError(err).Error("persist promised ballot on accept")
		nack := a.nack(m)
		return &nack, nil
	}
	if err := a.storage.SaveAccepted(m.Ballot, m.Operation); err != nil {
		a.log.WithError(err).Error("persist accepted state")
		nack := a.nack(m)
		return &nack, nil
	}

	learns = make([]Message, 0, len(a.learnerIDs))
	for _, learnerID := range a.learnerIDs {
		learns = append(learns, Message{
			Kind:      KindLearn,
			Ballot:    m.Ballot,
			Sender:    a.id,
			Receiver:  learnerID,
			Operation: m.Operation,
		})
	}
	return nil, learns
}

func (a *Acceptor) nack(m Message) Message {
	return Message{
		Kind:     KindNack,
		Ballot:   m.Ballot,
		Sender:   a.id,
		Receiver: m.Sender,
	}
}

// State returns a snapshot of this acceptor's durable fields, for tests and
// debugging.
func (a *Acceptor) State() (highestPromised, acceptedBallot Ballot, acceptedOperation Operation) {
	a.mu.Lock()
	defer a.mu.Unlock()
	highestPromised, _ = a.storage.LoadPromised()
	acceptedBallot, acceptedOperation, _ = a.storage.LoadAccepted()
	return
}
