// =============================================================================
// LEARNER - aggregates LEARN messages into a chosen-operation sequence
// =============================================================================
//
// Groups LEARN notifications by (ballot, operation), not by acceptor alone:
// two acceptors that accepted different values at different ballots never
// count toward the same quorum. Once a (ballot, operation) key crosses a
// strict majority of distinct acceptors, the operation is chosen — appended
// to the ordered sequence and handed to the on-chosen callback exactly
// once. Because the key includes the ballot, the same operation can
// legitimately appear twice in the sequence if two different ballots both
// reach quorum with it (Paxos safety guarantees they'd have to agree on the
// value, just not that the learner dedupes the bookkeeping) — see §4.5.
// =============================================================================

package paxos

import (
	"sync"

	"github.com/sirupsen/logrus"
)

type learnKey struct {
	ballot    Ballot
	operation string
}

// Learner is the quorum aggregator described in §4.5.
type Learner struct {
	id            string
	acceptorCount int
	log           *logrus.Entry

	mu         sync.Mutex
	acceptedBy map[learnKey]map[string]bool
	chosenKeys map[learnKey]bool
	sequence   []Operation
	onChosen   func(Ballot, Operation)
}

func NewLearner(id string, acceptorCount int, log *logrus.Entry) *Learner {
	return &Learner{
		id:            id,
		acceptorCount: acceptorCount,
		log:           log,
		acceptedBy:    make(map[learnKey]map[string]bool),
		chosenKeys:    make(map[learnKey]bool),
	}
}

// HandleLearn processes an inbound LEARN and declares the operation chosen
// once a strict majority of distinct acceptors have reported it at the same
// ballot.
func (l *Learner) HandleLearn(m Message) {
	l.mu.Lock()
	var callback func(Ballot, Operation)
	var chosenOp Operation

	key := learnKey{ballot: m.Ballot, operation: string(m.Operation)}
	acceptors, ok := l.acceptedBy[key]
	if !ok {
		acceptors = make(map[string]bool)
		l.acceptedBy[key] = acceptors
	}
	if acceptors[m.Sender] {
		l.mu.Unlock()
		l.log.WithFields(logrus.Fields{"ballot": m.Ballot, "from": m.Sender}).Warn(ErrDuplicateResponse.Error())
		return
	}
	acceptors[m.Sender] = true

	if len(acceptors) > l.acceptorCount/2 && !l.chosenKeys[key] {
		l.chosenKeys[key] = true
		l.sequence = append(l.sequence, m.Operation)
		callback = l.onChosen
		chosenOp = m.Operation
	}
	l.mu.Unlock()

	if callback != nil {
		l.log.WithFields(logrus.Fields{"ballot": m.Ballot, "op": chosenOp.String()}).Info("operation chosen")
		callback(m.Ballot, chosenOp)
	}
}

// SetOnChosen installs the single-slot callback invoked once per newly
// chosen operation (§4.5, §6).
func (l *Learner) SetOnChosen(cb func(Ballot, Operation)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.onChosen = cb
}

// GetChosenOperations returns a snapshot copy of the ordered chosen
// sequence.
func (l *Learner) GetChosenOperations() []Operation {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Operation, len(l.sequence))
	copy(out, l.sequence)
	return out
}
