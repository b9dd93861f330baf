// =============================================================================
// PROPOSER - drives Phase 1 -> Phase 2 and tallies the responses
// =============================================================================
//
// propose() mints a ballot, registers a proposal record, and broadcasts
// PREPARE — then returns immediately. All further progress happens off of
// inbound PROMISE/NACK messages (HandlePromise/HandleNack), which is why the
// combined (phase, promises, nacks, responded, highest-accepted) fields of
// one proposal record must be read and written under a single lock: the
// phase-transition decision (crossing the quorum threshold) has to happen
// under the same critical section that updates the counts, or two promises
// arriving concurrently could both observe "not yet quorum" and never
// broadcast ACCEPT, or both observe "just reached quorum" and broadcast it
// twice.
// =============================================================================

package paxos

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Broadcaster is the subset of the transport contract the proposer needs:
// fire-and-forget sends to a fixed set of acceptors.
type Broadcaster interface {
	Send(sender, receiver string, msg Message) error
}

type proposalRecord struct {
	originalOperation Operation
	phase             int // 1 or 2
	promises          int
	nacks             int
	responded         map[string]bool
	acceptorCount     int
	createdAt         time.Time

	highestAcceptedBallot    Ballot
	highestAcceptedOperation Operation
}

// Proposer is the Phase 1 / Phase 2 tally described in §4.4.
type Proposer struct {
	id          string
	ordinal     int64
	acceptorIDs []string
	transport   Broadcaster
	log         *logrus.Entry

	mu        sync.Mutex
	counter   int64
	proposals map[Ballot]*proposalRecord
}

func NewProposer(id string, ordinal int64, acceptorIDs []string, t Broadcaster, log *logrus.Entry) *Proposer {
	return &Proposer{
		id:          id,
		ordinal:     ordinal,
		acceptorIDs: append([]string(nil), acceptorIDs...),
		transport:   t,
		log:         log,
		proposals:   make(map[Ballot]*proposalRecord),
	}
}

// Propose mints a ballot, registers the proposal, broadcasts PREPARE to
// every acceptor, and returns the ballot as a handle — the external
// propose(operation) -> ballot surface of §6. It never blocks on a reply.
func (p *Proposer) Propose(op Operation) Ballot {
	p.mu.Lock()
	p.counter++
	ballot := NewBallot(p.ordinal, p.counter)
	p.proposals[ballot] = &proposalRecord{
		originalOperation: op,
		phase:             1,
		responded:         make(map[string]bool),
		acceptorCount:     len(p.acceptorIDs),
		createdAt:         time.Now(),
	}
	p.mu.Unlock()

	p.log.WithFields(logrus.Fields{"ballot": ballot, "op": op.String()}).Info("broadcasting PREPARE")
	for _, acceptorID := range p.acceptorIDs {
		if err := p.transport.Send(p.id, acceptorID, Message{
			Kind:     KindPrepare,
			Ballot:   ballot,
			Sender:   p.id,
			Receiver: acceptorID,
		}); err != nil {
			p.log.WithError(err).WithField("to", acceptorID).Warn("send PREPARE failed")
		}
	}
	return ballot
}

// HandlePromise processes an inbound PROMISE for one of this proposer's
// active ballots (§4.4).
func (p *Proposer) HandlePromise(m Message) {
	p.mu.Lock()
	defer p.mu.Unlock()

	rec, ok := p.proposals[m.Ballot]
	if !ok {
		p.log.WithField("ballot", m.Ballot).Warn(ErrUnknownBallot.Error())
		return
	}
	if rec.responded[m.Sender] {
		p.log.WithFields(logrus.Fields{"ballot": m.Ballot, "from": m.Sender}).Warn(ErrDuplicateResponse.Error())
		return
	}
	rec.responded[m.Sender] = true
	rec.promises++

	if !m.AcceptedBallot.IsZero() && m.AcceptedBallot > rec.highestAcceptedBallot {
		rec.highestAcceptedBallot = m.AcceptedBallot
		rec.highestAcceptedOperation = m.AcceptedOperation
	}

	if rec.phase != 1 || rec.promises <= rec.acceptorCount/2 {
		return
	}

	rec.phase = 2
	value := rec.originalOperation
	if rec.highestAcceptedOperation != nil {
		value = rec.highestAcceptedOperation
	}

	p.log.WithFields(logrus.Fields{"ballot": m.Ballot, "value": value.String()}).Info("quorum of PROMISEs, broadcasting ACCEPT")
	for _, acceptorID := range p.acceptorIDs {
		if err := p.transport.Send(p.id, acceptorID, Message{
			Kind:      KindAccept,
			Ballot:    m.Ballot,
			Sender:    p.id,
			Receiver:  acceptorID,
			Operation: value,
		}); err != nil {
			p.log.WithError(err).WithField("to", acceptorID).Warn("send ACCEPT failed")
		}
	}
}

// HandleNack processes an inbound NACK for one of this proposer's active
// ballots. A counter-quorum of NACKs abandons the proposal with no
// automatic retry — liveness depends on the caller proposing again at a
// fresh ballot.
func (p *Proposer) HandleNack(m Message) {
	p.mu.Lock()
	defer p.mu.Unlock()

	rec, ok := p.proposals[m.Ballot]
	if !ok {
		p.log.WithField("ballot", m.Ballot).Warn(ErrUnknownBallot.Error())
		return
	}
	if rec.responded[m.Sender] {
		p.log.WithFields(logrus.Fields{"ballot": m.Ballot, "from": m.Sender}).Warn(ErrDuplicateResponse.Error())
		return
	}
	rec.responded[m.Sender] = true
	rec.nacks++

	if rec.nacks > rec.acceptorCount/2 {
		p.log.WithField("ballot", m.Ballot).Info("abandoning proposal after counter-quorum of NACKs")
		delete(p.proposals, m.Ballot)
	}
}

// Active reports whether a ballot still has a live proposal record — for
// tests and GC sweeps (§4.4's SHOULD-have timeout is left to callers).
func (p *Proposer) Active(ballot Ballot) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.proposals[ballot]
	return ok
}

// Forget drops a proposal record regardless of its outcome, for a
// caller-driven garbage-collection sweep over long-idle ballots.
func (p *Proposer) Forget(ballot Ballot) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.proposals, ballot)
}

// StaleBallots returns the ballots of every proposal still open after ttl
// has elapsed since it was created — the concrete hook for the
// caller-driven timeout §4.4 leaves as a SHOULD rather than a protocol
// rule (Paxos itself has no notion of a proposal expiring).
func (p *Proposer) StaleBallots(ttl time.Duration) []Ballot {
	p.mu.Lock()
	defer p.mu.Unlock()
	now := time.Now()
	var stale []Ballot
	for ballot, rec := range p.proposals {
		if now.Sub(rec.createdAt) >= ttl {
			stale = append(stale, ballot)
		}
	}
	return stale
}
