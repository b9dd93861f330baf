// Package node wires the three Paxos roles (§4.3-§4.5) to a Transport,
// replacing _examples/senutpal-quorum's single do-everything Node with
// three thin single-role wrappers — the shape the reference simulator
// actually ships (paxos/proposer.py, acceptor.py and learner.py each back
// their own node.py subclass, driven from main.py's create_nodes). Each
// wrapper's job is just dispatch: decode which handler a message kind
// belongs to and call it; the transport already runs that call on its own
// goroutine; no separate receive loop is needed the way the teacher's
// polling design required one.
package node

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/senutpal/quorum/internal/paxos"
	"github.com/senutpal/quorum/internal/transport"
)

// ProposerNode hosts one proposer role and its transport registration.
type ProposerNode struct {
	id        string
	proposer  *paxos.Proposer
	transport transport.Transport
	log       *logrus.Entry
}

// NewProposerNode builds a proposer-role node. ordinal must be unique
// among all proposers sharing acceptorIDs, or two proposers could mint
// colliding ballots.
func NewProposerNode(id string, ordinal int64, acceptorIDs []string, t transport.Transport, log *logrus.Entry) *ProposerNode {
	return &ProposerNode{
		id:        id,
		proposer:  paxos.NewProposer(id, ordinal, acceptorIDs, t, log),
		transport: t,
		log:       log,
	}
}

func (n *ProposerNode) ID() string { return n.id }

// Start registers this node's inbound handler: PROMISE and NACK route to
// the proposer, anything else is logged and dropped.
func (n *ProposerNode) Start() error {
	return n.transport.RegisterHandler(n.id, func(sender string, msg paxos.Message) {
		switch msg.Kind {
		case paxos.KindPromise:
			n.proposer.HandlePromise(msg)
		case paxos.KindNack:
			n.proposer.HandleNack(msg)
		default:
			n.log.WithField("kind", msg.Kind).Warn("proposer node: unexpected message kind")
		}
	})
}

func (n *ProposerNode) Stop() error {
	n.transport.Unregister(n.id)
	return nil
}

// Propose starts a new round for op and returns the ballot handle.
func (n *ProposerNode) Propose(op paxos.Operation) paxos.Ballot {
	return n.proposer.Propose(op)
}

// Proposer exposes the underlying role state machine, e.g. for a GC sweep
// over stale ballots (see Cluster).
func (n *ProposerNode) Proposer() *paxos.Proposer { return n.proposer }

// AcceptorNode hosts one acceptor role and its transport registration.
type AcceptorNode struct {
	id        string
	acceptor  *paxos.Acceptor
	transport transport.Transport
	log       *logrus.Entry
}

func NewAcceptorNode(id string, learnerIDs []string, s paxos.Storage, t transport.Transport, log *logrus.Entry) *AcceptorNode {
	return &AcceptorNode{
		id:        id,
		acceptor:  paxos.NewAcceptor(id, learnerIDs, s, log),
		transport: t,
		log:       log,
	}
}

func (n *AcceptorNode) ID() string { return n.id }

// Start registers this node's inbound handler: PREPARE and ACCEPT route to
// the acceptor, which replies directly (PROMISE/NACK) and fans LEARN
// messages out to every learner on a successful ACCEPT.
func (n *AcceptorNode) Start() error {
	return n.transport.RegisterHandler(n.id, func(sender string, msg paxos.Message) {
		switch msg.Kind {
		case paxos.KindPrepare:
			reply := n.acceptor.HandlePrepare(msg)
			n.send(reply)
		case paxos.KindAccept:
			reply, learns := n.acceptor.HandleAccept(msg)
			if reply != nil {
				n.send(*reply)
			}
			for _, learn := range learns {
				n.send(learn)
			}
		default:
			n.log.WithField("kind", msg.Kind).Warn("acceptor node: unexpected message kind")
		}
	})
}

func (n *AcceptorNode) send(msg paxos.Message) {
	if err := n.transport.Send(n.id, msg.Receiver, msg); err != nil {
		n.log.WithError(err).WithField("to", msg.Receiver).Warn("acceptor node: send failed")
	}
}

func (n *AcceptorNode) Stop() error {
	n.transport.Unregister(n.id)
	return nil
}

// State snapshots this acceptor's durable fields, for tests and demo
// reporting.
func (n *AcceptorNode) State() (highestPromised, acceptedBallot paxos.Ballot, acceptedOperation paxos.Operation) {
	return n.acceptor.State()
}

// LearnerNode hosts one learner role and its transport registration.
type LearnerNode struct {
	id        string
	learner   *paxos.Learner
	transport transport.Transport
	log       *logrus.Entry
}

func NewLearnerNode(id string, acceptorCount int, t transport.Transport, log *logrus.Entry) *LearnerNode {
	return &LearnerNode{
		id:        id,
		learner:   paxos.NewLearner(id, acceptorCount, log),
		transport: t,
		log:       log,
	}
}

func (n *LearnerNode) ID() string { return n.id }

// Start registers this node's inbound handler: only LEARN is expected.
func (n *LearnerNode) Start() error {
	return n.transport.RegisterHandler(n.id, func(sender string, msg paxos.Message) {
		if msg.Kind != paxos.KindLearn {
			n.log.WithField("kind", msg.Kind).Warn("learner node: unexpected message kind")
			return
		}
		n.learner.HandleLearn(msg)
	})
}

func (n *LearnerNode) Stop() error {
	n.transport.Unregister(n.id)
	return nil
}

// SetOnChosen installs the callback invoked once per newly chosen
// operation.
func (n *LearnerNode) SetOnChosen(cb func(paxos.Ballot, paxos.Operation)) {
	n.learner.SetOnChosen(cb)
}

// ChosenOperations returns the ordered sequence of operations this learner
// has seen reach quorum.
func (n *LearnerNode) ChosenOperations() []paxos.Operation {
	return n.learner.GetChosenOperations()
}

// errUnregistered is returned by Cluster.RandomProposer when the cluster
// holds no proposers; kept here since it's node-package specific rather
// than a paxos protocol error.
var errUnregistered = fmt.Errorf("node: id not found in roster")
