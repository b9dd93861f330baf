package node

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/senutpal/quorum/internal/paxos"
)

// Cluster owns every role node in a deployment plus the one background
// task the protocol itself doesn't run: sweeping every proposal record
// still open after the TTL (whatever its phase) off of each proposer, per
// paxos.Proposer.StaleBallots.
// golang.org/x/sync/errgroup coordinates that sweep goroutine's lifetime
// alongside Cluster.Stop, the same pattern the rest of the pack uses for
// a supervised background task instead of a bare `go func(){}`.
type Cluster struct {
	Proposers []*ProposerNode
	Acceptors []*AcceptorNode
	Learners  []*LearnerNode
	log       *logrus.Entry

	staleTTL      time.Duration
	sweepInterval time.Duration

	cancel context.CancelFunc
	group  *errgroup.Group
}

// NewCluster builds a cluster. staleTTL/sweepInterval of zero disable the
// background GC sweep entirely (useful in tests that want deterministic
// proposal bookkeeping).
func NewCluster(proposers []*ProposerNode, acceptors []*AcceptorNode, learners []*LearnerNode, staleTTL, sweepInterval time.Duration, log *logrus.Entry) *Cluster {
	return &Cluster{
		Proposers:     proposers,
		Acceptors:     acceptors,
		Learners:      learners,
		log:           log,
		staleTTL:      staleTTL,
		sweepInterval: sweepInterval,
	}
}

// Start registers every node's transport handler and, if configured,
// launches the stale-proposal sweep.
func (c *Cluster) Start(ctx context.Context) error {
	for _, n := range c.Proposers {
		if err := n.Start(); err != nil {
			return fmt.Errorf("start proposer %s: %w", n.ID(), err)
		}
	}
	for _, n := range c.Acceptors {
		if err := n.Start(); err != nil {
			return fmt.Errorf("start acceptor %s: %w", n.ID(), err)
		}
	}
	for _, n := range c.Learners {
		if err := n.Start(); err != nil {
			return fmt.Errorf("start learner %s: %w", n.ID(), err)
		}
	}

	if c.staleTTL <= 0 || c.sweepInterval <= 0 {
		return nil
	}

	sweepCtx, cancel := context.WithCancel(ctx)
	g, gctx := errgroup.WithContext(sweepCtx)
	c.cancel = cancel
	c.group = g
	g.Go(func() error {
		c.sweepLoop(gctx)
		return nil
	})
	return nil
}

func (c *Cluster) sweepLoop(ctx context.Context) {
	ticker := time.NewTicker(c.sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, n := range c.Proposers {
				for _, ballot := range n.Proposer().StaleBallots(c.staleTTL) {
					n.Proposer().Forget(ballot)
					c.log.WithFields(logrus.Fields{"proposer": n.ID(), "ballot": ballot}).Info("swept stale proposal")
				}
			}
		}
	}
}

// Stop unregisters every node and waits for the sweep goroutine, if any,
// to exit.
func (c *Cluster) Stop() error {
	if c.cancel != nil {
		c.cancel()
		_ = c.group.Wait()
	}
	for _, n := range c.Proposers {
		_ = n.Stop()
	}
	for _, n := range c.Acceptors {
		_ = n.Stop()
	}
	for _, n := range c.Learners {
		_ = n.Stop()
	}
	return nil
}

// RandomProposer returns a uniformly random proposer, for a client that
// doesn't care which one handles its proposal (§6, single-decree Paxos
// Option 1: any node can propose).
func (c *Cluster) RandomProposer() (*ProposerNode, error) {
	if len(c.Proposers) == 0 {
		return nil, errUnregistered
	}
	return c.Proposers[rand.Intn(len(c.Proposers))], nil
}

// AllChosenOperations merges every learner's chosen-operation sequence,
// for reporting.
func (c *Cluster) AllChosenOperations() map[string][]paxos.Operation {
	out := make(map[string][]paxos.Operation, len(c.Learners))
	for _, n := range c.Learners {
		out[n.ID()] = n.ChosenOperations()
	}
	return out
}
