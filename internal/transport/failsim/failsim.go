// Package failsim periodically fails and recovers a random subset of
// roster nodes on a MemoryTransport, the Go counterpart of the reference
// simulator's network/failures.py FailureSimulator. It is the concrete
// shape behind spec §1/§2's "crash/recover node injection" responsibility.
package failsim

import (
	"math/rand"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/senutpal/quorum/internal/transport"
)

// Simulator randomly fails healthy nodes and recovers failed ones on each
// tick of its check interval.
type Simulator struct {
	transport           *transport.MemoryTransport
	nodeIDs             []string
	failureProbability  float64
	recoveryProbability float64
	log                 *logrus.Entry

	mu      sync.Mutex
	failed  map[string]bool
	running bool
	stopCh  chan struct{}
	done    chan struct{}
	rng     *rand.Rand
}

// New builds a simulator over the given node ids. failureProbability is the
// chance a healthy node fails on a given check; recoveryProbability is the
// chance a failed node recovers.
func New(t *transport.MemoryTransport, nodeIDs []string, failureProbability, recoveryProbability float64, log *logrus.Entry) *Simulator {
	return &Simulator{
		transport:           t,
		nodeIDs:             append([]string(nil), nodeIDs...),
		failureProbability:  failureProbability,
		recoveryProbability: recoveryProbability,
		log:                 log,
		failed:              make(map[string]bool),
		rng:                 rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Start begins the periodic failure/recovery loop at checkInterval.
func (s *Simulator) Start(checkInterval time.Duration) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.stopCh = make(chan struct{})
	s.done = make(chan struct{})
	s.mu.Unlock()

	go s.loop(checkInterval)
}

// Stop ends the loop and waits for it to exit.
func (s *Simulator) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	close(s.stopCh)
	done := s.done
	s.mu.Unlock()
	<-done
}

func (s *Simulator) loop(checkInterval time.Duration) {
	defer close(s.done)
	ticker := time.NewTicker(checkInterval)
	defer ticker.Stop()
	for {
		select {
		case <-s.stopCh:
			return
		case <-ticker.C:
			s.checkFailures()
			s.checkRecoveries()
		}
	}
}

func (s *Simulator) checkFailures() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range s.nodeIDs {
		if !s.failed[id] && s.rng.Float64() < s.failureProbability {
			s.failed[id] = true
			s.transport.Fail(id)
			s.log.WithField("node", id).Info("simulated node failure")
		}
	}
}

func (s *Simulator) checkRecoveries() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id := range s.failed {
		if s.rng.Float64() < s.recoveryProbability {
			delete(s.failed, id)
			s.transport.Recover(id)
			s.log.WithField("node", id).Info("simulated node recovery")
		}
	}
}

// FailNode manually fails a node, bypassing the probability check.
func (s *Simulator) FailNode(nodeID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failed[nodeID] {
		return
	}
	s.failed[nodeID] = true
	s.transport.Fail(nodeID)
	s.log.WithField("node", nodeID).Info("manually failed node")
}

// RecoverNode manually recovers a node, bypassing the probability check.
func (s *Simulator) RecoverNode(nodeID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.failed[nodeID] {
		return
	}
	delete(s.failed, nodeID)
	s.transport.Recover(nodeID)
	s.log.WithField("node", nodeID).Info("manually recovered node")
}
