// =============================================================================
// IN-MEMORY TRANSPORT - lossy, delayed, in-process delivery (§5, §9)
// =============================================================================
//
// Each Send schedules delivery after a random delay in [minDelay, maxDelay)
// via time.AfterFunc — the direct analogue of the original simulator's
// threading.Timer(delay, deliver) (network/network.py). Delivery may also
// be dropped outright, simulating loss. Nodes in the failed set are
// isolated in both directions, checked both at send time and again at
// delivery time, since a node can fail during the delay window.
// =============================================================================

package transport

import (
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/senutpal/quorum/internal/paxos"
)

// MemoryTransport is the default transport for the demo and for tests: an
// in-process, lossy, delayed delivery simulator plus a failed-node set that
// a failure injector can drive.
type MemoryTransport struct {
	lossProbability    float64
	minDelay, maxDelay time.Duration
	log                *logrus.Entry

	mu       sync.RWMutex
	handlers map[string]Handler
	failed   map[string]bool
	closed   bool
	rng      *rand.Rand
}

// NewMemoryTransport builds a simulator with the given loss probability
// (0.0-1.0) and delay bounds.
func NewMemoryTransport(lossProbability float64, minDelay, maxDelay time.Duration, log *logrus.Entry) *MemoryTransport {
	return &MemoryTransport{
		lossProbability: lossProbability,
		minDelay:        minDelay,
		maxDelay:        maxDelay,
		log:             log,
		handlers:        make(map[string]Handler),
		failed:          make(map[string]bool),
		rng:             rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (t *MemoryTransport) RegisterHandler(nodeID string, h Handler) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return ErrClosed
	}
	t.handlers[nodeID] = h
	return nil
}

func (t *MemoryTransport) Unregister(nodeID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.handlers, nodeID)
}

// Fail marks nodeID as failed: messages to and from it are dropped until
// Recover is called.
func (t *MemoryTransport) Fail(nodeID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.failed[nodeID] = true
}

// Recover clears nodeID's failed marker.
func (t *MemoryTransport) Recover(nodeID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.failed, nodeID)
}

func (t *MemoryTransport) IsFailed(nodeID string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.failed[nodeID]
}

func (t *MemoryTransport) Send(sender, receiver string, msg paxos.Message) error {
	// rng is a plain *rand.Rand, not safe for concurrent use, so this block
	// needs the exclusive lock even though it only reads closed/failed —
	// RLock would let two Sends race on t.rng's internal state.
	t.mu.Lock()
	closed := t.closed
	senderFailed := t.failed[sender]
	receiverFailed := t.failed[receiver]
	lossRoll := t.rng.Float64()
	delay := t.minDelay
	if t.maxDelay > t.minDelay {
		delay += time.Duration(t.rng.Int63n(int64(t.maxDelay - t.minDelay)))
	}
	t.mu.Unlock()

	if closed {
		return ErrClosed
	}
	deliveryID := uuid.NewString()
	if senderFailed {
		t.log.WithFields(logrus.Fields{"delivery_id": deliveryID, "from": sender}).Debug("dropped: sender failed")
		return nil
	}
	if receiverFailed {
		t.log.WithFields(logrus.Fields{"delivery_id": deliveryID, "to": receiver}).Debug("dropped: receiver failed")
		return nil
	}
	if lossRoll < t.lossProbability {
		t.log.WithFields(logrus.Fields{"delivery_id": deliveryID, "from": sender, "to": receiver}).Debug("dropped: simulated loss")
		return nil
	}

	time.AfterFunc(delay, func() {
		t.deliver(deliveryID, sender, receiver, msg)
	})
	return nil
}

func (t *MemoryTransport) deliver(deliveryID, sender, receiver string, msg paxos.Message) {
	t.mu.RLock()
	handler, ok := t.handlers[receiver]
	failed := t.failed[receiver]
	t.mu.RUnlock()

	if failed {
		t.log.WithFields(logrus.Fields{"delivery_id": deliveryID, "to": receiver}).Debug("dropped at delivery: receiver failed")
		return
	}
	if !ok {
		t.log.WithFields(logrus.Fields{"delivery_id": deliveryID, "to": receiver}).Debug("dropped at delivery: no handler registered")
		return
	}
	handler(sender, msg)
}

func (t *MemoryTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closed = true
	t.handlers = make(map[string]Handler)
	return nil
}
