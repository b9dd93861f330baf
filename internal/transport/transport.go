// =============================================================================
// TRANSPORT - the contract every delivery mechanism must honor (§6)
// =============================================================================
//
// send(sender_id, receiver_id, message) guarantees only: best-effort (may
// silently drop), asynchronous (delivers after an arbitrary positive
// delay), non-FIFO and non-duplicating, and a registered per-node handler
// is invoked exactly once per successfully-delivered message. Nodes marked
// "failed" are isolated in both directions until "recovered". Any
// implementation honoring this contract is conformant — the in-memory
// simulator in memory.go and the real JSON-over-UDP transport in
// udpnet/udpnet.go both satisfy it.
// =============================================================================

package transport

import (
	"errors"

	"github.com/senutpal/quorum/internal/paxos"
)

var (
	// ErrUnknownReceiver is returned by udpnet's Send when the receiver id
	// has no address in its roster. MemoryTransport does not return it: a
	// message to an id with no registered handler is dropped at delivery.
	ErrUnknownReceiver = errors.New("transport: unknown receiver")
	// ErrNodeFailed names the failed-endpoint condition. Neither transport
	// in this module returns it: MemoryTransport drops a message to or from
	// a failed node silently and Send returns nil.
	ErrNodeFailed = errors.New("transport: node is marked failed")
	// ErrClosed is returned by Send/RegisterHandler after Close.
	ErrClosed = errors.New("transport: closed")
)

// Handler is invoked once per successfully delivered message, with the
// sender id and the decoded message.
type Handler func(sender string, msg paxos.Message)

// Transport is the delivery primitive every role depends on.
type Transport interface {
	// RegisterHandler binds nodeID's inbound handler. Registering the same
	// id twice replaces the previous handler.
	RegisterHandler(nodeID string, handler Handler) error

	// Unregister removes nodeID's handler; subsequent deliveries to it are
	// silently dropped, including any already in flight.
	Unregister(nodeID string)

	// Send delivers msg from sender to receiver, best-effort and
	// asynchronous. A non-nil error means the send could not even be
	// scheduled (e.g. unknown receiver); Paxos treats both scheduling
	// failures and in-flight drops as ordinary message loss.
	Send(sender, receiver string, msg paxos.Message) error

	Close() error
}
