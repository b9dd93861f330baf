// =============================================================================
// PAXOS MESSAGE MODEL
// =============================================================================
//
// Paxos is fundamentally a message-passing protocol; this file defines the
// five messages that flow between proposers, acceptors and learners.
//
// PHASE 1 (PREPARE/PROMISE): a proposer reserves a ballot; each acceptor
// either promises not to accept anything lower (PROMISE, carrying its prior
// accept if any) or refuses (NACK).
//
// PHASE 2 (ACCEPT/LEARN): the proposer commands a value at its ballot; each
// acceptor that honors it notifies every learner directly (LEARN). There is
// no acceptor-to-proposer reply on a successful accept — only a NACK on
// rejection, kept under propose()'s tally of rejections.
//
// Earlier drafts of this package modeled each kind as its own Go struct
// (Prepare, Promise, Reject, Accept, Accepted, Learn) dispatched by type
// switch. A single tagged Message is used instead: it matches the wire
// contract in §6 one field at a time, decodes with one unmarshal instead of
// a kind-sniffing pass, and leaves no struct per kind to fall out of sync
// with the JSON schema.
// =============================================================================

package paxos

import (
	"encoding/json"
	"fmt"
)

// Kind tags the five Paxos message variants.
type Kind string

const (
	KindPrepare Kind = "PREPARE"
	KindPromise Kind = "PROMISE"
	KindAccept  Kind = "ACCEPT"
	KindLearn   Kind = "LEARN"
	KindNack    Kind = "NACK"
)

// Operation is the opaque value a proposer wants chosen. The protocol never
// inspects its contents, only compares it for equality. encoding/json
// base64-encodes a []byte automatically, which is how "operation" stays a
// self-describing JSON field (§6) without the codec caring what's inside.
type Operation []byte

func (o Operation) String() string {
	if o == nil {
		return "<nil>"
	}
	return string(o)
}

// Equal compares two operations by content.
func (o Operation) Equal(other Operation) bool {
	if len(o) != len(other) {
		return false
	}
	for i := range o {
		if o[i] != other[i] {
			return false
		}
	}
	return true
}

// Message is the wire form of every Paxos datagram (§6): a self-describing
// record carrying the fields relevant to its Kind. Fields a kind doesn't use
// are left at their zero value; the accepted pair is omitted on the wire and
// an unset operation is sent as null.
type Message struct {
	Kind     Kind   `json:"msg_type"`
	Ballot   Ballot `json:"timestamp"`
	Sender   string `json:"sender_id"`
	Receiver string `json:"receiver_id"`

	// Operation carries the proposed/accepted value for ACCEPT and LEARN.
	// It is always encoded, so an empty operation ("") stays distinct from
	// an absent one (null) after a round trip.
	Operation Operation `json:"operation"`

	// AcceptedBallot/AcceptedOperation carry an acceptor's prior accept in
	// a PROMISE; both are absent together when the acceptor had none.
	AcceptedBallot    Ballot    `json:"accepted_timestamp,omitempty"`
	AcceptedOperation Operation `json:"accepted_operation,omitempty"`
}

func (m Message) String() string {
	switch m.Kind {
	case KindPrepare:
		return fmt.Sprintf("PREPARE<%s>", m.Ballot)
	case KindPromise:
		if m.AcceptedOperation != nil {
			return fmt.Sprintf("PROMISE<%s, accepted=%s@%s>", m.Ballot, m.AcceptedOperation, m.AcceptedBallot)
		}
		return fmt.Sprintf("PROMISE<%s>", m.Ballot)
	case KindAccept:
		return fmt.Sprintf("ACCEPT<%s, %s>", m.Ballot, m.Operation)
	case KindLearn:
		return fmt.Sprintf("LEARN<%s, %s>", m.Ballot, m.Operation)
	case KindNack:
		return fmt.Sprintf("NACK<%s>", m.Ballot)
	default:
		return fmt.Sprintf("UNKNOWN<%s>", m.Kind)
	}
}

// Encode serializes m to its wire form.
func Encode(m Message) ([]byte, error) {
	return json.Marshal(m)
}

// Decode parses the wire form into a Message, rejecting unknown kind tags
// and messages missing a field their kind requires (§4.1).
func Decode(data []byte) (Message, error) {
	var m Message
	if err := json.Unmarshal(data, &m); err != nil {
		return Message{}, fmt.Errorf("decode message: %w", err)
	}
	if err := validateKind(m); err != nil {
		return Message{}, err
	}
	return m, nil
}

func validateKind(m Message) error {
	switch m.Kind {
	case KindPrepare, KindPromise, KindAccept, KindLearn, KindNack:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownKind, m.Kind)
	}
	if m.Sender == "" || m.Receiver == "" {
		return fmt.Errorf("%w: %s missing sender/receiver", ErrMalformedMessage, m.Kind)
	}
	switch m.Kind {
	case KindAccept, KindLearn:
		if m.Operation == nil {
			return fmt.Errorf("%w: %s requires an operation", ErrMalformedMessage, m.Kind)
		}
	}
	return nil
}
