package paxos

import "errors"

var (
	// ErrUnknownKind is returned by Decode for an unrecognized msg_type.
	ErrUnknownKind = errors.New("paxos: unknown message kind")
	// ErrMalformedMessage is returned by Decode when a kind-required field
	// is missing.
	ErrMalformedMessage = errors.New("paxos: malformed message")
	// ErrUnknownBallot is logged (not returned to callers) when a PROMISE
	// or NACK arrives for a ballot the proposer is no longer tracking.
	ErrUnknownBallot = errors.New("paxos: response for unknown ballot")
	// ErrDuplicateResponse is logged when an acceptor responds twice to the
	// same ballot.
	ErrDuplicateResponse = errors.New("paxos: duplicate response from acceptor")
	// ErrRejected names a round abandoned after a counter-quorum of NACKs.
	// HandleNack does not return it; it logs and drops the proposal record.
	ErrRejected = errors.New("paxos: proposal abandoned after counter-quorum of NACKs")
)
