package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidIdentifier = errors.New("invalid identifier")
	ErrContentTooLarge   = errors.New("content too large")
	ErrMissingField      = errors.New("missing required field")
	ErrInvalidDuration   = errors.New("invalid duration")

	ErrRecipientInboxFull = errors.New("recipient inbox full")
	ErrRateLimited        = errors.New("rate limit reached")
	ErrSenderPendingCap   = errors.New("too many pending messages from sender")

	ErrSessionUnresolved = errors.New("session not resolved")
	ErrNotJoined         = errors.New("session is not in any network")
	ErrAgentTaken        = errors.New("agent id already taken")
	ErrRecipientNotFound = errors.New("recipient not found")
	ErrPeerNotFound      = errors.New("peer not found")

	ErrNotPending          = errors.New("peer is not pending")
	ErrAlreadyPaired       = errors.New("peer already paired")
	ErrMissingLocalAddress = errors.New("local http url is not configured")
	ErrUnauthorized        = errors.New("unauthorized")

	ErrPeerUnreachable = errors.New("peer unreachable")
	ErrStoreBusy       = errors.New("store busy")
)

// PeerError is a non-success answer from a reachable peer.
type PeerError struct {
	Peer       PeerName
	StatusCode int
	Message    string
}

func (e *PeerError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("peer %q rejected request: status %d", e.Peer, e.StatusCode)
	}
	return fmt.Sprintf("peer %q rejected request: %s", e.Peer, e.Message)
}

type ErrorKind string

const (
	KindValidation      ErrorKind = "validation"
	KindCapacity        ErrorKind = "capacity"
	KindNotFound        ErrorKind = "not_found"
	KindConflict        ErrorKind = "conflict"
	KindUnauthorized    ErrorKind = "unauthorized"
	KindConnectivity    ErrorKind = "connectivity"
	KindPeerRejected    ErrorKind = "peer_rejected"
	KindStoreContention ErrorKind = "store_contention"
	KindInternal        ErrorKind = "internal"
)

// KindOf classifies err so callers can decide between retry, fallback and abort.
func KindOf(err error) ErrorKind {
	var peerErr *PeerError
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidIdentifier), errors.Is(err, ErrContentTooLarge),
		errors.Is(err, ErrMissingField), errors.Is(err, ErrMissingLocalAddress),
		errors.Is(err, ErrInvalidDuration):
		return KindValidation
	case errors.Is(err, ErrRecipientInboxFull), errors.Is(err, ErrRateLimited),
		errors.Is(err, ErrSenderPendingCap):
		return KindCapacity
	case errors.Is(err, ErrRecipientNotFound), errors.Is(err, ErrPeerNotFound),
		errors.Is(err, ErrNotJoined), errors.Is(err, ErrSessionUnresolved):
		return KindNotFound
	case errors.Is(err, ErrAgentTaken), errors.Is(err, ErrNotPending), errors.Is(err, ErrAlreadyPaired):
		return KindConflict
	case errors.Is(err, ErrUnauthorized):
		return KindUnauthorized
	case errors.Is(err, ErrPeerUnreachable):
		return KindConnectivity
	case errors.As(err, &peerErr):
		return KindPeerRejected
	case errors.Is(err, ErrStoreBusy):
		return KindStoreContention
	default:
		return KindInternal
	}
}
