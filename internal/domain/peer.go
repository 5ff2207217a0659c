package domain

import (
	"fmt"
	"time"
)

type PeerName string

// Trust is the combined pairing state of a peer. The legacy store columns
// (status, direction) only ever hold the three pairs enumerated here.
type Trust int

const (
	TrustOutbound Trust = iota + 1
	TrustInbound
	TrustMutual
)

const (
	peerStatusPending  = "pending"
	peerStatusApproved = "approved"

	peerDirectionOutbound = "outbound"
	peerDirectionInbound  = "inbound"
	peerDirectionMutual   = "mutual"
)

func (t Trust) Status() string {
	if t == TrustMutual {
		return peerStatusApproved
	}
	return peerStatusPending
}

func (t Trust) Direction() string {
	switch t {
	case TrustOutbound:
		return peerDirectionOutbound
	case TrustInbound:
		return peerDirectionInbound
	case TrustMutual:
		return peerDirectionMutual
	default:
		return ""
	}
}

func (t Trust) Pending() bool {
	return t == TrustOutbound || t == TrustInbound
}

func (t Trust) String() string {
	return t.Status() + "/" + t.Direction()
}

func ParseTrust(status, direction string) (Trust, error) {
	switch {
	case status == peerStatusPending && direction == peerDirectionOutbound:
		return TrustOutbound, nil
	case status == peerStatusPending && direction == peerDirectionInbound:
		return TrustInbound, nil
	case status == peerStatusApproved && direction == peerDirectionMutual:
		return TrustMutual, nil
	default:
		return 0, fmt.Errorf("unsupported peer state %s/%s", status, direction)
	}
}

type Peer struct {
	Name      PeerName
	URL       string
	Secret    string
	Trust     Trust
	CreatedAt time.Time
	LastSeen  time.Time
}

// Relayable reports whether messages may be forwarded to this peer.
func (p Peer) Relayable() bool {
	return p.Trust == TrustMutual
}

func ValidatePeerName(name PeerName) error {
	if !ValidIdentifier(string(name)) {
		return fmt.Errorf("%w: peer %q (only letters, numbers, hyphens and underscores are allowed)", ErrInvalidIdentifier, name)
	}
	return nil
}

// RemoteAgent is an agent advertised by a peer's agent listing.
type RemoteAgent struct {
	Agent  AgentID
	Role   string
	Active bool
	Peer   PeerName
}
