package ports

import (
	"context"

	"github.com/bnema/agent-network/internal/domain"
)

type PairingRequest struct {
	Name   domain.PeerName
	URL    string
	Secret string
}

type Delivery struct {
	Sender    domain.AgentID
	Network   domain.NetworkID
	Recipient domain.AgentID
	Content   string
	Broadcast bool
}

type PeerHealth struct {
	Status  string
	Machine string
}

// PeerClient talks to a remote federation server. Transport failures wrap
// domain.ErrPeerUnreachable; non-success answers are *domain.PeerError.
type PeerClient interface {
	RequestPairing(ctx context.Context, url string, req PairingRequest) error
	AcceptPairing(ctx context.Context, peer domain.Peer, self domain.PeerName) error
	ListAgents(ctx context.Context, peer domain.Peer, network domain.NetworkID) ([]domain.RemoteAgent, error)
	Deliver(ctx context.Context, peer domain.Peer, delivery Delivery) (int, error)
	Health(ctx context.Context, url string) (PeerHealth, error)
}
