package ports

import (
	"context"
	"time"

	"github.com/bnema/agent-network/internal/domain"
)

type PeerStore interface {
	SavePeer(ctx context.Context, peer domain.Peer) error
	GetPeer(ctx context.Context, name domain.PeerName) (domain.Peer, error)
	ListPeers(ctx context.Context) ([]domain.Peer, error)
	MutualPeers(ctx context.Context) ([]domain.Peer, error)
	SetTrust(ctx context.Context, name domain.PeerName, trust domain.Trust, now time.Time) error
	DeletePeer(ctx context.Context, name domain.PeerName) error
	TouchPeer(ctx context.Context, name domain.PeerName, now time.Time) error

	// RecordPairRequest upserts an inbound request and notifies every local
	// session in the same transaction.
	RecordPairRequest(ctx context.Context, peer domain.Peer, notice string) error
	// ConfirmPairing marks the peer mutual and notifies every local session.
	ConfirmPairing(ctx context.Context, name domain.PeerName, notice string, now time.Time) error
}
