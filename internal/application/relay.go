package application

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync/atomic"

	"github.com/bnema/agent-network/internal/domain"
	"github.com/bnema/agent-network/internal/ports"
	"golang.org/x/sync/errgroup"
)

const maxConcurrentRelays = 8

// relaySend hands a message to the first mutual peer that lists to as an
// active agent. Delivery is attempted at most once per peer.
func (s *MailboxService) relaySend(ctx context.Context, session domain.Session, to domain.AgentID, content string) (SendResult, error) {
	peers, err := s.peers.MutualPeers(ctx)
	if err != nil {
		return SendResult{}, fmt.Errorf("list mutual peers: %w", err)
	}

	for _, peer := range peers {
		agents, err := s.client.ListAgents(ctx, peer, session.Network)
		if err != nil {
			s.logger.Warn().Err(err).Str("peer", string(peer.Name)).Msg("skipping peer agent listing")
			continue
		}
		if !hasActiveAgent(agents, to) {
			continue
		}

		delivered, err := s.client.Deliver(ctx, peer, ports.Delivery{
			Sender:    session.Agent,
			Network:   session.Network,
			Recipient: to,
			Content:   content,
		})
		if err != nil {
			var peerErr *domain.PeerError
			switch {
			case errors.As(err, &peerErr) && peerErr.StatusCode == http.StatusUnauthorized:
				// The remote side dropped the pairing, so its cached listing is stale.
				s.forgetPeerAgents(peer.Name)
				s.logger.Warn().Err(err).Str("peer", string(peer.Name)).Msg("peer no longer recognizes this machine")
				continue
			case peerErr != nil:
				return SendResult{}, fmt.Errorf("relay to peer %q: %w", peer.Name, err)
			}
			s.logger.Warn().Err(err).Str("peer", string(peer.Name)).Msg("relay delivery failed")
			continue
		}

		s.heartbeat(ctx, session)
		s.audit.Append(ctx, ports.AuditRelay, map[string]any{
			"network":        string(session.Network),
			"from":           string(session.Agent),
			"to":             string(to),
			"peer":           string(peer.Name),
			"content_length": domain.ContentLength(content),
		})

		return SendResult{Status: "sent_to_peer", To: to, Peer: peer.Name, DeliveredCount: delivered}, nil
	}

	return SendResult{}, fmt.Errorf("%w: %q is not active in network %q or on any paired machine",
		domain.ErrRecipientNotFound, to, session.Network)
}

// relayBroadcast fans content out to every mutual peer concurrently and
// returns how many remote agents accepted it.
func (s *MailboxService) relayBroadcast(ctx context.Context, session domain.Session, content string) int {
	peers, err := s.peers.MutualPeers(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("skipping broadcast relay")
		return 0
	}

	var (
		total atomic.Int64
		group errgroup.Group
	)
	group.SetLimit(maxConcurrentRelays)
	for _, peer := range peers {
		group.Go(func() error {
			delivered, err := s.client.Deliver(ctx, peer, ports.Delivery{
				Sender:    session.Agent,
				Network:   session.Network,
				Content:   content,
				Broadcast: true,
			})
			if err != nil {
				s.logger.Warn().Err(err).Str("peer", string(peer.Name)).Msg("broadcast relay failed")
				return nil
			}
			total.Add(int64(delivered))
			return nil
		})
	}
	_ = group.Wait()

	return int(total.Load())
}

// remoteAgents collects the agent listings of every mutual peer.
func (s *MailboxService) remoteAgents(ctx context.Context, network domain.NetworkID) ([]domain.RemoteAgent, error) {
	peers, err := s.peers.MutualPeers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list mutual peers: %w", err)
	}

	agents := make([]domain.RemoteAgent, 0)
	for _, peer := range peers {
		listed, err := s.client.ListAgents(ctx, peer, network)
		if err != nil {
			s.logger.Warn().Err(err).Str("peer", string(peer.Name)).Msg("skipping peer agent listing")
			continue
		}
		agents = append(agents, listed...)
	}

	return agents, nil
}

func (s *MailboxService) forgetPeerAgents(name domain.PeerName) {
	if cache, ok := s.client.(peerCacheInvalidator); ok {
		cache.Invalidate(name)
	}
}

func hasActiveAgent(agents []domain.RemoteAgent, id domain.AgentID) bool {
	for _, agent := range agents {
		if agent.Agent == id && agent.Active {
			return true
		}
	}
	return false
}
