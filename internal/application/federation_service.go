package application

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"

	"github.com/bnema/agent-network/internal/domain"
	"github.com/bnema/agent-network/internal/ports"
	"github.com/rs/zerolog"
)

// FederationService answers requests from paired machines.
type FederationService struct {
	store  ports.MailboxStore
	peers  ports.PeerStore
	clock  ports.Clock
	local  LocalNode
	logger zerolog.Logger
}

func NewFederationService(
	store ports.MailboxStore,
	peers ports.PeerStore,
	clock ports.Clock,
	local LocalNode,
	logger zerolog.Logger,
) *FederationService {
	if clock == nil {
		clock = ports.SystemClock{}
	}

	return &FederationService{
		store:  store,
		peers:  peers,
		clock:  clock,
		local:  local,
		logger: logger.With().Str("component", "federation").Logger(),
	}
}

func (s *FederationService) MachineName() string {
	return string(s.local.Name)
}

// Authenticate returns the mutual peer whose shared secret equals token.
func (s *FederationService) Authenticate(ctx context.Context, token string) (domain.Peer, error) {
	if token == "" {
		return domain.Peer{}, domain.ErrUnauthorized
	}

	peers, err := s.peers.MutualPeers(ctx)
	if err != nil {
		return domain.Peer{}, fmt.Errorf("list mutual peers: %w", err)
	}
	for _, peer := range peers {
		if secretMatches(peer.Secret, token) {
			return peer, nil
		}
	}

	return domain.Peer{}, domain.ErrUnauthorized
}

// ListLocalAgents lists every session of network for an authenticated peer
// and records that the peer was seen.
func (s *FederationService) ListLocalAgents(ctx context.Context, peer domain.Peer, network domain.NetworkID) ([]AgentView, error) {
	if strings.TrimSpace(string(network)) == "" {
		return nil, fmt.Errorf("%w: network_id", domain.ErrMissingField)
	}

	now := s.clock.Now()
	if err := s.peers.TouchPeer(ctx, peer.Name, now); err != nil {
		s.logger.Warn().Err(err).Str("peer", string(peer.Name)).Msg("touch peer")
	}

	sessions, err := s.store.ListSessions(ctx, network)
	if err != nil {
		return nil, fmt.Errorf("list network sessions: %w", err)
	}

	agents := make([]AgentView, 0, len(sessions))
	for _, session := range sessions {
		agents = append(agents, AgentView{
			AgentID:  session.Agent,
			Role:     session.Role,
			IsActive: session.IsLive(now),
		})
	}

	return agents, nil
}

// DeliverInbound queues a relayed message for local agents. A broadcast fans
// out to every live session of the network.
func (s *FederationService) DeliverInbound(ctx context.Context, peer domain.Peer, in InboundDelivery) (int, error) {
	if err := domain.ValidateContent(in.Content); err != nil {
		return 0, err
	}
	if strings.TrimSpace(string(in.Sender)) == "" {
		return 0, fmt.Errorf("%w: sender_id", domain.ErrMissingField)
	}
	if strings.TrimSpace(string(in.Network)) == "" {
		return 0, fmt.Errorf("%w: network_id", domain.ErrMissingField)
	}

	now := s.clock.Now()
	var recipients []domain.AgentID
	if in.Broadcast {
		sessions, err := s.store.ListSessions(ctx, in.Network)
		if err != nil {
			return 0, fmt.Errorf("list network sessions: %w", err)
		}
		for _, session := range sessions {
			if session.IsLive(now) {
				recipients = append(recipients, session.Agent)
			}
		}
		if len(recipients) == 0 {
			return 0, nil
		}
	} else {
		if strings.TrimSpace(string(in.Recipient)) == "" {
			return 0, fmt.Errorf("%w: recipient_id", domain.ErrMissingField)
		}
		if _, err := s.store.LiveSession(ctx, domain.Identity{Agent: in.Recipient, Network: in.Network}, now); err != nil {
			return 0, fmt.Errorf("agent %q: %w", in.Recipient, err)
		}
		recipients = []domain.AgentID{in.Recipient}
	}

	delivered, err := s.store.EnqueueRelayed(ctx, domain.Message{
		Network:   in.Network,
		Sender:    in.Sender,
		Content:   in.Content,
		Broadcast: in.Broadcast,
		CreatedAt: now,
	}, recipients, domain.InboundPendingCap)
	if err != nil {
		return 0, fmt.Errorf("queue relayed message: %w", err)
	}

	s.logger.Debug().
		Str("peer", string(peer.Name)).
		Str("network", string(in.Network)).
		Int("delivered", delivered).
		Msg("accepted relayed message")

	return delivered, nil
}

// ReceivePairRequest records an inbound pairing request. A request that
// would replace an existing shared secret must present that secret.
func (s *FederationService) ReceivePairRequest(ctx context.Context, req ports.PairingRequest) error {
	if strings.TrimSpace(string(req.Name)) == "" || strings.TrimSpace(req.URL) == "" {
		return fmt.Errorf("%w: name and url are required", domain.ErrMissingField)
	}
	if err := domain.ValidatePeerName(req.Name); err != nil {
		return err
	}

	existing, err := s.peers.GetPeer(ctx, req.Name)
	switch {
	case err == nil:
		if existing.Secret != "" && !secretMatches(existing.Secret, req.Secret) {
			return fmt.Errorf("pairing request from %q: %w", req.Name, domain.ErrUnauthorized)
		}
	case !errors.Is(err, domain.ErrPeerNotFound):
		return fmt.Errorf("load peer: %w", err)
	}

	now := s.clock.Now()
	notice := fmt.Sprintf("Pairing request from %q (%s). Run `anet peer approve %s` to accept.", req.Name, req.URL, req.Name)
	if err := s.peers.RecordPairRequest(ctx, domain.Peer{
		Name:      req.Name,
		URL:       strings.TrimRight(req.URL, "/"),
		Secret:    req.Secret,
		Trust:     domain.TrustInbound,
		CreatedAt: now,
	}, notice); err != nil {
		return fmt.Errorf("record pairing request: %w", err)
	}

	s.logger.Info().Str("peer", string(req.Name)).Str("url", req.URL).Msg("pairing request received")
	return nil
}

// AcceptPairing confirms a pairing this machine requested earlier.
func (s *FederationService) AcceptPairing(ctx context.Context, name domain.PeerName, bearer string) error {
	if strings.TrimSpace(string(name)) == "" {
		return fmt.Errorf("%w: name", domain.ErrMissingField)
	}

	peer, err := s.peers.GetPeer(ctx, name)
	if err != nil {
		return fmt.Errorf("load peer %q: %w", name, err)
	}
	if peer.Secret != "" && !secretMatches(peer.Secret, bearer) {
		return fmt.Errorf("pairing acceptance from %q: %w", name, domain.ErrUnauthorized)
	}

	notice := fmt.Sprintf("Peer %q pairing confirmed. Cross-machine messaging is now active.", name)
	if err := s.peers.ConfirmPairing(ctx, name, notice, s.clock.Now()); err != nil {
		return fmt.Errorf("confirm pairing: %w", err)
	}

	s.logger.Info().Str("peer", string(name)).Msg("pairing confirmed")
	return nil
}

func secretMatches(stored, presented string) bool {
	if stored == "" || presented == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(stored), []byte(presented)) == 1
}
