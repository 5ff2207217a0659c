package application

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bnema/agent-network/internal/domain"
	"github.com/bnema/agent-network/internal/ports"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// LocalNode describes how this machine presents itself to peers.
type LocalNode struct {
	Name domain.PeerName
	URL  string
}

type peerCacheInvalidator interface {
	Invalidate(peer domain.PeerName)
}

// PeerService runs the operator side of the pairing handshake.
type PeerService struct {
	peers  ports.PeerStore
	store  ports.MailboxStore
	client ports.PeerClient
	audit  ports.AuditLog
	clock  ports.Clock
	local  LocalNode
	secret func() string
	logger zerolog.Logger
}

func NewPeerService(
	peers ports.PeerStore,
	store ports.MailboxStore,
	client ports.PeerClient,
	audit ports.AuditLog,
	clock ports.Clock,
	local LocalNode,
	logger zerolog.Logger,
) *PeerService {
	if clock == nil {
		clock = ports.SystemClock{}
	}
	if audit == nil {
		audit = ports.NopAuditLog{}
	}

	return &PeerService{
		peers:  peers,
		store:  store,
		client: client,
		audit:  audit,
		clock:  clock,
		local:  local,
		secret: uuid.NewString,
		logger: logger.With().Str("component", "peers").Logger(),
	}
}

// Pair records an outbound pairing request and announces it to the remote
// machine. A remote that cannot be reached or refuses the request leaves the
// record pending with a warning.
func (s *PeerService) Pair(ctx context.Context, cmd PairCommand) (PairResult, error) {
	if strings.TrimSpace(s.local.URL) == "" {
		return PairResult{}, fmt.Errorf("%w: set AGENT_NETWORK_HTTP_URL before pairing", domain.ErrMissingLocalAddress)
	}
	if err := domain.ValidatePeerName(cmd.Name); err != nil {
		return PairResult{}, err
	}
	url := strings.TrimRight(strings.TrimSpace(cmd.URL), "/")
	if url == "" {
		return PairResult{}, fmt.Errorf("%w: url", domain.ErrMissingField)
	}

	existing, err := s.peers.GetPeer(ctx, cmd.Name)
	switch {
	case err == nil && existing.Trust == domain.TrustMutual:
		return PairResult{}, fmt.Errorf("%w: %q", domain.ErrAlreadyPaired, cmd.Name)
	case err != nil && !errors.Is(err, domain.ErrPeerNotFound):
		return PairResult{}, fmt.Errorf("load peer: %w", err)
	}

	secret := cmd.Secret
	if secret == "" {
		secret = s.secret()
	}

	if err := s.peers.SavePeer(ctx, domain.Peer{
		Name:      cmd.Name,
		URL:       url,
		Secret:    secret,
		Trust:     domain.TrustOutbound,
		CreatedAt: s.clock.Now(),
	}); err != nil {
		return PairResult{}, fmt.Errorf("save peer: %w", err)
	}

	result := PairResult{Status: domain.TrustOutbound.Status(), Peer: cmd.Name}
	err = s.client.RequestPairing(ctx, url, ports.PairingRequest{
		Name:   s.local.Name,
		URL:    s.local.URL,
		Secret: secret,
	})
	var peerErr *domain.PeerError
	switch {
	case err == nil:
		result.Message = "Pairing request sent. Waiting for remote approval."
	case errors.Is(err, domain.ErrPeerUnreachable):
		result.Warning = fmt.Sprintf("Could not reach %s. Pairing request saved locally, retry when the remote is online.", url)
	case errors.As(err, &peerErr):
		result.Warning = fmt.Sprintf("Remote returned %d: %s", peerErr.StatusCode, peerErr.Message)
	default:
		return PairResult{}, fmt.Errorf("request pairing: %w", err)
	}
	if result.Warning != "" {
		s.logger.Warn().Err(err).Str("peer", string(cmd.Name)).Msg("pairing request not delivered")
	}

	return result, nil
}

// Approve completes a pending pairing. The approval is rolled back when the
// remote cannot be reached; a remote that answers with an error keeps the
// approval and the error is reported as a warning.
func (s *PeerService) Approve(ctx context.Context, name domain.PeerName) (ApproveResult, error) {
	peer, err := s.peers.GetPeer(ctx, name)
	if err != nil {
		return ApproveResult{}, fmt.Errorf("load peer %q: %w", name, err)
	}
	if !peer.Trust.Pending() {
		return ApproveResult{}, fmt.Errorf("%w: %q is already approved", domain.ErrNotPending, name)
	}

	if err := s.peers.SetTrust(ctx, name, domain.TrustMutual, s.clock.Now()); err != nil {
		return ApproveResult{}, fmt.Errorf("approve peer: %w", err)
	}

	result := ApproveResult{Status: domain.TrustMutual.Status(), Peer: name, URL: peer.URL}
	err = s.client.AcceptPairing(ctx, peer, s.local.Name)
	var peerErr *domain.PeerError
	switch {
	case err == nil:
	case errors.As(err, &peerErr):
		result.Warning = fmt.Sprintf("Remote returned %d: %s", peerErr.StatusCode, peerErr.Message)
		s.logger.Warn().Err(err).Str("peer", string(name)).Msg("remote rejected pairing acceptance")
	default:
		rollbackErr := s.peers.SetTrust(ctx, name, domain.TrustInbound, s.clock.Now())
		if rollbackErr != nil {
			return ApproveResult{}, errors.Join(fmt.Errorf("accept pairing with %q: %w", name, err), fmt.Errorf("revert peer: %w", rollbackErr))
		}
		return ApproveResult{}, fmt.Errorf("accept pairing with %q at %s (reverted to pending): %w", name, peer.URL, err)
	}

	notice := fmt.Sprintf("Peer %q approved. Agents on %s are now reachable.", name, peer.URL)
	if err := s.store.NotifyAll(ctx, notice, s.clock.Now()); err != nil {
		s.logger.Warn().Err(err).Msg("notify local sessions")
	}
	s.audit.Append(ctx, ports.AuditPeerApproved, map[string]any{"peer": string(name)})

	return result, nil
}

func (s *PeerService) ListPeers(ctx context.Context) (PeersResult, error) {
	peers, err := s.peers.ListPeers(ctx)
	if err != nil {
		return PeersResult{}, fmt.Errorf("list peers: %w", err)
	}

	views := make([]PeerView, 0, len(peers))
	for _, peer := range peers {
		views = append(views, peerView(peer))
	}

	return PeersResult{Peers: views, Count: len(views)}, nil
}

func (s *PeerService) RemovePeer(ctx context.Context, name domain.PeerName) (RemovePeerResult, error) {
	if err := s.peers.DeletePeer(ctx, name); err != nil {
		return RemovePeerResult{}, fmt.Errorf("remove peer %q: %w", name, err)
	}
	if cache, ok := s.client.(peerCacheInvalidator); ok {
		cache.Invalidate(name)
	}

	s.audit.Append(ctx, ports.AuditPeerRemoved, map[string]any{"peer": string(name)})
	return RemovePeerResult{Status: "removed", Peer: name}, nil
}

// Ping checks the health endpoint of a known peer.
func (s *PeerService) Ping(ctx context.Context, name domain.PeerName) (PingResult, error) {
	peer, err := s.peers.GetPeer(ctx, name)
	if err != nil {
		return PingResult{}, fmt.Errorf("load peer %q: %w", name, err)
	}

	start := s.clock.Now()
	health, err := s.client.Health(ctx, peer.URL)
	if err != nil {
		return PingResult{}, fmt.Errorf("ping peer %q: %w", name, err)
	}

	return PingResult{
		Status:    health.Status,
		Peer:      name,
		Machine:   health.Machine,
		LatencyMS: s.clock.Now().Sub(start).Milliseconds(),
	}, nil
}
