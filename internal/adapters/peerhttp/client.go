package peerhttp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/bnema/agent-network/internal/domain"
	"github.com/bnema/agent-network/internal/metrics"
	"github.com/bnema/agent-network/internal/ports"
	"github.com/rs/zerolog"
)

const (
	DefaultTimeout  = 10 * time.Second
	maxResponseBody = 1 << 20
)

// Client speaks the federation protocol to remote servers.
type Client struct {
	http   *http.Client
	logger zerolog.Logger
}

var _ ports.PeerClient = (*Client)(nil)

func NewClient(timeout time.Duration, logger zerolog.Logger) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		http:   &http.Client{Timeout: timeout},
		logger: logger.With().Str("component", "peer_client").Logger(),
	}
}

func (c *Client) RequestPairing(ctx context.Context, baseURL string, req ports.PairingRequest) error {
	body := PairRequest{Name: string(req.Name), URL: req.URL, Secret: req.Secret}
	return c.do(ctx, "", http.MethodPost, endpoint(baseURL, PathPairRequest, nil), req.Secret, body, nil)
}

func (c *Client) AcceptPairing(ctx context.Context, peer domain.Peer, self domain.PeerName) error {
	body := PairAcceptRequest{Name: string(self)}
	return c.do(ctx, peer.Name, http.MethodPost, endpoint(peer.URL, PathPairAccept, nil), peer.Secret, body, nil)
}

func (c *Client) ListAgents(ctx context.Context, peer domain.Peer, network domain.NetworkID) ([]domain.RemoteAgent, error) {
	query := url.Values{}
	query.Set(QueryNetworkID, string(network))

	var resp AgentsResponse
	if err := c.do(ctx, peer.Name, http.MethodGet, endpoint(peer.URL, PathAgents, query), peer.Secret, nil, &resp); err != nil {
		return nil, err
	}

	agents := make([]domain.RemoteAgent, 0, len(resp.Agents))
	for _, entry := range resp.Agents {
		if entry.AgentID == "" {
			continue
		}
		agents = append(agents, domain.RemoteAgent{
			Agent:  domain.AgentID(entry.AgentID),
			Role:   entry.Role,
			Active: entry.IsActive,
			Peer:   peer.Name,
		})
	}

	return agents, nil
}

func (c *Client) Deliver(ctx context.Context, peer domain.Peer, delivery ports.Delivery) (int, error) {
	body := DeliverRequest{
		SenderID:    string(delivery.Sender),
		NetworkID:   string(delivery.Network),
		RecipientID: string(delivery.Recipient),
		Content:     delivery.Content,
		IsBroadcast: delivery.Broadcast,
	}

	var resp DeliverResponse
	if err := c.do(ctx, peer.Name, http.MethodPost, endpoint(peer.URL, PathDeliver, nil), peer.Secret, body, &resp); err != nil {
		return 0, err
	}

	return resp.DeliveredCount, nil
}

func (c *Client) Health(ctx context.Context, baseURL string) (ports.PeerHealth, error) {
	var resp HealthResponse
	if err := c.do(ctx, "", http.MethodGet, endpoint(baseURL, PathHealth, nil), "", nil, &resp); err != nil {
		return ports.PeerHealth{}, err
	}
	return ports.PeerHealth{Status: resp.Status, Machine: resp.Machine}, nil
}

// do sends one request. Only a 200 answer is a success; anything else from a
// reachable server becomes a *domain.PeerError.
func (c *Client) do(ctx context.Context, peer domain.PeerName, method, target, secret string, in any, out any) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode peer request: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return fmt.Errorf("build peer request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if secret != "" {
		req.Header.Set("Authorization", "Bearer "+secret)
	}

	started := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		observe(req.URL.Path, outcomeUnreachable, started)
		c.logger.Debug().Err(err).Str("peer", string(peer)).Str("url", target).Msg("peer request failed")
		return fmt.Errorf("%w: %s %s: %w", domain.ErrPeerUnreachable, method, target, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		observe(req.URL.Path, outcomeUnreachable, started)
		return fmt.Errorf("%w: read response from %s: %w", domain.ErrPeerUnreachable, target, err)
	}

	c.logger.Debug().
		Str("peer", string(peer)).
		Str("method", method).
		Str("url", target).
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(started)).
		Msg("peer request")

	if resp.StatusCode != http.StatusOK {
		observe(req.URL.Path, outcomeRejected, started)
		var errResp ErrorResponse
		_ = json.Unmarshal(data, &errResp)
		return &domain.PeerError{Peer: peer, StatusCode: resp.StatusCode, Message: errResp.Error}
	}

	observe(req.URL.Path, outcomeOK, started)
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode peer response: %w", err)
	}

	return nil
}

const (
	outcomeOK          = "ok"
	outcomeRejected    = "rejected"
	outcomeUnreachable = "unreachable"
)

func observe(path, outcome string, started time.Time) {
	metrics.PeerRequests.WithLabelValues(path, outcome).Inc()
	metrics.PeerLatency.WithLabelValues(path).Observe(time.Since(started).Seconds())
}

func endpoint(baseURL, path string, query url.Values) string {
	target := strings.TrimRight(baseURL, "/") + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	return target
}
