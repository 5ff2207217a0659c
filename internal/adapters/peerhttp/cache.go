package peerhttp

import (
	"context"
	"sync"
	"time"

	"github.com/bnema/agent-network/internal/domain"
	"github.com/bnema/agent-network/internal/ports"
)

type cacheKey struct {
	peer    domain.PeerName
	network domain.NetworkID
}

type cacheEntry struct {
	agents    []domain.RemoteAgent
	fetchedAt time.Time
}

// CachingClient remembers successful agent listings per (peer, network)
// for a fixed TTL. Every other call goes straight to the wrapped client.
type CachingClient struct {
	ports.PeerClient

	clock ports.Clock
	ttl   time.Duration

	mu      sync.Mutex
	entries map[cacheKey]cacheEntry
}

var _ ports.PeerClient = (*CachingClient)(nil)

func NewCachingClient(inner ports.PeerClient, clock ports.Clock, ttl time.Duration) *CachingClient {
	if clock == nil {
		clock = ports.SystemClock{}
	}
	if ttl <= 0 {
		ttl = domain.PeerAgentCacheTTL
	}
	return &CachingClient{
		PeerClient: inner,
		clock:      clock,
		ttl:        ttl,
		entries:    make(map[cacheKey]cacheEntry),
	}
}

func (c *CachingClient) ListAgents(ctx context.Context, peer domain.Peer, network domain.NetworkID) ([]domain.RemoteAgent, error) {
	key := cacheKey{peer: peer.Name, network: network}
	now := c.clock.Now()

	c.mu.Lock()
	entry, ok := c.entries[key]
	c.mu.Unlock()
	if ok && now.Sub(entry.fetchedAt) < c.ttl {
		return cloneAgents(entry.agents), nil
	}

	agents, err := c.PeerClient.ListAgents(ctx, peer, network)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.entries[key] = cacheEntry{agents: cloneAgents(agents), fetchedAt: now}
	c.mu.Unlock()

	return agents, nil
}

// Invalidate drops every cached listing of peer.
func (c *CachingClient) Invalidate(peer domain.PeerName) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for key := range c.entries {
		if key.peer == peer {
			delete(c.entries, key)
		}
	}
}

func cloneAgents(agents []domain.RemoteAgent) []domain.RemoteAgent {
	out := make([]domain.RemoteAgent, len(agents))
	copy(out, agents)
	return out
}
