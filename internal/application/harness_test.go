package application

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/bnema/agent-network/internal/adapters/identity/env"
	sqliterepo "github.com/bnema/agent-network/internal/adapters/repo/sqlite"
	"github.com/bnema/agent-network/internal/domain"
	"github.com/bnema/agent-network/internal/ports"
	portmocks "github.com/bnema/agent-network/internal/ports/mocks"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var testEpoch = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

type stepClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *stepClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type recordingAudit struct {
	mu     sync.Mutex
	events []ports.AuditEvent
}

func (a *recordingAudit) Append(_ context.Context, event ports.AuditEvent, _ map[string]any) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.events = append(a.events, event)
}

func (a *recordingAudit) Events() []ports.AuditEvent {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]ports.AuditEvent(nil), a.events...)
}

type harness struct {
	t      *testing.T
	store  *sqliterepo.Store
	client *portmocks.MockPeerClient
	clock  *stepClock
	audit  *recordingAudit
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	store, err := sqliterepo.Open(context.Background(), filepath.Join(t.TempDir(), "agent_network.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	return &harness{
		t:      t,
		store:  store,
		client: portmocks.NewMockPeerClient(t),
		clock:  &stepClock{now: testEpoch},
		audit:  &recordingAudit{},
	}
}

func (h *harness) resolver(token domain.SessionToken) *IdentityResolver {
	return NewIdentityResolver(env.NewProvider(string(token)), h.store)
}

func (h *harness) mailbox(token domain.SessionToken) *MailboxService {
	return NewMailboxService(h.store, h.store, h.client, h.resolver(token), h.audit, h.clock, zerolog.Nop())
}

// join registers token as agent in network and returns its mailbox.
func (h *harness) join(token domain.SessionToken, agent domain.AgentID, network domain.NetworkID) *MailboxService {
	h.t.Helper()

	svc := h.mailbox(token)
	_, err := svc.Join(context.Background(), JoinCommand{Network: network, Agent: agent})
	require.NoError(h.t, err)
	return svc
}

func (h *harness) savePeer(name domain.PeerName, secret string, trust domain.Trust) domain.Peer {
	h.t.Helper()

	peer := domain.Peer{
		Name:      name,
		URL:       "http://" + string(name) + ":7777",
		Secret:    secret,
		Trust:     trust,
		CreatedAt: h.clock.Now(),
	}
	require.NoError(h.t, h.store.SavePeer(context.Background(), peer))

	saved, err := h.store.GetPeer(context.Background(), name)
	require.NoError(h.t, err)
	return saved
}

func mockAnyContext() interface{} {
	return mock.Anything
}
