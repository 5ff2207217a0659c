package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/bnema/agent-network/internal/adapters/peerhttp"
	sqliterepo "github.com/bnema/agent-network/internal/adapters/repo/sqlite"
	"github.com/bnema/agent-network/internal/application"
	"github.com/bnema/agent-network/internal/domain"
	"github.com/bnema/agent-network/internal/ports"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time {
	return c.now
}

type fixture struct {
	store  *sqliterepo.Store
	server *httptest.Server
	clock  fixedClock
}

func newFixture(t *testing.T, opts Options) *fixture {
	t.Helper()
	return newMachineFixture(t, "desk", opts)
}

func newMachineFixture(t *testing.T, machine domain.PeerName, opts Options) *fixture {
	t.Helper()

	store, err := sqliterepo.Open(context.Background(), filepath.Join(t.TempDir(), "agent_network.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	clock := fixedClock{now: time.Now().Truncate(time.Second)}
	fed := application.NewFederationService(store, store, clock, application.LocalNode{Name: machine}, zerolog.Nop())
	server := httptest.NewServer(NewRouter(fed, zerolog.Nop(), opts))
	t.Cleanup(server.Close)

	return &fixture{store: store, server: server, clock: clock}
}

func (f *fixture) join(t *testing.T, token domain.SessionToken, agent domain.AgentID, network domain.NetworkID) {
	t.Helper()

	now := f.clock.Now()
	_, err := f.store.Join(context.Background(), domain.Session{
		Token: token, Agent: agent, Network: network, JoinedAt: now, LastSeen: now,
	}, now)
	require.NoError(t, err)
}

func (f *fixture) pairMutual(t *testing.T, name domain.PeerName, secret string) domain.Peer {
	t.Helper()

	peer := domain.Peer{Name: name, URL: f.server.URL, Secret: secret, Trust: domain.TrustMutual, CreatedAt: f.clock.Now()}
	require.NoError(t, f.store.SavePeer(context.Background(), peer))
	return peer
}

func (f *fixture) post(t *testing.T, path, bearer string, body any) (*http.Response, map[string]any) {
	t.Helper()

	payload, err := json.Marshal(body)
	require.NoError(t, err)
	req, err := http.NewRequest(http.MethodPost, f.server.URL+path, bytes.NewReader(payload))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	return f.do(t, req)
}

func (f *fixture) get(t *testing.T, path, bearer string) (*http.Response, map[string]any) {
	t.Helper()

	req, err := http.NewRequest(http.MethodGet, f.server.URL+path, nil)
	require.NoError(t, err)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	return f.do(t, req)
}

func (f *fixture) do(t *testing.T, req *http.Request) (*http.Response, map[string]any) {
	t.Helper()

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return resp, body
}

func TestHealthNeedsNoAuth(t *testing.T) {
	t.Parallel()

	f := newFixture(t, DefaultOptions())
	resp, body := f.get(t, peerhttp.PathHealth, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "desk", body["machine"])
}

func TestAgentsRequiresMutualPeerSecret(t *testing.T) {
	t.Parallel()

	f := newFixture(t, DefaultOptions())
	f.pairMutual(t, "laptop", "s3cret")
	require.NoError(t, f.store.SavePeer(context.Background(), domain.Peer{
		Name: "pending", URL: "http://p", Secret: "pending-secret", Trust: domain.TrustInbound, CreatedAt: f.clock.Now(),
	}))
	f.join(t, "s-bob", "bob", "team")

	tests := []struct {
		name   string
		bearer string
		status int
	}{
		{name: "no token", bearer: "", status: http.StatusUnauthorized},
		{name: "wrong token", bearer: "nope", status: http.StatusUnauthorized},
		{name: "pending peer", bearer: "pending-secret", status: http.StatusUnauthorized},
		{name: "mutual peer", bearer: "s3cret", status: http.StatusOK},
	}

	for _, tt := range tests {
		resp, body := f.get(t, peerhttp.PathAgents+"?network_id=team", tt.bearer)
		assert.Equal(t, tt.status, resp.StatusCode, tt.name)
		if tt.status == http.StatusOK {
			assert.EqualValues(t, 1, body["count"])
		} else {
			assert.Equal(t, "Unauthorized", body["error"])
		}
	}

	resp, _ := f.get(t, peerhttp.PathAgents, "s3cret")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestDeliverStatusCodes(t *testing.T) {
	t.Parallel()

	f := newFixture(t, DefaultOptions())
	f.pairMutual(t, "laptop", "s3cret")
	f.join(t, "s-bob", "bob", "team")

	tests := []struct {
		name   string
		req    peerhttp.DeliverRequest
		status int
	}{
		{name: "delivered", req: peerhttp.DeliverRequest{SenderID: "carol", NetworkID: "team", RecipientID: "bob", Content: "hi"}, status: http.StatusOK},
		{name: "missing recipient", req: peerhttp.DeliverRequest{SenderID: "carol", NetworkID: "team", Content: "hi"}, status: http.StatusBadRequest},
		{name: "unknown recipient", req: peerhttp.DeliverRequest{SenderID: "carol", NetworkID: "team", RecipientID: "zed", Content: "hi"}, status: http.StatusNotFound},
		{name: "too large", req: peerhttp.DeliverRequest{SenderID: "carol", NetworkID: "team", RecipientID: "bob", Content: strings.Repeat("x", domain.MaxContentLength+1)}, status: http.StatusBadRequest},
	}

	for _, tt := range tests {
		resp, body := f.post(t, peerhttp.PathDeliver, "s3cret", tt.req)
		assert.Equal(t, tt.status, resp.StatusCode, tt.name)
		if tt.status == http.StatusOK {
			assert.Equal(t, "delivered", body["status"])
			assert.EqualValues(t, 1, body["delivered_count"])
		} else {
			assert.NotEmpty(t, body["error"], tt.name)
		}
	}

	resp, _ := f.post(t, peerhttp.PathDeliver, "", peerhttp.DeliverRequest{SenderID: "carol", NetworkID: "team", RecipientID: "bob", Content: "hi"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestDeliverReturns429AtPendingCap(t *testing.T) {
	t.Parallel()

	f := newFixture(t, Options{RequestsPerSecond: 1000, Burst: 1000})
	f.pairMutual(t, "laptop", "s3cret")
	f.join(t, "s-bob", "bob", "team")

	req := peerhttp.DeliverRequest{SenderID: "carol", NetworkID: "team", RecipientID: "bob", Content: "again"}
	for i := 0; i < domain.InboundPendingCap; i++ {
		resp, _ := f.post(t, peerhttp.PathDeliver, "s3cret", req)
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}

	resp, body := f.post(t, peerhttp.PathDeliver, "s3cret", req)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.Contains(t, body["error"], "too many pending")
}

func TestPairRequestAndAccept(t *testing.T) {
	t.Parallel()

	f := newFixture(t, DefaultOptions())
	ctx := context.Background()

	resp, _ := f.post(t, peerhttp.PathPairRequest, "", peerhttp.PairRequest{Name: "laptop"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, body := f.post(t, peerhttp.PathPairRequest, "", peerhttp.PairRequest{Name: "laptop", URL: "http://laptop:7777", Secret: "s"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "pending", body["status"])

	peer, err := f.store.GetPeer(ctx, "laptop")
	require.NoError(t, err)
	assert.Equal(t, domain.TrustInbound, peer.Trust)

	resp, _ = f.post(t, peerhttp.PathPairAccept, "", peerhttp.PairAcceptRequest{Name: "ghost"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = f.post(t, peerhttp.PathPairAccept, "wrong", peerhttp.PairAcceptRequest{Name: "laptop"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, body = f.post(t, peerhttp.PathPairAccept, "s", peerhttp.PairAcceptRequest{Name: "laptop"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "approved", body["status"])
}

func TestRejectsMalformedAndOversizedBodies(t *testing.T) {
	t.Parallel()

	f := newFixture(t, DefaultOptions())

	req, err := http.NewRequest(http.MethodPost, f.server.URL+peerhttp.PathPairRequest, strings.NewReader("{not json"))
	require.NoError(t, err)
	resp, body := f.do(t, req)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "invalid JSON body", body["error"])

	big := `{"name":"x","url":"` + strings.Repeat("u", MaxBodyBytes) + `"}`
	req, err = http.NewRequest(http.MethodPost, f.server.URL+peerhttp.PathPairRequest, strings.NewReader(big))
	require.NoError(t, err)
	resp, _ = f.do(t, req)
	assert.Equal(t, http.StatusRequestEntityTooLarge, resp.StatusCode)
}

func TestRateLimiterRejectsBursts(t *testing.T) {
	t.Parallel()

	f := newFixture(t, Options{RequestsPerSecond: 0.001, Burst: 2})

	for i := 0; i < 2; i++ {
		resp, _ := f.get(t, peerhttp.PathHealth, "")
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}

	resp, body := f.get(t, peerhttp.PathHealth, "")
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, "rate limit exceeded", body["error"])
}

func TestUnknownRouteReturnsJSON404(t *testing.T) {
	t.Parallel()

	f := newFixture(t, DefaultOptions())
	resp, body := f.get(t, "/api/nope", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "Not found", body["error"])
}

func TestClientAndServerSpeakTheSameProtocol(t *testing.T) {
	t.Parallel()

	f := newFixture(t, DefaultOptions())
	ctx := context.Background()
	peer := f.pairMutual(t, "laptop", "s3cret")
	f.join(t, "s-bob", "bob", "team")
	f.join(t, "s-eve", "eve", "team")

	client := peerhttp.NewClient(5*time.Second, zerolog.Nop())

	health, err := client.Health(ctx, f.server.URL)
	require.NoError(t, err)
	assert.Equal(t, ports.PeerHealth{Status: "ok", Machine: "desk"}, health)

	agents, err := client.ListAgents(ctx, peer, "team")
	require.NoError(t, err)
	require.Len(t, agents, 2)
	assert.Equal(t, domain.PeerName("laptop"), agents[0].Peer)
	assert.True(t, agents[0].Active)

	delivered, err := client.Deliver(ctx, peer, ports.Delivery{Sender: "carol", Network: "team", Content: "all hands", Broadcast: true})
	require.NoError(t, err)
	assert.Equal(t, 2, delivered)

	_, err = client.Deliver(ctx, peer, ports.Delivery{Sender: "carol", Network: "team", Recipient: "zed", Content: "x"})
	var peerErr *domain.PeerError
	require.ErrorAs(t, err, &peerErr)
	assert.Equal(t, http.StatusNotFound, peerErr.StatusCode)
}
