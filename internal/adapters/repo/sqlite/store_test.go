package sqlite

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/bnema/agent-network/internal/domain"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var baseTime = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := Open(context.Background(), filepath.Join(t.TempDir(), "agent_network.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func joinAt(t *testing.T, store *Store, token, agent, network string, now time.Time) {
	t.Helper()

	_, err := store.Join(context.Background(), domain.Session{
		Token:   domain.SessionToken(token),
		Agent:   domain.AgentID(agent),
		Network: domain.NetworkID(network),
	}, now)
	require.NoError(t, err)
}

func message(network, sender, recipient, content string, at time.Time) domain.Message {
	return domain.Message{
		Network:   domain.NetworkID(network),
		Sender:    domain.AgentID(sender),
		Recipient: domain.AgentID(recipient),
		Content:   content,
		CreatedAt: at,
	}
}

func TestNewStoreReadsConfiguredPath(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nested", "mail.db")
	cfg := viper.New()
	cfg.Set("db", path)

	store, err := NewStore(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	assert.Equal(t, path, store.Path())
	require.NoError(t, store.Ping(context.Background()))
}

func TestNewStoreRejectsEmptyPath(t *testing.T) {
	t.Parallel()

	_, err := NewStore(context.Background(), viper.New())
	require.Error(t, err)
}

func TestJoinReportsOtherLiveAgents(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	joinAt(t, store, "s-old", "ghost", "team", baseTime.Add(-time.Minute))
	joinAt(t, store, "s-a", "alice", "team", baseTime)
	joinAt(t, store, "s-x", "xavier", "other", baseTime)

	outcome, err := store.Join(context.Background(), domain.Session{
		Token:   "s-b",
		Agent:   "bob",
		Network: "team",
		Role:    "reviewer",
	}, baseTime.Add(time.Second))
	require.NoError(t, err)

	require.Len(t, outcome.Others, 1)
	assert.Equal(t, domain.AgentID("alice"), outcome.Others[0].Agent)
	assert.Empty(t, outcome.Evicted)

	session, err := store.SessionByToken(context.Background(), "s-b")
	require.NoError(t, err)
	assert.Equal(t, "reviewer", session.Role)
	assert.True(t, session.JoinedAt.Equal(baseTime.Add(time.Second)))
}

func TestJoinAgentTakeover(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		secondJoin  time.Duration
		wantErr     error
		wantEvicted domain.SessionToken
	}{
		{name: "live holder keeps the id", secondJoin: 29 * time.Second, wantErr: domain.ErrAgentTaken},
		{name: "stale holder is evicted", secondJoin: 31 * time.Second, wantEvicted: "s-1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			store := newTestStore(t)
			joinAt(t, store, "s-1", "alice", "team", baseTime)

			outcome, err := store.Join(context.Background(), domain.Session{
				Token: "s-2", Agent: "alice", Network: "team",
			}, baseTime.Add(tt.secondJoin))

			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				_, lookupErr := store.SessionByToken(context.Background(), "s-1")
				require.NoError(t, lookupErr)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantEvicted, outcome.Evicted)
			_, lookupErr := store.SessionByToken(context.Background(), "s-1")
			require.ErrorIs(t, lookupErr, domain.ErrNotJoined)
		})
	}
}

func TestRejoinMovesSessionToNewNetwork(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	joinAt(t, store, "s-1", "alice", "team", baseTime)
	joinAt(t, store, "s-1", "alice2", "lab", baseTime.Add(time.Second))

	session, err := store.SessionByToken(context.Background(), "s-1")
	require.NoError(t, err)
	assert.Equal(t, domain.Identity{Agent: "alice2", Network: "lab"}, session.Identity())

	team, err := store.ListSessions(context.Background(), "team")
	require.NoError(t, err)
	assert.Empty(t, team)
}

func TestLiveSessionHonoursExpiry(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	joinAt(t, store, "s-1", "alice", "team", baseTime)
	id := domain.Identity{Agent: "alice", Network: "team"}

	_, err := store.LiveSession(context.Background(), id, baseTime.Add(10*time.Second))
	require.NoError(t, err)

	_, err = store.LiveSession(context.Background(), id, baseTime.Add(30*time.Second))
	require.ErrorIs(t, err, domain.ErrRecipientNotFound)

	require.NoError(t, store.Touch(context.Background(), "s-1", baseTime.Add(25*time.Second)))
	_, err = store.LiveSession(context.Background(), id, baseTime.Add(30*time.Second))
	require.NoError(t, err)
}

func TestLeaveRemovesSession(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	joinAt(t, store, "s-1", "alice", "team", baseTime)

	require.NoError(t, store.Leave(context.Background(), "s-1"))

	_, err := store.SessionByToken(context.Background(), "s-1")
	require.ErrorIs(t, err, domain.ErrNotJoined)
}

func TestEnqueueUnreadCap(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	limits := domain.DefaultSendLimits()

	for i := range limits.UnreadCap {
		_, err := store.Enqueue(context.Background(), message("team", "alice", "bob", fmt.Sprintf("m%d", i), baseTime), limits)
		require.NoError(t, err)
	}

	_, err := store.Enqueue(context.Background(), message("team", "alice", "bob", "one too many", baseTime), limits)
	require.ErrorIs(t, err, domain.ErrRecipientInboxFull)

	_, err = store.Enqueue(context.Background(), message("team", "carol", "bob", "different sender", baseTime), limits)
	require.NoError(t, err)
}

func TestEnqueueRateLimit(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	joinAt(t, store, "s-bob", "bob", "team", baseTime)
	limits := domain.DefaultSendLimits()
	bob := domain.Identity{Agent: "bob", Network: "team"}

	for i := range limits.RateCount {
		at := baseTime.Add(time.Duration(i) * time.Second)
		_, err := store.Enqueue(context.Background(), message("team", "alice", "bob", "hi", at), limits)
		require.NoError(t, err)
		_, _, err = store.Fetch(context.Background(), "s-bob", bob, domain.InboxBatch, at)
		require.NoError(t, err)
	}

	_, err := store.Enqueue(context.Background(), message("team", "alice", "bob", "eleventh", baseTime.Add(20*time.Second)), limits)
	require.ErrorIs(t, err, domain.ErrRateLimited)

	_, err = store.Enqueue(context.Background(), message("team", "alice", "bob", "later", baseTime.Add(61*time.Second)), limits)
	require.NoError(t, err)
}

func TestConcurrentEnqueueNeverExceedsUnreadCap(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "agent_network.db")
	limits := domain.DefaultSendLimits()

	const writers = 12
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		capped    int
	)
	for i := range writers {
		wg.Add(1)
		go func() {
			defer wg.Done()

			store, err := Open(context.Background(), path)
			if !assert.NoError(t, err) {
				return
			}
			defer func() { _ = store.Close() }()

			_, err = store.Enqueue(context.Background(), message("team", "alice", "bob", fmt.Sprintf("m%d", i), baseTime), limits)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case assert.ErrorIs(t, err, domain.ErrRecipientInboxFull):
				capped++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, limits.UnreadCap, succeeded)
	assert.Equal(t, writers-limits.UnreadCap, capped)
}

func TestFetchDeliversOldestFirstIncludingSystemNotices(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	joinAt(t, store, "s-bob", "bob", "team", baseTime)
	limits := domain.DefaultSendLimits()
	bob := domain.Identity{Agent: "bob", Network: "team"}

	_, err := store.Enqueue(context.Background(), message("team", "alice", "bob", "first", baseTime.Add(time.Second)), limits)
	require.NoError(t, err)
	require.NoError(t, store.NotifyAll(context.Background(), "peer notice", baseTime.Add(2*time.Second)))
	_, err = store.Enqueue(context.Background(), message("team", "carol", "bob", "third", baseTime.Add(3*time.Second)), limits)
	require.NoError(t, err)
	_, err = store.Enqueue(context.Background(), message("other", "alice", "bob", "wrong network", baseTime.Add(4*time.Second)), limits)
	require.NoError(t, err)

	fetchedAt := baseTime.Add(5 * time.Second)
	got, remaining, err := store.Fetch(context.Background(), "s-bob", bob, 2, fetchedAt)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "first", got[0].Content)
	assert.Equal(t, "peer notice", got[1].Content)
	assert.True(t, got[1].IsSystem())
	assert.Equal(t, domain.SystemNetwork, got[1].Network)
	assert.Equal(t, domain.MessageDelivered, got[0].Status)
	assert.True(t, got[0].DeliveredAt.Equal(fetchedAt))
	assert.Equal(t, 1, remaining)

	session, err := store.SessionByToken(context.Background(), "s-bob")
	require.NoError(t, err)
	assert.True(t, session.LastSeen.Equal(fetchedAt))

	got, remaining, err = store.Fetch(context.Background(), "s-bob", bob, domain.InboxBatch, fetchedAt)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "third", got[0].Content)
	assert.Zero(t, remaining)

	got, _, err = store.Fetch(context.Background(), "s-bob", bob, domain.InboxBatch, fetchedAt)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestEnqueueBroadcastSkipsCappedRecipients(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	limits := domain.DefaultSendLimits()

	for range limits.UnreadCap {
		_, err := store.Enqueue(context.Background(), message("team", "alice", "carol", "busy", baseTime), limits)
		require.NoError(t, err)
	}

	outcome, err := store.EnqueueBroadcast(context.Background(), message("team", "alice", "", "hello all", baseTime), []domain.AgentID{"bob", "carol", "dave"}, limits)
	require.NoError(t, err)

	assert.Len(t, outcome.Delivered, 2)
	require.Len(t, outcome.Skipped, 1)
	assert.Equal(t, domain.AgentID("carol"), outcome.Skipped[0].Agent)
	assert.ErrorIs(t, outcome.Skipped[0].Reason, domain.ErrRecipientInboxFull)

	count, err := store.PendingCount(context.Background(), domain.Identity{Agent: "bob", Network: "team"})
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	history, err := store.History(context.Background(), domain.HistoryFilter{Network: "team", Agent: "bob"})
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.True(t, history[0].Broadcast)
}

func TestEnqueueRelayedPendingCap(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	msg := message("team", "remote-alice", "", "relayed", baseTime)

	delivered, err := store.EnqueueRelayed(context.Background(), msg, []domain.AgentID{"bob", "carol"}, 3)
	require.NoError(t, err)
	assert.Equal(t, 2, delivered)

	delivered, err = store.EnqueueRelayed(context.Background(), msg, []domain.AgentID{"bob"}, 3)
	require.NoError(t, err)
	assert.Equal(t, 1, delivered)

	_, err = store.EnqueueRelayed(context.Background(), msg, []domain.AgentID{"bob"}, 3)
	require.ErrorIs(t, err, domain.ErrSenderPendingCap)

	other := message("lab", "remote-alice", "", "other network", baseTime)
	_, err = store.EnqueueRelayed(context.Background(), other, []domain.AgentID{"bob"}, 3)
	require.NoError(t, err)
}

func TestSweepRemovesOnlyOldDeliveredMessages(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	joinAt(t, store, "s-bob", "bob", "team", baseTime)
	limits := domain.DefaultSendLimits()
	bob := domain.Identity{Agent: "bob", Network: "team"}

	_, err := store.Enqueue(context.Background(), message("team", "alice", "bob", "old", baseTime), limits)
	require.NoError(t, err)
	_, _, err = store.Fetch(context.Background(), "s-bob", bob, domain.InboxBatch, baseTime)
	require.NoError(t, err)

	_, err = store.Enqueue(context.Background(), message("team", "alice", "bob", "recent", baseTime.Add(6*24*time.Hour)), limits)
	require.NoError(t, err)
	_, _, err = store.Fetch(context.Background(), "s-bob", bob, domain.InboxBatch, baseTime.Add(6*24*time.Hour))
	require.NoError(t, err)

	_, err = store.Enqueue(context.Background(), message("team", "carol", "bob", "never read", baseTime), limits)
	require.NoError(t, err)

	now := baseTime.Add(8 * 24 * time.Hour)
	removed, err := store.Sweep(context.Background(), now.Add(-domain.RetentionPeriod))
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	history, err := store.History(context.Background(), domain.HistoryFilter{Network: "team"})
	require.NoError(t, err)
	contents := make([]string, 0, len(history))
	for _, msg := range history {
		contents = append(contents, msg.Content)
	}
	assert.ElementsMatch(t, []string{"recent", "never read"}, contents)
}

func TestHistoryFilters(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	limits := domain.DefaultSendLimits()

	for i, msg := range []domain.Message{
		message("team", "alice", "bob", "a->b", baseTime),
		message("team", "bob", "carol", "b->c", baseTime.Add(time.Minute)),
		message("team", "carol", "dave", "c->d", baseTime.Add(2*time.Minute)),
		message("lab", "alice", "bob", "elsewhere", baseTime.Add(3*time.Minute)),
	} {
		_, err := store.Enqueue(context.Background(), msg, limits)
		require.NoError(t, err, "message %d", i)
	}

	tests := []struct {
		name   string
		filter domain.HistoryFilter
		want   []string
	}{
		{name: "whole network", filter: domain.HistoryFilter{Network: "team"}, want: []string{"a->b", "b->c", "c->d"}},
		{name: "since", filter: domain.HistoryFilter{Network: "team", Since: baseTime.Add(time.Minute)}, want: []string{"b->c", "c->d"}},
		{name: "agent", filter: domain.HistoryFilter{Network: "team", Agent: "bob"}, want: []string{"a->b", "b->c"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := store.History(context.Background(), tt.filter)
			require.NoError(t, err)

			contents := make([]string, 0, len(got))
			for _, msg := range got {
				contents = append(contents, msg.Content)
			}
			assert.Equal(t, tt.want, contents)
		})
	}
}

func TestNetworksSummarizesSessions(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	joinAt(t, store, "s-1", "alice", "team", baseTime)
	joinAt(t, store, "s-2", "bob", "team", baseTime.Add(time.Minute))
	joinAt(t, store, "s-3", "carol", "lab", baseTime.Add(2*time.Minute))

	networks, err := store.Networks(context.Background())
	require.NoError(t, err)
	require.Len(t, networks, 2)

	assert.Equal(t, domain.NetworkID("lab"), networks[0].Network)
	assert.Equal(t, domain.NetworkID("team"), networks[1].Network)
	assert.Equal(t, []domain.AgentID{"alice", "bob"}, networks[1].Agents)
	assert.True(t, networks[1].LastActive.Equal(baseTime.Add(time.Minute)))
}

func TestPeerLifecycle(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SavePeer(ctx, domain.Peer{
		Name: "laptop", URL: "http://laptop:7777", Secret: "s3cret", Trust: domain.TrustOutbound, CreatedAt: baseTime,
	}))

	peer, err := store.GetPeer(ctx, "laptop")
	require.NoError(t, err)
	assert.Equal(t, domain.TrustOutbound, peer.Trust)
	assert.True(t, peer.LastSeen.IsZero())

	mutual, err := store.MutualPeers(ctx)
	require.NoError(t, err)
	assert.Empty(t, mutual)

	require.NoError(t, store.ConfirmPairing(ctx, "laptop", "paired", baseTime.Add(time.Minute)))

	peer, err = store.GetPeer(ctx, "laptop")
	require.NoError(t, err)
	assert.Equal(t, domain.TrustMutual, peer.Trust)
	assert.True(t, peer.LastSeen.Equal(baseTime.Add(time.Minute)))

	mutual, err = store.MutualPeers(ctx)
	require.NoError(t, err)
	require.Len(t, mutual, 1)
	assert.Equal(t, "s3cret", mutual[0].Secret)

	require.NoError(t, store.DeletePeer(ctx, "laptop"))
	require.ErrorIs(t, store.DeletePeer(ctx, "laptop"), domain.ErrPeerNotFound)
	_, err = store.GetPeer(ctx, "laptop")
	require.ErrorIs(t, err, domain.ErrPeerNotFound)
	require.ErrorIs(t, store.SetTrust(ctx, "laptop", domain.TrustInbound, baseTime), domain.ErrPeerNotFound)
}

func TestRecordPairRequestNotifiesEverySession(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	joinAt(t, store, "s-1", "alice", "team", baseTime)
	joinAt(t, store, "s-2", "bob", "lab", baseTime)

	err := store.RecordPairRequest(context.Background(), domain.Peer{
		Name: "desktop", URL: "http://desktop:7777", Secret: "x", Trust: domain.TrustInbound, CreatedAt: baseTime,
	}, "desktop wants to pair")
	require.NoError(t, err)

	peers, err := store.ListPeers(context.Background())
	require.NoError(t, err)
	require.Len(t, peers, 1)
	assert.Equal(t, domain.TrustInbound, peers[0].Trust)

	for _, id := range []domain.Identity{{Agent: "alice", Network: "team"}, {Agent: "bob", Network: "lab"}} {
		count, err := store.PendingCount(context.Background(), id)
		require.NoError(t, err)
		assert.Equal(t, 1, count, "agent %s", id.Agent)
	}
}

func TestListPeersIgnoresUnknownStates(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	_, err := store.db.Exec(
		`INSERT INTO peers (name, url, status, direction, created_at) VALUES ('old', 'http://old', 'rejected', 'inbound', 1)`,
	)
	require.NoError(t, err)

	peers, err := store.ListPeers(context.Background())
	require.NoError(t, err)
	assert.Empty(t, peers)
}

func TestTimestampsSurviveRoundTrip(t *testing.T) {
	t.Parallel()

	at := time.Date(2026, 3, 1, 10, 0, 0, 250_000_000, time.UTC)
	assert.WithinDuration(t, at, fromUnix(toUnix(at)), time.Microsecond)
	assert.True(t, fromNullUnix(nullUnix(time.Time{})).IsZero())
}

func TestConcurrentFetchDeliversEachMessageOnce(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "agent_network.db")
	seed, err := Open(context.Background(), path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = seed.Close() })

	joinAt(t, seed, "s-bob", "bob", "team", baseTime)
	limits := domain.DefaultSendLimits()
	const senders = 20
	for s := range senders {
		for i := range limits.UnreadCap {
			at := baseTime.Add(time.Duration(s*limits.UnreadCap+i) * time.Millisecond)
			_, err := seed.Enqueue(context.Background(), message("team", fmt.Sprintf("sender%d", s), "bob", fmt.Sprintf("m%d", i), at), limits)
			require.NoError(t, err)
		}
	}
	total := senders * limits.UnreadCap

	const readers = 8
	bob := domain.Identity{Agent: "bob", Network: "team"}
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		seen = make(map[domain.MessageID]int)
	)
	for range readers {
		wg.Add(1)
		go func() {
			defer wg.Done()

			store, err := Open(context.Background(), path)
			if !assert.NoError(t, err) {
				return
			}
			defer func() { _ = store.Close() }()

			for {
				got, _, err := store.Fetch(context.Background(), "s-bob", bob, domain.InboxBatch, baseTime.Add(time.Second))
				if !assert.NoError(t, err) || len(got) == 0 {
					return
				}
				mu.Lock()
				for _, msg := range got {
					seen[msg.ID]++
				}
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Len(t, seen, total)
	for id, count := range seen {
		assert.Equal(t, 1, count, "message %d", id)
	}

	remaining, err := seed.PendingCount(context.Background(), bob)
	require.NoError(t, err)
	assert.Zero(t, remaining)
}

func TestRacingJoinsOnFreshAgentHaveOneWinner(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "agent_network.db")
	seed, err := Open(context.Background(), path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = seed.Close() })

	const joiners = 8
	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		joined int
		taken  int
	)
	for i := range joiners {
		wg.Add(1)
		go func() {
			defer wg.Done()

			store, err := Open(context.Background(), path)
			if !assert.NoError(t, err) {
				return
			}
			defer func() { _ = store.Close() }()

			_, err = store.Join(context.Background(), domain.Session{
				Token:   domain.SessionToken(fmt.Sprintf("s-%d", i)),
				Agent:   "alice",
				Network: "team",
			}, baseTime)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				joined++
			case assert.ErrorIs(t, err, domain.ErrAgentTaken):
				taken++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, joined)
	assert.Equal(t, joiners-1, taken)

	sessions, err := seed.ListSessions(context.Background(), "team")
	require.NoError(t, err)
	assert.Len(t, sessions, 1)
}

func TestSystemNoticesReachEveryNetworkOfAnAgent(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	joinAt(t, store, "s-team", "bob", "team", baseTime)
	joinAt(t, store, "s-lab", "bob", "lab", baseTime)
	require.NoError(t, store.NotifyAll(context.Background(), "laptop wants to pair", baseTime.Add(time.Second)))

	for _, tc := range []struct {
		token domain.SessionToken
		id    domain.Identity
	}{
		{token: "s-team", id: domain.Identity{Agent: "bob", Network: "team"}},
		{token: "s-lab", id: domain.Identity{Agent: "bob", Network: "lab"}},
	} {
		got, remaining, err := store.Fetch(context.Background(), tc.token, tc.id, domain.InboxBatch, baseTime.Add(2*time.Second))
		require.NoError(t, err)
		require.Len(t, got, 1, string(tc.id.Network))
		assert.True(t, got[0].IsSystem())
		assert.Equal(t, "laptop wants to pair", got[0].Content)
		assert.Zero(t, remaining)
	}
}

func TestUnscopedSystemNoticesStillReachTheAgent(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	joinAt(t, store, "s-bob", "bob", "team", baseTime)
	_, err := store.db.ExecContext(context.Background(),
		`INSERT INTO messages (network_id, sender_id, recipient_id, content, status, created_at)
		 VALUES (?, ?, 'bob', 'legacy notice', 'pending', ?)`,
		string(domain.SystemNetwork), string(domain.SystemSender), toUnix(baseTime))
	require.NoError(t, err)

	got, _, err := store.Fetch(context.Background(), "s-bob", domain.Identity{Agent: "bob", Network: "team"}, domain.InboxBatch, baseTime)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "legacy notice", got[0].Content)
}

func TestOpenAddsScopeColumnOnce(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "agent_network.db")
	for range 2 {
		store, err := Open(context.Background(), path)
		require.NoError(t, err)
		require.NoError(t, store.Close())
	}
}

func TestTakeoverKeepsTheAgentsMessages(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	joinAt(t, store, "s-old", "alice", "team", baseTime)
	_, err := store.Enqueue(context.Background(), message("team", "bob", "alice", "still here", baseTime), domain.DefaultSendLimits())
	require.NoError(t, err)

	takeover := baseTime.Add(domain.SessionExpiry + time.Second)
	outcome, err := store.Join(context.Background(), domain.Session{Token: "s-new", Agent: "alice", Network: "team"}, takeover)
	require.NoError(t, err)
	assert.Equal(t, domain.SessionToken("s-old"), outcome.Evicted)

	got, _, err := store.Fetch(context.Background(), "s-new", domain.Identity{Agent: "alice", Network: "team"}, domain.InboxBatch, takeover)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "still here", got[0].Content)
}
