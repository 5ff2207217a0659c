package ports

import (
	"context"
	"time"

	"github.com/bnema/agent-network/internal/domain"
)

type JoinOutcome struct {
	// Evicted is the token of a stale session that held the same agent id.
	Evicted domain.SessionToken
	Others  []domain.Session
}

type BroadcastOutcome struct {
	Delivered []domain.MessageID
	Skipped   []domain.SkippedRecipient
}

// MailboxStore owns sessions and messages. Every mutating method is atomic
// across processes sharing the same store.
type MailboxStore interface {
	Join(ctx context.Context, session domain.Session, now time.Time) (JoinOutcome, error)
	Leave(ctx context.Context, token domain.SessionToken) error
	SessionByToken(ctx context.Context, token domain.SessionToken) (domain.Session, error)
	Touch(ctx context.Context, token domain.SessionToken, now time.Time) error
	LiveSession(ctx context.Context, id domain.Identity, now time.Time) (domain.Session, error)
	ListSessions(ctx context.Context, network domain.NetworkID) ([]domain.Session, error)

	Enqueue(ctx context.Context, msg domain.Message, limits domain.SendLimits) (domain.MessageID, error)
	EnqueueBroadcast(ctx context.Context, msg domain.Message, recipients []domain.AgentID, limits domain.SendLimits) (BroadcastOutcome, error)
	EnqueueRelayed(ctx context.Context, msg domain.Message, recipients []domain.AgentID, pendingCap int) (int, error)
	NotifyAll(ctx context.Context, content string, now time.Time) error

	Fetch(ctx context.Context, token domain.SessionToken, id domain.Identity, limit int, now time.Time) ([]domain.Message, int, error)
	PendingCount(ctx context.Context, id domain.Identity) (int, error)

	Sweep(ctx context.Context, deliveredBefore time.Time) (int64, error)
	History(ctx context.Context, filter domain.HistoryFilter) ([]domain.Message, error)
	Networks(ctx context.Context) ([]domain.NetworkSummary, error)
}
