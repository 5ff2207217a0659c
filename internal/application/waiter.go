package application

import (
	"context"
	"fmt"
	"time"

	"github.com/bnema/agent-network/internal/domain"
	"github.com/bnema/agent-network/internal/ports"
)

type sleepFunc func(ctx context.Context, d time.Duration) error

// Waiter long-polls the caller's inbox. It never holds a store transaction
// while sleeping.
type Waiter struct {
	mailbox  *MailboxService
	store    ports.MailboxStore
	resolver *IdentityResolver
	clock    ports.Clock
	interval time.Duration
	sleep    sleepFunc
}

func NewWaiter(mailbox *MailboxService, store ports.MailboxStore, resolver *IdentityResolver, clock ports.Clock) *Waiter {
	if clock == nil {
		clock = ports.SystemClock{}
	}

	return &Waiter{
		mailbox:  mailbox,
		store:    store,
		resolver: resolver,
		clock:    clock,
		interval: domain.PollInterval,
		sleep:    sleepContext,
	}
}

// ClampWaitTimeout maps non-positive timeouts to the default and caps the
// rest at the maximum wait.
func ClampWaitTimeout(timeout time.Duration) time.Duration {
	switch {
	case timeout <= 0:
		return domain.DefaultWaitTimeout
	case timeout > domain.MaxWaitTimeout:
		return domain.MaxWaitTimeout
	default:
		return timeout
	}
}

func (w *Waiter) Wait(ctx context.Context, timeout time.Duration) (InboxResult, error) {
	session, err := w.resolver.Resolve(ctx)
	if err != nil {
		return InboxResult{}, err
	}
	env := envelopeOf(session.Identity())

	timeout = ClampWaitTimeout(timeout)
	start := w.clock.Now()
	deadline := start.Add(timeout)

	for {
		pending, err := w.store.PendingCount(ctx, session.Identity())
		if err != nil {
			return InboxResult{}, withEnvelope(env, fmt.Errorf("count pending messages: %w", err))
		}

		if pending > 0 {
			result, err := w.mailbox.Drain(ctx, session, domain.InboxBatch)
			if err != nil {
				return InboxResult{}, err
			}
			result.Status = "messages"
			result.Waited = waitedSeconds(w.clock.Now().Sub(start))
			return result, nil
		}

		now := w.clock.Now()
		if err := w.store.Touch(ctx, session.Token, now); err != nil {
			return InboxResult{}, withEnvelope(env, fmt.Errorf("refresh session: %w", err))
		}

		remaining := deadline.Sub(now)
		if remaining <= 0 {
			return InboxResult{
				Envelope: env,
				Status:   "timeout",
				Messages: []MessageView{},
				Waited:   waitedSeconds(now.Sub(start)),
			}, nil
		}

		if err := w.sleep(ctx, min(w.interval, remaining)); err != nil {
			return InboxResult{}, withEnvelope(env, err)
		}
	}
}

func waitedSeconds(d time.Duration) float64 {
	return float64(d.Round(100*time.Millisecond)) / float64(time.Second)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
