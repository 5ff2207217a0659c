package application

import (
	"context"
	"errors"
	"fmt"

	"github.com/bnema/agent-network/internal/domain"
	"github.com/bnema/agent-network/internal/ports"
)

// IdentityResolver maps the calling process to its session row.
type IdentityResolver struct {
	provider ports.IdentityProvider
	store    ports.MailboxStore
}

func NewIdentityResolver(provider ports.IdentityProvider, store ports.MailboxStore) *IdentityResolver {
	return &IdentityResolver{provider: provider, store: store}
}

func (r *IdentityResolver) Token(ctx context.Context) (domain.SessionToken, error) {
	token, err := r.provider.SessionToken(ctx)
	if err != nil {
		return "", fmt.Errorf("resolve session token: %w", err)
	}
	return token, nil
}

// Resolve returns the caller's session, failing with domain.ErrNotJoined
// when the session has not joined a network.
func (r *IdentityResolver) Resolve(ctx context.Context) (domain.Session, error) {
	token, err := r.Token(ctx)
	if err != nil {
		return domain.Session{}, err
	}

	session, err := r.store.SessionByToken(ctx, token)
	if err != nil {
		if errors.Is(err, domain.ErrNotJoined) {
			return domain.Session{}, fmt.Errorf("session %s: %w", token, domain.ErrNotJoined)
		}
		return domain.Session{}, fmt.Errorf("load session: %w", err)
	}

	return session, nil
}
