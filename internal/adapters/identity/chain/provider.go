package chain

import (
	"context"
	"errors"
	"fmt"

	"github.com/bnema/agent-network/internal/domain"
	"github.com/bnema/agent-network/internal/ports"
)

// Provider asks the primary provider first and falls back to the secondary
// one only when the primary could not resolve a token.
type Provider struct {
	primary  ports.IdentityProvider
	fallback ports.IdentityProvider
}

var _ ports.IdentityProvider = (*Provider)(nil)

var (
	errNilPrimaryProvider  = errors.New("primary identity provider is nil")
	errNilFallbackProvider = errors.New("fallback identity provider is nil")
)

func NewProvider(primary ports.IdentityProvider, fallback ports.IdentityProvider) *Provider {
	provider, err := NewProviderChecked(primary, fallback)
	if err != nil {
		panic(err)
	}

	return provider
}

func NewProviderChecked(primary ports.IdentityProvider, fallback ports.IdentityProvider) (*Provider, error) {
	if primary == nil {
		return nil, errNilPrimaryProvider
	}
	if fallback == nil {
		return nil, errNilFallbackProvider
	}

	return &Provider{primary: primary, fallback: fallback}, nil
}

func (p *Provider) SessionToken(ctx context.Context) (domain.SessionToken, error) {
	token, err := p.primary.SessionToken(ctx)
	if err == nil {
		return token, nil
	}
	if shouldSkipFallback(err) {
		return "", err
	}

	fallbackToken, fallbackErr := p.fallback.SessionToken(ctx)
	if fallbackErr == nil {
		return fallbackToken, nil
	}

	return "", fmt.Errorf("%w: primary provider: %w; fallback provider: %w", domain.ErrSessionUnresolved, err, fallbackErr)
}

func shouldSkipFallback(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
