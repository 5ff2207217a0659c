package memo

import (
	"context"
	"sync"

	"github.com/bnema/agent-network/internal/domain"
	"github.com/bnema/agent-network/internal/ports"
)

// Provider remembers the first token its inner provider resolves. Failures
// are not remembered, so a later call can still succeed.
type Provider struct {
	inner ports.IdentityProvider

	mu    sync.Mutex
	token domain.SessionToken
}

var _ ports.IdentityProvider = (*Provider)(nil)

func NewProvider(inner ports.IdentityProvider) *Provider {
	return &Provider{inner: inner}
}

func (p *Provider) SessionToken(ctx context.Context) (domain.SessionToken, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.token != "" {
		return p.token, nil
	}

	token, err := p.inner.SessionToken(ctx)
	if err != nil {
		return "", err
	}

	p.token = token
	return token, nil
}
