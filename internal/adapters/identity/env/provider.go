package env

import (
	"context"
	"fmt"
	"strings"

	"github.com/bnema/agent-network/internal/domain"
	"github.com/bnema/agent-network/internal/ports"
)

// Provider returns a session token that was handed to the process
// explicitly, either through AGENT_NETWORK_SESSION_ID or the --session flag.
type Provider struct {
	token string
}

var _ ports.IdentityProvider = (*Provider)(nil)

func NewProvider(token string) *Provider {
	return &Provider{token: strings.TrimSpace(token)}
}

func (p *Provider) SessionToken(ctx context.Context) (domain.SessionToken, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if p.token == "" {
		return "", fmt.Errorf("%w: no explicit session id", domain.ErrSessionUnresolved)
	}
	return domain.SessionToken(p.token), nil
}
