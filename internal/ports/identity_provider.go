package ports

import (
	"context"

	"github.com/bnema/agent-network/internal/domain"
)

// IdentityProvider yields the opaque host session token of the calling
// process, or an error wrapping domain.ErrSessionUnresolved.
type IdentityProvider interface {
	SessionToken(ctx context.Context) (domain.SessionToken, error)
}
