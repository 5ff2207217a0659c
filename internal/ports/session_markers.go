package ports

import (
	"time"

	"github.com/bnema/agent-network/internal/domain"
)

// SessionMarkers records which host process owns a session so that later
// commands can find their session without an explicit token.
type SessionMarkers interface {
	Record(token domain.SessionToken, parentPID int, at time.Time) error
	Prune() (int, error)
}
