package ancestry

import (
	"context"
	"fmt"
	"os"

	"github.com/bnema/agent-network/internal/domain"
	"github.com/bnema/agent-network/internal/ports"
)

const maxAncestryDepth = 64

// Provider resolves the session of the calling process by matching its
// ancestors against the session markers written at session start.
type Provider struct {
	markers  *Markers
	pid      int
	parentOf func(pid int) (int, error)
}

var _ ports.IdentityProvider = (*Provider)(nil)

func NewProvider(markers *Markers) *Provider {
	return &Provider{markers: markers, pid: os.Getpid(), parentOf: ParentPID}
}

func (p *Provider) SessionToken(ctx context.Context) (domain.SessionToken, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	markers, err := p.markers.List()
	if err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrSessionUnresolved, err)
	}
	if len(markers) == 0 {
		return "", fmt.Errorf("%w: no session markers in %s", domain.ErrSessionUnresolved, p.markers.Dir())
	}

	byParent := make(map[int]Marker, len(markers))
	for _, marker := range markers {
		if _, seen := byParent[marker.ParentPID]; !seen {
			byParent[marker.ParentPID] = marker
		}
	}

	pid := p.pid
	for range maxAncestryDepth {
		if marker, ok := byParent[pid]; ok {
			return domain.SessionToken(marker.SessionID), nil
		}
		if pid <= 1 {
			break
		}

		parent, err := p.parentOf(pid)
		if err != nil || parent == pid {
			break
		}
		pid = parent
	}

	return "", fmt.Errorf("%w: no session marker matches the process ancestry", domain.ErrSessionUnresolved)
}
