package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/bnema/agent-network/internal/domain"
)

const peerColumns = `name, url, shared_secret, status, direction, created_at, last_seen`

func (s *Store) SavePeer(ctx context.Context, peer domain.Peer) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		return upsertPeer(ctx, tx, peer)
	})
}

func (s *Store) GetPeer(ctx context.Context, name domain.PeerName) (domain.Peer, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+peerColumns+` FROM peers WHERE name = ?`, string(name))
	peer, err := scanPeer(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Peer{}, fmt.Errorf("%w: %q", domain.ErrPeerNotFound, name)
	}
	if err != nil {
		return domain.Peer{}, translate(fmt.Errorf("load peer %q: %w", name, err))
	}
	return peer, nil
}

// ListPeers returns every peer in a state this release understands. Rows
// left in other states by older releases are ignored.
func (s *Store) ListPeers(ctx context.Context) ([]domain.Peer, error) {
	return s.queryPeers(ctx, `SELECT `+peerColumns+` FROM peers ORDER BY created_at, name`)
}

func (s *Store) MutualPeers(ctx context.Context) ([]domain.Peer, error) {
	return s.queryPeers(ctx,
		`SELECT `+peerColumns+` FROM peers
		 WHERE status = ? AND direction = ?
		 ORDER BY created_at, name`,
		domain.TrustMutual.Status(), domain.TrustMutual.Direction(),
	)
}

// SetTrust moves a peer to trust. Only a move to mutual records the time
// the peer was last heard from.
func (s *Store) SetTrust(ctx context.Context, name domain.PeerName, trust domain.Trust, now time.Time) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		return setTrust(ctx, tx, name, trust, now)
	})
}

func (s *Store) DeletePeer(ctx context.Context, name domain.PeerName) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM peers WHERE name = ?`, string(name))
		if err != nil {
			return fmt.Errorf("delete peer: %w", err)
		}
		return requireAffected(res, name)
	})
}

func (s *Store) TouchPeer(ctx context.Context, name domain.PeerName, now time.Time) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `UPDATE peers SET last_seen = ? WHERE name = ?`, toUnix(now), string(name)); err != nil {
			return fmt.Errorf("touch peer: %w", err)
		}
		return nil
	})
}

func (s *Store) RecordPairRequest(ctx context.Context, peer domain.Peer, notice string) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if err := upsertPeer(ctx, tx, peer); err != nil {
			return err
		}
		return notifyAll(ctx, tx, notice, peer.CreatedAt)
	})
}

func (s *Store) ConfirmPairing(ctx context.Context, name domain.PeerName, notice string, now time.Time) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if err := setTrust(ctx, tx, name, domain.TrustMutual, now); err != nil {
			return err
		}
		return notifyAll(ctx, tx, notice, now)
	})
}

func upsertPeer(ctx context.Context, q queryer, peer domain.Peer) error {
	_, err := q.ExecContext(ctx,
		`INSERT INTO peers (name, url, shared_secret, status, direction, created_at, last_seen)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(name) DO UPDATE SET
			url = excluded.url,
			shared_secret = excluded.shared_secret,
			status = excluded.status,
			direction = excluded.direction`,
		string(peer.Name), peer.URL, peer.Secret, peer.Trust.Status(), peer.Trust.Direction(),
		toUnix(peer.CreatedAt), nullUnix(peer.LastSeen),
	)
	if err != nil {
		return fmt.Errorf("upsert peer %q: %w", peer.Name, err)
	}
	return nil
}

func setTrust(ctx context.Context, q queryer, name domain.PeerName, trust domain.Trust, now time.Time) error {
	query := `UPDATE peers SET status = ?, direction = ? WHERE name = ?`
	args := []any{trust.Status(), trust.Direction(), string(name)}
	if trust == domain.TrustMutual {
		query = `UPDATE peers SET status = ?, direction = ?, last_seen = ? WHERE name = ?`
		args = []any{trust.Status(), trust.Direction(), toUnix(now), string(name)}
	}

	res, err := q.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update peer trust: %w", err)
	}
	return requireAffected(res, name)
}

func requireAffected(res sql.Result, name domain.PeerName) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("count affected peers: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: %q", domain.ErrPeerNotFound, name)
	}
	return nil
}

func (s *Store) queryPeers(ctx context.Context, query string, args ...any) ([]domain.Peer, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, translate(fmt.Errorf("query peers: %w", err))
	}
	defer rows.Close()

	peers := make([]domain.Peer, 0)
	for rows.Next() {
		peer, err := scanPeer(rows)
		if errors.Is(err, errUnknownTrust) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("scan peer: %w", err)
		}
		peers = append(peers, peer)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate peers: %w", err)
	}

	return peers, nil
}

var errUnknownTrust = errors.New("unknown peer trust")

func scanPeer(row rowScanner) (domain.Peer, error) {
	var (
		name, url, status, direction string
		secret                       sql.NullString
		createdAt                    float64
		lastSeen                     sql.NullFloat64
	)
	if err := row.Scan(&name, &url, &secret, &status, &direction, &createdAt, &lastSeen); err != nil {
		return domain.Peer{}, err
	}

	trust, err := domain.ParseTrust(status, direction)
	if err != nil {
		return domain.Peer{}, fmt.Errorf("%w: %w", errUnknownTrust, err)
	}

	return domain.Peer{
		Name:      domain.PeerName(name),
		URL:       url,
		Secret:    secret.String,
		Trust:     trust,
		CreatedAt: fromUnix(createdAt),
		LastSeen:  fromNullUnix(lastSeen),
	}, nil
}
