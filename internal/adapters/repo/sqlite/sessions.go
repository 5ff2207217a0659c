package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/bnema/agent-network/internal/domain"
	"github.com/bnema/agent-network/internal/ports"
)

const sessionColumns = `session_id, agent_id, network_id, role, joined_at, last_seen`

// Join registers (or re-registers) a session. A stale holder of the same
// agent id is evicted first; a live holder makes the join fail with
// domain.ErrAgentTaken.
func (s *Store) Join(ctx context.Context, session domain.Session, now time.Time) (ports.JoinOutcome, error) {
	var outcome ports.JoinOutcome
	cutoff := toUnix(now.Add(-domain.SessionExpiry))

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var stale string
		err := tx.QueryRowContext(ctx,
			`SELECT session_id FROM sessions
			 WHERE agent_id = ? AND network_id = ? AND session_id != ? AND last_seen <= ?`,
			string(session.Agent), string(session.Network), string(session.Token), cutoff,
		).Scan(&stale)
		switch {
		case errors.Is(err, sql.ErrNoRows):
		case err != nil:
			return fmt.Errorf("find stale session: %w", err)
		default:
			if _, err := tx.ExecContext(ctx, `DELETE FROM sessions WHERE session_id = ?`, stale); err != nil {
				return fmt.Errorf("evict stale session: %w", err)
			}
			outcome.Evicted = domain.SessionToken(stale)
		}

		_, err = tx.ExecContext(ctx,
			`INSERT INTO sessions (session_id, agent_id, network_id, role, joined_at, last_seen)
			 VALUES (?, ?, ?, ?, ?, ?)
			 ON CONFLICT(session_id) DO UPDATE SET
				agent_id = excluded.agent_id,
				network_id = excluded.network_id,
				role = excluded.role,
				last_seen = excluded.last_seen`,
			string(session.Token), string(session.Agent), string(session.Network), session.Role,
			toUnix(now), toUnix(now),
		)
		if err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("%w: %q is active in network %q", domain.ErrAgentTaken, session.Agent, session.Network)
			}
			return fmt.Errorf("upsert session: %w", err)
		}

		others, err := querySessions(ctx, tx,
			`SELECT `+sessionColumns+` FROM sessions
			 WHERE network_id = ? AND session_id != ? AND last_seen > ?
			 ORDER BY joined_at, agent_id`,
			string(session.Network), string(session.Token), cutoff,
		)
		if err != nil {
			return err
		}
		outcome.Others = others
		return nil
	})
	if err != nil {
		return ports.JoinOutcome{}, err
	}

	return outcome, nil
}

func (s *Store) Leave(ctx context.Context, token domain.SessionToken) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM sessions WHERE session_id = ?`, string(token)); err != nil {
			return fmt.Errorf("delete session: %w", err)
		}
		return nil
	})
}

func (s *Store) SessionByToken(ctx context.Context, token domain.SessionToken) (domain.Session, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+sessionColumns+` FROM sessions WHERE session_id = ?`, string(token))
	session, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Session{}, domain.ErrNotJoined
	}
	if err != nil {
		return domain.Session{}, translate(fmt.Errorf("load session: %w", err))
	}
	return session, nil
}

func (s *Store) Touch(ctx context.Context, token domain.SessionToken, now time.Time) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		return touchSession(ctx, tx, token, now)
	})
}

// LiveSession returns the session holding id if its heartbeat is recent.
func (s *Store) LiveSession(ctx context.Context, id domain.Identity, now time.Time) (domain.Session, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+sessionColumns+` FROM sessions
		 WHERE agent_id = ? AND network_id = ? AND last_seen > ?`,
		string(id.Agent), string(id.Network), toUnix(now.Add(-domain.SessionExpiry)),
	)
	session, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Session{}, fmt.Errorf("%w: %q is not active in network %q", domain.ErrRecipientNotFound, id.Agent, id.Network)
	}
	if err != nil {
		return domain.Session{}, translate(fmt.Errorf("load live session: %w", err))
	}
	return session, nil
}

func (s *Store) ListSessions(ctx context.Context, network domain.NetworkID) ([]domain.Session, error) {
	sessions, err := querySessions(ctx, s.db,
		`SELECT `+sessionColumns+` FROM sessions WHERE network_id = ? ORDER BY joined_at, agent_id`,
		string(network),
	)
	if err != nil {
		return nil, translate(err)
	}
	return sessions, nil
}

func touchSession(ctx context.Context, q queryer, token domain.SessionToken, now time.Time) error {
	if _, err := q.ExecContext(ctx, `UPDATE sessions SET last_seen = ? WHERE session_id = ?`, toUnix(now), string(token)); err != nil {
		return fmt.Errorf("touch session: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (domain.Session, error) {
	var (
		token, agent, network string
		role                  sql.NullString
		joinedAt, lastSeen    float64
	)
	if err := row.Scan(&token, &agent, &network, &role, &joinedAt, &lastSeen); err != nil {
		return domain.Session{}, err
	}
	return domain.Session{
		Token:    domain.SessionToken(token),
		Agent:    domain.AgentID(agent),
		Network:  domain.NetworkID(network),
		Role:     role.String,
		JoinedAt: fromUnix(joinedAt),
		LastSeen: fromUnix(lastSeen),
	}, nil
}

func querySessions(ctx context.Context, q queryer, query string, args ...any) ([]domain.Session, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	sessions := make([]domain.Session, 0)
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sessions = append(sessions, session)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}

	return sessions, nil
}
