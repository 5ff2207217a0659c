package sqlite

import (
	"context"
	"fmt"
	"strings"
)

// The column layout matches databases created by earlier agent-network
// releases so existing installs keep working.
const schemaSQL = `
CREATE TABLE IF NOT EXISTS sessions (
	session_id TEXT PRIMARY KEY,
	agent_id   TEXT NOT NULL,
	network_id TEXT NOT NULL,
	role       TEXT DEFAULT '',
	joined_at  REAL NOT NULL,
	last_seen  REAL NOT NULL,
	UNIQUE(agent_id, network_id)
);

CREATE TABLE IF NOT EXISTS messages (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	network_id   TEXT NOT NULL,
	sender_id    TEXT NOT NULL,
	recipient_id TEXT NOT NULL,
	content      TEXT NOT NULL CHECK(length(content) <= 8000),
	is_broadcast INTEGER NOT NULL DEFAULT 0,
	status       TEXT NOT NULL DEFAULT 'pending',
	created_at   REAL NOT NULL,
	delivered_at REAL
);

CREATE INDEX IF NOT EXISTS idx_messages_inbox
	ON messages(recipient_id, status) WHERE status = 'pending';
CREATE INDEX IF NOT EXISTS idx_messages_pair
	ON messages(sender_id, recipient_id, created_at);
CREATE INDEX IF NOT EXISTS idx_sessions_network
	ON sessions(network_id);

CREATE TABLE IF NOT EXISTS peers (
	name          TEXT PRIMARY KEY,
	url           TEXT NOT NULL,
	shared_secret TEXT DEFAULT '',
	status        TEXT NOT NULL DEFAULT 'pending'
		CHECK(status IN ('pending','approved','rejected')),
	direction     TEXT NOT NULL DEFAULT 'outbound'
		CHECK(direction IN ('outbound','inbound','mutual')),
	created_at    REAL NOT NULL,
	last_seen     REAL
);
`

func (s *Store) initSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schemaSQL); err != nil {
		return translate(err)
	}
	return s.addColumn(ctx, "messages", "scope_network", "TEXT")
}

// addColumn adds column to table unless a previous run already did.
func (s *Store) addColumn(ctx context.Context, table, column, decl string) error {
	rows, err := s.db.QueryContext(ctx, `SELECT name FROM pragma_table_info(?)`, table)
	if err != nil {
		return fmt.Errorf("inspect table %s: %w", table, err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return fmt.Errorf("scan column of %s: %w", table, err)
		}
		if name == column {
			return nil
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate columns of %s: %w", table, err)
	}
	_ = rows.Close()

	_, err = s.db.ExecContext(ctx, fmt.Sprintf(`ALTER TABLE %s ADD COLUMN %s %s`, table, column, decl))
	if err != nil && !strings.Contains(err.Error(), "duplicate column name") {
		return fmt.Errorf("add column %s.%s: %w", table, column, err)
	}
	return nil
}
