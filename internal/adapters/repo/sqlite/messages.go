package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/bnema/agent-network/internal/domain"
	"github.com/bnema/agent-network/internal/ports"
)

const messageColumns = `id, network_id, sender_id, recipient_id, content, is_broadcast, status, created_at, delivered_at`

// inboxFilter selects the pending messages of one (agent, network) pair.
// System notices without a scope predate per-network notices and reach
// any session of the agent.
const inboxFilter = `recipient_id = ? AND status = 'pending' AND (
	network_id = ? OR (network_id = ? AND (scope_network IS NULL OR scope_network = ?)))`

// Enqueue checks the sender's caps towards the recipient and stores one
// pending message, both inside the same transaction.
func (s *Store) Enqueue(ctx context.Context, msg domain.Message, limits domain.SendLimits) (domain.MessageID, error) {
	var id domain.MessageID
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if err := checkSendLimits(ctx, tx, msg, limits); err != nil {
			return err
		}
		inserted, err := insertMessage(ctx, tx, msg)
		if err != nil {
			return err
		}
		id = inserted
		return nil
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

// EnqueueBroadcast stores one copy of msg per recipient. Recipients over a
// cap are reported as skipped rather than failing the whole broadcast.
func (s *Store) EnqueueBroadcast(ctx context.Context, msg domain.Message, recipients []domain.AgentID, limits domain.SendLimits) (ports.BroadcastOutcome, error) {
	var outcome ports.BroadcastOutcome
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		outcome = ports.BroadcastOutcome{}
		for _, recipient := range recipients {
			copyMsg := msg
			copyMsg.Recipient = recipient
			copyMsg.Broadcast = true

			if err := checkSendLimits(ctx, tx, copyMsg, limits); err != nil {
				if isCapacityErr(err) {
					outcome.Skipped = append(outcome.Skipped, domain.SkippedRecipient{Agent: recipient, Reason: err})
					continue
				}
				return err
			}

			id, err := insertMessage(ctx, tx, copyMsg)
			if err != nil {
				return err
			}
			outcome.Delivered = append(outcome.Delivered, id)
		}
		return nil
	})
	if err != nil {
		return ports.BroadcastOutcome{}, err
	}
	return outcome, nil
}

// EnqueueRelayed stores messages arriving from a peer. The only cap is the
// total number of pending messages from that sender in that network.
func (s *Store) EnqueueRelayed(ctx context.Context, msg domain.Message, recipients []domain.AgentID, pendingCap int) (int, error) {
	delivered := 0
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var pending int
		err := tx.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM messages WHERE network_id = ? AND sender_id = ? AND status = 'pending'`,
			string(msg.Network), string(msg.Sender),
		).Scan(&pending)
		if err != nil {
			return fmt.Errorf("count sender pending messages: %w", err)
		}
		if pending >= pendingCap {
			return fmt.Errorf("%w: %q has %d pending messages in %q", domain.ErrSenderPendingCap, msg.Sender, pending, msg.Network)
		}

		delivered = 0
		for _, recipient := range recipients {
			copyMsg := msg
			copyMsg.Recipient = recipient
			if _, err := insertMessage(ctx, tx, copyMsg); err != nil {
				return err
			}
			delivered++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return delivered, nil
}

// NotifyAll delivers a system message to every registered session.
func (s *Store) NotifyAll(ctx context.Context, content string, now time.Time) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		return notifyAll(ctx, tx, content, now)
	})
}

// Fetch marks up to limit pending messages addressed to id as delivered and
// returns them oldest first, along with how many remain pending. The
// caller's session heartbeat is refreshed in the same transaction.
func (s *Store) Fetch(ctx context.Context, token domain.SessionToken, id domain.Identity, limit int, now time.Time) ([]domain.Message, int, error) {
	var (
		messages  []domain.Message
		remaining int
	)
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		fetched, err := queryMessages(ctx, tx,
			`SELECT `+messageColumns+` FROM messages
			 WHERE `+inboxFilter+`
			 ORDER BY created_at, id
			 LIMIT ?`,
			string(id.Agent), string(id.Network), string(domain.SystemNetwork), string(id.Network), limit,
		)
		if err != nil {
			return err
		}

		for i := range fetched {
			_, err := tx.ExecContext(ctx,
				`UPDATE messages SET status = 'delivered', delivered_at = ? WHERE id = ? AND status = 'pending'`,
				toUnix(now), int64(fetched[i].ID),
			)
			if err != nil {
				return fmt.Errorf("mark message delivered: %w", err)
			}
			fetched[i].Status = domain.MessageDelivered
			fetched[i].DeliveredAt = now
		}

		remaining, err = countPending(ctx, tx, id)
		if err != nil {
			return err
		}

		if err := touchSession(ctx, tx, token, now); err != nil {
			return err
		}

		messages = fetched
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	return messages, remaining, nil
}

func (s *Store) PendingCount(ctx context.Context, id domain.Identity) (int, error) {
	count, err := countPending(ctx, s.db, id)
	if err != nil {
		return 0, translate(err)
	}
	return count, nil
}

// Sweep deletes delivered messages older than deliveredBefore. Pending
// messages are never swept.
func (s *Store) Sweep(ctx context.Context, deliveredBefore time.Time) (int64, error) {
	var removed int64
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`DELETE FROM messages WHERE status = 'delivered' AND delivered_at < ?`,
			toUnix(deliveredBefore),
		)
		if err != nil {
			return fmt.Errorf("sweep messages: %w", err)
		}
		removed, err = res.RowsAffected()
		if err != nil {
			return fmt.Errorf("count swept messages: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return removed, nil
}

// History returns every stored message of a network, pending or delivered,
// in chronological order.
func (s *Store) History(ctx context.Context, filter domain.HistoryFilter) ([]domain.Message, error) {
	var (
		where = []string{"network_id = ?"}
		args  = []any{string(filter.Network)}
	)
	if !filter.Since.IsZero() {
		where = append(where, "created_at >= ?")
		args = append(args, toUnix(filter.Since))
	}
	if filter.Agent != "" {
		where = append(where, "(sender_id = ? OR recipient_id = ?)")
		args = append(args, string(filter.Agent), string(filter.Agent))
	}

	messages, err := queryMessages(ctx, s.db,
		`SELECT `+messageColumns+` FROM messages WHERE `+strings.Join(where, " AND ")+` ORDER BY created_at, id`,
		args...,
	)
	if err != nil {
		return nil, translate(err)
	}
	return messages, nil
}

// Networks summarizes the registered sessions per network, most recently
// active first.
func (s *Store) Networks(ctx context.Context) ([]domain.NetworkSummary, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT network_id, agent_id, last_seen FROM sessions ORDER BY network_id, agent_id`)
	if err != nil {
		return nil, translate(fmt.Errorf("query networks: %w", err))
	}
	defer rows.Close()

	byNetwork := make(map[domain.NetworkID]*domain.NetworkSummary)
	order := make([]domain.NetworkID, 0)
	for rows.Next() {
		var (
			network, agent string
			lastSeen       float64
		)
		if err := rows.Scan(&network, &agent, &lastSeen); err != nil {
			return nil, fmt.Errorf("scan network: %w", err)
		}

		id := domain.NetworkID(network)
		summary, ok := byNetwork[id]
		if !ok {
			summary = &domain.NetworkSummary{Network: id}
			byNetwork[id] = summary
			order = append(order, id)
		}
		summary.Agents = append(summary.Agents, domain.AgentID(agent))
		if seen := fromUnix(lastSeen); seen.After(summary.LastActive) {
			summary.LastActive = seen
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate networks: %w", err)
	}

	summaries := make([]domain.NetworkSummary, 0, len(order))
	for _, id := range order {
		summaries = append(summaries, *byNetwork[id])
	}
	sort.SliceStable(summaries, func(i, j int) bool {
		return summaries[i].LastActive.After(summaries[j].LastActive)
	})

	return summaries, nil
}

func checkSendLimits(ctx context.Context, q queryer, msg domain.Message, limits domain.SendLimits) error {
	var unread int
	err := q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM messages
		 WHERE network_id = ? AND sender_id = ? AND recipient_id = ? AND status = 'pending'`,
		string(msg.Network), string(msg.Sender), string(msg.Recipient),
	).Scan(&unread)
	if err != nil {
		return fmt.Errorf("count unread messages: %w", err)
	}
	if unread >= limits.UnreadCap {
		return fmt.Errorf("%w: %q has %d unread messages from you, wait for them to read before sending more",
			domain.ErrRecipientInboxFull, msg.Recipient, unread)
	}

	var recent int
	err = q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM messages
		 WHERE network_id = ? AND sender_id = ? AND recipient_id = ? AND created_at > ?`,
		string(msg.Network), string(msg.Sender), string(msg.Recipient), toUnix(msg.CreatedAt.Add(-limits.RateWindow)),
	).Scan(&recent)
	if err != nil {
		return fmt.Errorf("count recent messages: %w", err)
	}
	if recent >= limits.RateCount {
		return fmt.Errorf("%w: %d messages to %q in the last %s", domain.ErrRateLimited, recent, msg.Recipient, limits.RateWindow)
	}

	return nil
}

func isCapacityErr(err error) bool {
	return errors.Is(err, domain.ErrRecipientInboxFull) || errors.Is(err, domain.ErrRateLimited)
}

func insertMessage(ctx context.Context, q queryer, msg domain.Message) (domain.MessageID, error) {
	res, err := q.ExecContext(ctx,
		`INSERT INTO messages (network_id, sender_id, recipient_id, content, is_broadcast, status, created_at)
		 VALUES (?, ?, ?, ?, ?, 'pending', ?)`,
		string(msg.Network), string(msg.Sender), string(msg.Recipient), msg.Content, msg.Broadcast, toUnix(msg.CreatedAt),
	)
	if err != nil {
		return 0, fmt.Errorf("insert message: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("read message id: %w", err)
	}
	return domain.MessageID(id), nil
}

func notifyAll(ctx context.Context, q queryer, content string, now time.Time) error {
	rows, err := q.QueryContext(ctx, `SELECT DISTINCT agent_id, network_id FROM sessions ORDER BY agent_id, network_id`)
	if err != nil {
		return fmt.Errorf("list session agents: %w", err)
	}
	identities := make([]domain.Identity, 0)
	for rows.Next() {
		var agent, network string
		if err := rows.Scan(&agent, &network); err != nil {
			_ = rows.Close()
			return fmt.Errorf("scan session agent: %w", err)
		}
		identities = append(identities, domain.Identity{Agent: domain.AgentID(agent), Network: domain.NetworkID(network)})
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return fmt.Errorf("iterate session agents: %w", err)
	}
	_ = rows.Close()

	for _, id := range identities {
		_, err := q.ExecContext(ctx,
			`INSERT INTO messages (network_id, sender_id, recipient_id, content, is_broadcast, status, created_at, scope_network)
			 VALUES (?, ?, ?, ?, 0, 'pending', ?, ?)`,
			string(domain.SystemNetwork), string(domain.SystemSender), string(id.Agent), content, toUnix(now), string(id.Network),
		)
		if err != nil {
			return fmt.Errorf("insert system notice: %w", err)
		}
	}
	return nil
}

func countPending(ctx context.Context, q queryer, id domain.Identity) (int, error) {
	var count int
	err := q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM messages WHERE `+inboxFilter,
		string(id.Agent), string(id.Network), string(domain.SystemNetwork), string(id.Network),
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count pending messages: %w", err)
	}
	return count, nil
}

func queryMessages(ctx context.Context, q queryer, query string, args ...any) ([]domain.Message, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	defer rows.Close()

	messages := make([]domain.Message, 0)
	for rows.Next() {
		var (
			id                         int64
			network, sender, recipient string
			content, status            string
			broadcast                  bool
			createdAt                  float64
			deliveredAt                sql.NullFloat64
		)
		if err := rows.Scan(&id, &network, &sender, &recipient, &content, &broadcast, &status, &createdAt, &deliveredAt); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		messages = append(messages, domain.Message{
			ID:          domain.MessageID(id),
			Network:     domain.NetworkID(network),
			Sender:      domain.AgentID(sender),
			Recipient:   domain.AgentID(recipient),
			Content:     content,
			Broadcast:   broadcast,
			Status:      domain.MessageStatus(status),
			CreatedAt:   fromUnix(createdAt),
			DeliveredAt: fromNullUnix(deliveredAt),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate messages: %w", err)
	}

	return messages, nil
}
