package application

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/bnema/agent-network/internal/domain"
	"github.com/bnema/agent-network/internal/ports"
)

type ChatQuery struct {
	Network domain.NetworkID
	Since   time.Duration
	Agent   domain.AgentID
}

type ChatEntry struct {
	Sender    domain.AgentID `json:"sender"`
	Recipient domain.AgentID `json:"recipient,omitempty"`
	Broadcast bool           `json:"is_broadcast"`
	Content   string         `json:"content"`
	SentAt    time.Time      `json:"sent_at"`
}

type ChatLog struct {
	Network domain.NetworkID `json:"network"`
	Entries []ChatEntry      `json:"messages"`
	Senders []domain.AgentID `json:"senders"`
}

// HistoryService reads past traffic for the chat viewer. It never changes
// message state.
type HistoryService struct {
	store ports.MailboxStore
	clock ports.Clock
}

func NewHistoryService(store ports.MailboxStore, clock ports.Clock) *HistoryService {
	if clock == nil {
		clock = ports.SystemClock{}
	}
	return &HistoryService{store: store, clock: clock}
}

func (s *HistoryService) Networks(ctx context.Context) ([]domain.NetworkSummary, error) {
	networks, err := s.store.Networks(ctx)
	if err != nil {
		return nil, fmt.Errorf("list networks: %w", err)
	}
	return networks, nil
}

// Chat returns the messages of a network in send order. The per-recipient
// copies of one broadcast collapse into a single entry.
func (s *HistoryService) Chat(ctx context.Context, query ChatQuery) (ChatLog, error) {
	if err := domain.ValidateNetworkID(query.Network); err != nil {
		return ChatLog{}, err
	}

	filter := domain.HistoryFilter{Network: query.Network, Agent: query.Agent}
	if query.Since > 0 {
		filter.Since = s.clock.Now().Add(-query.Since)
	}

	messages, err := s.store.History(ctx, filter)
	if err != nil {
		return ChatLog{}, fmt.Errorf("load history: %w", err)
	}

	type broadcastKey struct {
		sender  domain.AgentID
		content string
		sentAt  int64
	}
	seen := make(map[broadcastKey]struct{})
	senders := make(map[domain.AgentID]struct{})

	log := ChatLog{Network: query.Network, Entries: make([]ChatEntry, 0, len(messages))}
	for _, msg := range messages {
		if msg.Broadcast {
			key := broadcastKey{sender: msg.Sender, content: msg.Content, sentAt: msg.CreatedAt.UnixNano()}
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
		}

		senders[msg.Sender] = struct{}{}
		log.Entries = append(log.Entries, ChatEntry{
			Sender:    msg.Sender,
			Recipient: msg.Recipient,
			Broadcast: msg.Broadcast,
			Content:   msg.Content,
			SentAt:    msg.CreatedAt,
		})
	}

	log.Senders = make([]domain.AgentID, 0, len(senders))
	for sender := range senders {
		log.Senders = append(log.Senders, sender)
	}
	sort.Slice(log.Senders, func(i, j int) bool { return log.Senders[i] < log.Senders[j] })

	return log, nil
}

var durationUnits = map[byte]time.Duration{
	's': time.Second,
	'm': time.Minute,
	'h': time.Hour,
	'd': 24 * time.Hour,
}

// ParseSince parses look-back windows such as 90s, 30m, 2h or 1.5d. An empty
// string means no window.
func ParseSince(raw string) (time.Duration, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}

	unit, ok := durationUnits[strings.ToLower(raw[len(raw)-1:])[0]]
	if ok {
		value, err := strconv.ParseFloat(raw[:len(raw)-1], 64)
		if err == nil && value >= 0 {
			return time.Duration(value * float64(unit)), nil
		}
	}

	return 0, fmt.Errorf("%w: %q (use e.g. 30m, 2h, 1d)", domain.ErrInvalidDuration, raw)
}
