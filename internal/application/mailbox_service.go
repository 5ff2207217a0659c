package application

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bnema/agent-network/internal/domain"
	"github.com/bnema/agent-network/internal/ports"
	"github.com/rs/zerolog"
)

const ListenerCommand = "anet wait --timeout 90"

// MailboxService implements the agent-facing mailbox operations on top of
// the shared store, falling back to paired peers for unknown recipients.
type MailboxService struct {
	store    ports.MailboxStore
	peers    ports.PeerStore
	client   ports.PeerClient
	resolver *IdentityResolver
	audit    ports.AuditLog
	clock    ports.Clock
	limits   domain.SendLimits
	logger   zerolog.Logger
}

func NewMailboxService(
	store ports.MailboxStore,
	peers ports.PeerStore,
	client ports.PeerClient,
	resolver *IdentityResolver,
	audit ports.AuditLog,
	clock ports.Clock,
	logger zerolog.Logger,
) *MailboxService {
	if clock == nil {
		clock = ports.SystemClock{}
	}
	if audit == nil {
		audit = ports.NopAuditLog{}
	}

	return &MailboxService{
		store:    store,
		peers:    peers,
		client:   client,
		resolver: resolver,
		audit:    audit,
		clock:    clock,
		limits:   domain.DefaultSendLimits(),
		logger:   logger.With().Str("component", "mailbox").Logger(),
	}
}

func (s *MailboxService) Join(ctx context.Context, cmd JoinCommand) (JoinResult, error) {
	if err := domain.ValidateAgentID(cmd.Agent); err != nil {
		return JoinResult{}, err
	}
	if err := domain.ValidateNetworkID(cmd.Network); err != nil {
		return JoinResult{}, err
	}

	token, err := s.resolver.Token(ctx)
	if err != nil {
		return JoinResult{}, err
	}

	now := s.clock.Now()
	role := strings.TrimSpace(cmd.Role)
	outcome, err := s.store.Join(ctx, domain.Session{
		Token:    token,
		Agent:    cmd.Agent,
		Network:  cmd.Network,
		Role:     role,
		JoinedAt: now,
		LastSeen: now,
	}, now)
	if err != nil {
		return JoinResult{}, fmt.Errorf("join network: %w", err)
	}

	if outcome.Evicted != "" {
		s.audit.Append(ctx, ports.AuditTakeover, map[string]any{
			"network":     string(cmd.Network),
			"agent_id":    string(cmd.Agent),
			"old_session": string(outcome.Evicted),
			"new_session": string(token),
		})
		s.logger.Info().Str("agent", string(cmd.Agent)).Str("network", string(cmd.Network)).Msg("took over stale session")
	}

	others := make([]AgentView, 0, len(outcome.Others))
	for _, other := range outcome.Others {
		others = append(others, AgentView{AgentID: other.Agent, Role: other.Role, IsActive: true})
	}

	return JoinResult{
		Envelope:        Envelope{YourID: cmd.Agent, Network: cmd.Network},
		Status:          "joined",
		Role:            role,
		OtherAgents:     others,
		TookOver:        outcome.Evicted != "",
		ListenerCommand: ListenerCommand,
	}, nil
}

func (s *MailboxService) Leave(ctx context.Context) (LeaveResult, error) {
	session, err := s.resolver.Resolve(ctx)
	if err != nil {
		return LeaveResult{}, err
	}

	env := envelopeOf(session.Identity())
	if err := s.store.Leave(ctx, session.Token); err != nil {
		return LeaveResult{}, withEnvelope(env, fmt.Errorf("leave network: %w", err))
	}

	return LeaveResult{Envelope: env, Status: "left"}, nil
}

// Send delivers content to a live local agent, or relays it to the paired
// peer that reports the recipient as active.
func (s *MailboxService) Send(ctx context.Context, to domain.AgentID, content string) (SendResult, error) {
	session, err := s.resolver.Resolve(ctx)
	if err != nil {
		return SendResult{}, err
	}
	env := envelopeOf(session.Identity())

	if strings.TrimSpace(string(to)) == "" {
		return SendResult{}, withEnvelope(env, fmt.Errorf("%w: recipient", domain.ErrMissingField))
	}
	if err := domain.ValidateContent(content); err != nil {
		return SendResult{}, withEnvelope(env, err)
	}

	now := s.clock.Now()
	_, err = s.store.LiveSession(ctx, domain.Identity{Agent: to, Network: session.Network}, now)
	switch {
	case errors.Is(err, domain.ErrRecipientNotFound):
		result, relayErr := s.relaySend(ctx, session, to, content)
		if relayErr != nil {
			return SendResult{}, withEnvelope(env, relayErr)
		}
		result.Envelope = env
		return result, nil
	case err != nil:
		return SendResult{}, withEnvelope(env, fmt.Errorf("look up recipient: %w", err))
	}

	id, err := s.store.Enqueue(ctx, domain.Message{
		Network:   session.Network,
		Sender:    session.Agent,
		Recipient: to,
		Content:   content,
		CreatedAt: now,
	}, s.limits)
	if err != nil {
		return SendResult{}, withEnvelope(env, fmt.Errorf("send message: %w", err))
	}

	s.heartbeat(ctx, session)
	s.audit.Append(ctx, ports.AuditSend, map[string]any{
		"network":        string(session.Network),
		"from":           string(session.Agent),
		"to":             string(to),
		"message_id":     int64(id),
		"content_length": domain.ContentLength(content),
	})

	return SendResult{Envelope: env, Status: "sent", To: to, MessageID: id}, nil
}

// Broadcast sends content to every other live agent of the network and to
// every mutual peer. Capped recipients and failing peers never fail the
// whole broadcast.
func (s *MailboxService) Broadcast(ctx context.Context, content string) (BroadcastResult, error) {
	session, err := s.resolver.Resolve(ctx)
	if err != nil {
		return BroadcastResult{}, err
	}
	env := envelopeOf(session.Identity())

	if err := domain.ValidateContent(content); err != nil {
		return BroadcastResult{}, withEnvelope(env, err)
	}

	now := s.clock.Now()
	sessions, err := s.store.ListSessions(ctx, session.Network)
	if err != nil {
		return BroadcastResult{}, withEnvelope(env, fmt.Errorf("list network sessions: %w", err))
	}

	recipients := make([]domain.AgentID, 0, len(sessions))
	for _, other := range sessions {
		if other.Token == session.Token || other.Agent == session.Agent || !other.IsLive(now) {
			continue
		}
		recipients = append(recipients, other.Agent)
	}

	var outcome ports.BroadcastOutcome
	if len(recipients) > 0 {
		outcome, err = s.store.EnqueueBroadcast(ctx, domain.Message{
			Network:   session.Network,
			Sender:    session.Agent,
			Content:   content,
			Broadcast: true,
			CreatedAt: now,
		}, recipients, s.limits)
		if err != nil {
			return BroadcastResult{}, withEnvelope(env, fmt.Errorf("broadcast message: %w", err))
		}
	}

	remote := s.relayBroadcast(ctx, session, content)

	skipped := make([]SkippedView, 0, len(outcome.Skipped))
	for _, skip := range outcome.Skipped {
		skipped = append(skipped, SkippedView{AgentID: skip.Agent, Reason: skip.Reason.Error()})
	}

	status := "broadcast_sent"
	if len(recipients) == 0 && remote == 0 {
		status = "no_recipients"
	}

	s.heartbeat(ctx, session)
	s.audit.Append(ctx, ports.AuditBroadcast, map[string]any{
		"network":         string(session.Network),
		"from":            string(session.Agent),
		"recipient_count": len(outcome.Delivered),
		"remote_count":    remote,
		"skipped_count":   len(skipped),
		"content_length":  domain.ContentLength(content),
	})

	return BroadcastResult{
		Envelope:       env,
		Status:         status,
		RecipientCount: len(outcome.Delivered),
		RemoteCount:    remote,
		Skipped:        skipped,
	}, nil
}

func (s *MailboxService) CheckInbox(ctx context.Context) (InboxResult, error) {
	return s.Fetch(ctx, domain.InboxBatch)
}

func (s *MailboxService) Fetch(ctx context.Context, limit int) (InboxResult, error) {
	session, err := s.resolver.Resolve(ctx)
	if err != nil {
		return InboxResult{}, err
	}
	return s.Drain(ctx, session, limit)
}

// Drain marks up to limit pending messages of session as delivered and
// returns them. It also refreshes the session heartbeat.
func (s *MailboxService) Drain(ctx context.Context, session domain.Session, limit int) (InboxResult, error) {
	env := envelopeOf(session.Identity())
	if limit <= 0 {
		limit = domain.InboxBatch
	}

	messages, remaining, err := s.store.Fetch(ctx, session.Token, session.Identity(), limit, s.clock.Now())
	if err != nil {
		return InboxResult{}, withEnvelope(env, fmt.Errorf("fetch messages: %w", err))
	}

	if len(messages) > 0 {
		ids := make([]int64, 0, len(messages))
		for _, msg := range messages {
			ids = append(ids, int64(msg.ID))
		}
		s.audit.Append(ctx, ports.AuditReceive, map[string]any{
			"network":     string(session.Network),
			"agent":       string(session.Agent),
			"message_ids": ids,
			"count":       len(ids),
		})
	}

	return InboxResult{
		Envelope:  env,
		Messages:  messageViews(messages),
		HasMore:   remaining > 0,
		Remaining: remaining,
	}, nil
}

// ListAgents lists every local session of the caller's network and the
// agents advertised by mutual peers. Unreachable peers are left out.
func (s *MailboxService) ListAgents(ctx context.Context) (AgentsResult, error) {
	session, err := s.resolver.Resolve(ctx)
	if err != nil {
		return AgentsResult{}, err
	}
	env := envelopeOf(session.Identity())

	now := s.clock.Now()
	s.heartbeat(ctx, session)

	sessions, err := s.store.ListSessions(ctx, session.Network)
	if err != nil {
		return AgentsResult{}, withEnvelope(env, fmt.Errorf("list network sessions: %w", err))
	}

	agents := make([]AgentView, 0, len(sessions))
	for _, other := range sessions {
		isYou := other.Token == session.Token
		var idle int64
		if !isYou {
			idle = int64(other.IdleFor(now).Seconds())
		}
		agents = append(agents, AgentView{
			AgentID:         other.Agent,
			Role:            other.Role,
			IsYou:           isYou,
			IsActive:        isYou || other.IsLive(now),
			LastSeenSeconds: &idle,
		})
	}

	remote, err := s.remoteAgents(ctx, session.Network)
	if err != nil {
		return AgentsResult{}, withEnvelope(env, err)
	}
	for _, agent := range remote {
		agents = append(agents, AgentView{
			AgentID:  agent.Agent,
			Role:     agent.Role,
			Peer:     agent.Peer,
			IsActive: agent.Active,
		})
	}

	return AgentsResult{Envelope: env, Agents: agents, Count: len(agents)}, nil
}

// Sweep deletes delivered messages older than the retention period.
func (s *MailboxService) Sweep(ctx context.Context) (SweepResult, error) {
	removed, err := s.store.Sweep(ctx, s.clock.Now().Add(-domain.RetentionPeriod))
	if err != nil {
		return SweepResult{}, fmt.Errorf("sweep messages: %w", err)
	}
	return SweepResult{Status: "swept", Removed: removed}, nil
}

func (s *MailboxService) heartbeat(ctx context.Context, session domain.Session) {
	if err := s.store.Touch(ctx, session.Token, s.clock.Now()); err != nil {
		s.logger.Warn().Err(err).Str("agent", string(session.Agent)).Msg("heartbeat failed")
	}
}
