package application

import (
	"time"

	"github.com/bnema/agent-network/internal/domain"
)

// Envelope identifies the caller in every mailbox result.
type Envelope struct {
	YourID  domain.AgentID   `json:"your_id"`
	Network domain.NetworkID `json:"network"`
}

func envelopeOf(id domain.Identity) Envelope {
	return Envelope{YourID: id.Agent, Network: id.Network}
}

type AgentView struct {
	AgentID         domain.AgentID  `json:"agent_id"`
	Role            string          `json:"role"`
	Peer            domain.PeerName `json:"peer,omitempty"`
	IsYou           bool            `json:"is_you"`
	IsActive        bool            `json:"is_active"`
	LastSeenSeconds *int64          `json:"last_seen_seconds_ago,omitempty"`
}

type JoinResult struct {
	Envelope
	Status          string      `json:"status"`
	Role            string      `json:"role,omitempty"`
	OtherAgents     []AgentView `json:"other_agents"`
	TookOver        bool        `json:"took_over,omitempty"`
	ListenerCommand string      `json:"listener_command"`
}

type LeaveResult struct {
	Envelope
	Status string `json:"status"`
}

type SendResult struct {
	Envelope
	Status         string           `json:"status"`
	To             domain.AgentID   `json:"to"`
	MessageID      domain.MessageID `json:"message_id,omitempty"`
	Peer           domain.PeerName  `json:"peer,omitempty"`
	DeliveredCount int              `json:"delivered_count,omitempty"`
}

type SkippedView struct {
	AgentID domain.AgentID `json:"agent_id"`
	Reason  string         `json:"reason"`
}

type BroadcastResult struct {
	Envelope
	Status         string        `json:"status"`
	RecipientCount int           `json:"recipient_count"`
	RemoteCount    int           `json:"remote_count"`
	Skipped        []SkippedView `json:"skipped,omitempty"`
}

type MessageView struct {
	ID          domain.MessageID `json:"id"`
	From        domain.AgentID   `json:"from"`
	Content     string           `json:"content"`
	IsBroadcast bool             `json:"is_broadcast"`
	IsSystem    bool             `json:"is_system,omitempty"`
	SentAt      time.Time        `json:"sent_at"`
}

type InboxResult struct {
	Envelope
	Status    string        `json:"status,omitempty"`
	Messages  []MessageView `json:"messages"`
	HasMore   bool          `json:"has_more"`
	Remaining int           `json:"remaining"`
	Waited    float64       `json:"waited,omitempty"`
}

type AgentsResult struct {
	Envelope
	Agents []AgentView `json:"agents"`
	Count  int         `json:"count"`
}

type PairResult struct {
	Status  string          `json:"status"`
	Peer    domain.PeerName `json:"peer"`
	Message string          `json:"message,omitempty"`
	Warning string          `json:"warning,omitempty"`
}

type ApproveResult struct {
	Status  string          `json:"status"`
	Peer    domain.PeerName `json:"peer"`
	URL     string          `json:"url"`
	Warning string          `json:"warning,omitempty"`
}

type PeerView struct {
	Name      domain.PeerName `json:"name"`
	URL       string          `json:"url"`
	Status    string          `json:"status"`
	Direction string          `json:"direction"`
	CreatedAt time.Time       `json:"created_at"`
	LastSeen  *time.Time      `json:"last_seen,omitempty"`
}

type PeersResult struct {
	Peers []PeerView `json:"peers"`
	Count int        `json:"count"`
}

type PingResult struct {
	Status    string          `json:"status"`
	Peer      domain.PeerName `json:"peer"`
	Machine   string          `json:"machine,omitempty"`
	LatencyMS int64           `json:"latency_ms"`
}

type RemovePeerResult struct {
	Status string          `json:"status"`
	Peer   domain.PeerName `json:"peer"`
}

type SweepResult struct {
	Status  string `json:"status"`
	Removed int64  `json:"removed"`
}

func messageViews(messages []domain.Message) []MessageView {
	views := make([]MessageView, 0, len(messages))
	for _, msg := range messages {
		views = append(views, MessageView{
			ID:          msg.ID,
			From:        msg.Sender,
			Content:     msg.Content,
			IsBroadcast: msg.Broadcast,
			IsSystem:    msg.IsSystem(),
			SentAt:      msg.CreatedAt,
		})
	}
	return views
}

func peerView(peer domain.Peer) PeerView {
	view := PeerView{
		Name:      peer.Name,
		URL:       peer.URL,
		Status:    peer.Trust.Status(),
		Direction: peer.Trust.Direction(),
		CreatedAt: peer.CreatedAt,
	}
	if !peer.LastSeen.IsZero() {
		lastSeen := peer.LastSeen
		view.LastSeen = &lastSeen
	}
	return view
}
