package domain

import "time"

type MessageID int64

type MessageStatus string

const (
	MessagePending   MessageStatus = "pending"
	MessageDelivered MessageStatus = "delivered"
)

type Message struct {
	ID          MessageID
	Network     NetworkID
	Sender      AgentID
	Recipient   AgentID
	Content     string
	Broadcast   bool
	Status      MessageStatus
	CreatedAt   time.Time
	DeliveredAt time.Time
}

func (m Message) IsSystem() bool {
	return m.Sender == SystemSender
}

// SkippedRecipient records a broadcast target that was over one of its caps.
type SkippedRecipient struct {
	Agent  AgentID
	Reason error
}

type HistoryFilter struct {
	Network NetworkID
	Since   time.Time
	Agent   AgentID
}
