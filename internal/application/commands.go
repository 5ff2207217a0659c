package application

import "github.com/bnema/agent-network/internal/domain"

type JoinCommand struct {
	Network domain.NetworkID
	Agent   domain.AgentID
	Role    string
}

type PairCommand struct {
	URL    string
	Name   domain.PeerName
	Secret string
}

// InboundDelivery is a message relayed to this machine by a paired peer.
type InboundDelivery struct {
	Sender    domain.AgentID
	Network   domain.NetworkID
	Recipient domain.AgentID
	Content   string
	Broadcast bool
}
