package domain

import "time"

type Session struct {
	Token    SessionToken
	Agent    AgentID
	Network  NetworkID
	Role     string
	JoinedAt time.Time
	LastSeen time.Time
}

func (s Session) Identity() Identity {
	return Identity{Agent: s.Agent, Network: s.Network}
}

// IsLive reports whether the session heartbeat is within SessionExpiry of now.
func (s Session) IsLive(now time.Time) bool {
	return now.Sub(s.LastSeen) < SessionExpiry
}

func (s Session) IdleFor(now time.Time) time.Duration {
	idle := now.Sub(s.LastSeen)
	if idle < 0 {
		return 0
	}
	return idle
}

// NetworkSummary aggregates the sessions of one network for the chat viewer.
type NetworkSummary struct {
	Network    NetworkID
	Agents     []AgentID
	LastActive time.Time
}
