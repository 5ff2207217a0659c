package domain

import "time"

const (
	MaxContentLength = 8000

	SessionExpiry = 30 * time.Second

	UnreadCap         = 5
	RateLimitCount    = 10
	RateWindow        = 60 * time.Second
	InboundPendingCap = 20

	RetentionPeriod = 7 * 24 * time.Hour

	DefaultWaitTimeout = 30 * time.Second
	MaxWaitTimeout     = 90 * time.Second
	PollInterval       = 2 * time.Second

	InboxBatch = 5
	// HookBatch is smaller than InboxBatch to keep injected tool context short.
	HookBatch = 3

	PeerAgentCacheTTL = 30 * time.Second
)

const (
	SystemNetwork NetworkID = "_peer_system"
	SystemSender  AgentID   = "_system"
)

// SendLimits bounds how many messages one sender may queue for one recipient.
type SendLimits struct {
	UnreadCap  int
	RateCount  int
	RateWindow time.Duration
}

func DefaultSendLimits() SendLimits {
	return SendLimits{
		UnreadCap:  UnreadCap,
		RateCount:  RateLimitCount,
		RateWindow: RateWindow,
	}
}
