package ports

import "context"

type AuditEvent string

const (
	AuditSend         AuditEvent = "send"
	AuditReceive      AuditEvent = "receive"
	AuditBroadcast    AuditEvent = "broadcast"
	AuditRelay        AuditEvent = "relay"
	AuditTakeover     AuditEvent = "takeover"
	AuditPeerApproved AuditEvent = "peer_approved"
	AuditPeerRemoved  AuditEvent = "peer_removed"
)

type AuditLog interface {
	Append(ctx context.Context, event AuditEvent, fields map[string]any)
}

type NopAuditLog struct{}

func (NopAuditLog) Append(context.Context, AuditEvent, map[string]any) {}
