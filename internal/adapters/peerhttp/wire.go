package peerhttp

// Request and response bodies exchanged between federation servers. The
// JSON field names are shared with peers running earlier releases.

const (
	PathHealth      = "/api/health"
	PathAgents      = "/api/agents"
	PathDeliver     = "/api/deliver"
	PathPairRequest = "/api/pair/request"
	PathPairAccept  = "/api/pair/accept"

	QueryNetworkID = "network_id"
)

type HealthResponse struct {
	Status  string `json:"status"`
	Machine string `json:"machine"`
}

type AgentEntry struct {
	AgentID  string `json:"agent_id"`
	Role     string `json:"role"`
	IsActive bool   `json:"is_active"`
}

type AgentsResponse struct {
	Agents []AgentEntry `json:"agents"`
	Count  int          `json:"count"`
}

type DeliverRequest struct {
	SenderID    string `json:"sender_id"`
	NetworkID   string `json:"network_id"`
	RecipientID string `json:"recipient_id,omitempty"`
	Content     string `json:"content"`
	IsBroadcast bool   `json:"is_broadcast,omitempty"`
}

type DeliverResponse struct {
	Status         string `json:"status"`
	DeliveredCount int    `json:"delivered_count"`
}

type PairRequest struct {
	Name   string `json:"name"`
	URL    string `json:"url"`
	Secret string `json:"secret"`
}

type PairAcceptRequest struct {
	Name string `json:"name"`
}

type StatusResponse struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
