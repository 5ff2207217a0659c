package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/bnema/agent-network/internal/adapters/peerhttp"
	"github.com/bnema/agent-network/internal/application"
	"github.com/bnema/agent-network/internal/domain"
	"github.com/bnema/agent-network/internal/metrics"
	"github.com/bnema/agent-network/internal/ports"
	"github.com/rs/zerolog"
)

// Handler serves the federation endpoints.
type Handler struct {
	fed    Federation
	logger zerolog.Logger
}

func NewHandler(fed Federation, logger zerolog.Logger) *Handler {
	return &Handler{fed: fed, logger: logger}
}

func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, peerhttp.HealthResponse{Status: "ok", Machine: h.fed.MachineName()})
}

func (h *Handler) Agents(w http.ResponseWriter, r *http.Request) {
	network := domain.NetworkID(r.URL.Query().Get(peerhttp.QueryNetworkID))
	agents, err := h.fed.ListLocalAgents(r.Context(), peerFrom(r.Context()), network)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	entries := make([]peerhttp.AgentEntry, 0, len(agents))
	for _, agent := range agents {
		entries = append(entries, peerhttp.AgentEntry{
			AgentID:  string(agent.AgentID),
			Role:     agent.Role,
			IsActive: agent.IsActive,
		})
	}

	writeJSON(w, http.StatusOK, peerhttp.AgentsResponse{Agents: entries, Count: len(entries)})
}

func (h *Handler) Deliver(w http.ResponseWriter, r *http.Request) {
	var req peerhttp.DeliverRequest
	if !h.decode(w, r, &req) {
		return
	}

	delivered, err := h.fed.DeliverInbound(r.Context(), peerFrom(r.Context()), application.InboundDelivery{
		Sender:    domain.AgentID(req.SenderID),
		Network:   domain.NetworkID(req.NetworkID),
		Recipient: domain.AgentID(req.RecipientID),
		Content:   req.Content,
		Broadcast: req.IsBroadcast,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}

	kind := "direct"
	if req.IsBroadcast {
		kind = "broadcast"
	}
	metrics.InboundMessages.WithLabelValues(kind).Add(float64(delivered))

	writeJSON(w, http.StatusOK, peerhttp.DeliverResponse{Status: "delivered", DeliveredCount: delivered})
}

func (h *Handler) PairRequest(w http.ResponseWriter, r *http.Request) {
	var req peerhttp.PairRequest
	if !h.decode(w, r, &req) {
		return
	}

	err := h.fed.ReceivePairRequest(r.Context(), ports.PairingRequest{
		Name:   domain.PeerName(req.Name),
		URL:    req.URL,
		Secret: req.Secret,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, peerhttp.StatusResponse{Status: "pending", Message: "Pairing request received"})
}

func (h *Handler) PairAccept(w http.ResponseWriter, r *http.Request) {
	var req peerhttp.PairAcceptRequest
	if !h.decode(w, r, &req) {
		return
	}

	if err := h.fed.AcceptPairing(r.Context(), domain.PeerName(req.Name), bearerToken(r)); err != nil {
		h.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, peerhttp.StatusResponse{Status: "approved", Message: "Pairing confirmed"})
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, into any) bool {
	if err := json.NewDecoder(r.Body).Decode(into); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return false
		}
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		h.logger.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		message = "Internal server error"
	}
	writeError(w, status, message)
}

// statusFor maps error kinds to HTTP status codes.
func statusFor(err error) int {
	switch domain.KindOf(err) {
	case domain.KindValidation:
		return http.StatusBadRequest
	case domain.KindCapacity:
		return http.StatusTooManyRequests
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindUnauthorized:
		return http.StatusUnauthorized
	case domain.KindConflict:
		return http.StatusConflict
	case domain.KindStoreContention:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, peerhttp.ErrorResponse{Error: message})
}
