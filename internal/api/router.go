package api

import (
	"context"
	"net/http"

	"github.com/bnema/agent-network/internal/adapters/peerhttp"
	"github.com/bnema/agent-network/internal/application"
	"github.com/bnema/agent-network/internal/domain"
	"github.com/bnema/agent-network/internal/ports"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

const MaxBodyBytes = 64 << 10

// Federation is the server-side behavior the peer endpoints expose.
type Federation interface {
	MachineName() string
	Authenticate(ctx context.Context, token string) (domain.Peer, error)
	ListLocalAgents(ctx context.Context, peer domain.Peer, network domain.NetworkID) ([]application.AgentView, error)
	DeliverInbound(ctx context.Context, peer domain.Peer, in application.InboundDelivery) (int, error)
	ReceivePairRequest(ctx context.Context, req ports.PairingRequest) error
	AcceptPairing(ctx context.Context, name domain.PeerName, bearer string) error
}

type Options struct {
	// RequestsPerSecond and Burst bound each client address.
	RequestsPerSecond float64
	Burst             int
}

func DefaultOptions() Options {
	return Options{RequestsPerSecond: 20, Burst: 40}
}

// NewRouter builds the federation HTTP API.
func NewRouter(fed Federation, logger zerolog.Logger, opts Options) *chi.Mux {
	r := chi.NewRouter()

	r.Use(Metrics)
	r.Use(MaxBodySize(MaxBodyBytes))
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(Logger(logger))
	r.Use(chimw.Recoverer)

	limiter := NewRateLimiter(opts.RequestsPerSecond, opts.Burst)
	r.Use(limiter.Middleware)

	h := NewHandler(fed, logger)

	r.Handle("/metrics", promhttp.Handler())
	r.Get(peerhttp.PathHealth, h.Health)
	r.Post(peerhttp.PathPairRequest, h.PairRequest)
	r.Post(peerhttp.PathPairAccept, h.PairAccept)

	r.Group(func(r chi.Router) {
		r.Use(RequirePeer(fed))

		r.Get(peerhttp.PathAgents, h.Agents)
		r.Post(peerhttp.PathDeliver, h.Deliver)
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "Not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	return r
}
