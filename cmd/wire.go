package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/bnema/agent-network/internal/adapters/audit"
	"github.com/bnema/agent-network/internal/adapters/identity/ancestry"
	"github.com/bnema/agent-network/internal/adapters/identity/chain"
	"github.com/bnema/agent-network/internal/adapters/identity/env"
	"github.com/bnema/agent-network/internal/adapters/identity/memo"
	"github.com/bnema/agent-network/internal/adapters/peerhttp"
	chatrender "github.com/bnema/agent-network/internal/adapters/render/chat"
	sqliterepo "github.com/bnema/agent-network/internal/adapters/repo/sqlite"
	"github.com/bnema/agent-network/internal/application"
	"github.com/bnema/agent-network/internal/config"
	"github.com/bnema/agent-network/internal/domain"
	"github.com/bnema/agent-network/internal/ports"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

// app holds the process-wide wiring. The store and everything built on it
// are opened on first use so that commands such as hooks can bail out
// before touching the database.
type app struct {
	cfg      *viper.Viper
	settings config.Settings
	logger   zerolog.Logger
	clock    ports.Clock
	session  string

	renderNetworks func([]domain.NetworkSummary, chatrender.RenderOptions) (string, error)
	renderLog      func(application.ChatLog, chatrender.RenderOptions) (string, error)

	store      *sqliterepo.Store
	auditLog   *audit.Log
	markers    *ancestry.Markers
	peerClient *peerhttp.CachingClient
	resolver   *application.IdentityResolver
	mailbox    *application.MailboxService
	waiter     *application.Waiter
	peers      *application.PeerService
	federation *application.FederationService
	history    *application.HistoryService
}

func wireApp() (*app, error) {
	cfg, err := config.Load("", ".env")
	if err != nil {
		return nil, fmt.Errorf("wire config: %w", err)
	}
	settings := config.FromViper(cfg)

	return &app{
		cfg:            cfg,
		settings:       settings,
		logger:         newLogger(os.Stderr, settings.LogLevel),
		clock:          ports.SystemClock{},
		renderNetworks: chatrender.RenderNetworks,
		renderLog:      chatrender.RenderLog,
	}, nil
}

func newLogger(w io.Writer, level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.WarnLevel
	}

	return zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}).
		Level(lvl).
		With().
		Timestamp().
		Logger()
}

func (a *app) databaseExists() bool {
	_, err := os.Stat(a.settings.DB)
	return err == nil
}

// open builds the store-backed services once per process.
func (a *app) open(ctx context.Context) error {
	if a.store != nil {
		return nil
	}

	store, err := sqliterepo.NewStore(ctx, a.cfg)
	if err != nil {
		return fmt.Errorf("wire store: %w", err)
	}

	auditLog, err := audit.Open(a.settings.LogPath)
	if err != nil {
		a.logger.Warn().Err(err).Str("path", a.settings.LogPath).Msg("audit log unavailable")
	}

	token := strings.TrimSpace(a.session)
	if token == "" {
		token = a.settings.SessionID
	}

	markers := ancestry.NewMarkers(a.settings.SessionsDir)
	provider := memo.NewProvider(chain.NewProvider(env.NewProvider(token), ancestry.NewProvider(markers)))
	client := peerhttp.NewCachingClient(
		peerhttp.NewClient(a.settings.PeerTimeout, a.logger),
		a.clock,
		domain.PeerAgentCacheTTL,
	)
	local := application.LocalNode{Name: domain.PeerName(a.settings.MachineName), URL: a.settings.HTTPURL}

	var auditPort ports.AuditLog
	if auditLog != nil {
		auditPort = auditLog
	}

	resolver := application.NewIdentityResolver(provider, store)
	mailbox := application.NewMailboxService(store, store, client, resolver, auditPort, a.clock, a.logger)

	a.store = store
	a.auditLog = auditLog
	a.markers = markers
	a.peerClient = client
	a.resolver = resolver
	a.mailbox = mailbox
	a.waiter = application.NewWaiter(mailbox, store, resolver, a.clock)
	a.peers = application.NewPeerService(store, store, client, auditPort, a.clock, local, a.logger)
	a.federation = application.NewFederationService(store, store, a.clock, local, a.logger)
	a.history = application.NewHistoryService(store, a.clock)

	return nil
}

func (a *app) hooks(cfg application.HookConfig) *application.HookService {
	var markers ports.SessionMarkers
	if a.markers != nil {
		markers = a.markers
	}
	return application.NewHookService(a.store, a.mailbox, markers, a.clock, cfg, a.logger)
}

func (a *app) close() error {
	var errs []error
	if a.auditLog != nil {
		errs = append(errs, a.auditLog.Close())
	}
	if a.store != nil {
		errs = append(errs, a.store.Close())
	}
	a.store = nil
	a.auditLog = nil
	return errors.Join(errs...)
}
