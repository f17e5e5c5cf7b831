// internal/server/server.go
package server

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"

	"rental-portal/internal/audit"
	"rental-portal/internal/common/config"
	"rental-portal/internal/common/errors"
	commonhttp "rental-portal/internal/common/http"
	"rental-portal/internal/common/logger"
	portalmw "rental-portal/internal/common/middleware"
	"rental-portal/internal/common/observability"
	"rental-portal/internal/common/validation"
	"rental-portal/internal/gate"
	authhandler "rental-portal/internal/handlers/auth"
	dashboardhandler "rental-portal/internal/handlers/dashboard"
	healthhandler "rental-portal/internal/handlers/health"
	maphandler "rental-portal/internal/handlers/mapview"
	searchhandler "rental-portal/internal/handlers/search"
	wizardhandler "rental-portal/internal/handlers/wizard"
	"rental-portal/internal/mapview"
	"rental-portal/internal/notify"
	"rental-portal/internal/proxy"
	"rental-portal/internal/search"
	"rental-portal/internal/session"
	"rental-portal/internal/upstream"
	"rental-portal/internal/wizard"
	"rental-portal/pkg/registry"
)

// Deps are the connections the portal runs on. Redis and Registry are
// required; the rest switch features off when nil.
type Deps struct {
	Redis    *redis.Client
	Postgres *sql.DB
	Elastic  *elasticsearch.Client
	Registry *registry.WizardRegistry
	Mailer   notify.EmailSender
	SMS      notify.SMSSender
	Obs      *observability.Observability
	Checks   map[string]healthhandler.Pinger

	// ProxyTransport overrides the transport of the same-origin proxy.
	ProxyTransport http.RoundTripper
}

// Server is the assembled echo app plus the background work it owns.
type Server struct {
	Echo     *echo.Echo
	MapStore *mapview.Store
	cfg      *config.Config
	logger   logger.Logger
}

func New(cfg *config.Config, deps Deps, log logger.Logger) (*Server, error) {
	if deps.Redis == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	if deps.Registry == nil {
		return nil, fmt.Errorf("wizard registry is required")
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = validation.NewRequestValidator()
	e.HTTPErrorHandler = errors.NewErrorHandler(log).Handle
	e.Server.ReadTimeout = config.GetDuration(cfg.Server.ReadTimeout)
	e.Server.WriteTimeout = config.GetDuration(cfg.Server.WriteTimeout)

	e.Use(middleware.Recover())
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{Generator: uuid.NewString}))
	e.Use(portalmw.RequestLog(log, deps.Obs))
	if len(cfg.Server.AllowedOrigins) > 0 {
		e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins:     cfg.Server.AllowedOrigins,
			AllowCredentials: true,
		}))
	}
	if cfg.Wizards.MaxFileBytes > 0 {
		// room for several files plus the text fields of one request
		e.Use(middleware.BodyLimit(fmt.Sprintf("%dK", cfg.Wizards.MaxFileBytes*4/1024+64)))
	}

	sessions := session.NewManager(cfg.Session, log)
	e.Use(sessions.Middleware())
	e.Use(gate.New(cfg.Gate, log).Middleware())

	// backend
	httpOpts := []commonhttp.Option{commonhttp.WithSharedSecret(cfg.Upstream.SecretHeader, cfg.Upstream.SharedSecret)}
	if deps.Obs != nil {
		httpOpts = append(httpOpts, commonhttp.WithTracer(deps.Obs.Tracer("rental-portal/upstream")))
	}
	backend := upstream.NewClient(
		commonhttp.NewClient(cfg.Upstream.BaseURL, config.GetDuration(cfg.Upstream.Timeout), httpOpts...),
		log,
	)

	// wizards
	opts := []wizard.ServiceOption{wizard.WithMaxFileBytes(cfg.Wizards.MaxFileBytes)}
	var history wizardhandler.History
	if deps.Postgres != nil {
		recorder := audit.NewRecorder(deps.Postgres, log)
		opts = append(opts, wizard.WithRecorder(recorder))
		history = recorder
	}
	if deps.Mailer != nil || deps.SMS != nil {
		opts = append(opts, wizard.WithNotifier(notify.NewNotifier(cfg.Notifications, deps.Mailer, deps.SMS, log)))
	}
	wizards := wizard.NewService(
		deps.Registry,
		wizard.NewRedisDraftStore(deps.Redis, config.GetDuration(cfg.Wizards.DraftTTL), config.GetDuration(cfg.Wizards.SubmitLock)),
		wizard.NewAutoFiller(backend, log),
		backend,
		log.WithFields(map[string]interface{}{"component": "wizard"}),
		opts...,
	)

	// search
	var provider search.Provider = search.ProviderFunc(backend.Suggest)
	source := search.SourceUpstream
	if cfg.Search.Source == search.SourceElasticsearch && deps.Elastic != nil {
		provider = search.NewElasticProvider(deps.Elastic, cfg.Search.Index)
		source = search.SourceElasticsearch
	}
	if ttl := config.GetDuration(cfg.Search.CacheTTL); ttl > 0 {
		provider = search.NewCachedProvider(provider, deps.Redis, ttl, log)
	}
	debouncer := search.NewDebouncer(provider, source, config.GetDuration(cfg.Search.Debounce), cfg.Search.MaxSuggestions, log)

	mapStore := mapview.NewStore(mapview.NewCatalog(cfg.Map), config.GetDuration(cfg.Map.SessionIdleTTL), log)

	var proxyOpts []proxy.Option
	if deps.ProxyTransport != nil {
		proxyOpts = append(proxyOpts, proxy.WithTransport(deps.ProxyTransport))
	}
	px, err := proxy.New(cfg.Upstream, log, proxyOpts...)
	if err != nil {
		return nil, err
	}

	checks := deps.Checks
	if checks == nil {
		checks = map[string]healthhandler.Pinger{}
	}

	healthhandler.NewHandler(checks, log).Register(e)
	authhandler.NewHandler(backend, sessions, log).Register(e)
	wizardhandler.NewHandler(wizards, history, cfg.Wizards.MaxFileBytes, log).Register(e)
	searchhandler.NewHandler(debouncer, log).Register(e)
	maphandler.NewHandler(mapStore, log).Register(e)
	dashboardhandler.NewHandler(backend, log).Register(e)
	px.Register(e)

	log.Info("Routes registered", map[string]interface{}{
		"routes":       len(e.Routes()),
		"wizards":      len(deps.Registry.Wizards),
		"searchSource": source,
		"audit":        deps.Postgres != nil,
	})
	return &Server{Echo: e, MapStore: mapStore, cfg: cfg, logger: log}, nil
}

// Run serves until ctx is done, then shuts down within the configured timeout.
func (s *Server) Run(ctx context.Context) error {
	janitorCtx, stopJanitor := context.WithCancel(ctx)
	defer stopJanitor()
	go s.MapStore.RunJanitor(janitorCtx, time.Minute)

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("HTTP server listening", map[string]interface{}{"address": s.cfg.Server.Address})
		if err := s.Echo.Start(s.cfg.Server.Address); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("Shutdown signal received, draining requests", nil)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.GetDuration(s.cfg.Server.ShutdownTimeout))
	defer cancel()
	return s.Echo.Shutdown(shutdownCtx)
}
