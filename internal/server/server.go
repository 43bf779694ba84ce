package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/maskrelay/maskrelay/internal/config"
	"github.com/maskrelay/maskrelay/internal/events"
	"github.com/maskrelay/maskrelay/internal/llm"
	"github.com/maskrelay/maskrelay/internal/logger"
	"github.com/maskrelay/maskrelay/internal/pipeline"
	"github.com/maskrelay/maskrelay/internal/privacy"
	"github.com/maskrelay/maskrelay/internal/session"
	"go.uber.org/zap"
)

// Server represents the main gateway server
type Server struct {
	config   *config.Config
	logger   *logger.Logger
	store    session.Store
	masker   *privacy.Masker
	registry *pipeline.Registry
	executor *pipeline.Executor
	llm      llm.Client
	hub      *events.Hub
	limiter  *clientLimiter
	router   *mux.Router
	server   *http.Server
}

// New creates a new gateway server instance
func New(cfg *config.Config, log *logger.Logger) (*Server, error) {
	// Create session mapping store
	store, err := newStore(cfg.Sessions, log.WithComponent("session").Logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create session store: %w", err)
	}

	// Create PII masker
	masker, err := privacy.NewMasker(cfg.Privacy, nil, store, log.WithComponent("privacy"))
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("failed to create PII masker: %w", err)
	}

	// Create event hub
	hub := events.NewHub(events.HubConfig{
		BroadcastDetections: cfg.Events.BroadcastDetections,
		BroadcastRuns:       cfg.Events.BroadcastRuns,
		AllowedOrigins:      cfg.Events.AllowedOrigins,
	}, log.WithComponent("events").Logger)

	// Create pipeline registry and executor
	registry := pipeline.NewRegistry()
	executor := pipeline.NewExecutor(registry, log.WithComponent("pipeline"))

	server := &Server{
		config:   cfg,
		logger:   log.WithComponent("server"),
		store:    store,
		masker:   masker,
		registry: registry,
		executor: executor,
		llm:      llm.NewGeminiClient(cfg.LLM, log.WithComponent("llm")),
		hub:      hub,
		limiter:  newClientLimiter(cfg.RateLimit),
		router:   mux.NewRouter(),
	}

	server.registerPIIHandlers()
	server.setupRoutes()

	server.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      server.router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	return server, nil
}

// newStore creates the configured session store backend
func newStore(cfg config.SessionsConfig, log *zap.Logger) (session.Store, error) {
	switch cfg.Backend {
	case "redis":
		return session.NewRedisStore(session.RedisConfig{
			URL:            cfg.Redis.URL,
			KeyPrefix:      cfg.Redis.KeyPrefix,
			TTL:            cfg.TTL,
			MaxConnections: cfg.Redis.MaxConnections,
			MinIdleConns:   cfg.Redis.MinIdleConns,
		}, log)
	default:
		return session.NewMemoryStore(session.MemoryConfig{
			TTL:           cfg.TTL,
			SweepInterval: cfg.SweepInterval,
		}, log), nil
	}
}

// registerPIIHandlers binds the masking and restoration engines into the
// pipeline registry. Both always run against the executor's session
// identifier; a session parameter carried by the step itself is ignored so
// one identifier stays authoritative for the whole run.
func (s *Server) registerPIIHandlers() {
	s.registry.Register("pii-handler", "sanitize_input", pipeline.HandlerFunc(
		func(ctx context.Context, text, sessionID string, step pipeline.Step) (string, error) {
			masked, _, findings, err := s.masker.Mask(ctx, text, sessionID)
			if err != nil {
				return text, err
			}
			if len(findings) > 0 {
				s.broadcastDetections(ctx, sessionID, findings)
			}
			return masked, nil
		}))

	s.registry.Register("pii-handler", "restore_pii", pipeline.HandlerFunc(
		func(ctx context.Context, text, sessionID string, step pipeline.Step) (string, error) {
			return s.masker.Restore(ctx, text, sessionID)
		}))
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	// Health and info endpoints
	s.router.HandleFunc("/", s.handleRoot).Methods("GET")
	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")
	s.router.HandleFunc("/info", s.handleInfo).Methods("GET")

	// WebSocket endpoint for event streaming
	if s.config.Events.Enabled {
		s.router.HandleFunc(s.config.Events.Path, s.handleWebSocket).Methods("GET")
	}

	// Tool catalog endpoints
	s.router.HandleFunc("/mcp/health", s.handleMCPHealth).Methods("GET")
	s.router.HandleFunc("/mcp/tools", s.handleMCPTools).Methods("GET")

	// Processing endpoints
	api := s.router.NewRoute().Subrouter()
	api.Use(s.loggingMiddleware)
	api.Use(s.rateLimitMiddleware)
	api.HandleFunc("/process", s.handleProcess).Methods("POST")
	api.HandleFunc("/llm/generate", s.handleLLMGenerate).Methods("POST")
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.logger.Info("Starting maskrelay gateway",
		zap.Int("port", s.config.Server.Port),
		zap.String("session_backend", s.config.Sessions.Backend),
		zap.Bool("privacy_enabled", s.config.Privacy.Enabled),
		zap.Bool("llm_configured", s.llm.Configured()),
	)

	// Start event hub in a separate goroutine
	go s.hub.Run()

	return s.server.ListenAndServe()
}

// Stop gracefully stops the HTTP server and releases the session store
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Stopping maskrelay gateway")

	if err := s.server.Shutdown(ctx); err != nil {
		return err
	}

	return s.store.Close()
}

// handleWebSocket handles WebSocket connections for event streaming
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	s.hub.HandleWebSocket(w, r)
}
