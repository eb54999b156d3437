package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"google.golang.org/adk/session"
	"google.golang.org/adk/tool"

	"github.com/vitormoschetta/anyflix-support/internal/config"
	"github.com/vitormoschetta/anyflix-support/internal/gateway"
	"github.com/vitormoschetta/anyflix-support/internal/metrics"
	"github.com/vitormoschetta/anyflix-support/internal/model"
	"github.com/vitormoschetta/anyflix-support/internal/service"
	"github.com/vitormoschetta/anyflix-support/internal/worker"
	"github.com/vitormoschetta/anyflix-support/web"
)

// Server representa o servidor HTTP com todas as dependências
type Server struct {
	Config    config.Config
	Assistant gateway.Assistant
	Chat      *service.ChatService
	Tools     gateway.ToolCatalog
	Pool      *worker.Pool
	Metrics   *metrics.Metrics
	Registry  *prometheus.Registry
	Router    chi.Router

	logger zerolog.Logger
}

// NewServer cria o agente do ADK (Gemini + ferramentas MCP) e o servidor
func NewServer(ctx context.Context, cfg config.Config, logger zerolog.Logger) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	components, err := gateway.NewComponents(ctx, gateway.ModelOptions{
		APIKey:        cfg.GoogleAPIKey,
		ModelName:     cfg.ModelName,
		McpEndpoint:   cfg.McpEndpoint,
		McpAuthHeader: cfg.McpAuthHeader,
		McpAuthToken:  cfg.McpAuthToken,
	}, logger.With().Str("component", "mcp").Logger())
	if err != nil {
		return nil, err
	}

	assistant, err := gateway.NewADKAssistant(gateway.Config{
		AppName:        cfg.AppName,
		UserID:         cfg.UserID,
		Instruction:    gateway.DefaultInstruction,
		Model:          components.Model,
		Toolsets:       []tool.Toolset{components.Toolset},
		SessionService: session.InMemoryService(),
		Logger:         logger,
	})
	if err != nil {
		return nil, err
	}

	catalog := gateway.NewMCPToolCatalog(components.Transport, cfg.McpEndpoint, "")
	return New(cfg, assistant, catalog, logger)
}

// New monta o servidor em volta de um Assistant já criado. tools pode ser nil.
func New(cfg config.Config, assistant gateway.Assistant, tools gateway.ToolCatalog, logger zerolog.Logger) (*Server, error) {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m, err := metrics.New(registry)
	if err != nil {
		return nil, fmt.Errorf("failed to register metrics: %w", err)
	}

	pool := worker.NewPool(cfg.WorkerPoolSize, worker.WithInflightObserver(m.AddInflight))
	chat := service.NewChatService(assistant, pool, logger, service.WithMetrics(m))

	return &Server{
		Config:    cfg,
		Assistant: assistant,
		Chat:      chat,
		Tools:     tools,
		Pool:      pool,
		Metrics:   m,
		Registry:  registry,
		logger:    logger.With().Str("component", "server").Logger(),
	}, nil
}

// SetupRouter configura as rotas e middlewares do Chi
func (s *Server) SetupRouter(
	handleRoot func(http.ResponseWriter, *http.Request),
	handleHealth func(http.ResponseWriter, *http.Request),
	handleChat func(http.ResponseWriter, *http.Request),
	handleTools func(http.ResponseWriter, *http.Request),
) {
	r := chi.NewRouter()

	// Middlewares
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(s.logger))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.Config.CorsAllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	// Rotas
	r.Get("/", handleRoot)
	r.Get("/health", handleHealth)
	r.Handle("/metrics", promhttp.HandlerFor(s.Registry, promhttp.HandlerOpts{}))

	// Cliente web
	r.Get("/ui", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/ui/", http.StatusMovedPermanently)
	})
	r.Handle("/ui/*", http.StripPrefix("/ui/", http.FileServer(http.FS(web.Static()))))

	// API Routes
	r.Route("/api", func(r chi.Router) {
		if s.Config.RateLimitRequests > 0 && s.Config.RateLimitWindow > 0 {
			r.Use(httprate.Limit(
				s.Config.RateLimitRequests,
				s.Config.RateLimitWindow,
				httprate.WithKeyFuncs(httprate.KeyByIP),
				httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusTooManyRequests)
					_ = json.NewEncoder(w).Encode(model.ErrorResponse{Error: "Too many requests, please slow down"})
				}),
			))
		}
		r.Post("/chat", handleChat)
		r.Get("/tools", handleTools)
	})

	s.Router = r
}

// Start inicia o servidor HTTP e bloqueia até ctx terminar, fazendo o
// graceful shutdown do HTTP e depois do pool de workers.
func (s *Server) Start(ctx context.Context) error {
	if s.Router == nil {
		return errors.New("router is not configured, call SetupRouter first")
	}

	httpServer := &http.Server{
		Addr:         s.Config.HTTPAddr,
		Handler:      s.Router,
		ReadTimeout:  s.Config.ReadTimeout,
		WriteTimeout: s.Config.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	eg, egCtx := errgroup.WithContext(ctx)

	eg.Go(func() error {
		s.logBanner()
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})

	eg.Go(func() error {
		// Aguardar sinal de interrupção
		<-egCtx.Done()
		s.logger.Info().Msg("shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.Config.ShutdownTimeout)
		defer cancel()

		var errs []error
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			s.logger.Error().Err(err).Msg("server shutdown error")
			errs = append(errs, err)
		}
		if err := s.Pool.Close(shutdownCtx); err != nil {
			s.logger.Error().Err(err).Msg("worker pool shutdown error")
			errs = append(errs, err)
		}
		if len(errs) == 0 {
			s.logger.Info().Msg("server stopped gracefully")
		}
		return errors.Join(errs...)
	})

	return eg.Wait()
}

func (s *Server) logBanner() {
	addr := s.Config.HTTPAddr
	s.logger.Info().
		Str("addr", addr).
		Str("model", s.Config.ModelName).
		Int("workers", s.Pool.Size()).
		Msg("Anyflix support chat server started")
	s.logger.Info().Msg("endpoints: GET / | GET /health | GET /metrics | GET /ui/ | POST /api/chat | GET /api/tools")
	s.logger.Info().Msgf(`try: curl -X POST http://localhost%s/api/chat -H "Content-Type: application/json" -d '{"message":"Hello, what can you do?"}'`, addr)
}
