package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/klauspost/compress/gzhttp"
	"go.uber.org/zap"

	apihttp "github.com/GriffinCanCode/rnpad/internal/api/http"
	"github.com/GriffinCanCode/rnpad/internal/api/middleware"
	"github.com/GriffinCanCode/rnpad/internal/api/ws"
	"github.com/GriffinCanCode/rnpad/internal/domain/identity"
	"github.com/GriffinCanCode/rnpad/internal/domain/workspace"
	"github.com/GriffinCanCode/rnpad/internal/infrastructure/config"
	"github.com/GriffinCanCode/rnpad/internal/infrastructure/logging"
	"github.com/GriffinCanCode/rnpad/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/rnpad/internal/infrastructure/tracing"
	"github.com/GriffinCanCode/rnpad/internal/providers/builder"
)

const shutdownTimeout = 15 * time.Second

// Server wraps the HTTP server and dependencies
type Server struct {
	router     *gin.Engine
	handler    http.Handler
	workspaces *workspace.Manager
	dispatcher builder.Dispatcher
	logger     *logging.Logger
	config     *config.Config
	metrics    *monitoring.Metrics
	tracer     *tracing.Tracer
}

// Option configures a Server
type Option func(*options)

type options struct {
	logger     *logging.Logger
	dispatcher builder.Dispatcher
}

// WithLogger replaces the logger built from config
func WithLogger(logger *logging.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithDispatcher replaces the HTTP builder dispatcher
func WithDispatcher(d builder.Dispatcher) Option {
	return func(o *options) { o.dispatcher = d }
}

// NewServer creates a new server instance
func NewServer(cfg *config.Config, opts ...Option) (*Server, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	logger := o.logger
	if logger == nil {
		logger = logging.FromLevel(cfg.Logging.Level, cfg.Logging.Development)
	}

	logger.Info("Initializing reactnative-pad server",
		zap.String("addr", cfg.Server.Addr()),
		zap.String("builder_url", cfg.Builder.URL),
		zap.Duration("builder_timeout", cfg.Builder.Timeout),
	)

	metrics := monitoring.NewMetrics()
	tracer := tracing.New("rnpad", logger.Named("trace"))

	dispatcher := o.dispatcher
	if dispatcher == nil {
		d, err := builder.NewHTTPDispatcher(cfg.Builder,
			builder.WithLogger(logger.Named("builder")),
			builder.WithMetrics(metrics),
			builder.WithTracer(tracer),
		)
		if err != nil {
			tracer.Close()
			return nil, fmt.Errorf("failed to create builder dispatcher: %w", err)
		}
		dispatcher = d
	}

	workspaces := workspace.NewManager(cfg.Preview.DefaultURL,
		workspace.WithLogger(logger.Named("workspace")),
		workspace.WithMetrics(metrics),
	)

	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	router.Use(middleware.RequestID())
	router.Use(tracing.HTTPMiddleware(tracer))
	router.Use(middleware.Recovery(logger.Logger))
	router.Use(middleware.Logger(logger.Named("http")))
	router.Use(monitoring.Middleware(metrics))
	router.Use(middleware.CORS(middleware.DefaultCORSConfig()))
	if cfg.RateLimit.Enabled {
		logger.Info("Rate limiting enabled",
			zap.Int("rps", cfg.RateLimit.RequestsPerSecond),
			zap.Int("burst", cfg.RateLimit.Burst),
		)
		rl := middleware.DefaultRateLimitConfig()
		rl.RequestsPerSecond = cfg.RateLimit.RequestsPerSecond
		rl.Burst = cfg.RateLimit.Burst
		router.Use(middleware.RateLimit(rl))
	}

	cookie := identity.DefaultCookieOptions()
	cookie.Secure = cfg.Server.CookieSecure
	identityMW := middleware.Identity(middleware.IdentityConfig{
		Cookie:  cookie,
		Logger:  logger.Named("identity"),
		Metrics: metrics,
	})

	handlers := apihttp.NewHandlers(workspaces, dispatcher, logger.Named("api"))
	wsHandler := ws.NewHandler(workspaces, logger.Named("ws"), metrics)

	err := handlers.Register(router, identityMW, func(api *gin.RouterGroup) {
		api.GET("/stream", wsHandler.HandleConnection)
	})
	if err != nil {
		tracer.Close()
		return nil, err
	}
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	logger.Info("Server initialized successfully")

	return &Server{
		router:     router,
		handler:    compress(router),
		workspaces: workspaces,
		dispatcher: dispatcher,
		logger:     logger,
		config:     cfg,
		metrics:    metrics,
		tracer:     tracer,
	}, nil
}

// compress gzips responses except WebSocket upgrades, which need the raw
// connection.
func compress(next http.Handler) http.Handler {
	gz := gzhttp.GzipHandler(next)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if websocket.IsWebSocketUpgrade(r) {
			next.ServeHTTP(w, r)
			return
		}
		gz.ServeHTTP(w, r)
	})
}

// Handler returns the root HTTP handler
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Workspaces exposes the workspace registry
func (s *Server) Workspaces() *workspace.Manager {
	return s.workspaces
}

// Run serves until ctx is cancelled, then drains in-flight requests
func (s *Server) Run(ctx context.Context) error {
	addr := s.config.Server.Addr()
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	janitorCtx, stopJanitor := context.WithCancel(ctx)
	defer stopJanitor()
	go s.workspaces.RunJanitor(janitorCtx, s.config.Workspace.IdleTTL/4, s.config.Workspace.IdleTTL)

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Starting HTTP server", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down: %w", err)
	}
	return nil
}

// Close flushes pending spans and the logger
func (s *Server) Close() error {
	s.tracer.Close()
	_ = s.logger.Sync()
	return nil
}
