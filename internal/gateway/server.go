package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"pedidobot/internal/commands"
	"pedidobot/internal/config"
	"pedidobot/internal/logging"
	"pedidobot/internal/pedidos"
)

const maxBodySize = 1 << 20

// Dispatcher handles one inbound chat message.
type Dispatcher interface {
	Dispatch(ctx context.Context, msg commands.Message) commands.Outcome
}

// Deps are the collaborators behind the routes.
type Deps struct {
	Dispatcher Dispatcher
	Requests   pedidos.Repository
	// Health reports dependency health for /healthz; nil means always healthy.
	Health func(ctx context.Context) error
	Logger *slog.Logger
}

// Server is the webhook and dashboard HTTP server.
type Server struct {
	bind    string
	timeout time.Duration
	logger  *slog.Logger
	engine  *gin.Engine

	listener net.Listener
	server   *http.Server
}

// New builds the server from the [gateway] config section.
func New(cfg *config.Config, deps Deps) *Server {
	gin.SetMode(gin.ReleaseMode)
	logger := logging.NewComponentLogger(deps.Logger, "gateway")

	timeout := time.Duration(cfg.Gateway.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	s := &Server{
		bind:    strings.TrimSpace(cfg.Gateway.Bind),
		timeout: timeout,
		logger:  logger,
	}

	engine := gin.New()
	engine.Use(recovery(logger))
	engine.Use(correlation()...)
	engine.Use(accessLog(logger))
	engine.Use(bodySizeLimit(maxBodySize))

	h := &handlers{deps: deps, logger: logger}
	engine.GET("/healthz", h.health)

	authed := engine.Group("/", bearerAuth(strings.TrimSpace(cfg.Gateway.Token)))
	authed.POST("/webhook/messages", h.webhook)
	authed.GET("/api/pedidos", h.listPedidos)
	authed.GET("/api/pedidos/:id", h.getPedido)

	engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	})

	s.engine = engine
	s.server = &http.Server{
		Handler:           engine,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      timeout + 5*time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler { return s.engine }

// Start listens on the configured address and serves until ctx is done.
func (s *Server) Start(ctx context.Context) error {
	if s.bind == "" {
		return errors.New("gateway bind address not configured")
	}
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("gateway listen: %w", err)
	}
	s.listener = listener

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("gateway server error", logging.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	s.logger.Info("gateway listening", logging.String("address", listener.Addr().String()))
	return nil
}

// Addr returns the bound address once started.
func (s *Server) Addr() string {
	if s.listener == nil {
		return s.bind
	}
	return s.listener.Addr().String()
}

// Stop shuts the server down, waiting up to five seconds for in-flight requests.
func (s *Server) Stop() {
	if s == nil || s.server == nil {
		return
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = s.server.Shutdown(shutdownCtx)
}
