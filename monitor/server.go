package monitor

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// HealthFunc returns the body of the health endpoint and whether the
// system is healthy.
type HealthFunc func(ctx context.Context) (any, bool)

// ServerConfig configures the metrics server.
type ServerConfig struct {
	Address     string
	MetricsPath string
	HealthPath  string
	Development bool
}

// Server exposes metrics and health over HTTP.
type Server struct {
	cfg     ServerConfig
	router  *gin.Engine
	logger  *zap.Logger
	metrics *Metrics
	health  HealthFunc
	sampler *Sampler

	mu       sync.Mutex
	httpSrv  *http.Server
	listener net.Listener
	done     chan struct{}
}

// NewServer creates the HTTP server. sampler and health may be nil.
func NewServer(cfg ServerConfig, metrics *Metrics, sampler *Sampler, health HealthFunc, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if !cfg.Development {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{
		cfg:     cfg,
		router:  gin.New(),
		logger:  logger,
		metrics: metrics,
		health:  health,
		sampler: sampler,
	}

	s.router.Use(gin.Recovery())
	s.router.GET(cfg.MetricsPath, gin.WrapH(metrics.Handler()))
	s.router.GET(cfg.HealthPath, s.handleHealth)
	s.router.GET("/channels", s.handleChannels)

	return s
}

// Handler returns the HTTP handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start listens on the configured address and serves in the background.
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.httpSrv != nil {
		return errors.New("metrics server already started")
	}

	ln, err := net.Listen("tcp", s.cfg.Address)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.cfg.Address, err)
	}

	s.listener = ln
	s.httpSrv = &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	s.done = make(chan struct{})

	go func(srv *http.Server, done chan struct{}) {
		defer close(done)
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("metrics server failed", zap.Error(err))
		}
	}(s.httpSrv, s.done)

	s.logger.Info("metrics server started", zap.String("addr", ln.Addr().String()))
	return nil
}

// Addr returns the bound address once started.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Stop gracefully shuts the server down.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	srv, done := s.httpSrv, s.done
	s.httpSrv, s.listener = nil, nil
	s.mu.Unlock()

	if srv == nil {
		return nil
	}
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to stop metrics server: %w", err)
	}
	<-done
	s.logger.Info("metrics server stopped")
	return nil
}

func (s *Server) handleHealth(c *gin.Context) {
	if s.health == nil {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
		return
	}

	body, healthy := s.health(c.Request.Context())
	status := http.StatusOK
	if !healthy {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, body)
}

func (s *Server) handleChannels(c *gin.Context) {
	if s.sampler == nil {
		c.JSON(http.StatusOK, []Report{})
		return
	}
	c.JSON(http.StatusOK, s.sampler.Reports())
}
