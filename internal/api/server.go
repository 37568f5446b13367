package api

import (
	"context"
	"fmt"
	"net/http"
	"statusboard/internal/board"
	"statusboard/internal/config"
	"statusboard/internal/domain"
	"statusboard/internal/monitoring"
	"statusboard/internal/render"
	"time"

	"go.uber.org/zap"
)

// Refresher runs one fetch-and-render cycle.
type Refresher interface {
	FetchAndRender(ctx context.Context) error
}

type CycleLister interface {
	RecentCycles(ctx context.Context, limit int) ([]domain.Cycle, error)
}

type Capturer interface {
	Capture(ctx context.Context, pageURL string) ([]byte, error)
}

type Pinger interface {
	Ping(ctx context.Context) error
}

// Server holds the dependencies for the HTTP server.
type Server struct {
	config     *config.Config
	router     http.Handler
	httpServer *http.Server
	board      *board.Board
	loop       Refresher
	renderer   *render.Renderer
	history    CycleLister
	capturer   Capturer
	checks     map[string]Pinger
	metrics    *monitoring.Metrics
	logger     *zap.Logger
}

type Option func(*Server)

func WithHistory(h CycleLister) Option { return func(s *Server) { s.history = h } }

func WithCapturer(c Capturer) Option { return func(s *Server) { s.capturer = c } }

// WithHealthCheck adds a dependency reported by /api/health.
func WithHealthCheck(name string, p Pinger) Option {
	return func(s *Server) { s.checks[name] = p }
}

func NewServer(cfg *config.Config, b *board.Board, loop Refresher, r *render.Renderer, m *monitoring.Metrics, l *zap.Logger, opts ...Option) *Server {
	s := &Server{
		config:   cfg,
		board:    b,
		loop:     loop,
		renderer: r,
		checks:   make(map[string]Pinger),
		metrics:  m,
		logger:   l,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.router = s.setupRouter()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%s", s.config.ServerPort),
		Handler:      s.router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 75 * time.Second,
	}
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}
