// Package server is the leaftran HTTP API: leaflet CRUD, paragraph
// translation and document generation.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/valpere/leaftran/internal"
	"github.com/valpere/leaftran/internal/translation"
)

const (
	ModeDevelopment = "development"
	ModeProduction  = "production"
)

// LeafletRepository is implemented by the sqlite and redis stores.
// DeleteLeaflet reports a missing leaflet with store.ErrNotFound.
type LeafletRepository interface {
	ListLeaflets(ctx context.Context) ([]internal.Leaflet, error)
	SaveLeaflet(ctx context.Context, l internal.Leaflet) error
	DeleteLeaflet(ctx context.Context, id string) error
}

type Translator interface {
	Translate(ctx context.Context, sourceLang, targetLang, text string) (translation.Result, error)
}

// Pinger is optionally implemented by repositories for /healthz.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Server struct {
	repo       LeafletRepository
	translator Translator
	mode       string
	logger     *slog.Logger
	registry   *prometheus.Registry
	metrics    *metrics
	now        func() time.Time
	engine     *gin.Engine
}

type Option func(*Server)

// WithMode selects development (CORS, verbose gin) or production.
func WithMode(mode string) Option {
	return func(s *Server) { s.mode = mode }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithRegistry registers metrics on reg instead of a private registry.
func WithRegistry(reg *prometheus.Registry) Option {
	return func(s *Server) { s.registry = reg }
}

func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

func New(repo LeafletRepository, tr Translator, opts ...Option) *Server {
	s := &Server{
		repo:       repo,
		translator: tr,
		mode:       ModeProduction,
		logger:     slog.New(slog.DiscardHandler),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.registry == nil {
		s.registry = prometheus.NewRegistry()
	}
	s.metrics = newMetrics(s.registry)
	s.engine = s.routes()
	return s
}

func (s *Server) routes() *gin.Engine {
	if s.mode == ModeDevelopment {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger(), s.metrics.middleware())
	if s.mode == ModeDevelopment {
		r.Use(corsMiddleware())
	}

	r.GET("/healthz", s.healthz)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})))

	api := r.Group("/api")
	{
		api.GET("/leaflets", s.listLeaflets)
		api.POST("/leaflets", s.saveLeaflet)
		api.DELETE("/leaflets/:id", s.deleteLeaflet)
		api.POST("/translate", s.translate)
		api.POST("/document", s.document)
	}

	r.NoRoute(func(c *gin.Context) {
		writeError(c, http.StatusNotFound, "Not found")
	})

	return r
}

func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", "addr", addr, "mode", s.mode)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	s.logger.Info("server stopped")
	return nil
}
