// Package api exposes the analyzer over HTTP.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/naka-gawa/talentrank/internal/domain"
	"github.com/naka-gawa/talentrank/internal/logger"
	"github.com/naka-gawa/talentrank/internal/metrics"
	"github.com/naka-gawa/talentrank/internal/usecase"
)

// Service is the use-case surface the HTTP layer drives. *usecase.Analyzer implements it.
type Service interface {
	Analyze(ctx context.Context, subject domain.Subject, force bool) (usecase.Outcome, error)
	Search(ctx context.Context, p usecase.SearchParams) (domain.SearchResult, error)
	Stats(ctx context.Context) (domain.Stats, error)
	Health(ctx context.Context) error
}

var _ Service = (*usecase.Analyzer)(nil)

// Option configures a Server.
type Option func(*Server)

// WithMetrics records HTTP requests on m and serves it at /metrics.
func WithMetrics(m *metrics.Manager) Option {
	return func(s *Server) { s.metrics = m }
}

// WithQuotaReset supplies the quota reset time used for Retry-After when a
// quota error carries none.
func WithQuotaReset(resetAt func() time.Time) Option {
	return func(s *Server) { s.resetAt = resetAt }
}

// WithClock overrides the time source used in responses.
func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

// Server is the HTTP front of the analyzer.
type Server struct {
	service Service
	logger  logger.Logger
	metrics *metrics.Manager
	resetAt func() time.Time
	now     func() time.Time
	router  *gin.Engine
}

// NewServer builds the router and registers every route.
func NewServer(service Service, log logger.Logger, opts ...Option) *Server {
	s := &Server{
		service: service,
		logger:  log.Named("api"),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestID())
	r.Use(s.observe())
	r.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{http.MethodGet, http.MethodOptions},
		AllowHeaders:    []string{"Origin", "Content-Type", "Authorization", requestIDHeader},
		ExposeHeaders:   []string{requestIDHeader, "Retry-After", cacheHeader},
		MaxAge:          12 * time.Hour,
	}))

	r.GET("/health", s.health)
	if s.metrics != nil {
		r.GET("/metrics", gin.WrapH(s.metrics.Handler()))
	}
	v1 := r.Group("/api/v1")
	{
		v1.GET("/developers/:username", s.analyze)
		v1.GET("/search", s.search)
		v1.GET("/stats", s.stats)
	}
	s.router = r
	return s
}

// Handler returns the root http.Handler.
func (s *Server) Handler() http.Handler { return s.router }

// ListenAndServe serves on addr until ctx is done, then drains in-flight
// requests for at most shutdownTimeout.
func (s *Server) ListenAndServe(ctx context.Context, addr string, shutdownTimeout time.Duration) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info(ctx, "http server listening", logger.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info(context.Background(), "shutting down http server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down http server: %w", err)
	}
	return <-errCh
}
