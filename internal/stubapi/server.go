// Package stubapi serves a local stand-in for the onboarding service so the
// CLI can be exercised without network access. Every request is checked
// against the embedded OpenAPI contract before it reaches a handler.
package stubapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/goliatone/go-onboarding/internal/contract"
	"github.com/goliatone/go-onboarding/pkg/logger"
	"github.com/goliatone/go-onboarding/pkg/model"
	"github.com/goliatone/go-onboarding/pkg/validation"
)

const (
	// MsgInvalidCorporation is returned for numbers outside the known set.
	MsgInvalidCorporation = "Invalid corporation number"
	// MsgInvalidRequest is returned when a request breaks the contract.
	MsgInvalidRequest = "Invalid request"

	operationKey   = "operation"
	shutdownPeriod = 5 * time.Second
)

// Option configures a Server.
type Option func(*Server)

// WithValidNumbers replaces the set of corporation numbers reported valid.
func WithValidNumbers(numbers ...string) Option {
	return func(s *Server) {
		s.valid = make(map[string]struct{}, len(numbers))
		for _, n := range numbers {
			s.valid[n] = struct{}{}
		}
	}
}

// WithLogger attaches a structured logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithRegistry registers metrics on reg instead of a private registry.
func WithRegistry(reg *prometheus.Registry) Option {
	return func(s *Server) {
		if reg != nil {
			s.registry = reg
		}
	}
}

// Server is the stub onboarding service.
type Server struct {
	contract *contract.Contract
	registry *prometheus.Registry
	metrics  *Metrics
	logger   logger.Logger
	engine   *gin.Engine

	mu          sync.Mutex
	valid       map[string]struct{}
	submissions []model.FormData
}

// New builds the stub and its routes.
func New(ctx context.Context, options ...Option) (*Server, error) {
	c, err := contract.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("stubapi: %w", err)
	}

	s := &Server{
		contract: c,
		logger:   logger.NewNop(),
	}
	WithValidNumbers("123456789")(s)
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(s)
	}
	if s.registry == nil {
		s.registry = prometheus.NewRegistry()
	}
	s.metrics = NewMetrics(s.registry)

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery(), s.observe())

	engine.GET("/health", s.health)
	engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})))

	api := engine.Group("/", s.validateContract())
	api.GET("/corporation-number/:number", s.lookupCorporation)
	api.POST("/profile-details", s.submitProfile)

	s.engine = engine
	return s, nil
}

// Handler exposes the router for embedding and tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Submissions returns every accepted profile in arrival order.
func (s *Server) Submissions() []model.FormData {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.FormData(nil), s.submissions...)
}

// ListenAndServe serves on addr until ctx is canceled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("stub service listening", map[string]any{"addr": addr})
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("stubapi: serve: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownPeriod)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("stubapi: shutdown: %w", err)
	}
	s.logger.Info("stub service stopped", nil)
	return nil
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) lookupCorporation(c *gin.Context) {
	number := c.Param("number")

	s.mu.Lock()
	_, ok := s.valid[number]
	s.mu.Unlock()

	if ok {
		s.metrics.Lookups.WithLabelValues("valid").Inc()
		c.JSON(http.StatusOK, gin.H{"corporationNumber": number, "valid": true})
		return
	}
	s.metrics.Lookups.WithLabelValues("invalid").Inc()
	c.JSON(http.StatusOK, gin.H{"valid": false, "message": MsgInvalidCorporation})
}

func (s *Server) submitProfile(c *gin.Context) {
	var data model.FormData
	if err := c.ShouldBindJSON(&data); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": MsgInvalidRequest})
		return
	}

	if errs := validation.Validate(data); len(errs) > 0 {
		field := errs.Fields()[0]
		s.logger.Info("profile rejected", map[string]any{"field": field.String(), "reason": errs.Get(field)})
		c.JSON(http.StatusBadRequest, gin.H{"message": errs.Get(field)})
		return
	}

	s.mu.Lock()
	_, known := s.valid[data.CorporationNumber]
	if known {
		s.submissions = append(s.submissions, data)
	}
	s.mu.Unlock()

	if !known {
		c.JSON(http.StatusBadRequest, gin.H{"message": MsgInvalidCorporation})
		return
	}
	s.metrics.Profiles.Inc()
	c.Status(http.StatusOK)
}

// validateContract rejects requests the real service would not accept.
func (s *Server) validateContract() gin.HandlerFunc {
	return func(c *gin.Context) {
		if op, err := s.contract.OperationID(c.Request); err == nil {
			c.Set(operationKey, op)
		}
		if err := s.contract.ValidateRequest(c.Request.Context(), c.Request); err != nil {
			s.logger.WithError(err).Warn("request failed contract validation", map[string]any{
				"method": c.Request.Method,
				"path":   c.Request.URL.Path,
			})
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": MsgInvalidRequest})
			return
		}
		c.Next()
	}
}

func (s *Server) observe() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		op := c.GetString(operationKey)
		if op == "" {
			op = c.FullPath()
		}
		if op == "" {
			op = "unmatched"
		}
		status := c.Writer.Status()
		s.metrics.ObserveRequest(op, status, start)
		s.logger.Debug("stub request served", map[string]any{
			"operation":  op,
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"status":     status,
			"request_id": c.GetHeader("X-Request-ID"),
		})
	}
}
