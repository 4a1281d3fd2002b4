package dashboard

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/clinicpro/dashboard-service/internal/activity"
	"github.com/clinicpro/dashboard-service/pkg/config"
	"github.com/clinicpro/dashboard-service/pkg/logger"
	"github.com/clinicpro/dashboard-service/pkg/monitoring"
	"github.com/clinicpro/dashboard-service/pkg/types"
)

// RecordSource provides the upstream collections the dashboard aggregates.
// The production implementation is internal/upstream.Client.
type RecordSource interface {
	Collections(ctx context.Context) types.RawCollection
	ActivityLogs(ctx context.Context) ([]types.RawRecord, error)
	Ping(ctx context.Context) error
}

// Service implements the dashboard HTTP service
type Service struct {
	config         *config.Config
	logger         *logger.Logger
	metrics        *monitoring.MetricsCollector
	source         RecordSource
	coordinator    *activity.Coordinator
	aggregator     *Aggregator
	tokenValidator *TokenValidator
	rateLimiter    *RateLimiter
	healthManager  *monitoring.HealthManager
	router         *mux.Router
	server         *http.Server
}

// NewService creates a new dashboard service
func NewService(cfg *config.Config, source RecordSource, log *logger.Logger, metrics *monitoring.MetricsCollector) *Service {
	ttl := time.Duration(cfg.Upstream.ActivityTTL) * time.Second

	coordinator := activity.NewCoordinator(activity.CoordinatorConfig{
		Fetch:   source.ActivityLogs,
		TTL:     ttl,
		Logger:  log,
		Metrics: metrics,
	})

	healthManager := monitoring.NewHealthManager("dashboard-service", "1.0.0")
	healthManager.RegisterChecker("upstream", monitoring.NewUpstreamHealthChecker("clinic-api", source))
	healthManager.RegisterChecker("activity-cache", monitoring.NewCacheHealthChecker(coordinator.CacheAge, ttl))

	s := &Service{
		config:         cfg,
		logger:         log,
		metrics:        metrics,
		source:         source,
		coordinator:    coordinator,
		aggregator:     NewAggregator(metrics),
		tokenValidator: NewTokenValidator(cfg.JWT.SecretKey),
		rateLimiter:    NewRateLimiter(cfg.RateLimit.RequestsPerMin, time.Minute),
		healthManager:  healthManager,
		router:         mux.NewRouter(),
	}

	s.setupRoutes()

	s.server = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      s.router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	return s
}

// Start starts the HTTP server
func (s *Service) Start() error {
	if s.config.RateLimit.Enabled {
		s.rateLimiter.StartCleanup(time.Hour)
	}

	s.logger.WithField("addr", s.server.Addr).Info("Starting dashboard service")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}

// Stop gracefully shuts down the HTTP server
func (s *Service) Stop(ctx context.Context) error {
	s.logger.Info("Stopping dashboard service")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}
	return nil
}

// Handler returns the service's HTTP handler, used by tests
func (s *Service) Handler() http.Handler {
	return s.router
}
