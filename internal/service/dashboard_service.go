package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/uwm-api/internal/models"
	appErrors "github.com/noah-isme/uwm-api/pkg/errors"
)

type dashboardRepository interface {
	DashboardCounts(ctx context.Context) (*models.DashboardSummary, error)
}

// DashboardService serves the scalar rollup for the staff landing page.
type DashboardService struct {
	repo    dashboardRepository
	cache   *CacheService
	metrics *MetricsService
	logger  *zap.Logger
}

// NewDashboardService constructs a dashboard service.
func NewDashboardService(repo dashboardRepository, cache *CacheService, metrics *MetricsService, logger *zap.Logger) *DashboardService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardService{repo: repo, cache: cache, metrics: metrics, logger: logger}
}

// Summary returns the dashboard counts. The boolean indicates a cache hit.
func (s *DashboardService) Summary(ctx context.Context) (*models.DashboardSummary, bool, error) {
	const cacheKey = "dash:summary"
	var cached models.DashboardSummary
	if hit, err := s.cache.Get(ctx, cacheKey, &cached); err == nil && hit {
		return &cached, true, nil
	}

	start := time.Now()
	summary, err := s.repo.DashboardCounts(ctx)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to build dashboard summary")
	}
	s.metrics.ObserveDBQuery("dashboard_summary", time.Since(start))

	if err := s.cache.Set(ctx, cacheKey, summary, 0); err != nil {
		s.logger.Warn("cache dashboard payload", zap.Error(err))
	}
	return summary, false, nil
}

// SystemMetrics returns the instrumentation snapshot shown to admins.
func (s *DashboardService) SystemMetrics() models.SystemMetrics {
	if s.metrics == nil {
		return models.SystemMetrics{}
	}
	return s.metrics.Snapshot()
}
