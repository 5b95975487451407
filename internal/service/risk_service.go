package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/uwm-api/internal/models"
	appErrors "github.com/noah-isme/uwm-api/pkg/errors"
)

type riskMetricsRepository interface {
	StudentMetrics(ctx context.Context) ([]models.StudentMetricsRow, error)
}

// RiskService classifies active students against the attendance, grade and
// stress thresholds. Checks are independent and reasons additive; a missing
// metric skips its check rather than counting against the student.
type RiskService struct {
	repo     riskMetricsRepository
	defaults models.RiskThresholds
	cache    *CacheService
	metrics  *MetricsService
	logger   *zap.Logger
}

// NewRiskService constructs a risk service with configured default thresholds.
func NewRiskService(repo riskMetricsRepository, defaults models.RiskThresholds, cache *CacheService, metrics *MetricsService, logger *zap.Logger) *RiskService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RiskService{repo: repo, defaults: defaults, cache: cache, metrics: metrics, logger: logger}
}

// Defaults exposes the configured thresholds for handlers to merge query
// overrides against.
func (s *RiskService) Defaults() models.RiskThresholds {
	return s.defaults
}

// HighRiskStudents evaluates every active student and returns those flagged by
// at least one threshold. The boolean indicates a cache hit; overridden
// thresholds key separate cache entries.
func (s *RiskService) HighRiskStudents(ctx context.Context, thresholds models.RiskThresholds) ([]models.RiskStudent, bool, error) {
	cacheKey := makeAnalysisCacheKey("risk",
		fmt.Sprintf("%.2f", thresholds.Attendance),
		fmt.Sprintf("%.2f", thresholds.Grade),
		fmt.Sprintf("%.2f", thresholds.Stress))
	var cached []models.RiskStudent
	if hit, err := s.cache.Get(ctx, cacheKey, &cached); err == nil && hit {
		return cached, true, nil
	}

	start := time.Now()
	rows, err := s.repo.StudentMetrics(ctx)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to evaluate risk")
	}
	s.metrics.ObserveDBQuery("analysis_risk", time.Since(start))

	flagged := []models.RiskStudent{}
	for _, row := range rows {
		entry := evaluateRisk(row, thresholds)
		if len(entry.Reasons) > 0 {
			flagged = append(flagged, entry)
		}
	}

	if err := s.cache.Set(ctx, cacheKey, flagged, 0); err != nil {
		s.logger.Warn("cache risk payload", zap.Error(err))
	}
	return flagged, false, nil
}

// evaluateRisk applies the three independent checks to one student's rollup.
func evaluateRisk(row models.StudentMetricsRow, thresholds models.RiskThresholds) models.RiskStudent {
	entry := models.RiskStudent{
		StudentID:     row.StudentID,
		FullName:      row.FullName,
		AverageGrade:  row.AverageGrade,
		AverageStress: row.AverageStress,
		Reasons:       []string{},
	}

	if row.TotalSessions > 0 {
		attendance := weightedAttendance(row.AttendedSessions, row.TotalSessions)
		entry.AverageAttendance = &attendance
		if attendance < thresholds.Attendance {
			entry.Reasons = append(entry.Reasons, fmt.Sprintf("Low attendance (%.1f%%)", attendance))
		}
	}

	if row.AverageGrade != nil && *row.AverageGrade < thresholds.Grade {
		entry.Reasons = append(entry.Reasons, fmt.Sprintf("Low average grade (%.1f)", *row.AverageGrade))
	}

	if row.AverageStress != nil && *row.AverageStress > thresholds.Stress {
		entry.Reasons = append(entry.Reasons, fmt.Sprintf("High stress (%.1f)", *row.AverageStress))
	}

	return entry
}
