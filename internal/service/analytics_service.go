package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/uwm-api/internal/models"
	appErrors "github.com/noah-isme/uwm-api/pkg/errors"
)

// AnalyticsRepository describes the persistence layer required by AnalyticsService.
type AnalyticsRepository interface {
	StressTrend(ctx context.Context, studentID int64) ([]models.TrendPoint, error)
	AttendanceTrend(ctx context.Context, studentID int64) ([]models.TrendPoint, error)
	AttendanceTotals(ctx context.Context, studentID int64) (*models.AttendanceTotals, error)
	OverallAttendanceTotals(ctx context.Context) (*models.AttendanceTotals, error)
	StudentMetrics(ctx context.Context) ([]models.StudentMetricsRow, error)
	SubmissionStatusCounts(ctx context.Context) (*models.SubmissionStatusCounts, error)
	ModuleStress(ctx context.Context) ([]models.ModuleStressSummary, error)
}

type analyticsStudentRepository interface {
	FindByID(ctx context.Context, id int64) (*models.Student, error)
}

// GradeBand labels per-student mean grades at or above its lower bound. The
// table is ordered ascending; the last band whose bound is met wins.
type GradeBand struct {
	Label string
	Min   float64
}

// AnalyticsService serves the trend, distribution and correlation endpoints
// with cache integration.
type AnalyticsService struct {
	repo     AnalyticsRepository
	students analyticsStudentRepository
	bands    []GradeBand
	cache    *CacheService
	metrics  *MetricsService
	logger   *zap.Logger
}

// NewAnalyticsService constructs an analytics service.
func NewAnalyticsService(repo AnalyticsRepository, students analyticsStudentRepository, bands []GradeBand, cache *CacheService, metrics *MetricsService, logger *zap.Logger) *AnalyticsService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AnalyticsService{repo: repo, students: students, bands: bands, cache: cache, metrics: metrics, logger: logger}
}

// StressTrend returns the weekly mean stress series for one student. The
// boolean indicates whether data originated from cache.
func (s *AnalyticsService) StressTrend(ctx context.Context, studentID int64) ([]models.TrendPoint, bool, error) {
	if err := s.requireStudent(ctx, studentID); err != nil {
		return nil, false, err
	}

	cacheKey := makeAnalysisCacheKey("stress-trend", fmt.Sprintf("%d", studentID))
	var cached []models.TrendPoint
	if hit, err := s.cache.Get(ctx, cacheKey, &cached); err == nil && hit {
		return cached, true, nil
	}

	start := time.Now()
	points, err := s.repo.StressTrend(ctx, studentID)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to compute stress trend")
	}
	s.metrics.ObserveDBQuery("analysis_stress_trend", time.Since(start))
	if points == nil {
		points = []models.TrendPoint{}
	}

	s.cacheSet(ctx, cacheKey, points)
	return points, false, nil
}

// AttendanceTrend returns the weekly mean attendance rate series for one student.
func (s *AnalyticsService) AttendanceTrend(ctx context.Context, studentID int64) ([]models.TrendPoint, bool, error) {
	if err := s.requireStudent(ctx, studentID); err != nil {
		return nil, false, err
	}

	cacheKey := makeAnalysisCacheKey("attendance-trend", fmt.Sprintf("%d", studentID))
	var cached []models.TrendPoint
	if hit, err := s.cache.Get(ctx, cacheKey, &cached); err == nil && hit {
		return cached, true, nil
	}

	start := time.Now()
	points, err := s.repo.AttendanceTrend(ctx, studentID)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to compute attendance trend")
	}
	s.metrics.ObserveDBQuery("analysis_attendance_trend", time.Since(start))
	if points == nil {
		points = []models.TrendPoint{}
	}

	s.cacheSet(ctx, cacheKey, points)
	return points, false, nil
}

// StudentAttendanceAverage computes the session-weighted attendance percentage
// for one student, 0 when no sessions are recorded.
func (s *AnalyticsService) StudentAttendanceAverage(ctx context.Context, studentID int64) (float64, error) {
	if err := s.requireStudent(ctx, studentID); err != nil {
		return 0, err
	}
	totals, err := s.repo.AttendanceTotals(ctx, studentID)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to compute attendance average")
	}
	return weightedAttendance(totals.AttendedSessions, totals.TotalSessions), nil
}

// OverallAttendanceRate computes the population-wide weighted attendance rate.
func (s *AnalyticsService) OverallAttendanceRate(ctx context.Context) (float64, error) {
	totals, err := s.repo.OverallAttendanceTotals(ctx)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to compute overall attendance")
	}
	return weightedAttendance(totals.AttendedSessions, totals.TotalSessions), nil
}

// GradeDistribution buckets per-student mean grades into the configured bands.
// Every band appears in the output, zero counts included; students without
// grades are excluded.
func (s *AnalyticsService) GradeDistribution(ctx context.Context) ([]models.DistributionBin, bool, error) {
	cacheKey := makeAnalysisCacheKey("grade-distribution")
	var cached []models.DistributionBin
	if hit, err := s.cache.Get(ctx, cacheKey, &cached); err == nil && hit {
		return cached, true, nil
	}

	start := time.Now()
	rows, err := s.repo.StudentMetrics(ctx)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to compute grade distribution")
	}
	s.metrics.ObserveDBQuery("analysis_grade_distribution", time.Since(start))

	bins := make([]models.DistributionBin, len(s.bands))
	for i, band := range s.bands {
		bins[i] = models.DistributionBin{Band: band.Label}
	}
	for _, row := range rows {
		if row.AverageGrade == nil {
			continue
		}
		if idx := s.bandIndex(*row.AverageGrade); idx >= 0 {
			bins[idx].Count++
		}
	}

	s.cacheSet(ctx, cacheKey, bins)
	return bins, false, nil
}

// SubmissionDistribution returns the on_time / late / not_submitted histogram.
func (s *AnalyticsService) SubmissionDistribution(ctx context.Context) (*models.SubmissionStatusCounts, bool, error) {
	cacheKey := makeAnalysisCacheKey("submission-distribution")
	var cached models.SubmissionStatusCounts
	if hit, err := s.cache.Get(ctx, cacheKey, &cached); err == nil && hit {
		return &cached, true, nil
	}

	start := time.Now()
	counts, err := s.repo.SubmissionStatusCounts(ctx)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to compute submission distribution")
	}
	s.metrics.ObserveDBQuery("analysis_submission_distribution", time.Since(start))

	s.cacheSet(ctx, cacheKey, counts)
	return counts, false, nil
}

// ModuleStress returns the mean reported stress per active module.
func (s *AnalyticsService) ModuleStress(ctx context.Context) ([]models.ModuleStressSummary, bool, error) {
	cacheKey := makeAnalysisCacheKey("module-stress")
	var cached []models.ModuleStressSummary
	if hit, err := s.cache.Get(ctx, cacheKey, &cached); err == nil && hit {
		return cached, true, nil
	}

	start := time.Now()
	summaries, err := s.repo.ModuleStress(ctx)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to compute module stress")
	}
	s.metrics.ObserveDBQuery("analysis_module_stress", time.Since(start))
	if summaries == nil {
		summaries = []models.ModuleStressSummary{}
	}

	s.cacheSet(ctx, cacheKey, summaries)
	return summaries, false, nil
}

// StressGradeCorrelation pairs mean stress against mean grade for every active
// student having both metrics.
func (s *AnalyticsService) StressGradeCorrelation(ctx context.Context) ([]models.CorrelationPoint, bool, error) {
	cacheKey := makeAnalysisCacheKey("stress-grade-correlation")
	var cached []models.CorrelationPoint
	if hit, err := s.cache.Get(ctx, cacheKey, &cached); err == nil && hit {
		return cached, true, nil
	}

	start := time.Now()
	rows, err := s.repo.StudentMetrics(ctx)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to compute correlation")
	}
	s.metrics.ObserveDBQuery("analysis_correlation", time.Since(start))

	points := []models.CorrelationPoint{}
	for _, row := range rows {
		if row.AverageStress == nil || row.AverageGrade == nil {
			continue
		}
		points = append(points, models.CorrelationPoint{
			StudentID:     row.StudentID,
			FullName:      row.FullName,
			AverageStress: *row.AverageStress,
			AverageGrade:  *row.AverageGrade,
		})
	}

	s.cacheSet(ctx, cacheKey, points)
	return points, false, nil
}

func (s *AnalyticsService) requireStudent(ctx context.Context, studentID int64) error {
	if s.students == nil {
		return nil
	}
	if _, err := s.students.FindByID(ctx, studentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	return nil
}

func (s *AnalyticsService) bandIndex(grade float64) int {
	idx := -1
	for i, band := range s.bands {
		if grade >= band.Min {
			idx = i
		}
	}
	// Grades below the first bound still belong to the lowest band.
	if idx < 0 && len(s.bands) > 0 {
		idx = 0
	}
	return idx
}

func (s *AnalyticsService) cacheSet(ctx context.Context, key string, value interface{}) {
	if err := s.cache.Set(ctx, key, value, 0); err != nil {
		s.logger.Warn("cache analysis payload", zap.String("key", key), zap.Error(err))
	}
}

// weightedAttendance is the single definition of the session-weighted average.
func weightedAttendance(attended, total int64) float64 {
	if total <= 0 {
		return 0
	}
	return float64(attended) / float64(total) * 100
}

func makeAnalysisCacheKey(parts ...string) string {
	var builder strings.Builder
	builder.Grow(len(parts) * 16)
	builder.WriteString("analysis")
	for _, part := range parts {
		if part == "" {
			continue
		}
		builder.WriteByte(':')
		builder.WriteString(strings.ReplaceAll(part, ":", "|"))
	}
	return builder.String()
}
