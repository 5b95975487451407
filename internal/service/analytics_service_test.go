package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/uwm-api/internal/models"
)

type mockAnalyticsRepo struct {
	stressTrend     []models.TrendPoint
	attendanceTrend []models.TrendPoint
	totals          models.AttendanceTotals
	overallTotals   models.AttendanceTotals
	metrics         []models.StudentMetricsRow
	submissions     models.SubmissionStatusCounts
	moduleStress    []models.ModuleStressSummary
}

func (m *mockAnalyticsRepo) StressTrend(ctx context.Context, studentID int64) ([]models.TrendPoint, error) {
	return m.stressTrend, nil
}

func (m *mockAnalyticsRepo) AttendanceTrend(ctx context.Context, studentID int64) ([]models.TrendPoint, error) {
	return m.attendanceTrend, nil
}

func (m *mockAnalyticsRepo) AttendanceTotals(ctx context.Context, studentID int64) (*models.AttendanceTotals, error) {
	return &m.totals, nil
}

func (m *mockAnalyticsRepo) OverallAttendanceTotals(ctx context.Context) (*models.AttendanceTotals, error) {
	return &m.overallTotals, nil
}

func (m *mockAnalyticsRepo) StudentMetrics(ctx context.Context) ([]models.StudentMetricsRow, error) {
	return m.metrics, nil
}

func (m *mockAnalyticsRepo) SubmissionStatusCounts(ctx context.Context) (*models.SubmissionStatusCounts, error) {
	return &m.submissions, nil
}

func (m *mockAnalyticsRepo) ModuleStress(ctx context.Context) ([]models.ModuleStressSummary, error) {
	return m.moduleStress, nil
}

func floatPtr(v float64) *float64 { return &v }

func defaultBands() []GradeBand {
	return []GradeBand{
		{Label: "Fail", Min: 0},
		{Label: "Pass", Min: 40},
		{Label: "Merit", Min: 50},
		{Label: "Distinction", Min: 60},
	}
}

func newAnalyticsService(repo *mockAnalyticsRepo) *AnalyticsService {
	students := &mockStudentLookup{known: map[int64]models.Student{10: {ID: 10}}}
	return NewAnalyticsService(repo, students, defaultBands(), nil, nil, zap.NewNop())
}

func TestWeightedAttendance(t *testing.T) {
	// 3 of 4 one week, 1 of 10 the next. The session-weighted average counts
	// every session once; a per-week mean would report 42.5.
	assert.InDelta(t, 28.57, weightedAttendance(4, 14), 0.01)
	assert.Equal(t, 0.0, weightedAttendance(0, 0))
	assert.Equal(t, 100.0, weightedAttendance(8, 8))
}

func TestStudentAttendanceAverage(t *testing.T) {
	repo := &mockAnalyticsRepo{totals: models.AttendanceTotals{AttendedSessions: 22, TotalSessions: 40}}
	svc := newAnalyticsService(repo)

	avg, err := svc.StudentAttendanceAverage(context.Background(), 10)
	require.NoError(t, err)
	assert.InDelta(t, 55.0, avg, 0.001)
}

func TestStudentAttendanceAverageNoSessions(t *testing.T) {
	svc := newAnalyticsService(&mockAnalyticsRepo{})

	avg, err := svc.StudentAttendanceAverage(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, 0.0, avg)
}

func TestStressTrendUnknownStudent(t *testing.T) {
	svc := newAnalyticsService(&mockAnalyticsRepo{})

	_, _, err := svc.StressTrend(context.Background(), 404)
	require.Error(t, err)
}

func TestStressTrendEmptyIsNotAnError(t *testing.T) {
	svc := newAnalyticsService(&mockAnalyticsRepo{})

	points, cached, err := svc.StressTrend(context.Background(), 10)
	require.NoError(t, err)
	assert.False(t, cached)
	assert.NotNil(t, points)
	assert.Empty(t, points)
}

func TestGradeDistributionBands(t *testing.T) {
	repo := &mockAnalyticsRepo{metrics: []models.StudentMetricsRow{
		{StudentID: 1, AverageGrade: floatPtr(35)},
		{StudentID: 2, AverageGrade: floatPtr(40)},
		{StudentID: 3, AverageGrade: floatPtr(59.9)},
		{StudentID: 4, AverageGrade: floatPtr(60)},
		{StudentID: 5, AverageGrade: floatPtr(92)},
		{StudentID: 6}, // no grades, excluded
	}}
	svc := newAnalyticsService(repo)

	bins, _, err := svc.GradeDistribution(context.Background())
	require.NoError(t, err)
	require.Len(t, bins, 4)
	assert.Equal(t, "Fail", bins[0].Band)
	assert.Equal(t, 1, bins[0].Count)
	assert.Equal(t, 1, bins[1].Count)
	assert.Equal(t, 1, bins[2].Count)
	assert.Equal(t, 2, bins[3].Count)
}

func TestGradeDistributionAllBandsPresentWhenEmpty(t *testing.T) {
	svc := newAnalyticsService(&mockAnalyticsRepo{})

	bins, _, err := svc.GradeDistribution(context.Background())
	require.NoError(t, err)
	require.Len(t, bins, 4)
	for _, bin := range bins {
		assert.Zero(t, bin.Count)
	}
}

func TestGradeBandIndexBelowFirstBound(t *testing.T) {
	svc := NewAnalyticsService(nil, nil, []GradeBand{{Label: "Low", Min: 10}, {Label: "High", Min: 50}}, nil, nil, zap.NewNop())

	assert.Equal(t, 0, svc.bandIndex(5))
	assert.Equal(t, 0, svc.bandIndex(10))
	assert.Equal(t, 1, svc.bandIndex(50))
}

func TestStressGradeCorrelationSkipsIncompleteRows(t *testing.T) {
	repo := &mockAnalyticsRepo{metrics: []models.StudentMetricsRow{
		{StudentID: 1, FullName: "Both", AverageStress: floatPtr(3.5), AverageGrade: floatPtr(61)},
		{StudentID: 2, FullName: "Stress only", AverageStress: floatPtr(4)},
		{StudentID: 3, FullName: "Grade only", AverageGrade: floatPtr(70)},
	}}
	svc := newAnalyticsService(repo)

	points, _, err := svc.StressGradeCorrelation(context.Background())
	require.NoError(t, err)
	require.Len(t, points, 1)
	assert.Equal(t, int64(1), points[0].StudentID)
	assert.InDelta(t, 3.5, points[0].AverageStress, 0.001)
}

func TestMakeAnalysisCacheKey(t *testing.T) {
	assert.Equal(t, "analysis:stress-trend:7", makeAnalysisCacheKey("stress-trend", "7"))
	assert.Equal(t, "analysis:a|b", makeAnalysisCacheKey("a:b"))
	assert.Equal(t, "analysis:x", makeAnalysisCacheKey("", "x"))
}
