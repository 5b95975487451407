package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/uwm-api/internal/models"
	"github.com/noah-isme/uwm-api/internal/service"
)

type fakeAnalyticsRepo struct {
	metrics []models.StudentMetricsRow
	totals  models.AttendanceTotals
	trend   []models.TrendPoint
}

func (f *fakeAnalyticsRepo) StressTrend(ctx context.Context, studentID int64) ([]models.TrendPoint, error) {
	return f.trend, nil
}

func (f *fakeAnalyticsRepo) AttendanceTrend(ctx context.Context, studentID int64) ([]models.TrendPoint, error) {
	return f.trend, nil
}

func (f *fakeAnalyticsRepo) AttendanceTotals(ctx context.Context, studentID int64) (*models.AttendanceTotals, error) {
	return &f.totals, nil
}

func (f *fakeAnalyticsRepo) OverallAttendanceTotals(ctx context.Context) (*models.AttendanceTotals, error) {
	return &f.totals, nil
}

func (f *fakeAnalyticsRepo) StudentMetrics(ctx context.Context) ([]models.StudentMetricsRow, error) {
	return f.metrics, nil
}

func (f *fakeAnalyticsRepo) SubmissionStatusCounts(ctx context.Context) (*models.SubmissionStatusCounts, error) {
	return &models.SubmissionStatusCounts{}, nil
}

func (f *fakeAnalyticsRepo) ModuleStress(ctx context.Context) ([]models.ModuleStressSummary, error) {
	return nil, nil
}

func (f *fakeAnalyticsRepo) DashboardCounts(ctx context.Context) (*models.DashboardSummary, error) {
	return &models.DashboardSummary{ActiveStudents: 12}, nil
}

func newAnalysisHandler(repo *fakeAnalyticsRepo, exportsEnabled bool) *AnalysisHandler {
	thresholds := models.RiskThresholds{Attendance: 70, Grade: 40, Stress: 4}
	risk := service.NewRiskService(repo, thresholds, nil, nil, zap.NewNop())
	dashboard := service.NewDashboardService(repo, nil, nil, zap.NewNop())
	exports := service.NewExportService(risk, exportsEnabled, zap.NewNop())
	return NewAnalysisHandler(nil, risk, dashboard, exports)
}

func attendanceFor(attended, total int64) models.StudentMetricsRow {
	return models.StudentMetricsRow{StudentID: 1, FullName: "Student", AttendedSessions: attended, TotalSessions: total}
}

type analysisEnvelope struct {
	Data  json.RawMessage        `json:"data"`
	Meta  map[string]interface{} `json:"meta"`
	Error map[string]interface{} `json:"error"`
}

func TestAnalysisHandlerRiskDefaultThresholds(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repo := &fakeAnalyticsRepo{metrics: []models.StudentMetricsRow{attendanceFor(8, 20)}}
	handler := newAnalysisHandler(repo, true)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/analysis/risk", nil)

	handler.Risk(c)

	require.Equal(t, http.StatusOK, rec.Code)
	var envelope analysisEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, false, envelope.Meta["cached"])
	require.Contains(t, envelope.Meta, "thresholds")

	var flagged []models.RiskStudent
	require.NoError(t, json.Unmarshal(envelope.Data, &flagged))
	require.Len(t, flagged, 1)
	assert.Equal(t, []string{"Low attendance (40.0%)"}, flagged[0].Reasons)
}

func TestAnalysisHandlerRiskThresholdOverride(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repo := &fakeAnalyticsRepo{metrics: []models.StudentMetricsRow{attendanceFor(8, 20)}}
	handler := newAnalysisHandler(repo, true)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/analysis/risk?attendance=30", nil)

	handler.Risk(c)

	require.Equal(t, http.StatusOK, rec.Code)
	var envelope analysisEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	var flagged []models.RiskStudent
	require.NoError(t, json.Unmarshal(envelope.Data, &flagged))
	assert.Empty(t, flagged)
}

func TestAnalysisHandlerRiskInvalidThreshold(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newAnalysisHandler(&fakeAnalyticsRepo{}, true)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/analysis/risk?grade=abc", nil)

	handler.Risk(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAnalysisHandlerRiskExportDisabled(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newAnalysisHandler(&fakeAnalyticsRepo{}, false)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/analysis/risk/export?format=csv", nil)

	handler.RiskExport(c)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestAnalysisHandlerRiskExportCSV(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repo := &fakeAnalyticsRepo{metrics: []models.StudentMetricsRow{attendanceFor(8, 20)}}
	handler := newAnalysisHandler(repo, true)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/analysis/risk/export?format=csv", nil)

	handler.RiskExport(c)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "high-risk-students-")
	assert.Contains(t, rec.Body.String(), "Low attendance (40.0%)")
}

func TestAnalysisHandlerDashboard(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newAnalysisHandler(&fakeAnalyticsRepo{}, true)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/analysis/dashboard", nil)

	handler.Dashboard(c)

	require.Equal(t, http.StatusOK, rec.Code)
	var envelope analysisEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	require.Contains(t, envelope.Meta, "system")

	var summary models.DashboardSummary
	require.NoError(t, json.Unmarshal(envelope.Data, &summary))
	assert.Equal(t, 12, summary.ActiveStudents)
}

func TestPathIDRejectsGarbage(t *testing.T) {
	gin.SetMode(gin.TestMode)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Params = gin.Params{{Key: "id", Value: "abc"}}

	_, err := pathID(c)
	assert.Error(t, err)
}
