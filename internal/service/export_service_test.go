package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/uwm-api/internal/models"
)

func newTestExportService(enabled bool) *ExportService {
	repo := &mockAnalyticsRepo{metrics: []models.StudentMetricsRow{
		{StudentID: 2, FullName: "Ben Okafor", AverageStress: floatPtr(4.5), AverageGrade: floatPtr(38), AttendedSessions: 13, TotalSessions: 20},
	}}
	risk := NewRiskService(repo, testThresholds(), nil, nil, zap.NewNop())
	return NewExportService(risk, enabled, zap.NewNop())
}

func TestExportServiceEnabled(t *testing.T) {
	assert.True(t, newTestExportService(true).Enabled())
	assert.False(t, newTestExportService(false).Enabled())
}

func TestRiskReportCSV(t *testing.T) {
	svc := newTestExportService(true)

	artifact, err := svc.RiskReport(context.Background(), FormatCSV, testThresholds())
	require.NoError(t, err)
	assert.Equal(t, "text/csv", artifact.ContentType)
	assert.True(t, strings.HasPrefix(artifact.FileName, "high-risk-students-"))
	assert.True(t, strings.HasSuffix(artifact.FileName, ".csv"))

	body := string(artifact.Payload)
	assert.Contains(t, body, "Student ID,Full Name,Attendance,Average Grade,Average Stress,Reasons")
	assert.Contains(t, body, "Ben Okafor")
	assert.Contains(t, body, "65.0%")
	assert.Contains(t, body, "Low attendance (65.0%); Low average grade (38.0); High stress (4.5)")
}

func TestRiskReportPDF(t *testing.T) {
	svc := newTestExportService(true)

	artifact, err := svc.RiskReport(context.Background(), FormatPDF, testThresholds())
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", artifact.ContentType)
	assert.True(t, strings.HasSuffix(artifact.FileName, ".pdf"))
	assert.NotEmpty(t, artifact.Payload)
}

func TestRiskReportUnknownFormat(t *testing.T) {
	svc := newTestExportService(true)

	_, err := svc.RiskReport(context.Background(), ExportFormat("xlsx"), testThresholds())
	require.Error(t, err)
}
