package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/uwm-api/internal/models"
)

func testThresholds() models.RiskThresholds {
	return models.RiskThresholds{Attendance: 70, Grade: 40, Stress: 4}
}

func TestEvaluateRiskAllChecks(t *testing.T) {
	row := models.StudentMetricsRow{
		StudentID:        2,
		FullName:         "Ben Okafor",
		AverageStress:    floatPtr(4.5),
		AverageGrade:     floatPtr(38),
		AttendedSessions: 13,
		TotalSessions:    20,
	}

	entry := evaluateRisk(row, testThresholds())
	require.Len(t, entry.Reasons, 3)
	assert.Equal(t, "Low attendance (65.0%)", entry.Reasons[0])
	assert.Equal(t, "Low average grade (38.0)", entry.Reasons[1])
	assert.Equal(t, "High stress (4.5)", entry.Reasons[2])
	require.NotNil(t, entry.AverageAttendance)
	assert.InDelta(t, 65.0, *entry.AverageAttendance, 0.001)
}

func TestEvaluateRiskMissingMetricsSkipChecks(t *testing.T) {
	// No attendance records and no grades: neither check can flag the student.
	row := models.StudentMetricsRow{StudentID: 3, FullName: "New Starter", AverageStress: floatPtr(2)}

	entry := evaluateRisk(row, testThresholds())
	assert.Empty(t, entry.Reasons)
	assert.Nil(t, entry.AverageAttendance)
}

func TestEvaluateRiskStressAtThresholdNotFlagged(t *testing.T) {
	row := models.StudentMetricsRow{StudentID: 4, AverageStress: floatPtr(4)}

	entry := evaluateRisk(row, testThresholds())
	assert.Empty(t, entry.Reasons)
}

func TestEvaluateRiskAttendanceAtThresholdNotFlagged(t *testing.T) {
	row := models.StudentMetricsRow{StudentID: 5, AttendedSessions: 14, TotalSessions: 20}

	entry := evaluateRisk(row, testThresholds())
	assert.Empty(t, entry.Reasons)
}

func TestHighRiskStudentsFiltersUnflagged(t *testing.T) {
	repo := &mockAnalyticsRepo{metrics: []models.StudentMetricsRow{
		{StudentID: 1, FullName: "Fine", AverageGrade: floatPtr(72), AttendedSessions: 19, TotalSessions: 20},
		{StudentID: 2, FullName: "Struggling", AverageGrade: floatPtr(30), AttendedSessions: 8, TotalSessions: 20},
	}}
	svc := NewRiskService(repo, testThresholds(), nil, nil, zap.NewNop())

	flagged, cached, err := svc.HighRiskStudents(context.Background(), svc.Defaults())
	require.NoError(t, err)
	assert.False(t, cached)
	require.Len(t, flagged, 1)
	assert.Equal(t, int64(2), flagged[0].StudentID)
	assert.Len(t, flagged[0].Reasons, 2)
}

func TestHighRiskStudentsEmptyPopulation(t *testing.T) {
	svc := NewRiskService(&mockAnalyticsRepo{}, testThresholds(), nil, nil, zap.NewNop())

	flagged, _, err := svc.HighRiskStudents(context.Background(), svc.Defaults())
	require.NoError(t, err)
	assert.NotNil(t, flagged)
	assert.Empty(t, flagged)
}
