package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/uwm-api/internal/models"
	"github.com/noah-isme/uwm-api/internal/service"
	appErrors "github.com/noah-isme/uwm-api/pkg/errors"
	"github.com/noah-isme/uwm-api/pkg/response"
)

// AnalysisHandler exposes the aggregation endpoints: trends, distributions,
// risk classification, correlation, dashboard and report exports.
type AnalysisHandler struct {
	analytics *service.AnalyticsService
	risk      *service.RiskService
	dashboard *service.DashboardService
	exports   *service.ExportService
}

// NewAnalysisHandler constructs AnalysisHandler.
func NewAnalysisHandler(analytics *service.AnalyticsService, risk *service.RiskService, dashboard *service.DashboardService, exports *service.ExportService) *AnalysisHandler {
	return &AnalysisHandler{analytics: analytics, risk: risk, dashboard: dashboard, exports: exports}
}

func cacheMeta(cached bool) map[string]interface{} {
	return map[string]interface{}{"cached": cached}
}

// StressTrend godoc
// @Summary Weekly stress trend for a student
// @Tags Analysis
// @Produce json
// @Param id path int true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /analysis/students/{id}/stress-trend [get]
func (h *AnalysisHandler) StressTrend(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	points, cached, err := h.analytics.StressTrend(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, points, nil, cacheMeta(cached))
}

// AttendanceTrend godoc
// @Summary Weekly attendance trend for a student
// @Tags Analysis
// @Produce json
// @Param id path int true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /analysis/students/{id}/attendance-trend [get]
func (h *AnalysisHandler) AttendanceTrend(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	points, cached, err := h.analytics.AttendanceTrend(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, points, nil, cacheMeta(cached))
}

// AttendanceAverage godoc
// @Summary Session-weighted attendance average for a student
// @Tags Analysis
// @Produce json
// @Param id path int true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /analysis/students/{id}/attendance-average [get]
func (h *AnalysisHandler) AttendanceAverage(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	average, err := h.analytics.StudentAttendanceAverage(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"student_id": id, "average_attendance": average}, nil)
}

// GradeDistribution godoc
// @Summary Grade distribution over configured bands
// @Tags Analysis
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /analysis/grade-distribution [get]
func (h *AnalysisHandler) GradeDistribution(c *gin.Context) {
	bins, cached, err := h.analytics.GradeDistribution(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, bins, nil, cacheMeta(cached))
}

// SubmissionDistribution godoc
// @Summary Submission outcome histogram
// @Tags Analysis
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /analysis/submission-distribution [get]
func (h *AnalysisHandler) SubmissionDistribution(c *gin.Context) {
	counts, cached, err := h.analytics.SubmissionDistribution(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, counts, nil, cacheMeta(cached))
}

// OverallAttendance godoc
// @Summary Population-wide weighted attendance rate
// @Tags Analysis
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /analysis/attendance-overall [get]
func (h *AnalysisHandler) OverallAttendance(c *gin.Context) {
	rate, err := h.analytics.OverallAttendanceRate(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"overall_attendance": rate}, nil)
}

// ModuleStress godoc
// @Summary Mean reported stress per active module
// @Tags Analysis
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /analysis/module-stress [get]
func (h *AnalysisHandler) ModuleStress(c *gin.Context) {
	summaries, cached, err := h.analytics.ModuleStress(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summaries, nil, cacheMeta(cached))
}

// Correlation godoc
// @Summary Stress/grade correlation pairs
// @Tags Analysis
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /analysis/stress-grade-correlation [get]
func (h *AnalysisHandler) Correlation(c *gin.Context) {
	points, cached, err := h.analytics.StressGradeCorrelation(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, points, nil, cacheMeta(cached))
}

// Risk godoc
// @Summary High-risk students
// @Description Flags active students against attendance, grade and stress thresholds. Query parameters override the configured defaults.
// @Tags Analysis
// @Produce json
// @Param attendance query number false "Attendance threshold override"
// @Param grade query number false "Grade threshold override"
// @Param stress query number false "Stress threshold override"
// @Success 200 {object} response.Envelope
// @Router /analysis/risk [get]
func (h *AnalysisHandler) Risk(c *gin.Context) {
	thresholds, err := h.riskThresholds(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	students, cached, err := h.risk.HighRiskStudents(c.Request.Context(), thresholds)
	if err != nil {
		response.Error(c, err)
		return
	}
	meta := cacheMeta(cached)
	meta["thresholds"] = thresholds
	response.JSON(c, http.StatusOK, students, nil, meta)
}

// RiskExport godoc
// @Summary Export the high-risk report
// @Tags Analysis
// @Produce text/csv
// @Produce application/pdf
// @Param format query string true "csv or pdf"
// @Param attendance query number false "Attendance threshold override"
// @Param grade query number false "Grade threshold override"
// @Param stress query number false "Stress threshold override"
// @Success 200 {file} byte
// @Router /analysis/risk/export [get]
func (h *AnalysisHandler) RiskExport(c *gin.Context) {
	if !h.exports.Enabled() {
		response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "exports are disabled"))
		return
	}
	thresholds, err := h.riskThresholds(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	format := service.ExportFormat(c.DefaultQuery("format", string(service.FormatCSV)))
	artifact, err := h.exports.RiskReport(c.Request.Context(), format, thresholds)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+artifact.FileName+`"`)
	c.Data(http.StatusOK, artifact.ContentType, artifact.Payload)
}

// Dashboard godoc
// @Summary Staff dashboard rollup
// @Tags Analysis
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /analysis/dashboard [get]
func (h *AnalysisHandler) Dashboard(c *gin.Context) {
	summary, cached, err := h.dashboard.Summary(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	meta := cacheMeta(cached)
	meta["system"] = h.dashboard.SystemMetrics()
	response.JSON(c, http.StatusOK, summary, nil, meta)
}

func (h *AnalysisHandler) riskThresholds(c *gin.Context) (models.RiskThresholds, error) {
	thresholds := h.risk.Defaults()
	for key, target := range map[string]*float64{
		"attendance": &thresholds.Attendance,
		"grade":      &thresholds.Grade,
		"stress":     &thresholds.Stress,
	} {
		raw := c.Query(key)
		if raw == "" {
			continue
		}
		value, err := strconv.ParseFloat(raw, 64)
		if err != nil || value < 0 {
			return thresholds, appErrors.Clone(appErrors.ErrValidation, "invalid "+key+" threshold")
		}
		*target = value
	}
	return thresholds, nil
}
