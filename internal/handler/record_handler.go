package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/uwm-api/internal/models"
	"github.com/noah-isme/uwm-api/internal/service"
	appErrors "github.com/noah-isme/uwm-api/pkg/errors"
	"github.com/noah-isme/uwm-api/pkg/response"
)

// RecordHandler exposes the grade, attendance and submission record endpoints.
type RecordHandler struct {
	records *service.RecordService
}

// NewRecordHandler constructs RecordHandler.
func NewRecordHandler(records *service.RecordService) *RecordHandler {
	return &RecordHandler{records: records}
}

func recordFilter(c *gin.Context) models.RecordFilter {
	return models.RecordFilter{
		StudentID:       queryInt64(c, "student_id"),
		ModuleID:        queryInt64(c, "module_id"),
		IncludeInactive: queryBool(c, "include_inactive"),
		Page:            queryInt(c, "page", 1),
		PageSize:        queryInt(c, "limit", 20),
	}
}

// ListGrades godoc
// @Summary List grades
// @Tags Records
// @Produce json
// @Param student_id query int false "Filter by student"
// @Param module_id query int false "Filter by module"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /grades [get]
func (h *RecordHandler) ListGrades(c *gin.Context) {
	grades, pagination, err := h.records.ListGrades(c.Request.Context(), recordFilter(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, grades, pagination)
}

// GetGrade godoc
// @Summary Get grade detail
// @Tags Records
// @Produce json
// @Param id path int true "Grade ID"
// @Success 200 {object} response.Envelope
// @Router /grades/{id} [get]
func (h *RecordHandler) GetGrade(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	grade, err := h.records.GetGrade(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, grade, nil)
}

// CreateGrade godoc
// @Summary Record grade
// @Tags Records
// @Accept json
// @Produce json
// @Param payload body service.GradeRequest true "Grade payload"
// @Success 201 {object} response.Envelope
// @Router /grades [post]
func (h *RecordHandler) CreateGrade(c *gin.Context) {
	var req service.GradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	grade, err := h.records.CreateGrade(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, grade)
}

// UpdateGrade godoc
// @Summary Update grade
// @Tags Records
// @Accept json
// @Produce json
// @Param id path int true "Grade ID"
// @Param payload body service.GradeRequest true "Grade payload"
// @Success 200 {object} response.Envelope
// @Router /grades/{id} [put]
func (h *RecordHandler) UpdateGrade(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req service.GradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	grade, err := h.records.UpdateGrade(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, grade, nil)
}

// DeleteGrade godoc
// @Summary Delete grade
// @Tags Records
// @Produce json
// @Param id path int true "Grade ID"
// @Success 204
// @Router /grades/{id} [delete]
func (h *RecordHandler) DeleteGrade(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.records.DeleteGrade(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ListAttendance godoc
// @Summary List attendance records
// @Tags Records
// @Produce json
// @Param student_id query int false "Filter by student"
// @Param module_id query int false "Filter by module"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /attendance [get]
func (h *RecordHandler) ListAttendance(c *gin.Context) {
	records, pagination, err := h.records.ListAttendance(c.Request.Context(), recordFilter(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, records, pagination)
}

// GetAttendance godoc
// @Summary Get attendance record detail
// @Tags Records
// @Produce json
// @Param id path int true "Attendance record ID"
// @Success 200 {object} response.Envelope
// @Router /attendance/{id} [get]
func (h *RecordHandler) GetAttendance(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	record, err := h.records.GetAttendance(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, record, nil)
}

// CreateAttendance godoc
// @Summary Record attendance
// @Tags Records
// @Accept json
// @Produce json
// @Param payload body service.AttendanceRequest true "Attendance payload"
// @Success 201 {object} response.Envelope
// @Router /attendance [post]
func (h *RecordHandler) CreateAttendance(c *gin.Context) {
	var req service.AttendanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	record, err := h.records.CreateAttendance(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, record)
}

// UpdateAttendance godoc
// @Summary Update attendance record
// @Tags Records
// @Accept json
// @Produce json
// @Param id path int true "Attendance record ID"
// @Param payload body service.AttendanceRequest true "Attendance payload"
// @Success 200 {object} response.Envelope
// @Router /attendance/{id} [put]
func (h *RecordHandler) UpdateAttendance(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req service.AttendanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	record, err := h.records.UpdateAttendance(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, record, nil)
}

// DeleteAttendance godoc
// @Summary Delete attendance record
// @Tags Records
// @Produce json
// @Param id path int true "Attendance record ID"
// @Success 204
// @Router /attendance/{id} [delete]
func (h *RecordHandler) DeleteAttendance(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.records.DeleteAttendance(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ListEnrolments godoc
// @Summary List enrolments
// @Tags Records
// @Produce json
// @Param student_id query int false "Filter by student"
// @Param module_id query int false "Filter by module"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /enrolments [get]
func (h *RecordHandler) ListEnrolments(c *gin.Context) {
	enrolments, pagination, err := h.records.ListEnrolments(c.Request.Context(), recordFilter(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, enrolments, pagination)
}

// GetEnrolment godoc
// @Summary Get enrolment detail
// @Tags Records
// @Produce json
// @Param id path int true "Enrolment ID"
// @Success 200 {object} response.Envelope
// @Router /enrolments/{id} [get]
func (h *RecordHandler) GetEnrolment(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	enrolment, err := h.records.GetEnrolment(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, enrolment, nil)
}

// CreateEnrolment godoc
// @Summary Enrol student on module
// @Tags Records
// @Accept json
// @Produce json
// @Param payload body service.EnrolmentRequest true "Enrolment payload"
// @Success 201 {object} response.Envelope
// @Router /enrolments [post]
func (h *RecordHandler) CreateEnrolment(c *gin.Context) {
	var req service.EnrolmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	enrolment, err := h.records.CreateEnrolment(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, enrolment)
}

// DeleteEnrolment godoc
// @Summary Delete enrolment
// @Tags Records
// @Produce json
// @Param id path int true "Enrolment ID"
// @Success 204
// @Router /enrolments/{id} [delete]
func (h *RecordHandler) DeleteEnrolment(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.records.DeleteEnrolment(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ListSubmissions godoc
// @Summary List submission records
// @Tags Records
// @Produce json
// @Param student_id query int false "Filter by student"
// @Param module_id query int false "Filter by module"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /submissions [get]
func (h *RecordHandler) ListSubmissions(c *gin.Context) {
	records, pagination, err := h.records.ListSubmissions(c.Request.Context(), recordFilter(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, records, pagination)
}

// GetSubmission godoc
// @Summary Get submission record detail
// @Tags Records
// @Produce json
// @Param id path int true "Submission record ID"
// @Success 200 {object} response.Envelope
// @Router /submissions/{id} [get]
func (h *RecordHandler) GetSubmission(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	record, err := h.records.GetSubmission(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, record, nil)
}

// CreateSubmission godoc
// @Summary Record submission outcome
// @Tags Records
// @Accept json
// @Produce json
// @Param payload body service.SubmissionRequest true "Submission payload"
// @Success 201 {object} response.Envelope
// @Router /submissions [post]
func (h *RecordHandler) CreateSubmission(c *gin.Context) {
	var req service.SubmissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	record, err := h.records.CreateSubmission(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, record)
}

// UpdateSubmission godoc
// @Summary Update submission record
// @Tags Records
// @Accept json
// @Produce json
// @Param id path int true "Submission record ID"
// @Param payload body service.SubmissionRequest true "Submission payload"
// @Success 200 {object} response.Envelope
// @Router /submissions/{id} [put]
func (h *RecordHandler) UpdateSubmission(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req service.SubmissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	record, err := h.records.UpdateSubmission(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, record, nil)
}

// DeleteSubmission godoc
// @Summary Delete submission record
// @Tags Records
// @Produce json
// @Param id path int true "Submission record ID"
// @Success 204
// @Router /submissions/{id} [delete]
func (h *RecordHandler) DeleteSubmission(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.records.DeleteSubmission(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
