package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/uwm-api/internal/models"
	"github.com/noah-isme/uwm-api/internal/service"
	appErrors "github.com/noah-isme/uwm-api/pkg/errors"
	"github.com/noah-isme/uwm-api/pkg/response"
)

// SurveyHandler exposes the weekly check-in endpoints. Submissions trigger
// detection, so the create/update responses include derived records.
type SurveyHandler struct {
	surveys *service.SurveyService
}

// NewSurveyHandler constructs SurveyHandler.
func NewSurveyHandler(surveys *service.SurveyService) *SurveyHandler {
	return &SurveyHandler{surveys: surveys}
}

// List godoc
// @Summary List survey responses
// @Tags Surveys
// @Produce json
// @Param student_id query int false "Filter by student"
// @Param module_id query int false "Filter by module"
// @Param week query int false "Filter by week number"
// @Param include_inactive query bool false "Include deleted responses"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /surveys [get]
func (h *SurveyHandler) List(c *gin.Context) {
	filter := models.SurveyResponseFilter{
		StudentID:       queryInt64(c, "student_id"),
		ModuleID:        queryInt64(c, "module_id"),
		WeekNumber:      queryInt(c, "week", 0),
		IncludeInactive: queryBool(c, "include_inactive"),
		Page:            queryInt(c, "page", 1),
		PageSize:        queryInt(c, "limit", 20),
	}

	responses, pagination, err := h.surveys.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, responses, pagination)
}

// Get godoc
// @Summary Get survey response detail
// @Tags Surveys
// @Produce json
// @Param id path int true "Survey response ID"
// @Success 200 {object} response.Envelope
// @Router /surveys/{id} [get]
func (h *SurveyHandler) Get(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	resp, err := h.surveys.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, resp, nil)
}

// Submit godoc
// @Summary Submit weekly check-in
// @Description Stores the response and runs stress detection atomically with it.
// @Tags Surveys
// @Accept json
// @Produce json
// @Param payload body service.SubmitSurveyRequest true "Survey payload"
// @Success 201 {object} response.Envelope
// @Router /surveys [post]
func (h *SurveyHandler) Submit(c *gin.Context) {
	var req service.SubmitSurveyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	result, err := h.surveys.Submit(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

// Update godoc
// @Summary Update survey response
// @Description Rewrites the response and re-runs detection. Derived records are never retracted.
// @Tags Surveys
// @Accept json
// @Produce json
// @Param id path int true "Survey response ID"
// @Param payload body service.SubmitSurveyRequest true "Survey payload"
// @Success 200 {object} response.Envelope
// @Router /surveys/{id} [put]
func (h *SurveyHandler) Update(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req service.SubmitSurveyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	result, err := h.surveys.Update(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Delete godoc
// @Summary Delete survey response
// @Tags Surveys
// @Produce json
// @Param id path int true "Survey response ID"
// @Success 204
// @Router /surveys/{id} [delete]
func (h *SurveyHandler) Delete(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.surveys.Delete(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
