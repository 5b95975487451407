package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/uwm-api/internal/models"
	"github.com/noah-isme/uwm-api/internal/service"
	appErrors "github.com/noah-isme/uwm-api/pkg/errors"
	"github.com/noah-isme/uwm-api/pkg/response"
)

// StressEventHandler exposes the stress event read and admin-write surface.
type StressEventHandler struct {
	events *service.StressEventService
}

// NewStressEventHandler constructs StressEventHandler.
func NewStressEventHandler(events *service.StressEventService) *StressEventHandler {
	return &StressEventHandler{events: events}
}

// List godoc
// @Summary List stress events
// @Tags StressEvents
// @Produce json
// @Param student_id query int false "Filter by student"
// @Param source query string false "Filter by source (survey or system)"
// @Param include_inactive query bool false "Include deleted events"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /stress-events [get]
func (h *StressEventHandler) List(c *gin.Context) {
	filter := models.StressEventFilter{
		StudentID:       queryInt64(c, "student_id"),
		Source:          models.StressEventSource(c.Query("source")),
		IncludeInactive: queryBool(c, "include_inactive"),
		Page:            queryInt(c, "page", 1),
		PageSize:        queryInt(c, "limit", 20),
	}

	events, pagination, err := h.events.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, events, pagination)
}

// Get godoc
// @Summary Get stress event detail
// @Tags StressEvents
// @Produce json
// @Param id path int true "Stress event ID"
// @Success 200 {object} response.Envelope
// @Router /stress-events/{id} [get]
func (h *StressEventHandler) Get(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	event, err := h.events.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, event, nil)
}

// Create godoc
// @Summary Record stress event
// @Description Records a system-observed event. Survey-derived events come only from detection.
// @Tags StressEvents
// @Accept json
// @Produce json
// @Param payload body service.CreateStressEventRequest true "Stress event payload"
// @Success 201 {object} response.Envelope
// @Router /stress-events [post]
func (h *StressEventHandler) Create(c *gin.Context) {
	var req service.CreateStressEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	event, err := h.events.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, event)
}

// Delete godoc
// @Summary Delete stress event
// @Tags StressEvents
// @Produce json
// @Param id path int true "Stress event ID"
// @Success 204
// @Router /stress-events/{id} [delete]
func (h *StressEventHandler) Delete(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.events.Delete(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
