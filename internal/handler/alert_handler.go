package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/uwm-api/internal/models"
	"github.com/noah-isme/uwm-api/internal/service"
	appErrors "github.com/noah-isme/uwm-api/pkg/errors"
	"github.com/noah-isme/uwm-api/pkg/response"
)

// AlertHandler exposes staff alert endpoints.
type AlertHandler struct {
	alerts *service.AlertService
}

// NewAlertHandler constructs AlertHandler.
func NewAlertHandler(alerts *service.AlertService) *AlertHandler {
	return &AlertHandler{alerts: alerts}
}

// List godoc
// @Summary List alerts
// @Tags Alerts
// @Produce json
// @Param student_id query int false "Filter by student"
// @Param unresolved query bool false "Only unresolved alerts"
// @Param include_inactive query bool false "Include deleted alerts"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /alerts [get]
func (h *AlertHandler) List(c *gin.Context) {
	filter := models.AlertFilter{
		StudentID:       queryInt64(c, "student_id"),
		Unresolved:      queryBool(c, "unresolved"),
		IncludeInactive: queryBool(c, "include_inactive"),
		Page:            queryInt(c, "page", 1),
		PageSize:        queryInt(c, "limit", 20),
	}

	alerts, pagination, err := h.alerts.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, alerts, pagination)
}

// Get godoc
// @Summary Get alert detail
// @Tags Alerts
// @Produce json
// @Param id path int true "Alert ID"
// @Success 200 {object} response.Envelope
// @Router /alerts/{id} [get]
func (h *AlertHandler) Get(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	alert, err := h.alerts.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, alert, nil)
}

// Create godoc
// @Summary Raise alert manually
// @Tags Alerts
// @Accept json
// @Produce json
// @Param payload body service.CreateAlertRequest true "Alert payload"
// @Success 201 {object} response.Envelope
// @Router /alerts [post]
func (h *AlertHandler) Create(c *gin.Context) {
	var req service.CreateAlertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	alert, err := h.alerts.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, alert)
}

// Resolve godoc
// @Summary Resolve alert
// @Tags Alerts
// @Produce json
// @Param id path int true "Alert ID"
// @Success 200 {object} response.Envelope
// @Router /alerts/{id}/resolve [post]
func (h *AlertHandler) Resolve(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	alert, err := h.alerts.Resolve(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, alert, nil)
}

// Delete godoc
// @Summary Delete alert
// @Tags Alerts
// @Produce json
// @Param id path int true "Alert ID"
// @Success 204
// @Router /alerts/{id} [delete]
func (h *AlertHandler) Delete(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.alerts.Delete(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
