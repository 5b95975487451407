package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/uwm-api/internal/models"
	"github.com/noah-isme/uwm-api/internal/service"
	appErrors "github.com/noah-isme/uwm-api/pkg/errors"
	"github.com/noah-isme/uwm-api/pkg/response"
)

// ModuleHandler exposes taught-module endpoints.
type ModuleHandler struct {
	modules *service.ModuleService
}

// NewModuleHandler constructs ModuleHandler.
func NewModuleHandler(modules *service.ModuleService) *ModuleHandler {
	return &ModuleHandler{modules: modules}
}

// List godoc
// @Summary List modules
// @Tags Modules
// @Produce json
// @Param search query string false "Search by code or title"
// @Param include_inactive query bool false "Include deactivated modules"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /modules [get]
func (h *ModuleHandler) List(c *gin.Context) {
	filter := models.ModuleFilter{
		Search:          strings.TrimSpace(c.Query("search")),
		IncludeInactive: queryBool(c, "include_inactive"),
		Page:            queryInt(c, "page", 1),
		PageSize:        queryInt(c, "limit", 20),
	}

	modules, pagination, err := h.modules.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, modules, pagination)
}

// Get godoc
// @Summary Get module detail
// @Tags Modules
// @Produce json
// @Param id path int true "Module ID"
// @Success 200 {object} response.Envelope
// @Router /modules/{id} [get]
func (h *ModuleHandler) Get(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	module, err := h.modules.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, module, nil)
}

// Create godoc
// @Summary Create module
// @Tags Modules
// @Accept json
// @Produce json
// @Param payload body service.ModuleRequest true "Module payload"
// @Success 201 {object} response.Envelope
// @Router /modules [post]
func (h *ModuleHandler) Create(c *gin.Context) {
	var req service.ModuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	module, err := h.modules.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, module)
}

// Update godoc
// @Summary Update module
// @Tags Modules
// @Accept json
// @Produce json
// @Param id path int true "Module ID"
// @Param payload body service.ModuleRequest true "Module payload"
// @Success 200 {object} response.Envelope
// @Router /modules/{id} [put]
func (h *ModuleHandler) Update(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req service.ModuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	module, err := h.modules.Update(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, module, nil)
}

// Delete godoc
// @Summary Deactivate module
// @Tags Modules
// @Produce json
// @Param id path int true "Module ID"
// @Success 204
// @Router /modules/{id} [delete]
func (h *ModuleHandler) Delete(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.modules.Delete(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
