package handler

import (
	"net/http"
	"strconv"

	"realtydesk_backend/internal/leads/service"
	"realtydesk_backend/internal/leads/transport"
	"realtydesk_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type HTTPHandler struct {
	svc *service.Service
}

func NewHTTPHandler(svc *service.Service) *HTTPHandler {
	return &HTTPHandler{svc: svc}
}

func (h *HTTPHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("", h.Resolve)
	rg.GET("", h.List)
	rg.GET("/:id", h.Get)
	rg.PATCH("/:id/preferences", h.MergePreferences)
	rg.POST("/:id/insights", h.GenerateInsights)
	rg.DELETE("/:id", h.Delete)
}

func (h *HTTPHandler) Resolve(c *gin.Context) {
	var req transport.ResolveLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	result, err := h.svc.Resolve(c.Request.Context(), service.ResolveInput{
		Name:        req.Name,
		Email:       req.Email,
		Phone:       req.Phone,
		LeadType:    req.LeadType,
		Source:      req.Source,
		Preferences: req.Preferences,
	})
	if httpkit.HandleError(c, err) {
		return
	}

	status := http.StatusOK
	if result.Created {
		status = http.StatusCreated
	}
	httpkit.JSON(c, status, result)
}

func (h *HTTPHandler) List(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "25"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	leads, total, err := h.svc.List(c.Request.Context(), limit, offset)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, gin.H{
		"items": leads,
		"total": total,
	})
}

func (h *HTTPHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid id", nil)
		return
	}

	lead, err := h.svc.Get(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, lead)
}

func (h *HTTPHandler) MergePreferences(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid id", nil)
		return
	}

	var req transport.MergePreferencesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	lead, err := h.svc.MergePreferences(c.Request.Context(), id, req.Preferences)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, lead)
}

func (h *HTTPHandler) GenerateInsights(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid id", nil)
		return
	}

	insights, err := h.svc.GenerateInsights(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, gin.H{"insights": insights})
}

func (h *HTTPHandler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid id", nil)
		return
	}

	if httpkit.HandleError(c, h.svc.Delete(c.Request.Context(), id)) {
		return
	}

	c.Status(http.StatusNoContent)
}
