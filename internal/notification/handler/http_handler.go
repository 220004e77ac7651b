// Package handler exposes the notification HTTP endpoints.
package handler

import (
	"net/http"
	"time"

	"realtydesk_backend/internal/notification/inapp"
	"realtydesk_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// HTTPHandler serves the in-app notification endpoints.
type HTTPHandler struct {
	svc *inapp.Service
}

// NewHTTPHandler creates the notification handler.
func NewHTTPHandler(svc *inapp.Service) *HTTPHandler {
	return &HTTPHandler{svc: svc}
}

// ListQuery are the accepted list filters.
type ListQuery struct {
	Status string `form:"status" binding:"omitempty,oneof=unread read snoozed"`
	Limit  int    `form:"limit"`
	Offset int    `form:"offset"`
}

// List handles GET /api/v1/notifications
func (h *HTTPHandler) List(c *gin.Context) {
	var query ListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "status must be 'unread', 'read', or 'snoozed'", nil)
		return
	}

	items, total, err := h.svc.List(c.Request.Context(), inapp.Status(query.Status), query.Limit, query.Offset)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"notifications": items, "total": total})
}

// MarkRead handles POST /api/v1/notifications/:id/read
func (h *HTTPHandler) MarkRead(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid notification id", nil)
		return
	}

	n, err := h.svc.MarkRead(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, n)
}

// MarkAllRead handles POST /api/v1/notifications/read-all
func (h *HTTPHandler) MarkAllRead(c *gin.Context) {
	changed, err := h.svc.MarkAllRead(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"updated": changed})
}

// Delete handles DELETE /api/v1/notifications/:id
func (h *HTTPHandler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid notification id", nil)
		return
	}

	if httpkit.HandleError(c, h.svc.Delete(c.Request.Context(), id)) {
		return
	}
	c.Status(http.StatusNoContent)
}

// SnoozeRequest carries the wake time for a snooze.
type SnoozeRequest struct {
	Until time.Time `json:"until" binding:"required"`
}

// Snooze handles POST /api/v1/notifications/:id/snooze
func (h *HTTPHandler) Snooze(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid notification id", nil)
		return
	}

	var req SnoozeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "until is required (RFC 3339 timestamp)", nil)
		return
	}

	n, err := h.svc.Snooze(c.Request.Context(), id, req.Until)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, n)
}
