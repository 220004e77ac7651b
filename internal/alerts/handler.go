package alerts

import (
	"net/http"

	"realtydesk_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Handler exposes the alert HTTP endpoints.
type Handler struct {
	svc *Service
}

// NewHandler creates the alert handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// List handles GET /api/v1/alerts?status=active|dismissed
func (h *Handler) List(c *gin.Context) {
	status := Status(c.Query("status"))
	if status != "" && status != StatusActive && status != StatusDismissed {
		httpkit.Error(c, http.StatusBadRequest, "status must be 'active' or 'dismissed'", nil)
		return
	}

	alerts, err := h.svc.List(c.Request.Context(), status)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"alerts": alerts, "total": len(alerts)})
}

// ListForTransaction handles GET /api/v1/transactions/:id/alerts
func (h *Handler) ListForTransaction(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid transaction id", nil)
		return
	}

	alerts, err := h.svc.ListByTransaction(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"alerts": alerts, "total": len(alerts)})
}

// Generate handles POST /api/v1/alerts/generate
func (h *Handler) Generate(c *gin.Context) {
	result, err := h.svc.Generate(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// Dismiss handles POST /api/v1/alerts/:id/dismiss
func (h *Handler) Dismiss(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid alert id", nil)
		return
	}

	alert, err := h.svc.Dismiss(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, alert)
}
