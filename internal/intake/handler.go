package intake

import (
	"net/http"

	"realtydesk_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
)

// SubmitRequest carries one free-text intake submission.
type SubmitRequest struct {
	Text   string `json:"text" binding:"required,min=3"`
	Source string `json:"source"`
}

// Handler exposes the intake endpoints.
type Handler struct {
	svc          *Service
	orchestrator *Orchestrator
}

func NewHandler(svc *Service, orchestrator *Orchestrator) *Handler {
	return &Handler{svc: svc, orchestrator: orchestrator}
}

// Parse handles POST /api/v1/intake/parse — facts only, no side effects.
func (h *Handler) Parse(c *gin.Context) {
	var req SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "field 'text' is required", nil)
		return
	}

	parsed := h.svc.Parse(c.Request.Context(), req.Text)
	httpkit.OK(c, parsed)
}

// Submit handles POST /api/v1/intake — the end-to-end pipeline.
func (h *Handler) Submit(c *gin.Context) {
	var req SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "field 'text' is required", nil)
		return
	}

	source := req.Source
	if source == "" {
		source = "intake"
	}

	result, err := h.orchestrator.Run(c.Request.Context(), req.Text, source)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}
