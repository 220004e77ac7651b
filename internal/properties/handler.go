package properties

import (
	"net/http"

	"realtydesk_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// SearchRequest is the direct search DTO.
type SearchRequest struct {
	MinBedrooms   int      `json:"minBedrooms" binding:"omitempty,min=0"`
	MinBathrooms  float64  `json:"minBathrooms" binding:"omitempty,min=0"`
	MinPrice      float64  `json:"minPrice" binding:"omitempty,min=0"`
	MaxPrice      float64  `json:"maxPrice" binding:"omitempty,min=0"`
	Location      string   `json:"location"`
	PropertyTypes []string `json:"propertyTypes"`
}

// Handler exposes the property search endpoints.
type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// Search handles POST /api/v1/properties/search
func (h *Handler) Search(c *gin.Context) {
	var req SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid search filters", nil)
		return
	}

	result, err := h.svc.Search(c.Request.Context(), SearchFilters{
		MinBedrooms:   req.MinBedrooms,
		MinBathrooms:  req.MinBathrooms,
		MinPrice:      req.MinPrice,
		MaxPrice:      req.MaxPrice,
		Location:      req.Location,
		PropertyTypes: req.PropertyTypes,
	})
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// MatchesForLead handles GET /api/v1/leads/:id/property-matches
func (h *Handler) MatchesForLead(c *gin.Context) {
	leadID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid lead id", nil)
		return
	}

	result, err := h.svc.SearchForLead(c.Request.Context(), leadID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}
