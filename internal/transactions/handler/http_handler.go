package handler

import (
	"io"
	"net/http"
	"strconv"

	"realtydesk_backend/internal/transactions/domain"
	"realtydesk_backend/internal/transactions/service"
	"realtydesk_backend/internal/transactions/transport"
	"realtydesk_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const maxVoiceMemoBytes = 25 << 20

type HTTPHandler struct {
	svc *service.Service
}

func NewHTTPHandler(svc *service.Service) *HTTPHandler {
	return &HTTPHandler{svc: svc}
}

func (h *HTTPHandler) RegisterRoutes(rg *gin.RouterGroup, items *gin.RouterGroup) {
	rg.POST("", h.Create)
	rg.GET("", h.List)
	rg.GET("/:id", h.Get)
	rg.PATCH("/:id", h.Update)
	rg.DELETE("/:id", h.Delete)
	rg.POST("/:id/transition", h.Transition)
	rg.GET("/:id/checklist", h.Checklist)
	rg.POST("/:id/checklist", h.AddItem)

	items.PATCH("/:id", h.UpdateItem)
	items.DELETE("/:id", h.DeleteItem)
	items.POST("/:id/voice-memo", h.AttachVoiceMemo)
	items.DELETE("/:id/voice-memo", h.DetachVoiceMemo)
}

func (h *HTTPHandler) Create(c *gin.Context) {
	var req transport.CreateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	result, err := h.svc.Create(c.Request.Context(), service.CreateInput{
		LeadID:          req.LeadID,
		TransactionType: domain.TransactionType(req.TransactionType),
		PropertyAddress: req.PropertyAddress,
		ListingPrice:    req.ListingPrice,
		ClosingDate:     req.ClosingDate,
	})
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, result)
}

func (h *HTTPHandler) List(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "25"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	txns, total, err := h.svc.List(c.Request.Context(), limit, offset)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"items": txns, "total": total})
}

func (h *HTTPHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid id", nil)
		return
	}

	txn, err := h.svc.Get(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, txn)
}

func (h *HTTPHandler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid id", nil)
		return
	}

	var req transport.UpdateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	txn, err := h.svc.Update(c.Request.Context(), id, service.UpdateInput{
		PropertyAddress: req.PropertyAddress,
		ListingPrice:    req.ListingPrice,
		ContractPrice:   req.ContractPrice,
		ClosingDate:     req.ClosingDate,
		Closed:          req.Closed,
	})
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, txn)
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

func (h *HTTPHandler) Transition(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid id", nil)
		return
	}

	var req transport.TransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	outcome, err := h.svc.Transition(c.Request.Context(), id, domain.Stage(req.TargetStage), req.Force)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, outcome)
}

func (h *HTTPHandler) Checklist(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid id", nil)
		return
	}

	view, err := h.svc.Checklist(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, view)
}

func (h *HTTPHandler) AddItem(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid id", nil)
		return
	}

	var req transport.CreateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	item, err := h.svc.AddItem(c.Request.Context(), id, service.ItemInput{
		Stage:        domain.Stage(req.Stage),
		ParentID:     req.ParentID,
		Title:        req.Title,
		Description:  req.Description,
		Priority:     domain.ItemPriority(req.Priority),
		Weight:       req.Weight,
		Dependencies: req.Dependencies,
		DueDate:      req.DueDate,
	})
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, item)
}

func (h *HTTPHandler) UpdateItem(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid id", nil)
		return
	}

	var req transport.UpdateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	update := service.ItemUpdate{
		Title:        req.Title,
		Description:  req.Description,
		Weight:       req.Weight,
		Dependencies: req.Dependencies,
		DueDate:      req.DueDate,
	}
	if req.Status != nil {
		status := domain.ItemStatus(*req.Status)
		update.Status = &status
	}
	if req.Priority != nil {
		priority := domain.ItemPriority(*req.Priority)
		update.Priority = &priority
	}

	item, err := h.svc.UpdateItem(c.Request.Context(), id, update)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, item)
}

func (h *HTTPHandler) DeleteItem(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid id", nil)
		return
	}

	if httpkit.HandleError(c, h.svc.DeleteItem(c.Request.Context(), id)) {
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *HTTPHandler) AttachVoiceMemo(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid id", nil)
		return
	}

	file, header, err := c.Request.FormFile("audio")
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "multipart field 'audio' is required", nil)
		return
	}
	defer func() {
		_ = file.Close()
	}()

	audio, err := io.ReadAll(io.LimitReader(file, maxVoiceMemoBytes))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "could not read audio upload", nil)
		return
	}

	item, err := h.svc.AttachVoiceMemo(c.Request.Context(), id, header.Filename, header.Header.Get("Content-Type"), audio)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, item)
}

func (h *HTTPHandler) DetachVoiceMemo(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid id", nil)
		return
	}

	item, err := h.svc.DetachVoiceMemo(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, item)
}
