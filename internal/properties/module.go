package properties

import (
	"realtydesk_backend/internal/events"
	apphttp "realtydesk_backend/internal/http"
	"realtydesk_backend/platform/config"
	"realtydesk_backend/platform/logger"
)

// Module wires the property matching HTTP routes.
type Module struct {
	service *Service
	handler *Handler
}

func NewModule(cfg config.InventoryConfig, leads LeadSource, bus events.Bus, log *logger.Logger) *Module {
	client := NewClient(cfg, log)
	svc := NewService(client, leads, bus, log)
	return &Module{
		service: svc,
		handler: NewHandler(svc),
	}
}

func (m *Module) Name() string {
	return "properties"
}

func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.V1.POST("/properties/search", m.handler.Search)
	ctx.V1.GET("/leads/:id/property-matches", m.handler.MatchesForLead)
}

// Service exposes the matching service for cross-module use.
func (m *Module) Service() *Service {
	return m.service
}

var _ apphttp.Module = (*Module)(nil)
