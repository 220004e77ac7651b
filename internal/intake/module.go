package intake

import (
	"realtydesk_backend/internal/events"
	apphttp "realtydesk_backend/internal/http"
	"realtydesk_backend/platform/logger"
)

// Module wires the intake parser, pipeline orchestrator, and HTTP routes.
type Module struct {
	svc          *Service
	orchestrator *Orchestrator
	handler      *Handler
}

// NewModule creates the intake module. The lead, matching, and transaction
// collaborators come from their own modules.
func NewModule(gw ModelInvoker, leads LeadResolver, matcher PropertyMatcher, deals TransactionOpener, bus events.Bus, log *logger.Logger) *Module {
	svc := NewService(gw, log)
	orchestrator := NewOrchestrator(svc, leads, matcher, deals, bus, log)
	return &Module{
		svc:          svc,
		orchestrator: orchestrator,
		handler:      NewHandler(svc, orchestrator),
	}
}

func (m *Module) Name() string { return "intake" }

func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.V1.POST("/intake", m.handler.Submit)
	ctx.V1.POST("/intake/parse", m.handler.Parse)
}

var _ apphttp.Module = (*Module)(nil)
