// Package leads is the lead management bounded context: find-or-create
// resolution with contact dedup, additive preference merging, and
// model-generated insights.
package leads

import (
	"realtydesk_backend/internal/events"
	apphttp "realtydesk_backend/internal/http"
	"realtydesk_backend/internal/leads/handler"
	"realtydesk_backend/internal/leads/repository"
	"realtydesk_backend/internal/leads/service"
	"realtydesk_backend/platform/logger"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module wires the lead repository, service, and HTTP handler.
type Module struct {
	repo    repository.Repository
	svc     *service.Service
	handler *handler.HTTPHandler
}

// NewModule creates the leads module backed by Postgres.
func NewModule(pool *pgxpool.Pool, bus events.Bus, gw service.ModelInvoker, log *logger.Logger) *Module {
	repo := repository.NewPostgres(pool)
	svc := service.New(repo, bus, gw, log)
	return &Module{
		repo:    repo,
		svc:     svc,
		handler: handler.NewHTTPHandler(svc),
	}
}

// Name returns the module identifier.
func (m *Module) Name() string { return "leads" }

// RegisterRoutes mounts lead routes under /api/v1/leads.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.V1.Group("/leads"))
}

// Service exposes the lead service for other modules (intake, matching).
func (m *Module) Service() *service.Service { return m.svc }

// Repository exposes the lead repository for integration points.
func (m *Module) Repository() repository.Repository { return m.repo }
