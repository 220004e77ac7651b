package alerts

import (
	"realtydesk_backend/internal/email"
	"realtydesk_backend/internal/events"
	apphttp "realtydesk_backend/internal/http"
	txrepo "realtydesk_backend/internal/transactions/repository"
	"realtydesk_backend/platform/logger"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module wires the alert repository, service, and HTTP routes.
type Module struct {
	svc     *Service
	handler *Handler
}

// NewModule creates the alerts module backed by Postgres.
func NewModule(pool *pgxpool.Pool, txns txrepo.TransactionRepository, items txrepo.ChecklistRepository, bus events.Bus, sender email.Sender, escalateTo string, log *logger.Logger) *Module {
	repo := NewPostgresRepository(pool)
	svc := NewService(repo, txns, items, bus, sender, escalateTo, log)
	return &Module{
		svc:     svc,
		handler: NewHandler(svc),
	}
}

// Name returns the module identifier.
func (m *Module) Name() string { return "alerts" }

// RegisterRoutes mounts the alert routes.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	group := ctx.V1.Group("/alerts")
	group.GET("", m.handler.List)
	group.POST("/generate", m.handler.Generate)
	group.POST("/:id/dismiss", m.handler.Dismiss)

	ctx.V1.GET("/transactions/:id/alerts", m.handler.ListForTransaction)
}

// Service exposes the alert service for the background scheduler.
func (m *Module) Service() *Service { return m.svc }

var _ apphttp.Module = (*Module)(nil)
