// Package transactions is the deal lifecycle bounded context: stage-gated
// transitions, template-seeded checklists, and voice memo attachments.
package transactions

import (
	"realtydesk_backend/internal/events"
	apphttp "realtydesk_backend/internal/http"
	"realtydesk_backend/internal/transactions/handler"
	"realtydesk_backend/internal/transactions/repository"
	"realtydesk_backend/internal/transactions/service"
	"realtydesk_backend/platform/logger"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module wires the transaction repositories, service, and HTTP handler.
type Module struct {
	txns    repository.TransactionRepository
	items   repository.ChecklistRepository
	svc     *service.Service
	handler *handler.HTTPHandler
}

// NewModule creates the transactions module backed by Postgres.
func NewModule(pool *pgxpool.Pool, bus events.Bus, gw service.ModelInvoker, log *logger.Logger) *Module {
	txns := repository.NewPostgresTransactions(pool)
	items := repository.NewPostgresChecklist(pool)
	svc := service.New(txns, items, bus, gw, log)
	return &Module{
		txns:    txns,
		items:   items,
		svc:     svc,
		handler: handler.NewHTTPHandler(svc),
	}
}

// Name returns the module identifier.
func (m *Module) Name() string { return "transactions" }

// RegisterRoutes mounts transaction and checklist item routes.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.V1.Group("/transactions"), ctx.V1.Group("/checklist-items"))
}

// Service exposes the transaction service for other modules.
func (m *Module) Service() *service.Service { return m.svc }

// Transactions exposes the transaction repository for background scans.
func (m *Module) Transactions() repository.TransactionRepository { return m.txns }

// Checklist exposes the checklist repository for background scans.
func (m *Module) Checklist() repository.ChecklistRepository { return m.items }

var _ apphttp.Module = (*Module)(nil)
