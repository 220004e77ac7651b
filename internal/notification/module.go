package notification

import (
	"context"

	"realtydesk_backend/internal/events"
	apphttp "realtydesk_backend/internal/http"
	notifhandler "realtydesk_backend/internal/notification/handler"
	"realtydesk_backend/internal/notification/inapp"
	"realtydesk_backend/internal/notification/sse"
	txrepo "realtydesk_backend/internal/transactions/repository"
	"realtydesk_backend/platform/config"
	"realtydesk_backend/platform/logger"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module wires the SSE stream, in-app notifications, and the hub, and
// subscribes the stream to the domain events worth pushing.
type Module struct {
	stream  *sse.Service
	svc     *inapp.Service
	hub     *Hub
	handler *notifhandler.HTTPHandler
}

// NewModule creates the notification module backed by Postgres.
func NewModule(pool *pgxpool.Pool, leads LeadLister, txns txrepo.TransactionRepository, items txrepo.ChecklistRepository, bus events.Bus, cfg config.NotificationConfig, log *logger.Logger) *Module {
	stream := sse.New(log)
	svc := inapp.NewService(inapp.NewPostgresRepository(pool), bus)
	hub := NewHub(leads, txns, items, svc, stream, bus, cfg.GetNudgeInterval(), cfg.GetSnoozeWakeInterval(), log)

	m := &Module{
		stream:  stream,
		svc:     svc,
		hub:     hub,
		handler: notifhandler.NewHTTPHandler(svc),
	}
	m.subscribe(bus)
	return m
}

// subscribe fans domain events out to the connected listeners.
func (m *Module) subscribe(bus events.Bus) {
	bus.Subscribe(events.TasksChanged{}.EventName(), events.HandlerFunc(func(ctx context.Context, event events.Event) error {
		m.stream.Broadcast(sse.EventTasksChanged, event)
		return nil
	}))
	bus.Subscribe(events.StageChanged{}.EventName(), events.HandlerFunc(func(ctx context.Context, event events.Event) error {
		m.stream.Broadcast(sse.EventTasksChanged, event)
		return nil
	}))
	bus.Subscribe(events.AlertsChanged{}.EventName(), events.HandlerFunc(func(ctx context.Context, event events.Event) error {
		m.stream.Broadcast(sse.EventAlertsChanged, event)
		return nil
	}))
	bus.Subscribe(events.NotificationsChanged{}.EventName(), events.HandlerFunc(func(ctx context.Context, event events.Event) error {
		m.stream.Broadcast(sse.EventNotificationsChanged, event)
		return nil
	}))
	bus.Subscribe(events.NudgeIssued{}.EventName(), events.HandlerFunc(func(ctx context.Context, event events.Event) error {
		m.stream.Broadcast(sse.EventNudge, event)
		return nil
	}))
}

// Name returns the module identifier.
func (m *Module) Name() string { return "notification" }

// RegisterRoutes mounts the event stream and notification routes.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.V1.GET("/events", m.stream.Handler())

	group := ctx.V1.Group("/notifications")
	group.GET("", m.handler.List)
	group.POST("/:id/read", m.handler.MarkRead)
	group.POST("/read-all", m.handler.MarkAllRead)
	group.POST("/:id/snooze", m.handler.Snooze)
	group.DELETE("/:id", m.handler.Delete)
}

// Hub exposes the scanner hub for startup wiring and the scheduler.
func (m *Module) Hub() *Hub { return m.hub }

// Stream exposes the SSE service for shutdown.
func (m *Module) Stream() *sse.Service { return m.stream }

var _ apphttp.Module = (*Module)(nil)
