package inapp

import (
	"context"
	"time"

	"realtydesk_backend/internal/events"
	"realtydesk_backend/platform/apperr"

	"github.com/google/uuid"
)

// Service owns the in-app notification lifecycle.
type Service struct {
	repo Repository
	bus  events.Bus
}

// NewService creates the notification service.
func NewService(repo Repository, bus events.Bus) *Service {
	return &Service{repo: repo, bus: bus}
}

// NotifyParams describe one notification to create.
type NotifyParams struct {
	Type     string
	Title    string
	Message  string
	Meta     map[string]any
	DedupKey string
}

// Notify creates a notification unless its dedup key already exists. The
// bool reports whether a new notification was written.
func (s *Service) Notify(ctx context.Context, params NotifyParams) (Notification, bool, error) {
	if params.Title == "" || params.Message == "" {
		return Notification{}, false, apperr.Validation("title and message are required")
	}

	n := Notification{
		Type:    params.Type,
		Title:   params.Title,
		Message: params.Message,
		Meta:    params.Meta,
	}
	if params.DedupKey != "" {
		n.DedupKey = &params.DedupKey
	}

	created, isNew, err := s.repo.Create(ctx, n)
	if err != nil || !isNew {
		return created, isNew, err
	}

	s.bus.Publish(ctx, events.NotificationsChanged{
		BaseEvent:      events.NewBaseEvent(),
		NotificationID: &created.ID,
	})
	return created, true, nil
}

// List returns notifications, optionally filtered by status.
func (s *Service) List(ctx context.Context, status Status, limit, offset int) ([]Notification, int, error) {
	if limit <= 0 {
		limit = 25
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.List(ctx, status, limit, offset)
}

// MarkRead transitions a notification to read.
func (s *Service) MarkRead(ctx context.Context, id uuid.UUID) (Notification, error) {
	n, err := s.repo.MarkRead(ctx, id)
	if err != nil {
		return Notification{}, err
	}
	s.publishChanged(ctx, n.ID)
	return n, nil
}

// MarkAllRead transitions every unread notification to read and returns
// how many changed.
func (s *Service) MarkAllRead(ctx context.Context) (int, error) {
	changed, err := s.repo.MarkAllRead(ctx)
	if err != nil {
		return 0, err
	}
	if changed > 0 {
		s.bus.Publish(ctx, events.NotificationsChanged{BaseEvent: events.NewBaseEvent()})
	}
	return changed, nil
}

// Delete removes a notification.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.publishChanged(ctx, id)
	return nil
}

// Snooze parks a notification until the given wake time.
func (s *Service) Snooze(ctx context.Context, id uuid.UUID, until time.Time) (Notification, error) {
	n, err := s.repo.Snooze(ctx, id, until)
	if err != nil {
		return Notification{}, err
	}
	s.publishChanged(ctx, n.ID)
	return n, nil
}

// WakeDue promotes every snoozed notification whose wake time has passed
// back to unread and returns the woken notifications.
func (s *Service) WakeDue(ctx context.Context, now time.Time) ([]Notification, error) {
	due, err := s.repo.ListSnoozeDue(ctx, now)
	if err != nil {
		return nil, err
	}

	woken := make([]Notification, 0, len(due))
	for _, n := range due {
		awake, err := s.repo.Wake(ctx, n.ID)
		if err != nil {
			// Raced with a concurrent read or wake; skip.
			continue
		}
		woken = append(woken, awake)
		s.publishChanged(ctx, awake.ID)
	}
	return woken, nil
}

func (s *Service) publishChanged(ctx context.Context, id uuid.UUID) {
	s.bus.Publish(ctx, events.NotificationsChanged{
		BaseEvent:      events.NewBaseEvent(),
		NotificationID: &id,
	})
}
