// Package service drives the transaction lifecycle: stage-gated
// transitions with model-assisted validation, template-seeded checklists,
// and voice memo attachments.
package service

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"realtydesk_backend/internal/ai/gateway"
	"realtydesk_backend/internal/events"
	"realtydesk_backend/internal/transactions/domain"
	"realtydesk_backend/internal/transactions/repository"
	"realtydesk_backend/platform/apperr"
	"realtydesk_backend/platform/logger"

	"github.com/google/uuid"
)

// ModelInvoker is the slice of the gateway this service needs.
type ModelInvoker interface {
	Invoke(ctx context.Context, req gateway.InvokeRequest) (*gateway.InvokeResult, error)
	Enabled() bool
}

// ObjectStore persists voice memo audio.
type ObjectStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
	Remove(ctx context.Context, key string) error
}

// Transcriber turns voice memo audio into text.
type Transcriber interface {
	Transcribe(ctx context.Context, filename string, audio []byte) (string, error)
	Enabled() bool
}

// Service owns transaction and checklist operations.
type Service struct {
	txns        repository.TransactionRepository
	items       repository.ChecklistRepository
	bus         events.Bus
	gw          ModelInvoker
	store       ObjectStore
	transcriber Transcriber
	log         *logger.Logger
	now         func() time.Time
}

// New creates the transaction service. Voice memo storage and transcription
// are optional and injected via setters.
func New(txns repository.TransactionRepository, items repository.ChecklistRepository, bus events.Bus, gw ModelInvoker, log *logger.Logger) *Service {
	return &Service{
		txns:  txns,
		items: items,
		bus:   bus,
		gw:    gw,
		log:   log,
		now:   time.Now,
	}
}

// SetObjectStore injects the voice memo object store.
func (s *Service) SetObjectStore(store ObjectStore) { s.store = store }

// SetTranscriber injects the voice memo transcription client.
func (s *Service) SetTranscriber(t Transcriber) { s.transcriber = t }

// SetClock overrides the service clock for tests.
func (s *Service) SetClock(now func() time.Time) { s.now = now }

// CreateInput are the fields accepted when opening a transaction.
type CreateInput struct {
	LeadID          uuid.UUID
	TransactionType domain.TransactionType
	PropertyAddress string
	ListingPrice    *float64
	ClosingDate     *time.Time
}

// CreateResult is the opened transaction plus its seeded first-stage items.
type CreateResult struct {
	Transaction domain.Transaction     `json:"transaction"`
	SeededItems []domain.ChecklistItem `json:"seededItems"`
}

// Create opens a transaction in the type's initial stage and seeds that
// stage's checklist template.
func (s *Service) Create(ctx context.Context, input CreateInput) (*CreateResult, error) {
	if !domain.ValidTransactionType(input.TransactionType) {
		return nil, apperr.Validation(fmt.Sprintf("unknown transaction type %q", input.TransactionType))
	}
	if input.LeadID == uuid.Nil {
		return nil, apperr.Validation("lead id is required")
	}

	initial := domain.InitialStage(input.TransactionType)
	txn, err := s.txns.Create(ctx, domain.Transaction{
		LeadID:          input.LeadID,
		TransactionType: input.TransactionType,
		CurrentStage:    initial,
		StageHistory: []domain.StageHistoryEntry{
			{Stage: initial, EnteredAt: s.now()},
		},
		PropertyAddress: input.PropertyAddress,
		ListingPrice:    input.ListingPrice,
		ClosingDate:     input.ClosingDate,
	})
	if err != nil {
		return nil, err
	}

	seeded, err := s.seedStage(ctx, txn, initial)
	if err != nil {
		return nil, err
	}

	s.publishTasksChanged(ctx, txn.ID, initial)
	if txn.ClosingDate != nil {
		s.bus.Publish(ctx, events.ClosingDateSet{
			BaseEvent:     events.NewBaseEvent(),
			TransactionID: txn.ID,
			ClosingDate:   *txn.ClosingDate,
		})
	}
	return &CreateResult{Transaction: txn, SeededItems: seeded}, nil
}

// Get returns one transaction.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (domain.Transaction, error) {
	return s.txns.GetByID(ctx, id)
}

// List returns transactions newest first.
func (s *Service) List(ctx context.Context, limit, offset int) ([]domain.Transaction, int, error) {
	if limit <= 0 {
		limit = 25
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	return s.txns.List(ctx, limit, offset)
}

// UpdateInput holds optional field updates; nil means unchanged.
type UpdateInput struct {
	PropertyAddress *string
	ListingPrice    *float64
	ContractPrice   *float64
	ClosingDate     *time.Time
	Closed          *bool
}

// Update applies field changes. Stage changes go through Transition only.
func (s *Service) Update(ctx context.Context, id uuid.UUID, input UpdateInput) (domain.Transaction, error) {
	txn, err := s.txns.GetByID(ctx, id)
	if err != nil {
		return domain.Transaction{}, err
	}

	closingMoved := false
	if input.PropertyAddress != nil {
		txn.PropertyAddress = *input.PropertyAddress
	}
	if input.ListingPrice != nil {
		txn.ListingPrice = input.ListingPrice
	}
	if input.ContractPrice != nil {
		txn.ContractPrice = input.ContractPrice
	}
	if input.ClosingDate != nil {
		closingMoved = txn.ClosingDate == nil || !txn.ClosingDate.Equal(*input.ClosingDate)
		txn.ClosingDate = input.ClosingDate
	}
	if input.Closed != nil {
		txn.Closed = *input.Closed
	}

	updated, err := s.txns.Update(ctx, txn)
	if err != nil {
		return domain.Transaction{}, err
	}

	if closingMoved {
		s.bus.Publish(ctx, events.ClosingDateSet{
			BaseEvent:     events.NewBaseEvent(),
			TransactionID: updated.ID,
			ClosingDate:   *updated.ClosingDate,
		})
	}
	return updated, nil
}

// Delete removes a transaction and cascades its checklist.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.txns.GetByID(ctx, id); err != nil {
		return err
	}
	if err := s.items.DeleteByTransaction(ctx, id); err != nil {
		return err
	}
	return s.txns.Delete(ctx, id)
}

func (s *Service) publishTasksChanged(ctx context.Context, transactionID uuid.UUID, stage domain.Stage) {
	s.bus.Publish(ctx, events.TasksChanged{
		BaseEvent:     events.NewBaseEvent(),
		TransactionID: transactionID,
		Stage:         string(stage),
	})
}

// AttachVoiceMemo stores audio for a checklist item and, when transcription
// is configured, records the transcript.
func (s *Service) AttachVoiceMemo(ctx context.Context, itemID uuid.UUID, filename, contentType string, audio []byte) (domain.ChecklistItem, error) {
	if s.store == nil {
		return domain.ChecklistItem{}, apperr.Unavailable("voice memo storage is not configured")
	}
	if len(audio) == 0 {
		return domain.ChecklistItem{}, apperr.Validation("voice memo audio is empty")
	}

	item, err := s.items.GetByID(ctx, itemID)
	if err != nil {
		return domain.ChecklistItem{}, err
	}

	key := fmt.Sprintf("voice-memos/%s/%s-%s", item.TransactionID, itemID, filename)
	if err := s.store.Put(ctx, key, audio, contentType); err != nil {
		return domain.ChecklistItem{}, apperr.Wrap(apperr.KindUnavailable, "store voice memo failed", err)
	}
	item.VoiceMemoKey = &key

	if s.transcriber != nil && s.transcriber.Enabled() {
		transcript, err := s.transcriber.Transcribe(ctx, filename, bytes.Clone(audio))
		if err != nil {
			s.log.Warn("voice memo transcription failed", "item_id", itemID, "error", err)
		} else if transcript != "" {
			item.Transcript = &transcript
		}
	}

	updated, err := s.items.Update(ctx, item)
	if err != nil {
		return domain.ChecklistItem{}, err
	}

	if updated.Transcript != nil {
		s.bus.Publish(ctx, events.VoiceMemoTranscribed{
			BaseEvent:     events.NewBaseEvent(),
			TransactionID: updated.TransactionID,
			MemoID:        updated.ID,
			Transcript:    *updated.Transcript,
		})
	}
	s.publishTasksChanged(ctx, updated.TransactionID, updated.Stage)
	return updated, nil
}

// DetachVoiceMemo removes a checklist item's audio and transcript.
func (s *Service) DetachVoiceMemo(ctx context.Context, itemID uuid.UUID) (domain.ChecklistItem, error) {
	item, err := s.items.GetByID(ctx, itemID)
	if err != nil {
		return domain.ChecklistItem{}, err
	}
	if item.VoiceMemoKey == nil {
		return domain.ChecklistItem{}, apperr.Validation("checklist item has no voice memo")
	}

	if s.store != nil {
		if err := s.store.Remove(ctx, *item.VoiceMemoKey); err != nil {
			s.log.Warn("voice memo object removal failed", "key", *item.VoiceMemoKey, "error", err)
		}
	}

	item.VoiceMemoKey = nil
	item.Transcript = nil
	updated, err := s.items.Update(ctx, item)
	if err != nil {
		return domain.ChecklistItem{}, err
	}
	s.publishTasksChanged(ctx, updated.TransactionID, updated.Stage)
	return updated, nil
}
