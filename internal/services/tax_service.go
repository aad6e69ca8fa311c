// Package services orchestrates tax operations across the in-memory
// registry, the durable journal and the sync queue. Local mutation always
// wins: journal and queue failures are logged, never rolled back.
package services

import (
	"context"
	"time"

	"housetax/internal/allocation"
	"housetax/internal/core"
	"housetax/internal/log"
	"housetax/internal/registry"
	"housetax/internal/sheets"
)

// Journal is the durable record of outbound work for the sync worker.
type Journal interface {
	AppendPayment(ctx context.Context, row sheets.CollectionRow, b allocation.Breakdown) (int64, error)
	AppendHouseholdUpdate(ctx context.Context, h *core.Household) (int64, error)
}

// SyncPublisher nudges the worker about new journal entries.
type SyncPublisher interface {
	PublishPaymentSync(ctx context.Context, journalID int64, assessmentNo string) error
	PublishHouseholdSync(ctx context.Context, journalID int64, assessmentNo string) error
}

// TaxService applies payments and edits locally, then journals them and
// publishes sync messages. Journal and publisher may be nil; the service
// degrades to local-only operation.
type TaxService struct {
	registry  *registry.Registry
	journal   Journal
	publisher SyncPublisher
	logger    *log.Logger
	now       func() time.Time
}

func NewTaxService(reg *registry.Registry, journal Journal, publisher SyncPublisher, logger *log.Logger) *TaxService {
	if logger == nil {
		logger = log.New(log.DefaultConfig()).WithComponent(log.ComponentTax)
	}
	return &TaxService{
		registry:  reg,
		journal:   journal,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}
}

// RecordPayment allocates the amount against the household, journals the
// payment and publishes a sync message. The local mutation is committed
// before any outbound step and survives their failure.
func (s *TaxService) RecordPayment(ctx context.Context, householdID string, amount int64, mode string) (core.PaymentRecord, allocation.Breakdown, error) {
	rec, breakdown, err := s.registry.AddPayment(householdID, amount, mode, s.now())
	if err != nil {
		return core.PaymentRecord{}, allocation.Breakdown{}, err
	}

	h, err := s.registry.HouseholdByID(householdID)
	if err != nil {
		// The payment just landed; a vanished household means a bigger
		// problem than this sync step.
		s.logger.ErrorContext(ctx, "Household missing after payment",
			log.FieldHouseholdID, householdID, log.FieldError, err)
		return rec, breakdown, nil
	}

	row := sheets.CollectionRow{
		AssessmentNumber: h.AssessmentNumber,
		OwnerName:        h.OwnerName,
		PaymentRecord:    rec,
	}

	if s.journal == nil {
		s.logger.WarnContext(ctx, "Journal not available, payment is local only",
			log.FieldReceiptNo, rec.ReceiptNo)
		return rec, breakdown, nil
	}
	journalID, err := s.journal.AppendPayment(ctx, row, breakdown)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to journal payment",
			log.FieldReceiptNo, rec.ReceiptNo, log.FieldError, err)
		return rec, breakdown, nil
	}

	s.logger.InfoContext(ctx, "Payment recorded",
		log.FieldHouseholdID, householdID,
		log.FieldReceiptNo, rec.ReceiptNo,
		log.FieldAmount, amount)

	if s.publisher == nil {
		s.logger.WarnContext(ctx, "Sync publisher not available, skipping payment sync message")
		return rec, breakdown, nil
	}
	if err := s.publisher.PublishPaymentSync(ctx, journalID, h.AssessmentNumber); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish payment sync message",
			log.FieldReceiptNo, rec.ReceiptNo, log.FieldError, err)
	}
	return rec, breakdown, nil
}

// SaveEdit commits an in-flight edit draft, journals the new household
// snapshot and publishes a sync message.
func (s *TaxService) SaveEdit(ctx context.Context, householdID, section string, actor core.User) (*core.Household, []string, error) {
	saved, changes, err := s.registry.SaveEdit(householdID, section, actor, s.now())
	if err != nil {
		return nil, nil, err
	}

	s.logger.InfoContext(ctx, "Household edit saved",
		log.FieldHouseholdID, householdID,
		log.FieldUserID, actor.ID,
		log.FieldSection, section,
		"changes", len(changes))

	if s.journal == nil {
		s.logger.WarnContext(ctx, "Journal not available, edit is local only",
			log.FieldHouseholdID, householdID)
		return saved, changes, nil
	}
	journalID, err := s.journal.AppendHouseholdUpdate(ctx, saved)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to journal household update",
			log.FieldHouseholdID, householdID, log.FieldError, err)
		return saved, changes, nil
	}

	if s.publisher == nil {
		return saved, changes, nil
	}
	if err := s.publisher.PublishHouseholdSync(ctx, journalID, saved.AssessmentNumber); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish household sync message",
			log.FieldHouseholdID, householdID, log.FieldError, err)
	}
	return saved, changes, nil
}
