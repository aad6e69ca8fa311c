// Package worker drains the collection journal into the remote register.
// It reacts to sync messages from the queue and periodically sweeps the
// journal for entries whose messages were lost.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"housetax/internal/amqp"
	"housetax/internal/core"
	"housetax/internal/sheets"
	"housetax/internal/storage"
)

// SyncWorker pushes journalled payments and household snapshots to the
// remote register.
type SyncWorker struct {
	journal    *storage.Journal
	payments   sheets.PaymentWriter
	households sheets.HouseholdWriter
	batchSize  int
}

func NewSyncWorker(journal *storage.Journal, payments sheets.PaymentWriter, households sheets.HouseholdWriter, batchSize int) *SyncWorker {
	return &SyncWorker{
		journal:    journal,
		payments:   payments,
		households: households,
		batchSize:  batchSize,
	}
}

// HandleSyncMessage processes one sync message from the queue.
func (w *SyncWorker) HandleSyncMessage(ctx context.Context, msg *amqp.SyncMessage) error {
	switch msg.Kind {
	case amqp.KindPayment:
		return w.syncPayment(ctx, msg.JournalID)
	case amqp.KindHousehold:
		return w.syncHousehold(ctx, msg.JournalID)
	default:
		return fmt.Errorf("unknown sync message kind %q", msg.Kind)
	}
}

func (w *SyncWorker) syncPayment(ctx context.Context, journalID int64) error {
	p, err := w.journal.PaymentByID(ctx, journalID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			// The entry vanished; nothing to retry.
			slog.WarnContext(ctx, "Journalled payment not found, dropping message",
				"journal_id", journalID)
			return nil
		}
		return fmt.Errorf("load journalled payment: %w", err)
	}
	if p.Synced {
		slog.InfoContext(ctx, "Payment already synced", "journal_id", journalID)
		return nil
	}

	ref, err := w.payments.AppendPayment(ctx, p.Row, p.Breakdown)
	if err != nil {
		return fmt.Errorf("push payment to register: %w", err)
	}
	if err := w.journal.MarkPaymentSynced(ctx, journalID); err != nil {
		return fmt.Errorf("mark payment synced: %w", err)
	}

	slog.InfoContext(ctx, "Payment synced to register",
		"journal_id", journalID,
		"receipt_no", p.Row.ReceiptNo,
		"sheets_ref", ref)
	return nil
}

func (w *SyncWorker) syncHousehold(ctx context.Context, journalID int64) error {
	u, err := w.journal.HouseholdUpdateByID(ctx, journalID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			slog.WarnContext(ctx, "Journalled household update not found, dropping message",
				"journal_id", journalID)
			return nil
		}
		return fmt.Errorf("load journalled household update: %w", err)
	}
	if u.Synced {
		slog.InfoContext(ctx, "Household update already synced", "journal_id", journalID)
		return nil
	}

	if err := w.households.UpdateHousehold(ctx, u.Household); err != nil {
		return fmt.Errorf("push household to register: %w", err)
	}
	if err := w.journal.MarkHouseholdUpdateSynced(ctx, journalID); err != nil {
		return fmt.Errorf("mark household update synced: %w", err)
	}

	slog.InfoContext(ctx, "Household synced to register",
		"journal_id", journalID,
		"assessment_no", u.Household.AssessmentNumber)
	return nil
}

// ProcessPending sweeps the journal for entries that never got a message
// through the queue. Backup mechanism for lost deliveries and restarts.
func (w *SyncWorker) ProcessPending(ctx context.Context) error {
	payments, err := w.journal.UnsyncedPayments(ctx, w.batchSize)
	if err != nil {
		return fmt.Errorf("list pending payments: %w", err)
	}
	for _, p := range payments {
		if err := w.syncPayment(ctx, p.ID); err != nil {
			slog.ErrorContext(ctx, "Failed to sync pending payment",
				"journal_id", p.ID, "error", err)
			// Keep going; the entry stays unsynced for the next sweep.
		}
	}

	updates, err := w.journal.UnsyncedHouseholdUpdates(ctx, w.batchSize)
	if err != nil {
		return fmt.Errorf("list pending household updates: %w", err)
	}
	for _, u := range updates {
		if err := w.syncHousehold(ctx, u.ID); err != nil {
			slog.ErrorContext(ctx, "Failed to sync pending household update",
				"journal_id", u.ID, "error", err)
		}
	}

	if n := len(payments) + len(updates); n > 0 {
		slog.InfoContext(ctx, "Processed pending journal entries", "count", n)
	}
	return nil
}
