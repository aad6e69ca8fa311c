package worker

import (
	"context"
	"path/filepath"
	"testing"

	"housetax/internal/allocation"
	"housetax/internal/amqp"
	"housetax/internal/core"
	"housetax/internal/sheets"
	"housetax/internal/sheets/memory"
	"housetax/internal/storage"
)

func newWorkerUnderTest(t *testing.T) (*SyncWorker, *storage.Journal, *memory.Store) {
	t.Helper()
	j, err := storage.NewJournal(filepath.Join(t.TempDir(), "journal.db"))
	if err != nil {
		t.Fatalf("NewJournal: %v", err)
	}
	t.Cleanup(func() { j.Close() })
	store := memory.New()
	return NewSyncWorker(j, store, store, 10), j, store
}

func journalPayment(t *testing.T, j *storage.Journal, receiptNo string) int64 {
	t.Helper()
	id, err := j.AppendPayment(context.Background(), sheets.CollectionRow{
		AssessmentNumber: "1001",
		OwnerName:        "Ramesh Kumar",
		PaymentRecord: core.PaymentRecord{
			ReceiptNo:     receiptNo,
			DateOfPayment: "15-06-2024 10:30",
			Amount:        500,
		},
	}, allocation.Breakdown{ReceiptNo: receiptNo, HouseTax: 360, Total: 500, FinancialYear: "2024-25"})
	if err != nil {
		t.Fatalf("AppendPayment: %v", err)
	}
	return id
}

func TestHandlePaymentSyncMessage(t *testing.T) {
	w, j, store := newWorkerUnderTest(t)
	ctx := context.Background()
	id := journalPayment(t, j, "TAX1")

	msg := amqp.NewPaymentSyncMessage(id, "1001")
	if err := w.HandleSyncMessage(ctx, msg); err != nil {
		t.Fatalf("HandleSyncMessage: %v", err)
	}

	rows, _ := store.ListCollections(ctx)
	if len(rows) != 1 || rows[0].ReceiptNo != "TAX1" {
		t.Errorf("register rows = %+v", rows)
	}

	p, _ := j.PaymentByID(ctx, id)
	if !p.Synced {
		t.Error("journal entry not marked synced")
	}

	// Redelivery of an already synced entry is a no-op.
	if err := w.HandleSyncMessage(ctx, msg); err != nil {
		t.Fatalf("redelivery: %v", err)
	}
	rows, _ = store.ListCollections(ctx)
	if len(rows) != 1 {
		t.Errorf("redelivery duplicated the row: %d rows", len(rows))
	}
}

func TestHandleMissingJournalEntryDropsMessage(t *testing.T) {
	w, _, _ := newWorkerUnderTest(t)
	if err := w.HandleSyncMessage(context.Background(), amqp.NewPaymentSyncMessage(999, "1001")); err != nil {
		t.Errorf("missing entry should drop, got %v", err)
	}
}

func TestHandleHouseholdSyncMessage(t *testing.T) {
	w, j, store := newWorkerUnderTest(t)
	ctx := context.Background()

	h := &core.Household{ID: "1001", AssessmentNumber: "1001", OwnerName: "Ramesh Kumar"}
	id, err := j.AppendHouseholdUpdate(ctx, h)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.HandleSyncMessage(ctx, amqp.NewHouseholdSyncMessage(id, "1001")); err != nil {
		t.Fatalf("HandleSyncMessage: %v", err)
	}

	got, ok := store.Household("1001")
	if !ok || got.OwnerName != "Ramesh Kumar" {
		t.Errorf("pushed household = %+v ok=%v", got, ok)
	}
	u, _ := j.HouseholdUpdateByID(ctx, id)
	if !u.Synced {
		t.Error("household update not marked synced")
	}
}

func TestProcessPendingSweepsJournal(t *testing.T) {
	w, j, store := newWorkerUnderTest(t)
	ctx := context.Background()

	journalPayment(t, j, "TAX1")
	journalPayment(t, j, "TAX2")
	if _, err := j.AppendHouseholdUpdate(ctx, &core.Household{ID: "1001", AssessmentNumber: "1001"}); err != nil {
		t.Fatal(err)
	}

	if err := w.ProcessPending(ctx); err != nil {
		t.Fatalf("ProcessPending: %v", err)
	}

	rows, _ := store.ListCollections(ctx)
	if len(rows) != 2 {
		t.Errorf("register rows = %d, want 2", len(rows))
	}
	pending, _ := j.UnsyncedPayments(ctx, 10)
	if len(pending) != 0 {
		t.Errorf("pending payments = %d, want 0", len(pending))
	}
	updates, _ := j.UnsyncedHouseholdUpdates(ctx, 10)
	if len(updates) != 0 {
		t.Errorf("pending household updates = %d, want 0", len(updates))
	}
}
