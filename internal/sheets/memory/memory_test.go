package memory

import (
	"context"
	"testing"

	"housetax/internal/allocation"
	"housetax/internal/core"
	sheets "housetax/internal/sheets"
)

func TestAppendAndList(t *testing.T) {
	s := New()
	ctx := context.Background()

	row := sheets.CollectionRow{
		AssessmentNumber: "1001",
		OwnerName:        "Ramesh Kumar",
		PaymentRecord:    core.PaymentRecord{ReceiptNo: "TAX1", Amount: 500},
	}
	ref, err := s.AppendPayment(ctx, row, allocation.Breakdown{ReceiptNo: "TAX1", HouseTax: 360, Total: 500})
	if err != nil {
		t.Fatalf("AppendPayment: %v", err)
	}
	if ref != "mem:1" {
		t.Errorf("ref = %q", ref)
	}

	rows, err := s.ListCollections(ctx)
	if err != nil {
		t.Fatalf("ListCollections: %v", err)
	}
	if len(rows) != 1 || rows[0].Amount != 500 {
		t.Errorf("rows = %+v", rows)
	}

	b, ok := s.Breakdown("TAX1")
	if !ok || b.HouseTax != 360 {
		t.Errorf("breakdown = %+v ok=%v", b, ok)
	}
}

func TestAppendRejectsMissingAssessment(t *testing.T) {
	s := New()
	_, err := s.AppendPayment(context.Background(), sheets.CollectionRow{}, allocation.Breakdown{})
	if err == nil {
		t.Error("row without assessment number accepted")
	}
}

func TestUpdateHouseholdCopies(t *testing.T) {
	s := New()
	h := &core.Household{ID: "1001", OwnerName: "Ramesh Kumar"}
	if err := s.UpdateHousehold(context.Background(), h); err != nil {
		t.Fatalf("UpdateHousehold: %v", err)
	}
	h.OwnerName = "Changed"
	got, ok := s.Household("1001")
	if !ok || got.OwnerName != "Ramesh Kumar" {
		t.Errorf("stored snapshot aliased caller value: %+v", got)
	}
}
