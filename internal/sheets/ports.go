package sheets

import (
	"context"

	"housetax/internal/allocation"
	"housetax/internal/core"
)

// CollectionRow is one line of the remote collection register.
type CollectionRow struct {
	AssessmentNumber string
	OwnerName        string
	core.PaymentRecord
}

// Ports for outbound adapters.
type (
	// PaymentWriter appends one payment with its tax breakdown to the
	// remote collection register.
	PaymentWriter interface {
		AppendPayment(ctx context.Context, row CollectionRow, breakdown allocation.Breakdown) (rowRef string, err error)
	}

	// HouseholdWriter replaces the remote register row for one household
	// with its current field values and demand years.
	HouseholdWriter interface {
		UpdateHousehold(ctx context.Context, h *core.Household) error
	}

	// CollectionReader lists the remote collection register, newest rows last.
	CollectionReader interface {
		ListCollections(ctx context.Context) ([]CollectionRow, error)
	}
)
