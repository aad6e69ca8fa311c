// Package allocation distributes a single payment amount proportionally
// across the seven tax components of a household's aggregate demand.
package allocation

import (
	"fmt"
	"math"
	"time"

	"housetax/internal/core"
)

// Breakdown is the derived split of one payment across tax types, forwarded
// to the remote register push. The components always sum exactly to Total.
type Breakdown struct {
	ReceiptNo     string `json:"receiptNo"`
	DateOfPayment string `json:"dateOfPayment"`
	FinancialYear string `json:"financialYear"`
	HouseTax      int64  `json:"houseTax"`
	LibraryCess   int64  `json:"libraryCess"`
	WaterTax      int64  `json:"waterTax"`
	DrainageTax   int64  `json:"drainageTax"`
	LightingTax   int64  `json:"lightingTax"`
	SportsCess    int64  `json:"sportsCess"`
	FireTax       int64  `json:"fireTax"`
	Total         int64  `json:"total"`
}

// ReceiptNo derives a process-unique receipt token from the payment instant.
// No collision check; human payment rates make duplicates implausible.
func ReceiptNo(at time.Time) string {
	return fmt.Sprintf("TAX%d", at.UnixMilli())
}

// Allocate records a payment against the household: the amount is split
// across tax components in proportion to each component's share of the
// aggregate demand, a PaymentRecord is prepended to the payment history and
// the collected total is updated. Overpayment is not clamped; the ratio
// simply exceeds 1. Returns the record and the breakdown for the remote push.
func Allocate(h *core.Household, amount int64, mode string, at time.Time) (core.PaymentRecord, Breakdown, error) {
	if amount <= 0 {
		return core.PaymentRecord{}, Breakdown{}, core.ErrInvalidAmount
	}

	demand := h.TotalDemand
	if demand < 1 {
		demand = 1
	}
	ratio := float64(amount) / float64(demand)

	var houseTax, library, water, drainage, lighting, sports, fire int64
	for _, d := range h.DemandDetails {
		houseTax += d.PropertyTax
		library += d.LibraryCess
		water += d.WaterTax
		drainage += d.DrainageTax
		lighting += d.LightingTax
		sports += d.SportsCess
		fire += d.FireTax
	}
	share := func(component int64) int64 {
		return int64(math.Round(float64(component) * ratio))
	}

	b := Breakdown{
		ReceiptNo:     ReceiptNo(at),
		DateOfPayment: core.FormatPaymentTime(at),
		FinancialYear: core.FinancialYear(at),
		HouseTax:      share(houseTax),
		LibraryCess:   share(library),
		WaterTax:      share(water),
		DrainageTax:   share(drainage),
		LightingTax:   share(lighting),
		SportsCess:    share(sports),
		FireTax:       share(fire),
		Total:         amount,
	}
	// Rounding slack lands in the house-tax component so the breakdown sums
	// exactly to the paid amount.
	sum := b.HouseTax + b.LibraryCess + b.WaterTax + b.DrainageTax +
		b.LightingTax + b.SportsCess + b.FireTax
	b.HouseTax += amount - sum

	rec := core.PaymentRecord{
		SNo:            fmt.Sprintf("%d", len(h.PaymentHistory)+1),
		ReceiptNo:      b.ReceiptNo,
		DateOfPayment:  b.DateOfPayment,
		PaymentSource:  "Admin Portal",
		PaymentMode:    mode,
		Amount:         amount,
		Status:         "Success",
		CFMSStatus:     "Pending",
		DueYear:        "Current",
		DemandCategory: "Current",
		GuardianName:   h.GuardianName,
	}
	h.PaymentHistory = append([]core.PaymentRecord{rec}, h.PaymentHistory...)
	h.TotalCollected += amount
	return rec, b, nil
}
