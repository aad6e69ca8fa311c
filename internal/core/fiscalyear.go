package core

import (
	"fmt"
	"time"
)

// Payment timestamps are recorded as "02-01-2006 15:04"; the collection
// register sorts on the leading date part.
const (
	PaymentTimeLayout = "02-01-2006 15:04"
	PaymentDateLayout = "02-01-2006"
)

// FinancialYear returns the April-start fiscal year containing t, formatted
// "YYYY-YY" (a payment in March 2025 falls in "2024-25", one in April 2025
// in "2025-26").
func FinancialYear(t time.Time) string {
	start := t.Year()
	if t.Month() < time.April {
		start--
	}
	return fmt.Sprintf("%d-%02d", start, (start+1)%100)
}

// FormatPaymentTime renders a payment timestamp for receipts and the
// collection register.
func FormatPaymentTime(t time.Time) string {
	return t.Format(PaymentTimeLayout)
}

// ParsePaymentDate parses the date part of a recorded payment timestamp.
// Returns the zero time on malformed input so that unparseable rows sort
// last rather than failing the register listing.
func ParsePaymentDate(s string) time.Time {
	if len(s) >= len(PaymentDateLayout) {
		s = s[:len(PaymentDateLayout)]
	}
	t, err := time.Parse(PaymentDateLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
