// Package memory is the in-process register adapter used by the memory
// backend and by tests. It mimics the remote register surface without any
// network dependency.
package memory

import (
	"context"
	"fmt"
	"sync"

	"housetax/internal/allocation"
	"housetax/internal/core"
	sheets "housetax/internal/sheets"
)

type Store struct {
	mu         sync.Mutex
	rows       []sheets.CollectionRow
	breakdowns map[string]allocation.Breakdown
	households map[string]*core.Household
}

var (
	_ sheets.PaymentWriter    = (*Store)(nil)
	_ sheets.HouseholdWriter  = (*Store)(nil)
	_ sheets.CollectionReader = (*Store)(nil)
)

func New() *Store {
	return &Store{
		breakdowns: make(map[string]allocation.Breakdown),
		households: make(map[string]*core.Household),
	}
}

// AppendPayment stores the row and returns a synthetic row reference.
func (s *Store) AppendPayment(_ context.Context, row sheets.CollectionRow, breakdown allocation.Breakdown) (string, error) {
	if row.AssessmentNumber == "" {
		return "", fmt.Errorf("append payment: missing assessment number")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = append(s.rows, row)
	s.breakdowns[row.ReceiptNo] = breakdown
	return fmt.Sprintf("mem:%d", len(s.rows)), nil
}

func (s *Store) UpdateHousehold(_ context.Context, h *core.Household) error {
	if h == nil || h.ID == "" {
		return fmt.Errorf("update household: missing id")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.households[h.ID] = h.Clone()
	return nil
}

func (s *Store) ListCollections(_ context.Context) ([]sheets.CollectionRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]sheets.CollectionRow(nil), s.rows...), nil
}

// Breakdown returns the stored breakdown for a receipt, for test assertions.
func (s *Store) Breakdown(receiptNo string) (allocation.Breakdown, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.breakdowns[receiptNo]
	return b, ok
}

// Household returns the last pushed snapshot for an assessment number.
func (s *Store) Household(id string) (*core.Household, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.households[id]
	if !ok {
		return nil, false
	}
	return h.Clone(), true
}
