// Package storage keeps a durable append-only journal of payments and
// household updates in SQLite. The in-memory registry stays canonical; the
// journal exists so the sync worker can replay anything that never reached
// the remote register, including across restarts.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"housetax/internal/allocation"
	"housetax/internal/core"
	"housetax/internal/sheets"

	_ "modernc.org/sqlite"
)

type Journal struct {
	db *sql.DB
}

// JournalPayment is one journalled payment with its sync state.
type JournalPayment struct {
	ID        int64
	Row       sheets.CollectionRow
	Breakdown allocation.Breakdown
	Synced    bool
}

// HouseholdUpdate is one journalled household snapshot awaiting push.
type HouseholdUpdate struct {
	ID        int64
	Household *core.Household
	Synced    bool
}

func NewJournal(dbPath string) (*Journal, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Journal{db: db}, nil
}

func (j *Journal) Close() error {
	if j.db != nil {
		return j.db.Close()
	}
	return nil
}

// AppendPayment journals one payment and returns its journal id.
func (j *Journal) AppendPayment(ctx context.Context, row sheets.CollectionRow, b allocation.Breakdown) (int64, error) {
	res, err := j.db.ExecContext(ctx, `
		INSERT INTO payments (
			assessment_no, owner_name, s_no, receipt_no, date_of_payment,
			payment_source, payment_mode, due_year, demand_category, amount,
			financial_year, house_tax, library_cess, water_tax, drainage_tax,
			lighting_tax, sports_cess, fire_tax
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		row.AssessmentNumber, row.OwnerName, row.SNo, row.ReceiptNo, row.DateOfPayment,
		row.PaymentSource, row.PaymentMode, row.DueYear, row.DemandCategory, row.Amount,
		b.FinancialYear, b.HouseTax, b.LibraryCess, b.WaterTax, b.DrainageTax,
		b.LightingTax, b.SportsCess, b.FireTax)
	if err != nil {
		return 0, fmt.Errorf("insert payment: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("payment journal id: %w", err)
	}
	return id, nil
}

// PaymentByID loads one journalled payment.
func (j *Journal) PaymentByID(ctx context.Context, id int64) (JournalPayment, error) {
	row := j.db.QueryRowContext(ctx, `
		SELECT id, assessment_no, owner_name, s_no, receipt_no, date_of_payment,
			payment_source, payment_mode, due_year, demand_category, amount,
			financial_year, house_tax, library_cess, water_tax, drainage_tax,
			lighting_tax, sports_cess, fire_tax, synced
		FROM payments WHERE id = ?`, id)
	p, err := scanPayment(row)
	if err == sql.ErrNoRows {
		return JournalPayment{}, core.ErrNotFound
	}
	if err != nil {
		return JournalPayment{}, fmt.Errorf("load payment %d: %w", id, err)
	}
	return p, nil
}

// UnsyncedPayments lists journalled payments that never reached the remote
// register, oldest first.
func (j *Journal) UnsyncedPayments(ctx context.Context, limit int) ([]JournalPayment, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT id, assessment_no, owner_name, s_no, receipt_no, date_of_payment,
			payment_source, payment_mode, due_year, demand_category, amount,
			financial_year, house_tax, library_cess, water_tax, drainage_tax,
			lighting_tax, sports_cess, fire_tax, synced
		FROM payments WHERE synced = 0 ORDER BY id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list unsynced payments: %w", err)
	}
	defer rows.Close()

	var out []JournalPayment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan payment: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (j *Journal) MarkPaymentSynced(ctx context.Context, id int64) error {
	res, err := j.db.ExecContext(ctx, `UPDATE payments SET synced = 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("mark payment synced: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.ErrNotFound
	}
	return nil
}

// AppendHouseholdUpdate journals a full household snapshot for the worker
// to push.
func (j *Journal) AppendHouseholdUpdate(ctx context.Context, h *core.Household) (int64, error) {
	payload, err := json.Marshal(h)
	if err != nil {
		return 0, fmt.Errorf("marshal household: %w", err)
	}
	res, err := j.db.ExecContext(ctx,
		`INSERT INTO household_updates (assessment_no, payload) VALUES (?, ?)`,
		h.AssessmentNumber, string(payload))
	if err != nil {
		return 0, fmt.Errorf("insert household update: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("household update journal id: %w", err)
	}
	return id, nil
}

// HouseholdUpdateByID loads one journalled snapshot.
func (j *Journal) HouseholdUpdateByID(ctx context.Context, id int64) (HouseholdUpdate, error) {
	var (
		u       HouseholdUpdate
		payload string
		synced  int
	)
	err := j.db.QueryRowContext(ctx,
		`SELECT id, payload, synced FROM household_updates WHERE id = ?`, id).
		Scan(&u.ID, &payload, &synced)
	if err == sql.ErrNoRows {
		return HouseholdUpdate{}, core.ErrNotFound
	}
	if err != nil {
		return HouseholdUpdate{}, fmt.Errorf("load household update %d: %w", id, err)
	}
	u.Synced = synced != 0
	u.Household = &core.Household{}
	if err := json.Unmarshal([]byte(payload), u.Household); err != nil {
		return HouseholdUpdate{}, fmt.Errorf("unmarshal household update %d: %w", id, err)
	}
	return u, nil
}

// UnsyncedHouseholdUpdates lists pending snapshots, oldest first.
func (j *Journal) UnsyncedHouseholdUpdates(ctx context.Context, limit int) ([]HouseholdUpdate, error) {
	rows, err := j.db.QueryContext(ctx,
		`SELECT id, payload, synced FROM household_updates WHERE synced = 0 ORDER BY id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list unsynced household updates: %w", err)
	}
	defer rows.Close()

	var out []HouseholdUpdate
	for rows.Next() {
		var (
			u       HouseholdUpdate
			payload string
			synced  int
		)
		if err := rows.Scan(&u.ID, &payload, &synced); err != nil {
			return nil, fmt.Errorf("scan household update: %w", err)
		}
		u.Synced = synced != 0
		u.Household = &core.Household{}
		if err := json.Unmarshal([]byte(payload), u.Household); err != nil {
			return nil, fmt.Errorf("unmarshal household update %d: %w", u.ID, err)
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (j *Journal) MarkHouseholdUpdateSynced(ctx context.Context, id int64) error {
	res, err := j.db.ExecContext(ctx, `UPDATE household_updates SET synced = 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("mark household update synced: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPayment(r rowScanner) (JournalPayment, error) {
	var (
		p      JournalPayment
		synced int
	)
	err := r.Scan(&p.ID,
		&p.Row.AssessmentNumber, &p.Row.OwnerName, &p.Row.SNo, &p.Row.ReceiptNo,
		&p.Row.DateOfPayment, &p.Row.PaymentSource, &p.Row.PaymentMode,
		&p.Row.DueYear, &p.Row.DemandCategory, &p.Row.Amount,
		&p.Breakdown.FinancialYear, &p.Breakdown.HouseTax, &p.Breakdown.LibraryCess,
		&p.Breakdown.WaterTax, &p.Breakdown.DrainageTax, &p.Breakdown.LightingTax,
		&p.Breakdown.SportsCess, &p.Breakdown.FireTax, &synced)
	if err != nil {
		return JournalPayment{}, err
	}
	p.Synced = synced != 0
	p.Breakdown.ReceiptNo = p.Row.ReceiptNo
	p.Breakdown.DateOfPayment = p.Row.DateOfPayment
	p.Breakdown.Total = p.Row.Amount
	return p, nil
}
