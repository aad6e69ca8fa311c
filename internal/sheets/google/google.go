// Package google pushes payments and household updates to the municipal
// Google Sheets register and reads the collection register back.
package google

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"housetax/internal/allocation"
	"housetax/internal/config"
	"housetax/internal/core"
	ports "housetax/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

type Client struct {
	svc            *gsheet.Service
	spreadsheetID  string
	paymentSheet   string
	householdSheet string
}

var (
	_ ports.PaymentWriter    = (*Client)(nil)
	_ ports.HouseholdWriter  = (*Client)(nil)
	_ ports.CollectionReader = (*Client)(nil)
)

// New creates a Sheets client from the application configuration.
func New(ctx context.Context, cfg *config.Config) (*Client, error) {
	if cfg.GoogleSpreadsheetID == "" {
		return nil, errors.New("missing Google spreadsheet id")
	}

	var credsJSON []byte
	switch {
	case cfg.GoogleOAuthClientJSON != "":
		credsJSON = []byte(cfg.GoogleOAuthClientJSON)
	case cfg.GoogleOAuthClientFile != "":
		b, err := os.ReadFile(cfg.GoogleOAuthClientFile)
		if err != nil {
			return nil, fmt.Errorf("read credentials file: %w", err)
		}
		credsJSON = b
	default:
		return nil, errors.New("missing Google credentials")
	}

	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	return &Client{
		svc:            svc,
		spreadsheetID:  cfg.GoogleSpreadsheetID,
		paymentSheet:   cfg.GooglePaymentSheet,
		householdSheet: cfg.GoogleHouseholdSheet,
	}, nil
}

// AppendPayment writes one collection row with its breakdown to the payment
// sheet and returns the written range as row reference.
func (c *Client) AppendPayment(ctx context.Context, row ports.CollectionRow, breakdown allocation.Breakdown) (string, error) {
	if c.svc == nil {
		return "", errors.New("sheets service not initialized")
	}
	if row.AssessmentNumber == "" {
		return "", errors.New("missing assessment number")
	}

	rng := fmt.Sprintf("%s!A:A", c.paymentSheet)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("get sheet dimensions for %s: %w", c.paymentSheet, err)
	}
	nextRow := len(resp.Values) + 1

	dataRange := fmt.Sprintf("%s!A%d:Q%d", c.paymentSheet, nextRow, nextRow)
	vr := &gsheet.ValueRange{Values: [][]any{{
		row.SNo,
		row.AssessmentNumber,
		row.OwnerName,
		row.GuardianName,
		row.DateOfPayment,
		row.ReceiptNo,
		row.PaymentSource,
		row.PaymentMode,
		row.DueYear,
		row.DemandCategory,
		breakdown.HouseTax,
		breakdown.LibraryCess,
		breakdown.WaterTax,
		breakdown.DrainageTax,
		breakdown.LightingTax,
		breakdown.SportsCess + breakdown.FireTax,
		row.Amount,
	}}}
	_, err = c.svc.Spreadsheets.Values.Update(c.spreadsheetID, dataRange, vr).
		ValueInputOption("USER_ENTERED").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("append payment to %s: %w", c.paymentSheet, err)
	}
	return dataRange, nil
}

// UpdateHousehold rewrites the register row whose first column matches the
// assessment number. A household not present in the sheet is appended.
func (c *Client) UpdateHousehold(ctx context.Context, h *core.Household) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}
	if h == nil || h.AssessmentNumber == "" {
		return errors.New("missing assessment number")
	}

	rng := fmt.Sprintf("%s!A:A", c.householdSheet)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("read %s: %w", rng, err)
	}

	targetRow := len(resp.Values) + 1
	for i, row := range resp.Values {
		if len(row) > 0 && strings.TrimSpace(fmt.Sprint(row[0])) == h.AssessmentNumber {
			targetRow = i + 1
			break
		}
	}

	dataRange := fmt.Sprintf("%s!A%d:L%d", c.householdSheet, targetRow, targetRow)
	vr := &gsheet.ValueRange{Values: [][]any{{
		h.AssessmentNumber,
		h.OwnerName,
		h.GuardianName,
		h.MobileNumber,
		h.DoorNumber,
		h.Address,
		h.ClusterID,
		h.ModeOfAcquisition,
		h.NatureOfProperty,
		h.NatureOfUsage,
		h.TotalDemand,
		h.TotalCollected,
	}}}
	_, err = c.svc.Spreadsheets.Values.Update(c.spreadsheetID, dataRange, vr).
		ValueInputOption("USER_ENTERED").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("update household in %s: %w", c.householdSheet, err)
	}
	return nil
}

// ListCollections reads the full payment sheet. Column order is resolved
// from the header row through the alias table, so hand-edits to header
// wording do not silently shift fields.
func (c *Client) ListCollections(ctx context.Context) ([]ports.CollectionRow, error) {
	if c.svc == nil {
		return nil, errors.New("sheets service not initialized")
	}
	rng := fmt.Sprintf("%s!A1:Z", c.paymentSheet)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rng, err)
	}
	if len(resp.Values) < 2 {
		return nil, nil
	}

	headers := make([]string, len(resp.Values[0]))
	for i, v := range resp.Values[0] {
		headers[i] = fmt.Sprint(v)
	}
	cols, err := ports.MapHeaders(headers)
	if err != nil {
		return nil, fmt.Errorf("collection register headers: %w", err)
	}

	cell := func(row []any, field string) string {
		i, ok := cols[field]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(fmt.Sprint(row[i]))
	}

	var out []ports.CollectionRow
	for _, row := range resp.Values[1:] {
		assessment := cell(row, ports.FieldAssessmentNumber)
		if assessment == "" {
			continue
		}
		amount, _ := strconv.ParseInt(cell(row, ports.FieldAmount), 10, 64)
		out = append(out, ports.CollectionRow{
			AssessmentNumber: assessment,
			OwnerName:        cell(row, ports.FieldOwnerName),
			PaymentRecord: core.PaymentRecord{
				ReceiptNo:      cell(row, ports.FieldReceiptNo),
				DateOfPayment:  cell(row, ports.FieldDateOfPayment),
				PaymentSource:  cell(row, ports.FieldPaymentSource),
				PaymentMode:    cell(row, ports.FieldPaymentMode),
				Amount:         amount,
				Status:         cell(row, ports.FieldStatus),
				CFMSStatus:     cell(row, ports.FieldCFMSStatus),
				DueYear:        cell(row, ports.FieldDueYear),
				DemandCategory: cell(row, ports.FieldDemandCategory),
				GuardianName:   cell(row, ports.FieldGuardianName),
			},
		})
	}
	return out, nil
}
