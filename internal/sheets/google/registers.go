package google

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"

	"housetax/internal/loader"

	"google.golang.org/api/googleapi"
)

// Register tab names in the municipal spreadsheet. These are fixed by the
// register template, unlike the payment and household sheet names which are
// configurable.
const (
	usersTab       = "Users"
	ownersTab      = "Owners"
	propertiesTab  = "Properties"
	demandsTab     = "Demands"
	collectionsTab = "Collections"
	historyTab     = "History"
)

// LoadRegisters reads the six register tabs into the same raw row sets the
// file loader produces, so the merger is indifferent to where the seed came
// from. A missing tab yields an empty set, matching the file loader's
// treatment of a missing file.
func (c *Client) LoadRegisters(ctx context.Context) (*loader.Registers, error) {
	if c.svc == nil {
		return nil, errors.New("sheets service not initialized")
	}

	regs := &loader.Registers{}
	load := func(tab string, parse func(io.Reader) error) error {
		r, err := c.readTab(ctx, tab)
		if err != nil {
			return err
		}
		if r == nil {
			return nil
		}
		return parse(r)
	}

	steps := []struct {
		tab   string
		parse func(io.Reader) error
	}{
		{usersTab, func(r io.Reader) (err error) { regs.Users, err = loader.ParseUsers(r); return }},
		{ownersTab, func(r io.Reader) (err error) { regs.Owners, err = loader.ParseOwners(r); return }},
		{propertiesTab, func(r io.Reader) (err error) { regs.Properties, err = loader.ParseProperties(r); return }},
		{demandsTab, func(r io.Reader) (err error) { regs.Demands, err = loader.ParseDemands(r); return }},
		{collectionsTab, func(r io.Reader) (err error) { regs.Collections, err = loader.ParseCollections(r); return }},
		{historyTab, func(r io.Reader) (err error) { regs.History, err = loader.ParseHistory(r); return }},
	}
	for _, step := range steps {
		if err := load(step.tab, step.parse); err != nil {
			return nil, err
		}
	}
	return regs, nil
}

// readTab fetches one tab and re-encodes it as a delimited table for the
// loader. Returns nil without error when the tab does not exist.
func (c *Client) readTab(ctx context.Context, tab string) (io.Reader, error) {
	rng := fmt.Sprintf("%s!A1:ZZ", tab)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		var gerr *googleapi.Error
		if errors.As(err, &gerr) && gerr.Code == 400 {
			// Unparseable range: the tab is absent from this spreadsheet.
			return nil, nil
		}
		return nil, fmt.Errorf("read %s: %w", rng, err)
	}
	if len(resp.Values) == 0 {
		return nil, nil
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	for _, row := range resp.Values {
		record := make([]string, len(row))
		for i, cell := range row {
			record[i] = fmt.Sprint(cell)
		}
		if err := w.Write(record); err != nil {
			return nil, fmt.Errorf("encode %s row: %w", tab, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("encode %s: %w", tab, err)
	}
	return &buf, nil
}
