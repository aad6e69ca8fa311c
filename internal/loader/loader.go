// Package loader parses the flat delimited registers (owners, properties,
// demand years, collection transactions, lifecycle history, users) into
// typed row values. Cells are loosely typed at the source: numeric-looking
// strings are coerced to numbers except identifier-like columns, which stay
// strings to preserve leading zeros.
package loader

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
)

type (
	// Row is one parsed record keyed by trimmed header name.
	Row map[string]string

	RawUser struct {
		UserID   string
		Name     string
		Password string
		Phone    string
		Role     string
		Clusters []string
	}

	RawOwner struct {
		AssessmentNo string
		OwnerName    string
		Mobile       string
		Aadhar       string
		Gender       string
		GuardianName string
		DoorNo       string
		Address      string
		ClusterID    string
	}

	RawProperty struct {
		AssessmentNo       string
		OldAssessmentNo    string
		SurveyNo           string
		BuildingAge        string
		NatureOfProperty   string
		NatureOfLandUse    string
		NatureOfUsage      string
		NatureOfOwnership  string
		ModeOfAcquisition  string
		East, West         string
		North, South       string
		FloorDesc          string
		ClassDesc          string
		BldgCat            string
		OccDesc            string
		ConstDate          string
		EffDate            string
		FloorLen           int64
		FloorBreadth       int64
		TotalFloorArea     int64
		SubtypeDesc        string
		SiteLen            int64
		SiteBreadth        int64
		SiteCapVal         int64
		SiteRate           int64
		BldgType           string
		BldgCapVal         int64
		BldgRate           int64
	}

	RawDemand struct {
		AssessmentNo string
		DemandYear   string
		PropertyTax  int64
		LibraryCess  int64
		LightingTax  int64
		DrainageTax  int64
		SportsCess   int64
		FireTax      int64
		WaterTax     int64
		TotalDemand  int64
		TapFeeDemand int64
		TapRemarks   string
	}

	RawCollection struct {
		SNo             string
		NewAssessmentNo string
		OldAssessmentNo string
		OwnerName       string
		GuardianName    string
		DoorNo          string
		DateOfPayment   string
		ReceiptNo       string
		PaymentSource   string
		PaymentMode     string
		DueYear         string
		DemandCategory  string
		TotalTax        int64
		ReceiptStatus   string
		CFMSStatus      string
	}

	RawHistory struct {
		AssessmentNo string
		Date         string
		EventType    string
		Description  string
		FromOwner    string
		ToOwner      string
	}

	// Registers bundles the six parsed row sets for a full load.
	Registers struct {
		Users       []RawUser
		Owners      []RawOwner
		Properties  []RawProperty
		Demands     []RawDemand
		Collections []RawCollection
		History     []RawHistory
	}
)

// KeepAsString reports whether a column must never be numerically coerced.
// Phone numbers, Aadhar numbers and assessment/receipt identifiers carry
// leading zeros and exceed safe numeric precision.
func KeepAsString(header string) bool {
	h := strings.ToLower(header)
	return strings.Contains(h, "mobile") ||
		strings.Contains(h, "aadhar") ||
		strings.Contains(h, "number") ||
		strings.Contains(h, "id")
}

// parseTable reads a header-first comma-separated table into rows keyed by
// header. Blank lines are skipped; short records are padded with empty cells.
func parseTable(r io.Reader) ([]Row, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read delimited table: %w", err)
	}
	if len(records) < 2 {
		return nil, nil
	}

	headers := make([]string, len(records[0]))
	for i, h := range records[0] {
		headers[i] = strings.TrimSpace(h)
	}

	rows := make([]Row, 0, len(records)-1)
	for _, rec := range records[1:] {
		empty := true
		for _, cell := range rec {
			if strings.TrimSpace(cell) != "" {
				empty = false
				break
			}
		}
		if empty {
			continue
		}
		row := make(Row, len(headers))
		for i, h := range headers {
			if i < len(rec) {
				row[h] = strings.TrimSpace(rec[i])
			} else {
				row[h] = ""
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// Int coerces a cell to a whole number; malformed or empty cells become 0,
// matching the tolerant source registers. Fractional cells are truncated.
// Identifier-like columns refuse coercion outright so a mapping mistake
// cannot turn a phone or assessment number into digits.
func (r Row) Int(key string) int64 {
	if KeepAsString(key) {
		return 0
	}
	v := strings.TrimSpace(r[key])
	if v == "" {
		return 0
	}
	if n, err := strconv.ParseInt(v, 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(v, 64); err == nil {
		return int64(f)
	}
	return 0
}

func ParseUsers(r io.Reader) ([]RawUser, error) {
	rows, err := parseTable(r)
	if err != nil {
		return nil, fmt.Errorf("parse users: %w", err)
	}
	users := make([]RawUser, 0, len(rows))
	for _, row := range rows {
		var clusters []string
		if c := row["Clusters"]; c != "" {
			clusters = strings.Split(c, "|")
		}
		users = append(users, RawUser{
			UserID:   row["UserId"],
			Name:     row["Name"],
			Password: row["Password"],
			Phone:    row["Phone"],
			Role:     row["Role"],
			Clusters: clusters,
		})
	}
	return users, nil
}

func ParseOwners(r io.Reader) ([]RawOwner, error) {
	rows, err := parseTable(r)
	if err != nil {
		return nil, fmt.Errorf("parse owners: %w", err)
	}
	owners := make([]RawOwner, 0, len(rows))
	for _, row := range rows {
		owners = append(owners, RawOwner{
			AssessmentNo: row["AssessmentNo"],
			OwnerName:    row["OwnerName"],
			Mobile:       row["Mobile"],
			Aadhar:       row["Aadhar"],
			Gender:       row["Gender"],
			GuardianName: row["GuardianName"],
			DoorNo:       row["DoorNo"],
			Address:      row["Address"],
			ClusterID:    row["ClusterId"],
		})
	}
	return owners, nil
}

func ParseProperties(r io.Reader) ([]RawProperty, error) {
	rows, err := parseTable(r)
	if err != nil {
		return nil, fmt.Errorf("parse properties: %w", err)
	}
	props := make([]RawProperty, 0, len(rows))
	for _, row := range rows {
		props = append(props, RawProperty{
			AssessmentNo:      row["AssessmentNo"],
			OldAssessmentNo:   row["OldAssessmentNo"],
			SurveyNo:          row["SurveyNo"],
			BuildingAge:       row["BuildingAge"],
			NatureOfProperty:  row["NatureOfProperty"],
			NatureOfLandUse:   row["NatureOfLandUse"],
			NatureOfUsage:     row["NatureOfUsage"],
			NatureOfOwnership: row["NatureOfOwnership"],
			ModeOfAcquisition: row["ModeOfAcquisition"],
			East:              row["East"],
			West:              row["West"],
			North:             row["North"],
			South:             row["South"],
			FloorDesc:         row["FloorDesc"],
			ClassDesc:         row["ClassDesc"],
			BldgCat:           row["BldgCat"],
			OccDesc:           row["OccDesc"],
			ConstDate:         row["ConstDate"],
			EffDate:           row["EffDate"],
			FloorLen:          row.Int("FloorLen"),
			FloorBreadth:      row.Int("FloorBreadth"),
			TotalFloorArea:    row.Int("TotalFloorArea"),
			SubtypeDesc:       row["SubtypeDesc"],
			SiteLen:           row.Int("SiteLen"),
			SiteBreadth:       row.Int("SiteBreadth"),
			SiteCapVal:        row.Int("SiteCapVal"),
			SiteRate:          row.Int("SiteRate"),
			BldgType:          row["BldgType"],
			BldgCapVal:        row.Int("BldgCapVal"),
			BldgRate:          row.Int("BldgRate"),
		})
	}
	return props, nil
}

func ParseDemands(r io.Reader) ([]RawDemand, error) {
	rows, err := parseTable(r)
	if err != nil {
		return nil, fmt.Errorf("parse demands: %w", err)
	}
	demands := make([]RawDemand, 0, len(rows))
	for _, row := range rows {
		demands = append(demands, RawDemand{
			AssessmentNo: row["AssessmentNo"],
			DemandYear:   row["DemandYear"],
			PropertyTax:  row.Int("PropertyTax"),
			LibraryCess:  row.Int("LibraryCess"),
			LightingTax:  row.Int("LightingTax"),
			DrainageTax:  row.Int("DrainageTax"),
			SportsCess:   row.Int("SportsCess"),
			FireTax:      row.Int("FireTax"),
			WaterTax:     row.Int("WaterTax"),
			TotalDemand:  row.Int("TotalDemand"),
			TapFeeDemand: row.Int("TapFeeDemand"),
			TapRemarks:   row["TapRemarks"],
		})
	}
	return demands, nil
}

func ParseCollections(r io.Reader) ([]RawCollection, error) {
	rows, err := parseTable(r)
	if err != nil {
		return nil, fmt.Errorf("parse collections: %w", err)
	}
	collections := make([]RawCollection, 0, len(rows))
	for _, row := range rows {
		collections = append(collections, RawCollection{
			SNo:             row["S.No."],
			NewAssessmentNo: row["New Assessment No"],
			OldAssessmentNo: row["Old Assessment No"],
			OwnerName:       row["Owner Name"],
			GuardianName:    row["Guardian Name"],
			DoorNo:          row["Door No"],
			DateOfPayment:   row["Date of Payment"],
			ReceiptNo:       row["Receipt No"],
			PaymentSource:   row["Payment Source"],
			PaymentMode:     row["Payment Mode"],
			DueYear:         row["Due Year"],
			DemandCategory:  row["Demand Category"],
			TotalTax:        row.Int("TOTAL Tax (Rs.)"),
			ReceiptStatus:   row["Receipt Status"],
			CFMSStatus:      row["Settlement at CFMS"],
		})
	}
	return collections, nil
}

func ParseHistory(r io.Reader) ([]RawHistory, error) {
	rows, err := parseTable(r)
	if err != nil {
		return nil, fmt.Errorf("parse history: %w", err)
	}
	history := make([]RawHistory, 0, len(rows))
	for _, row := range rows {
		history = append(history, RawHistory{
			AssessmentNo: row["AssessmentNo"],
			Date:         row["Date"],
			EventType:    row["EventType"],
			Description:  row["Description"],
			FromOwner:    row["FromOwner"],
			ToOwner:      row["ToOwner"],
		})
	}
	return history, nil
}
