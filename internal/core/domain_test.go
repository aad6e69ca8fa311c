package core

import (
	"testing"
	"time"
)

func TestSetPropertyTaxCascades(t *testing.T) {
	cases := []struct {
		propertyTax int64
		library     int64
		water       int64
		drainage    int64
		lighting    int64
		sports      int64
		fire        int64
	}{
		{700, 56, 56, 70, 70, 21, 7},
		{1000, 80, 80, 100, 100, 30, 10},
		{0, 0, 0, 0, 0, 0, 0},
		{333, 27, 27, 33, 33, 10, 3},
	}
	for i, tc := range cases {
		d := DemandDetail{DemandYear: "2025-26"}
		d.SetPropertyTax(tc.propertyTax)
		if d.LibraryCess != tc.library || d.WaterTax != tc.water ||
			d.DrainageTax != tc.drainage || d.LightingTax != tc.lighting ||
			d.SportsCess != tc.sports || d.FireTax != tc.fire {
			t.Fatalf("case %d: unexpected components: %+v", i, d)
		}
		want := tc.propertyTax + tc.library + tc.water + tc.drainage +
			tc.lighting + tc.sports + tc.fire
		if d.TotalDemand != want {
			t.Fatalf("case %d: total %d, want %d", i, d.TotalDemand, want)
		}
	}
}

func TestRecalcDoesNotCascade(t *testing.T) {
	d := DemandDetail{PropertyTax: 700, LibraryCess: 56, WaterTax: 56,
		DrainageTax: 70, LightingTax: 70, SportsCess: 21, FireTax: 7}
	d.WaterTax = 100
	d.Recalc()
	if d.LibraryCess != 56 {
		t.Fatalf("editing water tax must not touch library cess, got %d", d.LibraryCess)
	}
	if d.TotalDemand != 700+56+100+70+70+21+7 {
		t.Fatalf("total %d after recalc", d.TotalDemand)
	}
}

func TestFinancialYearBoundary(t *testing.T) {
	cases := []struct {
		date time.Time
		want string
	}{
		{time.Date(2025, time.March, 15, 0, 0, 0, 0, time.UTC), "2024-25"},
		{time.Date(2025, time.April, 1, 0, 0, 0, 0, time.UTC), "2025-26"},
		{time.Date(2025, time.December, 31, 0, 0, 0, 0, time.UTC), "2025-26"},
		{time.Date(2026, time.January, 2, 0, 0, 0, 0, time.UTC), "2025-26"},
		{time.Date(1999, time.June, 1, 0, 0, 0, 0, time.UTC), "1999-00"},
	}
	for _, tc := range cases {
		if got := FinancialYear(tc.date); got != tc.want {
			t.Fatalf("FinancialYear(%v) = %q, want %q", tc.date, got, tc.want)
		}
	}
}

func TestParsePaymentDate(t *testing.T) {
	got := ParsePaymentDate("15-03-2025 10:30")
	want := time.Date(2025, time.March, 15, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	if !ParsePaymentDate("garbage").IsZero() {
		t.Fatalf("malformed input should parse to zero time")
	}
}

func TestCanAccessCluster(t *testing.T) {
	admin := User{Role: RoleAdmin}
	if !admin.CanAccessCluster("C9") {
		t.Fatalf("admin should access any cluster")
	}
	restricted := User{Role: RoleUser, Clusters: []string{"C1", "C2"}}
	if !restricted.CanAccessCluster("C2") {
		t.Fatalf("assigned cluster should be accessible")
	}
	if restricted.CanAccessCluster("C3") {
		t.Fatalf("unassigned cluster must be blocked")
	}
}

func TestCloneIsDeep(t *testing.T) {
	h := &Household{
		ID:             "1001",
		DemandDetails:  []DemandDetail{{DemandYear: "2025-26", PropertyTax: 700}},
		PaymentHistory: []PaymentRecord{{ReceiptNo: "TAX1"}},
		AuditLogs:      []AuditLog{{Section: "Owner Details", Changes: []string{"a"}}},
	}
	c := h.Clone()
	c.DemandDetails[0].PropertyTax = 900
	c.PaymentHistory[0].ReceiptNo = "TAX2"
	c.AuditLogs[0].Changes[0] = "b"
	if h.DemandDetails[0].PropertyTax != 700 {
		t.Fatalf("demand rows shared between clone and original")
	}
	if h.PaymentHistory[0].ReceiptNo != "TAX1" {
		t.Fatalf("payment rows shared between clone and original")
	}
	if h.AuditLogs[0].Changes[0] != "a" {
		t.Fatalf("audit change strings shared between clone and original")
	}
}

func TestMatchesQuery(t *testing.T) {
	h := &Household{AssessmentNumber: "1001234", OwnerName: "Ramesh Kumar", MobileNumber: "9876543210"}
	cases := []struct {
		query string
		want  bool
	}{
		{"1001", true},
		{"ramesh", true},
		{"KUMAR", true},
		{"98765", true},
		{"", false},
		{"   ", false},
		{"nobody", false},
	}
	for _, tc := range cases {
		if got := h.MatchesQuery(tc.query); got != tc.want {
			t.Fatalf("MatchesQuery(%q) = %v, want %v", tc.query, got, tc.want)
		}
	}
}

func TestPendingAmountClampsAtZero(t *testing.T) {
	h := &Household{TotalDemand: 1000, TotalCollected: 1200}
	if got := h.PendingAmount(); got != 0 {
		t.Fatalf("overpaid household pending = %d, want 0", got)
	}
	h.TotalCollected = 400
	if got := h.PendingAmount(); got != 600 {
		t.Fatalf("pending = %d, want 600", got)
	}
}
