package merge

import (
	"testing"

	"housetax/internal/core"
	"housetax/internal/loader"
)

func testRegisters() *loader.Registers {
	return &loader.Registers{
		Owners: []loader.RawOwner{
			{AssessmentNo: "1001", OwnerName: "Ramesh Kumar", Mobile: "0987654321", ClusterID: "C1"},
			{AssessmentNo: "1002", OwnerName: "Lakshmi Devi", ClusterID: "C2"},
		},
		Properties: []loader.RawProperty{
			{AssessmentNo: "1001", SurveyNo: "45/2", North: "School", FloorLen: 40, BuildingAge: "2005"},
			{AssessmentNo: "9999", SurveyNo: "orphan"},
		},
		Demands: []loader.RawDemand{
			{AssessmentNo: "1001", DemandYear: "2024-25", PropertyTax: 700, LibraryCess: 56,
				WaterTax: 56, DrainageTax: 70, LightingTax: 70, SportsCess: 21, FireTax: 7,
				TotalDemand: 1000},
			{AssessmentNo: "1001", DemandYear: "2023-24", PropertyTax: 500, TotalDemand: 500,
				TapFeeDemand: 150, TapRemarks: "Two taps"},
			{AssessmentNo: "9999", DemandYear: "2024-25", TotalDemand: 777},
		},
		Collections: []loader.RawCollection{
			{NewAssessmentNo: "1001", ReceiptNo: "TAX1", DateOfPayment: "15-06-2024 10:30", TotalTax: 300},
			{NewAssessmentNo: "9999", ReceiptNo: "TAX2", TotalTax: 100},
		},
		History: []loader.RawHistory{
			{AssessmentNo: "1001", Date: "01-01-2020", EventType: "Created"},
			{AssessmentNo: "1001", Date: "05-03-2023", EventType: "Mutation"},
		},
	}
}

func TestBuildOwnerDriven(t *testing.T) {
	hs := Build(testRegisters())
	if len(hs) != 2 {
		t.Fatalf("got %d households, want 2 (one per owner row)", len(hs))
	}
	h := hs[0]
	if h.ID != "1001" || h.SurveyNumber != "45/2" || h.Boundaries.North != "School" {
		t.Errorf("property fields not joined: %+v", h)
	}
	if len(h.DemandDetails) != 2 {
		t.Fatalf("got %d demand rows, want 2", len(h.DemandDetails))
	}
	// Stored rows are preserved, not corrected: 1000 despite components summing 980.
	if h.DemandDetails[0].TotalDemand != 1000 {
		t.Errorf("stored demand total = %d, want 1000", h.DemandDetails[0].TotalDemand)
	}
	if h.TotalDemand != 1500 {
		t.Errorf("TotalDemand = %d, want 1500", h.TotalDemand)
	}
	if h.TotalCollected != 300 {
		t.Errorf("TotalCollected = %d, want 300", h.TotalCollected)
	}
	if len(h.TapDemands) != 1 || h.TapDemands[0].Remarks != "Two taps" {
		t.Errorf("TapDemands = %+v, want the single fee-bearing row", h.TapDemands)
	}
}

func TestBuildDefaultsWithoutMatches(t *testing.T) {
	hs := Build(testRegisters())
	h := hs[1]
	if h.SurveyNumber != "" || h.FloorLength != 0 {
		t.Errorf("unmatched property fields not defaulted: %+v", h)
	}
	if len(h.DemandDetails) != 0 || len(h.PaymentHistory) != 0 || len(h.History) != 0 {
		t.Errorf("unmatched child rows not empty")
	}
	if h.TotalDemand != 0 || h.TotalCollected != 0 {
		t.Errorf("totals = %d/%d, want 0/0", h.TotalDemand, h.TotalCollected)
	}
}

func TestBuildDefaultsBlankClusterToC1(t *testing.T) {
	regs := &loader.Registers{
		Owners: []loader.RawOwner{
			{AssessmentNo: "3001", OwnerName: "Venkatesh Rao"},
		},
		Demands: []loader.RawDemand{
			{AssessmentNo: "3001", DemandYear: "2024-25", TotalDemand: 1000},
		},
	}
	hs := Build(regs)
	if hs[0].ClusterID != "C1" {
		t.Fatalf("ClusterID = %q, want C1", hs[0].ClusterID)
	}

	clusters := DeriveClusters(hs)
	if len(clusters) != 1 {
		t.Fatalf("got %d clusters, want 1", len(clusters))
	}
	if clusters[0].ID != "C1" || clusters[0].TotalDemand != 1000 {
		t.Errorf("defaulted household missing from rollup: %+v", clusters[0])
	}
}

func TestBuildPopulatesRelationAndBuildingAgeDate(t *testing.T) {
	hs := Build(testRegisters())
	h := hs[0]
	if h.RelationType != "Father" {
		t.Errorf("RelationType = %q, want Father", h.RelationType)
	}
	if h.BuildingAgeDate != "2005" {
		t.Errorf("BuildingAgeDate = %q, want 2005", h.BuildingAgeDate)
	}
}

func TestBuildDropsOrphans(t *testing.T) {
	hs := Build(testRegisters())
	for _, h := range hs {
		for _, d := range h.DemandDetails {
			if d.TotalDemand == 777 {
				t.Fatal("orphan demand row attached to a household")
			}
		}
		for _, p := range h.PaymentHistory {
			if p.ReceiptNo == "TAX2" {
				t.Fatal("orphan collection row attached to a household")
			}
		}
	}
}

func TestBuildHistorySortedNewestFirst(t *testing.T) {
	hs := Build(testRegisters())
	hist := hs[0].History
	if len(hist) != 2 {
		t.Fatalf("got %d history rows, want 2", len(hist))
	}
	if hist[0].EventType != "Mutation" || hist[1].EventType != "Created" {
		t.Errorf("history order = [%s %s], want newest first", hist[0].EventType, hist[1].EventType)
	}
}

func TestDeriveClusters(t *testing.T) {
	hs := Build(testRegisters())
	clusters := DeriveClusters(hs)
	if len(clusters) != 2 {
		t.Fatalf("got %d clusters, want 2", len(clusters))
	}
	c1 := clusters[0]
	if c1.ID != "C1" || c1.Code != "C1" || c1.Name != "Cluster 1" {
		t.Errorf("cluster identity = %+v", c1)
	}
	if c1.TotalHouseholds != 1 || c1.TotalDemand != 1500 || c1.TotalCollected != 300 {
		t.Errorf("cluster rollup = %+v", c1)
	}
}

func TestUsersRoleFallback(t *testing.T) {
	users := Users([]loader.RawUser{
		{UserID: "u1", Role: "admin"},
		{UserID: "u2", Role: "collector", Clusters: []string{"C1"}},
	})
	if users[0].Role != core.RoleAdmin {
		t.Errorf("role = %s, want ADMIN", users[0].Role)
	}
	if users[1].Role != core.RoleUser {
		t.Errorf("unknown role = %s, want USER", users[1].Role)
	}
}
