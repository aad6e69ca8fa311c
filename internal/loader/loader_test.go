package loader

import (
	"strings"
	"testing"
)

func TestKeepAsString(t *testing.T) {
	tests := []struct {
		header string
		want   bool
	}{
		{"Mobile", true},
		{"Aadhar", true},
		{"Receipt Number", true},
		{"ClusterId", true},
		{"PropertyTax", false},
		{"TotalDemand", false},
		{"OwnerName", false},
	}
	for _, tt := range tests {
		if got := KeepAsString(tt.header); got != tt.want {
			t.Errorf("KeepAsString(%q) = %v, want %v", tt.header, got, tt.want)
		}
	}
}

func TestRowIntRefusesIdentifierColumns(t *testing.T) {
	row := Row{"Mobile Number": "0987654321", "TotalDemand": "980"}
	if got := row.Int("Mobile Number"); got != 0 {
		t.Errorf("Int on identifier column = %d, want 0", got)
	}
	if got := row.Int("TotalDemand"); got != 980 {
		t.Errorf("Int(TotalDemand) = %d, want 980", got)
	}
}

func TestParseOwners(t *testing.T) {
	in := "AssessmentNo,OwnerName,Mobile,Aadhar,Gender,GuardianName,DoorNo,Address,ClusterId\n" +
		"1001,Ramesh Kumar,0987654321,001122334455,Male,Suresh Kumar,12-3,Main Street,C1\n" +
		"\n" +
		"1002,Lakshmi Devi,9876543210,998877665544,Female,Venkat Rao,4-5,Temple Road,C2\n"

	owners, err := ParseOwners(strings.NewReader(in))
	if err != nil {
		t.Fatalf("ParseOwners: %v", err)
	}
	if len(owners) != 2 {
		t.Fatalf("got %d owners, want 2", len(owners))
	}
	if owners[0].Mobile != "0987654321" {
		t.Errorf("Mobile = %q, leading zero lost", owners[0].Mobile)
	}
	if owners[1].ClusterID != "C2" {
		t.Errorf("ClusterID = %q, want C2", owners[1].ClusterID)
	}
}

func TestParseDemandsCoercion(t *testing.T) {
	in := "AssessmentNo,DemandYear,PropertyTax,LibraryCess,LightingTax,DrainageTax,SportsCess,FireTax,WaterTax,TotalDemand,TapFeeDemand,TapRemarks\n" +
		"1001,2024-25,700,56,70,70,21,7,56,980,0,\n" +
		"1001,2023-24,abc,,70.9,70,21,7,56,225,150,Two taps\n"

	demands, err := ParseDemands(strings.NewReader(in))
	if err != nil {
		t.Fatalf("ParseDemands: %v", err)
	}
	if len(demands) != 2 {
		t.Fatalf("got %d demands, want 2", len(demands))
	}
	if demands[0].TotalDemand != 980 {
		t.Errorf("TotalDemand = %d, want 980", demands[0].TotalDemand)
	}
	second := demands[1]
	if second.PropertyTax != 0 {
		t.Errorf("malformed PropertyTax = %d, want 0", second.PropertyTax)
	}
	if second.LibraryCess != 0 {
		t.Errorf("empty LibraryCess = %d, want 0", second.LibraryCess)
	}
	if second.LightingTax != 70 {
		t.Errorf("fractional LightingTax = %d, want 70", second.LightingTax)
	}
	if second.TapRemarks != "Two taps" {
		t.Errorf("TapRemarks = %q", second.TapRemarks)
	}
}

func TestParseUsersClusters(t *testing.T) {
	in := "UserId,Name,Password,Phone,Role,Clusters\n" +
		"admin1,Admin,secret,900,ADMIN,C1|C2\n" +
		"root,Root,toor,901,SUPER_ADMIN,\n"

	users, err := ParseUsers(strings.NewReader(in))
	if err != nil {
		t.Fatalf("ParseUsers: %v", err)
	}
	if len(users[0].Clusters) != 2 || users[0].Clusters[1] != "C2" {
		t.Errorf("Clusters = %v, want [C1 C2]", users[0].Clusters)
	}
	if users[1].Clusters != nil {
		t.Errorf("empty Clusters = %v, want nil", users[1].Clusters)
	}
}

func TestParseCollections(t *testing.T) {
	in := "S.No.,New Assessment No,Old Assessment No,Owner Name,Guardian Name,Door No,Date of Payment,Receipt No,Payment Source,Payment Mode,Due Year,Demand Category,TOTAL Tax (Rs.),Receipt Status,Settlement at CFMS\n" +
		"1,1001,889,Ramesh Kumar,Suresh Kumar,12-3,15-06-2024 10:30,TAX1718440200000,Admin Portal,Cash,Current,Current,500,Success,Pending\n"

	cols, err := ParseCollections(strings.NewReader(in))
	if err != nil {
		t.Fatalf("ParseCollections: %v", err)
	}
	if len(cols) != 1 {
		t.Fatalf("got %d collections, want 1", len(cols))
	}
	c := cols[0]
	if c.TotalTax != 500 {
		t.Errorf("TotalTax = %d, want 500", c.TotalTax)
	}
	if c.ReceiptNo != "TAX1718440200000" {
		t.Errorf("ReceiptNo = %q", c.ReceiptNo)
	}
}

func TestParseTableShortRecord(t *testing.T) {
	in := "AssessmentNo,Date,EventType,Description,FromOwner,ToOwner\n" +
		"1001,01-01-2024,Created,Initial record\n"

	hist, err := ParseHistory(strings.NewReader(in))
	if err != nil {
		t.Fatalf("ParseHistory: %v", err)
	}
	if len(hist) != 1 {
		t.Fatalf("got %d rows, want 1", len(hist))
	}
	if hist[0].ToOwner != "" {
		t.Errorf("padded ToOwner = %q, want empty", hist[0].ToOwner)
	}
}
