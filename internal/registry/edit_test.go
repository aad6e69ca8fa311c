package registry

import (
	"errors"
	"strings"
	"testing"
	"time"

	"housetax/internal/core"
)

var editAt = time.Date(2024, time.July, 1, 12, 0, 0, 0, time.UTC)

func TestEditSaveAppendsAudit(t *testing.T) {
	r := newTestRegistry()
	admin, _ := r.Authenticate("admin", "secret")

	draft, err := r.BeginEdit("1001")
	if err != nil {
		t.Fatalf("BeginEdit: %v", err)
	}
	draft.MobileNumber = "9999999999"
	if err := r.SetDraft(draft); err != nil {
		t.Fatalf("SetDraft: %v", err)
	}

	saved, changes, err := r.SaveEdit("1001", "Property Details", admin, editAt)
	if err != nil {
		t.Fatalf("SaveEdit: %v", err)
	}
	if len(changes) != 1 || changes[0] != `mobileNumber: "9876543210" -> "9999999999"` {
		t.Errorf("changes = %v", changes)
	}
	if len(saved.AuditLogs) != 1 {
		t.Fatalf("audit logs = %d, want 1", len(saved.AuditLogs))
	}
	log := saved.AuditLogs[0]
	if log.UserID != "admin" || log.Section != "Property Details" || log.Timestamp != "01-07-2024 12:00" {
		t.Errorf("audit log = %+v", log)
	}

	// Committed for real.
	h, _ := r.HouseholdByID("1001")
	if h.MobileNumber != "9999999999" {
		t.Error("edit not committed")
	}
}

func TestEditSaveEmptyDiffSkipsAudit(t *testing.T) {
	r := newTestRegistry()
	admin, _ := r.Authenticate("admin", "secret")

	if _, err := r.BeginEdit("1001"); err != nil {
		t.Fatal(err)
	}
	saved, changes, err := r.SaveEdit("1001", "Property Details", admin, editAt)
	if err != nil {
		t.Fatalf("SaveEdit: %v", err)
	}
	if len(changes) != 0 {
		t.Errorf("changes = %v, want empty", changes)
	}
	if len(saved.AuditLogs) != 0 {
		t.Error("empty diff still appended an audit entry")
	}
}

func TestOwnerEditRequiresAcquisitionMode(t *testing.T) {
	r := newTestRegistry()
	admin, _ := r.Authenticate("admin", "secret")

	draft, _ := r.BeginEdit("1001")
	draft.OwnerName = "Suresh Kumar"
	draft.ModeOfAcquisition = ""
	if err := r.SetDraft(draft); err != nil {
		t.Fatal(err)
	}
	if _, _, err := r.SaveEdit("1001", core.SectionOwnerDetails, admin, editAt); !errors.Is(err, core.ErrMissingAcquisitionMode) {
		t.Fatalf("err = %v, want ErrMissingAcquisitionMode", err)
	}
	// The draft survives a rejected save.
	if _, err := r.Draft("1001"); err != nil {
		t.Errorf("draft discarded on rejected save: %v", err)
	}

	draft.ModeOfAcquisition = "Sale Deed"
	if err := r.SetDraft(draft); err != nil {
		t.Fatal(err)
	}
	saved, _, err := r.SaveEdit("1001", core.SectionOwnerDetails, admin, editAt)
	if err != nil {
		t.Fatalf("SaveEdit: %v", err)
	}
	if len(saved.History) == 0 || saved.History[0].EventType != "Mutation" {
		t.Fatalf("history = %+v, want leading Mutation event", saved.History)
	}
	ev := saved.History[0]
	if ev.FromOwner != "Ramesh Kumar" || ev.ToOwner != "Suresh Kumar" {
		t.Errorf("mutation event = %+v", ev)
	}
	if !strings.Contains(ev.Description, "Sale Deed") {
		t.Errorf("description %q missing acquisition mode", ev.Description)
	}
}

func TestDemandEditCascadesAndResums(t *testing.T) {
	r := newTestRegistry()
	admin, _ := r.Authenticate("admin", "secret")

	if _, err := r.BeginEdit("1001"); err != nil {
		t.Fatal(err)
	}
	if err := r.SetDraftPropertyTax("1001", "2024-25", 1000); err != nil {
		t.Fatalf("SetDraftPropertyTax: %v", err)
	}
	saved, changes, err := r.SaveEdit("1001", core.SectionDemandDetails, admin, editAt)
	if err != nil {
		t.Fatalf("SaveEdit: %v", err)
	}

	d := saved.DemandDetails[0]
	if d.PropertyTax != 1000 || d.LibraryCess != 80 || d.WaterTax != 80 ||
		d.DrainageTax != 100 || d.LightingTax != 100 || d.SportsCess != 30 || d.FireTax != 10 {
		t.Errorf("cascade wrong: %+v", d)
	}
	if d.TotalDemand != 1400 {
		t.Errorf("row total = %d, want 1400", d.TotalDemand)
	}
	if saved.TotalDemand != saved.SumDemand() {
		t.Errorf("household total %d desynced from rows %d", saved.TotalDemand, saved.SumDemand())
	}
	if len(changes) == 0 {
		t.Error("demand edit produced no change strings")
	}

	c1, _ := r.ClusterByID("C1")
	if c1.TotalDemand != saved.TotalDemand {
		t.Errorf("cluster rollup %d not recomputed to %d", c1.TotalDemand, saved.TotalDemand)
	}
}

func TestCancelEditDiscardsDraft(t *testing.T) {
	r := newTestRegistry()
	admin, _ := r.Authenticate("admin", "secret")

	draft, _ := r.BeginEdit("1001")
	draft.OwnerName = "Someone Else"
	if err := r.SetDraft(draft); err != nil {
		t.Fatal(err)
	}
	r.CancelEdit("1001")

	if _, err := r.Draft("1001"); !errors.Is(err, ErrNoActiveEdit) {
		t.Errorf("Draft after cancel err = %v", err)
	}
	if _, _, err := r.SaveEdit("1001", core.SectionOwnerDetails, admin, editAt); !errors.Is(err, ErrNoActiveEdit) {
		t.Errorf("SaveEdit after cancel err = %v", err)
	}
	h, _ := r.HouseholdByID("1001")
	if h.OwnerName != "Ramesh Kumar" {
		t.Error("cancelled edit leaked into committed record")
	}
}
