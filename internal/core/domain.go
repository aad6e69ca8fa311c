package core

import (
	"errors"
	"strings"
)

const (
	RoleSuperAdmin Role = "SUPER_ADMIN"
	RoleAdmin      Role = "ADMIN"
	RoleUser       Role = "USER"
)

// Household edit sections. Section is free text in general; these two carry
// special save-time behaviour.
const (
	SectionOwnerDetails  = "Owner Details"
	SectionDemandDetails = "Demand Details"
)

type (
	Role string

	// Boundaries holds the four neighbouring-property descriptions.
	Boundaries struct {
		East  string `json:"east"`
		West  string `json:"west"`
		North string `json:"north"`
		South string `json:"south"`
	}

	// DemandDetail is one fiscal year's tax bill, split into seven additive
	// components. TotalDemand is the cached sum of the seven.
	DemandDetail struct {
		DemandYear  string `json:"demandYear"`
		PropertyTax int64  `json:"propertyTax"`
		LibraryCess int64  `json:"libraryCess"`
		LightingTax int64  `json:"lightingTax"`
		DrainageTax int64  `json:"drainageTax"`
		SportsCess  int64  `json:"sportsCess"`
		FireTax     int64  `json:"fireTax"`
		WaterTax    int64  `json:"waterTax"`
		TotalDemand int64  `json:"totalDemand"`
	}

	// TapDemandDetail is one fiscal year's tap (water connection) fee.
	TapDemandDetail struct {
		DemandYear   string `json:"demandYear"`
		TapFeeDemand int64  `json:"tapFeeDemand"`
		Remarks      string `json:"remarks"`
	}

	// PaymentRecord is one payment transaction. Immutable once created.
	// Multiple records may share one ReceiptNo when a payment event is split
	// across due-year/category lines.
	PaymentRecord struct {
		SNo            string `json:"sNo"`
		ReceiptNo      string `json:"receiptNo"`
		DateOfPayment  string `json:"dateOfPayment"`
		PaymentSource  string `json:"paymentSource"`
		PaymentMode    string `json:"paymentMode"`
		Amount         int64  `json:"amount"`
		Status         string `json:"status"`
		CFMSStatus     string `json:"cfmsStatus"`
		DueYear        string `json:"dueYear"`
		DemandCategory string `json:"demandCategory"`
		GuardianName   string `json:"guardianName,omitempty"`
	}

	// HistoryRecord is one property lifecycle event (construction, sale,
	// mutation and so on).
	HistoryRecord struct {
		Date        string `json:"date"`
		EventType   string `json:"eventType"`
		Description string `json:"description"`
		FromOwner   string `json:"fromOwner,omitempty"`
		ToOwner     string `json:"toOwner,omitempty"`
	}

	// AuditLog records one committed edit transaction.
	AuditLog struct {
		Timestamp string   `json:"timestamp"`
		UserID    string   `json:"userId"`
		UserName  string   `json:"userName"`
		Section   string   `json:"section"`
		Changes   []string `json:"changes"`
	}

	// Household is one property/taxpayer unit, keyed by assessment number.
	// TotalDemand and TotalCollected are cached at merge and payment/edit
	// time; direct mutation of the slices bypassing the registry will
	// desynchronise them.
	Household struct {
		ID        string `json:"id"`
		ClusterID string `json:"clusterId"`

		// Owner details
		AssessmentNumber    string `json:"assessmentNumber"`
		OldAssessmentNumber string `json:"oldAssessmentNumber"`
		OwnerName           string `json:"ownerName"`
		MobileNumber        string `json:"mobileNumber"`
		AadharNumber        string `json:"aadharNumber"`
		Gender              string `json:"gender"`
		RelationType        string `json:"relationType"`
		GuardianName        string `json:"guardianName"`
		SurveyNumber        string `json:"surveyNumber"`
		DoorNumber          string `json:"doorNumber"`
		Address             string `json:"address"`

		// Property details
		BuildingAge       string `json:"buildingAge"`
		NatureOfProperty  string `json:"natureOfProperty"`
		NatureOfLandUse   string `json:"natureOfLandUse"`
		NatureOfUsage     string `json:"natureOfUsage"`
		NatureOfOwnership string `json:"natureOfOwnership"`
		ModeOfAcquisition string `json:"modeOfAcquisition"`

		Boundaries Boundaries `json:"boundaries"`

		// Floor details
		FloorDescription               string `json:"floorDescription"`
		ClassificationDescription      string `json:"classificationDescription"`
		BuildingCategoryDescription    string `json:"buildingCategoryDescription"`
		OccupancyDescription           string `json:"occupancyDescription"`
		ConstructionDate               string `json:"constructionDate"`
		EffectiveFromDate              string `json:"effectiveFromDate"`
		BuildingAgeDate                string `json:"buildingAgeDate"`
		FloorLength                    int64  `json:"floorLength"`
		FloorBreadth                   int64  `json:"floorBreadth"`
		TotalFloorArea                 int64  `json:"totalFloorArea"`
		SubtypeConstructionDescription string `json:"subtypeConstructionDescription"`

		// Site/building valuation
		SiteLength              int64  `json:"siteLength"`
		SiteBreadth             int64  `json:"siteBreadth"`
		SiteCapitalValue        int64  `json:"siteCapitalValue"`
		SiteRatePerSqYard       int64  `json:"siteRatePerSqYard"`
		BuildingTypeDescription string `json:"buildingTypeDescription"`
		BuildingCapitalValue    int64  `json:"buildingCapitalValue"`
		BuildingRatePerSqFeet   int64  `json:"buildingRatePerSqFeet"`

		DemandDetails []DemandDetail    `json:"demandDetails"`
		TapDemands    []TapDemandDetail `json:"tapDemands"`

		TotalDemand    int64 `json:"totalDemand"`
		TotalCollected int64 `json:"totalCollected"`

		PaymentHistory []PaymentRecord `json:"paymentHistory"`
		History        []HistoryRecord `json:"history"`
		AuditLogs      []AuditLog      `json:"auditLogs"`
	}

	// Cluster is the derived rollup over households sharing a ClusterID.
	Cluster struct {
		ID              string `json:"id"`
		Code            string `json:"code"`
		Name            string `json:"name"`
		TotalHouseholds int    `json:"totalHouseholds"`
		TotalDemand     int64  `json:"totalDemand"`
		TotalCollected  int64  `json:"totalCollected"`
	}

	// User is a portal account. Clusters restricts visibility for RoleUser.
	User struct {
		ID       string   `json:"id"`
		Name     string   `json:"name"`
		Password string   `json:"-"`
		Phone    string   `json:"phone"`
		Role     Role     `json:"role"`
		Clusters []string `json:"clusters"`
	}
)

var (
	ErrNotFound               = errors.New("not found")
	ErrInvalidAmount          = errors.New("payment amount must be positive")
	ErrMissingAcquisitionMode = errors.New("mode of acquisition is required for ownership changes")
)

// CanAccessCluster reports whether the user may see the given cluster.
// Only RoleUser accounts are restricted.
func (u User) CanAccessCluster(clusterID string) bool {
	if u.Role != RoleUser {
		return true
	}
	for _, c := range u.Clusters {
		if c == clusterID {
			return true
		}
	}
	return false
}

// SumDemand recomputes the demand total from the per-year rows. The cached
// TotalDemand is authoritative at runtime; this is the recompute law behind it.
func (h *Household) SumDemand() int64 {
	var sum int64
	for _, d := range h.DemandDetails {
		sum += d.TotalDemand
	}
	return sum
}

// SumCollected recomputes the collected total from the payment history.
func (h *Household) SumCollected() int64 {
	var sum int64
	for _, p := range h.PaymentHistory {
		sum += p.Amount
	}
	return sum
}

// PendingAmount is the outstanding balance, clamped at zero for display.
// Overpayment is allowed, so the raw difference can be negative.
func (h *Household) PendingAmount() int64 {
	if pending := h.TotalDemand - h.TotalCollected; pending > 0 {
		return pending
	}
	return 0
}

// Clone returns a deep copy of the household. Edit drafts are clones so that
// the committed record stays untouched until save.
func (h *Household) Clone() *Household {
	c := *h
	c.DemandDetails = append([]DemandDetail(nil), h.DemandDetails...)
	c.TapDemands = append([]TapDemandDetail(nil), h.TapDemands...)
	c.PaymentHistory = append([]PaymentRecord(nil), h.PaymentHistory...)
	c.History = append([]HistoryRecord(nil), h.History...)
	c.AuditLogs = make([]AuditLog, len(h.AuditLogs))
	for i, l := range h.AuditLogs {
		c.AuditLogs[i] = l
		c.AuditLogs[i].Changes = append([]string(nil), l.Changes...)
	}
	return &c
}

// MatchesQuery reports whether the household matches a search query:
// substring on assessment number, owner name (case-insensitive) or mobile.
func (h *Household) MatchesQuery(query string) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return false
	}
	return strings.Contains(h.AssessmentNumber, q) ||
		strings.Contains(strings.ToLower(h.OwnerName), q) ||
		strings.Contains(h.MobileNumber, q)
}
