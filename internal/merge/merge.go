// Package merge builds the denormalized household registry from the five
// flat registers. The join is owner-driven: every owner row yields exactly
// one household, and property/demand/collection/history rows that match no
// owner are dropped.
package merge

import (
	"sort"
	"strings"

	"housetax/internal/core"
	"housetax/internal/loader"
)

// Owner rows without a cluster assignment land in the first cluster.
const defaultClusterID = "C1"

// Build joins the parsed registers into one household per owner row.
// Demand rows are kept in source order and never corrected: a stored row
// whose cached total disagrees with its components is preserved as-is.
// History rows are sorted newest-first by date. Tap demand rows with no fee
// and no remarks are skipped.
func Build(regs *loader.Registers) []*core.Household {
	properties := make(map[string]loader.RawProperty, len(regs.Properties))
	for _, p := range regs.Properties {
		properties[strings.TrimSpace(p.AssessmentNo)] = p
	}
	demands := make(map[string][]loader.RawDemand)
	for _, d := range regs.Demands {
		key := strings.TrimSpace(d.AssessmentNo)
		demands[key] = append(demands[key], d)
	}
	collections := make(map[string][]loader.RawCollection)
	for _, c := range regs.Collections {
		key := strings.TrimSpace(c.NewAssessmentNo)
		collections[key] = append(collections[key], c)
	}
	history := make(map[string][]loader.RawHistory)
	for _, h := range regs.History {
		key := strings.TrimSpace(h.AssessmentNo)
		history[key] = append(history[key], h)
	}

	households := make([]*core.Household, 0, len(regs.Owners))
	for _, o := range regs.Owners {
		id := strings.TrimSpace(o.AssessmentNo)
		clusterID := strings.TrimSpace(o.ClusterID)
		if clusterID == "" {
			clusterID = defaultClusterID
		}
		h := &core.Household{
			ID:               id,
			ClusterID:        clusterID,
			AssessmentNumber: id,
			OwnerName:        o.OwnerName,
			MobileNumber:     o.Mobile,
			AadharNumber:     o.Aadhar,
			Gender:           o.Gender,
			RelationType:     "Father",
			GuardianName:     o.GuardianName,
			DoorNumber:       o.DoorNo,
			Address:          o.Address,
		}

		if p, ok := properties[id]; ok {
			applyProperty(h, p)
		}

		for _, d := range demands[id] {
			h.DemandDetails = append(h.DemandDetails, core.DemandDetail{
				DemandYear:  d.DemandYear,
				PropertyTax: d.PropertyTax,
				LibraryCess: d.LibraryCess,
				LightingTax: d.LightingTax,
				DrainageTax: d.DrainageTax,
				SportsCess:  d.SportsCess,
				FireTax:     d.FireTax,
				WaterTax:    d.WaterTax,
				TotalDemand: d.TotalDemand,
			})
			if d.TapFeeDemand > 0 || d.TapRemarks != "" {
				h.TapDemands = append(h.TapDemands, core.TapDemandDetail{
					DemandYear:   d.DemandYear,
					TapFeeDemand: d.TapFeeDemand,
					Remarks:      d.TapRemarks,
				})
			}
		}

		for _, c := range collections[id] {
			h.PaymentHistory = append(h.PaymentHistory, core.PaymentRecord{
				SNo:            c.SNo,
				ReceiptNo:      c.ReceiptNo,
				DateOfPayment:  c.DateOfPayment,
				PaymentSource:  c.PaymentSource,
				PaymentMode:    c.PaymentMode,
				Amount:         c.TotalTax,
				Status:         c.ReceiptStatus,
				CFMSStatus:     c.CFMSStatus,
				DueYear:        c.DueYear,
				DemandCategory: c.DemandCategory,
				GuardianName:   c.GuardianName,
			})
			if c.OldAssessmentNo != "" && h.OldAssessmentNumber == "" {
				h.OldAssessmentNumber = c.OldAssessmentNo
			}
		}

		for _, ev := range history[id] {
			h.History = append(h.History, core.HistoryRecord{
				Date:        ev.Date,
				EventType:   ev.EventType,
				Description: ev.Description,
				FromOwner:   ev.FromOwner,
				ToOwner:     ev.ToOwner,
			})
		}
		sort.SliceStable(h.History, func(i, j int) bool {
			return core.ParsePaymentDate(h.History[i].Date).After(core.ParsePaymentDate(h.History[j].Date))
		})

		h.TotalDemand = h.SumDemand()
		h.TotalCollected = h.SumCollected()
		households = append(households, h)
	}
	return households
}

func applyProperty(h *core.Household, p loader.RawProperty) {
	h.OldAssessmentNumber = p.OldAssessmentNo
	h.SurveyNumber = p.SurveyNo
	h.BuildingAge = p.BuildingAge
	h.BuildingAgeDate = p.BuildingAge
	h.NatureOfProperty = p.NatureOfProperty
	h.NatureOfLandUse = p.NatureOfLandUse
	h.NatureOfUsage = p.NatureOfUsage
	h.NatureOfOwnership = p.NatureOfOwnership
	h.ModeOfAcquisition = p.ModeOfAcquisition
	h.Boundaries = core.Boundaries{
		East:  p.East,
		West:  p.West,
		North: p.North,
		South: p.South,
	}
	h.FloorDescription = p.FloorDesc
	h.ClassificationDescription = p.ClassDesc
	h.BuildingCategoryDescription = p.BldgCat
	h.OccupancyDescription = p.OccDesc
	h.ConstructionDate = p.ConstDate
	h.EffectiveFromDate = p.EffDate
	h.FloorLength = p.FloorLen
	h.FloorBreadth = p.FloorBreadth
	h.TotalFloorArea = p.TotalFloorArea
	h.SubtypeConstructionDescription = p.SubtypeDesc
	h.SiteLength = p.SiteLen
	h.SiteBreadth = p.SiteBreadth
	h.SiteCapitalValue = p.SiteCapVal
	h.SiteRatePerSqYard = p.SiteRate
	h.BuildingTypeDescription = p.BldgType
	h.BuildingCapitalValue = p.BldgCapVal
	h.BuildingRatePerSqFeet = p.BldgRate
}

// Users converts user rows to accounts. Unknown role strings fall back to
// the restricted USER role.
func Users(rows []loader.RawUser) []core.User {
	users := make([]core.User, 0, len(rows))
	for _, r := range rows {
		role := core.Role(strings.ToUpper(strings.TrimSpace(r.Role)))
		switch role {
		case core.RoleSuperAdmin, core.RoleAdmin, core.RoleUser:
		default:
			role = core.RoleUser
		}
		users = append(users, core.User{
			ID:       r.UserID,
			Name:     r.Name,
			Password: r.Password,
			Phone:    r.Phone,
			Role:     role,
			Clusters: append([]string(nil), r.Clusters...),
		})
	}
	return users
}

// DeriveClusters recomputes the full cluster rollup from the household set.
// Called after every mutation rather than maintained incrementally.
func DeriveClusters(households []*core.Household) []core.Cluster {
	byID := make(map[string]*core.Cluster)
	var order []string
	for _, h := range households {
		if h.ClusterID == "" {
			continue
		}
		c, ok := byID[h.ClusterID]
		if !ok {
			c = &core.Cluster{
				ID:   h.ClusterID,
				Code: h.ClusterID,
				Name: "Cluster " + strings.TrimPrefix(h.ClusterID, "C"),
			}
			byID[h.ClusterID] = c
			order = append(order, h.ClusterID)
		}
		c.TotalHouseholds++
		c.TotalDemand += h.TotalDemand
		c.TotalCollected += h.TotalCollected
	}
	sort.Strings(order)
	clusters := make([]core.Cluster, 0, len(order))
	for _, id := range order {
		clusters = append(clusters, *byID[id])
	}
	return clusters
}
