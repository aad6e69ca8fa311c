package registry

import (
	"errors"
	"fmt"
	"time"

	"housetax/internal/audit"
	"housetax/internal/core"
)

var ErrNoActiveEdit = errors.New("no active edit for household")

// BeginEdit opens an edit session: a deep-copied draft is kept alongside
// the committed record until SaveEdit or CancelEdit. Beginning again while
// a draft exists discards the stale draft.
func (r *Registry) BeginEdit(householdID string) (*core.Household, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	h, ok := r.index[householdID]
	if !ok {
		return nil, core.ErrNotFound
	}
	if r.drafts == nil {
		r.drafts = make(map[string]*core.Household)
	}
	r.drafts[householdID] = h.Clone()
	return r.drafts[householdID].Clone(), nil
}

// Draft returns a copy of the in-flight draft.
func (r *Registry) Draft(householdID string) (*core.Household, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.drafts[householdID]
	if !ok {
		return nil, ErrNoActiveEdit
	}
	return d.Clone(), nil
}

// SetDraft stages edited field values onto the draft. The collections and
// cached totals of the draft are kept as-is; only SaveEdit recomputes them.
func (r *Registry) SetDraft(modified *core.Household) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.drafts[modified.ID]; !ok {
		return ErrNoActiveEdit
	}
	r.drafts[modified.ID] = modified.Clone()
	return nil
}

// SetDraftPropertyTax applies the designated property-tax edit to one
// demand year of the draft, cascading the dependent components.
func (r *Registry) SetDraftPropertyTax(householdID, demandYear string, propertyTax int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.drafts[householdID]
	if !ok {
		return ErrNoActiveEdit
	}
	for i := range d.DemandDetails {
		if d.DemandDetails[i].DemandYear == demandYear {
			d.DemandDetails[i].SetPropertyTax(propertyTax)
			return nil
		}
	}
	return core.ErrNotFound
}

// CancelEdit discards the draft.
func (r *Registry) CancelEdit(householdID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.drafts, householdID)
}

// SaveEdit commits the draft as the new canonical record. Owner-detail
// saves require a mode of acquisition, and an owner change appends a
// mutation event to the lifecycle history. The change diff is computed
// against the committed record; a non-empty diff appends an audit entry,
// an empty diff commits silently. Demand-detail saves re-sum the edited
// rows and the household total.
func (r *Registry) SaveEdit(householdID, section string, actor core.User, at time.Time) (*core.Household, []string, error) {
	r.mu.Lock()
	draft, ok := r.drafts[householdID]
	if !ok {
		r.mu.Unlock()
		return nil, nil, ErrNoActiveEdit
	}
	committed, ok := r.index[householdID]
	if !ok {
		r.mu.Unlock()
		return nil, nil, core.ErrNotFound
	}

	if section == core.SectionOwnerDetails && draft.ModeOfAcquisition == "" {
		r.mu.Unlock()
		return nil, nil, core.ErrMissingAcquisitionMode
	}
	if section == core.SectionDemandDetails {
		for i := range draft.DemandDetails {
			draft.DemandDetails[i].Recalc()
		}
		draft.TotalDemand = draft.SumDemand()
	}

	changes := audit.Diff(committed, draft)

	if section == core.SectionOwnerDetails && draft.OwnerName != committed.OwnerName {
		draft.History = append([]core.HistoryRecord{{
			Date:      at.Format(core.PaymentDateLayout),
			EventType: "Mutation",
			Description: fmt.Sprintf("Ownership transferred by %s from %s to %s",
				draft.ModeOfAcquisition, committed.OwnerName, draft.OwnerName),
			FromOwner: committed.OwnerName,
			ToOwner:   draft.OwnerName,
		}}, draft.History...)
	}
	if len(changes) > 0 {
		draft.AuditLogs = append([]core.AuditLog{{
			Timestamp: core.FormatPaymentTime(at),
			UserID:    actor.ID,
			UserName:  actor.Name,
			Section:   section,
			Changes:   changes,
		}}, draft.AuditLogs...)
	}

	for i, h := range r.households {
		if h.ID == householdID {
			r.households[i] = draft
			break
		}
	}
	r.index[householdID] = draft
	delete(r.drafts, householdID)
	notify := r.recomputeLocked(householdID)
	r.mu.Unlock()
	notify()
	return draft.Clone(), changes, nil
}
