// Package registry owns the canonical in-memory household, cluster and user
// collections. All mutation goes through its methods so the cached totals
// and the cluster rollup never drift, and subscribers hear about every
// committed change.
package registry

import (
	"sort"
	"sync"
	"time"

	"housetax/internal/allocation"
	"housetax/internal/core"
	"housetax/internal/merge"
)

// Subscriber receives the id of the household that changed. Called after
// the mutation and the cluster recompute, never before.
type Subscriber func(householdID string)

type Registry struct {
	mu         sync.Mutex
	households []*core.Household
	index      map[string]*core.Household
	clusters   []core.Cluster
	users      []core.User
	subs       []Subscriber
	drafts     map[string]*core.Household
}

// New takes ownership of the merged households and users and derives the
// initial cluster rollup.
func New(households []*core.Household, users []core.User) *Registry {
	r := &Registry{
		households: households,
		index:      make(map[string]*core.Household, len(households)),
		users:      users,
	}
	for _, h := range households {
		r.index[h.ID] = h
	}
	r.clusters = merge.DeriveClusters(households)
	return r
}

// Subscribe registers a change listener. There is no unsubscribe; listeners
// live as long as the registry.
func (r *Registry) Subscribe(fn Subscriber) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.subs = append(r.subs, fn)
}

// recomputeLocked refreshes the cluster rollup and snapshots the listener
// list. The caller invokes the returned notify func after unlocking.
func (r *Registry) recomputeLocked(householdID string) func() {
	r.clusters = merge.DeriveClusters(r.households)
	subs := append([]Subscriber(nil), r.subs...)
	return func() {
		for _, fn := range subs {
			fn(householdID)
		}
	}
}

// HouseholdByID returns a deep copy of the household, or ErrNotFound.
func (r *Registry) HouseholdByID(id string) (*core.Household, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	h, ok := r.index[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	return h.Clone(), nil
}

// HouseholdsByCluster returns copies of the households in the cluster, in
// registry order.
func (r *Registry) HouseholdsByCluster(clusterID string) []*core.Household {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*core.Household
	for _, h := range r.households {
		if h.ClusterID == clusterID {
			out = append(out, h.Clone())
		}
	}
	return out
}

// SearchHouseholds matches the query against assessment number, owner name
// and mobile number. A USER-role actor only sees their assigned clusters.
func (r *Registry) SearchHouseholds(query string, actor core.User) []*core.Household {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*core.Household
	for _, h := range r.households {
		if !actor.CanAccessCluster(h.ClusterID) {
			continue
		}
		if h.MatchesQuery(query) {
			out = append(out, h.Clone())
		}
	}
	return out
}

// ClusterByID returns the rollup for one cluster, or ErrNotFound.
func (r *Registry) ClusterByID(id string) (core.Cluster, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.clusters {
		if c.ID == id {
			return c, nil
		}
	}
	return core.Cluster{}, core.ErrNotFound
}

// ClustersForUser lists the clusters visible to the actor.
func (r *Registry) ClustersForUser(actor core.User) []core.Cluster {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []core.Cluster
	for _, c := range r.clusters {
		if actor.CanAccessCluster(c.ID) {
			out = append(out, c)
		}
	}
	return out
}

// Stats is the dashboard rollup across the clusters visible to one actor.
type Stats struct {
	TotalClusters   int   `json:"totalClusters"`
	TotalHouseholds int   `json:"totalHouseholds"`
	TotalDemand     int64 `json:"totalDemand"`
	TotalCollected  int64 `json:"totalCollected"`
	TotalPending    int64 `json:"totalPending"`
}

func (r *Registry) DashboardStats(actor core.User) Stats {
	r.mu.Lock()
	defer r.mu.Unlock()
	var s Stats
	for _, c := range r.clusters {
		if !actor.CanAccessCluster(c.ID) {
			continue
		}
		s.TotalClusters++
		s.TotalHouseholds += c.TotalHouseholds
		s.TotalDemand += c.TotalDemand
		s.TotalCollected += c.TotalCollected
	}
	if pending := s.TotalDemand - s.TotalCollected; pending > 0 {
		s.TotalPending = pending
	}
	return s
}

// PaymentRow is one line of the flattened collection register.
type PaymentRow struct {
	AssessmentNumber string `json:"assessmentNumber"`
	OwnerName        string `json:"ownerName"`
	ClusterID        string `json:"clusterId"`
	core.PaymentRecord
}

// AllPayments flattens every visible household's payment history into one
// register sorted newest-first by payment date. Rows with unparseable dates
// sort last.
func (r *Registry) AllPayments(actor core.User) []PaymentRow {
	r.mu.Lock()
	defer r.mu.Unlock()
	var rows []PaymentRow
	for _, h := range r.households {
		if !actor.CanAccessCluster(h.ClusterID) {
			continue
		}
		for _, p := range h.PaymentHistory {
			rows = append(rows, PaymentRow{
				AssessmentNumber: h.AssessmentNumber,
				OwnerName:        h.OwnerName,
				ClusterID:        h.ClusterID,
				PaymentRecord:    p,
			})
		}
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return core.ParsePaymentDate(rows[i].DateOfPayment).
			After(core.ParsePaymentDate(rows[j].DateOfPayment))
	})
	return rows
}

// Receipt returns the sibling payment records sharing one receipt number on
// a household, for receipt display.
func (r *Registry) Receipt(householdID, receiptNo string) ([]core.PaymentRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	h, ok := r.index[householdID]
	if !ok {
		return nil, core.ErrNotFound
	}
	var out []core.PaymentRecord
	for _, p := range h.PaymentHistory {
		if p.ReceiptNo == receiptNo {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return nil, core.ErrNotFound
	}
	return out, nil
}

// Authenticate checks credentials and returns the account.
func (r *Registry) Authenticate(userID, password string) (core.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.ID == userID && u.Password == password {
			return u, nil
		}
	}
	return core.User{}, core.ErrNotFound
}

// UserByID returns the account without credential checks.
func (r *Registry) UserByID(userID string) (core.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.ID == userID {
			return u, nil
		}
	}
	return core.User{}, core.ErrNotFound
}

func (r *Registry) UpdateUserPassword(userID, password string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.users {
		if r.users[i].ID == userID {
			r.users[i].Password = password
			return nil
		}
	}
	return core.ErrNotFound
}

// UpdateHousehold replaces the stored record wholesale, recomputes the
// cluster rollup and notifies subscribers. Remote register refreshes come
// through here; portal edits go through the draft lifecycle instead.
func (r *Registry) UpdateHousehold(h *core.Household) error {
	r.mu.Lock()
	if _, ok := r.index[h.ID]; !ok {
		r.mu.Unlock()
		return core.ErrNotFound
	}
	clone := h.Clone()
	for i, existing := range r.households {
		if existing.ID == h.ID {
			r.households[i] = clone
			break
		}
	}
	r.index[h.ID] = clone
	notify := r.recomputeLocked(h.ID)
	r.mu.Unlock()
	notify()
	return nil
}

// AddPayment allocates the amount against the household at the given
// instant, recomputes the cluster rollup and notifies subscribers. Returns
// the payment record and the tax breakdown for the remote push.
func (r *Registry) AddPayment(householdID string, amount int64, mode string, at time.Time) (core.PaymentRecord, allocation.Breakdown, error) {
	r.mu.Lock()
	h, ok := r.index[householdID]
	if !ok {
		r.mu.Unlock()
		return core.PaymentRecord{}, allocation.Breakdown{}, core.ErrNotFound
	}
	rec, breakdown, err := allocation.Allocate(h, amount, mode, at)
	if err != nil {
		r.mu.Unlock()
		return core.PaymentRecord{}, allocation.Breakdown{}, err
	}
	notify := r.recomputeLocked(householdID)
	r.mu.Unlock()
	notify()
	return rec, breakdown, nil
}
