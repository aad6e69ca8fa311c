package http

import (
	"net/http"
	"strings"
	"time"

	"housetax/internal/core"
	"housetax/internal/log"
)

// actor resolves the authenticated account from the X-User-Id header.
// Session management lives in front of this service; the portal gateway
// forwards the verified user id on every request.
func (s *Server) actor(r *http.Request) (core.User, bool) {
	id := strings.TrimSpace(r.Header.Get("X-User-Id"))
	if id == "" {
		return core.User{}, false
	}
	u, err := s.registry.UserByID(id)
	if err != nil {
		return core.User{}, false
	}
	return u, true
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "healthy",
		"uptime": time.Since(s.started).String(),
	})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.registry == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "not ready",
			"reason": "registry not loaded",
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID   string `json:"userId"`
		Password string `json:"password"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	user, err := s.registry.Authenticate(req.UserID, req.Password)
	if err != nil {
		s.logger.Warn("Login failed",
			log.FieldUserID, req.UserID,
			log.FieldClientIP, clientIP(r))
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (s *Server) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.actor(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	var req struct {
		Password string `json:"password"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.Password) == "" {
		writeError(w, http.StatusBadRequest, "password must not be empty")
		return
	}
	if err := s.registry.UpdateUserPassword(actor.ID, req.Password); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.actor(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	writeJSON(w, http.StatusOK, s.registry.DashboardStats(actor))
}

func (s *Server) handleClusters(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.actor(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	writeJSON(w, http.StatusOK, s.registry.ClustersForUser(actor))
}

func (s *Server) handleClusterHouseholds(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.actor(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	clusterID := r.PathValue("id")
	if !actor.CanAccessCluster(clusterID) {
		writeError(w, http.StatusForbidden, "cluster not accessible")
		return
	}
	if _, err := s.registry.ClusterByID(clusterID); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.registry.HouseholdsByCluster(clusterID))
}

func (s *Server) handleHousehold(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.actor(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	h, err := s.registry.HouseholdByID(r.PathValue("id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if !actor.CanAccessCluster(h.ClusterID) {
		writeError(w, http.StatusForbidden, "cluster not accessible")
		return
	}
	writeJSON(w, http.StatusOK, h)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.actor(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	query := r.URL.Query().Get("q")
	results := s.registry.SearchHouseholds(query, actor)
	log.FromContext(r.Context()).Info("Search executed",
		log.FieldOperation, log.OpSearch,
		log.FieldUserID, actor.ID,
		"results", len(results))
	writeJSON(w, http.StatusOK, results)
}

func (s *Server) handlePayments(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.actor(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	writeJSON(w, http.StatusOK, s.registry.AllPayments(actor))
}

func (s *Server) handleReceipt(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.actor(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	householdID := r.PathValue("id")
	h, err := s.registry.HouseholdByID(householdID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if !actor.CanAccessCluster(h.ClusterID) {
		writeError(w, http.StatusForbidden, "cluster not accessible")
		return
	}
	records, err := s.registry.Receipt(householdID, r.PathValue("receiptNo"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"assessmentNumber": h.AssessmentNumber,
		"ownerName":        h.OwnerName,
		"payments":         records,
	})
}

func (s *Server) handleAddPayment(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.actor(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	householdID := r.PathValue("id")
	var req struct {
		Amount int64  `json:"amount"`
		Mode   string `json:"mode"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Mode == "" {
		req.Mode = "Cash"
	}
	record, breakdown, err := s.tax.RecordPayment(r.Context(), householdID, req.Amount, req.Mode)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	s.logger.Info("Payment recorded",
		log.FieldOperation, log.OpPayment,
		log.FieldUserID, actor.ID,
		log.FieldHouseholdID, householdID,
		log.FieldReceiptNo, record.ReceiptNo,
		log.FieldAmount, req.Amount)
	writeJSON(w, http.StatusCreated, map[string]any{
		"payment":   record,
		"breakdown": breakdown,
	})
}

func (s *Server) handleBeginEdit(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.actor(r); !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	draft, err := s.registry.BeginEdit(r.PathValue("id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, draft)
}

func (s *Server) handleSetDraft(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.actor(r); !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	var draft core.Household
	if err := decodeJSON(r, &draft); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if draft.ID != r.PathValue("id") {
		writeError(w, http.StatusBadRequest, "draft id does not match path")
		return
	}
	if err := s.registry.SetDraft(&draft); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "draft updated"})
}

func (s *Server) handleSetDraftDemand(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.actor(r); !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	var req struct {
		DemandYear  string `json:"demandYear"`
		PropertyTax int64  `json:"propertyTax"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.registry.SetDraftPropertyTax(r.PathValue("id"), req.DemandYear, req.PropertyTax); err != nil {
		writeDomainError(w, err)
		return
	}
	draft, err := s.registry.Draft(r.PathValue("id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, draft)
}

func (s *Server) handleSaveEdit(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.actor(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	var req struct {
		Section string `json:"section"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.Section) == "" {
		writeError(w, http.StatusBadRequest, "section must not be empty")
		return
	}
	householdID := r.PathValue("id")
	saved, changes, err := s.tax.SaveEdit(r.Context(), householdID, req.Section, actor)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	s.logger.Info("Edit saved",
		log.FieldOperation, log.OpEdit,
		log.FieldUserID, actor.ID,
		log.FieldHouseholdID, householdID,
		log.FieldSection, req.Section,
		"changes", len(changes))
	writeJSON(w, http.StatusOK, map[string]any{
		"household": saved,
		"changes":   changes,
	})
}

func (s *Server) handleCancelEdit(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.actor(r); !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	s.registry.CancelEdit(r.PathValue("id"))
	writeJSON(w, http.StatusOK, map[string]string{"status": "cancelled"})
}
