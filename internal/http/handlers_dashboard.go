package http

import (
	"net/http"

	"github.com/juan2005elpapu/BIOS-INGESOFT/internal/scope"
)

// Dashboard endpoints do not require authentication: an anonymous request
// gets a fully-shaped report with zero totals and empty series instead of an
// error.

func (s *Server) handleDashboardBatches(w http.ResponseWriter, r *http.Request) {
	report, err := s.dashboard.Batches(r.Context(), userFrom(r.Context()), scope.FromQuery(r.URL.Query()))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, report)
}

func (s *Server) handleDashboardTracking(w http.ResponseWriter, r *http.Request) {
	report, err := s.dashboard.Tracking(r.Context(), userFrom(r.Context()), scope.FromQuery(r.URL.Query()))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, report)
}

func (s *Server) handleDashboardCosts(w http.ResponseWriter, r *http.Request) {
	report, err := s.dashboard.Costs(r.Context(), userFrom(r.Context()), scope.FromQuery(r.URL.Query()))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, report)
}
