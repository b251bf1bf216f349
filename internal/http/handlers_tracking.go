package http

import (
	"net/http"
	"time"

	"github.com/juan2005elpapu/BIOS-INGESOFT/internal/core"
	"github.com/juan2005elpapu/BIOS-INGESOFT/internal/scope"
)

type weightJSON struct {
	ID       int64   `json:"id"`
	AnimalID int64   `json:"animal_id"`
	Date     string  `json:"date"`
	Kilos    float64 `json:"kilos"`
	Notes    string  `json:"notes,omitempty"`
}

type productionJSON struct {
	ID       int64   `json:"id"`
	AnimalID int64   `json:"animal_id"`
	Date     string  `json:"date"`
	Type     string  `json:"type"`
	Quantity float64 `json:"quantity"`
}

type weightRequest struct {
	AnimalID int64   `json:"animal_id"`
	Date     string  `json:"date"`
	Kilos    float64 `json:"kilos"`
	Notes    string  `json:"notes"`
}

type productionRequest struct {
	AnimalID int64   `json:"animal_id"`
	Date     string  `json:"date"`
	Type     string  `json:"type"`
	Quantity float64 `json:"quantity"`
}

// parseMeasurementDate accepts a bare date or a full timestamp.
func parseMeasurementDate(v string) time.Time {
	if t, err := time.Parse("2006-01-02 15:04:05", v); err == nil {
		return t
	}
	return scope.ParseDate(v)
}

func (s *Server) handleListWeights(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	weights, err := s.tracking.ListWeights(r.Context(), userID, scope.FromQuery(r.URL.Query()))
	if err != nil {
		respondError(w, r, err)
		return
	}

	out := make([]weightJSON, len(weights))
	for i, wt := range weights {
		out[i] = weightJSON{
			ID:       wt.ID,
			AnimalID: wt.AnimalID,
			Date:     wt.Date.Format("2006-01-02 15:04:05"),
			Kilos:    wt.Kilos,
			Notes:    wt.Notes,
		}
	}
	respondJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateWeight(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req weightRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	id, err := s.tracking.CreateWeight(r.Context(), userID, core.Weight{
		AnimalID: req.AnimalID,
		Date:     parseMeasurementDate(req.Date),
		Kilos:    req.Kilos,
		Notes:    req.Notes,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]int64{"id": id})
}

func (s *Server) handleDeleteWeight(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	id, err := pathID(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	if err := s.tracking.DeleteWeight(r.Context(), userID, id); err != nil {
		respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListProductions(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	productions, err := s.tracking.ListProductions(r.Context(), userID, scope.FromQuery(r.URL.Query()))
	if err != nil {
		respondError(w, r, err)
		return
	}

	out := make([]productionJSON, len(productions))
	for i, p := range productions {
		out[i] = productionJSON{
			ID:       p.ID,
			AnimalID: p.AnimalID,
			Date:     p.Date.Format("2006-01-02 15:04:05"),
			Type:     p.Type,
			Quantity: p.Quantity,
		}
	}
	respondJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateProduction(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req productionRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	id, err := s.tracking.CreateProduction(r.Context(), userID, core.Production{
		AnimalID: req.AnimalID,
		Date:     parseMeasurementDate(req.Date),
		Type:     req.Type,
		Quantity: req.Quantity,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]int64{"id": id})
}

func (s *Server) handleDeleteProduction(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	id, err := pathID(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	if err := s.tracking.DeleteProduction(r.Context(), userID, id); err != nil {
		respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
