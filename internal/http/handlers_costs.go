package http

import (
	"net/http"

	"github.com/juan2005elpapu/BIOS-INGESOFT/internal/core"
	"github.com/juan2005elpapu/BIOS-INGESOFT/internal/scope"
)

type costJSON struct {
	ID          int64   `json:"id"`
	BatchID     int64   `json:"batch_id"`
	AnimalID    int64   `json:"animal_id,omitempty"`
	Type        string  `json:"type"`
	TypeLabel   string  `json:"type_label"`
	Description string  `json:"description"`
	AmountCents int64   `json:"amount_cents"`
	Amount      float64 `json:"amount"`
	Date        string  `json:"date"`
	Notes       string  `json:"notes,omitempty"`
}

func toCostJSON(c core.Cost) costJSON {
	return costJSON{
		ID:          c.ID,
		BatchID:     c.BatchID,
		AnimalID:    c.AnimalID,
		Type:        string(c.Type),
		TypeLabel:   c.Type.Label(),
		Description: c.Description,
		AmountCents: c.Amount.Cents,
		Amount:      c.Amount.Units(),
		Date:        fmtDate(c.Date),
		Notes:       c.Notes,
	}
}

// costRequest carries the amount as a decimal string ("1500.50" or
// "1500,50") converted to integer cents on the way in.
type costRequest struct {
	BatchID     int64  `json:"batch_id"`
	AnimalID    int64  `json:"animal_id"`
	Type        string `json:"type"`
	Description string `json:"description"`
	Amount      string `json:"amount"`
	Date        string `json:"date"`
	Notes       string `json:"notes"`
}

func (req costRequest) toCore() (core.Cost, error) {
	cents, err := core.ParseDecimalToCents(req.Amount)
	if err != nil {
		return core.Cost{}, err
	}
	return core.Cost{
		BatchID:     req.BatchID,
		AnimalID:    req.AnimalID,
		Type:        core.CostType(req.Type),
		Description: req.Description,
		Amount:      core.Money{Cents: cents},
		Date:        scope.ParseDate(req.Date),
		Notes:       req.Notes,
	}, nil
}

func (s *Server) handleListCosts(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	costs, err := s.costs.List(r.Context(), userID, scope.FromQuery(r.URL.Query()))
	if err != nil {
		respondError(w, r, err)
		return
	}

	out := make([]costJSON, len(costs))
	for i, c := range costs {
		out[i] = toCostJSON(c)
	}
	respondJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetCost(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	id, err := pathID(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	c, err := s.costs.Get(r.Context(), userID, id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toCostJSON(c))
}

func (s *Server) handleCreateCost(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req costRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	c, err := req.toCore()
	if err != nil {
		respondError(w, r, err)
		return
	}

	id, err := s.costs.Create(r.Context(), userID, c)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]int64{"id": id})
}

func (s *Server) handleUpdateCost(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	id, err := pathID(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	var req costRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	c, err := req.toCore()
	if err != nil {
		respondError(w, r, err)
		return
	}

	c.ID = id
	if err := s.costs.Update(r.Context(), userID, c); err != nil {
		respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeleteCost(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	id, err := pathID(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	if err := s.costs.Delete(r.Context(), userID, id); err != nil {
		respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
