package http

import (
	"net/http"

	"github.com/juan2005elpapu/BIOS-INGESOFT/internal/core"
	"github.com/juan2005elpapu/BIOS-INGESOFT/internal/scope"
)

type animalJSON struct {
	ID        int64  `json:"id"`
	BatchID   int64  `json:"batch_id"`
	Code      string `json:"code,omitempty"`
	Species   string `json:"species"`
	Breed     string `json:"breed,omitempty"`
	Sex       string `json:"sex"`
	SexLabel  string `json:"sex_label"`
	BirthDate string `json:"birth_date"`
}

func toAnimalJSON(a core.Animal) animalJSON {
	return animalJSON{
		ID:        a.ID,
		BatchID:   a.BatchID,
		Code:      a.Code,
		Species:   a.Species,
		Breed:     a.Breed,
		Sex:       string(a.Sex),
		SexLabel:  a.Sex.Label(),
		BirthDate: fmtDate(a.BirthDate),
	}
}

type animalRequest struct {
	BatchID   int64  `json:"batch_id"`
	Code      string `json:"code"`
	Species   string `json:"species"`
	Breed     string `json:"breed"`
	Sex       string `json:"sex"`
	BirthDate string `json:"birth_date"`
}

func (req animalRequest) toCore() core.Animal {
	return core.Animal{
		BatchID:   req.BatchID,
		Code:      req.Code,
		Species:   req.Species,
		Breed:     req.Breed,
		Sex:       core.Sex(req.Sex),
		BirthDate: scope.ParseDate(req.BirthDate),
	}
}

func (s *Server) handleListAnimals(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	animals, err := s.animals.List(r.Context(), userID, scope.FromQuery(r.URL.Query()))
	if err != nil {
		respondError(w, r, err)
		return
	}

	out := make([]animalJSON, len(animals))
	for i, a := range animals {
		out[i] = toAnimalJSON(a)
	}
	respondJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetAnimal(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	id, err := pathID(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	a, err := s.animals.Get(r.Context(), userID, id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toAnimalJSON(a))
}

func (s *Server) handleAnimalOptions(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	opts, err := s.animals.Options(r.Context(), userID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, opts)
}

func (s *Server) handleCreateAnimal(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req animalRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	id, err := s.animals.Create(r.Context(), userID, req.toCore())
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]int64{"id": id})
}

func (s *Server) handleUpdateAnimal(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	id, err := pathID(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	var req animalRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	a := req.toCore()
	a.ID = id
	if err := s.animals.Update(r.Context(), userID, a); err != nil {
		respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeleteAnimal(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	id, err := pathID(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	if err := s.animals.Delete(r.Context(), userID, id); err != nil {
		respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
