package http

import (
	"io"
	"net/http"

	"github.com/juan2005elpapu/BIOS-INGESOFT/internal/core"
	"github.com/juan2005elpapu/BIOS-INGESOFT/internal/scope"
)

type batchJSON struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Address   string `json:"address"`
	IsActive  bool   `json:"is_active"`
	ImagePath string `json:"image_path,omitempty"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

func toBatchJSON(b core.Batch) batchJSON {
	return batchJSON{
		ID:        b.ID,
		Name:      b.Name,
		Address:   b.Address,
		IsActive:  b.IsActive,
		ImagePath: b.ImagePath,
		CreatedAt: b.CreatedAt.Format(timeLayoutRFC),
		UpdatedAt: b.UpdatedAt.Format(timeLayoutRFC),
	}
}

type batchRequest struct {
	Name     string `json:"name"`
	Address  string `json:"address"`
	IsActive *bool  `json:"is_active"`
}

func (req batchRequest) toCore() core.Batch {
	b := core.Batch{Name: req.Name, Address: req.Address, IsActive: true}
	if req.IsActive != nil {
		b.IsActive = *req.IsActive
	}
	return b
}

func (s *Server) handleListBatches(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	batches, err := s.batches.List(r.Context(), userID, scope.FromQuery(r.URL.Query()))
	if err != nil {
		respondError(w, r, err)
		return
	}

	out := make([]batchJSON, len(batches))
	for i, b := range batches {
		out[i] = toBatchJSON(b)
	}
	respondJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetBatch(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	id, err := pathID(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	b, err := s.batches.Get(r.Context(), userID, id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toBatchJSON(b))
}

func (s *Server) handleBatchOptions(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	opts, err := s.batches.Options(r.Context(), userID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, opts)
}

func (s *Server) handleCreateBatch(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req batchRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	id, err := s.batches.Create(r.Context(), userID, req.toCore())
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]int64{"id": id})
}

func (s *Server) handleUpdateBatch(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	id, err := pathID(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	var req batchRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	b := req.toCore()
	b.ID = id
	if err := s.batches.Update(r.Context(), userID, b); err != nil {
		respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeleteBatch(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	id, err := pathID(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	if err := s.batches.Delete(r.Context(), userID, id); err != nil {
		respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleSetBatchImage accepts a multipart upload under the "image" field.
func (s *Server) handleSetBatchImage(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	id, err := pathID(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	const maxUpload = 10 << 20
	if err := r.ParseMultipartForm(maxUpload); err != nil {
		respondJSON(w, http.StatusBadRequest, errorBody{Error: "malformed multipart body"})
		return
	}
	file, header, err := r.FormFile("image")
	if err != nil {
		respondJSON(w, http.StatusBadRequest, errorBody{Error: "missing image field"})
		return
	}
	defer file.Close()

	name, err := s.batches.SetImage(r.Context(), userID, id, file, header.Filename)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"image_path": name})
}

func (s *Server) handleGetBatchImage(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	id, err := pathID(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	img, err := s.batches.OpenImage(r.Context(), userID, id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	defer img.Close()

	w.Header().Set("Content-Type", "application/octet-stream")
	_, _ = io.Copy(w, img)
}
