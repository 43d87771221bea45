package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"github.com/kjannette/goldsight-backend/internal/dashboard"
	"github.com/kjannette/goldsight-backend/internal/repository"
)

func (s *Server) handleSaveModel(w http.ResponseWriter, r *http.Request) {
	m, err := s.dash.SaveModel(r.Context())
	if err != nil {
		if errors.Is(err, dashboard.ErrNothingToSave) {
			writeError(w, http.StatusConflict, err.Error())
			return
		}
		fmt.Printf("Error saving model: %v\n", err)
		writeError(w, http.StatusInternalServerError, "failed to save model")
		return
	}
	writeJSON(w, http.StatusCreated, m)
}

func (s *Server) handleListModels(w http.ResponseWriter, r *http.Request) {
	list, err := s.dash.ListModels(r.Context(), parseLimit(r, 50))
	if err != nil {
		fmt.Printf("Error listing models: %v\n", err)
		writeError(w, http.StatusInternalServerError, "failed to list models")
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleGetModel(w http.ResponseWriter, r *http.Request) {
	id, ok := modelID(w, r)
	if !ok {
		return
	}

	m, err := s.dash.GetModel(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "model not found")
			return
		}
		fmt.Printf("Error fetching model %s: %v\n", id, err)
		writeError(w, http.StatusInternalServerError, "failed to fetch model")
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (s *Server) handleDeleteModel(w http.ResponseWriter, r *http.Request) {
	id, ok := modelID(w, r)
	if !ok {
		return
	}

	if err := s.dash.DeleteModel(r.Context(), id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "model not found")
			return
		}
		fmt.Printf("Error deleting model %s: %v\n", id, err)
		writeError(w, http.StatusInternalServerError, "failed to delete model")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func modelID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := r.PathValue("id")
	if _, err := uuid.Parse(id); err != nil {
		writeError(w, http.StatusBadRequest, "invalid model id")
		return "", false
	}
	return id, true
}
