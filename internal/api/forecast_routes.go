package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/kjannette/goldsight-backend/internal/dashboard"
	"github.com/kjannette/goldsight-backend/internal/risk"
)

type forecastRequest struct {
	Horizon int `json:"horizon"`
}

func (s *Server) handleGenerateForecast(w http.ResponseWriter, r *http.Request) {
	var req forecastRequest
	err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req)
	if err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	f, err := s.dash.GenerateForecast(r.Context(), req.Horizon)
	switch {
	case err == nil:
		writeJSON(w, http.StatusCreated, f)
	case errors.Is(err, dashboard.ErrInvalidHorizon):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, risk.ErrBudgetExhausted):
		writeError(w, http.StatusTooManyRequests, risk.ErrBudgetExhausted.Error())
	case errors.Is(err, dashboard.ErrGenerationFailed):
		writeError(w, http.StatusBadGateway, dashboard.ErrGenerationFailed.Error())
	default:
		fmt.Printf("[API] Forecast error: %v\n", err)
		writeError(w, http.StatusInternalServerError, "failed to generate forecast")
	}
}

func (s *Server) handleLatestForecast(w http.ResponseWriter, r *http.Request) {
	f, ok := s.dash.LatestForecast()
	if !ok {
		writeError(w, http.StatusNotFound, "no forecast generated yet")
		return
	}
	writeJSON(w, http.StatusOK, f)
}
