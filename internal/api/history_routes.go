package api

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/kjannette/goldsight-backend/internal/pricecsv"
)

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	startYear, err := parseStartYear(r, time.Now().UTC())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, s.dash.History(startYear))
}

func (s *Server) handleHistoryCSV(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="xauusd-history.csv"`)
	w.WriteHeader(http.StatusOK)
	io.WriteString(w, s.dash.HistoryCSV())
}

func (s *Server) handleHistoryRefresh(w http.ResponseWriter, r *http.Request) {
	if s.scheduler == nil {
		points := s.dash.RefreshHistory("manual")
		writeJSON(w, http.StatusOK, map[string]int{"points": len(points)})
		return
	}
	if err := s.scheduler.RefreshNow(r.Context()); err != nil {
		fmt.Printf("[API] History refresh failed: %v\n", err)
		writeError(w, http.StatusInternalServerError, "failed to refresh history")
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"points": len(s.dash.History(0))})
}

func (s *Server) handleDecodeCSV(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, "CSV body too large")
		return
	}
	writeJSON(w, http.StatusOK, pricecsv.Finite(pricecsv.Decode(string(body))))
}

func (s *Server) handleMarketSummary(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.dash.Snapshot())
}
