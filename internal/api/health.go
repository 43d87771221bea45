package api

import (
	"context"
	"net/http"
	"time"
)

type healthResponse struct {
	Status    string         `json:"status"`
	Timestamp string         `json:"timestamp"`
	Services  healthServices `json:"services"`
}

type healthServices struct {
	Database  string `json:"database"`
	Cache     string `json:"cache"`
	LLM       string `json:"llm"`
	Scheduler string `json:"scheduler"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	writeJSON(w, http.StatusOK, healthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Services: healthServices{
			Database:  pingStatus(ctx, s.db, "memory"),
			Cache:     pingStatus(ctx, s.cache, "disabled"),
			LLM:       s.dash.ForecasterModel(),
			Scheduler: schedulerStatus(s.scheduler),
		},
	})
}

func pingStatus(ctx context.Context, p Pinger, absent string) string {
	if p == nil {
		return absent
	}
	if err := p.Ping(ctx); err != nil {
		return "disconnected"
	}
	return "connected"
}

func schedulerStatus(r Refresher) string {
	switch {
	case r == nil:
		return "disabled"
	case r.Running():
		return "running"
	default:
		return "stopped"
	}
}
