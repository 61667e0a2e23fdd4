package health

import (
	"encoding/json"
	"net/http"
)

// Checker represents dependencies that can be probed for readiness.
type Checker interface {
	CheckRules() error
}

// Handler exposes HTTP handlers for health endpoints.
type Handler struct {
	Checker Checker
}

// Live reports liveness status.
func (h Handler) Live(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// Ready reports readiness based on the shutdown gate and dependency probes.
func (h Handler) Ready(w http.ResponseWriter, _ *http.Request) {
	if !IsReady() {
		http.Error(w, "shutting down", http.StatusServiceUnavailable)
		return
	}
	if h.Checker == nil {
		http.Error(w, "dependencies unavailable", http.StatusServiceUnavailable)
		return
	}
	rulesStatus := "ok"
	if err := h.Checker.CheckRules(); err != nil {
		rulesStatus = err.Error()
	}
	status := map[string]string{
		"rules": rulesStatus,
	}
	w.Header().Set("Content-Type", "application/json")
	if rulesStatus != "ok" {
		w.WriteHeader(http.StatusServiceUnavailable)
	} else {
		w.WriteHeader(http.StatusOK)
	}
	_ = json.NewEncoder(w).Encode(status)
}
