package api

import "net/http"

// handleStatus reports readiness of the manifest store and blob backend.
// It answers 503 when any subsystem is down so load balancers can pull
// the instance.
func (h *Handler) handleStatus(w http.ResponseWriter, r *http.Request) {
	summary := h.status.Summary(r.Context())
	code := http.StatusOK
	if !summary.Healthy() {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, summary)
}
