package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/cleilsonalvino/lotespdf/internal/metrics"
)

type nameReq struct {
	Name string `json:"name"`
}

func (h *Handler) handleCreateBatch(w http.ResponseWriter, r *http.Request) {
	var req nameReq
	if r.Body != nil {
		// body is optional; an empty name gets the default "Lote N"
		_ = json.NewDecoder(r.Body).Decode(&req)
	}
	b, err := h.store.Create(r.Context(), req.Name)
	if err != nil {
		writeError(w, err)
		return
	}
	metrics.SetBatchCount(len(h.store.List()))
	writeJSON(w, http.StatusCreated, map[string]any{"ok": true, "batch": h.viewOf(b, false)})
}

func (h *Handler) handleListBatches(w http.ResponseWriter, r *http.Request) {
	batches := h.store.List()
	views := make([]batchView, len(batches))
	for i, b := range batches {
		views[i] = h.viewOf(b, false)
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "batches": views})
}

func (h *Handler) handleGetBatch(w http.ResponseWriter, r *http.Request) {
	b, ok := h.store.Get(r.PathValue("id"))
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]any{"ok": false, "error": "batch not found"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "batch": h.viewOf(b, true)})
}

func (h *Handler) handleDeleteBatch(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Delete(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	metrics.SetBatchCount(len(h.store.List()))
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (h *Handler) handleRenameBatch(w http.ResponseWriter, r *http.Request) {
	var req nameReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"ok": false, "error": "invalid json"})
		return
	}
	if err := h.store.Rename(r.Context(), r.PathValue("id"), req.Name); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (h *Handler) handleClearBatch(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Clear(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (h *Handler) handleSelectBatch(w http.ResponseWriter, r *http.Request) {
	if err := h.store.SetActive(r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (h *Handler) handleRemoveImage(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(r.PathValue("index"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"ok": false, "error": "invalid index"})
		return
	}
	if err := h.store.Remove(r.Context(), r.PathValue("id"), index); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}
