package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/cleilsonalvino/lotespdf/internal/batch"
	"github.com/cleilsonalvino/lotespdf/internal/compose"
	"github.com/cleilsonalvino/lotespdf/internal/config"
	"github.com/cleilsonalvino/lotespdf/internal/layout"
	"github.com/cleilsonalvino/lotespdf/internal/limiter"
	"github.com/cleilsonalvino/lotespdf/internal/metrics"
	"github.com/cleilsonalvino/lotespdf/internal/normalize"
	"github.com/cleilsonalvino/lotespdf/internal/statuscheck"
)

// Handler exposes the batch store, normalizer and compositor over HTTP.
// It is the only ingestion and export collaborator of the core.
type Handler struct {
	store      *batch.Store
	normalizer *normalize.Normalizer
	compositor *compose.Compositor
	ingest     config.IngestConfig
	render     config.RenderConfig
	limits     *limiter.Gate
	status     *statuscheck.Checker
}

// Dependencies wires the handler. Limits defaults when nil; Status is
// optional and enables the readiness route.
type Dependencies struct {
	Store      *batch.Store
	Normalizer *normalize.Normalizer
	Compositor *compose.Compositor
	Ingest     config.IngestConfig
	Render     config.RenderConfig
	Limits     *limiter.Gate
	Status     *statuscheck.Checker
}

func New(deps Dependencies) *Handler {
	if deps.Limits == nil {
		deps.Limits = limiter.New(limiter.Options{})
	}
	return &Handler{
		store:      deps.Store,
		normalizer: deps.Normalizer,
		compositor: deps.Compositor,
		ingest:     deps.Ingest,
		render:     deps.Render,
		limits:     deps.Limits,
		status:     deps.Status,
	}
}

func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.Handle("GET /metrics", metrics.Handler())
	if h.status != nil {
		mux.HandleFunc("GET /status", h.handleStatus)
	}

	mux.HandleFunc("POST /batches", h.handleCreateBatch)
	mux.HandleFunc("GET /batches", h.handleListBatches)
	mux.HandleFunc("GET /batches/{id}", h.handleGetBatch)
	mux.HandleFunc("DELETE /batches/{id}", h.handleDeleteBatch)
	mux.HandleFunc("POST /batches/{id}/rename", h.handleRenameBatch)
	mux.HandleFunc("POST /batches/{id}/clear", h.handleClearBatch)
	mux.HandleFunc("POST /batches/{id}/select", h.handleSelectBatch)
	mux.HandleFunc("POST /batches/{id}/images", h.handleUpload)
	mux.HandleFunc("DELETE /batches/{id}/images/{index}", h.handleRemoveImage)
	mux.HandleFunc("GET /batches/{id}/document", h.handleDocument)
	mux.HandleFunc("GET /batches/{id}/archive", h.handleArchive)
	mux.HandleFunc("GET /batches/{id}/thumbnail", h.handleThumbnail)
}

// itemView is the read model of one image record.
type itemView struct {
	Index  int    `json:"index"`
	Name   string `json:"name"`
	Type   string `json:"type"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// batchView is the read model of one batch.
type batchView struct {
	ID     string     `json:"id"`
	Name   string     `json:"name"`
	Count  int        `json:"count"`
	Active bool       `json:"active"`
	Items  []itemView `json:"items,omitempty"`
}

func (h *Handler) viewOf(b batch.Batch, withItems bool) batchView {
	v := batchView{ID: b.ID, Name: b.Name, Count: len(b.Items)}
	if active, ok := h.store.Active(); ok && active.ID == b.ID {
		v.Active = true
	}
	if withItems {
		v.Items = make([]itemView, len(b.Items))
		for i, it := range b.Items {
			v.Items[i] = itemView{Index: i, Name: it.OriginalName, Type: it.MediaType, Width: it.Width, Height: it.Height}
		}
	}
	return v
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps core errors onto HTTP statuses.
func writeError(w http.ResponseWriter, err error) {
	var upc *layout.UnsupportedPageCountError
	switch {
	case errors.Is(err, batch.ErrBatchNotFound):
		writeJSON(w, http.StatusNotFound, map[string]any{"ok": false, "error": err.Error()})
	case errors.Is(err, batch.ErrIndexOutOfRange),
		errors.Is(err, batch.ErrEmptyName),
		errors.Is(err, compose.ErrEmptyBatch),
		errors.As(err, &upc):
		writeJSON(w, http.StatusBadRequest, map[string]any{"ok": false, "error": err.Error()})
	default:
		log.Error().Err(err).Msg("request failed")
		writeJSON(w, http.StatusInternalServerError, map[string]any{"ok": false, "error": err.Error()})
	}
}
