package api

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/cleilsonalvino/lotespdf/internal/batch"
	"github.com/cleilsonalvino/lotespdf/internal/imagerender"
	"github.com/cleilsonalvino/lotespdf/internal/metrics"
)

const defaultPerPage = 8

func perPageParam(r *http.Request) int {
	if v := r.URL.Query().Get("per_page"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return defaultPerPage
}

func (h *Handler) exportBatch(w http.ResponseWriter, r *http.Request) (batch.Batch, int, bool) {
	b, ok := h.store.Get(r.PathValue("id"))
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]any{"ok": false, "error": "batch not found"})
		return batch.Batch{}, 0, false
	}
	return b, perPageParam(r), true
}

// handleDocument composes the batch and returns the PDF inline for
// preview.
func (h *Handler) handleDocument(w http.ResponseWriter, r *http.Request) {
	b, perPage, ok := h.exportBatch(w, r)
	if !ok {
		return
	}
	release, ok := h.limits.Allow("export")
	if !ok {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{"ok": false, "error": "too many concurrent exports"})
		return
	}
	defer release()
	start := time.Now()
	doc, err := h.compositor.Preview(r.Context(), b, perPage)
	if err != nil {
		metrics.ObserveExport("preview", "error", time.Since(start))
		writeError(w, err)
		return
	}
	metrics.ObserveExport("preview", "success", time.Since(start))
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", b.Name+".pdf"))
	_, _ = w.Write(doc)
}

// handleArchive composes the batch and returns a zip holding
// "<name>.pdf", named after the batch.
func (h *Handler) handleArchive(w http.ResponseWriter, r *http.Request) {
	b, perPage, ok := h.exportBatch(w, r)
	if !ok {
		return
	}
	release, ok := h.limits.Allow("export")
	if !ok {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{"ok": false, "error": "too many concurrent exports"})
		return
	}
	defer release()
	start := time.Now()
	archive, err := h.compositor.Archive(r.Context(), b, perPage)
	if err != nil {
		metrics.ObserveExport("archive", "error", time.Since(start))
		writeError(w, err)
		return
	}
	metrics.ObserveExport("archive", "success", time.Since(start))
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", b.Name+".zip"))
	_, _ = w.Write(archive)
}

// handleThumbnail rasterizes one page of the composed document to JPEG.
func (h *Handler) handleThumbnail(w http.ResponseWriter, r *http.Request) {
	b, perPage, ok := h.exportBatch(w, r)
	if !ok {
		return
	}
	page := 1
	if v := r.URL.Query().Get("page"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			page = n
		}
	}
	release, ok := h.limits.Allow("thumbnail")
	if !ok {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{"ok": false, "error": "too many concurrent renders"})
		return
	}
	defer release()
	doc, err := h.compositor.Preview(r.Context(), b, perPage)
	if err != nil {
		writeError(w, err)
		return
	}
	img, _, _, err := imagerender.PageJPEG(doc, page, h.render.ThumbnailDPI, h.render.ThumbnailQuality)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"ok": false, "error": err.Error()})
		return
	}
	w.Header().Set("Content-Type", "image/jpeg")
	_, _ = w.Write(img)
}
