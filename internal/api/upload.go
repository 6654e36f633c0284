package api

import (
	"errors"
	"io"
	"net/http"
	"path/filepath"

	"github.com/rs/zerolog/log"

	"github.com/cleilsonalvino/lotespdf/internal/batch"
	"github.com/cleilsonalvino/lotespdf/internal/metrics"
	"github.com/cleilsonalvino/lotespdf/internal/normalize"
)

// uploadResp mirrors the per-file outcome of a multi-file ingestion:
// duplicates are skipped, non-images rejected, the rest accepted in
// submission order.
type uploadResp struct {
	OK            bool         `json:"ok"`
	BatchID       string       `json:"batchId"`
	AcceptedCount int          `json:"acceptedCount"`
	SkippedCount  int          `json:"skippedCount"`
	RejectedCount int          `json:"rejectedCount"`
	SkippedNames  []string     `json:"skippedNames"`
	RejectedNames []string     `json:"rejectedNames"`
	Accepted      []acceptedItem `json:"accepted"`
}

type acceptedItem struct {
	Name   string `json:"name"`
	Type   string `json:"type"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// handleUpload ingests multipart "images" parts one at a time, in
// submission order, so the dedup gate and the insertion-order invariant
// hold even for concurrent requests against the same batch.
func (h *Handler) handleUpload(w http.ResponseWriter, r *http.Request) {
	batchID := r.PathValue("id")
	if _, ok := h.store.Get(batchID); !ok {
		writeJSON(w, http.StatusNotFound, map[string]any{"ok": false, "error": "batch not found"})
		return
	}

	maxBytes := h.ingest.MaxFileSizeMB << 20
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"ok": false, "error": "invalid multipart form"})
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	files := r.MultipartForm.File["images"]
	if len(files) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]any{"ok": false, "error": "no images supplied"})
		return
	}
	if len(files) > h.ingest.MaxFiles {
		writeJSON(w, http.StatusBadRequest, map[string]any{"ok": false, "error": "too many files"})
		return
	}

	resp := uploadResp{OK: true, BatchID: batchID, SkippedNames: []string{}, RejectedNames: []string{}, Accepted: []acceptedItem{}}

	for _, hdr := range files {
		name := filepath.Base(hdr.Filename)
		if hdr.Size > maxBytes {
			log.Warn().Str("name", name).Int64("size", hdr.Size).Msg("file exceeds size limit")
			resp.RejectedNames = append(resp.RejectedNames, name)
			metrics.IncIngested("error")
			continue
		}
		f, err := hdr.Open()
		if err != nil {
			resp.RejectedNames = append(resp.RejectedNames, name)
			metrics.IncIngested("error")
			continue
		}
		raw, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			resp.RejectedNames = append(resp.RejectedNames, name)
			metrics.IncIngested("error")
			continue
		}

		res, err := h.normalizer.Normalize(raw, hdr.Header.Get("Content-Type"))
		if err != nil {
			if errors.Is(err, normalize.ErrUnsupportedMediaType) {
				log.Debug().Str("name", name).Err(err).Msg("upload rejected")
				resp.RejectedNames = append(resp.RejectedNames, name)
				metrics.IncIngested("unsupported")
				continue
			}
			writeError(w, err)
			return
		}

		rec := batch.ImageRecord{
			OriginalName: name,
			MediaType:    res.MediaType,
			Width:        res.Width,
			Height:       res.Height,
		}
		stored, err := h.store.Append(r.Context(), batchID, rec, res.Data)
		if err != nil {
			if errors.Is(err, batch.ErrDuplicateName) {
				resp.SkippedNames = append(resp.SkippedNames, name)
				metrics.IncIngested("duplicate")
				continue
			}
			writeError(w, err)
			return
		}
		resp.Accepted = append(resp.Accepted, acceptedItem{
			Name: stored.OriginalName, Type: stored.MediaType, Width: stored.Width, Height: stored.Height,
		})
		metrics.IncIngested("accepted")
	}

	resp.AcceptedCount = len(resp.Accepted)
	resp.SkippedCount = len(resp.SkippedNames)
	resp.RejectedCount = len(resp.RejectedNames)
	log.Info().Str("batch_id", batchID).Int("accepted", resp.AcceptedCount).
		Int("skipped", resp.SkippedCount).Int("rejected", resp.RejectedCount).Msg("upload processed")
	writeJSON(w, http.StatusOK, resp)
}
