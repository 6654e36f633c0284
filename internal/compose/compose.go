package compose

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/jung-kurt/gofpdf"
	"github.com/rs/zerolog/log"

	"github.com/cleilsonalvino/lotespdf/internal/batch"
	"github.com/cleilsonalvino/lotespdf/internal/blob"
	"github.com/cleilsonalvino/lotespdf/internal/layout"
	"github.com/cleilsonalvino/lotespdf/internal/metrics"
)

// ErrEmptyBatch is returned when a batch has no images to compose, or
// when none of its items carry usable geometry.
var ErrEmptyBatch = errors.New("batch has no images")

// Compositor drives the layout engine over a batch snapshot and emits
// draw instructions to the PDF renderer. It only reads; a failed export
// never touches the batch store.
type Compositor struct {
	blobs blob.Store
	geom  layout.Geometry
}

// New returns a compositor reading payloads from blobs and composing on
// the fixed A4 grid.
func New(blobs blob.Store) *Compositor {
	return &Compositor{blobs: blobs, geom: layout.A4()}
}

// Preview composes the batch into a single in-memory PDF document.
func (c *Compositor) Preview(ctx context.Context, b batch.Batch, perPage int) ([]byte, error) {
	return c.document(ctx, b, perPage)
}

// Archive composes the batch and wraps the document in a zip archive
// holding one entry named "<batch name>.pdf".
func (c *Compositor) Archive(ctx context.Context, b batch.Batch, perPage int) ([]byte, error) {
	doc, err := c.document(ctx, b, perPage)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	entry, err := zw.Create(b.Name + ".pdf")
	if err != nil {
		return nil, fmt.Errorf("create archive entry: %w", err)
	}
	if _, err := entry.Write(doc); err != nil {
		return nil, fmt.Errorf("write archive entry: %w", err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("finalize archive: %w", err)
	}
	return buf.Bytes(), nil
}

func (c *Compositor) document(ctx context.Context, b batch.Batch, perPage int) ([]byte, error) {
	if len(b.Items) == 0 {
		return nil, ErrEmptyBatch
	}
	dims := make([]layout.Dim, len(b.Items))
	for i, it := range b.Items {
		dims[i] = layout.Dim{W: it.Width, H: it.Height}
	}
	placements, skipped, err := layout.Placements(dims, perPage, c.geom)
	if err != nil {
		return nil, err
	}
	if skipped > 0 {
		metrics.ItemsSkipped(skipped)
		log.Warn().Str("batch_id", b.ID).Int("skipped", skipped).Msg("items without geometry skipped")
	}
	if len(placements) == 0 {
		return nil, fmt.Errorf("%w: no items with geometry", ErrEmptyBatch)
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetAutoPageBreak(false, 0)
	opts := gofpdf.ImageOptions{ImageType: "JPEG"}

	page := -1
	for _, p := range placements {
		for page < p.Page {
			pdf.AddPage()
			page++
		}
		it := b.Items[p.Item]
		data, err := c.blobs.Get(ctx, it.PayloadRef)
		if err != nil {
			return nil, fmt.Errorf("load payload %s: %w", it.PayloadRef, err)
		}
		pdf.RegisterImageOptionsReader(it.PayloadRef, opts, bytes.NewReader(data))
		pdf.ImageOptions(it.PayloadRef, p.Rect.X, p.Rect.Y, p.Rect.W, p.Rect.H, false, opts, 0, "")
	}
	if pdf.Err() {
		return nil, fmt.Errorf("compose document: %w", pdf.Error())
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("finalize document: %w", err)
	}
	log.Info().Str("batch_id", b.ID).Int("items", len(placements)).
		Int("pages", layout.PageCount(placements)).Int("per_page", perPage).Msg("document composed")
	return buf.Bytes(), nil
}
