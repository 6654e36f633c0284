package compose

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"os"
	"path/filepath"
	"testing"

	"github.com/pdfcpu/pdfcpu/pkg/api"

	"github.com/cleilsonalvino/lotespdf/internal/batch"
	"github.com/cleilsonalvino/lotespdf/internal/blob"
	"github.com/cleilsonalvino/lotespdf/internal/layout"
)

func jpegBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 255), G: 120, B: 80, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 80}); err != nil {
		t.Fatalf("encode jpeg: %v", err)
	}
	return buf.Bytes()
}

func testBatch(t *testing.T, blobs blob.Store, n int) batch.Batch {
	t.Helper()
	ctx := context.Background()
	b := batch.Batch{ID: "test-batch", Name: "Lote Teste", Seen: map[string]struct{}{}}
	for i := 0; i < n; i++ {
		ref := b.ID + "/" + string(rune('a'+i)) + ".jpg"
		if err := blobs.Put(ctx, ref, jpegBytes(t, 80, 60)); err != nil {
			t.Fatalf("put blob: %v", err)
		}
		b.Items = append(b.Items, batch.ImageRecord{
			OriginalName: string(rune('a'+i)) + ".jpg",
			MediaType:    "image/jpeg",
			Width:        80,
			Height:       60,
			PayloadRef:   ref,
		})
	}
	b.RebuildSeen()
	return b
}

func pageCount(t *testing.T, doc []byte) int {
	t.Helper()
	path := filepath.Join(t.TempDir(), "out.pdf")
	if err := os.WriteFile(path, doc, 0o644); err != nil {
		t.Fatal(err)
	}
	n, err := api.PageCountFile(path)
	if err != nil {
		t.Fatalf("page count: %v", err)
	}
	return n
}

func newBlobs(t *testing.T) blob.Store {
	t.Helper()
	blobs, err := blob.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	return blobs
}

func TestPreviewPageCount(t *testing.T) {
	blobs := newBlobs(t)
	c := New(blobs)
	ctx := context.Background()

	cases := []struct {
		items, perPage, pages int
	}{
		{1, 4, 1},
		{4, 4, 1},
		{5, 4, 2},
		{9, 4, 3},
		{6, 6, 1},
		{9, 9, 1},
		{10, 9, 2},
	}
	for _, tc := range cases {
		b := testBatch(t, blobs, tc.items)
		doc, err := c.Preview(ctx, b, tc.perPage)
		if err != nil {
			t.Fatalf("%d items @%d/page: %v", tc.items, tc.perPage, err)
		}
		if got := pageCount(t, doc); got != tc.pages {
			t.Errorf("%d items @%d/page: %d pages, want %d", tc.items, tc.perPage, got, tc.pages)
		}
	}
}

func TestPreviewEmptyBatch(t *testing.T) {
	c := New(newBlobs(t))
	b := batch.Batch{ID: "empty", Name: "Vazio", Seen: map[string]struct{}{}}
	if _, err := c.Preview(context.Background(), b, 8); !errors.Is(err, ErrEmptyBatch) {
		t.Fatalf("err = %v, want ErrEmptyBatch", err)
	}
}

func TestPreviewAllItemsMissingGeometry(t *testing.T) {
	blobs := newBlobs(t)
	c := New(blobs)
	b := testBatch(t, blobs, 2)
	for i := range b.Items {
		b.Items[i].Width = 0
		b.Items[i].Height = 0
	}
	if _, err := c.Preview(context.Background(), b, 8); !errors.Is(err, ErrEmptyBatch) {
		t.Fatalf("err = %v, want ErrEmptyBatch", err)
	}
}

func TestPreviewSkipsItemsWithoutGeometry(t *testing.T) {
	blobs := newBlobs(t)
	c := New(blobs)
	b := testBatch(t, blobs, 5)
	b.Items[2].Width = 0 // legacy record, no dimensions persisted

	doc, err := c.Preview(context.Background(), b, 4)
	if err != nil {
		t.Fatal(err)
	}
	// 4 surviving items fit one page; the skipped item frees its slot
	if got := pageCount(t, doc); got != 1 {
		t.Fatalf("pages = %d, want 1", got)
	}
}

func TestPreviewUnsupportedPerPage(t *testing.T) {
	blobs := newBlobs(t)
	c := New(blobs)
	b := testBatch(t, blobs, 2)
	var upc *layout.UnsupportedPageCountError
	if _, err := c.Preview(context.Background(), b, 5); !errors.As(err, &upc) {
		t.Fatalf("err = %v, want UnsupportedPageCountError", err)
	}
}

func TestArchiveEntryNamedAfterBatch(t *testing.T) {
	blobs := newBlobs(t)
	c := New(blobs)
	b := testBatch(t, blobs, 3)
	b.Name = "Conversas Outubro"

	data, err := c.Archive(context.Background(), b, 4)
	if err != nil {
		t.Fatal(err)
	}
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("open archive: %v", err)
	}
	if len(zr.File) != 1 {
		t.Fatalf("archive has %d entries, want 1", len(zr.File))
	}
	if zr.File[0].Name != "Conversas Outubro.pdf" {
		t.Fatalf("entry = %q, want %q", zr.File[0].Name, "Conversas Outubro.pdf")
	}
	rc, err := zr.File[0].Open()
	if err != nil {
		t.Fatal(err)
	}
	defer rc.Close()
	var doc bytes.Buffer
	if _, err := doc.ReadFrom(rc); err != nil {
		t.Fatal(err)
	}
	if got := pageCount(t, doc.Bytes()); got != 1 {
		t.Fatalf("archived document has %d pages, want 1", got)
	}
}

func TestArchiveEmptyBatchProducesNothing(t *testing.T) {
	c := New(newBlobs(t))
	b := batch.Batch{ID: "empty", Name: "Vazio", Seen: map[string]struct{}{}}
	data, err := c.Archive(context.Background(), b, 4)
	if !errors.Is(err, ErrEmptyBatch) {
		t.Fatalf("err = %v, want ErrEmptyBatch", err)
	}
	if data != nil {
		t.Fatal("failed export must not produce an artifact")
	}
}
