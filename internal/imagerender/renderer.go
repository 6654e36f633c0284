package imagerender

import (
	"bytes"
	"fmt"
	"image/jpeg"

	"github.com/gen2brain/go-fitz"
	"github.com/rs/zerolog/log"
)

// PageJPEG rasterizes one page of an in-memory PDF document to JPEG.
// pageNum is 1-based. Returns JPEG bytes plus the raster dimensions.
func PageJPEG(doc []byte, pageNum, dpi, quality int) ([]byte, int, int, error) {
	d, err := fitz.NewFromMemory(doc)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("open document: %w", err)
	}
	defer d.Close()

	if pageNum < 1 || pageNum > d.NumPage() {
		return nil, 0, 0, fmt.Errorf("page %d out of range (document has %d)", pageNum, d.NumPage())
	}

	img, err := d.ImageDPI(pageNum-1, float64(dpi))
	if err != nil {
		return nil, 0, 0, fmt.Errorf("render page %d: %w", pageNum, err)
	}
	bounds := img.Bounds()

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, 0, 0, fmt.Errorf("encode page image: %w", err)
	}

	log.Debug().Int("page", pageNum).Int("dpi", dpi).
		Int("width", bounds.Dx()).Int("height", bounds.Dy()).Msg("rendered document page")
	return buf.Bytes(), bounds.Dx(), bounds.Dy(), nil
}
