package normalize

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog/log"
)

// ErrUnsupportedMediaType rejects uploads whose declared or sniffed
// media type is not an image.
var ErrUnsupportedMediaType = errors.New("unsupported media type")

// Normalizer re-encodes uploads into bounded JPEG rasters. Identical
// input bytes always produce identical output dimensions.
type Normalizer struct {
	MaxW    int
	MaxH    int
	Quality int
}

// New returns a normalizer with the given bounds and JPEG quality.
func New(maxW, maxH, quality int) *Normalizer {
	return &Normalizer{MaxW: maxW, MaxH: maxH, Quality: quality}
}

// Result is a normalized raster and its true pixel dimensions.
type Result struct {
	Data      []byte
	Width     int
	Height    int
	MediaType string
}

// Normalize gates on media type, decodes, downscales to fit MaxW x MaxH
// without ever upscaling, and re-encodes as JPEG. The declared type and
// the magic bytes must both indicate an image; filenames are not
// trusted.
func (n *Normalizer) Normalize(raw []byte, declaredType string) (Result, error) {
	if !strings.HasPrefix(declaredType, "image/") {
		return Result{}, fmt.Errorf("%w: %s", ErrUnsupportedMediaType, declaredType)
	}
	sniffed := mimetype.Detect(raw)
	if !strings.HasPrefix(sniffed.String(), "image/") {
		return Result{}, fmt.Errorf("%w: content is %s", ErrUnsupportedMediaType, sniffed.String())
	}

	img, err := imaging.Decode(bytes.NewReader(raw))
	if err != nil {
		return Result{}, fmt.Errorf("%w: decode failed: %v", ErrUnsupportedMediaType, err)
	}

	bounds := img.Bounds()
	srcW, srcH := bounds.Dx(), bounds.Dy()
	scale := math.Min(float64(n.MaxW)/float64(srcW), float64(n.MaxH)/float64(srcH))
	if scale > 1 {
		scale = 1
	}
	if scale < 1 {
		// extreme aspect ratios can round an axis down to zero; a raster
		// always keeps at least one pixel per axis
		dstW := int(math.Round(float64(srcW) * scale))
		dstH := int(math.Round(float64(srcH) * scale))
		if dstW < 1 {
			dstW = 1
		}
		if dstH < 1 {
			dstH = 1
		}
		img = imaging.Resize(img, dstW, dstH, imaging.Lanczos)
	}
	// record what was actually encoded, not the pre-resize arithmetic
	out := img.Bounds()
	dstW, dstH := out.Dx(), out.Dy()

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(n.Quality)); err != nil {
		return Result{}, fmt.Errorf("encode normalized raster: %w", err)
	}

	log.Debug().Str("declared", declaredType).Str("sniffed", sniffed.String()).
		Int("src_w", srcW).Int("src_h", srcH).
		Int("dst_w", dstW).Int("dst_h", dstH).Msg("image normalized")

	return Result{
		Data:      buf.Bytes(),
		Width:     dstW,
		Height:    dstH,
		MediaType: declaredType,
	}, nil
}
