// Package pdftest probes composed PDF documents in tests: page counts
// and whether sampled pages rasterize to non-empty images.
package pdftest

import (
	"errors"
	"image"
	"sort"
)

// PageProbe captures the result of rasterizing a single page.
type PageProbe struct {
	PageIndex int    `json:"page_index"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	Err       string `json:"err,omitempty"`
}

// Diagnostics provides detailed information about a document probe.
type Diagnostics struct {
	TotalPages   int         `json:"total_pages"`
	SampledPages []int       `json:"sampled_pages"`
	Probes       []PageProbe `json:"probes"`
	AllRendered  bool        `json:"all_rendered"`
}

// Doc abstracts an open PDF document.
type Doc interface {
	NumPage() int
	Image(i int) (image.Image, error)
	Close() error
}

// Opener abstracts opening in-memory PDF bytes into a Doc.
type Opener interface {
	OpenBytes(data []byte) (Doc, error)
}

// defaultOpener is provided in doc_open_fitz.go using go-fitz.
var defaultOpener Opener

// setDefaultOpener allows swapping the default opener for alternate backends.
func setDefaultOpener(o Opener) { defaultOpener = o }

// PageCount returns the number of pages in the given PDF bytes.
func PageCount(data []byte) (int, error) {
	if defaultOpener == nil {
		return 0, errors.New("no PDF opener configured")
	}
	d, err := defaultOpener.OpenBytes(data)
	if err != nil {
		return 0, err
	}
	defer d.Close()
	return d.NumPage(), nil
}

// Probe rasterizes a sample of pages and reports their dimensions.
// If pages is nil, the standard sampling heuristic is used.
func Probe(data []byte, pages []int) (*Diagnostics, error) {
	if defaultOpener == nil {
		return nil, errors.New("no PDF opener configured")
	}
	d, err := defaultOpener.OpenBytes(data)
	if err != nil {
		return nil, err
	}
	defer d.Close()

	total := d.NumPage()
	var sampleIdx []int
	if pages != nil {
		sampleIdx = normalizeAndClampPages(pages, total)
	} else {
		sampleIdx = sampleIndices(total)
	}

	probes := make([]PageProbe, 0, len(sampleIdx))
	allRendered := total > 0
	for _, idx := range sampleIdx {
		probe := PageProbe{PageIndex: idx}
		img, perr := d.Image(idx)
		if perr != nil {
			probe.Err = perr.Error()
			allRendered = false
			probes = append(probes, probe)
			continue
		}
		b := img.Bounds()
		probe.Width = b.Dx()
		probe.Height = b.Dy()
		if probe.Width <= 0 || probe.Height <= 0 {
			allRendered = false
		}
		probes = append(probes, probe)
	}

	return &Diagnostics{
		TotalPages:   total,
		SampledPages: sampleIdx,
		Probes:       probes,
		AllRendered:  allRendered,
	}, nil
}

// sampleIndices picks up to 5 pages: first, mid, last, then fills in
// between. If total <= 5, every page is sampled.
func sampleIndices(total int) []int {
	if total <= 0 {
		return []int{}
	}
	if total <= 5 {
		idx := make([]int, total)
		for i := 0; i < total; i++ {
			idx[i] = i
		}
		return idx
	}

	mid := total / 2
	base := map[int]struct{}{0: {}, mid: {}, total - 1: {}}
	for cand := 1; len(base) < 5 && cand < total; cand++ {
		base[cand] = struct{}{}
	}

	out := make([]int, 0, len(base))
	for i := range base {
		out = append(out, i)
	}
	sort.Ints(out)
	return out
}

// normalizeAndClampPages ensures indices are unique, in-range, and sorted.
func normalizeAndClampPages(pages []int, total int) []int {
	m := make(map[int]struct{})
	for _, p := range pages {
		if p < 0 || p >= total {
			continue
		}
		m[p] = struct{}{}
	}
	out := make([]int, 0, len(m))
	for i := range m {
		out = append(out, i)
	}
	sort.Ints(out)
	return out
}
