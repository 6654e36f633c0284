package layout

import (
	"fmt"
)

// Geometry describes the fixed page the grid is computed against.
// Units are millimeters throughout, matching the renderer.
type Geometry struct {
	PageW  float64
	PageH  float64
	Margin float64
}

// A4 is the only page the service composes on: portrait A4 with a 5mm
// margin on every side.
func A4() Geometry {
	return Geometry{PageW: 210, PageH: 297, Margin: 5}
}

// grid is a (columns, rows) pair for one supported items-per-page count.
type grid struct {
	Cols int
	Rows int
}

// grids maps supported items-per-page counts to their column/row split.
// This table is a design constant shared with the renderer; callers never
// compute their own splits.
var grids = map[int]grid{
	4: {Cols: 2, Rows: 2},
	6: {Cols: 3, Rows: 2},
	8: {Cols: 4, Rows: 2},
	9: {Cols: 3, Rows: 3},
}

// SupportedPerPage reports whether perPage is a known grid size.
func SupportedPerPage(perPage int) bool {
	_, ok := grids[perPage]
	return ok
}

// UnsupportedPageCountError reports a perPage value outside the grid table.
type UnsupportedPageCountError struct {
	PerPage int
}

func (e *UnsupportedPageCountError) Error() string {
	return fmt.Sprintf("unsupported images per page: %d", e.PerPage)
}

// Rect is an axis-aligned rectangle in page coordinates (mm).
type Rect struct {
	X float64
	Y float64
	W float64
	H float64
}

// Slot is the grid cell assigned to one item, before aspect fitting.
type Slot struct {
	Page int
	Rect Rect
}

// Dim carries the pixel dimensions of one item, in batch order.
type Dim struct {
	W int
	H int
}

// Placement is the final drawing rectangle for one item. Item is the
// index into the original dims slice, so callers can match a placement
// back to its source even when items were skipped.
type Placement struct {
	Item int
	Page int
	Rect Rect
}

// Slots assigns n items to grid cells, row-major, left to right, top to
// bottom, never reordering. Item i lands on page i/perPage at cell
// (i%perPage)/cols, (i%perPage)%cols.
func Slots(n, perPage int, geom Geometry) ([]Slot, error) {
	g, ok := grids[perPage]
	if !ok {
		return nil, &UnsupportedPageCountError{PerPage: perPage}
	}
	usableW := geom.PageW - 2*geom.Margin
	usableH := geom.PageH - 2*geom.Margin
	slotW := usableW / float64(g.Cols)
	slotH := usableH / float64(g.Rows)

	out := make([]Slot, 0, n)
	for i := 0; i < n; i++ {
		local := i % perPage
		row := local / g.Cols
		col := local % g.Cols
		out = append(out, Slot{
			Page: i / perPage,
			Rect: Rect{
				X: geom.Margin + float64(col)*slotW,
				Y: geom.Margin + float64(row)*slotH,
				W: slotW,
				H: slotH,
			},
		})
	}
	return out, nil
}

// FitRect scales a w x h source to the largest size that fits inside slot
// without distortion and centers it, leaving symmetric padding on the
// shorter axis.
func FitRect(w, h float64, slot Rect) Rect {
	ratio := slot.W / w
	if r := slot.H / h; r < ratio {
		ratio = r
	}
	dw := w * ratio
	dh := h * ratio
	return Rect{
		X: slot.X + (slot.W-dw)/2,
		Y: slot.Y + (slot.H-dh)/2,
		W: dw,
		H: dh,
	}
}

// Placements computes the drawing rectangle for every item with known
// dimensions. Items whose width or height is not positive carry no usable
// geometry (legacy records); they are skipped entirely and do not consume
// a slot. The returned slice is parallel to the surviving items in order.
func Placements(dims []Dim, perPage int, geom Geometry) ([]Placement, int, error) {
	if !SupportedPerPage(perPage) {
		return nil, 0, &UnsupportedPageCountError{PerPage: perPage}
	}
	validIdx := make([]int, 0, len(dims))
	for i, d := range dims {
		if d.W > 0 && d.H > 0 {
			validIdx = append(validIdx, i)
		}
	}
	skipped := len(dims) - len(validIdx)

	slots, err := Slots(len(validIdx), perPage, geom)
	if err != nil {
		return nil, skipped, err
	}
	out := make([]Placement, len(validIdx))
	for i, s := range slots {
		d := dims[validIdx[i]]
		out[i] = Placement{
			Item: validIdx[i],
			Page: s.Page,
			Rect: FitRect(float64(d.W), float64(d.H), s.Rect),
		}
	}
	return out, skipped, nil
}

// PageCount returns how many pages n placed items span.
func PageCount(placements []Placement) int {
	max := -1
	for _, p := range placements {
		if p.Page > max {
			max = p.Page
		}
	}
	return max + 1
}
