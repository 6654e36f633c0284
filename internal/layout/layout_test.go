package layout

import (
	"errors"
	"math"
	"testing"
)

func TestSlotsRowMajorOrder(t *testing.T) {
	for _, perPage := range []int{4, 6, 8, 9} {
		g := grids[perPage]
		slots, err := Slots(perPage*2+3, perPage, A4())
		if err != nil {
			t.Fatalf("Slots(%d): %v", perPage, err)
		}
		for i, s := range slots {
			wantPage := i / perPage
			if s.Page != wantPage {
				t.Errorf("perPage=%d item %d: page %d, want %d", perPage, i, s.Page, wantPage)
			}
			local := i % perPage
			wantRow := local / g.Cols
			wantCol := local % g.Cols
			geom := A4()
			slotW := (geom.PageW - 2*geom.Margin) / float64(g.Cols)
			slotH := (geom.PageH - 2*geom.Margin) / float64(g.Rows)
			wantX := geom.Margin + float64(wantCol)*slotW
			wantY := geom.Margin + float64(wantRow)*slotH
			if math.Abs(s.Rect.X-wantX) > 1e-9 || math.Abs(s.Rect.Y-wantY) > 1e-9 {
				t.Errorf("perPage=%d item %d: origin (%v,%v), want (%v,%v)", perPage, i, s.Rect.X, s.Rect.Y, wantX, wantY)
			}
		}
	}
}

func TestSlotsTwoByTwo(t *testing.T) {
	slots, err := Slots(5, 4, A4())
	if err != nil {
		t.Fatal(err)
	}
	// items 0..3 fill page 0 row-major; item 4 starts page 1 at (0,0)
	wantCells := [][2]int{{0, 0}, {0, 1}, {1, 0}, {1, 1}, {0, 0}}
	wantPages := []int{0, 0, 0, 0, 1}
	geom := A4()
	slotW := (geom.PageW - 2*geom.Margin) / 2
	slotH := (geom.PageH - 2*geom.Margin) / 2
	for i, s := range slots {
		if s.Page != wantPages[i] {
			t.Errorf("item %d: page %d, want %d", i, s.Page, wantPages[i])
		}
		row, col := wantCells[i][0], wantCells[i][1]
		wantX := geom.Margin + float64(col)*slotW
		wantY := geom.Margin + float64(row)*slotH
		if math.Abs(s.Rect.X-wantX) > 1e-9 || math.Abs(s.Rect.Y-wantY) > 1e-9 {
			t.Errorf("item %d: origin (%v,%v), want (%v,%v)", i, s.Rect.X, s.Rect.Y, wantX, wantY)
		}
	}
}

func TestSlotsUnsupportedPerPage(t *testing.T) {
	for _, perPage := range []int{0, 1, 5, 7, 12} {
		if _, err := Slots(3, perPage, A4()); err == nil {
			t.Errorf("Slots(perPage=%d): expected error", perPage)
		} else {
			var upc *UnsupportedPageCountError
			if !errors.As(err, &upc) {
				t.Errorf("Slots(perPage=%d): error %v, want UnsupportedPageCountError", perPage, err)
			}
		}
	}
}

func TestFitRectNeverOverflowsAndKeepsRatio(t *testing.T) {
	slot := Rect{X: 10, Y: 20, W: 100, H: 70}
	cases := []struct{ w, h float64 }{
		{800, 600}, {600, 800}, {1, 1000}, {1000, 1}, {70, 70}, {3264, 2448},
	}
	for _, c := range cases {
		r := FitRect(c.w, c.h, slot)
		if r.W > slot.W+1e-9 || r.H > slot.H+1e-9 {
			t.Errorf("fit %vx%v: drawn %vx%v exceeds slot %vx%v", c.w, c.h, r.W, r.H, slot.W, slot.H)
		}
		if math.Abs(r.W/r.H-c.w/c.h) > 1e-9 {
			t.Errorf("fit %vx%v: ratio %v, want %v", c.w, c.h, r.W/r.H, c.w/c.h)
		}
		// centered: symmetric padding
		left := r.X - slot.X
		right := slot.X + slot.W - (r.X + r.W)
		top := r.Y - slot.Y
		bottom := slot.Y + slot.H - (r.Y + r.H)
		if math.Abs(left-right) > 1e-9 || math.Abs(top-bottom) > 1e-9 {
			t.Errorf("fit %vx%v: padding not symmetric (%v/%v, %v/%v)", c.w, c.h, left, right, top, bottom)
		}
	}
}

func TestPlacementsSkipsMissingGeometry(t *testing.T) {
	dims := []Dim{{800, 600}, {0, 0}, {600, 800}, {-1, 100}, {400, 400}}
	placements, skipped, err := Placements(dims, 4, A4())
	if err != nil {
		t.Fatal(err)
	}
	if skipped != 2 {
		t.Fatalf("skipped = %d, want 2", skipped)
	}
	if len(placements) != 3 {
		t.Fatalf("placements = %d, want 3", len(placements))
	}
	// surviving items keep batch order and consume consecutive slots
	wantItems := []int{0, 2, 4}
	for i, p := range placements {
		if p.Item != wantItems[i] {
			t.Errorf("placement %d: item %d, want %d", i, p.Item, wantItems[i])
		}
		if p.Page != 0 {
			t.Errorf("placement %d: page %d, want 0 (skipped items must not consume slots)", i, p.Page)
		}
	}
}

func TestPageCount(t *testing.T) {
	placements, _, err := Placements(make([]Dim, 0), 4, A4())
	if err != nil {
		t.Fatal(err)
	}
	if got := PageCount(placements); got != 0 {
		t.Fatalf("PageCount(empty) = %d, want 0", got)
	}
	dims := make([]Dim, 9)
	for i := range dims {
		dims[i] = Dim{W: 100, H: 100}
	}
	placements, _, err = Placements(dims, 4, A4())
	if err != nil {
		t.Fatal(err)
	}
	if got := PageCount(placements); got != 3 {
		t.Fatalf("PageCount(9 items, 4/page) = %d, want 3", got)
	}
}
