package render

import (
	"image"
	"math"

	"github.com/kk-code-lab/meowpdf/internal/render/kitty"
	"github.com/kk-code-lab/meowpdf/internal/state"
)

// cells is the block of terminal cells covering the visible part of a page.
type cells struct {
	col0, row0 int
	col1, row1 int
}

// cellsFor clips the page rectangle to the page area and snaps it outwards
// to whole cells.
func cellsFor(view state.Snapshot, page int) (cells, bool) {
	s := view.Screen
	if !s.Valid() {
		return cells{}, false
	}
	r := view.PageRect(page)
	x0, x1 := math.Max(r.X0, 0), math.Min(r.X1, s.Width())
	y0, y1 := math.Max(r.Y0, 0), math.Min(r.Y1, s.Height())
	if x0 >= x1 || y0 >= y1 {
		return cells{}, false
	}
	c := cells{
		col0: int(math.Floor(x0 / s.CellW)),
		row0: int(math.Floor(y0 / s.CellH)),
		col1: min(int(math.Ceil(x1/s.CellW)), s.Cols),
		row1: min(int(math.Ceil(y1/s.CellH)), s.Rows),
	}
	if c.col0 >= c.col1 || c.row0 >= c.row1 {
		return cells{}, false
	}
	return c, true
}

// pagePlacement places entry over the cells its page covers. The crop maps
// the cell edges back into the padded image, so partially covered cells show
// transparent padding instead of stretching the page.
func pagePlacement(view state.Snapshot, page int, entry *RenderedPage) (kitty.Placement, bool) {
	c, ok := cellsFor(view, page)
	if !ok || entry.Image == nil {
		return kitty.Placement{}, false
	}
	r := view.PageRect(page)
	b := entry.Image.Bounds()
	sx := float64(b.Dx()) / r.Width()
	sy := float64(b.Dy()) / r.Height()
	fullW, fullH := b.Dx()+2*entry.Pad, b.Dy()+2*entry.Pad

	edge := func(cell int, size, origin, scale float64, limit int) int {
		v := float64(entry.Pad) + (float64(cell)*size-origin)*scale
		return min(max(int(math.Round(v)), 0), limit)
	}
	crop := image.Rect(
		edge(c.col0, view.Screen.CellW, r.X0, sx, fullW),
		edge(c.row0, view.Screen.CellH, r.Y0, sy, fullH),
		edge(c.col1, view.Screen.CellW, r.X0, sx, fullW),
		edge(c.row1, view.Screen.CellH, r.Y0, sy, fullH),
	)
	if crop.Empty() {
		return kitty.Placement{}, false
	}
	return kitty.Placement{
		Page:    page,
		ImageID: entry.ImageID,
		Col:     c.col0,
		Row:     c.row0 + view.Screen.Top,
		Cols:    c.col1 - c.col0,
		Rows:    c.row1 - c.row0,
		Crop:    crop,
	}, true
}

// errorPlacement stretches the error image over the cells of a failed page.
func errorPlacement(view state.Snapshot, page int, id uint32) (kitty.Placement, bool) {
	c, ok := cellsFor(view, page)
	if !ok {
		return kitty.Placement{}, false
	}
	return kitty.Placement{
		Page:    page,
		ImageID: id,
		Col:     c.col0,
		Row:     c.row0 + view.Screen.Top,
		Cols:    c.col1 - c.col0,
		Rows:    c.row1 - c.row0,
		Crop:    image.Rect(0, 0, 1, 1),
	}, true
}

// padFor is the transparent border needed to cover one partial cell on each
// side at the given precision.
func padFor(view state.Snapshot) int {
	return int(math.Ceil(math.Max(view.Screen.CellW, view.Screen.CellH)*view.Precision)) + 1
}
