package state

import (
	"strconv"
	"strings"

	"github.com/kk-code-lab/meowpdf/internal/document"
)

// LinkHit is the link under the pointer.
type LinkHit struct {
	Page int
	Link document.Link
}

// LinkSource returns the link annotations of a page.
type LinkSource func(page int) []document.Link

// PointerPixels maps a terminal cell to the pixel at its centre, relative to
// the page area. It fails for cells outside the page area.
func PointerPixels(screen Screen, col, row int) (x, y float64, ok bool) {
	row -= screen.Top
	if col < 0 || row < 0 || col >= screen.Cols || row >= screen.Rows {
		return 0, 0, false
	}
	return (float64(col) + 0.5) * screen.CellW, (float64(row) + 0.5) * screen.CellH, true
}

// HitTest finds the link under the pixel (x, y) of the page area. Edges count
// as inside; when rectangles overlap the smallest one wins.
func HitTest(view Snapshot, links LinkSource, x, y float64) (LinkHit, bool) {
	if links == nil || view.Zoom <= 0 {
		return LinkHit{}, false
	}
	cx := x - view.OriginX() + view.ScrollX
	cy := y + view.ScrollY

	page, ok := view.Layout.PageAt(cy, view.Zoom)
	if !ok {
		return LinkHit{}, false
	}
	bounds := view.Layout.PageBounds(page, view.Zoom)
	if cx < bounds.X0 || cx > bounds.X1 {
		return LinkHit{}, false
	}
	px := (cx - bounds.X0) / view.Zoom
	py := (cy - bounds.Y0) / view.Zoom

	var best LinkHit
	found := false
	for _, link := range links(page) {
		if !link.Rect.Contains(px, py) {
			continue
		}
		if !found || link.Rect.Area() < best.Link.Rect.Area() {
			best = LinkHit{Page: page, Link: link}
			found = true
		}
	}
	return best, found
}

// InternalPage parses "#page=N" and "#N" link targets into a page index.
func InternalPage(uri string) (int, bool) {
	rest, ok := strings.CutPrefix(uri, "#")
	if !ok {
		return 0, false
	}
	rest = strings.TrimPrefix(rest, "page=")
	n, err := strconv.Atoi(rest)
	if err != nil || n < 1 {
		return 0, false
	}
	return n - 1, true
}
