package state

import (
	"sort"

	"github.com/kk-code-lab/meowpdf/internal/document"
)

// Layout stacks pages vertically, separated by a fixed gap, in unscaled
// points. Every pixel quantity is the point quantity times the zoom.
type Layout struct {
	sizes  []document.Size
	tops   []float64
	gap    float64
	width  float64
	height float64
}

// NewLayout computes cumulative page offsets. gap is in points.
func NewLayout(sizes []document.Size, gap float64) *Layout {
	if gap < 0 {
		gap = 0
	}
	l := &Layout{
		sizes: append([]document.Size(nil), sizes...),
		tops:  make([]float64, len(sizes)),
		gap:   gap,
	}
	y := 0.0
	for i, size := range l.sizes {
		if i > 0 {
			y += gap
		}
		l.tops[i] = y
		y += size.H
		if size.W > l.width {
			l.width = size.W
		}
	}
	l.height = y
	return l
}

// LayoutOf builds the layout for every page of doc.
func LayoutOf(doc document.Document, gap float64) *Layout {
	sizes := make([]document.Size, doc.PageCount())
	for i := range sizes {
		sizes[i] = doc.PageSize(i)
	}
	return NewLayout(sizes, gap)
}

func (l *Layout) PageCount() int {
	if l == nil {
		return 0
	}
	return len(l.sizes)
}

func (l *Layout) PageSize(page int) document.Size {
	if l == nil || page < 0 || page >= len(l.sizes) {
		return document.Size{}
	}
	return l.sizes[page]
}

// MaxPageWidth returns the widest page in points.
func (l *Layout) MaxPageWidth() float64 {
	if l == nil {
		return 0
	}
	return l.width
}

// Width returns the content width in pixels at zoom.
func (l *Layout) Width(zoom float64) float64 {
	if l == nil {
		return 0
	}
	return l.width * zoom
}

// Height returns the content height in pixels at zoom, without bottom margin.
func (l *Layout) Height(zoom float64) float64 {
	if l == nil {
		return 0
	}
	return l.height * zoom
}

// PageTop returns the y offset of a page in pixels at zoom.
func (l *Layout) PageTop(page int, zoom float64) float64 {
	if l == nil || page < 0 || page >= len(l.tops) {
		return 0
	}
	return l.tops[page] * zoom
}

// PageBounds returns a page rectangle in content pixels. Pages narrower than
// the widest page are centred horizontally.
func (l *Layout) PageBounds(page int, zoom float64) document.Rect {
	size := l.PageSize(page)
	x := (l.MaxPageWidth() - size.W) / 2
	top := l.PageTop(page, zoom)
	return document.Rect{
		X0: x * zoom,
		Y0: top,
		X1: (x + size.W) * zoom,
		Y1: top + size.H*zoom,
	}
}

// PageAt returns the page whose vertical extent contains y (content pixels).
// Points in an inter-page gap belong to no page.
func (l *Layout) PageAt(y, zoom float64) (int, bool) {
	if l == nil || len(l.tops) == 0 || zoom <= 0 {
		return 0, false
	}
	pt := y / zoom
	i := sort.Search(len(l.tops), func(i int) bool { return l.tops[i] > pt }) - 1
	if i < 0 {
		return 0, false
	}
	if pt > l.tops[i]+l.sizes[i].H {
		return 0, false
	}
	return i, true
}

// Range returns the pages whose extent intersects the half-open pixel window
// [y0, y1).
func (l *Layout) Range(y0, y1, zoom float64) (first, last int, ok bool) {
	if l == nil || len(l.tops) == 0 || zoom <= 0 || y1 <= y0 {
		return 0, -1, false
	}
	p0, p1 := y0/zoom, y1/zoom
	first = sort.Search(len(l.tops), func(i int) bool {
		return l.tops[i]+l.sizes[i].H > p0
	})
	last = sort.Search(len(l.tops), func(i int) bool { return l.tops[i] >= p1 }) - 1
	if first >= len(l.tops) || last < first {
		return 0, -1, false
	}
	return first, last, true
}
