// Package document exposes the paginated document the viewer displays.
//
// Metadata (page sizes and link annotations) is read once when a document is
// opened and never changes afterwards, so it may be read from any goroutine.
// Rasterize is only ever called by the render worker.
package document

import (
	"errors"
	"fmt"
	"image"
)

// ErrPageRange is returned for page indices outside the document.
var ErrPageRange = errors.New("page index out of range")

// Size is a page size in points.
type Size struct {
	W, H float64
}

// Rect is an axis-aligned rectangle in page-local points, origin top-left.
type Rect struct {
	X0, Y0, X1, Y1 float64
}

// Width returns the horizontal extent of r.
func (r Rect) Width() float64 { return r.X1 - r.X0 }

// Height returns the vertical extent of r.
func (r Rect) Height() float64 { return r.Y1 - r.Y0 }

// Area returns the rectangle area.
func (r Rect) Area() float64 { return r.Width() * r.Height() }

// Contains reports whether (x, y) lies inside r. Edges count as inside.
func (r Rect) Contains(x, y float64) bool {
	return x >= r.X0 && x <= r.X1 && y >= r.Y0 && y <= r.Y1
}

// Canon returns r with X0 <= X1 and Y0 <= Y1.
func (r Rect) Canon() Rect {
	if r.X0 > r.X1 {
		r.X0, r.X1 = r.X1, r.X0
	}
	if r.Y0 > r.Y1 {
		r.Y0, r.Y1 = r.Y1, r.Y0
	}
	return r
}

// Link is a clickable annotation. Internal destinations use the "#page=N" form.
type Link struct {
	Rect Rect
	URI  string
}

// Document is the read-only view of a loaded document.
type Document interface {
	Path() string
	PageCount() int
	PageSize(page int) Size
	Links(page int) []Link
	// Rasterize renders the whole page at zoom*precision device pixels per point.
	Rasterize(page int, zoom, precision float64) (*image.RGBA, error)
	Close() error
}

// LoadError reports a document that could not be opened.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("cannot load %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// RasterizeError reports a page that failed to render at a given scale.
type RasterizeError struct {
	Page  int
	Scale float64
	Err   error
}

func (e *RasterizeError) Error() string {
	return fmt.Sprintf("rasterize page %d at scale %.3f: %v", e.Page+1, e.Scale, e.Err)
}

func (e *RasterizeError) Unwrap() error { return e.Err }

// PageLink returns the link target URI for a zero-based page index.
func PageLink(page int) string {
	return fmt.Sprintf("#page=%d", page+1)
}
