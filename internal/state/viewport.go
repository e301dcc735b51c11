package state

import (
	"math"

	"github.com/kk-code-lab/meowpdf/internal/document"
)

// Screen describes the terminal area pages are drawn into.
type Screen struct {
	Cols, Rows   int     // page area in cells
	Top          int     // terminal row of the first page-area row
	CellW, CellH float64 // cell size in pixels
}

func (s Screen) Width() float64  { return float64(s.Cols) * s.CellW }
func (s Screen) Height() float64 { return float64(s.Rows) * s.CellH }

// Valid reports whether the screen has a drawable area.
func (s Screen) Valid() bool {
	return s.Cols > 0 && s.Rows > 0 && s.CellW > 0 && s.CellH > 0
}

// Overlay is the text drawn over the page area by the worker.
type Overlay struct {
	File    string
	Pending string // partially typed key sequence
	Hint    string // link target under the pointer
}

// Snapshot is an immutable copy of the viewport handed to the render worker.
type Snapshot struct {
	ScrollX, ScrollY float64 // device pixels
	Zoom             float64 // device pixels per point
	Precision        float64 // rasterization oversampling
	Alpha            bool    // key out the white page background
	Invert           bool
	PreloadMargin    int
	BottomMargin     float64 // pixels after the last page
	Screen           Screen
	Layout           *Layout
	Overlay          Overlay
}

func (s Snapshot) PageCount() int { return s.Layout.PageCount() }

// RasterScale is the scale pages are rasterized at.
func (s Snapshot) RasterScale() float64 { return s.Zoom * s.Precision }

// OriginX is the left edge of the content on screen when the content is
// narrower than the viewport.
func (s Snapshot) OriginX() float64 {
	return math.Max(0, (s.Screen.Width()-s.Layout.Width(s.Zoom))/2)
}

// MaxScroll returns the largest allowed scroll offsets.
func (s Snapshot) MaxScroll() (x, y float64) {
	x = math.Max(0, s.Layout.Width(s.Zoom)-s.Screen.Width())
	y = math.Max(0, s.Layout.Height(s.Zoom)+s.BottomMargin-s.Screen.Height())
	return x, y
}

// VisibleRange returns the pages intersecting the viewport.
func (s Snapshot) VisibleRange() (first, last int, ok bool) {
	if !s.Screen.Valid() {
		return 0, -1, false
	}
	return s.Layout.Range(s.ScrollY, s.ScrollY+s.Screen.Height(), s.Zoom)
}

// PreloadPages returns the pages within the preload margin around the visible
// range, nearest first, excluding the visible pages themselves.
func (s Snapshot) PreloadPages() []int {
	first, last, ok := s.VisibleRange()
	if !ok || s.PreloadMargin <= 0 {
		return nil
	}
	count := s.PageCount()
	pages := make([]int, 0, 2*s.PreloadMargin)
	for d := 1; d <= s.PreloadMargin; d++ {
		if p := last + d; p < count {
			pages = append(pages, p)
		}
		if p := first - d; p >= 0 {
			pages = append(pages, p)
		}
	}
	return pages
}

// PageRect returns a page rectangle in pixels relative to the page area.
func (s Snapshot) PageRect(page int) document.Rect {
	b := s.Layout.PageBounds(page, s.Zoom)
	dx := s.OriginX() - s.ScrollX
	return document.Rect{
		X0: b.X0 + dx,
		Y0: b.Y0 - s.ScrollY,
		X1: b.X1 + dx,
		Y1: b.Y1 - s.ScrollY,
	}
}

// CurrentPage is the page under the vertical centre of the viewport, or the
// first visible page when the centre falls into a gap.
func (s Snapshot) CurrentPage() int {
	if page, ok := s.Layout.PageAt(s.ScrollY+s.Screen.Height()/2, s.Zoom); ok {
		return page
	}
	if first, _, ok := s.VisibleRange(); ok {
		return first
	}
	return 0
}

// Settings are the user-configurable viewport parameters.
type Settings struct {
	ScrollStep    float64 // pixels per scroll action
	ZoomStep      float64 // multiplicative factor per zoom action
	MinZoom       float64
	MaxZoom       float64
	DefaultZoom   float64 // 0 fits the widest page to the viewport width
	Precision     float64
	PreloadMargin int
	BottomMargin  float64
}

// ViewportState is the authoritative viewport. It is owned by the input
// dispatcher goroutine and never shared; the worker only sees Snapshots.
type ViewportState struct {
	settings Settings
	view     Snapshot
	sized    bool
}

// NewViewportState creates a viewport at the top of the document.
func NewViewportState(settings Settings, layout *Layout, file string) *ViewportState {
	if settings.ZoomStep <= 1 {
		settings.ZoomStep = 1.1
	}
	if settings.MinZoom <= 0 {
		settings.MinZoom = 0.1
	}
	if settings.MaxZoom < settings.MinZoom {
		settings.MaxZoom = settings.MinZoom
	}
	if settings.Precision <= 0 {
		settings.Precision = 1
	}
	v := &ViewportState{settings: settings}
	v.view = Snapshot{
		Zoom:          1,
		Precision:     settings.Precision,
		PreloadMargin: settings.PreloadMargin,
		BottomMargin:  settings.BottomMargin,
		Layout:        layout,
		Overlay:       Overlay{File: file},
	}
	if settings.DefaultZoom > 0 {
		v.view.Zoom = v.clampZoom(settings.DefaultZoom)
	}
	return v
}

// Snapshot returns a copy of the current state.
func (v *ViewportState) Snapshot() Snapshot { return v.view }

func (v *ViewportState) Settings() Settings { return v.settings }

// Resize installs new screen geometry. The first resize also picks the
// initial zoom when none is configured.
func (v *ViewportState) Resize(screen Screen) {
	v.view.Screen = screen
	if !v.sized && screen.Valid() {
		v.sized = true
		if v.settings.DefaultZoom <= 0 {
			v.fitWidth()
		}
	}
	v.clamp()
}

// ScrollBy moves the viewport by (dx, dy) pixels.
func (v *ViewportState) ScrollBy(dx, dy float64) {
	v.view.ScrollX += dx
	v.view.ScrollY += dy
	v.clamp()
}

// ScrollSteps moves by whole configured scroll steps.
func (v *ViewportState) ScrollSteps(dx, dy int) {
	step := v.settings.ScrollStep
	v.ScrollBy(float64(dx)*step, float64(dy)*step)
}

// ScrollPages moves vertically by a fraction of the viewport height.
func (v *ViewportState) ScrollPages(fraction float64) {
	v.ScrollBy(0, fraction*v.view.Screen.Height())
}

// ScrollTo moves to an absolute position.
func (v *ViewportState) ScrollTo(x, y float64) {
	v.view.ScrollX = x
	v.view.ScrollY = y
	v.clamp()
}

// ZoomBy applies the zoom step steps times (negative zooms out) and returns
// the factor actually applied after clamping.
func (v *ViewportState) ZoomBy(steps int) float64 {
	return v.SetZoom(v.view.Zoom * math.Pow(v.settings.ZoomStep, float64(steps)))
}

// SetZoom changes the zoom keeping the viewport centre anchored and returns
// the applied factor.
func (v *ViewportState) SetZoom(zoom float64) float64 {
	old := v.view.Zoom
	zoom = v.clampZoom(zoom)
	if zoom == old {
		return 1
	}
	w, h := v.view.Screen.Width(), v.view.Screen.Height()
	cx := v.view.ScrollX + w/2 - v.view.OriginX()
	cy := v.view.ScrollY + h/2
	factor := zoom / old

	v.view.Zoom = zoom
	v.view.ScrollX = v.view.OriginX() + cx*factor - w/2
	v.view.ScrollY = cy*factor - h/2
	v.clamp()
	return factor
}

// FitWidth zooms so the widest page fills the viewport width.
func (v *ViewportState) FitWidth() float64 {
	old := v.view.Zoom
	v.fitWidth()
	v.clamp()
	return v.view.Zoom / old
}

func (v *ViewportState) fitWidth() {
	pageW := v.view.Layout.MaxPageWidth()
	if pageW <= 0 || !v.view.Screen.Valid() {
		return
	}
	old := v.view.Zoom
	v.view.Zoom = v.clampZoom(v.view.Screen.Width() / pageW)
	v.view.ScrollY *= v.view.Zoom / old
}

// CenterHorizontally scrolls so the content is centred horizontally.
func (v *ViewportState) CenterHorizontally() {
	maxX, _ := v.view.MaxScroll()
	v.view.ScrollX = maxX / 2
	v.clamp()
}

// JumpPage scrolls so the top of page is at the top of the viewport.
func (v *ViewportState) JumpPage(page int) {
	count := v.view.PageCount()
	if count == 0 {
		return
	}
	page = max(0, min(page, count-1))
	v.view.ScrollY = v.view.Layout.PageTop(page, v.view.Zoom)
	v.clamp()
}

// CurrentPage is the page under the centre of the viewport.
func (v *ViewportState) CurrentPage() int { return v.view.CurrentPage() }

// ToggleAlpha flips background keying and returns the new value.
func (v *ViewportState) ToggleAlpha() bool {
	v.view.Alpha = !v.view.Alpha
	return v.view.Alpha
}

// ToggleInvert flips colour inversion and returns the new value.
func (v *ViewportState) ToggleInvert() bool {
	v.view.Invert = !v.view.Invert
	return v.view.Invert
}

// SetLayout replaces the document layout, keeping the scroll position where
// the new document allows it.
func (v *ViewportState) SetLayout(layout *Layout) {
	v.view.Layout = layout
	v.clamp()
}

// SetPending records the partially typed key sequence; it reports a change.
func (v *ViewportState) SetPending(pending string) bool {
	if v.view.Overlay.Pending == pending {
		return false
	}
	v.view.Overlay.Pending = pending
	return true
}

// SetHint records the link target under the pointer; it reports a change.
func (v *ViewportState) SetHint(hint string) bool {
	if v.view.Overlay.Hint == hint {
		return false
	}
	v.view.Overlay.Hint = hint
	return true
}

func (v *ViewportState) clampZoom(zoom float64) float64 {
	if math.IsNaN(zoom) || zoom <= 0 {
		return v.settings.MinZoom
	}
	return math.Max(v.settings.MinZoom, math.Min(v.settings.MaxZoom, zoom))
}

func (v *ViewportState) clamp() {
	maxX, maxY := v.view.MaxScroll()
	v.view.ScrollX = clampFloat(v.view.ScrollX, 0, maxX)
	v.view.ScrollY = clampFloat(v.view.ScrollY, 0, maxY)
}

func clampFloat(x, lo, hi float64) float64 {
	if math.IsNaN(x) || x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
