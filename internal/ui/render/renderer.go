// Package render draws the text overlay above the pages: the status bar and
// the URI hint. It runs on the render worker goroutine.
package render

import (
	"math"

	"github.com/gdamore/tcell/v2"
	"github.com/kk-code-lab/meowpdf/internal/config"
	"github.com/kk-code-lab/meowpdf/internal/state"
)

// Renderer handles all overlay rendering.
type Renderer struct {
	screen tcell.Screen
	theme  ColorTheme
	bar    config.Bar
	hint   config.URIHint
}

// NewRenderer creates a renderer for the configured bar and hint.
func NewRenderer(screen tcell.Screen, cfg *config.Config) *Renderer {
	return &Renderer{
		screen: screen,
		theme:  GetColorTheme(cfg),
		bar:    cfg.Bar,
		hint:   cfg.URIHint,
	}
}

// PageArea returns the first terminal row and the number of rows left for
// pages on a terminal rows tall.
func (r *Renderer) PageArea(rows int) (top, height int) {
	if !r.bar.Enabled || rows < 2 {
		return 0, rows
	}
	if r.barOnTop() {
		return 1, rows - 1
	}
	return 0, rows - 1
}

func (r *Renderer) barOnTop() bool { return r.bar.Position == "top" }

// Draw paints the bar and the hint for view and shows the result.
func (r *Renderer) Draw(view state.Snapshot) {
	r.screen.Clear()
	w, h := r.screen.Size()
	if w > 0 && h > 0 {
		if r.bar.Enabled {
			r.drawBar(view, w, h)
		}
		if r.hint.Enabled && view.Overlay.Hint != "" {
			r.drawHint(view.Overlay.Hint, w, h)
		}
	}
	r.screen.Show()
}

// Sync repaints every cell, used after the terminal was resized.
func (r *Renderer) Sync() {
	r.screen.Sync()
}

func (r *Renderer) barRow(h int) int {
	if r.barOnTop() {
		return 0
	}
	return h - 1
}

// drawBar lays out mode and file on the left and page and scale on the
// right. The file name gives way first when the row is too narrow.
func (r *Renderer) drawBar(view state.Snapshot, w, h int) {
	y := r.barRow(h)
	style := r.theme.barStyle()
	r.fillRow(y, w, style)

	seg := formatBarSegments(r.bar, view)
	right := seg.page + seg.scale
	rightWidth := measureTextWidth(right)

	x := r.drawTextLine(0, y, w, truncateTextToWidth(seg.mode, w), style)
	fileWidth := w - x - rightWidth
	x = r.drawTextLine(x, y, w, truncateTextToWidth(seg.file, fileWidth), style)

	if rightWidth <= w-x {
		r.drawTextLine(w-rightWidth, y, w, right, style)
	} else {
		r.drawTextLine(x, y, w, truncateTextToWidth(right, w-x), style)
	}
}

// drawHint shows the link target on the row opposite the bar.
func (r *Renderer) drawHint(hint string, w, h int) {
	y := 0
	if r.bar.Enabled && r.barOnTop() {
		y = h - 1
	}
	width := int(math.Floor(float64(w) * r.hint.Width))
	width = min(max(width, 1), w)

	style := r.theme.hintStyle()
	text := truncateTextToWidth(" "+displayText(hint)+" ", width)
	r.fillRow(y, measureTextWidth(text), style)
	r.drawTextLine(0, y, width, text, style)
}
