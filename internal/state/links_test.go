package state

import (
	"testing"

	"github.com/kk-code-lab/meowpdf/internal/document"
)

// pixelView shows one 612x792 page at zoom 1 with one pixel per cell, so
// screen pixels and page points coincide until the view is scrolled.
func pixelView(links map[int][]document.Link) (Snapshot, LinkSource) {
	settings := testSettings()
	settings.DefaultZoom = 1
	settings.MaxZoom = 4
	v := NewViewportState(settings, NewLayout(letterPages(2), 10), "doc.pdf")
	v.Resize(Screen{Cols: 612, Rows: 400, CellW: 1, CellH: 1})
	return v.Snapshot(), func(page int) []document.Link { return links[page] }
}

func TestHitTestIncludesEdges(t *testing.T) {
	link := document.Link{Rect: document.Rect{X0: 100, Y0: 100, X1: 200, Y1: 150}, URI: "https://example.com"}
	view, source := pixelView(map[int][]document.Link{0: {link}})

	for _, pt := range [][2]float64{{100, 100}, {200, 150}, {150, 125}} {
		hit, ok := HitTest(view, source, pt[0], pt[1])
		if !ok || hit.Link.URI != link.URI || hit.Page != 0 {
			t.Fatalf("expected hit at %v, got %+v (%v)", pt, hit, ok)
		}
	}
	if _, ok := HitTest(view, source, 99.5, 120); ok {
		t.Fatal("expected miss left of the rectangle")
	}
	if _, ok := HitTest(view, source, 150, 150.5); ok {
		t.Fatal("expected miss below the rectangle")
	}
}

func TestHitTestSmallestRectangleWins(t *testing.T) {
	outer := document.Link{Rect: document.Rect{X0: 0, Y0: 0, X1: 300, Y1: 300}, URI: "outer"}
	inner := document.Link{Rect: document.Rect{X0: 100, Y0: 100, X1: 120, Y1: 120}, URI: "inner"}
	view, source := pixelView(map[int][]document.Link{0: {outer, inner}})

	hit, ok := HitTest(view, source, 110, 110)
	if !ok || hit.Link.URI != "inner" {
		t.Fatalf("expected inner link, got %+v (%v)", hit, ok)
	}
	hit, ok = HitTest(view, source, 50, 50)
	if !ok || hit.Link.URI != "outer" {
		t.Fatalf("expected outer link, got %+v (%v)", hit, ok)
	}
}

func TestHitTestFollowsScrollAndZoom(t *testing.T) {
	link := document.Link{Rect: document.Rect{X0: 10, Y0: 10, X1: 20, Y1: 20}, URI: "second"}
	settings := testSettings()
	settings.DefaultZoom = 2
	v := NewViewportState(settings, NewLayout(letterPages(2), 10), "doc.pdf")
	v.Resize(Screen{Cols: 1224, Rows: 400, CellW: 1, CellH: 1})
	v.JumpPage(1)

	view := v.Snapshot()
	source := func(page int) []document.Link {
		if page == 1 {
			return []document.Link{link}
		}
		return nil
	}

	// Page 2 starts at the top of the viewport; point (15, 15) is at (30, 30).
	hit, ok := HitTest(view, source, 30, 30)
	if !ok || hit.Page != 1 || hit.Link.URI != "second" {
		t.Fatalf("expected link on the second page, got %+v (%v)", hit, ok)
	}
	if _, ok := HitTest(view, source, 15, 15); ok {
		t.Fatal("expected miss outside the scaled rectangle")
	}
}

func TestHitTestMissesGapAndMargins(t *testing.T) {
	link := document.Link{Rect: document.Rect{X0: 0, Y0: 0, X1: 612, Y1: 792}, URI: "page"}
	settings := testSettings()
	settings.DefaultZoom = 0.5
	v := NewViewportState(settings, NewLayout(letterPages(2), 10), "doc.pdf")
	v.Resize(Screen{Cols: 800, Rows: 1000, CellW: 1, CellH: 1})
	view := v.Snapshot()
	source := func(int) []document.Link { return []document.Link{link} }

	// Content is centred: it spans 247..553 horizontally.
	if _, ok := HitTest(view, source, 100, 100); ok {
		t.Fatal("expected miss in the side margin")
	}
	if _, ok := HitTest(view, source, 400, 398); ok {
		t.Fatal("expected miss in the page gap")
	}
	if _, ok := HitTest(view, source, 400, 100); !ok {
		t.Fatal("expected hit on the page")
	}
}

func TestPointerPixels(t *testing.T) {
	screen := Screen{Cols: 10, Rows: 5, Top: 1, CellW: 8, CellH: 16}

	x, y, ok := PointerPixels(screen, 2, 1)
	if !ok || x != 20 || y != 8 {
		t.Fatalf("expected (20, 8), got (%v, %v, %v)", x, y, ok)
	}
	if _, _, ok := PointerPixels(screen, 2, 0); ok {
		t.Fatal("expected the bar row to be outside the page area")
	}
	if _, _, ok := PointerPixels(screen, 10, 2); ok {
		t.Fatal("expected column past the edge to be rejected")
	}
}

func TestInternalPage(t *testing.T) {
	tests := []struct {
		uri  string
		page int
		ok   bool
	}{
		{"#page=3", 2, true},
		{"#1", 0, true},
		{"#page=0", 0, false},
		{"#intro", 0, false},
		{"https://example.com/#page=2", 0, false},
	}
	for _, tt := range tests {
		page, ok := InternalPage(tt.uri)
		if ok != tt.ok || page != tt.page {
			t.Errorf("InternalPage(%q) = %d, %v; want %d, %v", tt.uri, page, ok, tt.page, tt.ok)
		}
	}
}

func TestParseAction(t *testing.T) {
	for _, action := range Actions() {
		got, ok := ParseAction(action.String())
		if !ok || got != action {
			t.Fatalf("round trip failed for %v", action)
		}
	}
	if _, ok := ParseAction("none"); ok {
		t.Fatal("expected none to be rejected")
	}
	if _, ok := ParseAction("explode"); ok {
		t.Fatal("expected unknown action to be rejected")
	}
}
