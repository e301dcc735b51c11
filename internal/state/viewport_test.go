package state

import (
	"math"
	"math/rand"
	"testing"

	"github.com/kk-code-lab/meowpdf/internal/document"
)

func letterPages(n int) []document.Size {
	sizes := make([]document.Size, n)
	for i := range sizes {
		sizes[i] = document.Size{W: 612, H: 792}
	}
	return sizes
}

func testSettings() Settings {
	return Settings{
		ScrollStep:    40,
		ZoomStep:      1.1,
		MinZoom:       0.2,
		MaxZoom:       8,
		Precision:     1.5,
		PreloadMargin: 2,
		BottomMargin:  10,
	}
}

// 80x24 terminal with 10x20 pixel cells and one row reserved for the bar.
func terminalScreen() Screen {
	return Screen{Cols: 80, Rows: 23, CellW: 10, CellH: 20}
}

func newTestViewport(pages int) *ViewportState {
	v := NewViewportState(testSettings(), NewLayout(letterPages(pages), 10), "doc.pdf")
	v.Resize(terminalScreen())
	return v
}

func assertClamped(t *testing.T, s Snapshot) {
	t.Helper()
	maxX, maxY := s.MaxScroll()
	if s.ScrollX < 0 || s.ScrollX > maxX {
		t.Fatalf("scroll x %v outside [0, %v]", s.ScrollX, maxX)
	}
	if s.ScrollY < 0 || s.ScrollY > maxY {
		t.Fatalf("scroll y %v outside [0, %v]", s.ScrollY, maxY)
	}
	if s.Zoom < 0.2 || s.Zoom > 8 {
		t.Fatalf("zoom %v outside [0.2, 8]", s.Zoom)
	}
}

func TestInitialZoomFitsPageWidth(t *testing.T) {
	v := newTestViewport(10)
	s := v.Snapshot()

	want := 800.0 / 612.0
	if math.Abs(s.Zoom-want) > 1e-9 {
		t.Fatalf("expected fit-width zoom %v, got %v", want, s.Zoom)
	}

	first, last, ok := s.VisibleRange()
	if !ok || first != 0 || last != 0 {
		t.Fatalf("expected only the first page visible, got %d..%d (ok=%v)", first, last, ok)
	}

	preload := s.PreloadPages()
	if len(preload) != 2 || preload[0] != 1 || preload[1] != 2 {
		t.Fatalf("expected preload pages [1 2], got %v", preload)
	}
}

func TestConfiguredDefaultZoomIsKept(t *testing.T) {
	settings := testSettings()
	settings.DefaultZoom = 0.5
	v := NewViewportState(settings, NewLayout(letterPages(3), 10), "doc.pdf")
	v.Resize(terminalScreen())

	if got := v.Snapshot().Zoom; got != 0.5 {
		t.Fatalf("expected zoom 0.5, got %v", got)
	}
}

func TestScrollIsClamped(t *testing.T) {
	v := newTestViewport(2)

	v.ScrollBy(-100, -100)
	if s := v.Snapshot(); s.ScrollX != 0 || s.ScrollY != 0 {
		t.Fatalf("expected scroll clamped to origin, got (%v, %v)", s.ScrollX, s.ScrollY)
	}

	v.ScrollBy(1e9, 1e9)
	s := v.Snapshot()
	maxX, maxY := s.MaxScroll()
	if s.ScrollX != maxX || s.ScrollY != maxY {
		t.Fatalf("expected scroll clamped to (%v, %v), got (%v, %v)", maxX, maxY, s.ScrollX, s.ScrollY)
	}
	wantY := s.Layout.Height(s.Zoom) + s.BottomMargin - s.Screen.Height()
	if math.Abs(maxY-wantY) > 1e-9 {
		t.Fatalf("expected max y %v to include the bottom margin, got %v", wantY, maxY)
	}
}

func TestZoomIsClampedToLimits(t *testing.T) {
	v := newTestViewport(2)

	v.ZoomBy(200)
	if got := v.Snapshot().Zoom; got != 8 {
		t.Fatalf("expected max zoom 8, got %v", got)
	}
	v.ZoomBy(-400)
	if got := v.Snapshot().Zoom; got != 0.2 {
		t.Fatalf("expected min zoom 0.2, got %v", got)
	}
	if factor := v.ZoomBy(-1); factor != 1 {
		t.Fatalf("expected no-op factor at the limit, got %v", factor)
	}
}

func TestZoomKeepsViewportCentreAnchored(t *testing.T) {
	v := newTestViewport(10)
	v.ScrollBy(0, 2000)

	before := v.Snapshot()
	centre := before.ScrollY + before.Screen.Height()/2

	factor := v.ZoomBy(1)
	after := v.Snapshot()
	if math.Abs(factor-1.1) > 1e-9 {
		t.Fatalf("expected factor 1.1, got %v", factor)
	}
	gotCentre := after.ScrollY + after.Screen.Height()/2
	if math.Abs(gotCentre-centre*factor) > 1e-6 {
		t.Fatalf("expected centre %v, got %v", centre*factor, gotCentre)
	}
}

func TestJumpLastPageFromMiddle(t *testing.T) {
	v := newTestViewport(10)
	v.JumpPage(6)
	if got := v.CurrentPage(); got != 6 {
		t.Fatalf("expected page 7 (index 6), got index %d", got)
	}

	v.JumpPage(9)
	s := v.Snapshot()
	if got := s.CurrentPage(); got != 9 {
		t.Fatalf("expected last page (index 9), got index %d", got)
	}
	if s.ScrollY != s.Layout.PageTop(9, s.Zoom) {
		t.Fatalf("expected last page at the top, scroll %v top %v", s.ScrollY, s.Layout.PageTop(9, s.Zoom))
	}
}

func TestJumpFirstPageAtTopIsNoop(t *testing.T) {
	v := newTestViewport(10)
	before := v.Snapshot()
	v.JumpPage(0)
	after := v.Snapshot()
	if before.ScrollX != after.ScrollX || before.ScrollY != after.ScrollY || before.Zoom != after.Zoom {
		t.Fatalf("expected unchanged viewport, before %+v after %+v", before, after)
	}
}

func TestJumpPageClampsIndex(t *testing.T) {
	v := newTestViewport(3)
	v.JumpPage(50)
	if got := v.CurrentPage(); got != 2 {
		t.Fatalf("expected last page, got %d", got)
	}
	v.JumpPage(-3)
	if got := v.Snapshot().ScrollY; got != 0 {
		t.Fatalf("expected top of document, got %v", got)
	}
}

func TestNarrowContentIsCentred(t *testing.T) {
	settings := testSettings()
	settings.DefaultZoom = 0.5
	v := NewViewportState(settings, NewLayout(letterPages(1), 10), "doc.pdf")
	v.Resize(terminalScreen())

	s := v.Snapshot()
	wantOrigin := (800 - 612*0.5) / 2
	if s.OriginX() != wantOrigin {
		t.Fatalf("expected origin %v, got %v", wantOrigin, s.OriginX())
	}
	rect := s.PageRect(0)
	if rect.X0 != wantOrigin || rect.X1 != wantOrigin+306 {
		t.Fatalf("unexpected page rect %+v", rect)
	}
}

func TestToggleFlags(t *testing.T) {
	v := newTestViewport(1)
	if !v.ToggleAlpha() || !v.Snapshot().Alpha {
		t.Fatal("expected alpha enabled after first toggle")
	}
	if v.ToggleAlpha() {
		t.Fatal("expected alpha disabled after second toggle")
	}
	if !v.ToggleInvert() || !v.Snapshot().Invert {
		t.Fatal("expected invert enabled")
	}
}

func TestOverlaySettersReportChanges(t *testing.T) {
	v := newTestViewport(1)
	if !v.SetHint("https://example.com") {
		t.Fatal("expected hint change")
	}
	if v.SetHint("https://example.com") {
		t.Fatal("expected no change for the same hint")
	}
	if !v.SetPending("g") || v.Snapshot().Overlay.Pending != "g" {
		t.Fatal("expected pending sequence to be recorded")
	}
}

func TestSnapshotIsDetached(t *testing.T) {
	v := newTestViewport(5)
	snap := v.Snapshot()
	v.ScrollBy(0, 500)
	if snap.ScrollY != 0 {
		t.Fatalf("snapshot changed after mutation: %v", snap.ScrollY)
	}
}

func TestRandomOperationsKeepScrollClamped(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	v := newTestViewport(7)

	for i := 0; i < 2000; i++ {
		switch rng.Intn(9) {
		case 0:
			v.ScrollSteps(rng.Intn(21)-10, rng.Intn(21)-10)
		case 1:
			v.ScrollPages(rng.Float64()*4 - 2)
		case 2:
			v.ZoomBy(rng.Intn(7) - 3)
		case 3:
			v.JumpPage(rng.Intn(12) - 2)
		case 4:
			v.Resize(Screen{Cols: 1 + rng.Intn(200), Rows: 1 + rng.Intn(60), CellW: 6 + rng.Float64()*6, CellH: 12 + rng.Float64()*10})
		case 5:
			v.FitWidth()
		case 6:
			v.CenterHorizontally()
		case 7:
			v.ScrollTo(rng.Float64()*1e5-5e4, rng.Float64()*1e5-5e4)
		case 8:
			v.SetLayout(NewLayout(letterPages(1+rng.Intn(8)), 10))
		}
		assertClamped(t, v.Snapshot())
	}
}
