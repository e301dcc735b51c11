package state

import (
	"testing"

	"github.com/kk-code-lab/meowpdf/internal/document"
)

func TestLayoutOffsets(t *testing.T) {
	l := NewLayout([]document.Size{{W: 100, H: 200}, {W: 300, H: 100}, {W: 100, H: 50}}, 10)

	if got := l.Height(1); got != 370 {
		t.Fatalf("expected height 370, got %v", got)
	}
	if got := l.Width(2); got != 600 {
		t.Fatalf("expected width 600 at zoom 2, got %v", got)
	}
	if got := l.PageTop(2, 1); got != 320 {
		t.Fatalf("expected third page at 320, got %v", got)
	}

	b := l.PageBounds(0, 1)
	if b.X0 != 100 || b.X1 != 200 {
		t.Fatalf("expected narrow page centred at 100..200, got %+v", b)
	}
}

func TestLayoutPageAt(t *testing.T) {
	l := NewLayout([]document.Size{{W: 100, H: 100}, {W: 100, H: 100}}, 10)

	tests := []struct {
		name string
		y    float64
		page int
		ok   bool
	}{
		{"top edge", 0, 0, true},
		{"bottom edge inclusive", 100, 0, true},
		{"gap", 105, 0, false},
		{"second page", 110, 1, true},
		{"past end", 500, 0, false},
		{"negative", -1, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, ok := l.PageAt(tt.y, 1)
			if ok != tt.ok || (ok && page != tt.page) {
				t.Fatalf("PageAt(%v) = %d, %v; want %d, %v", tt.y, page, ok, tt.page, tt.ok)
			}
		})
	}
}

func TestLayoutRange(t *testing.T) {
	l := NewLayout(letterPages(4), 10)

	first, last, ok := l.Range(0, 792, 1)
	if !ok || first != 0 || last != 0 {
		t.Fatalf("expected 0..0, got %d..%d (%v)", first, last, ok)
	}

	first, last, ok = l.Range(700, 900, 1)
	if !ok || first != 0 || last != 1 {
		t.Fatalf("expected 0..1, got %d..%d (%v)", first, last, ok)
	}

	// A window entirely inside a gap touches no page.
	if _, _, ok = l.Range(793, 801, 1); ok {
		t.Fatal("expected no pages inside the gap")
	}

	if _, _, ok = l.Range(1e6, 2e6, 1); ok {
		t.Fatal("expected no pages past the end")
	}
}

func TestNilLayoutIsEmpty(t *testing.T) {
	var l *Layout
	if l.PageCount() != 0 || l.Height(1) != 0 {
		t.Fatal("expected empty nil layout")
	}
	if _, _, ok := l.Range(0, 10, 1); ok {
		t.Fatal("expected empty range")
	}
}
