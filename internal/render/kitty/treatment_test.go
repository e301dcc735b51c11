package kitty

import (
	"image"
	"image/color"
	"testing"
)

func TestTreat(t *testing.T) {
	tests := []struct {
		name string
		in   color.RGBA
		t    Treatment
		want color.RGBA
	}{
		{"untouched", color.RGBA{10, 20, 30, 255}, Treatment{}, color.RGBA{10, 20, 30, 255}},
		{"white becomes transparent", color.RGBA{255, 255, 255, 255}, Treatment{Alpha: true}, color.RGBA{0, 0, 0, 0}},
		{"black stays opaque", color.RGBA{0, 0, 0, 255}, Treatment{Alpha: true}, color.RGBA{0, 0, 0, 255}},
		{"grey becomes translucent black", color.RGBA{128, 128, 128, 255}, Treatment{Alpha: true}, color.RGBA{0, 0, 0, 127}},
		{"invert", color.RGBA{0, 100, 255, 255}, Treatment{Invert: true}, color.RGBA{255, 155, 0, 255}},
		{"alpha then invert", color.RGBA{0, 0, 0, 255}, Treatment{Alpha: true, Invert: true}, color.RGBA{255, 255, 255, 255}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, g, b, a := treat(tt.in.R, tt.in.G, tt.in.B, tt.in.A, tt.t)
			if got := (color.RGBA{r, g, b, a}); got != tt.want {
				t.Fatalf("treat(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestPadSurroundsImage(t *testing.T) {
	src := solidImage(3, 2, color.RGBA{1, 2, 3, 255})
	pix, w, h := pad(src, 1, Treatment{})
	if w != 5 || h != 4 {
		t.Fatalf("expected 5x4, got %dx%d", w, h)
	}
	at := func(x, y int) []byte { return pix[(y*w+x)*4 : (y*w+x)*4+4] }
	if a := at(0, 0)[3]; a != 0 {
		t.Fatal("expected transparent corner")
	}
	if got := at(1, 1); got[0] != 1 || got[3] != 255 {
		t.Fatalf("expected page pixel at (1,1), got %v", got)
	}
	if a := at(4, 3)[3]; a != 0 {
		t.Fatal("expected transparent bottom right")
	}
}

func TestPadHonoursSubImageBounds(t *testing.T) {
	full := solidImage(4, 4, color.RGBA{9, 9, 9, 255})
	full.SetRGBA(2, 2, color.RGBA{200, 0, 0, 255})
	sub := full.SubImage(image.Rect(2, 2, 4, 4)).(*image.RGBA)

	pix, w, _ := pad(sub, 0, Treatment{})
	if w != 2 || pix[0] != 200 {
		t.Fatalf("expected sub-image origin pixel first, got w=%d pix=%v", w, pix[:4])
	}
}
