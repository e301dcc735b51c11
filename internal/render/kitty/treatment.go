package kitty

import "image"

// Treatment is the pixel post-processing applied before transmission.
type Treatment struct {
	Alpha  bool // turn the white page background transparent
	Invert bool // invert colours, after Alpha
}

// pad copies src into a straight-alpha RGBA buffer surrounded by pad
// transparent pixels on every side, applying t to the page pixels.
func pad(src *image.RGBA, pad int, t Treatment) (pix []byte, w, h int) {
	b := src.Bounds()
	sw, sh := b.Dx(), b.Dy()
	w, h = sw+2*pad, sh+2*pad
	pix = make([]byte, w*h*4)

	for y := 0; y < sh; y++ {
		row := src.Pix[src.PixOffset(b.Min.X, b.Min.Y+y):]
		out := pix[((y+pad)*w+pad)*4:]
		for x := 0; x < sw; x++ {
			i := x * 4
			r, g, bl, a := treat(row[i], row[i+1], row[i+2], row[i+3], t)
			out[i], out[i+1], out[i+2], out[i+3] = r, g, bl, a
		}
	}
	return pix, w, h
}

// treat processes one pixel. With Alpha, white is removed: the alpha becomes
// 255 minus the smallest channel and the colour is rescaled so compositing it
// over white gives back the original.
func treat(r, g, b, a uint8, t Treatment) (uint8, uint8, uint8, uint8) {
	if t.Alpha {
		m := min(r, g, b)
		if m == 255 {
			r, g, b, a = 0, 0, 0, 0
		} else {
			span := 255 - int(m)
			r = uint8((int(r) - int(m)) * 255 / span)
			g = uint8((int(g) - int(m)) * 255 / span)
			b = uint8((int(b) - int(m)) * 255 / span)
			a = uint8(int(a) * span / 255)
		}
	}
	if t.Invert {
		r, g, b = 255-r, 255-g, 255-b
	}
	return r, g, b, a
}
