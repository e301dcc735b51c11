package kitty

import (
	"bytes"
	"compress/zlib"
	"encoding/base64"
	"errors"
	"image"
	"image/color"
	"io"
	"strings"
	"testing"
)

func solidImage(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

func placement(page int, id uint32, col int) Placement {
	return Placement{Page: page, ImageID: id, Col: col, Row: 0, Cols: 10, Rows: 5, Crop: image.Rect(0, 0, 100, 100)}
}

func TestTransmitChunksCompressedPayload(t *testing.T) {
	var out bytes.Buffer
	enc := NewEncoder(&out)
	id := enc.AllocateID()

	// Noise does not compress, so the payload spans several chunks.
	img := image.NewRGBA(image.Rect(0, 0, 64, 64))
	seed := uint32(7)
	for i := range img.Pix {
		seed = seed*1664525 + 1013904223
		img.Pix[i] = byte(seed >> 24)
	}
	if err := enc.Transmit(id, img, 2); err != nil {
		t.Fatalf("Transmit: %v", err)
	}
	if err := enc.Flush(); err != nil {
		t.Fatal(err)
	}

	frames := strings.Split(strings.TrimSuffix(out.String(), "\x1b\\"), "\x1b\\")
	if len(frames) < 2 {
		t.Fatalf("expected several chunks, got %d", len(frames))
	}
	if !strings.HasPrefix(frames[0], "\x1b_Ga=t,f=32,s=68,v=68,i=1,o=z,q=2,m=1;") {
		t.Fatalf("unexpected first chunk header %q", frames[0][:60])
	}
	var payload strings.Builder
	for i, frame := range frames {
		control, data, ok := strings.Cut(strings.TrimPrefix(frame, "\x1b_G"), ";")
		if !ok {
			t.Fatalf("chunk %d has no payload", i)
		}
		last := i == len(frames)-1
		if last != strings.HasSuffix(control, "m=0") {
			t.Fatalf("chunk %d has wrong continuation flag: %q", i, control)
		}
		if len(data) > chunkSize {
			t.Fatalf("chunk %d too large: %d", i, len(data))
		}
		payload.WriteString(data)
	}

	raw, err := base64.StdEncoding.DecodeString(payload.String())
	if err != nil {
		t.Fatal(err)
	}
	zr, err := zlib.NewReader(bytes.NewReader(raw))
	if err != nil {
		t.Fatal(err)
	}
	pix, err := io.ReadAll(zr)
	if err != nil {
		t.Fatal(err)
	}
	if len(pix) != 68*68*4 {
		t.Fatalf("expected padded 68x68 RGBA, got %d bytes", len(pix))
	}
	if pix[3] != 0 {
		t.Fatal("expected transparent padding")
	}
	inner := ((2*68 + 2) * 4)
	if !bytes.Equal(pix[inner:inner+4], img.Pix[:4]) {
		t.Fatalf("expected first page pixel after padding, got %v want %v", pix[inner:inner+4], img.Pix[:4])
	}
}

func TestFrameEmitsOnlyDifferences(t *testing.T) {
	var out bytes.Buffer
	enc := NewEncoder(&out)

	if err := enc.Frame([]Placement{placement(0, 1, 0), placement(1, 2, 0)}); err != nil {
		t.Fatal(err)
	}
	enc.Flush()
	if got := strings.Count(out.String(), "a=p"); got != 2 {
		t.Fatalf("expected two placements, got %d", got)
	}

	out.Reset()
	enc.Frame([]Placement{placement(0, 1, 0), placement(1, 2, 0)})
	enc.Flush()
	if out.Len() != 0 {
		t.Fatalf("expected no output for an identical frame, got %q", out.String())
	}

	out.Reset()
	enc.Frame([]Placement{placement(0, 1, 3)})
	enc.Flush()
	s := out.String()
	if strings.Count(s, "a=p") != 1 || !strings.Contains(s, "i=1,p=1") {
		t.Fatalf("expected page 0 moved in place, got %q", s)
	}
	if !strings.Contains(s, "a=d,d=i,i=2,p=2") {
		t.Fatalf("expected page 1 placement deleted, got %q", s)
	}
	if !strings.Contains(s, "\x1b[1;4H") {
		t.Fatalf("expected cursor at column 4, got %q", s)
	}
}

func TestFrameReplacesPlacementWhenImageChanges(t *testing.T) {
	var out bytes.Buffer
	enc := NewEncoder(&out)
	enc.Frame([]Placement{placement(0, 1, 0)})
	enc.Flush()

	out.Reset()
	enc.Frame([]Placement{placement(0, 5, 0)})
	enc.Flush()
	s := out.String()
	del := strings.Index(s, "a=d,d=i,i=1,p=1")
	put := strings.Index(s, "a=p,i=5,p=1")
	if del < 0 || put < 0 || del > put {
		t.Fatalf("expected delete of old image before new placement, got %q", s)
	}
}

func TestRetransmittedImageIsPlacedAgain(t *testing.T) {
	var out bytes.Buffer
	enc := NewEncoder(&out)
	img := solidImage(4, 4, color.RGBA{255, 255, 255, 255})

	enc.Transmit(1, img, 0)
	enc.Frame([]Placement{placement(0, 1, 0)})

	enc.SetTreatment(Treatment{Invert: true})
	if !enc.Stale(1) {
		t.Fatal("expected image to be stale after treatment change")
	}
	enc.Transmit(1, img, 0)
	if enc.Stale(1) {
		t.Fatal("expected fresh image after retransmission")
	}

	enc.Flush()
	out.Reset()
	enc.Frame([]Placement{placement(0, 1, 0)})
	enc.Flush()
	if strings.Count(out.String(), "a=p") != 1 {
		t.Fatalf("expected the retransmitted image to be placed again, got %q", out.String())
	}
}

func TestReleaseAndClear(t *testing.T) {
	var out bytes.Buffer
	enc := NewEncoder(&out)
	img := solidImage(2, 2, color.RGBA{0, 0, 0, 255})
	enc.Transmit(1, img, 0)
	enc.Frame([]Placement{placement(0, 1, 0)})
	enc.Flush()

	out.Reset()
	enc.Release(1)
	enc.Flush()
	if !strings.Contains(out.String(), "a=d,d=I,i=1") {
		t.Fatalf("expected image deletion, got %q", out.String())
	}
	if _, ok := enc.Placed(0); ok {
		t.Fatal("expected placement to be forgotten with its image")
	}

	out.Reset()
	enc.Release(1)
	enc.Flush()
	if out.Len() != 0 {
		t.Fatalf("expected releasing an unknown image to be a no-op, got %q", out.String())
	}

	enc.Transmit(2, img, 0)
	enc.Flush()
	out.Reset()
	enc.Clear()
	enc.Flush()
	if !strings.Contains(out.String(), "a=d,d=A") || enc.Transmitted(2) {
		t.Fatalf("expected everything cleared, got %q", out.String())
	}
}

func TestErrorImageIsSharedAndPlain(t *testing.T) {
	var out bytes.Buffer
	enc := NewEncoder(&out)

	first, err := enc.ErrorImageID()
	if err != nil {
		t.Fatal(err)
	}
	second, _ := enc.ErrorImageID()
	if first != second {
		t.Fatalf("expected one error image, got %d and %d", first, second)
	}
	enc.SetTreatment(Treatment{Alpha: true})
	if enc.Stale(first) {
		t.Fatal("error image must not go stale")
	}
	enc.Flush()
	if strings.Count(out.String(), "a=t") != 1 {
		t.Fatalf("expected one transmission, got %q", out.String())
	}
}

func TestSetPointerOnlyOnChange(t *testing.T) {
	var out bytes.Buffer
	enc := NewEncoder(&out)
	enc.SetPointer("pointer")
	enc.SetPointer("pointer")
	enc.SetPointer("")
	enc.Flush()
	if got := out.String(); got != "\x1b]22;pointer\x1b\\\x1b]22;default\x1b\\" {
		t.Fatalf("unexpected pointer output %q", got)
	}
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("broken pipe") }

func TestWriteErrorIsSticky(t *testing.T) {
	enc := NewEncoder(failingWriter{})
	enc.Frame([]Placement{placement(0, 1, 0)})

	err := enc.Flush()
	var werr *WriteError
	if !errors.As(err, &werr) {
		t.Fatalf("expected WriteError, got %v", err)
	}
	if enc.Err() == nil || enc.Clear() == nil {
		t.Fatal("expected the error to persist")
	}
}
