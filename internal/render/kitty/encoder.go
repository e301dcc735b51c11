// Package kitty writes pages to the terminal with the kitty graphics protocol.
package kitty

import (
	"bufio"
	"bytes"
	"compress/zlib"
	"encoding/base64"
	"fmt"
	"image"
	"io"
	"maps"
	"slices"
)

const (
	chunkSize = 4096

	// Placements below this z-index are drawn under cells that have a
	// background colour, so the status bar stays readable.
	zIndex = -1073741825
)

// WriteError reports a failed write to the terminal.
type WriteError struct {
	Op  string
	Err error
}

func (e *WriteError) Error() string { return fmt.Sprintf("kitty %s: %v", e.Op, e.Err) }
func (e *WriteError) Unwrap() error { return e.Err }

// Placement is one page on screen. Col and Row are zero-based terminal cells;
// Crop is the part of the transmitted image shown in Cols x Rows cells.
type Placement struct {
	Page       int
	ImageID    uint32
	Col, Row   int
	Cols, Rows int
	Crop       image.Rectangle
}

type imageInfo struct {
	treatment Treatment
	plain     bool // never post-processed
}

// Encoder tracks what the terminal shows and emits the commands that turn
// the previous frame into the next one. It is used by one goroutine.
type Encoder struct {
	w         *bufio.Writer
	err       error
	nextID    uint32
	treatment Treatment
	images    map[uint32]imageInfo
	placed    map[int]Placement
	dirty     map[uint32]bool
	errorID   uint32
	pointer   string
}

func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{
		w:      bufio.NewWriterSize(w, 64<<10),
		nextID: 1,
		images: make(map[uint32]imageInfo),
		placed: make(map[int]Placement),
		dirty:  make(map[uint32]bool),
	}
}

// AllocateID reserves an image id.
func (e *Encoder) AllocateID() uint32 {
	id := e.nextID
	e.nextID++
	if e.nextID == 0 {
		e.nextID = 1
	}
	return id
}

// Treatment returns the post-processing applied to new transmissions.
func (e *Encoder) Treatment() Treatment { return e.treatment }

// SetTreatment changes the post-processing for subsequent transmissions.
// Images sent with another treatment become stale.
func (e *Encoder) SetTreatment(t Treatment) {
	e.treatment = t
}

// Stale reports whether a transmitted image was processed with a treatment
// other than the current one.
func (e *Encoder) Stale(id uint32) bool {
	info, ok := e.images[id]
	return ok && !info.plain && info.treatment != e.treatment
}

// Transmitted reports whether id holds image data in the terminal.
func (e *Encoder) Transmitted(id uint32) bool {
	_, ok := e.images[id]
	return ok
}

// Transmit uploads img under id with pad transparent pixels around it. The
// pixels are zlib-compressed and sent base64-encoded in chunks. Placements of
// a retransmitted id are refreshed by the next Frame.
func (e *Encoder) Transmit(id uint32, img *image.RGBA, padding int) error {
	pix, w, h := pad(img, padding, e.treatment)
	if err := e.transmit(id, pix, w, h); err != nil {
		return err
	}
	e.images[id] = imageInfo{treatment: e.treatment}
	return nil
}

func (e *Encoder) transmit(id uint32, pix []byte, w, h int) error {
	var compressed bytes.Buffer
	zw := zlib.NewWriter(&compressed)
	if _, err := zw.Write(pix); err != nil {
		return fmt.Errorf("compressing image %d: %w", id, err)
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("compressing image %d: %w", id, err)
	}
	payload := base64.StdEncoding.EncodeToString(compressed.Bytes())

	for start := 0; start < len(payload) || start == 0; start += chunkSize {
		end := min(start+chunkSize, len(payload))
		more := 0
		if end < len(payload) {
			more = 1
		}
		if start == 0 {
			e.printf("\x1b_Ga=t,f=32,s=%d,v=%d,i=%d,o=z,q=2,m=%d;%s\x1b\\", w, h, id, more, payload[start:end])
		} else {
			e.printf("\x1b_Gm=%d;%s\x1b\\", more, payload[start:end])
		}
		if end == len(payload) {
			break
		}
	}
	if e.err != nil {
		return e.err
	}
	if e.placedWith(id) {
		e.dirty[id] = true
	}
	return nil
}

// ErrorImageID returns the id of the placeholder shown for pages that failed
// to rasterize, transmitting it on first use.
func (e *Encoder) ErrorImageID() (uint32, error) {
	if e.errorID != 0 {
		return e.errorID, nil
	}
	id := e.AllocateID()
	pix := []byte{0xbb, 0xbb, 0xbb, 0xff}
	if err := e.transmit(id, pix, 1, 1); err != nil {
		return 0, err
	}
	e.images[id] = imageInfo{plain: true}
	e.errorID = id
	return id, nil
}

// Frame makes the terminal show exactly placements, keyed by page. Pages
// that left the frame are deleted; pages whose image or geometry changed, or
// whose image was retransmitted, are placed again.
func (e *Encoder) Frame(placements []Placement) error {
	next := make(map[int]Placement, len(placements))
	for _, p := range placements {
		next[p.Page] = p
	}

	for _, page := range slices.Sorted(maps.Keys(e.placed)) {
		if _, ok := next[page]; !ok {
			e.deletePlacement(e.placed[page])
			delete(e.placed, page)
		}
	}

	for _, p := range placements {
		old, ok := e.placed[p.Page]
		switch {
		case !ok:
		case old.ImageID != p.ImageID:
			e.deletePlacement(old)
		case old == p && !e.dirty[p.ImageID]:
			continue
		}
		e.place(p)
		e.placed[p.Page] = p
	}
	clear(e.dirty)
	return e.err
}

// Placed returns the current placement of page.
func (e *Encoder) Placed(page int) (Placement, bool) {
	p, ok := e.placed[page]
	return p, ok
}

func (e *Encoder) place(p Placement) {
	e.printf("\x1b7\x1b[%d;%dH", p.Row+1, p.Col+1)
	e.printf("\x1b_Ga=p,i=%d,p=%d,x=%d,y=%d,w=%d,h=%d,c=%d,r=%d,C=1,z=%d,q=2\x1b\\",
		p.ImageID, placementID(p.Page), p.Crop.Min.X, p.Crop.Min.Y, p.Crop.Dx(), p.Crop.Dy(), p.Cols, p.Rows, zIndex)
	e.printf("\x1b8")
}

func (e *Encoder) deletePlacement(p Placement) {
	e.printf("\x1b_Ga=d,d=i,i=%d,p=%d,q=2\x1b\\", p.ImageID, placementID(p.Page))
}

func placementID(page int) int { return page + 1 }

func (e *Encoder) placedWith(id uint32) bool {
	for _, p := range e.placed {
		if p.ImageID == id {
			return true
		}
	}
	return false
}

// Release deletes an image and its placements, freeing the terminal memory.
func (e *Encoder) Release(id uint32) error {
	if _, ok := e.images[id]; !ok {
		return e.err
	}
	e.printf("\x1b_Ga=d,d=I,i=%d,q=2\x1b\\", id)
	delete(e.images, id)
	delete(e.dirty, id)
	for page, p := range e.placed {
		if p.ImageID == id {
			delete(e.placed, page)
		}
	}
	return e.err
}

// ForgetPlacements deletes every placement but keeps the image data, so
// the next Frame places everything again.
func (e *Encoder) ForgetPlacements() error {
	e.printf("\x1b_Ga=d,d=a,q=2\x1b\\")
	clear(e.placed)
	clear(e.dirty)
	return e.err
}

// Clear deletes every image and placement.
func (e *Encoder) Clear() error {
	e.printf("\x1b_Ga=d,d=A,q=2\x1b\\")
	clear(e.images)
	clear(e.placed)
	clear(e.dirty)
	e.errorID = 0
	return e.err
}

// SetPointer changes the mouse pointer shape with OSC 22; "" restores the
// default shape.
func (e *Encoder) SetPointer(shape string) error {
	if shape == e.pointer {
		return e.err
	}
	e.pointer = shape
	if shape == "" {
		shape = "default"
	}
	e.printf("\x1b]22;%s\x1b\\", shape)
	return e.err
}

// Flush writes buffered commands to the terminal.
func (e *Encoder) Flush() error {
	if e.err != nil {
		return e.err
	}
	if err := e.w.Flush(); err != nil {
		e.err = &WriteError{Op: "flush", Err: err}
	}
	return e.err
}

// Err returns the first write error.
func (e *Encoder) Err() error { return e.err }

func (e *Encoder) printf(format string, args ...any) {
	if e.err != nil {
		return
	}
	if _, err := fmt.Fprintf(e.w, format, args...); err != nil {
		e.err = &WriteError{Op: "write", Err: err}
	}
}
