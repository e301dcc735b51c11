// Package term talks to the controlling terminal outside of tcell: it opens
// the tty for graphics output, reports the cell size in pixels and probes for
// kitty graphics support.
package term

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"time"
)

// ErrGraphicsUnsupported means the terminal did not acknowledge the kitty
// graphics protocol.
var ErrGraphicsUnsupported = errors.New("terminal does not support the kitty graphics protocol")

// ProbeTimeout bounds the wait for the terminal's answer to the probe.
const ProbeTimeout = time.Second

// Fallback cell size used when the terminal does not report pixel sizes.
const (
	fallbackCellW = 8
	fallbackCellH = 16
)

// probeQuery asks about a 1x1 RGB image with id 31, then requests primary
// device attributes. Every terminal answers the latter, so its reply marks
// the end of the graphics answer.
const probeQuery = "\x1b_Gi=31,s=1,v=1,a=q,t=d,f=24;AAAA\x1b\\\x1b[c"

// OpenTTY opens the controlling terminal for reading and writing.
func OpenTTY() (*os.File, error) {
	f, err := os.OpenFile("/dev/tty", os.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("opening terminal: %w", err)
	}
	return f, nil
}

// Size is the terminal size in cells and the size of one cell in pixels.
type Size struct {
	Cols, Rows   int
	CellW, CellH float64
}

// GetSize reports the size of the terminal behind f. Terminals that do not
// report their pixel size get an 8x16 pixel cell.
func GetSize(f *os.File) (Size, error) {
	cols, rows, xpix, ypix, err := windowSize(int(f.Fd()))
	if err != nil {
		return Size{}, fmt.Errorf("reading terminal size: %w", err)
	}
	return sizeFrom(cols, rows, xpix, ypix), nil
}

func sizeFrom(cols, rows, xpix, ypix int) Size {
	s := Size{Cols: cols, Rows: rows, CellW: fallbackCellW, CellH: fallbackCellH}
	if cols > 0 && rows > 0 && xpix > 0 && ypix > 0 {
		s.CellW = float64(xpix) / float64(cols)
		s.CellH = float64(ypix) / float64(rows)
	}
	return s
}

// probeReply inspects what the terminal sent so far. done is set once the
// device attributes reply arrived; ok when the graphics query was answered
// with OK before it.
func probeReply(buf []byte) (done, ok bool) {
	da := bytes.Index(buf, []byte("\x1b[?"))
	for da >= 0 {
		rest := buf[da+3:]
		end := bytes.IndexFunc(rest, func(r rune) bool { return r != ';' && (r < '0' || r > '9') })
		if end >= 0 && rest[end] == 'c' {
			graphics := buf[:da]
			return true, bytes.Contains(graphics, []byte("\x1b_Gi=31;OK"))
		}
		if end < 0 {
			return false, false
		}
		next := bytes.Index(rest, []byte("\x1b[?"))
		if next < 0 {
			break
		}
		da += 3 + next
	}
	return false, false
}

// CellSize reports the pixel size of one cell of the terminal behind f,
// falling back to 8x16 when it cannot be read.
func CellSize(f *os.File) (w, h float64) {
	size, err := GetSize(f)
	if err != nil {
		return fallbackCellW, fallbackCellH
	}
	return size.CellW, size.CellH
}
