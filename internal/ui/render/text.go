package render

import (
	"github.com/gdamore/tcell/v2"
	"github.com/kk-code-lab/meowpdf/internal/textutil"
	"github.com/mattn/go-runewidth"
	"github.com/rivo/uniseg"
	"golang.org/x/text/unicode/norm"
)

const ellipsis = "…"

// displayText prepares text from the document or the file system for the
// terminal: composed, without control sequences, with formatting runes shown.
func displayText(text string) string {
	return textutil.SanitizeTerminalText(norm.NFC.String(text))
}

func measureTextWidth(text string) int {
	return runewidth.StringWidth(text)
}

// truncateTextToWidth shortens text to maxWidth cells, ending in an
// ellipsis when anything was cut.
func truncateTextToWidth(text string, maxWidth int) string {
	if maxWidth <= 0 || text == "" {
		return ""
	}
	if measureTextWidth(text) <= maxWidth {
		return text
	}
	if maxWidth <= measureTextWidth(ellipsis) {
		return ellipsis
	}
	return runewidth.Truncate(text, maxWidth, ellipsis)
}

// drawTextLine draws text one grapheme cluster per cell group and returns
// the column after the last cell written. Clusters that would cross maxX are
// not drawn.
func (r *Renderer) drawTextLine(startX, y, maxX int, text string, style tcell.Style) int {
	x := startX
	g := uniseg.NewGraphemes(text)
	for g.Next() {
		runes := g.Runes()
		w := runewidth.StringWidth(g.Str())
		if w <= 0 {
			continue
		}
		if x+w > maxX {
			break
		}
		r.screen.SetContent(x, y, runes[0], runes[1:], style)
		x += w
	}
	return x
}

func (r *Renderer) fillRow(y, width int, style tcell.Style) {
	for x := 0; x < width; x++ {
		r.screen.SetContent(x, y, ' ', nil, style)
	}
}
