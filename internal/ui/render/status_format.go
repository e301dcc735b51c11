package render

import (
	"fmt"
	"math"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/kk-code-lab/meowpdf/internal/config"
	"github.com/kk-code-lab/meowpdf/internal/state"
)

const modeView = "VIEW"

// barSegments are the substituted bar templates.
type barSegments struct {
	mode, file, page, scale string
}

func formatBarSegments(bar config.Bar, view state.Snapshot) barSegments {
	mode := modeView
	if view.Overlay.Pending != "" {
		mode = view.Overlay.Pending
	}
	file := ""
	if view.Overlay.File != "" {
		file = filepath.Base(view.Overlay.File)
	}
	pages := view.PageCount()
	page := 0
	if pages > 0 {
		page = view.CurrentPage() + 1
	}

	replacer := strings.NewReplacer(
		"{mode}", displayText(mode),
		"{file}", displayText(file),
		"{page}", strconv.Itoa(page),
		"{pages}", strconv.Itoa(pages),
		"{scale}", formatScale(view.Zoom),
	)
	return barSegments{
		mode:  replacer.Replace(bar.SegmentMode),
		file:  replacer.Replace(bar.SegmentFile),
		page:  replacer.Replace(bar.SegmentPage),
		scale: replacer.Replace(bar.SegmentScale),
	}
}

// formatScale shows the zoom as a percentage of one pixel per point.
func formatScale(zoom float64) string {
	return fmt.Sprintf("%d%%", int(math.Round(zoom*100)))
}
