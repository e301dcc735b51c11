package render

import (
	"github.com/gdamore/tcell/v2"
	"github.com/kk-code-lab/meowpdf/internal/config"
)

// ColorTheme holds the overlay styles.
type ColorTheme struct {
	BarBg  tcell.Color
	BarFg  tcell.Color
	HintBg tcell.Color
	HintFg tcell.Color
}

// GetColorTheme returns the colours configured for the bar and the URI hint.
// Colours were validated when the configuration was loaded; anything that
// still fails to parse falls back to the terminal default.
func GetColorTheme(cfg *config.Config) ColorTheme {
	color := func(value string) tcell.Color {
		c, err := config.ParseColor(value)
		if err != nil {
			return tcell.ColorDefault
		}
		return c
	}
	return ColorTheme{
		BarBg:  color(cfg.Bar.Background),
		BarFg:  color(cfg.Bar.Foreground),
		HintBg: color(cfg.URIHint.Background),
		HintFg: color(cfg.URIHint.Foreground),
	}
}

func (t ColorTheme) barStyle() tcell.Style {
	return tcell.StyleDefault.Background(t.BarBg).Foreground(t.BarFg)
}

func (t ColorTheme) hintStyle() tcell.Style {
	return tcell.StyleDefault.Background(t.HintBg).Foreground(t.HintFg)
}
