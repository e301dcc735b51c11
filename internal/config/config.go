// Package config loads the meowpdf configuration file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/gdamore/tcell/v2"
	"github.com/kk-code-lab/meowpdf/internal/state"
	"github.com/kk-code-lab/meowpdf/internal/ui/input"
)

// Error is a configuration problem. Key is the dotted TOML key at fault, or
// empty when the file as a whole could not be parsed.
type Error struct {
	Key string
	Err error
}

func (e *Error) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("config: %v", e.Err)
	}
	return fmt.Sprintf("config %s: %v", e.Key, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

var (
	ErrUnknownAction = errors.New("unknown action")
	ErrInvalidValue  = errors.New("invalid value")
)

// Viewer settings
type Viewer struct {
	ScrollSpeed       float64 `toml:"scroll_speed"`
	RenderPrecision   float64 `toml:"render_precision"`
	MemoryLimit       int64   `toml:"memory_limit"`
	ScaleDefault      float64 `toml:"scale_default"`
	ScaleMin          float64 `toml:"scale_min"`
	ScaleMax          float64 `toml:"scale_max"`
	ScaleAmount       float64 `toml:"scale_amount"`
	MarginBottom      float64 `toml:"margin_bottom"`
	PageGap           float64 `toml:"page_gap"`
	PagesPreloaded    int     `toml:"pages_preloaded"`
	SequenceTimeoutMS int     `toml:"sequence_timeout_ms"`
}

// Bar settings
type Bar struct {
	Enabled      bool   `toml:"enabled"`
	Position     string `toml:"position"`
	Background   string `toml:"background"`
	Foreground   string `toml:"foreground"`
	SegmentMode  string `toml:"segment_mode"`
	SegmentFile  string `toml:"segment_file"`
	SegmentPage  string `toml:"segment_page"`
	SegmentScale string `toml:"segment_scale"`
}

// URIHint settings
type URIHint struct {
	Enabled    bool    `toml:"enabled"`
	Width      float64 `toml:"width"`
	Background string  `toml:"background"`
	Foreground string  `toml:"foreground"`
}

// Log settings
type Log struct {
	File  string `toml:"file"`
	Level string `toml:"level"`
}

// Config is the main configuration struct
type Config struct {
	Viewer   Viewer              `toml:"viewer"`
	Bar      Bar                 `toml:"bar"`
	URIHint  URIHint             `toml:"uri_hint"`
	Log      Log                 `toml:"log"`
	Bindings map[string][]string `toml:"bindings"`

	// Patched lists the keys that were missing from the file and filled in
	// from the defaults.
	Patched []string `toml:"-"`
	// Dropped lists default bindings left out because they collide with a
	// binding from the file, as `action = "keys"`.
	Dropped []string `toml:"-"`
}

// Default returns the default configuration.
func Default() *Config {
	cfg := &Config{
		Viewer: Viewer{
			ScrollSpeed:       40,
			RenderPrecision:   1.5,
			MemoryLimit:       300 << 20,
			ScaleDefault:      0,
			ScaleMin:          0.2,
			ScaleMax:          8,
			ScaleAmount:       1.1,
			MarginBottom:      10,
			PageGap:           10,
			PagesPreloaded:    2,
			SequenceTimeoutMS: 1000,
		},
		Bar: Bar{
			Enabled:      true,
			Position:     "bottom",
			Background:   "#0087ff",
			Foreground:   "white",
			SegmentMode:  " {mode} ",
			SegmentFile:  " {file} ",
			SegmentPage:  " {page}/{pages} ",
			SegmentScale: " {scale} ",
		},
		URIHint: URIHint{
			Enabled:    true,
			Width:      0.8,
			Background: "#1c1c1c",
			Foreground: "#d0d0d0",
		},
		Log: Log{
			Level: "info",
		},
		Bindings: make(map[string][]string, len(input.DefaultBindings)),
	}
	for action, specs := range input.DefaultBindings {
		cfg.Bindings[action.String()] = slices.Clone(specs)
	}
	return cfg
}

// Path returns the configuration file location: $MEOWPDF_CONFIG when set,
// otherwise meowpdf/config.toml under the user configuration directory.
func Path() (string, error) {
	if path := os.Getenv("MEOWPDF_CONFIG"); path != "" {
		return path, nil
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locating config directory: %w", err)
	}
	return filepath.Join(dir, "meowpdf", "config.toml"), nil
}

// fileConfig mirrors Config but accepts a single string or an array of
// strings per binding.
type fileConfig struct {
	Viewer   Viewer         `toml:"viewer"`
	Bar      Bar            `toml:"bar"`
	URIHint  URIHint        `toml:"uri_hint"`
	Log      Log            `toml:"log"`
	Bindings map[string]any `toml:"bindings"`
}

// Load reads the configuration at path, creating it with the defaults when it
// does not exist. Keys missing from an existing file take their default
// values and the file is rewritten to include them.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		cfg := Default()
		if err := writeFile(path, []byte(DefaultTOML())); err != nil {
			return nil, err
		}
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	cfg, err := Parse(string(data))
	if err != nil {
		return nil, err
	}
	if len(cfg.Patched) > 0 {
		if err := cfg.Save(path); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// Parse decodes and validates a configuration document.
func Parse(data string) (*Config, error) {
	def := Default()
	raw := fileConfig{
		Viewer:  def.Viewer,
		Bar:     def.Bar,
		URIHint: def.URIHint,
		Log:     def.Log,
	}
	meta, err := toml.Decode(data, &raw)
	if err != nil {
		return nil, &Error{Err: err}
	}
	cfg := &Config{
		Viewer:   raw.Viewer,
		Bar:      raw.Bar,
		URIHint:  raw.URIHint,
		Log:      raw.Log,
		Bindings: make(map[string][]string, len(def.Bindings)),
	}
	for _, key := range defaultKeys() {
		if !meta.IsDefined(key...) {
			cfg.Patched = append(cfg.Patched, key.String())
		}
	}

	for name, value := range raw.Bindings {
		if _, ok := state.ParseAction(name); !ok {
			return nil, &Error{Key: "bindings." + name, Err: ErrUnknownAction}
		}
		specs, err := bindingSpecs(value)
		if err != nil {
			return nil, &Error{Key: "bindings." + name, Err: err}
		}
		cfg.Bindings[name] = specs
	}
	var taken []input.Sequence
	for _, specs := range cfg.Bindings {
		for _, spec := range specs {
			if seq, err := input.ParseSequence(spec); err == nil {
				taken = append(taken, seq)
			}
		}
	}
	for _, action := range state.Actions() {
		name := action.String()
		if _, ok := cfg.Bindings[name]; ok {
			continue
		}
		specs := make([]string, 0, len(def.Bindings[name]))
		for _, spec := range def.Bindings[name] {
			if seq, err := input.ParseSequence(spec); err == nil && collides(seq, taken) {
				cfg.Dropped = append(cfg.Dropped, name+" = "+strconv.Quote(spec))
				continue
			}
			specs = append(specs, spec)
		}
		cfg.Bindings[name] = specs
		cfg.Patched = append(cfg.Patched, "bindings."+name)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// collides reports whether seq equals, extends or prefixes one of taken.
func collides(seq input.Sequence, taken []input.Sequence) bool {
	for _, other := range taken {
		n := min(len(seq), len(other))
		if slices.Equal(seq[:n], other[:n]) {
			return true
		}
	}
	return false
}

func bindingSpecs(value any) ([]string, error) {
	switch v := value.(type) {
	case string:
		return []string{v}, nil
	case []any:
		specs := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("%w: expected key sequence string, got %T", ErrInvalidValue, item)
			}
			specs = append(specs, s)
		}
		return specs, nil
	default:
		return nil, fmt.Errorf("%w: expected string or array, got %T", ErrInvalidValue, value)
	}
}

// defaultKeys lists every scalar key of the default file.
var defaultKeys = sync.OnceValue(func() []toml.Key {
	var scratch fileConfig
	meta, err := toml.Decode(DefaultTOML(), &scratch)
	if err != nil {
		panic(fmt.Sprintf("default config does not parse: %v", err))
	}
	var keys []toml.Key
	for _, key := range meta.Keys() {
		if len(key) == 2 && key[0] != "bindings" {
			keys = append(keys, key)
		}
	}
	return keys
})

// Validate checks ranges, colours and bindings.
func (c *Config) Validate() error {
	v := c.Viewer
	checks := []struct {
		key string
		ok  bool
	}{
		{"viewer.scroll_speed", v.ScrollSpeed > 0},
		{"viewer.render_precision", v.RenderPrecision > 0},
		{"viewer.memory_limit", v.MemoryLimit > 0},
		{"viewer.scale_min", v.ScaleMin > 0},
		{"viewer.scale_max", v.ScaleMax >= v.ScaleMin},
		{"viewer.scale_default", v.ScaleDefault == 0 || (v.ScaleDefault >= v.ScaleMin && v.ScaleDefault <= v.ScaleMax)},
		{"viewer.scale_amount", v.ScaleAmount > 1},
		{"viewer.margin_bottom", v.MarginBottom >= 0},
		{"viewer.page_gap", v.PageGap >= 0},
		{"viewer.pages_preloaded", v.PagesPreloaded >= 0},
		{"viewer.sequence_timeout_ms", v.SequenceTimeoutMS >= 0},
		{"bar.position", c.Bar.Position == "top" || c.Bar.Position == "bottom"},
		{"uri_hint.width", c.URIHint.Width > 0 && c.URIHint.Width <= 1},
	}
	for _, check := range checks {
		if !check.ok {
			return &Error{Key: check.key, Err: ErrInvalidValue}
		}
	}

	colors := []struct{ key, value string }{
		{"bar.background", c.Bar.Background},
		{"bar.foreground", c.Bar.Foreground},
		{"uri_hint.background", c.URIHint.Background},
		{"uri_hint.foreground", c.URIHint.Foreground},
	}
	for _, color := range colors {
		if _, err := ParseColor(color.value); err != nil {
			return &Error{Key: color.key, Err: err}
		}
	}

	if c.Log.Level != "" {
		var level slog.Level
		if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
			return &Error{Key: "log.level", Err: fmt.Errorf("%w: %v", ErrInvalidValue, err)}
		}
	}

	if _, err := c.KeyTable(); err != nil {
		return err
	}
	return nil
}

// ParseColor accepts tcell colour names, "#rrggbb" and "default".
func ParseColor(value string) (tcell.Color, error) {
	if value == "default" {
		return tcell.ColorDefault, nil
	}
	color := tcell.GetColor(value)
	if color == tcell.ColorDefault {
		return tcell.ColorDefault, fmt.Errorf("%w: unknown colour %q", ErrInvalidValue, value)
	}
	return color, nil
}

// KeyTable builds the binding table.
func (c *Config) KeyTable() (*input.Table, error) {
	bindings := make(map[state.Action][]string, len(c.Bindings))
	for name, specs := range c.Bindings {
		action, ok := state.ParseAction(name)
		if !ok {
			return nil, &Error{Key: "bindings." + name, Err: ErrUnknownAction}
		}
		bindings[action] = specs
	}
	table, err := input.NewTableFrom(bindings)
	if err != nil {
		return nil, &Error{Key: "bindings", Err: err}
	}
	return table, nil
}

// ViewportSettings converts the viewer section for the viewport state.
func (c *Config) ViewportSettings() state.Settings {
	return state.Settings{
		ScrollStep:    c.Viewer.ScrollSpeed,
		ZoomStep:      c.Viewer.ScaleAmount,
		MinZoom:       c.Viewer.ScaleMin,
		MaxZoom:       c.Viewer.ScaleMax,
		DefaultZoom:   c.Viewer.ScaleDefault,
		Precision:     c.Viewer.RenderPrecision,
		PreloadMargin: c.Viewer.PagesPreloaded,
		BottomMargin:  c.Viewer.MarginBottom,
	}
}

func (c *Config) SequenceTimeout() time.Duration {
	return time.Duration(c.Viewer.SequenceTimeoutMS) * time.Millisecond
}

// Save writes the configuration to path.
func (c *Config) Save(path string) error {
	var buf bytes.Buffer
	buf.WriteString(header)
	if err := toml.NewEncoder(&buf).Encode(c); err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	return writeFile(path, buf.Bytes())
}

func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".config-*.toml")
	if err != nil {
		return fmt.Errorf("writing config %s: %w", path, err)
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("writing config %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("writing config %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("writing config %s: %w", path, err)
	}
	return nil
}

const header = "# meowpdf configuration\n# Missing keys are filled in with their defaults on startup.\n\n"
