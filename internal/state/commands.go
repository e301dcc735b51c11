package state

import (
	"github.com/kk-code-lab/meowpdf/internal/channel"
	"github.com/kk-code-lab/meowpdf/internal/document"
)

// Command is a request from the input dispatcher to the render worker.
type Command interface {
	Tier() channel.Tier
	Kind() string
}

// ===== VIEWPORT COMMANDS =====

type ScrollCommand struct {
	DX, DY float64
}

type ZoomCommand struct {
	Factor float64
}

type JumpPageCommand struct {
	Page int
}

// ToggleAlphaCommand and ToggleInvertCommand carry the resulting flag so a
// coalesced toggle still ends in the right state.
type ToggleAlphaCommand struct {
	Enabled bool
}

type ToggleInvertCommand struct {
	Enabled bool
}

// OverlayCommand redraws after a change to the overlay text only.
type OverlayCommand struct{}

// ===== LAYOUT COMMANDS =====

type ResizeCommand struct {
	Cols, Rows int
}

// ReloadCommand hands a freshly opened document to the worker, which takes
// ownership of it and closes the previous one.
type ReloadCommand struct {
	Document document.Document
}

// ===== CONTROL COMMANDS =====

type QuitCommand struct{}

// ===== PRELOAD COMMANDS =====

// PreloadHintCommand lists pages to rasterize ahead of time, nearest first.
type PreloadHintCommand struct {
	Pages []int
}

func (ScrollCommand) Tier() channel.Tier       { return channel.TierViewport }
func (ZoomCommand) Tier() channel.Tier         { return channel.TierViewport }
func (JumpPageCommand) Tier() channel.Tier     { return channel.TierViewport }
func (ToggleAlphaCommand) Tier() channel.Tier  { return channel.TierViewport }
func (ToggleInvertCommand) Tier() channel.Tier { return channel.TierViewport }
func (OverlayCommand) Tier() channel.Tier      { return channel.TierViewport }
func (ResizeCommand) Tier() channel.Tier       { return channel.TierLayout }
func (ReloadCommand) Tier() channel.Tier       { return channel.TierLayout }
func (QuitCommand) Tier() channel.Tier         { return channel.TierControl }
func (PreloadHintCommand) Tier() channel.Tier  { return channel.TierPreload }

func (ScrollCommand) Kind() string       { return "scroll" }
func (ZoomCommand) Kind() string         { return "zoom" }
func (JumpPageCommand) Kind() string     { return "jump" }
func (ToggleAlphaCommand) Kind() string  { return "alpha" }
func (ToggleInvertCommand) Kind() string { return "invert" }
func (OverlayCommand) Kind() string      { return "overlay" }
func (ResizeCommand) Kind() string       { return "resize" }
func (ReloadCommand) Kind() string       { return "reload" }
func (QuitCommand) Kind() string         { return "quit" }
func (PreloadHintCommand) Kind() string  { return "preload" }

// Message is what crosses the channel: a command, the viewport it was issued
// against and a sequence number increasing with every send.
type Message struct {
	Seq     uint64
	View    Snapshot
	Command Command
}

func (m Message) Tier() channel.Tier { return m.Command.Tier() }
func (m Message) Kind() string       { return m.Command.Kind() }
