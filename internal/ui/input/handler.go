package input

import (
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/kk-code-lab/meowpdf/internal/state"
)

// Input is what the dispatcher acts on after a tcell event.
type Input interface {
	isInput()
}

// ActionInput is a completed key binding.
type ActionInput struct {
	Action state.Action
}

// ResizeInput reports the new terminal size in cells.
type ResizeInput struct {
	Cols, Rows int
}

// PointerInput is a mouse move, or a primary button press when Click is set.
type PointerInput struct {
	Col, Row int
	Click    bool
}

// WheelInput scrolls by whole steps; positive DY scrolls down.
type WheelInput struct {
	DX, DY int
}

func (ActionInput) isInput()  {}
func (ResizeInput) isInput()  {}
func (PointerInput) isInput() {}
func (WheelInput) isInput()   {}

// Handler converts tcell events to Inputs, resolving keys through a Resolver.
type Handler struct {
	resolver *Resolver
	buttons  tcell.ButtonMask
	now      func() time.Time
}

// NewHandler creates a new input handler
func NewHandler(resolver *Resolver) *Handler {
	return &Handler{resolver: resolver, now: time.Now}
}

// ProcessEvent converts a tcell event into an Input. It returns nil for
// events that change nothing, including keys that only extend a pending
// sequence.
func (h *Handler) ProcessEvent(ev tcell.Event) Input {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		action, result := h.resolver.Feed(FromEvent(ev), h.now())
		if result == Matched {
			return ActionInput{Action: action}
		}
		return nil
	case *tcell.EventResize:
		cols, rows := ev.Size()
		return ResizeInput{Cols: cols, Rows: rows}
	case *tcell.EventMouse:
		return h.processMouseEvent(ev)
	default:
		return nil
	}
}

func (h *Handler) processMouseEvent(ev *tcell.EventMouse) Input {
	buttons := ev.Buttons()
	pressed := buttons &^ h.buttons
	h.buttons = buttons & (tcell.Button1 | tcell.Button2 | tcell.Button3)

	switch {
	case buttons&tcell.WheelUp != 0:
		return WheelInput{DY: -1}
	case buttons&tcell.WheelDown != 0:
		return WheelInput{DY: 1}
	case buttons&tcell.WheelLeft != 0:
		return WheelInput{DX: -1}
	case buttons&tcell.WheelRight != 0:
		return WheelInput{DX: 1}
	}

	col, row := ev.Position()
	return PointerInput{Col: col, Row: row, Click: pressed&tcell.Button1 != 0}
}

// Expire drops a timed-out pending sequence and reports whether it did.
func (h *Handler) Expire() bool {
	return h.resolver.Expire(h.now())
}

// Deadline is when the pending sequence, if any, times out.
func (h *Handler) Deadline() (time.Time, bool) {
	return h.resolver.Deadline()
}

// PendingText is the pending sequence as typed, or "" when idle.
func (h *Handler) PendingText() string {
	return h.resolver.Pending().String()
}
