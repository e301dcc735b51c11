package state

// Action is the closed set of operations a key binding can trigger.
type Action int

const (
	ActionNone Action = iota

	// ===== SCROLL ACTIONS =====

	ActionScrollDown
	ActionScrollUp
	ActionScrollLeft
	ActionScrollRight
	ActionPageDown
	ActionPageUp
	ActionHalfPageDown
	ActionHalfPageUp

	// ===== PAGE ACTIONS =====

	ActionNextPage
	ActionPrevPage
	ActionJumpFirstPage
	ActionJumpLastPage

	// ===== VIEW ACTIONS =====

	ActionZoomIn
	ActionZoomOut
	ActionFitWidth
	ActionCenterViewer
	ActionToggleAlpha
	ActionToggleInverse

	// ===== APPLICATION ACTIONS =====

	ActionQuit

	actionCount
)

var actionNames = [actionCount]string{
	ActionNone:          "none",
	ActionScrollDown:    "scroll_down",
	ActionScrollUp:      "scroll_up",
	ActionScrollLeft:    "scroll_left",
	ActionScrollRight:   "scroll_right",
	ActionPageDown:      "page_down",
	ActionPageUp:        "page_up",
	ActionHalfPageDown:  "half_page_down",
	ActionHalfPageUp:    "half_page_up",
	ActionNextPage:      "next_page",
	ActionPrevPage:      "prev_page",
	ActionJumpFirstPage: "jump_first_page",
	ActionJumpLastPage:  "jump_last_page",
	ActionZoomIn:        "zoom_in",
	ActionZoomOut:       "zoom_out",
	ActionFitWidth:      "fit_width",
	ActionCenterViewer:  "center_viewer",
	ActionToggleAlpha:   "toggle_alpha",
	ActionToggleInverse: "toggle_inverse",
	ActionQuit:          "quit",
}

func (a Action) String() string {
	if a < 0 || a >= actionCount {
		return "unknown"
	}
	return actionNames[a]
}

// ParseAction maps a configuration name to an Action.
func ParseAction(name string) (Action, bool) {
	for a := ActionNone + 1; a < actionCount; a++ {
		if actionNames[a] == name {
			return a, true
		}
	}
	return ActionNone, false
}

// Actions lists every bindable action.
func Actions() []Action {
	out := make([]Action, 0, actionCount-1)
	for a := ActionNone + 1; a < actionCount; a++ {
		out = append(out, a)
	}
	return out
}
