package app

import (
	"fmt"

	"github.com/kk-code-lab/meowpdf/internal/document"
	"github.com/kk-code-lab/meowpdf/internal/state"
	"github.com/kk-code-lab/meowpdf/internal/ui/input"
)

// handleAction applies a key binding to the viewport and returns the command
// describing it, or nil when nothing is sent.
func (app *Application) handleAction(action state.Action) state.Command {
	v := app.view
	step := v.Settings().ScrollStep
	height := v.Snapshot().Screen.Height()

	switch action {
	case state.ActionScrollDown:
		v.ScrollSteps(0, 1)
		return state.ScrollCommand{DY: step}
	case state.ActionScrollUp:
		v.ScrollSteps(0, -1)
		return state.ScrollCommand{DY: -step}
	case state.ActionScrollLeft:
		v.ScrollSteps(-1, 0)
		return state.ScrollCommand{DX: -step}
	case state.ActionScrollRight:
		v.ScrollSteps(1, 0)
		return state.ScrollCommand{DX: step}
	case state.ActionPageDown:
		v.ScrollPages(1)
		return state.ScrollCommand{DY: height}
	case state.ActionPageUp:
		v.ScrollPages(-1)
		return state.ScrollCommand{DY: -height}
	case state.ActionHalfPageDown:
		v.ScrollPages(0.5)
		return state.ScrollCommand{DY: height / 2}
	case state.ActionHalfPageUp:
		v.ScrollPages(-0.5)
		return state.ScrollCommand{DY: -height / 2}

	case state.ActionNextPage:
		return app.jump(v.CurrentPage() + 1)
	case state.ActionPrevPage:
		return app.jump(v.CurrentPage() - 1)
	case state.ActionJumpFirstPage:
		return app.jump(0)
	case state.ActionJumpLastPage:
		return app.jump(v.Snapshot().PageCount() - 1)

	case state.ActionZoomIn:
		return state.ZoomCommand{Factor: v.ZoomBy(1)}
	case state.ActionZoomOut:
		return state.ZoomCommand{Factor: v.ZoomBy(-1)}
	case state.ActionFitWidth:
		return state.ZoomCommand{Factor: v.FitWidth()}
	case state.ActionCenterViewer:
		v.CenterHorizontally()
		return state.ScrollCommand{}

	case state.ActionToggleAlpha:
		if !app.allowToggle() {
			return nil
		}
		return state.ToggleAlphaCommand{Enabled: v.ToggleAlpha()}
	case state.ActionToggleInverse:
		if !app.allowToggle() {
			return nil
		}
		return state.ToggleInvertCommand{Enabled: v.ToggleInvert()}

	case state.ActionQuit:
		app.shouldQuit = true
	}
	return nil
}

func (app *Application) jump(page int) state.Command {
	count := app.view.Snapshot().PageCount()
	page = max(0, min(page, count-1))
	app.view.JumpPage(page)
	return state.JumpPageCommand{Page: page}
}

// allowToggle throttles display toggles, which retransmit every visible
// page.
func (app *Application) allowToggle() bool {
	now := app.now()
	if !app.lastToggle.IsZero() && now.Sub(app.lastToggle) < toggleThrottle {
		return false
	}
	app.lastToggle = now
	return true
}

// handlePointer updates the link hint for the cell under the pointer and
// follows the link on click.
func (app *Application) handlePointer(in input.PointerInput) state.Command {
	view := app.view.Snapshot()
	hit, found := app.hitTest(view, in.Col, in.Row)

	hint := ""
	if found {
		hint = linkHint(hit.Link)
	}
	changed := app.view.SetHint(hint)

	if found && in.Click {
		if page, ok := state.InternalPage(hit.Link.URI); ok {
			return app.jump(page)
		}
		app.openURI(hit.Link.URI)
	}
	if changed {
		return state.OverlayCommand{}
	}
	return nil
}

func (app *Application) hitTest(view state.Snapshot, col, row int) (state.LinkHit, bool) {
	x, y, ok := state.PointerPixels(view.Screen, col, row)
	if !ok {
		return state.LinkHit{}, false
	}
	return state.HitTest(view, app.doc.Links, x, y)
}

func linkHint(link document.Link) string {
	if page, ok := state.InternalPage(link.URI); ok {
		return fmt.Sprintf("Page %d", page+1)
	}
	return link.URI
}

func (app *Application) openURI(uri string) {
	if len(app.opener) == 0 {
		app.logger.Warn("no program to open links with", "uri", uri)
		return
	}
	args := append(append([]string(nil), app.opener[1:]...), uri)
	if err := app.start(app.opener[0], args...); err != nil {
		app.logger.Warn("opening link failed", "uri", uri, "error", err)
		return
	}
	app.logger.Info("opened link", "uri", uri)
}
