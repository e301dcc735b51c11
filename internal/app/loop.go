package app

import (
	"context"
	"os"
	"os/signal"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/gdamore/tcell/v2"
	"github.com/kk-code-lab/meowpdf/internal/state"
	"github.com/kk-code-lab/meowpdf/internal/ui/input"
)

// Run starts the render worker and dispatches events until quit. It returns
// the error that stopped the worker, if any.
func (app *Application) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer app.screen.Fini()

	go func() {
		_ = app.worker.Run(ctx)
	}()

	stop := make(chan struct{})
	defer close(stop)
	eventChan := make(chan tcell.Event)
	go func() {
		for {
			ev := app.screen.PollEvent()
			if ev == nil {
				return
			}
			select {
			case eventChan <- ev:
			case <-stop:
				return
			}
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, quitSignals()...)
	defer signal.Stop(sigCh)

	var fsEvents <-chan fsnotify.Event
	var fsErrors <-chan error
	watcher, err := app.watch()
	if err != nil {
		app.logger.Warn("file watching disabled", "path", app.path, "error", err)
	}
	if watcher != nil {
		defer watcher.Close()
		fsEvents, fsErrors = watcher.Events, watcher.Errors
	}

	var sequenceTimer, reloadTimer timer
	defer sequenceTimer.stop()
	defer reloadTimer.stop()

	app.resize()

	for !app.shouldQuit {
		if deadline, ok := app.input.Deadline(); ok {
			sequenceTimer.arm(time.Until(deadline))
		} else {
			sequenceTimer.stop()
		}

		select {
		case ev := <-eventChan:
			app.handleEvent(ev)
		case <-sequenceTimer.c:
			sequenceTimer.c = nil
			if app.input.Expire() {
				app.syncPending()
			}
		case ev, ok := <-fsEvents:
			if !ok {
				fsEvents = nil
				continue
			}
			if app.isDocumentEvent(ev) {
				reloadTimer.arm(reloadDebounce)
			}
		case err, ok := <-fsErrors:
			if !ok {
				fsErrors = nil
				continue
			}
			app.logger.Warn("file watcher", "error", err)
		case <-reloadTimer.c:
			reloadTimer.c = nil
			app.reload()
		case sig := <-sigCh:
			app.logger.Info("quitting on signal", "signal", sig.String())
			app.shouldQuit = true
		case <-app.worker.Done():
			app.shouldQuit = true
		}
	}

	return app.shutdown()
}

// shutdown asks the worker to quit and waits until it has removed its
// images from the terminal.
func (app *Application) shutdown() error {
	app.send(app.view.Snapshot(), state.QuitCommand{})
	select {
	case <-app.worker.Done():
	case <-time.After(quitTimeout):
		app.logger.Error("render worker did not stop in time")
	}
	return app.worker.Err()
}

func (app *Application) handleEvent(ev tcell.Event) {
	in := app.input.ProcessEvent(ev)
	pendingChanged := false
	if _, ok := ev.(*tcell.EventKey); ok {
		pendingChanged = app.view.SetPending(app.input.PendingText())
	}
	if !app.dispatch(in) && pendingChanged {
		app.emit(state.OverlayCommand{})
	}
}

// dispatch applies one input to the viewport and emits at most one command
// for it. It reports whether a command was sent.
func (app *Application) dispatch(in input.Input) bool {
	var cmd state.Command
	switch in := in.(type) {
	case input.ActionInput:
		cmd = app.handleAction(in.Action)
	case input.ResizeInput:
		app.resize()
		return true
	case input.WheelInput:
		app.view.ScrollSteps(in.DX, in.DY)
		step := app.view.Settings().ScrollStep
		cmd = state.ScrollCommand{DX: float64(in.DX) * step, DY: float64(in.DY) * step}
	case input.PointerInput:
		cmd = app.handlePointer(in)
	}
	if cmd == nil {
		return false
	}
	app.emit(cmd)
	return true
}

func (app *Application) syncPending() {
	if app.view.SetPending(app.input.PendingText()) {
		app.emit(state.OverlayCommand{})
	}
}

// timer is a resettable one-shot whose channel is nil while disarmed, so it
// can sit in a select unconditionally.
type timer struct {
	t *time.Timer
	c <-chan time.Time
}

func (t *timer) arm(d time.Duration) {
	if t.t == nil {
		t.t = time.NewTimer(d)
	} else {
		t.t.Reset(d)
	}
	t.c = t.t.C
}

func (t *timer) stop() {
	if t.t != nil {
		t.t.Stop()
	}
	t.c = nil
}
