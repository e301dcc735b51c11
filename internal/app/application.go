// Package app wires the viewer together and runs the input dispatcher: the
// goroutine that owns the viewport and turns terminal events into commands
// for the render worker.
package app

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/gdamore/tcell/v2"
	"github.com/kk-code-lab/meowpdf/internal/channel"
	"github.com/kk-code-lab/meowpdf/internal/config"
	"github.com/kk-code-lab/meowpdf/internal/document"
	"github.com/kk-code-lab/meowpdf/internal/render"
	"github.com/kk-code-lab/meowpdf/internal/render/kitty"
	"github.com/kk-code-lab/meowpdf/internal/state"
	"github.com/kk-code-lab/meowpdf/internal/ui/input"
	renderui "github.com/kk-code-lab/meowpdf/internal/ui/render"
)

const (
	toggleThrottle = 500 * time.Millisecond
	reloadDebounce = 250 * time.Millisecond
	quitTimeout    = 2 * time.Second
)

// Options configure an Application.
type Options struct {
	Config   *config.Config
	Document document.Document
	// Graphics receives the kitty graphics commands, normally the tty.
	Graphics io.Writer
	// Screen defaults to a new tcell screen.
	Screen tcell.Screen
	// CellSize reports the pixel size of one terminal cell.
	CellSize func() (w, h float64)
	// Reopen loads the document again after it changed on disk. Nil
	// disables reloading.
	Reopen func(path string) (document.Document, error)
	Logger *slog.Logger
}

// Application represents the running viewer.
type Application struct {
	screen   tcell.Screen
	cfg      *config.Config
	logger   *slog.Logger
	doc      document.Document // metadata only; the worker owns rasterization
	path     string
	view     *state.ViewportState
	input    *input.Handler
	renderer *renderui.Renderer
	ch       *channel.Channel[state.Message]
	worker   *render.Worker
	cellSize func() (float64, float64)
	reopen   func(string) (document.Document, error)
	opener   []string
	start    func(name string, args ...string) error
	now      func() time.Time

	seq        uint64
	lastToggle time.Time
	shouldQuit bool
}

func NewApplication(opts Options) (*Application, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	table, err := cfg.KeyTable()
	if err != nil {
		return nil, err
	}

	screen := opts.Screen
	if screen == nil {
		if screen, err = tcell.NewScreen(); err != nil {
			return nil, fmt.Errorf("creating screen: %w", err)
		}
	}
	if err := screen.Init(); err != nil {
		return nil, fmt.Errorf("initialising screen: %w", err)
	}
	screen.EnableMouse(tcell.MouseMotionEvents)
	screen.HideCursor()

	cellSize := opts.CellSize
	if cellSize == nil {
		cellSize = func() (float64, float64) { return 8, 16 }
	}

	doc := opts.Document
	path, err := filepath.Abs(doc.Path())
	if err != nil {
		path = doc.Path()
	}
	layout := state.LayoutOf(doc, cfg.Viewer.PageGap)
	ch := channel.New[state.Message]()
	renderer := renderui.NewRenderer(screen, cfg)

	app := &Application{
		screen:   screen,
		cfg:      cfg,
		logger:   logger.With("component", "dispatcher"),
		doc:      doc,
		path:     path,
		view:     state.NewViewportState(cfg.ViewportSettings(), layout, path),
		input:    input.NewHandler(input.NewResolver(table, cfg.SequenceTimeout())),
		renderer: renderer,
		ch:       ch,
		cellSize: cellSize,
		reopen:   opts.Reopen,
		opener:   detectOpener(),
		start:    startDetached,
		now:      time.Now,
	}
	app.worker = render.NewWorker(render.Options{
		Channel:  ch,
		Document: doc,
		Encoder:  kitty.NewEncoder(opts.Graphics),
		Store:    render.NewPageStore(cfg.Viewer.MemoryLimit),
		Overlay:  renderer,
		Logger:   logger.With("component", "worker"),
	})
	return app, nil
}

// emit sends cmd with the current viewport. A viewport command is followed by
// a preload hint for the pages around the new view.
func (app *Application) emit(cmd state.Command) {
	view := app.view.Snapshot()
	app.send(view, cmd)
	if cmd.Tier() == channel.TierViewport {
		if _, ok := cmd.(state.OverlayCommand); !ok {
			app.send(view, state.PreloadHintCommand{Pages: view.PreloadPages()})
		}
	}
}

func (app *Application) send(view state.Snapshot, cmd state.Command) {
	app.seq++
	err := app.ch.Send(state.Message{Seq: app.seq, View: view, Command: cmd})
	if errors.Is(err, channel.ErrClosed) {
		app.shouldQuit = true
	}
}

// resize reads the new terminal geometry into the viewport, then asks the
// worker to redraw everything.
func (app *Application) resize() {
	cols, rows := app.screen.Size()
	top, height := app.renderer.PageArea(rows)
	cw, chh := app.cellSize()
	app.view.Resize(state.Screen{Cols: cols, Rows: height, Top: top, CellW: cw, CellH: chh})
	app.emit(state.ResizeCommand{Cols: cols, Rows: rows})
	app.emit(state.ScrollCommand{})
}

// reload reopens the document after it changed on disk. The old document
// stays on screen when the new one cannot be opened.
func (app *Application) reload() {
	if app.reopen == nil {
		return
	}
	doc, err := app.reopen(app.path)
	if err != nil {
		app.logger.Warn("reload failed", "path", app.path, "error", err)
		return
	}
	app.doc = doc
	app.view.SetLayout(state.LayoutOf(doc, app.cfg.Viewer.PageGap))
	app.logger.Info("reloading document", "path", app.path, "pages", doc.PageCount())
	app.emit(state.ReloadCommand{Document: doc})
	if app.shouldQuit {
		_ = doc.Close()
		return
	}
	app.emit(state.ScrollCommand{})
}

// Worker exposes the render worker, mainly for its Done channel.
func (app *Application) Worker() *render.Worker { return app.worker }

func (app *Application) watch() (*fsnotify.Watcher, error) {
	if app.reopen == nil {
		return nil, nil
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	// Editors replace files on save, so watch the directory.
	if err := watcher.Add(filepath.Dir(app.path)); err != nil {
		watcher.Close()
		return nil, err
	}
	return watcher, nil
}

func (app *Application) isDocumentEvent(ev fsnotify.Event) bool {
	if filepath.Clean(ev.Name) != app.path {
		return false
	}
	return ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create)
}
