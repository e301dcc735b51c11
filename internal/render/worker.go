package render

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/kk-code-lab/meowpdf/internal/channel"
	"github.com/kk-code-lab/meowpdf/internal/document"
	"github.com/kk-code-lab/meowpdf/internal/render/kitty"
	"github.com/kk-code-lab/meowpdf/internal/state"
)

// Overlay draws the text layer above the pages.
type Overlay interface {
	// Draw paints the overlay for view and shows it.
	Draw(view state.Snapshot)
	// Sync repaints the whole screen after a resize.
	Sync()
}

// Options configure a Worker.
type Options struct {
	Channel  *channel.Channel[state.Message]
	Document document.Document
	Encoder  *kitty.Encoder
	Store    *PageStore
	Overlay  Overlay // optional
	Logger   *slog.Logger
}

// Worker is the only goroutine that rasterizes pages or writes graphics to
// the terminal. It owns the document and the page store.
type Worker struct {
	ch      *channel.Channel[state.Message]
	doc     document.Document
	enc     *kitty.Encoder
	store   *PageStore
	overlay Overlay
	logger  *slog.Logger

	view state.Snapshot
	pass uint64 // sequence of the last viewport pass

	// uncached holds visible pages the store had no room for. They stay
	// on the terminal while visible and are released once scrolled away.
	uncached map[PageKey]*RenderedPage
	done     chan struct{}
	err      error
}

var errQuit = errors.New("quit")

func NewWorker(opts Options) *Worker {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Worker{
		ch:      opts.Channel,
		doc:     opts.Document,
		enc:     opts.Encoder,
		store:   opts.Store,
		overlay: opts.Overlay,
		logger:   logger,
		uncached: make(map[PageKey]*RenderedPage),
		done:     make(chan struct{}),
	}
}

// Done is closed once Run has cleaned up and returned.
func (w *Worker) Done() <-chan struct{} { return w.done }

// Err is the error that stopped the worker, nil after a normal quit. It is
// valid once Done is closed.
func (w *Worker) Err() error { return w.err }

// Run consumes commands until Quit, a fatal terminal write error, or ctx is
// cancelled. Every exit path clears the terminal images, closes the document
// and closes the channel.
func (w *Worker) Run(ctx context.Context) error {
	defer close(w.done)
	for {
		msg, err := w.ch.Receive(ctx)
		if err != nil {
			w.shutdown()
			if errors.Is(err, channel.ErrClosed) || errors.Is(err, context.Canceled) {
				return nil
			}
			w.err = err
			return err
		}
		if err := w.handle(msg); err != nil {
			w.shutdown()
			if errors.Is(err, errQuit) {
				return nil
			}
			w.logger.Error("render worker stopped", "error", err)
			w.err = err
			return err
		}
	}
}

func (w *Worker) handle(msg state.Message) error {
	w.logger.Debug("command", "kind", msg.Kind(), "seq", msg.Seq)
	switch cmd := msg.Command.(type) {
	case state.QuitCommand:
		return errQuit
	case state.ResizeCommand:
		w.view = msg.View
		if err := w.enc.ForgetPlacements(); err != nil {
			return err
		}
		if err := w.enc.Flush(); err != nil {
			return err
		}
		if w.overlay != nil {
			w.overlay.Sync()
		}
		return nil
	case state.ReloadCommand:
		return w.reload(msg.View, cmd.Document)
	case state.PreloadHintCommand:
		return w.preload(msg.View, cmd.Pages)
	default:
		w.view = msg.View
		if w.ch.Pending(channel.TierViewport) {
			// A newer viewport is queued; draw that one instead.
			return nil
		}
		return w.present(msg.Seq)
	}
}

func (w *Worker) reload(view state.Snapshot, doc document.Document) error {
	old := w.doc
	w.doc = doc
	if old != nil {
		if err := old.Close(); err != nil {
			w.logger.Warn("closing previous document", "error", err)
		}
	}
	w.store.Clear()
	clear(w.uncached)
	w.view = view
	w.logger.Info("document reloaded", "path", doc.Path(), "pages", doc.PageCount())
	if err := w.enc.Clear(); err != nil {
		return err
	}
	return w.enc.Flush()
}

// present draws w.view: it rasterizes missing visible pages, refreshes
// images whose post-processing changed and moves placements to match.
func (w *Worker) present(seq uint64) error {
	view := w.view
	w.pass = seq
	w.enc.SetTreatment(kitty.Treatment{Alpha: view.Alpha, Invert: view.Invert})

	var placements []kitty.Placement
	if first, last, ok := view.VisibleRange(); ok {
		w.store.Focus(first, last, seq)
		for page := first; page <= last; page++ {
			entry, err := w.visible(view, page, seq)
			if err != nil {
				return err
			}
			p, ok, err := w.placement(view, page, entry)
			if err != nil {
				return err
			}
			if ok {
				placements = append(placements, p)
			}
		}
	}

	if err := w.enc.Frame(placements); err != nil {
		return err
	}
	if err := w.releaseUncached(seq); err != nil {
		return err
	}
	pointer := ""
	if view.Overlay.Hint != "" {
		pointer = "pointer"
	}
	if err := w.enc.SetPointer(pointer); err != nil {
		return err
	}
	if err := w.enc.Flush(); err != nil {
		return err
	}
	if w.overlay != nil {
		w.overlay.Draw(view)
	}
	return nil
}

// visible returns the entry for a page on screen, rasterizing it when
// missing or when a previous rasterization failed. A page the store cannot
// hold next to the other visible pages is shown from w.uncached instead.
func (w *Worker) visible(view state.Snapshot, page int, seq uint64) (*RenderedPage, error) {
	key := PageKey{Page: page, Bucket: BucketFor(view.RasterScale())}
	entry, ok := w.store.Get(key)
	if ok && entry.Err != nil && !errors.Is(entry.Err, ErrPageTooLarge) {
		ok = false
	}
	if !ok {
		if entry, ok = w.uncached[key]; !ok {
			entry = w.rasterize(view, key)
		}
		entry.LastVisible = seq
		stored, err := w.insert(entry)
		if err != nil {
			return nil, err
		}
		if stored {
			delete(w.uncached, key)
		} else {
			w.uncached[key] = entry
		}
	}
	w.store.Touch(key, seq)
	if entry.Err != nil {
		return entry, nil
	}
	if !w.enc.Transmitted(entry.ImageID) || w.enc.Stale(entry.ImageID) {
		if err := w.transmit(entry); err != nil {
			return nil, err
		}
	}
	return entry, nil
}

func (w *Worker) placement(view state.Snapshot, page int, entry *RenderedPage) (kitty.Placement, bool, error) {
	if entry.Err != nil {
		id, err := w.enc.ErrorImageID()
		if err != nil {
			return kitty.Placement{}, false, err
		}
		p, ok := errorPlacement(view, page, id)
		return p, ok, nil
	}
	p, ok := pagePlacement(view, page, entry)
	return p, ok, nil
}

// preload rasterizes and transmits pages near the viewport until a newer
// viewport command arrives.
func (w *Worker) preload(view state.Snapshot, pages []int) error {
	first, last, ok := view.VisibleRange()
	if !ok {
		return nil
	}
	w.store.Focus(first, last, w.pass)
	bucket := BucketFor(view.RasterScale())
	for _, page := range pages {
		if w.ch.Pending(channel.TierViewport) {
			w.logger.Debug("preload interrupted", "page", page)
			break
		}
		key := PageKey{Page: page, Bucket: bucket}
		if _, ok := w.store.Get(key); ok {
			continue
		}
		if _, ok := w.uncached[key]; ok {
			continue
		}
		if !w.store.Admits(page, estimateBytes(view, page)) {
			w.logger.Debug("preload stopped, cache full", "page", page)
			break
		}
		entry := w.rasterize(view, key)
		stored, err := w.insert(entry)
		if err != nil {
			return err
		}
		if !stored {
			w.logger.Debug("preload stopped, cache full", "page", page)
			break
		}
		if entry.Err == nil {
			if err := w.transmit(entry); err != nil {
				return err
			}
		}
	}
	return w.enc.Flush()
}

func (w *Worker) rasterize(view state.Snapshot, key PageKey) *RenderedPage {
	img, err := w.doc.Rasterize(key.Page, view.Zoom, view.Precision)
	if err != nil {
		w.logger.Warn("rasterize failed", "page", key.Page, "scale", view.RasterScale(), "error", err)
		return w.placeholder(view, key, err)
	}
	b := img.Bounds()
	return &RenderedPage{
		Key:   key,
		Scale: view.RasterScale(),
		Image: img,
		Pad:   padFor(view),
		Bytes: int64(b.Dx()) * int64(b.Dy()) * 4,
	}
}

// estimateBytes is the bitmap size page will rasterize to in view.
func estimateBytes(view state.Snapshot, page int) int64 {
	size := view.Layout.PageSize(page)
	scale := view.RasterScale()
	return int64(math.Round(size.W*scale)) * int64(math.Round(size.H*scale)) * 4
}

func (w *Worker) placeholder(view state.Snapshot, key PageKey, err error) *RenderedPage {
	return &RenderedPage{Key: key, Scale: view.RasterScale(), Err: err}
}

// insert stores entry and releases the terminal images of evicted pages.
func (w *Worker) insert(entry *RenderedPage) (bool, error) {
	evicted, ok := w.store.Insert(entry)
	for _, old := range evicted {
		w.logger.Debug("evicted page", "page", old.Key.Page, "bucket", old.Key.Bucket)
		if old.ImageID != 0 && old.ImageID != entry.ImageID {
			if err := w.enc.Release(old.ImageID); err != nil {
				return false, err
			}
		}
	}
	if !ok {
		w.logger.Debug("page not cached", "page", entry.Key.Page, "bytes", entry.Bytes)
	}
	if errors.Is(entry.Err, ErrPageTooLarge) {
		w.logger.Warn("page too large for cache", "page", entry.Key.Page, "capacity", w.store.Capacity())
	}
	return ok, nil
}

// releaseUncached drops the uncached pages not shown in pass seq.
func (w *Worker) releaseUncached(seq uint64) error {
	for key, entry := range w.uncached {
		if entry.LastVisible == seq {
			continue
		}
		delete(w.uncached, key)
		if entry.ImageID != 0 {
			if err := w.enc.Release(entry.ImageID); err != nil {
				return err
			}
		}
	}
	return nil
}

func (w *Worker) transmit(entry *RenderedPage) error {
	if entry.ImageID == 0 {
		entry.ImageID = w.enc.AllocateID()
	}
	if err := w.enc.Transmit(entry.ImageID, entry.Image, entry.Pad); err != nil {
		return fmt.Errorf("transmitting page %d: %w", entry.Key.Page, err)
	}
	return nil
}

// shutdown removes everything the worker put on the terminal and releases
// the document.
func (w *Worker) shutdown() {
	clear(w.uncached)
	w.enc.Clear()
	w.enc.SetPointer("")
	if err := w.enc.Flush(); err != nil {
		w.logger.Warn("clearing terminal images", "error", err)
	}
	if w.doc != nil {
		if err := w.doc.Close(); err != nil {
			w.logger.Warn("closing document", "error", err)
		}
		w.doc = nil
	}
	for _, msg := range w.ch.Close() {
		if reload, ok := msg.Command.(state.ReloadCommand); ok && reload.Document != nil {
			if err := reload.Document.Close(); err != nil {
				w.logger.Warn("closing unused reloaded document", "error", err)
			}
		}
	}
}
