package document

import (
	"errors"
	"fmt"
	"image"
	"log/slog"

	"github.com/gen2brain/go-fitz"
)

// PDF is a Document backed by MuPDF for rendering.
type PDF struct {
	path  string
	doc   *fitz.Document
	sizes []Size
	links [][]Link
}

// Open loads the document at path. Link annotations that cannot be parsed are
// logged and skipped; the document still opens.
func Open(path string, logger *slog.Logger) (*PDF, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	doc, err := fitz.New(path)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}

	count := doc.NumPage()
	if count <= 0 {
		_ = doc.Close()
		return nil, &LoadError{Path: path, Err: errors.New("document has no pages")}
	}

	sizes := make([]Size, count)
	for i := range sizes {
		bounds, err := doc.Bound(i)
		if err != nil {
			_ = doc.Close()
			return nil, &LoadError{Path: path, Err: fmt.Errorf("page %d bounds: %w", i+1, err)}
		}
		if bounds.Dx() <= 0 || bounds.Dy() <= 0 {
			_ = doc.Close()
			return nil, &LoadError{Path: path, Err: fmt.Errorf("page %d has empty bounds", i+1)}
		}
		sizes[i] = Size{W: float64(bounds.Dx()), H: float64(bounds.Dy())}
	}

	links, err := ReadLinks(path, count)
	if err != nil {
		logger.Warn("link annotations unavailable", "path", path, "error", err)
		links = make([][]Link, count)
	}

	return &PDF{
		path:  path,
		doc:   doc,
		sizes: sizes,
		links: links,
	}, nil
}

func (p *PDF) Path() string { return p.path }

func (p *PDF) PageCount() int { return len(p.sizes) }

func (p *PDF) PageSize(page int) Size {
	if page < 0 || page >= len(p.sizes) {
		return Size{}
	}
	return p.sizes[page]
}

func (p *PDF) Links(page int) []Link {
	if page < 0 || page >= len(p.links) {
		return nil
	}
	return p.links[page]
}

// Rasterize renders a page through MuPDF at 72*zoom*precision DPI.
func (p *PDF) Rasterize(page int, zoom, precision float64) (*image.RGBA, error) {
	scale := zoom * precision
	if page < 0 || page >= len(p.sizes) {
		return nil, &RasterizeError{Page: page, Scale: scale, Err: ErrPageRange}
	}
	if scale <= 0 {
		return nil, &RasterizeError{Page: page, Scale: scale, Err: errors.New("non-positive scale")}
	}
	if p.doc == nil {
		return nil, &RasterizeError{Page: page, Scale: scale, Err: errors.New("document closed")}
	}
	img, err := p.doc.ImageDPI(page, 72*scale)
	if err != nil {
		return nil, &RasterizeError{Page: page, Scale: scale, Err: err}
	}
	return img, nil
}

func (p *PDF) Close() error {
	if p.doc == nil {
		return nil
	}
	err := p.doc.Close()
	p.doc = nil
	return err
}
