package document

import (
	"fmt"
	"io"

	"github.com/ledongthuc/pdf"
)

const maxTreeDepth = 64

// ReadLinks returns the link annotations of the first count pages of the PDF at
// path, converted to page-local coordinates with a top-left origin.
func ReadLinks(path string, count int) ([][]Link, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = f.Close()
	}()
	return readLinks(r, count)
}

func readLinksFrom(ra io.ReaderAt, size int64, count int) ([][]Link, error) {
	r, err := pdf.NewReader(ra, size)
	if err != nil {
		return nil, err
	}
	return readLinks(r, count)
}

// readLinks walks the page tree. The reader panics on malformed objects, so the
// walk recovers and reports an error instead.
func readLinks(r *pdf.Reader, count int) (links [][]Link, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			links = nil
			err = fmt.Errorf("malformed annotations: %v", rec)
		}
	}()

	root := r.Trailer().Key("Root")
	pages := collectPages(root.Key("Pages"), nil, 0)
	index := make(map[string]int, len(pages))
	for i, page := range pages {
		index[page.String()] = i
	}

	links = make([][]Link, count)
	for i, page := range pages {
		if i >= count {
			break
		}
		box := pageBox(page)
		annots := page.Key("Annots")
		for j := 0; j < annots.Len(); j++ {
			annot := annots.Index(j)
			if annot.Key("Subtype").Name() != "Link" {
				continue
			}
			uri := linkTarget(root, annot, index)
			if uri == "" {
				continue
			}
			rect, ok := rectValue(annot.Key("Rect"))
			if !ok {
				continue
			}
			links[i] = append(links[i], Link{Rect: toPageSpace(rect, box), URI: uri})
		}
	}
	return links, nil
}

func collectPages(node pdf.Value, out []pdf.Value, depth int) []pdf.Value {
	if node.IsNull() || depth > maxTreeDepth {
		return out
	}
	kids := node.Key("Kids")
	if node.Key("Type").Name() == "Page" || kids.Kind() != pdf.Array {
		return append(out, node)
	}
	for i := 0; i < kids.Len(); i++ {
		out = collectPages(kids.Index(i), out, depth+1)
	}
	return out
}

// pageBox returns the visible page area: CropBox when present, MediaBox
// otherwise, both inheritable from parent nodes.
func pageBox(page pdf.Value) Rect {
	for _, key := range []string{"CropBox", "MediaBox"} {
		depth := 0
		for v := page; !v.IsNull() && depth <= maxTreeDepth; v = v.Key("Parent") {
			if rect, ok := rectValue(v.Key(key)); ok {
				return rect
			}
			depth++
		}
	}
	return Rect{X1: 612, Y1: 792}
}

func rectValue(v pdf.Value) (Rect, bool) {
	if v.Kind() != pdf.Array || v.Len() < 4 {
		return Rect{}, false
	}
	rect := Rect{
		X0: v.Index(0).Float64(),
		Y0: v.Index(1).Float64(),
		X1: v.Index(2).Float64(),
		Y1: v.Index(3).Float64(),
	}.Canon()
	if rect.Width() <= 0 || rect.Height() <= 0 {
		return Rect{}, false
	}
	return rect, true
}

// toPageSpace flips a rectangle from PDF user space into top-left page space.
func toPageSpace(r, box Rect) Rect {
	return Rect{
		X0: r.X0 - box.X0,
		Y0: box.Y1 - r.Y1,
		X1: r.X1 - box.X0,
		Y1: box.Y1 - r.Y0,
	}.Canon()
}

func linkTarget(root, annot pdf.Value, index map[string]int) string {
	action := annot.Key("A")
	switch action.Key("S").Name() {
	case "URI":
		return action.Key("URI").RawString()
	case "GoTo":
		return destinationLink(root, action.Key("D"), index)
	}
	if dest := annot.Key("Dest"); !dest.IsNull() {
		return destinationLink(root, dest, index)
	}
	return ""
}

func destinationLink(root, dest pdf.Value, index map[string]int) string {
	switch dest.Kind() {
	case pdf.Name:
		dest = namedDestination(root, dest.Name())
	case pdf.String:
		dest = namedDestination(root, dest.RawString())
	}
	if dest.Kind() == pdf.Dict {
		dest = dest.Key("D")
	}
	if dest.Kind() != pdf.Array || dest.Len() == 0 {
		return ""
	}
	target := dest.Index(0)
	if target.Kind() == pdf.Integer {
		return PageLink(int(target.Int64()))
	}
	page, ok := index[target.String()]
	if !ok {
		return ""
	}
	return PageLink(page)
}

func namedDestination(root pdf.Value, name string) pdf.Value {
	if dests := root.Key("Dests"); dests.Kind() == pdf.Dict {
		if v := dests.Key(name); !v.IsNull() {
			return v
		}
	}
	return lookupNameTree(root.Key("Names").Key("Dests"), name, 0)
}

func lookupNameTree(node pdf.Value, name string, depth int) pdf.Value {
	if node.IsNull() || depth > maxTreeDepth {
		return pdf.Value{}
	}
	names := node.Key("Names")
	for i := 0; i+1 < names.Len(); i += 2 {
		if names.Index(i).RawString() == name {
			return names.Index(i + 1)
		}
	}
	kids := node.Key("Kids")
	for i := 0; i < kids.Len(); i++ {
		if v := lookupNameTree(kids.Index(i), name, depth+1); !v.IsNull() {
			return v
		}
	}
	return pdf.Value{}
}
