// Package render owns the render worker: the page cache, rasterization and
// everything the worker writes to the terminal.
package render

import (
	"errors"
	"image"
	"math"
	"sort"
)

// ErrPageTooLarge marks pages whose bitmap cannot fit in the cache.
var ErrPageTooLarge = errors.New("page bitmap exceeds the memory limit")

// PageKey identifies a page rasterized at one scale bucket.
type PageKey struct {
	Page   int
	Bucket int64
}

// BucketFor quantises a rasterization scale to 1/1024.
func BucketFor(scale float64) int64 {
	return int64(math.Round(scale * 1024))
}

// RenderedPage is a cached page bitmap, or a failed placeholder when Err is
// set.
type RenderedPage struct {
	Key         PageKey
	Scale       float64
	Image       *image.RGBA
	Pad         int    // transparent pixels added around Image on transmission
	Bytes       int64  // memory charged against the store
	ImageID     uint32 // terminal image id, 0 until transmitted
	LastVisible uint64 // sequence of the last pass that showed the page
	Err         error
}

// PageStore caches rendered pages within a byte budget. Entries far from the
// visible range are evicted first.
type PageStore struct {
	capacity    int64
	usage       int64
	pages       map[PageKey]*RenderedPage
	first, last int
	pinned      uint64
}

func NewPageStore(capacity int64) *PageStore {
	return &PageStore{
		capacity: capacity,
		pages:    make(map[PageKey]*RenderedPage),
		last:     -1,
	}
}

func (s *PageStore) Capacity() int64 { return s.capacity }
func (s *PageStore) Usage() int64    { return s.usage }
func (s *PageStore) Len() int        { return len(s.pages) }

// Focus sets the visible page range eviction distances are measured from.
// Visible pages last shown in pass seq are never evicted for pages at the
// same distance.
func (s *PageStore) Focus(first, last int, seq uint64) {
	s.first, s.last = first, last
	s.pinned = seq
}

func (s *PageStore) Get(key PageKey) (*RenderedPage, bool) {
	p, ok := s.pages[key]
	return p, ok
}

// Touch records that the page was visible in pass seq.
func (s *PageStore) Touch(key PageKey, seq uint64) {
	if p, ok := s.pages[key]; ok && seq > p.LastVisible {
		p.LastVisible = seq
	}
}

// Distance is how many pages lie between page and the visible range.
func (s *PageStore) Distance(page int) int {
	switch {
	case s.last < s.first:
		return math.MaxInt
	case page < s.first:
		return s.first - page
	case page > s.last:
		return page - s.last
	}
	return 0
}

// Insert adds a page, evicting the pages farthest from the visible range
// until it fits. A page larger than the whole capacity is stored as a failed
// placeholder. When only pages closer than the new one, or pages at the same
// distance that it may not displace, are left to evict, the page is not
// stored and ok is false. Evicted pages, and a replaced entry
// for the same key, are returned so their terminal images can be released.
func (s *PageStore) Insert(page *RenderedPage) (evicted []*RenderedPage, ok bool) {
	if page.Bytes > s.capacity {
		page.Image = nil
		page.Bytes = 0
		page.Err = ErrPageTooLarge
	}
	if old, exists := s.pages[page.Key]; exists {
		s.remove(old)
		evicted = append(evicted, old)
	}

	for s.usage+page.Bytes > s.capacity {
		victim := s.victim()
		if victim == nil || !s.evictable(victim, page) {
			return evicted, false
		}
		s.remove(victim)
		evicted = append(evicted, victim)
	}
	s.pages[page.Key] = page
	s.usage += page.Bytes
	return evicted, true
}

// victim picks the farthest page holding memory; ties go to the page shown
// least recently.
func (s *PageStore) victim() *RenderedPage {
	var best *RenderedPage
	bestDist := -1
	for _, p := range s.pages {
		if p.Bytes == 0 {
			continue
		}
		d := s.Distance(p.Key.Page)
		switch {
		case best == nil, d > bestDist:
		case d < bestDist:
			continue
		case p.LastVisible > best.LastVisible:
			continue
		case p.LastVisible == best.LastVisible && p.Key.Page < best.Key.Page:
			continue
		case p.LastVisible == best.LastVisible && p.Key.Page == best.Key.Page && p.Key.Bucket < best.Key.Bucket:
			continue
		}
		best, bestDist = p, d
	}
	return best
}

// evictable reports whether victim may make room for incoming. At equal
// distance only a page shown in the current pass displaces one that was not,
// so preload pages never trade places with each other.
func (s *PageStore) evictable(victim, incoming *RenderedPage) bool {
	dv, di := s.Distance(victim.Key.Page), s.Distance(incoming.Key.Page)
	if dv != di {
		return dv > di
	}
	return s.pinned > 0 && incoming.LastVisible >= s.pinned && victim.LastVisible < s.pinned
}

// Admits reports whether Insert would store an off-screen page of the given
// size. Oversized pages are not admitted.
func (s *PageStore) Admits(page int, bytes int64) bool {
	if bytes > s.capacity {
		return false
	}
	incoming := &RenderedPage{Key: PageKey{Page: page}}
	free := s.capacity - s.usage
	for _, p := range s.pages {
		if free >= bytes {
			return true
		}
		if p.Bytes > 0 && s.evictable(p, incoming) {
			free += p.Bytes
		}
	}
	return free >= bytes
}

// Remove deletes the entry for key.
func (s *PageStore) Remove(key PageKey) (*RenderedPage, bool) {
	p, ok := s.pages[key]
	if ok {
		s.remove(p)
	}
	return p, ok
}

func (s *PageStore) remove(p *RenderedPage) {
	delete(s.pages, p.Key)
	s.usage -= p.Bytes
}

// Clear empties the store and returns what it held.
func (s *PageStore) Clear() []*RenderedPage {
	out := s.Pages()
	clear(s.pages)
	s.usage = 0
	return out
}

// Pages returns the cached entries ordered by page and bucket.
func (s *PageStore) Pages() []*RenderedPage {
	out := make([]*RenderedPage, 0, len(s.pages))
	for _, p := range s.pages {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Key.Page != out[j].Key.Page {
			return out[i].Key.Page < out[j].Key.Page
		}
		return out[i].Key.Bucket < out[j].Key.Bucket
	})
	return out
}
