package store

import (
	"sort"
	"sync"

	"github.com/ekuzmina/wardrobe-assistant/internal/core/domain"
)

// TagCount is one entry of the tag frequency ranking.
type TagCount struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
}

// WardrobeIndex derives read-only aggregates from the clothing collection:
// per-category counts and the tag frequency ranking. Both are pure
// functions of the collection, memoized on the store version and
// recomputed only after a mutation.
type WardrobeIndex struct {
	store *Store[domain.ClothingItem]

	mu      sync.Mutex
	version uint64
	fresh   bool
	counts  map[string]int
	tags    []TagCount
}

func NewWardrobeIndex(s *Store[domain.ClothingItem]) *WardrobeIndex {
	return &WardrobeIndex{store: s}
}

// CategoryCounts maps category name to item count, with a synthetic
// domain.CategoryAll key equal to the total. The returned map is shared
// between calls until the collection changes; treat it as read-only.
func (ix *WardrobeIndex) CategoryCounts() map[string]int {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.refreshLocked()
	return ix.counts
}

// TagFrequency ranks tags by count descending; ties keep first-seen order.
func (ix *WardrobeIndex) TagFrequency() []TagCount {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.refreshLocked()
	return ix.tags
}

func (ix *WardrobeIndex) refreshLocked() {
	v := ix.store.Version()
	if ix.fresh && v == ix.version {
		return
	}

	items := ix.store.List()

	counts := make(map[string]int, len(domain.Categories)+1)
	counts[domain.CategoryAll] = len(items)
	for _, item := range items {
		if item.Category != "" {
			counts[item.Category]++
		}
	}

	// Single accumulation pass over all tag lists, preserving first-seen
	// order for the stable sort below.
	byTag := make(map[string]int)
	var order []string
	for _, item := range items {
		for _, tag := range item.Tags {
			if _, seen := byTag[tag]; !seen {
				order = append(order, tag)
			}
			byTag[tag]++
		}
	}
	tags := make([]TagCount, 0, len(order))
	for _, tag := range order {
		tags = append(tags, TagCount{Tag: tag, Count: byTag[tag]})
	}
	sort.SliceStable(tags, func(i, j int) bool { return tags[i].Count > tags[j].Count })

	ix.version = v
	ix.fresh = true
	ix.counts = counts
	ix.tags = tags
}
