package store

import (
	"slices"
	"sync"

	"github.com/ekuzmina/wardrobe-assistant/internal/core/domain"
)

// Filters is the active filter criteria for the clothing collection.
// Category "All" (or empty) matches everything; tag filters are
// conjunctive: an item must carry every listed tag.
type Filters struct {
	Category string   `json:"category"`
	Tags     []string `json:"tags"`
}

func (f Filters) isPassthrough() bool {
	return (f.Category == "" || f.Category == domain.CategoryAll) && len(f.Tags) == 0
}

func (f Filters) matches(item domain.ClothingItem) bool {
	if f.Category != "" && f.Category != domain.CategoryAll && item.Category != f.Category {
		return false
	}
	for _, tag := range f.Tags {
		if !slices.Contains(item.Tags, tag) {
			return false
		}
	}
	return true
}

// ApplyFilters derives the visible subset. With no active criteria the
// input slice is returned unchanged, same backing array.
func ApplyFilters(items []domain.ClothingItem, f Filters) []domain.ClothingItem {
	if f.isPassthrough() {
		return items
	}
	out := make([]domain.ClothingItem, 0, len(items))
	for _, item := range items {
		if f.matches(item) {
			out = append(out, item)
		}
	}
	return out
}

// FilterState holds the active criteria between requests.
type FilterState struct {
	mu sync.Mutex
	f  Filters
}

func NewFilterState() *FilterState {
	return &FilterState{f: Filters{Category: domain.CategoryAll}}
}

func (s *FilterState) SetCategory(category string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.f.Category = category
}

func (s *FilterState) SetTags(tags []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.f.Tags = slices.Clone(tags)
}

func (s *FilterState) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.f = Filters{Category: domain.CategoryAll}
}

func (s *FilterState) Active() Filters {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Filters{Category: s.f.Category, Tags: slices.Clone(s.f.Tags)}
}

func (s *FilterState) Apply(items []domain.ClothingItem) []domain.ClothingItem {
	return ApplyFilters(items, s.Active())
}
