package store

import (
	"context"
	"reflect"
	"testing"
	"time"

	"github.com/ekuzmina/wardrobe-assistant/internal/core/domain"
)

func seedWardrobe(t *testing.T) *Store[domain.ClothingItem] {
	t.Helper()
	s := New[domain.ClothingItem](context.Background(), newBlobStoreFake(), "clothing_items", testLogger(),
		WithDebounce(10*time.Millisecond))
	s.Add(domain.ClothingItem{ID: "a", Category: "Tops", Tags: []string{"red", "work"}})
	s.Add(domain.ClothingItem{ID: "b", Category: "Tops", Tags: []string{"red"}})
	s.Add(domain.ClothingItem{ID: "c", Category: "Shoes", Tags: []string{"summer"}})
	s.Add(domain.ClothingItem{ID: "d", Category: "", Tags: nil})
	return s
}

func TestCategoryCountsIncludeAllTotal(t *testing.T) {
	ix := NewWardrobeIndex(seedWardrobe(t))

	counts := ix.CategoryCounts()
	if counts[domain.CategoryAll] != 4 {
		t.Fatalf("All = %d, want 4", counts[domain.CategoryAll])
	}
	if counts["Tops"] != 2 || counts["Shoes"] != 1 {
		t.Fatalf("unexpected counts: %v", counts)
	}

	sum := 0
	for name, n := range counts {
		if name != domain.CategoryAll {
			sum += n
		}
	}
	// Items without a category only show up under All.
	if sum != 3 {
		t.Fatalf("categorized sum = %d, want 3", sum)
	}
}

func TestTagFrequencyOrderAndTies(t *testing.T) {
	ix := NewWardrobeIndex(seedWardrobe(t))

	tags := ix.TagFrequency()
	if len(tags) != 3 {
		t.Fatalf("expected 3 tags, got %+v", tags)
	}
	if tags[0].Tag != "red" || tags[0].Count != 2 {
		t.Fatalf("expected red first with count 2, got %+v", tags[0])
	}
	// work and summer tie at 1; first-seen order wins.
	if tags[1].Tag != "work" || tags[2].Tag != "summer" {
		t.Fatalf("tie order broken: %+v", tags)
	}
}

func TestIndexMemoizedUntilCollectionChanges(t *testing.T) {
	s := seedWardrobe(t)
	ix := NewWardrobeIndex(s)

	// Re-invocation on an unchanged collection returns the cached map.
	first := ix.CategoryCounts()
	second := ix.CategoryCounts()
	if reflect.ValueOf(first).Pointer() != reflect.ValueOf(second).Pointer() {
		t.Fatalf("expected memoized map to be reused")
	}
	firstTags := ix.TagFrequency()
	secondTags := ix.TagFrequency()
	if len(firstTags) != len(secondTags) {
		t.Fatalf("tag ranking changed without mutation")
	}

	s.Add(domain.ClothingItem{ID: "e", Category: "Bags", Tags: []string{"summer"}})

	counts := ix.CategoryCounts()
	if counts[domain.CategoryAll] != 5 || counts["Bags"] != 1 {
		t.Fatalf("index not recomputed after mutation: %v", counts)
	}
	tags := ix.TagFrequency()
	// summer now ties red at 2; red was seen first and stays ahead.
	if tags[0].Tag != "red" || tags[1].Tag != "summer" || tags[1].Count != 2 {
		t.Fatalf("unexpected ranking after mutation: %+v", tags)
	}
}
