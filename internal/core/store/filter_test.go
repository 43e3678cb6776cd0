package store

import (
	"testing"

	"github.com/ekuzmina/wardrobe-assistant/internal/core/domain"
)

func filterFixture() []domain.ClothingItem {
	return []domain.ClothingItem{
		{ID: "a", Category: "Tops", Tags: []string{"red", "work"}},
		{ID: "b", Category: "Tops", Tags: []string{"blue"}},
		{ID: "c", Category: "Shoes", Tags: []string{"red"}},
	}
}

func TestApplyFiltersPassthroughSharesBackingArray(t *testing.T) {
	items := filterFixture()

	for _, f := range []Filters{{}, {Category: domain.CategoryAll}, {Category: domain.CategoryAll, Tags: []string{}}} {
		got := ApplyFilters(items, f)
		if len(got) != len(items) || &got[0] != &items[0] {
			t.Fatalf("filters %+v should return the original sequence", f)
		}
	}
}

func TestApplyFiltersCategoryAndTagsAreConjunctive(t *testing.T) {
	items := filterFixture()

	got := ApplyFilters(items, Filters{Category: "Tops", Tags: []string{"red"}})
	if len(got) != 1 || got[0].ID != "a" {
		t.Fatalf("expected exactly item a, got %+v", got)
	}

	got = ApplyFilters(items, Filters{Category: domain.CategoryAll, Tags: []string{"red"}})
	if len(got) != 2 {
		t.Fatalf("expected a and c for tag red under All, got %+v", got)
	}

	got = ApplyFilters(items, Filters{Category: "Tops", Tags: []string{"red", "work"}})
	if len(got) != 1 || got[0].ID != "a" {
		t.Fatalf("multi-tag filter must require every tag, got %+v", got)
	}

	got = ApplyFilters(items, Filters{Category: "Tops", Tags: []string{"red", "missing"}})
	if len(got) != 0 {
		t.Fatalf("expected no matches, got %+v", got)
	}
}

func TestFilterStateSetAndClear(t *testing.T) {
	s := NewFilterState()
	items := filterFixture()

	s.SetCategory("Shoes")
	s.SetTags([]string{"red"})
	got := s.Apply(items)
	if len(got) != 1 || got[0].ID != "c" {
		t.Fatalf("expected item c, got %+v", got)
	}

	s.SetCategory("Tops")
	got = s.Apply(items)
	if len(got) != 1 || got[0].ID != "a" {
		t.Fatalf("replacing one field must keep the other, got %+v", got)
	}

	s.Clear()
	active := s.Active()
	if active.Category != domain.CategoryAll || len(active.Tags) != 0 {
		t.Fatalf("clear did not reset defaults: %+v", active)
	}
	if got := s.Apply(items); len(got) != len(items) {
		t.Fatalf("cleared filter should pass everything, got %d", len(got))
	}
}
