package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/ekuzmina/wardrobe-assistant/internal/core/domain"
	"github.com/ekuzmina/wardrobe-assistant/internal/core/store"
)

func seedWardrobeItems(items *store.Store[domain.ClothingItem]) {
	now := time.Now().UTC()
	for _, it := range []domain.ClothingItem{
		{ID: "a", Category: "Tops", Tags: []string{"work", "summer"}, Processing: domain.NewProcessingState(), CreatedAt: now, UpdatedAt: now},
		{ID: "b", Category: "Tops", Tags: []string{"work"}, Processing: domain.NewProcessingState(), CreatedAt: now, UpdatedAt: now},
		{ID: "c", Category: "Shoes", Tags: []string{"summer"}, Processing: domain.NewProcessingState(), CreatedAt: now, UpdatedAt: now},
	} {
		items.Add(it)
	}
}

func TestListItemsFiltered(t *testing.T) {
	items := newItemStore()
	seedWardrobeItems(items)
	uc := NewWardrobeUseCase(items, store.NewWardrobeIndex(items))

	all := uc.ListItems(context.Background(), store.Filters{})
	if len(all) != 3 {
		t.Fatalf("unfiltered len = %d, want 3", len(all))
	}

	got := uc.ListItems(context.Background(), store.Filters{Category: "Tops", Tags: []string{"work"}})
	if len(got) != 2 {
		t.Fatalf("filtered len = %d, want 2", len(got))
	}
	for _, it := range got {
		if it.Category != "Tops" {
			t.Fatalf("filter leaked category %q", it.Category)
		}
	}
}

func TestStatsReflectIndex(t *testing.T) {
	items := newItemStore()
	seedWardrobeItems(items)
	uc := NewWardrobeUseCase(items, store.NewWardrobeIndex(items))

	stats := uc.Stats(context.Background())
	if stats.CategoryCounts[domain.CategoryAll] != 3 {
		t.Fatalf("All count = %d, want 3", stats.CategoryCounts[domain.CategoryAll])
	}
	if stats.CategoryCounts["Tops"] != 2 {
		t.Fatalf("Tops count = %d, want 2", stats.CategoryCounts["Tops"])
	}
	if len(stats.TagFrequency) == 0 || stats.TagFrequency[0].Tag != "work" {
		t.Fatalf("tag frequency = %+v, want work first", stats.TagFrequency)
	}
}

func TestUpdateItemMergesUserFields(t *testing.T) {
	items := newItemStore()
	seedWardrobeItems(items)
	uc := NewWardrobeUseCase(items, store.NewWardrobeIndex(items))

	current, _ := uc.GetItem(context.Background(), "a")
	edit := *current
	edit.Brand = "Acme"
	edit.Tags = []string{"favorite"}
	edit.Price = 59.90

	updated, err := uc.UpdateItem(context.Background(), edit)
	if err != nil {
		t.Fatalf("UpdateItem: %v", err)
	}
	if updated.Brand != "Acme" || updated.Price != 59.90 {
		t.Fatalf("edit not applied: %+v", updated)
	}
	if len(updated.Tags) != 1 || updated.Tags[0] != "favorite" {
		t.Fatalf("tags = %v", updated.Tags)
	}
}

func TestUpdateItemLockedWhileCategorizing(t *testing.T) {
	items := newItemStore()
	seedWardrobeItems(items)
	if _, err := items.Mutate("a", func(it *domain.ClothingItem) {
		it.Processing.Categorization.Status = domain.StageProcessing
	}); err != nil {
		t.Fatalf("seed processing state: %v", err)
	}
	uc := NewWardrobeUseCase(items, store.NewWardrobeIndex(items))

	current, _ := uc.GetItem(context.Background(), "a")

	// Touching a classifier-owned field while the stage runs is a conflict.
	edit := *current
	edit.Category = "Shoes"
	if _, err := uc.UpdateItem(context.Background(), edit); !domain.IsKind(err, domain.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}

	// Editing only user-owned fields is still allowed.
	edit = *current
	edit.Brand = "Acme"
	if _, err := uc.UpdateItem(context.Background(), edit); err != nil {
		t.Fatalf("user-field edit rejected: %v", err)
	}
}

// blockingClassifier holds the categorization stage open until released,
// so a test can interleave user edits with a stage that is mid-flight.
type blockingClassifier struct {
	release chan struct{}
	result  domain.Classification
}

func (c *blockingClassifier) Classify(ctx context.Context, _ string) (domain.Classification, error) {
	select {
	case <-c.release:
		return c.result, nil
	case <-ctx.Done():
		return domain.Classification{}, ctx.Err()
	}
}

func TestUpdateItemDuringCategorizationKeepsStageResult(t *testing.T) {
	items := newItemStore()
	item := seedPendingItem(t, items)
	classifier := &blockingClassifier{
		release: make(chan struct{}),
		result:  domain.Classification{Category: "Tops", Subcategory: "T-Shirt"},
	}
	enrich := NewEnrichItemUseCase(items, &removerFake{}, classifier)
	wardrobe := NewWardrobeUseCase(items, store.NewWardrobeIndex(items))

	done := make(chan error, 1)
	go func() { done <- enrich.ProcessStage(context.Background(), item.ID, domain.StageCategorization) }()

	deadline := time.Now().Add(2 * time.Second)
	for {
		got, _ := items.GetByID(item.ID)
		if got.Processing.Categorization.Status == domain.StageProcessing {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("stage never reached processing")
		}
		time.Sleep(time.Millisecond)
	}

	// The conflict check and the merge share one critical section, so the
	// eligibility seen here is the state the write would apply against.
	edit := item
	edit.Category = "Shoes"
	if _, err := wardrobe.UpdateItem(context.Background(), edit); !domain.IsKind(err, domain.ErrConflict) {
		t.Fatalf("expected conflict for classifier-owned edit mid-stage, got %v", err)
	}

	edit = item
	edit.Brand = "Acme"
	if _, err := wardrobe.UpdateItem(context.Background(), edit); err != nil {
		t.Fatalf("user-field edit rejected mid-stage: %v", err)
	}

	close(classifier.release)
	if err := <-done; err != nil {
		t.Fatalf("ProcessStage: %v", err)
	}

	got, _ := items.GetByID(item.ID)
	if got.Category != "Tops" || got.Subcategory != "T-Shirt" {
		t.Fatalf("stage merge lost to the stale edit: %+v", got)
	}
	if got.Brand != "Acme" {
		t.Fatalf("user edit lost: %+v", got)
	}
}

func TestDeleteItemKeepsOutfitReferences(t *testing.T) {
	items := newItemStore()
	seedWardrobeItems(items)
	outfits := newOutfitStore()
	outfits.Add(domain.Outfit{
		ID:    "o1",
		Items: []domain.OutfitItem{{ItemID: "a", ZIndex: 1}},
	})
	uc := NewWardrobeUseCase(items, store.NewWardrobeIndex(items))

	if err := uc.DeleteItem(context.Background(), "a"); err != nil {
		t.Fatalf("DeleteItem: %v", err)
	}
	if _, err := uc.GetItem(context.Background(), "a"); !domain.IsKind(err, domain.ErrNotFound) {
		t.Fatalf("item still retrievable: %v", err)
	}

	outfit, err := outfits.GetByID("o1")
	if err != nil {
		t.Fatalf("GetByID outfit: %v", err)
	}
	if len(outfit.Items) != 1 || outfit.Items[0].ItemID != "a" {
		t.Fatalf("outfit reference pruned: %+v", outfit.Items)
	}
}

func TestDeleteItemUnknown(t *testing.T) {
	items := newItemStore()
	uc := NewWardrobeUseCase(items, store.NewWardrobeIndex(items))
	if err := uc.DeleteItem(context.Background(), "ghost"); !domain.IsKind(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
