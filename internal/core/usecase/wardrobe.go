package usecase

import (
	"context"
	"fmt"
	"slices"

	"github.com/ekuzmina/wardrobe-assistant/internal/core/domain"
	"github.com/ekuzmina/wardrobe-assistant/internal/core/store"
)

// WardrobeUseCase is the read/edit surface over the clothing collection:
// filtered listing, derived stats, user edits, and deletes.
type WardrobeUseCase struct {
	items *store.Store[domain.ClothingItem]
	index *store.WardrobeIndex
}

func NewWardrobeUseCase(items *store.Store[domain.ClothingItem], index *store.WardrobeIndex) *WardrobeUseCase {
	return &WardrobeUseCase{items: items, index: index}
}

func (uc *WardrobeUseCase) ListItems(_ context.Context, f store.Filters) []domain.ClothingItem {
	return store.ApplyFilters(uc.items.List(), f)
}

func (uc *WardrobeUseCase) GetItem(_ context.Context, id string) (*domain.ClothingItem, error) {
	item, err := uc.items.GetByID(id)
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// WardrobeStats bundles the derived indexes for UI badges.
type WardrobeStats struct {
	CategoryCounts map[string]int   `json:"category_counts"`
	TagFrequency   []store.TagCount `json:"tag_frequency"`
}

func (uc *WardrobeUseCase) Stats(_ context.Context) WardrobeStats {
	return WardrobeStats{
		CategoryCounts: uc.index.CategoryCounts(),
		TagFrequency:   uc.index.TagFrequency(),
	}
}

// UpdateItem applies a user edit. The in-flight check and the merge run
// inside one store critical section: while categorization is processing
// the classifier-owned fields are read-only and edits touching them are
// rejected whole, and a stage that completes mid-edit can never have its
// merge overwritten with values read before it finished.
func (uc *WardrobeUseCase) UpdateItem(_ context.Context, edit domain.ClothingItem) (*domain.ClothingItem, error) {
	updated, err := uc.items.TryMutate(edit.ID, func(it *domain.ClothingItem) error {
		inFlight := it.EnrichmentInFlight()
		if inFlight && touchesClassifierFields(*it, edit) {
			return domain.WrapError(domain.ErrConflict, "update item",
				fmt.Errorf("category, seasons, occasions and price are locked while categorization is processing"))
		}

		it.Tags = edit.Tags
		it.Colors = edit.Colors
		it.Brand = edit.Brand
		it.PurchaseYearMonth = edit.PurchaseYearMonth
		if !inFlight {
			it.Category = edit.Category
			it.Subcategory = edit.Subcategory
			it.Seasons = edit.Seasons
			it.Occasions = edit.Occasions
			it.Price = edit.Price
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// DeleteItem removes the item. Outfits referencing it keep their dangling
// reference and skip it at render time; references are deliberately not
// cascade-pruned.
func (uc *WardrobeUseCase) DeleteItem(_ context.Context, id string) error {
	if _, err := uc.items.GetByID(id); err != nil {
		return err
	}
	uc.items.Remove(id)
	return nil
}

func touchesClassifierFields(current, edit domain.ClothingItem) bool {
	return edit.Category != current.Category ||
		edit.Subcategory != current.Subcategory ||
		!slices.Equal(edit.Seasons, current.Seasons) ||
		!slices.Equal(edit.Occasions, current.Occasions) ||
		edit.Price != current.Price
}
