package usecase

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/ekuzmina/wardrobe-assistant/internal/core/domain"
)

func newTryOnFixture() (*TryOnUseCase, *compositorFake) {
	items := newItemStore()
	now := time.Now().UTC()
	items.Add(domain.ClothingItem{ID: "item-1", SourceImage: "captures/item-1.jpg", Processing: domain.NewProcessingState(), CreatedAt: now, UpdatedAt: now})
	outfits := newOutfitStore()
	outfits.Add(domain.Outfit{ID: "outfit-1", ComposedImage: "outfits/outfit-1.png", Items: []domain.OutfitItem{{ItemID: "item-1"}}})
	compositor := &compositorFake{result: "tryon/result.png"}
	return NewTryOnUseCase(newTryOnStore(), items, outfits, compositor), compositor
}

func TestTryOnRecordsResult(t *testing.T) {
	uc, compositor := newTryOnFixture()

	rec, err := uc.TryOn(context.Background(), domain.TryOnRequest{
		Type:           domain.TryOnSingle,
		ClothingItemID: "item-1",
		GarmentImage:   "captures/item-1.jpg",
		PersonImage:    "selfies/me.jpg",
	})
	if err != nil {
		t.Fatalf("TryOn: %v", err)
	}
	if rec.ResultImage != "tryon/result.png" {
		t.Fatalf("result image = %q", rec.ResultImage)
	}
	if compositor.calls != 1 {
		t.Fatalf("compositor calls = %d", compositor.calls)
	}

	history, err := uc.History(context.Background())
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(history) != 1 || history[0].ID != rec.ID {
		t.Fatalf("history = %+v", history)
	}
}

func TestTryOnRequiresBothImages(t *testing.T) {
	uc, compositor := newTryOnFixture()

	_, err := uc.TryOn(context.Background(), domain.TryOnRequest{Type: domain.TryOnDiscover, GarmentImage: "g.jpg"})
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
	_, err = uc.TryOn(context.Background(), domain.TryOnRequest{Type: domain.TryOnDiscover, PersonImage: "p.jpg"})
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
	if compositor.calls != 0 {
		t.Fatalf("compositor called %d times on invalid requests", compositor.calls)
	}
}

func TestTryOnRejectsDanglingReferences(t *testing.T) {
	uc, _ := newTryOnFixture()

	_, err := uc.TryOn(context.Background(), domain.TryOnRequest{
		Type: domain.TryOnSingle, ClothingItemID: "ghost",
		GarmentImage: "g.jpg", PersonImage: "p.jpg",
	})
	if !domain.IsKind(err, domain.ErrNotFound) {
		t.Fatalf("expected not found for item ref, got %v", err)
	}

	_, err = uc.TryOn(context.Background(), domain.TryOnRequest{
		Type: domain.TryOnOutfit, OutfitID: "ghost",
		GarmentImage: "g.jpg", PersonImage: "p.jpg",
	})
	if !domain.IsKind(err, domain.ErrNotFound) {
		t.Fatalf("expected not found for outfit ref, got %v", err)
	}
}

func TestTryOnFailurePersistsNothing(t *testing.T) {
	uc, compositor := newTryOnFixture()
	compositor.err = errors.New("compositor 500")

	if _, err := uc.TryOn(context.Background(), domain.TryOnRequest{
		Type: domain.TryOnDiscover, GarmentImage: "g.jpg", PersonImage: "p.jpg",
	}); err == nil {
		t.Fatal("expected compose failure to surface")
	}

	history, _ := uc.History(context.Background())
	if len(history) != 0 {
		t.Fatalf("failed attempt persisted: %+v", history)
	}
}

func TestTryOnHistoryNewestFirstAndCapped(t *testing.T) {
	uc, _ := newTryOnFixture()

	for i := 0; i < domain.TryOnHistoryLimit+5; i++ {
		if _, err := uc.TryOn(context.Background(), domain.TryOnRequest{
			Type:         domain.TryOnDiscover,
			GarmentImage: fmt.Sprintf("g-%d.jpg", i),
			PersonImage:  "p.jpg",
		}); err != nil {
			t.Fatalf("TryOn %d: %v", i, err)
		}
	}

	history, _ := uc.History(context.Background())
	if len(history) != domain.TryOnHistoryLimit {
		t.Fatalf("history len = %d, want %d", len(history), domain.TryOnHistoryLimit)
	}
	if history[0].GarmentImage != fmt.Sprintf("g-%d.jpg", domain.TryOnHistoryLimit+4) {
		t.Fatalf("newest record = %q", history[0].GarmentImage)
	}
}

func TestTryOnDeleteAndClear(t *testing.T) {
	uc, _ := newTryOnFixture()

	var ids []string
	for i := 0; i < 3; i++ {
		rec, err := uc.TryOn(context.Background(), domain.TryOnRequest{
			Type: domain.TryOnDiscover, GarmentImage: fmt.Sprintf("g-%d.jpg", i), PersonImage: "p.jpg",
		})
		if err != nil {
			t.Fatalf("TryOn: %v", err)
		}
		ids = append(ids, rec.ID)
	}

	if err := uc.DeleteRecords(context.Background(), ids[:2]); err != nil {
		t.Fatalf("DeleteRecords: %v", err)
	}
	history, _ := uc.History(context.Background())
	if len(history) != 1 || history[0].ID != ids[2] {
		t.Fatalf("history after delete = %+v", history)
	}

	if err := uc.ClearHistory(context.Background()); err != nil {
		t.Fatalf("ClearHistory: %v", err)
	}
	history, _ = uc.History(context.Background())
	if len(history) != 0 {
		t.Fatalf("history not cleared: %+v", history)
	}
}
