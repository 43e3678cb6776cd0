package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ekuzmina/wardrobe-assistant/internal/core/domain"
	"github.com/ekuzmina/wardrobe-assistant/internal/core/ports"
	"github.com/ekuzmina/wardrobe-assistant/internal/core/store"
)

// TryOnUseCase runs virtual try-on compositions and keeps the capped,
// most-recent-first history. A failed composition persists nothing; the
// history only ever holds completed results.
type TryOnUseCase struct {
	records    *store.Store[domain.TryOnRecord]
	items      *store.Store[domain.ClothingItem]
	outfits    *store.Store[domain.Outfit]
	compositor ports.TryOnCompositor
}

func NewTryOnUseCase(
	records *store.Store[domain.TryOnRecord],
	items *store.Store[domain.ClothingItem],
	outfits *store.Store[domain.Outfit],
	compositor ports.TryOnCompositor,
) *TryOnUseCase {
	return &TryOnUseCase{
		records:    records,
		items:      items,
		outfits:    outfits,
		compositor: compositor,
	}
}

func (uc *TryOnUseCase) TryOn(ctx context.Context, req domain.TryOnRequest) (*domain.TryOnRecord, error) {
	if err := uc.validate(req); err != nil {
		return nil, err
	}

	// Compositing is awaited to completion or failure; it may run for tens
	// of seconds and the caller's context is the only deadline.
	resultKey, err := uc.compositor.Compose(ctx, req.GarmentImage, req.PersonImage)
	if err != nil {
		return nil, fmt.Errorf("compose try-on: %w", err)
	}

	now := time.Now().UTC()
	rec := domain.TryOnRecord{
		ID:             uuid.NewString(),
		Type:           req.Type,
		ClothingItemID: req.ClothingItemID,
		OutfitID:       req.OutfitID,
		GarmentImage:   req.GarmentImage,
		PersonImage:    req.PersonImage,
		ResultImage:    resultKey,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	uc.records.Add(rec)
	return &rec, nil
}

func (uc *TryOnUseCase) History(_ context.Context) ([]domain.TryOnRecord, error) {
	return uc.records.List(), nil
}

func (uc *TryOnUseCase) ClearHistory(_ context.Context) error {
	uc.records.RemoveAll()
	return nil
}

func (uc *TryOnUseCase) DeleteRecords(_ context.Context, ids []string) error {
	for _, id := range ids {
		uc.records.Remove(id)
	}
	return nil
}

// validate rejects a request before any remote call is made. Both images
// are required regardless of type; a provenance reference, when present,
// must resolve to a live entity.
func (uc *TryOnUseCase) validate(req domain.TryOnRequest) error {
	if req.GarmentImage == "" || req.PersonImage == "" {
		return domain.WrapError(domain.ErrInvalidInput, "try-on", fmt.Errorf("garment and person images are both required"))
	}
	switch req.Type {
	case domain.TryOnSingle, domain.TryOnDiscover, domain.TryOnOutfit:
	default:
		return domain.WrapError(domain.ErrInvalidInput, "try-on", fmt.Errorf("unknown try-on type %q", req.Type))
	}
	if req.ClothingItemID != "" {
		if _, err := uc.items.GetByID(req.ClothingItemID); err != nil {
			return fmt.Errorf("resolve clothing item: %w", err)
		}
	}
	if req.OutfitID != "" {
		if _, err := uc.outfits.GetByID(req.OutfitID); err != nil {
			return fmt.Errorf("resolve outfit: %w", err)
		}
	}
	return nil
}
