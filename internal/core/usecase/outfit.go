package usecase

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/ekuzmina/wardrobe-assistant/internal/core/domain"
	"github.com/ekuzmina/wardrobe-assistant/internal/core/ports"
	"github.com/ekuzmina/wardrobe-assistant/internal/core/store"
)

// ComposeOutfitUseCase saves canvas compositions. Saving flattens the
// placed layers into a composed snapshot through the canvas renderer and
// stores the outfit; a layer whose clothing item was deleted since
// placement is skipped, never an error.
type ComposeOutfitUseCase struct {
	outfits      *store.Store[domain.Outfit]
	items        *store.Store[domain.ClothingItem]
	storage      ports.ObjectStorage
	renderer     ports.CanvasRenderer
	canvasWidth  int
	canvasHeight int
}

func NewComposeOutfitUseCase(
	outfits *store.Store[domain.Outfit],
	items *store.Store[domain.ClothingItem],
	storage ports.ObjectStorage,
	renderer ports.CanvasRenderer,
	canvasWidth, canvasHeight int,
) *ComposeOutfitUseCase {
	return &ComposeOutfitUseCase{
		outfits:      outfits,
		items:        items,
		storage:      storage,
		renderer:     renderer,
		canvasWidth:  canvasWidth,
		canvasHeight: canvasHeight,
	}
}

func (uc *ComposeOutfitUseCase) Save(ctx context.Context, draft domain.OutfitDraft) (*domain.Outfit, error) {
	if len(draft.Items) == 0 {
		return nil, domain.WrapError(domain.ErrInvalidInput, "save outfit", fmt.Errorf("an outfit needs at least one placed item"))
	}

	id := uuid.NewString()
	composedKey, err := uc.capture(ctx, id, draft.Items)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	outfit := domain.Outfit{
		ID:            id,
		ComposedImage: composedKey,
		Items:         draft.Items,
		Tags:          draft.Tags,
		Seasons:       draft.Seasons,
		Occasions:     draft.Occasions,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	uc.outfits.Add(outfit)
	return &outfit, nil
}

func (uc *ComposeOutfitUseCase) Update(ctx context.Context, outfit domain.Outfit) (*domain.Outfit, error) {
	if _, err := uc.outfits.GetByID(outfit.ID); err != nil {
		return nil, err
	}

	composedKey, err := uc.capture(ctx, outfit.ID, outfit.Items)
	if err != nil {
		return nil, err
	}

	updated, err := uc.outfits.Mutate(outfit.ID, func(o *domain.Outfit) {
		o.ComposedImage = composedKey
		o.Items = outfit.Items
		o.Tags = outfit.Tags
		o.Seasons = outfit.Seasons
		o.Occasions = outfit.Occasions
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

func (uc *ComposeOutfitUseCase) Get(_ context.Context, id string) (*domain.Outfit, error) {
	outfit, err := uc.outfits.GetByID(id)
	if err != nil {
		return nil, err
	}
	return &outfit, nil
}

func (uc *ComposeOutfitUseCase) List(_ context.Context) []domain.Outfit {
	return uc.outfits.List()
}

func (uc *ComposeOutfitUseCase) Remove(_ context.Context, id string) error {
	if _, err := uc.outfits.GetByID(id); err != nil {
		return err
	}
	uc.outfits.Remove(id)
	return nil
}

// capture renders the composed snapshot and stores it under a versioned
// key. Layers are painted in ascending stacking order; dangling item
// references contribute nothing.
func (uc *ComposeOutfitUseCase) capture(ctx context.Context, outfitID string, placed []domain.OutfitItem) (string, error) {
	ordered := make([]domain.OutfitItem, len(placed))
	copy(ordered, placed)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].ZIndex < ordered[j].ZIndex })

	var layers []ports.RenderLayer
	var closers []func()
	defer func() {
		for _, close := range closers {
			close()
		}
	}()

	for _, pi := range ordered {
		item, err := uc.items.GetByID(pi.ItemID)
		if err != nil {
			// Dangling reference: the item was deleted after placement.
			continue
		}
		img, err := uc.storage.Open(ctx, item.DisplayImage())
		if err != nil {
			return "", fmt.Errorf("open layer image for %s: %w", pi.ItemID, err)
		}
		closers = append(closers, func() { _ = img.Close() })
		layers = append(layers, ports.RenderLayer{Image: img, Transform: pi.Transform})
	}

	png, err := uc.renderer.Flatten(ctx, uc.canvasWidth, uc.canvasHeight, layers)
	if err != nil {
		return "", fmt.Errorf("flatten canvas: %w", err)
	}

	key := fmt.Sprintf("outfits/%s_%d.png", outfitID, time.Now().UnixNano())
	if err := uc.storage.Save(ctx, key, bytes.NewReader(png)); err != nil {
		return "", fmt.Errorf("save composed image: %w", err)
	}
	return key, nil
}
