package usecase

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ekuzmina/wardrobe-assistant/internal/core/domain"
	"github.com/ekuzmina/wardrobe-assistant/internal/core/ports"
	"github.com/ekuzmina/wardrobe-assistant/internal/core/store"
)

// CaptureItemUseCase turns a captured garment photo into a wardrobe entry.
// The item is created synchronously with both enrichment stages pending and
// returned immediately; the stages themselves run behind the queue, so the
// caller can open a detail view before enrichment completes.
type CaptureItemUseCase struct {
	items   *store.Store[domain.ClothingItem]
	storage ports.ObjectStorage
	queue   ports.StageQueue
}

func NewCaptureItemUseCase(
	items *store.Store[domain.ClothingItem],
	storage ports.ObjectStorage,
	queue ports.StageQueue,
) *CaptureItemUseCase {
	return &CaptureItemUseCase{
		items:   items,
		storage: storage,
		queue:   queue,
	}
}

func (uc *CaptureItemUseCase) AddFromImage(
	ctx context.Context,
	filename, mimeType string,
	body io.Reader,
) (*domain.ClothingItem, error) {
	if body == nil {
		return nil, domain.WrapError(domain.ErrInvalidInput, "capture item", fmt.Errorf("image body is required"))
	}
	if mimeType != "" && !strings.HasPrefix(mimeType, "image/") {
		return nil, domain.WrapError(domain.ErrInvalidInput, "capture item", fmt.Errorf("unsupported content type %q", mimeType))
	}

	id := uuid.NewString()
	imageKey := fmt.Sprintf("captures/%s_%s", id, sanitizeFilename(filename))
	now := time.Now().UTC()

	if err := uc.storage.Save(ctx, imageKey, body); err != nil {
		return nil, fmt.Errorf("save source image: %w", err)
	}

	item := domain.ClothingItem{
		ID:          id,
		SourceImage: imageKey,
		Tags:        []string{},
		Processing:  domain.NewProcessingState(),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	uc.items.Add(item)

	for _, stage := range domain.EnrichmentStages {
		task := domain.StageTask{ItemID: item.ID, Stage: stage, ImageKey: item.SourceImage}
		if err := uc.queue.PublishStage(ctx, task); err != nil {
			// A failed dispatch marks the stage error right away; there is
			// no automatic retry, same as a stage that failed remotely. The
			// item stays usable with partial data.
			if _, mErr := uc.items.Mutate(item.ID, func(it *domain.ClothingItem) {
				st := it.Processing.Stage(stage)
				st.Status = domain.StageError
				st.Error = fmt.Sprintf("dispatch: %v", err)
			}); mErr != nil {
				return nil, mErr
			}
		}
	}

	created, err := uc.items.GetByID(item.ID)
	if err != nil {
		return nil, err
	}
	return &created, nil
}

func sanitizeFilename(name string) string {
	base := filepath.Base(name)
	base = strings.ReplaceAll(base, " ", "_")
	base = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return r
		case r >= 'A' && r <= 'Z':
			return r
		case r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, base)
	if base == "" {
		return "capture.jpg"
	}
	return base
}
