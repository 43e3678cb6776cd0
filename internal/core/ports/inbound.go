package ports

import (
	"context"
	"io"

	"github.com/ekuzmina/wardrobe-assistant/internal/core/domain"
)

// ItemCapturer is the inbound contract for capturing a new garment image.
// It returns the placeholder item immediately; enrichment runs behind it.
type ItemCapturer interface {
	AddFromImage(ctx context.Context, filename, mimeType string, body io.Reader) (*domain.ClothingItem, error)
}

// ItemEnricher is the inbound contract for asynchronous stage processing.
// ProcessStage runs a stage end to end inside the store-owning process;
// ExecuteStage and ApplyResult are the same work split across the queue,
// with the remote call running in a stateless consumer and the merge
// running wherever the store lives.
type ItemEnricher interface {
	ProcessStage(ctx context.Context, itemID string, stage domain.EnrichmentStage) error
	ExecuteStage(ctx context.Context, task domain.StageTask) domain.StageResult
	ApplyResult(ctx context.Context, result domain.StageResult) error
}

// TryOnService is the inbound contract for virtual try-on requests and the
// retained history.
type TryOnService interface {
	TryOn(ctx context.Context, req domain.TryOnRequest) (*domain.TryOnRecord, error)
	History(ctx context.Context) ([]domain.TryOnRecord, error)
	ClearHistory(ctx context.Context) error
	DeleteRecords(ctx context.Context, ids []string) error
}

// OutfitComposer is the inbound contract for saving canvas compositions.
type OutfitComposer interface {
	Save(ctx context.Context, draft domain.OutfitDraft) (*domain.Outfit, error)
	Update(ctx context.Context, outfit domain.Outfit) (*domain.Outfit, error)
}
