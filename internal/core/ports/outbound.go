package ports

import (
	"context"
	"io"

	"github.com/ekuzmina/wardrobe-assistant/internal/core/domain"
)

// BlobStore is the persistence adapter: opaque key to JSON-blob read/write.
// Read returns domain.ErrNotFound for an absent key. Failures on either
// side are non-fatal to callers; stores degrade to empty or skip the write.
type BlobStore interface {
	Read(ctx context.Context, key string) ([]byte, error)
	Write(ctx context.Context, key string, blob []byte) error
}

// ObjectStorage stores captured and processed garment images.
type ObjectStorage interface {
	Save(ctx context.Context, key string, data io.Reader) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}

// StageQueue carries enrichment work between processes. Stage tasks flow
// from capture to whichever process runs the remote calls; stage results
// flow back to the one process that owns the collection store, which stays
// the only writer of enrichment fields. The two stages of one item are
// independent messages and may be delivered in any order.
type StageQueue interface {
	PublishStage(ctx context.Context, task domain.StageTask) error
	SubscribeStages(ctx context.Context, handler func(context.Context, domain.StageTask) error) error
	PublishStageResult(ctx context.Context, result domain.StageResult) error
	SubscribeStageResults(ctx context.Context, handler func(context.Context, domain.StageResult) error) error
}

// BackgroundRemover calls the remote background-removal service with a
// stored source image and returns the key of the enriched cutout.
type BackgroundRemover interface {
	Remove(ctx context.Context, imageKey string) (string, error)
}

// GarmentClassifier calls the remote categorization service.
type GarmentClassifier interface {
	Classify(ctx context.Context, imageKey string) (domain.Classification, error)
}

// TryOnCompositor calls the remote try-on service. Compose may run for tens
// of seconds; it is awaited to completion or failure, no timeout beyond the
// caller's context.
type TryOnCompositor interface {
	Compose(ctx context.Context, garmentImage, personImage string) (string, error)
}

// RenderLayer is one garment layer of a flattened outfit snapshot, already
// ordered for painting.
type RenderLayer struct {
	Image     io.Reader
	Transform domain.Transform
}

// CanvasRenderer flattens placed layers into a single PNG snapshot.
type CanvasRenderer interface {
	Flatten(ctx context.Context, width, height int, layers []RenderLayer) ([]byte, error)
}
