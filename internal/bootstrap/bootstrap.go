// Package bootstrap wires configuration, infrastructure and usecases into
// a running application. The blob backend and queue driver are selected
// here; everything downstream sees only the ports.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ekuzmina/wardrobe-assistant/internal/config"
	"github.com/ekuzmina/wardrobe-assistant/internal/core/domain"
	"github.com/ekuzmina/wardrobe-assistant/internal/core/ports"
	"github.com/ekuzmina/wardrobe-assistant/internal/core/store"
	"github.com/ekuzmina/wardrobe-assistant/internal/core/usecase"
	blobfs "github.com/ekuzmina/wardrobe-assistant/internal/infrastructure/blobstore/localfs"
	blobpg "github.com/ekuzmina/wardrobe-assistant/internal/infrastructure/blobstore/postgres"
	"github.com/ekuzmina/wardrobe-assistant/internal/infrastructure/queue/inproc"
	natsqueue "github.com/ekuzmina/wardrobe-assistant/internal/infrastructure/queue/nats"
	"github.com/ekuzmina/wardrobe-assistant/internal/infrastructure/render"
	"github.com/ekuzmina/wardrobe-assistant/internal/infrastructure/resilience"
	imagefs "github.com/ekuzmina/wardrobe-assistant/internal/infrastructure/storage/localfs"
	"github.com/ekuzmina/wardrobe-assistant/internal/infrastructure/vision/styleapi"
)

const (
	keyClothingItems = "clothing_items"
	keyOutfits       = "outfits"
	keyTryOnHistory  = "try_on_history"
)

type App struct {
	Config config.Config
	Log    *slog.Logger

	Items   *store.Store[domain.ClothingItem]
	Outfits *store.Store[domain.Outfit]
	Records *store.Store[domain.TryOnRecord]

	Storage ports.ObjectStorage
	Queue   ports.StageQueue

	CaptureUC  *usecase.CaptureItemUseCase
	EnrichUC   *usecase.EnrichItemUseCase
	WardrobeUC *usecase.WardrobeUseCase
	OutfitUC   *usecase.ComposeOutfitUseCase
	TryOnUC    *usecase.TryOnUseCase
	ExportUC   *usecase.ExportUseCase

	closeFn func()
}

func New(ctx context.Context, cfg config.Config, log *slog.Logger) (*App, error) {
	blobs, closeBlobs, err := newBlobStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	storage, err := imagefs.New(cfg.ImagesPath)
	if err != nil {
		return nil, fmt.Errorf("init image storage: %w", err)
	}

	executor := resilience.NewExecutor(resilience.DefaultConfig(), log)

	queue, closeQueue, err := newQueue(cfg, executor, log)
	if err != nil {
		return nil, err
	}

	debounce := store.WithDebounce(time.Duration(cfg.StoreDebounceMS) * time.Millisecond)
	items := store.New[domain.ClothingItem](ctx, blobs, keyClothingItems, log, debounce)
	outfits := store.New[domain.Outfit](ctx, blobs, keyOutfits, log, debounce)
	records := store.New[domain.TryOnRecord](ctx, blobs, keyTryOnHistory, log,
		debounce, store.WithPrepend(), store.WithCap(domain.TryOnHistoryLimit))

	vision := styleapi.New(cfg.StyleAPIURL, cfg.StyleAPIKey, storage, styleapi.WithResilience(executor))
	renderer := render.New(cfg.CanvasItemSize)

	app := &App{
		Config:  cfg,
		Log:     log,
		Items:   items,
		Outfits: outfits,
		Records: records,
		Storage: storage,
		Queue:   queue,

		CaptureUC:  usecase.NewCaptureItemUseCase(items, storage, queue),
		EnrichUC:   usecase.NewEnrichItemUseCase(items, styleapi.NewRemover(vision), styleapi.NewClassifier(vision)),
		WardrobeUC: usecase.NewWardrobeUseCase(items, store.NewWardrobeIndex(items)),
		OutfitUC:   usecase.NewComposeOutfitUseCase(outfits, items, storage, renderer, cfg.CanvasWidth, cfg.CanvasHeight),
		TryOnUC:    usecase.NewTryOnUseCase(records, items, outfits, styleapi.NewCompositor(vision)),
		ExportUC:   usecase.NewExportUseCase(items),
	}

	app.closeFn = func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		items.Flush(flushCtx)
		outfits.Flush(flushCtx)
		records.Flush(flushCtx)
		closeQueue()
		closeBlobs()
	}
	return app, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}

func newBlobStore(ctx context.Context, cfg config.Config) (ports.BlobStore, func(), error) {
	switch cfg.BlobBackend {
	case "localfs", "":
		blobs, err := blobfs.New(cfg.CollectionsPath)
		if err != nil {
			return nil, nil, fmt.Errorf("init localfs blob store: %w", err)
		}
		return blobs, func() {}, nil
	case "postgres":
		db, err := blobpg.OpenDB(cfg.PostgresDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("open postgres: %w", err)
		}
		blobs := blobpg.New(db)
		if err := blobs.EnsureSchema(ctx); err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		return blobs, func() { _ = db.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown blob backend %q", cfg.BlobBackend)
	}
}

func newQueue(cfg config.Config, executor *resilience.Executor, log *slog.Logger) (ports.StageQueue, func(), error) {
	switch cfg.QueueDriver {
	case "inproc", "":
		return inproc.New(cfg.InprocQueueBuffer, log), func() {}, nil
	case "nats":
		queue, err := natsqueue.NewWithOptions(cfg.NATSURL, cfg.NATSSubjectPrefix, natsqueue.Options{
			ResilienceExecutor: executor,
			Logger:             log,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("init nats queue: %w", err)
		}
		return queue, queue.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown queue driver %q", cfg.QueueDriver)
	}
}
