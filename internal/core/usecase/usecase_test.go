package usecase

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"

	"github.com/ekuzmina/wardrobe-assistant/internal/core/domain"
	"github.com/ekuzmina/wardrobe-assistant/internal/core/ports"
	"github.com/ekuzmina/wardrobe-assistant/internal/core/store"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newItemStore(opts ...store.Option) *store.Store[domain.ClothingItem] {
	return store.New[domain.ClothingItem](context.Background(), &blobSink{}, "clothing_items", testLogger(), opts...)
}

func newOutfitStore() *store.Store[domain.Outfit] {
	return store.New[domain.Outfit](context.Background(), &blobSink{}, "outfits", testLogger())
}

func newTryOnStore() *store.Store[domain.TryOnRecord] {
	return store.New[domain.TryOnRecord](context.Background(), &blobSink{}, "tryon_history", testLogger(),
		store.WithPrepend(), store.WithCap(domain.TryOnHistoryLimit))
}

// blobSink is an always-empty persistence backend; loads find nothing and
// writes vanish.
type blobSink struct{}

func (b *blobSink) Read(context.Context, string) ([]byte, error) {
	return nil, domain.WrapError(domain.ErrNotFound, "read", errors.New("absent key"))
}

func (b *blobSink) Write(context.Context, string, []byte) error { return nil }

type objectStorageFake struct {
	mu      sync.Mutex
	objects map[string][]byte
	saveErr error
	openErr error
}

func newObjectStorageFake() *objectStorageFake {
	return &objectStorageFake{objects: map[string][]byte{}}
}

func (f *objectStorageFake) Save(_ context.Context, key string, data io.Reader) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	blob, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[key] = blob
	return nil
}

func (f *objectStorageFake) Open(_ context.Context, key string) (io.ReadCloser, error) {
	if f.openErr != nil {
		return nil, f.openErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	blob, ok := f.objects[key]
	if !ok {
		return nil, domain.WrapError(domain.ErrNotFound, "open", errors.New("absent object "+key))
	}
	return io.NopCloser(bytes.NewReader(blob)), nil
}

type stageQueueFake struct {
	mu         sync.Mutex
	published  []domain.StageTask
	results    []domain.StageResult
	publishErr error
	failStage  domain.EnrichmentStage
}

func (f *stageQueueFake) PublishStage(_ context.Context, task domain.StageTask) error {
	if f.publishErr != nil && (f.failStage == "" || f.failStage == task.Stage) {
		return f.publishErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.published = append(f.published, task)
	return nil
}

func (f *stageQueueFake) SubscribeStages(context.Context, func(context.Context, domain.StageTask) error) error {
	return nil
}

func (f *stageQueueFake) PublishStageResult(_ context.Context, result domain.StageResult) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.results = append(f.results, result)
	return nil
}

func (f *stageQueueFake) SubscribeStageResults(context.Context, func(context.Context, domain.StageResult) error) error {
	return nil
}

type removerFake struct {
	result string
	err    error
	calls  int
}

func (f *removerFake) Remove(_ context.Context, imageKey string) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	if f.result != "" {
		return f.result, nil
	}
	return "cutouts/" + imageKey, nil
}

type classifierFake struct {
	result domain.Classification
	err    error
	calls  int
}

func (f *classifierFake) Classify(context.Context, string) (domain.Classification, error) {
	f.calls++
	if f.err != nil {
		return domain.Classification{}, f.err
	}
	return f.result, nil
}

type compositorFake struct {
	result string
	err    error
	calls  int
}

func (f *compositorFake) Compose(_ context.Context, garment, person string) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	if f.result != "" {
		return f.result, nil
	}
	return "tryon/" + garment + "_" + person + ".png", nil
}

type rendererFake struct {
	layers int
	err    error
}

func (f *rendererFake) Flatten(_ context.Context, _, _ int, layers []ports.RenderLayer) ([]byte, error) {
	f.layers = len(layers)
	if f.err != nil {
		return nil, f.err
	}
	return []byte("png-bytes"), nil
}

type stageEvent struct {
	itemID string
	stage  domain.EnrichmentStage
	failed bool
}

type listenerFake struct {
	mu     sync.Mutex
	events []stageEvent
}

func (f *listenerFake) StageCompleted(item domain.ClothingItem, stage domain.EnrichmentStage) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, stageEvent{itemID: item.ID, stage: stage})
}

func (f *listenerFake) StageFailed(itemID string, stage domain.EnrichmentStage, _ error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, stageEvent{itemID: itemID, stage: stage, failed: true})
}
