package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/ekuzmina/wardrobe-assistant/internal/core/domain"
	"github.com/ekuzmina/wardrobe-assistant/internal/core/ports"
	"github.com/ekuzmina/wardrobe-assistant/internal/core/store"
)

// StageListener receives side-channel notifications as stage tasks settle.
// Listeners observe; they are not part of persisted state.
type StageListener interface {
	StageCompleted(item domain.ClothingItem, stage domain.EnrichmentStage)
	StageFailed(itemID string, stage domain.EnrichmentStage, err error)
}

// EnrichItemUseCase drives enrichment stages to completion. The two stages
// of an item are delivered as independent queue messages and may run
// concurrently in either order; every write goes through the store's
// read-current-merge discipline and touches only the fields that stage
// owns, so a slow stage can never clobber a fast one.
//
// The work splits into two halves so deployments can place them in
// different processes: ExecuteStage runs the remote call and needs no
// store, ApplyResult merges the outcome and runs only in the process that
// owns the collection. ProcessStage chains both for single-process mode.
type EnrichItemUseCase struct {
	items      *store.Store[domain.ClothingItem]
	remover    ports.BackgroundRemover
	classifier ports.GarmentClassifier
	listener   StageListener
}

func NewEnrichItemUseCase(
	items *store.Store[domain.ClothingItem],
	remover ports.BackgroundRemover,
	classifier ports.GarmentClassifier,
) *EnrichItemUseCase {
	return &EnrichItemUseCase{
		items:      items,
		remover:    remover,
		classifier: classifier,
	}
}

// WithListener attaches optional completion callbacks.
func (uc *EnrichItemUseCase) WithListener(l StageListener) *EnrichItemUseCase {
	uc.listener = l
	return uc
}

// ProcessStage runs one stage end to end in the store-owning process:
// mark processing, execute the remote call, merge the result. It returns
// the stage failure, if any, after the failure has been recorded on the
// item.
func (uc *EnrichItemUseCase) ProcessStage(ctx context.Context, itemID string, stage domain.EnrichmentStage) error {
	item, err := uc.items.GetByID(itemID)
	if err != nil {
		return fmt.Errorf("fetch item for %s: %w", stage, err)
	}

	started := domain.StageResult{ItemID: itemID, Stage: stage, Started: true}
	if err := uc.ApplyResult(ctx, started); err != nil {
		return err
	}

	result := uc.ExecuteStage(ctx, domain.StageTask{
		ItemID:   itemID,
		Stage:    stage,
		ImageKey: item.SourceImage,
	})
	if err := uc.ApplyResult(ctx, result); err != nil {
		return err
	}
	if result.ErrorMessage != "" {
		return errors.New(result.ErrorMessage)
	}
	return nil
}

// ExecuteStage runs the remote call for one stage task. It reads nothing
// from the collection store, so it can run in a stateless worker process
// that has never seen the item.
func (uc *EnrichItemUseCase) ExecuteStage(ctx context.Context, task domain.StageTask) domain.StageResult {
	result := domain.StageResult{ItemID: task.ItemID, Stage: task.Stage}

	switch task.Stage {
	case domain.StageBackgroundRemoval:
		cutoutKey, err := uc.remover.Remove(ctx, task.ImageKey)
		if err != nil {
			result.ErrorMessage = fmt.Errorf("remove background: %w", err).Error()
			return result
		}
		result.EnrichedImage = cutoutKey
	case domain.StageCategorization:
		cls, err := uc.classifier.Classify(ctx, task.ImageKey)
		if err != nil {
			result.ErrorMessage = fmt.Errorf("categorize: %w", err).Error()
			return result
		}
		cls = domain.NormalizeClassification(cls)
		result.Classification = &cls
	default:
		result.ErrorMessage = fmt.Sprintf("unknown stage %q", task.Stage)
	}
	return result
}

// ApplyResult merges one stage outcome into the item. Each merge touches
// only the fields that stage owns plus its own status sub-field;
// user-entered tags, brand, and price are never written here.
func (uc *EnrichItemUseCase) ApplyResult(_ context.Context, result domain.StageResult) error {
	if result.Started {
		if _, err := uc.items.Mutate(result.ItemID, func(it *domain.ClothingItem) {
			it.Processing.Stage(result.Stage).Status = domain.StageProcessing
		}); err != nil {
			return fmt.Errorf("set %s=processing: %w", result.Stage, err)
		}
		return nil
	}

	if result.ErrorMessage == "" && result.Stage == domain.StageCategorization && result.Classification == nil {
		return domain.WrapError(domain.ErrInvalidInput, "apply stage result",
			fmt.Errorf("categorization result for %s has no classification", result.ItemID))
	}

	if result.ErrorMessage != "" {
		// A stage failure is local to that stage: it does not cancel the
		// other stage, delete the item, or propagate as a panic upward. The
		// item stays usable with partial data.
		if _, err := uc.items.Mutate(result.ItemID, func(it *domain.ClothingItem) {
			st := it.Processing.Stage(result.Stage)
			st.Status = domain.StageError
			st.Error = result.ErrorMessage
		}); err != nil {
			return fmt.Errorf("mark %s=error: %w", result.Stage, err)
		}
		if uc.listener != nil {
			uc.listener.StageFailed(result.ItemID, result.Stage, errors.New(result.ErrorMessage))
		}
		return nil
	}

	updated, err := uc.items.Mutate(result.ItemID, func(it *domain.ClothingItem) {
		switch result.Stage {
		case domain.StageBackgroundRemoval:
			it.EnrichedImage = result.EnrichedImage
			it.Processing.BackgroundRemoval = domain.StageState{Status: domain.StageCompleted}
		case domain.StageCategorization:
			it.Category = result.Classification.Category
			it.Subcategory = result.Classification.Subcategory
			it.Colors = result.Classification.Colors
			it.Seasons = result.Classification.Seasons
			it.Occasions = result.Classification.Occasions
			it.Processing.Categorization = domain.StageState{Status: domain.StageCompleted}
		}
	})
	if err != nil {
		return fmt.Errorf("apply %s result: %w", result.Stage, err)
	}
	if uc.listener != nil {
		uc.listener.StageCompleted(updated, result.Stage)
	}
	return nil
}
