// Package inproc dispatches enrichment work inside a single process. It is
// the queue backend for deployments without a broker: the API binary
// consumes its own publishes on bounded channels. Tasks and results travel
// on separate channels mirroring the broker topology, so the wiring is the
// same whichever backend is configured.
package inproc

import (
	"context"
	"log/slog"

	"github.com/ekuzmina/wardrobe-assistant/internal/core/domain"
)

const defaultBuffer = 256

type Queue struct {
	tasks   chan domain.StageTask
	results chan domain.StageResult
	log     *slog.Logger
}

func New(buffer int, log *slog.Logger) *Queue {
	if buffer <= 0 {
		buffer = defaultBuffer
	}
	if log == nil {
		log = slog.Default()
	}
	return &Queue{
		tasks:   make(chan domain.StageTask, buffer),
		results: make(chan domain.StageResult, buffer),
		log:     log,
	}
}

func (q *Queue) PublishStage(ctx context.Context, task domain.StageTask) error {
	select {
	case q.tasks <- task:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// SubscribeStages consumes tasks until ctx is cancelled. Handler errors
// are logged, not redelivered; the item records its own stage failure.
func (q *Queue) SubscribeStages(ctx context.Context, handler func(context.Context, domain.StageTask) error) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case t := <-q.tasks:
			if err := handler(ctx, t); err != nil {
				q.log.Error("stage_handler_failed", "item_id", t.ItemID, "stage", t.Stage, "error", err)
			}
		}
	}
}

func (q *Queue) PublishStageResult(ctx context.Context, result domain.StageResult) error {
	select {
	case q.results <- result:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// SubscribeStageResults consumes stage results until ctx is cancelled.
func (q *Queue) SubscribeStageResults(ctx context.Context, handler func(context.Context, domain.StageResult) error) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case r := <-q.results:
			if err := handler(ctx, r); err != nil {
				q.log.Error("stage_result_handler_failed", "item_id", r.ItemID, "stage", r.Stage, "error", err)
			}
		}
	}
}

// Depth reports the number of queued tasks not yet picked up.
func (q *Queue) Depth() int {
	return len(q.tasks)
}
