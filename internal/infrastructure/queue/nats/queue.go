// Package nats carries enrichment work between the API process and the
// worker pool. Stage tasks fan out to the workers on per-stage subjects;
// stage results travel back on a single results subject consumed by the
// process that owns the collection store. Each stage of each item is one
// message; the two stages of one item travel independently and may be
// consumed in any order.
package nats

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/ekuzmina/wardrobe-assistant/internal/core/domain"
	"github.com/ekuzmina/wardrobe-assistant/internal/infrastructure/resilience"
)

const (
	// taskQueueGroup shares stage tasks across worker replicas.
	taskQueueGroup = "enrichers"
	// resultQueueGroup delivers each result once; the store owner is the
	// only subscriber in a correct topology.
	resultQueueGroup = "appliers"
)

type Queue struct {
	conn          *nats.Conn
	subjectPrefix string
	executor      *resilience.Executor
	log           *slog.Logger
}

type Options struct {
	ConnectTimeout       time.Duration
	ReconnectWait        time.Duration
	MaxReconnects        int
	RetryOnFailedConnect *bool
	ResilienceExecutor   *resilience.Executor
	Logger               *slog.Logger
}

func New(url, subjectPrefix string) (*Queue, error) {
	return NewWithOptions(url, subjectPrefix, Options{})
}

func NewWithOptions(url, subjectPrefix string, options Options) (*Queue, error) {
	connectTimeout := options.ConnectTimeout
	if connectTimeout <= 0 {
		connectTimeout = 2 * time.Second
	}
	reconnectWait := options.ReconnectWait
	if reconnectWait <= 0 {
		reconnectWait = 2 * time.Second
	}
	maxReconnects := options.MaxReconnects
	if maxReconnects <= 0 {
		maxReconnects = 60
	}
	retryOnFailedConnect := true
	if options.RetryOnFailedConnect != nil {
		retryOnFailedConnect = *options.RetryOnFailedConnect
	}
	log := options.Logger
	if log == nil {
		log = slog.Default()
	}

	conn, err := nats.Connect(
		url,
		nats.Name("wardrobe-assistant"),
		nats.Timeout(connectTimeout),
		nats.ReconnectWait(reconnectWait),
		nats.MaxReconnects(maxReconnects),
		nats.RetryOnFailedConnect(retryOnFailedConnect),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			log.Warn("nats_disconnected", "error", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info("nats_reconnected", "url", nc.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	return &Queue{
		conn:          conn,
		subjectPrefix: strings.TrimSuffix(subjectPrefix, "."),
		executor:      options.ResilienceExecutor,
		log:           log,
	}, nil
}

func (q *Queue) Close() {
	if q.conn != nil {
		q.conn.Close()
	}
}

// PublishStage emits one stage task. The stage rides in the subject so
// workers can be scaled per stage; the payload carries everything the
// worker needs, because the worker has no view of the collection store.
func (q *Queue) PublishStage(ctx context.Context, task domain.StageTask) error {
	payload, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("encode stage task: %w", err)
	}
	return q.publish(ctx, q.taskSubject(task.Stage), payload)
}

// PublishStageResult sends one stage outcome back to the store owner.
func (q *Queue) PublishStageResult(ctx context.Context, result domain.StageResult) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("encode stage result: %w", err)
	}
	return q.publish(ctx, q.resultSubject(), payload)
}

func (q *Queue) publish(ctx context.Context, subject string, payload []byte) error {
	call := func(_ context.Context) error {
		if err := q.conn.Publish(subject, payload); err != nil {
			return fmt.Errorf("nats publish %s: %w", subject, err)
		}
		return nil
	}

	var err error
	if q.executor != nil {
		err = q.executor.Execute(ctx, "nats.publish", call, classifyNATSError)
	} else {
		err = call(ctx)
	}
	if err != nil {
		return wrapTemporaryIfNeeded(err)
	}
	return nil
}

// SubscribeStages consumes stage tasks from every stage subject until ctx
// is cancelled, then drains. Handler errors are logged, not redelivered;
// the item itself records the stage failure.
func (q *Queue) SubscribeStages(ctx context.Context, handler func(context.Context, domain.StageTask) error) error {
	subs := make([]*nats.Subscription, 0, len(domain.EnrichmentStages))
	for _, stage := range domain.EnrichmentStages {
		sub, err := q.conn.QueueSubscribe(q.taskSubject(stage), taskQueueGroup, func(msg *nats.Msg) {
			if errors.Is(ctx.Err(), context.Canceled) {
				return
			}

			var task domain.StageTask
			if err := json.Unmarshal(msg.Data, &task); err != nil {
				q.log.Error("stage_task_decode_failed", "subject", msg.Subject, "error", err)
				return
			}

			handlerCtx, cancel := context.WithCancel(ctx)
			defer cancel()
			if err := handler(handlerCtx, task); err != nil {
				q.log.Error("stage_handler_failed", "item_id", task.ItemID, "stage", task.Stage, "error", err)
			}
		})
		if err != nil {
			return fmt.Errorf("nats subscribe %s: %w", stage, err)
		}
		subs = append(subs, sub)
	}

	return q.await(ctx, subs)
}

// SubscribeStageResults consumes stage results until ctx is cancelled,
// then drains.
func (q *Queue) SubscribeStageResults(ctx context.Context, handler func(context.Context, domain.StageResult) error) error {
	sub, err := q.conn.QueueSubscribe(q.resultSubject(), resultQueueGroup, func(msg *nats.Msg) {
		if errors.Is(ctx.Err(), context.Canceled) {
			return
		}

		var result domain.StageResult
		if err := json.Unmarshal(msg.Data, &result); err != nil {
			q.log.Error("stage_result_decode_failed", "subject", msg.Subject, "error", err)
			return
		}

		handlerCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		if err := handler(handlerCtx, result); err != nil {
			q.log.Error("stage_result_handler_failed", "item_id", result.ItemID, "stage", result.Stage, "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("nats subscribe results: %w", err)
	}

	return q.await(ctx, []*nats.Subscription{sub})
}

func (q *Queue) await(ctx context.Context, subs []*nats.Subscription) error {
	if err := q.conn.Flush(); err != nil {
		return fmt.Errorf("nats flush: %w", err)
	}

	<-ctx.Done()
	for _, sub := range subs {
		if err := sub.Drain(); err != nil {
			return fmt.Errorf("nats drain subscription: %w", err)
		}
	}
	if err := q.conn.FlushTimeout(5 * time.Second); err != nil {
		return fmt.Errorf("nats flush after drain: %w", err)
	}
	return nil
}

func (q *Queue) taskSubject(stage domain.EnrichmentStage) string {
	return q.subjectPrefix + "." + string(stage)
}

func (q *Queue) resultSubject() string {
	return q.subjectPrefix + ".results"
}
