package worker

import (
	"context"
	"errors"
	"time"

	"codecrate/internal/app/service"
	"codecrate/internal/common"
	"codecrate/internal/platform/logger"
	"codecrate/internal/platform/queue"
)

const (
	dequeueTimeout = 5 * time.Second
	maxRetries     = 5
)

// RepairWorker drains the repair queue and re-runs the presign/link
// back-fill for records whose content write was interrupted. Tasks carry
// no file content: a repair that finds no blob at the derived key is
// dropped and left for the caller to resubmit with files.
type RepairWorker struct {
	queue       *queue.RepairQueue
	templates   *service.TemplateService
	assignments *service.AssignmentService
	attempts    *service.AttemptService
	taskTimeout time.Duration
	log         *logger.Logger
}

func NewRepairWorker(
	q *queue.RepairQueue,
	templates *service.TemplateService,
	assignments *service.AssignmentService,
	attempts *service.AttemptService,
	taskTimeout time.Duration,
	log *logger.Logger,
) *RepairWorker {
	return &RepairWorker{
		queue:       q,
		templates:   templates,
		assignments: assignments,
		attempts:    attempts,
		taskTimeout: taskTimeout,
		log:         log,
	}
}

func (w *RepairWorker) Start(ctx context.Context) {
	w.log.Info("repair worker started")
	for {
		select {
		case <-ctx.Done():
			w.log.Info("repair worker stopping")
			return
		default:
		}

		task, err := w.queue.Dequeue(ctx, dequeueTimeout)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			w.log.Error("repair dequeue failed", "err", err)
			time.Sleep(time.Second)
			continue
		}
		if task == nil {
			continue
		}

		w.process(ctx, *task)
	}
}

func (w *RepairWorker) process(ctx context.Context, task queue.RepairTask) {
	taskCtx, cancel := context.WithTimeout(ctx, w.taskTimeout)
	defer cancel()

	err := w.repair(taskCtx, task)
	if err == nil {
		w.log.Info("repair completed", "kind", task.Kind, "id", task.ID)
		return
	}

	if errors.Is(err, common.ErrNotFound) {
		// Row gone, or no blob ever landed; nothing a content-less retry can do.
		w.log.Warn("repair abandoned", "kind", task.Kind, "id", task.ID, "err", err)
		return
	}

	task.Retries++
	if task.Retries >= maxRetries {
		w.log.Error("repair gave up", "kind", task.Kind, "id", task.ID, "retries", task.Retries, "err", err)
		return
	}
	w.log.Warn("repair failed, requeueing", "kind", task.Kind, "id", task.ID, "retries", task.Retries, "err", err)
	if qErr := w.queue.Enqueue(ctx, task); qErr != nil {
		w.log.Error("repair requeue failed", "kind", task.Kind, "id", task.ID, "err", qErr)
	}
}

func (w *RepairWorker) repair(ctx context.Context, task queue.RepairTask) error {
	switch task.Kind {
	case service.KindTemplate:
		_, err := w.templates.RepairTemplate(ctx, task.ID, nil)
		return err
	case service.KindAssignment:
		_, err := w.assignments.RepairAssignment(ctx, task.ID, nil)
		return err
	case service.KindAttempt:
		_, err := w.attempts.RepairAttempt(ctx, task.ID, nil)
		return err
	default:
		w.log.Error("unknown repair kind", "kind", task.Kind, "id", task.ID)
		return nil
	}
}
