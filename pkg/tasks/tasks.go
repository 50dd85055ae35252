// Package tasks is the deferred-execution adapter: a small database-backed
// queue with a polling runner. Delivery is at-least-once and unordered,
// which the snapshot-diff synchronizer is designed to tolerate.
package tasks

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/edulinkhq/chansync/pkg/logger"
	"github.com/edulinkhq/chansync/pkg/model"
	"github.com/edulinkhq/chansync/pkg/store"
)

// Queue enqueues deferred tasks. It satisfies events.Enqueuer.
type Queue struct {
	store store.TaskStore
}

func NewQueue(store store.TaskStore) *Queue {
	return &Queue{store: store}
}

// Enqueue persists a task for the worker to pick up. Fire-and-forget.
func (q *Queue) Enqueue(taskType string, payload []byte) error {
	return q.store.EnqueueTask(model.DeferredTask{
		ID:       uuid.NewString(),
		TaskType: taskType,
		Payload:  payload,
	})
}

// Handler processes one claimed task. A non-nil error leaves the task
// leased; it retries after the lease expires.
type Handler func(ctx context.Context, taskType string, payload []byte) error

const (
	DefaultPollInterval = 5 * time.Second
	DefaultBatchSize    = 10
	DefaultLease        = 2 * time.Minute
	DefaultMaxAttempts  = 5
)

// Runner polls the task table and dispatches claimed tasks to a handler.
type Runner struct {
	store   store.TaskStore
	handler Handler

	PollInterval time.Duration
	BatchSize    int
	Lease        time.Duration
	MaxAttempts  int
}

func NewRunner(store store.TaskStore, handler Handler) *Runner {
	return &Runner{
		store:        store,
		handler:      handler,
		PollInterval: DefaultPollInterval,
		BatchSize:    DefaultBatchSize,
		Lease:        DefaultLease,
		MaxAttempts:  DefaultMaxAttempts,
	}
}

// Run polls until the context is cancelled.
func (r *Runner) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.PollInterval)
	defer ticker.Stop()

	for {
		if err := r.RunOnce(ctx); err != nil {
			logger.Warn("task poll failed: %v", err)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// RunOnce claims and processes one batch. Tasks whose handler fails keep
// their lease and come back after it expires; tasks past MaxAttempts are
// dropped rather than retried forever.
func (r *Runner) RunOnce(ctx context.Context) error {
	claimed, err := r.store.ClaimTasks(r.BatchSize, r.Lease)
	if err != nil {
		return err
	}

	for _, task := range claimed {
		if task.Attempts > r.MaxAttempts {
			logger.Warn("dropping task %s (%s) after %d attempts", task.ID, task.TaskType, task.Attempts-1)
			if err := r.store.CompleteTask(task.ID); err != nil {
				logger.Warn("failed to drop task %s: %v", task.ID, err)
			}
			continue
		}

		if err := r.handler(ctx, task.TaskType, task.Payload); err != nil {
			logger.Debug("task %s (%s) failed on attempt %d: %v", task.ID, task.TaskType, task.Attempts, err)
			continue
		}

		if err := r.store.CompleteTask(task.ID); err != nil {
			logger.Warn("failed to complete task %s: %v", task.ID, err)
		}
	}
	return nil
}
