package store

import (
	"time"

	"github.com/edulinkhq/chansync/pkg/model"
)

// TaskStore abstracts the deferred-task table. Claiming is lease-based:
// a claimed task becomes visible again once its lease expires, giving
// at-least-once delivery without a separate acknowledgement protocol.
type TaskStore interface {
	// EnqueueTask inserts a task
	EnqueueTask(task model.DeferredTask) error

	// ClaimTasks atomically leases up to limit runnable tasks, oldest
	// first, incrementing their attempt counters
	ClaimTasks(limit int, lease time.Duration) ([]model.DeferredTask, error)

	// CompleteTask deletes a finished task
	CompleteTask(id string) error
}
