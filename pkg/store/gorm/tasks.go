package gorm

import (
	"time"

	"gorm.io/gorm"

	"github.com/edulinkhq/chansync/pkg/model"
	"github.com/edulinkhq/chansync/pkg/store"
)

// Ensure TaskStore implements store.TaskStore
var _ store.TaskStore = (*TaskStore)(nil)

// TaskStore implements store.TaskStore using GORM
type TaskStore struct {
	db *gorm.DB
}

// NewTaskStore creates a new TaskStore
func NewTaskStore(db *gorm.DB) *TaskStore {
	return &TaskStore{db: db}
}

// EnqueueTask inserts a task
func (s *TaskStore) EnqueueTask(task model.DeferredTask) error {
	return s.db.Exec(`
		INSERT INTO deferred_tasks (id, task_type, payload, attempts, created_at)
		VALUES (?, ?, ?, 0, NOW())
	`, task.ID, task.TaskType, task.Payload).Error
}

// ClaimTasks atomically leases up to limit runnable tasks, oldest first.
// SKIP LOCKED keeps concurrent workers from contending on the same rows.
func (s *TaskStore) ClaimTasks(limit int, lease time.Duration) ([]model.DeferredTask, error) {
	var tasks []model.DeferredTask
	now := time.Now()
	err := s.db.Raw(`
		UPDATE deferred_tasks
		SET locked_until = ?, attempts = attempts + 1
		WHERE id IN (
			SELECT id FROM deferred_tasks
			WHERE locked_until IS NULL OR locked_until < ?
			ORDER BY created_at
			LIMIT ?
			FOR UPDATE SKIP LOCKED
		)
		RETURNING id, task_type, payload, attempts, locked_until, created_at
	`, now.Add(lease), now, limit).Scan(&tasks).Error
	if err != nil {
		return nil, err
	}
	return tasks, nil
}

// CompleteTask deletes a finished task
func (s *TaskStore) CompleteTask(id string) error {
	return s.db.Exec(`
		DELETE FROM deferred_tasks
		WHERE id = ?
	`, id).Error
}
