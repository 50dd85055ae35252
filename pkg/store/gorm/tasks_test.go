package gorm

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edulinkhq/chansync/pkg/model"
)

func TestTaskStore_EnqueueTask(t *testing.T) {
	db, mock := setupTestDB(t)
	store := NewTaskStore(db)

	payload := []byte(`{"kind":"role_assigned"}`)
	mock.ExpectExec(`INSERT INTO deferred_tasks \(id, task_type, payload, attempts, created_at\)`).
		WithArgs("task-1", "sync_event", payload).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := store.EnqueueTask(model.DeferredTask{
		ID:       "task-1",
		TaskType: "sync_event",
		Payload:  payload,
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTaskStore_ClaimTasks(t *testing.T) {
	db, mock := setupTestDB(t)
	store := NewTaskStore(db)

	lockedUntil := time.Now().Add(2 * time.Minute)
	rows := sqlmock.NewRows([]string{"id", "task_type", "payload", "attempts", "locked_until", "created_at"}).
		AddRow("task-1", "sync_event", []byte(`{}`), 1, lockedUntil, time.Now()).
		AddRow("task-2", "sync_event", []byte(`{}`), 3, lockedUntil, time.Now())
	mock.ExpectQuery(`(?s)UPDATE deferred_tasks\s+SET locked_until = .+FOR UPDATE SKIP LOCKED.+RETURNING`).
		WillReturnRows(rows)

	tasks, err := store.ClaimTasks(10, 2*time.Minute)
	require.NoError(t, err)
	require.Len(t, tasks, 2)
	assert.Equal(t, "task-1", tasks[0].ID)
	assert.Equal(t, 1, tasks[0].Attempts)
	assert.Equal(t, 3, tasks[1].Attempts)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTaskStore_ClaimTasks_Empty(t *testing.T) {
	db, mock := setupTestDB(t)
	store := NewTaskStore(db)

	mock.ExpectQuery(`(?s)UPDATE deferred_tasks\s+SET locked_until = .+RETURNING`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "task_type", "payload", "attempts", "locked_until", "created_at"}))

	tasks, err := store.ClaimTasks(10, 2*time.Minute)
	require.NoError(t, err)
	assert.Empty(t, tasks)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTaskStore_CompleteTask(t *testing.T) {
	db, mock := setupTestDB(t)
	store := NewTaskStore(db)

	mock.ExpectExec(`DELETE FROM deferred_tasks\s+WHERE id =`).
		WithArgs("task-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, store.CompleteTask("task-1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
