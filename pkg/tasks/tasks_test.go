package tasks

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edulinkhq/chansync/pkg/model"
	"github.com/edulinkhq/chansync/pkg/store"
)

type fakeTaskStore struct {
	tasks    []model.DeferredTask
	claimErr error
}

var _ store.TaskStore = (*fakeTaskStore)(nil)

func (f *fakeTaskStore) EnqueueTask(task model.DeferredTask) error {
	f.tasks = append(f.tasks, task)
	return nil
}

func (f *fakeTaskStore) ClaimTasks(limit int, lease time.Duration) ([]model.DeferredTask, error) {
	if f.claimErr != nil {
		return nil, f.claimErr
	}
	now := time.Now()
	var claimed []model.DeferredTask
	for i := range f.tasks {
		if len(claimed) == limit {
			break
		}
		task := &f.tasks[i]
		if task.LockedUntil != nil && task.LockedUntil.After(now) {
			continue
		}
		until := now.Add(lease)
		task.LockedUntil = &until
		task.Attempts++
		claimed = append(claimed, *task)
	}
	return claimed, nil
}

func (f *fakeTaskStore) CompleteTask(id string) error {
	kept := f.tasks[:0]
	for _, task := range f.tasks {
		if task.ID != id {
			kept = append(kept, task)
		}
	}
	f.tasks = kept
	return nil
}

func TestQueueEnqueue(t *testing.T) {
	st := &fakeTaskStore{}
	q := NewQueue(st)

	require.NoError(t, q.Enqueue("sync_event", []byte(`{"kind":"role_assigned"}`)))

	require.Len(t, st.tasks, 1)
	assert.NotEmpty(t, st.tasks[0].ID)
	assert.Equal(t, "sync_event", st.tasks[0].TaskType)
	assert.JSONEq(t, `{"kind":"role_assigned"}`, string(st.tasks[0].Payload))
}

func TestRunOnceCompletesHandledTasks(t *testing.T) {
	st := &fakeTaskStore{}
	require.NoError(t, NewQueue(st).Enqueue("sync_event", []byte(`{}`)))

	var handled []string
	runner := NewRunner(st, func(ctx context.Context, taskType string, payload []byte) error {
		handled = append(handled, taskType)
		return nil
	})

	require.NoError(t, runner.RunOnce(context.Background()))

	assert.Equal(t, []string{"sync_event"}, handled)
	assert.Empty(t, st.tasks, "handled tasks are deleted")
}

func TestRunOnceKeepsFailedTasksLeased(t *testing.T) {
	st := &fakeTaskStore{}
	require.NoError(t, NewQueue(st).Enqueue("sync_event", []byte(`{}`)))

	runner := NewRunner(st, func(ctx context.Context, taskType string, payload []byte) error {
		return errors.New("remote unavailable")
	})

	require.NoError(t, runner.RunOnce(context.Background()))

	require.Len(t, st.tasks, 1, "failed tasks stay queued for retry")
	assert.Equal(t, 1, st.tasks[0].Attempts)
	require.NotNil(t, st.tasks[0].LockedUntil)
	assert.True(t, st.tasks[0].LockedUntil.After(time.Now()))
}

func TestRunOnceDropsExhaustedTasks(t *testing.T) {
	st := &fakeTaskStore{}
	st.tasks = append(st.tasks, model.DeferredTask{ID: "t1", TaskType: "sync_event", Attempts: 5})

	var handled int
	runner := NewRunner(st, func(ctx context.Context, taskType string, payload []byte) error {
		handled++
		return nil
	})

	require.NoError(t, runner.RunOnce(context.Background()))

	assert.Equal(t, 0, handled, "exhausted tasks are dropped, not retried")
	assert.Empty(t, st.tasks)
}

func TestRunStopsOnContextCancel(t *testing.T) {
	st := &fakeTaskStore{}
	runner := NewRunner(st, func(ctx context.Context, taskType string, payload []byte) error { return nil })
	runner.PollInterval = 5 * time.Millisecond

	ctx, cancel := context.WithTimeout(context.Background(), 25*time.Millisecond)
	defer cancel()

	err := runner.Run(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
