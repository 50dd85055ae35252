package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/edulinkhq/chansync/pkg/logger"
	"github.com/edulinkhq/chansync/pkg/model"
)

// Enqueuer is the deferred-execution collaborator: fire-and-forget,
// at-least-once, no ordering guarantee.
type Enqueuer interface {
	Enqueue(taskType string, payload []byte) error
}

// Synchronizer is the reconciliation capability the router dispatches into.
// *sync.Synchronizer satisfies it.
type Synchronizer interface {
	SyncUser(ctx context.Context, localUserID string) error
	SyncCourse(ctx context.Context, courseID string) error
	SyncInstance(ctx context.Context, instanceID string, forceSynchronousFor *string) error
	UnenrollUserEverywhere(ctx context.Context, localUserID string, purgeMapping bool) error
}

// Provisioner is the channel lifecycle capability. *sync.Provisioner
// satisfies it.
type Provisioner interface {
	ProvisionCourseChannel(ctx context.Context, instanceID, courseID string, vars map[string]string) (model.ChannelBinding, error)
	ProvisionGroupChannel(ctx context.Context, instanceID, courseID, groupID string, vars map[string]string) (model.ChannelBinding, error)
	RetireGroupChannel(ctx context.Context, instanceID, groupID string) error
	RetireInstance(ctx context.Context, instanceID string) error
}

// Router decides per event whether to dispatch synchronously or queue a
// deferred task, based on the configured deferred-source allow-list. The
// router itself never retries; the task runner owns retry semantics.
type Router struct {
	sync       Synchronizer
	prov       Provisioner
	queue      Enqueuer
	isDeferred func(source string) bool
}

func NewRouter(sync Synchronizer, prov Provisioner, queue Enqueuer, isDeferred func(source string) bool) *Router {
	if isDeferred == nil {
		isDeferred = func(string) bool { return false }
	}
	return &Router{sync: sync, prov: prov, queue: queue, isDeferred: isDeferred}
}

// Route handles one event: queue it if its source is on the deferred
// list, dispatch inline otherwise.
func (r *Router) Route(ctx context.Context, event Event) error {
	if !KnownKind(event.Kind) {
		return fmt.Errorf("unknown event kind %q", event.Kind)
	}

	if r.queue != nil && r.isDeferred(event.Source) {
		payload, err := json.Marshal(event)
		if err != nil {
			return fmt.Errorf("failed to encode %s event: %w", event.Kind, err)
		}
		return r.queue.Enqueue(TaskTypeEvent, payload)
	}

	return r.Dispatch(ctx, event)
}

// Dispatch invokes the synchronizer or provisioner for one event. Called
// directly by Route for synchronous kinds and by the task runner for
// deferred ones.
func (r *Router) Dispatch(ctx context.Context, event Event) error {
	switch event.Kind {
	case KindRoleAssigned, KindRoleUnassigned, KindGroupMemberAdded, KindGroupMemberRemoved:
		return r.sync.SyncUser(ctx, event.LocalUserID)

	case KindUserUpdated:
		if event.Deleted {
			return r.sync.UnenrollUserEverywhere(ctx, event.LocalUserID, true)
		}
		if event.Suspended {
			return r.sync.UnenrollUserEverywhere(ctx, event.LocalUserID, false)
		}
		return r.sync.SyncUser(ctx, event.LocalUserID)

	case KindGroupCreated:
		if _, err := r.prov.ProvisionGroupChannel(ctx, event.InstanceID, event.CourseID, event.GroupID, event.NameVars); err != nil {
			return err
		}
		return r.sync.SyncInstance(ctx, event.InstanceID, nil)

	case KindGroupDeleted:
		return r.prov.RetireGroupChannel(ctx, event.InstanceID, event.GroupID)

	case KindInstanceCreated:
		if _, err := r.prov.ProvisionCourseChannel(ctx, event.InstanceID, event.CourseID, event.NameVars); err != nil {
			return err
		}
		if event.TriggeredBy != "" {
			// Reconcile the triggering user inline so they see the channel
			// immediately; queue the full pass for everyone else.
			user := event.TriggeredBy
			if err := r.sync.SyncInstance(ctx, event.InstanceID, &user); err != nil {
				return err
			}
			if r.queue != nil {
				// Provisioning is idempotent, so the re-queued event only
				// runs the full pass.
				payload, err := json.Marshal(Event{Kind: KindInstanceCreated, InstanceID: event.InstanceID, CourseID: event.CourseID})
				if err != nil {
					return err
				}
				return r.queue.Enqueue(TaskTypeEvent, payload)
			}
		}
		return r.sync.SyncInstance(ctx, event.InstanceID, nil)

	case KindInstanceDeleted:
		return r.prov.RetireInstance(ctx, event.InstanceID)

	case KindInstanceVisibilityChanged:
		// Hiding an instance leaves remote membership untouched; showing it
		// again triggers a full pass to pick up drift accumulated meanwhile.
		if !event.Visible {
			logger.Debug("instance %s hidden, no remote action", event.InstanceID)
			return nil
		}
		return r.sync.SyncInstance(ctx, event.InstanceID, nil)

	case KindRecycleRestore:
		// Deterministic naming means re-provisioning after a restore
		// recomputes the same channel identity.
		if _, err := r.prov.ProvisionCourseChannel(ctx, event.InstanceID, event.CourseID, event.NameVars); err != nil {
			return err
		}
		return r.sync.SyncInstance(ctx, event.InstanceID, nil)
	}

	return fmt.Errorf("unknown event kind %q", event.Kind)
}
