// Package events maps LMS domain events onto synchronizer and provisioner
// invocations, either synchronously or through the deferred task queue
// depending on how the triggering source is configured.
package events

// Kind identifies an LMS domain event.
type Kind string

const (
	KindRoleAssigned              Kind = "role_assigned"
	KindRoleUnassigned            Kind = "role_unassigned"
	KindUserUpdated               Kind = "user_updated"
	KindGroupMemberAdded          Kind = "group_member_added"
	KindGroupMemberRemoved        Kind = "group_member_removed"
	KindGroupCreated              Kind = "group_created"
	KindGroupDeleted              Kind = "group_deleted"
	KindInstanceCreated           Kind = "instance_created"
	KindInstanceDeleted           Kind = "instance_deleted"
	KindInstanceVisibilityChanged Kind = "instance_visibility_changed"
	KindRecycleRestore            Kind = "recycle_restore"
)

// TaskTypeEvent is the deferred-task type under which routed events are
// queued; the worker decodes the payload back into an Event and dispatches.
const TaskTypeEvent = "sync_event"

// Event is the normalized payload for every kind. Only the fields relevant
// to a kind are set; the payload round-trips through the task queue as JSON.
type Event struct {
	Kind Kind `json:"kind"`

	// Source names the LMS sub-system that emitted the event (an
	// enrollment method, the group tool, ...). The deferred-source
	// allow-list is keyed by it, not by kind: the same kind can route
	// inline from one source and deferred from another.
	Source string `json:"source,omitempty"`

	LocalUserID string `json:"local_user_id,omitempty"`
	CourseID    string `json:"course_id,omitempty"`
	InstanceID  string `json:"instance_id,omitempty"`
	GroupID     string `json:"group_id,omitempty"`

	// Suspended and Deleted qualify user_updated events.
	Suspended bool `json:"suspended,omitempty"`
	Deleted   bool `json:"deleted,omitempty"`

	// Visible qualifies instance_visibility_changed events.
	Visible bool `json:"visible,omitempty"`

	// NameVars feeds channel-name templates on provisioning kinds.
	NameVars map[string]string `json:"name_vars,omitempty"`

	// TriggeredBy, when set on instance_created, is reconciled inline
	// while the remaining members are left to a deferred full pass.
	TriggeredBy string `json:"triggered_by,omitempty"`
}

// KnownKind reports whether k is a kind the router dispatches.
func KnownKind(k Kind) bool {
	switch k {
	case KindRoleAssigned, KindRoleUnassigned, KindUserUpdated,
		KindGroupMemberAdded, KindGroupMemberRemoved,
		KindGroupCreated, KindGroupDeleted,
		KindInstanceCreated, KindInstanceDeleted,
		KindInstanceVisibilityChanged, KindRecycleRestore:
		return true
	}
	return false
}
