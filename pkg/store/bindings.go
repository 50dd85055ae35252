package store

import "github.com/edulinkhq/chansync/pkg/model"

// BindingsStore abstracts the channel-binding table. A binding ties a module
// instance (and optionally a group) to its remote channel.
type BindingsStore interface {
	// FetchBinding returns the binding for a remote channel, or nil
	FetchBinding(remoteChannelID string) (*model.ChannelBinding, error)

	// FetchInstanceBindings returns all bindings for a module instance,
	// course-level binding first
	FetchInstanceBindings(instanceID string) ([]model.ChannelBinding, error)

	// FetchCourseBindings returns all bindings for instances in a course
	FetchCourseBindings(courseID string) ([]model.ChannelBinding, error)

	// FetchGroupBinding returns the binding for a group channel, or nil
	FetchGroupBinding(instanceID, groupID string) (*model.ChannelBinding, error)

	// FetchAllBindings returns every binding, for full resync
	FetchAllBindings() ([]model.ChannelBinding, error)

	// SaveBinding inserts a binding; the remote channel id is immutable so
	// existing rows are never updated
	SaveBinding(binding model.ChannelBinding) error

	// DeleteBinding removes a binding after its remote channel is archived
	DeleteBinding(remoteChannelID string) error
}
