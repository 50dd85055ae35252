package gorm

import (
	"gorm.io/gorm"

	"github.com/edulinkhq/chansync/pkg/model"
	"github.com/edulinkhq/chansync/pkg/store"
)

// Ensure BindingsStore implements store.BindingsStore
var _ store.BindingsStore = (*BindingsStore)(nil)

// BindingsStore implements store.BindingsStore using GORM
type BindingsStore struct {
	db *gorm.DB
}

// NewBindingsStore creates a new BindingsStore
func NewBindingsStore(db *gorm.DB) *BindingsStore {
	return &BindingsStore{db: db}
}

// FetchBinding returns the binding for a remote channel, or nil
func (s *BindingsStore) FetchBinding(remoteChannelID string) (*model.ChannelBinding, error) {
	bindings, err := s.scanBindings(`
		SELECT remote_channel_id, instance_id, course_id, group_id, channel_name, created_at
		FROM channel_bindings
		WHERE remote_channel_id = ?
	`, remoteChannelID)
	if err != nil || len(bindings) == 0 {
		return nil, err
	}
	return &bindings[0], nil
}

// FetchInstanceBindings returns all bindings for a module instance,
// course-level binding first
func (s *BindingsStore) FetchInstanceBindings(instanceID string) ([]model.ChannelBinding, error) {
	return s.scanBindings(`
		SELECT remote_channel_id, instance_id, course_id, group_id, channel_name, created_at
		FROM channel_bindings
		WHERE instance_id = ?
		ORDER BY group_id NULLS FIRST, remote_channel_id
	`, instanceID)
}

// FetchCourseBindings returns all bindings for instances in a course
func (s *BindingsStore) FetchCourseBindings(courseID string) ([]model.ChannelBinding, error) {
	return s.scanBindings(`
		SELECT remote_channel_id, instance_id, course_id, group_id, channel_name, created_at
		FROM channel_bindings
		WHERE course_id = ?
		ORDER BY group_id NULLS FIRST, remote_channel_id
	`, courseID)
}

// FetchGroupBinding returns the binding for a group channel, or nil
func (s *BindingsStore) FetchGroupBinding(instanceID, groupID string) (*model.ChannelBinding, error) {
	bindings, err := s.scanBindings(`
		SELECT remote_channel_id, instance_id, course_id, group_id, channel_name, created_at
		FROM channel_bindings
		WHERE instance_id = ? AND group_id = ?
	`, instanceID, groupID)
	if err != nil || len(bindings) == 0 {
		return nil, err
	}
	return &bindings[0], nil
}

// FetchAllBindings returns every binding, for full resync
func (s *BindingsStore) FetchAllBindings() ([]model.ChannelBinding, error) {
	return s.scanBindings(`
		SELECT remote_channel_id, instance_id, course_id, group_id, channel_name, created_at
		FROM channel_bindings
		ORDER BY course_id, group_id NULLS FIRST
	`)
}

// SaveBinding inserts a binding. The remote channel id is immutable, so
// conflicts are ignored rather than updated.
func (s *BindingsStore) SaveBinding(binding model.ChannelBinding) error {
	return s.db.Exec(`
		INSERT INTO channel_bindings (remote_channel_id, instance_id, course_id, group_id, channel_name, created_at)
		VALUES (?, ?, ?, ?, ?, NOW())
		ON CONFLICT (remote_channel_id) DO NOTHING
	`, binding.RemoteChannelID, binding.InstanceID, binding.CourseID, binding.GroupID, binding.ChannelName).Error
}

// DeleteBinding removes a binding after its remote channel is archived
func (s *BindingsStore) DeleteBinding(remoteChannelID string) error {
	return s.db.Exec(`DELETE FROM channel_bindings WHERE remote_channel_id = ?`, remoteChannelID).Error
}

func (s *BindingsStore) scanBindings(query string, args ...interface{}) ([]model.ChannelBinding, error) {
	type bindingRow struct {
		RemoteChannelId string
		InstanceId      string
		CourseId        string
		GroupId         *string
		ChannelName     string
	}

	var rows []bindingRow
	if err := s.db.Raw(query, args...).Scan(&rows).Error; err != nil {
		return nil, err
	}

	bindings := make([]model.ChannelBinding, 0, len(rows))
	for _, row := range rows {
		bindings = append(bindings, model.ChannelBinding{
			RemoteChannelID: row.RemoteChannelId,
			InstanceID:      row.InstanceId,
			CourseID:        row.CourseId,
			GroupID:         row.GroupId,
			ChannelName:     row.ChannelName,
		})
	}
	return bindings, nil
}
