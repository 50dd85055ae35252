package model

import "time"

// ChannelBinding ties a module instance (and optionally one of its groups) to
// a remote channel. The remote channel id is immutable once assigned; when a
// channel is retired the remote side is archived and the binding row deleted.
type ChannelBinding struct {
	RemoteChannelID string    `gorm:"column:remote_channel_id;primaryKey"`
	InstanceID      string    `gorm:"column:instance_id;not null;index"`
	CourseID        string    `gorm:"column:course_id;not null;index"`
	GroupID         *string   `gorm:"column:group_id;index"`
	ChannelName     string    `gorm:"column:channel_name;not null"`
	CreatedAt       time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (ChannelBinding) TableName() string {
	return "channel_bindings"
}

// IsGroupChannel reports whether the binding is for a group-level channel.
func (b ChannelBinding) IsGroupChannel() bool {
	return b.GroupID != nil && *b.GroupID != ""
}
