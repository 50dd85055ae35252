package model

import "time"

// IdentityMapping associates a local LMS user with the remote user created on
// their behalf. Created lazily on first successful enrollment; deleted when
// the local user is permanently removed from the remote system.
type IdentityMapping struct {
	LocalUserID  string    `gorm:"column:local_user_id;primaryKey"`
	RemoteUserID string    `gorm:"column:remote_user_id;not null;uniqueIndex"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (IdentityMapping) TableName() string {
	return "identity_mappings"
}
