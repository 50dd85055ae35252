package model

import "time"

// DeferredTask is a queued synchronization job. Delivery is at-least-once and
// unordered; the snapshot-diff synchronizer tolerates both.
type DeferredTask struct {
	ID          string     `gorm:"column:id;primaryKey"`
	TaskType    string     `gorm:"column:task_type;not null;index"`
	Payload     []byte     `gorm:"column:payload;not null"`
	Attempts    int        `gorm:"column:attempts;not null;default:0"`
	LockedUntil *time.Time `gorm:"column:locked_until;index"`
	CreatedAt   time.Time  `gorm:"column:created_at;autoCreateTime"`
}

func (DeferredTask) TableName() string {
	return "deferred_tasks"
}
