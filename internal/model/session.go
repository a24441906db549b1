package model

import "time"

// SessionStatus is the lifecycle state of a warming session.
type SessionStatus string

const (
	SessionStatusActive    SessionStatus = "active"
	SessionStatusCompleted SessionStatus = "completed"
	SessionStatusFailed    SessionStatus = "failed"
)

// WarmingSession tracks one start/stop span of warming for an
// instance, for reporting.
type WarmingSession struct {
	ID           int64         `json:"id"            gorm:"primaryKey;autoIncrement;column:id"`
	InstanceID   int64         `json:"instance_id"   gorm:"column:instance_id;not null;index"`
	StartedAt    time.Time     `json:"started_at"    gorm:"column:started_at;autoCreateTime"`
	EndedAt      *time.Time    `json:"ended_at"      gorm:"column:ended_at"`
	MessagesSent int           `json:"messages_sent" gorm:"column:messages_sent;not null;default:0"`
	Status       SessionStatus `json:"status"        gorm:"column:status;not null;default:active"`
}

func (WarmingSession) TableName() string { return "warming_sessions" }
