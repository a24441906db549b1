package repository

import (
	"time"

	"github.com/heaterlabs/warming-engine/internal/model"
)

type SessionEntity struct {
	ID           int64      `db:"id"            gorm:"primaryKey;autoIncrement;column:id"`
	InstanceID   int64      `db:"instance_id"   gorm:"column:instance_id;not null;index"`
	StartedAt    time.Time  `db:"started_at"    gorm:"column:started_at;autoCreateTime"`
	EndedAt      *time.Time `db:"ended_at"      gorm:"column:ended_at"`
	MessagesSent int        `db:"messages_sent" gorm:"column:messages_sent;not null;default:0"`
	Status       string     `db:"status"        gorm:"column:status;not null;default:active"`
}

func (SessionEntity) TableName() string {
	return "warming_sessions"
}

func toSessionEntity(m *model.WarmingSession) *SessionEntity {
	if m == nil {
		return nil
	}
	return &SessionEntity{
		ID:           m.ID,
		InstanceID:   m.InstanceID,
		StartedAt:    m.StartedAt,
		EndedAt:      m.EndedAt,
		MessagesSent: m.MessagesSent,
		Status:       string(m.Status),
	}
}

func toSessionModel(e *SessionEntity) *model.WarmingSession {
	if e == nil {
		return nil
	}
	return &model.WarmingSession{
		ID:           e.ID,
		InstanceID:   e.InstanceID,
		StartedAt:    e.StartedAt,
		EndedAt:      e.EndedAt,
		MessagesSent: e.MessagesSent,
		Status:       model.SessionStatus(e.Status),
	}
}

func toSessionModels(entities []*SessionEntity) []*model.WarmingSession {
	if entities == nil {
		return nil
	}
	models := make([]*model.WarmingSession, len(entities))
	for i, e := range entities {
		models[i] = toSessionModel(e)
	}
	return models
}
