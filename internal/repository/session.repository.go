package repository

import (
	"context"
	"time"

	"github.com/heaterlabs/warming-engine/internal/model"
	"github.com/heaterlabs/warming-engine/pkg/pg"
	"gorm.io/gorm"
)

type SessionRepository struct {
	*pg.DB
}

func NewSessionRepository(db *pg.DB) *SessionRepository {
	return &SessionRepository{
		db,
	}
}

// Open starts a new active session for the instance.
func (r *SessionRepository) Open(ctx context.Context, instanceID int64) (*model.WarmingSession, error) {
	entity := &SessionEntity{
		InstanceID: instanceID,
		Status:     string(model.SessionStatusActive),
	}
	if err := r.Write(ctx).WithContext(ctx).Create(entity).Error; err != nil {
		return nil, err
	}
	return toSessionModel(entity), nil
}

// CloseActive ends any active session for the instance with the
// given terminal status. Closing when no session is active is a
// no-op.
func (r *SessionRepository) CloseActive(ctx context.Context, instanceID int64, status model.SessionStatus, now time.Time) error {
	return r.Write(ctx).WithContext(ctx).
		Model(&SessionEntity{}).
		Where("instance_id = ?", instanceID).
		Where("status = ?", string(model.SessionStatusActive)).
		Updates(map[string]interface{}{
			"status":   string(status),
			"ended_at": now,
		}).
		Error
}

// AddSent bumps the messages_sent counter of the active session, if
// one exists.
func (r *SessionRepository) AddSent(ctx context.Context, instanceID int64) error {
	return r.Write(ctx).WithContext(ctx).
		Model(&SessionEntity{}).
		Where("instance_id = ?", instanceID).
		Where("status = ?", string(model.SessionStatusActive)).
		Update("messages_sent", gorm.Expr("messages_sent + 1")).
		Error
}

func (r *SessionRepository) ListByInstance(ctx context.Context, instanceID int64) ([]*model.WarmingSession, error) {
	var entities []*SessionEntity
	err := r.Read(ctx).WithContext(ctx).
		Where("instance_id = ?", instanceID).
		Order("started_at DESC").
		Find(&entities).
		Error
	if err != nil {
		return nil, err
	}
	return toSessionModels(entities), nil
}
