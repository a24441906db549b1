package repository

import (
	"context"
	"errors"
	"time"

	"github.com/heaterlabs/warming-engine/internal/model"
	"github.com/heaterlabs/warming-engine/pkg/pg"
	"gorm.io/gorm"
)

var (
	// ErrMessageNotFound is returned when a message does not exist.
	ErrMessageNotFound = errors.New("message not found")
)

type MessageRepository struct {
	*pg.DB
}

func NewMessageRepository(db *pg.DB) *MessageRepository {
	return &MessageRepository{
		db,
	}
}

func (r *MessageRepository) Create(ctx context.Context, msg *model.Message) (*model.Message, error) {
	entity := toMessageEntity(msg)

	if err := r.Write(ctx).WithContext(ctx).Create(entity).Error; err != nil {
		return nil, err
	}

	return toMessageModel(entity), nil
}

func (r *MessageRepository) List(ctx context.Context, f model.MessageFilter) ([]*model.Message, int64, error) {
	q := r.Read(ctx).WithContext(ctx).Model(&MessageEntity{})

	if f.InstanceID != nil {
		q = q.Where("instance_id = ?", *f.InstanceID)
	}
	if f.PeerNumber != nil && *f.PeerNumber != "" {
		q = q.Where("peer_number = ?", *f.PeerNumber)
	}
	if f.Kind != nil {
		q = q.Where("kind = ?", string(*f.Kind))
	}
	if f.From != nil {
		q = q.Where("created_at >= ?", *f.From)
	}
	if f.To != nil {
		q = q.Where("created_at < ?", *f.To)
	}

	// Count before pagination
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	order := "created_at"
	if f.Desc {
		order += " DESC"
	} else {
		order += " ASC"
	}

	limit := f.Limit
	if limit <= 0 || limit > 1000 {
		limit = 50
	}
	offset := f.Offset
	if offset < 0 {
		offset = 0
	}

	var entities []*MessageEntity
	if err := q.Order(order).Limit(limit).Offset(offset).Find(&entities).Error; err != nil {
		return nil, 0, err
	}

	return toMessageModels(entities), total, nil
}

// LastInteraction returns the timestamp of the most recent log entry
// in either direction between the instance and the peer: a row owned
// by the instance addressed to the peer's number, or a row owned by
// the peer addressed to the instance's number. Nil when the two have
// never exchanged anything.
func (r *MessageRepository) LastInteraction(ctx context.Context, instanceID int64, instancePhone string, peerID int64, peerPhone string) (*time.Time, error) {
	var entity MessageEntity
	err := r.Read(ctx).WithContext(ctx).
		Where(
			r.Read(ctx).Where("instance_id = ? AND peer_number = ?", instanceID, peerPhone).
				Or("instance_id = ? AND peer_number = ?", peerID, instancePhone),
		).
		Order("created_at DESC").
		First(&entity).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	t := entity.CreatedAt
	return &t, nil
}

// RecentWithExternalID returns up to limit most recent entries owned
// by the instance and addressed to the peer number, restricted to
// rows carrying a gateway-assigned external id. Only those can be
// targeted by a reaction.
func (r *MessageRepository) RecentWithExternalID(ctx context.Context, instanceID int64, peerNumber string, limit int) ([]*model.Message, error) {
	if limit <= 0 {
		limit = 5
	}

	var entities []*MessageEntity
	err := r.Read(ctx).WithContext(ctx).
		Where("instance_id = ?", instanceID).
		Where("peer_number = ?", peerNumber).
		Where("external_id IS NOT NULL").
		Order("created_at DESC").
		Limit(limit).
		Find(&entities).
		Error
	if err != nil {
		return nil, err
	}
	return toMessageModels(entities), nil
}
