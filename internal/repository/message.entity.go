package repository

import (
	"time"

	"github.com/heaterlabs/warming-engine/internal/model"
)

type MessageEntity struct {
	ID         int64     `db:"id"          gorm:"primaryKey;autoIncrement;column:id"`
	InstanceID int64     `db:"instance_id" gorm:"column:instance_id;not null;index"`
	PeerNumber string    `db:"peer_number" gorm:"column:peer_number;not null;index"`
	Kind       string    `db:"kind"        gorm:"column:kind;not null"`
	Content    string    `db:"content"     gorm:"column:content"`
	ExternalID *string   `db:"external_id" gorm:"column:external_id"`
	CreatedAt  time.Time `db:"created_at"  gorm:"column:created_at;autoCreateTime"`
}

func (MessageEntity) TableName() string {
	return "messages"
}

func toMessageEntity(m *model.Message) *MessageEntity {
	if m == nil {
		return nil
	}
	return &MessageEntity{
		ID:         m.ID,
		InstanceID: m.InstanceID,
		PeerNumber: m.PeerNumber,
		Kind:       string(m.Kind),
		Content:    m.Content,
		ExternalID: m.ExternalID,
		CreatedAt:  m.CreatedAt,
	}
}

func toMessageModel(e *MessageEntity) *model.Message {
	if e == nil {
		return nil
	}
	return &model.Message{
		ID:         e.ID,
		InstanceID: e.InstanceID,
		PeerNumber: e.PeerNumber,
		Kind:       model.MessageKind(e.Kind),
		Content:    e.Content,
		ExternalID: e.ExternalID,
		CreatedAt:  e.CreatedAt,
	}
}

func toMessageModels(entities []*MessageEntity) []*model.Message {
	if entities == nil {
		return nil
	}
	models := make([]*model.Message, len(entities))
	for i, e := range entities {
		models[i] = toMessageModel(e)
	}
	return models
}
