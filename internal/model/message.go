package model

import "time"

// MessageKind is the activity type recorded in the message log.
type MessageKind string

const (
	MessageKindText     MessageKind = "text"
	MessageKindAudio    MessageKind = "audio"
	MessageKindReaction MessageKind = "reaction"
)

// Message is one logged warming activity. The log is append-only:
// entries are created by the cycle executor after a successful
// dispatch and never updated afterwards.
type Message struct {
	ID         int64       `json:"id"          gorm:"primaryKey;autoIncrement;column:id"`
	InstanceID int64       `json:"instance_id" gorm:"column:instance_id;not null;index"`
	PeerNumber string      `json:"peer_number" gorm:"column:peer_number;not null"`
	Kind       MessageKind `json:"kind"        gorm:"column:kind;not null"`
	Content    string      `json:"content"     gorm:"column:content"`
	ExternalID *string     `json:"external_id" gorm:"column:external_id"`
	CreatedAt  time.Time   `json:"created_at"  gorm:"column:created_at;autoCreateTime"`
}

func (Message) TableName() string { return "messages" }

// MessageFilter controls message log List queries.
type MessageFilter struct {
	InstanceID *int64
	PeerNumber *string
	Kind       *MessageKind
	From       *time.Time
	To         *time.Time
	Limit      int
	Offset     int
	Desc       bool
}
