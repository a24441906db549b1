package repository

import (
	"time"

	"github.com/heaterlabs/warming-engine/internal/model"
)

type InstanceEntity struct {
	ID          int64  `db:"id"           gorm:"primaryKey;autoIncrement;column:id"`
	Name        string `db:"name"         gorm:"column:name;not null;uniqueIndex"`
	PhoneNumber string `db:"phone_number" gorm:"column:phone_number"`
	Status      string `db:"status"       gorm:"column:status;not null;default:disconnected"`

	WarmingEnabled  bool   `db:"warming_enabled"   gorm:"column:warming_enabled;not null;default:false"`
	DailyLimit      int    `db:"daily_limit"       gorm:"column:daily_limit;not null;default:50"`
	PrivateDelayMin int    `db:"private_delay_min" gorm:"column:private_delay_min;not null;default:300"`
	PrivateDelayMax int    `db:"private_delay_max" gorm:"column:private_delay_max;not null;default:1800"`
	GroupDelayMin   int    `db:"group_delay_min"   gorm:"column:group_delay_min;not null;default:600"`
	GroupDelayMax   int    `db:"group_delay_max"   gorm:"column:group_delay_max;not null;default:3600"`
	ScheduleStart   string `db:"schedule_start"    gorm:"column:schedule_start;not null;default:08:00"`
	ScheduleEnd     string `db:"schedule_end"      gorm:"column:schedule_end;not null;default:22:00"`
	ProxyURL        string `db:"proxy_url"         gorm:"column:proxy_url"`

	MessagesToday    int        `db:"messages_today"     gorm:"column:messages_today;not null;default:0"`
	MessagesTotal    int        `db:"messages_total"     gorm:"column:messages_total;not null;default:0"`
	WarmingStartedAt *time.Time `db:"warming_started_at" gorm:"column:warming_started_at"`
	LastActiveAt     *time.Time `db:"last_active_at"     gorm:"column:last_active_at"`

	CreatedAt time.Time `db:"created_at" gorm:"column:created_at;autoCreateTime"`
}

func (InstanceEntity) TableName() string {
	return "instances"
}

func toInstanceEntity(m *model.Instance) *InstanceEntity {
	if m == nil {
		return nil
	}
	return &InstanceEntity{
		ID:               m.ID,
		Name:             m.Name,
		PhoneNumber:      m.PhoneNumber,
		Status:           string(m.Status),
		WarmingEnabled:   m.WarmingEnabled,
		DailyLimit:       m.DailyLimit,
		PrivateDelayMin:  m.PrivateDelayMin,
		PrivateDelayMax:  m.PrivateDelayMax,
		GroupDelayMin:    m.GroupDelayMin,
		GroupDelayMax:    m.GroupDelayMax,
		ScheduleStart:    m.ScheduleStart,
		ScheduleEnd:      m.ScheduleEnd,
		ProxyURL:         m.ProxyURL,
		MessagesToday:    m.MessagesToday,
		MessagesTotal:    m.MessagesTotal,
		WarmingStartedAt: m.WarmingStartedAt,
		LastActiveAt:     m.LastActiveAt,
		CreatedAt:        m.CreatedAt,
	}
}

func toInstanceModel(e *InstanceEntity) *model.Instance {
	if e == nil {
		return nil
	}
	return &model.Instance{
		ID:               e.ID,
		Name:             e.Name,
		PhoneNumber:      e.PhoneNumber,
		Status:           model.InstanceStatus(e.Status),
		WarmingEnabled:   e.WarmingEnabled,
		DailyLimit:       e.DailyLimit,
		PrivateDelayMin:  e.PrivateDelayMin,
		PrivateDelayMax:  e.PrivateDelayMax,
		GroupDelayMin:    e.GroupDelayMin,
		GroupDelayMax:    e.GroupDelayMax,
		ScheduleStart:    e.ScheduleStart,
		ScheduleEnd:      e.ScheduleEnd,
		ProxyURL:         e.ProxyURL,
		MessagesToday:    e.MessagesToday,
		MessagesTotal:    e.MessagesTotal,
		WarmingStartedAt: e.WarmingStartedAt,
		LastActiveAt:     e.LastActiveAt,
		CreatedAt:        e.CreatedAt,
	}
}

func toInstanceModels(entities []*InstanceEntity) []*model.Instance {
	if entities == nil {
		return nil
	}
	models := make([]*model.Instance, len(entities))
	for i, e := range entities {
		models[i] = toInstanceModel(e)
	}
	return models
}
