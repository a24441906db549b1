package model

import (
	"errors"
	"fmt"
	"time"
)

// InstanceStatus is the connection state of an instance as reported
// by the gateway's connection.update webhooks.
type InstanceStatus string

const (
	InstanceStatusConnected    InstanceStatus = "connected"
	InstanceStatusDisconnected InstanceStatus = "disconnected"
	InstanceStatusConnecting   InstanceStatus = "connecting"
)

// Instance is a managed messaging identity under warming.
type Instance struct {
	ID          int64          `json:"id"           gorm:"primaryKey;autoIncrement;column:id"`
	Name        string         `json:"name"         gorm:"column:name;not null;uniqueIndex"`
	PhoneNumber string         `json:"phone_number" gorm:"column:phone_number"`
	Status      InstanceStatus `json:"status"       gorm:"column:status;not null;default:disconnected"`

	// Warming config
	WarmingEnabled bool   `json:"warming_enabled" gorm:"column:warming_enabled;not null;default:false"`
	DailyLimit     int    `json:"daily_limit"     gorm:"column:daily_limit;not null;default:50"`
	PrivateDelayMin int   `json:"private_delay_min" gorm:"column:private_delay_min;not null;default:300"` // seconds
	PrivateDelayMax int   `json:"private_delay_max" gorm:"column:private_delay_max;not null;default:1800"`
	GroupDelayMin   int   `json:"group_delay_min"   gorm:"column:group_delay_min;not null;default:600"` // reserved
	GroupDelayMax   int   `json:"group_delay_max"   gorm:"column:group_delay_max;not null;default:3600"`
	ScheduleStart   string `json:"schedule_start"   gorm:"column:schedule_start;not null;default:08:00"` // HH:MM
	ScheduleEnd     string `json:"schedule_end"     gorm:"column:schedule_end;not null;default:22:00"`
	ProxyURL        string `json:"proxy_url,omitempty" gorm:"column:proxy_url"`

	// Stats
	MessagesToday    int        `json:"messages_today"     gorm:"column:messages_today;not null;default:0"`
	MessagesTotal    int        `json:"messages_total"     gorm:"column:messages_total;not null;default:0"`
	WarmingStartedAt *time.Time `json:"warming_started_at" gorm:"column:warming_started_at"`
	LastActiveAt     *time.Time `json:"last_active_at"     gorm:"column:last_active_at"`

	CreatedAt time.Time `json:"created_at" gorm:"column:created_at;autoCreateTime"`
}

func (Instance) TableName() string { return "instances" }

// InstanceCreateRequest is the input for registering a new instance.
type InstanceCreateRequest struct {
	Name        string
	PhoneNumber string
}

func (p InstanceCreateRequest) Validate() error {
	if p.Name == "" {
		return errors.New("name is required")
	}
	return nil
}

// InstanceLimitsRequest updates the warming knobs of an instance.
type InstanceLimitsRequest struct {
	DailyLimit      *int
	PrivateDelayMin *int
	PrivateDelayMax *int
	ScheduleStart   *string
	ScheduleEnd     *string
}

func (p InstanceLimitsRequest) Validate() error {
	if p.DailyLimit != nil && *p.DailyLimit < 0 {
		return errors.New("daily_limit must be >= 0")
	}
	if p.PrivateDelayMin != nil && *p.PrivateDelayMin < 0 {
		return errors.New("private_delay_min must be >= 0")
	}
	for _, s := range []*string{p.ScheduleStart, p.ScheduleEnd} {
		if s == nil {
			continue
		}
		if _, err := ParseClock(*s); err != nil {
			return fmt.Errorf("invalid schedule time %q: %w", *s, err)
		}
	}
	return nil
}

// InstanceFilter controls instance List queries.
type InstanceFilter struct {
	WarmingEnabled *bool
	Status         *InstanceStatus
}

// ParseClock parses "HH:MM" into minutes since midnight.
func ParseClock(s string) (int, error) {
	var h, m int
	if _, err := fmt.Sscanf(s, "%d:%d", &h, &m); err != nil {
		return 0, err
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, fmt.Errorf("clock out of range: %s", s)
	}
	return h*60 + m, nil
}
