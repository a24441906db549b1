package fixtures

import (
	"fmt"
	"time"

	"github.com/heaterlabs/warming-engine/internal/model"
)

var (
	TestInstanceWarming = model.Instance{
		ID:              1,
		Name:            "warm-alpha",
		PhoneNumber:     "5511999990001",
		Status:          model.InstanceStatusConnected,
		WarmingEnabled:  true,
		DailyLimit:      50,
		PrivateDelayMin: 300,
		PrivateDelayMax: 1800,
		ScheduleStart:   "08:00",
		ScheduleEnd:     "22:00",
	}

	TestInstanceIdle = model.Instance{
		ID:              2,
		Name:            "warm-beta",
		PhoneNumber:     "5511999990002",
		Status:          model.InstanceStatusConnected,
		WarmingEnabled:  false,
		DailyLimit:      50,
		PrivateDelayMin: 300,
		PrivateDelayMax: 1800,
		ScheduleStart:   "08:00",
		ScheduleEnd:     "22:00",
	}

	TestInstanceDisconnected = model.Instance{
		ID:          3,
		Name:        "warm-gamma",
		PhoneNumber: "5511999990003",
		Status:      model.InstanceStatusDisconnected,
	}
)

func NewTestInstance(id int64, warming bool) *model.Instance {
	return &model.Instance{
		ID:              id,
		Name:            fmt.Sprintf("warm-%d", id),
		PhoneNumber:     fmt.Sprintf("55119999%05d", id),
		Status:          model.InstanceStatusConnected,
		WarmingEnabled:  warming,
		DailyLimit:      50,
		PrivateDelayMin: 300,
		PrivateDelayMax: 1800,
		ScheduleStart:   "00:00",
		ScheduleEnd:     "23:59",
	}
}

func NewTestMessage(instanceID int64, peerNumber string, kind model.MessageKind, externalID *string) *model.Message {
	return &model.Message{
		InstanceID: instanceID,
		PeerNumber: peerNumber,
		Kind:       kind,
		Content:    "fixture message",
		ExternalID: externalID,
		CreatedAt:  time.Now(),
	}
}

func NewTestStatusUpdate(name string, status model.InstanceStatus) model.StatusUpdate {
	return model.StatusUpdate{
		InstanceName: name,
		Status:       status,
	}
}

var (
	ValidScheduleWindows = [][2]string{
		{"08:00", "22:00"},
		{"00:00", "23:59"},
		{"22:00", "02:00"},
	}

	InvalidClockValues = []string{
		"",
		"25:00",
		"08:61",
		"noon",
	}
)

func InstanceFilterWarming() model.InstanceFilter {
	enabled := true
	return model.InstanceFilter{WarmingEnabled: &enabled}
}

func MessageFilterByInstance(instanceID int64) model.MessageFilter {
	return model.MessageFilter{
		InstanceID: &instanceID,
		Limit:      50,
		Offset:     0,
		Desc:       false,
	}
}

func MessageFilterByPeer(instanceID int64, peer string) model.MessageFilter {
	return model.MessageFilter{
		InstanceID: &instanceID,
		PeerNumber: &peer,
		Limit:      50,
		Offset:     0,
	}
}
