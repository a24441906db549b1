package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/heaterlabs/warming-engine/internal/model"
	"github.com/heaterlabs/warming-engine/internal/repository"
	"github.com/heaterlabs/warming-engine/pkg/logger"
)

var (
	ErrNotFound         = errors.New("instance not found")
	ErrNotConnected     = errors.New("instance is not connected")
	ErrAlreadyWarming   = errors.New("warming already started")
	ErrWarmingNotActive = errors.New("warming is not active")
	ErrInvalidWindow    = errors.New("schedule start and end must both be set")
)

type InstanceRepository interface {
	Create(ctx context.Context, inst *model.Instance) (*model.Instance, error)
	Get(ctx context.Context, id int64) (*model.Instance, error)
	GetByName(ctx context.Context, name string) (*model.Instance, error)
	List(ctx context.Context, f model.InstanceFilter) ([]*model.Instance, error)
	Update(ctx context.Context, inst *model.Instance) (*model.Instance, error)
	SetWarming(ctx context.Context, id int64, enabled bool, now time.Time) error
}

type SessionRepository interface {
	Open(ctx context.Context, instanceID int64) (*model.WarmingSession, error)
	CloseActive(ctx context.Context, instanceID int64, status model.SessionStatus, now time.Time) error
	ListByInstance(ctx context.Context, instanceID int64) ([]*model.WarmingSession, error)
}

type MessageRepository interface {
	List(ctx context.Context, f model.MessageFilter) ([]*model.Message, int64, error)
}

// GatewayClient is the slice of the messaging gateway the instance
// service drives during registration and pairing.
type GatewayClient interface {
	CreateInstance(ctx context.Context, name string) (map[string]interface{}, error)
	GetQRCode(ctx context.Context, instance string) (string, error)
}

type InstanceService struct {
	instanceRepo InstanceRepository
	sessionRepo  SessionRepository
	messageRepo  MessageRepository
	gateway      GatewayClient
	now          func() time.Time
}

func NewInstanceService(instanceRepo InstanceRepository, sessionRepo SessionRepository, messageRepo MessageRepository, gw GatewayClient) *InstanceService {
	return &InstanceService{
		instanceRepo: instanceRepo,
		sessionRepo:  sessionRepo,
		messageRepo:  messageRepo,
		gateway:      gw,
		now:          time.Now,
	}
}

// Create registers a managed instance. The gateway-side instance is
// created best effort: the row is the source of truth and pairing can
// be retried through the QR code endpoint.
func (s *InstanceService) Create(ctx context.Context, p model.InstanceCreateRequest) (*model.Instance, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	p.Name = strings.TrimSpace(p.Name)
	p.PhoneNumber = strings.TrimSpace(p.PhoneNumber)

	if s.gateway != nil {
		if _, err := s.gateway.CreateInstance(ctx, p.Name); err != nil {
			logger.Warn("gateway instance creation failed, registering anyway", "instance", p.Name, "error", err)
		}
	}

	inst := &model.Instance{
		Name:        p.Name,
		PhoneNumber: p.PhoneNumber,
		Status:      model.InstanceStatusDisconnected,
	}
	created, err := s.instanceRepo.Create(ctx, inst)
	if err != nil {
		return nil, fmt.Errorf("create instance: %w", err)
	}
	return created, nil
}

func (s *InstanceService) Get(ctx context.Context, id int64) (*model.Instance, error) {
	inst, err := s.instanceRepo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrInstanceNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return inst, nil
}

func (s *InstanceService) List(ctx context.Context, f model.InstanceFilter) ([]*model.Instance, error) {
	return s.instanceRepo.List(ctx, f)
}

// QRCode fetches the pairing QR code for an instance from the
// gateway.
func (s *InstanceService) QRCode(ctx context.Context, id int64) (string, error) {
	inst, err := s.Get(ctx, id)
	if err != nil {
		return "", err
	}
	return s.gateway.GetQRCode(ctx, inst.Name)
}

// StartWarming flags the instance for warming and opens a session.
// Only connected instances can start.
func (s *InstanceService) StartWarming(ctx context.Context, id int64) (*model.Instance, error) {
	inst, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if inst.Status != model.InstanceStatusConnected {
		return nil, ErrNotConnected
	}
	if inst.WarmingEnabled {
		return nil, ErrAlreadyWarming
	}

	now := s.now()
	if err := s.instanceRepo.SetWarming(ctx, id, true, now); err != nil {
		return nil, err
	}
	if _, err := s.sessionRepo.Open(ctx, id); err != nil {
		logger.Error("failed to open warming session", "instance_id", id, "error", err)
	}

	return s.Get(ctx, id)
}

// StopWarming turns warming off and closes the active session.
func (s *InstanceService) StopWarming(ctx context.Context, id int64) (*model.Instance, error) {
	inst, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !inst.WarmingEnabled {
		return nil, ErrWarmingNotActive
	}

	now := s.now()
	if err := s.instanceRepo.SetWarming(ctx, id, false, now); err != nil {
		return nil, err
	}
	if err := s.sessionRepo.CloseActive(ctx, id, model.SessionStatusCompleted, now); err != nil {
		logger.Error("failed to close warming session", "instance_id", id, "error", err)
	}

	return s.Get(ctx, id)
}

// UpdateLimits applies the provided warming knobs, leaving absent
// fields untouched.
func (s *InstanceService) UpdateLimits(ctx context.Context, id int64, p model.InstanceLimitsRequest) (*model.Instance, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if (p.ScheduleStart == nil) != (p.ScheduleEnd == nil) {
		return nil, ErrInvalidWindow
	}

	inst, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if p.DailyLimit != nil {
		inst.DailyLimit = *p.DailyLimit
	}
	if p.PrivateDelayMin != nil {
		inst.PrivateDelayMin = *p.PrivateDelayMin
	}
	if p.PrivateDelayMax != nil {
		inst.PrivateDelayMax = *p.PrivateDelayMax
	}
	if p.ScheduleStart != nil {
		inst.ScheduleStart = *p.ScheduleStart
	}
	if p.ScheduleEnd != nil {
		inst.ScheduleEnd = *p.ScheduleEnd
	}

	if inst.PrivateDelayMax > 0 && inst.PrivateDelayMin > inst.PrivateDelayMax {
		return nil, fmt.Errorf("private_delay_min %d exceeds private_delay_max %d", inst.PrivateDelayMin, inst.PrivateDelayMax)
	}

	return s.instanceRepo.Update(ctx, inst)
}

// Sessions returns the warming session history of an instance.
func (s *InstanceService) Sessions(ctx context.Context, id int64) ([]*model.WarmingSession, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	return s.sessionRepo.ListByInstance(ctx, id)
}

// Messages lists the activity log.
func (s *InstanceService) Messages(ctx context.Context, f model.MessageFilter) ([]*model.Message, int64, error) {
	return s.messageRepo.List(ctx, f)
}
