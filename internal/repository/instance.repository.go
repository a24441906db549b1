package repository

import (
	"context"
	"errors"
	"time"

	"github.com/heaterlabs/warming-engine/internal/model"
	"github.com/heaterlabs/warming-engine/pkg/pg"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	// ErrInstanceNotFound is returned when an instance does not exist.
	ErrInstanceNotFound = errors.New("instance not found")
)

type InstanceRepository struct {
	*pg.DB
}

func NewInstanceRepository(db *pg.DB) *InstanceRepository {
	return &InstanceRepository{
		db,
	}
}

func (r *InstanceRepository) Create(ctx context.Context, inst *model.Instance) (*model.Instance, error) {
	entity := toInstanceEntity(inst)

	if err := r.Write(ctx).WithContext(ctx).Create(entity).Error; err != nil {
		return nil, err
	}

	return toInstanceModel(entity), nil
}

func (r *InstanceRepository) Get(ctx context.Context, id int64) (*model.Instance, error) {
	var entity InstanceEntity
	err := r.Read(ctx).WithContext(ctx).Where("id = ?", id).First(&entity).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInstanceNotFound
		}
		return nil, err
	}
	return toInstanceModel(&entity), nil
}

func (r *InstanceRepository) GetByName(ctx context.Context, name string) (*model.Instance, error) {
	var entity InstanceEntity
	err := r.Read(ctx).WithContext(ctx).Where("name = ?", name).First(&entity).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInstanceNotFound
		}
		return nil, err
	}
	return toInstanceModel(&entity), nil
}

// GetForUpdate loads the instance row with a SELECT ... FOR UPDATE
// lock. Must run inside WithinTransaction; the lock is held until
// the transaction commits or rolls back.
func (r *InstanceRepository) GetForUpdate(ctx context.Context, id int64) (*model.Instance, error) {
	var entity InstanceEntity
	err := r.Write(ctx).WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&entity).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInstanceNotFound
		}
		return nil, err
	}
	return toInstanceModel(&entity), nil
}

func (r *InstanceRepository) List(ctx context.Context, f model.InstanceFilter) ([]*model.Instance, error) {
	q := r.Read(ctx).WithContext(ctx).Model(&InstanceEntity{})

	if f.WarmingEnabled != nil {
		q = q.Where("warming_enabled = ?", *f.WarmingEnabled)
	}
	if f.Status != nil {
		q = q.Where("status = ?", string(*f.Status))
	}

	var entities []*InstanceEntity
	if err := q.Order("id ASC").Find(&entities).Error; err != nil {
		return nil, err
	}

	return toInstanceModels(entities), nil
}

// ListEligiblePeers returns the connected, warming-enabled instances
// other than the given one. These are the peers a cycle may pick from.
func (r *InstanceRepository) ListEligiblePeers(ctx context.Context, excludeID int64) ([]*model.Instance, error) {
	var entities []*InstanceEntity
	err := r.Read(ctx).WithContext(ctx).
		Where("id != ?", excludeID).
		Where("status = ?", string(model.InstanceStatusConnected)).
		Where("warming_enabled = ?", true).
		Order("id ASC").
		Find(&entities).
		Error
	if err != nil {
		return nil, err
	}
	return toInstanceModels(entities), nil
}

func (r *InstanceRepository) Update(ctx context.Context, inst *model.Instance) (*model.Instance, error) {
	entity := toInstanceEntity(inst)

	res := r.Write(ctx).WithContext(ctx).Save(entity)
	if res.Error != nil {
		return nil, res.Error
	}

	return toInstanceModel(entity), nil
}

// SetStatus updates the connection status of the named instance.
// Used only by the status-update consumer; the warming engine never
// writes this column.
func (r *InstanceRepository) SetStatus(ctx context.Context, name string, status model.InstanceStatus) error {
	res := r.Write(ctx).WithContext(ctx).
		Model(&InstanceEntity{}).
		Where("name = ?", name).
		Update("status", string(status))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrInstanceNotFound
	}
	return nil
}

// RecordActivity increments the daily and total counters and stamps
// last_active_at. Counters only ever go up here; the daily reset is
// owned by the scheduler via ResetDailyCounters.
func (r *InstanceRepository) RecordActivity(ctx context.Context, id int64, now time.Time) error {
	res := r.Write(ctx).WithContext(ctx).
		Model(&InstanceEntity{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"messages_today": gorm.Expr("messages_today + 1"),
			"messages_total": gorm.Expr("messages_total + 1"),
			"last_active_at": now,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrInstanceNotFound
	}
	return nil
}

// ResetDailyCounters zeroes messages_today on every instance. Runs
// once per day when the scheduler crosses a date boundary.
func (r *InstanceRepository) ResetDailyCounters(ctx context.Context) error {
	return r.Write(ctx).WithContext(ctx).
		Model(&InstanceEntity{}).
		Where("messages_today > ?", 0).
		Update("messages_today", 0).
		Error
}

// SetWarming flips the warming toggle and stamps warming_started_at
// when enabling.
func (r *InstanceRepository) SetWarming(ctx context.Context, id int64, enabled bool, now time.Time) error {
	updates := map[string]interface{}{
		"warming_enabled": enabled,
	}
	if enabled {
		updates["warming_started_at"] = now
	}
	res := r.Write(ctx).WithContext(ctx).
		Model(&InstanceEntity{}).
		Where("id = ?", id).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrInstanceNotFound
	}
	return nil
}
