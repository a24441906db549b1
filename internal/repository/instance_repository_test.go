package repository

import (
	"context"
	"testing"
	"time"

	"github.com/heaterlabs/warming-engine/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestInstance(name, phone string) *model.Instance {
	return &model.Instance{
		Name:            name,
		PhoneNumber:     phone,
		Status:          model.InstanceStatusConnected,
		WarmingEnabled:  true,
		DailyLimit:      50,
		PrivateDelayMin: 300,
		PrivateDelayMax: 1800,
		ScheduleStart:   "08:00",
		ScheduleEnd:     "22:00",
	}
}

func TestInstanceRepository_CreateAndGet(t *testing.T) {
	db := setupTestDB(t).DB
	repo := NewInstanceRepository(db)
	ctx := context.Background()

	created, err := repo.Create(ctx, newTestInstance("warm-01", "5511999990001"))
	require.NoError(t, err)
	assert.NotZero(t, created.ID)

	got, err := repo.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "warm-01", got.Name)
	assert.Equal(t, model.InstanceStatusConnected, got.Status)
	assert.Equal(t, 50, got.DailyLimit)

	byName, err := repo.GetByName(ctx, "warm-01")
	require.NoError(t, err)
	assert.Equal(t, created.ID, byName.ID)
}

func TestInstanceRepository_GetNotFound(t *testing.T) {
	db := setupTestDB(t).DB
	repo := NewInstanceRepository(db)

	_, err := repo.Get(context.Background(), 9999)
	assert.ErrorIs(t, err, ErrInstanceNotFound)

	_, err = repo.GetByName(context.Background(), "ghost")
	assert.ErrorIs(t, err, ErrInstanceNotFound)
}

func TestInstanceRepository_ListEligiblePeers(t *testing.T) {
	db := setupTestDB(t).DB
	repo := NewInstanceRepository(db)
	ctx := context.Background()

	me, err := repo.Create(ctx, newTestInstance("me", "111"))
	require.NoError(t, err)

	eligible := newTestInstance("peer-ok", "222")
	_, err = repo.Create(ctx, eligible)
	require.NoError(t, err)

	offline := newTestInstance("peer-off", "333")
	offline.Status = model.InstanceStatusDisconnected
	_, err = repo.Create(ctx, offline)
	require.NoError(t, err)

	cold := newTestInstance("peer-cold", "444")
	cold.WarmingEnabled = false
	_, err = repo.Create(ctx, cold)
	require.NoError(t, err)

	peers, err := repo.ListEligiblePeers(ctx, me.ID)
	require.NoError(t, err)
	require.Len(t, peers, 1)
	assert.Equal(t, "peer-ok", peers[0].Name)
}

func TestInstanceRepository_RecordActivity(t *testing.T) {
	db := setupTestDB(t).DB
	repo := NewInstanceRepository(db)
	ctx := context.Background()

	created, err := repo.Create(ctx, newTestInstance("warm-02", "555"))
	require.NoError(t, err)

	now := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, repo.RecordActivity(ctx, created.ID, now))
	require.NoError(t, repo.RecordActivity(ctx, created.ID, now))

	got, err := repo.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.MessagesToday)
	assert.Equal(t, 2, got.MessagesTotal)
	require.NotNil(t, got.LastActiveAt)

	err = repo.RecordActivity(ctx, 9999, now)
	assert.ErrorIs(t, err, ErrInstanceNotFound)
}

func TestInstanceRepository_SetStatus(t *testing.T) {
	db := setupTestDB(t).DB
	repo := NewInstanceRepository(db)
	ctx := context.Background()

	created, err := repo.Create(ctx, newTestInstance("warm-03", "666"))
	require.NoError(t, err)

	require.NoError(t, repo.SetStatus(ctx, "warm-03", model.InstanceStatusDisconnected))

	got, err := repo.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, model.InstanceStatusDisconnected, got.Status)

	err = repo.SetStatus(ctx, "ghost", model.InstanceStatusConnected)
	assert.ErrorIs(t, err, ErrInstanceNotFound)
}

func TestInstanceRepository_SetWarming(t *testing.T) {
	db := setupTestDB(t).DB
	repo := NewInstanceRepository(db)
	ctx := context.Background()

	inst := newTestInstance("warm-04", "777")
	inst.WarmingEnabled = false
	created, err := repo.Create(ctx, inst)
	require.NoError(t, err)

	now := time.Now().UTC()
	require.NoError(t, repo.SetWarming(ctx, created.ID, true, now))

	got, err := repo.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, got.WarmingEnabled)
	require.NotNil(t, got.WarmingStartedAt)

	require.NoError(t, repo.SetWarming(ctx, created.ID, false, now))
	got, err = repo.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.False(t, got.WarmingEnabled)
}

func TestInstanceRepository_GetForUpdate(t *testing.T) {
	db := setupTestDB(t).DB
	repo := NewInstanceRepository(db)
	ctx := context.Background()

	created, err := repo.Create(ctx, newTestInstance("warm-05", "888"))
	require.NoError(t, err)

	err = repo.WithinTransaction(ctx, func(ctx context.Context) error {
		locked, err := repo.GetForUpdate(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, created.ID, locked.ID)
		return repo.RecordActivity(ctx, locked.ID, time.Now().UTC())
	})
	require.NoError(t, err)

	got, err := repo.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.MessagesToday)
}
