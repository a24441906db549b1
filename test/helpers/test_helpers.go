package helpers

import (
	"context"
	"fmt"
	"reflect"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/heaterlabs/warming-engine/internal/repository"
	"github.com/heaterlabs/warming-engine/pkg/pg"
	"github.com/heaterlabs/warming-engine/pkg/redis"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func SetupTestDB(t *testing.T) *pg.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&repository.InstanceEntity{},
		&repository.MessageEntity{},
		&repository.SessionEntity{},
	)
	require.NoError(t, err)

	pgDB := &pg.DB{}
	pgDBValue := reflect.ValueOf(pgDB).Elem()

	readField := pgDBValue.FieldByName("read")
	writeField := pgDBValue.FieldByName("write")

	readField = reflect.NewAt(readField.Type(), readField.Addr().UnsafePointer()).Elem()
	writeField = reflect.NewAt(writeField.Type(), writeField.Addr().UnsafePointer()).Elem()

	readField.Set(reflect.ValueOf(db))
	writeField.Set(reflect.ValueOf(db))

	return pgDB
}

func SetupTestRedis(t *testing.T) (*miniredis.Miniredis, redis.RedisAdapter) {
	mr, err := miniredis.Run()
	require.NoError(t, err)

	// Unique connection name per call: the adapter caches connections
	// globally by name.
	connName := fmt.Sprintf("test-%s-%d", t.Name(), time.Now().UnixNano())
	adapter, err := redis.NewRedisAdapter(connName, "", &goredis.UniversalOptions{
		Addrs: []string{mr.Addr()},
	})
	require.NoError(t, err)

	return mr, adapter
}

func CreateTestInstance(t *testing.T, db *pg.DB, id int64, name, phone string, warming bool) *repository.InstanceEntity {
	ctx := context.Background()
	inst := &repository.InstanceEntity{
		ID:              id,
		Name:            name,
		PhoneNumber:     phone,
		Status:          "connected",
		WarmingEnabled:  warming,
		DailyLimit:      50,
		PrivateDelayMin: 300,
		PrivateDelayMax: 1800,
		GroupDelayMin:   600,
		GroupDelayMax:   3600,
		ScheduleStart:   "00:00",
		ScheduleEnd:     "23:59",
	}
	err := db.Write(ctx).Create(inst).Error
	require.NoError(t, err)
	return inst
}

func CreateTestMessage(t *testing.T, db *pg.DB, instanceID int64, peerNumber, kind string, externalID *string) *repository.MessageEntity {
	ctx := context.Background()
	msg := &repository.MessageEntity{
		InstanceID: instanceID,
		PeerNumber: peerNumber,
		Kind:       kind,
		Content:    "test content",
		ExternalID: externalID,
		CreatedAt:  time.Now(),
	}
	err := db.Write(ctx).Create(msg).Error
	require.NoError(t, err)
	return msg
}

func CreateTestSession(t *testing.T, db *pg.DB, instanceID int64, status string) *repository.SessionEntity {
	ctx := context.Background()
	sess := &repository.SessionEntity{
		InstanceID: instanceID,
		StartedAt:  time.Now(),
		Status:     status,
	}
	err := db.Write(ctx).Create(sess).Error
	require.NoError(t, err)
	return sess
}

func WaitForCondition(t *testing.T, timeout time.Duration, condition func() bool) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if condition() {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return false
}

func AssertEventually(t *testing.T, timeout time.Duration, condition func() bool, msg string) {
	if !WaitForCondition(t, timeout, condition) {
		t.Fatal(msg)
	}
}

func ContextWithTimeout(timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), timeout)
}

func Ptr[T any](v T) *T {
	return &v
}
