package warming

import (
	"errors"
	"fmt"
	"time"

	"github.com/heaterlabs/warming-engine/pkg/logger"
	"github.com/heaterlabs/warming-engine/pkg/redis"
)

var (
	ErrCycleInFlight = errors.New("cycle already in flight for instance")
)

type CycleLockConfig struct {
	TTL       time.Duration
	KeyPrefix string
}

func DefaultCycleLockConfig() CycleLockConfig {
	return CycleLockConfig{
		TTL:       2 * time.Minute,
		KeyPrefix: "warming:cycle:",
	}
}

// CycleLock serializes cycles per instance across processes with a
// Redis SetNX lease. The TTL bounds how long a crashed holder can
// block an instance.
type CycleLock struct {
	redis  redis.RedisAdapter
	config CycleLockConfig
}

func NewCycleLock(redisAdapter redis.RedisAdapter, config CycleLockConfig) *CycleLock {
	return &CycleLock{
		redis:  redisAdapter,
		config: config,
	}
}

// Acquire takes the per-instance lease. Returns ErrCycleInFlight when
// another cycle currently holds it.
func (l *CycleLock) Acquire(instanceID int64) error {
	key := l.key(instanceID)
	value := []byte(fmt.Sprintf("%d", time.Now().UnixNano()))

	acquired, err := l.redis.SetNX(key, value, l.config.TTL)
	if err != nil {
		return fmt.Errorf("failed to acquire cycle lock: %w", err)
	}
	if !acquired {
		return ErrCycleInFlight
	}
	return nil
}

// Release drops the lease. Safe to call on every exit path; a failed
// release only means the lease runs out its TTL.
func (l *CycleLock) Release(instanceID int64) {
	if err := l.redis.Del(l.key(instanceID)); err != nil {
		logger.Warn("failed to release cycle lock", "instance_id", instanceID, "error", err)
	}
}

func (l *CycleLock) key(instanceID int64) string {
	return fmt.Sprintf("%s%d", l.config.KeyPrefix, instanceID)
}
