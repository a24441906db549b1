package warming

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/heaterlabs/warming-engine/pkg/redis"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupLock(t *testing.T, ttl time.Duration) (*miniredis.Miniredis, *CycleLock) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	adapter, err := redis.NewRedisAdapter("lock-"+t.Name(), "", &goredis.UniversalOptions{
		Addrs: []string{mr.Addr()},
	})
	require.NoError(t, err)

	return mr, NewCycleLock(adapter, CycleLockConfig{TTL: ttl, KeyPrefix: "warming:cycle:"})
}

func TestCycleLock_AcquireRelease(t *testing.T) {
	_, lock := setupLock(t, time.Minute)

	require.NoError(t, lock.Acquire(1))

	err := lock.Acquire(1)
	assert.ErrorIs(t, err, ErrCycleInFlight)

	// Different instances do not contend.
	assert.NoError(t, lock.Acquire(2))

	lock.Release(1)
	assert.NoError(t, lock.Acquire(1))
}

func TestCycleLock_ExpiresWithTTL(t *testing.T) {
	mr, lock := setupLock(t, time.Minute)

	require.NoError(t, lock.Acquire(1))
	assert.ErrorIs(t, lock.Acquire(1), ErrCycleInFlight)

	mr.FastForward(2 * time.Minute)

	assert.NoError(t, lock.Acquire(1))
}
