package service

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"workshop-scheduler/config"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisLockService(t *testing.T, wait time.Duration) (*LockService, *miniredis.Miniredis, *redis.Client) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	svc := NewLockService(client, newTestLogger(), config.LockConfig{TTL: 10 * time.Second, WaitTimeout: wait})
	t.Cleanup(svc.Stop)
	return svc, mr, client
}

func TestLockService_AcquireAndRelease(t *testing.T) {
	svc, mr, _ := newRedisLockService(t, time.Second)
	key := BookingLockKey(uuid.New())

	release, err := svc.Acquire(context.Background(), key)
	require.NoError(t, err)
	assert.True(t, mr.Exists(key))

	release()
	assert.False(t, mr.Exists(key))

	// release is idempotent
	release()

	release, err = svc.Acquire(context.Background(), key)
	require.NoError(t, err)
	release()
}

func TestLockService_TimesOutWhileHeld(t *testing.T) {
	svc, _, _ := newRedisLockService(t, 50*time.Millisecond)
	key := VehicleLockKey("B 1234 XY")

	release, err := svc.Acquire(context.Background(), key)
	require.NoError(t, err)
	defer release()

	_, err = svc.Acquire(context.Background(), key)
	assert.ErrorIs(t, err, ErrLockTimeout)
}

func TestLockService_SerializesAcrossInstances(t *testing.T) {
	first, mr, _ := newRedisLockService(t, 50*time.Millisecond)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()
	second := NewLockService(client, newTestLogger(), config.LockConfig{TTL: 10 * time.Second, WaitTimeout: 50 * time.Millisecond})
	defer second.Stop()

	key := TechnicianLockKey(uuid.New())
	release, err := first.Acquire(context.Background(), key)
	require.NoError(t, err)

	_, err = second.Acquire(context.Background(), key)
	assert.ErrorIs(t, err, ErrLockTimeout)

	release()
	releaseSecond, err := second.Acquire(context.Background(), key)
	require.NoError(t, err)
	releaseSecond()
}

func TestLockService_ReleaseKeepsForeignToken(t *testing.T) {
	svc, mr, _ := newRedisLockService(t, time.Second)
	key := BookingLockKey(uuid.New())

	release, err := svc.Acquire(context.Background(), key)
	require.NoError(t, err)

	// Simulate expiry followed by another holder taking the key.
	require.NoError(t, mr.Set(key, "someone-else"))
	release()

	got, err := mr.Get(key)
	require.NoError(t, err)
	assert.Equal(t, "someone-else", got)
}

func TestLockService_RenewsWhileHeld(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	ttl := 300 * time.Millisecond
	svc := NewLockService(client, newTestLogger(), config.LockConfig{TTL: ttl, WaitTimeout: time.Second})
	t.Cleanup(svc.Stop)

	key := TechnicianLockKey(uuid.New())
	release, err := svc.Acquire(context.Background(), key)
	require.NoError(t, err)

	// Age the key close to expiry; the holder must push it back out.
	mr.FastForward(250 * time.Millisecond)
	assert.Eventually(t, func() bool { return mr.TTL(key) > 100*time.Millisecond }, 2*time.Second, 20*time.Millisecond)

	// Several TTLs later the key is still ours.
	for i := 0; i < 5; i++ {
		time.Sleep(ttl / 3)
		mr.FastForward(ttl / 3)
	}
	assert.True(t, mr.Exists(key))

	release()
	assert.False(t, mr.Exists(key))
}

func TestLockService_ExtendSkipsForeignToken(t *testing.T) {
	svc, mr, _ := newRedisLockService(t, time.Second)
	key := BookingLockKey(uuid.New())

	require.NoError(t, mr.Set(key, "someone-else"))
	mr.SetTTL(key, time.Second)

	extended := svc.extendKeys([]heldLock{{key: key, token: "ours"}})
	assert.Equal(t, 0, extended)
	assert.Equal(t, time.Second, mr.TTL(key))
}

func TestLockService_MutualExclusion(t *testing.T) {
	svc := NewLockService(nil, newTestLogger(), config.LockConfig{TTL: time.Second, WaitTimeout: 5 * time.Second})
	defer svc.Stop()

	key := TechnicianLockKey(uuid.New())
	var inside atomic.Int32
	var maxInside atomic.Int32
	var wg sync.WaitGroup

	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release, err := svc.Acquire(context.Background(), key)
			if !assert.NoError(t, err) {
				return
			}
			n := inside.Add(1)
			if n > maxInside.Load() {
				maxInside.Store(n)
			}
			time.Sleep(time.Millisecond)
			inside.Add(-1)
			release()
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), maxInside.Load())
}

func TestLockService_DuplicateKeysDoNotSelfDeadlock(t *testing.T) {
	svc := NewLockService(nil, newTestLogger(), config.LockConfig{WaitTimeout: 100 * time.Millisecond})
	defer svc.Stop()

	key := BookingLockKey(uuid.New())
	release, err := svc.Acquire(context.Background(), key, key, "")
	require.NoError(t, err)
	release()
}

func TestLockService_ContextCancelled(t *testing.T) {
	svc := NewLockService(nil, newTestLogger(), config.LockConfig{WaitTimeout: time.Second})
	defer svc.Stop()

	key := BookingLockKey(uuid.New())
	release, err := svc.Acquire(context.Background(), key)
	require.NoError(t, err)
	defer release()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = svc.Acquire(ctx, key)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLockService_CleanupStaleMutexes(t *testing.T) {
	svc := NewLockService(nil, newTestLogger(), config.LockConfig{})
	defer svc.Stop()

	idle := BookingLockKey(uuid.New())
	busy := BookingLockKey(uuid.New())

	release, err := svc.Acquire(context.Background(), idle)
	require.NoError(t, err)
	release()

	holdBusy, err := svc.Acquire(context.Background(), busy)
	require.NoError(t, err)
	defer holdBusy()

	cleaned := svc.cleanupStaleMutexes(time.Now().Add(time.Hour))
	assert.Equal(t, 1, cleaned)

	_, idleKept := svc.keyMu.Load(idle)
	_, busyKept := svc.keyMu.Load(busy)
	assert.False(t, idleKept)
	assert.True(t, busyKept)
}

func TestVehicleLockKey_CaseInsensitive(t *testing.T) {
	assert.Equal(t, VehicleLockKey("b 1234 xy"), VehicleLockKey(" B 1234 XY "))
}
