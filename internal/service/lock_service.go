package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"workshop-scheduler/config"
	"workshop-scheduler/internal/domain/entity"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// =============================================================================
// Errors
// =============================================================================

// ErrLockTimeout is returned when a lock could not be taken within the wait timeout.
var ErrLockTimeout = errors.New("timed out waiting for booking lock")

// releaseLockScript deletes the key only while it still holds our token, so a
// holder whose TTL expired can never release somebody else's lock.
var releaseLockScript = redis.NewScript(`
	if redis.call('GET', KEYS[1]) == ARGV[1] then
		return redis.call('DEL', KEYS[1])
	end
	return 0
`)

// extendLockScript pushes the expiry forward only while the key still holds
// our token.
var extendLockScript = redis.NewScript(`
	if redis.call('GET', KEYS[1]) == ARGV[1] then
		return redis.call('PEXPIRE', KEYS[1], ARGV[2])
	end
	return 0
`)

// =============================================================================
// Constants
// =============================================================================

const (
	// Redis key prefix for scheduling locks
	RedisLockKeyPrefix = "workshop:lock:"

	// Poll interval while another holder owns the Redis key
	lockRetryInterval = 25 * time.Millisecond

	// Timeout for releasing a Redis lock after the request context is gone
	lockReleaseTimeout = 2 * time.Second

	// Interval for cleaning up stale mutexes
	mutexCleanupInterval = 10 * time.Minute

	// How long a mutex must be unused before cleanup
	mutexStaleThreshold = 10 * time.Minute
)

// Lock keys. Callers take classes in the order vehicle, booking, technician.

func VehicleLockKey(vehicleNumber string) string {
	return RedisLockKeyPrefix + "vehicle:" + entity.NormalizeVehicleNumber(vehicleNumber)
}

func BookingLockKey(bookingID uuid.UUID) string {
	return RedisLockKeyPrefix + "booking:" + bookingID.String()
}

func TechnicianLockKey(technicianID uuid.UUID) string {
	return RedisLockKeyPrefix + "technician:" + technicianID.String()
}

// =============================================================================
// Types
// =============================================================================

// Locker serializes mutations that touch the same vehicle, booking or technician.
type Locker interface {
	// Acquire blocks until every key is held and returns an idempotent release func.
	Acquire(ctx context.Context, keys ...string) (release func(), err error)
}

// LockService combines an in-process mutex per key with a Redis lock per key.
// The mutex keeps goroutines of one instance off Redis; the Redis key covers
// other instances. With a nil client only the in-process layer is used.
//
// Lock Ordering (to prevent deadlocks):
// 1. Keys of one Acquire call are sorted
// 2. Callers acquire classes vehicle -> booking -> technician
type LockService struct {
	redisClient *redis.Client
	log         *logrus.Logger
	ttl         time.Duration
	waitTimeout time.Duration

	// Per-key mutex for in-process serialization
	keyMu sync.Map // map[string]*keyedMutex

	// Graceful shutdown
	stopChan chan struct{}
	wg       sync.WaitGroup
	stopped  atomic.Bool
}

// keyedMutex is a mutex that can be waited on with a context.
type keyedMutex struct {
	ch       chan struct{}
	lastUsed atomic.Int64 // Unix timestamp
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{ch: make(chan struct{}, 1)}
}

func (m *keyedMutex) lock(ctx context.Context) error {
	select {
	case m.ch <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *keyedMutex) tryLock() bool {
	select {
	case m.ch <- struct{}{}:
		return true
	default:
		return false
	}
}

func (m *keyedMutex) unlock() {
	<-m.ch
}

type heldLock struct {
	key   string
	mu    *keyedMutex
	token string
}

// =============================================================================
// Constructor
// =============================================================================

// NewLockService creates a new LockService.
// Starts background goroutine for mutex cleanup.
// Call Stop() during graceful shutdown.
func NewLockService(redisClient *redis.Client, log *logrus.Logger, cfg config.LockConfig) *LockService {
	svc := &LockService{
		redisClient: redisClient,
		log:         log,
		ttl:         cfg.TTL,
		waitTimeout: cfg.WaitTimeout,
		stopChan:    make(chan struct{}),
	}
	if svc.ttl <= 0 {
		svc.ttl = 15 * time.Second
	}
	if svc.waitTimeout <= 0 {
		svc.waitTimeout = 5 * time.Second
	}

	svc.wg.Add(1)
	go svc.cleanupMutexMapLoop()

	return svc
}

// =============================================================================
// Lifecycle Methods
// =============================================================================

// Stop gracefully shuts down the service.
// Safe to call multiple times.
func (s *LockService) Stop() {
	if s.stopped.CompareAndSwap(false, true) {
		close(s.stopChan)
		s.wg.Wait()
		s.log.Info("LockService stopped")
	}
}

// =============================================================================
// Public Methods
// =============================================================================

func (s *LockService) Acquire(ctx context.Context, keys ...string) (func(), error) {
	keys = sortedUnique(keys)

	waitCtx, cancel := context.WithTimeout(ctx, s.waitTimeout)
	defer cancel()

	held := make([]heldLock, 0, len(keys))
	var stopRenewal func()
	var once sync.Once
	release := func() {
		once.Do(func() {
			if stopRenewal != nil {
				stopRenewal()
			}
			for i := len(held) - 1; i >= 0; i-- {
				s.unlockKey(held[i])
			}
		})
	}

	for _, key := range keys {
		h, err := s.lockKey(waitCtx, key)
		if err != nil {
			release()
			if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
				s.log.Warnf("Timed out waiting for lock %s", key)
				return nil, ErrLockTimeout
			}
			return nil, err
		}
		held = append(held, h)
	}

	if s.redisClient != nil {
		stopRenewal = s.startRenewal(held)
	}
	return release, nil
}

// =============================================================================
// Private Helper Methods
// =============================================================================

func (s *LockService) lockKey(ctx context.Context, key string) (heldLock, error) {
	mu, err := s.lockLocal(ctx, key)
	if err != nil {
		return heldLock{}, err
	}

	h := heldLock{key: key, mu: mu}
	if s.redisClient == nil {
		return h, nil
	}

	token, err := s.lockRedis(ctx, key)
	if err != nil {
		mu.unlock()
		return heldLock{}, err
	}
	h.token = token
	return h, nil
}

// lockLocal locks the mutex registered for key. If cleanup replaced the entry
// while we were waiting, the orphaned mutex is dropped and we retry.
func (s *LockService) lockLocal(ctx context.Context, key string) (*keyedMutex, error) {
	for {
		mu := s.getKeyMutex(key)
		if err := mu.lock(ctx); err != nil {
			return nil, err
		}
		if current, ok := s.keyMu.Load(key); ok && current == mu {
			mu.lastUsed.Store(time.Now().Unix())
			return mu, nil
		}
		mu.unlock()
	}
}

func (s *LockService) lockRedis(ctx context.Context, key string) (string, error) {
	token := uuid.NewString()

	ticker := time.NewTicker(lockRetryInterval)
	defer ticker.Stop()

	for {
		acquired, err := s.redisClient.SetNX(ctx, key, token, s.ttl).Result()
		if err != nil {
			return "", fmt.Errorf("acquire redis lock %s: %w", key, err)
		}
		if acquired {
			s.log.Debugf("Acquired redis lock %s", key)
			return token, nil
		}

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-ticker.C:
		}
	}
}

// startRenewal extends the Redis keys every third of the TTL until the
// returned func is called, so a holder keeps exclusivity for as long as it
// runs.
func (s *LockService) startRenewal(held []heldLock) func() {
	done := make(chan struct{})
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()

		ticker := time.NewTicker(s.ttl / 3)
		defer ticker.Stop()

		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				s.extendKeys(held)
			}
		}
	}()

	return func() {
		close(done)
		wg.Wait()
	}
}

// extendKeys resets the TTL of every held key and returns how many still
// belonged to us.
func (s *LockService) extendKeys(held []heldLock) int {
	ctx, cancel := context.WithTimeout(context.Background(), lockReleaseTimeout)
	defer cancel()

	extended := 0
	for _, h := range held {
		if h.token == "" {
			continue
		}
		ok, err := extendLockScript.Run(ctx, s.redisClient, []string{h.key}, h.token, s.ttl.Milliseconds()).Int()
		switch {
		case err != nil:
			s.log.Warnf("Failed to extend redis lock %s: %+v", h.key, err)
		case ok == 0:
			s.log.Errorf("Lost redis lock %s before release", h.key)
		default:
			extended++
		}
	}
	return extended
}

func (s *LockService) unlockKey(h heldLock) {
	if h.token != "" {
		ctx, cancel := context.WithTimeout(context.Background(), lockReleaseTimeout)
		if _, err := releaseLockScript.Run(ctx, s.redisClient, []string{h.key}, h.token).Int(); err != nil {
			// The key still expires on its TTL.
			s.log.Warnf("Failed to release redis lock %s: %+v", h.key, err)
		}
		cancel()
	}
	h.mu.lastUsed.Store(time.Now().Unix())
	h.mu.unlock()
}

// getKeyMutex returns mutex for a specific lock key
func (s *LockService) getKeyMutex(key string) *keyedMutex {
	mu, _ := s.keyMu.LoadOrStore(key, newKeyedMutex())
	result := mu.(*keyedMutex)
	result.lastUsed.Store(time.Now().Unix())
	return result
}

// cleanupMutexMapLoop runs in background to clean stale mutexes
func (s *LockService) cleanupMutexMapLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(mutexCleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			s.log.Debug("Mutex cleanup goroutine stopping")
			return
		case <-ticker.C:
			s.cleanupStaleMutexes(time.Now().Add(-mutexStaleThreshold))
		}
	}
}

// cleanupStaleMutexes removes mutexes unused since cutoff. A mutex that is
// currently held is skipped.
func (s *LockService) cleanupStaleMutexes(cutoff time.Time) int {
	var cleaned int

	s.keyMu.Range(func(key, value any) bool {
		mu, ok := value.(*keyedMutex)
		if !ok {
			return true
		}

		if mu.tryLock() {
			if mu.lastUsed.Load() < cutoff.Unix() {
				s.keyMu.Delete(key)
				cleaned++
			}
			mu.unlock()
		}
		return true
	})

	if cleaned > 0 {
		s.log.Debugf("Cleaned up %d stale mutexes", cleaned)
	}
	return cleaned
}

func sortedUnique(keys []string) []string {
	out := make([]string, 0, len(keys))
	seen := make(map[string]bool, len(keys))
	for _, k := range keys {
		if k == "" || seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
