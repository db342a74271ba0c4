package middleware

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"workshop-scheduler/config"
	"workshop-scheduler/pkg/response"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

const (
	limiterCleanupInterval = time.Minute
	limiterIdleThreshold   = 10 * time.Minute
)

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimitMiddleware limits requests per client IP with a token bucket.
// Forwarding headers are only trusted when TrustProxy is set; otherwise the
// client is the connection's remote address.
type RateLimitMiddleware struct {
	mu         sync.Mutex
	limiters   map[string]*clientLimiter
	limit      rate.Limit
	burst      int
	trustProxy bool
	log        *logrus.Logger

	stopChan chan struct{}
	stopped  atomic.Bool
	wg       sync.WaitGroup
}

// NewRateLimitMiddleware starts a background loop that forgets idle clients.
// Call Stop() during graceful shutdown.
func NewRateLimitMiddleware(cfg config.RateLimitConfig, log *logrus.Logger) *RateLimitMiddleware {
	limit := rate.Limit(cfg.RequestsPerSecond)
	if cfg.RequestsPerSecond <= 0 {
		limit = rate.Inf
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}
	m := &RateLimitMiddleware{
		limiters:   make(map[string]*clientLimiter),
		limit:      limit,
		burst:      burst,
		trustProxy: cfg.TrustProxy,
		log:        log,
		stopChan:   make(chan struct{}),
	}

	m.wg.Add(1)
	go m.cleanupLoop()

	return m
}

// Stop ends the cleanup loop. Safe to call multiple times.
func (m *RateLimitMiddleware) Stop() {
	if m.stopped.CompareAndSwap(false, true) {
		close(m.stopChan)
		m.wg.Wait()
	}
}

func (m *RateLimitMiddleware) cleanupLoop() {
	defer m.wg.Done()

	ticker := time.NewTicker(limiterCleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-m.stopChan:
			return
		case <-ticker.C:
			if removed := m.Cleanup(time.Now().Add(-limiterIdleThreshold)); removed > 0 {
				m.log.WithField("removed", removed).Debug("Forgot idle rate limit clients")
			}
		}
	}
}

func (m *RateLimitMiddleware) getLimiter(ip string) *rate.Limiter {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.limiters[ip]
	if !exists {
		entry = &clientLimiter{limiter: rate.NewLimiter(m.limit, m.burst)}
		m.limiters[ip] = entry
	}
	entry.lastSeen = time.Now()
	return entry.limiter
}

// Cleanup forgets clients idle since before cutoff and returns how many were removed.
func (m *RateLimitMiddleware) Cleanup(cutoff time.Time) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for ip, entry := range m.limiters {
		if entry.lastSeen.Before(cutoff) {
			delete(m.limiters, ip)
			removed++
		}
	}
	return removed
}

// Clients reports how many client buckets are currently tracked.
func (m *RateLimitMiddleware) Clients() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.limiters)
}

func (m *RateLimitMiddleware) Handle(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := m.clientIP(r)
		if !m.getLimiter(ip).Allow() {
			m.log.WithField("ip", ip).Warn("Rate limit exceeded")
			response.TooManyRequests(w, "Rate limit exceeded. Try again later.")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (m *RateLimitMiddleware) clientIP(r *http.Request) string {
	if m.trustProxy {
		if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
			if ip := strings.TrimSpace(strings.Split(forwarded, ",")[0]); ip != "" {
				return ip
			}
		}
		if realIP := strings.TrimSpace(r.Header.Get("X-Real-IP")); realIP != "" {
			return realIP
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
