// internal/app/system/ratelimit/ratelimit.go
package ratelimit

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/dalemusser/circlehub/internal/app/system/auth"
	"github.com/dalemusser/circlehub/internal/app/system/respond"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Allower decides whether one more request for key fits in the current
// window.
type Allower interface {
	Allow(ctx context.Context, key string) (bool, error)
}

/*─────────────────────────────────────────────────────────────────────────────*
| In-process fixed window                                                     |
*─────────────────────────────────────────────────────────────────────────────*/

// Memory is a fixed-window limiter held in process memory. It is safe for
// concurrent use. Counts are per process, so replicas each get their own
// budget.
type Memory struct {
	mu       sync.Mutex
	windows  map[string]*window
	limit    int
	duration time.Duration
	stop     chan struct{}
	once     sync.Once
}

type window struct {
	count     int
	expiresAt time.Time
}

// NewMemory allows limit requests per key per duration.
func NewMemory(limit int, duration time.Duration) *Memory {
	l := &Memory{
		windows:  make(map[string]*window),
		limit:    limit,
		duration: duration,
		stop:     make(chan struct{}),
	}
	go l.cleanupLoop(duration * 2)
	return l
}

// Allow never returns an error.
func (l *Memory) Allow(_ context.Context, key string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	w, ok := l.windows[key]
	if !ok || now.After(w.expiresAt) {
		l.windows[key] = &window{count: 1, expiresAt: now.Add(l.duration)}
		return true, nil
	}
	if w.count >= l.limit {
		return false, nil
	}
	w.count++
	return true, nil
}

// Reset clears key's window.
func (l *Memory) Reset(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.windows, key)
}

// Stop ends the cleanup goroutine.
func (l *Memory) Stop() {
	l.once.Do(func() { close(l.stop) })
}

func (l *Memory) cleanupLoop(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-l.stop:
			return
		case <-ticker.C:
			l.mu.Lock()
			now := time.Now()
			for key, w := range l.windows {
				if now.After(w.expiresAt) {
					delete(l.windows, key)
				}
			}
			l.mu.Unlock()
		}
	}
}

/*─────────────────────────────────────────────────────────────────────────────*
| Redis fixed window                                                          |
*─────────────────────────────────────────────────────────────────────────────*/

// Redis is a fixed-window limiter shared by every process using the same
// Redis. Each key is an INCR counter that expires with its window.
type Redis struct {
	rdb      redis.Cmdable
	prefix   string
	limit    int64
	duration time.Duration
}

// NewRedis allows limit requests per key per duration. prefix namespaces the
// counters, e.g. "circlehub:rl:assist:".
func NewRedis(rdb redis.Cmdable, prefix string, limit int, duration time.Duration) *Redis {
	return &Redis{rdb: rdb, prefix: prefix, limit: int64(limit), duration: duration}
}

// Allow increments key's counter. INCR and EXPIRE NX run in one MULTI, so
// every counter carries a TTL even if an earlier call lost its EXPIRE.
// On a Redis error the request is allowed and the error returned so the
// caller can log it.
func (l *Redis) Allow(ctx context.Context, key string) (bool, error) {
	k := l.prefix + key
	var incr *redis.IntCmd
	_, err := l.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		incr = p.Incr(ctx, k)
		p.ExpireNX(ctx, k, l.duration)
		return nil
	})
	if err != nil {
		return true, err
	}
	return incr.Val() <= l.limit, nil
}

/*─────────────────────────────────────────────────────────────────────────────*
| Middleware                                                                  |
*─────────────────────────────────────────────────────────────────────────────*/

// KeyFunc picks the bucket a request is counted against.
type KeyFunc func(*http.Request) string

// Middleware answers 429 once key(r) exceeds its budget. A nil Allower
// disables limiting. Limiter errors fail open.
func Middleware(a Allower, key KeyFunc, retryAfter time.Duration, logger *zap.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(next http.Handler) http.Handler {
		if a == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			k := key(r)
			ok, err := a.Allow(r.Context(), k)
			if err != nil {
				logger.Warn("rate limiter unavailable; allowing request",
					zap.String("key", k), zap.Error(err))
			}
			if !ok {
				if retryAfter > 0 {
					w.Header().Set("Retry-After", strconv.Itoa(int(retryAfter.Seconds())))
				}
				respond.Status(w, http.StatusTooManyRequests, "rate_limited", "too many requests, try again later")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// IPKeys derives rate limit keys from the client address. X-Forwarded-For
// and X-Real-IP are only honoured with TrustProxy set; otherwise a client
// could pick a fresh key per request by rewriting the header.
type IPKeys struct {
	TrustProxy bool
}

// ByUserOrIP counts signed-in callers by user id and everyone else by IP.
func (k IPKeys) ByUserOrIP(r *http.Request) string {
	if id, ok := auth.CurrentUser(r); ok {
		return "u:" + id.UserID
	}
	return "ip:" + k.ClientIP(r)
}

// ByIP counts every caller by client IP.
func (k IPKeys) ByIP(r *http.Request) string {
	return "ip:" + k.ClientIP(r)
}

// ClientIP returns the peer address, or the proxy-reported client when
// TrustProxy is set and a forwarding header is present.
func (k IPKeys) ClientIP(r *http.Request) string {
	if k.TrustProxy {
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			first, _, _ := strings.Cut(xff, ",")
			if ip := strings.TrimSpace(first); ip != "" {
				return ip
			}
		}
		if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
			return xri
		}
	}
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}
