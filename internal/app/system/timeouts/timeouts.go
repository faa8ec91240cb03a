// Package timeouts holds the deadlines used for store and upstream calls.
//
// Handlers and the core services derive their contexts from these values
// instead of hard-coding durations. Values are set once at startup through
// Configure; until then the defaults apply.
//
//   - Ping: health checks
//   - Short: single-document reads and writes
//   - Medium: list queries and the batched reads behind aggregate views
//   - Long: multi-collection writes (create circle, delete event)
//   - Upstream: calls to the language-model provider
package timeouts

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	DefaultPing     = 2 * time.Second
	DefaultShort    = 5 * time.Second
	DefaultMedium   = 10 * time.Second
	DefaultLong     = 30 * time.Second
	DefaultUpstream = 60 * time.Second
)

var mu sync.RWMutex

var (
	ping     = DefaultPing
	short    = DefaultShort
	medium   = DefaultMedium
	long     = DefaultLong
	upstream = DefaultUpstream
)

func Ping() time.Duration {
	mu.RLock()
	defer mu.RUnlock()
	return ping
}

func Short() time.Duration {
	mu.RLock()
	defer mu.RUnlock()
	return short
}

func Medium() time.Duration {
	mu.RLock()
	defer mu.RUnlock()
	return medium
}

func Long() time.Duration {
	mu.RLock()
	defer mu.RUnlock()
	return long
}

// Upstream is the deadline for a single language-model request.
func Upstream() time.Duration {
	mu.RLock()
	defer mu.RUnlock()
	return upstream
}

// Config holds timeout overrides. Zero values keep the current value.
type Config struct {
	Ping     time.Duration
	Short    time.Duration
	Medium   time.Duration
	Long     time.Duration
	Upstream time.Duration
}

// Configure applies non-zero overrides. Call it during startup.
func Configure(cfg Config) {
	mu.Lock()
	defer mu.Unlock()
	if cfg.Ping > 0 {
		ping = cfg.Ping
	}
	if cfg.Short > 0 {
		short = cfg.Short
	}
	if cfg.Medium > 0 {
		medium = cfg.Medium
	}
	if cfg.Long > 0 {
		long = cfg.Long
	}
	if cfg.Upstream > 0 {
		upstream = cfg.Upstream
	}
}

// Reset restores the defaults. Used by tests.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	ping = DefaultPing
	short = DefaultShort
	medium = DefaultMedium
	long = DefaultLong
	upstream = DefaultUpstream
}

// Current returns the active values, for the startup log line.
func Current() Config {
	mu.RLock()
	defer mu.RUnlock()
	return Config{Ping: ping, Short: short, Medium: medium, Long: long, Upstream: upstream}
}

// WithTimeout is context.WithTimeout whose cancel func logs a warning when
// the deadline was what ended the operation.
//
//	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "create circle")
//	defer cancel()
func WithTimeout(parent context.Context, timeout time.Duration, log *zap.Logger, operation string) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(parent, timeout)
	return ctx, func() {
		if ctx.Err() == context.DeadlineExceeded && log != nil {
			log.Warn("operation timed out",
				zap.String("operation", operation),
				zap.Duration("timeout", timeout),
			)
		}
		cancel()
	}
}
