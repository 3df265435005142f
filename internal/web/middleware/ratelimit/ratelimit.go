// Package ratelimit limits requests per client IP with token buckets.
package ratelimit

import (
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/time/rate"
)

const (
	defaultCleanupInterval = 5 * time.Minute
	defaultIdleTimeout     = 10 * time.Minute
)

// Config of the middleware.
type Config struct {
	// RequestsPerMinute is the sustained rate per IP.
	RequestsPerMinute int
	// Burst is the number of requests allowed at once.
	Burst int
	// LimitReached is called instead of the next handler when the limit is exceeded.
	// Default: 429 with a short text body.
	LimitReached fiber.Handler
	// Now is used for idle cleanup, overridable in tests.
	Now func() time.Time
}

type entry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Limiter keeps one token bucket per IP and forgets buckets that stay idle.
type Limiter struct {
	cfg Config

	mu          sync.Mutex
	entries     map[string]*entry
	lastCleanup time.Time
}

// NewLimiter creates a Limiter. Non-positive values fall back to one request per minute and a burst of one.
func NewLimiter(cfg Config) *Limiter {
	if cfg.RequestsPerMinute <= 0 {
		cfg.RequestsPerMinute = 1
	}

	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}

	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	if cfg.LimitReached == nil {
		cfg.LimitReached = func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).SendString("Too many requests, please try again later.")
		}
	}

	return &Limiter{
		cfg:         cfg,
		entries:     make(map[string]*entry),
		lastCleanup: cfg.Now(),
	}
}

// Allow reports whether a request from ip may proceed.
func (l *Limiter) Allow(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.cfg.Now()
	l.cleanup(now)

	e, ok := l.entries[ip]
	if !ok {
		e = &entry{
			limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(l.cfg.RequestsPerMinute)), l.cfg.Burst),
		}
		l.entries[ip] = e
	}

	e.lastSeen = now

	return e.limiter.AllowN(now, 1)
}

// cleanup drops idle buckets at most once per interval. l.mu must be held.
func (l *Limiter) cleanup(now time.Time) {
	if now.Sub(l.lastCleanup) < defaultCleanupInterval {
		return
	}

	for ip, e := range l.entries {
		if now.Sub(e.lastSeen) > defaultIdleTimeout {
			delete(l.entries, ip)
		}
	}

	l.lastCleanup = now
}

// Len returns the number of tracked IPs.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	return len(l.entries)
}

// Handler returns the fiber middleware.
func (l *Limiter) Handler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !l.Allow(c.IP()) {
			return l.cfg.LimitReached(c)
		}

		return c.Next()
	}
}

// New is a shorthand for NewLimiter(cfg).Handler().
func New(cfg Config) fiber.Handler {
	return NewLimiter(cfg).Handler()
}
