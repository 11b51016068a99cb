package middleware

import (
	"math"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"sentiment-backend/internal/shared/server/respond"
)

const (
	defaultRateLimitGroup = "DEFAULT"

	// guestIPFactor scales a rule into the per-IP budget shared by all guest ids from one address.
	guestIPFactor       = 4
	limiterSweepEvery   = time.Minute
	minLimiterIdleAfter = time.Minute
)

// RateLimitRule is a token bucket: Rate tokens per second, up to Burst.
type RateLimitRule struct {
	Rate  float64
	Burst int
}

// RateLimitConfig maps route groups to rules. Groups without a rule are not limited.
type RateLimitConfig struct {
	Rules        map[string]RateLimitRule
	DefaultGroup string
	GroupFor     func(*gin.Context) string
	Limiter      *RateLimiter
}

// RateLimiter keeps one x/time/rate limiter per principal and group. Limiters
// idle long enough to have refilled are dropped.
type RateLimiter struct {
	mu        sync.Mutex
	limiters  map[string]*limiterEntry
	now       func() time.Time
	nextSweep time.Time
}

type limiterEntry struct {
	lim       *rate.Limiter
	lastSeen  time.Time
	idleAfter time.Duration
}

// NewRateLimiter constructs a RateLimiter. A nil now uses time.Now.
func NewRateLimiter(now func() time.Time) *RateLimiter {
	if now == nil {
		now = time.Now
	}
	return &RateLimiter{
		limiters: make(map[string]*limiterEntry),
		now:      now,
	}
}

// RateLimit rejects requests over budget with 429 and a Retry-After header.
func RateLimit(cfg RateLimitConfig) gin.HandlerFunc {
	if cfg.Limiter == nil {
		cfg.Limiter = NewRateLimiter(nil)
	}
	if cfg.DefaultGroup == "" {
		cfg.DefaultGroup = defaultRateLimitGroup
	}
	return func(c *gin.Context) {
		group := cfg.DefaultGroup
		if cfg.GroupFor != nil {
			if g := strings.TrimSpace(cfg.GroupFor(c)); g != "" {
				group = g
			}
		}
		rule, ok := cfg.Rules[group]
		if !ok {
			c.Next()
			return
		}
		principal := strings.TrimSpace(UserIDFromContext(c))
		if principal == "" {
			principal = strings.TrimSpace(c.ClientIP())
		}
		allowed, retryAfter := cfg.Limiter.Allow(principal+"|"+group, rule)
		if allowed && strings.HasPrefix(principal, "guest:") {
			allowed, retryAfter = cfg.Limiter.Allow("ip:"+c.ClientIP()+"|"+group, RateLimitRule{
				Rate:  rule.Rate * guestIPFactor,
				Burst: rule.Burst * guestIPFactor,
			})
		}
		if allowed {
			c.Next()
			return
		}
		retryAfterMs := int(retryAfter / time.Millisecond)
		if retryAfterMs <= 0 {
			retryAfterMs = 1000
		}
		retryAfterSeconds := int(math.Ceil(float64(retryAfterMs) / 1000.0))
		c.Header("Retry-After", strconv.Itoa(retryAfterSeconds))
		respond.Error(c, http.StatusTooManyRequests, "rate_limited", "Too many requests", gin.H{
			"retryAfterMs": retryAfterMs,
		})
	}
}

// Allow takes one token for key and reports how long to wait when none is available.
func (l *RateLimiter) Allow(key string, rule RateLimitRule) (bool, time.Duration) {
	if l == nil || rule.Rate <= 0 || rule.Burst <= 0 {
		return true, 0
	}
	now := l.now()

	l.mu.Lock()
	if !now.Before(l.nextSweep) {
		for k, e := range l.limiters {
			if now.Sub(e.lastSeen) >= e.idleAfter {
				delete(l.limiters, k)
			}
		}
		l.nextSweep = now.Add(limiterSweepEvery)
	}
	entry, ok := l.limiters[key]
	if !ok {
		entry = &limiterEntry{
			lim:       rate.NewLimiter(rate.Limit(rule.Rate), rule.Burst),
			idleAfter: refillTime(rule),
		}
		l.limiters[key] = entry
	}
	entry.lastSeen = now
	lim := entry.lim
	l.mu.Unlock()

	res := lim.ReserveN(now, 1)
	if !res.OK() {
		return false, time.Second
	}
	delay := res.DelayFrom(now)
	if delay <= 0 {
		return true, 0
	}
	res.CancelAt(now)
	return false, delay
}

// refillTime is how long an untouched bucket takes to fill up again, floored at a minute.
func refillTime(rule RateLimitRule) time.Duration {
	d := time.Duration(float64(rule.Burst) / rule.Rate * float64(time.Second))
	if d < minLimiterIdleAfter {
		return minLimiterIdleAfter
	}
	return d
}
