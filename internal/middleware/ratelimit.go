package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/cinereview/internal/config"
)

// takeScript refills the bucket in whole intervals and takes one token.
// Reply: {allowed, remaining, wait_ms}.
var takeScript = redis.NewScript(`
local cap, per, every, now, ttl =
	tonumber(ARGV[1]), tonumber(ARGV[2]), tonumber(ARGV[3]), tonumber(ARGV[4]), tonumber(ARGV[5])
local b = redis.call('HMGET', KEYS[1], 't', 'ts')
local tokens = tonumber(b[1]) or cap
local ts = tonumber(b[2]) or now

local steps = math.floor(math.max(0, now - ts) / every)
if steps > 0 then
	tokens = math.min(cap, tokens + steps * per)
	ts = ts + steps * every
end

local allowed, wait = 0, 0
if tokens >= 1 then
	allowed = 1
	tokens = tokens - 1
else
	wait = math.max(0, every - (now - ts))
end

redis.call('HSET', KEYS[1], 't', tokens, 'ts', ts)
redis.call('EXPIRE', KEYS[1], ttl)
return {allowed, tokens, wait}
`)

// Decision is the outcome of one Take.
type Decision struct {
	Allowed    bool
	Remaining  int64
	RetryAfter time.Duration
}

// Limiter is a token bucket kept in Redis, so every API replica draws from
// the same buckets.
type Limiter struct {
	cfg config.RateLimitConfig
	rdb *redis.Client
	log logrus.FieldLogger
}

// NewLimiter returns a limiter over rdb.  cfg is expected to be normalised.
func NewLimiter(cfg config.RateLimitConfig, rdb *redis.Client, log logrus.FieldLogger) *Limiter {
	return &Limiter{cfg: cfg, rdb: rdb, log: log}
}

// Take draws one token from the bucket at key.
func (l *Limiter) Take(ctx context.Context, key string) (Decision, error) {
	vals, err := takeScript.Run(ctx, l.rdb, []string{key},
		l.cfg.Capacity,
		l.cfg.RefillTokens,
		l.cfg.RefillInterval.Milliseconds(),
		time.Now().UnixMilli(),
		int64(l.cfg.TTL/time.Second),
	).Int64Slice()
	if err != nil {
		return Decision{}, err
	}
	if len(vals) != 3 {
		return Decision{}, fmt.Errorf("ratelimit: unexpected reply %v", vals)
	}
	return Decision{
		Allowed:    vals[0] == 1,
		Remaining:  vals[1],
		RetryAfter: time.Duration(vals[2]) * time.Millisecond,
	}, nil
}

// Middleware rejects callers whose bucket is empty with 429.  A Redis
// failure lets the request through.
func (l *Limiter) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := rateKey(l.cfg, c)
			d, err := l.Take(c.Request().Context(), key)
			if err != nil {
				l.log.WithError(err).WithField("key", key).Warn("ratelimit: skipped")
				return next(c)
			}

			h := c.Response().Header()
			h.Set("X-RateLimit-Limit", strconv.Itoa(l.cfg.Capacity))
			h.Set("X-RateLimit-Remaining", strconv.FormatInt(d.Remaining, 10))
			if l.cfg.Debug {
				h.Set("X-RateLimit-Key", key)
			}
			if d.Allowed {
				return next(c)
			}

			secs := int((d.RetryAfter + time.Second - 1) / time.Second)
			h.Set(echo.HeaderRetryAfter, strconv.Itoa(secs))
			l.log.WithFields(logrus.Fields{"key": key, "retry_after": secs}).Debug("ratelimit: blocked")
			return c.JSON(http.StatusTooManyRequests, echo.Map{
				"message":     "Too many requests, slow down.",
				"retry_after": secs,
			})
		}
	}
}

// NewTokenBucket is the route middleware used by the router.  It is a no-op
// when limiting is disabled or Redis is absent.  Place it after
// Authenticate to key by user; before that every caller is "anon".
func NewTokenBucket(cfg config.RateLimitConfig, rdb *redis.Client, log logrus.FieldLogger) echo.MiddlewareFunc {
	if !cfg.Enabled || rdb == nil {
		return passThrough
	}
	return NewLimiter(cfg, rdb, log).Middleware()
}

// rateKey joins the parts named by the key strategy, e.g. "ip_route" keys
// by client address and route pattern.  A strategy naming no known part
// falls back to ip, user and route.
func rateKey(cfg config.RateLimitConfig, c echo.Context) string {
	parts := []string{cfg.Prefix}
	for _, p := range strings.Split(strings.ToLower(cfg.KeyStrategy), "_") {
		switch p {
		case "ip":
			ip := c.RealIP()
			if ip == "" {
				ip = "unknown"
			}
			parts = append(parts, "ip", ip)
		case "user":
			parts = append(parts, "user", userID(c))
		case "route":
			parts = append(parts, "route", c.Request().Method+" "+c.Path())
		}
	}
	if len(parts) == 1 {
		return rateKey(config.RateLimitConfig{Prefix: cfg.Prefix, KeyStrategy: "ip_user_route"}, c)
	}
	return strings.Join(parts, ":")
}
