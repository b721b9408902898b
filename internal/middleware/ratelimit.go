package middleware

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/health-member-services/internal/config"
)

// takeToken refills the bucket in KEYS[1] by whole intervals and takes one
// token from it.
//
//	ARGV: now_ms, capacity, refill_tokens, interval_ms, ttl_ms
//	returns {allowed 0|1, tokens left, ms until the next refill}
var takeToken = redis.NewScript(`
local now, cap, refill, every, ttl =
  tonumber(ARGV[1]), tonumber(ARGV[2]), tonumber(ARGV[3]), tonumber(ARGV[4]), tonumber(ARGV[5])
local b = redis.call('HMGET', KEYS[1], 't', 'ts')
local tokens, ts = tonumber(b[1]), tonumber(b[2])
if tokens == nil or ts == nil then
  tokens, ts = cap, now
end
local n = math.floor(math.max(0, now - ts) / every)
if n > 0 then
  tokens = math.min(cap, tokens + n * refill)
  ts = ts + n * every
end
local allowed, wait = 0, 0
if tokens > 0 then
  allowed, tokens = 1, tokens - 1
else
  wait = math.max(0, every - (now - ts))
end
redis.call('HSET', KEYS[1], 't', tokens, 'ts', ts)
redis.call('PEXPIRE', KEYS[1], ttl)
return {allowed, tokens, wait}
`)

// bucket is the size and refill pace of one family of keys.
type bucket struct {
	capacity int
	refill   int
	every    time.Duration
}

type verdict struct {
	allowed   bool
	remaining int64
	retry     time.Duration
}

// Limiter throttles the write endpoints with token buckets kept in Redis.
// A nil *Limiter, a disabled config or a nil client let every request
// through, and so does any Redis error.
type Limiter struct {
	cfg config.RateLimitConfig
	rdb *redis.Client
}

func NewLimiter(cfg config.RateLimitConfig, rdb *redis.Client) *Limiter {
	if cfg.TTL <= 0 {
		cfg.TTL = 10 * time.Minute
	}
	return &Limiter{cfg: cfg, rdb: rdb}
}

func (l *Limiter) enabled() bool {
	return l != nil && l.cfg.Enabled && l.rdb != nil
}

func (l *Limiter) take(ctx context.Context, key string, b bucket) (verdict, error) {
	res, err := takeToken.Run(ctx, l.rdb, []string{key},
		time.Now().UnixMilli(), b.capacity, b.refill, b.every.Milliseconds(), l.cfg.TTL.Milliseconds(),
	).Int64Slice()
	if err != nil {
		return verdict{}, err
	}
	if len(res) != 3 {
		return verdict{}, fmt.Errorf("unexpected token bucket reply %v", res)
	}
	return verdict{
		allowed:   res[0] == 1,
		remaining: res[1],
		retry:     time.Duration(res[2]) * time.Millisecond,
	}, nil
}

// tooMany answers a blocked request.
func tooMany(c echo.Context, v verdict) error {
	secs := (v.retry + time.Second - 1) / time.Second
	c.Response().Header().Set("Retry-After", strconv.Itoa(int(secs)))
	return c.String(http.StatusTooManyRequests, http.StatusText(http.StatusTooManyRequests))
}

// Middleware keys the bucket by client address and/or route, per
// KeyStrategy, and reports the bucket state in X-RateLimit-* headers.
func (l *Limiter) Middleware() echo.MiddlewareFunc {
	if !l.enabled() {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	b := bucket{capacity: l.cfg.Capacity, refill: l.cfg.RefillTokens, every: l.cfg.RefillInterval}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := buildRateKey(l.cfg, c)
			v, err := l.take(c.Request().Context(), key, b)
			if err != nil {
				c.Logger().Warnf("ratelimit: %s: %v", key, err)
				return next(c)
			}
			h := c.Response().Header()
			h.Set("X-RateLimit-Limit", strconv.Itoa(b.capacity))
			h.Set("X-RateLimit-Remaining", strconv.FormatInt(v.remaining, 10))
			if l.cfg.Debug {
				h.Set("X-RateLimit-Key", key)
			}
			if !v.allowed {
				return tooMany(c, v)
			}
			return next(c)
		}
	}
}

// PerAccount adds a bucket keyed by the string in the JSON body's field
// (the username on login), whatever address the request comes from.
// Requests without a usable value skip it; the handler rejects them.
func (l *Limiter) PerAccount(field string) echo.MiddlewareFunc {
	if !l.enabled() {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	b := bucket{capacity: l.cfg.AccountCapacity, refill: 1, every: l.cfg.AccountRefillInterval}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			account, ok := peekField(c, field)
			if !ok {
				return next(c)
			}
			key := buildAccountKey(l.cfg, c, account)
			v, err := l.take(c.Request().Context(), key, b)
			if err != nil {
				c.Logger().Warnf("ratelimit: %s: %v", key, err)
				return next(c)
			}
			if !v.allowed {
				c.Logger().Warnf("ratelimit: account bucket exhausted on %s %s", c.Request().Method, c.Path())
				return tooMany(c, v)
			}
			return next(c)
		}
	}
}

// maxPeekBytes caps how much of a body PerAccount buffers.
const maxPeekBytes = 64 << 10

// peekField reads a string field from the JSON body and puts the body back
// for the handler.
func peekField(c echo.Context, field string) (string, bool) {
	req := c.Request()
	if req.Body == nil {
		return "", false
	}
	head, err := io.ReadAll(io.LimitReader(req.Body, maxPeekBytes))
	req.Body = struct {
		io.Reader
		io.Closer
	}{io.MultiReader(bytes.NewReader(head), req.Body), req.Body}
	if err != nil {
		return "", false
	}
	var doc map[string]any
	if json.Unmarshal(head, &doc) != nil {
		return "", false
	}
	s, ok := doc[field].(string)
	return s, ok && s != ""
}

// buildRateKey keys the bucket by client address, route or both.
func buildRateKey(cfg config.RateLimitConfig, c echo.Context) string {
	ip := c.RealIP()
	if ip == "" {
		ip = "unknown"
	}
	route := c.Request().Method + " " + c.Path()

	switch strings.ToLower(cfg.KeyStrategy) {
	case "ip":
		return strings.Join([]string{cfg.Prefix, "ip", ip}, ":")
	case "route":
		return strings.Join([]string{cfg.Prefix, "route", route}, ":")
	default: // "ip_route"
		return strings.Join([]string{cfg.Prefix, "ip", ip, "route", route}, ":")
	}
}

// buildAccountKey keys the bucket by route and a digest of account, so raw
// usernames never end up in Redis key names.
func buildAccountKey(cfg config.RateLimitConfig, c echo.Context, account string) string {
	sum := sha1.Sum([]byte(account))
	return fmt.Sprintf("%s:account:%s %s:%x", cfg.Prefix, c.Request().Method, c.Path(), sum[:])
}
