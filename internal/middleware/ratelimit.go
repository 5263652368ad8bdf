package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/parking-reservation/internal/config"
)

// bucketScript implements a token bucket in Redis. State is a hash of
// (tokens, last_refill_ms) shared by every app instance, so one budget
// covers the whole deployment. Running the refill and the take in Lua
// keeps the read-modify-write atomic without WATCH retries.
//
// Returns {allowed, tokens_left, retry_after_ms}.
var bucketScript = redis.NewScript(`
	local tokens, last = unpack(redis.call('HMGET', KEYS[1], 'tokens', 'last_refill_ms'))
	local now_ms   = tonumber(ARGV[1])
	local capacity = tonumber(ARGV[2])
	local refill   = tonumber(ARGV[3])
	local step_ms  = tonumber(ARGV[4])

	tokens = tonumber(tokens)
	last   = tonumber(last)
	if tokens == nil or last == nil then
		tokens = capacity
		last = now_ms
	end

	if step_ms > 0 and refill > 0 then
		local steps = math.floor(math.max(0, now_ms - last) / step_ms)
		if steps > 0 then
			tokens = math.min(capacity, tokens + steps * refill)
			last = last + steps * step_ms
		end
	end

	local allowed, wait_ms = 0, 0
	if tokens > 0 then
		allowed = 1
		tokens = tokens - 1
	else
		wait_ms = math.max(0, step_ms - (now_ms - last))
	end

	redis.call('HMSET', KEYS[1], 'tokens', tokens, 'last_refill_ms', last)
	redis.call('EXPIRE', KEYS[1], tonumber(ARGV[5]))
	return {allowed, tokens, wait_ms}
`)

// NewTokenBucket returns a Redis-backed rate limiting middleware. A Redis
// failure or a nil client never blocks traffic: the limiter fails open so
// an outage degrades to "unlimited", not "down".
func NewTokenBucket(cfg config.RateLimitConfig, rdb *redis.Client) echo.MiddlewareFunc {
	if !cfg.Enabled || rdb == nil {
		return func(next echo.HandlerFunc) echo.HandlerFunc {
			return func(c echo.Context) error { return next(c) }
		}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := rateKey(cfg, c)
			res, err := bucketScript.Run(c.Request().Context(), rdb, []string{key},
				time.Now().UnixMilli(),
				cfg.Capacity,
				cfg.RefillTokens,
				cfg.RefillInterval.Milliseconds(),
				int64(cfg.TTL.Seconds()),
			).Int64Slice()
			if err != nil || len(res) != 3 {
				if cfg.Debug {
					c.Logger().Warnf("ratelimit: script failed for %s: %v", key, err)
				}
				return next(c)
			}
			allowed, remaining, waitMs := res[0] == 1, res[1], res[2]

			h := c.Response().Header()
			h.Set("X-RateLimit-Limit", strconv.Itoa(cfg.Capacity))
			h.Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))
			if cfg.Debug {
				h.Set("X-RateLimit-Key", key)
			}

			if !allowed {
				secs := (waitMs + 999) / 1000
				h.Set("Retry-After", strconv.FormatInt(secs, 10))
				return c.JSON(http.StatusTooManyRequests, echo.Map{
					"error":       "too_many_requests",
					"message":     "rate limit exceeded",
					"retry_after": secs,
				})
			}
			return next(c)
		}
	}
}

// rateKey names the bucket a request draws from. The default strategy
// buckets by ip+user+route so one hot client cannot starve the public
// browse endpoints for everyone behind the same NAT.
func rateKey(cfg config.RateLimitConfig, c echo.Context) string {
	ip := c.RealIP()
	if ip == "" {
		ip = "unknown"
	}
	user := "anon"
	if id, ok := contextUserID(c); ok {
		user = strconv.FormatUint(id, 10)
	}
	route := c.Request().Method + " " + c.Path()

	parts := []string{cfg.Prefix}
	switch strings.ToLower(cfg.KeyStrategy) {
	case "ip":
		parts = append(parts, "ip", ip)
	case "user":
		parts = append(parts, "user", user)
	case "route":
		parts = append(parts, "route", route)
	case "ip_user":
		parts = append(parts, "ip", ip, "user", user)
	case "ip_route":
		parts = append(parts, "ip", ip, "route", route)
	case "user_route":
		parts = append(parts, "user", user, "route", route)
	default:
		parts = append(parts, "ip", ip, "user", user, "route", route)
	}
	return strings.Join(parts, ":")
}
