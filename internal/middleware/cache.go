package middleware

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/parking-reservation/internal/config"
)

// NewRedisCache returns a middleware that serves whole responses out of
// Redis. It wraps the anonymous browse and availability routes so repeat
// reads skip MySQL entirely. Only 200 responses are stored; errors and
// 404s always reach the handler. With caching disabled or no Redis client
// the middleware is a pass-through.
func NewRedisCache(cfg config.CacheConfig, rdb *redis.Client) echo.MiddlewareFunc {
	if !cfg.Enabled || rdb == nil {
		return func(next echo.HandlerFunc) echo.HandlerFunc {
			return func(c echo.Context) error { return next(c) }
		}
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = time.Minute
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !cfg.Methods[strings.ToUpper(c.Request().Method)] {
				return next(c)
			}

			key := responseCacheKey(cfg, c)
			if blob, err := rdb.Get(c.Request().Context(), key).Bytes(); err == nil {
				if replayResponse(c, blob) {
					return nil
				}
			}

			rec := &responseRecorder{
				ResponseWriter: c.Response().Writer,
				status:         http.StatusOK,
				cap:            int64(cfg.MaxBodyBytes),
			}
			c.Response().Writer = rec
			c.Response().Header().Set("X-Cache", "MISS")

			if err := next(c); err != nil {
				return err
			}
			if rec.status != http.StatusOK || rec.overflowed() {
				return nil
			}

			blob := packResponse(rec.status, c.Response().Header(), rec.body.Bytes())
			// Write-behind on a fresh context: the client response is done.
			_ = rdb.SetEx(context.Background(), key, blob, ttl).Err()
			return nil
		}
	}
}

// responseRecorder tees the response body into a buffer while streaming it
// to the client. Bodies larger than cap are passed through uncached.
type responseRecorder struct {
	http.ResponseWriter
	status  int
	body    bytes.Buffer
	written int64
	cap     int64
}

func (r *responseRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *responseRecorder) Write(b []byte) (int, error) {
	r.written += int64(len(b))
	if !r.overflowed() {
		r.body.Write(b)
	}
	return r.ResponseWriter.Write(b)
}

func (r *responseRecorder) overflowed() bool {
	return r.cap > 0 && r.written > r.cap
}

// responseCacheKey derives the Redis key for a request. The strategy
// decides which request attributes participate; the default folds in the
// query string so /v1/parking?city=Pune and /v1/parking cache separately.
// The variable part is hashed so keys stay short and opaque.
func responseCacheKey(cfg config.CacheConfig, c echo.Context) string {
	var raw string
	switch strings.ToLower(cfg.KeyStrategy) {
	case "route":
		raw = c.Path()
	case "method_route":
		raw = c.Request().Method + "|" + c.Path()
	case "method_route_query":
		raw = c.Request().Method + "|" + c.Path() + "|" + c.Request().URL.RawQuery
	default: // route_query
		raw = c.Path() + "|" + c.Request().URL.RawQuery
	}
	sum := sha1.Sum([]byte(raw))
	return fmt.Sprintf("%s:%x", cfg.Prefix, sum)
}

// Cached payload layout: status (4 bytes) | header length (4 bytes) |
// header JSON | body. A payload that fails to parse is treated as a miss
// and overwritten on the way out.

func packResponse(status int, header http.Header, body []byte) []byte {
	hdr, _ := json.Marshal(header)
	out := make([]byte, 8, 8+len(hdr)+len(body))
	binary.BigEndian.PutUint32(out[0:4], uint32(status))
	binary.BigEndian.PutUint32(out[4:8], uint32(len(hdr)))
	out = append(out, hdr...)
	return append(out, body...)
}

// replayResponse writes a stored payload back to the client. It reports
// false when the payload is malformed so the caller falls through to the
// handler.
func replayResponse(c echo.Context, blob []byte) bool {
	if len(blob) < 8 {
		return false
	}
	status := int(binary.BigEndian.Uint32(blob[0:4]))
	hlen := int(binary.BigEndian.Uint32(blob[4:8]))
	if hlen < 0 || 8+hlen > len(blob) {
		return false
	}
	header := make(http.Header)
	if hlen > 0 {
		if err := json.Unmarshal(blob[8:8+hlen], &header); err != nil {
			return false
		}
	}
	for k, vals := range header {
		if strings.EqualFold(k, "Content-Length") {
			continue // recomputed for the replayed body
		}
		for _, v := range vals {
			c.Response().Header().Add(k, v)
		}
	}
	c.Response().Header().Set("X-Cache", "HIT")
	c.Response().WriteHeader(status)
	if body := blob[8+hlen:]; len(body) > 0 {
		_, _ = c.Response().Write(body)
	}
	return true
}
