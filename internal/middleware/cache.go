package middleware

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/hex"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/cinereview/internal/config"
)

const purgeBatch = 200

// ResponseCache keeps successful catalog reads in Redis and drops them all
// when the catalog changes.  Each entry is a hash holding the status, the
// content type and the body.  With no client or caching disabled both
// middlewares are pass-through.
type ResponseCache struct {
	cfg config.CacheConfig
	rdb *redis.Client
	log logrus.FieldLogger
}

// NewResponseCache returns a cache over rdb, which may be nil.
func NewResponseCache(cfg config.CacheConfig, rdb *redis.Client, log logrus.FieldLogger) *ResponseCache {
	return &ResponseCache{cfg: cfg, rdb: rdb, log: log}
}

func (rc *ResponseCache) active() bool { return rc != nil && rc.cfg.Enabled && rc.rdb != nil }

// Serve answers from the cache (X-Cache: HIT) or runs the handler and
// stores a 200 reply (X-Cache: MISS).
func (rc *ResponseCache) Serve() echo.MiddlewareFunc {
	if !rc.active() {
		return passThrough
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !rc.cfg.Caches(c.Request().Method) {
				return next(c)
			}
			ctx := c.Request().Context()
			key := rc.key(c)

			if entry, err := rc.rdb.HGetAll(ctx, key).Result(); err == nil && len(entry) > 0 {
				if status, err := strconv.Atoi(entry["status"]); err == nil {
					c.Response().Header().Set("X-Cache", "HIT")
					return c.Blob(status, entry["type"], []byte(entry["body"]))
				}
			}

			tee := &teeWriter{ResponseWriter: c.Response().Writer, status: http.StatusOK, limit: int64(rc.cfg.MaxBodyBytes)}
			c.Response().Writer = tee
			c.Response().Header().Set("X-Cache", "MISS")
			if err := next(c); err != nil {
				return err
			}
			if tee.status != http.StatusOK || tee.overflow {
				return nil
			}
			rc.store(context.WithoutCancel(ctx), key, tee.status, c.Response().Header().Get(echo.HeaderContentType), tee.buf.Bytes())
			return nil
		}
	}
}

func (rc *ResponseCache) store(ctx context.Context, key string, status int, contentType string, body []byte) {
	_, err := rc.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.HSet(ctx, key, "status", status, "type", contentType, "body", body)
		p.Expire(ctx, key, rc.cfg.TTL)
		return nil
	})
	if err != nil {
		rc.log.WithError(err).WithField("key", key).Warn("cache store")
	}
}

// PurgeOnSuccess drops the whole cache after a write that succeeded.
func (rc *ResponseCache) PurgeOnSuccess() echo.MiddlewareFunc {
	if !rc.active() {
		return passThrough
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if err := next(c); err != nil {
				return err
			}
			if c.Response().Status >= http.StatusBadRequest {
				return nil
			}
			if err := rc.Purge(context.WithoutCancel(c.Request().Context())); err != nil {
				rc.log.WithError(err).Warn("cache purge")
			}
			return nil
		}
	}
}

// Purge deletes every entry under the cache prefix.
func (rc *ResponseCache) Purge(ctx context.Context) error {
	if !rc.active() {
		return nil
	}
	iter := rc.rdb.Scan(ctx, 0, rc.cfg.Prefix+":*", purgeBatch).Iterator()
	keys := make([]string, 0, purgeBatch)
	flush := func() error {
		if len(keys) == 0 {
			return nil
		}
		err := rc.rdb.Del(ctx, keys...).Err()
		keys = keys[:0]
		return err
	}
	for iter.Next(ctx) {
		if keys = append(keys, iter.Val()); len(keys) == purgeBatch {
			if err := flush(); err != nil {
				return err
			}
		}
	}
	if err := iter.Err(); err != nil {
		return err
	}
	return flush()
}

// key hashes the request parts named by the key strategy.  The concrete
// path is always part of it since a route pattern is shared by every id.
func (rc *ResponseCache) key(c echo.Context) string {
	r := c.Request()
	parts := []string{"path", r.URL.Path}
	for _, p := range strings.Split(strings.ToLower(rc.cfg.KeyStrategy), "_") {
		switch p {
		case "method":
			parts = append(parts, "method", r.Method)
		case "route":
			parts = append(parts, "route", c.Path())
		case "query":
			parts = append(parts, "q", r.URL.RawQuery)
		}
	}
	sum := sha1.Sum([]byte(strings.Join(parts, "\x00")))
	return rc.cfg.Prefix + ":" + hex.EncodeToString(sum[:])
}

// teeWriter forwards the response and keeps a copy of up to limit bytes of
// the body.  limit <= 0 means unbounded.
type teeWriter struct {
	http.ResponseWriter
	status   int
	buf      bytes.Buffer
	limit    int64
	overflow bool
}

func (w *teeWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *teeWriter) Write(b []byte) (int, error) {
	if !w.overflow {
		if w.limit > 0 && int64(w.buf.Len()+len(b)) > w.limit {
			w.overflow = true
			w.buf.Reset()
		} else {
			w.buf.Write(b)
		}
	}
	return w.ResponseWriter.Write(b)
}

func passThrough(next echo.HandlerFunc) echo.HandlerFunc { return next }
