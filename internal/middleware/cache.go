package middleware

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/thirdeyesoft/portal-backend/internal/config"
)

// cachedResponse is the envelope stored in Redis.  Headers are kept so a hit
// replays byte-identical output, Content-Type included.
type cachedResponse struct {
	Status int         `json:"status"`
	Header http.Header `json:"header"`
	Body   []byte      `json:"body"`
}

// teeWriter copies the response body up to a size cap while streaming it to
// the client unchanged.
type teeWriter struct {
	http.ResponseWriter
	status  int
	buf     bytes.Buffer
	written int64
	cap     int64
}

func (w *teeWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *teeWriter) Write(b []byte) (int, error) {
	if w.cap <= 0 {
		w.buf.Write(b)
	} else if w.written < w.cap {
		room := w.cap - w.written
		if int64(len(b)) < room {
			room = int64(len(b))
		}
		w.buf.Write(b[:room])
	}
	w.written += int64(len(b))
	return w.ResponseWriter.Write(b)
}

// overflowed reports that the body outgrew the cap, so the capture is partial
// and must not be stored.
func (w *teeWriter) overflowed() bool { return w.cap > 0 && w.written > w.cap }

func cacheKey(cfg config.CacheConfig, c echo.Context) string {
	r := c.Request()
	var sig string
	switch strings.ToLower(cfg.KeyStrategy) {
	case "route":
		sig = c.Path()
	case "method_route":
		sig = r.Method + ":" + c.Path()
	case "method_route_query":
		sig = r.Method + ":" + c.Path() + "?" + r.URL.RawQuery
	default: // route_query
		sig = c.Path() + "?" + r.URL.RawQuery
	}
	sum := sha1.Sum([]byte(sig))
	return fmt.Sprintf("%s:%x", cfg.Prefix, sum)
}

// NewRedisCache returns a response cache for the public storefront listings
// (products, services, gallery, news, rasi palan).  Only configured methods
// with a 200 response are stored; authenticated routes never sit behind it.
// A nil Redis client disables caching.
func NewRedisCache(cfg config.CacheConfig, rdb *redis.Client) echo.MiddlewareFunc {
	if !cfg.Enabled || rdb == nil {
		return passThrough
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
			key := cacheKey(cfg, c)

			if raw, err := rdb.Get(c.Request().Context(), key).Bytes(); err == nil {
				var hit cachedResponse
				if json.Unmarshal(raw, &hit) == nil {
					for k, vals := range hit.Header {
						if strings.EqualFold(k, "Content-Length") {
							continue
						}
						for _, v := range vals {
							c.Response().Header().Add(k, v)
						}
					}
					c.Response().Header().Set("X-Cache", "HIT")
					c.Response().WriteHeader(hit.Status)
					_, _ = c.Response().Write(hit.Body)
					return nil
				}
			}

			tee := &teeWriter{ResponseWriter: c.Response().Writer, status: http.StatusOK, cap: int64(cfg.MaxBodyBytes)}
			c.Response().Writer = tee
			c.Response().Header().Set("X-Cache", "MISS")

			if err := next(c); err != nil {
				return err
			}

			if tee.status == http.StatusOK && !tee.overflowed() {
				entry := cachedResponse{
					Status: tee.status,
					Header: c.Response().Header().Clone(),
					Body:   tee.buf.Bytes(),
				}
				if payload, err := json.Marshal(entry); err == nil {
					// The request context may already be done by now.
					_ = rdb.SetEx(context.Background(), key, payload, ttl).Err()
				}
			}
			return nil
		}
	}
}
