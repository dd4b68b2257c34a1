package middleware

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"myvillage-api/pkg/metrics"
	"myvillage-api/pkg/utils"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Limiter counts hits for a key inside a fixed window.
type Limiter interface {
	// Hit increments the counter for key and reports the current count and
	// the time left until the window resets.
	Hit(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error)
}

// RedisLimiter is a fixed-window counter backed by INCR + EXPIRE.
type RedisLimiter struct {
	client *redis.Client
	prefix string
}

func NewRedisLimiter(client *redis.Client, prefix string) *RedisLimiter {
	if prefix == "" {
		prefix = "ratelimit"
	}
	return &RedisLimiter{client: client, prefix: prefix}
}

func (l *RedisLimiter) Hit(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	fullKey := l.prefix + ":" + key

	pipe := l.client.TxPipeline()
	incr := pipe.Incr(ctx, fullKey)
	pipe.ExpireNX(ctx, fullKey, window)
	ttl := pipe.PTTL(ctx, fullKey)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, 0, fmt.Errorf("rate limit hit %s: %w", key, err)
	}

	left := ttl.Val()
	if left < 0 {
		left = window
	}
	return incr.Val(), left, nil
}

// KeyFunc derives the bucket key for a request. An empty key skips limiting.
type KeyFunc func(r *http.Request) string

// KeyByIP buckets requests by client address.
func KeyByIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// KeyByUser buckets requests by authenticated user and falls back to IP.
func KeyByUser(r *http.Request) string {
	if userID, ok := utils.GetUserIDFromContext(r.Context()); ok {
		return "user:" + userID.String()
	}
	return KeyByIP(r)
}

// RateLimitRule describes one limit.
type RateLimitRule struct {
	Name    string
	Limit   int64
	Window  time.Duration
	Key     KeyFunc
	Message string
}

// RateLimit enforces rule using limiter. A nil limiter disables limiting and
// limiter errors let the request through.
func RateLimit(limiter Limiter, rule RateLimitRule, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if limiter == nil || rule.Limit <= 0 {
			return next
		}
		keyFn := rule.Key
		if keyFn == nil {
			keyFn = KeyByIP
		}
		msg := rule.Message
		if msg == "" {
			msg = "Too many requests, please try again later"
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := keyFn(r)
			if key == "" {
				next.ServeHTTP(w, r)
				return
			}

			count, resetIn, err := limiter.Hit(r.Context(), rule.Name+":"+key, rule.Window)
			if err != nil {
				logger.Warn("Rate limiter unavailable, allowing request",
					zap.String("rule", rule.Name),
					zap.Error(err))
				next.ServeHTTP(w, r)
				return
			}

			remaining := rule.Limit - count
			if remaining < 0 {
				remaining = 0
			}
			w.Header().Set("X-RateLimit-Limit", strconv.FormatInt(rule.Limit, 10))
			w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))

			if count > rule.Limit {
				metrics.RateLimitRejections.WithLabelValues(rule.Name).Inc()
				w.Header().Set("Retry-After", strconv.Itoa(int(resetIn.Round(time.Second)/time.Second)))
				utils.ResponseTooManyRequests(w, msg)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
