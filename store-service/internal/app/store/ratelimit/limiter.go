package ratelimit

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"storefront/pkg/logger"
	"storefront/pkg/metrics"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

const (
	serviceName = "store-service"
	keyPrefix   = "ratelimit"
)

// Policy - именованный лимит запросов на окно для группы маршрутов
type Policy struct {
	Name  string
	Limit int
}

// Result - итог проверки одного запроса
type Result struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetIn   time.Duration
}

// Limiter - fixed window счётчик в Redis.
// Создаётся один раз в main и внедряется в роутер, глобального состояния нет
type Limiter struct {
	client  *redis.Client
	window  time.Duration
	enabled bool
	now     func() time.Time
}

func NewLimiter(client *redis.Client, window time.Duration, enabled bool) *Limiter {
	return &Limiter{
		client:  client,
		window:  window,
		enabled: enabled,
		now:     time.Now,
	}
}

// Allow увеличивает счётчик окна для (policy, key) и сравнивает с лимитом
func (l *Limiter) Allow(ctx context.Context, policy Policy, key string) (Result, error) {
	now := l.now()
	windowStart := now.Truncate(l.window)
	resetIn := windowStart.Add(l.window).Sub(now)
	redisKey := fmt.Sprintf("%s:%s:%s:%d", keyPrefix, policy.Name, key, windowStart.Unix())

	timer := metrics.NewRedisTimer(serviceName, metrics.RedisOpIncr)
	pipe := l.client.TxPipeline()
	incr := pipe.Incr(ctx, redisKey)
	pipe.Expire(ctx, redisKey, l.window)
	_, err := pipe.Exec(ctx)
	timer.ObserveDuration()

	if err != nil {
		metrics.RecordRedisError(serviceName, metrics.RedisOpIncr)
		return Result{Allowed: true, Limit: policy.Limit, Remaining: policy.Limit, ResetIn: resetIn}, fmt.Errorf("failed to increment rate limit counter: %w", err)
	}

	count := int(incr.Val())
	remaining := policy.Limit - count
	if remaining < 0 {
		remaining = 0
	}

	return Result{
		Allowed:   count <= policy.Limit,
		Limit:     policy.Limit,
		Remaining: remaining,
		ResetIn:   resetIn,
	}, nil
}

// Middleware ограничивает запросы по IP клиента.
// При недоступности Redis запрос пропускается
func (l *Limiter) Middleware(policy Policy) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !l.enabled || policy.Limit <= 0 {
			c.Next()
			return
		}

		result, err := l.Allow(c.Request.Context(), policy, c.ClientIP())
		if err != nil {
			logger.Warn().
				Err(err).
				Str("request_id", logger.RequestID(c)).
				Str("policy", policy.Name).
				Msg("rate limiter unavailable, allowing request")
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(result.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
		c.Header("X-RateLimit-Reset", strconv.Itoa(int(result.ResetIn.Seconds())))

		if !result.Allowed {
			metrics.RateLimitRejections.WithLabelValues(serviceName, policy.Name).Inc()
			c.Header("Retry-After", strconv.Itoa(int(result.ResetIn.Seconds())))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":     "Too many requests, please try again later.",
				"requestId": logger.RequestID(c),
			})
			return
		}

		c.Next()
	}
}
