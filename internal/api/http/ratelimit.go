package http

import (
	"context"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	apperrors "github.com/spec-kit/inventory-service/pkg/util/errorutil"
)

const rateLimitKeyPrefix = "rate_limit:auth:"

// defaultSweepEvery is how many new in-process buckets are created between
// sweeps of idle ones.
const defaultSweepEvery = 1024

// TooManyRequestsMessage is returned when a client exceeds the auth limit.
const TooManyRequestsMessage = "Too many requests, please try again later"

// AuthRateLimiter bounds register and login attempts per client IP. With a
// Redis client the counter is shared across instances; otherwise each process
// keeps its own token buckets, pruned as new clients arrive.
type AuthRateLimiter struct {
	redis  *redis.Client
	limit  int
	window time.Duration
	logger *zap.Logger

	mu         sync.Mutex
	limiters   map[string]*rate.Limiter
	created    int
	sweepEvery int
}

// NewAuthRateLimiter builds a limiter allowing limit requests per window.
// A nil client selects the in-process limiter.
func NewAuthRateLimiter(client *redis.Client, limit int, window time.Duration, logger *zap.Logger) *AuthRateLimiter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthRateLimiter{
		redis:      client,
		limit:      limit,
		window:     window,
		logger:     logger,
		limiters:   make(map[string]*rate.Limiter),
		sweepEvery: defaultSweepEvery,
	}
}

// Handle rejects the request with 429 once the caller is over the limit.
func (rl *AuthRateLimiter) Handle(c *fiber.Ctx) error {
	if rl.limit <= 0 {
		return c.Next()
	}
	ip := c.IP()
	if !rl.allow(c, ip) {
		rl.logger.Warn("rate limit exceeded",
			zap.String("ip", ip),
			zap.String("path", c.Path()),
			zap.String("method", c.Method()))
		return apperrors.NewTooManyRequests(TooManyRequestsMessage)
	}
	return c.Next()
}

func (rl *AuthRateLimiter) allow(c *fiber.Ctx, ip string) bool {
	if rl.redis == nil {
		return rl.localLimiter(ip).Allow()
	}
	return rl.allowShared(c.UserContext(), rateLimitKeyPrefix+ip)
}

// allowShared counts a hit in Redis. Errors fail open; an unreachable Redis
// must not lock users out. A counter left without a TTL is given one again so
// it cannot block the key forever.
func (rl *AuthRateLimiter) allowShared(ctx context.Context, key string) bool {
	count, err := rl.redis.Incr(ctx, key).Result()
	if err != nil {
		rl.logger.Warn("rate limit counter unavailable", zap.Error(err))
		return true
	}
	if count == 1 {
		if err := rl.redis.Expire(ctx, key, rl.window).Err(); err != nil {
			rl.logger.Warn("rate limit expiry failed; dropping counter", zap.String("key", key), zap.Error(err))
			rl.redis.Del(ctx, key)
			return true
		}
		return true
	}
	if count <= int64(rl.limit) {
		return true
	}

	ttl, err := rl.redis.TTL(ctx, key).Result()
	if err == nil && ttl < 0 {
		if err := rl.redis.Expire(ctx, key, rl.window).Err(); err != nil {
			rl.redis.Del(ctx, key)
			return true
		}
	}
	return false
}

func (rl *AuthRateLimiter) localLimiter(ip string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	limiter, ok := rl.limiters[ip]
	if !ok {
		rl.created++
		if rl.created%rl.sweepEvery == 0 {
			rl.sweepLocked(time.Now())
		}
		every := rate.Every(rl.window / time.Duration(rl.limit))
		limiter = rate.NewLimiter(every, rl.limit)
		rl.limiters[ip] = limiter
	}
	return limiter
}

// sweepLocked drops buckets that have refilled completely; they carry no
// state worth keeping. Callers hold rl.mu.
func (rl *AuthRateLimiter) sweepLocked(now time.Time) {
	for ip, limiter := range rl.limiters {
		if limiter.TokensAt(now) >= float64(rl.limit) {
			delete(rl.limiters, ip)
		}
	}
}
