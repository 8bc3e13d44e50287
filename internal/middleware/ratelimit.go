package middleware

import (
	"fmt"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v3"

	"github.com/mathieu-neron/ProductVote/productvote-go/internal/common"
	"github.com/mathieu-neron/ProductVote/productvote-go/internal/ratelimit"
	"github.com/mathieu-neron/ProductVote/productvote-go/pkg/hash"
)

// RateLimitKey returns the identity a request is counted against: the
// authenticated user when there is one, otherwise the hashed client IP.
func RateLimitKey(c fiber.Ctx) string {
	if actor, ok := ActorFrom(c); ok {
		return "user:" + actor.UserID
	}
	return "ip:" + hash.ShortHash(c.IP(), 16)
}

// NewRateLimit returns a middleware that counts every request against l
// under action. It sets X-RateLimit-* headers and answers 429 once the
// window budget is spent.
func NewRateLimit(l ratelimit.Limiter, action string) fiber.Handler {
	return func(c fiber.Ctx) error {
		key := ratelimit.Key(action, RateLimitKey(c))
		allowed := l.Allow(key)
		resetAt := l.ResetAt(key)

		setRateLimitHeaders(c, l.Max(), l.Remaining(key), resetAt)

		if !allowed {
			return RateLimited(c, &common.RateLimitError{Action: action, ResetAt: resetAt})
		}
		return c.Next()
	}
}

// RateLimited writes the 429 response for a denied request.
func RateLimited(c fiber.Ctx, rle *common.RateLimitError) error {
	retryAfter := int(rle.RetryAfter(time.Now()) / time.Second)
	c.Set(fiber.HeaderRetryAfter, strconv.Itoa(retryAfter))
	return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
		"error": fiber.Map{
			"code":       "RATE_LIMITED",
			"message":    fmt.Sprintf("Too many requests. Try again in %d seconds.", retryAfter),
			"retryAfter": retryAfter,
		},
	})
}

func setRateLimitHeaders(c fiber.Ctx, limit, remaining int, resetAt time.Time) {
	c.Set("X-RateLimit-Limit", strconv.Itoa(limit))
	c.Set("X-RateLimit-Remaining", strconv.Itoa(max(remaining, 0)))
	if !resetAt.IsZero() {
		c.Set("X-RateLimit-Reset", strconv.FormatInt(resetAt.Unix(), 10))
	}
}
