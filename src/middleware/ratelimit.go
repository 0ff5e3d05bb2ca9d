package middleware

import (
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

// stopOrderWeight is the token cost charged against a client's window for a
// STOP or STOP_LIMIT submission, versus 1 for every other request. A
// triggered stop can itself fan out into a matching cascade bounded by the
// engine's max cascade depth, so it is priced heavier than a plain
// Market/Limit order at the rate-limiting layer too.
const stopOrderWeight = 3

type RateLimiter struct {
	maxRequests    int
	windowDuration time.Duration
	counters       map[string]int
	mu             sync.Mutex
}

func NewRateLimiter(maxRequests int, windowDuration time.Duration) *RateLimiter {
	return &RateLimiter{
		maxRequests:    maxRequests,
		windowDuration: windowDuration,
		counters:       make(map[string]int),
	}
}

func (rl *RateLimiter) getClientID(c *fiber.Ctx) string {
	ip := c.Get("X-Forwarded-For")
	if ip == "" {
		ip = c.Get("X-Real-IP")
	}
	if ip == "" {
		ip = c.IP()
	}
	return ip
}

func (rl *RateLimiter) getWindowKey(clientIP string, now time.Time) string {
	windowNumber := now.Unix() / int64(rl.windowDuration.Seconds())
	return fmt.Sprintf("%s_%d", clientIP, windowNumber)
}

// Allow charges a single token against clientIP's current window.
func (rl *RateLimiter) Allow(clientIP string) bool {
	return rl.AllowWeighted(clientIP, 1)
}

// AllowWeighted charges weight tokens against clientIP's current window,
// so that more expensive order types can consume a client's budget faster
// than a plain submission does.
func (rl *RateLimiter) AllowWeighted(clientIP string, weight int) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	key := rl.getWindowKey(clientIP, now)

	count, exists := rl.counters[key]

	if !exists {
		// edge case: remove old windows when starting new window
		rl.removeOldWindows(clientIP, now)
		rl.counters[key] = weight
		return true
	}

	if count >= rl.maxRequests {
		return false
	}

	rl.counters[key] = count + weight
	return true
}

func (rl *RateLimiter) removeOldWindows(clientIP string, now time.Time) {
	currentWindowKey := rl.getWindowKey(clientIP, now)

	for key := range rl.counters {
		if key != currentWindowKey {
			clientPrefix := clientIP + "_"
			if len(key) > len(clientPrefix) && key[:len(clientPrefix)] == clientPrefix {
				delete(rl.counters, key)
			}
		}
	}
}

// submissionWeight peeks an order-submission body for its order type
// without consuming it for the downstream handler's own BodyParser call,
// and returns the token cost that type should be charged.
func submissionWeight(c *fiber.Ctx) int {
	if c.Method() != fiber.MethodPost || c.Path() != "/api/v1/orders" {
		return 1
	}
	var peek struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(c.Body(), &peek); err != nil {
		return 1
	}
	switch peek.Type {
	case "STOP", "STOP_LIMIT":
		return stopOrderWeight
	default:
		return 1
	}
}

func (rl *RateLimiter) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		clientID := rl.getClientID(c)
		weight := submissionWeight(c)

		if !rl.AllowWeighted(clientID, weight) {
			log.Warn().
				Str("client_ip", clientID).
				Str("path", c.Path()).
				Str("method", c.Method()).
				Int("max_requests", rl.maxRequests).
				Int("weight", weight).
				Msg("Rate limit exceeded")
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error":   "Rate limit exceeded",
				"message": "Too many requests. Please try again later.",
			})
		}

		c.Set("X-RateLimit-Limit", strconv.Itoa(rl.maxRequests))
		c.Set("X-RateLimit-Window", rl.windowDuration.String())

		return c.Next()
	}
}

func DefaultRateLimiter() *RateLimiter {
	return NewRateLimiter(100, time.Second)
}
