package middleware

import (
	"encoding/json"
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func RequestLogger() fiber.Handler {
	disabled := os.Getenv("REQUEST_LOGGING_DISABLED") == "1"
	logLevel := zerolog.GlobalLevel()
	shouldLog := !disabled && logLevel <= zerolog.InfoLevel

	return func(c *fiber.Ctx) error {
		var start time.Time
		if shouldLog {
			start = time.Now()
		}

		err := c.Next()

		if shouldLog {
			latency := time.Since(start)
			event := log.Info().
				Str("method", c.Method()).
				Str("path", c.Path()).
				Str("ip", c.IP()).
				Int("status", c.Response().StatusCode()).
				Int64("latency_ms", latency.Milliseconds()).
				Int("bytes_in", len(c.Body())).
				Int("bytes_out", len(c.Response().Body()))

			symbol, orderType := orderRequestContext(c)
			if symbol != "" {
				event = event.Str("symbol", symbol)
			}
			if orderType != "" {
				event = event.Str("order_type", orderType)
			}

			event.Msg("HTTP request")
		}

		return err
	}
}

// orderRequestContext pulls the symbol (and, for order submissions, the
// order type) a request concerns, so request logs can be correlated with
// the order-lifecycle events the handler layer logs separately. For an
// order submission this peeks the still-unconsumed request body; for
// routes with a :symbol path parameter (the order-book route) it reads
// that parameter instead. Order-id routes get no symbol tag.
func orderRequestContext(c *fiber.Ctx) (symbol, orderType string) {
	if c.Method() == fiber.MethodPost && c.Path() == "/api/v1/orders" {
		var peek struct {
			Symbol string `json:"symbol"`
			Type   string `json:"type"`
		}
		if err := json.Unmarshal(c.Body(), &peek); err == nil {
			return peek.Symbol, peek.Type
		}
		return "", ""
	}
	if s := c.Params("symbol"); s != "" {
		return s, ""
	}
	return "", ""
}
