package handlers

import (
	"os"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"matchbook/src/engine"
	"matchbook/src/logger"
	"matchbook/src/models"
)

// OrderHandler adapts wire JSON requests onto the engine.Matcher/Engine
// surface and back. None of the matching semantics live here: this is
// transport plumbing plus the same rolling-latency metrics the teacher
// tracks in its own handler.
type OrderHandler struct {
	Matcher         *engine.Matcher
	StartTime       time.Time
	OrdersReceived  int64
	OrdersMatched   int64
	OrdersCancelled int64
	TradesExecuted  int64

	nextOrderID uint64

	latencies    []time.Duration
	latenciesMu  sync.RWMutex
	maxLatencies int
}

func NewOrderHandler(matcher *engine.Matcher) *OrderHandler {
	maxLatencies := 10000
	if envMax := os.Getenv("METRICS_MAX_LATENCIES"); envMax != "" {
		if parsed, err := strconv.Atoi(envMax); err == nil && parsed > 0 {
			maxLatencies = parsed
		}
	}

	return &OrderHandler{
		Matcher:      matcher,
		StartTime:    time.Now(),
		latencies:    make([]time.Duration, 0, maxLatencies),
		maxLatencies: maxLatencies,
	}
}

// nextID hands out a process-unique 64-bit order id. The core engine never
// assigns ids itself (§6's constructors all take id as a caller-supplied
// parameter), so the HTTP shell is the "caller" that owns id assignment.
func (h *OrderHandler) nextID() uint64 {
	return atomic.AddUint64(&h.nextOrderID, 1)
}

func (h *OrderHandler) SubmitOrder(c *fiber.Ctx) error {
	var req models.SubmitOrderRequest

	if err := c.BodyParser(&req); err != nil {
		log.Warn().
			Err(err).
			Str("ip", c.IP()).
			Str("path", c.Path()).
			Msg("Invalid request: malformed JSON")
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse{
			Error: "Invalid request: malformed JSON",
		})
	}

	if err := validateSubmitOrderRequest(&req); err != nil {
		log.Warn().
			Err(err).
			Str("symbol", req.Symbol).
			Str("side", req.Side).
			Str("type", req.Type).
			Str("ip", c.IP()).
			Msg("Invalid order request")
		logger.LogOrderEvent("rejected", 0, req.Symbol, req.Side, req.Type)
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse{
			Error: err.Error(),
		})
	}

	side := engine.SideBuy
	if req.Side == "SELL" {
		side = engine.SideSell
	}

	orderID := h.nextID()
	order := buildOrder(orderID, &req, side)

	startTime := time.Now()

	log.Info().
		Uint64("order_id", orderID).
		Str("symbol", req.Symbol).
		Str("side", req.Side).
		Str("type", req.Type).
		Int64("price", req.Price).
		Int64("stop_price", req.StopPrice).
		Int64("quantity", req.Quantity).
		Str("ip", c.IP()).
		Msg("Order submitted")

	logger.LogOrderEvent("submitted", orderID, req.Symbol, req.Side, req.Type)
	atomic.AddInt64(&h.OrdersReceived, 1)

	eng := h.Matcher.GetOrCreateEngine(req.Symbol)
	trades := eng.Submit(order)

	latency := time.Since(startTime)
	h.recordLatency(latency)

	view, _ := eng.GetOrder(orderID)
	status := view.Status
	remaining := view.RemainingQuantity
	filled := view.FilledQuantity
	if status == "" {
		// Order reached a terminal state and left the index entirely
		// (Filled, or Market/FillAndKill remainder cancelled); fall back
		// to what the order itself still holds.
		status = order.Status
		remaining = order.RemainingQuantity()
		filled = order.FilledQuantity
	}

	tradeInfos := make([]models.TradeInfo, 0, len(trades))
	for _, trade := range trades {
		logger.LogTradeEvent(req.Symbol, trade.BuyOrderID, trade.SellOrderID, trade.Price, trade.Quantity)
		tradeInfos = append(tradeInfos, models.TradeInfo{
			TradeID:     uuid.New().String(),
			Price:       trade.Price,
			Quantity:    trade.Quantity,
			Timestamp:   trade.Timestamp,
			BuyOrderID:  trade.BuyOrderID,
			SellOrderID: trade.SellOrderID,
		})
	}

	response := models.SubmitOrderResponse{
		OrderID:           orderID,
		Status:            string(status),
		FilledQuantity:    filled,
		RemainingQuantity: remaining,
		Trades:            tradeInfos,
	}

	if status == engine.StatusPartiallyFilled || status == engine.StatusFilled {
		atomic.AddInt64(&h.OrdersMatched, 1)
	}
	atomic.AddInt64(&h.TradesExecuted, int64(len(trades)))

	log.Info().
		Uint64("order_id", orderID).
		Str("status", string(status)).
		Int64("filled_quantity", filled).
		Int64("remaining_quantity", remaining).
		Int("trades_count", len(trades)).
		Msg("Order processed")

	switch status {
	case engine.StatusActive, engine.StatusNew:
		response.Message = "Order added to book"
		return c.Status(fiber.StatusCreated).JSON(response)
	case engine.StatusPartiallyFilled:
		return c.Status(fiber.StatusAccepted).JSON(response)
	case engine.StatusCancelled:
		if req.Type == "MARKET" && remaining > 0 {
			log.Warn().
				Uint64("order_id", orderID).
				Str("symbol", req.Symbol).
				Int64("requested", req.Quantity).
				Msg("Insufficient liquidity for market order")
			return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse{
				Error: (&engine.InsufficientLiquidityError{Requested: req.Quantity, Available: req.Quantity - remaining}).Error(),
			})
		}
		return c.Status(fiber.StatusOK).JSON(response)
	default:
		return c.Status(fiber.StatusOK).JSON(response)
	}
}

func buildOrder(id uint64, req *models.SubmitOrderRequest, side engine.OrderSide) *engine.Order {
	switch req.Type {
	case "MARKET":
		return engine.NewMarketOrder(id, req.Symbol, side, req.Quantity)
	case "STOP":
		return engine.NewStopOrder(id, req.Symbol, side, req.Quantity, req.StopPrice)
	case "STOP_LIMIT":
		return engine.NewStopLimitOrder(id, req.Symbol, side, req.Quantity, req.Price, req.StopPrice)
	default: // LIMIT
		if req.FillAndKill {
			return engine.NewFillAndKillOrder(id, req.Symbol, side, req.Quantity, req.Price)
		}
		return engine.NewLimitOrder(id, req.Symbol, side, req.Quantity, req.Price)
	}
}

func (h *OrderHandler) CancelOrder(c *fiber.Ctx) error {
	orderID, err := parseOrderID(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse{Error: "Invalid order id"})
	}

	eng, view, found := h.Matcher.FindOrder(orderID)
	if !found {
		log.Warn().
			Uint64("order_id", orderID).
			Str("ip", c.IP()).
			Msg("Cancel order: order not found")
		return c.Status(fiber.StatusNotFound).JSON(models.ErrorResponse{
			Error: "Order not found",
		})
	}

	if !eng.Cancel(orderID) {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse{
			Error: "Cannot cancel: order already terminal",
		})
	}

	atomic.AddInt64(&h.OrdersCancelled, 1)

	logger.LogOrderEvent("cancelled", orderID, view.Symbol, string(view.Side), string(view.Type))

	return c.Status(fiber.StatusOK).JSON(models.CancelOrderResponse{
		OrderID: orderID,
		Status:  string(engine.StatusCancelled),
	})
}

func (h *OrderHandler) ModifyOrder(c *fiber.Ctx) error {
	orderID, err := parseOrderID(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse{Error: "Invalid order id"})
	}

	var req models.ModifyOrderRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse{Error: "Invalid request: malformed JSON"})
	}

	if req.Quantity <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse{Error: "Invalid order: quantity must be positive"})
	}

	eng, view, found := h.Matcher.FindOrder(orderID)
	if !found {
		return c.Status(fiber.StatusNotFound).JSON(models.ErrorResponse{Error: "Order not found"})
	}

	if !eng.Modify(orderID, req.Quantity, req.Price, req.StopPrice) {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse{
			Error: "Cannot modify: order not active or quantity below filled amount",
		})
	}

	logger.LogOrderEvent("modified", orderID, view.Symbol, string(view.Side), string(view.Type))

	return c.Status(fiber.StatusOK).JSON(models.ModifyOrderResponse{
		OrderID: orderID,
		Status:  "MODIFIED",
	})
}

func (h *OrderHandler) GetOrderBook(c *fiber.Ctx) error {
	symbol := c.Params("symbol")

	defaultDepth := 10
	if envDepth := os.Getenv("ORDERBOOK_DEFAULT_DEPTH"); envDepth != "" {
		if parsed, err := strconv.Atoi(envDepth); err == nil && parsed > 0 {
			defaultDepth = parsed
		}
	}

	maxDepth := 1000
	if envMaxDepth := os.Getenv("ORDERBOOK_MAX_DEPTH"); envMaxDepth != "" {
		if parsed, err := strconv.Atoi(envMaxDepth); err == nil && parsed > 0 {
			maxDepth = parsed
		}
	}

	depthStr := c.Query("depth", strconv.Itoa(defaultDepth))
	depth, err := strconv.Atoi(depthStr)
	if err != nil || depth <= 0 {
		depth = defaultDepth
	}
	if depth > maxDepth {
		depth = maxDepth
	}

	eng := h.Matcher.GetOrCreateEngine(symbol)

	bidLevels := eng.Levels(engine.SideBuy, depth)
	askLevels := eng.Levels(engine.SideSell, depth)

	bids := make([]models.PriceLevelInfo, 0, len(bidLevels))
	for _, level := range bidLevels {
		bids = append(bids, models.PriceLevelInfo{Price: level.Price, Quantity: level.Quantity})
	}

	asks := make([]models.PriceLevelInfo, 0, len(askLevels))
	for _, level := range askLevels {
		asks = append(asks, models.PriceLevelInfo{Price: level.Price, Quantity: level.Quantity})
	}

	return c.Status(fiber.StatusOK).JSON(models.OrderBookResponse{
		Symbol:    symbol,
		Timestamp: time.Now().UnixMilli(),
		Bids:      bids,
		Asks:      asks,
	})
}

func (h *OrderHandler) GetOrderStatus(c *fiber.Ctx) error {
	orderID, err := parseOrderID(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse{Error: "Invalid order id"})
	}

	_, view, found := h.Matcher.FindOrder(orderID)
	if !found {
		return c.Status(fiber.StatusNotFound).JSON(models.ErrorResponse{
			Error: "Order not found",
		})
	}

	return c.Status(fiber.StatusOK).JSON(models.OrderStatusResponse{
		OrderID:           view.ID,
		Symbol:            view.Symbol,
		Side:              string(view.Side),
		Type:              string(view.Type),
		Price:             view.LimitPrice,
		StopPrice:         view.StopPrice,
		Quantity:          view.InitialQuantity,
		FilledQuantity:    view.FilledQuantity,
		RemainingQuantity: view.RemainingQuantity,
		Status:            string(view.Status),
		Triggered:         view.Triggered,
		Timestamp:         view.CreatedAt,
	})
}

func (h *OrderHandler) HealthCheck(c *fiber.Ctx) error {
	uptime := time.Since(h.StartTime).Seconds()

	var ordersProcessed int64
	for _, eng := range h.Matcher.Engines() {
		if !eng.IsEmpty() {
			ordersProcessed++
		}
	}

	return c.Status(fiber.StatusOK).JSON(models.HealthResponse{
		Status:          "healthy",
		UptimeSeconds:   int64(uptime),
		OrdersProcessed: ordersProcessed,
	})
}

func (h *OrderHandler) Metrics(c *fiber.Ctx) error {
	p50, p99, p999 := h.calculateLatencyPercentiles()
	throughput := h.calculateThroughput()

	return c.Status(fiber.StatusOK).JSON(models.MetricsResponse{
		OrdersReceived:         atomic.LoadInt64(&h.OrdersReceived),
		OrdersMatched:          atomic.LoadInt64(&h.OrdersMatched),
		OrdersCancelled:        atomic.LoadInt64(&h.OrdersCancelled),
		OrdersInBook:           int64(len(h.Matcher.Engines())),
		TradesExecuted:         atomic.LoadInt64(&h.TradesExecuted),
		LatencyP50Ms:           p50,
		LatencyP99Ms:           p99,
		LatencyP999Ms:          p999,
		ThroughputOrdersPerSec: throughput,
	})
}

func (h *OrderHandler) recordLatency(latency time.Duration) {
	h.latenciesMu.Lock()
	defer h.latenciesMu.Unlock()

	h.latencies = append(h.latencies, latency)

	if len(h.latencies) > h.maxLatencies {
		removeCount := len(h.latencies) - h.maxLatencies
		h.latencies = h.latencies[removeCount:]
	}
}

func (h *OrderHandler) calculateLatencyPercentiles() (p50, p99, p999 float64) {
	h.latenciesMu.RLock()
	defer h.latenciesMu.RUnlock()

	if len(h.latencies) == 0 {
		return 0, 0, 0
	}

	latenciesCopy := make([]time.Duration, len(h.latencies))
	copy(latenciesCopy, h.latencies)

	sort.Slice(latenciesCopy, func(i, j int) bool {
		return latenciesCopy[i] < latenciesCopy[j]
	})

	p50Index := int(float64(len(latenciesCopy)) * 0.50)
	p99Index := int(float64(len(latenciesCopy)) * 0.99)
	p999Index := int(float64(len(latenciesCopy)) * 0.999)

	if p50Index >= len(latenciesCopy) {
		p50Index = len(latenciesCopy) - 1
	}
	if p99Index >= len(latenciesCopy) {
		p99Index = len(latenciesCopy) - 1
	}
	if p999Index >= len(latenciesCopy) {
		p999Index = len(latenciesCopy) - 1
	}

	p50 = float64(latenciesCopy[p50Index].Nanoseconds()) / 1e6
	p99 = float64(latenciesCopy[p99Index].Nanoseconds()) / 1e6
	p999 = float64(latenciesCopy[p999Index].Nanoseconds()) / 1e6

	return p50, p99, p999
}

func (h *OrderHandler) calculateThroughput() float64 {
	uptime := time.Since(h.StartTime).Seconds()
	if uptime <= 0 {
		return 0
	}

	ordersReceived := atomic.LoadInt64(&h.OrdersReceived)
	return float64(ordersReceived) / uptime
}

func parseOrderID(raw string) (uint64, error) {
	return strconv.ParseUint(raw, 10, 64)
}

func validateSubmitOrderRequest(req *models.SubmitOrderRequest) error {
	if req.Symbol == "" {
		return &ValidationError{Message: "Invalid order: symbol is required"}
	}

	if req.Side != "BUY" && req.Side != "SELL" {
		return &ValidationError{Message: "Invalid order: side must be BUY or SELL"}
	}

	switch req.Type {
	case "MARKET", "LIMIT", "STOP", "STOP_LIMIT":
	default:
		return &ValidationError{Message: "Invalid order: type must be MARKET, LIMIT, STOP or STOP_LIMIT"}
	}

	if req.Quantity <= 0 {
		return &ValidationError{Message: "Invalid order: quantity must be positive"}
	}

	if (req.Type == "LIMIT" || req.Type == "STOP_LIMIT") && req.Price <= 0 {
		return &ValidationError{Message: "Invalid order: price must be positive for LIMIT and STOP_LIMIT orders"}
	}

	if (req.Type == "STOP" || req.Type == "STOP_LIMIT") && req.StopPrice <= 0 {
		return &ValidationError{Message: "Invalid order: stop_price must be positive for STOP and STOP_LIMIT orders"}
	}

	return nil
}

type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}
