package models

type SubmitOrderRequest struct {
	Symbol       string `json:"symbol"`
	Side         string `json:"side"`
	Type         string `json:"type"`                    // MARKET, LIMIT, STOP, STOP_LIMIT
	Price        int64  `json:"price,omitempty"`          // required for LIMIT and STOP_LIMIT
	StopPrice    int64  `json:"stop_price,omitempty"`     // required for STOP and STOP_LIMIT
	Quantity     int64  `json:"quantity"`
	FillAndKill  bool   `json:"fill_and_kill,omitempty"` // LIMIT only; unmatched remainder is cancelled instead of resting
}

type SubmitOrderResponse struct {
	OrderID           uint64      `json:"order_id"`
	Status            string      `json:"status"`
	Message           string      `json:"message,omitempty"`
	FilledQuantity    int64       `json:"filled_quantity,omitempty"`
	RemainingQuantity int64       `json:"remaining_quantity,omitempty"`
	Trades            []TradeInfo `json:"trades,omitempty"`
}

type TradeInfo struct {
	TradeID   string `json:"trade_id"`
	Price     int64  `json:"price"`
	Quantity  int64  `json:"quantity"`
	Timestamp int64  `json:"timestamp"`
	BuyOrderID  uint64 `json:"buy_order_id"`
	SellOrderID uint64 `json:"sell_order_id"`
}

type CancelOrderResponse struct {
	OrderID uint64 `json:"order_id"`
	Status  string `json:"status"`
}

type ModifyOrderRequest struct {
	Quantity  int64 `json:"quantity"`
	Price     int64 `json:"price,omitempty"`
	StopPrice int64 `json:"stop_price,omitempty"`
}

type ModifyOrderResponse struct {
	OrderID uint64 `json:"order_id"`
	Status  string `json:"status"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

type OrderBookResponse struct {
	Symbol    string           `json:"symbol"`
	Timestamp int64            `json:"timestamp"`
	Bids      []PriceLevelInfo `json:"bids"`
	Asks      []PriceLevelInfo `json:"asks"`
}

type PriceLevelInfo struct {
	Price    int64 `json:"price"`
	Quantity int64 `json:"quantity"`
}

type OrderStatusResponse struct {
	OrderID           uint64 `json:"order_id"`
	Symbol            string `json:"symbol"`
	Side              string `json:"side"`
	Type              string `json:"type"`
	Price             int64  `json:"price"`
	StopPrice         int64  `json:"stop_price"`
	Quantity          int64  `json:"quantity"`
	FilledQuantity    int64  `json:"filled_quantity"`
	RemainingQuantity int64  `json:"remaining_quantity"`
	Status            string `json:"status"`
	Triggered         bool   `json:"triggered"`
	Timestamp         int64  `json:"timestamp"`
}

type HealthResponse struct {
	Status          string `json:"status"`
	UptimeSeconds   int64  `json:"uptime_seconds"`
	OrdersProcessed int64  `json:"orders_processed"`
}

type MetricsResponse struct {
	OrdersReceived         int64   `json:"orders_received"`
	OrdersMatched          int64   `json:"orders_matched"`
	OrdersCancelled        int64   `json:"orders_cancelled"`
	OrdersInBook           int64   `json:"orders_in_book"`
	TradesExecuted         int64   `json:"trades_executed"`
	LatencyP50Ms           float64 `json:"latency_p50_ms"`
	LatencyP99Ms           float64 `json:"latency_p99_ms"`
	LatencyP999Ms          float64 `json:"latency_p999_ms"`
	ThroughputOrdersPerSec float64 `json:"throughput_orders_per_sec"`
}
