package engine

import "time"

// OrderSide is the side of the book an order belongs to.
type OrderSide string

const (
	SideBuy  OrderSide = "BUY"
	SideSell OrderSide = "SELL"
)

// OrderType distinguishes Market, Limit, Stop and StopLimit orders. Stop and
// StopLimit orders are promoted to Market and Limit respectively once they
// trigger; the promotion mutates Type in place rather than allocating a new
// order, so the order keeps its id across the transition.
type OrderType string

const (
	TypeMarket    OrderType = "MARKET"
	TypeLimit     OrderType = "LIMIT"
	TypeStop      OrderType = "STOP"
	TypeStopLimit OrderType = "STOP_LIMIT"
)

// OrderStatus is the order lifecycle state machine described in the
// matching engine contract: New/Rejected only apply before an order has been
// accepted by the engine; everything else is a post-acceptance state.
type OrderStatus string

const (
	StatusNew             OrderStatus = "NEW"
	StatusActive          OrderStatus = "ACTIVE"
	StatusPartiallyFilled OrderStatus = "PARTIALLY_FILLED"
	StatusFilled          OrderStatus = "FILLED"
	StatusCancelled       OrderStatus = "CANCELLED"
	StatusRejected        OrderStatus = "REJECTED"
)

// TimeInForce selects whether an unmatched remainder rests in the book
// (GoodTillCancel, the default) or is cancelled immediately after the
// order's first pass through the match loop (FillAndKill). Only non-stop
// orders may carry FillAndKill; see NewFillAndKillOrder.
type TimeInForce string

const (
	GoodTillCancel TimeInForce = "GTC"
	FillAndKill    TimeInForce = "FOK"
)

// Order is the value carrier for an in-flight or resting order. The engine
// is the only writer; callers that retain an Order pointer across a Submit
// call may still read its fields, but should go through Engine.GetOrder for
// a safe point-in-time snapshot instead of racing the engine's own
// mutations.
type Order struct {
	ID              uint64
	Symbol          string
	Side            OrderSide
	Type            OrderType
	Status          OrderStatus
	InitialQuantity int64
	FilledQuantity  int64
	LimitPrice      int64
	StopPrice       int64
	CreatedAt       int64
	Triggered       bool
	TimeInForce     TimeInForce
}

func newOrder(id uint64, symbol string, side OrderSide, typ OrderType, qty, price, stopPrice int64, tif TimeInForce) *Order {
	o := &Order{
		ID:              id,
		Symbol:          symbol,
		Side:            side,
		Type:            typ,
		InitialQuantity: qty,
		LimitPrice:      price,
		StopPrice:       stopPrice,
		CreatedAt:       time.Now().UnixNano(),
		TimeInForce:     tif,
	}

	if !o.validate() {
		o.Status = StatusRejected
		return o
	}

	if typ == TypeStop || typ == TypeStopLimit {
		o.Status = StatusNew
	} else {
		o.Status = StatusActive
	}

	return o
}

func (o *Order) validate() bool {
	if o.InitialQuantity <= 0 {
		return false
	}
	if (o.Type == TypeLimit || o.Type == TypeStopLimit) && o.LimitPrice <= 0 {
		return false
	}
	if (o.Type == TypeStop || o.Type == TypeStopLimit) && o.StopPrice <= 0 {
		return false
	}
	return true
}

// NewMarketOrder constructs a Market order. Market orders never rest: any
// unfilled remainder is cancelled by the engine once the match loop drains
// the opposite book.
func NewMarketOrder(id uint64, symbol string, side OrderSide, qty int64) *Order {
	return newOrder(id, symbol, side, TypeMarket, qty, 0, 0, GoodTillCancel)
}

// NewLimitOrder constructs a GoodTillCancel Limit order: any unmatched
// remainder rests in the book at price until cancelled or filled.
func NewLimitOrder(id uint64, symbol string, side OrderSide, qty, price int64) *Order {
	return newOrder(id, symbol, side, TypeLimit, qty, price, 0, GoodTillCancel)
}

// NewFillAndKillOrder constructs a Limit order whose unmatched remainder is
// cancelled rather than rested (the FillAndKill time-in-force).
func NewFillAndKillOrder(id uint64, symbol string, side OrderSide, qty, price int64) *Order {
	return newOrder(id, symbol, side, TypeLimit, qty, price, 0, FillAndKill)
}

// NewStopOrder constructs a Stop order. It rests in the engine's stop
// registry, invisible to the book, until last-trade-price crosses stopPrice,
// at which point it is promoted to a Market order.
func NewStopOrder(id uint64, symbol string, side OrderSide, qty, stopPrice int64) *Order {
	return newOrder(id, symbol, side, TypeStop, qty, 0, stopPrice, GoodTillCancel)
}

// NewStopLimitOrder constructs a StopLimit order. It rests in the stop
// registry until triggered, at which point it is promoted to a Limit order
// at price.
func NewStopLimitOrder(id uint64, symbol string, side OrderSide, qty, price, stopPrice int64) *Order {
	return newOrder(id, symbol, side, TypeStopLimit, qty, price, stopPrice, GoodTillCancel)
}

// RemainingQuantity is InitialQuantity minus FilledQuantity.
func (o *Order) RemainingQuantity() int64 {
	return o.InitialQuantity - o.FilledQuantity
}

// IsRestable reports whether the order is in a status that can legally hold
// a book or stop-registry position.
func (o *Order) IsRestable() bool {
	return o.Status == StatusActive || o.Status == StatusPartiallyFilled
}

// fill applies an execution of qty (the execution price is accepted by the
// engine's match loop only to build the Trade record; it is never stored on
// the order itself). Returns false if the order cannot absorb the fill.
func (o *Order) fill(qty int64) bool {
	if !o.IsRestable() || qty <= 0 || qty > o.RemainingQuantity() {
		return false
	}
	o.FilledQuantity += qty
	if o.RemainingQuantity() == 0 {
		o.Status = StatusFilled
	} else {
		o.Status = StatusPartiallyFilled
	}
	return true
}

// cancel moves a resting order to Cancelled. No-op if the order is not
// currently Active/PartiallyFilled.
func (o *Order) cancel() {
	if o.IsRestable() {
		o.Status = StatusCancelled
	}
}

// canModify reports whether modify(newQty, ...) would succeed, without
// mutating the order. The engine calls this before removing the order from
// its book so a failed modify never needs to restore book position.
func (o *Order) canModify(newQty int64) bool {
	return o.IsRestable() && newQty >= o.FilledQuantity
}

// modify updates quantity/price/stop fields in place. Priority implications
// are the engine's responsibility (it decides whether/where to reinsert),
// not the order's.
func (o *Order) modify(newQty, newPrice, newStopPrice int64) bool {
	if !o.canModify(newQty) {
		return false
	}
	o.InitialQuantity = newQty
	if o.Type == TypeLimit || o.Type == TypeStopLimit {
		o.LimitPrice = newPrice
	}
	if o.Type == TypeStop || o.Type == TypeStopLimit {
		o.StopPrice = newStopPrice
	}
	return true
}

// checkStopTrigger is meaningful only for Stop/StopLimit orders. It is
// idempotent after the first true: once Triggered is set it never fires
// again.
func (o *Order) checkStopTrigger(lastTradePrice int64) bool {
	if o.Type != TypeStop && o.Type != TypeStopLimit {
		return false
	}
	if o.Triggered {
		return false
	}
	fires := (o.Side == SideBuy && lastTradePrice >= o.StopPrice) ||
		(o.Side == SideSell && lastTradePrice <= o.StopPrice)
	if fires {
		o.Triggered = true
	}
	return fires
}

// promote transitions a triggered Stop order into a Market order, or a
// triggered StopLimit order into a Limit order, keeping its id. The caller
// re-submits the order through the engine with the promoted type's
// semantics.
func (o *Order) promote() {
	if o.Type == TypeStop {
		o.Type = TypeMarket
	} else if o.Type == TypeStopLimit {
		o.Type = TypeLimit
	}
	o.Status = StatusActive
}

// OrderView is an immutable point-in-time snapshot of an Order, safe to hand
// to callers outside the engine's lock.
type OrderView struct {
	ID                uint64
	Symbol            string
	Side              OrderSide
	Type              OrderType
	Status            OrderStatus
	InitialQuantity   int64
	FilledQuantity    int64
	RemainingQuantity int64
	LimitPrice        int64
	StopPrice         int64
	CreatedAt         int64
	Triggered         bool
	TimeInForce       TimeInForce
}

func (o *Order) view() OrderView {
	return OrderView{
		ID:                o.ID,
		Symbol:            o.Symbol,
		Side:              o.Side,
		Type:              o.Type,
		Status:            o.Status,
		InitialQuantity:   o.InitialQuantity,
		FilledQuantity:    o.FilledQuantity,
		RemainingQuantity: o.RemainingQuantity(),
		LimitPrice:        o.LimitPrice,
		StopPrice:         o.StopPrice,
		CreatedAt:         o.CreatedAt,
		Triggered:         o.Triggered,
		TimeInForce:       o.TimeInForce,
	}
}

// Trade is an immutable execution record. Quantity and price are the
// executed values, not either resting order's originally requested values.
type Trade struct {
	BuyOrderID  uint64
	SellOrderID uint64
	Symbol      string
	Quantity    int64
	Price       int64
	Timestamp   int64
}
