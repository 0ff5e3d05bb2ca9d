package engine

import (
	"sync"
	"time"
)

// maxCascadeDepth bounds how many rounds of stop-trigger cascades a single
// Submit call will process. Without a bound, a pathological chain of stop
// orders each triggering the next could recurse without limit; 32 rounds is
// far beyond any realistic cascade and cheap to carry.
const maxCascadeDepth = 32

// Engine is the single-symbol matching engine: the stateful coordinator
// that accepts add/cancel/modify requests, runs the price-time matching
// loop, drives the order state machine, and dispatches stop triggering.
//
// Concurrency envelope: a single sync.RWMutex protects the Order Index,
// both Side Books, the Stop Registry, and lastTradePrice (the "single
// writer, coarse lock" design from §5). Submit/Cancel/Modify take the write
// lock for their entire duration, so a single aggressor's trades are always
// contiguous to observers; read-only queries take the read lock.
type Engine struct {
	symbol string

	mu sync.RWMutex

	bids  *SideBook
	asks  *SideBook
	index *OrderIndex
	stops *StopRegistry

	lastTradePrice int64
	hasLastTrade   bool
}

// NewEngine constructs an empty matching engine for symbol.
func NewEngine(symbol string) *Engine {
	return &Engine{
		symbol: symbol,
		bids:   newSideBook(false), // descending: best bid is the highest price
		asks:   newSideBook(true),  // ascending: best ask is the lowest price
		index:  newOrderIndex(),
		stops:  newStopRegistry(),
	}
}

// Symbol returns the symbol this engine matches.
func (e *Engine) Symbol() string {
	return e.symbol
}

func (e *Engine) ownBook(side OrderSide) *SideBook {
	if side == SideBuy {
		return e.bids
	}
	return e.asks
}

func (e *Engine) oppositeBook(side OrderSide) *SideBook {
	if side == SideBuy {
		return e.asks
	}
	return e.bids
}

// Submit accepts an order for processing and returns the trades it
// produced, including any cascaded stop triggers. See §4.6 for the full
// contract.
func (e *Engine) Submit(order *Order) []Trade {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.submitLocked(order, 0)
}

func (e *Engine) submitLocked(order *Order, depth int) []Trade {
	if order.Symbol != e.symbol || order.Status == StatusRejected {
		return nil
	}

	e.index.insert(order)

	var trades []Trade

	switch order.Type {
	case TypeMarket:
		trades = e.matchLoop(order, e.oppositeBook(order.Side), 0, true)
		if order.RemainingQuantity() > 0 {
			order.cancel()
		}
		e.index.erase(order.ID)

	case TypeLimit:
		trades = e.matchLoop(order, e.oppositeBook(order.Side), order.LimitPrice, false)
		if order.IsRestable() {
			if order.TimeInForce == FillAndKill {
				order.cancel()
				e.index.erase(order.ID)
			} else {
				own := e.ownBook(order.Side)
				level, elem := own.insert(order)
				h, _ := e.index.get(order.ID)
				h.elem = elem
				h.loc = &bookLocation{book: own, level: level}
			}
		} else {
			e.index.erase(order.ID)
		}

	case TypeStop, TypeStopLimit:
		elem := e.stops.submit(order)
		h, _ := e.index.get(order.ID)
		h.elem = elem
		h.loc = &stopLocation{registry: e.stops}

		if e.hasLastTrade && order.checkStopTrigger(e.lastTradePrice) {
			e.stops.removeElement(elem)
			order.promote()
			trades = e.submitLocked(order, depth+1)
		}
	}

	if len(trades) > 0 {
		e.lastTradePrice = trades[len(trades)-1].Price
		e.hasLastTrade = true

		if depth < maxCascadeDepth {
			for _, triggered := range e.stops.drainTriggered(e.lastTradePrice) {
				triggered.promote()
				trades = append(trades, e.submitLocked(triggered, depth+1)...)
			}
		}
	}

	return trades
}

// matchLoop runs the price-time matching algorithm against opposite,
// stopping once order is filled, the opposite book is exhausted, or the
// next level crosses tolerance (ignored when unbounded is true, the Market
// order case).
func (e *Engine) matchLoop(order *Order, opposite *SideBook, tolerance int64, unbounded bool) []Trade {
	var trades []Trade

	for order.RemainingQuantity() > 0 {
		level := opposite.bestLevel()
		if level == nil {
			break
		}

		if !unbounded {
			if order.Side == SideBuy && level.Price > tolerance {
				break
			}
			if order.Side == SideSell && level.Price < tolerance {
				break
			}
		}

		elem := level.frontElement()
		if elem == nil {
			// Invariant violation: an empty level must never remain indexed.
			opposite.deleteLevel(level.Price)
			continue
		}
		resting := elem.Value.(*Order)

		fillQty := order.RemainingQuantity()
		if restRem := resting.RemainingQuantity(); restRem < fillQty {
			fillQty = restRem
		}

		price := level.Price

		order.fill(fillQty)
		resting.fill(fillQty)
		level.TotalQuantity -= fillQty

		var trade Trade
		if order.Side == SideBuy {
			trade = Trade{BuyOrderID: order.ID, SellOrderID: resting.ID, Symbol: e.symbol, Quantity: fillQty, Price: price, Timestamp: time.Now().UnixNano()}
		} else {
			trade = Trade{BuyOrderID: resting.ID, SellOrderID: order.ID, Symbol: e.symbol, Quantity: fillQty, Price: price, Timestamp: time.Now().UnixNano()}
		}
		trades = append(trades, trade)

		if resting.RemainingQuantity() == 0 {
			level.removeFilledElement(elem)
			e.index.erase(resting.ID)
		}

		if level.isEmpty() {
			opposite.deleteLevel(level.Price)
		}
	}

	return trades
}

// Cancel removes order id from the book or stop registry and marks it
// Cancelled. Returns false if the id is unknown.
func (e *Engine) Cancel(id uint64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	h, ok := e.index.get(id)
	if !ok {
		return false
	}

	if h.loc != nil {
		h.loc.remove(h.elem)
	}
	if h.order.Status == StatusNew {
		h.order.Status = StatusCancelled
	} else {
		h.order.cancel()
	}
	e.index.erase(id)
	return true
}

// Modify updates a resting order's quantity/price/stop-price, losing
// priority: it is spliced out of its current position and re-enters at the
// tail of its (possibly new) level. Returns false if the id is unknown, the
// order is not Active/PartiallyFilled, or newQty would fall below the
// already-filled quantity — in all failure cases nothing is mutated, so
// there is never a need to restore a removed book position.
func (e *Engine) Modify(id uint64, newQty, newPrice, newStopPrice int64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	h, ok := e.index.get(id)
	if !ok {
		return false
	}

	order := h.order
	if !order.canModify(newQty) {
		return false
	}

	isStop := order.Type == TypeStop || order.Type == TypeStopLimit

	if h.loc != nil {
		h.loc.remove(h.elem)
		h.loc = nil
		h.elem = nil
	}

	order.modify(newQty, newPrice, newStopPrice)

	if !order.IsRestable() {
		e.index.erase(id)
		return true
	}

	if isStop {
		elem := e.stops.submit(order)
		h.elem = elem
		h.loc = &stopLocation{registry: e.stops}
	} else {
		own := e.ownBook(order.Side)
		level, elem := own.insert(order)
		h.elem = elem
		h.loc = &bookLocation{book: own, level: level}
	}

	return true
}

// BestBid returns the highest resting bid price, or ok=false if the bid
// side is empty.
func (e *Engine) BestBid() (int64, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.bids.bestPrice()
}

// BestAsk returns the lowest resting ask price, or ok=false if the ask side
// is empty.
func (e *Engine) BestAsk() (int64, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.asks.bestPrice()
}

// VolumeAt returns the aggregated remaining quantity resting at price on
// side, or 0 if there is no such level.
func (e *Engine) VolumeAt(side OrderSide, price int64) int64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	level := e.ownBook(side).levelAt(price)
	if level == nil {
		return 0
	}
	return level.TotalQuantity
}

// GetOrder returns a point-in-time snapshot of order id, or ok=false if it
// is unknown to the index (i.e. already terminal, or never submitted).
func (e *Engine) GetOrder(id uint64) (OrderView, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	h, ok := e.index.get(id)
	if !ok {
		return OrderView{}, false
	}
	return h.order.view(), true
}

// IsEmpty reports whether either Side Book currently holds any resting
// liquidity. Pending stop-registry entries are not resting liquidity and do
// not count (see DESIGN.md for this choice).
func (e *Engine) IsEmpty() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.bids.isEmpty() && e.asks.isEmpty()
}

// PriceLevelView is a read-only snapshot of one price level, used by
// Levels.
type PriceLevelView struct {
	Price    int64
	Quantity int64
}

// Levels returns up to depth price levels on side, best price first. It is
// a thin, depth-bounded wrapper around walkFromBest (§4.3) and exists to
// support order-book snapshot queries without exposing SideBook internals.
func (e *Engine) Levels(side OrderSide, depth int) []PriceLevelView {
	e.mu.RLock()
	defer e.mu.RUnlock()

	views := make([]PriceLevelView, 0, depth)
	count := 0
	e.ownBook(side).walkFromBest(func(level *PriceLevel) bool {
		if count >= depth {
			return false
		}
		views = append(views, PriceLevelView{Price: level.Price, Quantity: level.TotalQuantity})
		count++
		return true
	})
	return views
}
