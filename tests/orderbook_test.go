package tests

import (
	"testing"

	"matchbook/src/engine"
)

// TestFIFOPriorityWithinLevel checks that three resting orders at the same
// price fill in strict arrival order: the earliest is exhausted before the
// next is touched at all.
func TestFIFOPriorityWithinLevel(t *testing.T) {
	e := engine.NewEngine("TEST")

	e.Submit(engine.NewLimitOrder(1, "TEST", engine.SideSell, 200, 15050))
	e.Submit(engine.NewLimitOrder(2, "TEST", engine.SideSell, 300, 15050))
	e.Submit(engine.NewLimitOrder(3, "TEST", engine.SideSell, 400, 15050))

	trades := e.Submit(engine.NewLimitOrder(4, "TEST", engine.SideBuy, 500, 15050))

	if len(trades) != 2 {
		t.Fatalf("expected 2 trades, got %d: %+v", len(trades), trades)
	}
	if trades[0].SellOrderID != 1 || trades[0].Quantity != 200 {
		t.Errorf("expected first trade to fully drain order 1 (200), got %+v", trades[0])
	}
	if trades[1].SellOrderID != 2 || trades[1].Quantity != 300 {
		t.Errorf("expected second trade to fully drain order 2 (300), got %+v", trades[1])
	}

	view3, ok := e.GetOrder(3)
	if !ok {
		t.Fatal("expected order 3 to still be resting, untouched")
	}
	if view3.RemainingQuantity != 400 {
		t.Errorf("expected order 3 untouched at remaining=400, got %d", view3.RemainingQuantity)
	}
	if v := e.VolumeAt(engine.SideSell, 15050); v != 400 {
		t.Errorf("expected 400 remaining at 15050, got %d", v)
	}
}

// TestPriceLevelTotalMatchesSum checks total_quantity at a level equals the
// sum of remaining quantity across its resting orders, through a mix of a
// partial fill and a later addition at the same price.
func TestPriceLevelTotalMatchesSum(t *testing.T) {
	e := engine.NewEngine("TEST")

	e.Submit(engine.NewLimitOrder(1, "TEST", engine.SideBuy, 100, 50))
	e.Submit(engine.NewLimitOrder(2, "TEST", engine.SideBuy, 60, 50))
	if v := e.VolumeAt(engine.SideBuy, 50); v != 160 {
		t.Fatalf("expected 160 before any fill, got %d", v)
	}

	e.Submit(engine.NewLimitOrder(3, "TEST", engine.SideSell, 30, 50))
	if v := e.VolumeAt(engine.SideBuy, 50); v != 130 {
		t.Errorf("expected 130 after a 30-unit fill, got %d", v)
	}

	e.Submit(engine.NewLimitOrder(4, "TEST", engine.SideBuy, 20, 50))
	if v := e.VolumeAt(engine.SideBuy, 50); v != 150 {
		t.Errorf("expected 150 after adding 20 more, got %d", v)
	}
}

// TestVolumeAtUnknownLevelIsZero checks that querying a price with no
// resting level returns zero rather than an error.
func TestVolumeAtUnknownLevelIsZero(t *testing.T) {
	e := engine.NewEngine("TEST")
	if v := e.VolumeAt(engine.SideBuy, 12345); v != 0 {
		t.Errorf("expected 0 at an untouched price, got %d", v)
	}
}

// TestOrderIndexAbsentWhenTerminal checks that a fully filled order
// disappears from GetOrder, per the index's "resting or pending only"
// invariant.
func TestOrderIndexAbsentWhenTerminal(t *testing.T) {
	e := engine.NewEngine("TEST")

	e.Submit(engine.NewLimitOrder(1, "TEST", engine.SideSell, 10, 100))
	e.Submit(engine.NewLimitOrder(2, "TEST", engine.SideBuy, 10, 100))

	if _, ok := e.GetOrder(1); ok {
		t.Error("expected fully filled resting order to be absent from the index")
	}
	if _, ok := e.GetOrder(2); ok {
		t.Error("expected fully filled aggressor to be absent from the index")
	}
}

// TestStopOrderInvisibleUntilTriggered checks that a pending stop order
// contributes no resting liquidity and is not visible through book
// snapshots before it triggers.
func TestStopOrderInvisibleUntilTriggered(t *testing.T) {
	e := engine.NewEngine("TEST")

	e.Submit(engine.NewStopOrder(1, "TEST", engine.SideBuy, 5, 100))

	if !e.IsEmpty() {
		t.Error("expected a pending stop order to not count as resting liquidity")
	}
	if levels := e.Levels(engine.SideBuy, 10); len(levels) != 0 {
		t.Errorf("expected no bid levels while the stop order is only pending, got %+v", levels)
	}

	view, ok := e.GetOrder(1)
	if !ok {
		t.Fatal("expected pending stop order to still be tracked by the index")
	}
	if view.Status != engine.StatusNew {
		t.Errorf("expected pending stop order status New, got %s", view.Status)
	}
}

// TestStopLimitPromotionRests checks that a StopLimit order which triggers
// but only partially matches rests the remainder as a plain Limit order.
func TestStopLimitPromotionRests(t *testing.T) {
	e := engine.NewEngine("TEST")

	e.Submit(engine.NewLimitOrder(1, "TEST", engine.SideSell, 2, 100)) // liquidity to set last trade
	e.Submit(engine.NewLimitOrder(2, "TEST", engine.SideBuy, 2, 100))  // trade at 100, sets last_trade_price

	e.Submit(engine.NewStopLimitOrder(3, "TEST", engine.SideBuy, 10, 105, 100))

	view, ok := e.GetOrder(3)
	if !ok {
		t.Fatal("expected the triggered StopLimit remainder to rest")
	}
	if view.Type != engine.TypeLimit {
		t.Errorf("expected promoted order type Limit, got %s", view.Type)
	}
	if view.RemainingQuantity != 10 {
		t.Errorf("expected full 10 units resting (no sell liquidity left), got %d", view.RemainingQuantity)
	}
	if bid, ok := e.BestBid(); !ok || bid != 105 {
		t.Errorf("expected promoted order resting at 105, got %d (ok=%v)", bid, ok)
	}
}

// TestModifyNoopPreservesBookContents checks that modifying an order to its
// current quantity/price is a no-op on aggregate book contents even though
// the order itself loses queue priority.
func TestModifyNoopPreservesBookContents(t *testing.T) {
	e := engine.NewEngine("TEST")

	e.Submit(engine.NewLimitOrder(1, "TEST", engine.SideBuy, 10, 50))

	if !e.Modify(1, 10, 50, 0) {
		t.Fatal("expected no-op modify to succeed")
	}

	if v := e.VolumeAt(engine.SideBuy, 50); v != 10 {
		t.Errorf("expected unchanged volume of 10 at 50, got %d", v)
	}
	if bid, ok := e.BestBid(); !ok || bid != 50 {
		t.Errorf("expected best bid still 50, got %d (ok=%v)", bid, ok)
	}
}

// TestMatcherRoutesBySymbol checks that the symbol router keeps each
// symbol's book fully isolated from the others.
func TestMatcherRoutesBySymbol(t *testing.T) {
	m := engine.NewMatcher()

	aapl := m.GetOrCreateEngine("AAPL")
	googl := m.GetOrCreateEngine("GOOGL")

	aapl.Submit(engine.NewLimitOrder(1, "AAPL", engine.SideSell, 100, 15050))
	googl.Submit(engine.NewLimitOrder(2, "GOOGL", engine.SideSell, 200, 25000))

	if same := m.GetOrCreateEngine("AAPL"); same != aapl {
		t.Error("expected repeated lookups for the same symbol to return the same engine")
	}

	owner, view, found := m.FindOrder(2)
	if !found || owner != googl || view.Symbol != "GOOGL" {
		t.Errorf("expected FindOrder(2) to resolve to the GOOGL engine, got owner=%v view=%+v found=%v", owner, view, found)
	}

	if _, _, found := m.FindOrder(999); found {
		t.Error("expected FindOrder for an unknown id to report not found")
	}
}

// TestSubmitWrongSymbolRejected checks that submitting an order whose
// symbol doesn't match the engine's is a no-op rejection.
func TestSubmitWrongSymbolRejected(t *testing.T) {
	e := engine.NewEngine("AAPL")

	trades := e.Submit(engine.NewLimitOrder(1, "GOOGL", engine.SideBuy, 10, 100))
	if len(trades) != 0 {
		t.Fatalf("expected no trades for a mismatched symbol, got %d", len(trades))
	}
	if _, ok := e.GetOrder(1); ok {
		t.Error("expected the mismatched-symbol order to never enter the index")
	}
}

// TestRejectedOrderNeverEntersBook checks that a validation failure at
// construction time (non-positive quantity) leaves the order Rejected and
// keeps it out of the book entirely.
func TestRejectedOrderNeverEntersBook(t *testing.T) {
	e := engine.NewEngine("TEST")

	order := engine.NewLimitOrder(1, "TEST", engine.SideBuy, 0, 100)
	if order.Status != engine.StatusRejected {
		t.Fatalf("expected zero quantity to be rejected at construction, got %s", order.Status)
	}

	trades := e.Submit(order)
	if len(trades) != 0 {
		t.Fatalf("expected no trades for a rejected order, got %d", len(trades))
	}
	if !e.IsEmpty() {
		t.Error("expected the book to remain empty after submitting a rejected order")
	}
}

// TestLevelsDepthBounded checks that Levels truncates to the requested
// depth while still returning best-price-first order.
func TestLevelsDepthBounded(t *testing.T) {
	e := engine.NewEngine("TEST")

	e.Submit(engine.NewLimitOrder(1, "TEST", engine.SideSell, 10, 103))
	e.Submit(engine.NewLimitOrder(2, "TEST", engine.SideSell, 10, 101))
	e.Submit(engine.NewLimitOrder(3, "TEST", engine.SideSell, 10, 105))

	levels := e.Levels(engine.SideSell, 2)
	if len(levels) != 2 {
		t.Fatalf("expected 2 levels with depth=2, got %d", len(levels))
	}
	if levels[0].Price != 101 || levels[1].Price != 103 {
		t.Errorf("expected ascending price order [101, 103], got %+v", levels)
	}
}
