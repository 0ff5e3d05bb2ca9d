package engine

import "sync"

// Matcher routes requests to one Engine per symbol. It owns no matching
// logic itself — symbol routing and multi-book management are explicitly
// outside the matching core (§1) — it exists only so the HTTP shell doesn't
// need to track engines per symbol on its own, the same job the teacher's
// own Matcher does for its (single-book) OrderBook type.
type Matcher struct {
	mu      sync.RWMutex
	engines map[string]*Engine
}

// NewMatcher constructs an empty symbol router.
func NewMatcher() *Matcher {
	return &Matcher{engines: make(map[string]*Engine)}
}

// GetOrCreateEngine returns the Engine for symbol, creating it on first use.
func (m *Matcher) GetOrCreateEngine(symbol string) *Engine {
	m.mu.RLock()
	if e, ok := m.engines[symbol]; ok {
		m.mu.RUnlock()
		return e
	}
	m.mu.RUnlock()

	m.mu.Lock()
	defer m.mu.Unlock()

	if e, ok := m.engines[symbol]; ok {
		return e
	}
	e := NewEngine(symbol)
	m.engines[symbol] = e
	return e
}

// Engines returns a snapshot of all engines currently tracked by the
// router, keyed by symbol.
func (m *Matcher) Engines() map[string]*Engine {
	m.mu.RLock()
	defer m.mu.RUnlock()

	snapshot := make(map[string]*Engine, len(m.engines))
	for symbol, e := range m.engines {
		snapshot[symbol] = e
	}
	return snapshot
}

// FindOrder scans every tracked engine for orderID, returning the owning
// engine and a snapshot of the order if found.
func (m *Matcher) FindOrder(orderID uint64) (*Engine, OrderView, bool) {
	for _, e := range m.Engines() {
		if view, ok := e.GetOrder(orderID); ok {
			return e, view, true
		}
	}
	return nil, OrderView{}, false
}
