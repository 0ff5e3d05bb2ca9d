package engine

import "container/list"

// location is where an order's list.Element currently lives: either a
// PriceLevel inside a SideBook, or the stop registry. Exactly one of these
// applies at a time per the "an order is in exactly one of {Stop Registry,
// Side Book, terminally-done}" invariant.
type location interface {
	remove(elem *list.Element)
}

// bookLocation removes a resting order from its price level, and deletes
// the level from its owning SideBook if that empties it — matching §4.3's
// requirement that level removal happen in the same step as the order's.
type bookLocation struct {
	book  *SideBook
	level *PriceLevel
}

func (l *bookLocation) remove(elem *list.Element) {
	l.level.removeElement(elem)
	if l.level.isEmpty() {
		l.book.deleteLevel(l.level.Price)
	}
}

// stopLocation removes a pending order from the stop registry.
type stopLocation struct {
	registry *StopRegistry
}

func (l *stopLocation) remove(elem *list.Element) {
	l.registry.removeElement(elem)
}

// orderHandle is what the Order Index stores per id: the order itself, plus
// enough to splice it out of wherever it currently rests in O(1).
type orderHandle struct {
	order *Order
	elem  *list.Element
	loc   location
}

// OrderIndex maps order id to a handle that locates the order within its
// side book or the stop registry in O(1). An order is present iff it is
// resting in a Side Book or pending in the Stop Registry; Rejected and
// terminal orders are absent.
type OrderIndex struct {
	entries map[uint64]*orderHandle
}

func newOrderIndex() *OrderIndex {
	return &OrderIndex{entries: make(map[uint64]*orderHandle)}
}

func (idx *OrderIndex) insert(order *Order) *orderHandle {
	h := &orderHandle{order: order}
	idx.entries[order.ID] = h
	return h
}

func (idx *OrderIndex) get(id uint64) (*orderHandle, bool) {
	h, ok := idx.entries[id]
	return h, ok
}

func (idx *OrderIndex) erase(id uint64) {
	delete(idx.entries, id)
}

func (idx *OrderIndex) len() int {
	return len(idx.entries)
}
