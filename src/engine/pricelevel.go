package engine

import "container/list"

// PriceLevel is the ordered FIFO queue of resting orders at a single price.
// It is backed by container/list rather than the teacher's []*Order slice
// so that removal via a retained *list.Element is O(1), as the order index
// contract (§4.4) requires — a plain slice needs an O(n) scan to splice an
// arbitrary element out.
type PriceLevel struct {
	Price         int64
	Orders        *list.List
	TotalQuantity int64
}

func newPriceLevel(price int64) *PriceLevel {
	return &PriceLevel{
		Price:  price,
		Orders: list.New(),
	}
}

// add appends order to the tail of the level and returns the handle needed
// to splice it back out in O(1).
func (l *PriceLevel) add(order *Order) *list.Element {
	elem := l.Orders.PushBack(order)
	l.TotalQuantity += order.RemainingQuantity()
	return elem
}

// removeElement splices elem out of the level in O(1) and decrements
// TotalQuantity by the order's remaining quantity at the time of removal.
// Callers that have already accounted for a fill (i.e. removed a
// fully-filled resting order from the match loop, where TotalQuantity was
// already decremented by the fill amount) should use removeFilledElement
// instead to avoid double-counting.
func (l *PriceLevel) removeElement(elem *list.Element) {
	order := elem.Value.(*Order)
	l.TotalQuantity -= order.RemainingQuantity()
	l.Orders.Remove(elem)
}

// removeFilledElement splices a fully-filled order (RemainingQuantity == 0)
// out of the level. TotalQuantity was already reduced by the fill, so no
// further bookkeeping is needed here.
func (l *PriceLevel) removeFilledElement(elem *list.Element) {
	l.Orders.Remove(elem)
}

// front returns the head order of the level, or nil if the level is empty.
func (l *PriceLevel) front() *Order {
	elem := l.Orders.Front()
	if elem == nil {
		return nil
	}
	return elem.Value.(*Order)
}

// frontElement returns the head element of the level, or nil if empty.
func (l *PriceLevel) frontElement() *list.Element {
	return l.Orders.Front()
}

func (l *PriceLevel) isEmpty() bool {
	return l.Orders.Len() == 0
}
