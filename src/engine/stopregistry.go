package engine

import "container/list"

// StopRegistry holds not-yet-triggered Stop/StopLimit orders, scanned
// against every new last-trade price. It is backed by container/list so
// that cancel can splice a pending stop order out in O(1) via the
// *list.Element the Order Index keeps for it, the same discipline as
// PriceLevel.
type StopRegistry struct {
	orders *list.List
}

func newStopRegistry() *StopRegistry {
	return &StopRegistry{orders: list.New()}
}

// submit adds order to the registry in submission order, returning the
// handle needed for O(1) removal.
func (r *StopRegistry) submit(order *Order) *list.Element {
	return r.orders.PushBack(order)
}

func (r *StopRegistry) removeElement(elem *list.Element) {
	r.orders.Remove(elem)
}

// drainTriggered scans all entries in submission order, removes those whose
// checkStopTrigger(lastPrice) fires, and returns them as an ordered batch —
// relative priority within the batch is submission order, preserved across
// the scan.
func (r *StopRegistry) drainTriggered(lastPrice int64) []*Order {
	var triggered []*Order

	elem := r.orders.Front()
	for elem != nil {
		next := elem.Next()
		order := elem.Value.(*Order)
		if order.checkStopTrigger(lastPrice) {
			r.orders.Remove(elem)
			triggered = append(triggered, order)
		}
		elem = next
	}

	return triggered
}

func (r *StopRegistry) len() int {
	return r.orders.Len()
}
