package engine

import "fmt"

// InsufficientLiquidityError is not a core matching concept — the core
// always matches what it can and cancels the remainder (§4.6) — but is
// surfaced as an API ergonomics convenience at the HTTP boundary, mirroring
// the teacher's own handler-level error type. Handlers construct it after
// observing a Market order's RemainingQuantity following Submit.
type InsufficientLiquidityError struct {
	Requested int64
	Available int64
}

func (e *InsufficientLiquidityError) Error() string {
	return fmt.Sprintf("insufficient liquidity: requested %d, available %d", e.Requested, e.Available)
}
