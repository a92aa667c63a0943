package shop

// Sentinel values shared with the persisted schema.
const (
	Unlimited    = -1 // maxStock: never capped, never rebalanced
	NeverRestock = -1 // restockTime: never scheduled
)

// Restock policies: how stock is pulled toward floor(maxStock/2).
const (
	RestockShortage = -1 // raise to target only
	RestockDefault  = 0  // force to target
	RestockSurplus  = 1  // lower to target only
)

// Item is one tradeable catalog entry. The first six fields are the persisted
// row; countdown is runtime-only and re-arms from RestockTime on load.
type Item struct {
	ID          int
	Price       int
	Stock       int
	MaxStock    int
	RestockTime int // re-arm interval in ticks; <= 0 never schedules
	RestockType int

	countdown int // ticks until the next restock evaluation
}

// rebalanceTo pulls Stock toward floor(MaxStock/2) under the given policy.
// Uncapped items are never touched. Reports whether Stock changed.
func (it *Item) rebalanceTo(policy int) bool {
	if it.MaxStock == Unlimited {
		return false
	}
	target := it.MaxStock / 2
	switch policy {
	case RestockShortage:
		if it.Stock < target {
			it.Stock = target
			return true
		}
	case RestockSurplus:
		if it.Stock > target {
			it.Stock = target
			return true
		}
	case RestockDefault:
		if it.Stock != target {
			it.Stock = target
			return true
		}
	}
	return false
}

func validPolicy(p int) bool {
	return p == RestockShortage || p == RestockDefault || p == RestockSurplus
}
