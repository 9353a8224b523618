package model

import "github.com/holiman/uint256"

// TickSnapshot holds the fee-growth-outside counters of one initialized tick.
// Fetched per query for each range boundary; never cached, since the counters
// flip whenever the pool crosses the tick.
type TickSnapshot struct {
	FeeGrowthOutside0 *uint256.Int `json:"fee_growth_outside0"`
	FeeGrowthOutside1 *uint256.Int `json:"fee_growth_outside1"`
}
