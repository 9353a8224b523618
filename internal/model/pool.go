package model

import "github.com/holiman/uint256"

// PoolSnapshot is the canonical view of a pool's live state at query time.
type PoolSnapshot struct {
	Address          string       `json:"address"`
	Token0           string       `json:"token0"`
	Token1           string       `json:"token1"`
	FeeTier          uint32       `json:"fee_tier"`
	TickSpacing      int32        `json:"tick_spacing"`
	SqrtPriceX96     *uint256.Int `json:"sqrt_price_x96"`
	Tick             int32        `json:"tick"`
	Liquidity        *uint256.Int `json:"liquidity"`
	FeeGrowthGlobal0 *uint256.Int `json:"fee_growth_global0"`
	FeeGrowthGlobal1 *uint256.Int `json:"fee_growth_global1"`
}
