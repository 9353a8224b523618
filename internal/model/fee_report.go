package model

import "time"

// FeeReport is the flattened uncollected-fee record written to sinks.
// Big amounts are decimal strings so the record survives JSON and SQL intact.
type FeeReport struct {
	ChainID         uint64    `json:"chain_id"`
	PositionID      string    `json:"position_id"`
	PoolAddress     string    `json:"pool_address"`
	Token0Address   string    `json:"token0_address"`
	Token0Symbol    string    `json:"token0_symbol"`
	Token0Decimals  uint8     `json:"token0_decimals"`
	Token1Address   string    `json:"token1_address"`
	Token1Symbol    string    `json:"token1_symbol"`
	Token1Decimals  uint8     `json:"token1_decimals"`
	FeeTier         uint32    `json:"fee_tier"`
	TickLower       int32     `json:"tick_lower"`
	TickUpper       int32     `json:"tick_upper"`
	CurrentTick     int32     `json:"current_tick"`
	InRange         bool      `json:"in_range"`
	Liquidity       string    `json:"liquidity"`
	UncollectedFee0 string    `json:"uncollected_fee0"`
	UncollectedFee1 string    `json:"uncollected_fee1"`
	BlockNumber     uint64    `json:"block_number"`
	ComputedAt      time.Time `json:"computed_at"`
}
