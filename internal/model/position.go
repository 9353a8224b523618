package model

import (
	"fmt"
	"math/big"

	"github.com/holiman/uint256"
)

// PositionSnapshot is the protocol-agnostic view of one liquidity position,
// built fresh from chain state on every query and never mutated.
type PositionSnapshot struct {
	ID                   *big.Int     `json:"id"`
	Token0               TokenInfo    `json:"token0"`
	Token1               TokenInfo    `json:"token1"`
	FeeTier              uint32       `json:"fee_tier"`
	TickSpacing          int32        `json:"tick_spacing"`
	TickLower            int32        `json:"tick_lower"`
	TickUpper            int32        `json:"tick_upper"`
	CurrentTick          int32        `json:"current_tick"`
	Liquidity            *uint256.Int `json:"liquidity"`
	FeeGrowthInside0Last *uint256.Int `json:"fee_growth_inside0_last"`
	FeeGrowthInside1Last *uint256.Int `json:"fee_growth_inside1_last"`
	TokensOwed0          *uint256.Int `json:"tokens_owed0"`
	TokensOwed1          *uint256.Int `json:"tokens_owed1"`
	InRange              bool         `json:"in_range"`
}

// Validate checks the structural invariants that the fee engine assumes.
func (p *PositionSnapshot) Validate() error {
	if p.ID == nil {
		return fmt.Errorf("position id is nil")
	}
	if p.TickLower >= p.TickUpper {
		return fmt.Errorf("position %s: tick bounds inverted: [%d, %d)", p.ID, p.TickLower, p.TickUpper)
	}
	if p.Liquidity == nil || p.FeeGrowthInside0Last == nil || p.FeeGrowthInside1Last == nil {
		return fmt.Errorf("position %s: missing accounting fields", p.ID)
	}
	return nil
}

// HasLiquidity reports whether the position currently holds any liquidity.
func (p *PositionSnapshot) HasLiquidity() bool {
	return p.Liquidity != nil && !p.Liquidity.IsZero()
}
