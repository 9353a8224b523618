package feemath

import (
	"github.com/holiman/uint256"

	"feeScope/internal/model"
)

// ComputeUncollectedFees returns the uncollected fee amounts for both tokens
// of a position, reproducing the pool contract's own accounting bit for bit.
//
// The caller must have fetched lower and upper for position.TickLower and
// position.TickUpper against the same pool as pool.Address; this function is
// pure arithmetic over those already-validated inputs and never fails.
func ComputeUncollectedFees(position *model.PositionSnapshot, pool *model.PoolSnapshot, lower, upper model.TickSnapshot) (fee0, fee1 *uint256.Int) {
	// A position with no liquidity cannot accrue further fees; only the
	// previously checkpointed owed amounts remain collectible.
	if position.Liquidity == nil || position.Liquidity.IsZero() {
		return cloneOrZero(position.TokensOwed0), cloneOrZero(position.TokensOwed1)
	}

	fee0 = uncollectedForToken(
		pool.FeeGrowthGlobal0,
		lower.FeeGrowthOutside0,
		upper.FeeGrowthOutside0,
		position.FeeGrowthInside0Last,
		position.TokensOwed0,
		position.Liquidity,
		pool.Tick, position.TickLower, position.TickUpper,
	)
	fee1 = uncollectedForToken(
		pool.FeeGrowthGlobal1,
		lower.FeeGrowthOutside1,
		upper.FeeGrowthOutside1,
		position.FeeGrowthInside1Last,
		position.TokensOwed1,
		position.Liquidity,
		pool.Tick, position.TickLower, position.TickUpper,
	)
	return fee0, fee1
}

// FeeGrowthInside derives the per-unit-liquidity fee growth accumulated
// strictly inside [tickLower, tickUpper) from the global counter and the two
// boundary ticks' outside counters.
func FeeGrowthInside(global, outsideLower, outsideUpper *uint256.Int, currentTick, tickLower, tickUpper int32) *uint256.Int {
	// Growth below the range. At currentTick == tickLower the outside
	// counter already faces the range, so it is used directly.
	var below *uint256.Int
	if currentTick >= tickLower {
		below = outsideLower.Clone()
	} else {
		below = WrappingSub(global, outsideLower)
	}

	// Growth above the range. Here equality takes the subtracted form:
	// growth exactly at the upper boundary belongs to the range starting
	// there, not to this one.
	var above *uint256.Int
	if currentTick < tickUpper {
		above = outsideUpper.Clone()
	} else {
		above = WrappingSub(global, outsideUpper)
	}

	return WrappingSub(WrappingSub(global, below), above)
}

func uncollectedForToken(global, outsideLower, outsideUpper, insideLast, owed, liquidity *uint256.Int, currentTick, tickLower, tickUpper int32) *uint256.Int {
	inside := FeeGrowthInside(global, outsideLower, outsideUpper, currentTick, tickLower, tickUpper)
	delta := WrappingSub(inside, insideLast)

	// accrued = delta * liquidity / 2^128 with a full-width intermediate
	// product and truncating division, matching the contracts' mulDiv.
	accrued := new(uint256.Int)
	accrued.MulDivOverflow(delta, liquidity, Q128)

	return accrued.Add(accrued, cloneOrZero(owed))
}

func cloneOrZero(x *uint256.Int) *uint256.Int {
	if x == nil {
		return new(uint256.Int)
	}
	return x.Clone()
}
