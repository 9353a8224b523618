package feemath

import "github.com/holiman/uint256"

// Q128 is the fixed-point scale of the protocol's fee-growth accumulators.
var Q128 = new(uint256.Int).Lsh(uint256.NewInt(1), 128)

// WrappingSub returns (x - y) mod 2^256.
//
// Fee-growth accumulators live in the ring Z/2^256Z and wrap on-chain, so a
// numerically smaller recent value is still "after" an older one. All
// fee-growth differencing must go through this operation; a bounds-checked
// subtraction would be wrong the moment an accumulator wraps.
func WrappingSub(x, y *uint256.Int) *uint256.Int {
	return new(uint256.Int).Sub(x, y)
}
