package dex

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"feeScope/internal/model"
)

// feeTierSpacings is the fixed fee-tier to tick-spacing table of
// Uniswap-V3-style protocols. Baked into the deployments, never a chain read.
var feeTierSpacings = map[uint32]int32{
	100:   1,
	500:   10,
	3000:  60,
	10000: 200,
}

// FeeTierAdapter normalizes fee-tier-keyed protocols (Uniswap V3 and forks).
type FeeTierAdapter struct {
	baseAdapter
}

func NewFeeTierAdapter(src DataSource, logger *zap.Logger) *FeeTierAdapter {
	return &FeeTierAdapter{baseAdapter: newBaseAdapter(src, logger)}
}

// ResolvePool resolves the pool for a pair keyed by fee tier.
func (a *FeeTierAdapter) ResolvePool(ctx context.Context, token0, token1 common.Address, feeKey int64) (*model.PoolSnapshot, error) {
	return a.resolvePool(ctx, token0, token1, feeKey)
}

// ResolvePosition reads a position and normalizes it to the canonical model.
func (a *FeeTierAdapter) ResolvePosition(ctx context.Context, id *big.Int) (*model.PositionSnapshot, error) {
	raw, err := a.src.PositionRaw(ctx, id)
	if err != nil {
		return nil, err
	}

	fee := uint32(raw.FeeKey)
	spacing, err := a.TickSpacingForFeeTier(ctx, fee)
	if err != nil {
		return nil, fmt.Errorf("position %s: %w", id, err)
	}

	return a.positionSnapshot(ctx, id, raw, fee, spacing, int64(fee))
}

// TickSpacingForFeeTier is a pure table lookup; it never touches the chain.
func (a *FeeTierAdapter) TickSpacingForFeeTier(_ context.Context, fee uint32) (int32, error) {
	spacing, ok := feeTierSpacings[fee]
	if !ok {
		return 0, &UnknownFeeTierError{Fee: fee}
	}
	return spacing, nil
}

// FeeTierForTickSpacing inverts the static table.
func (a *FeeTierAdapter) FeeTierForTickSpacing(_ context.Context, spacing int32) (uint32, error) {
	for fee, s := range feeTierSpacings {
		if s == spacing {
			return fee, nil
		}
	}
	return 0, &UnknownTickSpacingError{TickSpacing: spacing}
}
