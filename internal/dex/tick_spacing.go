package dex

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"feeScope/internal/model"
)

// deployedSpacings lists the tick spacings enabled on Slipstream-style
// deployments. Only the spacing set is fixed; the fee behind each spacing is
// governance-mutable and must be read from the factory at query time.
var deployedSpacings = []int32{1, 50, 100, 200, 2000}

// TickSpacingAdapter normalizes tick-spacing-keyed protocols (Slipstream-style
// concentrated-liquidity deployments).
type TickSpacingAdapter struct {
	baseAdapter
}

func NewTickSpacingAdapter(src DataSource, logger *zap.Logger) *TickSpacingAdapter {
	return &TickSpacingAdapter{baseAdapter: newBaseAdapter(src, logger)}
}

// ResolvePool resolves the pool for a pair keyed by tick spacing.
func (a *TickSpacingAdapter) ResolvePool(ctx context.Context, token0, token1 common.Address, feeKey int64) (*model.PoolSnapshot, error) {
	return a.resolvePool(ctx, token0, token1, feeKey)
}

// ResolvePosition reads a position and normalizes it to the canonical model.
// The position record carries the tick spacing; the fee tier comes from the
// factory's live mapping.
func (a *TickSpacingAdapter) ResolvePosition(ctx context.Context, id *big.Int) (*model.PositionSnapshot, error) {
	raw, err := a.src.PositionRaw(ctx, id)
	if err != nil {
		return nil, err
	}

	spacing := int32(raw.FeeKey)
	fee, err := a.FeeTierForTickSpacing(ctx, spacing)
	if err != nil {
		return nil, fmt.Errorf("position %s: %w", id, err)
	}

	return a.positionSnapshot(ctx, id, raw, fee, spacing, int64(spacing))
}

// TickSpacingForFeeTier scans the deployed spacings for one whose governed
// fee matches. The mapping is mutable, so every invocation reads the factory.
func (a *TickSpacingAdapter) TickSpacingForFeeTier(ctx context.Context, fee uint32) (int32, error) {
	factory, err := a.factory(ctx)
	if err != nil {
		return 0, err
	}
	for _, spacing := range deployedSpacings {
		got, err := a.src.FeeForTickSpacing(ctx, factory, spacing)
		if err != nil {
			return 0, err
		}
		if got == fee {
			return spacing, nil
		}
	}
	return 0, &UnknownFeeTierError{Fee: fee}
}

// FeeTierForTickSpacing queries the factory on every call. The fee behind a
// spacing is protocol-governed and can change, so the result is never cached.
func (a *TickSpacingAdapter) FeeTierForTickSpacing(ctx context.Context, spacing int32) (uint32, error) {
	factory, err := a.factory(ctx)
	if err != nil {
		return 0, err
	}
	return a.src.FeeForTickSpacing(ctx, factory, spacing)
}
