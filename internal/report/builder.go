package report

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"feeScope/internal/dex"
	"feeScope/internal/feemath"
	"feeScope/internal/model"
)

// Builder turns resolved positions into fee reports: it resolves the backing
// pool, fetches both boundary tick snapshots, and runs the fee engine.
type Builder struct {
	adapter dex.ProtocolAdapter
	src     dex.DataSource
	variant dex.Variant
	logger  *zap.Logger
}

func NewBuilder(adapter dex.ProtocolAdapter, src dex.DataSource, variant dex.Variant, logger *zap.Logger) *Builder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Builder{adapter: adapter, src: src, variant: variant, logger: logger}
}

// Build computes the uncollected fees of one position at query time.
func (b *Builder) Build(ctx context.Context, position *model.PositionSnapshot, chainID, blockNumber uint64) (model.FeeReport, error) {
	feeKey := int64(position.FeeTier)
	if b.variant == dex.VariantTickSpacing {
		feeKey = int64(position.TickSpacing)
	}

	token0 := common.HexToAddress(position.Token0.Address)
	token1 := common.HexToAddress(position.Token1.Address)

	pool, err := b.adapter.ResolvePool(ctx, token0, token1, feeKey)
	if err != nil {
		return model.FeeReport{}, fmt.Errorf("position %s: %w", position.ID, err)
	}
	poolAddr := common.HexToAddress(pool.Address)

	// The two boundary reads are independent; issue them together.
	var lower, upper model.TickSnapshot
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		lower, err = b.src.TickOutsideGrowth(gctx, poolAddr, position.TickLower)
		return err
	})
	g.Go(func() error {
		var err error
		upper, err = b.src.TickOutsideGrowth(gctx, poolAddr, position.TickUpper)
		return err
	})
	if err := g.Wait(); err != nil {
		return model.FeeReport{}, fmt.Errorf("position %s ticks: %w", position.ID, err)
	}

	fee0, fee1 := feemath.ComputeUncollectedFees(position, pool, lower, upper)

	return model.FeeReport{
		ChainID:         chainID,
		PositionID:      position.ID.String(),
		PoolAddress:     pool.Address,
		Token0Address:   position.Token0.Address,
		Token0Symbol:    position.Token0.Symbol,
		Token0Decimals:  position.Token0.Decimals,
		Token1Address:   position.Token1.Address,
		Token1Symbol:    position.Token1.Symbol,
		Token1Decimals:  position.Token1.Decimals,
		FeeTier:         pool.FeeTier,
		TickLower:       position.TickLower,
		TickUpper:       position.TickUpper,
		CurrentTick:     pool.Tick,
		InRange:         pool.Tick >= position.TickLower && pool.Tick < position.TickUpper,
		Liquidity:       position.Liquidity.Dec(),
		UncollectedFee0: fee0.Dec(),
		UncollectedFee1: fee1.Dec(),
		BlockNumber:     blockNumber,
		ComputedAt:      time.Now().UTC(),
	}, nil
}
