package scan

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"feeScope/internal/dex"
	"feeScope/internal/model"
)

// ScanResult is the outcome for one index of an owner scan. Either Position
// or Err is set; failed indexes stay in the slice so callers can see exactly
// which items were skipped.
type ScanResult struct {
	Index    uint64
	ID       *big.Int
	Position *model.PositionSnapshot
	Err      error
}

// Aggregator enumerates the positions an address owns through a protocol
// adapter. Positions are a live view of chain state, not a cached set.
type Aggregator struct {
	adapter dex.ProtocolAdapter
	src     dex.DataSource
	logger  *zap.Logger
}

func NewAggregator(adapter dex.ProtocolAdapter, src dex.DataSource, logger *zap.Logger) *Aggregator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Aggregator{adapter: adapter, src: src, logger: logger}
}

// ScanOwner walks every position index of the owner. A failure at one index
// is recorded and logged but never aborts the remaining indexes; only the
// initial count lookup is fatal.
func (a *Aggregator) ScanOwner(ctx context.Context, owner common.Address) ([]ScanResult, error) {
	count, err := a.src.OwnerPositionCount(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("position count for %s: %w", owner.Hex(), err)
	}
	if !count.IsUint64() {
		return nil, fmt.Errorf("position count for %s out of range: %s", owner.Hex(), count)
	}

	total := count.Uint64()
	results := make([]ScanResult, 0, total)
	for index := uint64(0); index < total; index++ {
		select {
		case <-ctx.Done():
			return results, ctx.Err()
		default:
		}

		result := ScanResult{Index: index}

		id, err := a.src.OwnedPositionIDAt(ctx, owner, new(big.Int).SetUint64(index))
		if err != nil {
			result.Err = err
			a.logger.Warn("position id fetch failed, skipping",
				zap.Uint64("index", index),
				zap.String("owner", owner.Hex()),
				zap.Error(err))
			results = append(results, result)
			continue
		}
		result.ID = id

		position, err := a.adapter.ResolvePosition(ctx, id)
		if err != nil {
			result.Err = err
			a.logger.Warn("position resolve failed, skipping",
				zap.Uint64("index", index),
				zap.String("id", id.String()),
				zap.Error(err))
			results = append(results, result)
			continue
		}

		result.Position = position
		results = append(results, result)
	}

	return results, nil
}

// PositionsForOwner returns the owner's resolvable positions that still hold
// liquidity, in index order. Failed indexes are omitted.
func (a *Aggregator) PositionsForOwner(ctx context.Context, owner common.Address) ([]*model.PositionSnapshot, error) {
	results, err := a.ScanOwner(ctx, owner)
	if err != nil {
		return nil, err
	}

	positions := make([]*model.PositionSnapshot, 0, len(results))
	for _, result := range results {
		if result.Err != nil || result.Position == nil {
			continue
		}
		if !result.Position.HasLiquidity() {
			continue
		}
		positions = append(positions, result.Position)
	}
	return positions, nil
}
