package scan

import (
	"context"
	"fmt"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"feeScope/internal/dex"
	"feeScope/internal/model"
)

type stubScanSource struct {
	count    int64
	failIdAt map[int64]error
}

func (s *stubScanSource) PositionRaw(_ context.Context, id *big.Int) (dex.RawPosition, error) {
	return dex.RawPosition{}, fmt.Errorf("not used")
}

func (s *stubScanSource) PoolAddress(_ context.Context, factory, token0, token1 common.Address, feeKey int64) (common.Address, error) {
	return common.Address{}, fmt.Errorf("not used")
}

func (s *stubScanSource) PoolState(_ context.Context, pool common.Address) (dex.RawPoolState, error) {
	return dex.RawPoolState{}, fmt.Errorf("not used")
}

func (s *stubScanSource) TickOutsideGrowth(_ context.Context, pool common.Address, tick int32) (model.TickSnapshot, error) {
	return model.TickSnapshot{}, fmt.Errorf("not used")
}

func (s *stubScanSource) TokenMeta(_ context.Context, token common.Address) (model.TokenInfo, error) {
	return model.TokenInfo{}, fmt.Errorf("not used")
}

func (s *stubScanSource) OwnerPositionCount(_ context.Context, owner common.Address) (*big.Int, error) {
	return big.NewInt(s.count), nil
}

func (s *stubScanSource) OwnedPositionIDAt(_ context.Context, owner common.Address, index *big.Int) (*big.Int, error) {
	if err, ok := s.failIdAt[index.Int64()]; ok {
		return nil, err
	}
	return big.NewInt(index.Int64() + 100), nil
}

func (s *stubScanSource) FactoryAddress(_ context.Context) (common.Address, error) {
	return common.Address{}, fmt.Errorf("not used")
}

func (s *stubScanSource) FeeForTickSpacing(_ context.Context, factory common.Address, spacing int32) (uint32, error) {
	return 0, fmt.Errorf("not used")
}

// stubAdapter resolves positions from a fixed map and can fail specific ids.
type stubAdapter struct {
	positions map[int64]*model.PositionSnapshot
	failIDs   map[int64]error
}

func (a *stubAdapter) ResolvePool(_ context.Context, token0, token1 common.Address, feeKey int64) (*model.PoolSnapshot, error) {
	return nil, fmt.Errorf("not used")
}

func (a *stubAdapter) ResolvePosition(_ context.Context, id *big.Int) (*model.PositionSnapshot, error) {
	if err, ok := a.failIDs[id.Int64()]; ok {
		return nil, err
	}
	if pos, ok := a.positions[id.Int64()]; ok {
		return pos, nil
	}
	return stubPosition(id, 1), nil
}

func (a *stubAdapter) TickSpacingForFeeTier(_ context.Context, fee uint32) (int32, error) {
	return 0, fmt.Errorf("not used")
}

func (a *stubAdapter) FeeTierForTickSpacing(_ context.Context, spacing int32) (uint32, error) {
	return 0, fmt.Errorf("not used")
}

func stubPosition(id *big.Int, liquidity uint64) *model.PositionSnapshot {
	return &model.PositionSnapshot{
		ID:                   new(big.Int).Set(id),
		TickLower:            -10,
		TickUpper:            10,
		Liquidity:            uint256.NewInt(liquidity),
		FeeGrowthInside0Last: uint256.NewInt(0),
		FeeGrowthInside1Last: uint256.NewInt(0),
		TokensOwed0:          uint256.NewInt(0),
		TokensOwed1:          uint256.NewInt(0),
	}
}

func TestScanIsolatesPerIndexFailures(t *testing.T) {
	// Index 2 of 5 fails at resolution; the remaining indexes must survive.
	src := &stubScanSource{count: 5}
	adapter := &stubAdapter{failIDs: map[int64]error{102: fmt.Errorf("transient fetch error")}}
	agg := NewAggregator(adapter, src, nil)

	results, err := agg.ScanOwner(context.Background(), common.Address{})
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(results) != 5 {
		t.Fatalf("results = %d, want 5", len(results))
	}
	for _, r := range results {
		if r.Index == 2 {
			if r.Err == nil {
				t.Fatalf("index 2 should carry the failure")
			}
			continue
		}
		if r.Err != nil || r.Position == nil {
			t.Fatalf("index %d failed unexpectedly: %v", r.Index, r.Err)
		}
	}

	positions, err := agg.PositionsForOwner(context.Background(), common.Address{})
	if err != nil {
		t.Fatalf("positions: %v", err)
	}
	wantIDs := []int64{100, 101, 103, 104}
	if len(positions) != len(wantIDs) {
		t.Fatalf("positions = %d, want %d", len(positions), len(wantIDs))
	}
	for i, pos := range positions {
		if pos.ID.Int64() != wantIDs[i] {
			t.Fatalf("position %d id = %s, want %d", i, pos.ID, wantIDs[i])
		}
	}
}

func TestScanIsolatesIDFetchFailures(t *testing.T) {
	src := &stubScanSource{count: 3, failIdAt: map[int64]error{1: fmt.Errorf("rpc timeout")}}
	agg := NewAggregator(&stubAdapter{}, src, nil)

	results, err := agg.ScanOwner(context.Background(), common.Address{})
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("results = %d, want 3", len(results))
	}
	if results[1].Err == nil || results[1].ID != nil {
		t.Fatalf("index 1 should fail before resolution: %+v", results[1])
	}
}

func TestPositionsForOwnerFiltersEmptyLiquidity(t *testing.T) {
	src := &stubScanSource{count: 2}
	adapter := &stubAdapter{positions: map[int64]*model.PositionSnapshot{
		100: stubPosition(big.NewInt(100), 0),
		101: stubPosition(big.NewInt(101), 5),
	}}
	agg := NewAggregator(adapter, src, nil)

	positions, err := agg.PositionsForOwner(context.Background(), common.Address{})
	if err != nil {
		t.Fatalf("positions: %v", err)
	}
	if len(positions) != 1 || positions[0].ID.Int64() != 101 {
		t.Fatalf("want only position 101, got %+v", positions)
	}
}
