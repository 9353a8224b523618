package report

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

type stubReportSource struct {
	at map[int32]model.TickSnapshot
}

func (s *stubReportSource) PositionRaw(_ context.Context, id *big.Int) (dex.RawPosition, error) {
	return dex.RawPosition{}, fmt.Errorf("not used")
}

func (s *stubReportSource) PoolAddress(_ context.Context, factory, token0, token1 common.Address, feeKey int64) (common.Address, error) {
	return common.Address{}, fmt.Errorf("not used")
}

func (s *stubReportSource) PoolState(_ context.Context, pool common.Address) (dex.RawPoolState, error) {
	return dex.RawPoolState{}, fmt.Errorf("not used")
}

func (s *stubReportSource) TickOutsideGrowth(_ context.Context, pool common.Address, tick int32) (model.TickSnapshot, error) {
	if snap, ok := s.at[tick]; ok {
		return snap, nil
	}
	return model.TickSnapshot{}, fmt.Errorf("no tick %d", tick)
}

func (s *stubReportSource) TokenMeta(_ context.Context, token common.Address) (model.TokenInfo, error) {
	return model.TokenInfo{}, fmt.Errorf("not used")
}

func (s *stubReportSource) OwnerPositionCount(_ context.Context, owner common.Address) (*big.Int, error) {
	return nil, fmt.Errorf("not used")
}

func (s *stubReportSource) OwnedPositionIDAt(_ context.Context, owner common.Address, index *big.Int) (*big.Int, error) {
	return nil, fmt.Errorf("not used")
}

func (s *stubReportSource) FactoryAddress(_ context.Context) (common.Address, error) {
	return common.Address{}, fmt.Errorf("not used")
}

func (s *stubReportSource) FeeForTickSpacing(_ context.Context, factory common.Address, spacing int32) (uint32, error) {
	return 0, fmt.Errorf("not used")
}

type stubReportAdapter struct {
	pool       *model.PoolSnapshot
	gotFeeKeys []int64
}

func (a *stubReportAdapter) ResolvePool(_ context.Context, token0, token1 common.Address, feeKey int64) (*model.PoolSnapshot, error) {
	a.gotFeeKeys = append(a.gotFeeKeys, feeKey)
	return a.pool, nil
}

func (a *stubReportAdapter) ResolvePosition(_ context.Context, id *big.Int) (*model.PositionSnapshot, error) {
	return nil, fmt.Errorf("not used")
}

func (a *stubReportAdapter) TickSpacingForFeeTier(_ context.Context, fee uint32) (int32, error) {
	return 0, fmt.Errorf("not used")
}

func (a *stubReportAdapter) FeeTierForTickSpacing(_ context.Context, spacing int32) (uint32, error) {
	return 0, fmt.Errorf("not used")
}

func q128() *uint256.Int {
	return new(uint256.Int).Lsh(uint256.NewInt(1), 128)
}

func TestBuildReport(t *testing.T) {
	position := &model.PositionSnapshot{
		ID:                   big.NewInt(42),
		Token0:               model.TokenInfo{Address: "0xA", Symbol: "USDC", Decimals: 6},
		Token1:               model.TokenInfo{Address: "0xB", Symbol: "WETH", Decimals: 18},
		FeeTier:              3000,
		TickSpacing:          60,
		TickLower:            100,
		TickUpper:            200,
		Liquidity:            q128(),
		FeeGrowthInside0Last: uint256.NewInt(300),
		FeeGrowthInside1Last: uint256.NewInt(0),
		TokensOwed0:          uint256.NewInt(7),
		TokensOwed1:          uint256.NewInt(0),
	}
	pool := &model.PoolSnapshot{
		Address:          "0x00000000000000000000000000000000000000b0",
		FeeTier:          3000,
		Tick:             150,
		FeeGrowthGlobal0: uint256.NewInt(500),
		FeeGrowthGlobal1: uint256.NewInt(0),
	}
	src := &stubReportSource{at: map[int32]model.TickSnapshot{
		100: {FeeGrowthOutside0: uint256.NewInt(100), FeeGrowthOutside1: uint256.NewInt(0)},
		200: {FeeGrowthOutside0: uint256.NewInt(50), FeeGrowthOutside1: uint256.NewInt(0)},
	}}
	adapter := &stubReportAdapter{pool: pool}

	builder := NewBuilder(adapter, src, dex.VariantFeeTier, nil)
	got, err := builder.Build(context.Background(), position, 8453, 12345)
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	if got.UncollectedFee0 != "57" {
		t.Fatalf("fee0 = %s, want 57", got.UncollectedFee0)
	}
	if got.UncollectedFee1 != "0" {
		t.Fatalf("fee1 = %s, want 0", got.UncollectedFee1)
	}
	if !got.InRange || got.CurrentTick != 150 {
		t.Fatalf("range state mismatch: %+v", got)
	}
	if got.PositionID != "42" || got.ChainID != 8453 || got.BlockNumber != 12345 {
		t.Fatalf("identity fields mismatch: %+v", got)
	}
	if len(adapter.gotFeeKeys) != 1 || adapter.gotFeeKeys[0] != 3000 {
		t.Fatalf("pool resolved with keys %v, want [3000]", adapter.gotFeeKeys)
	}
}

func TestBuildReportUsesSpacingKeyForTickSpacingVariant(t *testing.T) {
	position := &model.PositionSnapshot{
		ID:                   big.NewInt(7),
		FeeTier:              3000,
		TickSpacing:          200,
		TickLower:            -100,
		TickUpper:            100,
		Liquidity:            uint256.NewInt(0),
		FeeGrowthInside0Last: uint256.NewInt(0),
		FeeGrowthInside1Last: uint256.NewInt(0),
		TokensOwed0:          uint256.NewInt(1),
		TokensOwed1:          uint256.NewInt(2),
	}
	pool := &model.PoolSnapshot{
		Address:          "0x00000000000000000000000000000000000000b0",
		Tick:             0,
		FeeGrowthGlobal0: uint256.NewInt(0),
		FeeGrowthGlobal1: uint256.NewInt(0),
	}
	src := &stubReportSource{at: map[int32]model.TickSnapshot{
		-100: {FeeGrowthOutside0: uint256.NewInt(0), FeeGrowthOutside1: uint256.NewInt(0)},
		100:  {FeeGrowthOutside0: uint256.NewInt(0), FeeGrowthOutside1: uint256.NewInt(0)},
	}}
	adapter := &stubReportAdapter{pool: pool}

	builder := NewBuilder(adapter, src, dex.VariantTickSpacing, nil)
	got, err := builder.Build(context.Background(), position, 10, 1)
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	if len(adapter.gotFeeKeys) != 1 || adapter.gotFeeKeys[0] != 200 {
		t.Fatalf("pool resolved with keys %v, want [200]", adapter.gotFeeKeys)
	}
	if got.UncollectedFee0 != "1" || got.UncollectedFee1 != "2" {
		t.Fatalf("zero-liquidity fees = (%s, %s), want (1, 2)", got.UncollectedFee0, got.UncollectedFee1)
	}
}
