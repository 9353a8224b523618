package dex

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"feeScope/internal/model"
)

// ProtocolAdapter normalizes one source protocol behind the canonical data
// model. feeKey is the protocol's native pool key: the fee tier for fee-tier
// protocols, the tick spacing for tick-spacing protocols.
type ProtocolAdapter interface {
	ResolvePool(ctx context.Context, token0, token1 common.Address, feeKey int64) (*model.PoolSnapshot, error)
	ResolvePosition(ctx context.Context, id *big.Int) (*model.PositionSnapshot, error)
	TickSpacingForFeeTier(ctx context.Context, fee uint32) (int32, error)
	FeeTierForTickSpacing(ctx context.Context, spacing int32) (uint32, error)
}

// baseAdapter carries the pieces both variants share: the data source, the
// token metadata cache, and the memoized factory address.
type baseAdapter struct {
	src    DataSource
	tokens *TokenInfoCache
	logger *zap.Logger

	// The factory address is resolved over the network at most once per
	// adapter. Guarded by a mutex so racing first calls cannot issue
	// duplicate resolutions; stored only on success so a transient failure
	// does not poison the adapter.
	factoryMu   sync.Mutex
	factoryAddr common.Address
	factorySet  bool
}

func newBaseAdapter(src DataSource, logger *zap.Logger) baseAdapter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return baseAdapter{
		src:    src,
		tokens: NewTokenInfoCache(),
		logger: logger,
	}
}

func (a *baseAdapter) factory(ctx context.Context) (common.Address, error) {
	a.factoryMu.Lock()
	defer a.factoryMu.Unlock()
	if a.factorySet {
		return a.factoryAddr, nil
	}

	addr, err := a.src.FactoryAddress(ctx)
	if err != nil {
		return common.Address{}, fmt.Errorf("resolve factory: %w", err)
	}
	a.factoryAddr = addr
	a.factorySet = true
	a.logger.Debug("factory resolved", zap.String("factory", addr.Hex()))
	return addr, nil
}

func (a *baseAdapter) tokenInfo(ctx context.Context, token common.Address) (model.TokenInfo, error) {
	if info, ok := a.tokens.Get(token); ok {
		return info, nil
	}
	info, err := a.src.TokenMeta(ctx, token)
	if err != nil {
		return model.TokenInfo{}, fmt.Errorf("token meta %s: %w", token.Hex(), err)
	}
	a.tokens.Set(token, info)
	return info, nil
}

// resolvePool looks up the pool for a pair and native key and reads its state.
func (a *baseAdapter) resolvePool(ctx context.Context, token0, token1 common.Address, feeKey int64) (*model.PoolSnapshot, error) {
	factory, err := a.factory(ctx)
	if err != nil {
		return nil, err
	}

	addr, err := a.src.PoolAddress(ctx, factory, token0, token1, feeKey)
	if err != nil {
		return nil, fmt.Errorf("resolve pool %s/%s key %d: %w", token0.Hex(), token1.Hex(), feeKey, err)
	}
	if addr == (common.Address{}) {
		return nil, &PoolNotFoundError{Token0: token0, Token1: token1, FeeKey: feeKey}
	}

	state, err := a.src.PoolState(ctx, addr)
	if err != nil {
		return nil, fmt.Errorf("pool state %s: %w", addr.Hex(), err)
	}

	return &model.PoolSnapshot{
		Address:          addr.Hex(),
		Token0:           state.Token0.Hex(),
		Token1:           state.Token1.Hex(),
		FeeTier:          state.Fee,
		TickSpacing:      state.TickSpacing,
		SqrtPriceX96:     state.SqrtPriceX96,
		Tick:             state.Tick,
		Liquidity:        state.Liquidity,
		FeeGrowthGlobal0: state.FeeGrowthGlobal0,
		FeeGrowthGlobal1: state.FeeGrowthGlobal1,
	}, nil
}

// positionSnapshot assembles the canonical position record from a raw
// manager record and its already-normalized fee tier and tick spacing.
func (a *baseAdapter) positionSnapshot(ctx context.Context, id *big.Int, raw RawPosition, fee uint32, spacing int32, feeKey int64) (*model.PositionSnapshot, error) {
	pool, err := a.resolvePool(ctx, raw.Token0, raw.Token1, feeKey)
	if err != nil {
		return nil, err
	}

	token0, err := a.tokenInfo(ctx, raw.Token0)
	if err != nil {
		return nil, err
	}
	token1, err := a.tokenInfo(ctx, raw.Token1)
	if err != nil {
		return nil, err
	}

	position := &model.PositionSnapshot{
		ID:                   new(big.Int).Set(id),
		Token0:               token0,
		Token1:               token1,
		FeeTier:              fee,
		TickSpacing:          spacing,
		TickLower:            raw.TickLower,
		TickUpper:            raw.TickUpper,
		CurrentTick:          pool.Tick,
		Liquidity:            raw.Liquidity,
		FeeGrowthInside0Last: raw.FeeGrowthInside0Last,
		FeeGrowthInside1Last: raw.FeeGrowthInside1Last,
		TokensOwed0:          raw.TokensOwed0,
		TokensOwed1:          raw.TokensOwed1,
		InRange:              pool.Tick >= raw.TickLower && pool.Tick < raw.TickUpper,
	}
	if err := position.Validate(); err != nil {
		return nil, err
	}
	return position, nil
}
