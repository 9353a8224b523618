package dex

import (
	"bytes"
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"go.uber.org/zap"

	"feeScope/internal/chain"
	"feeScope/internal/model"
)

// Variant selects the structural shape of a source protocol.
type Variant string

const (
	// VariantFeeTier covers Uniswap-V3-style protocols where the fee tier
	// is the pool key and tick spacing follows from a fixed table.
	VariantFeeTier Variant = "fee-tier"
	// VariantTickSpacing covers Slipstream-style protocols where tick
	// spacing is the pool key and the fee is governance-set per spacing.
	VariantTickSpacing Variant = "tick-spacing"
)

// ParseVariant maps a config string to a protocol variant.
func ParseVariant(s string) (Variant, error) {
	switch Variant(s) {
	case VariantFeeTier, VariantTickSpacing:
		return Variant(s), nil
	default:
		return "", fmt.Errorf("unknown protocol variant %q", s)
	}
}

// RawPosition is one position-manager record before normalization.
// FeeKey carries the protocol's native pool key: a fee tier for fee-tier
// protocols, a tick spacing for tick-spacing protocols.
type RawPosition struct {
	Token0               common.Address
	Token1               common.Address
	FeeKey               int64
	TickLower            int32
	TickUpper            int32
	Liquidity            *uint256.Int
	FeeGrowthInside0Last *uint256.Int
	FeeGrowthInside1Last *uint256.Int
	TokensOwed0          *uint256.Int
	TokensOwed1          *uint256.Int
}

// RawPoolState is a pool's live state as read from the contract.
type RawPoolState struct {
	Token0           common.Address
	Token1           common.Address
	Fee              uint32
	TickSpacing      int32
	SqrtPriceX96     *uint256.Int
	Tick             int32
	Liquidity        *uint256.Int
	FeeGrowthGlobal0 *uint256.Int
	FeeGrowthGlobal1 *uint256.Int
}

// DataSource is the read-only chain capability set the adapters consume.
// Implementations own transport, timeouts, and retry policy.
type DataSource interface {
	PositionRaw(ctx context.Context, id *big.Int) (RawPosition, error)
	PoolAddress(ctx context.Context, factory, token0, token1 common.Address, feeKey int64) (common.Address, error)
	PoolState(ctx context.Context, pool common.Address) (RawPoolState, error)
	TickOutsideGrowth(ctx context.Context, pool common.Address, tick int32) (model.TickSnapshot, error)
	TokenMeta(ctx context.Context, token common.Address) (model.TokenInfo, error)
	OwnerPositionCount(ctx context.Context, owner common.Address) (*big.Int, error)
	OwnedPositionIDAt(ctx context.Context, owner common.Address, index *big.Int) (*big.Int, error)
	FactoryAddress(ctx context.Context) (common.Address, error)
	FeeForTickSpacing(ctx context.Context, factory common.Address, spacing int32) (uint32, error)
}

// EthDataSource implements DataSource over eth_call against one position
// manager and the pools it points at.
type EthDataSource struct {
	client       *chain.Client
	manager      common.Address
	variant      Variant
	maxRetries   int
	retryBackoff time.Duration
	logger       *zap.Logger
}

// SourceConfig holds EthDataSource construction settings.
type SourceConfig struct {
	Manager      common.Address
	Variant      Variant
	MaxRetries   int
	RetryBackoff time.Duration
}

// NewEthDataSource builds a data source for the given protocol variant.
func NewEthDataSource(client *chain.Client, cfg SourceConfig, logger *zap.Logger) (*EthDataSource, error) {
	if client == nil {
		return nil, fmt.Errorf("chain client is nil")
	}
	if cfg.Manager == (common.Address{}) {
		return nil, fmt.Errorf("position manager address is required")
	}
	if cfg.Variant != VariantFeeTier && cfg.Variant != VariantTickSpacing {
		return nil, fmt.Errorf("unknown protocol variant %q", cfg.Variant)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EthDataSource{
		client:       client,
		manager:      cfg.Manager,
		variant:      cfg.Variant,
		maxRetries:   cfg.MaxRetries,
		retryBackoff: cfg.RetryBackoff,
		logger:       logger,
	}, nil
}

func (s *EthDataSource) managerABI() (abi.ABI, error) {
	if s.variant == VariantTickSpacing {
		return managerTickSpacingABI.get()
	}
	return managerFeeTierABI.get()
}

func (s *EthDataSource) factoryABI() (abi.ABI, error) {
	if s.variant == VariantTickSpacing {
		return factoryTickSpacingABI.get()
	}
	return factoryFeeTierABI.get()
}

func (s *EthDataSource) poolABI() (abi.ABI, error) {
	if s.variant == VariantTickSpacing {
		return poolTickSpacingABI.get()
	}
	return poolFeeTierABI.get()
}

// PositionRaw reads one position record from the manager.
func (s *EthDataSource) PositionRaw(ctx context.Context, id *big.Int) (RawPosition, error) {
	managerABI, err := s.managerABI()
	if err != nil {
		return RawPosition{}, fmt.Errorf("parse manager abi: %w", err)
	}

	values, err := s.call(ctx, s.manager, managerABI, "positions", id)
	if err != nil {
		return RawPosition{}, fmt.Errorf("position %s: %w", id, err)
	}
	if len(values) < 12 {
		return RawPosition{}, fmt.Errorf("position %s: short positions tuple: %d values", id, len(values))
	}

	raw := RawPosition{}
	if raw.Token0, err = asAddress(values[2]); err != nil {
		return RawPosition{}, fmt.Errorf("position %s token0: %w", id, err)
	}
	if raw.Token1, err = asAddress(values[3]); err != nil {
		return RawPosition{}, fmt.Errorf("position %s token1: %w", id, err)
	}

	feeKey, err := asBigInt(values[4])
	if err != nil {
		return RawPosition{}, fmt.Errorf("position %s fee key: %w", id, err)
	}
	raw.FeeKey = feeKey.Int64()

	if raw.TickLower, err = int24From(values[5]); err != nil {
		return RawPosition{}, fmt.Errorf("position %s tick lower: %w", id, err)
	}
	if raw.TickUpper, err = int24From(values[6]); err != nil {
		return RawPosition{}, fmt.Errorf("position %s tick upper: %w", id, err)
	}

	fields := []struct {
		name string
		dst  **uint256.Int
		idx  int
	}{
		{"liquidity", &raw.Liquidity, 7},
		{"fee growth inside0 last", &raw.FeeGrowthInside0Last, 8},
		{"fee growth inside1 last", &raw.FeeGrowthInside1Last, 9},
		{"tokens owed0", &raw.TokensOwed0, 10},
		{"tokens owed1", &raw.TokensOwed1, 11},
	}
	for _, f := range fields {
		v, err := asUint256(values[f.idx])
		if err != nil {
			return RawPosition{}, fmt.Errorf("position %s %s: %w", id, f.name, err)
		}
		*f.dst = v
	}

	return raw, nil
}

// PoolAddress resolves the canonical pool for a pair and key from the factory.
// The zero address means no such pool exists.
func (s *EthDataSource) PoolAddress(ctx context.Context, factory, token0, token1 common.Address, feeKey int64) (common.Address, error) {
	factoryABI, err := s.factoryABI()
	if err != nil {
		return common.Address{}, fmt.Errorf("parse factory abi: %w", err)
	}

	values, err := s.call(ctx, factory, factoryABI, "getPool", token0, token1, big.NewInt(feeKey))
	if err != nil {
		return common.Address{}, err
	}
	return asAddress(values[0])
}

// PoolState reads a pool's live accounting state.
func (s *EthDataSource) PoolState(ctx context.Context, pool common.Address) (RawPoolState, error) {
	poolABI, err := s.poolABI()
	if err != nil {
		return RawPoolState{}, fmt.Errorf("parse pool abi: %w", err)
	}

	state := RawPoolState{}

	values, err := s.call(ctx, pool, poolABI, "token0")
	if err != nil {
		return RawPoolState{}, err
	}
	if state.Token0, err = asAddress(values[0]); err != nil {
		return RawPoolState{}, fmt.Errorf("token0: %w", err)
	}

	values, err = s.call(ctx, pool, poolABI, "token1")
	if err != nil {
		return RawPoolState{}, err
	}
	if state.Token1, err = asAddress(values[0]); err != nil {
		return RawPoolState{}, fmt.Errorf("token1: %w", err)
	}

	values, err = s.call(ctx, pool, poolABI, "fee")
	if err != nil {
		return RawPoolState{}, err
	}
	feeInt, err := asBigInt(values[0])
	if err != nil {
		return RawPoolState{}, fmt.Errorf("fee: %w", err)
	}
	state.Fee = uint32(feeInt.Uint64())

	values, err = s.call(ctx, pool, poolABI, "tickSpacing")
	if err != nil {
		return RawPoolState{}, err
	}
	if state.TickSpacing, err = int24From(values[0]); err != nil {
		return RawPoolState{}, fmt.Errorf("tick spacing: %w", err)
	}

	values, err = s.call(ctx, pool, poolABI, "liquidity")
	if err != nil {
		return RawPoolState{}, err
	}
	if state.Liquidity, err = asUint256(values[0]); err != nil {
		return RawPoolState{}, fmt.Errorf("liquidity: %w", err)
	}

	values, err = s.call(ctx, pool, poolABI, "slot0")
	if err != nil {
		return RawPoolState{}, err
	}
	if len(values) < 2 {
		return RawPoolState{}, fmt.Errorf("short slot0 tuple: %d values", len(values))
	}
	if state.SqrtPriceX96, err = asUint256(values[0]); err != nil {
		return RawPoolState{}, fmt.Errorf("sqrt price: %w", err)
	}
	if state.Tick, err = int24From(values[1]); err != nil {
		return RawPoolState{}, fmt.Errorf("tick: %w", err)
	}

	values, err = s.call(ctx, pool, poolABI, "feeGrowthGlobal0X128")
	if err != nil {
		return RawPoolState{}, err
	}
	if state.FeeGrowthGlobal0, err = asUint256(values[0]); err != nil {
		return RawPoolState{}, fmt.Errorf("fee growth global0: %w", err)
	}

	values, err = s.call(ctx, pool, poolABI, "feeGrowthGlobal1X128")
	if err != nil {
		return RawPoolState{}, err
	}
	if state.FeeGrowthGlobal1, err = asUint256(values[0]); err != nil {
		return RawPoolState{}, fmt.Errorf("fee growth global1: %w", err)
	}

	return state, nil
}

// TickOutsideGrowth reads the fee-growth-outside counters of one tick.
func (s *EthDataSource) TickOutsideGrowth(ctx context.Context, pool common.Address, tick int32) (model.TickSnapshot, error) {
	poolABI, err := s.poolABI()
	if err != nil {
		return model.TickSnapshot{}, fmt.Errorf("parse pool abi: %w", err)
	}

	values, err := s.call(ctx, pool, poolABI, "ticks", big.NewInt(int64(tick)))
	if err != nil {
		return model.TickSnapshot{}, fmt.Errorf("tick %d: %w", tick, err)
	}

	idx0, idx1 := ticksOutsideIndexes(s.variant)
	if len(values) <= idx1 {
		return model.TickSnapshot{}, fmt.Errorf("tick %d: short ticks tuple: %d values", tick, len(values))
	}

	snap := model.TickSnapshot{}
	if snap.FeeGrowthOutside0, err = asUint256(values[idx0]); err != nil {
		return model.TickSnapshot{}, fmt.Errorf("tick %d outside0: %w", tick, err)
	}
	if snap.FeeGrowthOutside1, err = asUint256(values[idx1]); err != nil {
		return model.TickSnapshot{}, fmt.Errorf("tick %d outside1: %w", tick, err)
	}
	return snap, nil
}

// TokenMeta reads ERC20 symbol and decimals, falling back to the bytes32
// symbol encoding used by some older tokens.
func (s *EthDataSource) TokenMeta(ctx context.Context, token common.Address) (model.TokenInfo, error) {
	info := model.TokenInfo{Address: token.Hex()}

	stringABI, err := erc20StringABI.get()
	if err != nil {
		return info, fmt.Errorf("parse erc20 abi: %w", err)
	}
	bytes32ABI, err := erc20Bytes32ABI.get()
	if err != nil {
		return info, fmt.Errorf("parse erc20 bytes32 abi: %w", err)
	}

	values, err := s.call(ctx, token, stringABI, "decimals")
	if err != nil {
		return info, err
	}
	if info.Decimals, err = asUint8(values[0]); err != nil {
		return info, fmt.Errorf("decimals: %w", err)
	}

	if values, err := s.call(ctx, token, stringABI, "symbol"); err == nil {
		if symbol, ok := values[0].(string); ok {
			info.Symbol = symbol
		}
	} else if values, err := s.call(ctx, token, bytes32ABI, "symbol"); err == nil {
		if symbol, ok := bytes32ToString(values[0]); ok {
			info.Symbol = symbol
		}
	} else {
		s.logger.Debug("symbol call failed", zap.String("token", token.Hex()), zap.Error(err))
	}

	return info, nil
}

// OwnerPositionCount returns how many positions the owner holds.
func (s *EthDataSource) OwnerPositionCount(ctx context.Context, owner common.Address) (*big.Int, error) {
	managerABI, err := s.managerABI()
	if err != nil {
		return nil, fmt.Errorf("parse manager abi: %w", err)
	}
	values, err := s.call(ctx, s.manager, managerABI, "balanceOf", owner)
	if err != nil {
		return nil, fmt.Errorf("balance of %s: %w", owner.Hex(), err)
	}
	return asBigInt(values[0])
}

// OwnedPositionIDAt returns the owner's position id at the given index.
func (s *EthDataSource) OwnedPositionIDAt(ctx context.Context, owner common.Address, index *big.Int) (*big.Int, error) {
	managerABI, err := s.managerABI()
	if err != nil {
		return nil, fmt.Errorf("parse manager abi: %w", err)
	}
	values, err := s.call(ctx, s.manager, managerABI, "tokenOfOwnerByIndex", owner, index)
	if err != nil {
		return nil, fmt.Errorf("token of %s at %s: %w", owner.Hex(), index, err)
	}
	return asBigInt(values[0])
}

// FactoryAddress reads the factory the position manager points at.
func (s *EthDataSource) FactoryAddress(ctx context.Context) (common.Address, error) {
	managerABI, err := s.managerABI()
	if err != nil {
		return common.Address{}, fmt.Errorf("parse manager abi: %w", err)
	}
	values, err := s.call(ctx, s.manager, managerABI, "factory")
	if err != nil {
		return common.Address{}, err
	}
	return asAddress(values[0])
}

// FeeForTickSpacing reads the governed fee for a tick spacing from the factory.
func (s *EthDataSource) FeeForTickSpacing(ctx context.Context, factory common.Address, spacing int32) (uint32, error) {
	factoryABI, err := s.factoryABI()
	if err != nil {
		return 0, fmt.Errorf("parse factory abi: %w", err)
	}
	values, err := s.call(ctx, factory, factoryABI, "tickSpacingToFee", big.NewInt(int64(spacing)))
	if err != nil {
		return 0, fmt.Errorf("fee for spacing %d: %w", spacing, err)
	}
	fee, err := asBigInt(values[0])
	if err != nil {
		return 0, fmt.Errorf("fee for spacing %d: %w", spacing, err)
	}
	return uint32(fee.Uint64()), nil
}

func (s *EthDataSource) call(ctx context.Context, to common.Address, parsed abi.ABI, method string, args ...interface{}) ([]interface{}, error) {
	data, err := parsed.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", method, err)
	}
	msg := ethereum.CallMsg{To: &to, Data: data}

	var resp []byte
	err = chain.WithRetry(ctx, s.maxRetries, s.retryBackoff, func(ctx context.Context) error {
		var err error
		resp, err = s.client.CallContract(ctx, msg, nil)
		if err != nil {
			s.logger.Warn("eth_call failed",
				zap.String("to", to.Hex()),
				zap.String("method", method),
				zap.Error(err))
		}
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", method, err)
	}

	values, err := parsed.Unpack(method, resp)
	if err != nil {
		return nil, fmt.Errorf("unpack %s: %w", method, err)
	}
	return values, nil
}

func bytes32ToString(value interface{}) (string, bool) {
	switch v := value.(type) {
	case [32]byte:
		return string(bytes.TrimRight(v[:], "\x00")), true
	case []byte:
		return string(bytes.TrimRight(v, "\x00")), true
	default:
		return "", false
	}
}

func asAddress(value interface{}) (common.Address, error) {
	switch v := value.(type) {
	case common.Address:
		return v, nil
	case *common.Address:
		return *v, nil
	default:
		return common.Address{}, fmt.Errorf("unsupported address type %T", value)
	}
}

func asBigInt(value interface{}) (*big.Int, error) {
	switch v := value.(type) {
	case *big.Int:
		return new(big.Int).Set(v), nil
	case big.Int:
		return new(big.Int).Set(&v), nil
	case uint8:
		return new(big.Int).SetUint64(uint64(v)), nil
	case uint16:
		return new(big.Int).SetUint64(uint64(v)), nil
	case uint32:
		return new(big.Int).SetUint64(uint64(v)), nil
	case uint64:
		return new(big.Int).SetUint64(v), nil
	case int8:
		return big.NewInt(int64(v)), nil
	case int16:
		return big.NewInt(int64(v)), nil
	case int32:
		return big.NewInt(int64(v)), nil
	case int64:
		return big.NewInt(v), nil
	default:
		return nil, fmt.Errorf("unsupported int type %T", value)
	}
}

func asUint256(value interface{}) (*uint256.Int, error) {
	b, err := asBigInt(value)
	if err != nil {
		return nil, err
	}
	z, overflow := uint256.FromBig(b)
	if overflow {
		return nil, fmt.Errorf("value exceeds 256 bits: %s", b)
	}
	return z, nil
}

func asUint8(value interface{}) (uint8, error) {
	switch v := value.(type) {
	case uint8:
		return v, nil
	case uint16:
		return uint8(v), nil
	case uint32:
		return uint8(v), nil
	case uint64:
		return uint8(v), nil
	case *big.Int:
		return uint8(v.Uint64()), nil
	default:
		return 0, fmt.Errorf("unsupported uint8 type %T", value)
	}
}

func int24From(value interface{}) (int32, error) {
	b, err := asBigInt(value)
	if err != nil {
		return 0, err
	}
	min := big.NewInt(-1 << 23)
	max := big.NewInt((1 << 23) - 1)
	if b.Cmp(min) < 0 || b.Cmp(max) > 0 {
		return 0, fmt.Errorf("int24 overflow: %s", b)
	}
	return int32(b.Int64()), nil
}
