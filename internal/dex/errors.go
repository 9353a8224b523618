package dex

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// PoolNotFoundError reports that pool resolution returned the zero address,
// meaning no pool exists for the token pair and key.
type PoolNotFoundError struct {
	Token0 common.Address
	Token1 common.Address
	FeeKey int64
}

func (e *PoolNotFoundError) Error() string {
	return fmt.Sprintf("no pool for %s/%s key %d", e.Token0.Hex(), e.Token1.Hex(), e.FeeKey)
}

// UnknownFeeTierError reports a fee tier outside the protocol's table.
type UnknownFeeTierError struct {
	Fee uint32
}

func (e *UnknownFeeTierError) Error() string {
	return fmt.Sprintf("unknown fee tier %d", e.Fee)
}

// UnknownTickSpacingError reports a tick spacing outside the protocol's table.
type UnknownTickSpacingError struct {
	TickSpacing int32
}

func (e *UnknownTickSpacingError) Error() string {
	return fmt.Sprintf("unknown tick spacing %d", e.TickSpacing)
}
