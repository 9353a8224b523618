package dex

import (
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"feeScope/internal/model"
)

// TokenInfoCache caches token metadata by address. Token metadata is
// immutable, so entries never expire.
type TokenInfoCache struct {
	mu   sync.RWMutex
	data map[common.Address]model.TokenInfo
}

func NewTokenInfoCache() *TokenInfoCache {
	return &TokenInfoCache{data: make(map[common.Address]model.TokenInfo)}
}

func (c *TokenInfoCache) Get(address common.Address) (model.TokenInfo, bool) {
	c.mu.RLock()
	info, ok := c.data[address]
	c.mu.RUnlock()
	return info, ok
}

func (c *TokenInfoCache) Set(address common.Address, info model.TokenInfo) {
	c.mu.Lock()
	c.data[address] = info
	c.mu.Unlock()
}
