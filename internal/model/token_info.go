package model

// TokenInfo captures ERC20 metadata. Immutable once fetched, cacheable by address.
type TokenInfo struct {
	Address  string `json:"address"`
	Symbol   string `json:"symbol"`
	Decimals uint8  `json:"decimals"`
}
