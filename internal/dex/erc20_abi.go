package dex

// ERC20 metadata, in the two encodings seen in the wild: modern tokens
// return string symbol, a few old ones return bytes32.
var erc20StringABI = &lazyABI{json: `[
  {"inputs": [], "name": "decimals", "outputs": [{"type": "uint8"}], "stateMutability": "view", "type": "function"},
  {"inputs": [], "name": "symbol", "outputs": [{"type": "string"}], "stateMutability": "view", "type": "function"}
]`}

var erc20Bytes32ABI = &lazyABI{json: `[
  {"inputs": [], "name": "decimals", "outputs": [{"type": "uint8"}], "stateMutability": "view", "type": "function"},
  {"inputs": [], "name": "symbol", "outputs": [{"type": "bytes32"}], "stateMutability": "view", "type": "function"}
]`}
