package constants

import "time"

const (
	CallContractTimeout    = 10 * time.Second // timeout for contract call
	SendTransactionTimeout = 30 * time.Second // timeout for signing + broadcast against an RPC node
	ReadHeaderTimeout      = 10 * time.Second // timeout for reading request headers in the demo server
	MaxRequestBodySize     = 1 * 1024 * 1024  // maximum request body size in bytes (1MB)
	MaxResponseBodySize    = 10 * 1024 * 1024 // maximum response body size in bytes (10MB)
	ClientTimeout          = 45 * time.Second // default timeout for the merchant API client
	EndpointHealthTimeout  = 3 * time.Second  // timeout for probing an RPC endpoint
)

const (
	NativeDecimals = 18
	TokenDecimals  = 6
)

// Payment request defaults
const (
	DefaultExpiresIn  = 24 * time.Hour
	PaymentLinkPath   = "/pay"
	PaymentLinkParam  = "data"
	PaymentIDPrefix   = "payment_"
	DefaultStableCode = "USDT"
)

// Network Types
const (
	NetworkMorphHolesky = "morph-holesky"
	NetworkMorphMainnet = "morph-mainnet"
)

const DefaultNetwork = NetworkMorphHolesky

// Token contracts on Morph Holesky. cUSD and DAI reuse the USDT and USDC deployments.
const (
	USDTAddressMorphHolesky = "0x07d9b60c7F719994c07C96a7f87460a0cC94379F"
	USDCAddressMorphHolesky = "0xe3B620B1557696DA5324EFcA934Ea6c27ad69e00"
	CUSDAddressMorphHolesky = USDTAddressMorphHolesky
	DAIAddressMorphHolesky  = USDCAddressMorphHolesky
)

// mapping from network name to numeric chain ID
var NetworkToChainID = map[string]int64{
	NetworkMorphHolesky: 2810,
	NetworkMorphMainnet: 2818,
}

// NetworkToTokenAddresses maps a network to its symbol -> ERC-20 contract table
var NetworkToTokenAddresses = map[string]map[string]string{
	NetworkMorphHolesky: {
		"USDT": USDTAddressMorphHolesky,
		"USDC": USDCAddressMorphHolesky,
		"cUSD": CUSDAddressMorphHolesky,
		"DAI":  DAIAddressMorphHolesky,
	},
	NetworkMorphMainnet: {},
}

// ExplorerTxURLs holds the block explorer transaction URL prefix per network
var ExplorerTxURLs = map[string]string{
	NetworkMorphHolesky: "https://explorer-holesky.morphl2.io/tx/",
	NetworkMorphMainnet: "https://explorer.morphl2.io/tx/",
}

var OfficialRPCEndpoints = map[string][]string{
	NetworkMorphHolesky: {"https://rpc-quicknode-holesky.morphl2.io"},
	NetworkMorphMainnet: {"https://rpc-quicknode.morphl2.io"},
}
