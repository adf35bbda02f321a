package chains

import (
	"context"
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/MuLx10/morph-payment-sdk/pkg/types"
)

var ErrSignerNotConnected = errors.New("please connect your wallet")

// Network describes a single EVM network payments can be dispatched on
type Network struct {
	Name           string
	ChainID        int64
	NativeCurrency types.Currency
	NativeDecimals int32
	TokenDecimals  int32
	// Tokens maps a currency symbol to its ERC-20 contract on this network
	Tokens       map[types.Currency]common.Address
	ExplorerTx   string // transaction URL prefix, hash is appended
	RPCEndpoints []string
}

// TokenAddress looks up the contract for a token currency
func (n *Network) TokenAddress(c types.Currency) (common.Address, bool) {
	addr, ok := n.Tokens[c]
	return addr, ok
}

// ExplorerTxURL builds the explorer link for a transaction hash
func (n *Network) ExplorerTxURL(txHash string) string {
	if n.ExplorerTx == "" || txHash == "" {
		return ""
	}
	return n.ExplorerTx + txHash
}

// TxRequest is a transaction to be signed and broadcast. Value and Data are optional:
// a native transfer carries Value, a token transfer carries Data.
type TxRequest struct {
	To      common.Address
	Value   *big.Int
	Data    []byte
	ChainID int64
}

// Signer is the wallet capability that holds key material and broadcasts transactions
type Signer interface {
	// IsConnected reports whether a signer is currently available
	IsConnected() bool

	// SendTransaction signs and broadcasts tx and returns its hash.
	// Acceptance by the signer is all that is promised; inclusion is not awaited.
	SendTransaction(ctx context.Context, tx TxRequest) (string, error)
}
