package evm

import "fmt"

// UnsupportedNetworkError is returned when a network is unknown or cannot be reached
type UnsupportedNetworkError struct {
	Network string
	// Reason is empty for an unregistered network
	Reason string
}

func (e *UnsupportedNetworkError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("unsupported network %q: %s", e.Network, e.Reason)
	}
	return fmt.Sprintf("unsupported network: %q", e.Network)
}

// RPCError is a failed call against an RPC endpoint. Op names the step, e.g. "estimate gas".
type RPCError struct {
	Endpoint string
	Op       string
	Err      error
}

func (e *RPCError) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("RPC error on %s: failed to %s: %v", e.Endpoint, e.Op, e.Err)
	}
	return fmt.Sprintf("RPC error on %s: %v", e.Endpoint, e.Err)
}

func (e *RPCError) Unwrap() error {
	return e.Err
}

// ChainMismatchError is returned when a transaction targets a chain other than the signer's
type ChainMismatchError struct {
	SignerChainID int64
	TxChainID     int64
}

func (e *ChainMismatchError) Error() string {
	return fmt.Sprintf("signer is on chain %d, transaction targets chain %d", e.SignerChainID, e.TxChainID)
}
