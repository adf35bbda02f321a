package evm

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"log/slog"
	"math/big"
	"strings"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/MuLx10/morph-payment-sdk/pkg/chains"
	"github.com/MuLx10/morph-payment-sdk/pkg/constants"
)

// Backend is the subset of ethclient.Client needed to sign and broadcast
type Backend interface {
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	HeaderByNumber(ctx context.Context, number *big.Int) (*ethtypes.Header, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	SuggestGasTipCap(ctx context.Context) (*big.Int, error)
	EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error)
	SendTransaction(ctx context.Context, tx *ethtypes.Transaction) error
}

// KeySigner implements chains.Signer with a local private key and an RPC backend
type KeySigner struct {
	backend  Backend
	key      *ecdsa.PrivateKey
	from     common.Address
	chainID  *big.Int
	endpoint string
	closer   func()
	logger   *slog.Logger
}

var _ chains.Signer = (*KeySigner)(nil)

// DialKeySigner connects to rpcURL and returns a signer for the hex-encoded private key
func DialKeySigner(ctx context.Context, rpcURL, hexKey string, chainID int64, logger *slog.Logger) (*KeySigner, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(hexKey, "0x"))
	if err != nil {
		return nil, fmt.Errorf("invalid private key: %w", err)
	}

	client, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, &RPCError{Endpoint: rpcURL, Op: "dial", Err: err}
	}

	s := NewKeySigner(client, key, chainID, logger)
	s.endpoint = rpcURL
	s.closer = client.Close
	return s, nil
}

// DialNetworkSigner dials rpcURL, or the healthiest of the network's RPC endpoints when rpcURL
// is empty, and returns a signer bound to the network's chain id
func DialNetworkSigner(ctx context.Context, network *chains.Network, rpcURL, hexKey string, logger *slog.Logger) (*KeySigner, error) {
	if network == nil {
		return nil, &UnsupportedNetworkError{}
	}
	if rpcURL == "" {
		if len(network.RPCEndpoints) == 0 {
			return nil, &UnsupportedNetworkError{Network: network.Name, Reason: "no RPC endpoints configured"}
		}
		rpcURL = NewEndpointChecker(logger).Prioritize(ctx, network.RPCEndpoints, network.ChainID)[0]
	}
	return DialKeySigner(ctx, rpcURL, hexKey, network.ChainID, logger)
}

// NewKeySigner creates a signer over an existing backend
func NewKeySigner(backend Backend, key *ecdsa.PrivateKey, chainID int64, logger *slog.Logger) *KeySigner {
	if logger == nil {
		logger = slog.Default()
	}
	return &KeySigner{
		backend: backend,
		key:     key,
		from:    crypto.PubkeyToAddress(key.PublicKey),
		chainID: big.NewInt(chainID),
		logger:  logger,
	}
}

// Address returns the account the signer sends from
func (s *KeySigner) Address() common.Address {
	return s.from
}

// IsConnected implements chains.Signer
func (s *KeySigner) IsConnected() bool {
	return s != nil && s.backend != nil && s.key != nil
}

// SendTransaction implements chains.Signer
func (s *KeySigner) SendTransaction(ctx context.Context, req chains.TxRequest) (string, error) {
	if !s.IsConnected() {
		return "", chains.ErrSignerNotConnected
	}
	if req.ChainID != 0 && req.ChainID != s.chainID.Int64() {
		return "", &ChainMismatchError{SignerChainID: s.chainID.Int64(), TxChainID: req.ChainID}
	}

	ctx, cancel := context.WithTimeout(ctx, constants.SendTransactionTimeout)
	defer cancel()

	value := req.Value
	if value == nil {
		value = new(big.Int)
	}

	nonce, err := s.backend.PendingNonceAt(ctx, s.from)
	if err != nil {
		return "", s.rpcError("get nonce", err)
	}

	to := req.To
	gas, err := s.backend.EstimateGas(ctx, ethereum.CallMsg{
		From:  s.from,
		To:    &to,
		Value: value,
		Data:  req.Data,
	})
	if err != nil {
		return "", s.rpcError("estimate gas", err)
	}

	txData, err := s.txData(ctx, nonce, gas, to, value, req.Data)
	if err != nil {
		return "", err
	}

	signed, err := ethtypes.SignNewTx(s.key, ethtypes.LatestSignerForChainID(s.chainID), txData)
	if err != nil {
		return "", fmt.Errorf("failed to sign transaction: %w", err)
	}

	if err := s.backend.SendTransaction(ctx, signed); err != nil {
		return "", s.rpcError("send transaction", err)
	}

	hash := signed.Hash().Hex()
	s.logger.Info("transaction broadcast",
		"hash", hash,
		"from", s.from.Hex(),
		"to", to.Hex(),
		"nonce", nonce,
		"gas", gas)
	return hash, nil
}

// txData builds an EIP-1559 transaction when the chain reports a base fee, legacy otherwise
func (s *KeySigner) txData(ctx context.Context, nonce, gas uint64, to common.Address, value *big.Int, data []byte) (ethtypes.TxData, error) {
	head, err := s.backend.HeaderByNumber(ctx, nil)
	if err != nil {
		return nil, s.rpcError("get latest header", err)
	}

	if head.BaseFee == nil {
		gasPrice, err := s.backend.SuggestGasPrice(ctx)
		if err != nil {
			return nil, s.rpcError("suggest gas price", err)
		}
		return &ethtypes.LegacyTx{
			Nonce:    nonce,
			GasPrice: gasPrice,
			Gas:      gas,
			To:       &to,
			Value:    value,
			Data:     data,
		}, nil
	}

	tip, err := s.backend.SuggestGasTipCap(ctx)
	if err != nil {
		return nil, s.rpcError("suggest gas tip", err)
	}
	feeCap := new(big.Int).Add(tip, new(big.Int).Mul(head.BaseFee, big.NewInt(2)))

	return &ethtypes.DynamicFeeTx{
		ChainID:   s.chainID,
		Nonce:     nonce,
		GasTipCap: tip,
		GasFeeCap: feeCap,
		Gas:       gas,
		To:        &to,
		Value:     value,
		Data:      data,
	}, nil
}

func (s *KeySigner) rpcError(op string, err error) error {
	if s.endpoint == "" {
		return fmt.Errorf("failed to %s: %w", op, err)
	}
	return &RPCError{Endpoint: s.endpoint, Op: op, Err: err}
}

// Close releases the RPC connection if the signer owns one
func (s *KeySigner) Close() {
	if s.closer != nil {
		s.closer()
	}
}
