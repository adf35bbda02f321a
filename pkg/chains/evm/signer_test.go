package evm

import (
	"context"
	"errors"
	"math/big"
	"testing"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MuLx10/morph-payment-sdk/pkg/chains"
)

// mockBackend records the broadcast transaction
type mockBackend struct {
	baseFee *big.Int
	sendErr error
	sent    []*ethtypes.Transaction
	calls   []ethereum.CallMsg
}

func (m *mockBackend) PendingNonceAt(ctx context.Context, account common.Address) (uint64, error) {
	return 7, nil
}

func (m *mockBackend) HeaderByNumber(ctx context.Context, number *big.Int) (*ethtypes.Header, error) {
	return &ethtypes.Header{BaseFee: m.baseFee}, nil
}

func (m *mockBackend) SuggestGasPrice(ctx context.Context) (*big.Int, error) {
	return big.NewInt(1_000_000_000), nil
}

func (m *mockBackend) SuggestGasTipCap(ctx context.Context) (*big.Int, error) {
	return big.NewInt(100_000_000), nil
}

func (m *mockBackend) EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error) {
	m.calls = append(m.calls, msg)
	return 21000, nil
}

func (m *mockBackend) SendTransaction(ctx context.Context, tx *ethtypes.Transaction) error {
	if m.sendErr != nil {
		return m.sendErr
	}
	m.sent = append(m.sent, tx)
	return nil
}

func newTestSigner(t *testing.T, backend Backend) *KeySigner {
	t.Helper()
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	return NewKeySigner(backend, key, 2810, nil)
}

func TestKeySignerDynamicFeeTransfer(t *testing.T) {
	backend := &mockBackend{baseFee: big.NewInt(1_000)}
	signer := newTestSigner(t, backend)
	require.True(t, signer.IsConnected())

	to := common.HexToAddress("0x70997970C51812dc3A010C7d01b50e0d17dc79C8")
	value, _ := new(big.Int).SetString("1500000000000000000", 10)

	hash, err := signer.SendTransaction(context.Background(), chains.TxRequest{
		To:      to,
		Value:   value,
		ChainID: 2810,
	})
	require.NoError(t, err)
	require.Len(t, backend.sent, 1)

	tx := backend.sent[0]
	assert.Equal(t, tx.Hash().Hex(), hash)
	assert.Equal(t, uint8(ethtypes.DynamicFeeTxType), tx.Type())
	assert.Equal(t, uint64(7), tx.Nonce())
	assert.Equal(t, to, *tx.To())
	assert.Equal(t, value, tx.Value())
	assert.Equal(t, int64(2810), tx.ChainId().Int64())

	sender, err := ethtypes.Sender(ethtypes.LatestSignerForChainID(big.NewInt(2810)), tx)
	require.NoError(t, err)
	assert.Equal(t, signer.Address(), sender)
}

func TestKeySignerLegacyWhenNoBaseFee(t *testing.T) {
	backend := &mockBackend{}
	signer := newTestSigner(t, backend)

	data := []byte{0xa9, 0x05, 0x9c, 0xbb}
	_, err := signer.SendTransaction(context.Background(), chains.TxRequest{
		To:   common.HexToAddress("0x07d9b60c7F719994c07C96a7f87460a0cC94379F"),
		Data: data,
	})
	require.NoError(t, err)
	require.Len(t, backend.sent, 1)

	tx := backend.sent[0]
	assert.Equal(t, uint8(ethtypes.LegacyTxType), tx.Type())
	assert.Equal(t, data, tx.Data())
	assert.Equal(t, int64(0), tx.Value().Int64())
	require.Len(t, backend.calls, 1)
	assert.Equal(t, data, backend.calls[0].Data)
}

func TestKeySignerChainMismatch(t *testing.T) {
	backend := &mockBackend{}
	signer := newTestSigner(t, backend)

	_, err := signer.SendTransaction(context.Background(), chains.TxRequest{ChainID: 1})

	var mismatch *ChainMismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, int64(1), mismatch.TxChainID)
	assert.Empty(t, backend.sent)
}

func TestKeySignerBroadcastErrorIsReturned(t *testing.T) {
	backend := &mockBackend{sendErr: errors.New("insufficient funds for gas * price + value")}
	signer := newTestSigner(t, backend)
	signer.endpoint = "https://rpc.example"

	_, err := signer.SendTransaction(context.Background(), chains.TxRequest{})
	require.Error(t, err)

	var rpcErr *RPCError
	require.ErrorAs(t, err, &rpcErr)
	assert.Equal(t, "https://rpc.example", rpcErr.Endpoint)
	assert.Equal(t, "send transaction", rpcErr.Op)
	assert.Contains(t, err.Error(), "insufficient funds")
}

func TestNilKeySignerIsNotConnected(t *testing.T) {
	var signer *KeySigner
	assert.False(t, signer.IsConnected())

	_, err := signer.SendTransaction(context.Background(), chains.TxRequest{})
	assert.ErrorIs(t, err, chains.ErrSignerNotConnected)
}

func TestDialNetworkSignerWithoutEndpoints(t *testing.T) {
	_, err := DialNetworkSigner(context.Background(), &chains.Network{Name: "nowhere"}, "", "00", nil)

	var unsupported *UnsupportedNetworkError
	require.ErrorAs(t, err, &unsupported)
	assert.Equal(t, "nowhere", unsupported.Network)
	assert.NotEmpty(t, unsupported.Reason)
}
