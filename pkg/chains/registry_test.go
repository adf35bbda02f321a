package chains

import (
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MuLx10/morph-payment-sdk/pkg/constants"
	"github.com/MuLx10/morph-payment-sdk/pkg/types"
)

func TestRegistryIdempotent(t *testing.T) {
	registry := NewRegistry()

	first := &Network{Name: "test-network", ChainID: 1}
	second := &Network{Name: "test-network", ChainID: 2}

	err := registry.Register(first)
	assert.NoError(t, err, "First registration should succeed")

	err = registry.Register(second)
	assert.NoError(t, err, "Second registration should succeed (idempotent)")

	retrieved, err := registry.Get("test-network")
	assert.NoError(t, err)
	assert.Equal(t, second, retrieved, "Second network should have replaced the first")
}

func TestRegistryRejectsUnnamedNetwork(t *testing.T) {
	registry := NewRegistry()
	assert.Error(t, registry.Register(nil))
	assert.Error(t, registry.Register(&Network{}))
}

func TestRegistryConcurrentRegistration(t *testing.T) {
	registry := NewRegistry()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			err := registry.Register(&Network{Name: "test-network", ChainID: int64(id)})
			assert.NoError(t, err, "Concurrent registration should not fail")
		}(i)
	}
	wg.Wait()

	assert.True(t, registry.IsSupported("test-network"))
}

func TestRegistryUnregister(t *testing.T) {
	registry := NewRegistry()

	require.NoError(t, registry.Register(&Network{Name: "test-network"}))
	assert.True(t, registry.IsSupported("test-network"))

	registry.Unregister("test-network")
	assert.False(t, registry.IsSupported("test-network"))

	_, err := registry.Get("test-network")
	assert.Error(t, err)
}

func TestDefaultRegistry(t *testing.T) {
	registry := DefaultRegistry()

	assert.Equal(t,
		[]string{constants.NetworkMorphHolesky, constants.NetworkMorphMainnet},
		registry.SupportedNetworks())

	holesky, err := registry.Get(constants.NetworkMorphHolesky)
	require.NoError(t, err)
	assert.Equal(t, int64(2810), holesky.ChainID)
	assert.Equal(t, types.CurrencyETH, holesky.NativeCurrency)
	assert.Equal(t, int32(18), holesky.NativeDecimals)
	assert.Equal(t, int32(6), holesky.TokenDecimals)

	usdt, ok := holesky.TokenAddress(types.CurrencyUSDT)
	require.True(t, ok)
	assert.Equal(t, common.HexToAddress(constants.USDTAddressMorphHolesky), usdt)

	cusd, ok := holesky.TokenAddress(types.CurrencyCUSD)
	require.True(t, ok)
	assert.Equal(t, usdt, cusd)

	_, ok = holesky.TokenAddress(types.CurrencyETH)
	assert.False(t, ok)

	assert.Equal(t, "https://explorer-holesky.morphl2.io/tx/0xabc", holesky.ExplorerTxURL("0xabc"))
	assert.Empty(t, holesky.ExplorerTxURL(""))
}
