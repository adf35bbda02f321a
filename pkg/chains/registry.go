package chains

import (
	"fmt"
	"sort"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"github.com/MuLx10/morph-payment-sdk/pkg/constants"
	"github.com/MuLx10/morph-payment-sdk/pkg/types"
)

// Registry manages network descriptors by name
type Registry struct {
	networks map[string]*Network
	mu       sync.RWMutex
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		networks: make(map[string]*Network),
	}
}

// DefaultRegistry returns a registry holding every network known to the constants tables
func DefaultRegistry() *Registry {
	r := NewRegistry()
	for name := range constants.NetworkToChainID {
		_ = r.Register(NetworkFromConstants(name))
	}
	return r
}

// NetworkFromConstants builds the descriptor for a named network from the constants tables
func NetworkFromConstants(name string) *Network {
	tokens := make(map[types.Currency]common.Address)
	for symbol, addr := range constants.NetworkToTokenAddresses[name] {
		tokens[types.Currency(symbol)] = common.HexToAddress(addr)
	}

	return &Network{
		Name:           name,
		ChainID:        constants.NetworkToChainID[name],
		NativeCurrency: types.CurrencyETH,
		NativeDecimals: constants.NativeDecimals,
		TokenDecimals:  constants.TokenDecimals,
		Tokens:         tokens,
		ExplorerTx:     constants.ExplorerTxURLs[name],
		RPCEndpoints:   append([]string(nil), constants.OfficialRPCEndpoints[name]...),
	}
}

// Register registers a network (uses network.Name as key)
// If a network with that name already exists, it will be replaced (idempotent)
func (r *Registry) Register(network *Network) error {
	if network == nil || network.Name == "" {
		return fmt.Errorf("network must have a name")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.networks[network.Name] = network
	return nil
}

// Get retrieves a network by name
func (r *Registry) Get(name string) (*Network, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	network, exists := r.networks[name]
	if !exists {
		return nil, fmt.Errorf("no network registered with name: %s", name)
	}

	return network, nil
}

// SupportedNetworks returns the registered network names in sorted order
func (r *Registry) SupportedNetworks() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.networks))
	for name := range r.networks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsSupported checks if a network is registered
func (r *Registry) IsSupported(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, exists := r.networks[name]
	return exists
}

// Unregister removes a network (useful for testing)
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.networks, name)
}
