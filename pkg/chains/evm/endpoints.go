package evm

import (
	"context"
	"log/slog"
	"math/big"

	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/MuLx10/morph-payment-sdk/pkg/constants"
)

type chainIDClient interface {
	ChainID(ctx context.Context) (*big.Int, error)
	Close()
}

// EndpointChecker probes RPC endpoints so a signer binds to one that answers for the right chain
type EndpointChecker struct {
	dial   func(ctx context.Context, endpoint string) (chainIDClient, error)
	logger *slog.Logger
}

func NewEndpointChecker(logger *slog.Logger) *EndpointChecker {
	if logger == nil {
		logger = slog.Default()
	}
	return &EndpointChecker{
		dial: func(ctx context.Context, endpoint string) (chainIDClient, error) {
			return ethclient.DialContext(ctx, endpoint)
		},
		logger: logger,
	}
}

// IsHealthy reports whether endpoint answers eth_chainId with chainID
func (c *EndpointChecker) IsHealthy(ctx context.Context, endpoint string, chainID int64) bool {
	ctx, cancel := context.WithTimeout(ctx, constants.EndpointHealthTimeout)
	defer cancel()

	client, err := c.dial(ctx, endpoint)
	if err != nil {
		return false
	}
	defer client.Close()

	got, err := client.ChainID(ctx)
	if err != nil {
		return false
	}
	return got.Int64() == chainID
}

// Prioritize returns endpoints with healthy ones first, keeping the unhealthy ones as backup
func (c *EndpointChecker) Prioritize(ctx context.Context, endpoints []string, chainID int64) []string {
	var healthy, unhealthy []string
	for _, endpoint := range endpoints {
		if c.IsHealthy(ctx, endpoint, chainID) {
			healthy = append(healthy, endpoint)
		} else {
			unhealthy = append(unhealthy, endpoint)
		}
	}

	c.logger.Debug("health check complete",
		"chainID", chainID,
		"healthy", len(healthy),
		"unhealthy", len(unhealthy))

	return append(healthy, unhealthy...)
}
