package evm

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeChainIDClient struct {
	chainID int64
	err     error
}

func (f fakeChainIDClient) ChainID(ctx context.Context) (*big.Int, error) {
	if f.err != nil {
		return nil, f.err
	}
	return big.NewInt(f.chainID), nil
}

func (fakeChainIDClient) Close() {}

func newFakeChecker(clients map[string]fakeChainIDClient) *EndpointChecker {
	c := NewEndpointChecker(nil)
	c.dial = func(ctx context.Context, endpoint string) (chainIDClient, error) {
		client, ok := clients[endpoint]
		if !ok {
			return nil, errors.New("dial failed")
		}
		return client, nil
	}
	return c
}

func TestEndpointCheckerIsHealthy(t *testing.T) {
	checker := newFakeChecker(map[string]fakeChainIDClient{
		"https://good":  {chainID: 2810},
		"https://wrong": {chainID: 1},
		"https://error": {err: errors.New("timeout")},
	})

	tests := []struct {
		endpoint string
		expected bool
	}{
		{"https://good", true},
		{"https://wrong", false},
		{"https://error", false},
		{"https://unreachable", false},
	}

	for _, tt := range tests {
		t.Run(tt.endpoint, func(t *testing.T) {
			assert.Equal(t, tt.expected, checker.IsHealthy(context.Background(), tt.endpoint, 2810))
		})
	}
}

func TestEndpointCheckerPrioritize(t *testing.T) {
	checker := newFakeChecker(map[string]fakeChainIDClient{
		"https://a": {err: errors.New("down")},
		"https://b": {chainID: 2810},
		"https://c": {chainID: 2810},
	})

	got := checker.Prioritize(context.Background(), []string{"https://a", "https://b", "https://c", "https://d"}, 2810)
	assert.Equal(t, []string{"https://b", "https://c", "https://a", "https://d"}, got)
}
