package utils

import (
	"math/big"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MuLx10/morph-payment-sdk/pkg/constants"
	"github.com/MuLx10/morph-payment-sdk/pkg/types"
)

func TestToBaseUnits(t *testing.T) {
	tests := []struct {
		name      string
		amount    string
		decimals  int32
		expected  string
		expectErr error
	}{
		{
			name:     "native 1.5 at 18 decimals",
			amount:   "1.5",
			decimals: constants.NativeDecimals,
			expected: "1500000000000000000",
		},
		{
			name:     "token 10 at 6 decimals",
			amount:   "10",
			decimals: constants.TokenDecimals,
			expected: "10000000",
		},
		{
			name:     "smallest token unit",
			amount:   "0.000001",
			decimals: constants.TokenDecimals,
			expected: "1",
		},
		{
			name:     "trailing zeros beyond exponent are not significant",
			amount:   "2.50000000",
			decimals: constants.TokenDecimals,
			expected: "2500000",
		},
		{
			name:      "too many significant decimals is rejected",
			amount:    "0.0000001",
			decimals:  constants.TokenDecimals,
			expectErr: ErrTooManyDecimals,
		},
		{
			name:      "zero is rejected",
			amount:    "0",
			decimals:  constants.TokenDecimals,
			expectErr: ErrNonPositiveAmount,
		},
		{
			name:      "negative is rejected",
			amount:    "-1",
			decimals:  constants.TokenDecimals,
			expectErr: ErrInvalidAmountFormat,
		},
		{
			name:      "scientific notation is rejected",
			amount:    "1e3",
			decimals:  constants.TokenDecimals,
			expectErr: ErrInvalidAmountFormat,
		},
		{
			name:      "empty is rejected",
			amount:    "",
			decimals:  constants.TokenDecimals,
			expectErr: ErrEmptyAmount,
		},
		{
			name:      "garbage is rejected",
			amount:    "abc",
			decimals:  constants.TokenDecimals,
			expectErr: ErrInvalidAmountFormat,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := ToBaseUnits(tt.amount, tt.decimals)
			if tt.expectErr != nil {
				assert.ErrorIs(t, err, tt.expectErr)
				assert.Nil(t, result)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, result.String())
		})
	}
}

func TestFromBaseUnits(t *testing.T) {
	assert.Equal(t, "1.5", FromBaseUnits(big.NewInt(1500000), 6))
	wei, _ := new(big.Int).SetString("1500000000000000000", 10)
	assert.Equal(t, "1.5", FromBaseUnits(wei, 18))
}

func TestDecimalsFor(t *testing.T) {
	assert.Equal(t, int32(18), DecimalsFor(types.CurrencyETH))
	assert.Equal(t, int32(6), DecimalsFor(types.CurrencyUSDT))
	assert.Equal(t, int32(6), DecimalsFor(types.CurrencyDAI))
	assert.Equal(t, int32(6), DecimalsFor(types.CurrencyUSD))
}

func TestFormatAmount(t *testing.T) {
	assert.Equal(t, "1.500000", FormatAmount("1.5", types.CurrencyETH))
	assert.Equal(t, "1.50", FormatAmount("1.5", types.CurrencyUSDC))
	assert.Equal(t, "0.00", FormatAmount("not-a-number", types.CurrencyUSDC))
}

func TestValidateMerchantAddress(t *testing.T) {
	tests := []struct {
		name    string
		address string
		valid   bool
	}{
		{"checksummed address", "0x70997970C51812dc3A010C7d01b50e0d17dc79C8", true},
		{"lowercase address", "0x70997970c51812dc3a010c7d01b50e0d17dc79c8", true},
		{"missing prefix", "70997970C51812dc3A010C7d01b50e0d17dc79C8", false},
		{"too short", "0x70997970C51812dc3A010C7d01b50e0d17dc79", false},
		{"non hex", "0xZZ997970C51812dc3A010C7d01b50e0d17dc79C8", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.valid, ValidateMerchantAddress(tt.address))
		})
	}
}

func TestNewPaymentID(t *testing.T) {
	now := time.UnixMilli(1700000000000)

	seen := make(map[string]struct{})
	for i := 0; i < 100; i++ {
		id := NewPaymentID(now)
		assert.True(t, strings.HasPrefix(id, "payment_1700000000000_"))
		_, dup := seen[id]
		require.False(t, dup, "duplicate id %s", id)
		seen[id] = struct{}{}
	}
}

func TestExplorerTxURL(t *testing.T) {
	assert.Equal(t,
		"https://explorer-holesky.morphl2.io/tx/0xabc",
		ExplorerTxURL(constants.NetworkMorphHolesky, "0xabc"))
	assert.Empty(t, ExplorerTxURL("unknown", "0xabc"))
	assert.Empty(t, ExplorerTxURL(constants.NetworkMorphHolesky, ""))
}
