package types

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCurrency(t *testing.T) {
	tests := []struct {
		input    string
		expected Currency
		wantErr  bool
	}{
		{"ETH", CurrencyETH, false},
		{"USDT", CurrencyUSDT, false},
		{"cUSD", CurrencyCUSD, false},
		{"USD", CurrencyUSD, false},
		{"CUSD", "", true},
		{"usdt", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseCurrency(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestCurrencyClasses(t *testing.T) {
	for _, c := range AllCurrencies() {
		assert.True(t, c.IsValid(), c)
	}
	assert.True(t, CurrencyETH.IsNative())
	assert.False(t, CurrencyETH.IsStable())
	assert.True(t, CurrencyUSD.IsFiatProxy())
	assert.False(t, CurrencyUSD.IsStable())
	for _, c := range []Currency{CurrencyUSDT, CurrencyUSDC, CurrencyCUSD, CurrencyDAI} {
		assert.True(t, c.IsStable(), c)
		assert.False(t, c.IsNative(), c)
	}
}

func TestStatus(t *testing.T) {
	assert.False(t, StatusPending.IsTerminal())
	assert.True(t, StatusCompleted.IsTerminal())
	assert.True(t, StatusExpired.IsTerminal())
	assert.True(t, StatusCancelled.IsTerminal())
	assert.False(t, Status("paid").IsValid())
}

func TestPaymentRequestClone(t *testing.T) {
	done := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	orig := &PaymentRequest{
		ID:          "payment_1",
		Description: StringPtr("Tea"),
		CompletedAt: &done,
		TxHash:      StringPtr("0xabc"),
		Metadata:    map[string]any{"table": 4},
	}

	c := orig.Clone()
	*c.Description = "Coffee"
	*c.TxHash = "0xdef"
	*c.CompletedAt = done.Add(time.Hour)
	c.Metadata["table"] = 7

	assert.Equal(t, "Tea", *orig.Description)
	assert.Equal(t, "0xabc", *orig.TxHash)
	assert.Equal(t, done, *orig.CompletedAt)
	assert.Equal(t, 4, orig.Metadata["table"])

	var nilReq *PaymentRequest
	assert.Nil(t, nilReq.Clone())
}

func TestPaymentRequestJSONOmitsAbsentFields(t *testing.T) {
	raw, err := json.Marshal(PaymentRequest{ID: "payment_1", Currency: CurrencyUSDT, Status: StatusPending})
	require.NoError(t, err)

	var fields map[string]any
	require.NoError(t, json.Unmarshal(raw, &fields))
	for _, key := range []string{"description", "completedAt", "txHash", "metadata"} {
		assert.NotContains(t, fields, key)
	}
	assert.Equal(t, "USDT", fields["currency"])
}

func TestValidationErrors(t *testing.T) {
	errs := ValidationErrors{
		{Field: "amount", Message: "Invalid amount"},
		{Field: "currency", Message: "Unsupported currency"},
	}

	assert.True(t, errs.Has("amount"))
	assert.False(t, errs.Has("merchantAddress"))
	assert.Equal(t, []string{"Invalid amount", "Unsupported currency"}, errs.Messages())
	assert.Equal(t, "validation failed: Invalid amount; Unsupported currency", errs.Error())
}

func TestResult(t *testing.T) {
	ok := Ok(&PaymentRequest{ID: "payment_1"})
	assert.True(t, ok.IsOk())
	assert.NoError(t, ok.AsError())

	cause := errors.New("User rejected the request.")
	failed := Err(KindDispatch, cause.Error(), cause)
	assert.False(t, failed.IsOk())
	assert.ErrorIs(t, failed.AsError(), cause)

	bare := Err(KindDecode, "Invalid payment link", nil)
	require.Error(t, bare.AsError())
	assert.Contains(t, bare.AsError().Error(), "Invalid payment link")
}
