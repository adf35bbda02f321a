package merchantclient

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MuLx10/morph-payment-sdk/pkg/chains"
	"github.com/MuLx10/morph-payment-sdk/pkg/linkhandler"
	"github.com/MuLx10/morph-payment-sdk/pkg/sdk"
	"github.com/MuLx10/morph-payment-sdk/pkg/types"
)

const merchant = "0x70997970C51812dc3A010C7d01b50e0d17dc79C8"

type fixedSigner struct {
	hash string
}

func (f fixedSigner) IsConnected() bool { return true }

func (f fixedSigner) SendTransaction(ctx context.Context, tx chains.TxRequest) (string, error) {
	return f.hash, nil
}

func newTestClient(t *testing.T, signer chains.Signer) *Client {
	t.Helper()
	s, err := sdk.New(sdk.Config{MerchantAddress: merchant})
	require.NoError(t, err)

	srv := httptest.NewServer(linkhandler.New(s, signer, nil).Router())
	t.Cleanup(srv.Close)

	c, err := New(srv.URL, WithHTTPClient(srv.Client()))
	require.NoError(t, err)
	return c
}

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		want    string
		wantErr bool
	}{
		{name: "default", url: "", want: DefaultURL},
		{name: "trailing slash trimmed", url: "https://pay.example/", want: "https://pay.example"},
		{name: "plain http rejected", url: "http://pay.example", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := New(tt.url)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, c.URL)
			assert.NotNil(t, c.HTTPClient)
		})
	}
}

func TestClientPaymentLifecycle(t *testing.T) {
	ctx := context.Background()
	c := newTestClient(t, fixedSigner{hash: "0xbeef"})

	created, err := c.CreatePayment(ctx, linkhandler.CreatePaymentBody{
		Amount:      "12.5",
		Currency:    types.CurrencyUSDC,
		Description: types.StringPtr("Coffee beans"),
	})
	require.NoError(t, err)
	assert.Equal(t, types.StatusPending, created.Status)
	assert.Equal(t, merchant, created.MerchantAddress)

	got, err := c.GetPayment(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)

	link, err := c.PaymentLink(ctx, created.ID, "https://shop.example")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(link, "https://shop.example/pay?data="))

	decoded, err := c.DecodeLink(ctx, link)
	require.NoError(t, err)
	assert.Equal(t, created.ID, decoded.Payment.RequestID)
	assert.Equal(t, "12.5", decoded.Payment.Amount)

	qr, err := c.QRData(ctx, created.ID)
	require.NoError(t, err)
	assert.Contains(t, qr, created.ID)

	reqs, err := c.Requirements(ctx, created.ID, "https://api.example/report")
	require.NoError(t, err)
	assert.Equal(t, "12500000", reqs.MaxAmountRequired)
	assert.Equal(t, "https://api.example/report", reqs.Resource)

	paid, err := c.Pay(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "0xbeef", paid.TxHash)
	assert.Equal(t, types.StatusCompleted, paid.Payment.Status)

	stats, err := c.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Total)
	assert.Equal(t, 1, stats.Completed)
	assert.Equal(t, float64(100), stats.SuccessRate)

	csv, err := c.Export(ctx, types.ExportCSV)
	require.NoError(t, err)
	lines := strings.Split(csv, "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[1], `"0xbeef"`)
}

func TestClientUpdateStatusAndList(t *testing.T) {
	ctx := context.Background()
	c := newTestClient(t, nil)

	first, err := c.CreatePayment(ctx, linkhandler.CreatePaymentBody{Amount: "1", Currency: types.CurrencyETH})
	require.NoError(t, err)
	second, err := c.CreatePayment(ctx, linkhandler.CreatePaymentBody{Amount: "2", Currency: types.CurrencyETH})
	require.NoError(t, err)

	cancelled, err := c.UpdateStatus(ctx, first.ID, types.StatusCancelled, nil)
	require.NoError(t, err)
	assert.Equal(t, types.StatusCancelled, cancelled.Status)

	list, err := c.ListPayments(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID)
	assert.Equal(t, types.StatusCancelled, list[1].Status)
}

func TestClientErrors(t *testing.T) {
	ctx := context.Background()
	c := newTestClient(t, nil)

	t.Run("validation failures carry fields", func(t *testing.T) {
		_, err := c.CreatePayment(ctx, linkhandler.CreatePaymentBody{Amount: "abc", Currency: types.CurrencyUSDT})
		require.Error(t, err)

		var httpErr *HTTPError
		require.True(t, errors.As(err, &httpErr))
		assert.Equal(t, http.StatusBadRequest, httpErr.StatusCode)
		assert.True(t, FieldErrors(err).Has("amount"))
	})

	t.Run("unknown payment", func(t *testing.T) {
		_, err := c.GetPayment(ctx, "payment_missing")
		var httpErr *HTTPError
		require.True(t, errors.As(err, &httpErr))
		assert.True(t, httpErr.IsNotFound())
		assert.Equal(t, sdk.ErrPaymentNotFound.Error(), httpErr.Message())
	})

	t.Run("no signer", func(t *testing.T) {
		created, err := c.CreatePayment(ctx, linkhandler.CreatePaymentBody{Amount: "1", Currency: types.CurrencyUSDT})
		require.NoError(t, err)

		_, err = c.Pay(ctx, created.ID)
		var httpErr *HTTPError
		require.True(t, errors.As(err, &httpErr))
		assert.Equal(t, http.StatusServiceUnavailable, httpErr.StatusCode)
		assert.Contains(t, err.Error(), chains.ErrSignerNotConnected.Error())
	})

	t.Run("invalid link", func(t *testing.T) {
		_, err := c.DecodeLink(ctx, "https://shop.example/pay?data=%7Bbroken")
		var httpErr *HTTPError
		require.True(t, errors.As(err, &httpErr))
		assert.Equal(t, http.StatusBadRequest, httpErr.StatusCode)
		assert.Equal(t, "Invalid payment link", httpErr.Message())
	})
}

func TestHTTPErrorMessage(t *testing.T) {
	tests := []struct {
		name     string
		err      *HTTPError
		expected string
	}{
		{
			name:     "json error body",
			err:      &HTTPError{StatusCode: 404, Status: "404 Not Found", Body: []byte(`{"error":"payment request not found"}`)},
			expected: "HTTP 404: payment request not found",
		},
		{
			name:     "plain body",
			err:      &HTTPError{StatusCode: 502, Status: "502 Bad Gateway", Body: []byte("upstream down")},
			expected: "HTTP 502: 502 Bad Gateway - upstream down",
		},
		{
			name:     "empty body",
			err:      &HTTPError{StatusCode: 409, Status: "409 Conflict"},
			expected: "HTTP 409: 409 Conflict",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.err.Error())
		})
	}
	assert.True(t, (&HTTPError{StatusCode: http.StatusConflict}).IsConflict())
}
