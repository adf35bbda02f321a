// Package x402 exposes token-denominated payment requests as x402 payment requirements,
// so HTTP resources can be gated on the same request a merchant created.
package x402

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	x402types "github.com/coinbase/x402/go/pkg/types"

	"github.com/MuLx10/morph-payment-sdk/pkg/chains"
	"github.com/MuLx10/morph-payment-sdk/pkg/dispatcher"
	"github.com/MuLx10/morph-payment-sdk/pkg/types"
	"github.com/MuLx10/morph-payment-sdk/pkg/utils"
)

const (
	SchemeExact     = "exact"
	defaultMimeType = "application/json"
)

var (
	ErrNativeNotSupported = errors.New("x402 exact scheme requires a token payment")
	ErrRequestExpired     = errors.New("payment request expired")
)

// requirementsExtra travels in PaymentRequirements.Extra
type requirementsExtra struct {
	Currency  types.Currency `json:"currency"`
	RequestID string         `json:"requestId"`
}

// ToPaymentRequirements converts req into exact-scheme requirements for resource.
// The amount is expressed in token base units and the timeout is whatever remains
// before req expires.
func ToPaymentRequirements(req *types.PaymentRequest, network *chains.Network, selectedStable types.Currency, resource string, now time.Time) (*x402types.PaymentRequirements, error) {
	if req == nil || network == nil {
		return nil, errors.New("payment request and network are required")
	}

	currency := dispatcher.ResolveCurrency(req.Currency, selectedStable)
	if currency == network.NativeCurrency {
		return nil, ErrNativeNotSupported
	}
	asset, ok := network.TokenAddress(currency)
	if !ok {
		return nil, fmt.Errorf("%w: %s", dispatcher.ErrUnsupportedCurrency, currency)
	}

	amount, err := utils.ToBaseUnits(req.Amount, network.TokenDecimals)
	if err != nil {
		return nil, fmt.Errorf("invalid amount: %w", err)
	}

	remaining := req.ExpiresAt.Sub(now)
	if remaining <= 0 {
		return nil, ErrRequestExpired
	}
	timeout := int(math.Ceil(remaining.Seconds()))

	extraRaw, err := json.Marshal(requirementsExtra{Currency: currency, RequestID: req.ID})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal extra: %w", err)
	}
	extra := json.RawMessage(extraRaw)

	description := fmt.Sprintf("Payment %s", req.ID)
	if req.Description != nil && *req.Description != "" {
		description = *req.Description
	}

	return &x402types.PaymentRequirements{
		Scheme:            SchemeExact,
		Network:           network.Name,
		MaxAmountRequired: amount.String(),
		Resource:          resource,
		Description:       description,
		MimeType:          defaultMimeType,
		PayTo:             req.MerchantAddress,
		MaxTimeoutSeconds: timeout,
		Asset:             asset.Hex(),
		Extra:             &extra,
	}, nil
}

// RequestID recovers the payment request id carried in requirements built by ToPaymentRequirements
func RequestID(reqs *x402types.PaymentRequirements) (string, error) {
	if reqs == nil || reqs.Extra == nil {
		return "", errors.New("requirements carry no extra data")
	}
	var extra requirementsExtra
	if err := json.Unmarshal(*reqs.Extra, &extra); err != nil {
		return "", fmt.Errorf("failed to decode extra: %w", err)
	}
	if extra.RequestID == "" {
		return "", errors.New("requirements carry no request id")
	}
	return extra.RequestID, nil
}
