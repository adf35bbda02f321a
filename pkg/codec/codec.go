// Package codec turns payment requests into the payload carried by shareable links and
// scannable codes, and parses that payload back. Both consumption modes share one schema.
package codec

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/MuLx10/morph-payment-sdk/pkg/constants"
	"github.com/MuLx10/morph-payment-sdk/pkg/types"
)

var (
	ErrInvalidPaymentLink = errors.New("Invalid payment link")
	ErrNoPaymentData      = errors.New("No payment data found in URL")
	ErrUnresolvedCurrency = errors.New("fiat-proxy currency must be resolved to a stable token")
)

// NewPayload builds the wire payload for req. A fiat-proxy currency is replaced by
// selectedStable so the encoded payload always names a concrete currency.
func NewPayload(req *types.PaymentRequest, selectedStable types.Currency, now time.Time) (types.Payload, error) {
	if req == nil {
		return types.Payload{}, errors.New("payment request is nil")
	}

	currency := req.Currency
	if currency.IsFiatProxy() {
		if !selectedStable.IsStable() {
			return types.Payload{}, fmt.Errorf("%w: got %q", ErrUnresolvedCurrency, selectedStable)
		}
		currency = selectedStable
	}

	var description *string
	if req.Description != nil {
		description = types.StringPtr(*req.Description)
	}

	return types.Payload{
		Merchant:    req.MerchantAddress,
		Amount:      req.Amount,
		Currency:    currency,
		RequestID:   req.ID,
		Description: description,
		Timestamp:   now.UnixMilli(),
	}, nil
}

// EncodeQR returns the compact JSON text embedded in a scannable code
func EncodeQR(p types.Payload) (string, error) {
	if err := checkPayload(p); err != nil {
		return "", err
	}
	raw, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("failed to marshal payload: %w", err)
	}
	return string(raw), nil
}

// EncodeLink returns <baseURL>/pay?data=<percent-escaped payload JSON>
func EncodeLink(baseURL string, p types.Payload) (string, error) {
	text, err := EncodeQR(p)
	if err != nil {
		return "", err
	}
	base := strings.TrimRight(baseURL, "/")
	return base + constants.PaymentLinkPath + "?" + constants.PaymentLinkParam + "=" + escapeComponent(text), nil
}

// escapeComponent percent-escapes s for a query value, writing spaces as %20 so
// decodeURIComponent reads the value back unchanged
func escapeComponent(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

// DecodeLink reads the payload from the data parameter of u
func DecodeLink(u *url.URL) (types.Payload, error) {
	if u == nil {
		return types.Payload{}, ErrNoPaymentData
	}
	return DecodeRawQuery(u.RawQuery)
}

// DecodeRawQuery reads the payload from an undecoded query string. Malformed percent
// encoding in the data parameter is reported as an invalid link, not as missing data.
func DecodeRawQuery(rawQuery string) (types.Payload, error) {
	for _, pair := range strings.Split(rawQuery, "&") {
		key, value, _ := strings.Cut(pair, "=")
		if key != constants.PaymentLinkParam {
			continue
		}
		return DecodeData(value)
	}
	return types.Payload{}, ErrNoPaymentData
}

// DecodeQuery reads the payload from already-unescaped query values
func DecodeQuery(values url.Values) (types.Payload, error) {
	if !values.Has(constants.PaymentLinkParam) {
		return types.Payload{}, ErrNoPaymentData
	}
	return parse(values.Get(constants.PaymentLinkParam))
}

// DecodeData percent-unescapes and parses the value of a data parameter
func DecodeData(escaped string) (types.Payload, error) {
	if escaped == "" {
		return types.Payload{}, ErrNoPaymentData
	}
	text, err := url.QueryUnescape(escaped)
	if err != nil {
		return types.Payload{}, fmt.Errorf("%w: %v", ErrInvalidPaymentLink, err)
	}
	return parse(text)
}

// DecodeQR parses scanned text. Both bare payload JSON and a full payment link are accepted.
func DecodeQR(text string) (types.Payload, error) {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "{") {
		return parse(text)
	}
	u, err := url.Parse(text)
	if err != nil {
		return types.Payload{}, fmt.Errorf("%w: %v", ErrInvalidPaymentLink, err)
	}
	return DecodeLink(u)
}

func parse(text string) (types.Payload, error) {
	if text == "" {
		return types.Payload{}, ErrNoPaymentData
	}
	var p types.Payload
	if err := json.Unmarshal([]byte(text), &p); err != nil {
		return types.Payload{}, fmt.Errorf("%w: %v", ErrInvalidPaymentLink, err)
	}
	if err := checkPayload(p); err != nil {
		return types.Payload{}, err
	}
	return p, nil
}

func checkPayload(p types.Payload) error {
	switch {
	case p.Merchant == "":
		return fmt.Errorf("%w: missing merchant", ErrInvalidPaymentLink)
	case p.Amount == "":
		return fmt.Errorf("%w: missing amount", ErrInvalidPaymentLink)
	case p.RequestID == "":
		return fmt.Errorf("%w: missing requestId", ErrInvalidPaymentLink)
	case !p.Currency.IsValid():
		return fmt.Errorf("%w: unknown currency %q", ErrInvalidPaymentLink, p.Currency)
	case p.Currency.IsFiatProxy():
		return fmt.Errorf("%w: %w", ErrInvalidPaymentLink, ErrUnresolvedCurrency)
	}
	return nil
}

// ToPaymentRequest rebuilds a pending request from a decoded payload so a payer can dispatch it
func ToPaymentRequest(p types.Payload, expiresIn time.Duration) *types.PaymentRequest {
	created := time.UnixMilli(p.Timestamp)
	if p.Timestamp == 0 {
		created = time.Now()
	}
	if expiresIn <= 0 {
		expiresIn = constants.DefaultExpiresIn
	}

	var description *string
	if p.Description != nil {
		description = types.StringPtr(*p.Description)
	}

	return &types.PaymentRequest{
		ID:              p.RequestID,
		MerchantAddress: p.Merchant,
		Amount:          p.Amount,
		Currency:        p.Currency,
		Description:     description,
		Status:          types.StatusPending,
		CreatedAt:       created,
		ExpiresAt:       created.Add(expiresIn),
	}
}
