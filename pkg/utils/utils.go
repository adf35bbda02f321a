package utils

import (
	"errors"
	"fmt"
	"math/big"
	"regexp"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MuLx10/morph-payment-sdk/pkg/constants"
	"github.com/MuLx10/morph-payment-sdk/pkg/types"
)

var (
	ErrEmptyAmount         = errors.New("amount cannot be empty")
	ErrInvalidAmountFormat = errors.New("invalid amount format")
	ErrNonPositiveAmount   = errors.New("amount must be greater than zero")
	ErrTooManyDecimals     = errors.New("amount has more decimal places than the currency supports")
)

// plain decimal notation only: no sign, no exponent, no thousands separators
var amountPattern = regexp.MustCompile(`^[0-9]+(\.[0-9]+)?$`)

// ParseAmount parses a display-unit amount and checks it fits in decimals fractional digits.
// Trailing zeros beyond the exponent are accepted since they are not significant.
func ParseAmount(amount string, decimals int32) (decimal.Decimal, error) {
	if amount == "" {
		return decimal.Zero, ErrEmptyAmount
	}
	if !amountPattern.MatchString(amount) {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidAmountFormat, amount)
	}

	dec, err := decimal.NewFromString(amount)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %v", ErrInvalidAmountFormat, err)
	}

	if dec.Sign() <= 0 {
		return decimal.Zero, ErrNonPositiveAmount
	}

	scaled := dec.Shift(decimals)
	if !scaled.Equal(scaled.Truncate(0)) {
		return decimal.Zero, fmt.Errorf("%w (max %d)", ErrTooManyDecimals, decimals)
	}

	return dec, nil
}

// ToBaseUnits converts a display-unit amount into the integer base units of a currency
// with the given exponent. It never rounds: excess precision is an error.
func ToBaseUnits(amount string, decimals int32) (*big.Int, error) {
	dec, err := ParseAmount(amount, decimals)
	if err != nil {
		return nil, err
	}
	return dec.Shift(decimals).BigInt(), nil
}

// FromBaseUnits formats base units back into a display-unit decimal string
func FromBaseUnits(amount *big.Int, decimals int32) string {
	return decimal.NewFromBigInt(amount, -decimals).String()
}

// DecimalsFor returns the exponent used for on-chain amounts of c.
// The fiat proxy always resolves to a stable token, so it shares the token exponent.
func DecimalsFor(c types.Currency) int32 {
	if c.IsNative() {
		return constants.NativeDecimals
	}
	return constants.TokenDecimals
}

// FormatAmount renders an amount for display: 6 places for the native coin, 2 otherwise
func FormatAmount(amount string, currency types.Currency) string {
	dec, err := decimal.NewFromString(amount)
	if err != nil {
		return "0.00"
	}
	if currency.IsNative() {
		return dec.StringFixed(6)
	}
	return dec.StringFixed(2)
}

// ValidateMerchantAddress checks for a 0x-prefixed 20-byte hex address
func ValidateMerchantAddress(address string) bool {
	return len(address) == 42 && strings.HasPrefix(address, "0x") && common.IsHexAddress(address)
}

// NewPaymentID returns an opaque identifier of the form payment_<unix-ms>_<random>
func NewPaymentID(now time.Time) string {
	random := strings.ReplaceAll(uuid.NewString(), "-", "")
	return fmt.Sprintf("%s%d_%s", constants.PaymentIDPrefix, now.UnixMilli(), random)
}

// ExplorerTxURL builds the human-facing explorer link for a transaction hash
func ExplorerTxURL(network, txHash string) string {
	base, ok := constants.ExplorerTxURLs[network]
	if !ok || txHash == "" {
		return ""
	}
	return base + txHash
}

// ValidateServiceURL requires HTTPS, except for loopback hosts used in development
func ValidateServiceURL(url string) error {
	if strings.HasPrefix(url, "https://") {
		return nil
	}
	if strings.HasPrefix(url, "http://localhost") ||
		strings.HasPrefix(url, "http://127.0.0.1") ||
		strings.HasPrefix(url, "http://[::1]") {
		return nil
	}
	return fmt.Errorf("service URL must use HTTPS: %s", url)
}
