package payment

import (
	"errors"
	"slices"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/MuLx10/morph-payment-sdk/pkg/types"
	"github.com/MuLx10/morph-payment-sdk/pkg/utils"
)

// Field names used in ValidationErrors
const (
	FieldAmount          = "amount"
	FieldCurrency        = "currency"
	FieldMerchantAddress = "merchantAddress"
	FieldExpiresAt       = "expiresAt"
)

const (
	MsgInvalidAmount          = "Invalid amount"
	MsgTooManyDecimals        = "Amount has too many decimal places"
	MsgUnsupportedCurrency    = "Unsupported currency"
	MsgInvalidMerchantAddress = "Invalid merchant address"
	MsgExpired                = "Payment request expired"
)

type requestFields struct {
	MerchantAddress string `validate:"required,eth_addr"`
	Amount          string `validate:"required"`
	Currency        string `validate:"required"`
}

// Validator checks payment requests against a merchant's supported currency set
type Validator struct {
	validate  *validator.Validate
	supported []types.Currency
}

// NewValidator creates a validator accepting only the given currencies
func NewValidator(supported []types.Currency) *Validator {
	return &Validator{
		validate:  validator.New(),
		supported: slices.Clone(supported),
	}
}

// Supported returns the configured currency set
func (v *Validator) Supported() []types.Currency {
	return slices.Clone(v.supported)
}

// IsSupported reports whether c is in the configured set
func (v *Validator) IsSupported(c types.Currency) bool {
	return slices.Contains(v.supported, c)
}

// ValidateNew checks the inputs of a request that is about to be created.
// It returns nil when everything is acceptable.
func (v *Validator) ValidateNew(merchantAddress, amount string, currency types.Currency) types.ValidationErrors {
	var errs types.ValidationErrors

	in := requestFields{
		MerchantAddress: merchantAddress,
		Amount:          amount,
		Currency:        string(currency),
	}
	if err := v.validate.Struct(&in); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			for _, fe := range fieldErrs {
				switch fe.StructField() {
				case "MerchantAddress":
					errs = append(errs, types.FieldError{Field: FieldMerchantAddress, Message: MsgInvalidMerchantAddress})
				case "Amount":
					errs = append(errs, types.FieldError{Field: FieldAmount, Message: MsgInvalidAmount})
				case "Currency":
					errs = append(errs, types.FieldError{Field: FieldCurrency, Message: MsgUnsupportedCurrency})
				}
			}
		}
	}

	if amount != "" {
		if _, err := utils.ParseAmount(amount, utils.DecimalsFor(currency)); err != nil {
			msg := MsgInvalidAmount
			if errors.Is(err, utils.ErrTooManyDecimals) {
				msg = MsgTooManyDecimals
			}
			errs = append(errs, types.FieldError{Field: FieldAmount, Message: msg})
		}
	}

	if currency != "" && (!currency.IsValid() || !v.IsSupported(currency)) {
		errs = append(errs, types.FieldError{Field: FieldCurrency, Message: MsgUnsupportedCurrency})
	}

	if len(errs) == 0 {
		return nil
	}
	return errs
}

// ValidateRequest checks an existing request, including whether it has expired
func (v *Validator) ValidateRequest(p *types.PaymentRequest, now time.Time) types.ValidationErrors {
	errs := v.ValidateNew(p.MerchantAddress, p.Amount, p.Currency)
	if IsExpired(p, now) {
		errs = append(errs, types.FieldError{Field: FieldExpiresAt, Message: MsgExpired})
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}
