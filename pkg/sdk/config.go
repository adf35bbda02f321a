package sdk

import (
	"fmt"
	"slices"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/MuLx10/morph-payment-sdk/pkg/constants"
	"github.com/MuLx10/morph-payment-sdk/pkg/types"
)

type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

type Mode string

const (
	ModeStandalone Mode = "standalone"
	ModeEmbedded   Mode = "embedded"
)

// Config is the merchant configuration of one SDK instance
type Config struct {
	MerchantAddress     string           `json:"merchantAddress" validate:"required,eth_addr"`
	SupportedCurrencies []types.Currency `json:"supportedCurrencies" validate:"min=1,dive,currency"`
	Network             string           `json:"network" validate:"required"`
	Theme               Theme            `json:"theme" validate:"oneof=light dark"`
	Mode                Mode             `json:"mode" validate:"oneof=standalone embedded"`
	// DefaultStable is the stable token a fiat-proxy request resolves to
	DefaultStable types.Currency `json:"defaultStable" validate:"stable"`
	// ExpiresIn is the default horizon for new requests
	ExpiresIn time.Duration `json:"expiresIn" validate:"gt=0"`
}

// ConfigPatch holds the fields UpdateConfig should change. Nil fields are left alone.
type ConfigPatch struct {
	MerchantAddress     *string
	SupportedCurrencies []types.Currency
	Network             *string
	Theme               *Theme
	Mode                *Mode
	DefaultStable       *types.Currency
	ExpiresIn           *time.Duration
}

// DefaultSupportedCurrencies is used when a config names none
func DefaultSupportedCurrencies() []types.Currency {
	return []types.Currency{types.CurrencyUSDT, types.CurrencyUSDC, types.CurrencyETH}
}

var validate = newConfigValidator()

func newConfigValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("currency", func(fl validator.FieldLevel) bool {
		return types.Currency(fl.Field().String()).IsValid()
	})
	_ = v.RegisterValidation("stable", func(fl validator.FieldLevel) bool {
		return types.Currency(fl.Field().String()).IsStable()
	})
	return v
}

// withDefaults fills every unset field
func (c Config) withDefaults() Config {
	if len(c.SupportedCurrencies) == 0 {
		c.SupportedCurrencies = DefaultSupportedCurrencies()
	} else {
		c.SupportedCurrencies = slices.Clone(c.SupportedCurrencies)
	}
	if c.Network == "" {
		c.Network = constants.DefaultNetwork
	}
	if c.Theme == "" {
		c.Theme = ThemeLight
	}
	if c.Mode == "" {
		c.Mode = ModeStandalone
	}
	if c.DefaultStable == "" {
		c.DefaultStable = types.Currency(constants.DefaultStableCode)
	}
	if c.ExpiresIn == 0 {
		c.ExpiresIn = constants.DefaultExpiresIn
	}
	return c
}

// Validate checks the config after defaults have been applied
func (c Config) Validate() error {
	if err := validate.Struct(&c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

func (c Config) clone() Config {
	c.SupportedCurrencies = slices.Clone(c.SupportedCurrencies)
	return c
}

func (c Config) apply(p ConfigPatch) Config {
	if p.MerchantAddress != nil {
		c.MerchantAddress = *p.MerchantAddress
	}
	if p.SupportedCurrencies != nil {
		c.SupportedCurrencies = slices.Clone(p.SupportedCurrencies)
	}
	if p.Network != nil {
		c.Network = *p.Network
	}
	if p.Theme != nil {
		c.Theme = *p.Theme
	}
	if p.Mode != nil {
		c.Mode = *p.Mode
	}
	if p.DefaultStable != nil {
		c.DefaultStable = *p.DefaultStable
	}
	if p.ExpiresIn != nil {
		c.ExpiresIn = *p.ExpiresIn
	}
	return c
}
