package main

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/MuLx10/morph-payment-sdk/pkg/sdk"
	"github.com/MuLx10/morph-payment-sdk/pkg/types"
)

type serverConfig struct {
	ListenAddr string
	LogLevel   slog.Level
	SignerKey  string
	RPCURL     string
	SDK        sdk.Config
}

// loadConfig reads the server configuration from the environment
func loadConfig() (*serverConfig, error) {
	cfg := &serverConfig{
		ListenAddr: getEnv("LISTEN_ADDR", ":8080"),
		SignerKey:  getEnv("SIGNER_PRIVATE_KEY", ""),
		RPCURL:     getEnv("RPC_URL", ""),
		SDK: sdk.Config{
			MerchantAddress: getEnv("MERCHANT_ADDRESS", ""),
			Network:         getEnv("MORPH_NETWORK", ""),
			Theme:           sdk.Theme(getEnv("THEME", "")),
			Mode:            sdk.Mode(getEnv("MODE", "")),
			DefaultStable:   types.Currency(getEnv("DEFAULT_STABLE", "")),
		},
	}

	if err := cfg.LogLevel.UnmarshalText([]byte(getEnv("LOG_LEVEL", "info"))); err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}

	currencies, err := parseCurrencies(getEnv("SUPPORTED_CURRENCIES", ""))
	if err != nil {
		return nil, fmt.Errorf("invalid SUPPORTED_CURRENCIES: %w", err)
	}
	cfg.SDK.SupportedCurrencies = currencies

	if raw := getEnv("PAYMENT_EXPIRES_IN_HOURS", ""); raw != "" {
		hours, err := strconv.ParseFloat(raw, 64)
		if err != nil || hours <= 0 {
			return nil, fmt.Errorf("invalid PAYMENT_EXPIRES_IN_HOURS: %q", raw)
		}
		cfg.SDK.ExpiresIn = time.Duration(hours * float64(time.Hour))
	}

	return cfg, nil
}

// parseCurrencies splits a comma separated list. An empty list leaves the SDK default.
func parseCurrencies(raw string) ([]types.Currency, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	var out []types.Currency
	for _, part := range strings.Split(raw, ",") {
		c, err := types.ParseCurrency(strings.TrimSpace(part))
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}
