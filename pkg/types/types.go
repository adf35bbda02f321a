package types

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Currency is the closed set of currencies a payment request can be denominated in
type Currency string

const (
	CurrencyETH  Currency = "ETH"  // native coin
	CurrencyUSDT Currency = "USDT" // stable token
	CurrencyUSDC Currency = "USDC" // stable token
	CurrencyCUSD Currency = "cUSD" // alt stable
	CurrencyDAI  Currency = "DAI"  // alt stable
	CurrencyUSD  Currency = "USD"  // fiat proxy, must be resolved before any on-chain action
)

// AllCurrencies returns every currency in display order
func AllCurrencies() []Currency {
	return []Currency{CurrencyETH, CurrencyUSDT, CurrencyUSDC, CurrencyCUSD, CurrencyDAI, CurrencyUSD}
}

// ParseCurrency parses a currency symbol. Symbols are case-sensitive ("cUSD").
func ParseCurrency(s string) (Currency, error) {
	c := Currency(s)
	if !c.IsValid() {
		return "", fmt.Errorf("unknown currency: %q", s)
	}
	return c, nil
}

func (c Currency) IsValid() bool {
	switch c {
	case CurrencyETH, CurrencyUSDT, CurrencyUSDC, CurrencyCUSD, CurrencyDAI, CurrencyUSD:
		return true
	}
	return false
}

func (c Currency) IsNative() bool {
	return c == CurrencyETH
}

func (c Currency) IsFiatProxy() bool {
	return c == CurrencyUSD
}

// IsStable reports whether c is a concrete stable token usable for fiat-proxy resolution
func (c Currency) IsStable() bool {
	switch c {
	case CurrencyUSDT, CurrencyUSDC, CurrencyCUSD, CurrencyDAI:
		return true
	}
	return false
}

func (c Currency) String() string {
	return string(c)
}

// Status is the lifecycle state of a payment request
type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusExpired   Status = "expired"
	StatusCancelled Status = "cancelled"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusCompleted, StatusExpired, StatusCancelled:
		return true
	}
	return false
}

// IsTerminal reports whether no further transition is possible from s
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusExpired || s == StatusCancelled
}

// PaymentRequest is a merchant's request to be paid a given amount
type PaymentRequest struct {
	ID              string         `json:"id"`
	MerchantAddress string         `json:"merchantAddress"`
	Amount          string         `json:"amount"` // display units, not base units
	Currency        Currency       `json:"currency"`
	Description     *string        `json:"description,omitempty"`
	Status          Status         `json:"status"`
	CreatedAt       time.Time      `json:"createdAt"`
	ExpiresAt       time.Time      `json:"expiresAt"`
	CompletedAt     *time.Time     `json:"completedAt,omitempty"`
	TxHash          *string        `json:"txHash,omitempty"`
	Metadata        map[string]any `json:"metadata,omitempty"`
}

// Clone returns a deep copy so callers cannot mutate stored records
func (p *PaymentRequest) Clone() *PaymentRequest {
	if p == nil {
		return nil
	}
	c := *p
	if p.Description != nil {
		d := *p.Description
		c.Description = &d
	}
	if p.CompletedAt != nil {
		t := *p.CompletedAt
		c.CompletedAt = &t
	}
	if p.TxHash != nil {
		h := *p.TxHash
		c.TxHash = &h
	}
	if p.Metadata != nil {
		c.Metadata = make(map[string]any, len(p.Metadata))
		for k, v := range p.Metadata {
			c.Metadata[k] = v
		}
	}
	return &c
}

// Payload is the wire form carried by payment links and scannable codes.
// Currency is always a concrete currency, never the fiat proxy.
type Payload struct {
	Merchant    string   `json:"merchant"`
	Amount      string   `json:"amount"`
	Currency    Currency `json:"currency"`
	RequestID   string   `json:"requestId"`
	Description *string  `json:"description,omitempty"`
	Timestamp   int64    `json:"timestamp,omitempty"` // unix milliseconds at capture
}

// PaymentStats aggregates a store of payment requests
type PaymentStats struct {
	Total       int             `json:"total"`
	Completed   int             `json:"completed"`
	Pending     int             `json:"pending"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
	SuccessRate float64         `json:"successRate"`
}

// ExportFormat selects the serialization used by exports
type ExportFormat string

const (
	ExportJSON ExportFormat = "json"
	ExportCSV  ExportFormat = "csv"
)

// StringPtr returns a pointer to s
func StringPtr(s string) *string {
	return &s
}
