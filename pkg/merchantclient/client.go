// Package merchantclient talks to a merchant payment server over its HTTP API
package merchantclient

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	x402types "github.com/coinbase/x402/go/pkg/types"

	"github.com/MuLx10/morph-payment-sdk/pkg/constants"
	"github.com/MuLx10/morph-payment-sdk/pkg/linkhandler"
	"github.com/MuLx10/morph-payment-sdk/pkg/types"
	"github.com/MuLx10/morph-payment-sdk/pkg/utils"
)

// DefaultURL is used when New is given an empty base URL
const DefaultURL = "http://localhost:8080"

type Client struct {
	URL        string
	HTTPClient *http.Client
}

type Option func(*Client)

// WithHTTPClient replaces the default client, which times out after constants.ClientTimeout
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		cl.HTTPClient = c
	}
}

// New returns a client for the server at baseURL. Non-loopback servers must use HTTPS.
func New(baseURL string, opts ...Option) (*Client, error) {
	if baseURL == "" {
		baseURL = DefaultURL
	}
	if err := utils.ValidateServiceURL(baseURL); err != nil {
		return nil, err
	}

	c := &Client{
		URL:        strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{Timeout: constants.ClientTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// CreatePayment creates a payment request. A 400 reply carries the per-field failures,
// available through FieldErrors.
func (c *Client) CreatePayment(ctx context.Context, body linkhandler.CreatePaymentBody) (*types.PaymentRequest, error) {
	var p types.PaymentRequest
	if err := httpRequest(ctx, c.HTTPClient, http.MethodPost, c.URL+"/api/payments", body, &p); err != nil {
		return nil, fmt.Errorf("failed to create payment: %w", err)
	}
	return &p, nil
}

// ListPayments returns every payment request, most recent first
func (c *Client) ListPayments(ctx context.Context) ([]*types.PaymentRequest, error) {
	var list []*types.PaymentRequest
	if err := httpRequest(ctx, c.HTTPClient, http.MethodGet, c.URL+"/api/payments", nil, &list); err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}
	return list, nil
}

func (c *Client) GetPayment(ctx context.Context, id string) (*types.PaymentRequest, error) {
	var p types.PaymentRequest
	if err := httpRequest(ctx, c.HTTPClient, http.MethodGet, c.paymentURL(id, ""), nil, &p); err != nil {
		return nil, fmt.Errorf("failed to get payment %s: %w", id, err)
	}
	return &p, nil
}

func (c *Client) UpdateStatus(ctx context.Context, id string, status types.Status, txHash *string) (*types.PaymentRequest, error) {
	body := linkhandler.UpdateStatusBody{Status: status, TxHash: txHash}

	var p types.PaymentRequest
	if err := httpRequest(ctx, c.HTTPClient, http.MethodPatch, c.paymentURL(id, ""), body, &p); err != nil {
		return nil, fmt.Errorf("failed to update payment %s: %w", id, err)
	}
	return &p, nil
}

// PaymentLink asks the server for a shareable link. An empty base uses the server's own origin.
func (c *Client) PaymentLink(ctx context.Context, id, base string) (string, error) {
	u := c.paymentURL(id, "/link")
	if base != "" {
		u += "?base=" + url.QueryEscape(base)
	}

	var out struct {
		Link string `json:"link"`
	}
	if err := httpRequest(ctx, c.HTTPClient, http.MethodGet, u, nil, &out); err != nil {
		return "", fmt.Errorf("failed to get payment link: %w", err)
	}
	return out.Link, nil
}

func (c *Client) QRData(ctx context.Context, id string) (string, error) {
	var out struct {
		Data string `json:"data"`
	}
	if err := httpRequest(ctx, c.HTTPClient, http.MethodGet, c.paymentURL(id, "/qr"), nil, &out); err != nil {
		return "", fmt.Errorf("failed to get QR data: %w", err)
	}
	return out.Data, nil
}

// DecodeLink has the server decode a payment link it issued
func (c *Client) DecodeLink(ctx context.Context, link string) (*linkhandler.LinkResponse, error) {
	u, err := c.linkURL(link)
	if err != nil {
		return nil, err
	}

	var out linkhandler.LinkResponse
	if err := httpRequest(ctx, c.HTTPClient, http.MethodGet, u, nil, &out); err != nil {
		return nil, fmt.Errorf("failed to decode payment link: %w", err)
	}
	return &out, nil
}

// Requirements returns the stored request as x402 payment requirements for resource
func (c *Client) Requirements(ctx context.Context, id, resource string) (*x402types.PaymentRequirements, error) {
	u := c.paymentURL(id, "/requirements")
	if resource != "" {
		u += "?resource=" + url.QueryEscape(resource)
	}

	var reqs x402types.PaymentRequirements
	if err := httpRequest(ctx, c.HTTPClient, http.MethodGet, u, nil, &reqs); err != nil {
		return nil, fmt.Errorf("failed to get payment requirements: %w", err)
	}
	return &reqs, nil
}

// Pay submits the stored payment request with the server's signer
func (c *Client) Pay(ctx context.Context, id string) (*linkhandler.PayResponse, error) {
	var out linkhandler.PayResponse
	if err := httpRequest(ctx, c.HTTPClient, http.MethodPost, c.paymentURL(id, "/pay"), nil, &out); err != nil {
		return nil, fmt.Errorf("failed to pay %s: %w", id, err)
	}
	return &out, nil
}

// PayLink submits a payment link with the server's signer
func (c *Client) PayLink(ctx context.Context, link string) (*linkhandler.PayResponse, error) {
	u, err := c.linkURL(link)
	if err != nil {
		return nil, err
	}

	var out linkhandler.PayResponse
	if err := httpRequest(ctx, c.HTTPClient, http.MethodPost, u, nil, &out); err != nil {
		return nil, fmt.Errorf("failed to pay link: %w", err)
	}
	return &out, nil
}

func (c *Client) Stats(ctx context.Context) (*types.PaymentStats, error) {
	var stats types.PaymentStats
	if err := httpRequest(ctx, c.HTTPClient, http.MethodGet, c.URL+"/api/stats", nil, &stats); err != nil {
		return nil, fmt.Errorf("failed to get stats: %w", err)
	}
	return &stats, nil
}

// Export returns the raw export document in the given format
func (c *Client) Export(ctx context.Context, format types.ExportFormat) (string, error) {
	u := c.URL + "/api/export"
	if format != "" {
		u += "?format=" + url.QueryEscape(string(format))
	}

	var raw []byte
	if err := httpRequest(ctx, c.HTTPClient, http.MethodGet, u, nil, &raw); err != nil {
		return "", fmt.Errorf("failed to export payments: %w", err)
	}
	return string(raw), nil
}

func (c *Client) paymentURL(id, suffix string) string {
	return c.URL + "/api/payments/" + url.PathEscape(id) + suffix
}

// linkURL points a payment link at this client's server, keeping its query
func (c *Client) linkURL(link string) (string, error) {
	u, err := url.Parse(link)
	if err != nil {
		return "", fmt.Errorf("failed to parse payment link: %w", err)
	}
	return c.URL + constants.PaymentLinkPath + "?" + u.RawQuery, nil
}
