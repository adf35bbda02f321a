// Package dispatcher turns a payment request and a connected signer into exactly one
// on-chain submission and reports the outcome as a types.Result.
package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/MuLx10/morph-payment-sdk/pkg/chains"
	"github.com/MuLx10/morph-payment-sdk/pkg/chains/evm"
	"github.com/MuLx10/morph-payment-sdk/pkg/metrics"
	"github.com/MuLx10/morph-payment-sdk/pkg/payment"
	"github.com/MuLx10/morph-payment-sdk/pkg/types"
	"github.com/MuLx10/morph-payment-sdk/pkg/utils"
)

var (
	ErrUnsupportedCurrency = errors.New("Unsupported currency")
	ErrNotPayable          = errors.New("payment request is not pending")
	ErrInvalidRecipient    = errors.New("invalid merchant address")
	ErrNoNetwork           = errors.New("no network configured")
	ErrMissingTxHash       = errors.New("signer returned no transaction hash")
)

// fallback when a signer error carries no text
const genericFailure = "Transaction failed"

type Dispatcher struct {
	logger  *slog.Logger
	metrics metrics.Recorder
	now     func() time.Time
}

type Option func(*Dispatcher)

func WithLogger(l *slog.Logger) Option {
	return func(d *Dispatcher) {
		d.logger = l
	}
}

func WithMetrics(r metrics.Recorder) Option {
	return func(d *Dispatcher) {
		d.metrics = r
	}
}

func WithClock(now func() time.Time) Option {
	return func(d *Dispatcher) {
		d.now = now
	}
}

// New creates a dispatcher. Without options it logs to slog.Default and records no metrics.
func New(opts ...Option) *Dispatcher {
	d := &Dispatcher{
		logger:  slog.Default(),
		metrics: metrics.NoopRecorder{},
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.logger == nil {
		d.logger = slog.Default()
	}
	if d.metrics == nil {
		d.metrics = metrics.NoopRecorder{}
	}
	return d
}

// DispatchOptions carries the per-call collaborators of Dispatch
type DispatchOptions struct {
	Signer  chains.Signer
	Network *chains.Network
	// SelectedStable replaces a fiat-proxy currency before anything is built
	SelectedStable types.Currency
	OnSuccess      func(*types.PaymentRequest)
	OnError        func(types.Result)
}

// ResolveCurrency returns the concrete currency a request is paid in
func ResolveCurrency(c, selectedStable types.Currency) types.Currency {
	if c.IsFiatProxy() {
		return selectedStable
	}
	return c
}

// PlanTransaction builds the transaction that pays req on network without touching a signer.
// Native payments carry a value in native base units to the merchant; token payments carry
// transfer calldata addressed to the token contract.
func PlanTransaction(req *types.PaymentRequest, network *chains.Network, selectedStable types.Currency) (chains.TxRequest, error) {
	if network == nil {
		return chains.TxRequest{}, ErrNoNetwork
	}
	if !utils.ValidateMerchantAddress(req.MerchantAddress) {
		return chains.TxRequest{}, fmt.Errorf("%w: %q", ErrInvalidRecipient, req.MerchantAddress)
	}
	merchant := common.HexToAddress(req.MerchantAddress)

	currency := ResolveCurrency(req.Currency, selectedStable)

	if currency == network.NativeCurrency {
		value, err := utils.ToBaseUnits(req.Amount, network.NativeDecimals)
		if err != nil {
			return chains.TxRequest{}, err
		}
		return chains.TxRequest{
			To:      merchant,
			Value:   value,
			ChainID: network.ChainID,
		}, nil
	}

	token, ok := network.TokenAddress(currency)
	if !ok {
		return chains.TxRequest{}, fmt.Errorf("%w: %s", ErrUnsupportedCurrency, currency)
	}

	amount, err := utils.ToBaseUnits(req.Amount, network.TokenDecimals)
	if err != nil {
		return chains.TxRequest{}, err
	}
	data, err := evm.EncodeTransfer(merchant, amount)
	if err != nil {
		return chains.TxRequest{}, err
	}

	return chains.TxRequest{
		To:      token,
		Data:    data,
		ChainID: network.ChainID,
	}, nil
}

// Dispatch submits req through opts.Signer. On success req is completed in place with the
// returned hash. On failure req is left untouched. The outcome is both returned and passed
// to the matching callback. ctx is handed to the signer unchanged, so a caller that wants
// the submission to outlive its own cancellation should pass context.WithoutCancel(ctx).
func (d *Dispatcher) Dispatch(ctx context.Context, req *types.PaymentRequest, opts DispatchOptions) types.Result {
	if req == nil {
		return d.fail(opts, types.KindValidation, errors.New("payment request is nil"), nil)
	}

	labels := map[string]string{}
	if opts.Network != nil {
		labels["network"] = opts.Network.Name
	}

	now := d.now()
	if payment.EffectiveStatus(req, now) != types.StatusPending {
		return d.fail(opts, types.KindValidation, fmt.Errorf("%w: %s", ErrNotPayable, payment.EffectiveStatus(req, now)), req)
	}

	tx, err := PlanTransaction(req, opts.Network, opts.SelectedStable)
	if err != nil {
		kind := types.KindValidation
		switch {
		case errors.Is(err, ErrUnsupportedCurrency):
			kind = types.KindDispatch
			d.metrics.IncCounter(metrics.EventDispatchUnsupportedCurrency, labels)
		case errors.Is(err, ErrNoNetwork):
			kind = types.KindDispatch
			d.metrics.IncCounter(metrics.EventDispatchError, labels)
		}
		return d.fail(opts, kind, err, req)
	}

	if opts.Signer == nil || !opts.Signer.IsConnected() {
		d.metrics.IncCounter(metrics.EventDispatchError, labels)
		return d.fail(opts, types.KindDispatch, chains.ErrSignerNotConnected, req)
	}

	start := d.now()
	hash, err := opts.Signer.SendTransaction(ctx, tx)
	d.metrics.ObserveLatency(metrics.OperationSendTransaction, d.now().Sub(start), labels)
	if err != nil {
		d.metrics.IncCounter(metrics.EventDispatchError, labels)
		return d.fail(opts, types.KindDispatch, err, req)
	}

	if !payment.Complete(req, hash, d.now()) {
		d.metrics.IncCounter(metrics.EventDispatchError, labels)
		return d.fail(opts, types.KindDispatch, ErrMissingTxHash, req)
	}
	d.metrics.IncCounter(metrics.EventDispatchSuccess, labels)
	d.logger.Info("payment submitted",
		"id", req.ID,
		"currency", req.Currency,
		"amount", req.Amount,
		"tx_hash", hash)

	if opts.OnSuccess != nil {
		opts.OnSuccess(req)
	}
	return types.Ok(req)
}

func (d *Dispatcher) fail(opts DispatchOptions, kind types.ErrorKind, err error, req *types.PaymentRequest) types.Result {
	msg := NormalizeError(err)

	attrs := []any{"kind", kind, "error", msg}
	if req != nil {
		attrs = append(attrs, "id", req.ID, "currency", req.Currency)
	}
	d.logger.Warn("payment dispatch failed", attrs...)

	result := types.Err(kind, msg, err)
	if opts.OnError != nil {
		opts.OnError(result)
	}
	return result
}

// NormalizeError prefers the error's own message and falls back to its string form
func NormalizeError(err error) string {
	if err == nil {
		return genericFailure
	}
	if msg := strings.TrimSpace(err.Error()); msg != "" {
		return msg
	}
	if msg := strings.TrimSpace(fmt.Sprintf("%+v", err)); msg != "" && msg != "{}" {
		return msg
	}
	return genericFailure
}
