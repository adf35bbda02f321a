// Package sdk is the merchant-facing facade: it owns the in-memory collection of payment
// requests for one merchant configuration and exposes create, lookup, status updates,
// statistics, export, link generation and payment dispatch.
package sdk

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	x402types "github.com/coinbase/x402/go/pkg/types"

	"github.com/MuLx10/morph-payment-sdk/pkg/chains"
	"github.com/MuLx10/morph-payment-sdk/pkg/chains/evm"
	"github.com/MuLx10/morph-payment-sdk/pkg/codec"
	"github.com/MuLx10/morph-payment-sdk/pkg/dispatcher"
	"github.com/MuLx10/morph-payment-sdk/pkg/metrics"
	"github.com/MuLx10/morph-payment-sdk/pkg/payment"
	"github.com/MuLx10/morph-payment-sdk/pkg/types"
	"github.com/MuLx10/morph-payment-sdk/pkg/utils"
	"github.com/MuLx10/morph-payment-sdk/pkg/x402"
)

var (
	ErrPaymentNotFound   = errors.New("payment request not found")
	ErrPaymentInProgress = errors.New("payment is already being processed")
	ErrUnsupportedFormat = errors.New("unsupported export format")
)

const FieldExpiresIn = "expiresIn"

// CreatePaymentOptions describes a new payment request
type CreatePaymentOptions struct {
	Amount      string
	Currency    types.Currency
	Description *string
	// ExpiresIn overrides the configured horizon when positive
	ExpiresIn time.Duration
	Metadata  map[string]any
}

// ValidationResult is the outcome of ValidatePaymentRequest
type ValidationResult struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors"`
}

type SDK struct {
	cfg        Config
	network    *chains.Network
	validator  *payment.Validator
	registry   *chains.Registry
	dispatcher *dispatcher.Dispatcher

	// most recent first
	requests   []*types.PaymentRequest
	byID       map[string]*types.PaymentRequest
	processing map[string]struct{}
	mu         sync.RWMutex

	logger  *slog.Logger
	metrics metrics.Recorder
	now     func() time.Time
}

type Option func(*SDK)

func WithLogger(l *slog.Logger) Option {
	return func(s *SDK) {
		s.logger = l
	}
}

func WithMetrics(r metrics.Recorder) Option {
	return func(s *SDK) {
		s.metrics = r
	}
}

func WithDispatcher(d *dispatcher.Dispatcher) Option {
	return func(s *SDK) {
		s.dispatcher = d
	}
}

func WithRegistry(r *chains.Registry) Option {
	return func(s *SDK) {
		s.registry = r
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *SDK) {
		s.now = now
	}
}

// New creates an SDK for cfg. Unset config fields take their defaults: USDT, USDC and ETH
// supported, morph-holesky, light theme, standalone mode, USDT for fiat-proxy requests and
// a 24 hour expiry.
func New(cfg Config, opts ...Option) (*SDK, error) {
	s := &SDK{
		byID:       make(map[string]*types.PaymentRequest),
		processing: make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.metrics == nil {
		s.metrics = metrics.NoopRecorder{}
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.registry == nil {
		s.registry = chains.DefaultRegistry()
	}
	if s.dispatcher == nil {
		s.dispatcher = dispatcher.New(
			dispatcher.WithLogger(s.logger),
			dispatcher.WithMetrics(s.metrics),
			dispatcher.WithClock(s.now),
		)
	}

	if err := s.setConfig(cfg.withDefaults()); err != nil {
		return nil, err
	}
	return s, nil
}

// setConfig validates cfg and swaps it in together with its network and validator
func (s *SDK) setConfig(cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	network, err := s.registry.Get(cfg.Network)
	if err != nil {
		return &evm.UnsupportedNetworkError{Network: cfg.Network}
	}
	s.cfg = cfg
	s.network = network
	s.validator = payment.NewValidator(cfg.SupportedCurrencies)
	return nil
}

// GetConfig returns a copy of the current configuration
func (s *SDK) GetConfig() Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg.clone()
}

// UpdateConfig merges patch into the configuration. The update is rejected as a whole
// when the merged configuration is invalid.
func (s *SDK) UpdateConfig(patch ConfigPatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.setConfig(s.cfg.apply(patch))
}

// Network returns the network payments are dispatched on
func (s *SDK) Network() *chains.Network {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.network
}

// CreatePayment validates opts and stores a new pending request at the head of the collection.
// Validation failures are returned as types.ValidationErrors.
func (s *SDK) CreatePayment(opts CreatePaymentOptions) (*types.PaymentRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	errs := s.validator.ValidateNew(s.cfg.MerchantAddress, opts.Amount, opts.Currency)
	if opts.ExpiresIn < 0 {
		errs = append(errs, types.FieldError{Field: FieldExpiresIn, Message: "Invalid expiry"})
	}
	if len(errs) > 0 {
		return nil, errs
	}

	expiresIn := opts.ExpiresIn
	if expiresIn == 0 {
		expiresIn = s.cfg.ExpiresIn
	}

	now := s.now()
	id := utils.NewPaymentID(now)
	for _, taken := s.byID[id]; taken; _, taken = s.byID[id] {
		id = utils.NewPaymentID(now)
	}

	var description *string
	if opts.Description != nil {
		description = types.StringPtr(*opts.Description)
	}

	p := &types.PaymentRequest{
		ID:              id,
		MerchantAddress: s.cfg.MerchantAddress,
		Amount:          opts.Amount,
		Currency:        opts.Currency,
		Description:     description,
		Status:          types.StatusPending,
		CreatedAt:       now,
		ExpiresAt:       now.Add(expiresIn),
	}
	if opts.Metadata != nil {
		p.Metadata = make(map[string]any, len(opts.Metadata))
		for k, v := range opts.Metadata {
			p.Metadata[k] = v
		}
	}

	s.requests = append([]*types.PaymentRequest{p}, s.requests...)
	s.byID[id] = p

	s.metrics.IncCounter(metrics.EventPaymentCreated, s.labels())
	s.logger.Info("payment request created",
		"id", id,
		"amount", p.Amount,
		"currency", p.Currency,
		"expires_at", p.ExpiresAt)

	return p.Clone(), nil
}

// expireDue transitions every pending request past its horizon to expired
func (s *SDK) expireDue() {
	now := s.now()

	s.mu.RLock()
	due := false
	for _, p := range s.requests {
		if p.Status == types.StatusPending && payment.IsExpired(p, now) {
			due = true
			break
		}
	}
	s.mu.RUnlock()
	if !due {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.requests {
		if _, busy := s.processing[p.ID]; busy {
			continue
		}
		if payment.ExpireIfDue(p, now) {
			s.metrics.IncCounter(metrics.EventPaymentExpired, s.labels())
			s.logger.Debug("payment request expired", "id", p.ID)
		}
	}
}

// GetPaymentRequests returns copies of every request, most recent first
func (s *SDK) GetPaymentRequests() []*types.PaymentRequest {
	s.expireDue()

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*types.PaymentRequest, len(s.requests))
	for i, p := range s.requests {
		out[i] = p.Clone()
	}
	return out
}

// GetPaymentRequest returns a copy of the request with the given id
func (s *SDK) GetPaymentRequest(id string) (*types.PaymentRequest, bool) {
	s.expireDue()

	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.byID[id]
	if !ok {
		return nil, false
	}
	return p.Clone(), true
}

// UpdatePaymentStatus applies a status transition and reports whether the id exists.
// Transitions the lifecycle does not allow are ignored.
func (s *SDK) UpdatePaymentStatus(id string, status types.Status, txHash *string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.byID[id]
	if !ok {
		return false
	}

	now := s.now()
	if _, busy := s.processing[id]; !busy && payment.ExpireIfDue(p, now) {
		s.metrics.IncCounter(metrics.EventPaymentExpired, s.labels())
	}
	if !payment.Transition(p, status, txHash, now) {
		s.logger.Debug("status update ignored", "id", id, "from", p.Status, "to", status)
	}
	return true
}

// GetPaymentStats aggregates the collection. TotalAmount only counts completed requests.
func (s *SDK) GetPaymentStats() types.PaymentStats {
	s.expireDue()

	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := types.PaymentStats{Total: len(s.requests)}
	for _, p := range s.requests {
		switch p.Status {
		case types.StatusCompleted:
			stats.Completed++
			if amount, err := utils.ParseAmount(p.Amount, utils.DecimalsFor(p.Currency)); err == nil {
				stats.TotalAmount = stats.TotalAmount.Add(amount)
			}
		case types.StatusPending:
			stats.Pending++
		}
	}
	if stats.Total > 0 {
		stats.SuccessRate = float64(stats.Completed) / float64(stats.Total) * 100
	}
	return stats
}

// ValidatePaymentRequest checks an arbitrary request against the current configuration
func (s *SDK) ValidatePaymentRequest(p *types.PaymentRequest) ValidationResult {
	if p == nil {
		return ValidationResult{Errors: []string{"Payment request is missing"}}
	}

	s.mu.RLock()
	errs := s.validator.ValidateRequest(p, s.now())
	s.mu.RUnlock()

	return ValidationResult{
		Valid:  len(errs) == 0,
		Errors: append([]string{}, errs.Messages()...),
	}
}

// GenerateQRData returns the scannable payload text for p
func (s *SDK) GenerateQRData(p *types.PaymentRequest) (string, error) {
	payload, err := s.payload(p)
	if err != nil {
		return "", err
	}
	return codec.EncodeQR(payload)
}

// GeneratePaymentLink returns the shareable link for p under baseURL
func (s *SDK) GeneratePaymentLink(p *types.PaymentRequest, baseURL string) (string, error) {
	payload, err := s.payload(p)
	if err != nil {
		return "", err
	}
	return codec.EncodeLink(baseURL, payload)
}

func (s *SDK) payload(p *types.PaymentRequest) (types.Payload, error) {
	s.mu.RLock()
	stable := s.cfg.DefaultStable
	s.mu.RUnlock()
	return codec.NewPayload(p, stable, s.now())
}

// PaymentRequirements exposes the stored request id as x402 exact-scheme requirements for resource
func (s *SDK) PaymentRequirements(id, resource string) (*x402types.PaymentRequirements, error) {
	p, ok := s.GetPaymentRequest(id)
	if !ok {
		return nil, ErrPaymentNotFound
	}

	s.mu.RLock()
	network := s.network
	stable := s.cfg.DefaultStable
	s.mu.RUnlock()

	return x402.ToPaymentRequirements(p, network, stable, resource, s.now())
}

// ExplorerURL links a transaction hash to the configured network's explorer
func (s *SDK) ExplorerURL(txHash string) string {
	return s.Network().ExplorerTxURL(txHash)
}

// IsProcessing reports whether a Pay call for id is in flight
func (s *SDK) IsProcessing(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, busy := s.processing[id]
	return busy
}

// Pay dispatches the stored request id through signer. A second Pay for the same id while
// the first is in flight fails with ErrPaymentInProgress. The stored record is updated
// before the callbacks run.
func (s *SDK) Pay(ctx context.Context, id string, signer chains.Signer, onSuccess func(*types.PaymentRequest), onError func(types.Result)) types.Result {
	s.expireDue()

	s.mu.Lock()
	stored, ok := s.byID[id]
	if !ok {
		s.mu.Unlock()
		return notify(types.Err(types.KindNotFound, ErrPaymentNotFound.Error(), ErrPaymentNotFound), onSuccess, onError)
	}
	if _, busy := s.processing[id]; busy {
		s.mu.Unlock()
		return notify(types.Err(types.KindDispatch, ErrPaymentInProgress.Error(), ErrPaymentInProgress), onSuccess, onError)
	}
	s.processing[id] = struct{}{}
	working := stored.Clone()
	network := s.network
	stable := s.cfg.DefaultStable
	s.mu.Unlock()

	result := s.dispatcher.Dispatch(ctx, working, dispatcher.DispatchOptions{
		Signer:         signer,
		Network:        network,
		SelectedStable: stable,
	})

	s.mu.Lock()
	delete(s.processing, id)
	if result.IsOk() {
		completedAt := s.now()
		if working.CompletedAt != nil {
			completedAt = *working.CompletedAt
		}
		if !payment.Transition(stored, types.StatusCompleted, working.TxHash, completedAt) {
			hash := ""
			if working.TxHash != nil {
				hash = *working.TxHash
			}
			s.logger.Warn("submitted payment could not be marked completed",
				"id", id,
				"status", stored.Status,
				"tx_hash", hash)
		}
		result.Payment = stored.Clone()
	}
	s.mu.Unlock()

	return notify(result, onSuccess, onError)
}

// PayLink dispatches a decoded link payload directly, without storing it
func (s *SDK) PayLink(ctx context.Context, payload types.Payload, signer chains.Signer, onSuccess func(*types.PaymentRequest), onError func(types.Result)) types.Result {
	s.mu.RLock()
	network := s.network
	stable := s.cfg.DefaultStable
	expiresIn := s.cfg.ExpiresIn
	s.mu.RUnlock()

	req := codec.ToPaymentRequest(payload, expiresIn)
	return s.dispatcher.Dispatch(ctx, req, dispatcher.DispatchOptions{
		Signer:         signer,
		Network:        network,
		SelectedStable: stable,
		OnSuccess:      onSuccess,
		OnError:        onError,
	})
}

func notify(result types.Result, onSuccess func(*types.PaymentRequest), onError func(types.Result)) types.Result {
	if result.IsOk() {
		if onSuccess != nil {
			onSuccess(result.Payment)
		}
		return result
	}
	if onError != nil {
		onError(result)
	}
	return result
}

func (s *SDK) labels() map[string]string {
	return map[string]string{"network": s.cfg.Network}
}
