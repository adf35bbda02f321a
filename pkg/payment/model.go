// Package payment holds the payment request lifecycle: the state machine and
// the validation performed before a request is accepted.
package payment

import (
	"time"

	"github.com/MuLx10/morph-payment-sdk/pkg/types"
)

// Transition moves p to the target status if the lifecycle allows it and reports whether
// anything changed. Only pending requests move; anything else is a silent no-op.
// Completion requires a transaction hash and stamps CompletedAt.
func Transition(p *types.PaymentRequest, to types.Status, txHash *string, now time.Time) bool {
	if p == nil || p.Status != types.StatusPending {
		return false
	}

	switch to {
	case types.StatusCompleted:
		if txHash == nil || *txHash == "" {
			return false
		}
		hash := *txHash
		completedAt := now
		p.Status = types.StatusCompleted
		p.TxHash = &hash
		p.CompletedAt = &completedAt
		return true
	case types.StatusExpired, types.StatusCancelled:
		p.Status = to
		return true
	default:
		return false
	}
}

// Complete marks p completed with the given transaction hash
func Complete(p *types.PaymentRequest, txHash string, now time.Time) bool {
	return Transition(p, types.StatusCompleted, &txHash, now)
}

// Cancel marks p cancelled
func Cancel(p *types.PaymentRequest, now time.Time) bool {
	return Transition(p, types.StatusCancelled, nil, now)
}

// IsExpired reports whether p is past its expiry horizon
func IsExpired(p *types.PaymentRequest, now time.Time) bool {
	return !p.ExpiresAt.IsZero() && now.After(p.ExpiresAt)
}

// EffectiveStatus is the status p should be read as at now: a pending request past
// its expiry reads as expired even if the stored status has not been updated yet.
func EffectiveStatus(p *types.PaymentRequest, now time.Time) types.Status {
	if p.Status == types.StatusPending && IsExpired(p, now) {
		return types.StatusExpired
	}
	return p.Status
}

// ExpireIfDue stores the expired status on a pending request whose horizon has passed
func ExpireIfDue(p *types.PaymentRequest, now time.Time) bool {
	if p.Status != types.StatusPending || !IsExpired(p, now) {
		return false
	}
	return Transition(p, types.StatusExpired, nil, now)
}
