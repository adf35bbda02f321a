// Package metrics records payment events and latencies
package metrics

import "time"

// Event names recorded by the dispatcher and the SDK
const (
	EventPaymentCreated              = "payment_created"
	EventPaymentExpired              = "payment_expired"
	EventDispatchSuccess             = "dispatch_success"
	EventDispatchError               = "dispatch_error"
	EventDispatchUnsupportedCurrency = "dispatch_unsupported_currency"

	OperationSendTransaction = "send_transaction"
)

type Recorder interface {
	IncCounter(name string, labels map[string]string)
	ObserveLatency(name string, duration time.Duration, labels map[string]string)
}
