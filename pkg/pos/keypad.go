// Package pos holds the point-of-sale amount entry used before a payment request is created
package pos

import (
	"strings"
	"sync"
)

const (
	KeyDecimal = "."
	KeyClear   = "C"
)

// Keys lists the keypad in display order
var Keys = []string{"1", "2", "3", "4", "5", "6", "7", "8", "9", "0", KeyDecimal, KeyClear}

// Keypad accumulates an amount string one key at a time.
// The result is always plain decimal notation, so it can be handed to CreatePayment as is.
type Keypad struct {
	mu            sync.Mutex
	amount        string
	maxFractional int
}

// NewKeypad returns an empty keypad. maxFractional caps digits after the decimal point;
// zero or less means no cap.
func NewKeypad(maxFractional int) *Keypad {
	return &Keypad{maxFractional: maxFractional}
}

// Press applies one key and reports whether it changed the amount.
// A second decimal point, digits past the fractional cap and unknown keys are ignored.
func (k *Keypad) Press(key string) bool {
	k.mu.Lock()
	defer k.mu.Unlock()

	switch {
	case key == KeyClear:
		changed := k.amount != ""
		k.amount = ""
		return changed
	case key == KeyDecimal:
		if strings.Contains(k.amount, KeyDecimal) {
			return false
		}
		if k.amount == "" {
			k.amount = "0"
		}
		k.amount += KeyDecimal
		return true
	case len(key) == 1 && key[0] >= '0' && key[0] <= '9':
		if _, frac, ok := strings.Cut(k.amount, KeyDecimal); ok && k.maxFractional > 0 && len(frac) >= k.maxFractional {
			return false
		}
		if k.amount == "0" {
			k.amount = key
			return true
		}
		k.amount += key
		return true
	}
	return false
}

// Amount returns the entered amount. A trailing decimal point is dropped.
func (k *Keypad) Amount() string {
	k.mu.Lock()
	defer k.mu.Unlock()
	return strings.TrimSuffix(k.amount, KeyDecimal)
}

// Display returns the amount exactly as typed
func (k *Keypad) Display() string {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.amount
}

// Set replaces the amount, as when the merchant types into a free-form field.
// Anything that is not plain decimal notation is rejected.
func (k *Keypad) Set(amount string) bool {
	fresh := NewKeypad(k.maxFractional)
	for _, r := range amount {
		if !fresh.Press(string(r)) || string(r) == KeyClear {
			return false
		}
	}

	k.mu.Lock()
	defer k.mu.Unlock()
	k.amount = fresh.amount
	return true
}
