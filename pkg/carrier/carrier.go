// Package carrier provides an abstraction layer for shipping carriers.
package carrier

import (
	"context"
)

// Carrier defines the contract every shipping carrier adapter must implement.
type Carrier interface {
	// ID returns the carrier identifier (e.g., "ups", "fedex").
	ID() string

	// GetRates returns rate quotes for a shipment. Failures are reported
	// as *CarrierError.
	GetRates(ctx context.Context, req *RateRequest) ([]RateQuote, error)
}

// Observer receives the outcome of every rate call made by an adapter.
// Implementations must be safe for concurrent use.
type Observer interface {
	ObserveRates(carrierID string, quotes int, err error, seconds float64)
}

// NopObserver discards observations.
type NopObserver struct{}

// ObserveRates implements Observer.
func (NopObserver) ObserveRates(string, int, error, float64) {}
