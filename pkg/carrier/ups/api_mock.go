package ups

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/tournevent/ratebridge/pkg/carrier"
)

// MockAPIClient is a mock implementation of APIClient for testing and for
// running the service without UPS credentials.
type MockAPIClient struct {
	SimulateErrors  bool
	SimulateLatency time.Duration

	OnGetRates func(ctx context.Context, req *RateRequest) (*RateResponse, error)

	calls atomic.Int64
}

// NewMockAPIClient creates a new mock API client with default behavior.
func NewMockAPIClient() *MockAPIClient {
	return &MockAPIClient{}
}

// Calls returns how many times GetRates was invoked.
func (m *MockAPIClient) Calls() int {
	return int(m.calls.Load())
}

// GetRates returns mock rated shipments.
func (m *MockAPIClient) GetRates(ctx context.Context, req *RateRequest) (*RateResponse, error) {
	m.calls.Add(1)

	if m.SimulateLatency > 0 {
		time.Sleep(m.SimulateLatency)
	}

	if m.SimulateErrors {
		return nil, carrier.NewError(carrier.KindCarrierError, carrierID, "simulated UPS API error")
	}

	if m.OnGetRates != nil {
		return m.OnGetRates(ctx, req)
	}

	return &RateResponse{
		RateResponse: &RateResponseBody{
			Response: &ResponseStatusWrapper{
				ResponseStatus: CodeDescription{Code: "1", Description: "Success"},
			},
			RatedShipment: RatedShipments{
				{
					Service:            CodeDescription{Code: "03"},
					TotalCharges:       MonetaryValue{CurrencyCode: "USD", MonetaryValue: "12.50"},
					GuaranteedDelivery: &GuaranteedDelivery{BusinessDaysInTransit: "5"},
				},
				{
					Service:            CodeDescription{Code: "02"},
					TotalCharges:       MonetaryValue{CurrencyCode: "USD", MonetaryValue: "24.00"},
					GuaranteedDelivery: &GuaranteedDelivery{BusinessDaysInTransit: "2"},
				},
				{
					Service:      CodeDescription{Code: "01"},
					TotalCharges: MonetaryValue{CurrencyCode: "USD", MonetaryValue: "55.00"},
				},
			},
		},
	}, nil
}

var _ APIClient = (*MockAPIClient)(nil)
