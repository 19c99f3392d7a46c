// Package mock provides a mock carrier implementation for testing.
package mock

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/tournevent/ratebridge/pkg/carrier"
)

// Client is a mock carrier for testing.
type Client struct {
	id    string
	calls atomic.Int64

	// OnGetRates overrides the default quotes when set.
	OnGetRates func(ctx context.Context, req *carrier.RateRequest) ([]carrier.RateQuote, error)
}

// New creates a new mock carrier.
func New(id string) *Client {
	return &Client{id: id}
}

// ID returns the carrier identifier.
func (c *Client) ID() string {
	return c.id
}

// Calls returns how many times GetRates was invoked.
func (c *Client) Calls() int {
	return int(c.calls.Load())
}

// GetRates returns mock rate quotes.
func (c *Client) GetRates(ctx context.Context, req *carrier.RateRequest) ([]carrier.RateQuote, error) {
	c.calls.Add(1)
	if c.OnGetRates != nil {
		return c.OnGetRates(ctx, req)
	}

	return []carrier.RateQuote{
		{
			Carrier:            c.id,
			ServiceLevel:       carrier.ServiceGround,
			ServiceName:        fmt.Sprintf("%s Ground", c.id),
			Price:              15.82,
			Currency:           "USD",
			EstimatedDays:      5,
			GuaranteedDelivery: true,
		},
		{
			Carrier:            c.id,
			ServiceLevel:       carrier.ServiceExpress,
			ServiceName:        fmt.Sprintf("%s Express", c.id),
			Price:              29.95,
			Currency:           "USD",
			EstimatedDays:      carrier.UnknownTransitDays,
			GuaranteedDelivery: false,
		},
	}, nil
}

var _ carrier.Carrier = (*Client)(nil)
