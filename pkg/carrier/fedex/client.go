// Package fedex provides the FedEx carrier adapter. Rating is not implemented
// yet; the adapter satisfies carrier.Carrier so callers need no special case.
package fedex

import (
	"context"

	"github.com/tournevent/ratebridge/pkg/carrier"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

const carrierID = "fedex"

// Config holds FedEx configuration. The fields are accepted so deployments
// can be configured ahead of the integration.
type Config struct {
	ClientID      string
	ClientSecret  string
	AccountNumber string
	BaseURL       string
}

// Client is the FedEx carrier stub.
type Client struct {
	config   Config
	observer carrier.Observer
	logger   *otelzap.Logger
}

// New creates a new FedEx client.
func New(cfg Config, logger *otelzap.Logger) *Client {
	if logger == nil {
		logger = otelzap.New(zap.NewNop())
	}
	return &Client{
		config:   cfg,
		observer: carrier.NopObserver{},
		logger:   logger,
	}
}

// WithObserver sets the observer notified after every rate call.
func (c *Client) WithObserver(o carrier.Observer) *Client {
	if o != nil {
		c.observer = o
	}
	return c
}

// ID returns the carrier identifier.
func (c *Client) ID() string {
	return carrierID
}

// GetRates always fails with CARRIER_ERROR.
func (c *Client) GetRates(ctx context.Context, _ *carrier.RateRequest) ([]carrier.RateQuote, error) {
	err := carrier.NewError(carrier.KindCarrierError, carrierID,
		"FedEx carrier integration is not yet implemented")
	c.logger.Ctx(ctx).Warn("FedEx rating requested",
		zap.String("base_url", c.config.BaseURL),
		zap.Bool("credentials_configured", c.credentialsConfigured()),
		zap.Bool("account_configured", c.config.AccountNumber != ""),
		zap.Error(err),
	)
	c.observer.ObserveRates(carrierID, 0, err, 0)
	return nil, err
}

func (c *Client) credentialsConfigured() bool {
	return c.config.ClientID != "" && c.config.ClientSecret != ""
}

var _ carrier.Carrier = (*Client)(nil)
