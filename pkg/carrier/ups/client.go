// Package ups provides integration with the UPS Rating API.
package ups

import (
	"context"
	"time"

	"github.com/tournevent/ratebridge/pkg/carrier"
	"github.com/tournevent/ratebridge/pkg/carrier/oauth"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"
)

// Config holds UPS configuration.
type Config struct {
	ClientID      string
	ClientSecret  string
	AccountNumber string
	BaseURL       string
	Timeout       time.Duration
	MaxRPS        float64 // Local request budget; 0 disables it
	UseMock       bool    // When true, uses mock API client

	// TokenStore defaults to an in-memory store.
	TokenStore oauth.TokenStore
	// OnTokenAcquire is called after every credential acquisition attempt.
	OnTokenAcquire func(carrierID string, err error)
}

// Client is the UPS carrier adapter.
// It implements the carrier.Carrier interface: it validates the request,
// maps it to the wire format, delegates the call to the underlying
// APIClient (mock or HTTP) and maps the response back.
type Client struct {
	config      Config
	apiClient   APIClient
	credentials *oauth.Manager
	mapper      Mapper
	validator   Validator
	observer    carrier.Observer
	logger      *otelzap.Logger
	tracer      trace.Tracer
}

// New creates a new UPS client.
// If cfg.UseMock is true, it uses a mock API client for testing.
// Otherwise, it uses the real HTTP API client backed by an OAuth
// credential manager.
func New(cfg Config, logger *otelzap.Logger, tracer trace.Tracer) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}

	if cfg.UseMock {
		return NewWithAPIClient(cfg, NewMockAPIClient(), logger, tracer)
	}

	opts := []oauth.Option{oauth.WithLogger(logger)}
	if cfg.TokenStore != nil {
		opts = append(opts, oauth.WithStore(cfg.TokenStore))
	}
	if cfg.OnTokenAcquire != nil {
		opts = append(opts, oauth.WithAcquireHook(cfg.OnTokenAcquire))
	}
	credentials := oauth.NewManager(oauth.Config{
		Carrier:      carrierID,
		BaseURL:      cfg.BaseURL,
		TokenPath:    tokenPath,
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
	}, opts...)

	apiClient := NewHTTPAPIClient(HTTPAPIClientConfig{
		BaseURL: cfg.BaseURL,
		Tokens:  credentials,
		Timeout: cfg.Timeout,
		MaxRPS:  cfg.MaxRPS,
		Tracer:  tracer,
	})

	c := NewWithAPIClient(cfg, apiClient, logger, tracer)
	c.credentials = credentials
	return c
}

// NewWithAPIClient creates a new UPS client with a custom API client.
// This is useful for injecting mock clients in tests.
func NewWithAPIClient(cfg Config, apiClient APIClient, logger *otelzap.Logger, tracer trace.Tracer) *Client {
	if logger == nil {
		logger = otelzap.New(zap.NewNop())
	}
	if tracer == nil {
		tracer = noop.NewTracerProvider().Tracer(carrierID)
	}
	return &Client{
		config:    cfg,
		apiClient: apiClient,
		mapper:    Mapper{ShipperNumber: cfg.AccountNumber},
		observer:  carrier.NopObserver{},
		logger:    logger,
		tracer:    tracer,
	}
}

// WithObserver sets the observer notified after every rate call.
func (c *Client) WithObserver(o carrier.Observer) *Client {
	if o != nil {
		c.observer = o
	}
	return c
}

// Credentials returns the credential manager, or nil when the client was
// built around a custom API client.
func (c *Client) Credentials() *oauth.Manager {
	return c.credentials
}

// ID returns the carrier identifier.
func (c *Client) ID() string {
	return carrierID
}

// GetRates returns rate quotes from UPS.
func (c *Client) GetRates(ctx context.Context, req *carrier.RateRequest) ([]carrier.RateQuote, error) {
	ctx, span := c.tracer.Start(ctx, "ups.Rate")
	defer span.End()

	start := time.Now()
	quotes, err := c.getRates(ctx, req)
	c.observer.ObserveRates(carrierID, len(quotes), err, time.Since(start).Seconds())
	if err != nil {
		span.SetAttributes(attribute.String("carrier.error_kind", string(carrier.KindOf(err))))
		return nil, err
	}
	span.SetAttributes(attribute.Int("carrier.quotes", len(quotes)))
	return quotes, nil
}

func (c *Client) getRates(ctx context.Context, req *carrier.RateRequest) ([]carrier.RateQuote, error) {
	if err := c.validator.Validate(req); err != nil {
		c.logger.Ctx(ctx).Warn("UPS rate request rejected", zap.Error(err))
		return nil, err
	}

	c.logger.Ctx(ctx).Info("Getting UPS rates",
		zap.String("origin_postal", req.Origin.PostalCode),
		zap.String("destination_postal", req.Destination.PostalCode),
		zap.Float64("weight_lbs", req.Package.WeightLbs),
	)

	// Convert to API request
	apiReq := c.mapper.ToRateRequest(req)

	// Call API
	apiResp, err := c.apiClient.GetRates(ctx, apiReq)
	if err != nil {
		ce := carrier.AsCarrierError(err, carrierID)
		c.logger.Ctx(ctx).Error("UPS API error",
			zap.String("kind", string(ce.Kind)),
			zap.Bool("retryable", ce.Kind.Retryable()),
			zap.Error(err),
		)
		return nil, ce
	}

	if apiResp == nil || apiResp.RateResponse == nil || len(apiResp.RateResponse.RatedShipment) == 0 {
		err := carrier.NewError(carrier.KindMalformedResponse, carrierID,
			"UPS returned no rate quotes for the given shipment")
		c.logger.Ctx(ctx).Error("UPS response has no rated shipments", zap.Error(err))
		return nil, err
	}

	// Convert to carrier quotes
	quotes, err := c.mapper.FromRateResponse(apiResp)
	if err != nil {
		c.logger.Ctx(ctx).Error("UPS response mapping failed", zap.Error(err))
		return nil, carrier.AsCarrierError(err, carrierID)
	}
	return quotes, nil
}

var _ carrier.Carrier = (*Client)(nil)
