package ups

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tournevent/ratebridge/pkg/carrier"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"golang.org/x/time/rate"
)

// TokenSource supplies bearer credentials to the HTTP client.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// HTTPError records a non-success HTTP response. It is kept as the cause of
// classified errors.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("HTTP %d", e.StatusCode)
	}
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Body)
}

// HTTPAPIClient is the production implementation of APIClient using HTTP.
type HTTPAPIClient struct {
	baseURL    string
	tokens     TokenSource
	httpClient *http.Client
	limiter    *rate.Limiter
	tracer     trace.Tracer
}

// HTTPAPIClientConfig holds configuration for the HTTP client.
type HTTPAPIClientConfig struct {
	BaseURL    string
	Tokens     TokenSource
	Timeout    time.Duration
	HTTPClient *http.Client // Overrides Timeout when set
	MaxRPS     float64      // Local request budget; 0 disables it
	Tracer     trace.Tracer
}

// NewHTTPAPIClient creates a new HTTP-based API client for production use.
func NewHTTPAPIClient(cfg HTTPAPIClientConfig) *HTTPAPIClient {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}

	var limiter *rate.Limiter
	if cfg.MaxRPS > 0 {
		burst := int(cfg.MaxRPS)
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.MaxRPS), burst)
	}

	tracer := cfg.Tracer
	if tracer == nil {
		tracer = noop.NewTracerProvider().Tracer("ups")
	}

	return &HTTPAPIClient{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		tokens:     cfg.Tokens,
		httpClient: httpClient,
		limiter:    limiter,
		tracer:     tracer,
	}
}

// GetRates posts a rate-shop request to the UPS Rating API. Every failure is
// returned as a *carrier.CarrierError.
func (c *HTTPAPIClient) GetRates(ctx context.Context, req *RateRequest) (*RateResponse, error) {
	ctx, span := c.tracer.Start(ctx, "ups.GetRates", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	resp, err := c.getRates(ctx, req, span)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(carrier.KindOf(err)))
		return nil, err
	}
	return resp, nil
}

func (c *HTTPAPIClient) getRates(ctx context.Context, req *RateRequest, span trace.Span) (*RateResponse, error) {
	if c.limiter != nil && !c.limiter.Allow() {
		return nil, carrier.NewError(carrier.KindRateLimit, carrierID, "UPS local request budget exhausted")
	}

	token, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, err
	}

	transID := uuid.New().String()
	span.SetAttributes(attribute.String("ups.trans_id", transID))

	resp, err := c.doRequest(ctx, http.MethodPost, ratesPath, token, transID, req)
	if err != nil {
		var ce *carrier.CarrierError
		if errors.As(err, &ce) {
			return nil, ce
		}
		// No response was received at all.
		return nil, carrier.Errorf(carrier.KindNetworkTimeout, carrierID, "UPS network error: %v", err).WithCause(err)
	}
	defer resp.Body.Close()

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, carrier.Errorf(carrier.KindNetworkTimeout, carrierID, "UPS network error: %v", err).WithCause(err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, classifyStatus(resp.StatusCode, body)
	}

	var result RateResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, carrier.NewError(carrier.KindMalformedResponse, carrierID,
			"UPS returned an undecodable rate response").WithCause(err)
	}
	return &result, nil
}

// classifyStatus maps a non-success status to the error taxonomy.
func classifyStatus(status int, body []byte) *carrier.CarrierError {
	httpErr := &HTTPError{StatusCode: status, Body: strings.TrimSpace(string(body))}

	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return carrier.Errorf(carrier.KindAuthFailure, carrierID, "UPS auth error: %s", describe(httpErr)).WithCause(httpErr)
	case status == http.StatusTooManyRequests:
		return carrier.NewError(carrier.KindRateLimit, carrierID, "UPS rate limit exceeded").WithCause(httpErr)
	default:
		return carrier.Errorf(carrier.KindCarrierError, carrierID, "UPS API error (%d): %s", status, describe(httpErr)).WithCause(httpErr)
	}
}

func describe(e *HTTPError) string {
	if e.Body != "" {
		return e.Body
	}
	return http.StatusText(e.StatusCode)
}

// doRequest performs an HTTP request with proper headers and authentication.
func (c *HTTPAPIClient) doRequest(ctx context.Context, method, path, token, transID string, body interface{}) (*http.Response, error) {
	url := c.baseURL + path

	var bodyReader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, carrier.NewError(carrier.KindInvalidRequest, carrierID,
				"failed to encode UPS rate request").WithCause(err)
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return nil, carrier.NewError(carrier.KindInvalidRequest, carrierID,
			"failed to create UPS request").WithCause(err)
	}

	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("transId", transID)
	req.Header.Set("transactionSrc", transactionSource)

	return c.httpClient.Do(req)
}

// Ensure HTTPAPIClient implements APIClient interface
var _ APIClient = (*HTTPAPIClient)(nil)
