package graphql

import (
	"context"
	"time"

	"github.com/tournevent/ratebridge/internal/telemetry"
	"github.com/tournevent/ratebridge/pkg/carrier"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

// Resolver is the root resolver for the GraphQL schema.
// It holds dependencies needed by all resolvers.
type Resolver struct {
	Registry       *carrier.Registry
	Logger         *otelzap.Logger
	Metrics        *telemetry.Metrics
	DefaultCarrier string
}

// NewResolver creates a new resolver with the given dependencies.
func NewResolver(registry *carrier.Registry, logger *otelzap.Logger, metrics *telemetry.Metrics, defaultCarrier string) *Resolver {
	if logger == nil {
		logger = otelzap.New(zap.NewNop())
	}
	return &Resolver{
		Registry:       registry,
		Logger:         logger,
		Metrics:        metrics,
		DefaultCarrier: defaultCarrier,
	}
}

// Query returns the query resolver.
func (r *Resolver) Query() *queryResolver {
	return &queryResolver{r}
}

type queryResolver struct{ *Resolver }

// Health reports service liveness.
func (r *queryResolver) Health(ctx context.Context) (string, error) {
	return "ok", nil
}

// Carriers lists registered carriers in registration order.
func (r *queryResolver) Carriers(ctx context.Context) ([]*Carrier, error) {
	ids := r.Registry.IDs()
	result := make([]*Carrier, len(ids))
	for i, id := range ids {
		result[i] = &Carrier{ID: id}
	}
	return result, nil
}

// ServiceLevels lists the normalized service levels.
func (r *queryResolver) ServiceLevels(ctx context.Context) ([]string, error) {
	levels := carrier.ServiceLevels()
	result := make([]string, len(levels))
	for i, l := range levels {
		result[i] = string(l)
	}
	return result, nil
}

// Rates fetches quotes from exactly one carrier. Errors are returned as-is;
// use DescribeError to present them.
func (r *queryResolver) Rates(ctx context.Context, input RateInput) (*RatesResult, error) {
	start := time.Now()

	carrierID := input.Carrier
	if carrierID == "" {
		carrierID = r.DefaultCarrier
	}

	quotes, err := r.rates(ctx, input, carrierID)
	r.record(carrierID, err, time.Since(start).Seconds())
	if err != nil {
		info := DescribeError(err)
		r.Logger.Ctx(ctx).Warn("Rate query failed",
			zap.String("carrier", carrierID),
			zap.String("code", info.Code),
			zap.Error(err),
		)
		return nil, err
	}

	return &RatesResult{
		Carrier: carrierID,
		Count:   len(quotes),
		Quotes:  quotesToGraphQL(quotes),
	}, nil
}

func (r *queryResolver) rates(ctx context.Context, input RateInput, carrierID string) ([]carrier.RateQuote, error) {
	if msg := checkShape(input); msg != "" {
		return nil, carrier.NewError(carrier.KindInvalidRequest, carrierID, msg)
	}

	c, err := r.Registry.Get(carrierID)
	if err != nil {
		return nil, err
	}

	quotes, err := c.GetRates(ctx, rateInputToModel(input, carrierID))
	if err != nil {
		return nil, err
	}
	if quotes == nil {
		quotes = []carrier.RateQuote{}
	}
	return quotes, nil
}

func (r *Resolver) record(carrierID string, err error, seconds float64) {
	if r.Metrics == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	r.Metrics.RecordRequest("query_rates", carrierID, status, seconds)
}
