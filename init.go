package main

import (
	"context"
	"fmt"

	"github.com/tournevent/ratebridge/internal/config"
	"github.com/tournevent/ratebridge/internal/telemetry"
	"github.com/tournevent/ratebridge/pkg/carrier"
	"github.com/tournevent/ratebridge/pkg/carrier/fedex"
	"github.com/tournevent/ratebridge/pkg/carrier/oauth"
	"github.com/tournevent/ratebridge/pkg/carrier/ups"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

func loadConfig() (*config.Config, error) {
	return config.Load()
}

func initLogger(cfg *config.Config) (*otelzap.Logger, error) {
	return telemetry.NewLogger(cfg.LogLevel, cfg.ServiceName)
}

func initMetrics() *telemetry.Metrics {
	return telemetry.NewMetrics()
}

// initTracer returns a nil tracer when tracing is disabled; carriers fall
// back to a noop tracer.
func initTracer(ctx context.Context, cfg *config.Config) (trace.Tracer, func(context.Context) error, error) {
	if !cfg.OTELEnabled {
		return nil, func(context.Context) error { return nil }, nil
	}
	return telemetry.InitTracer(ctx, cfg.OTELEndpoint, cfg.ServiceName, cfg.Version, cfg.Attributes()...)
}

func initTokenStore(ctx context.Context, cfg *config.Config, logger *otelzap.Logger) (oauth.TokenStore, func(), error) {
	if cfg.TokenStore != config.TokenStoreRedis {
		return oauth.NewMemoryStore(), func() {}, nil
	}

	store, err := oauth.NewRedisStoreFromURL(cfg.RedisURL, "")
	if err != nil {
		return nil, nil, err
	}
	if err := store.Ping(ctx); err != nil {
		store.Close()
		return nil, nil, fmt.Errorf("connecting to token store: %w", err)
	}
	logger.Info("Using Redis credential cache")
	return store, func() { store.Close() }, nil
}

// initCarrierRegistry registers every enabled carrier. metrics may be nil.
func initCarrierRegistry(ctx context.Context, cfg *config.Config, logger *otelzap.Logger, tracer trace.Tracer, metrics *telemetry.Metrics) (*carrier.Registry, func(), error) {
	registry := carrier.NewRegistry()

	store, cleanup, err := initTokenStore(ctx, cfg, logger)
	if err != nil {
		return nil, nil, err
	}

	var observer carrier.Observer = carrier.NopObserver{}
	var onAcquire func(string, error)
	if metrics != nil {
		observer = metrics
		onAcquire = metrics.RecordTokenAcquisition
	}

	// Register enabled carriers
	if cfg.UPSEnabled {
		client := ups.New(ups.Config{
			ClientID:       cfg.UPSClientID,
			ClientSecret:   cfg.UPSClientSecret,
			AccountNumber:  cfg.UPSAccountNumber,
			BaseURL:        cfg.UPSBaseURL,
			MaxRPS:         cfg.UPSMaxRPS,
			UseMock:        cfg.UPSUseMock,
			TokenStore:     store,
			OnTokenAcquire: onAcquire,
		}, logger, tracer).WithObserver(observer)
		if err := registry.Register(client); err != nil {
			cleanup()
			return nil, nil, err
		}
	}

	if cfg.FedExEnabled {
		client := fedex.New(fedex.Config{
			ClientID:      cfg.FedExClientID,
			ClientSecret:  cfg.FedExClientSecret,
			AccountNumber: cfg.FedExAccountNumber,
			BaseURL:       cfg.FedExBaseURL,
		}, logger).WithObserver(observer)
		if err := registry.Register(client); err != nil {
			cleanup()
			return nil, nil, err
		}
	}

	if registry.Count() == 0 {
		logger.Warn("No carriers enabled", zap.String("default_carrier", cfg.DefaultCarrier))
	}
	return registry, cleanup, nil
}
