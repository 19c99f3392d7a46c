package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/tournevent/ratebridge/internal/graphql"
	"github.com/tournevent/ratebridge/internal/telemetry"
	"github.com/tournevent/ratebridge/pkg/carrier"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

const (
	serviceName     = "ratebridge"
	maxRequestBytes = 1 << 20
	requestIDHeader = "X-Request-ID"
)

// Server is the HTTP server for the rate service.
type Server struct {
	port     int
	registry *carrier.Registry
	logger   *otelzap.Logger
	metrics  *telemetry.Metrics
	gatherer prometheus.Gatherer
	resolver *graphql.Resolver
}

// Config holds server configuration.
type Config struct {
	Port           int
	DefaultCarrier string

	// Metrics defaults to metrics on the default prometheus registry.
	Metrics  *telemetry.Metrics
	Gatherer prometheus.Gatherer
}

// New creates a new server instance.
func New(cfg Config, registry *carrier.Registry, logger *otelzap.Logger) *Server {
	if logger == nil {
		logger = otelzap.New(zap.NewNop())
	}
	metrics := cfg.Metrics
	if metrics == nil {
		metrics = telemetry.NewMetrics()
	}
	gatherer := cfg.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	defaultCarrier := cfg.DefaultCarrier
	if defaultCarrier == "" {
		defaultCarrier = "ups"
	}

	return &Server{
		port:     cfg.Port,
		registry: registry,
		logger:   logger,
		metrics:  metrics,
		gatherer: gatherer,
		resolver: graphql.NewResolver(registry, logger, metrics, defaultCarrier),
	}
}

// Handler returns the HTTP handler serving every route.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("/health", s.handleHealth)

	// Prometheus metrics
	mux.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))

	// REST rate endpoint
	mux.HandleFunc("/api/v1/rates", s.handleRates)

	// GraphQL endpoint
	mux.HandleFunc("/graphql", s.handleGraphQL)

	return s.withRequestID(mux)
}

// Run starts the HTTP server and blocks until context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.port),
		Handler:      s.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
	}

	// Start server in goroutine
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Starting server", zap.Int("port", s.port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// Wait for context cancellation or error
	select {
	case <-ctx.Done():
		s.logger.Info("Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

func (s *Server) withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.New().String()
		}
		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "service": serviceName})
}

// REST response types
type ratesResponse struct {
	Success bool                 `json:"success"`
	Carrier string               `json:"carrier"`
	Count   int                  `json:"count"`
	Quotes  []*graphql.RateQuote `json:"quotes"`
}

type errorResponse struct {
	Success bool              `json:"success"`
	Error   graphql.ErrorInfo `json:"error"`
}

func (s *Server) handleRates(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeError(w, graphql.ErrorInfo{
			Status:  http.StatusMethodNotAllowed,
			Code:    string(carrier.KindInvalidRequest),
			Message: "method not allowed, use POST",
		})
		return
	}

	ctx := r.Context()
	logger := s.logger.Ctx(ctx).WithOptions(zap.Fields(zap.String("request_id", w.Header().Get(requestIDHeader))))

	var input graphql.RateInput
	if err := decodeBody(r, &input); err != nil {
		writeError(w, graphql.ErrorInfo{
			Status:  http.StatusBadRequest,
			Code:    string(carrier.KindInvalidRequest),
			Message: err.Error(),
		})
		return
	}

	result, err := s.resolver.Query().Rates(ctx, input)
	if err != nil {
		info := graphql.DescribeError(err)
		logger.Info("Rate request failed",
			zap.Int("status", info.Status),
			zap.String("code", info.Code),
		)
		writeError(w, info)
		return
	}

	writeJSON(w, http.StatusOK, ratesResponse{
		Success: true,
		Carrier: result.Carrier,
		Count:   result.Count,
		Quotes:  result.Quotes,
	})
}

func (s *Server) handleGraphQL(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeJSON(w, http.StatusMethodNotAllowed, graphql.Response{
			Errors: []*graphql.Error{{Message: "Method not allowed, use POST"}},
		})
		return
	}

	var req graphql.Request
	if err := decodeBody(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, graphql.Response{
			Errors: []*graphql.Error{{Message: err.Error()}},
		})
		return
	}

	writeJSON(w, http.StatusOK, s.resolver.Execute(r.Context(), req))
}

func decodeBody(r *http.Request, out any) error {
	body := io.LimitReader(r.Body, maxRequestBytes)
	if err := json.NewDecoder(body).Decode(out); err != nil {
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	return nil
}

func writeError(w http.ResponseWriter, info graphql.ErrorInfo) {
	writeJSON(w, info.Status, errorResponse{Success: false, Error: info})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
