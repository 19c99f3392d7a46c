// Package oauth manages bearer credentials obtained through the OAuth 2.0
// client-credentials grant. A Manager serves one carrier and caches the
// credential until shortly before the provider-declared expiry.
package oauth

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/tournevent/ratebridge/pkg/carrier"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// SafetyMargin is subtracted from the provider-declared lifetime when a
// credential is acquired.
const SafetyMargin = 60 * time.Second

// Config holds the client identity used against a token endpoint.
type Config struct {
	Carrier      string // Owning carrier identifier, e.g. "ups"
	BaseURL      string
	TokenPath    string
	ClientID     string
	ClientSecret string
	MerchantID   string // Sent as x-merchant-id; defaults to ClientID
	HTTPClient   *http.Client
}

// TokenResponse is the token endpoint payload.
type TokenResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type,omitempty"`
	ExpiresIn   ExpiresIn `json:"expires_in"`
	IssuedAt    string    `json:"issued_at,omitempty"`
	ClientID    string    `json:"client_id,omitempty"`
	Scope       string    `json:"scope,omitempty"`
}

// ExpiresIn is a lifetime in seconds. Providers send it either as a JSON
// string or as a number.
type ExpiresIn int64

// UnmarshalJSON accepts "3600" and 3600.
func (e *ExpiresIn) UnmarshalJSON(data []byte) error {
	raw := strings.Trim(string(data), `"`)
	if raw == "" || raw == "null" {
		return fmt.Errorf("expires_in is empty")
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return fmt.Errorf("expires_in %q: %w", raw, err)
	}
	*e = ExpiresIn(n)
	return nil
}

// Manager produces bearer credentials for one carrier.
type Manager struct {
	cfg        Config
	httpClient *http.Client
	store      TokenStore
	now        func() time.Time
	logger     *otelzap.Logger
	onAcquire  func(carrierID string, err error)
	group      singleflight.Group
}

// Option configures a Manager.
type Option func(*Manager)

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// WithStore replaces the in-process token cache.
func WithStore(store TokenStore) Option {
	return func(m *Manager) { m.store = store }
}

// WithLogger sets the logger.
func WithLogger(logger *otelzap.Logger) Option {
	return func(m *Manager) { m.logger = logger }
}

// WithAcquireHook registers a callback invoked after every acquisition attempt.
func WithAcquireHook(fn func(carrierID string, err error)) Option {
	return func(m *Manager) { m.onAcquire = fn }
}

// NewManager creates a credential manager.
func NewManager(cfg Config, opts ...Option) *Manager {
	m := &Manager{
		cfg:        cfg,
		httpClient: cfg.HTTPClient,
		store:      NewMemoryStore(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.httpClient == nil {
		m.httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	if m.logger == nil {
		m.logger = otelzap.New(zap.NewNop())
	}
	return m
}

// Token returns a valid bearer credential, acquiring a new one when the
// cached credential is missing or expired. Concurrent misses share a single
// acquisition, which is detached from any one caller's cancellation; each
// caller stops waiting when its own ctx is done.
func (m *Manager) Token(ctx context.Context) (string, error) {
	if tok, ok := m.cached(ctx); ok {
		return tok, nil
	}

	acquireCtx := context.WithoutCancel(ctx)
	ch := m.group.DoChan(m.key(), func() (any, error) {
		// Another caller may have refreshed while we waited to enter.
		if tok, ok := m.cached(acquireCtx); ok {
			return tok, nil
		}
		return m.acquire(acquireCtx)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	case <-ctx.Done():
		return "", carrier.NewError(carrier.KindNetworkTimeout, m.cfg.Carrier,
			fmt.Sprintf("%s credential request abandoned", m.cfg.Carrier)).WithCause(ctx.Err())
	}
}

// ClearCache drops the cached credential so the next Token call acquires a
// new one.
func (m *Manager) ClearCache(ctx context.Context) {
	if err := m.store.Delete(ctx, m.key()); err != nil {
		m.logger.Ctx(ctx).Warn("Failed to clear cached credential",
			zap.String("carrier", m.cfg.Carrier),
			zap.Error(err),
		)
	}
}

func (m *Manager) key() string {
	return m.cfg.Carrier + ":" + m.cfg.ClientID
}

func (m *Manager) cached(ctx context.Context) (string, bool) {
	tok, ok, err := m.store.Load(ctx, m.key())
	if err != nil {
		m.logger.Ctx(ctx).Warn("Token store unavailable, acquiring directly",
			zap.String("carrier", m.cfg.Carrier),
			zap.Error(err),
		)
		return "", false
	}
	if !ok || !m.now().Before(tok.ExpiresAt) {
		return "", false
	}
	return tok.AccessToken, true
}

func (m *Manager) acquire(ctx context.Context) (string, error) {
	resp, err := m.requestToken(ctx)
	if m.onAcquire != nil {
		m.onAcquire(m.cfg.Carrier, err)
	}
	if err != nil {
		m.logger.Ctx(ctx).Error("Credential acquisition failed",
			zap.String("carrier", m.cfg.Carrier),
			zap.Error(err),
		)
		return "", carrier.NewError(carrier.KindAuthFailure, m.cfg.Carrier,
			fmt.Sprintf("%s authentication failed", m.cfg.Carrier)).WithCause(err)
	}

	now := m.now()
	lifetime := time.Duration(resp.ExpiresIn)*time.Second - SafetyMargin
	tok := Token{
		AccessToken: resp.AccessToken,
		ExpiresAt:   now.Add(lifetime),
	}
	// A lifetime inside the safety margin is usable once but never cached.
	if lifetime > 0 {
		if err := m.store.Save(ctx, m.key(), tok, lifetime); err != nil {
			m.logger.Ctx(ctx).Warn("Failed to cache credential",
				zap.String("carrier", m.cfg.Carrier),
				zap.Error(err),
			)
		}
	}

	m.logger.Ctx(ctx).Info("Acquired carrier credential",
		zap.String("carrier", m.cfg.Carrier),
		zap.Time("expires_at", tok.ExpiresAt),
	)
	return tok.AccessToken, nil
}

func (m *Manager) requestToken(ctx context.Context) (*TokenResponse, error) {
	form := url.Values{}
	form.Set("grant_type", "client_credentials")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		m.cfg.BaseURL+m.cfg.TokenPath, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create token request: %w", err)
	}

	credentials := base64.StdEncoding.EncodeToString([]byte(m.cfg.ClientID + ":" + m.cfg.ClientSecret))
	merchantID := m.cfg.MerchantID
	if merchantID == "" {
		merchantID = m.cfg.ClientID
	}
	req.Header.Set("Authorization", "Basic "+credentials)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("x-merchant-id", merchantID)

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("token request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read token response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("token endpoint returned HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var result TokenResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to decode token response: %w", err)
	}
	if result.AccessToken == "" {
		return nil, fmt.Errorf("token response has no access_token")
	}
	return &result, nil
}
