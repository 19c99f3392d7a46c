package oauth_test

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tournevent/ratebridge/pkg/carrier"
	"github.com/tournevent/ratebridge/pkg/carrier/oauth"
)

const tokenPath = "/security/v1/oauth/token"

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// tokenServer issues "token-1", "token-2", ... and counts requests.
func tokenServer(t *testing.T, expiresIn string) (*httptest.Server, *atomic.Int64) {
	t.Helper()
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"access_token":"token-%d","token_type":"Bearer","expires_in":%s,"client_id":"client-id","scope":"public"}`, n, expiresIn)
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func newManager(baseURL string, clock *fakeClock, opts ...oauth.Option) *oauth.Manager {
	opts = append([]oauth.Option{oauth.WithClock(clock.Now)}, opts...)
	return oauth.NewManager(oauth.Config{
		Carrier:      "ups",
		BaseURL:      baseURL,
		TokenPath:    tokenPath,
		ClientID:     "client-id",
		ClientSecret: "client-secret",
	}, opts...)
}

func TestManager_Token_CachesUntilSafetyMargin(t *testing.T) {
	srv, calls := tokenServer(t, `"3600"`)
	clock := newFakeClock()
	m := newManager(srv.URL, clock)
	ctx := context.Background()

	tok, err := m.Token(ctx)
	require.NoError(t, err)
	assert.Equal(t, "token-1", tok)

	clock.Advance(3539 * time.Second)
	tok, err = m.Token(ctx)
	require.NoError(t, err)
	assert.Equal(t, "token-1", tok, "credential should be reused before expiry - 60s")
	assert.Equal(t, int64(1), calls.Load())

	clock.Advance(time.Second) // exactly 3540s after acquisition
	tok, err = m.Token(ctx)
	require.NoError(t, err)
	assert.Equal(t, "token-2", tok, "credential should be refreshed at expiry - 60s")
	assert.Equal(t, int64(2), calls.Load())
}

func TestManager_Token_NumericExpiresIn(t *testing.T) {
	srv, calls := tokenServer(t, `3600`)
	clock := newFakeClock()
	m := newManager(srv.URL, clock)

	_, err := m.Token(context.Background())
	require.NoError(t, err)
	_, err = m.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), calls.Load())
}

func TestManager_Token_ShortLifetimeNotCached(t *testing.T) {
	srv, calls := tokenServer(t, `"30"`)
	m := newManager(srv.URL, newFakeClock())

	tok, err := m.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "token-1", tok)

	tok, err = m.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "token-2", tok)
	assert.Equal(t, int64(2), calls.Load())
}

func TestManager_ClearCache(t *testing.T) {
	srv, calls := tokenServer(t, `"3600"`)
	m := newManager(srv.URL, newFakeClock())
	ctx := context.Background()

	_, err := m.Token(ctx)
	require.NoError(t, err)

	m.ClearCache(ctx)
	tok, err := m.Token(ctx)
	require.NoError(t, err)
	assert.Equal(t, "token-2", tok)
	assert.Equal(t, int64(2), calls.Load())
}

func TestManager_Token_RequestShape(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, tokenPath, r.URL.Path)
		assert.Equal(t, "application/x-www-form-urlencoded", r.Header.Get("Content-Type"))
		assert.Equal(t, "client-id", r.Header.Get("x-merchant-id"))

		want := "Basic " + base64.StdEncoding.EncodeToString([]byte("client-id:client-secret"))
		assert.Equal(t, want, r.Header.Get("Authorization"))

		require.NoError(t, r.ParseForm())
		assert.Equal(t, "client_credentials", r.PostForm.Get("grant_type"))

		w.Write([]byte(`{"access_token":"abc","expires_in":"3600"}`))
	}))
	defer srv.Close()

	tok, err := newManager(srv.URL, newFakeClock()).Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "abc", tok)
}

func TestManager_Token_SingleFlight(t *testing.T) {
	var calls atomic.Int64
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		<-release
		w.Write([]byte(`{"access_token":"shared","expires_in":"3600"}`))
	}))
	defer srv.Close()

	m := newManager(srv.URL, newFakeClock())

	var wg sync.WaitGroup
	tokens := make([]string, 10)
	for i := range tokens {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tok, err := m.Token(context.Background())
			assert.NoError(t, err)
			tokens[i] = tok
		}(i)
	}

	// Give the goroutines time to pile up behind the first acquisition.
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	for _, tok := range tokens {
		assert.Equal(t, "shared", tok)
	}
	assert.Equal(t, int64(1), calls.Load())
}

func TestManager_Token_CancelledCallerDoesNotFailOthers(t *testing.T) {
	var calls atomic.Int64
	received := make(chan struct{}, 1)
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		select {
		case received <- struct{}{}:
		default:
		}
		<-release
		w.Write([]byte(`{"access_token":"shared","expires_in":"3600"}`))
	}))
	defer srv.Close()

	m := newManager(srv.URL, newFakeClock())

	ctxA, cancelA := context.WithCancel(context.Background())
	errA := make(chan error, 1)
	go func() {
		_, err := m.Token(ctxA)
		errA <- err
	}()
	<-received

	type result struct {
		tok string
		err error
	}
	resB := make(chan result, 1)
	go func() {
		tok, err := m.Token(context.Background())
		resB <- result{tok, err}
	}()

	// Let the second caller join the in-flight acquisition.
	time.Sleep(50 * time.Millisecond)
	cancelA()

	err := <-errA
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotEqual(t, carrier.KindAuthFailure, carrier.KindOf(err))
	assert.True(t, carrier.IsRetryable(err))

	close(release)
	b := <-resB
	require.NoError(t, b.err)
	assert.Equal(t, "shared", b.tok)

	// The detached acquisition still populated the cache.
	tok, err := m.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "shared", tok)
	assert.Equal(t, int64(1), calls.Load())
}

func TestManager_Token_AuthFailures(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "unauthorized",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusUnauthorized)
				w.Write([]byte(`{"fault":{"faultstring":"Invalid credentials"}}`))
			},
		},
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			},
		},
		{
			name: "garbage body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`not json`))
			},
		},
		{
			name: "missing token",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"expires_in":"3600"}`))
			},
		},
		{
			name: "unparsable expires_in",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"access_token":"x","expires_in":"soon"}`))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			var hookErr error
			m := newManager(srv.URL, newFakeClock(), oauth.WithAcquireHook(func(_ string, err error) {
				hookErr = err
			}))

			_, err := m.Token(context.Background())
			require.Error(t, err)

			var ce *carrier.CarrierError
			require.True(t, errors.As(err, &ce))
			assert.Equal(t, carrier.KindAuthFailure, ce.Kind)
			assert.Equal(t, "ups", ce.Carrier)
			assert.False(t, ce.Retryable)
			assert.NotNil(t, ce.Cause)
			assert.Error(t, hookErr)
		})
	}
}

func TestManager_Token_NetworkErrorIsAuthFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := newManager(url, newFakeClock()).Token(context.Background())
	require.Error(t, err)
	assert.Equal(t, carrier.KindAuthFailure, carrier.KindOf(err))
	assert.False(t, carrier.IsRetryable(err))
}

type failingStore struct{}

func (failingStore) Load(context.Context, string) (oauth.Token, bool, error) {
	return oauth.Token{}, false, errors.New("store down")
}
func (failingStore) Save(context.Context, string, oauth.Token, time.Duration) error {
	return errors.New("store down")
}
func (failingStore) Delete(context.Context, string) error { return errors.New("store down") }

func TestManager_Token_StoreFailureFallsBackToAcquisition(t *testing.T) {
	srv, calls := tokenServer(t, `"3600"`)
	m := newManager(srv.URL, newFakeClock(), oauth.WithStore(failingStore{}))

	tok, err := m.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "token-1", tok)
	assert.Equal(t, int64(1), calls.Load())
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	s := oauth.NewMemoryStore()

	_, ok, err := s.Load(ctx, "ups:id")
	require.NoError(t, err)
	assert.False(t, ok)

	exp := time.Date(2025, 1, 1, 13, 0, 0, 0, time.UTC)
	require.NoError(t, s.Save(ctx, "ups:id", oauth.Token{AccessToken: "abc", ExpiresAt: exp}, time.Hour))

	tok, ok, err := s.Load(ctx, "ups:id")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "abc", tok.AccessToken)
	assert.Equal(t, exp, tok.ExpiresAt)

	require.NoError(t, s.Delete(ctx, "ups:id"))
	_, ok, _ = s.Load(ctx, "ups:id")
	assert.False(t, ok)
}
