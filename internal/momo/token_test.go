package momo

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/nkd-hd/sunshine-payments/internal/config"
	"github.com/nkd-hd/sunshine-payments/internal/payment"
)

func testMoMoConfig(baseURL string) *config.MoMoConfig {
	return &config.MoMoConfig{
		BaseURL:           baseURL,
		SubscriptionKey:   "sub-key",
		APIUser:           "api-user",
		APIKey:            "api-key",
		TargetEnvironment: "sandbox",
	}
}

func tokenServer(t *testing.T, exchanges *int64) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/collection/token/" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if _, _, ok := r.BasicAuth(); !ok {
			t.Error("token exchange missing basic auth")
		}
		if r.Header.Get("Ocp-Apim-Subscription-Key") == "" {
			t.Error("token exchange missing subscription key")
		}
		atomic.AddInt64(exchanges, 1)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"tok-123","token_type":"access_token","expires_in":3600}`))
	}))
}

func TestTokenIsCachedWithinLifetime(t *testing.T) {
	var exchanges int64
	srv := tokenServer(t, &exchanges)
	defer srv.Close()

	tm := NewTokenManager(testMoMoConfig(srv.URL), zap.NewNop())

	for i := 0; i < 2; i++ {
		token, err := tm.Token(context.Background())
		if err != nil {
			t.Fatalf("Token() error: %v", err)
		}
		if token != "tok-123" {
			t.Fatalf("got token %q", token)
		}
	}

	if n := atomic.LoadInt64(&exchanges); n != 1 {
		t.Errorf("expected exactly 1 credential exchange, got %d", n)
	}
}

func TestTokenRefreshesAfterExpiry(t *testing.T) {
	var exchanges int64
	srv := tokenServer(t, &exchanges)
	defer srv.Close()

	tm := NewTokenManager(testMoMoConfig(srv.URL), zap.NewNop())
	tm.ttl = time.Millisecond

	if _, err := tm.Token(context.Background()); err != nil {
		t.Fatalf("Token() error: %v", err)
	}
	time.Sleep(5 * time.Millisecond)
	if _, err := tm.Token(context.Background()); err != nil {
		t.Fatalf("Token() error: %v", err)
	}

	if n := atomic.LoadInt64(&exchanges); n != 2 {
		t.Errorf("expected 2 credential exchanges across expiry, got %d", n)
	}
}

func TestTokenSingleFlightUnderConcurrency(t *testing.T) {
	var exchanges int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&exchanges, 1)
		time.Sleep(20 * time.Millisecond)
		w.Write([]byte(`{"access_token":"tok-123","expires_in":3600}`))
	}))
	defer srv.Close()

	tm := NewTokenManager(testMoMoConfig(srv.URL), zap.NewNop())

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := tm.Token(context.Background()); err != nil {
				t.Errorf("Token() error: %v", err)
			}
		}()
	}
	wg.Wait()

	if n := atomic.LoadInt64(&exchanges); n != 1 {
		t.Errorf("expected 1 exchange for 10 concurrent callers, got %d", n)
	}
}

func TestTokenExchangeRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	tm := NewTokenManager(testMoMoConfig(srv.URL), zap.NewNop())

	_, err := tm.Token(context.Background())
	if err == nil {
		t.Fatal("expected an error from a rejected exchange")
	}
	var authErr *payment.AuthenticationError
	if !errors.As(err, &authErr) {
		t.Fatalf("expected AuthenticationError, got %T: %v", err, err)
	}
}
