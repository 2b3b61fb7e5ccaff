package momo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/nkd-hd/sunshine-payments/internal/config"
	"github.com/nkd-hd/sunshine-payments/internal/payment"
	"github.com/nkd-hd/sunshine-payments/internal/pkg/httpclient"
)

// MoMo access tokens are declared valid for an hour; refresh well before
// that so a token never expires mid-flight.
const tokenCacheTTL = 50 * time.Minute

// TokenManager acquires and caches the collection bearer token. Acquisition
// is serialized so N concurrent payment attempts issue at most one credential
// exchange; cached reads only take the read lock.
type TokenManager struct {
	cfg    *config.MoMoConfig
	client *httpclient.Client
	logger *zap.Logger
	ttl    time.Duration

	mu        sync.RWMutex
	token     string
	expiresAt time.Time
}

func NewTokenManager(cfg *config.MoMoConfig, logger *zap.Logger) *TokenManager {
	return &TokenManager{
		cfg:    cfg,
		client: httpclient.New(),
		logger: logger,
		ttl:    tokenCacheTTL,
	}
}

// Token returns a cached bearer token, exchanging credentials when the cache
// is empty or expired.
func (t *TokenManager) Token(ctx context.Context) (string, error) {
	t.mu.RLock()
	if t.token != "" && time.Now().Before(t.expiresAt) {
		token := t.token
		t.mu.RUnlock()
		return token, nil
	}
	t.mu.RUnlock()

	t.mu.Lock()
	defer t.mu.Unlock()

	// Another caller may have refreshed while we waited for the lock.
	if t.token != "" && time.Now().Before(t.expiresAt) {
		return t.token, nil
	}

	resp, err := t.client.Request().
		SetContext(ctx).
		SetBasicAuth(t.cfg.APIUser, t.cfg.APIKey).
		SetHeader("Ocp-Apim-Subscription-Key", t.cfg.SubscriptionKey).
		Post(t.cfg.BaseURL + "/collection/token/")
	if err != nil {
		return "", &payment.AuthenticationError{Provider: "mtn-momo", Err: err}
	}
	if resp.StatusCode() != http.StatusOK {
		return "", &payment.AuthenticationError{
			Provider: "mtn-momo",
			Err:      fmt.Errorf("token endpoint returned %d", resp.StatusCode()),
		}
	}

	var body struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
		ExpiresIn   int64  `json:"expires_in"`
	}
	if err := json.Unmarshal(resp.Body(), &body); err != nil {
		return "", &payment.AuthenticationError{
			Provider: "mtn-momo",
			Err:      fmt.Errorf("token parse error: %w", err),
		}
	}
	if body.AccessToken == "" {
		return "", &payment.AuthenticationError{
			Provider: "mtn-momo",
			Err:      fmt.Errorf("no access_token in response"),
		}
	}

	t.token = body.AccessToken
	t.expiresAt = time.Now().Add(t.ttl)
	t.logger.Debug("MTN MoMo token refreshed", zap.Time("expires_at", t.expiresAt))

	return t.token, nil
}
