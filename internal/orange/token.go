package orange

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

// Orange declares the token lifetime in the grant response; refresh a minute
// early so a token never expires mid-flight.
const expiryMargin = 60 * time.Second

// TokenManager acquires and caches the OAuth bearer token via Orange's
// form-encoded client-credentials grant. Acquisition is serialized; cached
// reads only take the read lock.
type TokenManager struct {
	cfg    *config.OrangeConfig
	client *httpclient.Client
	logger *zap.Logger
	margin time.Duration

	mu        sync.RWMutex
	token     string
	expiresAt time.Time
}

func NewTokenManager(cfg *config.OrangeConfig, logger *zap.Logger) *TokenManager {
	return &TokenManager{
		cfg:    cfg,
		client: httpclient.New(),
		logger: logger,
		margin: expiryMargin,
	}
}

// Token returns a cached bearer token, performing the client-credentials
// grant when the cache is empty or expired.
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

	if t.token != "" && time.Now().Before(t.expiresAt) {
		return t.token, nil
	}

	resp, err := t.client.Request().
		SetContext(ctx).
		SetBasicAuth(t.cfg.ClientID, t.cfg.ClientSecret).
		SetFormData(map[string]string{"grant_type": "client_credentials"}).
		Post(t.cfg.BaseURL + "/oauth/v3/token")
	if err != nil {
		return "", &payment.AuthenticationError{Provider: "orange-money", Err: err}
	}
	if resp.StatusCode() != http.StatusOK {
		return "", &payment.AuthenticationError{
			Provider: "orange-money",
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
			Provider: "orange-money",
			Err:      fmt.Errorf("token parse error: %w", err),
		}
	}
	if body.AccessToken == "" {
		return "", &payment.AuthenticationError{
			Provider: "orange-money",
			Err:      fmt.Errorf("no access_token in response"),
		}
	}

	lifetime := time.Duration(body.ExpiresIn)*time.Second - t.margin
	if lifetime <= 0 {
		lifetime = 30 * time.Second
	}

	t.token = body.AccessToken
	t.expiresAt = time.Now().Add(lifetime)
	t.logger.Debug("Orange Money token refreshed", zap.Time("expires_at", t.expiresAt))

	return t.token, nil
}
