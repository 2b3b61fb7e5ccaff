package momo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Sandbox provisioning calls. These are one-time operational setup against
// MTN's provisioning API and are never invoked during checkout.

// CreateAPIUser registers a new sandbox API user and returns its id. The id
// becomes the MOMO_API_USER credential.
func (c *Client) CreateAPIUser(ctx context.Context) (string, error) {
	userID := uuid.NewString()

	resp, err := c.http.Request().
		SetContext(ctx).
		SetHeader("X-Reference-Id", userID).
		SetHeader("Ocp-Apim-Subscription-Key", c.cfg.SubscriptionKey).
		SetHeader("Content-Type", "application/json").
		SetBody(map[string]string{"providerCallbackHost": c.cfg.CallbackHost}).
		Post(c.cfg.BaseURL + "/v1_0/apiuser")
	if err != nil {
		return "", fmt.Errorf("create api user: %w", err)
	}
	if resp.StatusCode() != http.StatusCreated {
		return "", fmt.Errorf("create api user: unexpected status %d", resp.StatusCode())
	}

	c.logger.Info("MTN MoMo sandbox API user created", zap.String("user_id", userID))
	return userID, nil
}

// GenerateAPIKey issues an API key for a provisioned sandbox user. The key
// becomes the MOMO_API_KEY credential.
func (c *Client) GenerateAPIKey(ctx context.Context, userID string) (string, error) {
	resp, err := c.http.Request().
		SetContext(ctx).
		SetHeader("Ocp-Apim-Subscription-Key", c.cfg.SubscriptionKey).
		Post(c.cfg.BaseURL + "/v1_0/apiuser/" + userID + "/apikey")
	if err != nil {
		return "", fmt.Errorf("generate api key: %w", err)
	}
	if resp.StatusCode() != http.StatusCreated {
		return "", fmt.Errorf("generate api key: unexpected status %d", resp.StatusCode())
	}

	var body struct {
		APIKey string `json:"apiKey"`
	}
	if err := json.Unmarshal(resp.Body(), &body); err != nil {
		return "", fmt.Errorf("generate api key: parse error: %w", err)
	}
	if body.APIKey == "" {
		return "", fmt.Errorf("generate api key: no apiKey in response")
	}

	return body.APIKey, nil
}
