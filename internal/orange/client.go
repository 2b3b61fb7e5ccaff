package orange

import (
	"context"
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/nkd-hd/sunshine-payments/internal/config"
	"github.com/nkd-hd/sunshine-payments/internal/payment"
	"github.com/nkd-hd/sunshine-payments/internal/phone"
	"github.com/nkd-hd/sunshine-payments/internal/pkg/httpclient"
	"github.com/nkd-hd/sunshine-payments/internal/simulate"
)

// Orange's development environment settles in its own test currency.
const devCurrency = "OUV"

// Client implements payment.Provider for Orange Money WebPayment. A
// successful initiation yields a payment URL the customer must be redirected
// to; confirmation arrives out-of-band via webhook, so there is no poll.
// Any live failure falls back to simulation.
type Client struct {
	cfg    *config.OrangeConfig
	tokens *TokenManager
	sim    *simulate.Engine
	http   *httpclient.Client
	logger *zap.Logger
}

func NewClient(cfg *config.OrangeConfig, sim *simulate.Engine, logger *zap.Logger) *Client {
	return &Client{
		cfg:    cfg,
		tokens: NewTokenManager(cfg, logger),
		sim:    sim,
		http:   httpclient.New(),
		logger: logger,
	}
}

func (c *Client) Method() payment.PaymentMethod {
	return payment.MethodOrangeMoney
}

func (c *Client) Configured() bool {
	return c.cfg.Configured()
}

func (c *Client) Initiate(ctx context.Context, req payment.PaymentRequest) payment.PaymentResponse {
	if req.CustomerPhone == "" {
		return payment.Failed("Phone number is required for Orange Money payments.")
	}
	if !phone.Valid(req.CustomerPhone, phone.CarrierOrange) {
		return payment.Failed("Invalid Orange phone number. Use an Orange line such as 69X XXX XXX.")
	}

	if !c.cfg.Configured() {
		c.logger.Warn("Orange Money credentials not configured, simulating payment",
			zap.String("reference", req.Reference))
		return c.sim.Simulate(ctx, req, simulate.OrangeSuccessRate)
	}

	token, err := c.tokens.Token(ctx)
	if err != nil {
		c.logger.Warn("Orange Money authentication failed, falling back to simulation",
			zap.String("reference", req.Reference),
			zap.Error(err))
		return c.sim.Simulate(ctx, req, simulate.OrangeSuccessRate)
	}

	body := map[string]interface{}{
		"merchant_key": c.cfg.MerchantKey,
		"currency":     c.settlementCurrency(req.Currency),
		"order_id":     req.Reference,
		"amount":       req.Amount,
		"return_url":   c.cfg.ReturnURL,
		"cancel_url":   c.cfg.CancelURL,
		"notif_url":    c.cfg.NotifURL,
		"lang":         "fr",
		"reference":    req.Reference,
	}

	resp, err := c.http.Request().
		SetContext(ctx).
		SetAuthToken(token).
		SetHeader("Content-Type", "application/json").
		SetBody(body).
		Post(c.cfg.BaseURL + "/orange-money-webpay/dev/v1/webpayment")
	if err != nil || resp.StatusCode() >= http.StatusMultipleChoices {
		status := 0
		if resp != nil {
			status = resp.StatusCode()
		}
		c.logger.Warn("Orange Money request failed, falling back to simulation",
			zap.String("reference", req.Reference),
			zap.Int("status", status),
			zap.Error(err))
		return c.sim.Simulate(ctx, req, simulate.OrangeSuccessRate)
	}

	var result struct {
		Status     int    `json:"status"`
		Message    string `json:"message"`
		PaymentURL string `json:"payment_url"`
		PayToken   string `json:"pay_token"`
		NotifToken string `json:"notif_token"`
	}
	if err := json.Unmarshal(resp.Body(), &result); err != nil || result.PaymentURL == "" {
		c.logger.Warn("Orange Money returned no payment URL, falling back to simulation",
			zap.String("reference", req.Reference),
			zap.Error(err))
		return c.sim.Simulate(ctx, req, simulate.OrangeSuccessRate)
	}

	reference := result.PayToken
	if reference == "" {
		reference = req.Reference
	}

	return payment.PaymentResponse{
		Success:          true,
		Status:           payment.StatusPending,
		PaymentReference: reference,
		TransactionID:    req.Reference,
		Message:          "Redirecting to Orange Money to complete your payment.",
		PaymentURL:       result.PaymentURL,
		AdditionalInfo: map[string]interface{}{
			"instructions": "Complete the payment on the Orange Money page",
			"timeout":      "300 seconds",
		},
	}
}

func (c *Client) settlementCurrency(requested string) string {
	if !c.cfg.Production {
		return devCurrency
	}
	if requested == "" {
		return "XAF"
	}
	return requested
}
