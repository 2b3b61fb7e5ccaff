package momo

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/nkd-hd/sunshine-payments/internal/config"
	"github.com/nkd-hd/sunshine-payments/internal/payment"
	"github.com/nkd-hd/sunshine-payments/internal/phone"
	"github.com/nkd-hd/sunshine-payments/internal/pkg/httpclient"
	"github.com/nkd-hd/sunshine-payments/internal/simulate"
)

// sandboxCurrency is the only settlement currency MTN's sandbox accepts.
const sandboxCurrency = "EUR"

// Client implements payment.Provider and payment.StatusPoller for MTN Mobile
// Money collections (request-to-pay). When credentials are absent or a live
// call cannot complete, it delegates to the simulation engine and reports the
// substitution through the response's simulated marker and a warn log.
type Client struct {
	cfg    *config.MoMoConfig
	tokens *TokenManager
	sim    *simulate.Engine
	http   *httpclient.Client
	logger *zap.Logger
}

func NewClient(cfg *config.MoMoConfig, sim *simulate.Engine, logger *zap.Logger) *Client {
	return &Client{
		cfg:    cfg,
		tokens: NewTokenManager(cfg, logger),
		sim:    sim,
		http:   httpclient.New(),
		logger: logger,
	}
}

func (c *Client) Method() payment.PaymentMethod {
	return payment.MethodMTNMoMo
}

func (c *Client) Configured() bool {
	return c.cfg.Configured()
}

// Initiate sends a request-to-pay. MTN pushes a confirmation prompt to the
// payer's handset; the call returns PENDING before the payer confirms.
func (c *Client) Initiate(ctx context.Context, req payment.PaymentRequest) payment.PaymentResponse {
	if req.CustomerPhone == "" {
		return payment.Failed("Phone number is required for MTN Mobile Money payments.")
	}
	if !phone.Valid(req.CustomerPhone, phone.CarrierMTN) {
		return payment.Failed("Invalid MTN phone number. Use an MTN line such as 67X XXX XXX or 68X XXX XXX.")
	}

	if !c.cfg.Configured() {
		c.logger.Warn("MTN MoMo credentials not configured, simulating payment",
			zap.String("reference", req.Reference))
		return c.sim.Simulate(ctx, req, simulate.MTNSuccessRate)
	}

	token, err := c.tokens.Token(ctx)
	if err != nil {
		// Checkout keeps moving when the provider is unreachable; the warn
		// line is what tells operators a fake outcome was substituted.
		c.logger.Warn("MTN MoMo authentication failed, falling back to simulation",
			zap.String("reference", req.Reference),
			zap.Error(err))
		return c.sim.Simulate(ctx, req, simulate.MTNSuccessRate)
	}

	referenceID := uuid.NewString()
	body := map[string]interface{}{
		"amount":     formatAmount(req.Amount),
		"currency":   c.settlementCurrency(req.Currency),
		"externalId": req.Reference,
		"payer": map[string]string{
			"partyIdType": "MSISDN",
			"partyId":     phone.Normalize(req.CustomerPhone),
		},
		"payerMessage": req.Description,
		"payeeNote":    req.Description,
	}

	resp, err := c.http.Request().
		SetContext(ctx).
		SetAuthToken(token).
		SetHeader("X-Reference-Id", referenceID).
		SetHeader("X-Target-Environment", c.cfg.TargetEnvironment).
		SetHeader("Ocp-Apim-Subscription-Key", c.cfg.SubscriptionKey).
		SetHeader("Content-Type", "application/json").
		SetBody(body).
		Post(c.cfg.BaseURL + "/collection/v1_0/requesttopay")
	if err != nil {
		c.logger.Warn("MTN MoMo request failed, falling back to simulation",
			zap.String("reference", req.Reference),
			zap.Error(err))
		return c.sim.Simulate(ctx, req, simulate.MTNSuccessRate)
	}

	switch sc := resp.StatusCode(); {
	case sc == http.StatusAccepted:
		return payment.PaymentResponse{
			Success:          true,
			Status:           payment.StatusPending,
			PaymentReference: referenceID,
			TransactionID:    referenceID,
			Message:          "Payment request sent. Confirm the prompt on your phone to complete the payment.",
			AdditionalInfo: map[string]interface{}{
				"instructions": "Dial *126# if you did not receive a prompt",
				"timeout":      "300 seconds",
			},
		}
	case sc == http.StatusBadRequest:
		return payment.Failed("Invalid payment request. Please check the phone number and amount.")
	case sc == http.StatusUnauthorized:
		return payment.Failed("Payment authorization failed. Please try again.")
	case sc == http.StatusConflict:
		return payment.Failed("A payment with this reference already exists.")
	case sc >= 200 && sc < 300:
		return payment.Failed("Payment could not be initiated. Please try again.")
	default:
		c.logger.Warn("MTN MoMo returned unexpected status, falling back to simulation",
			zap.Int("status", sc),
			zap.String("reference", req.Reference))
		return c.sim.Simulate(ctx, req, simulate.MTNSuccessRate)
	}
}

// Poll queries the request-to-pay status endpoint. Unlike Initiate, a failed
// poll never falls back to simulation: a status check must not invent an
// answer for a payment that may be live.
func (c *Client) Poll(ctx context.Context, transactionID string) payment.PaymentResponse {
	if !c.cfg.Configured() {
		return c.sim.SimulateStatus(ctx, transactionID, simulate.PollSuccessRate)
	}

	token, err := c.tokens.Token(ctx)
	if err != nil {
		c.logger.Error("MTN MoMo status check authentication failed",
			zap.String("transaction_id", transactionID),
			zap.Error(err))
		return payment.Failed("Failed to check payment status.")
	}

	resp, err := c.http.Request().
		SetContext(ctx).
		SetAuthToken(token).
		SetHeader("X-Target-Environment", c.cfg.TargetEnvironment).
		SetHeader("Ocp-Apim-Subscription-Key", c.cfg.SubscriptionKey).
		Get(c.cfg.BaseURL + "/collection/v1_0/requesttopay/" + transactionID)
	if err != nil || resp.StatusCode() != http.StatusOK {
		c.logger.Error("MTN MoMo status check failed",
			zap.String("transaction_id", transactionID),
			zap.Error(err))
		return payment.Failed("Failed to check payment status.")
	}

	var body struct {
		Status string `json:"status"`
		Reason string `json:"reason"`
	}
	if err := json.Unmarshal(resp.Body(), &body); err != nil {
		return payment.Failed("Failed to check payment status.")
	}

	switch body.Status {
	case "SUCCESSFUL":
		return payment.PaymentResponse{
			Success:          true,
			Status:           payment.StatusCompleted,
			PaymentReference: transactionID,
			TransactionID:    transactionID,
			Message:          "Payment completed successfully.",
		}
	case "PENDING":
		return payment.PaymentResponse{
			Success:          true,
			Status:           payment.StatusPending,
			PaymentReference: transactionID,
			TransactionID:    transactionID,
			Message:          "Payment is awaiting confirmation on the customer's phone.",
		}
	case "FAILED":
		msg := body.Reason
		if msg == "" {
			msg = "Payment failed."
		}
		return payment.Failed(msg)
	default:
		return payment.Failed("Unknown payment status: " + body.Status)
	}
}

// settlementCurrency remaps the requested currency to what the target
// environment settles in: the sandbox only accepts EUR.
func (c *Client) settlementCurrency(requested string) string {
	if c.cfg.Sandbox() {
		return sandboxCurrency
	}
	if requested == "" {
		return "XAF"
	}
	return requested
}

// formatAmount renders the amount the way the API expects: a decimal string
// without trailing zeros ("5000", not "5000.00").
func formatAmount(amount float64) string {
	return strconv.FormatFloat(amount, 'f', -1, 64)
}
