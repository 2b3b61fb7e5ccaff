package handler

import (
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/nkd-hd/sunshine-payments/internal/gateway"
	"github.com/nkd-hd/sunshine-payments/internal/momo"
	"github.com/nkd-hd/sunshine-payments/internal/payment"
)

// PaymentHandler exposes the payment gateway over HTTP for the storefront.
type PaymentHandler struct {
	gateway *gateway.Gateway
	momo    *momo.Client
	logger  *zap.Logger
}

func NewPaymentHandler(gw *gateway.Gateway, momoClient *momo.Client, logger *zap.Logger) *PaymentHandler {
	return &PaymentHandler{gateway: gw, momo: momoClient, logger: logger}
}

// ProcessPayment initiates a payment attempt.
// POST /api/payments
func (h *PaymentHandler) ProcessPayment(c echo.Context) error {
	var req payment.PaymentRequest
	if err := c.Bind(&req); err != nil {
		return errorResponse(c, "Invalid request body")
	}
	if req.Amount <= 0 {
		return errorResponse(c, "amount must be greater than zero")
	}
	if req.Reference == "" {
		return errorResponse(c, "reference is required")
	}
	if req.Method == "" {
		return errorResponse(c, "method is required")
	}

	resp := h.gateway.ProcessPayment(c.Request().Context(), req)

	h.logger.Info("payment processed",
		zap.String("method", string(req.Method)),
		zap.String("reference", req.Reference),
		zap.String("status", string(resp.Status)),
		zap.Bool("simulated", resp.Simulated()))

	return successResponse(c, "Successful", resp)
}

type verifyRequest struct {
	Reference string                `json:"reference"`
	Method    payment.PaymentMethod `json:"method"`
}

// VerifyPayment runs the generic, simulated status check.
// POST /api/payments/verify
func (h *PaymentHandler) VerifyPayment(c echo.Context) error {
	var req verifyRequest
	if err := c.Bind(&req); err != nil {
		return errorResponse(c, "Invalid request body")
	}
	if req.Reference == "" {
		return errorResponse(c, "reference is required")
	}

	resp := h.gateway.VerifyPaymentStatus(c.Request().Context(), req.Reference, req.Method)
	return successResponse(c, "Successful", resp)
}

// MTNPaymentStatus queries MTN's real status endpoint for a transaction.
// GET /api/payments/mtn/:transactionId/status
func (h *PaymentHandler) MTNPaymentStatus(c echo.Context) error {
	transactionID := c.Param("transactionId")
	if transactionID == "" {
		return errorResponse(c, "transactionId is required")
	}

	resp := h.gateway.CheckMTNPaymentStatus(c.Request().Context(), transactionID)
	return successResponse(c, "Successful", resp)
}

// ProvisionSandbox creates an MTN sandbox API user and issues its key.
// Operational tooling only, never part of checkout.
// POST /api/momo/provision
func (h *PaymentHandler) ProvisionSandbox(c echo.Context) error {
	ctx := c.Request().Context()

	userID, err := h.momo.CreateAPIUser(ctx)
	if err != nil {
		h.logger.Error("sandbox user provisioning failed", zap.Error(err))
		return errorResponse(c, "Failed to create API user")
	}

	apiKey, err := h.momo.GenerateAPIKey(ctx, userID)
	if err != nil {
		h.logger.Error("sandbox key provisioning failed",
			zap.String("user_id", userID),
			zap.Error(err))
		return errorResponse(c, "Failed to generate API key")
	}

	return successResponse(c, "Successful", map[string]string{
		"apiUser": userID,
		"apiKey":  apiKey,
	})
}
