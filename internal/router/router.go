package router

import (
	"net/http"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/nkd-hd/sunshine-payments/internal/gateway"
	"github.com/nkd-hd/sunshine-payments/internal/handler"
	"github.com/nkd-hd/sunshine-payments/internal/middleware"
	"github.com/nkd-hd/sunshine-payments/internal/momo"
)

// Setup configures all routes for the Echo server.
func Setup(
	e *echo.Echo,
	gw *gateway.Gateway,
	momoClient *momo.Client,
	logger *zap.Logger,
	apiKey string,
	refGuard middleware.ReferenceGuard,
) {
	// Global middleware
	e.Use(echomw.Recover())
	e.Use(middleware.CORS())

	paymentHandler := handler.NewPaymentHandler(gw, momoClient, logger)

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	// API group with auth middleware
	apiGroup := e.Group("/api")
	apiGroup.Use(middleware.APIAuth(apiKey))

	apiGroup.POST("/payments", paymentHandler.ProcessPayment, middleware.PaymentReferenceDedup(refGuard))
	apiGroup.POST("/payments/verify", paymentHandler.VerifyPayment)
	apiGroup.GET("/payments/mtn/:transactionId/status", paymentHandler.MTNPaymentStatus)
	apiGroup.POST("/momo/provision", paymentHandler.ProvisionSandbox)
}
