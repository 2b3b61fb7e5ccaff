package payment

import "context"

// Provider initiates payments against one mobile-money carrier.
// Implementations never return an error: every outcome, including internal
// failures, is expressed as a PaymentResponse.
type Provider interface {
	// Method returns the payment method this provider serves.
	Method() PaymentMethod

	// Configured reports whether live credentials are present. An
	// unconfigured provider simulates every outcome; that is its normal
	// operating mode, not a failure.
	Configured() bool

	// Initiate starts a payment attempt.
	Initiate(ctx context.Context, req PaymentRequest) PaymentResponse
}

// StatusPoller is implemented by providers that expose a status endpoint.
// Orange Money confirms via webhook only and does not implement it.
type StatusPoller interface {
	// Poll queries the provider for the current state of a payment.
	Poll(ctx context.Context, transactionID string) PaymentResponse
}
