package gateway

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/nkd-hd/sunshine-payments/internal/payment"
	"github.com/nkd-hd/sunshine-payments/internal/phone"
	"github.com/nkd-hd/sunshine-payments/internal/simulate"
)

// errDegraded marks a provider call that completed only by substituting a
// simulated outcome. It feeds the circuit breaker; the response itself is
// still well-formed and returned to the caller.
var errDegraded = errors.New("provider degraded, simulated outcome substituted")

// Gateway is the single entry point the checkout flow calls. It dispatches
// on the payment method through a provider registry, short-circuits CASH,
// and never returns an error: every path ends in a PaymentResponse.
type Gateway struct {
	providers map[payment.PaymentMethod]payment.Provider
	breakers  map[payment.PaymentMethod]*gobreaker.CircuitBreaker
	sim       *simulate.Engine
	logger    *zap.Logger
}

// New builds a gateway over the given providers. Registering a new provider
// is all it takes to support a new payment method.
func New(sim *simulate.Engine, logger *zap.Logger, providers ...payment.Provider) *Gateway {
	g := &Gateway{
		providers: make(map[payment.PaymentMethod]payment.Provider, len(providers)),
		breakers:  make(map[payment.PaymentMethod]*gobreaker.CircuitBreaker, len(providers)),
		sim:       sim,
		logger:    logger,
	}

	for _, p := range providers {
		method := p.Method()
		g.providers[method] = p
		g.breakers[method] = gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        string(method),
			MaxRequests: 2,
			Timeout:     30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				logger.Warn("payment provider breaker state changed",
					zap.String("provider", name),
					zap.String("from", from.String()),
					zap.String("to", to.String()))
			},
		})
	}

	return g
}

// ProcessPayment dispatches a payment attempt to the provider registered for
// its method. CASH needs no provider: the order is reserved and settled at
// the venue, so the response is synthesized locally and stays PENDING until
// reconciled out-of-band. Phone rules are enforced here before any live call
// or simulation, so malformed input fails locally on every path, including
// an open breaker.
func (g *Gateway) ProcessPayment(ctx context.Context, req payment.PaymentRequest) payment.PaymentResponse {
	if req.Method == payment.MethodCash {
		return cashResponse()
	}

	provider, ok := g.providers[req.Method]
	if !ok {
		return payment.Failed("Unsupported payment method: " + string(req.Method))
	}

	if resp, ok := validatePhone(req); !ok {
		return resp
	}

	// An unconfigured provider simulates every outcome. That is its normal
	// operating mode, not a failure the breaker should count, so it bypasses
	// the breaker entirely.
	if !provider.Configured() {
		return provider.Initiate(ctx, req)
	}

	out, err := g.breakers[req.Method].Execute(func() (interface{}, error) {
		resp := provider.Initiate(ctx, req)
		if resp.Simulated() {
			return resp, errDegraded
		}
		return resp, nil
	})
	if err != nil {
		// A degraded call still produced a response; an open breaker means
		// the live call was skipped entirely and we simulate directly.
		if resp, ok := out.(payment.PaymentResponse); ok {
			return resp
		}
		g.logger.Warn("provider circuit open, simulating payment",
			zap.String("method", string(req.Method)),
			zap.String("reference", req.Reference),
			zap.Error(err))
		return g.sim.Simulate(ctx, req, successRate(req.Method))
	}

	return out.(payment.PaymentResponse)
}

// VerifyPaymentStatus is a simulated, provider-agnostic status check kept for
// generic polling UIs. It never contacts a live provider; where an
// authoritative answer exists, use CheckMTNPaymentStatus instead.
func (g *Gateway) VerifyPaymentStatus(ctx context.Context, reference string, method payment.PaymentMethod) payment.PaymentResponse {
	if method == payment.MethodCash {
		return payment.PaymentResponse{
			Success:          true,
			Status:           payment.StatusPending,
			PaymentReference: reference,
			Message:          "Cash payments are settled at the venue.",
		}
	}
	return g.sim.SimulateStatus(ctx, reference, simulate.VerifySuccessRate)
}

// CheckMTNPaymentStatus queries MTN's request-to-pay status endpoint when the
// provider is configured. Unlike VerifyPaymentStatus the answer is
// authoritative for live payments.
func (g *Gateway) CheckMTNPaymentStatus(ctx context.Context, transactionID string) payment.PaymentResponse {
	provider, ok := g.providers[payment.MethodMTNMoMo]
	if !ok {
		return payment.Failed("MTN Mobile Money is not available.")
	}
	poller, ok := provider.(payment.StatusPoller)
	if !ok {
		return payment.Failed("Status checks are not supported for this payment method.")
	}
	return poller.Poll(ctx, transactionID)
}

// validatePhone applies the carrier's numbering rules for the mobile-money
// methods. The messages match what the provider clients answer for direct
// use; the gateway check is what guarantees them when the live call is
// skipped.
func validatePhone(req payment.PaymentRequest) (payment.PaymentResponse, bool) {
	switch req.Method {
	case payment.MethodMTNMoMo:
		if req.CustomerPhone == "" {
			return payment.Failed("Phone number is required for MTN Mobile Money payments."), false
		}
		if !phone.Valid(req.CustomerPhone, phone.CarrierMTN) {
			return payment.Failed("Invalid MTN phone number. Use an MTN line such as 67X XXX XXX or 68X XXX XXX."), false
		}
	case payment.MethodOrangeMoney:
		if req.CustomerPhone == "" {
			return payment.Failed("Phone number is required for Orange Money payments."), false
		}
		if !phone.Valid(req.CustomerPhone, phone.CarrierOrange) {
			return payment.Failed("Invalid Orange phone number. Use an Orange line such as 69X XXX XXX."), false
		}
	}
	return payment.PaymentResponse{}, true
}

func cashResponse() payment.PaymentResponse {
	return payment.PaymentResponse{
		Success:          true,
		Status:           payment.StatusPending,
		PaymentReference: fmt.Sprintf("CASH_%d", time.Now().Unix()),
		Message:          "Please pay at the venue. Your order is reserved.",
		AdditionalInfo: map[string]interface{}{
			"instructions": "Pay the cashier when you arrive",
		},
	}
}

func successRate(method payment.PaymentMethod) float64 {
	if method == payment.MethodOrangeMoney {
		return simulate.OrangeSuccessRate
	}
	return simulate.MTNSuccessRate
}
