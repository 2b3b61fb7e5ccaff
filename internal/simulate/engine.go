package simulate

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/nkd-hd/sunshine-payments/internal/payment"
)

// Success probabilities observed from the live flows. Tunable constants, not
// contractual: a simulated PENDING is never evidence of real provider
// acceptance.
const (
	MTNSuccessRate    = 0.90
	OrangeSuccessRate = 0.85
	PollSuccessRate   = 0.80
	VerifySuccessRate = 0.70
)

const defaultDelay = 800 * time.Millisecond

// Engine produces stand-in payment outcomes when a live provider call cannot
// be completed. Every response it returns is marked with
// additionalInfo.simulated = true so operators and callers can tell fake
// outcomes apart from real provider acceptances.
type Engine struct {
	logger *zap.Logger
	delay  time.Duration

	mu  sync.Mutex
	rng *rand.Rand
}

func NewEngine(logger *zap.Logger) *Engine {
	return &Engine{
		logger: logger,
		delay:  defaultDelay,
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// WithDelay overrides the artificial network latency.
func (e *Engine) WithDelay(d time.Duration) *Engine {
	e.delay = d
	return e
}

// WithSource replaces the randomness source. Tests pin it for determinism.
func (e *Engine) WithSource(src rand.Source) *Engine {
	e.rng = rand.New(src)
	return e
}

// Simulate returns a weighted PENDING or FAILED outcome for a payment
// initiation. successRate is the probability of the PENDING branch.
func (e *Engine) Simulate(ctx context.Context, req payment.PaymentRequest, successRate float64) payment.PaymentResponse {
	e.sleep(ctx)

	if e.roll() >= successRate {
		return payment.PaymentResponse{
			Success: false,
			Status:  payment.StatusFailed,
			Message: "Payment failed. Please check your mobile money balance and try again.",
			AdditionalInfo: map[string]interface{}{
				"simulated": true,
			},
		}
	}

	now := time.Now().UnixMilli()
	e.logger.Info("returning simulated payment acceptance",
		zap.String("method", string(req.Method)),
		zap.String("reference", req.Reference))

	return payment.PaymentResponse{
		Success:          true,
		Status:           payment.StatusPending,
		PaymentReference: fmt.Sprintf("%s_%d", referencePrefix(req.Method), now),
		TransactionID:    fmt.Sprintf("TXN_%d", now),
		Message:          "Payment initiated. Confirm the prompt on your phone to complete it.",
		AdditionalInfo: map[string]interface{}{
			"simulated":    true,
			"instructions": "Confirm the payment prompt sent to your phone",
			"timeout":      "300 seconds",
		},
	}
}

// SimulateStatus fabricates a status-check outcome. completeRate is the
// probability of the COMPLETED branch; most of the remainder stays PENDING.
func (e *Engine) SimulateStatus(ctx context.Context, reference string, completeRate float64) payment.PaymentResponse {
	e.sleep(ctx)

	p := e.roll()
	switch {
	case p < completeRate:
		return payment.PaymentResponse{
			Success:          true,
			Status:           payment.StatusCompleted,
			PaymentReference: reference,
			TransactionID:    reference,
			Message:          "Payment completed successfully.",
			AdditionalInfo: map[string]interface{}{
				"simulated": true,
			},
		}
	case p < completeRate+0.2:
		return payment.PaymentResponse{
			Success:          true,
			Status:           payment.StatusPending,
			PaymentReference: reference,
			TransactionID:    reference,
			Message:          "Payment is awaiting confirmation.",
			AdditionalInfo: map[string]interface{}{
				"simulated": true,
			},
		}
	default:
		return payment.PaymentResponse{
			Success:          false,
			Status:           payment.StatusFailed,
			PaymentReference: reference,
			Message:          "Payment failed.",
			AdditionalInfo: map[string]interface{}{
				"simulated": true,
			},
		}
	}
}

func (e *Engine) roll() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.rng.Float64()
}

// sleep imitates network latency without blocking past context cancellation.
func (e *Engine) sleep(ctx context.Context) {
	if e.delay <= 0 {
		return
	}
	select {
	case <-ctx.Done():
	case <-time.After(e.delay):
	}
}

func referencePrefix(method payment.PaymentMethod) string {
	switch method {
	case payment.MethodMTNMoMo:
		return "MOMO"
	case payment.MethodOrangeMoney:
		return "OM"
	default:
		return "SIM"
	}
}
