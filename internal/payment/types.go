package payment

// PaymentMethod identifies how the customer pays.
type PaymentMethod string

const (
	MethodMTNMoMo     PaymentMethod = "MTN_MOMO"
	MethodOrangeMoney PaymentMethod = "ORANGE_MONEY"
	MethodCash        PaymentMethod = "CASH"
)

// PaymentStatus is the lifecycle state of a payment attempt.
type PaymentStatus string

const (
	StatusPending   PaymentStatus = "PENDING"
	StatusCompleted PaymentStatus = "COMPLETED"
	StatusFailed    PaymentStatus = "FAILED"
)

// PaymentRequest is the provider-agnostic payment attempt supplied by the
// checkout flow. Reference is the caller's idempotency key and must be unique
// per attempt.
type PaymentRequest struct {
	Amount        float64                `json:"amount"`
	Currency      string                 `json:"currency"`
	Method        PaymentMethod          `json:"method"`
	CustomerPhone string                 `json:"customerPhone,omitempty"`
	CustomerEmail string                 `json:"customerEmail,omitempty"`
	CustomerName  string                 `json:"customerName,omitempty"`
	Reference     string                 `json:"reference"`
	Description   string                 `json:"description"`
	Metadata      map[string]interface{} `json:"metadata,omitempty"`
}

// PaymentResponse is the uniform outcome returned for every payment attempt,
// regardless of which provider (or the simulation path) handled it.
// Success never co-occurs with StatusFailed. A PENDING response always
// carries a PaymentReference or TransactionID usable for a later status
// check, except CASH, whose reference is a local marker.
type PaymentResponse struct {
	Success          bool                   `json:"success"`
	Status           PaymentStatus          `json:"status"`
	PaymentReference string                 `json:"paymentReference,omitempty"`
	TransactionID    string                 `json:"transactionId,omitempty"`
	Message          string                 `json:"message,omitempty"`
	PaymentURL       string                 `json:"paymentUrl,omitempty"`
	AdditionalInfo   map[string]interface{} `json:"additionalInfo,omitempty"`
}

// Simulated reports whether this response was produced by the simulation
// path rather than a live provider.
func (r PaymentResponse) Simulated() bool {
	if r.AdditionalInfo == nil {
		return false
	}
	simulated, _ := r.AdditionalInfo["simulated"].(bool)
	return simulated
}

// Failed builds a FAILED response with a corrective message.
func Failed(message string) PaymentResponse {
	return PaymentResponse{
		Success: false,
		Status:  StatusFailed,
		Message: message,
	}
}
