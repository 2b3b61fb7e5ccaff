package momo

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"github.com/nkd-hd/sunshine-payments/internal/config"
	"github.com/nkd-hd/sunshine-payments/internal/payment"
	"github.com/nkd-hd/sunshine-payments/internal/simulate"
)

func testRequest() payment.PaymentRequest {
	return payment.PaymentRequest{
		Amount:        5000,
		Currency:      "XAF",
		Method:        payment.MethodMTNMoMo,
		CustomerPhone: "+237670123456",
		Reference:     "R1",
		Description:   "Table booking",
	}
}

func testClient(cfg *config.MoMoConfig) *Client {
	sim := simulate.NewEngine(zap.NewNop()).WithDelay(0)
	return NewClient(cfg, sim, zap.NewNop())
}

// momoServer answers the token exchange and returns initiateStatus for
// request-to-pay calls.
func momoServer(t *testing.T, initiateStatus int, onInitiate func(r *http.Request)) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/collection/token/":
			w.Write([]byte(`{"access_token":"tok-123","expires_in":3600}`))
		case "/collection/v1_0/requesttopay":
			if onInitiate != nil {
				onInitiate(r)
			}
			w.WriteHeader(initiateStatus)
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
}

func TestInitiateRequiresPhone(t *testing.T) {
	c := testClient(&config.MoMoConfig{})
	req := testRequest()
	req.CustomerPhone = ""

	resp := c.Initiate(context.Background(), req)
	if resp.Success || resp.Status != payment.StatusFailed {
		t.Fatalf("expected FAILED, got %+v", resp)
	}
	if resp.Simulated() {
		t.Error("validation failure must not be a simulated outcome")
	}
}

func TestInitiateRejectsNonMTNNumber(t *testing.T) {
	c := testClient(&config.MoMoConfig{})
	req := testRequest()
	req.CustomerPhone = "+237690123456" // Orange prefix

	resp := c.Initiate(context.Background(), req)
	if resp.Success || resp.Status != payment.StatusFailed {
		t.Fatalf("expected FAILED, got %+v", resp)
	}
}

func TestInitiateSimulatesWhenUnconfigured(t *testing.T) {
	c := testClient(&config.MoMoConfig{})

	resp := c.Initiate(context.Background(), testRequest())
	if !resp.Simulated() {
		t.Fatal("expected a simulated outcome without credentials")
	}
	if resp.Status != payment.StatusPending && resp.Status != payment.StatusFailed {
		t.Fatalf("unexpected status %s", resp.Status)
	}
	if resp.Status == payment.StatusPending && resp.PaymentReference == "" {
		t.Error("simulated PENDING must carry a payment reference")
	}
}

func TestInitiateAcceptedYieldsPending(t *testing.T) {
	var gotReferenceID string
	var gotBody map[string]interface{}
	srv := momoServer(t, http.StatusAccepted, func(r *http.Request) {
		gotReferenceID = r.Header.Get("X-Reference-Id")
		if r.Header.Get("Authorization") != "Bearer tok-123" {
			t.Errorf("missing bearer token, got %q", r.Header.Get("Authorization"))
		}
		if r.Header.Get("X-Target-Environment") != "sandbox" {
			t.Errorf("missing target environment header")
		}
		json.NewDecoder(r.Body).Decode(&gotBody)
	})
	defer srv.Close()

	c := testClient(testMoMoConfig(srv.URL))
	resp := c.Initiate(context.Background(), testRequest())

	if !resp.Success || resp.Status != payment.StatusPending {
		t.Fatalf("expected PENDING success, got %+v", resp)
	}
	if resp.PaymentReference != gotReferenceID || resp.TransactionID != gotReferenceID {
		t.Errorf("response must echo the correlation id %q, got ref=%q txn=%q",
			gotReferenceID, resp.PaymentReference, resp.TransactionID)
	}
	if resp.Simulated() {
		t.Error("live acceptance must not be marked simulated")
	}
	if gotBody["amount"] != "5000" {
		t.Errorf("amount should be the string \"5000\", got %v", gotBody["amount"])
	}
	if gotBody["currency"] != "EUR" {
		t.Errorf("sandbox must settle in EUR, got %v", gotBody["currency"])
	}
	payer, _ := gotBody["payer"].(map[string]interface{})
	if payer["partyId"] != "237670123456" {
		t.Errorf("phone not normalized: %v", payer["partyId"])
	}
}

func TestInitiateErrorStatusMapping(t *testing.T) {
	cases := []struct {
		status  int
		wantSim bool
	}{
		{http.StatusBadRequest, false},
		{http.StatusUnauthorized, false},
		{http.StatusConflict, false},
		{http.StatusOK, false}, // success-class but not accepted
		{http.StatusInternalServerError, true},
		{http.StatusServiceUnavailable, true},
	}

	for _, tc := range cases {
		srv := momoServer(t, tc.status, nil)
		c := testClient(testMoMoConfig(srv.URL))

		resp := c.Initiate(context.Background(), testRequest())
		if resp.Simulated() != tc.wantSim {
			t.Errorf("status %d: simulated=%v, want %v", tc.status, resp.Simulated(), tc.wantSim)
		}
		if !tc.wantSim && (resp.Success || resp.Status != payment.StatusFailed) {
			t.Errorf("status %d: expected FAILED, got %+v", tc.status, resp)
		}
		srv.Close()
	}
}

func TestInitiateTransportErrorFallsBack(t *testing.T) {
	cfg := testMoMoConfig("http://127.0.0.1:1") // nothing listens here
	c := testClient(cfg)

	resp := c.Initiate(context.Background(), testRequest())
	if !resp.Simulated() {
		t.Fatal("transport error must fall back to simulation")
	}
}

func TestPollStatusMapping(t *testing.T) {
	cases := []struct {
		provider string
		want     payment.PaymentStatus
		wantOK   bool
	}{
		{"SUCCESSFUL", payment.StatusCompleted, true},
		{"PENDING", payment.StatusPending, true},
		{"FAILED", payment.StatusFailed, false},
		{"REVERSED", payment.StatusFailed, false}, // unknown vocabulary
	}

	for _, tc := range cases {
		t.Run(tc.provider, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				switch r.URL.Path {
				case "/collection/token/":
					w.Write([]byte(`{"access_token":"tok-123","expires_in":3600}`))
				case "/collection/v1_0/requesttopay/TXN-1":
					json.NewEncoder(w).Encode(map[string]string{"status": tc.provider})
				default:
					w.WriteHeader(http.StatusNotFound)
				}
			}))
			defer srv.Close()

			c := testClient(testMoMoConfig(srv.URL))
			resp := c.Poll(context.Background(), "TXN-1")

			if resp.Status != tc.want {
				t.Errorf("provider status %s mapped to %s, want %s", tc.provider, resp.Status, tc.want)
			}
			if resp.Success != tc.wantOK {
				t.Errorf("provider status %s: success=%v, want %v", tc.provider, resp.Success, tc.wantOK)
			}
		})
	}
}

func TestPollErrorDoesNotSimulate(t *testing.T) {
	cfg := testMoMoConfig("http://127.0.0.1:1")
	c := testClient(cfg)

	resp := c.Poll(context.Background(), "TXN-1")
	if resp.Simulated() {
		t.Fatal("a failed poll must not invent a simulated answer")
	}
	if resp.Success || resp.Status != payment.StatusFailed {
		t.Fatalf("expected FAILED, got %+v", resp)
	}
}

func TestPollSimulatesWhenUnconfigured(t *testing.T) {
	c := testClient(&config.MoMoConfig{})

	resp := c.Poll(context.Background(), "TXN-1")
	if !resp.Simulated() {
		t.Fatal("unconfigured poll should return a simulated status")
	}
	if resp.PaymentReference != "TXN-1" {
		t.Errorf("reference not echoed: %q", resp.PaymentReference)
	}
}
