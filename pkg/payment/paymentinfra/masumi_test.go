package paymentinfra_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Abraxas-365/workgate/pkg/payment"
	"github.com/Abraxas-365/workgate/pkg/payment/paymentinfra"
)

func TestCreatePurchase(t *testing.T) {
	var gotAuth string
	var gotBody map[string]string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/purchase" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")
		json.NewDecoder(r.Body).Decode(&gotBody)
		json.NewEncoder(w).Encode(map[string]string{"payment_id": "pay_abc"})
	}))
	defer server.Close()

	gw := paymentinfra.NewMasumiGateway(server.URL, "secret-key", "Preprod", "agent-1", server.Client())

	purchase, err := gw.CreatePurchase(context.Background(), payment.PurchaseRequest{JobID: "job-1"})
	if err != nil {
		t.Fatalf("create purchase: %v", err)
	}
	if purchase.PaymentID != "pay_abc" {
		t.Fatalf("unexpected payment id %q", purchase.PaymentID)
	}

	if gotAuth != "Bearer secret-key" {
		t.Fatalf("unexpected auth header %q", gotAuth)
	}
	if gotBody["agent_identifier"] != "agent-1" || gotBody["network"] != "Preprod" || gotBody["identifier"] != "job-1" {
		t.Fatalf("unexpected request body %v", gotBody)
	}
}

func TestCreatePurchaseRejectsEmptyReference(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{})
	}))
	defer server.Close()

	gw := paymentinfra.NewMasumiGateway(server.URL, "k", "Preprod", "agent-1", server.Client())
	if _, err := gw.CreatePurchase(context.Background(), payment.PurchaseRequest{JobID: "job-1"}); err == nil {
		t.Fatal("purchase without payment id must fail")
	}
}

func TestGetPurchaseStatusMapping(t *testing.T) {
	cases := []struct {
		processor string
		resolved  bool
		outcome   payment.Outcome
	}{
		{"pending", false, ""},
		{"confirmed", true, payment.OutcomeConfirmed},
		{"FundsLocked", true, payment.OutcomeConfirmed},
		{"Withdrawn", true, payment.OutcomeConfirmed},
		{"rejected", true, payment.OutcomeRejected},
		{"RefundRequested", true, payment.OutcomeRejected},
		{"Refunded", true, payment.OutcomeRejected},
		{"SomethingNew", false, ""},
	}

	for _, c := range cases {
		t.Run(c.processor, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/purchase/pay_1/status" {
					t.Errorf("unexpected path %s", r.URL.Path)
				}
				json.NewEncoder(w).Encode(map[string]string{"payment_id": "pay_1", "status": c.processor})
			}))
			defer server.Close()

			gw := paymentinfra.NewMasumiGateway(server.URL, "k", "Preprod", "agent-1", server.Client())
			status, err := gw.GetPurchaseStatus(context.Background(), "pay_1")
			if err != nil {
				t.Fatalf("status: %v", err)
			}
			if status.Resolved != c.resolved || status.Outcome != c.outcome {
				t.Fatalf("status %q mapped to %+v", c.processor, status)
			}
		})
	}
}

func TestRetriesOnServerError(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		json.NewEncoder(w).Encode(map[string]string{"payment_id": "pay_1", "status": "confirmed"})
	}))
	defer server.Close()

	gw := paymentinfra.NewMasumiGateway(server.URL, "k", "Preprod", "agent-1", server.Client())
	status, err := gw.GetPurchaseStatus(context.Background(), "pay_1")
	if err != nil {
		t.Fatalf("status after retry: %v", err)
	}
	if attempts != 2 || !status.Resolved {
		t.Fatalf("expected one retry, got %d attempts (%+v)", attempts, status)
	}
}

func TestDoesNotRetryClientErrors(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	gw := paymentinfra.NewMasumiGateway(server.URL, "k", "Preprod", "agent-1", server.Client())
	if _, err := gw.GetPurchaseStatus(context.Background(), "pay_gone"); err == nil {
		t.Fatal("expected error")
	}
	if attempts != 1 {
		t.Fatalf("4xx must not be retried, got %d attempts", attempts)
	}
}
