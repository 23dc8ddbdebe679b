package billing

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestCreatePreference(t *testing.T) {
	var gotAuth, gotIdemKey string
	var gotBody PreferenceRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/checkout/preferences" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")
		gotIdemKey = r.Header.Get("X-Idempotency-Key")
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"pref_1","init_point":"https://mp/init","sandbox_init_point":"https://mp/sandbox"}`))
	}))
	defer srv.Close()

	client := &MercadoPagoClient{AccessToken: "tok", APIBaseURL: srv.URL}

	pref, err := client.CreatePreference(context.Background(), PreferenceRequest{
		Items:             []PreferenceItem{{Title: "Plano PRO", Quantity: 1, CurrencyID: "BRL", UnitPrice: 19.90}},
		ExternalReference: "alice:pro:1",
	})
	if err != nil {
		t.Fatalf("CreatePreference: %v", err)
	}
	if pref.ID != "pref_1" || pref.InitPoint != "https://mp/init" {
		t.Fatalf("preference = %+v", pref)
	}
	if gotAuth != "Bearer tok" {
		t.Fatalf("authorization = %q", gotAuth)
	}
	if gotIdemKey == "" {
		t.Fatal("missing X-Idempotency-Key header")
	}
	if gotBody.ExternalReference != "alice:pro:1" {
		t.Fatalf("external reference on wire = %q", gotBody.ExternalReference)
	}
}

func TestCreatePreferenceUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"message":"invalid item"}`))
	}))
	defer srv.Close()

	client := &MercadoPagoClient{AccessToken: "tok", APIBaseURL: srv.URL}

	_, err := client.CreatePreference(context.Background(), PreferenceRequest{})
	if err == nil {
		t.Fatal("expected error on 400 response")
	}
	if !strings.Contains(err.Error(), "status=400") {
		t.Fatalf("err = %v, want status code in message", err)
	}
}

func TestCreatePreferenceWithoutToken(t *testing.T) {
	client := &MercadoPagoClient{}
	if _, err := client.CreatePreference(context.Background(), PreferenceRequest{}); err == nil {
		t.Fatal("expected error without access token")
	}
}

func TestGetPayment(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/payments/123" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer tok" {
			t.Errorf("authorization = %q", r.Header.Get("Authorization"))
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":123,"status":"approved","external_reference":"alice:pro:1","transaction_amount":19.9,"payer":{"email":"a@b.c"}}`))
	}))
	defer srv.Close()

	client := &MercadoPagoClient{AccessToken: "tok", APIBaseURL: srv.URL}

	payment, err := client.GetPayment(context.Background(), "123")
	if err != nil {
		t.Fatalf("GetPayment: %v", err)
	}
	if payment.ID.String() != "123" {
		t.Fatalf("id = %s", payment.ID)
	}
	if payment.Status != "approved" || payment.ExternalReference != "alice:pro:1" {
		t.Fatalf("payment = %+v", payment)
	}
	if payment.Payer.Email != "a@b.c" {
		t.Fatalf("payer email = %q", payment.Payer.Email)
	}
}

func TestGetPaymentNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	client := &MercadoPagoClient{AccessToken: "tok", APIBaseURL: srv.URL}

	if _, err := client.GetPayment(context.Background(), "nope"); err == nil {
		t.Fatal("expected error on 404")
	}
}
