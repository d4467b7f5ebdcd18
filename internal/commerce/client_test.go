package commerce

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/loomcart/storefront/internal/domain"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(Config{
		BaseURL:    server.URL,
		StoreCode:  "loom-main",
		APIKey:     "secret-key",
		HTTPClient: server.Client(),
	})
	if err != nil {
		t.Fatalf("failed to build client: %v", err)
	}
	return client
}

func TestNewClientRequiresBaseURL(t *testing.T) {
	if _, err := NewClient(Config{}); err == nil {
		t.Fatal("expected error for empty base URL")
	}
}

func TestClientSendsIdentityHeaders(t *testing.T) {
	var got http.Header
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		_, _ = w.Write([]byte(`{"Status":true}`))
	})

	if err := client.RefreshCustomer(context.Background(), Auth{Token: "tok-1"}); err != nil {
		t.Fatalf("RefreshCustomer returned error: %v", err)
	}
	if got.Get("Authorization") != "Bearer tok-1" {
		t.Fatalf("unexpected authorization header %q", got.Get("Authorization"))
	}
	if got.Get("X-Store-Code") != "loom-main" {
		t.Fatalf("unexpected store code header %q", got.Get("X-Store-Code"))
	}
	if got.Get("X-Api-Key") != "secret-key" {
		t.Fatalf("unexpected api key header %q", got.Get("X-Api-Key"))
	}
}

func TestClientServerErrorIsUnavailable(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	err := client.RefreshCustomer(context.Background(), Auth{})
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestClientFalseStatusIsRejection(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"Status":false,"Message":"promocode expired"}`))
	})

	_, err := client.ApplyPromocode(context.Background(), Auth{}, "SAVE10")
	rejection, ok := AsRejection(err)
	if !ok {
		t.Fatalf("expected rejection, got %v", err)
	}
	if rejection.Message != "promocode expired" {
		t.Fatalf("unexpected rejection message %q", rejection.Message)
	}
}

func TestClientMalformedBodyIsUnavailable(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"Status":`))
	})

	err := client.RefreshCustomer(context.Background(), Auth{})
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable for malformed body, got %v", err)
	}
}

func TestCheckServiceLocationBuildsShapePayloads(t *testing.T) {
	var body map[string]string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/check-service-location" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("failed to decode payload: %v", err)
		}
		_, _ = w.Write([]byte(`{"Status":true,"Location":"Springfield, OR"}`))
	})

	location, err := client.CheckServiceLocation(context.Background(), Auth{}, domain.PincodeQuery("97475"))
	if err != nil {
		t.Fatalf("CheckServiceLocation returned error: %v", err)
	}
	if location != "Springfield, OR" {
		t.Fatalf("unexpected location %q", location)
	}
	if body["type"] != "pincode" || body["customerPincode"] != "97475" {
		t.Fatalf("unexpected payload %#v", body)
	}
	if _, present := body["countryCode"]; present {
		t.Fatal("pincode payload should not carry anywhere-shape fields")
	}
}

func TestCreateOrderParsesPaymentDetails(t *testing.T) {
	var req CreateOrderRequest
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/order/create" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("failed to decode payload: %v", err)
		}
		_, _ = w.Write([]byte(`{
			"Status": true,
			"PaymentDetails": {"id": " pay-42 ", "amount": 1080, "currency": "inr"}
		}`))
	})

	result, err := client.CreateOrder(context.Background(), Auth{}, CreateOrderRequest{
		AddressID:    "addr-1",
		PaymentType:  domain.PaymentTypeGateway,
		ShippingType: "standard",
		Gateway:      "hosted",
	})
	if err != nil {
		t.Fatalf("CreateOrder returned error: %v", err)
	}
	if !result.HasPaymentDetails() {
		t.Fatal("expected payment details")
	}
	if result.PaymentOrderID != "pay-42" {
		t.Fatalf("unexpected payment order id %q", result.PaymentOrderID)
	}
	if result.Currency != "INR" {
		t.Fatalf("expected currency upper-cased, got %q", result.Currency)
	}
	if req.PaymentType != domain.PaymentTypeGateway || req.Gateway != "hosted" {
		t.Fatalf("unexpected request payload %#v", req)
	}
}

func TestCreateOrderParsesDirectOrder(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"Status":true,"Order":{"OrderId":"ord-7"}}`))
	})

	result, err := client.CreateOrder(context.Background(), Auth{}, CreateOrderRequest{
		AddressID:    "addr-1",
		PaymentType:  domain.PaymentTypeCOD,
		ShippingType: "standard",
	})
	if err != nil {
		t.Fatalf("CreateOrder returned error: %v", err)
	}
	if result.OrderID != "ord-7" {
		t.Fatalf("unexpected order id %q", result.OrderID)
	}
	if result.HasPaymentDetails() {
		t.Fatal("COD order should not carry payment details")
	}
}

func TestCreatePaidOrderUsesV2Route(t *testing.T) {
	var body map[string]string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v2/order/create" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("failed to decode payload: %v", err)
		}
		_, _ = w.Write([]byte(`{"Status":true,"OrderID":"ord-88"}`))
	})

	orderID, err := client.CreatePaidOrder(context.Background(), Auth{}, "addr-3", "standard", "pay-42")
	if err != nil {
		t.Fatalf("CreatePaidOrder returned error: %v", err)
	}
	if orderID != "ord-88" {
		t.Fatalf("unexpected order id %q", orderID)
	}
	if body["paymentOrderId"] != "pay-42" || body["addressId"] != "addr-3" {
		t.Fatalf("unexpected payload %#v", body)
	}
}

func TestGetCartFiltersDeadLines(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{
			"Status": true,
			"Cart": {
				"id": "cart-1",
				"items": [
					{"productId": "p1", "quantity": 2, "unitPrice": 500, "currency": "INR"},
					{"productId": "p2", "quantity": 0, "unitPrice": 300, "currency": "INR"}
				],
				"currency": "INR",
				"subtotal": 1000,
				"discount": 0,
				"finalPrice": 1000,
				"updatedAt": "2025-03-01T10:00:00Z"
			}
		}`))
	})

	cart, err := client.GetCart(context.Background(), Auth{})
	if err != nil {
		t.Fatalf("GetCart returned error: %v", err)
	}
	if len(cart.Items) != 1 {
		t.Fatalf("expected zero-quantity line dropped, got %d items", len(cart.Items))
	}
	if cart.FinalPrice != 1000 {
		t.Fatalf("unexpected final price %d", cart.FinalPrice)
	}
	if cart.UpdatedAt.IsZero() {
		t.Fatal("expected updatedAt to be parsed")
	}
}

func TestApplyPromocodeReturnsServerMessage(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/promocode/apply" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"Status":true,"Message":"10% off applied"}`))
	})

	message, err := client.ApplyPromocode(context.Background(), Auth{}, "SAVE10")
	if err != nil {
		t.Fatalf("ApplyPromocode returned error: %v", err)
	}
	if message != "10% off applied" {
		t.Fatalf("unexpected message %q", message)
	}
}
