package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	domain "github.com/loomcart/storefront/internal/domain"
	"github.com/loomcart/storefront/internal/platform/httpx"
	"github.com/loomcart/storefront/internal/services"
	"github.com/loomcart/storefront/internal/session"
)

const (
	sessionHeader = "X-Session-Id"
	sessionCookie = "storefront_session"

	maxRequestBody = 8 * 1024
)

var (
	errEmptyBody    = errors.New("request body is required")
	errBodyTooLarge = errors.New("request body exceeds the allowed size")
)

func readLimitedBody(r *http.Request, limit int64) ([]byte, error) {
	if r == nil || r.Body == nil {
		return nil, errEmptyBody
	}
	if limit <= 0 {
		limit = maxRequestBody
	}
	reader := io.LimitReader(r.Body, limit+1)
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, err
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, errEmptyBody
	}
	if int64(len(data)) > limit {
		return nil, errBodyTooLarge
	}
	return data, nil
}

// decodeJSONBody reads and unmarshals the request body, writing the error
// envelope itself on failure.
func decodeJSONBody(w http.ResponseWriter, r *http.Request, out any) bool {
	ctx := r.Context()
	body, err := readLimitedBody(r, maxRequestBody)
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, errBodyTooLarge) {
			status = http.StatusRequestEntityTooLarge
		}
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), status))
		return false
	}
	if err := json.Unmarshal(body, out); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "request body must be valid JSON", http.StatusBadRequest))
		return false
	}
	return true
}

// sessionIDFromRequest resolves the caller's session: the header wins over
// the cookie so API clients can override a stale browser cookie.
func sessionIDFromRequest(r *http.Request) string {
	if id := strings.TrimSpace(r.Header.Get(sessionHeader)); id != "" {
		return id
	}
	if cookie, err := r.Cookie(sessionCookie); err == nil {
		return strings.TrimSpace(cookie.Value)
	}
	return ""
}

func writeJSONResponse(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// remoteUserMessage extracts the rejection message and sanitises it; rejection
// messages originate at the remote commerce API and may carry markup.
func remoteUserMessage(err error, fallback string) string {
	return httpx.RemoteMessageOr(services.UserMessage(err, ""), fallback)
}

// writeServiceError maps the service error taxonomy onto the HTTP envelope.
// Recoverable rejections keep the server's message; anything unmapped is a 500.
func writeServiceError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrValidationRejected):
		httpx.WriteError(ctx, w, httpx.NewError("validation_rejected", remoteUserMessage(err, "invalid request"), http.StatusBadRequest))
	case errors.Is(err, services.ErrServiceabilityRejected):
		httpx.WriteError(ctx, w, httpx.NewError("serviceability_rejected", remoteUserMessage(err, "serviceability check failed"), http.StatusUnprocessableEntity))
	case errors.Is(err, services.ErrCouponRejected):
		httpx.WriteError(ctx, w, httpx.NewError("coupon_rejected", remoteUserMessage(err, "promocode could not be applied"), http.StatusUnprocessableEntity))
	case errors.Is(err, services.ErrOrderSubmissionFailed):
		httpx.WriteError(ctx, w, httpx.NewError("order_submission_failed", remoteUserMessage(err, "order could not be submitted"), http.StatusBadGateway))
	case errors.Is(err, services.ErrReconciliationFailed):
		httpx.WriteError(ctx, w, httpx.NewError("reconciliation_failed", remoteUserMessage(err, "payment could not be confirmed"), http.StatusBadGateway))
	case errors.Is(err, session.ErrNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("session_expired", "session expired, sign in again", http.StatusUnauthorized))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("internal_error", "something went wrong", http.StatusInternalServerError))
	}
}

// cartPayload is the wire form of the cart returned after coupon mutations.
type cartPayload struct {
	ID                string            `json:"id,omitempty"`
	Items             []cartItemPayload `json:"items"`
	Currency          string            `json:"currency,omitempty"`
	Subtotal          int64             `json:"subtotal"`
	Discount          int64             `json:"discount"`
	FinalPrice        int64             `json:"finalPrice"`
	Promocode         string            `json:"promocode,omitempty"`
	PromocodeDiscount int64             `json:"promocodeDiscount,omitempty"`
	UpdatedAt         string            `json:"updatedAt,omitempty"`
}

type cartItemPayload struct {
	ProductID string `json:"productId"`
	VariantID string `json:"variantId,omitempty"`
	Quantity  int    `json:"quantity"`
	UnitPrice int64  `json:"unitPrice"`
	Currency  string `json:"currency,omitempty"`
}

func newCartPayload(cart domain.Cart) cartPayload {
	items := make([]cartItemPayload, 0, len(cart.Items))
	for _, item := range cart.Items {
		items = append(items, cartItemPayload{
			ProductID: item.ProductID,
			VariantID: item.VariantID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
			Currency:  item.Currency,
		})
	}
	payload := cartPayload{
		ID:                cart.ID,
		Items:             items,
		Currency:          cart.Currency,
		Subtotal:          cart.Subtotal,
		Discount:          cart.Discount,
		FinalPrice:        cart.FinalPrice,
		Promocode:         cart.Promocode,
		PromocodeDiscount: cart.PromocodeDiscount,
	}
	if !cart.UpdatedAt.IsZero() {
		payload.UpdatedAt = cart.UpdatedAt.UTC().Format(time.RFC3339)
	}
	return payload
}

// addressPayload is the wire form of a saved address.
type addressPayload struct {
	ID            string `json:"id,omitempty"`
	FirstName     string `json:"firstName"`
	LastName      string `json:"lastName"`
	PhoneNumber   string `json:"phoneNumber"`
	Email         string `json:"email,omitempty"`
	CountryID     string `json:"countryId"`
	StateID       string `json:"stateId,omitempty"`
	City          string `json:"city"`
	PostalCode    string `json:"postalCode"`
	StreetAddress string `json:"streetAddress"`
	AddressLine2  string `json:"addressLine2,omitempty"`
}

func newAddressPayload(addr domain.Address) addressPayload {
	return addressPayload{
		ID:            addr.ID,
		FirstName:     addr.FirstName,
		LastName:      addr.LastName,
		PhoneNumber:   addr.PhoneNumber,
		Email:         addr.Email,
		CountryID:     addr.CountryID,
		StateID:       addr.StateID,
		City:          addr.City,
		PostalCode:    addr.PostalCode,
		StreetAddress: addr.StreetAddress,
		AddressLine2:  addr.AddressLine2,
	}
}

func (p addressPayload) toDomain() domain.Address {
	return domain.Address{
		ID:            p.ID,
		FirstName:     p.FirstName,
		LastName:      p.LastName,
		PhoneNumber:   p.PhoneNumber,
		Email:         p.Email,
		CountryID:     p.CountryID,
		StateID:       p.StateID,
		City:          p.City,
		PostalCode:    p.PostalCode,
		StreetAddress: p.StreetAddress,
		AddressLine2:  p.AddressLine2,
	}
}
