package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	domain "github.com/loomcart/storefront/internal/domain"
	"github.com/loomcart/storefront/internal/platform/httpx"
	"github.com/loomcart/storefront/internal/services"
)

// CheckoutHandlers exposes order submission.
type CheckoutHandlers struct {
	checkout services.CheckoutService
}

// NewCheckoutHandlers constructs checkout handlers.
func NewCheckoutHandlers(checkout services.CheckoutService) *CheckoutHandlers {
	return &CheckoutHandlers{checkout: checkout}
}

// Routes registers checkout endpoints under the provided router.
func (h *CheckoutHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Post("/submit", h.submit)
}

type submitOrderRequest struct {
	PaymentMode   string          `json:"paymentMode"`
	AddressID     string          `json:"addressId"`
	Address       *addressPayload `json:"address"`
	TermsAccepted bool            `json:"termsAccepted"`
	ShippingType  string          `json:"shippingType"`
	Gateway       string          `json:"gateway"`
}

type paymentIntentPayload struct {
	Gateway       string `json:"gateway"`
	Amount        int64  `json:"amount"`
	Currency      string `json:"currency"`
	OrderIntentID string `json:"orderIntentId"`
}

type submitOrderResponse struct {
	State           string                `json:"state"`
	OrderID         string                `json:"orderId,omitempty"`
	ConfirmationURL string                `json:"confirmationUrl,omitempty"`
	Payment         *paymentIntentPayload `json:"payment,omitempty"`
}

func (h *CheckoutHandlers) submit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.checkout == nil {
		httpx.WriteError(ctx, w, httpx.NewError("checkout_unavailable", "checkout service unavailable", http.StatusServiceUnavailable))
		return
	}

	var req submitOrderRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}

	mode, ok := paymentModeFromRequest(req.PaymentMode)
	if !ok {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "paymentMode must be cod or online", http.StatusBadRequest))
		return
	}

	addressMode, ok := addressModeFromRequest(req.AddressID, req.Address)
	if !ok {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "either addressId or address is required", http.StatusBadRequest))
		return
	}

	result, err := h.checkout.Submit(ctx, services.SubmitOrderCommand{
		SessionID:     sessionIDFromRequest(r),
		Mode:          mode,
		Address:       addressMode,
		TermsAccepted: req.TermsAccepted,
		ShippingType:  req.ShippingType,
		Gateway:       req.Gateway,
	})
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	response := submitOrderResponse{
		State:           string(result.State),
		OrderID:         result.OrderID,
		ConfirmationURL: result.ConfirmationURL,
	}
	if result.Intent != nil {
		response.Payment = &paymentIntentPayload{
			Gateway:       result.Intent.Gateway,
			Amount:        result.Intent.Amount,
			Currency:      result.Intent.Currency,
			OrderIntentID: result.Intent.OrderIntentID,
		}
	}
	writeJSONResponse(w, http.StatusOK, response)
}

func paymentModeFromRequest(raw string) (domain.PaymentMode, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case string(domain.PaymentModeCOD):
		return domain.PaymentModeCOD, true
	case string(domain.PaymentModeOnline):
		return domain.PaymentModeOnline, true
	default:
		return "", false
	}
}
