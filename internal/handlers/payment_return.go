package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/loomcart/storefront/internal/platform/httpx"
	"github.com/loomcart/storefront/internal/services"
)

// PaymentHandlers serves the gateway return landing. The hosted gateway
// redirects the shopper back here with its outcome in the query string.
type PaymentHandlers struct {
	reconciliation services.ReconciliationService
}

// NewPaymentHandlers constructs payment return handlers.
func NewPaymentHandlers(reconciliation services.ReconciliationService) *PaymentHandlers {
	return &PaymentHandlers{reconciliation: reconciliation}
}

// Routes registers payment endpoints under the provided router.
func (h *PaymentHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Get("/return", h.handleReturn)
}

type paymentReturnResponse struct {
	State       string `json:"state"`
	OrderID     string `json:"orderId,omitempty"`
	RedirectURL string `json:"redirectUrl,omitempty"`
	Message     string `json:"message,omitempty"`
}

func (h *PaymentHandlers) handleReturn(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.reconciliation == nil {
		httpx.WriteError(ctx, w, httpx.NewError("payments_unavailable", "payment reconciliation unavailable", http.StatusServiceUnavailable))
		return
	}

	result := h.reconciliation.Begin(services.ReconcileCommand{
		SessionID:    sessionIDFromRequest(r),
		Params:       r.URL.Query(),
		ShippingType: r.URL.Query().Get("shippingType"),
	}).Run(ctx)

	status := http.StatusOK
	switch result.State {
	case services.ReconcilePending:
		status = http.StatusAccepted
	case services.ReconcileFailed:
		status = http.StatusUnprocessableEntity
	}

	writeJSONResponse(w, status, paymentReturnResponse{
		State:       string(result.State),
		OrderID:     result.OrderID,
		RedirectURL: result.RedirectURL,
		// Failure messages originate at the gateway (tx_msg) or the commerce
		// API and are surfaced to the shopper, so strip any markup first.
		Message: httpx.RemoteMessage(result.Message),
	})
}
