package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/loomcart/storefront/internal/commerce"
	domain "github.com/loomcart/storefront/internal/domain"
	"github.com/loomcart/storefront/internal/platform/httpx"
	"github.com/loomcart/storefront/internal/session"
)

// orderFetcher is the commerce call the order lookup needs.
type orderFetcher interface {
	GetOrder(ctx context.Context, auth commerce.Auth, orderID string) (domain.Order, error)
}

type orderSessions interface {
	Get(sessionID string) (session.Values, error)
}

// OrderHandlers serves order lookups for confirmation pages.
type OrderHandlers struct {
	commerce orderFetcher
	sessions orderSessions
}

// NewOrderHandlers constructs order handlers.
func NewOrderHandlers(fetcher orderFetcher, sessions orderSessions) *OrderHandlers {
	return &OrderHandlers{commerce: fetcher, sessions: sessions}
}

// Routes registers order endpoints under the provided router.
func (h *OrderHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Get("/{orderID}", h.get)
}

type orderResponse struct {
	ID          string `json:"id"`
	OrderNumber string `json:"orderNumber,omitempty"`
	Status      string `json:"status"`
	Currency    string `json:"currency,omitempty"`
	Total       int64  `json:"total"`
	PlacedAt    string `json:"placedAt,omitempty"`
}

func (h *OrderHandlers) get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.commerce == nil {
		httpx.WriteError(ctx, w, httpx.NewError("orders_unavailable", "order lookups unavailable", http.StatusServiceUnavailable))
		return
	}

	orderID := strings.TrimSpace(chi.URLParam(r, "orderID"))
	if orderID == "" {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "order id is required", http.StatusBadRequest))
		return
	}

	auth := commerce.Auth{}
	if h.sessions != nil {
		if values, err := h.sessions.Get(sessionIDFromRequest(r)); err == nil {
			auth.Token = values.AuthToken()
		}
	}

	order, err := h.commerce.GetOrder(ctx, auth, orderID)
	if err != nil {
		if rejection, ok := commerce.AsRejection(err); ok {
			httpx.WriteError(ctx, w, httpx.NewError("order_not_found", httpx.RemoteMessageOr(rejection.Message, "order not found"), http.StatusNotFound))
			return
		}
		httpx.WriteError(ctx, w, httpx.NewError("orders_unavailable", "order lookup failed, try again", http.StatusBadGateway))
		return
	}

	payload := orderResponse{
		ID:          order.ID,
		OrderNumber: order.OrderNumber,
		Status:      order.Status,
		Currency:    order.Currency,
		Total:       order.Total,
	}
	if !order.PlacedAt.IsZero() {
		payload.PlacedAt = order.PlacedAt.UTC().Format(time.RFC3339)
	}
	writeJSONResponse(w, http.StatusOK, payload)
}
