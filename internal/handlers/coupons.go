package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/loomcart/storefront/internal/platform/httpx"
	"github.com/loomcart/storefront/internal/services"
)

// CouponHandlers exposes promocode application and removal on the cart.
type CouponHandlers struct {
	coupons services.CouponService
}

// NewCouponHandlers constructs coupon handlers.
func NewCouponHandlers(coupons services.CouponService) *CouponHandlers {
	return &CouponHandlers{coupons: coupons}
}

// Routes registers coupon endpoints under the provided router.
func (h *CouponHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Post("/promocode", h.apply)
	r.Delete("/promocode", h.remove)
}

type applyCouponRequest struct {
	Code string `json:"code"`
}

type couponResponse struct {
	Cart    cartPayload `json:"cart"`
	Message string      `json:"message,omitempty"`
}

func (h *CouponHandlers) apply(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.coupons == nil {
		httpx.WriteError(ctx, w, httpx.NewError("coupons_unavailable", "coupon service unavailable", http.StatusServiceUnavailable))
		return
	}

	var req applyCouponRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}

	result, err := h.coupons.Apply(ctx, services.ApplyCouponCommand{
		SessionID: sessionIDFromRequest(r),
		Code:      req.Code,
	})
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, couponResponse{
		Cart:    newCartPayload(result.Cart),
		Message: result.Message,
	})
}

func (h *CouponHandlers) remove(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.coupons == nil {
		httpx.WriteError(ctx, w, httpx.NewError("coupons_unavailable", "coupon service unavailable", http.StatusServiceUnavailable))
		return
	}

	result, err := h.coupons.Remove(ctx, services.RemoveCouponCommand{
		SessionID: sessionIDFromRequest(r),
	})
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, couponResponse{Cart: newCartPayload(result.Cart)})
}
