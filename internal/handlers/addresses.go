package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	domain "github.com/loomcart/storefront/internal/domain"
	"github.com/loomcart/storefront/internal/platform/httpx"
	"github.com/loomcart/storefront/internal/services"
)

// AddressHandlers exposes saved-address listing and draft validation.
type AddressHandlers struct {
	addresses services.AddressService
}

// NewAddressHandlers constructs address handlers.
func NewAddressHandlers(addresses services.AddressService) *AddressHandlers {
	return &AddressHandlers{addresses: addresses}
}

// Routes registers address endpoints under the provided router.
func (h *AddressHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Get("/", h.list)
	r.Post("/validate", h.validate)
}

func (h *AddressHandlers) list(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.addresses == nil {
		httpx.WriteError(ctx, w, httpx.NewError("addresses_unavailable", "address service unavailable", http.StatusServiceUnavailable))
		return
	}

	saved, err := h.addresses.ListSaved(ctx, sessionIDFromRequest(r))
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	payload := make([]addressPayload, 0, len(saved))
	for _, addr := range saved {
		payload = append(payload, newAddressPayload(addr))
	}
	writeJSONResponse(w, http.StatusOK, map[string]any{"addresses": payload})
}

type validateAddressRequest struct {
	AddressID string          `json:"addressId"`
	Address   *addressPayload `json:"address"`
}

// validate runs a draft address through the same resolution checkout uses,
// letting the storefront surface rejections before the shopper submits.
func (h *AddressHandlers) validate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.addresses == nil {
		httpx.WriteError(ctx, w, httpx.NewError("addresses_unavailable", "address service unavailable", http.StatusServiceUnavailable))
		return
	}

	var req validateAddressRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}

	mode, ok := addressModeFromRequest(req.AddressID, req.Address)
	if !ok {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "either addressId or address is required", http.StatusBadRequest))
		return
	}

	resolved, err := h.addresses.Resolve(ctx, services.ResolveAddressCommand{
		SessionID: sessionIDFromRequest(r),
		Mode:      mode,
	})
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	response := map[string]any{"valid": true}
	if resolved.AddressID != "" {
		response["addressId"] = resolved.AddressID
	}
	writeJSONResponse(w, http.StatusOK, response)
}

// addressModeFromRequest builds the saved-or-new selection, refusing requests
// that carry both or neither.
func addressModeFromRequest(addressID string, address *addressPayload) (domain.AddressMode, bool) {
	addressID = strings.TrimSpace(addressID)
	switch {
	case addressID != "" && address != nil:
		return domain.AddressMode{}, false
	case addressID != "":
		return domain.SavedAddress(addressID), true
	case address != nil:
		return domain.NewAddress(address.toDomain()), true
	default:
		return domain.AddressMode{}, false
	}
}
