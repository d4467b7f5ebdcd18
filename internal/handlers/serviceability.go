package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	domain "github.com/loomcart/storefront/internal/domain"
	"github.com/loomcart/storefront/internal/platform/httpx"
	"github.com/loomcart/storefront/internal/services"
)

// ServiceabilityHandlers exposes the deliverability checks the storefront
// runs before and during checkout.
type ServiceabilityHandlers struct {
	serviceability services.ServiceabilityService
	shape          domain.ServiceShape
	countryCode    string
	state          string
}

// NewServiceabilityHandlers constructs serviceability handlers bound to the
// store's configured service-area shape.
func NewServiceabilityHandlers(svc services.ServiceabilityService, shape domain.ServiceShape, countryCode, state string) *ServiceabilityHandlers {
	return &ServiceabilityHandlers{
		serviceability: svc,
		shape:          shape,
		countryCode:    countryCode,
		state:          state,
	}
}

// Routes registers serviceability endpoints under the provided router.
func (h *ServiceabilityHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Post("/phone", h.checkPhone)
	r.Post("/postal", h.checkPostal)
	r.Post("/location", h.checkLocation)
}

type formatCheckRequest struct {
	Value     string `json:"value"`
	CountryID string `json:"countryId"`
}

type locationCheckRequest struct {
	Pincode   string `json:"pincode"`
	Latitude  string `json:"latitude"`
	Longitude string `json:"longitude"`
}

func (h *ServiceabilityHandlers) checkPhone(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req formatCheckRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}

	err := h.serviceability.CheckPhone(ctx, services.LocationCheckCommand{
		SessionID: sessionIDFromRequest(r),
		Value:     req.Value,
		CountryID: req.CountryID,
	})
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, map[string]any{"valid": true})
}

func (h *ServiceabilityHandlers) checkPostal(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req formatCheckRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}

	err := h.serviceability.CheckPostal(ctx, services.LocationCheckCommand{
		SessionID: sessionIDFromRequest(r),
		Value:     req.Value,
		CountryID: req.CountryID,
	})
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, map[string]any{"valid": true})
}

// checkLocation runs the service-area check for the store's configured shape.
// Pincode stores take a pincode, latlng stores take coordinates, and anywhere
// stores need no input at all.
func (h *ServiceabilityHandlers) checkLocation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.serviceability == nil {
		httpx.WriteError(ctx, w, httpx.NewError("serviceability_unavailable", "serviceability checks unavailable", http.StatusServiceUnavailable))
		return
	}

	var req locationCheckRequest
	if h.shape != domain.ServiceShapeAnywhere {
		if !decodeJSONBody(w, r, &req) {
			return
		}
	}

	query, ok := h.buildQuery(req)
	if !ok {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "unknown service area shape", http.StatusBadRequest))
		return
	}

	result, err := h.serviceability.CheckServiceLocation(ctx, services.ServiceLocationCommand{
		SessionID: sessionIDFromRequest(r),
		Query:     query,
	})
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, map[string]any{
		"serviceable": true,
		"location":    result.Location,
	})
}

func (h *ServiceabilityHandlers) buildQuery(req locationCheckRequest) (domain.ServiceLocationQuery, bool) {
	switch h.shape {
	case domain.ServiceShapePincode:
		return domain.PincodeQuery(strings.TrimSpace(req.Pincode)), true
	case domain.ServiceShapeLatLng:
		return domain.LatLngQuery(strings.TrimSpace(req.Latitude), strings.TrimSpace(req.Longitude)), true
	case domain.ServiceShapeAnywhere:
		return domain.AnywhereQuery(h.countryCode, h.state), true
	default:
		return domain.ServiceLocationQuery{}, false
	}
}
