package services

import (
	"context"
	"errors"
	"strings"
	"unicode"

	"github.com/loomcart/storefront/internal/commerce"
	domain "github.com/loomcart/storefront/internal/domain"
	"github.com/loomcart/storefront/internal/session"
)

// serviceabilityClient abstracts the commerce calls the validator needs.
type serviceabilityClient interface {
	CheckLocation(ctx context.Context, auth commerce.Auth, checkType, value, countryID string) error
	CheckServiceLocation(ctx context.Context, auth commerce.Auth, query domain.ServiceLocationQuery) (string, error)
	RefreshCustomer(ctx context.Context, auth commerce.Auth) error
}

// sessionReader exposes the session lookups services perform at point of use.
type sessionReader interface {
	Get(sessionID string) (session.Values, error)
}

// LocationCheckCommand carries a single phone or postal format check.
type LocationCheckCommand struct {
	SessionID string
	Value     string
	CountryID string
}

// ServiceLocationCommand carries a service-area check for the active store shape.
type ServiceLocationCommand struct {
	SessionID string
	Query     ServiceLocationQuery
}

// ServiceLocationResult reports the resolved serviceable location label.
type ServiceLocationResult struct {
	Location string
}

// ServiceabilityServiceDeps wires the dependencies required by the validator.
type ServiceabilityServiceDeps struct {
	Commerce serviceabilityClient
	Sessions sessionReader
	Logger   func(ctx context.Context, event string, fields map[string]any)
}

type serviceabilityService struct {
	commerce serviceabilityClient
	sessions sessionReader
	logger   func(ctx context.Context, event string, fields map[string]any)
}

// NewServiceabilityService constructs a ServiceabilityService validating required dependencies.
func NewServiceabilityService(deps ServiceabilityServiceDeps) (ServiceabilityService, error) {
	if deps.Commerce == nil {
		return nil, errors.New("serviceability service: commerce client is required")
	}
	if deps.Sessions == nil {
		return nil, errors.New("serviceability service: session store is required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}
	return &serviceabilityService{
		commerce: deps.Commerce,
		sessions: deps.Sessions,
		logger:   logger,
	}, nil
}

// CheckPhone verifies the phone number format for the country. The value is
// normalised to digits before submission; inputs are never trusted.
func (s *serviceabilityService) CheckPhone(ctx context.Context, cmd LocationCheckCommand) error {
	phone := digitsOnly(cmd.Value)
	if phone == "" {
		return reject(ErrValidationRejected, "phone number is required")
	}
	if strings.TrimSpace(cmd.CountryID) == "" {
		return reject(ErrValidationRejected, "country is required")
	}
	return s.check(ctx, cmd.SessionID, commerce.LocationCheckPhone, phone, cmd.CountryID)
}

// CheckPostal verifies the postal code format for the country.
func (s *serviceabilityService) CheckPostal(ctx context.Context, cmd LocationCheckCommand) error {
	postal := strings.TrimSpace(cmd.Value)
	if postal == "" {
		return reject(ErrValidationRejected, "postal code is required")
	}
	if strings.TrimSpace(cmd.CountryID) == "" {
		return reject(ErrValidationRejected, "country is required")
	}
	return s.check(ctx, cmd.SessionID, commerce.LocationCheckPincode, postal, cmd.CountryID)
}

func (s *serviceabilityService) check(ctx context.Context, sessionID, checkType, value, countryID string) error {
	auth := s.authFor(sessionID)
	if err := s.commerce.CheckLocation(ctx, auth, checkType, value, countryID); err != nil {
		return s.translate(ctx, checkType, err)
	}
	return nil
}

// CheckServiceLocation branches on the active query shape and, on success,
// refreshes the current-customer record so the server-resolved location is
// re-fetched rather than inferred locally.
func (s *serviceabilityService) CheckServiceLocation(ctx context.Context, cmd ServiceLocationCommand) (ServiceLocationResult, error) {
	if err := validateServiceQuery(cmd.Query); err != nil {
		return ServiceLocationResult{}, err
	}

	auth := s.authFor(cmd.SessionID)
	location, err := s.commerce.CheckServiceLocation(ctx, auth, cmd.Query)
	if err != nil {
		return ServiceLocationResult{}, s.translate(ctx, "service_location", err)
	}

	if err := s.commerce.RefreshCustomer(ctx, auth); err != nil {
		// The serviceability outcome stands; the stale customer record only
		// delays the cached location label.
		s.logger(ctx, "serviceability.customer_refresh_failed", map[string]any{
			"error": err.Error(),
		})
	}

	return ServiceLocationResult{Location: location}, nil
}

func (s *serviceabilityService) translate(ctx context.Context, checkType string, err error) error {
	if rejection, ok := commerce.AsRejection(err); ok {
		return reject(ErrServiceabilityRejected, rejection.Message)
	}
	s.logger(ctx, "serviceability.check_failed", map[string]any{
		"check": checkType,
		"error": err.Error(),
	})
	return reject(ErrServiceabilityRejected, "serviceability check is temporarily unavailable")
}

func (s *serviceabilityService) authFor(sessionID string) commerce.Auth {
	values, err := s.sessions.Get(sessionID)
	if err != nil {
		return commerce.Auth{}
	}
	return commerce.Auth{Token: values.AuthToken()}
}

func validateServiceQuery(query ServiceLocationQuery) error {
	switch query.Shape {
	case domain.ServiceShapePincode:
		if strings.TrimSpace(query.CustomerPincode) == "" {
			return reject(ErrValidationRejected, "pincode is required")
		}
	case domain.ServiceShapeLatLng:
		if strings.TrimSpace(query.Latitude) == "" || strings.TrimSpace(query.Longitude) == "" {
			return reject(ErrValidationRejected, "coordinates are required")
		}
	case domain.ServiceShapeAnywhere:
		// State is optional for this shape; only the country is required.
		if strings.TrimSpace(query.CountryCode) == "" {
			return reject(ErrValidationRejected, "country is required")
		}
	default:
		return reject(ErrValidationRejected, "unknown service area shape")
	}
	return nil
}

func digitsOnly(value string) string {
	var b strings.Builder
	for _, r := range value {
		if unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}
