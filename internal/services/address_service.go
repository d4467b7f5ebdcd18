package services

import (
	"context"
	"errors"
	"strings"

	"github.com/loomcart/storefront/internal/commerce"
	domain "github.com/loomcart/storefront/internal/domain"
)

// addressClient abstracts the commerce calls the resolver needs.
type addressClient interface {
	ListAddresses(ctx context.Context, auth commerce.Auth) ([]domain.Address, error)
}

// ResolveAddressCommand selects the shipping address checkout will use.
type ResolveAddressCommand struct {
	SessionID string
	Mode      AddressMode
}

// ResolvedAddress is the outcome of address resolution: either a saved address
// identifier, or a fully validated draft ready for direct submission.
type ResolvedAddress struct {
	AddressID string
	Address   *Address
}

// validatorStep is a single remote validation in the ordered chain run for new
// addresses. The chain runs with early exit: the first rejection halts it.
type validatorStep struct {
	name string
	run  func(ctx context.Context) error
}

// AddressServiceDeps wires the dependencies required by the address resolver.
type AddressServiceDeps struct {
	Serviceability ServiceabilityService
	Commerce       addressClient
	Sessions       sessionReader
	Logger         func(ctx context.Context, event string, fields map[string]any)
}

type addressService struct {
	serviceability ServiceabilityService
	commerce       addressClient
	sessions       sessionReader
	logger         func(ctx context.Context, event string, fields map[string]any)
}

// NewAddressService constructs an AddressService validating required dependencies.
func NewAddressService(deps AddressServiceDeps) (AddressService, error) {
	if deps.Serviceability == nil {
		return nil, errors.New("address service: serviceability service is required")
	}
	if deps.Commerce == nil {
		return nil, errors.New("address service: commerce client is required")
	}
	if deps.Sessions == nil {
		return nil, errors.New("address service: session store is required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}
	return &addressService{
		serviceability: deps.Serviceability,
		commerce:       deps.Commerce,
		sessions:       deps.Sessions,
		logger:         logger,
	}, nil
}

// Resolve picks the shipping address for the current attempt. Saved addresses
// were validated when stored, so only the identifier is forwarded; freshly
// entered addresses run the phone and postal checks sequentially, stopping at
// the first rejection.
func (s *addressService) Resolve(ctx context.Context, cmd ResolveAddressCommand) (ResolvedAddress, error) {
	mode := cmd.Mode
	if mode.IsZero() {
		return ResolvedAddress{}, reject(ErrValidationRejected, "address required")
	}

	switch mode.Kind {
	case domain.AddressModeSaved:
		return ResolvedAddress{AddressID: mode.SavedID}, nil
	case domain.AddressModeNew:
		draft := *mode.Draft
		if err := validateDraft(draft); err != nil {
			return ResolvedAddress{}, err
		}
		draft.PhoneNumber = digitsOnly(draft.PhoneNumber)

		steps := []validatorStep{
			{
				name: "phone",
				run: func(ctx context.Context) error {
					return s.serviceability.CheckPhone(ctx, LocationCheckCommand{
						SessionID: cmd.SessionID,
						Value:     draft.PhoneNumber,
						CountryID: draft.CountryID,
					})
				},
			},
			{
				name: "postal",
				run: func(ctx context.Context) error {
					return s.serviceability.CheckPostal(ctx, LocationCheckCommand{
						SessionID: cmd.SessionID,
						Value:     draft.PostalCode,
						CountryID: draft.CountryID,
					})
				},
			},
		}
		if err := runChain(ctx, steps); err != nil {
			return ResolvedAddress{}, err
		}
		return ResolvedAddress{Address: &draft}, nil
	default:
		return ResolvedAddress{}, reject(ErrValidationRejected, "address required")
	}
}

// ListSaved returns the customer's saved addresses for selection.
func (s *addressService) ListSaved(ctx context.Context, sessionID string) ([]Address, error) {
	values, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, reject(ErrValidationRejected, "sign in to use saved addresses")
	}
	addresses, err := s.commerce.ListAddresses(ctx, commerce.Auth{Token: values.AuthToken()})
	if err != nil {
		if rejection, ok := commerce.AsRejection(err); ok {
			return nil, reject(ErrServiceabilityRejected, rejection.Message)
		}
		s.logger(ctx, "address.list_failed", map[string]any{"error": err.Error()})
		return nil, reject(ErrOrderSubmissionFailed, "saved addresses are temporarily unavailable")
	}
	return addresses, nil
}

// runChain executes the steps in order and stops at the first failure, so a
// phone rejection never triggers the postal call.
func runChain(ctx context.Context, steps []validatorStep) error {
	for _, step := range steps {
		if err := step.run(ctx); err != nil {
			return err
		}
	}
	return nil
}

func validateDraft(draft Address) error {
	var missing []string
	require := func(field, value string) {
		if strings.TrimSpace(value) == "" {
			missing = append(missing, field)
		}
	}
	require("firstName", draft.FirstName)
	require("lastName", draft.LastName)
	require("phoneNumber", draft.PhoneNumber)
	require("countryId", draft.CountryID)
	require("city", draft.City)
	require("postalCode", draft.PostalCode)
	require("streetAddress", draft.StreetAddress)
	if len(missing) > 0 {
		return reject(ErrValidationRejected, "missing required fields: "+strings.Join(missing, ", "))
	}
	return nil
}
