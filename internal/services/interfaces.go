package services

import (
	"context"

	domain "github.com/loomcart/storefront/internal/domain"
)

// Type aliases expose domain models to the services package without reversing dependency direction.
type (
	Cart                 = domain.Cart
	CartItem             = domain.CartItem
	Address              = domain.Address
	AddressMode          = domain.AddressMode
	ServiceLocationQuery = domain.ServiceLocationQuery
	PaymentIntent        = domain.PaymentIntent
	PaymentMode          = domain.PaymentMode
	Order                = domain.Order
)

// ServiceabilityService verifies deliverability before an address can be used
// for checkout: phone format, postal format, and the store's service area.
type ServiceabilityService interface {
	CheckPhone(ctx context.Context, cmd LocationCheckCommand) error
	CheckPostal(ctx context.Context, cmd LocationCheckCommand) error
	CheckServiceLocation(ctx context.Context, cmd ServiceLocationCommand) (ServiceLocationResult, error)
}

// CouponService applies and removes promotional codes against the active cart,
// refetching cart state after every successful mutation.
type CouponService interface {
	Apply(ctx context.Context, cmd ApplyCouponCommand) (CouponResult, error)
	Remove(ctx context.Context, cmd RemoveCouponCommand) (CouponResult, error)
	// MutationInFlight reports whether an apply/remove is currently running;
	// order submission must not begin while it returns true.
	MutationInFlight() bool
}

// AddressService picks the shipping address checkout will use, validating
// freshly entered addresses through the serviceability checks.
type AddressService interface {
	Resolve(ctx context.Context, cmd ResolveAddressCommand) (ResolvedAddress, error)
	ListSaved(ctx context.Context, sessionID string) ([]Address, error)
}

// CheckoutService is the top-level controller driving a checkout attempt from
// address selection to either a confirmed order or a gateway redirect.
type CheckoutService interface {
	Submit(ctx context.Context, cmd SubmitOrderCommand) (SubmitOrderResult, error)
}

// ReconciliationService owns the post-redirect landing flow: it interprets the
// gateway's return parameters and creates the corresponding order exactly once.
type ReconciliationService interface {
	Begin(cmd ReconcileCommand) Reconciliation
}

// Reconciliation is a single state-machine instance for one landing-page
// visit. Run drives it to a terminal outcome; calling Run again on the same
// instance returns the memoised result without re-issuing order creation.
type Reconciliation interface {
	Run(ctx context.Context) ReconcileResult
}
