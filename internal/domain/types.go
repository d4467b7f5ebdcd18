package domain

import (
	"strings"
	"time"
)

// PaymentMode selects how an order is settled at checkout.
type PaymentMode string

const (
	// PaymentModeCOD settles the order on delivery without a gateway redirect.
	PaymentModeCOD PaymentMode = "cod"
	// PaymentModeOnline settles the order through a hosted gateway redirect.
	PaymentModeOnline PaymentMode = "online"
)

// PaymentTypeCOD is the wire value the commerce API expects for cash-on-delivery orders.
const PaymentTypeCOD = 1

// PaymentTypeGateway is the wire value for orders paid through a hosted gateway.
const PaymentTypeGateway = 2

// CartItem stores a single variant entry within a cart.
type CartItem struct {
	ProductID string
	VariantID string
	Quantity  int
	UnitPrice int64
	Currency  string
}

// Cart aggregates the server-owned shopping cart state for the active customer.
// Subtotal, Discount, and FinalPrice are computed server-side and treated as
// opaque by every component; totals are never derived locally.
type Cart struct {
	ID                string
	Items             []CartItem
	Currency          string
	Subtotal          int64
	Discount          int64
	FinalPrice        int64
	Promocode         string
	PromocodeDiscount int64
	UpdatedAt         time.Time
}

// HasPromocode reports whether a promotional code is currently applied.
func (c Cart) HasPromocode() bool {
	return c.PromocodeDiscount != 0 || strings.TrimSpace(c.Promocode) != ""
}

// Address holds a shipping destination, either saved server-side or entered for a single order.
type Address struct {
	ID            string
	FirstName     string
	LastName      string
	PhoneNumber   string
	Email         string
	CountryID     string
	StateID       string
	City          string
	PostalCode    string
	StreetAddress string
	AddressLine2  string
}

// AddressModeKind discriminates the two ways checkout can obtain a shipping address.
type AddressModeKind string

const (
	// AddressModeSaved ships to an address already validated and stored server-side.
	AddressModeSaved AddressModeKind = "saved"
	// AddressModeNew ships to a freshly entered address that still needs validation.
	AddressModeNew AddressModeKind = "new"
)

// AddressMode is the tagged selection of a shipping address. Exactly one of
// SavedID or Draft is meaningful, according to Kind; the two cannot both be
// active, which replaces the two-boolean toggle the flow would otherwise need.
type AddressMode struct {
	Kind    AddressModeKind
	SavedID string
	Draft   *Address
}

// SavedAddress selects a previously validated saved address by identifier.
func SavedAddress(id string) AddressMode {
	return AddressMode{Kind: AddressModeSaved, SavedID: strings.TrimSpace(id)}
}

// NewAddress selects a freshly entered address draft for validation and use.
func NewAddress(draft Address) AddressMode {
	return AddressMode{Kind: AddressModeNew, Draft: &draft}
}

// IsZero reports whether no address selection has been made.
func (m AddressMode) IsZero() bool {
	switch m.Kind {
	case AddressModeSaved:
		return strings.TrimSpace(m.SavedID) == ""
	case AddressModeNew:
		return m.Draft == nil
	default:
		return true
	}
}

// ServiceShape enumerates the serviceable-area rules a store can be configured with.
type ServiceShape string

const (
	// ServiceShapePincode restricts delivery by customer postal code.
	ServiceShapePincode ServiceShape = "pincode"
	// ServiceShapeLatLng restricts delivery by coordinates.
	ServiceShapeLatLng ServiceShape = "latlng"
	// ServiceShapeAnywhere restricts delivery by country and optional state.
	ServiceShapeAnywhere ServiceShape = "anywhere"
)

// ServiceLocationQuery is the tagged variant submitted to the serviceability
// check. Exactly one shape is active per store, chosen by configuration; the
// fields of the inactive shapes are ignored.
type ServiceLocationQuery struct {
	Shape           ServiceShape
	CustomerPincode string
	Latitude        string
	Longitude       string
	CountryCode     string
	// State is optional for the anywhere shape; an empty value is not a failure.
	State string
}

// PincodeQuery builds a pincode-shaped serviceability query.
func PincodeQuery(pincode string) ServiceLocationQuery {
	return ServiceLocationQuery{Shape: ServiceShapePincode, CustomerPincode: strings.TrimSpace(pincode)}
}

// LatLngQuery builds a coordinate-shaped serviceability query.
func LatLngQuery(lat, lng string) ServiceLocationQuery {
	return ServiceLocationQuery{Shape: ServiceShapeLatLng, Latitude: strings.TrimSpace(lat), Longitude: strings.TrimSpace(lng)}
}

// AnywhereQuery builds a country/state-shaped serviceability query.
func AnywhereQuery(countryCode, state string) ServiceLocationQuery {
	return ServiceLocationQuery{Shape: ServiceShapeAnywhere, CountryCode: strings.TrimSpace(countryCode), State: strings.TrimSpace(state)}
}

// PaymentIntent carries the gateway handoff produced by order submission for
// online payments. It lives only for the single checkout attempt; after the
// redirect, only the OrderIntentID surviving in the return URL is trusted.
type PaymentIntent struct {
	Mode          PaymentMode
	Gateway       string
	Amount        int64
	Currency      string
	OrderIntentID string
	RedirectURL   string
}

// Order captures the server-owned order header. The storefront only ever
// creates orders and never mutates them.
type Order struct {
	ID          string
	OrderNumber string
	Status      string
	Currency    string
	Total       int64
	PlacedAt    time.Time
}
