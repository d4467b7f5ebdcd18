package commerce

import (
	"strings"
	"time"

	"github.com/loomcart/storefront/internal/domain"
)

// LocationCheckRequest is the payload for the phone/pincode format check.
type LocationCheckRequest struct {
	Type      string `json:"type"`
	Value     string `json:"value"`
	CountryID string `json:"countryId"`
}

// locationCheckResponse mirrors the check-location envelope.
type locationCheckResponse struct {
	Status  bool   `json:"Status"`
	Message string `json:"Message"`
}

// serviceLocationRequest is the shape-dependent serviceability payload.
type serviceLocationRequest struct {
	Type            string `json:"type"`
	CustomerPincode string `json:"customerPincode,omitempty"`
	Latitude        string `json:"latitude,omitempty"`
	Longitude       string `json:"longitude,omitempty"`
	CountryCode     string `json:"countryCode,omitempty"`
	State           string `json:"state,omitempty"`
}

// serviceLocationResponse mirrors the check-service-location envelope.
type serviceLocationResponse struct {
	Status   bool   `json:"Status"`
	Location string `json:"Location"`
	Message  string `json:"Message"`
}

// promocodeRequest is the payload for promocode application.
type promocodeRequest struct {
	Promocode string `json:"promocode"`
}

// addressPayload is the wire form of a freshly entered address.
type addressPayload struct {
	FirstName     string `json:"firstName"`
	LastName      string `json:"lastName"`
	PhoneNumber   string `json:"phoneNumber"`
	Email         string `json:"email"`
	CountryID     string `json:"countryId"`
	StateID       string `json:"stateId,omitempty"`
	City          string `json:"city"`
	PostalCode    string `json:"postalCode"`
	StreetAddress string `json:"streetAddress"`
	AddressLine2  string `json:"addressLine2,omitempty"`
}

func toAddressPayload(addr domain.Address) *addressPayload {
	return &addressPayload{
		FirstName:     strings.TrimSpace(addr.FirstName),
		LastName:      strings.TrimSpace(addr.LastName),
		PhoneNumber:   strings.TrimSpace(addr.PhoneNumber),
		Email:         strings.TrimSpace(addr.Email),
		CountryID:     strings.TrimSpace(addr.CountryID),
		StateID:       strings.TrimSpace(addr.StateID),
		City:          strings.TrimSpace(addr.City),
		PostalCode:    strings.TrimSpace(addr.PostalCode),
		StreetAddress: strings.TrimSpace(addr.StreetAddress),
		AddressLine2:  strings.TrimSpace(addr.AddressLine2),
	}
}

// CreateOrderRequest submits a direct order: COD immediately, online as an
// order-intent against the configured gateway.
type CreateOrderRequest struct {
	AddressID    string          `json:"addressId,omitempty"`
	Address      *addressPayload `json:"address,omitempty"`
	PaymentType  int             `json:"paymentType"`
	ShippingType string          `json:"shippingType"`
	Gateway      string          `json:"gateway,omitempty"`
}

// SetAddress attaches a freshly entered address to the request.
func (r *CreateOrderRequest) SetAddress(addr domain.Address) {
	r.Address = toAddressPayload(addr)
}

// createOrderResponse mirrors the order/create envelope.
type createOrderResponse struct {
	Status  bool   `json:"Status"`
	Message string `json:"Message"`
	Order   *struct {
		OrderID string `json:"OrderId"`
	} `json:"Order"`
	PaymentDetails *struct {
		ID       string `json:"id"`
		Amount   int64  `json:"amount"`
		Currency string `json:"currency"`
	} `json:"PaymentDetails"`
}

// CreateOrderResult is the normalised outcome of order/create.
type CreateOrderResult struct {
	OrderID        string
	PaymentOrderID string
	Amount         int64
	Currency       string
}

// HasPaymentDetails reports whether the response carried gateway parameters.
func (r CreateOrderResult) HasPaymentDetails() bool {
	return strings.TrimSpace(r.PaymentOrderID) != ""
}

// createPaidOrderRequest is the v2 payload creating an order from a settled payment.
type createPaidOrderRequest struct {
	AddressID      string `json:"addressId"`
	ShippingType   string `json:"shippingType"`
	PaymentOrderID string `json:"paymentOrderId"`
}

// createPaidOrderResponse mirrors the v2/order/create envelope.
type createPaidOrderResponse struct {
	Status  bool   `json:"Status"`
	Message string `json:"Message"`
	OrderID string `json:"OrderID"`
}

// orderResponse mirrors the order lookup envelope.
type orderResponse struct {
	Status bool `json:"Status"`
	Order  struct {
		ID          string `json:"id"`
		OrderNumber string `json:"orderNumber"`
		Status      string `json:"status"`
		Currency    string `json:"currency"`
		Total       int64  `json:"total"`
		PlacedAt    string `json:"placedAt"`
	} `json:"Order"`
}

// cartResponse mirrors the cart envelope.
type cartResponse struct {
	Status bool `json:"Status"`
	Cart   struct {
		ID    string `json:"id"`
		Items []struct {
			ProductID string `json:"productId"`
			VariantID string `json:"variantId"`
			Quantity  int    `json:"quantity"`
			UnitPrice int64  `json:"unitPrice"`
			Currency  string `json:"currency"`
		} `json:"items"`
		Currency          string `json:"currency"`
		Subtotal          int64  `json:"subtotal"`
		Discount          int64  `json:"discount"`
		FinalPrice        int64  `json:"finalPrice"`
		Promocode         string `json:"promocode"`
		PromocodeDiscount int64  `json:"promocodeDiscount"`
		UpdatedAt         string `json:"updatedAt"`
	} `json:"Cart"`
}

func (r cartResponse) toDomain() domain.Cart {
	cart := domain.Cart{
		ID:                r.Cart.ID,
		Currency:          r.Cart.Currency,
		Subtotal:          r.Cart.Subtotal,
		Discount:          r.Cart.Discount,
		FinalPrice:        r.Cart.FinalPrice,
		Promocode:         r.Cart.Promocode,
		PromocodeDiscount: r.Cart.PromocodeDiscount,
	}
	if ts, err := time.Parse(time.RFC3339, r.Cart.UpdatedAt); err == nil {
		cart.UpdatedAt = ts
	}
	cart.Items = make([]domain.CartItem, 0, len(r.Cart.Items))
	for _, item := range r.Cart.Items {
		// Zero-quantity lines are removed server-side; never surface them.
		if item.Quantity < 1 {
			continue
		}
		cart.Items = append(cart.Items, domain.CartItem{
			ProductID: item.ProductID,
			VariantID: item.VariantID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
			Currency:  item.Currency,
		})
	}
	return cart
}

// addressListResponse mirrors the saved-address list envelope.
type addressListResponse struct {
	Status    bool `json:"Status"`
	Addresses []struct {
		ID            string `json:"id"`
		FirstName     string `json:"firstName"`
		LastName      string `json:"lastName"`
		PhoneNumber   string `json:"phoneNumber"`
		Email         string `json:"email"`
		CountryID     string `json:"countryId"`
		StateID       string `json:"stateId"`
		City          string `json:"city"`
		PostalCode    string `json:"postalCode"`
		StreetAddress string `json:"streetAddress"`
		AddressLine2  string `json:"addressLine2"`
	} `json:"Addresses"`
}
