package commerce

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/loomcart/storefront/internal/domain"
)

// Location check types accepted by the commerce API.
const (
	LocationCheckPhone   = "phone"
	LocationCheckPincode = "pincode"
)

// CheckLocation runs the phone-format or postal-code format check for a country.
func (c *Client) CheckLocation(ctx context.Context, auth Auth, checkType, value, countryID string) error {
	req := LocationCheckRequest{
		Type:      checkType,
		Value:     strings.TrimSpace(value),
		CountryID: strings.TrimSpace(countryID),
	}
	var resp locationCheckResponse
	return c.do(ctx, http.MethodPost, "check-location", auth, req, &resp)
}

// CheckServiceLocation verifies the query against the store's service area and
// returns the resolved location label.
func (c *Client) CheckServiceLocation(ctx context.Context, auth Auth, query domain.ServiceLocationQuery) (string, error) {
	req := serviceLocationRequest{Type: string(query.Shape)}
	switch query.Shape {
	case domain.ServiceShapePincode:
		req.CustomerPincode = query.CustomerPincode
	case domain.ServiceShapeLatLng:
		req.Latitude = query.Latitude
		req.Longitude = query.Longitude
	case domain.ServiceShapeAnywhere:
		req.CountryCode = query.CountryCode
		req.State = query.State
	}

	var resp serviceLocationResponse
	if err := c.do(ctx, http.MethodPost, "check-service-location", auth, req, &resp); err != nil {
		return "", err
	}
	return strings.TrimSpace(resp.Location), nil
}

// ApplyPromocode attaches the code to the active cart and returns the server message.
func (c *Client) ApplyPromocode(ctx context.Context, auth Auth, code string) (string, error) {
	var resp statusEnvelope
	if err := c.do(ctx, http.MethodPost, "promocode/apply", auth, promocodeRequest{Promocode: strings.TrimSpace(code)}, &resp); err != nil {
		return "", err
	}
	return strings.TrimSpace(resp.Message), nil
}

// RemovePromocode detaches the active promocode from the cart.
func (c *Client) RemovePromocode(ctx context.Context, auth Auth) error {
	return c.do(ctx, http.MethodDelete, "promocode/remove", auth, nil, nil)
}

// CreateOrder submits the order: immediately for COD, as an order-intent when a
// gateway is named and the response carries payment details.
func (c *Client) CreateOrder(ctx context.Context, auth Auth, req CreateOrderRequest) (CreateOrderResult, error) {
	var resp createOrderResponse
	if err := c.do(ctx, http.MethodPost, "order/create", auth, req, &resp); err != nil {
		return CreateOrderResult{}, err
	}

	result := CreateOrderResult{}
	if resp.Order != nil {
		result.OrderID = strings.TrimSpace(resp.Order.OrderID)
	}
	if resp.PaymentDetails != nil {
		result.PaymentOrderID = strings.TrimSpace(resp.PaymentDetails.ID)
		result.Amount = resp.PaymentDetails.Amount
		result.Currency = strings.ToUpper(strings.TrimSpace(resp.PaymentDetails.Currency))
	}
	return result, nil
}

// CreatePaidOrder creates the order corresponding to a settled gateway payment.
// The commerce API deduplicates on paymentOrderId server-side.
func (c *Client) CreatePaidOrder(ctx context.Context, auth Auth, addressID, shippingType, paymentOrderID string) (string, error) {
	req := createPaidOrderRequest{
		AddressID:      strings.TrimSpace(addressID),
		ShippingType:   strings.TrimSpace(shippingType),
		PaymentOrderID: strings.TrimSpace(paymentOrderID),
	}
	var resp createPaidOrderResponse
	if err := c.do(ctx, http.MethodPost, "v2/order/create", auth, req, &resp); err != nil {
		return "", err
	}
	return strings.TrimSpace(resp.OrderID), nil
}

// GetOrder fetches a server-owned order header for the confirmation view.
func (c *Client) GetOrder(ctx context.Context, auth Auth, orderID string) (domain.Order, error) {
	var resp orderResponse
	if err := c.do(ctx, http.MethodGet, "order/"+strings.TrimSpace(orderID), auth, nil, &resp); err != nil {
		return domain.Order{}, err
	}
	order := domain.Order{
		ID:          resp.Order.ID,
		OrderNumber: resp.Order.OrderNumber,
		Status:      resp.Order.Status,
		Currency:    resp.Order.Currency,
		Total:       resp.Order.Total,
	}
	if ts, err := time.Parse(time.RFC3339, resp.Order.PlacedAt); err == nil {
		order.PlacedAt = ts
	}
	return order, nil
}

// GetCart refetches the active cart in full. Totals and discounts are computed
// server-side; callers never merge cart state locally.
func (c *Client) GetCart(ctx context.Context, auth Auth) (domain.Cart, error) {
	var resp cartResponse
	if err := c.do(ctx, http.MethodGet, "cart", auth, nil, &resp); err != nil {
		return domain.Cart{}, err
	}
	return resp.toDomain(), nil
}

// ListAddresses returns the customer's saved addresses.
func (c *Client) ListAddresses(ctx context.Context, auth Auth) ([]domain.Address, error) {
	var resp addressListResponse
	if err := c.do(ctx, http.MethodGet, "addresses", auth, nil, &resp); err != nil {
		return nil, err
	}
	addresses := make([]domain.Address, 0, len(resp.Addresses))
	for _, addr := range resp.Addresses {
		addresses = append(addresses, domain.Address{
			ID:            addr.ID,
			FirstName:     addr.FirstName,
			LastName:      addr.LastName,
			PhoneNumber:   addr.PhoneNumber,
			Email:         addr.Email,
			CountryID:     addr.CountryID,
			StateID:       addr.StateID,
			City:          addr.City,
			PostalCode:    addr.PostalCode,
			StreetAddress: addr.StreetAddress,
			AddressLine2:  addr.AddressLine2,
		})
	}
	return addresses, nil
}

// RefreshCustomer re-fetches the current-customer record after a successful
// serviceability check so the server-cached resolved location is picked up.
func (c *Client) RefreshCustomer(ctx context.Context, auth Auth) error {
	return c.do(ctx, http.MethodGet, "customer", auth, nil, nil)
}
