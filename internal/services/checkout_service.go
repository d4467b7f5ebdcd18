package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/loomcart/storefront/internal/commerce"
	domain "github.com/loomcart/storefront/internal/domain"
)

const defaultShippingType = "standard"

// CheckoutState enumerates the orchestrator's attempt states.
type CheckoutState string

const (
	// CheckoutIdle is the resting state before and after an attempt.
	CheckoutIdle CheckoutState = "idle"
	// CheckoutValidatingAddress runs address resolution and serviceability.
	CheckoutValidatingAddress CheckoutState = "validating_address"
	// CheckoutSubmittingOrder has the order-intent call in flight.
	CheckoutSubmittingOrder CheckoutState = "submitting_order"
	// CheckoutRedirectingToGateway hands control to the hosted gateway page.
	CheckoutRedirectingToGateway CheckoutState = "redirecting_to_gateway"
	// CheckoutOrderConfirmed is the terminal state for synchronous orders.
	CheckoutOrderConfirmed CheckoutState = "order_confirmed"
)

// checkoutClient abstracts the commerce calls the orchestrator needs.
type checkoutClient interface {
	CreateOrder(ctx context.Context, auth commerce.Auth, req commerce.CreateOrderRequest) (commerce.CreateOrderResult, error)
}

// sessionStore extends session reads with the writes the orchestrator owns.
type sessionStore interface {
	sessionReader
	SelectAddress(sessionID, addressID string)
}

// couponGuard is the scheduling precondition the orchestrator consults before
// entering SubmittingOrder.
type couponGuard interface {
	MutationInFlight() bool
}

// SubmitOrderCommand carries one checkout attempt.
type SubmitOrderCommand struct {
	SessionID     string
	Mode          PaymentMode
	Address       AddressMode
	TermsAccepted bool
	ShippingType  string
	Gateway       string
}

// SubmitOrderResult reports the terminal state of the attempt: either a
// confirmed order or a gateway handoff.
type SubmitOrderResult struct {
	AttemptID       string
	State           CheckoutState
	OrderID         string
	ConfirmationURL string
	Intent          *PaymentIntent
}

// CheckoutServiceDeps wires the dependencies required by the orchestrator.
type CheckoutServiceDeps struct {
	Commerce    checkoutClient
	Addresses   AddressService
	Coupons     couponGuard
	Sessions    sessionStore
	Gateway     string
	SuccessPath string
	Clock       func() time.Time
	Logger      func(ctx context.Context, event string, fields map[string]any)
}

type checkoutService struct {
	commerce    checkoutClient
	addresses   AddressService
	coupons     couponGuard
	sessions    sessionStore
	gateway     string
	successPath string
	now         func() time.Time
	logger      func(ctx context.Context, event string, fields map[string]any)
}

// NewCheckoutService constructs a CheckoutService validating required dependencies.
func NewCheckoutService(deps CheckoutServiceDeps) (CheckoutService, error) {
	if deps.Commerce == nil {
		return nil, errors.New("checkout service: commerce client is required")
	}
	if deps.Addresses == nil {
		return nil, errors.New("checkout service: address service is required")
	}
	if deps.Coupons == nil {
		return nil, errors.New("checkout service: coupon service is required")
	}
	if deps.Sessions == nil {
		return nil, errors.New("checkout service: session store is required")
	}

	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}
	successPath := strings.TrimSpace(deps.SuccessPath)
	if successPath == "" {
		successPath = "/order-success"
	}

	return &checkoutService{
		commerce:    deps.Commerce,
		addresses:   deps.Addresses,
		coupons:     deps.Coupons,
		sessions:    deps.Sessions,
		gateway:     strings.TrimSpace(deps.Gateway),
		successPath: successPath,
		now: func() time.Time {
			return clock().UTC()
		},
		logger: logger,
	}, nil
}

// Submit drives one checkout attempt from Idle to a terminal state. Local
// precondition failures never reach the network and leave the machine in
// Idle; remote rejections surface the server message and also return to Idle.
func (s *checkoutService) Submit(ctx context.Context, cmd SubmitOrderCommand) (SubmitOrderResult, error) {
	attemptID := s.newAttemptID()

	rejected := SubmitOrderResult{AttemptID: attemptID, State: CheckoutIdle}
	if !cmd.TermsAccepted {
		return rejected, reject(ErrValidationRejected, "terms and conditions must be accepted")
	}
	if cmd.Address.IsZero() {
		return rejected, reject(ErrValidationRejected, "address required")
	}
	if s.coupons.MutationInFlight() {
		return rejected, reject(ErrValidationRejected, "a coupon update is still in progress, please retry")
	}
	switch cmd.Mode {
	case domain.PaymentModeCOD, domain.PaymentModeOnline:
	default:
		return rejected, reject(ErrValidationRejected, "payment method required")
	}

	s.transition(ctx, attemptID, CheckoutIdle, CheckoutValidatingAddress)
	resolved, err := s.addresses.Resolve(ctx, ResolveAddressCommand{
		SessionID: cmd.SessionID,
		Mode:      cmd.Address,
	})
	if err != nil {
		s.transition(ctx, attemptID, CheckoutValidatingAddress, CheckoutIdle)
		return SubmitOrderResult{}, err
	}

	if resolved.AddressID != "" {
		// Reconciliation reads the selection back after the gateway redirect.
		s.sessions.SelectAddress(cmd.SessionID, resolved.AddressID)
	}

	s.transition(ctx, attemptID, CheckoutValidatingAddress, CheckoutSubmittingOrder)
	req := s.buildOrderRequest(cmd, resolved)

	auth := s.authFor(cmd.SessionID)
	result, err := s.commerce.CreateOrder(ctx, auth, req)
	if err != nil {
		s.transition(ctx, attemptID, CheckoutSubmittingOrder, CheckoutIdle)
		return SubmitOrderResult{}, s.translateSubmission(ctx, attemptID, err)
	}

	if cmd.Mode == domain.PaymentModeOnline && result.HasPaymentDetails() {
		s.transition(ctx, attemptID, CheckoutSubmittingOrder, CheckoutRedirectingToGateway)
		return SubmitOrderResult{
			AttemptID: attemptID,
			State:     CheckoutRedirectingToGateway,
			Intent: &PaymentIntent{
				Mode:          domain.PaymentModeOnline,
				Gateway:       req.Gateway,
				Amount:        result.Amount,
				Currency:      result.Currency,
				OrderIntentID: result.PaymentOrderID,
			},
		}, nil
	}

	if result.OrderID == "" {
		s.transition(ctx, attemptID, CheckoutSubmittingOrder, CheckoutIdle)
		return SubmitOrderResult{}, reject(ErrOrderSubmissionFailed, genericSubmissionMessage)
	}

	s.transition(ctx, attemptID, CheckoutSubmittingOrder, CheckoutOrderConfirmed)
	return SubmitOrderResult{
		AttemptID:       attemptID,
		State:           CheckoutOrderConfirmed,
		OrderID:         result.OrderID,
		ConfirmationURL: fmt.Sprintf("%s?orderId=%s", s.successPath, result.OrderID),
	}, nil
}

func (s *checkoutService) buildOrderRequest(cmd SubmitOrderCommand, resolved ResolvedAddress) commerce.CreateOrderRequest {
	shippingType := strings.TrimSpace(cmd.ShippingType)
	if shippingType == "" {
		shippingType = defaultShippingType
	}

	req := commerce.CreateOrderRequest{
		AddressID:    resolved.AddressID,
		ShippingType: shippingType,
	}
	if resolved.Address != nil {
		req.SetAddress(*resolved.Address)
	}

	if cmd.Mode == domain.PaymentModeCOD {
		req.PaymentType = domain.PaymentTypeCOD
		return req
	}

	req.PaymentType = domain.PaymentTypeGateway
	gateway := strings.TrimSpace(cmd.Gateway)
	if gateway == "" {
		gateway = s.gateway
	}
	req.Gateway = gateway
	return req
}

func (s *checkoutService) translateSubmission(ctx context.Context, attemptID string, err error) error {
	if rejection, ok := commerce.AsRejection(err); ok {
		return reject(ErrOrderSubmissionFailed, rejection.Message)
	}
	s.logger(ctx, "checkout.submit_failed", map[string]any{
		"attemptId": attemptID,
		"error":     err.Error(),
	})
	return reject(ErrOrderSubmissionFailed, genericSubmissionMessage)
}

func (s *checkoutService) transition(ctx context.Context, attemptID string, from, to CheckoutState) {
	s.logger(ctx, "checkout.transition", map[string]any{
		"attemptId": attemptID,
		"from":      string(from),
		"to":        string(to),
	})
}

// newAttemptID mints a ULID from the locked default entropy source; Submit
// runs concurrently across requests and must never share a bare rand.Rand.
func (s *checkoutService) newAttemptID() string {
	return ulid.MustNew(ulid.Timestamp(s.now()), ulid.DefaultEntropy()).String()
}

func (s *checkoutService) authFor(sessionID string) commerce.Auth {
	values, err := s.sessions.Get(sessionID)
	if err != nil {
		return commerce.Auth{}
	}
	return commerce.Auth{Token: values.AuthToken()}
}
