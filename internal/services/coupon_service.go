package services

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"

	"github.com/loomcart/storefront/internal/commerce"
	domain "github.com/loomcart/storefront/internal/domain"
)

// ErrCouponRejected indicates the commerce API declined the promocode
// mutation; recoverable, the server message is shown verbatim.
var ErrCouponRejected = errors.New("coupon: rejected")

// couponClient abstracts the commerce calls the ledger needs.
type couponClient interface {
	ApplyPromocode(ctx context.Context, auth commerce.Auth, code string) (string, error)
	RemovePromocode(ctx context.Context, auth commerce.Auth) error
	GetCart(ctx context.Context, auth commerce.Auth) (domain.Cart, error)
}

// ApplyCouponCommand attaches a promotional code to the active cart.
type ApplyCouponCommand struct {
	SessionID string
	Code      string
}

// RemoveCouponCommand detaches the active promotional code.
type RemoveCouponCommand struct {
	SessionID string
}

// CouponResult returns the refetched cart plus the server's message, if any.
type CouponResult struct {
	Cart    Cart
	Message string
}

// CouponServiceDeps wires the dependencies required by the coupon ledger.
type CouponServiceDeps struct {
	Commerce couponClient
	Sessions sessionReader
	Logger   func(ctx context.Context, event string, fields map[string]any)
}

type couponService struct {
	commerce couponClient
	sessions sessionReader
	logger   func(ctx context.Context, event string, fields map[string]any)
	// inFlight serialises coupon mutations against order submission: the
	// orchestrator refuses to submit while a mutation is outstanding.
	inFlight atomic.Bool
}

// NewCouponService constructs a CouponService validating required dependencies.
func NewCouponService(deps CouponServiceDeps) (CouponService, error) {
	if deps.Commerce == nil {
		return nil, errors.New("coupon service: commerce client is required")
	}
	if deps.Sessions == nil {
		return nil, errors.New("coupon service: session store is required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}
	return &couponService{
		commerce: deps.Commerce,
		sessions: deps.Sessions,
		logger:   logger,
	}, nil
}

// Apply attaches the code to the cart. An empty code is rejected locally
// without any remote call; the server removes any previously applied code, so
// the cart is always refetched in full instead of merged locally.
func (s *couponService) Apply(ctx context.Context, cmd ApplyCouponCommand) (CouponResult, error) {
	code := strings.TrimSpace(cmd.Code)
	if code == "" {
		return CouponResult{}, reject(ErrValidationRejected, "promocode is required")
	}

	s.inFlight.Store(true)
	defer s.inFlight.Store(false)

	auth := s.authFor(cmd.SessionID)
	message, err := s.commerce.ApplyPromocode(ctx, auth, code)
	if err != nil {
		return CouponResult{}, s.translate(ctx, "apply", err)
	}

	cart, err := s.refetchCart(ctx, auth)
	if err != nil {
		return CouponResult{}, err
	}
	return CouponResult{Cart: cart, Message: message}, nil
}

// Remove detaches the active promocode. When the cart carries no promocode
// discount this is a safe no-op and no remote mutation is issued.
func (s *couponService) Remove(ctx context.Context, cmd RemoveCouponCommand) (CouponResult, error) {
	s.inFlight.Store(true)
	defer s.inFlight.Store(false)

	auth := s.authFor(cmd.SessionID)
	cart, err := s.refetchCart(ctx, auth)
	if err != nil {
		return CouponResult{}, err
	}
	if !cart.HasPromocode() {
		return CouponResult{Cart: cart}, nil
	}

	if err := s.commerce.RemovePromocode(ctx, auth); err != nil {
		return CouponResult{}, s.translate(ctx, "remove", err)
	}

	cart, err = s.refetchCart(ctx, auth)
	if err != nil {
		return CouponResult{}, err
	}
	return CouponResult{Cart: cart}, nil
}

// MutationInFlight reports whether an apply/remove is currently running.
func (s *couponService) MutationInFlight() bool {
	return s.inFlight.Load()
}

func (s *couponService) refetchCart(ctx context.Context, auth commerce.Auth) (Cart, error) {
	cart, err := s.commerce.GetCart(ctx, auth)
	if err != nil {
		return Cart{}, s.translate(ctx, "refetch", err)
	}
	return cart, nil
}

func (s *couponService) translate(ctx context.Context, op string, err error) error {
	if rejection, ok := commerce.AsRejection(err); ok {
		return reject(ErrCouponRejected, rejection.Message)
	}
	s.logger(ctx, "coupon.call_failed", map[string]any{
		"op":    op,
		"error": err.Error(),
	})
	return reject(ErrOrderSubmissionFailed, "cart could not be updated, please try again")
}

func (s *couponService) authFor(sessionID string) commerce.Auth {
	values, err := s.sessions.Get(sessionID)
	if err != nil {
		return commerce.Auth{}
	}
	return commerce.Auth{Token: values.AuthToken()}
}
