package services

import (
	"context"
	"errors"
	"testing"

	"github.com/loomcart/storefront/internal/commerce"
	domain "github.com/loomcart/storefront/internal/domain"
	"github.com/loomcart/storefront/internal/session"
)

type stubCouponClient struct {
	applyPromocode  func(ctx context.Context, auth commerce.Auth, code string) (string, error)
	removePromocode func(ctx context.Context, auth commerce.Auth) error
	getCart         func(ctx context.Context, auth commerce.Auth) (domain.Cart, error)
	applyCalls      int
	removeCalls     int
	cartCalls       int
}

func (s *stubCouponClient) ApplyPromocode(ctx context.Context, auth commerce.Auth, code string) (string, error) {
	s.applyCalls++
	if s.applyPromocode == nil {
		return "", nil
	}
	return s.applyPromocode(ctx, auth, code)
}

func (s *stubCouponClient) RemovePromocode(ctx context.Context, auth commerce.Auth) error {
	s.removeCalls++
	if s.removePromocode == nil {
		return nil
	}
	return s.removePromocode(ctx, auth)
}

func (s *stubCouponClient) GetCart(ctx context.Context, auth commerce.Auth) (domain.Cart, error) {
	s.cartCalls++
	if s.getCart == nil {
		return domain.Cart{}, nil
	}
	return s.getCart(ctx, auth)
}

func newCouponForTest(t *testing.T, client *stubCouponClient) CouponService {
	t.Helper()
	svc, err := NewCouponService(CouponServiceDeps{
		Commerce: client,
		Sessions: &stubSessions{values: session.Values{Token: "tok"}},
	})
	if err != nil {
		t.Fatalf("new coupon service: %v", err)
	}
	return svc
}

func TestCouponApplySecondCodeReplacesFirst(t *testing.T) {
	// The server holds at most one promocode; applying B after A replaces A
	// and the refetched cart is reported as-is, never merged locally.
	var applied []string
	client := &stubCouponClient{
		applyPromocode: func(_ context.Context, _ commerce.Auth, code string) (string, error) {
			applied = append(applied, code)
			return code + " applied", nil
		},
		getCart: func(context.Context, commerce.Auth) (domain.Cart, error) {
			last := applied[len(applied)-1]
			return domain.Cart{Promocode: last, PromocodeDiscount: 150, FinalPrice: 1050}, nil
		},
	}
	svc := newCouponForTest(t, client)

	if _, err := svc.Apply(context.Background(), ApplyCouponCommand{SessionID: "sess-1", Code: "SAVE10"}); err != nil {
		t.Fatalf("first apply: %v", err)
	}
	result, err := svc.Apply(context.Background(), ApplyCouponCommand{SessionID: "sess-1", Code: "SAVE15"})
	if err != nil {
		t.Fatalf("second apply: %v", err)
	}

	if result.Cart.Promocode != "SAVE15" {
		t.Fatalf("expected cart to carry only the second code, got %q", result.Cart.Promocode)
	}
	if client.applyCalls != 2 || client.cartCalls != 2 {
		t.Fatalf("expected each apply to refetch once, got apply=%d cart=%d", client.applyCalls, client.cartCalls)
	}
}

func TestCouponApplyEmptyCodeSkipsNetwork(t *testing.T) {
	client := &stubCouponClient{}
	svc := newCouponForTest(t, client)

	_, err := svc.Apply(context.Background(), ApplyCouponCommand{SessionID: "sess-1", Code: "   "})
	if !errors.Is(err, ErrValidationRejected) {
		t.Fatalf("expected validation rejection, got %v", err)
	}
	if client.applyCalls != 0 || client.cartCalls != 0 {
		t.Fatalf("expected no remote calls, got apply=%d cart=%d", client.applyCalls, client.cartCalls)
	}
}

func TestCouponApplyRefetchesCartAndReturnsMessage(t *testing.T) {
	client := &stubCouponClient{
		applyPromocode: func(_ context.Context, _ commerce.Auth, code string) (string, error) {
			if code != "SAVE10" {
				return "", errors.New("unexpected code " + code)
			}
			return "10% off applied", nil
		},
		getCart: func(context.Context, commerce.Auth) (domain.Cart, error) {
			return domain.Cart{Promocode: "SAVE10", PromocodeDiscount: 120, FinalPrice: 1080}, nil
		},
	}
	svc := newCouponForTest(t, client)

	result, err := svc.Apply(context.Background(), ApplyCouponCommand{SessionID: "sess-1", Code: " SAVE10 "})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if result.Message != "10% off applied" {
		t.Fatalf("expected server message, got %q", result.Message)
	}
	if !result.Cart.HasPromocode() || result.Cart.FinalPrice != 1080 {
		t.Fatalf("expected refetched cart, got %+v", result.Cart)
	}
	if client.cartCalls != 1 {
		t.Fatalf("expected one cart refetch, got %d", client.cartCalls)
	}
}

func TestCouponApplyRejectionSurfacesServerMessage(t *testing.T) {
	client := &stubCouponClient{
		applyPromocode: func(context.Context, commerce.Auth, string) (string, error) {
			return "", &commerce.RejectionError{Message: "promocode expired"}
		},
	}
	svc := newCouponForTest(t, client)

	_, err := svc.Apply(context.Background(), ApplyCouponCommand{SessionID: "sess-1", Code: "OLD"})
	if !errors.Is(err, ErrCouponRejected) {
		t.Fatalf("expected coupon rejection, got %v", err)
	}
	if got := UserMessage(err, ""); got != "promocode expired" {
		t.Fatalf("expected verbatim message, got %q", got)
	}
	if client.cartCalls != 0 {
		t.Fatalf("expected no refetch after rejection, got %d", client.cartCalls)
	}
}

func TestCouponRemoveNoopWithoutPromocode(t *testing.T) {
	client := &stubCouponClient{
		getCart: func(context.Context, commerce.Auth) (domain.Cart, error) {
			return domain.Cart{FinalPrice: 900}, nil
		},
	}
	svc := newCouponForTest(t, client)

	result, err := svc.Remove(context.Background(), RemoveCouponCommand{SessionID: "sess-1"})
	if err != nil {
		t.Fatalf("remove: %v", err)
	}
	if client.removeCalls != 0 {
		t.Fatalf("expected no remote removal, got %d", client.removeCalls)
	}
	if client.cartCalls != 1 {
		t.Fatalf("expected a single cart fetch, got %d", client.cartCalls)
	}
	if result.Cart.FinalPrice != 900 {
		t.Fatalf("expected current cart returned, got %+v", result.Cart)
	}
}

func TestCouponRemoveRefetchesAfterMutation(t *testing.T) {
	client := &stubCouponClient{}
	client.getCart = func(context.Context, commerce.Auth) (domain.Cart, error) {
		if client.removeCalls == 0 {
			return domain.Cart{Promocode: "SAVE10", PromocodeDiscount: 120, FinalPrice: 1080}, nil
		}
		return domain.Cart{FinalPrice: 1200}, nil
	}
	svc := newCouponForTest(t, client)

	result, err := svc.Remove(context.Background(), RemoveCouponCommand{SessionID: "sess-1"})
	if err != nil {
		t.Fatalf("remove: %v", err)
	}
	if client.removeCalls != 1 {
		t.Fatalf("expected one removal call, got %d", client.removeCalls)
	}
	if client.cartCalls != 2 {
		t.Fatalf("expected fetch before and after removal, got %d", client.cartCalls)
	}
	if result.Cart.HasPromocode() {
		t.Fatalf("expected promocode cleared in refetched cart, got %+v", result.Cart)
	}
}

func TestCouponMutationInFlightDuringApply(t *testing.T) {
	var svc CouponService
	var observed bool
	client := &stubCouponClient{
		applyPromocode: func(context.Context, commerce.Auth, string) (string, error) {
			observed = svc.MutationInFlight()
			return "", nil
		},
	}
	svc = newCouponForTest(t, client)

	if _, err := svc.Apply(context.Background(), ApplyCouponCommand{SessionID: "sess-1", Code: "SAVE10"}); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if !observed {
		t.Fatalf("expected mutation flag set while apply is running")
	}
	if svc.MutationInFlight() {
		t.Fatalf("expected mutation flag cleared after apply")
	}
}
