package services

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/loomcart/storefront/internal/commerce"
)

// ReconcileState enumerates the terminal outcomes of a landing-page visit.
type ReconcileState string

const (
	// ReconcileRedirected means the order was created and the shopper should
	// be sent to the confirmation page.
	ReconcileRedirected ReconcileState = "redirected"
	// ReconcilePending means the gateway has not settled the payment yet.
	ReconcilePending ReconcileState = "pending"
	// ReconcileFailed means the payment failed or the return parameters could
	// not be interpreted.
	ReconcileFailed ReconcileState = "failed"
)

// identifierKeys are probed in order; the first non-empty value wins.
var identifierKeys = []string{"order_id", "orderId"}

// statusKeys are probed in priority order; the first present key decides the
// outcome even when later keys disagree.
var statusKeys = []string{"order_status", "tx_status", "transaction_status", "payment_status"}

const failureMessageKey = "tx_msg"

// StatusPolicy decides the outcome when the gateway returned an identifier
// but none of the recognised status keys.
type StatusPolicy func(params url.Values) bool

// MissingStatusIsSuccess treats an identifier without status keys as a
// settled payment. Hosted gateways that strip query parameters on their
// success redirect need this.
func MissingStatusIsSuccess(url.Values) bool { return true }

// MissingStatusIsFailure refuses to create an order without an explicit
// affirmative status.
func MissingStatusIsFailure(url.Values) bool { return false }

// reconciliationClient abstracts the commerce calls the state machine needs.
type reconciliationClient interface {
	CreatePaidOrder(ctx context.Context, auth commerce.Auth, addressID, shippingType, paymentOrderID string) (string, error)
	GetCart(ctx context.Context, auth commerce.Auth) (Cart, error)
}

// ReconcileCommand captures one gateway return: the raw query parameters of
// the landing request plus the session they belong to.
type ReconcileCommand struct {
	SessionID    string
	Params       url.Values
	ShippingType string
}

// ReconcileResult is the terminal outcome of a reconciliation run.
type ReconcileResult struct {
	State          ReconcileState
	OrderID        string
	RedirectURL    string
	PaymentOrderID string
	Message        string
}

// ReconciliationServiceDeps wires the dependencies of the reconciliation flow.
type ReconciliationServiceDeps struct {
	Commerce     reconciliationClient
	Sessions     sessionReader
	SuccessPath  string
	StatusPolicy StatusPolicy
	Logger       func(ctx context.Context, event string, fields map[string]any)
}

type reconciliationService struct {
	commerce    reconciliationClient
	sessions    sessionReader
	successPath string
	policy      StatusPolicy
	logger      func(ctx context.Context, event string, fields map[string]any)
}

// NewReconciliationService constructs a ReconciliationService validating required dependencies.
func NewReconciliationService(deps ReconciliationServiceDeps) (ReconciliationService, error) {
	if deps.Commerce == nil {
		return nil, errors.New("reconciliation service: commerce client is required")
	}
	if deps.Sessions == nil {
		return nil, errors.New("reconciliation service: session store is required")
	}

	policy := deps.StatusPolicy
	if policy == nil {
		policy = MissingStatusIsSuccess
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}
	successPath := strings.TrimSpace(deps.SuccessPath)
	if successPath == "" {
		successPath = "/order-success"
	}

	return &reconciliationService{
		commerce:    deps.Commerce,
		sessions:    deps.Sessions,
		successPath: successPath,
		policy:      policy,
		logger:      logger,
	}, nil
}

// Begin opens a state-machine instance for one landing-page visit. Each visit
// gets its own instance so the create-once guard is scoped to the visit.
func (s *reconciliationService) Begin(cmd ReconcileCommand) Reconciliation {
	return &reconciliation{service: s, cmd: cmd}
}

// reconciliation is one landing-page visit. The once guard makes order
// creation fire at most once per instance even when Run is re-entered.
type reconciliation struct {
	service *reconciliationService
	cmd     ReconcileCommand

	once   sync.Once
	result ReconcileResult
}

// Run drives the visit to a terminal state and memoises the outcome.
func (r *reconciliation) Run(ctx context.Context) ReconcileResult {
	r.once.Do(func() {
		r.result = r.service.run(ctx, r.cmd)
	})
	return r.result
}

type paymentOutcome int

const (
	outcomeSuccess paymentOutcome = iota
	outcomePending
	outcomeFailed
)

func (s *reconciliationService) run(ctx context.Context, cmd ReconcileCommand) ReconcileResult {
	paymentOrderID := firstParam(cmd.Params, identifierKeys)
	if paymentOrderID == "" {
		// Without an identifier the status parameters are meaningless; fail
		// before interpreting them.
		s.logger(ctx, "reconcile.missing_identifier", map[string]any{})
		return ReconcileResult{
			State:   ReconcileFailed,
			Message: "payment reference missing from gateway response",
		}
	}

	outcome, message := s.interpret(cmd.Params)
	switch outcome {
	case outcomePending:
		return ReconcileResult{
			State:          ReconcilePending,
			PaymentOrderID: paymentOrderID,
			Message:        "payment is still processing",
		}
	case outcomeFailed:
		if message == "" {
			message = genericReconciliationMessage
		}
		return ReconcileResult{
			State:          ReconcileFailed,
			PaymentOrderID: paymentOrderID,
			Message:        message,
		}
	}

	return s.createOrder(ctx, cmd, paymentOrderID)
}

// interpret maps the gateway's status parameters to an outcome. The first
// recognised status key decides; an identifier with no status keys at all is
// delegated to the configured policy.
func (s *reconciliationService) interpret(params url.Values) (paymentOutcome, string) {
	for _, key := range statusKeys {
		if !params.Has(key) {
			continue
		}
		switch strings.ToUpper(strings.TrimSpace(params.Get(key))) {
		case "SUCCESS", "PAID", "CAPTURED", "OK":
			return outcomeSuccess, ""
		case "PENDING", "ACTIVE", "INITIATED":
			return outcomePending, ""
		default:
			return outcomeFailed, strings.TrimSpace(params.Get(failureMessageKey))
		}
	}

	if s.policy(params) {
		return outcomeSuccess, ""
	}
	return outcomeFailed, "payment status could not be confirmed"
}

func (s *reconciliationService) createOrder(ctx context.Context, cmd ReconcileCommand, paymentOrderID string) ReconcileResult {
	values, err := s.sessions.Get(cmd.SessionID)
	if err != nil {
		s.logger(ctx, "reconcile.session_missing", map[string]any{
			"paymentOrderId": paymentOrderID,
		})
		return ReconcileResult{
			State:          ReconcileFailed,
			PaymentOrderID: paymentOrderID,
			Message:        genericReconciliationMessage,
		}
	}
	auth := commerce.Auth{Token: values.AuthToken()}

	shippingType := strings.TrimSpace(cmd.ShippingType)
	if shippingType == "" {
		shippingType = defaultShippingType
	}

	orderID, err := s.commerce.CreatePaidOrder(ctx, auth, values.SelectedAddressID, shippingType, paymentOrderID)
	if err != nil {
		return s.translateCreation(ctx, paymentOrderID, err)
	}

	s.logger(ctx, "reconcile.order_created", map[string]any{
		"orderId":        orderID,
		"paymentOrderId": paymentOrderID,
	})

	// The remote cart is emptied by order creation; refresh our view so a
	// stale cart never leaks into the next page. Failure here is cosmetic.
	if _, err := s.commerce.GetCart(ctx, auth); err != nil {
		s.logger(ctx, "reconcile.cart_refresh_failed", map[string]any{
			"orderId": orderID,
			"error":   err.Error(),
		})
	}

	return ReconcileResult{
		State:          ReconcileRedirected,
		OrderID:        orderID,
		PaymentOrderID: paymentOrderID,
		RedirectURL:    fmt.Sprintf("%s?orderId=%s", s.successPath, orderID),
	}
}

func (s *reconciliationService) translateCreation(ctx context.Context, paymentOrderID string, err error) ReconcileResult {
	message := genericReconciliationMessage
	if rejection, ok := commerce.AsRejection(err); ok && rejection.Message != "" {
		message = rejection.Message
	} else {
		s.logger(ctx, "reconcile.order_create_failed", map[string]any{
			"paymentOrderId": paymentOrderID,
			"error":          err.Error(),
		})
	}
	return ReconcileResult{
		State:          ReconcileFailed,
		PaymentOrderID: paymentOrderID,
		Message:        message,
	}
}

func firstParam(params url.Values, keys []string) string {
	for _, key := range keys {
		if value := strings.TrimSpace(params.Get(key)); value != "" {
			return value
		}
	}
	return ""
}
