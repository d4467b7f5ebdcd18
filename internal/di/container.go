package di

import (
	"context"
	"errors"

	"github.com/loomcart/storefront/internal/commerce"
	domain "github.com/loomcart/storefront/internal/domain"
	"github.com/loomcart/storefront/internal/platform/config"
	"github.com/loomcart/storefront/internal/services"
	"github.com/loomcart/storefront/internal/session"
)

// Services bundles the service-layer contracts the handlers rely upon.
type Services struct {
	Serviceability services.ServiceabilityService
	Coupons        services.CouponService
	Addresses      services.AddressService
	Checkout       services.CheckoutService
	Reconciliation services.ReconciliationService
}

// Container wires the commerce client, session store, and checkout services
// for runtime use.
type Container struct {
	Config   config.Config
	Commerce *commerce.Client
	Sessions *session.Store
	Services Services
}

// Logger is the event hook the services report through.
type Logger func(ctx context.Context, event string, fields map[string]any)

// NewContainer constructs the runtime dependencies from configuration.
func NewContainer(cfg config.Config, logger Logger) (*Container, error) {
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}

	client, err := commerce.NewClient(commerce.Config{
		BaseURL:   cfg.Commerce.BaseURL,
		StoreCode: cfg.Commerce.StoreCode,
		APIKey:    cfg.Commerce.APIKey,
		Timeout:   cfg.Commerce.Timeout,
	})
	if err != nil {
		return nil, err
	}

	sessions := session.NewStore(cfg.Session.TTL)

	serviceability, err := services.NewServiceabilityService(services.ServiceabilityServiceDeps{
		Commerce: client,
		Sessions: sessions,
		Logger:   logger,
	})
	if err != nil {
		return nil, err
	}

	coupons, err := services.NewCouponService(services.CouponServiceDeps{
		Commerce: client,
		Sessions: sessions,
		Logger:   logger,
	})
	if err != nil {
		return nil, err
	}

	addresses, err := services.NewAddressService(services.AddressServiceDeps{
		Serviceability: serviceability,
		Commerce:       client,
		Sessions:       sessions,
		Logger:         logger,
	})
	if err != nil {
		return nil, err
	}

	checkout, err := services.NewCheckoutService(services.CheckoutServiceDeps{
		Commerce:    client,
		Addresses:   addresses,
		Coupons:     coupons,
		Sessions:    sessions,
		Gateway:     cfg.Gateway.Name,
		SuccessPath: cfg.Gateway.SuccessPath,
		Logger:      logger,
	})
	if err != nil {
		return nil, err
	}

	reconciliation, err := services.NewReconciliationService(services.ReconciliationServiceDeps{
		Commerce:     client,
		Sessions:     sessions,
		SuccessPath:  cfg.Gateway.SuccessPath,
		StatusPolicy: statusPolicy(cfg.Gateway),
		Logger:       logger,
	})
	if err != nil {
		return nil, err
	}

	return &Container{
		Config:   cfg,
		Commerce: client,
		Sessions: sessions,
		Services: Services{
			Serviceability: serviceability,
			Coupons:        coupons,
			Addresses:      addresses,
			Checkout:       checkout,
			Reconciliation: reconciliation,
		},
	}, nil
}

// ServiceShape resolves the configured service-area shape.
func (c *Container) ServiceShape() (domain.ServiceShape, error) {
	switch domain.ServiceShape(c.Config.ServiceArea.Shape) {
	case domain.ServiceShapePincode:
		return domain.ServiceShapePincode, nil
	case domain.ServiceShapeLatLng:
		return domain.ServiceShapeLatLng, nil
	case domain.ServiceShapeAnywhere:
		return domain.ServiceShapeAnywhere, nil
	default:
		return "", errors.New("di: unknown service area shape " + c.Config.ServiceArea.Shape)
	}
}

func statusPolicy(cfg config.GatewayConfig) services.StatusPolicy {
	if cfg.MissingStatusIsSuccess {
		return services.MissingStatusIsSuccess
	}
	return services.MissingStatusIsFailure
}
