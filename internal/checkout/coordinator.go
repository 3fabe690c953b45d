// Package checkout keeps a remote checkout open for the persisted state.
package checkout

import (
	"context"
	"log/slog"
	"sync/atomic"

	"shopsync/internal/gateway"
	"shopsync/internal/model"
	"shopsync/internal/store"
)

// Coordinator creates checkouts and records their identifiers in the store.
type Coordinator struct {
	store   *store.Store
	gateway gateway.Gateway
	logger  *slog.Logger

	autoCreate atomic.Bool
	inFlight   atomic.Bool
}

// NewCoordinator creates a checkout coordinator. When autoCreate is set the
// observer returned by Observer opens a checkout whenever none is persisted.
func NewCoordinator(s *store.Store, gw gateway.Gateway, autoCreate bool, logger *slog.Logger) *Coordinator {
	c := &Coordinator{
		store:   s,
		gateway: gw,
		logger:  logger,
	}
	c.autoCreate.Store(autoCreate)
	return c
}

// CheckoutID returns the persisted checkout identifier, or "" if none.
func (c *Coordinator) CheckoutID() string {
	if id := c.store.State().CheckoutID; id != nil {
		return *id
	}
	return ""
}

// CreateCheckout opens a checkout and persists its identifier on success.
// The storefront's result is returned whether or not it succeeded.
func (c *Coordinator) CreateCheckout(ctx context.Context, input gateway.CreateCheckoutInput) (model.Result[gateway.Checkout], error) {
	result, err := c.gateway.CreateCheckout(ctx, input)
	if err != nil {
		c.logger.WarnContext(ctx, "checkout creation failed", slog.String("error", err.Error()))
		return result, err
	}
	if result.Data == nil {
		c.logger.WarnContext(ctx, "checkout creation rejected", slog.Int("user_errors", len(result.UserErrors)))
		return result, nil
	}

	c.store.Dispatch(store.SetCheckoutID(result.Data.ID))
	c.logger.InfoContext(ctx, "checkout created", slog.String("checkout_id", result.Data.ID))
	return result, nil
}

// AutoCreate reports whether checkouts are created automatically.
func (c *Coordinator) AutoCreate() bool {
	return c.autoCreate.Load()
}

// SetAutoCreate toggles automatic creation and evaluates it against the
// current state.
func (c *Coordinator) SetAutoCreate(ctx context.Context, enabled bool) {
	c.autoCreate.Store(enabled)
	c.ensure(ctx, c.store.State())
}

// Observer returns an observer that opens a checkout when auto-creation is
// enabled and no checkout is persisted.
func (c *Coordinator) Observer(ctx context.Context) store.Observer {
	return func(state model.PersistedState) {
		c.ensure(ctx, state)
	}
}

// ensure creates a checkout if one is needed. At most one creation runs at a
// time; evaluations arriving while one is in flight are dropped.
func (c *Coordinator) ensure(ctx context.Context, state model.PersistedState) {
	if !c.autoCreate.Load() || state.CheckoutID != nil {
		return
	}
	if !c.inFlight.CompareAndSwap(false, true) {
		return
	}
	defer c.inFlight.Store(false)

	// The snapshot may predate a creation that finished after it was taken.
	current := c.store.State()
	if current.CheckoutID != nil {
		return
	}

	c.logger.DebugContext(ctx, "creating checkout automatically", slog.Int("line_items", len(current.CheckoutLineItems)))
	if _, err := c.CreateCheckout(ctx, gateway.CreateCheckoutInput{LineItems: current.CheckoutLineItems}); err != nil {
		c.logger.WarnContext(ctx, "automatic checkout creation failed", slog.String("error", err.Error()))
	}
}
