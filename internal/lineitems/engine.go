package lineitems

import (
	"context"
	"fmt"
	"log/slog"

	"shopsync/internal/gateway"
	"shopsync/internal/model"
	"shopsync/internal/store"
)

// Engine adds variants to the persisted checkout and mirrors the result upstream.
//
// Engine does not serialize callers: two AddToCheckout calls running at the
// same time both merge against the same starting sequence, and the later
// dispatch wins. Callers that add concurrently to one checkout must serialize.
type Engine struct {
	store   *store.Store
	gateway gateway.Gateway
	logger  *slog.Logger
}

// NewEngine creates a line-item engine.
func NewEngine(s *store.Store, gw gateway.Gateway, logger *slog.Logger) *Engine {
	return &Engine{store: s, gateway: gw, logger: logger}
}

// AddResult is the outcome of AddToCheckout.
type AddResult struct {
	// Remote is the storefront's answer to the replace call.
	Remote model.Result[gateway.Checkout] `json:"remote"`

	// LineItems is the sequence now persisted locally.
	LineItems []model.LineItem `json:"line_items"`

	// Changes compares LineItems with the sequence before the call.
	Changes *Changes `json:"changes"`
}

// AddToCheckout adds quantity of variantID (0 means 1) to the checkout.
//
// The merged sequence is sent to the storefront and then persisted whether or
// not the storefront accepted it; callers needing strict consistency must
// inspect AddResult.Remote. A transport error is returned alongside the
// result, after the local state has been updated.
func (e *Engine) AddToCheckout(ctx context.Context, variantID string, quantity int, attrs map[string]string) (*AddResult, error) {
	if variantID == "" {
		return nil, model.NewValidationError("variant_id", "required")
	}
	if quantity == 0 {
		quantity = 1
	}
	if quantity < 0 {
		return nil, model.NewValidationError("quantity", "must be positive")
	}

	state := e.store.State()
	if _, ok := QuantityAfter(state.CheckoutLineItems, variantID, quantity); !ok {
		return nil, model.NewValidationError("quantity", fmt.Sprintf("line item would exceed %d", MaxQuantity))
	}

	candidate := model.LineItem{
		VariantID:        variantID,
		Quantity:         quantity,
		CustomAttributes: NormalizeAttributes(attrs),
	}
	next := Merge(state.CheckoutLineItems, candidate)
	changes := Diff(state.CheckoutLineItems, next)

	var (
		remote model.Result[gateway.Checkout]
		err    error
	)
	if state.CheckoutID == nil {
		remote = model.Failure[gateway.Checkout](model.UserError{
			Field:   []string{"checkoutId"},
			Message: "no checkout has been created",
			Code:    "CHECKOUT_MISSING",
		})
	} else {
		remote, err = e.gateway.ReplaceLineItems(ctx, *state.CheckoutID, next)
	}

	e.store.Dispatch(store.SetLineItems(next))

	e.logger.InfoContext(ctx, "line items updated",
		slog.String("variant_id", variantID),
		slog.Int("quantity", quantity),
		slog.Int("added", len(changes.Added)),
		slog.Int("updated", len(changes.Updated)),
		slog.Bool("remote_ok", remote.OK()),
	)
	if err != nil {
		e.logger.WarnContext(ctx, "line item sync failed", slog.String("error", err.Error()))
	} else if !remote.OK() {
		e.logger.WarnContext(ctx, "line item sync rejected", slog.Int("user_errors", len(remote.UserErrors)))
	}

	return &AddResult{Remote: remote, LineItems: next, Changes: changes}, err
}
