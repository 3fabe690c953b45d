package gateway

import (
	"context"

	"shopsync/internal/model"
)

// Mock implements Gateway for testing.
// Each method can be configured via function fields; unconfigured methods
// return a NOT_FOUND user error.
type Mock struct {
	CreateCustomerAccessTokenFunc func(ctx context.Context, creds model.Credentials) (model.Result[model.AccessToken], error)
	RenewCustomerAccessTokenFunc  func(ctx context.Context, token string) (model.Result[model.AccessToken], error)
	DeleteCustomerAccessTokenFunc func(ctx context.Context, token string) (model.Result[DeletedToken], error)
	CreateCheckoutFunc            func(ctx context.Context, input CreateCheckoutInput) (model.Result[Checkout], error)
	ReplaceLineItemsFunc          func(ctx context.Context, checkoutID string, items []model.LineItem) (model.Result[Checkout], error)
	ActivateCustomerFunc          func(ctx context.Context, input ActivateInput) (model.Result[model.AccessToken], error)
	ResetCustomerFunc             func(ctx context.Context, input ResetInput) (model.Result[model.AccessToken], error)
	ResetCustomerByURLFunc        func(ctx context.Context, input ResetByURLInput) (model.Result[model.AccessToken], error)
}

func notConfigured[T any]() model.Result[T] {
	return model.Failure[T](model.UserError{Code: "NOT_FOUND", Message: "not configured"})
}

// CreateCustomerAccessToken calls the configured CreateCustomerAccessTokenFunc.
func (m *Mock) CreateCustomerAccessToken(ctx context.Context, creds model.Credentials) (model.Result[model.AccessToken], error) {
	if m.CreateCustomerAccessTokenFunc != nil {
		return m.CreateCustomerAccessTokenFunc(ctx, creds)
	}
	return notConfigured[model.AccessToken](), nil
}

// RenewCustomerAccessToken calls the configured RenewCustomerAccessTokenFunc.
func (m *Mock) RenewCustomerAccessToken(ctx context.Context, token string) (model.Result[model.AccessToken], error) {
	if m.RenewCustomerAccessTokenFunc != nil {
		return m.RenewCustomerAccessTokenFunc(ctx, token)
	}
	return notConfigured[model.AccessToken](), nil
}

// DeleteCustomerAccessToken calls the configured DeleteCustomerAccessTokenFunc.
func (m *Mock) DeleteCustomerAccessToken(ctx context.Context, token string) (model.Result[DeletedToken], error) {
	if m.DeleteCustomerAccessTokenFunc != nil {
		return m.DeleteCustomerAccessTokenFunc(ctx, token)
	}
	return notConfigured[DeletedToken](), nil
}

// CreateCheckout calls the configured CreateCheckoutFunc.
func (m *Mock) CreateCheckout(ctx context.Context, input CreateCheckoutInput) (model.Result[Checkout], error) {
	if m.CreateCheckoutFunc != nil {
		return m.CreateCheckoutFunc(ctx, input)
	}
	return notConfigured[Checkout](), nil
}

// ReplaceLineItems calls the configured ReplaceLineItemsFunc.
func (m *Mock) ReplaceLineItems(ctx context.Context, checkoutID string, items []model.LineItem) (model.Result[Checkout], error) {
	if m.ReplaceLineItemsFunc != nil {
		return m.ReplaceLineItemsFunc(ctx, checkoutID, items)
	}
	return notConfigured[Checkout](), nil
}

// ActivateCustomer calls the configured ActivateCustomerFunc.
func (m *Mock) ActivateCustomer(ctx context.Context, input ActivateInput) (model.Result[model.AccessToken], error) {
	if m.ActivateCustomerFunc != nil {
		return m.ActivateCustomerFunc(ctx, input)
	}
	return notConfigured[model.AccessToken](), nil
}

// ResetCustomer calls the configured ResetCustomerFunc.
func (m *Mock) ResetCustomer(ctx context.Context, input ResetInput) (model.Result[model.AccessToken], error) {
	if m.ResetCustomerFunc != nil {
		return m.ResetCustomerFunc(ctx, input)
	}
	return notConfigured[model.AccessToken](), nil
}

// ResetCustomerByURL calls the configured ResetCustomerByURLFunc.
func (m *Mock) ResetCustomerByURL(ctx context.Context, input ResetByURLInput) (model.Result[model.AccessToken], error) {
	if m.ResetCustomerByURLFunc != nil {
		return m.ResetCustomerByURLFunc(ctx, input)
	}
	return notConfigured[model.AccessToken](), nil
}

// Verify Mock implements Gateway interface at compile time.
var _ Gateway = (*Mock)(nil)
