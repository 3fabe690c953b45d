// Package gateway defines the remote storefront operations the coordinators depend on.
// Implementations translate a concrete storefront API into these calls.
package gateway

import (
	"context"

	"shopsync/internal/model"
)

// Gateway abstracts the remote storefront API.
//
// Every method distinguishes two kinds of failure:
//   - expected rejections (bad credentials, expired token, invalid variant)
//     and answers without a usable payload come back as a Result without
//     Data and a nil error;
//   - transport faults (network, non-2xx status, undecodable body) come back
//     as a non-nil error, usually a *model.APIError.
type Gateway interface {
	// CreateCustomerAccessToken signs a customer in.
	CreateCustomerAccessToken(ctx context.Context, creds model.Credentials) (model.Result[model.AccessToken], error)

	// RenewCustomerAccessToken extends the lifetime of an unexpired token.
	RenewCustomerAccessToken(ctx context.Context, token string) (model.Result[model.AccessToken], error)

	// DeleteCustomerAccessToken revokes a token. Callers treat the outcome as advisory.
	DeleteCustomerAccessToken(ctx context.Context, token string) (model.Result[DeletedToken], error)

	// CreateCheckout opens a new checkout.
	CreateCheckout(ctx context.Context, input CreateCheckoutInput) (model.Result[Checkout], error)

	// ReplaceLineItems overwrites the full line-item list of a checkout.
	ReplaceLineItems(ctx context.Context, checkoutID string, items []model.LineItem) (model.Result[Checkout], error)

	// ActivateCustomer activates an invited customer account and signs it in.
	ActivateCustomer(ctx context.Context, input ActivateInput) (model.Result[model.AccessToken], error)

	// ResetCustomer sets a new password from a reset token and signs the customer in.
	ResetCustomer(ctx context.Context, input ResetInput) (model.Result[model.AccessToken], error)

	// ResetCustomerByURL sets a new password from a reset email link and signs the customer in.
	ResetCustomerByURL(ctx context.Context, input ResetByURLInput) (model.Result[model.AccessToken], error)
}

// DeletedToken is the payload of a successful token deletion.
type DeletedToken struct {
	DeletedAccessToken   string `json:"deleted_access_token"`
	DeletedAccessTokenID string `json:"deleted_access_token_id,omitempty"`
}

// Checkout is the storefront's view of a checkout.
type Checkout struct {
	ID            string           `json:"id"`
	WebURL        string           `json:"web_url,omitempty"`
	Currency      string           `json:"currency,omitempty"`
	SubtotalCents int64            `json:"subtotal_cents"`
	TotalCents    int64            `json:"total_cents"`
	LineItems     []model.LineItem `json:"line_items,omitempty"`
}

// CreateCheckoutInput contains data for opening a checkout. All fields are optional.
type CreateCheckoutInput struct {
	Email     string           `json:"email,omitempty"`
	Note      string           `json:"note,omitempty"`
	LineItems []model.LineItem `json:"line_items,omitempty"`
}

// ActivateInput activates a customer from an invitation.
type ActivateInput struct {
	CustomerID      string `json:"customer_id"`
	ActivationToken string `json:"activation_token"`
	Password        string `json:"password"`
}

// ResetInput resets a customer's password from a reset token.
type ResetInput struct {
	CustomerID string `json:"customer_id"`
	ResetToken string `json:"reset_token"`
	Password   string `json:"password"`
}

// ResetByURLInput resets a customer's password from the link in a reset email.
type ResetByURLInput struct {
	ResetURL string `json:"reset_url"`
	Password string `json:"password"`
}
