// Package storefront implements the gateway against a Shopify-style Storefront GraphQL API.
//
// Every operation is a single GraphQL mutation. Business-rule failures arrive
// inside the mutation payload (customerUserErrors, checkoutUserErrors or
// userErrors) and are returned as model.UserErrors; HTTP failures and
// top-level GraphQL errors are returned as *model.APIError.
package storefront

import "encoding/json"

// === GraphQL envelope ===

type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type graphQLResponse struct {
	Data   map[string]json.RawMessage `json:"data"`
	Errors []graphQLError             `json:"errors,omitempty"`
}

type graphQLError struct {
	Message    string `json:"message"`
	Extensions struct {
		Code string `json:"code"`
	} `json:"extensions"`
}

// === Payloads ===

type userError struct {
	Field   []string `json:"field"`
	Message string   `json:"message"`
	Code    string   `json:"code,omitempty"`
}

type customerAccessToken struct {
	AccessToken string `json:"accessToken"`
	ExpiresAt   string `json:"expiresAt"`
}

// tokenPayload covers customerAccessTokenCreate/Renew and customerActivate/Reset/ResetByUrl.
// Renew reports userErrors; the others report customerUserErrors.
type tokenPayload struct {
	CustomerAccessToken *customerAccessToken `json:"customerAccessToken"`
	CustomerUserErrors  []userError          `json:"customerUserErrors"`
	UserErrors          []userError          `json:"userErrors"`
}

type deletePayload struct {
	DeletedAccessToken           *string     `json:"deletedAccessToken"`
	DeletedCustomerAccessTokenID *string     `json:"deletedCustomerAccessTokenId"`
	UserErrors                   []userError `json:"userErrors"`
}

type checkoutPayload struct {
	Checkout           *checkout   `json:"checkout"`
	CheckoutUserErrors []userError `json:"checkoutUserErrors"`
	UserErrors         []userError `json:"userErrors"`
}

type money struct {
	Amount       string `json:"amount"`
	CurrencyCode string `json:"currencyCode"`
}

type checkout struct {
	ID            string `json:"id"`
	WebURL        string `json:"webUrl"`
	CurrencyCode  string `json:"currencyCode"`
	SubtotalPrice money  `json:"subtotalPrice"`
	TotalPrice    money  `json:"totalPrice"`
	LineItems     struct {
		Edges []struct {
			Node checkoutLineItem `json:"node"`
		} `json:"edges"`
	} `json:"lineItems"`
}

type checkoutLineItem struct {
	Quantity int `json:"quantity"`
	Variant  *struct {
		ID string `json:"id"`
	} `json:"variant"`
	CustomAttributes []attribute `json:"customAttributes"`
}

// === Inputs ===

type attribute struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

type lineItemInput struct {
	VariantID        string      `json:"variantId"`
	Quantity         int         `json:"quantity"`
	CustomAttributes []attribute `json:"customAttributes,omitempty"`
}
