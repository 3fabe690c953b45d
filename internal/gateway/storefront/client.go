package storefront

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"shopsync/internal/gateway"
	"shopsync/internal/model"
	"shopsync/internal/transport"
)

const (
	// DefaultAPIVersion is the Storefront API version used when none is configured.
	DefaultAPIVersion = "2024-04"

	defaultTimeout = 30 * time.Second
	serviceName    = "Storefront"
	userAgent      = "shopsync/1.0"
)

// Config configures a storefront Client.
type Config struct {
	StoreDomain string // e.g. "acme.myshopify.com"
	AccessToken string // public Storefront API access token
	APIVersion  string // e.g. "2024-04"

	// Endpoint overrides the URL derived from StoreDomain and APIVersion.
	Endpoint string

	// ChromeTLS presents a browser TLS fingerprint upstream.
	ChromeTLS bool

	// HTTPClient overrides the client built from Timeout/ChromeTLS.
	HTTPClient *http.Client
	Timeout    time.Duration
}

// Client is the storefront GraphQL client.
type Client struct {
	httpClient  *http.Client
	endpoint    string
	accessToken string
}

// New creates a storefront client.
func New(cfg Config) (*Client, error) {
	endpoint := cfg.Endpoint
	if endpoint == "" {
		if cfg.StoreDomain == "" {
			return nil, fmt.Errorf("store domain is required")
		}
		version := cfg.APIVersion
		if version == "" {
			version = DefaultAPIVersion
		}
		domain := strings.TrimSuffix(strings.TrimPrefix(cfg.StoreDomain, "https://"), "/")
		endpoint = fmt.Sprintf("https://%s/api/%s/graphql.json", domain, version)
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout == 0 {
			timeout = defaultTimeout
		}
		httpClient = &http.Client{
			Timeout: timeout,
			Transport: transport.New(transport.Options{
				Timeout:   timeout,
				ChromeTLS: cfg.ChromeTLS,
				Headers:   map[string]string{"User-Agent": userAgent},
			}),
		}
	}

	return &Client{
		httpClient:  httpClient,
		endpoint:    endpoint,
		accessToken: cfg.AccessToken,
	}, nil
}

// Endpoint returns the GraphQL URL the client posts to.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// === Customer Access Tokens ===

// CreateCustomerAccessToken exchanges email/password for a customer access token.
func (c *Client) CreateCustomerAccessToken(ctx context.Context, creds model.Credentials) (model.Result[model.AccessToken], error) {
	p, err := execute[tokenPayload](ctx, c, "customerAccessTokenCreate", mutationTokenCreate, map[string]any{
		"input": map[string]string{"email": creds.Email, "password": creds.Password},
	})
	if err != nil {
		return model.Result[model.AccessToken]{}, err
	}
	return tokenResult(p), nil
}

// RenewCustomerAccessToken extends the lifetime of a token that has not yet expired.
func (c *Client) RenewCustomerAccessToken(ctx context.Context, token string) (model.Result[model.AccessToken], error) {
	p, err := execute[tokenPayload](ctx, c, "customerAccessTokenRenew", mutationTokenRenew, map[string]any{
		"customerAccessToken": token,
	})
	if err != nil {
		return model.Result[model.AccessToken]{}, err
	}
	return tokenResult(p), nil
}

// DeleteCustomerAccessToken revokes a token.
func (c *Client) DeleteCustomerAccessToken(ctx context.Context, token string) (model.Result[gateway.DeletedToken], error) {
	p, err := execute[deletePayload](ctx, c, "customerAccessTokenDelete", mutationTokenDelete, map[string]any{
		"customerAccessToken": token,
	})
	if err != nil {
		return model.Result[gateway.DeletedToken]{}, err
	}

	if p == nil {
		return model.Failure[gateway.DeletedToken](emptyPayload()), nil
	}
	if len(p.UserErrors) > 0 || p.DeletedAccessToken == nil {
		return model.Failure[gateway.DeletedToken](toUserErrors(p.UserErrors)...), nil
	}

	deleted := gateway.DeletedToken{DeletedAccessToken: *p.DeletedAccessToken}
	if p.DeletedCustomerAccessTokenID != nil {
		deleted.DeletedAccessTokenID = *p.DeletedCustomerAccessTokenID
	}
	return model.Success(deleted), nil
}

// === Customer Accounts ===

// ActivateCustomer activates an invited account and returns a fresh access token.
func (c *Client) ActivateCustomer(ctx context.Context, input gateway.ActivateInput) (model.Result[model.AccessToken], error) {
	p, err := execute[tokenPayload](ctx, c, "customerActivate", mutationCustomerActivate, map[string]any{
		"id": input.CustomerID,
		"input": map[string]string{
			"activationToken": input.ActivationToken,
			"password":        input.Password,
		},
	})
	if err != nil {
		return model.Result[model.AccessToken]{}, err
	}
	return tokenResult(p), nil
}

// ResetCustomer sets a new password from a reset token.
func (c *Client) ResetCustomer(ctx context.Context, input gateway.ResetInput) (model.Result[model.AccessToken], error) {
	p, err := execute[tokenPayload](ctx, c, "customerReset", mutationCustomerReset, map[string]any{
		"id": input.CustomerID,
		"input": map[string]string{
			"resetToken": input.ResetToken,
			"password":   input.Password,
		},
	})
	if err != nil {
		return model.Result[model.AccessToken]{}, err
	}
	return tokenResult(p), nil
}

// ResetCustomerByURL sets a new password from the URL in a reset email.
func (c *Client) ResetCustomerByURL(ctx context.Context, input gateway.ResetByURLInput) (model.Result[model.AccessToken], error) {
	p, err := execute[tokenPayload](ctx, c, "customerResetByUrl", mutationCustomerResetByURL, map[string]any{
		"resetUrl": input.ResetURL,
		"password": input.Password,
	})
	if err != nil {
		return model.Result[model.AccessToken]{}, err
	}
	return tokenResult(p), nil
}

// === Checkout ===

// CreateCheckout opens a new checkout, optionally pre-filled with line items.
func (c *Client) CreateCheckout(ctx context.Context, input gateway.CreateCheckoutInput) (model.Result[gateway.Checkout], error) {
	vars := map[string]any{}
	if input.Email != "" {
		vars["email"] = input.Email
	}
	if input.Note != "" {
		vars["note"] = input.Note
	}
	if len(input.LineItems) > 0 {
		vars["lineItems"] = toLineItemInputs(input.LineItems)
	}

	p, err := execute[checkoutPayload](ctx, c, "checkoutCreate", mutationCheckoutCreate, map[string]any{
		"input": vars,
	})
	if err != nil {
		return model.Result[gateway.Checkout]{}, err
	}
	return checkoutResult(p), nil
}

// ReplaceLineItems overwrites every line item of the checkout with items.
func (c *Client) ReplaceLineItems(ctx context.Context, checkoutID string, items []model.LineItem) (model.Result[gateway.Checkout], error) {
	p, err := execute[checkoutPayload](ctx, c, "checkoutLineItemsReplace", mutationLineItemsReplace, map[string]any{
		"checkoutId": checkoutID,
		"lineItems":  toLineItemInputs(items),
	})
	if err != nil {
		return model.Result[gateway.Checkout]{}, err
	}
	return checkoutResult(p), nil
}

// === HTTP Helpers ===

// execute posts a single GraphQL operation and decodes data[field] into P.
// A null data[field] without top-level errors yields (nil, nil).
func execute[P any](ctx context.Context, c *Client, field, query string, variables map[string]any) (*P, error) {
	req, err := c.newRequest(ctx, query, variables)
	if err != nil {
		return nil, fmt.Errorf("creating %s request: %w", field, err)
	}

	var resp graphQLResponse
	if err := c.do(req, &resp); err != nil {
		return nil, err
	}

	raw, ok := resp.Data[field]
	if len(resp.Errors) > 0 && (!ok || string(raw) == "null") {
		return nil, graphQLErrorToAPIError(resp.Errors)
	}
	if !ok || len(raw) == 0 {
		return nil, model.NewUpstreamError(serviceName, fmt.Errorf("response missing %s", field))
	}
	// A null payload is an answer without data, not a fault.
	if string(raw) == "null" {
		return nil, nil
	}

	var payload P
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, model.NewUpstreamError(serviceName, fmt.Errorf("parsing %s: %w", field, err))
	}
	return &payload, nil
}

// newRequest creates a GraphQL POST request carrying the storefront access token.
func (c *Client) newRequest(ctx context.Context, query string, variables map[string]any) (*http.Request, error) {
	body, err := json.Marshal(graphQLRequest{Query: query, Variables: variables})
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if c.accessToken != "" {
		req.Header.Set("X-Shopify-Storefront-Access-Token", c.accessToken)
	}

	return req, nil
}

// do executes the request and decodes the response.
func (c *Client) do(req *http.Request, result interface{}) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return model.NewUpstreamError(serviceName, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return parseError(resp.StatusCode, body)
	}

	if result != nil && len(body) > 0 {
		if err := json.Unmarshal(body, result); err != nil {
			return model.NewUpstreamError(serviceName, fmt.Errorf("parsing response: %w", err))
		}
	}

	return nil
}

// parseError converts HTTP error statuses to model.APIError.
func parseError(statusCode int, body []byte) error {
	var resp graphQLResponse
	json.Unmarshal(body, &resp) // Best effort parse

	msg := ""
	if len(resp.Errors) > 0 {
		msg = resp.Errors[0].Message
	}

	switch statusCode {
	case 401:
		return model.NewUnauthorizedError("storefront access token rejected")
	case 403:
		return model.NewUnauthorizedError("storefront access denied")
	case 404:
		return model.NewNotFoundError("storefront")
	case 429:
		return model.NewRateLimitError(serviceName)
	case 400:
		if msg == "" {
			msg = "invalid request"
		}
		return model.NewValidationError("request", msg)
	default:
		return model.NewUpstreamError(serviceName, fmt.Errorf("status %d: %s", statusCode, msg))
	}
}

// graphQLErrorToAPIError maps top-level GraphQL errors. Throttling is reported
// with HTTP 200 and extensions.code THROTTLED.
func graphQLErrorToAPIError(errs []graphQLError) error {
	for _, e := range errs {
		switch e.Extensions.Code {
		case "THROTTLED":
			return model.NewRateLimitError(serviceName)
		case "ACCESS_DENIED", "UNAUTHORIZED":
			return model.NewUnauthorizedError(e.Message)
		}
	}
	return model.NewUpstreamError(serviceName, fmt.Errorf("graphql: %s", errs[0].Message))
}

var _ gateway.Gateway = (*Client)(nil)
