// MCP transport handler for shopsync using the official MCP Go SDK.
// Exposes the session, checkout and line-item actions as MCP tools.
package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"shopsync/internal/gateway"
	"shopsync/internal/lineitems"
	"shopsync/internal/model"
)

// === MCP Tool Input/Output Types ===

// EmptyInput is the input schema for tools without arguments.
type EmptyInput struct{}

// SignInInput is the input schema for sign_in tool.
type SignInInput struct {
	Email    string `json:"email" jsonschema:"customer email"`
	Password string `json:"password" jsonschema:"customer password"`
}

// CreateCheckoutInput is the input schema for create_checkout tool.
type CreateCheckoutInput struct {
	Email string `json:"email,omitempty" jsonschema:"buyer email"`
	Note  string `json:"note,omitempty" jsonschema:"order note"`
}

// AddToCheckoutInput is the input schema for add_to_checkout tool.
type AddToCheckoutInput struct {
	VariantID        string            `json:"variant_id" jsonschema:"product variant ID"`
	Quantity         int               `json:"quantity,omitempty" jsonschema:"quantity to add, defaults to 1"`
	CustomAttributes map[string]string `json:"custom_attributes,omitempty" jsonschema:"custom attributes for the line item"`
}

// StateOutput is the persisted state as reported to MCP clients.
// Absent values are omitted rather than null.
type StateOutput struct {
	CustomerAccessToken          string           `json:"customer_access_token,omitempty"`
	CustomerAccessTokenExpiresAt string           `json:"customer_access_token_expires_at,omitempty"`
	CheckoutID                   string           `json:"checkout_id,omitempty"`
	CheckoutLineItems            []model.LineItem `json:"checkout_line_items"`
	IsSignedIn                   bool             `json:"is_signed_in"`
	SessionIsNew                 bool             `json:"session_is_new"`
}

func (h *Handler) stateOutput() *StateOutput {
	state := h.client.State()
	out := &StateOutput{
		CheckoutLineItems: state.CheckoutLineItems,
		IsSignedIn:        state.IsSignedIn(),
		SessionIsNew:      h.client.Session().State.IsNew,
	}
	if state.CustomerAccessToken != nil {
		out.CustomerAccessToken = *state.CustomerAccessToken
	}
	if state.CustomerAccessTokenExpiresAt != nil {
		out.CustomerAccessTokenExpiresAt = state.CustomerAccessTokenExpiresAt.Format(time.RFC3339)
	}
	if state.CheckoutID != nil {
		out.CheckoutID = *state.CheckoutID
	}
	return out
}

// NewMCPServer creates an MCP server with the shopsync tools registered.
// The server exposes the same operations as the REST API but via MCP protocol.
func (h *Handler) NewMCPServer() *mcp.Server {
	server := mcp.NewServer(
		&mcp.Implementation{
			Name:    "shopsync",
			Version: "1.0.0",
		},
		&mcp.ServerOptions{
			Instructions: "shopsync keeps a storefront customer session and checkout in sync. " +
				"Sign in, then add product variants to the checkout.",
		},
	)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_state",
		Description: "Get the persisted session and checkout state.",
	}, h.mcpGetState)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "sign_in",
		Description: "Sign a customer in with email and password.",
	}, h.mcpSignIn)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "sign_out",
		Description: "Sign the customer out and clear the checkout.",
	}, h.mcpSignOut)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "renew_token",
		Description: "Renew the customer access token. A rejected renewal signs the customer out.",
	}, h.mcpRenewToken)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "create_checkout",
		Description: "Open a new checkout and make it the current one.",
	}, h.mcpCreateCheckout)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "add_to_checkout",
		Description: "Add a product variant to the checkout. Adding a variant already present increases its quantity.",
	}, h.mcpAddToCheckout)

	return server
}

// NewMCPHandler returns an HTTP handler for the MCP endpoint.
// Mount this at /mcp on your mux.
func (h *Handler) NewMCPHandler() http.Handler {
	server := h.NewMCPServer()
	return mcp.NewStreamableHTTPHandler(
		func(r *http.Request) *mcp.Server { return server },
		nil,
	)
}

// === Tool Handlers ===

func (h *Handler) mcpGetState(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input EmptyInput,
) (*mcp.CallToolResult, *StateOutput, error) {
	return nil, h.stateOutput(), nil
}

func (h *Handler) mcpSignIn(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input SignInInput,
) (*mcp.CallToolResult, *model.AccessToken, error) {
	if input.Email == "" || input.Password == "" {
		return nil, nil, fmt.Errorf("email and password are required")
	}
	res, err := h.client.Session().Actions.SignIn(ctx, model.Credentials{Email: input.Email, Password: input.Password})
	return mcpResult(h, res, err)
}

func (h *Handler) mcpSignOut(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input EmptyInput,
) (*mcp.CallToolResult, *StateOutput, error) {
	h.client.Session().Actions.SignOut(ctx)
	return nil, h.stateOutput(), nil
}

func (h *Handler) mcpRenewToken(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input EmptyInput,
) (*mcp.CallToolResult, *model.AccessToken, error) {
	res, err := h.client.Session().Actions.RenewToken(ctx)
	return mcpResult(h, res, err)
}

func (h *Handler) mcpCreateCheckout(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input CreateCheckoutInput,
) (*mcp.CallToolResult, *gateway.Checkout, error) {
	res, err := h.client.Checkout().Actions.CreateCheckout(ctx, gateway.CreateCheckoutInput{
		Email: input.Email,
		Note:  input.Note,
	})
	return mcpResult(h, res, err)
}

// mcpAddToCheckout reports storefront rejections inside the result rather
// than as a tool error, because the local sequence has changed either way.
func (h *Handler) mcpAddToCheckout(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input AddToCheckoutInput,
) (*mcp.CallToolResult, *lineitems.AddResult, error) {
	res, err := h.client.LineItems().Actions.AddToCheckout(ctx, input.VariantID, input.Quantity, input.CustomAttributes)
	if err != nil {
		return nil, nil, h.mcpError(err)
	}
	return nil, res, nil
}

// mcpResult turns a storefront result into tool output, reporting user
// errors as a tool error.
func mcpResult[T any](h *Handler, res model.Result[T], err error) (*mcp.CallToolResult, *T, error) {
	if err != nil {
		return nil, nil, h.mcpError(err)
	}
	if !res.OK() {
		msgs := make([]string, 0, len(res.UserErrors))
		for _, ue := range userErrors(res.UserErrors) {
			msgs = append(msgs, ue.String())
		}
		return nil, nil, fmt.Errorf("rejected: %s", strings.Join(msgs, "; "))
	}
	return nil, res.Data, nil
}

// mcpError converts transport errors to MCP-friendly errors.
func (h *Handler) mcpError(err error) error {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("%s: %s", apiErr.Code, apiErr.Message)
	}
	// Don't leak internal error details
	h.logger.Error("mcp internal error", "error", err.Error())
	return fmt.Errorf("internal error")
}
