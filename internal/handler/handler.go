// Package handler provides HTTP handlers for the local shopsync API.
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"shopsync/internal/model"
	"shopsync/internal/shop"
)

// Handler holds dependencies for HTTP handlers.
type Handler struct {
	client   *shop.Client
	logger   *slog.Logger
	upgrader websocket.Upgrader
}

// New creates a new Handler serving client.
func New(client *shop.Client, logger *slog.Logger) *Handler {
	return &Handler{
		client: client,
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
		},
	}
}

// RegisterRoutes registers all HTTP routes with the given ServeMux.
// Uses Go 1.22+ method routing patterns.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	// Full persisted state
	mux.HandleFunc("GET /state", h.handleGetState)
	mux.HandleFunc("GET /state/stream", h.handleStateStream)

	// Session actions
	mux.HandleFunc("GET /session", h.handleGetSession)
	mux.HandleFunc("POST /session/sign-in", h.handleSignIn)
	mux.HandleFunc("POST /session/sign-out", h.handleSignOut)
	mux.HandleFunc("POST /session/renew", h.handleRenew)
	mux.HandleFunc("POST /session/activate", h.handleActivate)
	mux.HandleFunc("POST /session/reset", h.handleReset)
	mux.HandleFunc("POST /session/reset-by-url", h.handleResetByURL)

	// Checkout actions
	mux.HandleFunc("GET /checkout", h.handleGetCheckout)
	mux.HandleFunc("POST /checkout", h.handleCreateCheckout)
	mux.HandleFunc("PUT /checkout/auto-create", h.handleSetAutoCreate)
	mux.HandleFunc("POST /checkout/line-items", h.handleAddLineItem)

	// MCP transport - JSON-RPC endpoint using official MCP SDK
	mux.Handle("/mcp", h.NewMCPHandler())

	// Health check
	mux.HandleFunc("GET /health", h.handleHealth)
	mux.HandleFunc("GET /healthz", h.handleHealth)
}

// handleHealth returns a simple health check response.
// GET /health, GET /healthz
func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, healthResponse{Status: "ok"})
}

type healthResponse struct {
	Status string `json:"status"`
}

// stateResponse is the persisted state plus values derived from it.
type stateResponse struct {
	State        model.PersistedState `json:"state"`
	IsSignedIn   bool                 `json:"is_signed_in"`
	SessionIsNew bool                 `json:"session_is_new"`
}

func (h *Handler) stateView(state model.PersistedState) *stateResponse {
	return &stateResponse{
		State:        state,
		IsSignedIn:   state.IsSignedIn(),
		SessionIsNew: h.client.Session().State.IsNew,
	}
}

// handleGetState returns the full persisted state.
// GET /state
func (h *Handler) handleGetState(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.stateView(h.client.State()))
}

// === Response Helpers ===

// writeJSON sends a JSON response with the given status code.
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", slog.String("error", err.Error()))
	}
}

// writeError sends an error response, extracting status/code from APIError if present.
// Uses errors.As() to unwrap error chains (e.g., fmt.Errorf wrapping).
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	var apiErr *model.APIError

	if !errors.As(err, &apiErr) {
		apiErr = model.NewInternalError(err)
		h.logger.Error("internal error", slog.String("error", err.Error()))
	}

	h.writeJSON(w, apiErr.StatusCode, errorResponse{
		Error: errorBody{
			Code:    apiErr.Code,
			Message: apiErr.Message,
		},
	})
}

// writeResult sends the payload of a successful storefront call with status,
// or 422 with the storefront's user errors.
func writeResult[T any](h *Handler, w http.ResponseWriter, status int, res model.Result[T], err error) {
	if err != nil {
		h.writeError(w, err)
		return
	}
	if !res.OK() {
		h.writeJSON(w, http.StatusUnprocessableEntity, userErrorResponse{UserErrors: userErrors(res.UserErrors)})
		return
	}
	h.writeJSON(w, status, res.Data)
}

// userErrors never returns nil so clients always see an array.
func userErrors(errs []model.UserError) []model.UserError {
	if len(errs) == 0 {
		return []model.UserError{{Message: "request was rejected"}}
	}
	return errs
}

// errorResponse is the JSON structure for error responses.
type errorResponse struct {
	Error errorBody `json:"error"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type userErrorResponse struct {
	UserErrors []model.UserError `json:"user_errors"`
}

// MaxRequestBodySize limits JSON request bodies to 1MB to prevent DoS.
const MaxRequestBodySize = 1 << 20 // 1MB

// decodeJSON reads JSON from request body into v.
// Limits body size to MaxRequestBodySize to prevent memory exhaustion.
// An empty body leaves v unchanged. Returns an APIError if decoding fails.
func decodeJSON(r *http.Request, v any) error {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}
	r.Body = http.MaxBytesReader(nil, r.Body, MaxRequestBodySize)

	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		// Don't expose internal error details to client
		return model.NewValidationError("body", "invalid JSON")
	}
	return nil
}
