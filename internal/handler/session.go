package handler

import (
	"log/slog"
	"net/http"

	"shopsync/internal/gateway"
	"shopsync/internal/model"
)

// handleGetSession returns the session state.
// GET /session
func (h *Handler) handleGetSession(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.client.Session().State)
}

// handleSignIn exchanges credentials for a customer access token.
// POST /session/sign-in
func (h *Handler) handleSignIn(w http.ResponseWriter, r *http.Request) {
	var creds model.Credentials
	if err := decodeJSON(r, &creds); err != nil {
		h.writeError(w, err)
		return
	}
	if creds.Email == "" || creds.Password == "" {
		h.writeError(w, model.NewValidationError("email", "email and password are required"))
		return
	}

	h.logger.InfoContext(r.Context(), "signing in")
	res, err := h.client.Session().Actions.SignIn(r.Context(), creds)
	writeResult(h, w, http.StatusOK, res, err)
}

// handleSignOut revokes the token and resets the state.
// POST /session/sign-out
func (h *Handler) handleSignOut(w http.ResponseWriter, r *http.Request) {
	h.client.Session().Actions.SignOut(r.Context())
	h.writeJSON(w, http.StatusOK, h.stateView(h.client.State()))
}

// handleRenew renews the current token.
// POST /session/renew
func (h *Handler) handleRenew(w http.ResponseWriter, r *http.Request) {
	res, err := h.client.Session().Actions.RenewToken(r.Context())
	writeResult(h, w, http.StatusOK, res, err)
}

// handleActivate activates an invited customer.
// POST /session/activate
func (h *Handler) handleActivate(w http.ResponseWriter, r *http.Request) {
	var input gateway.ActivateInput
	if err := decodeJSON(r, &input); err != nil {
		h.writeError(w, err)
		return
	}
	if input.CustomerID == "" || input.ActivationToken == "" {
		h.writeError(w, model.NewValidationError("activation_token", "customer_id and activation_token are required"))
		return
	}

	h.logger.InfoContext(r.Context(), "activating customer", slog.String("customer_id", input.CustomerID))
	res, err := h.client.Session().Actions.Activate(r.Context(), input)
	writeResult(h, w, http.StatusOK, res, err)
}

// handleReset resets a password from a reset token.
// POST /session/reset
func (h *Handler) handleReset(w http.ResponseWriter, r *http.Request) {
	var input gateway.ResetInput
	if err := decodeJSON(r, &input); err != nil {
		h.writeError(w, err)
		return
	}
	if input.CustomerID == "" || input.ResetToken == "" {
		h.writeError(w, model.NewValidationError("reset_token", "customer_id and reset_token are required"))
		return
	}

	res, err := h.client.Session().Actions.Reset(r.Context(), input)
	writeResult(h, w, http.StatusOK, res, err)
}

// handleResetByURL resets a password from a reset link.
// POST /session/reset-by-url
func (h *Handler) handleResetByURL(w http.ResponseWriter, r *http.Request) {
	var input gateway.ResetByURLInput
	if err := decodeJSON(r, &input); err != nil {
		h.writeError(w, err)
		return
	}
	if input.ResetURL == "" {
		h.writeError(w, model.NewValidationError("reset_url", "required"))
		return
	}

	res, err := h.client.Session().Actions.ResetByURL(r.Context(), input)
	writeResult(h, w, http.StatusOK, res, err)
}
