package handler

import (
	"log/slog"
	"maps"
	"net/http"

	"shopsync/internal/gateway"
	"shopsync/internal/model"
)

// LineItemAttributesHeader carries custom attributes as a structured-field
// dictionary, e.g. `gift_wrap=?1, note="for mom"`. Body attributes win on conflict.
const LineItemAttributesHeader = "Line-Item-Attributes"

// handleGetCheckout returns the checkout state.
// GET /checkout
func (h *Handler) handleGetCheckout(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.client.Checkout().State)
}

// handleCreateCheckout opens a new checkout.
// POST /checkout
func (h *Handler) handleCreateCheckout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var input gateway.CreateCheckoutInput
	if err := decodeJSON(r, &input); err != nil {
		h.writeError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "creating checkout",
		slog.Int("line_items", len(input.LineItems)),
		slog.Bool("has_email", input.Email != ""),
	)

	res, err := h.client.Checkout().Actions.CreateCheckout(ctx, input)
	writeResult(h, w, http.StatusCreated, res, err)
}

type autoCreateRequest struct {
	Enabled bool `json:"enabled"`
}

// handleSetAutoCreate toggles automatic checkout creation.
// PUT /checkout/auto-create
func (h *Handler) handleSetAutoCreate(w http.ResponseWriter, r *http.Request) {
	var req autoCreateRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, err)
		return
	}

	h.client.Checkout().Actions.SetAutoCreate(r.Context(), req.Enabled)
	h.writeJSON(w, http.StatusOK, h.client.Checkout().State)
}

type addLineItemRequest struct {
	VariantID        string            `json:"variant_id"`
	Quantity         int               `json:"quantity"`
	CustomAttributes map[string]string `json:"custom_attributes,omitempty"`
}

// handleAddLineItem merges a variant into the checkout.
// POST /checkout/line-items
//
// The local sequence is updated even when the storefront rejects it, so a
// 422 response still carries the persisted line_items.
func (h *Handler) handleAddLineItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req addLineItemRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, err)
		return
	}

	attrs, err := model.ParseAttributes(r.Header.Get(LineItemAttributesHeader))
	if err != nil {
		h.writeError(w, model.NewValidationError(LineItemAttributesHeader, err.Error()))
		return
	}
	if len(req.CustomAttributes) > 0 {
		if attrs == nil {
			attrs = make(map[string]string, len(req.CustomAttributes))
		}
		maps.Copy(attrs, req.CustomAttributes)
	}

	res, err := h.client.LineItems().Actions.AddToCheckout(ctx, req.VariantID, req.Quantity, attrs)
	if res == nil {
		h.writeError(w, err)
		return
	}
	if err != nil {
		h.logger.WarnContext(ctx, "line items saved locally but not synced", slog.String("error", err.Error()))
		h.writeError(w, err)
		return
	}

	status := http.StatusOK
	if !res.Remote.OK() {
		status = http.StatusUnprocessableEntity
	}
	h.writeJSON(w, status, res)
}
