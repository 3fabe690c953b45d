package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"shopsync/internal/gateway"
	"shopsync/internal/lineitems"
	"shopsync/internal/model"
	"shopsync/internal/shop"
)

var testExpiry = time.Date(2031, 1, 2, 3, 4, 5, 0, time.UTC)

func testHandler(t *testing.T, mock *gateway.Mock) (*shop.Client, *http.ServeMux) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	client, err := shop.New(context.Background(), shop.Options{Gateway: mock, Logger: logger})
	if err != nil {
		t.Fatalf("shop.New() error: %v", err)
	}
	h := New(client, logger)
	mux := http.NewServeMux()
	h.RegisterRoutes(mux)
	return client, mux
}

func signInMock() *gateway.Mock {
	return &gateway.Mock{
		CreateCustomerAccessTokenFunc: func(ctx context.Context, creds model.Credentials) (model.Result[model.AccessToken], error) {
			if creds.Password != "secret" {
				return model.Failure[model.AccessToken](model.UserError{
					Field:   []string{"input", "password"},
					Message: "Unidentified customer",
					Code:    "UNIDENTIFIED_CUSTOMER",
				}), nil
			}
			return model.Success(model.AccessToken{AccessToken: "tok", ExpiresAt: testExpiry}), nil
		},
		CreateCheckoutFunc: func(ctx context.Context, input gateway.CreateCheckoutInput) (model.Result[gateway.Checkout], error) {
			return model.Success(gateway.Checkout{ID: "gid://shopify/Checkout/1", Currency: "USD"}), nil
		},
		ReplaceLineItemsFunc: func(ctx context.Context, id string, items []model.LineItem) (model.Result[gateway.Checkout], error) {
			for _, item := range items {
				if item.VariantID == "sold-out" {
					return model.Failure[gateway.Checkout](model.UserError{Message: "Variant is sold out", Code: "NOT_ENOUGH_IN_STOCK"}), nil
				}
			}
			return model.Success(gateway.Checkout{ID: id, LineItems: items}), nil
		},
	}
}

func doJSON(mux *http.ServeMux, method, path string, body any) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

func TestHandleHealth(t *testing.T) {
	_, mux := testHandler(t, &gateway.Mock{})

	w := doJSON(mux, "GET", "/health", nil)

	if w.Code != http.StatusOK {
		t.Errorf("Status = %d, want %d", w.Code, http.StatusOK)
	}

	var resp healthResponse
	json.NewDecoder(w.Body).Decode(&resp)
	if resp.Status != "ok" {
		t.Errorf("Status = %s, want ok", resp.Status)
	}
}

func TestHandleGetState(t *testing.T) {
	_, mux := testHandler(t, &gateway.Mock{})

	w := doJSON(mux, "GET", "/state", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Status = %d, want %d", w.Code, http.StatusOK)
	}

	var resp stateResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.IsSignedIn {
		t.Error("IsSignedIn = true on a fresh state")
	}
	if !resp.SessionIsNew {
		t.Error("SessionIsNew = false on a fresh process")
	}
	if resp.State.CheckoutLineItems == nil {
		t.Error("checkout_line_items should be an empty array, not null")
	}
}

func TestHandleSignIn(t *testing.T) {
	tests := []struct {
		name       string
		body       any
		wantStatus int
		wantSigned bool
	}{
		{
			name:       "success",
			body:       model.Credentials{Email: "a@b.c", Password: "secret"},
			wantStatus: http.StatusOK,
			wantSigned: true,
		},
		{
			name:       "rejected",
			body:       model.Credentials{Email: "a@b.c", Password: "wrong"},
			wantStatus: http.StatusUnprocessableEntity,
		},
		{
			name:       "missing password",
			body:       model.Credentials{Email: "a@b.c"},
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, mux := testHandler(t, signInMock())

			w := doJSON(mux, "POST", "/session/sign-in", tt.body)

			if w.Code != tt.wantStatus {
				t.Errorf("Status = %d, want %d\nBody: %s", w.Code, tt.wantStatus, w.Body.String())
			}
			if got := client.Session().State.IsSignedIn; got != tt.wantSigned {
				t.Errorf("IsSignedIn = %v, want %v", got, tt.wantSigned)
			}
			if tt.wantStatus == http.StatusUnprocessableEntity {
				var resp userErrorResponse
				json.NewDecoder(w.Body).Decode(&resp)
				if len(resp.UserErrors) != 1 || resp.UserErrors[0].Code != "UNIDENTIFIED_CUSTOMER" {
					t.Errorf("UserErrors = %+v", resp.UserErrors)
				}
			}
		})
	}
}

func TestHandleSignInInvalidJSON(t *testing.T) {
	_, mux := testHandler(t, signInMock())

	req := httptest.NewRequest("POST", "/session/sign-in", bytes.NewReader([]byte("{invalid")))
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Status = %d, want %d", w.Code, http.StatusBadRequest)
	}
	var resp errorResponse
	json.NewDecoder(w.Body).Decode(&resp)
	if resp.Error.Code != "VALIDATION_ERROR" {
		t.Errorf("Code = %s, want VALIDATION_ERROR", resp.Error.Code)
	}
}

func TestHandleSignOut(t *testing.T) {
	client, mux := testHandler(t, signInMock())
	doJSON(mux, "POST", "/session/sign-in", model.Credentials{Email: "a@b.c", Password: "secret"})

	w := doJSON(mux, "POST", "/session/sign-out", nil)

	if w.Code != http.StatusOK {
		t.Fatalf("Status = %d, want %d", w.Code, http.StatusOK)
	}
	if client.Session().State.IsSignedIn {
		t.Error("still signed in after sign-out")
	}
	var resp stateResponse
	json.NewDecoder(w.Body).Decode(&resp)
	if !resp.SessionIsNew {
		t.Error("SessionIsNew = false after sign-out")
	}
}

func TestHandleRenewUpstreamError(t *testing.T) {
	mock := signInMock()
	mock.RenewCustomerAccessTokenFunc = func(ctx context.Context, token string) (model.Result[model.AccessToken], error) {
		return model.Result[model.AccessToken]{}, model.NewUpstreamError("Storefront", errors.New("connection refused"))
	}
	client, mux := testHandler(t, mock)
	doJSON(mux, "POST", "/session/sign-in", model.Credentials{Email: "a@b.c", Password: "secret"})

	w := doJSON(mux, "POST", "/session/renew", nil)

	if w.Code != http.StatusBadGateway {
		t.Errorf("Status = %d, want %d", w.Code, http.StatusBadGateway)
	}
	if !client.Session().State.IsSignedIn {
		t.Error("transport failure should not sign out")
	}
}

func TestHandleSessionRecoveryActions(t *testing.T) {
	mock := &gateway.Mock{
		ActivateCustomerFunc: func(ctx context.Context, input gateway.ActivateInput) (model.Result[model.AccessToken], error) {
			return model.Success(model.AccessToken{AccessToken: "act", ExpiresAt: testExpiry}), nil
		},
		ResetCustomerFunc: func(ctx context.Context, input gateway.ResetInput) (model.Result[model.AccessToken], error) {
			return model.Success(model.AccessToken{AccessToken: "rst", ExpiresAt: testExpiry}), nil
		},
		ResetCustomerByURLFunc: func(ctx context.Context, input gateway.ResetByURLInput) (model.Result[model.AccessToken], error) {
			return model.Success(model.AccessToken{AccessToken: "url", ExpiresAt: testExpiry}), nil
		},
	}

	tests := []struct {
		path       string
		body       any
		wantStatus int
		wantToken  string
	}{
		{"/session/activate", gateway.ActivateInput{CustomerID: "1", ActivationToken: "a", Password: "p"}, http.StatusOK, "act"},
		{"/session/activate", gateway.ActivateInput{CustomerID: "1"}, http.StatusBadRequest, ""},
		{"/session/reset", gateway.ResetInput{CustomerID: "1", ResetToken: "r", Password: "p"}, http.StatusOK, "rst"},
		{"/session/reset", gateway.ResetInput{}, http.StatusBadRequest, ""},
		{"/session/reset-by-url", gateway.ResetByURLInput{ResetURL: "https://shop/reset", Password: "p"}, http.StatusOK, "url"},
		{"/session/reset-by-url", gateway.ResetByURLInput{}, http.StatusBadRequest, ""},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			_, mux := testHandler(t, mock)
			w := doJSON(mux, "POST", tt.path, tt.body)

			if w.Code != tt.wantStatus {
				t.Fatalf("Status = %d, want %d\nBody: %s", w.Code, tt.wantStatus, w.Body.String())
			}
			if tt.wantToken != "" {
				var tok model.AccessToken
				json.NewDecoder(w.Body).Decode(&tok)
				if tok.AccessToken != tt.wantToken {
					t.Errorf("AccessToken = %s, want %s", tok.AccessToken, tt.wantToken)
				}
			}
		})
	}
}

func TestHandleCreateCheckout(t *testing.T) {
	client, mux := testHandler(t, signInMock())

	w := doJSON(mux, "POST", "/checkout", gateway.CreateCheckoutInput{Email: "a@b.c"})

	if w.Code != http.StatusCreated {
		t.Fatalf("Status = %d, want %d\nBody: %s", w.Code, http.StatusCreated, w.Body.String())
	}
	var checkout gateway.Checkout
	json.NewDecoder(w.Body).Decode(&checkout)
	if checkout.ID != "gid://shopify/Checkout/1" {
		t.Errorf("ID = %s", checkout.ID)
	}
	if id := client.Checkout().State.CheckoutID; id == nil || *id != checkout.ID {
		t.Errorf("persisted checkout id = %v", id)
	}

	w = doJSON(mux, "GET", "/checkout", nil)
	var state shop.CheckoutState
	json.NewDecoder(w.Body).Decode(&state)
	if state.CheckoutID == nil || *state.CheckoutID != checkout.ID {
		t.Errorf("GET /checkout = %+v", state)
	}
}

func TestHandleSetAutoCreate(t *testing.T) {
	client, mux := testHandler(t, signInMock())

	w := doJSON(mux, "PUT", "/checkout/auto-create", autoCreateRequest{Enabled: true})

	if w.Code != http.StatusOK {
		t.Fatalf("Status = %d, want %d", w.Code, http.StatusOK)
	}
	if client.Checkout().State.CheckoutID == nil {
		t.Error("enabling auto-create should open a checkout")
	}
}

func TestHandleAddLineItem(t *testing.T) {
	client, mux := testHandler(t, signInMock())
	doJSON(mux, "POST", "/checkout", nil)

	body, _ := json.Marshal(addLineItemRequest{VariantID: "v1", Quantity: 2, CustomAttributes: map[string]string{"note": "body"}})
	req := httptest.NewRequest("POST", "/checkout/line-items", bytes.NewReader(body))
	req.Header.Set(LineItemAttributesHeader, `gift_wrap=?1, note="header"`)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Status = %d, want %d\nBody: %s", w.Code, http.StatusOK, w.Body.String())
	}

	var res lineitems.AddResult
	if err := json.NewDecoder(w.Body).Decode(&res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(res.LineItems) != 1 || res.LineItems[0].Quantity != 2 {
		t.Fatalf("LineItems = %+v", res.LineItems)
	}
	attrs := res.LineItems[0].CustomAttributes
	if attrs["gift_wrap"] != "true" || attrs["note"] != "body" {
		t.Errorf("CustomAttributes = %v", attrs)
	}
	if len(client.LineItems().State) != 1 {
		t.Error("line item not persisted")
	}
}

func TestHandleAddLineItemRejected(t *testing.T) {
	client, mux := testHandler(t, signInMock())
	doJSON(mux, "POST", "/checkout", nil)

	w := doJSON(mux, "POST", "/checkout/line-items", addLineItemRequest{VariantID: "sold-out"})

	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("Status = %d, want %d", w.Code, http.StatusUnprocessableEntity)
	}
	if len(client.LineItems().State) != 1 {
		t.Error("rejected line item should still be persisted locally")
	}
}

func TestHandleAddLineItemValidation(t *testing.T) {
	tests := []struct {
		name   string
		body   addLineItemRequest
		header string
	}{
		{name: "missing variant", body: addLineItemRequest{Quantity: 1}},
		{name: "negative quantity", body: addLineItemRequest{VariantID: "v1", Quantity: -2}},
		{name: "bad attributes header", body: addLineItemRequest{VariantID: "v1"}, header: `note=("a" "b")`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, mux := testHandler(t, signInMock())
			body, _ := json.Marshal(tt.body)
			req := httptest.NewRequest("POST", "/checkout/line-items", bytes.NewReader(body))
			if tt.header != "" {
				req.Header.Set(LineItemAttributesHeader, tt.header)
			}
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)

			if w.Code != http.StatusBadRequest {
				t.Errorf("Status = %d, want %d\nBody: %s", w.Code, http.StatusBadRequest, w.Body.String())
			}
		})
	}
}

func TestErrorResponses(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"not found", model.NewNotFoundError("checkout"), http.StatusNotFound, "NOT_FOUND"},
		{"validation", model.NewValidationError("field", "bad"), http.StatusBadRequest, "VALIDATION_ERROR"},
		{"unauthorized", model.NewUnauthorizedError("nope"), http.StatusUnauthorized, "UNAUTHORIZED"},
		{"rate limited", model.NewRateLimitError("Storefront"), http.StatusTooManyRequests, "RATE_LIMITED"},
		{"plain error", errors.New("boom"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}

	h := New(nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			h.writeError(w, tt.err)

			if w.Code != tt.wantStatus {
				t.Errorf("Status = %d, want %d", w.Code, tt.wantStatus)
			}
			var resp errorResponse
			json.NewDecoder(w.Body).Decode(&resp)
			if resp.Error.Code != tt.wantCode {
				t.Errorf("Code = %s, want %s", resp.Error.Code, tt.wantCode)
			}
		})
	}
}
