package handler

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"shopsync/internal/gateway"
	"shopsync/internal/model"
)

func TestStateStream(t *testing.T) {
	client, mux := testHandler(t, signInMock())
	server := httptest.NewServer(mux)
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/state/stream"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial() error: %v", err)
	}
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	var first stateResponse
	if err := conn.ReadJSON(&first); err != nil {
		t.Fatalf("reading initial state: %v", err)
	}
	if first.IsSignedIn {
		t.Error("initial snapshot should be signed out")
	}

	if _, err := client.Checkout().Actions.CreateCheckout(context.Background(), gateway.CreateCheckoutInput{}); err != nil {
		t.Fatalf("CreateCheckout() error: %v", err)
	}

	var next stateResponse
	if err := conn.ReadJSON(&next); err != nil {
		t.Fatalf("reading update: %v", err)
	}
	if next.State.CheckoutID == nil || *next.State.CheckoutID != "gid://shopify/Checkout/1" {
		t.Errorf("CheckoutID = %v", next.State.CheckoutID)
	}

	if _, err := client.Session().Actions.SignIn(context.Background(), model.Credentials{Email: "a@b.c", Password: "secret"}); err != nil {
		t.Fatalf("SignIn() error: %v", err)
	}
	var signedIn stateResponse
	if err := conn.ReadJSON(&signedIn); err != nil {
		t.Fatalf("reading update: %v", err)
	}
	if !signedIn.IsSignedIn {
		t.Error("expected signed-in snapshot")
	}
}

func TestStateStreamRequiresUpgrade(t *testing.T) {
	_, mux := testHandler(t, &gateway.Mock{})

	w := doJSON(mux, "GET", "/state/stream", nil)

	if w.Code != 400 {
		t.Errorf("Status = %d, want 400", w.Code)
	}
}
