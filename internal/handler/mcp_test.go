package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"shopsync/internal/gateway"
	"shopsync/internal/lineitems"
	"shopsync/internal/model"
)

// jsonrpcRequest is a JSON-RPC 2.0 request structure for testing.
type jsonrpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      any    `json:"id"`
	Method  string `json:"method"`
	Params  any    `json:"params,omitempty"`
}

// jsonrpcResponse is a JSON-RPC 2.0 response structure for testing.
type jsonrpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      any             `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *jsonrpcError   `json:"error,omitempty"`
}

type jsonrpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// toolCallParams represents the params for tools/call method.
type toolCallParams struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments,omitempty"`
}

// callToolResult is the expected result structure from a tool call.
type callToolResult struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text,omitempty"`
	} `json:"content"`
	IsError bool `json:"isError,omitempty"`
}

func TestMCPServerCreation(t *testing.T) {
	client, _ := testHandler(t, &gateway.Mock{})
	h := New(client, nil)

	if h.NewMCPServer() == nil {
		t.Fatal("NewMCPServer returned nil")
	}
	if h.NewMCPHandler() == nil {
		t.Fatal("NewMCPHandler returned nil")
	}
}

func TestMCPToolsList(t *testing.T) {
	_, mux := testHandler(t, &gateway.Mock{})
	sessionID := initMCPSession(t, mux)

	resp := mcpCall(t, mux, sessionID, jsonrpcRequest{JSONRPC: "2.0", ID: 2, Method: "tools/list"})

	var toolsResult struct {
		Tools []struct {
			Name string `json:"name"`
		} `json:"tools"`
	}
	if err := json.Unmarshal(resp.Result, &toolsResult); err != nil {
		t.Fatalf("Failed to parse tools result: %v", err)
	}

	expectedTools := map[string]bool{
		"get_state":       false,
		"sign_in":         false,
		"sign_out":        false,
		"renew_token":     false,
		"create_checkout": false,
		"add_to_checkout": false,
	}
	for _, tool := range toolsResult.Tools {
		if _, ok := expectedTools[tool.Name]; ok {
			expectedTools[tool.Name] = true
		}
	}
	for name, found := range expectedTools {
		if !found {
			t.Errorf("Expected tool %q not found in tools list", name)
		}
	}
}

func TestMCPSignInAndGetState(t *testing.T) {
	client, mux := testHandler(t, signInMock())
	sessionID := initMCPSession(t, mux)

	result := callTool(t, mux, sessionID, "sign_in", map[string]any{"email": "a@b.c", "password": "secret"})
	if result.IsError {
		t.Fatalf("sign_in returned error: %+v", result.Content)
	}
	var tok model.AccessToken
	if err := json.Unmarshal([]byte(result.Content[0].Text), &tok); err != nil {
		t.Fatalf("Failed to parse token: %v", err)
	}
	if tok.AccessToken != "tok" {
		t.Errorf("AccessToken = %s, want tok", tok.AccessToken)
	}
	if !client.Session().State.IsSignedIn {
		t.Error("not signed in after sign_in tool")
	}

	result = callTool(t, mux, sessionID, "get_state", map[string]any{})
	if result.IsError {
		t.Fatalf("get_state returned error: %+v", result.Content)
	}
	var state StateOutput
	if err := json.Unmarshal([]byte(result.Content[0].Text), &state); err != nil {
		t.Fatalf("Failed to parse state: %v", err)
	}
	if !state.IsSignedIn || state.SessionIsNew || state.CustomerAccessToken != "tok" {
		t.Errorf("state = %+v", state)
	}
	if state.CustomerAccessTokenExpiresAt != "2031-01-02T03:04:05Z" {
		t.Errorf("expires at = %s", state.CustomerAccessTokenExpiresAt)
	}
}

func TestMCPSignInRejected(t *testing.T) {
	_, mux := testHandler(t, signInMock())
	sessionID := initMCPSession(t, mux)

	result := callTool(t, mux, sessionID, "sign_in", map[string]any{"email": "a@b.c", "password": "wrong"})

	if !result.IsError {
		t.Fatal("Expected tool error for rejected credentials")
	}
	if !strings.Contains(result.Content[0].Text, "Unidentified customer") {
		t.Errorf("error text = %s", result.Content[0].Text)
	}
}

func TestMCPCreateCheckoutAndAdd(t *testing.T) {
	client, mux := testHandler(t, signInMock())
	sessionID := initMCPSession(t, mux)

	result := callTool(t, mux, sessionID, "create_checkout", map[string]any{"email": "a@b.c"})
	if result.IsError {
		t.Fatalf("create_checkout returned error: %+v", result.Content)
	}

	result = callTool(t, mux, sessionID, "add_to_checkout", map[string]any{
		"variant_id":        "v1",
		"quantity":          3,
		"custom_attributes": map[string]string{"engraving": "JS"},
	})
	if result.IsError {
		t.Fatalf("add_to_checkout returned error: %+v", result.Content)
	}
	var res lineitems.AddResult
	if err := json.Unmarshal([]byte(result.Content[0].Text), &res); err != nil {
		t.Fatalf("Failed to parse add result: %v", err)
	}
	if !res.Remote.OK() || len(res.LineItems) != 1 || res.LineItems[0].Quantity != 3 {
		t.Errorf("result = %+v", res)
	}
	if client.Checkout().State.CheckoutID == nil {
		t.Error("checkout id not persisted")
	}
}

func TestMCPAddToCheckoutValidation(t *testing.T) {
	_, mux := testHandler(t, signInMock())
	sessionID := initMCPSession(t, mux)

	result := callTool(t, mux, sessionID, "add_to_checkout", map[string]any{"variant_id": "", "quantity": 1})

	if !result.IsError {
		t.Error("Expected tool error for empty variant_id")
	}
	if !strings.Contains(result.Content[0].Text, "VALIDATION_ERROR") {
		t.Errorf("error text = %s", result.Content[0].Text)
	}
}

func TestMCPSignOut(t *testing.T) {
	client, mux := testHandler(t, signInMock())
	sessionID := initMCPSession(t, mux)
	callTool(t, mux, sessionID, "sign_in", map[string]any{"email": "a@b.c", "password": "secret"})

	result := callTool(t, mux, sessionID, "sign_out", map[string]any{})

	if result.IsError {
		t.Fatalf("sign_out returned error: %+v", result.Content)
	}
	if client.Session().State.IsSignedIn {
		t.Error("still signed in after sign_out")
	}
}

// callTool invokes a tool and returns its result.
func callTool(t *testing.T, mux *http.ServeMux, sessionID, name string, args any) callToolResult {
	t.Helper()

	rawArgs, _ := json.Marshal(args)
	resp := mcpCall(t, mux, sessionID, jsonrpcRequest{
		JSONRPC: "2.0",
		ID:      2,
		Method:  "tools/call",
		Params:  toolCallParams{Name: name, Arguments: rawArgs},
	})
	if resp.Error != nil {
		t.Fatalf("Unexpected JSON-RPC error: %+v", resp.Error)
	}

	var result callToolResult
	if err := json.Unmarshal(resp.Result, &result); err != nil {
		t.Fatalf("Failed to parse result: %v", err)
	}
	if len(result.Content) == 0 {
		t.Fatal("Expected content in result")
	}
	return result
}

// mcpCall posts a JSON-RPC request and decodes the response.
func mcpCall(t *testing.T, mux *http.ServeMux, sessionID string, req jsonrpcRequest) jsonrpcResponse {
	t.Helper()

	body, _ := json.Marshal(req)
	httpReq := httptest.NewRequest("POST", "/mcp", bytes.NewReader(body))
	setMCPHeaders(httpReq, sessionID)
	w := httptest.NewRecorder()

	mux.ServeHTTP(w, httpReq)

	if w.Code != http.StatusOK {
		t.Fatalf("Status = %d, want %d\nBody: %s", w.Code, http.StatusOK, w.Body.String())
	}

	jsonData, err := parseSSEResponse(w.Body.String())
	if err != nil {
		t.Fatalf("Failed to parse SSE response: %v", err)
	}

	var resp jsonrpcResponse
	if err := json.Unmarshal(jsonData, &resp); err != nil {
		t.Fatalf("Failed to decode response: %v\nBody: %s", err, string(jsonData))
	}
	return resp
}

func setMCPHeaders(req *http.Request, sessionID string) {
	req.Header.Set("Content-Type", "application/json")
	// MCP Streamable HTTP requires Accept header with both json and event-stream
	req.Header.Set("Accept", "application/json, text/event-stream")
	if sessionID != "" {
		req.Header.Set("Mcp-Session-Id", sessionID)
	}
}

// parseSSEResponse extracts JSON data from SSE formatted response.
// SSE format: "event: message\ndata: {json}\n\n"
func parseSSEResponse(body string) ([]byte, error) {
	for _, line := range strings.Split(body, "\n") {
		if strings.HasPrefix(line, "data: ") {
			return []byte(strings.TrimPrefix(line, "data: ")), nil
		}
	}
	// If no SSE format found, assume plain JSON
	return []byte(body), nil
}

// initMCPSession initializes an MCP session and returns the session ID.
func initMCPSession(t *testing.T, mux *http.ServeMux) string {
	t.Helper()

	initReq := jsonrpcRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "initialize",
		Params: map[string]any{
			"protocolVersion": "2025-06-18",
			"clientInfo":      map[string]string{"name": "test", "version": "1.0"},
			"capabilities":    map[string]any{},
		},
	}

	body, _ := json.Marshal(initReq)
	httpReq := httptest.NewRequest("POST", "/mcp", bytes.NewReader(body))
	setMCPHeaders(httpReq, "")
	w := httptest.NewRecorder()

	mux.ServeHTTP(w, httpReq)

	if w.Code != http.StatusOK {
		t.Fatalf("Failed to initialize MCP session: %s", w.Body.String())
	}

	return w.Header().Get("Mcp-Session-Id")
}
