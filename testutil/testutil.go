// Package testutil provides testing utilities for adapter servers.
//
// It offers an in-memory test client that drives the full request
// dispatch path without a real transport, a recording notification
// sender, and assertion helpers for registry contents.
//
// Example usage:
//
//	func TestMyServer(t *testing.T) {
//	    srv := mcpadapter.NewServer(mcpadapter.ServerInfo{Name: "test", Version: "1.0.0"})
//	    srv.Tool("greet").Handler(func(ctx context.Context, input GreetInput) (string, error) {
//	        return "Hello, " + input.Name, nil
//	    })
//
//	    tc := testutil.NewTestClient(t, srv)
//	    defer tc.Close()
//
//	    result, err := tc.CallTool("greet", map[string]any{"name": "World"})
//	    if err != nil {
//	        t.Fatal(err)
//	    }
//	    if result != "Hello, World" {
//	        t.Errorf("result = %q", result)
//	    }
//	}
package testutil

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"testing"

	mcpadapter "github.com/cliforge/mcp-adapter"
	"github.com/cliforge/mcp-adapter/protocol"
	"github.com/cliforge/mcp-adapter/server"
	"github.com/cliforge/mcp-adapter/transport"
)

// TestClient drives an adapter server in-process through the same
// dispatch path a transport would use.
type TestClient struct {
	t       testing.TB
	srv     *server.Server
	handler transport.Handler
	sender  *RecordingSender
	reqID   int64
	mu      sync.Mutex
}

// NewTestClient creates a test client for the given server and performs
// the initialize handshake, binding a recording notification sender.
func NewTestClient(t testing.TB, srv *server.Server) *TestClient {
	t.Helper()

	tc := &TestClient{
		t:       t,
		srv:     srv,
		handler: mcpadapter.NewRequestHandler(srv),
		sender:  NewRecordingSender(),
	}

	if _, err := tc.Initialize(); err != nil {
		t.Fatalf("failed to initialize server: %v", err)
	}

	return tc
}

// NewTestClientWithHandler creates a test client around a custom
// handler. Useful for testing middleware-wrapped dispatch.
func NewTestClientWithHandler(t testing.TB, handler transport.Handler) *TestClient {
	t.Helper()
	return &TestClient{
		t:       t,
		handler: handler,
		sender:  NewRecordingSender(),
	}
}

// Close releases the client. No cleanup is needed for the in-memory
// client today; callers should still defer it.
func (tc *TestClient) Close() {}

// Sender returns the recording notification sender bound at initialize.
func (tc *TestClient) Sender() *RecordingSender {
	return tc.sender
}

func (tc *TestClient) nextID() json.RawMessage {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	tc.reqID++
	return json.RawMessage(fmt.Sprintf("%d", tc.reqID))
}

// SendRequest sends a raw request through the dispatch path. The
// recording sender is attached to the context, so initialize binds it.
func (tc *TestClient) SendRequest(method string, params any) (*protocol.Response, error) {
	tc.t.Helper()

	var paramsData json.RawMessage
	if params != nil {
		data, err := json.Marshal(params)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal params: %w", err)
		}
		paramsData = data
	}

	req := &protocol.Request{
		JSONRPC: protocol.JSONRPCVersion,
		ID:      tc.nextID(),
		Method:  method,
		Params:  paramsData,
	}

	ctx := transport.ContextWithNotificationSender(context.Background(), tc.sender)
	return tc.handler.HandleRequest(ctx, req)
}

// SendNotification sends a client-to-server notification (no ID, no
// response expected).
func (tc *TestClient) SendNotification(method string, params any) error {
	tc.t.Helper()

	var paramsData json.RawMessage
	if params != nil {
		data, err := json.Marshal(params)
		if err != nil {
			return fmt.Errorf("failed to marshal params: %w", err)
		}
		paramsData = data
	}

	req := &protocol.Request{
		JSONRPC: protocol.JSONRPCVersion,
		Method:  method,
		Params:  paramsData,
	}

	_, err := tc.handler.HandleRequest(context.Background(), req)
	return err
}

// Initialize performs the initialize handshake and returns the result.
func (tc *TestClient) Initialize() (map[string]any, error) {
	tc.t.Helper()

	resp, err := tc.SendRequest(protocol.MethodInitialize, map[string]any{
		"protocolVersion": protocol.MCPVersion,
		"clientInfo": map[string]any{
			"name":    "test-client",
			"version": "1.0.0",
		},
	})
	if err != nil {
		return nil, err
	}
	return resultObject(resp)
}

// ListTools lists all registered tools.
func (tc *TestClient) ListTools() ([]map[string]any, error) {
	tc.t.Helper()
	return tc.listRequest(protocol.MethodToolsList, "tools")
}

// CallTool calls a tool and returns the text content of the result.
func (tc *TestClient) CallTool(name string, args any) (string, error) {
	tc.t.Helper()

	resp, err := tc.CallToolRaw(name, args)
	if err != nil {
		return "", err
	}
	if resp.Error != nil {
		return "", resp.Error
	}

	result, err := resultObject(resp)
	if err != nil {
		return "", err
	}

	content := asMapSlice(result["content"])
	if len(content) == 0 {
		return "", fmt.Errorf("empty content array")
	}
	text, _ := content[0]["text"].(string)
	return text, nil
}

// CallToolRaw calls a tool and returns the raw response.
func (tc *TestClient) CallToolRaw(name string, args any) (*protocol.Response, error) {
	tc.t.Helper()

	return tc.SendRequest(protocol.MethodToolsCall, map[string]any{
		"name":      name,
		"arguments": args,
	})
}

// ListResources lists all registered exact-URI resources.
func (tc *TestClient) ListResources() ([]map[string]any, error) {
	tc.t.Helper()
	return tc.listRequest(protocol.MethodResourcesList, "resources")
}

// ListResourceTemplates lists all registered resource templates in
// registration order.
func (tc *TestClient) ListResourceTemplates() ([]map[string]any, error) {
	tc.t.Helper()
	return tc.listRequest(protocol.MethodResourceTemplatesList, "resourceTemplates")
}

// ReadResource reads a resource by URI and returns its text content.
func (tc *TestClient) ReadResource(uri string) (string, error) {
	tc.t.Helper()

	resp, err := tc.SendRequest(protocol.MethodResourcesRead, map[string]any{"uri": uri})
	if err != nil {
		return "", err
	}
	if resp.Error != nil {
		return "", resp.Error
	}

	result, err := resultObject(resp)
	if err != nil {
		return "", err
	}

	contents := asMapSlice(result["contents"])
	if len(contents) == 0 {
		return "", fmt.Errorf("empty contents array")
	}
	text, _ := contents[0]["text"].(string)
	return text, nil
}

// Subscribe subscribes to updates for a resource URI.
func (tc *TestClient) Subscribe(uri string) error {
	tc.t.Helper()
	return tc.expectEmptyResult(protocol.MethodResourcesSubscribe, map[string]any{"uri": uri})
}

// Unsubscribe removes a resource URI subscription.
func (tc *TestClient) Unsubscribe(uri string) error {
	tc.t.Helper()
	return tc.expectEmptyResult(protocol.MethodResourcesUnsubscribe, map[string]any{"uri": uri})
}

// ListPrompts lists all registered prompts.
func (tc *TestClient) ListPrompts() ([]map[string]any, error) {
	tc.t.Helper()
	return tc.listRequest(protocol.MethodPromptsList, "prompts")
}

// GetPrompt fetches a prompt and returns its result.
func (tc *TestClient) GetPrompt(name string, args map[string]string) (map[string]any, error) {
	tc.t.Helper()

	resp, err := tc.SendRequest(protocol.MethodPromptsGet, map[string]any{
		"name":      name,
		"arguments": args,
	})
	if err != nil {
		return nil, err
	}
	if resp.Error != nil {
		return nil, resp.Error
	}
	return resultObject(resp)
}

// Complete requests argument completion for a prompt or resource
// template and returns the suggested values.
func (tc *TestClient) Complete(ref server.CompletionRef, argName, argValue string) ([]string, error) {
	tc.t.Helper()

	resp, err := tc.SendRequest(protocol.MethodCompletionComplete, map[string]any{
		"ref":      ref,
		"argument": map[string]any{"name": argName, "value": argValue},
	})
	if err != nil {
		return nil, err
	}
	if resp.Error != nil {
		return nil, resp.Error
	}

	result, err := resultObject(resp)
	if err != nil {
		return nil, err
	}

	switch v := result["completion"].(type) {
	case *server.CompletionResult:
		return v.Values, nil
	case map[string]any:
		var values []string
		for _, item := range asAnySlice(v["values"]) {
			if s, ok := item.(string); ok {
				values = append(values, s)
			}
		}
		return values, nil
	default:
		return nil, fmt.Errorf("unexpected completion type: %T", result["completion"])
	}
}

// SetLogLevel sets the client's log-forwarding threshold.
func (tc *TestClient) SetLogLevel(level server.LogLevel) error {
	tc.t.Helper()
	return tc.expectEmptyResult(protocol.MethodLoggingSetLevel, map[string]any{"level": level})
}

// Cancel sends a cancellation notification for a request ID.
func (tc *TestClient) Cancel(requestID, reason string) error {
	tc.t.Helper()
	return tc.SendNotification(protocol.MethodCancelled, map[string]any{
		"requestId": requestID,
		"reason":    reason,
	})
}

func (tc *TestClient) listRequest(method, key string) ([]map[string]any, error) {
	resp, err := tc.SendRequest(method, nil)
	if err != nil {
		return nil, err
	}
	if resp.Error != nil {
		return nil, resp.Error
	}

	result, err := resultObject(resp)
	if err != nil {
		return nil, err
	}

	items := asMapSlice(result[key])
	if items == nil {
		return nil, fmt.Errorf("unexpected %s type: %T", key, result[key])
	}
	return items, nil
}

func (tc *TestClient) expectEmptyResult(method string, params any) error {
	resp, err := tc.SendRequest(method, params)
	if err != nil {
		return err
	}
	if resp.Error != nil {
		return resp.Error
	}
	return nil
}

func resultObject(resp *protocol.Response) (map[string]any, error) {
	if resp == nil {
		return nil, fmt.Errorf("nil response")
	}
	if resp.Error != nil {
		return nil, resp.Error
	}
	result, ok := resp.Result.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("unexpected result type: %T", resp.Result)
	}
	return result, nil
}

// asMapSlice normalizes a list value that may be []map[string]any (from
// in-process dispatch) or []any (after a JSON round trip).
func asMapSlice(v any) []map[string]any {
	switch items := v.(type) {
	case []map[string]any:
		return items
	case []any:
		out := make([]map[string]any, 0, len(items))
		for _, item := range items {
			if m, ok := item.(map[string]any); ok {
				out = append(out, m)
			}
		}
		return out
	default:
		return nil
	}
}

func asAnySlice(v any) []any {
	switch items := v.(type) {
	case []any:
		return items
	case []string:
		out := make([]any, len(items))
		for i, s := range items {
			out[i] = s
		}
		return out
	default:
		return nil
	}
}

// RecordingSender is a NotificationSender that records every
// notification for later assertions.
type RecordingSender struct {
	mu   sync.Mutex
	sent []RecordedNotification
}

// RecordedNotification is one captured server-to-client notification.
type RecordedNotification struct {
	Method string
	Params json.RawMessage
}

// NewRecordingSender creates an empty recording sender.
func NewRecordingSender() *RecordingSender {
	return &RecordingSender{}
}

// SendNotification implements the notification sender contract.
func (r *RecordingSender) SendNotification(method string, params any) error {
	data, err := json.Marshal(params)
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, RecordedNotification{Method: method, Params: data})
	return nil
}

// Notifications returns a copy of all recorded notifications.
func (r *RecordingSender) Notifications() []RecordedNotification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]RecordedNotification(nil), r.sent...)
}

// NotificationsFor returns the recorded notifications with the given
// method.
func (r *RecordingSender) NotificationsFor(method string) []RecordedNotification {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []RecordedNotification
	for _, n := range r.sent {
		if n.Method == method {
			out = append(out, n)
		}
	}
	return out
}

// Reset discards all recorded notifications.
func (r *RecordingSender) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = nil
}

// AssertToolExists asserts that a tool with the given name is listed.
func AssertToolExists(t testing.TB, tc *TestClient, name string) {
	t.Helper()

	tools, err := tc.ListTools()
	if err != nil {
		t.Fatalf("failed to list tools: %v", err)
	}
	for _, tool := range tools {
		if tool["name"] == name {
			return
		}
	}
	t.Errorf("tool %q not found", name)
}

// AssertResourceExists asserts that a resource whose URI contains the
// given fragment is listed.
func AssertResourceExists(t testing.TB, tc *TestClient, uriFragment string) {
	t.Helper()

	resources, err := tc.ListResources()
	if err != nil {
		t.Fatalf("failed to list resources: %v", err)
	}
	for _, r := range resources {
		if uri, ok := r["uri"].(string); ok && strings.Contains(uri, uriFragment) {
			return
		}
	}
	t.Errorf("resource matching %q not found", uriFragment)
}

// AssertPromptExists asserts that a prompt with the given name is listed.
func AssertPromptExists(t testing.TB, tc *TestClient, name string) {
	t.Helper()

	prompts, err := tc.ListPrompts()
	if err != nil {
		t.Fatalf("failed to list prompts: %v", err)
	}
	for _, p := range prompts {
		if p["name"] == name {
			return
		}
	}
	t.Errorf("prompt %q not found", name)
}
